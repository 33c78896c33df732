package sessionkit

import "context"

// UpdateProfile changes the display name and, when non-empty, the avatar
// URL of the current identity. On success the cached identity snapshot is
// patched immediately so subsequent reads reflect the change without
// waiting for an external push; the provider does not always re-push on
// profile edits. The next push reconciles (replaces) the patch, never the
// other way around.
func (o *Orchestrator) UpdateProfile(ctx context.Context, displayName, avatarURL string) error {
	if err := o.requireStarted(); err != nil {
		return err
	}

	identity := o.currentIdentity()
	if identity == nil {
		o.emitAudit(ctx, auditEventProfileUpdate, false, "", MethodUnknown, ErrNoActiveIdentity, nil)
		return ErrNoActiveIdentity
	}

	update := ProfileUpdate{
		DisplayName: displayName,
		AvatarURL:   avatarURL,
	}
	if err := o.provider.UpdateProfile(ctx, identity.ID, update); err != nil {
		mapped := mapProviderError(err)
		o.emitAudit(ctx, auditEventProfileUpdate, false, identity.ID, identity.Method, mapped, nil)
		return mapped
	}

	o.mu.Lock()
	var patched Session
	if o.session.Identity != nil && o.session.Identity.ID == identity.ID {
		o.session.Identity.DisplayName = displayName
		if avatarURL != "" {
			o.session.Identity.AvatarURL = avatarURL
		}
		patched = Session{Identity: o.session.Identity.clone(), Status: o.session.Status}
		for _, ch := range o.subscribers {
			deliver(ch, Session{Identity: patched.Identity.clone(), Status: patched.Status})
		}
	}
	o.mu.Unlock()

	if patched.Identity != nil {
		o.persistSnapshot(ctx, patched.Identity)
	}

	o.metricInc(MetricProfileUpdate)
	o.emitAudit(ctx, auditEventProfileUpdate, true, identity.ID, identity.Method, nil, nil)
	return nil
}

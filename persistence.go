package sessionkit

import (
	"context"
	"errors"
	"time"

	"github.com/kyralabs/sessionkit/session"
)

// restoreSnapshot primes the session from the persisted snapshot so a
// restarted process resumes where it left off instead of flashing
// signed-out. Restore failures are audited and otherwise ignored; the
// orchestrator simply starts Initializing and waits for the first push,
// which remains authoritative either way.
func (o *Orchestrator) restoreSnapshot(ctx context.Context) {
	if o.snapshots == nil {
		return
	}

	snap, err := o.snapshots.Load(ctx)
	if err != nil {
		if !errors.Is(err, session.ErrSnapshotNotFound) {
			o.emitAudit(ctx, auditEventSessionRestored, false, "", MethodUnknown, mapProviderError(err), nil)
		}
		return
	}

	identity := identityFromSnapshot(snap)
	restored := Session{
		Identity: identity,
		Status:   deriveStatus(identity),
	}

	o.mu.Lock()
	if o.started || o.closed {
		// A push beat the restore; the push wins.
		o.mu.Unlock()
		return
	}
	o.started = true
	o.session = restored
	o.mu.Unlock()

	o.metricInc(MetricSessionRestored)
	o.emitAudit(ctx, auditEventSessionRestored, true, identity.ID, identity.Method, nil, nil)
}

// persistSnapshot mirrors the current identity into the store. Failures do
// not fail the push that triggered them; they are audited so a dead store
// is still observable.
func (o *Orchestrator) persistSnapshot(ctx context.Context, identity *Identity) {
	if o.snapshots == nil {
		return
	}

	var err error
	if identity == nil {
		err = o.snapshots.Clear(ctx)
	} else {
		err = o.snapshots.Save(ctx, snapshotFromIdentity(identity), o.config.Persistence.SnapshotTTL)
	}
	if err != nil {
		userID := ""
		method := MethodUnknown
		if identity != nil {
			userID = identity.ID
			method = identity.Method
		}
		o.emitAudit(ctx, auditEventSessionPersistFailed, false, userID, method, mapProviderError(err), nil)
	}
}

func snapshotFromIdentity(i *Identity) *session.Snapshot {
	return &session.Snapshot{
		UserID:        i.ID,
		DisplayName:   i.DisplayName,
		Email:         i.Email,
		PhoneNumber:   i.PhoneNumber,
		AvatarURL:     i.AvatarURL,
		EmailVerified: i.EmailVerified,
		Method:        uint8(i.Method),
		Provider:      i.Provider,
		UpdatedAt:     time.Now().Unix(),
	}
}

func identityFromSnapshot(s *session.Snapshot) *Identity {
	return &Identity{
		ID:            s.UserID,
		DisplayName:   s.DisplayName,
		Email:         s.Email,
		PhoneNumber:   s.PhoneNumber,
		AvatarURL:     s.AvatarURL,
		EmailVerified: s.EmailVerified,
		Method:        SignInMethod(s.Method),
		Provider:      s.Provider,
	}
}

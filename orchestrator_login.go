package sessionkit

import "context"

// Login authenticates an email/password pair. When the resulting identity is
// password-method and unverified, the orchestrator forces a provider
// sign-out and returns [ErrEmailNotVerified]: an unverified password account
// must never reach active state through direct login, even though the
// provider itself allows the token exchange. Callers must not assume the
// session is still valid after receiving that error.
//
// No active state is observable in between: status derivation can never map
// an unverified password identity to StatusActive, so the pushes seen by
// subscribers go pending-verification then signed-out.
func (o *Orchestrator) Login(ctx context.Context, email, password string) error {
	if err := o.requireStarted(); err != nil {
		return err
	}

	identity, err := o.provider.Authenticate(ctx, email, password)
	if err != nil {
		mapped := mapProviderError(err)
		o.metricInc(MetricLoginFailure)
		o.emitAudit(ctx, auditEventLoginFailure, false, "", MethodPassword, mapped, func() map[string]string {
			return map[string]string{
				"email": email,
			}
		})
		return mapped
	}

	if identity != nil && identity.Method == MethodPassword && !identity.EmailVerified {
		if err := o.provider.SignOut(ctx); err != nil {
			// The forced sign-out failed; the error below still stands, the
			// next push will tell us where the provider actually landed.
			o.emitAudit(ctx, auditEventLoginUnverifiedSignOut, false, identity.ID, MethodPassword, mapProviderError(err), nil)
		} else {
			o.emitAudit(ctx, auditEventLoginUnverifiedSignOut, true, identity.ID, MethodPassword, nil, nil)
		}
		o.metricInc(MetricLoginUnverified)
		return ErrEmailNotVerified
	}

	o.metricInc(MetricLoginSuccess)
	userID := ""
	if identity != nil {
		userID = identity.ID
	}
	o.emitAudit(ctx, auditEventLoginSuccess, true, userID, MethodPassword, nil, nil)
	return nil
}

// Logout clears the provider-side session. Local state is not flipped
// optimistically; it follows the resulting push, keeping the push-is-truth
// invariant without a reconciliation window.
func (o *Orchestrator) Logout(ctx context.Context) error {
	if err := o.requireStarted(); err != nil {
		return err
	}

	userID := ""
	if identity := o.currentIdentity(); identity != nil {
		userID = identity.ID
	}

	if err := o.provider.SignOut(ctx); err != nil {
		mapped := mapProviderError(err)
		o.emitAudit(ctx, auditEventLogout, false, userID, MethodUnknown, mapped, nil)
		return mapped
	}

	o.metricInc(MetricLogout)
	o.emitAudit(ctx, auditEventLogout, true, userID, MethodUnknown, nil, nil)
	return nil
}

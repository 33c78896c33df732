package sessionkit

import (
	"context"
	"errors"
)

// SignInWithFederatedProvider runs the interactive OAuth handshake for the
// named provider. The handshake is provider-defined and may suspend for as
// long as the user takes to complete it; bound it with a context deadline if
// needed (the loser is abandoned, not cancelled at the provider).
//
// [ErrAccountExistsWithDifferentCredential] is surfaced distinctly so the UI
// can explain the conflict instead of showing a generic failure.
func (o *Orchestrator) SignInWithFederatedProvider(ctx context.Context, providerID string) error {
	if err := o.requireStarted(); err != nil {
		return err
	}

	identity, err := o.provider.FederatedSignIn(ctx, providerID)
	if err != nil {
		mapped := mapProviderError(err)
		if errors.Is(mapped, ErrAccountExistsWithDifferentCredential) {
			o.metricInc(MetricFederatedConflict)
		} else {
			o.metricInc(MetricFederatedFailure)
		}
		o.emitAudit(ctx, auditEventFederatedSignIn, false, "", MethodOAuth, mapped, func() map[string]string {
			return map[string]string{
				"provider": providerID,
			}
		})
		return mapped
	}

	o.metricInc(MetricFederatedSuccess)
	userID := ""
	if identity != nil {
		userID = identity.ID
	}
	o.emitAudit(ctx, auditEventFederatedSignIn, true, userID, MethodOAuth, nil, func() map[string]string {
		return map[string]string{
			"provider": providerID,
		}
	})
	return nil
}

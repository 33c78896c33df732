package sessionkit

import "context"

// ResetPassword requests a password reset e-mail. Fire-and-forget: success
// means the provider accepted the request, not that the address exists.
//
// The orchestrator does not mask "user not found" responses; whatever the
// provider surfaces passes through (typically as a ProviderError). Provider
// adapters that want enumeration safety mask it on their side — see the
// MaskUnknownEmailOnReset knob in provider/httpidp.
func (o *Orchestrator) ResetPassword(ctx context.Context, email string) error {
	if err := o.requireStarted(); err != nil {
		return err
	}

	if err := o.provider.SendPasswordReset(ctx, email); err != nil {
		mapped := mapProviderError(err)
		o.emitAudit(ctx, auditEventPasswordResetRequest, false, "", MethodUnknown, mapped, func() map[string]string {
			return map[string]string{
				"email": email,
			}
		})
		return mapped
	}

	o.metricInc(MetricPasswordResetRequest)
	o.emitAudit(ctx, auditEventPasswordResetRequest, true, "", MethodUnknown, nil, func() map[string]string {
		return map[string]string{
			"email": email,
		}
	})
	return nil
}

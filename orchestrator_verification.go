package sessionkit

import "context"

// SendVerificationEmail asks the provider to (re)send the verification
// e-mail for the current identity. Safe to call repeatedly; throttling is
// the provider's responsibility and surfaces as ErrTooManyAttempts.
func (o *Orchestrator) SendVerificationEmail(ctx context.Context) error {
	if err := o.requireStarted(); err != nil {
		return err
	}

	identity := o.currentIdentity()
	if identity == nil {
		o.emitAudit(ctx, auditEventVerificationEmailRequest, false, "", MethodUnknown, ErrNoActiveIdentity, nil)
		return ErrNoActiveIdentity
	}

	if err := o.provider.SendVerificationEmail(ctx, identity); err != nil {
		mapped := mapProviderError(err)
		o.emitAudit(ctx, auditEventVerificationEmailRequest, false, identity.ID, identity.Method, mapped, nil)
		return mapped
	}

	o.metricInc(MetricVerificationEmailRequest)
	o.emitAudit(ctx, auditEventVerificationEmailRequest, true, identity.ID, identity.Method, nil, nil)
	return nil
}

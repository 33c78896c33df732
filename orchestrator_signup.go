package sessionkit

import (
	"context"
	"fmt"
)

// SignUp creates a new password identity and immediately attempts the
// verification e-mail dispatch as part of the same call.
//
// A dispatch failure is surfaced as [ErrVerificationEmailDispatch] but does
// not roll back account creation: the account exists and the provider push
// will still move the session to pending-verification. The caller should
// offer a retry through SendVerificationEmail.
func (o *Orchestrator) SignUp(ctx context.Context, email, password string) error {
	if err := o.requireStarted(); err != nil {
		return err
	}

	identity, err := o.provider.CreatePasswordIdentity(ctx, email, password)
	if err != nil {
		mapped := mapProviderError(err)
		o.metricInc(MetricSignUpFailure)
		o.emitAudit(ctx, auditEventSignUpFailure, false, "", MethodPassword, mapped, func() map[string]string {
			return map[string]string{
				"email": email,
			}
		})
		return mapped
	}

	o.metricInc(MetricSignUpSuccess)
	o.emitAudit(ctx, auditEventSignUpSuccess, true, identity.ID, MethodPassword, nil, nil)

	if err := o.provider.SendVerificationEmail(ctx, identity); err != nil {
		mapped := mapProviderError(err)
		o.emitAudit(ctx, auditEventVerificationEmailDispatch, false, identity.ID, MethodPassword, ErrVerificationEmailDispatch, func() map[string]string {
			return map[string]string{
				"cause": mapped.Error(),
			}
		})
		return fmt.Errorf("%w: %v", ErrVerificationEmailDispatch, mapped)
	}

	o.metricInc(MetricVerificationEmailRequest)
	o.emitAudit(ctx, auditEventVerificationEmailDispatch, true, identity.ID, MethodPassword, nil, nil)
	return nil
}

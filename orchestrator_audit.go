package sessionkit

import (
	"context"
	"errors"
	"time"
)

const (
	auditEventSignUpSuccess             = "signup_success"
	auditEventSignUpFailure             = "signup_failure"
	auditEventLoginSuccess              = "login_success"
	auditEventLoginFailure              = "login_failure"
	auditEventLoginUnverifiedSignOut    = "login_unverified_forced_signout"
	auditEventLogout                    = "logout"
	auditEventVerificationEmailRequest  = "verification_email_request"
	auditEventVerificationEmailDispatch = "verification_email_dispatch"
	auditEventPasswordResetRequest      = "password_reset_request"
	auditEventFederatedSignIn           = "federated_signin"
	auditEventProfileUpdate             = "profile_update"
	auditEventIdentityPush              = "identity_push"
	auditEventSessionRestored           = "session_restored"
	auditEventSessionPersistFailed      = "session_persist_failed"
	auditEventPhoneChallengeIssued      = "phone_challenge_issued"
	auditEventPhoneChallengeSuperseded  = "phone_challenge_superseded"
	auditEventPhoneChallengeFailed      = "phone_challenge_failed"
	auditEventPhoneChallengeReset       = "phone_challenge_reset"
	auditEventPhoneConfirmSuccess       = "phone_confirm_success"
	auditEventPhoneConfirmFailure       = "phone_confirm_failure"
)

// AuditErrorCode is the stable snake_case error identifier recorded on
// failed audit events.
type AuditErrorCode string

const (
	auditErrInvalidCredentials  AuditErrorCode = "invalid_credentials"
	auditErrEmailNotVerified    AuditErrorCode = "email_not_verified"
	auditErrAlreadyInUse        AuditErrorCode = "already_in_use"
	auditErrWeakCredential      AuditErrorCode = "weak_credential"
	auditErrCredentialConflict  AuditErrorCode = "credential_conflict"
	auditErrTooManyAttempts     AuditErrorCode = "too_many_attempts"
	auditErrInvalidPhoneFormat  AuditErrorCode = "invalid_phone_format"
	auditErrInvalidCodeFormat   AuditErrorCode = "invalid_code_format"
	auditErrNoPendingChallenge  AuditErrorCode = "no_pending_challenge"
	auditErrInvalidCode         AuditErrorCode = "invalid_code"
	auditErrChallengeExpired    AuditErrorCode = "challenge_expired"
	auditErrChallengeDelivery   AuditErrorCode = "challenge_delivery_failed"
	auditErrWidgetExpired       AuditErrorCode = "widget_expired"
	auditErrNoActiveIdentity    AuditErrorCode = "no_active_identity"
	auditErrProviderUnavailable AuditErrorCode = "provider_unavailable"
	auditErrDispatchFailed      AuditErrorCode = "verification_dispatch_failed"
	auditErrProvider            AuditErrorCode = "provider_error"
)

func auditErrorCode(err error) AuditErrorCode {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrEmailNotVerified):
		return auditErrEmailNotVerified
	case errors.Is(err, ErrAlreadyInUse):
		return auditErrAlreadyInUse
	case errors.Is(err, ErrWeakCredential):
		return auditErrWeakCredential
	case errors.Is(err, ErrAccountExistsWithDifferentCredential):
		return auditErrCredentialConflict
	case errors.Is(err, ErrTooManyAttempts):
		return auditErrTooManyAttempts
	case errors.Is(err, ErrInvalidPhoneFormat):
		return auditErrInvalidPhoneFormat
	case errors.Is(err, ErrInvalidCodeFormat):
		return auditErrInvalidCodeFormat
	case errors.Is(err, ErrNoPendingChallenge):
		return auditErrNoPendingChallenge
	case errors.Is(err, ErrInvalidCode):
		return auditErrInvalidCode
	case errors.Is(err, ErrChallengeExpired):
		return auditErrChallengeExpired
	case errors.Is(err, ErrChallengeDeliveryFailed):
		return auditErrChallengeDelivery
	case errors.Is(err, ErrWidgetExpired):
		return auditErrWidgetExpired
	case errors.Is(err, ErrNoActiveIdentity):
		return auditErrNoActiveIdentity
	case errors.Is(err, ErrProviderUnavailable):
		return auditErrProviderUnavailable
	case errors.Is(err, ErrVerificationEmailDispatch):
		return auditErrDispatchFailed
	}
	return auditErrProvider
}

func (o *Orchestrator) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	method SignInMethod,
	err error,
	metadataBuilder func() map[string]string,
) {
	if o == nil || o.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		UserID:    userID,
		Success:   success,
		Metadata:  metadata,
	}
	if method != MethodUnknown {
		event.Method = method.String()
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	o.audit.Emit(ctx, event)
}

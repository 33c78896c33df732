package internaldefs

import (
	sessionkit "github.com/kyralabs/sessionkit"
)

// CounterDef binds a MetricID to its exported name and help text. Shared by
// the Prometheus and OTel exporters so both expose identical series.
type CounterDef struct {
	ID   sessionkit.MetricID
	Name string
	Help string
}

var CounterDefs = []CounterDef{
	{ID: sessionkit.MetricSignUpSuccess, Name: "sessionkit_signup_success_total", Help: "Successful account creations."},
	{ID: sessionkit.MetricSignUpFailure, Name: "sessionkit_signup_failure_total", Help: "Failed account creations."},
	{ID: sessionkit.MetricLoginSuccess, Name: "sessionkit_login_success_total", Help: "Successful password logins."},
	{ID: sessionkit.MetricLoginFailure, Name: "sessionkit_login_failure_total", Help: "Failed password logins."},
	{ID: sessionkit.MetricLoginUnverified, Name: "sessionkit_login_unverified_total", Help: "Logins rejected by the verification gate with a forced sign-out."},
	{ID: sessionkit.MetricLogout, Name: "sessionkit_logout_total", Help: "Explicit sign-outs."},
	{ID: sessionkit.MetricVerificationEmailRequest, Name: "sessionkit_verification_email_request_total", Help: "Verification e-mail dispatch requests."},
	{ID: sessionkit.MetricPasswordResetRequest, Name: "sessionkit_password_reset_request_total", Help: "Password reset requests."},
	{ID: sessionkit.MetricFederatedSuccess, Name: "sessionkit_federated_success_total", Help: "Successful federated sign-ins."},
	{ID: sessionkit.MetricFederatedConflict, Name: "sessionkit_federated_conflict_total", Help: "Federated sign-ins rejected for a cross-method account conflict."},
	{ID: sessionkit.MetricFederatedFailure, Name: "sessionkit_federated_failure_total", Help: "Failed federated sign-ins."},
	{ID: sessionkit.MetricProfileUpdate, Name: "sessionkit_profile_update_total", Help: "Successful profile updates."},
	{ID: sessionkit.MetricPushApplied, Name: "sessionkit_identity_push_total", Help: "Identity-change pushes applied to the session."},
	{ID: sessionkit.MetricSessionRestored, Name: "sessionkit_session_restored_total", Help: "Sessions restored from a persisted snapshot."},
	{ID: sessionkit.MetricPhoneChallengeIssued, Name: "sessionkit_phone_challenge_issued_total", Help: "Phone challenges issued."},
	{ID: sessionkit.MetricPhoneChallengeSuperseded, Name: "sessionkit_phone_challenge_superseded_total", Help: "Pending phone challenges discarded by a newer one."},
	{ID: sessionkit.MetricPhoneChallengeFailed, Name: "sessionkit_phone_challenge_failed_total", Help: "Phone challenge issuance failures."},
	{ID: sessionkit.MetricPhoneConfirmSuccess, Name: "sessionkit_phone_confirm_success_total", Help: "Successful phone confirmations."},
	{ID: sessionkit.MetricPhoneConfirmInvalid, Name: "sessionkit_phone_confirm_invalid_total", Help: "Phone confirmations rejected for a wrong code."},
	{ID: sessionkit.MetricPhoneConfirmFailed, Name: "sessionkit_phone_confirm_failed_total", Help: "Phone confirmations failed for other reasons."},
}

package sessionkit

import "errors"

var (
	// ErrInvalidCredentials is returned when the provider rejects an
	// email/password pair.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailNotVerified is returned by Login for a password account whose
	// e-mail is unverified. The orchestrator has already forced a provider
	// sign-out when this error is returned.
	ErrEmailNotVerified = errors.New("email not verified")
	// ErrAlreadyInUse is returned when the sign-up e-mail is already taken.
	ErrAlreadyInUse = errors.New("email already in use")
	// ErrWeakCredential is returned when the provider rejects a password for
	// policy reasons.
	ErrWeakCredential = errors.New("credential rejected by policy")
	// ErrAccountExistsWithDifferentCredential is returned by federated
	// sign-in when the target e-mail is already bound to another method.
	ErrAccountExistsWithDifferentCredential = errors.New("account exists with different credential")
	// ErrTooManyAttempts is returned when the provider throttles the caller.
	ErrTooManyAttempts = errors.New("too many attempts")
	// ErrInvalidPhoneFormat is returned locally, before any provider or
	// widget interaction, for a number that is not E.164-shaped.
	ErrInvalidPhoneFormat = errors.New("invalid phone number format")
	// ErrInvalidCodeFormat is returned locally for a confirmation code that
	// is not exactly six digits.
	ErrInvalidCodeFormat = errors.New("invalid code format")
	// ErrNoPendingChallenge is returned by ConfirmChallenge when no phone
	// challenge is outstanding.
	ErrNoPendingChallenge = errors.New("no pending phone challenge")
	// ErrInvalidCode is returned when the provider rejects the code.
	ErrInvalidCode = errors.New("invalid confirmation code")
	// ErrChallengeExpired is returned when the provider-side challenge is no
	// longer confirmable.
	ErrChallengeExpired = errors.New("phone challenge expired")
	// ErrChallengeDeliveryFailed is returned when issuing a phone challenge
	// fails at the provider or in transit.
	ErrChallengeDeliveryFailed = errors.New("phone challenge delivery failed")
	// ErrWidgetExpired is returned when the human-verification proof expired
	// before the provider accepted it. The caller must restart the flow.
	ErrWidgetExpired = errors.New("verification widget proof expired")
	// ErrNoActiveIdentity is returned by operations that require a signed-in
	// identity when none is present.
	ErrNoActiveIdentity = errors.New("no active identity")
	// ErrProviderUnavailable is returned for transport or service failures.
	ErrProviderUnavailable = errors.New("identity provider unavailable")
	// ErrVerificationEmailDispatch wraps a verification e-mail delivery
	// failure during SignUp. The account still exists; the caller should
	// offer a separate retry through SendVerificationEmail.
	ErrVerificationEmailDispatch = errors.New("verification email dispatch failed")
	// ErrNotStarted is returned by operations invoked before Start.
	ErrNotStarted = errors.New("orchestrator not started")
)

// ProviderError carries a provider failure that maps to nothing in the
// taxonomy above. The raw provider message is preserved so the UI can still
// show something actionable. Match with errors.As.
type ProviderError struct {
	Raw string
}

func (e *ProviderError) Error() string {
	return "provider error: " + e.Raw
}

// taxonomy lists every sentinel a provider adapter may legitimately return.
// mapProviderError passes these through untouched.
var taxonomy = []error{
	ErrInvalidCredentials,
	ErrEmailNotVerified,
	ErrAlreadyInUse,
	ErrWeakCredential,
	ErrAccountExistsWithDifferentCredential,
	ErrTooManyAttempts,
	ErrInvalidPhoneFormat,
	ErrInvalidCodeFormat,
	ErrNoPendingChallenge,
	ErrInvalidCode,
	ErrChallengeExpired,
	ErrChallengeDeliveryFailed,
	ErrWidgetExpired,
	ErrNoActiveIdentity,
	ErrProviderUnavailable,
	ErrVerificationEmailDispatch,
}

package httpidp

import (
	"errors"
	"strings"

	"github.com/kyralabs/sessionkit"
)

// mapErrorCode translates an API error message into the sessionkit
// taxonomy. Messages may carry a human suffix after the code
// ("WEAK_PASSWORD : Password should be at least 6 characters"); only the
// leading code is matched. Unmapped codes pass through as ProviderError so
// the UI still gets the raw message.
func mapErrorCode(message string) error {
	code := message
	if idx := strings.IndexAny(code, " :"); idx >= 0 {
		code = code[:idx]
	}

	switch code {
	case "EMAIL_EXISTS":
		return sessionkit.ErrAlreadyInUse
	case "WEAK_PASSWORD", "PASSWORD_DOES_NOT_MEET_REQUIREMENTS":
		return sessionkit.ErrWeakCredential
	case "INVALID_PASSWORD", "EMAIL_NOT_FOUND", "INVALID_LOGIN_CREDENTIALS", "USER_DISABLED":
		return sessionkit.ErrInvalidCredentials
	case "TOO_MANY_ATTEMPTS_TRY_LATER":
		return sessionkit.ErrTooManyAttempts
	case "FEDERATED_USER_ID_ALREADY_LINKED", "ACCOUNT_EXISTS_WITH_DIFFERENT_CREDENTIAL":
		return sessionkit.ErrAccountExistsWithDifferentCredential
	case "INVALID_CODE", "INVALID_VERIFICATION_CODE":
		return sessionkit.ErrInvalidCode
	case "SESSION_EXPIRED", "CODE_EXPIRED", "INVALID_SESSION_INFO":
		return sessionkit.ErrChallengeExpired
	case "CAPTCHA_CHECK_FAILED", "INVALID_RECAPTCHA_TOKEN", "RECAPTCHA_EXPIRED", "MISSING_RECAPTCHA_TOKEN":
		return sessionkit.ErrWidgetExpired
	case "INVALID_PHONE_NUMBER", "MISSING_PHONE_NUMBER":
		return sessionkit.ErrInvalidPhoneFormat
	}
	return &sessionkit.ProviderError{Raw: message}
}

// isUnknownEmail reports whether err came from an EMAIL_NOT_FOUND response.
// Password reset uses it for the enumeration-masking knob; the code maps to
// ErrInvalidCredentials everywhere else.
func isUnknownEmail(err error) bool {
	return errors.Is(err, sessionkit.ErrInvalidCredentials)
}

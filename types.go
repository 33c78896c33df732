package sessionkit

import (
	"context"
	"time"
)

// SignInMethod identifies how an identity authenticated.
type SignInMethod uint8

const (
	// MethodUnknown is the zero value; no identity carries it after a push.
	MethodUnknown SignInMethod = iota
	// MethodPassword is an email/password identity.
	MethodPassword
	// MethodOAuth is a federated identity; Identity.Provider names the
	// upstream OAuth provider.
	MethodOAuth
	// MethodPhone is a phone-OTP identity.
	MethodPhone
)

func (m SignInMethod) String() string {
	switch m {
	case MethodPassword:
		return "password"
	case MethodOAuth:
		return "oauth"
	case MethodPhone:
		return "phone"
	}
	return "unknown"
}

// SessionStatus is the derived access state of the current session.
type SessionStatus uint8

const (
	// StatusInitializing means no provider push has been observed yet.
	// Callers must gate rendering on this to avoid a signed-out flash.
	StatusInitializing SessionStatus = iota
	// StatusSignedOut means no identity is present.
	StatusSignedOut
	// StatusPendingVerification means a password identity is present but its
	// e-mail is unverified. The verification gate blocks full access.
	StatusPendingVerification
	// StatusActive means an identity is present and past the gate.
	StatusActive
)

func (s SessionStatus) String() string {
	switch s {
	case StatusSignedOut:
		return "signed_out"
	case StatusPendingVerification:
		return "pending_verification"
	case StatusActive:
		return "active"
	}
	return "initializing"
}

// Identity is the authenticated principal as last reported by the provider.
// Exactly one of Email/PhoneNumber is populated depending on Method.
type Identity struct {
	ID            string
	DisplayName   string
	Email         string
	PhoneNumber   string
	AvatarURL     string
	EmailVerified bool
	Method        SignInMethod
	// Provider is the federated provider id (e.g. "github.com") when
	// Method is MethodOAuth.
	Provider string
}

func (i *Identity) clone() *Identity {
	if i == nil {
		return nil
	}
	c := *i
	return &c
}

// Session is the current identity plus its derived status. Status is never
// set independently of Identity.
type Session struct {
	Identity *Identity
	Status   SessionStatus
}

func deriveStatus(identity *Identity) SessionStatus {
	if identity == nil {
		return StatusSignedOut
	}
	if identity.Method == MethodPassword && !identity.EmailVerified {
		return StatusPendingVerification
	}
	return StatusActive
}

// ProfileUpdate carries the mutable display fields of an identity. An empty
// AvatarURL leaves the avatar untouched.
type ProfileUpdate struct {
	DisplayName string
	AvatarURL   string
}

// IdentityProvider is the remote service that actually authenticates
// credentials and owns identity state. It is assumed reliable, asynchronous,
// and authoritative; sessionkit never second-guesses its pushes.
//
// Every error returned by an implementation should be one of the sentinel
// errors in this package where a mapping exists; anything else is surfaced
// to callers as a [ProviderError].
type IdentityProvider interface {
	CreatePasswordIdentity(ctx context.Context, email, password string) (*Identity, error)
	Authenticate(ctx context.Context, email, password string) (*Identity, error)
	SignOut(ctx context.Context) error
	// SubscribeIdentityChanges registers fn as an identity-change listener.
	// fn receives nil when the session is signed out. The returned cancel
	// releases the subscription.
	SubscribeIdentityChanges(fn func(*Identity)) (cancel func(), err error)
	SendVerificationEmail(ctx context.Context, identity *Identity) error
	SendPasswordReset(ctx context.Context, email string) error
	FederatedSignIn(ctx context.Context, providerID string) (*Identity, error)
	UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) error
	// IssuePhoneChallenge requests an OTP delivery and returns an opaque
	// challenge handle needed to confirm it.
	IssuePhoneChallenge(ctx context.Context, phoneNumber, widgetProof string) (string, error)
	ConfirmPhoneChallenge(ctx context.Context, handle, code string) (*Identity, error)
}

// ChallengeWidget is the human-verification widget bound to a UI anchor. It
// produces proof tokens consumed by IssuePhoneChallenge. An expired proof
// surfaces as [ErrWidgetExpired].
type ChallengeWidget interface {
	Proof(ctx context.Context) (string, error)
}

// WidgetFactory creates the widget for an anchor. The flow calls it at most
// once per anchor for the process lifetime.
type WidgetFactory interface {
	CreateWidget(anchorID string, cfg WidgetConfig) (ChallengeWidget, error)
}

// PendingPhoneChallenge is the single outstanding OTP attempt. Ownership is
// exclusive to [PhoneChallengeFlow]; at most one exists at a time.
type PendingPhoneChallenge struct {
	PhoneNumber string
	Handle      string
	IssuedAt    time.Time
}

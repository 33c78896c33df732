package httpidp

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/kyralabs/sessionkit"
)

// identityFromResponse builds the identity snapshot from an auth response.
// The ID token's claims are the authoritative description of the principal;
// the response body only carries a subset. ParseUnverified is deliberate:
// the token was just issued to us by the provider over TLS, and this client
// holds no verification keys.
func identityFromResponse(resp *secureTokenResponse) (*sessionkit.Identity, error) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(resp.IDToken, claims); err != nil {
		return nil, fmt.Errorf("%w: undecodable id token: %v", sessionkit.ErrProviderUnavailable, err)
	}

	identity := &sessionkit.Identity{
		ID:            stringClaim(claims, "user_id"),
		DisplayName:   stringClaim(claims, "name"),
		Email:         stringClaim(claims, "email"),
		PhoneNumber:   stringClaim(claims, "phone_number"),
		AvatarURL:     stringClaim(claims, "picture"),
		EmailVerified: boolClaim(claims, "email_verified"),
	}
	if identity.ID == "" {
		identity.ID = stringClaim(claims, "sub")
	}
	if identity.ID == "" {
		identity.ID = resp.LocalID
	}
	if identity.Email == "" {
		identity.Email = resp.Email
	}

	provider := signInProvider(claims)
	switch provider {
	case "password", "":
		identity.Method = sessionkit.MethodPassword
	case "phone":
		identity.Method = sessionkit.MethodPhone
	default:
		identity.Method = sessionkit.MethodOAuth
		identity.Provider = provider
	}
	return identity, nil
}

func stringClaim(claims jwt.MapClaims, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}

func boolClaim(claims jwt.MapClaims, key string) bool {
	v, ok := claims[key].(bool)
	return ok && v
}

// signInProvider digs the sign-in provider out of the nested auth claim
// ("firebase" style: {"sign_in_provider": "..."}). Falls back to a flat
// claim for providers that put it at the top level.
func signInProvider(claims jwt.MapClaims) string {
	if nested, ok := claims["firebase"].(map[string]any); ok {
		if v, ok := nested["sign_in_provider"].(string); ok {
			return v
		}
	}
	return stringClaim(claims, "sign_in_provider")
}

func cloneIdentity(i *sessionkit.Identity) *sessionkit.Identity {
	if i == nil {
		return nil
	}
	c := *i
	return &c
}

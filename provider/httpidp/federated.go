package httpidp

import (
	"context"
	"fmt"
	"net/url"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"

	"github.com/kyralabs/sessionkit"
)

// CodeGrantFunc runs the interactive part of an OAuth handshake: it
// presents authURL to the user (popup, system browser, device prompt) and
// returns the authorization code. It may suspend for as long as the user
// takes.
type CodeGrantFunc func(ctx context.Context, authURL string) (code string, err error)

// FederatedProvider is one upstream OAuth provider the client can sign in
// through.
type FederatedProvider struct {
	OAuth oauth2.Config
	Grant CodeGrantFunc
}

// GithubProvider builds the handshake configuration for GitHub.
func GithubProvider(clientID, clientSecret, redirectURL string, grant CodeGrantFunc) FederatedProvider {
	return FederatedProvider{
		OAuth: oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		},
		Grant: grant,
	}
}

// GoogleProvider builds the handshake configuration for Google.
func GoogleProvider(clientID, clientSecret, redirectURL string, grant CodeGrantFunc) FederatedProvider {
	return FederatedProvider{
		OAuth: oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		Grant: grant,
	}
}

// FederatedSignIn runs the OAuth handshake for providerID and exchanges the
// upstream access token for a provider identity. A conflict with an
// existing account of a different method surfaces as
// ErrAccountExistsWithDifferentCredential.
func (c *Client) FederatedSignIn(ctx context.Context, providerID string) (*sessionkit.Identity, error) {
	fp, ok := c.cfg.Federated[providerID]
	if !ok {
		return nil, &sessionkit.ProviderError{Raw: "unconfigured federated provider " + providerID}
	}
	if fp.Grant == nil {
		return nil, &sessionkit.ProviderError{Raw: "federated provider " + providerID + " has no code granter"}
	}

	state := uuid.NewString()
	code, err := fp.Grant(ctx, fp.OAuth.AuthCodeURL(state))
	if err != nil {
		return nil, fmt.Errorf("%w: handshake: %v", sessionkit.ErrProviderUnavailable, err)
	}

	token, err := fp.OAuth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: code exchange: %v", sessionkit.ErrProviderUnavailable, err)
	}

	postBody := url.Values{
		"access_token": {token.AccessToken},
		"providerId":   {providerID},
	}
	var resp secureTokenResponse
	err = c.post(ctx, "signInWithIdp", map[string]any{
		"postBody":            postBody.Encode(),
		"requestUri":          fp.OAuth.RedirectURL,
		"returnSecureToken":   true,
		"returnIdpCredential": true,
	}, &resp)
	if err != nil {
		return nil, err
	}

	identity, err := identityFromResponse(&resp)
	if err != nil {
		return nil, err
	}
	c.setCurrent(identity, resp.IDToken)
	return cloneIdentity(identity), nil
}

package httpidp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"golang.org/x/oauth2"

	"github.com/kyralabs/sessionkit"
)

// newOAuthTokenServer stands in for the upstream provider's token endpoint.
func newOAuthTokenServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse token request: %v", err)
		}
		if got := r.PostForm.Get("code"); got != "auth-code-1" {
			t.Fatalf("unexpected authorization code %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "upstream-access-token",
			"token_type":   "bearer",
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testFederatedProvider(t *testing.T, tokenURL string) FederatedProvider {
	t.Helper()
	return FederatedProvider{
		OAuth: oauth2.Config{
			ClientID:     "client-1",
			ClientSecret: "secret-1",
			RedirectURL:  "https://app.example/callback",
			Scopes:       []string{"read:user"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  "https://upstream.example/authorize",
				TokenURL: tokenURL,
			},
		},
		Grant: func(_ context.Context, authURL string) (string, error) {
			parsed, err := url.Parse(authURL)
			if err != nil {
				t.Fatalf("bad auth url: %v", err)
			}
			if parsed.Query().Get("client_id") != "client-1" {
				t.Fatalf("auth url missing client id: %s", authURL)
			}
			if parsed.Query().Get("state") == "" {
				t.Fatal("auth url missing state")
			}
			return "auth-code-1", nil
		},
	}
}

func TestFederatedSignIn(t *testing.T) {
	tokenSrv := newOAuthTokenServer(t)
	idToken := makeIDToken(t, map[string]any{
		"sub":      "gh-1",
		"email":    "dev@b.c",
		"firebase": map[string]any{"sign_in_provider": "github.com"},
	})

	var idpBody map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if endpointOf(r) != "signInWithIdp" {
			t.Fatalf("unexpected endpoint %q", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&idpBody)
		writeToken(w, idToken)
	}, func(c *Config) {
		c.Federated = map[string]FederatedProvider{
			"github.com": testFederatedProvider(t, tokenSrv.URL),
		}
	})

	identity, err := client.FederatedSignIn(context.Background(), "github.com")
	if err != nil {
		t.Fatalf("federated sign-in: %v", err)
	}
	if identity.Method != sessionkit.MethodOAuth || identity.Provider != "github.com" {
		t.Fatalf("unexpected identity %+v", identity)
	}

	postBody, _ := idpBody["postBody"].(string)
	if !strings.Contains(postBody, "access_token=upstream-access-token") {
		t.Fatalf("exchanged token not forwarded: %q", postBody)
	}
	if !strings.Contains(postBody, "providerId=github.com") {
		t.Fatalf("provider id not forwarded: %q", postBody)
	}
}

func TestFederatedSignInUnconfiguredProvider(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})

	_, err := client.FederatedSignIn(context.Background(), "gitlab.com")

	var pe *sessionkit.ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
}

func TestFederatedSignInAbortedGrant(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	}, func(c *Config) {
		c.Federated = map[string]FederatedProvider{
			"github.com": {
				OAuth: oauth2.Config{ClientID: "client-1"},
				Grant: func(context.Context, string) (string, error) {
					return "", errors.New("user closed the window")
				},
			},
		}
	})

	_, err := client.FederatedSignIn(context.Background(), "github.com")
	if !errors.Is(err, sessionkit.ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
}

func TestFederatedSignInConflict(t *testing.T) {
	tokenSrv := newOAuthTokenServer(t)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeAPIError(w, http.StatusBadRequest, "ACCOUNT_EXISTS_WITH_DIFFERENT_CREDENTIAL")
	}, func(c *Config) {
		c.Federated = map[string]FederatedProvider{
			"github.com": testFederatedProvider(t, tokenSrv.URL),
		}
	})

	_, err := client.FederatedSignIn(context.Background(), "github.com")
	if !errors.Is(err, sessionkit.ErrAccountExistsWithDifferentCredential) {
		t.Fatalf("expected conflict sentinel, got %v", err)
	}
}

func TestGithubProviderDefaults(t *testing.T) {
	fp := GithubProvider("id", "secret", "https://app.example/cb", nil)
	if fp.OAuth.ClientID != "id" || fp.OAuth.Endpoint.AuthURL == "" {
		t.Fatalf("incomplete github config: %+v", fp.OAuth)
	}
	if len(fp.OAuth.Scopes) == 0 {
		t.Fatal("expected default scopes")
	}
}

func TestGoogleProviderDefaults(t *testing.T) {
	fp := GoogleProvider("id", "secret", "https://app.example/cb", nil)
	if fp.OAuth.Endpoint.TokenURL == "" {
		t.Fatalf("incomplete google config: %+v", fp.OAuth)
	}
}

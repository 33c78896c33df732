package httpidp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kyralabs/sessionkit"
)

// makeIDToken builds an unverifiable but well-formed JWT carrying claims,
// matching what the API returns in idToken fields.
func makeIDToken(t *testing.T, claims map[string]any) string {
	t.Helper()
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"RS256","typ":"JWT"}`))
	payload, err := json.Marshal(claims)
	if err != nil {
		t.Fatalf("marshal claims: %v", err)
	}
	return header + "." + base64.RawURLEncoding.EncodeToString(payload) + ".c2ln"
}

func passwordClaims(userID, email string, verified bool) map[string]any {
	return map[string]any{
		"user_id":        userID,
		"email":          email,
		"email_verified": verified,
		"firebase":       map[string]any{"sign_in_provider": "password"},
	}
}

// endpointOf strips the accounts prefix off a request path.
func endpointOf(r *http.Request) string {
	return strings.TrimPrefix(r.URL.Path, "/accounts:")
}

func writeAPIError(w http.ResponseWriter, status int, message string) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"message": message},
	})
}

func writeToken(w http.ResponseWriter, idToken string) {
	_ = json.NewEncoder(w).Encode(map[string]any{
		"idToken":      idToken,
		"refreshToken": "refresh",
	})
}

func newTestClient(t *testing.T, handler http.HandlerFunc, mutate ...func(*Config)) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := Config{APIKey: "test-key", BaseURL: srv.URL}
	for _, fn := range mutate {
		fn(&cfg)
	}
	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Fatal("expected error without api key")
	}
}

func TestCreatePasswordIdentity(t *testing.T) {
	token := makeIDToken(t, passwordClaims("u1", "new@b.c", false))
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if endpointOf(r) != "signUp" {
			t.Fatalf("unexpected endpoint %q", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Fatal("api key missing from request")
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["email"] != "new@b.c" {
			t.Fatalf("unexpected body %+v", body)
		}
		writeToken(w, token)
	})

	pushes := make(chan *sessionkit.Identity, 4)
	cancel, err := client.SubscribeIdentityChanges(func(i *sessionkit.Identity) {
		pushes <- i
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	// Initial async delivery: no identity yet.
	select {
	case initial := <-pushes:
		if initial != nil {
			t.Fatalf("expected nil initial identity, got %+v", initial)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no initial delivery")
	}

	identity, err := client.CreatePasswordIdentity(context.Background(), "new@b.c", "strong-pw")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if identity.ID != "u1" || identity.Email != "new@b.c" {
		t.Fatalf("unexpected identity %+v", identity)
	}
	if identity.Method != sessionkit.MethodPassword || identity.EmailVerified {
		t.Fatalf("expected unverified password identity, got %+v", identity)
	}

	select {
	case pushed := <-pushes:
		if pushed == nil || pushed.ID != "u1" {
			t.Fatalf("unexpected pushed identity %+v", pushed)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("sign-up did not push the new identity")
	}
}

func TestAuthenticateErrorMapping(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeAPIError(w, http.StatusBadRequest, "INVALID_LOGIN_CREDENTIALS")
	})

	_, err := client.Authenticate(context.Background(), "a@b.c", "wrong")
	if !errors.Is(err, sessionkit.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestErrorCodeWithHumanSuffix(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeAPIError(w, http.StatusBadRequest, "WEAK_PASSWORD : Password should be at least 6 characters")
	})

	_, err := client.CreatePasswordIdentity(context.Background(), "a@b.c", "123")
	if !errors.Is(err, sessionkit.ErrWeakCredential) {
		t.Fatalf("expected ErrWeakCredential, got %v", err)
	}
}

func TestUnknownErrorCodePreserved(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeAPIError(w, http.StatusBadRequest, "BRAND_NEW_FAILURE_MODE")
	})

	_, err := client.Authenticate(context.Background(), "a@b.c", "pw")

	var pe *sessionkit.ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if pe.Raw != "BRAND_NEW_FAILURE_MODE" {
		t.Fatalf("raw message lost: %q", pe.Raw)
	}
}

func TestServerFailureMapsUnavailable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.Authenticate(context.Background(), "a@b.c", "pw")
	if !errors.Is(err, sessionkit.ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
}

func TestSignOutPushesNil(t *testing.T) {
	token := makeIDToken(t, passwordClaims("u1", "a@b.c", true))
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeToken(w, token)
	})

	if _, err := client.Authenticate(context.Background(), "a@b.c", "pw"); err != nil {
		t.Fatalf("authenticate: %v", err)
	}

	pushes := make(chan *sessionkit.Identity, 4)
	cancel, err := client.SubscribeIdentityChanges(func(i *sessionkit.Identity) {
		pushes <- i
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	// Late subscriber still sees the signed-in state first.
	select {
	case initial := <-pushes:
		if initial == nil || initial.ID != "u1" {
			t.Fatalf("expected current identity on subscribe, got %+v", initial)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no initial delivery")
	}

	if err := client.SignOut(context.Background()); err != nil {
		t.Fatalf("sign out: %v", err)
	}
	select {
	case pushed := <-pushes:
		if pushed != nil {
			t.Fatalf("expected nil push after sign-out, got %+v", pushed)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("sign-out did not push")
	}
}

func TestCancelledListenerStopsReceiving(t *testing.T) {
	token := makeIDToken(t, passwordClaims("u1", "a@b.c", true))
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeToken(w, token)
	})

	pushes := make(chan *sessionkit.Identity, 4)
	cancel, err := client.SubscribeIdentityChanges(func(i *sessionkit.Identity) {
		pushes <- i
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	<-pushes // initial delivery
	cancel()

	if _, err := client.Authenticate(context.Background(), "a@b.c", "pw"); err != nil {
		t.Fatalf("authenticate: %v", err)
	}

	select {
	case got := <-pushes:
		t.Fatalf("cancelled listener received %+v", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSendVerificationEmail(t *testing.T) {
	token := makeIDToken(t, passwordClaims("u1", "a@b.c", false))
	var oobBody map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch endpointOf(r) {
		case "signInWithPassword":
			writeToken(w, token)
		case "sendOobCode":
			_ = json.NewDecoder(r.Body).Decode(&oobBody)
			_, _ = w.Write([]byte("{}"))
		default:
			t.Fatalf("unexpected endpoint %q", r.URL.Path)
		}
	})

	// Without a signed-in identity there is no token to send with.
	err := client.SendVerificationEmail(context.Background(), nil)
	if !errors.Is(err, sessionkit.ErrNoActiveIdentity) {
		t.Fatalf("expected ErrNoActiveIdentity, got %v", err)
	}

	if _, err := client.Authenticate(context.Background(), "a@b.c", "pw"); err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if err := client.SendVerificationEmail(context.Background(), nil); err != nil {
		t.Fatalf("send verification: %v", err)
	}
	if oobBody["requestType"] != "VERIFY_EMAIL" {
		t.Fatalf("unexpected oob request %+v", oobBody)
	}
	if oobBody["idToken"] != token {
		t.Fatal("verification request must carry the current id token")
	}
}

func TestSendPasswordResetMasking(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		writeAPIError(w, http.StatusBadRequest, "EMAIL_NOT_FOUND")
	}

	masked := newTestClient(t, handler, func(c *Config) {
		c.MaskUnknownEmailOnReset = true
	})
	if err := masked.SendPasswordReset(context.Background(), "ghost@b.c"); err != nil {
		t.Fatalf("masked reset must report success, got %v", err)
	}

	unmasked := newTestClient(t, handler)
	err := unmasked.SendPasswordReset(context.Background(), "ghost@b.c")
	if !errors.Is(err, sessionkit.ErrInvalidCredentials) {
		t.Fatalf("unmasked reset must surface the response, got %v", err)
	}
}

func TestUpdateProfilePatchesCacheWithoutPush(t *testing.T) {
	token := makeIDToken(t, passwordClaims("u1", "a@b.c", true))
	var updateBody map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch endpointOf(r) {
		case "signInWithPassword":
			writeToken(w, token)
		case "update":
			_ = json.NewDecoder(r.Body).Decode(&updateBody)
			_, _ = w.Write([]byte("{}"))
		default:
			t.Fatalf("unexpected endpoint %q", r.URL.Path)
		}
	})

	if _, err := client.Authenticate(context.Background(), "a@b.c", "pw"); err != nil {
		t.Fatalf("authenticate: %v", err)
	}

	pushes := make(chan *sessionkit.Identity, 4)
	cancel, err := client.SubscribeIdentityChanges(func(i *sessionkit.Identity) {
		pushes <- i
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()
	<-pushes // initial delivery

	err = client.UpdateProfile(context.Background(), "u1", sessionkit.ProfileUpdate{
		DisplayName: "Ada",
		AvatarURL:   "https://img.example/ada.png",
	})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if updateBody["displayName"] != "Ada" || updateBody["photoUrl"] != "https://img.example/ada.png" {
		t.Fatalf("unexpected update body %+v", updateBody)
	}

	// Profile edits do not re-push; the orchestrator patches its own copy.
	select {
	case got := <-pushes:
		t.Fatalf("unexpected push after profile update: %+v", got)
	case <-time.After(50 * time.Millisecond):
	}

	// A late subscriber observes the patched cache.
	late := make(chan *sessionkit.Identity, 1)
	cancelLate, err := client.SubscribeIdentityChanges(func(i *sessionkit.Identity) {
		late <- i
	})
	if err != nil {
		t.Fatalf("late subscribe: %v", err)
	}
	defer cancelLate()

	select {
	case current := <-late:
		if current == nil || current.DisplayName != "Ada" {
			t.Fatalf("cache not patched: %+v", current)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no delivery to late subscriber")
	}
}

func TestUpdateProfileRequiresToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})

	err := client.UpdateProfile(context.Background(), "u1", sessionkit.ProfileUpdate{DisplayName: "Ada"})
	if !errors.Is(err, sessionkit.ErrNoActiveIdentity) {
		t.Fatalf("expected ErrNoActiveIdentity, got %v", err)
	}
}

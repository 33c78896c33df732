package httpidp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kyralabs/sessionkit"
)

const defaultBaseURL = "https://identitytoolkit.example.com/v1"

// Config configures the REST adapter.
type Config struct {
	// APIKey authenticates the calling application, not the user.
	APIKey string
	// BaseURL overrides the API root; mainly for tests.
	BaseURL string
	// HTTPClient defaults to a client with a 30s timeout.
	HTTPClient *http.Client
	// MaskUnknownEmailOnReset makes SendPasswordReset report success for
	// unknown addresses, preventing account enumeration through the reset
	// form. Off by default: the orchestrator's documented policy is to pass
	// provider responses through.
	MaskUnknownEmailOnReset bool
	// Federated maps provider ids ("github.com", "google.com") to their
	// OAuth handshake configuration.
	Federated map[string]FederatedProvider
}

// Client is a sessionkit.IdentityProvider backed by the REST API. Safe for
// concurrent use.
type Client struct {
	cfg  Config
	http *http.Client
	base string

	mu        sync.Mutex
	current   *sessionkit.Identity
	idToken   string
	listeners map[string]func(*sessionkit.Identity)
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("httpidp: api key is required")
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	base := strings.TrimSuffix(cfg.BaseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	return &Client{
		cfg:       cfg,
		http:      hc,
		base:      base,
		listeners: map[string]func(*sessionkit.Identity){},
	}, nil
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// post issues one JSON POST to an accounts endpoint. Transport failures map
// to ErrProviderUnavailable; API error codes map through mapErrorCode.
func (c *Client) post(ctx context.Context, endpoint string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	url := c.base + "/accounts:" + endpoint + "?key=" + c.cfg.APIKey
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return fmt.Errorf("%w: %v", sessionkit.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: status %d", sessionkit.ErrProviderUnavailable, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		var ae apiError
		if err := json.NewDecoder(resp.Body).Decode(&ae); err != nil || ae.Error.Message == "" {
			return fmt.Errorf("%w: status %d", sessionkit.ErrProviderUnavailable, resp.StatusCode)
		}
		return mapErrorCode(ae.Error.Message)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: malformed response: %v", sessionkit.ErrProviderUnavailable, err)
	}
	return nil
}

type secureTokenResponse struct {
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
}

// setCurrent replaces the cached identity and notifies listeners. The push
// is delivered synchronously on the caller's goroutine, preserving the
// order of auth-changing calls.
func (c *Client) setCurrent(identity *sessionkit.Identity, idToken string) {
	c.mu.Lock()
	c.current = identity
	c.idToken = idToken
	fns := make([]func(*sessionkit.Identity), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(cloneIdentity(identity))
	}
}

func (c *Client) currentToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.idToken
}

// CreatePasswordIdentity signs up a new password account. Like every other
// sign-in shaped call it also signs the new identity in, so the listeners
// observe the unverified account immediately.
func (c *Client) CreatePasswordIdentity(ctx context.Context, email, password string) (*sessionkit.Identity, error) {
	var resp secureTokenResponse
	err := c.post(ctx, "signUp", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
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

func (c *Client) Authenticate(ctx context.Context, email, password string) (*sessionkit.Identity, error) {
	var resp secureTokenResponse
	err := c.post(ctx, "signInWithPassword", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
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

// SignOut discards the local token state. The API holds no server-side
// session for this client, so sign-out is purely a local transition plus a
// nil push to listeners.
func (c *Client) SignOut(context.Context) error {
	c.setCurrent(nil, "")
	return nil
}

// SubscribeIdentityChanges registers fn and asynchronously delivers the
// current identity so a late subscriber still observes initial state.
func (c *Client) SubscribeIdentityChanges(fn func(*sessionkit.Identity)) (func(), error) {
	if fn == nil {
		return nil, errors.New("httpidp: nil listener")
	}
	id := uuid.NewString()

	c.mu.Lock()
	c.listeners[id] = fn
	current := cloneIdentity(c.current)
	c.mu.Unlock()

	go fn(current)

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}, nil
}

func (c *Client) SendVerificationEmail(ctx context.Context, _ *sessionkit.Identity) error {
	token := c.currentToken()
	if token == "" {
		return sessionkit.ErrNoActiveIdentity
	}
	return c.post(ctx, "sendOobCode", map[string]any{
		"requestType": "VERIFY_EMAIL",
		"idToken":     token,
	}, nil)
}

func (c *Client) SendPasswordReset(ctx context.Context, email string) error {
	err := c.post(ctx, "sendOobCode", map[string]any{
		"requestType": "PASSWORD_RESET",
		"email":       email,
	}, nil)
	if err != nil && c.cfg.MaskUnknownEmailOnReset && isUnknownEmail(err) {
		return nil
	}
	return err
}

func (c *Client) UpdateProfile(ctx context.Context, _ string, update sessionkit.ProfileUpdate) error {
	token := c.currentToken()
	if token == "" {
		return sessionkit.ErrNoActiveIdentity
	}

	body := map[string]any{
		"idToken":           token,
		"displayName":       update.DisplayName,
		"returnSecureToken": false,
	}
	if update.AvatarURL != "" {
		body["photoUrl"] = update.AvatarURL
	}
	if err := c.post(ctx, "update", body, nil); err != nil {
		return err
	}

	// Patch the cached identity without a push; profile edits do not re-push
	// and the orchestrator patches its own snapshot.
	c.mu.Lock()
	if c.current != nil {
		c.current.DisplayName = update.DisplayName
		if update.AvatarURL != "" {
			c.current.AvatarURL = update.AvatarURL
		}
	}
	c.mu.Unlock()
	return nil
}

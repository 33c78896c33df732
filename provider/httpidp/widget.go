package httpidp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/kyralabs/sessionkit"
)

// ProofWidgetFactory creates challenge widgets that fetch proof tokens from
// a verification endpoint (a reCAPTCHA-style token mint). One widget is
// created per anchor and reused for the process lifetime.
type ProofWidgetFactory struct {
	Endpoint   string
	HTTPClient *http.Client
}

func (f *ProofWidgetFactory) CreateWidget(anchorID string, cfg sessionkit.WidgetConfig) (sessionkit.ChallengeWidget, error) {
	if f.Endpoint == "" {
		return nil, errors.New("httpidp: proof widget endpoint is required")
	}
	hc := f.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	return &proofWidget{
		endpoint: f.Endpoint,
		anchorID: anchorID,
		size:     cfg.Size,
		http:     hc,
	}, nil
}

type proofWidget struct {
	endpoint string
	anchorID string
	size     string
	http     *http.Client
}

func (w *proofWidget) Proof(ctx context.Context) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"anchor": w.anchorID,
		"size":   w.size,
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", sessionkit.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone {
		return "", sessionkit.ErrWidgetExpired
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: proof endpoint status %d", sessionkit.ErrProviderUnavailable, resp.StatusCode)
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: malformed proof response: %v", sessionkit.ErrProviderUnavailable, err)
	}
	if out.Token == "" {
		return "", sessionkit.ErrWidgetExpired
	}
	return out.Token, nil
}

// StaticWidgetFactory hands out widgets that always return Token. Useful
// for development and wiring tests; an empty token behaves like an expired
// widget.
type StaticWidgetFactory struct {
	Token string
}

func (f *StaticWidgetFactory) CreateWidget(string, sessionkit.WidgetConfig) (sessionkit.ChallengeWidget, error) {
	return staticWidget{token: f.Token}, nil
}

type staticWidget struct {
	token string
}

func (w staticWidget) Proof(context.Context) (string, error) {
	if w.token == "" {
		return "", sessionkit.ErrWidgetExpired
	}
	return w.token, nil
}

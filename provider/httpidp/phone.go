package httpidp

import (
	"context"

	"github.com/kyralabs/sessionkit"
)

// IssuePhoneChallenge asks the provider to deliver an OTP to phoneNumber.
// widgetProof is the human-verification token minted by the challenge
// widget; the provider refuses delivery without a valid one. The returned
// handle is the opaque session info needed to confirm the code.
func (c *Client) IssuePhoneChallenge(ctx context.Context, phoneNumber, widgetProof string) (string, error) {
	var resp struct {
		SessionInfo string `json:"sessionInfo"`
	}
	err := c.post(ctx, "sendVerificationCode", map[string]any{
		"phoneNumber":    phoneNumber,
		"recaptchaToken": widgetProof,
	}, &resp)
	if err != nil {
		return "", err
	}
	if resp.SessionInfo == "" {
		return "", &sessionkit.ProviderError{Raw: "empty session info in challenge response"}
	}
	return resp.SessionInfo, nil
}

// ConfirmPhoneChallenge exchanges handle+code for a phone identity and
// signs it in, so listeners observe the new identity immediately.
func (c *Client) ConfirmPhoneChallenge(ctx context.Context, handle, code string) (*sessionkit.Identity, error) {
	var resp secureTokenResponse
	err := c.post(ctx, "signInWithPhoneNumber", map[string]any{
		"sessionInfo": handle,
		"code":        code,
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

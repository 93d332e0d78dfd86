// Package captcha verifies human-verification tokens submitted with login
// requests. The contract is a single boolean check against an external
// verification service.
package captcha

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Verifier checks a client-supplied captcha token.
type Verifier interface {
	Verify(ctx context.Context, token string) (bool, error)
}

// AlwaysPass accepts every token. Used in development and tests.
type AlwaysPass struct{}

// Verify accepts the token.
func (AlwaysPass) Verify(ctx context.Context, token string) (bool, error) {
	return true, nil
}

// HTTPVerifier posts tokens to a siteverify-style endpoint and reads the
// success flag from the JSON response.
type HTTPVerifier struct {
	endpoint string
	secret   string
	client   *http.Client
}

// NewHTTPVerifier creates a verifier for the given endpoint and secret.
func NewHTTPVerifier(endpoint, secret string) *HTTPVerifier {
	return &HTTPVerifier{
		endpoint: endpoint,
		secret:   secret,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Verify posts the token and returns the service's verdict.
func (v *HTTPVerifier) Verify(ctx context.Context, token string) (bool, error) {
	form := url.Values{}
	form.Set("secret", v.secret)
	form.Set("response", token)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return false, fmt.Errorf("failed to build captcha request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("captcha verification request failed: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		Success bool `json:"success"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false, fmt.Errorf("failed to decode captcha response: %w", err)
	}

	return result.Success, nil
}

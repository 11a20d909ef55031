// Package authsvc verifies bearer tokens against the external identity
// provider. The provider is a collaborator, not part of this system:
// the contract is "token in, user id out, or reject".
package authsvc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/inkwell-pdf/inkwell/internal/domain"
)

// HTTPVerifier resolves tokens by calling the identity provider's user
// endpoint with the bearer token and reading the identity back.
type HTTPVerifier struct {
	endpoint string
	client   *http.Client
}

// NewHTTPVerifier creates a verifier for the given user-info endpoint.
func NewHTTPVerifier(endpoint string, timeout time.Duration) *HTTPVerifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPVerifier{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

// Verify implements domain.TokenVerifier.
func (v *HTTPVerifier) Verify(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", domain.ErrUnauthorized
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.endpoint, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := v.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("identity provider unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return "", domain.ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("identity provider returned status %d", resp.StatusCode)
	}

	var body struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode identity response: %w", err)
	}
	if body.ID == "" {
		return "", domain.ErrUnauthorized
	}
	return body.ID, nil
}

// Chain tries each verifier in order and stops at the first one that
// accepts the token. Lets static development tokens coexist with the
// identity provider.
type Chain []domain.TokenVerifier

// Verify implements domain.TokenVerifier.
func (c Chain) Verify(ctx context.Context, token string) (string, error) {
	var lastErr error = domain.ErrUnauthorized
	for _, v := range c {
		userID, err := v.Verify(ctx, token)
		if err == nil {
			return userID, nil
		}
		lastErr = err
	}
	return "", lastErr
}

// StaticVerifier maps fixed tokens to user ids. Used for development
// and tests; configured via [auth].static_tokens.
type StaticVerifier map[string]string

// Verify implements domain.TokenVerifier.
func (v StaticVerifier) Verify(_ context.Context, token string) (string, error) {
	userID, ok := v[token]
	if !ok || userID == "" {
		return "", domain.ErrUnauthorized
	}
	return userID, nil
}

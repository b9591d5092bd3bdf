package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	apperrors "github.com/jrsteele09/go-storefront-client/internal/errors"
)

type refreshResponse struct {
	AccessToken string `json:"access_token"`
}

// refresh replaces the stored access token after staleToken was rejected.
//
// Calls are serialized. A caller that acquires the lock and finds a different,
// non-empty access token in the store returns immediately: another request has
// already refreshed and the caller's replay will pick up the new token. Any
// failure clears the session and returns ErrUnauthenticated.
func (c *Client) refresh(ctx context.Context, staleToken string) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	current := c.store.Get(ctx)
	if current.HasAccessToken() && current.AccessToken != staleToken {
		c.logger.Debug().Msg("Access token already refreshed by a concurrent request")
		return nil
	}

	if !current.HasRefreshToken() {
		c.logger.Info().Msg("No refresh token, clearing session")
		c.store.Clear(ctx)
		return unauthenticated("no refresh token")
	}

	accessToken, err := c.requestAccessToken(ctx, current.RefreshToken)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Token refresh failed, clearing session")
		c.store.Clear(ctx)
		return fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}

	c.store.SetAccessToken(ctx, accessToken)
	c.logger.Debug().Msg("Access token refreshed")
	return nil
}

// requestAccessToken calls the refresh endpoint with the refresh token as bearer
func (c *Client) requestAccessToken(ctx context.Context, refreshToken string) (string, error) {
	pr, err := newPendingRequest(http.MethodPost, c.refreshPath, nil, []RequestOption{Anonymous()})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, pr.method, c.endpoint(pr.path), nil)
	if err != nil {
		return "", fmt.Errorf("[apiclient] build refresh request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestIDHeader, pr.id)
	setBearer(req, refreshToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &NetworkError{Method: pr.method, Path: pr.path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", apperrors.Wrapf(apperrors.ErrRefreshFailed, "%s", newHTTPError(resp))
	}

	var body refreshResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", apperrors.Wrapf(apperrors.ErrRefreshFailed, "decode refresh response: %v", err)
	}
	if body.AccessToken == "" {
		return "", apperrors.Wrapf(apperrors.ErrRefreshFailed, "response carried no access_token")
	}
	return body.AccessToken, nil
}

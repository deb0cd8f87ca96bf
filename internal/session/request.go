package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/kanda-claim/kanda/internal/api"
)

// APIRequest calls the API on behalf of the current session.
// The bearer token is attached whenever a session is loaded. A 401 clears
// the session, like Logout without navigating, and returns an error that
// matches ErrSessionExpired and unwraps to the *api.Error. Before Restore
// the stored session is not touched.
func (s *Store) APIRequest(ctx context.Context, path, method string, data any) (*api.Response, error) {
	return s.request(ctx, s.api, path, method, data)
}

// WebRequest is APIRequest against the web app (WEB_URL)
func (s *Store) WebRequest(ctx context.Context, path, method string, data any) (*api.Response, error) {
	if s.web == nil {
		return nil, ErrWebClientNotConfigured
	}
	return s.request(ctx, s.web, path, method, data)
}

func (s *Store) request(ctx context.Context, c *api.Client, path, method string, data any) (*api.Response, error) {
	token := s.Token()

	resp, err := c.Do(ctx, api.Request{
		Method: method,
		Path:   path,
		Data:   data,
		Token:  token,
	})
	if err == nil {
		return resp, nil
	}

	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
		if clearErr := s.expire(token); clearErr != nil {
			s.logger.Error().Err(clearErr).Msg("Failed to clear expired session")
		}
		return nil, fmt.Errorf("%w: %w", ErrSessionExpired, apiErr)
	}
	return nil, err
}

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/kanda-claim/kanda/internal/api"
	"github.com/kanda-claim/kanda/internal/models"
)

const (
	loginPath    = "/login"
	registerPath = "/register"
	homePath     = "/"

	insurerRole = "insurer"
)

// Credentials is the login form
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// loginResponse is the body of a successful login.
// User stays raw so it is persisted exactly as sent.
type loginResponse struct {
	Token string          `json:"token"`
	User  json.RawMessage `json:"user"`
}

// RegisterPayload is the registration form.
// TenantID is dropped for insurers, InsuranceCompanyName for everyone else.
type RegisterPayload struct {
	FirstName            string `json:"firstName" validate:"required"`
	LastName             string `json:"lastName" validate:"required"`
	Email                string `json:"email" validate:"required,email"`
	Phone                string `json:"phone" validate:"required"`
	Password             string `json:"password" validate:"required,min=8"`
	Role                 string `json:"role" validate:"required,kandarole"`
	TenantID             string `json:"tenantId"`
	InsuranceCompanyName string `json:"insuranceCompanyName"`
}

// IsInsurer reports whether the payload registers an insurer company
func (p RegisterPayload) IsInsurer() bool {
	return strings.EqualFold(strings.TrimSpace(p.Role), insurerRole)
}

// body builds the request body with the role-conditional fields applied
func (p RegisterPayload) body() map[string]string {
	body := map[string]string{
		"firstName": p.FirstName,
		"lastName":  p.LastName,
		"email":     p.Email,
		"phone":     p.Phone,
		"password":  p.Password,
		"role":      strings.ToLower(strings.TrimSpace(p.Role)),
	}
	if p.IsInsurer() {
		body["insuranceCompanyName"] = p.InsuranceCompanyName
	} else {
		body["tenantId"] = p.TenantID
	}
	return body
}

// Login authenticates, persists the session and navigates to the role dashboard.
// An account awaiting activation fails with *ActivationRequiredError.
// When only the navigation fails, the session is returned together with an
// error wrapping ErrNavigationFailed and the store stays logged in.
func (s *Store) Login(ctx context.Context, creds Credentials) (*Session, error) {
	creds.Email = strings.TrimSpace(creds.Email)
	if err := validateStruct(s.validate, creds); err != nil {
		return nil, err
	}

	resp, err := s.api.Do(ctx, api.Request{
		Method: http.MethodPost,
		Path:   loginPath,
		Data:   creds,
	})
	if err != nil {
		var apiErr *api.Error
		if errors.As(err, &apiErr) && apiErr.NeedsActivation {
			email := apiErr.Email
			if email == "" {
				email = creds.Email
			}
			s.logger.Info().Str("email", email).Msg("Login requires account activation")
			return nil, &ActivationRequiredError{Email: email, Message: apiErr.Message, Err: apiErr}
		}
		s.logger.Debug().Err(err).Str("email", creds.Email).Msg("Login failed")
		return nil, err
	}

	var body loginResponse
	if err := resp.Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLoginResponse, err)
	}
	if body.Token == "" {
		return nil, fmt.Errorf("%w: missing token", ErrInvalidLoginResponse)
	}
	if len(body.User) == 0 || string(body.User) == "null" {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLoginResponse, models.ErrInvalidUser)
	}
	var user models.User
	if err := json.Unmarshal(body.User, &user); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLoginResponse, err)
	}
	if err := user.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLoginResponse, err)
	}

	sess := &Session{Token: body.Token, User: &user, TenantID: user.TenantID.String()}
	if err := s.commit(sess, body.User); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("user_id", user.ID.String()).
		Str("role", user.Role.Name).
		Msg("Logged in")

	out := &Session{Token: sess.Token, User: sess.User.Clone(), TenantID: sess.TenantID}
	if err := s.nav.Navigate(ctx, user.DashboardPath()); err != nil {
		return out, fmt.Errorf("%w: %w", ErrNavigationFailed, err)
	}
	return out, nil
}

// Register creates an account. It does not log the user in.
func (s *Store) Register(ctx context.Context, payload RegisterPayload) (*api.Response, error) {
	payload.Email = strings.TrimSpace(payload.Email)
	if err := validateStruct(s.validate, payload); err != nil {
		return nil, err
	}
	if payload.IsInsurer() && strings.TrimSpace(payload.InsuranceCompanyName) == "" {
		return nil, fmt.Errorf("%w: insuranceCompanyName is required for insurers", ErrValidation)
	}

	resp, err := s.api.Do(ctx, api.Request{
		Method: http.MethodPost,
		Path:   registerPath,
		Data:   payload.body(),
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("email", payload.Email).Str("role", payload.Role).Msg("Registered account")
	return resp, nil
}

// Logout clears the persisted session and navigates home
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.resetLocked()
	clearErr := s.clearLocked()
	s.markReady()
	s.mu.Unlock()

	s.logger.Info().Msg("Logged out")

	return errors.Join(clearErr, s.nav.Navigate(ctx, homePath))
}

// ReplaceUser swaps the stored user after a profile update, keeping the token.
// Fields of the stored user JSON that User does not model are kept.
func (s *Store) ReplaceUser(_ context.Context, user *models.User) error {
	if err := user.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateLoggedIn {
		return ErrNotLoggedIn
	}
	userJSON, err := user.MergeJSON(s.userJSON)
	if err != nil {
		return err
	}
	return s.persistLocked(&Session{Token: s.token, User: user.Clone(), TenantID: user.TenantID.String()}, userJSON)
}

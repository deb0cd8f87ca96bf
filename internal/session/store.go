package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/kanda-claim/kanda/internal/api"
	"github.com/kanda-claim/kanda/internal/models"
	"github.com/kanda-claim/kanda/internal/navigation"
	"github.com/kanda-claim/kanda/internal/storage"
)

// Storage keys holding the session. All three are written and cleared together.
const (
	TokenKey    = "kanda.auth_token"
	UserKey     = "kanda.session_user"
	TenantIDKey = "kanda.tenant_id"
)

var sessionKeys = []string{TokenKey, UserKey, TenantIDKey}

// State is the lifecycle state of the session
type State int

const (
	// StateUnknown means Restore has not finished; role-gated output must wait
	StateUnknown State = iota
	StateLoggedOut
	StateLoggedIn
)

func (s State) String() string {
	switch s {
	case StateLoggedOut:
		return "logged_out"
	case StateLoggedIn:
		return "logged_in"
	default:
		return "unknown"
	}
}

// Session is a read-only copy of an authenticated session
type Session struct {
	Token    string
	User     *models.User
	TenantID string
}

// Options holds the collaborators of a Store
type Options struct {
	Storage storage.Storage

	// API is the client for API_URL; login, register and APIRequest use it
	API *api.Client

	// Web is the client for WEB_URL; optional
	Web *api.Client

	Navigator navigation.Navigator
	Logger    zerolog.Logger

	// Now is used to check token expiry; defaults to time.Now
	Now func() time.Time
}

// Store owns the current session and the requests made on its behalf.
// Persisted writes and the matching in-memory update happen under mu, so
// memory always reflects the most recent write to storage.
type Store struct {
	storage  storage.Storage
	api      *api.Client
	web      *api.Client
	nav      navigation.Navigator
	logger   zerolog.Logger
	validate *validator.Validate
	now      func() time.Time

	mu       sync.RWMutex
	state    State
	token    string
	user     *models.User
	userJSON json.RawMessage
	tenantID string

	ready     chan struct{}
	readyOnce sync.Once
}

// New creates a store in StateUnknown. Call Restore before reading it.
func New(opts Options) (*Store, error) {
	if opts.Storage == nil {
		return nil, fmt.Errorf("session storage is required")
	}
	if opts.API == nil {
		return nil, fmt.Errorf("API client is required")
	}

	nav := opts.Navigator
	if nav == nil {
		nav = noopNavigator{}
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Store{
		storage:  opts.Storage,
		api:      opts.API,
		web:      opts.Web,
		nav:      nav,
		logger:   opts.Logger,
		validate: newValidator(),
		now:      now,
		state:    StateUnknown,
		ready:    make(chan struct{}),
	}, nil
}

// Restore loads a persisted session. A missing, corrupt or expired session
// is cleared from storage and leaves the store logged out; only storage
// failures during that cleanup are returned.
func (s *Store) Restore(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateUnknown {
		return ErrAlreadyRestored
	}
	defer s.markReady()

	sess, userJSON, err := s.load()
	if err != nil {
		s.logger.Warn().Err(err).Msg("Discarding stored session")
		s.resetLocked()
		return s.clearLocked()
	}
	if sess == nil {
		s.resetLocked()
		return nil
	}

	s.setLocked(sess, userJSON)
	s.logger.Debug().
		Str("user_id", sess.User.ID.String()).
		Str("role", sess.User.Role.Name).
		Msg("Session restored")
	return nil
}

// load reads and checks the persisted session along with the user JSON as
// stored. It returns a nil session when nothing is stored and an error for
// any partial or corrupt state.
func (s *Store) load() (*Session, json.RawMessage, error) {
	values := make(map[string]string, len(sessionKeys))
	for _, key := range sessionKeys {
		v, ok, err := s.storage.Get(key)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read %s: %w", key, err)
		}
		if ok {
			values[key] = v
		}
	}

	if len(values) == 0 {
		return nil, nil, nil
	}
	if len(values) != len(sessionKeys) {
		return nil, nil, fmt.Errorf("incomplete session: %d of %d keys present", len(values), len(sessionKeys))
	}

	token := values[TokenKey]
	if token == "" {
		return nil, nil, fmt.Errorf("empty token")
	}

	var user models.User
	if err := json.Unmarshal([]byte(values[UserKey]), &user); err != nil {
		return nil, nil, fmt.Errorf("failed to parse stored user: %w", err)
	}
	if err := user.Validate(); err != nil {
		return nil, nil, err
	}

	var tenantID string
	if err := json.Unmarshal([]byte(values[TenantIDKey]), &tenantID); err != nil {
		return nil, nil, fmt.Errorf("failed to parse stored tenant id: %w", err)
	}
	if tenantID != user.TenantID.String() {
		return nil, nil, fmt.Errorf("stored tenant id does not match user")
	}

	if exp, ok := TokenExpiry(token); ok && !exp.After(s.now()) {
		return nil, nil, fmt.Errorf("token expired at %s", exp.Format(time.RFC3339))
	}

	return &Session{Token: token, User: &user, TenantID: tenantID}, json.RawMessage(values[UserKey]), nil
}

// Ready is closed once the initial state is known
func (s *Store) Ready() <-chan struct{} {
	return s.ready
}

// WaitReady blocks until Restore (or a login) has settled the state
func (s *Store) WaitReady(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// State returns the current lifecycle state
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// IsAuthenticated reports whether a full session is loaded
func (s *Store) IsAuthenticated() bool {
	return s.State() == StateLoggedIn
}

// Snapshot returns a copy of the session; ok is false unless logged in
func (s *Store) Snapshot() (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != StateLoggedIn {
		return Session{}, false
	}
	return Session{Token: s.token, User: s.user.Clone(), TenantID: s.tenantID}, true
}

// User returns a copy of the current user, or nil when logged out
func (s *Store) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user.Clone()
}

// Token returns the bearer token, or "" when logged out
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// UserJSON returns the user object exactly as the API sent it, or nil when
// logged out. Fields the User type does not model are only found here.
func (s *Store) UserJSON() json.RawMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.userJSON == nil {
		return nil
	}
	return append(json.RawMessage(nil), s.userJSON...)
}

// TenantID returns the tenant of the current user, or "" when logged out
func (s *Store) TenantID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tenantID
}

// commit persists a full session and makes it current
func (s *Store) commit(sess *Session, userJSON json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.markReady()

	return s.persistLocked(sess, userJSON)
}

// persistLocked writes all three keys, storing userJSON as is. A failed
// write clears the rest so a partial session is never left behind.
func (s *Store) persistLocked(sess *Session, userJSON json.RawMessage) error {
	tenantJSON, err := json.Marshal(sess.TenantID)
	if err != nil {
		return fmt.Errorf("failed to marshal tenant id: %w", err)
	}

	writes := []struct{ key, value string }{
		{TokenKey, sess.Token},
		{UserKey, string(userJSON)},
		{TenantIDKey, string(tenantJSON)},
	}
	for _, w := range writes {
		if err := s.storage.Set(w.key, w.value); err != nil {
			s.resetLocked()
			return errors.Join(fmt.Errorf("failed to persist session: %w", err), s.clearLocked())
		}
	}

	s.setLocked(sess, userJSON)
	return nil
}

// expire clears the session after a 401, unless a newer session replaced
// the one whose token was rejected. Before Restore has run the stored
// session is unread and left alone.
func (s *Store) expire(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.state == StateUnknown:
		return nil
	case s.state == StateLoggedIn && s.token != token:
		return nil
	}
	s.logger.Info().Msg("Session rejected by API, clearing")
	s.resetLocked()
	defer s.markReady()
	return s.clearLocked()
}

func (s *Store) setLocked(sess *Session, userJSON json.RawMessage) {
	s.state = StateLoggedIn
	s.token = sess.Token
	s.user = sess.User.Clone()
	s.userJSON = append(json.RawMessage(nil), userJSON...)
	s.tenantID = sess.TenantID
}

func (s *Store) resetLocked() {
	s.state = StateLoggedOut
	s.token = ""
	s.user = nil
	s.userJSON = nil
	s.tenantID = ""
}

// clearLocked deletes every session key, attempting all of them
func (s *Store) clearLocked() error {
	var errs []error
	for _, key := range sessionKeys {
		if err := s.storage.Delete(key); err != nil {
			errs = append(errs, fmt.Errorf("failed to clear %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

func (s *Store) markReady() {
	s.readyOnce.Do(func() { close(s.ready) })
}

type noopNavigator struct{}

func (noopNavigator) Navigate(context.Context, string) error { return nil }

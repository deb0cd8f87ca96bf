package commands

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kanda-claim/kanda/internal/api"
	"github.com/kanda-claim/kanda/internal/apitest"
	"github.com/kanda-claim/kanda/internal/config"
	"github.com/kanda-claim/kanda/internal/models"
	"github.com/kanda-claim/kanda/internal/navigation"
	"github.com/kanda-claim/kanda/internal/session"
	"github.com/kanda-claim/kanda/internal/storage"
)

const testPassword = "password123"

// testEnv is a fake backend plus a restored session store pointed at it
type testEnv struct {
	server  *apitest.Server
	store   *session.Store
	storage *storage.Memory
	nav     *navigation.Recorder
	out     *bytes.Buffer
	cfg     *config.Config
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	srv := apitest.New()
	t.Cleanup(srv.Close)

	srv.AddUser(models.User{
		ID:        "u1",
		Email:     "driver@kanda.rw",
		FirstName: "Eric",
		LastName:  "Niyonzima",
		Role:      models.Role{Name: "Driver"},
		TenantID:  "t1",
		Tenant:    &models.Tenant{ID: "t1", Name: "Radiant Insurance"},
	}, testPassword, true)
	srv.AddUser(models.User{
		ID:        "u2",
		Email:     "admin@kanda.rw",
		FirstName: "Grace",
		Role:      models.Role{Name: "Admin"},
		TenantID:  "t1",
	}, testPassword, true)
	srv.AddUser(models.User{
		ID:        "u3",
		Email:     "pending@kanda.rw",
		FirstName: "Paul",
		Role:      models.Role{Name: "Garage"},
	}, testPassword, false)

	cfg := &config.Config{
		API: config.APIConfig{URL: srv.URL, WebURL: srv.URL + "/web"},
		Session: config.SessionConfig{
			Backend: storage.BackendMemory,
		},
	}

	mem := storage.NewMemory()
	nav := &navigation.Recorder{}
	store, err := session.New(session.Options{
		Storage:   mem,
		API:       api.New(cfg.API.URL),
		Web:       api.New(srv.URL),
		Navigator: nav,
	})
	require.NoError(t, err)
	require.NoError(t, store.Restore(context.Background()))

	return &testEnv{server: srv, store: store, storage: mem, nav: nav, out: &bytes.Buffer{}, cfg: cfg}
}

// opts injects the test collaborators, non-interactive
func (e *testEnv) opts() []Option {
	return []Option{
		WithConfig(e.cfg),
		WithStore(e.store),
		WithNavigator(e.nav),
		WithOutput(e.out),
		WithInteractive(false),
	}
}

func (e *testEnv) login(t *testing.T, email string) {
	t.Helper()
	require.NoError(t, runLogin(context.Background(), email, testPassword, e.opts()...))
	e.out.Reset()
}

package commands

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kanda-claim/kanda/internal/api"
	"github.com/kanda-claim/kanda/internal/session"
)

func TestLoginCommand_Flags(t *testing.T) {
	cmd := NewLoginCmd()
	assert.Equal(t, "login", cmd.Use)
	assert.NotNil(t, cmd.Flags().Lookup("email"))
	assert.NotNil(t, cmd.Flags().Lookup("password"))
	assert.NotNil(t, cmd.Flags().Lookup("open"))
}

func TestLoginCommand_Success(t *testing.T) {
	env := setupTestEnv(t)

	err := runLogin(context.Background(), "driver@kanda.rw", testPassword, env.opts()...)
	require.NoError(t, err)

	assert.Contains(t, env.out.String(), "✓ Login successful!")
	assert.Contains(t, env.out.String(), "Eric Niyonzima (driver@kanda.rw)")
	assert.Contains(t, env.out.String(), "Role: Driver")
	assert.Equal(t, "/dashboard/driver", env.nav.Last())
	assert.Equal(t, session.StateLoggedIn, env.store.State())
	assert.Equal(t, "t1", env.store.TenantID())
}

func TestLoginCommand_AdminGoesToInsurerDashboard(t *testing.T) {
	env := setupTestEnv(t)

	require.NoError(t, runLogin(context.Background(), "admin@kanda.rw", testPassword, env.opts()...))
	assert.Equal(t, "/dashboard/insurer", env.nav.Last())
}

func TestLoginCommand_MissingEmail(t *testing.T) {
	t.Setenv("KANDA_EMAIL", "")

	err := runLogin(context.Background(), "", testPassword)
	require.Error(t, err)
	assert.Equal(t, "email is required (use --email flag or KANDA_EMAIL env var)", err.Error())
}

func TestLoginCommand_EnvVarCredentials(t *testing.T) {
	env := setupTestEnv(t)
	t.Setenv("KANDA_EMAIL", "driver@kanda.rw")
	t.Setenv("KANDA_PASSWORD", testPassword)

	require.NoError(t, runLogin(context.Background(), "", "", env.opts()...))
	assert.True(t, env.store.IsAuthenticated())
}

func TestLoginCommand_PasswordRequiredNonInteractive(t *testing.T) {
	env := setupTestEnv(t)
	t.Setenv("KANDA_PASSWORD", "")

	err := runLogin(context.Background(), "driver@kanda.rw", "", env.opts()...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "password is required in non-interactive mode")
}

func TestLoginCommand_WrongPassword(t *testing.T) {
	env := setupTestEnv(t)

	err := runLogin(context.Background(), "driver@kanda.rw", "not-the-password", env.opts()...)
	require.Error(t, err)
	assert.Equal(t, "login failed: Invalid email or password", err.Error())
	assert.False(t, env.store.IsAuthenticated())
	assert.Empty(t, env.nav.Paths())
}

func TestLoginCommand_ActivationRequired(t *testing.T) {
	env := setupTestEnv(t)

	err := runLogin(context.Background(), "pending@kanda.rw", testPassword, env.opts()...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "account pending@kanda.rw needs activation")

	assert.Contains(t, env.out.String(), "not activated")
	assert.Equal(t, "/activate?email=pending%40kanda.rw", env.nav.Last())
	assert.False(t, env.store.IsAuthenticated())
}

func TestLoginCommand_ClientValidation(t *testing.T) {
	env := setupTestEnv(t)

	err := runLogin(context.Background(), "not-an-email", testPassword, env.opts()...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email must be a valid email address")
	assert.NotContains(t, env.server.Requests(), "POST /login")
}

func TestLoginCommand_NoAPIURL(t *testing.T) {
	env := setupTestEnv(t)
	env.cfg.API.URL = ""

	err := runLogin(context.Background(), "driver@kanda.rw", testPassword,
		WithConfig(env.cfg), WithOutput(env.out), WithInteractive(false))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API_URL is not set")
}

// brokenNavigator fails every navigation
type brokenNavigator struct{}

func (brokenNavigator) Navigate(context.Context, string) error {
	return errors.New("no display")
}

func TestLoginCommand_DashboardFailsAfterLogin(t *testing.T) {
	env := setupTestEnv(t)

	store, err := session.New(session.Options{
		Storage:   env.storage,
		API:       api.New(env.cfg.API.URL),
		Navigator: brokenNavigator{},
	})
	require.NoError(t, err)
	require.NoError(t, store.Restore(context.Background()))

	err = runLogin(context.Background(), "driver@kanda.rw", testPassword,
		WithConfig(env.cfg), WithStore(store), WithOutput(env.out), WithInteractive(false))
	require.Error(t, err)
	assert.ErrorIs(t, err, session.ErrNavigationFailed)

	assert.Contains(t, env.out.String(), "✓ Login successful!")
	assert.True(t, store.IsAuthenticated())
}

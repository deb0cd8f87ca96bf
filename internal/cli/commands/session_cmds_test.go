package commands

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kanda-claim/kanda/internal/config"
	"github.com/kanda-claim/kanda/internal/session"
)

func TestLogoutCommand(t *testing.T) {
	env := setupTestEnv(t)
	env.login(t, "driver@kanda.rw")

	require.NoError(t, runLogout(context.Background(), env.opts()...))

	assert.Equal(t, "✓ Logged out\n", env.out.String())
	assert.Equal(t, session.StateLoggedOut, env.store.State())
	assert.Equal(t, "/", env.nav.Last())
	assert.Zero(t, env.storage.Len())
}

func TestLogoutCommand_NotLoggedIn(t *testing.T) {
	env := setupTestEnv(t)

	require.NoError(t, runLogout(context.Background(), env.opts()...))
	assert.Equal(t, "Not logged in.\n", env.out.String())
}

func TestWhoamiCommand_LoggedOut(t *testing.T) {
	env := setupTestEnv(t)

	require.NoError(t, runWhoami(context.Background(), env.opts()...))

	assert.Contains(t, env.out.String(), "Session: logged_out")
	assert.Contains(t, env.out.String(), "kanda login --email <email>")
}

func TestWhoamiCommand_LoggedIn(t *testing.T) {
	env := setupTestEnv(t)
	env.login(t, "driver@kanda.rw")

	require.NoError(t, runWhoami(context.Background(), env.opts()...))

	out := env.out.String()
	assert.Contains(t, out, "logged_in")
	assert.Contains(t, out, "Eric Niyonzima (driver@kanda.rw)")
	assert.Contains(t, out, "Driver")
	assert.Contains(t, out, "Radiant Insurance (t1)")
	assert.Contains(t, out, "/dashboard/driver")
	assert.Contains(t, out, "Expires")
}

func TestWhoamiCommand_AliasStatus(t *testing.T) {
	cmd := NewWhoamiCmd()
	assert.Contains(t, cmd.Aliases, "status")
}

func TestWhoamiCommand_OpensConfiguredStore(t *testing.T) {
	env := setupTestEnv(t)

	// No injected store: the memory backend from config is opened and restored
	err := runWhoami(context.Background(), WithConfig(env.cfg), WithOutput(env.out), WithInteractive(false))
	require.NoError(t, err)
	assert.Contains(t, env.out.String(), "Session: logged_out")
}

func TestDashCommand_NotLoggedIn(t *testing.T) {
	env := setupTestEnv(t)

	err := runDash(context.Background(), env.opts()...)
	require.Error(t, err)
	assert.Equal(t, "not logged in. Please run 'kanda login' first", err.Error())
	assert.Empty(t, env.nav.Paths())
}

func TestDashCommand_NavigatesToRoleDashboard(t *testing.T) {
	tests := []struct {
		email string
		want  string
	}{
		{email: "driver@kanda.rw", want: "/dashboard/driver"},
		{email: "admin@kanda.rw", want: "/dashboard/insurer"},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			env := setupTestEnv(t)
			env.login(t, tt.email)

			require.NoError(t, runDash(context.Background(), env.opts()...))
			assert.Equal(t, tt.want, env.nav.Last())
			assert.Contains(t, env.out.String(), "Opening")
		})
	}
}

func TestDashCommand_PrintsURLWithoutBrowser(t *testing.T) {
	env := setupTestEnv(t)
	env.login(t, "driver@kanda.rw")

	// Default navigator prints the resolved web URL when opening is off
	err := runDash(context.Background(),
		WithConfig(env.cfg), WithStore(env.store), WithOutput(env.out), WithOpenBrowser(false))
	require.NoError(t, err)
	assert.Contains(t, env.out.String(), "→ "+env.cfg.API.WebURL+"/dashboard/driver")
}

func TestWhoamiCommand_UsesConfigFromContext(t *testing.T) {
	env := setupTestEnv(t)
	t.Setenv("API_URL", "")

	// API_URL is unset in the environment, so only the context config can reach the server
	ctx := config.NewContext(context.Background(), env.cfg)
	require.NoError(t, runWhoami(ctx, WithOutput(env.out), WithInteractive(false)))
	assert.Contains(t, env.out.String(), "Session: logged_out")
}

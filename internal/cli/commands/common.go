package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/kanda-claim/kanda/internal/api"
	"github.com/kanda-claim/kanda/internal/config"
	"github.com/kanda-claim/kanda/internal/logger"
	"github.com/kanda-claim/kanda/internal/navigation"
	"github.com/kanda-claim/kanda/internal/session"
	"github.com/kanda-claim/kanda/internal/storage"
)

// runContext carries the collaborators shared by every command
type runContext struct {
	cfg         *config.Config
	store       *session.Store
	nav         navigation.Navigator
	out         io.Writer
	in          *os.File
	interactive bool
	openBrowser bool
}

// Option overrides a collaborator, mostly for tests
type Option func(*runContext)

// WithConfig uses cfg instead of loading the environment
func WithConfig(cfg *config.Config) Option {
	return func(rc *runContext) { rc.cfg = cfg }
}

// WithStore uses an already restored session store
func WithStore(store *session.Store) Option {
	return func(rc *runContext) { rc.store = store }
}

// WithNavigator replaces the browser navigator
func WithNavigator(nav navigation.Navigator) Option {
	return func(rc *runContext) { rc.nav = nav }
}

// WithOutput redirects command output
func WithOutput(w io.Writer) Option {
	return func(rc *runContext) { rc.out = w }
}

// WithInteractive forces prompts on or off
func WithInteractive(interactive bool) Option {
	return func(rc *runContext) { rc.interactive = interactive }
}

// WithOpenBrowser opens navigations in the default browser
func WithOpenBrowser(open bool) Option {
	return func(rc *runContext) { rc.openBrowser = open }
}

// newRunContext restores the session unless the caller injected one. The
// config comes from an option, then ctx (set by the root command), and is
// only loaded from the environment when neither has it.
func newRunContext(ctx context.Context, opts ...Option) (*runContext, error) {
	rc := &runContext{
		out:         os.Stdout,
		in:          os.Stdin,
		interactive: term.IsTerminal(int(os.Stdin.Fd())),
	}
	for _, opt := range opts {
		opt(rc)
	}

	if rc.cfg == nil {
		rc.cfg, _ = config.FromContext(ctx)
	}
	if rc.cfg == nil {
		cfg, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		rc.cfg = cfg
	}

	if rc.nav == nil {
		rc.nav = navigation.NewBrowser(rc.cfg.API.WebURL, rc.openBrowser, rc.out)
	}

	if rc.store == nil {
		store, err := openStore(ctx, rc.cfg, rc.nav)
		if err != nil {
			return nil, err
		}
		rc.store = store
	}

	return rc, nil
}

// openStore wires storage, API clients and navigator into a restored store
func openStore(ctx context.Context, cfg *config.Config, nav navigation.Navigator) (*session.Store, error) {
	if err := cfg.RequireAPI(); err != nil {
		return nil, err
	}

	st, err := storage.Open(cfg.Session.Backend, cfg.Session.Dir)
	if err != nil {
		return nil, err
	}

	log := logger.GetLogger()
	clientOpts := []api.Option{api.WithTimeout(cfg.API.Timeout), api.WithLogger(log)}

	var web *api.Client
	if cfg.API.WebURL != "" {
		web = api.New(cfg.API.WebURL, clientOpts...)
	}

	store, err := session.New(session.Options{
		Storage:   st,
		API:       api.New(cfg.API.URL, clientOpts...),
		Web:       web,
		Navigator: nav,
		Logger:    log,
	})
	if err != nil {
		return nil, err
	}

	if err := store.Restore(ctx); err != nil {
		return nil, fmt.Errorf("failed to restore session: %w", err)
	}
	return store, nil
}

// requireLogin returns the current session or a hint to log in
func (rc *runContext) requireLogin() (session.Session, error) {
	sess, ok := rc.store.Snapshot()
	if !ok {
		return session.Session{}, fmt.Errorf("not logged in. Please run 'kanda login' first")
	}
	return sess, nil
}

// readPassword prompts for a password without echo
func (rc *runContext) readPassword(label string) (string, error) {
	if !rc.interactive {
		return "", fmt.Errorf("password is required in non-interactive mode (use --password flag or KANDA_PASSWORD env var)")
	}

	fmt.Fprint(rc.out, label)
	bytePassword, err := term.ReadPassword(int(rc.in.Fd()))
	fmt.Fprintln(rc.out) // New line after password input
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(bytePassword), nil
}

// explain turns session errors into CLI guidance
func explain(err error) error {
	if errors.Is(err, session.ErrSessionExpired) {
		return fmt.Errorf("%w. Run 'kanda login' to continue", err)
	}
	return err
}

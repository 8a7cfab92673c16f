package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/authkeeper/internal/client/config"
	"github.com/dmitrijs2005/authkeeper/internal/client/connectivity"
	"github.com/dmitrijs2005/authkeeper/internal/client/identity"
	"github.com/dmitrijs2005/authkeeper/internal/client/models"
	"github.com/dmitrijs2005/authkeeper/internal/client/repositories/preferences"
	"github.com/dmitrijs2005/authkeeper/internal/client/repositories/sessions"
	"github.com/dmitrijs2005/authkeeper/internal/client/services"
	"github.com/dmitrijs2005/authkeeper/internal/client/session"
	"github.com/dmitrijs2005/authkeeper/internal/client/storage"
	"github.com/dmitrijs2005/authkeeper/internal/client/vault"
	"github.com/dmitrijs2005/authkeeper/internal/cryptox"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"go.uber.org/multierr"
)

// authService is the part of services.AuthService the CLI drives.
type authService interface {
	SignIn(ctx context.Context, email, password string) (*models.User, error)
	SignOut(ctx context.Context) error
	Register(ctx context.Context, email, password string) (*models.User, error)
	VerifyEmail(ctx context.Context, token string) error
	ResendVerification(ctx context.Context) error
	CurrentUser(ctx context.Context) (*models.User, error)
	Online() bool
}

type App struct {
	config  *config.Config
	logger  logging.Logger
	auth    authService
	watcher *connectivity.Watcher
	reader  *bufio.Reader
	out     io.Writer
	user    *models.User
	closers []io.Closer
}

// NewApp opens local storage, loads the device key and connects the
// identity client. Call Close when done.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	app := &App{
		config: c,
		logger: logger.With("module", "cli"),
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}

	db, err := storage.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}
	app.closers = append(app.closers, db)

	key, err := cryptox.LoadOrCreateDeviceKey(c.VaultKeyPath)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	v, err := vault.New(db, key)
	if err != nil {
		_ = app.Close()
		return nil, err
	}

	provider, err := identity.NewGRPCClient(c.ServerEndpointAddr)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	app.closers = append(app.closers, provider)

	app.watcher = connectivity.NewWatcher(provider, c.OnlineCheckInterval, logger)
	app.auth = newAuthService(db, provider, v, app.watcher, logger, app.out)
	return app, nil
}

func newAuthService(db *sql.DB, provider identity.Provider, v *vault.Vault, oracle connectivity.Oracle,
	logger logging.Logger, out io.Writer) *services.AuthService {
	sm := session.NewManager(sessions.NewSQLiteRepository(db), preferences.NewSQLiteRepository(db), provider, oracle, logger)
	progress := services.WithProgress(func(s services.State) {
		switch s {
		case services.StateResolvingLocal:
			fmt.Fprintln(out, "Server unreachable, using the cached session...")
		case services.StateResolvingRemote:
			fmt.Fprintln(out, "Signing in...")
		}
	})
	return services.NewAuthService(provider, sm, v, oracle, logger, progress)
}

// Run probes connectivity once, reports the restored session (if any) and
// runs the REPL until the user exits or ctx is done.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.watcher.Probe(ctx)
	go a.watcher.Run(ctx)

	fmt.Fprintln(a.out, "Welcome to authkeeper (type 'help' for commands)")
	a.restoreSession(ctx)

	runREPL(ctx, a, a.getStatus, a.reader)
}

func (a *App) restoreSession(ctx context.Context) {
	u, err := a.auth.CurrentUser(ctx)
	if err != nil {
		a.logger.Warn(ctx, "could not read the current session", "error", err)
		return
	}
	if u != nil {
		a.user = u
		fmt.Fprintf(a.out, "Signed in as %s\n", u.Email)
	}
}

func (a *App) isLoggedIn() bool {
	return a.user != nil
}

func (a *App) getStatus() string {
	mode := "offline"
	if a.auth.Online() {
		mode = "online"
	}
	if a.user != nil {
		return fmt.Sprintf("(%s %s)", a.user.Email, mode)
	}
	return fmt.Sprintf("(%s)", mode)
}

// Close releases the identity client and the database.
func (a *App) Close() error {
	var err error
	for i := len(a.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, a.closers[i].Close())
	}
	a.closers = nil
	return err
}

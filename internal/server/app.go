// Package server wires the identity server: PostgreSQL storage, the mail
// outbox, the identity service and the gRPC endpoint, with graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/config"
	"github.com/dmitrijs2005/authkeeper/internal/server/mail"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/authkeeper/internal/server/services"

	gs "github.com/dmitrijs2005/authkeeper/internal/server/grpc"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	identity gs.IdentityService
}

func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	db, err := repomanager.Open(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	outbox, err := newOutbox(ctx, c, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	identity := services.NewIdentityService(db, rm, outbox, c)
	return &App{config: c, logger: logger, db: db, identity: identity}, nil
}

func newOutbox(ctx context.Context, c *config.Config, logger logging.Logger) (mail.Outbox, error) {
	switch c.MailOutbox {
	case config.MailOutboxS3:
		client, err := mail.NewS3Client(ctx, mail.S3Settings{
			Region:       c.S3Region,
			AccessKey:    c.S3RootUser,
			SecretKey:    c.S3RootPassword,
			BaseEndpoint: c.S3BaseEndpoint,
			Bucket:       c.S3Bucket,
		})
		if err != nil {
			return nil, fmt.Errorf("mail outbox: %w", err)
		}
		return mail.NewS3Outbox(client, c.S3Bucket), nil
	case config.MailOutboxLog, "":
		return mail.NewLogOutbox(logger), nil
	default:
		return nil, fmt.Errorf("mail outbox: unknown kind %q", c.MailOutbox)
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves until ctx is cancelled or a termination signal arrives.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup
	var runErr error

	wg.Add(1)
	go func() {
		defer wg.Done()
		s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.identity)
		if err := s.Run(ctx); err != nil {
			app.logger.Error(ctx, "grpc server failed", "error", err)
			runErr = err
			cancelFunc()
		}
	}()

	wg.Wait()
	app.logger.Info(ctx, "App stopped")
	return runErr
}

func (app *App) Close() error {
	if app.db == nil {
		return nil
	}
	return app.db.Close()
}

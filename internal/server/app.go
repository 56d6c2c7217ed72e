// Package server assembles the gateway: logger, blob store, optional attempt
// ledger and the HTTP server, and runs it until a signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/photoform/internal/blobstore"
	"github.com/dmitrijs2005/photoform/internal/blobstore/localstore"
	"github.com/dmitrijs2005/photoform/internal/blobstore/s3store"
	"github.com/dmitrijs2005/photoform/internal/coordinator"
	"github.com/dmitrijs2005/photoform/internal/logging"
	"github.com/dmitrijs2005/photoform/internal/server/config"
	"github.com/dmitrijs2005/photoform/internal/server/gateway"
	"github.com/dmitrijs2005/photoform/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/photoform/internal/server/services"
)

// Seams for tests.
var (
	logOutput io.Writer = os.Stdout

	newS3Store = func(ctx context.Context, c s3store.Config) (blobstore.Store, error) {
		return s3store.New(ctx, c)
	}
	openDB = repomanager.Open
	newRM  = repomanager.NewPostgresRepositoryManager
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	handler *gateway.Handler
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(logOutput, c.LogLevel)

	store, localRoot, err := newStore(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("blob store init error: %w", err)
	}

	app := &App{config: c, logger: logger}

	var (
		recorder coordinator.Recorder
		attempts gateway.AttemptLookup
	)
	if c.DatabaseDSN != "" {
		db, err := openDB(ctx, c.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		rm := newRM()
		if err := rm.RunMigrations(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("db migration error: %w", err)
		}
		app.db = db
		svc := services.NewAttemptService(db, rm)
		recorder = svc
		attempts = svc
	}

	client := &http.Client{Timeout: c.UpstreamTimeout}
	app.handler = gateway.NewHandler(gateway.Options{
		Category:      c.Category,
		Constraints:   c.Constraints(),
		HostFieldName: c.HostFieldName,
		FileFieldName: c.FileFieldName,
		UpstreamURL:   c.UpstreamURL,
		LocalRoot:     localRoot,
		Attempts:      attempts,
	}, store, recorder, client, logger)

	return app, nil
}

// newStore returns the configured blob store and, for the local backend,
// the directory the gateway should serve.
func newStore(ctx context.Context, c *config.Config) (blobstore.Store, string, error) {
	switch c.BlobBackend {
	case config.BackendLocal:
		ls, err := localstore.New(c.LocalBlobDir, c.LocalBaseURL)
		if err != nil {
			return nil, "", err
		}
		return ls, ls.Root(), nil
	case config.BackendS3:
		s, err := newS3Store(ctx, c.S3())
		return s, "", err
	default:
		return nil, "", fmt.Errorf("unknown blob backend %q", c.BlobBackend)
	}
}

// Handler exposes the HTTP handler.
func (app *App) Handler() http.Handler {
	return app.handler
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

	defer app.close(ctx)

	s := gateway.NewServer(app.config.HTTPAddr, app.handler, app.logger)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		return err
	}
	return nil
}

func (app *App) close(ctx context.Context) {
	if app.db == nil {
		return
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close", "error", err)
	}
}

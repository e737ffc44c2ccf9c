// Package server initializes and runs the chip verification server: it wires
// storage, the signature verifier, the HTTP front door and the audit archive
// exporter, and handles graceful shutdown.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/atelierhq/chipverify/internal/logging"
	"github.com/atelierhq/chipverify/internal/server/archive"
	"github.com/atelierhq/chipverify/internal/server/config"
	"github.com/atelierhq/chipverify/internal/server/httpapi"
	"github.com/atelierhq/chipverify/internal/server/shared/db"
	"github.com/atelierhq/chipverify/internal/server/verification"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	verify   *verification.Service
	archiver *archive.Exporter
}

func NewApp(c *config.Config) (*App, error) {

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	m, err := db.NewPostgresRepositoryManager(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	verifier, err := verification.NewVerifier(c.VerifierMode, c.DevBypassCode)
	if err != nil {
		return nil, fmt.Errorf("verifier init error: %w", err)
	}

	vs := verification.NewService(m.Chips(), m.Links(), m.Artworks(), m.Scans(), verifier, logger)
	ex := archive.NewExporter(m.Scans(), c, logger)

	return &App{config: c, logger: logger, verify: vs, archiver: ex}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s := httpapi.NewServer(app.config, app.verify, app.logger)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...", "verifier_mode", app.config.VerifierMode)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.archiver.Run(ctx)
	}()

	wg.Wait()
}

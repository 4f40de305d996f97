// Package server assembles the listings application: configuration,
// logging, storage, image store, services and the HTTP surface. It also
// handles signals and graceful shutdown.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/listings/internal/logging"
	"github.com/dmitrijs2005/listings/internal/server/config"
	"github.com/dmitrijs2005/listings/internal/server/gql"
	"github.com/dmitrijs2005/listings/internal/server/httpapi"
	"github.com/dmitrijs2005/listings/internal/server/imagestore"
	"github.com/dmitrijs2005/listings/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/listings/internal/server/services"
	"go.uber.org/zap"
)

// App owns the long-lived parts of the server process.
type App struct {
	config         *config.Config
	logger         logging.Logger
	accessLog      *zap.Logger
	repomanager    repomanager.RepositoryManager
	userService    *services.UserService
	productService *services.ProductService
	images         imagestore.Store
	closers        []func() error
}

// newLogger builds the application logger for the configured backend.
// The returned closer flushes buffered entries.
func newLogger(backend string) (logging.Logger, func() error, error) {
	switch backend {
	case config.LogBackendSlog:
		return logging.NewJSONSlogLogger(os.Stdout, slog.LevelInfo), func() error { return nil }, nil
	case config.LogBackendZap:
		zl, err := logging.NewProductionZapLogger("stdout")
		if err != nil {
			return nil, nil, fmt.Errorf("zap logger: %w", err)
		}
		l := logging.NewZapLogger(zl)
		return l, func() error { _ = l.Sync(); return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown log backend %q", backend)
	}
}

// NewApp opens storage, runs migrations and builds the HTTP handler.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, syncLogger, err := newLogger(c.LogBackend)
	if err != nil {
		return nil, err
	}

	accessLog, err := logging.NewProductionZapLogger(c.AccessLogPath)
	if err != nil {
		return nil, fmt.Errorf("access log: %w", err)
	}

	rm, err := repomanager.Open(ctx, c.DatabaseDSN, c.DatabaseName, logger)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	if err := rm.RunMigrations(ctx); err != nil {
		_ = rm.Close(ctx)
		return nil, fmt.Errorf("db migrations: %w", err)
	}

	images, err := imagestore.New(ctx, c)
	if err != nil {
		_ = rm.Close(ctx)
		return nil, fmt.Errorf("image store: %w", err)
	}

	app := &App{
		config:         c,
		logger:         logger,
		accessLog:      accessLog,
		repomanager:    rm,
		userService:    services.NewUserService(rm, c, logger),
		productService: services.NewProductService(rm, logger),
		images:         images,
	}
	app.closers = []func() error{
		func() error { return rm.Close(context.Background()) },
		func() error { _ = accessLog.Sync(); return nil },
		syncLogger,
	}

	return app, nil
}

// Handler returns the fully wired HTTP handler.
func (app *App) Handler() http.Handler {
	deps := httpapi.RouterDeps{
		GraphQL:    gql.NewHandler(gql.NewResolver(app.userService, app.productService), app.logger),
		Upload:     httpapi.NewUploadHandler(app.images, app.logger),
		Logger:     app.logger,
		AccessLog:  app.accessLog,
		JWTSecret:  []byte(app.config.SecretKey),
		CORSOrigin: app.config.CORSOrigin,
	}
	if local, ok := app.images.(*imagestore.LocalStore); ok {
		deps.ImagesDir = local.Dir()
	}
	return httpapi.NewRouter(deps)
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := httpapi.NewHTTPServer(app.config.HTTPAddr, app.Handler(), app.logger, app.config.ShutdownTimeout)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled or a termination signal arrives, then
// releases storage and flushes logs.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "backend", app.repomanager.Backend())

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.logger.Info(context.Background(), "App stopped")
	app.close()
}

func (app *App) close() {
	for _, c := range app.closers {
		if err := c(); err != nil {
			app.logger.Warn(context.Background(), "shutdown step failed", "error", err)
		}
	}
}

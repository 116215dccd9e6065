// Package server wires the Hub server together: storage, services, the HTTP
// API, the internal gRPC health endpoint and the maintenance scheduler. It
// also owns graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hubpessoal/hub/internal/logging"
	"github.com/hubpessoal/hub/internal/server/background"
	"github.com/hubpessoal/hub/internal/server/config"
	"github.com/hubpessoal/hub/internal/server/filestore"
	"github.com/hubpessoal/hub/internal/server/httpapi"
	"github.com/hubpessoal/hub/internal/server/integrations/llm"
	"github.com/hubpessoal/hub/internal/server/integrations/rawg"
	"github.com/hubpessoal/hub/internal/server/integrations/spotify"
	"github.com/hubpessoal/hub/internal/server/maintenance"
	"github.com/hubpessoal/hub/internal/server/metrics"
	"github.com/hubpessoal/hub/internal/server/repositories/repomanager"
	"github.com/hubpessoal/hub/internal/server/services"
	"golang.org/x/sync/errgroup"

	gs "github.com/hubpessoal/hub/internal/server/grpc"
)

const (
	shutdownTimeout   = 20 * time.Second
	backgroundTimeout = 30 * time.Second
	limiterIdle       = 10 * time.Minute
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	runner      *background.Runner
	httpServer  *http.Server
	health      *gs.HealthServer
	maintenance *maintenance.Scheduler
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(os.Stdout, c.LogLevel, c.LogFormat)

	db, err := repomanager.OpenDB(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	store, err := filestore.NewS3Store(ctx, c)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("file store init error: %w", err)
	}

	mx := metrics.New()
	runner := background.NewRunner(logger, backgroundTimeout)
	runner.Observe(mx.ObserveTask)

	// The chat client has no overall timeout: an answer streams for as long
	// as the model keeps talking.
	upstream := &http.Client{Timeout: c.UpstreamTimeout}
	streaming := &http.Client{}

	users := services.NewUserService(db, rm, c)
	ledger := services.NewFinanceService(db, rm)
	limiter := httpapi.NewRateLimiter(c.RateLimitRPS, c.RateLimitBurst)

	api := httpapi.New(httpapi.Deps{
		Logger:  logger,
		Metrics: mx,
		Limiter: limiter,
		DB:      db,

		Accounts:  users,
		Ledger:    ledger,
		Games:     services.NewGameService(db, rm, rawg.NewClient(upstream, c), runner, logger),
		Notes:     services.NewNoteService(db, rm),
		Media:     services.NewMediaService(db, rm),
		Ebooks:    services.NewEbookService(db, rm, store, c, logger),
		Chat:      services.NewChatService(db, rm, services.NewLLMModel(llm.NewClient(streaming, c)), runner, logger),
		Dashboard: services.NewDashboardService(db, rm, ledger),
		Music:     spotify.NewClient(upstream, c),

		SessionCookieName:   c.SessionCookieName,
		SessionCookieSecure: c.SessionCookieSecure,
		SessionMaxAge:       c.AccessTokenValidityDuration,
		MaxUploadBytes:      c.MaxUploadBytes,
	})

	health := gs.NewHealthServer(c.GRPCHealthAddr, logger)
	sched := maintenance.New(maintenance.Config{
		PurgeSchedule: c.PurgeSchedule,
		ProbeInterval: c.HealthProbeInterval,
		LimiterIdle:   limiterIdle,
	}, maintenance.Jobs{
		Tokens:   users,
		Limiter:  limiter,
		DB:       db,
		Health:   health,
		Recorder: mx,
	}, logger)

	return &App{
		config: c,
		logger: logger.With("module", "app"),
		db:     db,
		runner: runner,
		httpServer: &http.Server{
			Addr:              c.HTTPAddr,
			Handler:           api.Router(),
			ReadHeaderTimeout: 10 * time.Second,
		},
		health:      health,
		maintenance: sched,
	}, nil
}

// Run serves until SIGINT/SIGTERM or a server failure, then shuts
// everything down in order: HTTP, gRPC, scheduler, background tasks, db.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app.logger.Info(ctx, "Starting app...", "http", app.config.HTTPAddr, "grpc", app.config.GRPCHealthAddr)

	if err := app.maintenance.Start(ctx); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return app.health.Run(gctx)
	})

	g.Go(func() error {
		err := app.httpServer.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-gctx.Done()
		app.logger.Info(ctx, "Stopping HTTP server...")
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return app.httpServer.Shutdown(sctx)
	})

	runErr := g.Wait()

	<-app.maintenance.Stop().Done()

	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := app.runner.Wait(wctx); err != nil {
		app.logger.Warn(ctx, "background tasks still running at exit", "error", err)
	}

	if err := app.db.Close(); err != nil {
		app.logger.Warn(ctx, "db close error", "error", err)
	}

	app.logger.Info(ctx, "Stopped")
	return runErr
}

package entrypoint

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/mrlokans/rustypages/internal/auth"
	"github.com/mrlokans/rustypages/internal/config"
	"github.com/mrlokans/rustypages/internal/database"
	"github.com/mrlokans/rustypages/internal/database/books"
	"github.com/mrlokans/rustypages/internal/database/positions"
	dbsettings "github.com/mrlokans/rustypages/internal/database/settings"
	"github.com/mrlokans/rustypages/internal/database/users"
	http_controllers "github.com/mrlokans/rustypages/internal/http"
	"github.com/mrlokans/rustypages/internal/locations"
	"github.com/mrlokans/rustypages/internal/logging"
	"github.com/mrlokans/rustypages/internal/scheduler"
	"github.com/mrlokans/rustypages/internal/services"
	"github.com/mrlokans/rustypages/internal/settings"
	"github.com/mrlokans/rustypages/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// WithCORS wraps handler with the configured cross-origin policy. The web
// reader is served from a different origin than the API.
func WithCORS(handler http.Handler, origins []string) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", http_controllers.RequestIDHeader},
		ExposedHeaders:   []string{http_controllers.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	})(handler)
}

// Serve runs handler until SIGINT or SIGTERM, then shuts down within the
// configured timeout.
func Serve(handler http.Handler, cfg *config.Config, log *zap.Logger, onShutdown ShutdownFunc) error {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second
	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("starting server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errc:
		return fmt.Errorf("listen: %w", err)
	case sig := <-quit:
		log.Info("shutting down server", zap.String("signal", sig.String()), zap.Duration("timeout", timeout))
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop background work first so nothing writes after the listener closes.
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	log.Info("server exiting")
	return nil
}

// Run wires the sync backend and serves it.
func Run(cfg *config.Config, version string) error {
	log := logging.New(cfg.Log)
	defer func() { _ = log.Sync() }()

	log.Info("starting rustypages", zap.String("version", version))

	db, err := database.NewDatabase(cfg.Database.Path, log)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Warn("error closing database", zap.Error(err))
		}
	}()

	authService, err := auth.NewService(users.NewRepository(db.DB), cfg.Auth, log)
	if err != nil {
		return fmt.Errorf("failed to initialize authentication: %w", err)
	}
	rateLimiter := auth.NewRateLimiter(auth.RateLimitConfig{
		Limit:          cfg.Auth.RequestsPerWindow,
		WindowDuration: cfg.Auth.RequestWindow,
	})

	bookRepo := books.NewRepository(db.DB)
	positionRepo := positions.NewRepository(db.DB)
	settingsStore := settings.New(dbsettings.NewRepository(db.DB))

	cache, err := locations.NewCache(cfg.Locations.CacheSize)
	if err != nil {
		return fmt.Errorf("failed to initialize locations cache: %w", err)
	}
	locationService := services.NewLocationService(bookRepo, cache, cfg.Locations.ChunkSize, log)

	routerCfg := http_controllers.RouterConfig{
		Database:          db,
		Books:             bookRepo,
		Positions:         positionRepo,
		Settings:          settingsStore,
		LocationGenerator: locationService,
		HealthChecks:      map[string]http_controllers.Pinger{},
		AuthService:       authService,
		AuthMiddleware:    auth.NewMiddleware(authService),
		RateLimiter:       rateLimiter,
		Version:           version,
		Log:               log,
	}

	var (
		taskClient    *tasks.Client
		taskCtxCancel context.CancelFunc
		sweep         *scheduler.LocationSweepScheduler
	)
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Database.Path, tasks.FromConfig(cfg.Tasks), log)
		if err != nil {
			return fmt.Errorf("failed to initialize task queue: %w", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Warn("error closing task client", zap.Error(err))
			}
		}()

		taskClient.Register(
			tasks.NewGenerateLocationsQueue(locationService, log),
			tasks.NewGenerateMissingLocationsQueue(locationService, log),
		)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)

		routerCfg.LocationQueue = taskClient
		routerCfg.HealthChecks["tasks"] = http_controllers.PingFunc(taskClient.DB().Ping)

		if cfg.Locations.SweepEnabled {
			sweep = scheduler.NewLocationSweepScheduler(taskClient, cfg.Locations.SweepSchedule, log)
			if err := sweep.Start(taskCtx); err != nil {
				log.Warn("locations sweep disabled", zap.Error(err))
				sweep = nil
			}
		}
	} else {
		log.Info("task queue disabled, locations are generated inline")
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		if sweep != nil {
			sweep.Stop()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
		rateLimiter.Stop()
	}

	return Serve(WithCORS(router, cfg.CORS.AllowedOrigins), cfg, log, onShutdown)
}

package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"builder-maps/internal/api"
	"builder-maps/internal/auth"
	"builder-maps/internal/dedupe"
	"builder-maps/internal/geocode"
	"builder-maps/internal/infrastructure/repository"
	"builder-maps/internal/prompts"
	"builder-maps/internal/screening"
	"builder-maps/internal/spots"
	"builder-maps/pkg/circuit"
	"builder-maps/pkg/config"
	"builder-maps/pkg/database"
	"builder-maps/pkg/health"
	"builder-maps/pkg/logging"
	"builder-maps/pkg/metrics"
	"builder-maps/pkg/monitoring"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration: ", err)
	}

	logger, err := logging.NewLogger(logging.LogConfig{
		Level:  logging.ParseLevel(cfg.LogLevel),
		Format: cfg.LogFormat,
		Output: cfg.LogOutput,
	})
	if err != nil {
		log.Fatal("logger init: ", err)
	}
	defer logger.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.NewWithConfig(cfg)
	if err != nil {
		logger.Error(ctx, "database connection failed", err)
		os.Exit(1)
	}
	defer db.Close()

	if cfg.DBAutoMigrate {
		if err := db.Migrate(ctx); err != nil {
			logger.Error(ctx, "schema migration failed", err)
			os.Exit(1)
		}
		logger.Info(ctx, "schema migrations applied")
	}

	svc, err := buildService(cfg, db, logger)
	if err != nil {
		logger.Error(ctx, "service init failed", err)
		os.Exit(1)
	}

	admins := auth.NewAdminResolver(cfg.AdminsYAMLPath, logger)

	hm := health.NewManager(3 * time.Second)
	hm.Register(health.NewDatabaseChecker("database", db), true)
	hm.Register(health.NewFuncChecker("admins", func(context.Context) error {
		if !admins.IsLoaded() {
			return errors.New("admin map not loaded")
		}
		return nil
	}), false)

	router := api.NewRouter(api.RouterDeps{
		Spots:  svc,
		Admins: admins,
		Health: hm,
		Logger: logger,
	})
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	var debugServer *http.Server
	if cfg.DebugPort != "" {
		monitoring.EnableProfiling(cfg.ProfilingEnabled)
		debugServer = &http.Server{
			Addr:              ":" + cfg.DebugPort,
			Handler:           monitoring.NewDebugMux(metrics.Default, cfg.ProfilingEnabled),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			logger.Info(ctx, "debug server starting", logging.String("port", cfg.DebugPort), logging.Bool("pprof", cfg.ProfilingEnabled))
			if err := debugServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error(ctx, "debug HTTP server error", err)
			}
		}()
	}

	// SIGHUP reloads the admin map, SIGINT/SIGTERM stop the server
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
		for sig := range sigChan {
			if sig == syscall.SIGHUP {
				if err := admins.Reload(); err != nil {
					logger.Warn(ctx, "admin map reload failed", logging.String("error", err.Error()))
				}
				continue
			}
			logger.Info(ctx, "received shutdown signal, initiating graceful shutdown", logging.String("signal", sig.String()))
			cancel()
			return
		}
	}()

	go func() {
		logger.Info(ctx, "server starting", logging.String("port", cfg.Port), logging.String("env", cfg.Env))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "HTTP server error", err)
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "HTTP server shutdown error", err)
	}
	if debugServer != nil {
		if err := debugServer.Shutdown(shutdownCtx); err != nil {
			logger.Error(shutdownCtx, "debug HTTP server shutdown error", err)
		}
	}
	logger.Info(shutdownCtx, "application shutdown complete")
}

// buildService wires the spot service. The geocoder and screener are skipped
// when their API keys are missing.
func buildService(cfg *config.Config, db *database.DB, logger *logging.Logger) (*spots.Service, error) {
	deps := spots.Deps{
		Repo:   repository.NewSQLRepository(db),
		UoW:    repository.NewSQLUnitOfWorkFactory(db),
		Logger: logger,
		Dedupe: dedupe.Options{
			NameThreshold:     cfg.DuplicateNameThreshold,
			DistanceThreshold: cfg.DuplicateDistanceMeters,
		},
	}

	if cfg.GoogleMapsAPIKey != "" {
		g, err := geocode.NewGoogleGeocoder(cfg.GoogleMapsAPIKey, 10*time.Second)
		if err != nil {
			return nil, err
		}
		cb := circuit.New(circuit.Config{
			Name:              "google_geocode",
			OperationTimeout:  10 * time.Second,
			OpenFor:           30 * time.Second,
			MaxConsecFailures: 5,
		}, logger)
		deps.Geocoder = geocode.WithBreaker(g, cb)
	} else {
		logger.Warn(context.Background(), "GOOGLE_MAPS_API_KEY not set, nominations must carry coordinates")
	}

	if cfg.ScreeningEnabled {
		pm, err := prompts.NewManager(cfg.PromptDir)
		if err != nil {
			return nil, err
		}
		s := screening.NewOpenAIScreener(cfg.OpenAIAPIKey, cfg.OpenAIModel, pm, cfg.OpenAITimeout)
		cb := circuit.New(circuit.Config{
			Name:              "openai_screening",
			OperationTimeout:  cfg.OpenAITimeout,
			OpenFor:           time.Minute,
			MaxConsecFailures: 3,
		}, logger)
		deps.Screener = screening.WithBreaker(s, cb)
	}

	return spots.NewService(deps), nil
}

package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/gymcore/license-server/api/routes"
	"github.com/gymcore/license-server/internal/activation"
	"github.com/gymcore/license-server/internal/admin"
	"github.com/gymcore/license-server/internal/manifest"
	"github.com/gymcore/license-server/internal/registry"
	"github.com/gymcore/license-server/internal/vendor"
	"github.com/gymcore/license-server/pkg/config"
	"github.com/gymcore/license-server/pkg/db"
	"github.com/gymcore/license-server/pkg/logger"
	"github.com/gymcore/license-server/pkg/metrics"
	"github.com/gymcore/license-server/pkg/migrate"
	"github.com/gymcore/license-server/pkg/redis"
	"github.com/gymcore/license-server/pkg/signing"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	signer, err := signing.New(cfg.Signing.ResponseSecret)
	if err != nil {
		logg.Error(context.Background(), "failed to create response signer", err)
		os.Exit(1)
	}

	store := registry.NewRepository(dbClient.DB())
	admins := admin.NewRepository(dbClient.DB())
	profiles := vendor.NewRepository(dbClient.DB())

	activationService, err := activation.NewService(store, logg, cfg.Validation)
	if err != nil {
		logg.Error(context.Background(), "failed to create activation service", err)
		os.Exit(1)
	}

	adminService, err := admin.NewService(store, admins, logg, cfg.JWT, cfg.Password, cfg.Validation)
	if err != nil {
		logg.Error(context.Background(), "failed to create admin service", err)
		os.Exit(1)
	}

	vendorService, err := vendor.NewService(profiles, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create vendor service", err)
		os.Exit(1)
	}

	publisher, err := manifest.NewPublisher(cfg.Manifest.Dir, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create manifest publisher", err)
		os.Exit(1)
	}

	promRegistry := prometheus.NewRegistry()
	apiMetrics := metrics.NewAPIMetrics(promRegistry)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting license server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:     cfg,
			Logger:     logg,
			DB:         dbClient,
			Redis:      redisClient,
			Signer:     signer,
			Metrics:    apiMetrics,
			Gatherer:   promRegistry,
			Activation: activationService,
			Admin:      adminService,
			Vendor:     vendorService,
			Manifest:   publisher,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "license server stopped unexpectedly", err)
		os.Exit(1)
	}
}

package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/teelab/storefront/api/routes"
	"github.com/teelab/storefront/internal/analytics"
	"github.com/teelab/storefront/internal/assets"
	"github.com/teelab/storefront/internal/cart"
	"github.com/teelab/storefront/internal/designs"
	"github.com/teelab/storefront/internal/orders"
	"github.com/teelab/storefront/internal/payments"
	"github.com/teelab/storefront/internal/payouts"
	"github.com/teelab/storefront/internal/profiles"
	"github.com/teelab/storefront/pkg/config"
	"github.com/teelab/storefront/pkg/db"
	"github.com/teelab/storefront/pkg/events"
	"github.com/teelab/storefront/pkg/kvstore"
	"github.com/teelab/storefront/pkg/logger"
	"github.com/teelab/storefront/pkg/metrics"
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

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	storeMetrics := metrics.NewStoreMetrics(registry)

	kv, err := kvstore.New(dbClient, cfg.Storage.QuotaBytes, logg, storeMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create key/value store", err)
		os.Exit(1)
	}
	if cfg.FeatureFlags.AutoMigrate {
		if err := kv.AutoMigrate(); err != nil {
			logg.Error(context.Background(), "failed to migrate storage schema", err)
			os.Exit(1)
		}
	}

	bus := events.NewBus(logg, storeMetrics)
	if cfg.Redis.Enabled() {
		bridge, err := events.NewBridge(context.Background(), cfg.Redis, bus, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap event bridge", err)
			os.Exit(1)
		}
		defer func() {
			if err := bridge.Close(); err != nil {
				logg.Error(context.Background(), "error closing event bridge", err)
			}
		}()
		bridge.Start(context.Background())
	}

	assetStore, err := assets.NewStore(kv, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create asset store", err)
		os.Exit(1)
	}

	cartService, err := cart.NewService(cart.ServiceParams{
		KV:      kv,
		Bus:     bus,
		Pricing: cfg.Pricing,
		Logger:  logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	orderService, err := orders.NewService(orders.ServiceParams{
		KV:     kv,
		Bus:    bus,
		Cart:   cartService,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	designService, err := designs.NewService(designs.ServiceParams{
		KV:      kv,
		Bus:     bus,
		Assets:  assetStore,
		Storage: cfg.Storage,
		Logger:  logg,
		Metrics: storeMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create design service", err)
		os.Exit(1)
	}

	payoutEngine, err := payouts.NewEngine(payouts.EngineParams{
		KV:      kv,
		Bus:     bus,
		Orders:  orderService,
		Designs: designService,
		Pricing: cfg.Pricing,
		Logger:  logg,
		Metrics: storeMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payout engine", err)
		os.Exit(1)
	}

	profileService, err := profiles.NewService(profiles.ServiceParams{
		KV:     kv,
		Bus:    bus,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create profile service", err)
		os.Exit(1)
	}

	analyticsService, err := analytics.NewService(orderService, cfg.Pricing)
	if err != nil {
		logg.Error(context.Background(), "failed to create analytics service", err)
		os.Exit(1)
	}

	gateway, err := payments.NewGateway(payments.GatewayParams{
		Orders:  orderService,
		Payouts: payoutEngine,
		Logger:  logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payment gateway", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	metricsHandler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			metricsHandler,
			cartService,
			orderService,
			designService,
			payoutEngine,
			profileService,
			analyticsService,
			assetStore,
			gateway,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/angelmondragon/storefront/api/routes"
	"github.com/angelmondragon/storefront/internal/account"
	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/catalog"
	"github.com/angelmondragon/storefront/internal/catalog/upstream"
	"github.com/angelmondragon/storefront/pkg/auth/session"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
	"github.com/angelmondragon/storefront/pkg/redis"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout   = 15 * time.Second
	cartSweepInterval = 5 * time.Minute
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "storefront-api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "storefront-api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) error {
	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	catalogMetrics := metrics.NewCatalogMetrics(registry)
	cartMetrics := metrics.NewCartMetrics(registry)

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return err
	}

	catalogClient, err := upstream.NewClient(cfg.Catalog, upstream.WithMetrics(catalogMetrics))
	if err != nil {
		return err
	}
	snapshotCache, err := catalog.NewRedisSnapshotCache(redisClient, cfg.Catalog.StaleTTL)
	if err != nil {
		return err
	}
	catalogService, err := catalog.NewService(catalog.ServiceParams{
		Source:   catalogClient,
		Cache:    snapshotCache,
		FreshTTL: cfg.Catalog.FreshTTL,
		StaleTTL: cfg.Catalog.StaleTTL,
		Logger:   logg,
		Metrics:  catalogMetrics,
	})
	if err != nil {
		return err
	}

	policy, err := cart.PricingPolicyFromConfig(cfg.Pricing)
	if err != nil {
		return err
	}
	cartRegistry := cart.NewRegistry(policy, cart.WithIdleTTL(cfg.JWT.TTL()))
	cartService, err := cart.NewService(cart.ServiceParams{
		Registry: cartRegistry,
		Products: catalogService,
		Logger:   logg,
		Metrics:  cartMetrics,
	})
	if err != nil {
		return err
	}

	accountClient, err := account.NewClient(cfg.Account)
	if err != nil {
		return err
	}
	accountService, err := account.NewService(account.ServiceParams{
		Gateway:  accountClient,
		Sessions: sessionManager,
		Tickets:  redisClient,
		Carts:    cartService,
		JWT:      cfg.JWT,
		Hash:     cfg.Hash,
		Recovery: cfg.Recovery,
		Logger:   logg,
	})
	if err != nil {
		return err
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Params{
			Config:     cfg,
			Logger:     logg,
			Redis:      redisClient,
			RateLimits: redisClient,
			Sessions:   sessionManager,
			Catalog:    catalogService,
			Cart:       cartService,
			Accounts:   accountService,
			Gatherer:   registry,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logCtx := logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "addr": addr})
	logg.Info(logCtx, "starting api server")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		if _, err := catalogService.Snapshot(gctx); err != nil {
			logg.Warn(logCtx, "catalog warmup failed, serving on demand")
		}
		return nil
	})
	g.Go(func() error {
		cartRegistry.Run(gctx, cartSweepInterval, func(evicted int) {
			logg.Info(logg.WithField(logCtx, "evicted", evicted), "cart.idle_sessions_swept")
		})
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logg.Info(logCtx, "shutting down api server")
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

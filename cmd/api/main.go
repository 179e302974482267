package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/staffstore-backend/api"
	"github.com/angelmondragon/staffstore-backend/api/routes"
	"github.com/angelmondragon/staffstore-backend/internal/admin"
	"github.com/angelmondragon/staffstore-backend/internal/catalog"
	"github.com/angelmondragon/staffstore-backend/internal/ledger"
	"github.com/angelmondragon/staffstore-backend/internal/notifications"
	"github.com/angelmondragon/staffstore-backend/internal/orders"
	"github.com/angelmondragon/staffstore-backend/pkg/config"
	"github.com/angelmondragon/staffstore-backend/pkg/db"
	"github.com/angelmondragon/staffstore-backend/pkg/instance"
	"github.com/angelmondragon/staffstore-backend/pkg/logger"
	"github.com/angelmondragon/staffstore-backend/pkg/metrics"
	"github.com/angelmondragon/staffstore-backend/pkg/migrate"
	"github.com/angelmondragon/staffstore-backend/pkg/pubsub"
	pkgredis "github.com/angelmondragon/staffstore-backend/pkg/redis"
)

const shutdownGrace = 15 * time.Second

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(context.Background(), "api server shut down gracefully")
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	var closers []func() error
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			err = multierr.Append(err, closers[i]())
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	orderMetrics := metrics.NewOrderMetrics(reg)

	// The store connects on first use so the server comes up even when the
	// database is down; requests fail with "Database not connected" until it is reachable.
	store := db.NewLazy(
		func(ctx context.Context) (*db.Client, error) {
			return db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
		},
		func(ctx context.Context, c *db.Client) error {
			return migrate.Prepare(ctx, cfg, logg, c)
		},
		func(ctx context.Context, c *db.Client) error {
			if !cfg.FeatureFlags.SeedCatalog {
				return nil
			}
			if _, err := catalog.Seed(ctx, catalog.NewRepository(c), catalog.DefaultProducts(), logg); err != nil {
				logg.Error(ctx, "catalog.seed_failed", err)
			}
			return nil
		},
	)
	closers = append(closers, store.Close)

	var (
		rateLimiter pkgredis.RateLimiter
		idempotency pkgredis.IdempotencyStore
	)
	if cfg.Redis.Enabled() {
		redisClient, redisErr := pkgredis.New(ctx, cfg.Redis, logg)
		if redisErr != nil {
			logg.Error(ctx, "redis unavailable, login rate limit and idempotency disabled", redisErr)
		} else {
			closers = append(closers, redisClient.Close)
			rateLimiter = redisClient
			idempotency = redisClient
		}
	}

	var publisher notifications.EventPublisher
	if cfg.PubSub.Enabled(cfg.GCP) {
		pubsubClient, pubsubErr := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
		if pubsubErr != nil {
			logg.Error(ctx, "pubsub unavailable, order events disabled", pubsubErr)
		} else {
			orderEvents := notifications.NewPubSubPublisher(pubsubClient.OrdersPublisher())
			closers = append(closers, pubsubClient.Close, func() error {
				orderEvents.Stop()
				return nil
			})
			publisher = orderEvents
		}
	}

	mailer := notifications.NewMailer(cfg.Mail)
	notifier, err := notifications.NewNotifier(notifications.Options{
		Sender:    mailer,
		Publisher: publisher,
		From:      cfg.Mail.Sender(),
		To:        cfg.Mail.NotifyTo,
		Logger:    logg,
		Recorder:  orderMetrics,
	})
	if err != nil {
		return fmt.Errorf("building notifier: %w", err)
	}
	closers = append(closers, func() error {
		notifier.Wait()
		return nil
	})
	if !mailer.Configured() {
		logg.Warn(ctx, "smtp not configured, order emails disabled")
	}

	catalogRepo := catalog.NewRepository(store)
	catalogSvc, err := catalog.NewService(catalogRepo, logg, orderMetrics)
	if err != nil {
		return fmt.Errorf("building catalog service: %w", err)
	}
	ledgerSvc, err := ledger.NewService(ledger.NewRepository(store))
	if err != nil {
		return fmt.Errorf("building ledger service: %w", err)
	}
	ordersSvc, err := orders.NewService(orders.Deps{
		Catalog:  catalogRepo,
		Ledger:   ledgerSvc,
		Tx:       store,
		Notifier: notifier,
		Metrics:  orderMetrics,
		Logger:   logg,
	})
	if err != nil {
		return fmt.Errorf("building order service: %w", err)
	}
	adminSvc, err := admin.NewService(cfg.Admin, cfg.Password, logg)
	if err != nil {
		return fmt.Errorf("building admin service: %w", err)
	}
	if !adminSvc.Enabled() {
		logg.Warn(ctx, "admin password not set, admin routes will reject every request")
	}

	handler := routes.NewRouter(routes.Deps{
		Config:      cfg,
		Logger:      logg,
		Store:       store,
		Mail:        notifier,
		Catalog:     catalogSvc,
		Orders:      ordersSvc,
		Ledger:      ledgerSvc,
		Admin:       adminSvc,
		RateLimiter: rateLimiter,
		Idempotency: idempotency,
		Gatherer:    reg,
		HTTPMetrics: metrics.NewHTTPMetrics(reg),
	})

	addr := ":" + cfg.App.Port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.ID(),
		"sqlite":   cfg.FeatureFlags.UseSQLite,
	})
	logg.Info(logCtx, "starting api server")

	return api.Serve(ctx, api.NewServer(addr, handler), shutdownGrace, logg)
}

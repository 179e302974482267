package main

import (
	"context"
	"flag"
	"os"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/staffstore-backend/internal/catalog"
	"github.com/angelmondragon/staffstore-backend/pkg/config"
	"github.com/angelmondragon/staffstore-backend/pkg/db"
	"github.com/angelmondragon/staffstore-backend/pkg/logger"
	"github.com/angelmondragon/staffstore-backend/pkg/migrate"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "seed"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	skipMigrate := flag.Bool("skip-migrate", false, "seed without preparing the schema first")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "seed",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := logg.WithField(context.Background(), "env", cfg.App.Env)

	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	if !*skipMigrate {
		// The seed command always brings the schema up, whatever the auto-migrate flag says.
		prepCfg := *cfg
		prepCfg.FeatureFlags.AutoMigrate = true
		if err := migrate.Prepare(ctx, &prepCfg, logg, dbClient); err != nil {
			logg.Error(ctx, "failed to prepare schema", err)
			os.Exit(1)
		}
	}

	inserted, err := catalog.Seed(ctx, catalog.NewRepository(dbClient), catalog.DefaultProducts(), logg)
	if err != nil {
		logg.Error(ctx, "failed to seed catalog", err)
		os.Exit(1)
	}
	if inserted == 0 {
		logg.Info(ctx, "catalog already populated, nothing to seed")
		return
	}
	logg.Info(logg.WithField(ctx, "products", inserted), "catalog seeded")
}

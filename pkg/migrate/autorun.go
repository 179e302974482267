package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/staffstore-backend/pkg/config"
	"github.com/angelmondragon/staffstore-backend/pkg/db"
	"github.com/angelmondragon/staffstore-backend/pkg/db/models"
	"github.com/angelmondragon/staffstore-backend/pkg/logger"
)

// Prepare brings the schema up to date on connect. sqlite databases are
// always auto-migrated from the models; Postgres runs the embedded goose
// migrations only when the auto-migrate flag is set.
func Prepare(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if client.Driver() == db.DriverSQLite {
		if err := AutoMigrateModels(client); err != nil {
			return err
		}
		logg.Info(ctx, "sqlite schema auto-migrated")
		return nil
	}

	if !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "source": "embedded"})
	logg.Info(ctx, "running goose migrations (auto-run)")

	runner, err := NewRunner(sqlDB, nil)
	if err != nil {
		return err
	}
	steps, err := runner.Up(ctx)
	if err != nil {
		return err
	}

	logg.Info(logg.WithField(ctx, "applied", len(steps)), "goose migrations completed")
	return nil
}

// AutoMigrateModels creates or updates the tables backing the storefront models.
func AutoMigrateModels(client *db.Client) error {
	if err := client.DB().AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto-migrating models: %w", err)
	}
	return nil
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/staffstore-backend/pkg/config"
	"github.com/angelmondragon/staffstore-backend/pkg/db"
	"github.com/angelmondragon/staffstore-backend/pkg/logger"
	"github.com/angelmondragon/staffstore-backend/pkg/migrate"
)

const usage = `usage: migrate [-dir path] <command> [arg]

commands:
  up              apply all pending migrations
  down            roll back the latest migration
  status          list migrations and whether they are applied
  version         print the current schema version
  to <version>    migrate up or down to version (YYYYMMDDHHMMSS)
  create <name>   write an empty SQL migration into -dir
  validate        check filenames and goose annotations in -dir
`

func main() {
	logg := logger.New(logger.Options{ServiceName: "migrate"})
	_ = godotenv.Load()

	dir := flag.String("dir", "", "migrations directory; database commands use the embedded set when empty")
	flag.Usage = func() { fmt.Fprint(flag.CommandLine.Output(), usage) }
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}
	cmd, args := flag.Arg(0), flag.Args()[1:]

	if err := run(context.Background(), logg, cmd, args, *dir); err != nil {
		logg.Error(logg.WithField(context.Background(), "cmd", cmd), "migrate failed", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logg *logger.Logger, cmd string, args []string, dir string) error {
	switch cmd {
	case "create":
		if len(args) != 1 {
			return errors.New("create needs exactly one name")
		}
		path, err := migrate.CreateSQLMigration(orDefault(dir), args[0])
		if err != nil {
			return err
		}
		fmt.Println("created migration:", path)
		return nil
	case "validate":
		if err := migrate.ValidateDir(orDefault(dir)); err != nil {
			return err
		}
		fmt.Println("migrations valid")
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "cmd": cmd})

	client, err := db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer client.Close()

	// The SQL files target Postgres; a sqlite database is built from the models.
	if client.Driver() == db.DriverSQLite {
		if cmd != "up" {
			return fmt.Errorf("%q is not supported for sqlite, only up", cmd)
		}
		if err := migrate.AutoMigrateModels(client); err != nil {
			return err
		}
		logg.Info(ctx, "sqlite schema auto-migrated")
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extract sql.DB: %w", err)
	}
	var source fs.FS
	if dir != "" {
		source = os.DirFS(dir)
	}
	runner, err := migrate.NewRunner(sqlDB, source)
	if err != nil {
		return err
	}

	var steps []migrate.Step
	switch cmd {
	case "up":
		steps, err = runner.Up(ctx)
	case "down":
		steps, err = runner.Down(ctx)
	case "to":
		if len(args) != 1 {
			return errors.New("to needs a target version")
		}
		target, parseErr := strconv.ParseInt(args[0], 10, 64)
		if parseErr != nil {
			return fmt.Errorf("invalid version %q: %w", args[0], parseErr)
		}
		steps, err = runner.To(ctx, target)
	case "status":
		steps, err = runner.Status(ctx)
	case "version":
		v, vErr := runner.Version(ctx)
		if vErr != nil {
			return vErr
		}
		fmt.Println(v)
		return nil
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	if err != nil {
		return err
	}

	printSteps(steps)
	logg.Info(logg.WithField(ctx, "steps", len(steps)), "migrate done")
	return nil
}

func orDefault(dir string) string {
	if dir == "" {
		return migrate.DefaultDir
	}
	return dir
}

func printSteps(steps []migrate.Step) {
	if len(steps) == 0 {
		fmt.Println("nothing to do")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer w.Flush()
	for _, s := range steps {
		label := s.Direction
		if label == "" {
			label = s.State
		}
		applied := "-"
		if !s.AppliedAt.IsZero() {
			applied = s.AppliedAt.UTC().Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", s.Version, label, applied, s.Path)
	}
}

package migrate

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/database"
)

// DefaultDir is where `create` and `validate` look when no directory is given.
const DefaultDir = "pkg/migrate/migrations"

//go:embed migrations/*.sql
var embedded embed.FS

// EmbeddedFS returns the migrations compiled into the binary.
func EmbeddedFS() fs.FS {
	sub, err := fs.Sub(embedded, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// Step is one migration as reported by a runner command.
type Step struct {
	Version   int64
	Path      string
	Direction string
	State     string
	AppliedAt time.Time
	Duration  time.Duration
}

// Runner applies the Postgres migrations in one source. The SQL targets
// Postgres only; sqlite schemas come from AutoMigrateModels.
type Runner struct {
	provider *goose.Provider
}

// NewRunner builds a runner over fsys, or over the embedded migrations when fsys is nil.
func NewRunner(db *sql.DB, fsys fs.FS) (*Runner, error) {
	if db == nil {
		return nil, errors.New("db is required")
	}
	if fsys == nil {
		fsys = EmbeddedFS()
	}
	provider, err := goose.NewProvider(database.DialectPostgres, db, fsys)
	if err != nil {
		return nil, fmt.Errorf("goose provider: %w", err)
	}
	return &Runner{provider: provider}, nil
}

func (r *Runner) Up(ctx context.Context) ([]Step, error) {
	results, err := r.provider.Up(ctx)
	if err != nil {
		return nil, fmt.Errorf("goose up: %w", err)
	}
	return fromResults(results), nil
}

// Down rolls back the most recent migration.
func (r *Runner) Down(ctx context.Context) ([]Step, error) {
	result, err := r.provider.Down(ctx)
	if err != nil {
		return nil, fmt.Errorf("goose down: %w", err)
	}
	return fromResults([]*goose.MigrationResult{result}), nil
}

// To migrates up or down until target is the current version.
func (r *Runner) To(ctx context.Context, target int64) ([]Step, error) {
	current, err := r.Version(ctx)
	if err != nil {
		return nil, err
	}

	var results []*goose.MigrationResult
	switch {
	case current == target:
		return nil, nil
	case current < target:
		results, err = r.provider.UpTo(ctx, target)
	default:
		results, err = r.provider.DownTo(ctx, target)
	}
	if err != nil {
		return nil, fmt.Errorf("goose migrate to %d: %w", target, err)
	}
	return fromResults(results), nil
}

func (r *Runner) Status(ctx context.Context) ([]Step, error) {
	statuses, err := r.provider.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("goose status: %w", err)
	}
	steps := make([]Step, 0, len(statuses))
	for _, s := range statuses {
		step := Step{State: string(s.State), AppliedAt: s.AppliedAt}
		if s.Source != nil {
			step.Version = s.Source.Version
			step.Path = s.Source.Path
		}
		steps = append(steps, step)
	}
	return steps, nil
}

func (r *Runner) Version(ctx context.Context) (int64, error) {
	v, err := r.provider.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("goose version: %w", err)
	}
	return v, nil
}

func fromResults(results []*goose.MigrationResult) []Step {
	steps := make([]Step, 0, len(results))
	for _, res := range results {
		if res == nil {
			continue
		}
		step := Step{Direction: res.Direction, Duration: res.Duration}
		if res.Source != nil {
			step.Version = res.Source.Version
			step.Path = res.Source.Path
		}
		steps = append(steps, step)
	}
	return steps
}

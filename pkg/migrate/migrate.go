package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"strconv"

	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/lock"

	"github.com/angelmondragon/forno-backend/pkg/logger"
)

const DefaultDir = "pkg/migrate/migrations"

// Embedded ships the SQL migrations inside the binary so deployed services do not depend
// on the source tree layout.
//
//go:embed migrations/*.sql
var Embedded embed.FS

// EmbeddedFS returns the compiled-in migrations rooted at the SQL files.
func EmbeddedFS() fs.FS {
	sub, err := fs.Sub(Embedded, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// newProvider builds a goose provider that holds a Postgres advisory lock while
// it migrates, so two instances booting together do not race.
func newProvider(db *sql.DB, source fs.FS) (*goose.Provider, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	if source == nil {
		return nil, fmt.Errorf("migration source is required")
	}
	locker, err := lock.NewPostgresSessionLocker()
	if err != nil {
		return nil, fmt.Errorf("migration locker: %w", err)
	}
	provider, err := goose.NewProvider(goose.DialectPostgres, db, source, goose.WithSessionLocker(locker))
	if err != nil {
		return nil, fmt.Errorf("goose provider: %w", err)
	}
	return provider, nil
}

// Run executes up, down or status against source. The provider does not own db;
// closing it is the caller's job.
func Run(ctx context.Context, db *sql.DB, source fs.FS, command string, logg *logger.Logger) error {
	if logg == nil {
		logg = logger.Nop()
	}
	provider, err := newProvider(db, source)
	if err != nil {
		return err
	}

	switch command {
	case "up":
		results, err := provider.Up(ctx)
		logResults(ctx, logg, results)
		if err != nil {
			return fmt.Errorf("goose up: %w", err)
		}
	case "down":
		result, err := provider.Down(ctx)
		if result != nil {
			logResults(ctx, logg, []*goose.MigrationResult{result})
		}
		if err != nil {
			return fmt.Errorf("goose down: %w", err)
		}
	case "status":
		statuses, err := provider.Status(ctx)
		if err != nil {
			return fmt.Errorf("goose status: %w", err)
		}
		for _, st := range statuses {
			fields := map[string]any{"version": st.Source.Version, "file": st.Source.Path, "state": string(st.State)}
			if !st.AppliedAt.IsZero() {
				fields["applied_at"] = st.AppliedAt
			}
			logg.Info(logg.WithFields(ctx, fields), "migration status")
		}
	default:
		return fmt.Errorf("unsupported migrate command %q", command)
	}
	return nil
}

// MigrateToVersion moves the schema up or down until targetVersion is the latest applied.
func MigrateToVersion(ctx context.Context, db *sql.DB, source fs.FS, targetVersion string, logg *logger.Logger) error {
	target, err := strconv.ParseInt(targetVersion, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS): %w", targetVersion, err)
	}
	provider, err := newProvider(db, source)
	if err != nil {
		return err
	}

	current, err := provider.GetDBVersion(ctx)
	if err != nil {
		return fmt.Errorf("get db version: %w", err)
	}
	var results []*goose.MigrationResult
	switch {
	case current == target:
		return nil
	case current < target:
		results, err = provider.UpTo(ctx, target)
	default:
		results, err = provider.DownTo(ctx, target)
	}
	logResults(ctx, logg, results)
	if err != nil {
		return fmt.Errorf("migrate %d -> %d: %w", current, target, err)
	}
	return nil
}

func logResults(ctx context.Context, logg *logger.Logger, results []*goose.MigrationResult) {
	if logg == nil {
		logg = logger.Nop()
	}
	for _, r := range results {
		if r == nil || r.Source == nil {
			continue
		}
		fields := map[string]any{
			"version":   r.Source.Version,
			"file":      r.Source.Path,
			"direction": r.Direction,
			"duration":  r.Duration.String(),
		}
		if r.Error != nil {
			logg.Error(logg.WithFields(ctx, fields), "migration failed", r.Error)
			continue
		}
		logg.Info(logg.WithFields(ctx, fields), "migration applied")
	}
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/angelmondragon/forno-backend/internal/catalog"
	"github.com/angelmondragon/forno-backend/internal/delivery"
	"github.com/angelmondragon/forno-backend/pkg/config"
	"github.com/angelmondragon/forno-backend/pkg/db"
	"github.com/angelmondragon/forno-backend/pkg/logger"
	"github.com/angelmondragon/forno-backend/pkg/migrate"
)

const serviceKind = "migrate"

type options struct {
	cmd     string
	dir     string
	name    string
	version string
	menu    string
	regions string
}

func main() {
	os.Exit(run())
}

func run() int {
	logg := logger.New(logger.Options{ServiceName: serviceKind})
	_ = godotenv.Load()

	opts := options{}
	flag.StringVar(&opts.cmd, "cmd", "up", "up|down|status|version|create|validate|seed")
	flag.StringVar(&opts.dir, "dir", migrate.DefaultDir, "goose migrations directory")
	flag.StringVar(&opts.name, "name", "", "migration name (create)")
	flag.StringVar(&opts.version, "version", "", "target version YYYYMMDDHHMMSS (version)")
	flag.StringVar(&opts.menu, "menu", "", "menu JSON to load (seed), defaults to FORNO_STORE_MENU_FILE")
	flag.StringVar(&opts.regions, "regions", "", "regions JSON to load (seed), defaults to FORNO_STORE_REGIONS_FILE")
	flag.Parse()

	// create and validate only touch the filesystem.
	switch opts.cmd {
	case "create":
		if opts.name == "" {
			fmt.Fprintln(os.Stderr, "missing -name for create")
			return 2
		}
		path, err := migrate.CreateSQLMigration(opts.dir, opts.name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "create migration: %v\n", err)
			return 1
		}
		fmt.Println("created migration:", path)
		return 0
	case "validate":
		if err := migrate.ValidateDir(opts.dir); err != nil {
			fmt.Fprintf(os.Stderr, "migration validation failed: %v\n", err)
			return 1
		}
		fmt.Println("migration validation passed")
		return 0
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		return 1
	}
	if cfg.FeatureFlags.OfflineMode {
		logg.Error(context.Background(), "migrate needs a database", errors.New("offline mode is enabled"))
		return 1
	}

	logg = logger.New(logger.Options{
		ServiceName: serviceKind,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env": cfg.App.Env,
		"cmd": opts.cmd,
		"dir": opts.dir,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		return 1
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	if err := execute(ctx, cfg, logg, dbClient, opts); err != nil {
		logg.Error(ctx, "migrate command failed", err)
		return 1
	}
	logg.Info(ctx, "migrate command complete")
	return 0
}

func execute(ctx context.Context, cfg *config.Config, logg *logger.Logger, dbClient *db.Client, opts options) error {
	if opts.cmd == "seed" {
		return seed(ctx, cfg, logg, dbClient, opts)
	}

	sqlDB, err := dbClient.DB().DB()
	if err != nil {
		return fmt.Errorf("sql database: %w", err)
	}
	source := os.DirFS(opts.dir)
	switch opts.cmd {
	case "up", "down", "status":
		return migrate.Run(ctx, sqlDB, source, opts.cmd, logg)
	case "version":
		if opts.version == "" {
			return errors.New("missing -version for version command")
		}
		return migrate.MigrateToVersion(ctx, sqlDB, source, opts.version, logg)
	default:
		return fmt.Errorf("unknown -cmd value %q", opts.cmd)
	}
}

// seed loads the menu and delivery regions from JSON into Postgres in one transaction.
func seed(ctx context.Context, cfg *config.Config, logg *logger.Logger, dbClient *db.Client, opts options) error {
	menuPath := firstNonEmpty(opts.menu, cfg.Store.MenuFile)
	regionsPath := firstNonEmpty(opts.regions, cfg.Store.RegionsFile)
	if menuPath == "" && regionsPath == "" {
		return errors.New("seed needs -menu or -regions")
	}

	var menu *catalog.Menu
	if menuPath != "" {
		m, err := catalog.ReadMenuFile(menuPath)
		if err != nil {
			return err
		}
		menu = &m
	}
	var regions []delivery.Region
	if regionsPath != "" {
		source, err := delivery.LoadFile(regionsPath)
		if err != nil {
			return err
		}
		if regions, err = source.ListActive(ctx); err != nil {
			return err
		}
	}

	return dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		if menu != nil {
			res, err := catalog.NewRepository(tx).SaveMenu(ctx, *menu)
			if err != nil {
				return err
			}
			logg.Info(logg.WithFields(ctx, map[string]any{
				"file":        menuPath,
				"categories":  res.Categories,
				"products":    res.Products,
				"deactivated": res.Deactivated,
			}), "menu seeded")
		}
		if regionsPath != "" {
			deactivated, err := delivery.NewRepository(tx).ReplaceActive(ctx, regions)
			if err != nil {
				return err
			}
			logg.Info(logg.WithFields(ctx, map[string]any{
				"file":        regionsPath,
				"regions":     len(regions),
				"deactivated": deactivated,
			}), "delivery regions seeded")
		}
		return nil
	})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

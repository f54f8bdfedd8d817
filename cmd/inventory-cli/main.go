// Package main provides the Inventory Engine CLI entrypoint.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/cache"
	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/config"
	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/inventory"
	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/observability"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "0.1.0"

// app carries state shared by every subcommand.
type app struct {
	cfgFile    string
	outputJSON bool
	noColor    bool
	verbose    bool

	cfg    *config.Config
	logger *observability.Logger
	ui     *UI
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "inventory-cli",
		Short: "Inventory Engine CLI for dealership inventory search and administration",
		Long: `Inventory Engine CLI browses the dealership inventory database.

Use this tool to:
- Apply migrations and seed demo inventory
- Inspect the reference catalog (makes, models, colors, locations)
- Run keyword, category and advanced searches
- Look up used vehicles by VIN and new models by name

All commands support --json for automation.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			a.cfg, err = config.Load(a.cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			level := "warn"
			if a.verbose {
				level = "debug"
			}
			a.logger = observability.NewLogger(observability.LogConfig{
				Level:       level,
				Format:      "console",
				Output:      cmd.ErrOrStderr(),
				ServiceName: "inventory-cli",
				NoColor:     a.noColor,
			})
			a.ui = NewUI(cmd.OutOrStdout(), cmd.ErrOrStderr(), a.outputJSON, a.noColor)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", os.Getenv("CONFIG_PATH"), "config file path (default: uses env vars)")
	rootCmd.PersistentFlags().BoolVar(&a.outputJSON, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable verbose output")

	rootCmd.AddCommand(
		a.newMigrateCmd(),
		a.newSeedCmd(),
		a.newCatalogCmd(),
		a.newSearchCmd(),
		a.newBasicCmd(),
		a.newCategoryCmd(),
		a.newStoresCmd(),
		a.newVehicleCmd(),
		a.newVersionCmd(),
	)
	return rootCmd
}

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openDatabase opens the configured database.
func (a *app) openDatabase(ctx context.Context) (*sql.DB, error) {
	db, err := inventory.OpenDatabase(ctx, a.cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

// session is an open database plus a service over it.
type session struct {
	db    *sql.DB
	cache cache.Client
	svc   *inventory.Service
}

func (s *session) Close() error {
	if s.cache != nil {
		s.cache.Close()
	}
	return s.db.Close()
}

// openSession wires a service. Results are never cached for one-shot
// commands, but a shared catalog still reads through the configured cache.
func (a *app) openSession(ctx context.Context) (*session, error) {
	db, err := a.openDatabase(ctx)
	if err != nil {
		return nil, err
	}

	cfg := *a.cfg
	cfg.Search.CacheResults = false

	var c cache.Client
	if cfg.Catalog.Shared {
		if c, err = inventory.NewCache(&cfg); err != nil {
			a.logger.Warn().Err(err).Msg("Cache unavailable, reading catalog from the database")
			c = nil
		}
	}

	return &session{db: db, cache: c, svc: inventory.FromConfig(&cfg, db, c, a.logger)}, nil
}

// loadCatalog initializes the catalog behind a spinner. Failure is reported
// but not fatal: searches then run with the catalog unavailable.
func (a *app) loadCatalog(ctx context.Context, svc *inventory.Service) bool {
	stop := a.ui.Spinner("Loading reference catalog...")
	err := svc.InitCatalog(ctx)
	stop()
	if err != nil {
		a.ui.Warning("Reference catalog unavailable: %v", err)
		return false
	}
	return true
}

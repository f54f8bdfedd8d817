package main

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/search"
	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/storage"
)

const commandTimeout = 2 * time.Minute

func (a *app) newMigrateCmd() *cobra.Command {
	var status bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Long: `Apply the embedded schema migrations to the configured database.
Use --status to list applied and pending migrations without changing anything.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			db, err := a.openDatabase(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			m := storage.NewMigrator(db, a.cfg.Database.Driver)
			if status {
				st, err := m.Status(ctx)
				if err != nil {
					return fmt.Errorf("migration status: %w", err)
				}
				if a.outputJSON {
					return a.ui.JSON(map[string]interface{}{"applied": nonNilStrings(st.Applied), "pending": nonNilStrings(st.Pending)})
				}
				for _, v := range st.Applied {
					a.ui.Success("%s", v)
				}
				for _, v := range st.Pending {
					a.ui.Warning("%s (pending)", v)
				}
				return nil
			}

			applied, err := m.Up(ctx)
			if err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}
			if a.outputJSON {
				return a.ui.JSON(map[string]interface{}{"applied": nonNilStrings(applied)})
			}
			if len(applied) == 0 {
				a.ui.Info("Database is up to date (%s)", a.cfg.Database.Driver)
				return nil
			}
			for _, v := range applied {
				a.ui.Success("Applied %s", v)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&status, "status", false, "show migration status only")
	return cmd
}

func (a *app) newSeedCmd() *cobra.Command {
	var fixture string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Replace inventory data with a YAML fixture",
		Long: `Seed migrates the database and replaces all stores, makes, models and
vehicles with the contents of a YAML fixture. Without --fixture the built-in
demo inventory is loaded.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			fx, err := storage.LoadFixture(fixture)
			if err != nil {
				return err
			}

			db, err := a.openDatabase(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			a.ui.Step("Applying migrations")
			if _, err := storage.NewMigrator(db, a.cfg.Database.Driver).Up(ctx); err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}

			progress, finish := a.ui.ProgressBar("Seeding", fx.Total())
			stats, err := storage.Seed(ctx, db, a.cfg.Database.Driver, fx, progress)
			finish()
			if err != nil {
				return fmt.Errorf("seed: %w", err)
			}

			if a.outputJSON {
				return a.ui.JSON(stats)
			}
			a.ui.Success("Seeded %d stores, %d makes, %d models, %d vehicles",
				stats.Stores, stats.Makes, stats.Models, stats.Vehicles)
			return nil
		},
	}

	cmd.Flags().StringVarP(&fixture, "fixture", "f", "", "fixture YAML file (default: built-in demo data)")
	return cmd
}

func (a *app) newCatalogCmd() *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Show the reference catalog",
		Long: `Catalog loads and prints the vocabulary advanced searches are validated
against: makes and their models, body styles, colors and store locations.
With --refresh the shared catalog cache is dropped before loading.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			s, err := a.openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			if refresh {
				a.ui.Step("Dropping shared catalog cache")
				if err := s.svc.RefreshCatalogCache(ctx); err != nil {
					return err
				}
			}
			if !a.loadCatalog(ctx, s.svc) {
				return fmt.Errorf("catalog unavailable")
			}

			view := s.svc.Catalog()
			if a.outputJSON {
				return a.ui.JSON(view)
			}

			a.ui.Section("Makes")
			for _, mk := range view.Makes {
				a.ui.KeyValue(mk, strings.Join(view.MakeToModels[mk], ", "))
			}
			a.ui.Section("Lookups")
			a.ui.KeyValue("Body styles", strings.Join(view.BodyStyles, ", "))
			a.ui.KeyValue("Exterior colors", strings.Join(view.ExteriorColors, ", "))
			a.ui.KeyValue("Interior colors", strings.Join(view.InteriorColors, ", "))
			a.ui.KeyValue("Locations", strings.Join(view.Locations, ", "))
			return nil
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "drop the shared catalog cache first")
	return cmd
}

func (a *app) newSearchCmd() *cobra.Command {
	var (
		params  []string
		explain bool
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Run an advanced search",
		Long: `Search runs an advanced search. Pass request parameters with --param,
repeating it for multi-valued fields:

  inventory-cli search --param category=used --param make=Ford \
    --param priceMax=20000 --param SortBy1=price --param SortOrder1=ASC

Rejected values are reported as diagnostics and do not stop the search.
Use --explain to print the compiled SQL instead of running it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parseParams(params)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			s, err := a.openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			a.loadCatalog(ctx, s.svc)

			if explain {
				exp, err := s.svc.Explain(ctx, values)
				if err != nil {
					return err
				}
				if a.outputJSON {
					return a.ui.JSON(exp)
				}
				a.printDiagnostics(exp.Diagnostics)
				a.ui.Section("SQL")
				fmt.Fprintln(cmd.OutOrStdout(), exp.SQL)
				a.ui.Section("Arguments")
				for i, arg := range exp.Args {
					a.ui.KeyValue(strconv.Itoa(i+1), arg)
				}
				return nil
			}

			res, err := s.svc.Advanced(ctx, values)
			if err != nil {
				return err
			}
			if a.outputJSON {
				return a.ui.JSON(res)
			}
			a.printDiagnostics(res.Diagnostics)
			a.printVehicles(res.Vehicles)
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "request parameter as key=value (repeatable)")
	cmd.Flags().BoolVar(&explain, "explain", false, "print the compiled SQL instead of running it")
	return cmd
}

func (a *app) newBasicCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "basic [keywords...]",
		Short: "Run a keyword search over make, model, body style and description",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			s, err := a.openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			vehicles, err := s.svc.Basic(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			return a.renderVehicles(vehicles)
		},
	}
}

func (a *app) newCategoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "category <model>",
		Short: "List used and new vehicles of one model by price",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			s, err := a.openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			vehicles, err := s.svc.Category(ctx, args[0])
			if err != nil {
				return err
			}
			return a.renderVehicles(vehicles)
		},
	}
}

func (a *app) newStoresCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stores",
		Short: "List dealership locations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			s, err := a.openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			stores, err := s.svc.Stores(ctx)
			if err != nil {
				return err
			}
			if a.outputJSON {
				if stores == nil {
					stores = []storage.Dealership{}
				}
				return a.ui.JSON(stores)
			}

			rows := make([][]string, 0, len(stores))
			for _, st := range stores {
				rows = append(rows, []string{st.Name, st.Address, st.City + ", " + st.State + " " + st.Zip, st.Phone, st.Hours})
			}
			a.ui.Table([]string{"Store", "Address", "City", "Phone", "Hours"}, rows)
			return nil
		},
	}
}

func (a *app) newVehicleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vehicle",
		Short: "Look up a single vehicle",
	}

	lookup := func(use, short string, find func(ctx context.Context, s *session, key string) (storage.Vehicle, error)) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
				defer cancel()

				s, err := a.openSession(ctx)
				if err != nil {
					return err
				}
				defer s.Close()

				v, err := find(ctx, s, args[0])
				if err != nil {
					return err
				}
				if a.outputJSON {
					return a.ui.JSON(v)
				}
				a.printVehicle(v)
				return nil
			},
		}
	}

	cmd.AddCommand(
		lookup("used <vin>", "Show a used vehicle by VIN", func(ctx context.Context, s *session, vin string) (storage.Vehicle, error) {
			return s.svc.UsedVehicle(ctx, vin)
		}),
		lookup("new <model>", "Show a new model and its stock per store", func(ctx context.Context, s *session, model string) (storage.Vehicle, error) {
			return s.svc.NewVehicle(ctx, model)
		}),
	)
	return cmd
}

func (a *app) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.ui = NewUI(cmd.OutOrStdout(), cmd.ErrOrStderr(), a.outputJSON, a.noColor)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.outputJSON {
				return a.ui.JSON(map[string]string{"version": version})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "inventory-cli v%s\n", version)
			return nil
		},
	}
}

// parseParams turns key=value pairs into request values, keeping repeats.
func parseParams(pairs []string) (url.Values, error) {
	values := url.Values{}
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --param %q: want key=value", p)
		}
		values.Add(key, value)
	}
	return values, nil
}

func (a *app) printDiagnostics(diags []search.Diagnostic) {
	for _, d := range diags {
		if d.Value == "" {
			a.ui.Warning("%s dropped (%s)", d.Field, d.Reason)
			continue
		}
		a.ui.Warning("%s=%q dropped (%s)", d.Field, d.Value, d.Reason)
	}
}

func (a *app) renderVehicles(vehicles []storage.Vehicle) error {
	if a.outputJSON {
		if vehicles == nil {
			vehicles = []storage.Vehicle{}
		}
		return a.ui.JSON(vehicles)
	}
	a.printVehicles(vehicles)
	return nil
}

func (a *app) printVehicles(vehicles []storage.Vehicle) {
	if len(vehicles) == 0 {
		a.ui.Info("No vehicles matched")
		return
	}

	rows := make([][]string, 0, len(vehicles))
	for _, v := range vehicles {
		miles := strconv.Itoa(v.Miles)
		if !v.IsUsed() {
			miles = "-"
		}
		rows = append(rows, []string{
			v.Category,
			strconv.Itoa(v.Year),
			v.Make,
			v.Model,
			v.BodyStyle,
			"$" + strconv.Itoa(v.Price),
			miles,
			v.ExtColor,
			v.VIN,
			strconv.Itoa(v.TotalInventory()),
		})
	}
	a.ui.Table([]string{"Category", "Year", "Make", "Model", "Style", "Price", "Miles", "Color", "VIN", "Stock"}, rows)
	a.ui.Info("%d vehicles", len(vehicles))
}

func (a *app) printVehicle(v storage.Vehicle) {
	a.ui.Section(fmt.Sprintf("%d %s %s", v.Year, v.Make, v.Model))
	a.ui.KeyValue("Category", v.Category)
	a.ui.KeyValue("Body style", v.BodyStyle)
	a.ui.KeyValue("Price", "$"+strconv.Itoa(v.Price))
	a.ui.KeyValue("MPG", fmt.Sprintf("%d city / %d highway", v.MPGCity, v.MPGHwy))
	a.ui.KeyValue("VIN", v.VIN)
	if v.IsUsed() {
		a.ui.KeyValue("Miles", v.Miles)
		a.ui.KeyValue("Colors", v.ExtColor+" / "+v.IntColor)
		a.ui.KeyValue("Engine", v.Engine)
		a.ui.KeyValue("Transmission", v.Transmission)
	}
	if v.Description != "" {
		a.ui.KeyValue("Description", v.Description)
	}

	stores := make([]string, 0, len(v.Inventory))
	for store := range v.Inventory {
		stores = append(stores, store)
	}
	sort.Strings(stores)
	for _, store := range stores {
		a.ui.KeyValue("Stock at "+store, v.Inventory[store])
	}
}

func nonNilStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

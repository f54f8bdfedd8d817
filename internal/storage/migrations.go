package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migrator applies the embedded schema migrations. Files ending in
// _sqlite.sql replace the file with the same base name on sqlite.
type Migrator struct {
	db     *sql.DB
	driver string
	files  fs.FS
}

// MigrationStatus reports applied and pending migrations.
type MigrationStatus struct {
	Applied []string
	Pending []string
}

// UpToDate reports whether nothing is pending.
func (s MigrationStatus) UpToDate() bool { return len(s.Pending) == 0 }

// NewMigrator creates a migrator for driver ("sqlite" or "postgres").
func NewMigrator(db *sql.DB, driver string) *Migrator {
	sub, _ := fs.Sub(migrationFS, "migrations")
	return &Migrator{db: db, driver: driver, files: sub}
}

// Status compares the embedded migrations with schema_migrations.
func (m *Migrator) Status(ctx context.Context) (MigrationStatus, error) {
	if err := m.ensureTable(ctx); err != nil {
		return MigrationStatus{}, fmt.Errorf("ensure schema_migrations table: %w", err)
	}

	all, err := m.list()
	if err != nil {
		return MigrationStatus{}, fmt.Errorf("list migration files: %w", err)
	}

	applied, err := m.applied(ctx)
	if err != nil {
		return MigrationStatus{}, fmt.Errorf("read applied migrations: %w", err)
	}

	var status MigrationStatus
	for _, name := range all {
		if applied[name] {
			status.Applied = append(status.Applied, name)
		} else {
			status.Pending = append(status.Pending, name)
		}
	}
	return status, nil
}

// Up applies every pending migration in order, each in its own transaction.
// It returns the names it applied.
func (m *Migrator) Up(ctx context.Context) ([]string, error) {
	status, err := m.Status(ctx)
	if err != nil {
		return nil, err
	}

	for _, name := range status.Pending {
		if err := m.apply(ctx, name); err != nil {
			return nil, fmt.Errorf("run migration %s: %w", name, err)
		}
	}
	return status.Pending, nil
}

func (m *Migrator) ensureTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TEXT NOT NULL DEFAULT (datetime('now'))
		)`
	if m.driver == "postgres" {
		query = `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`
	}
	_, err := m.db.ExecContext(ctx, query)
	return err
}

// list returns migration versions (base names) in order.
func (m *Migrator) list() ([]string, error) {
	entries, err := fs.ReadDir(m.files, ".")
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}
		base := strings.TrimSuffix(strings.TrimSuffix(name, ".sql"), "_sqlite")
		seen[base] = true
	}

	versions := make([]string, 0, len(seen))
	for v := range seen {
		versions = append(versions, v)
	}
	sort.Strings(versions)
	return versions, nil
}

func (m *Migrator) file(version string) (string, error) {
	if m.driver != "postgres" {
		if data, err := fs.ReadFile(m.files, version+"_sqlite.sql"); err == nil {
			return string(data), nil
		}
	}
	data, err := fs.ReadFile(m.files, version+".sql")
	if err != nil {
		return "", fmt.Errorf("read migration file: %w", err)
	}
	return string(data), nil
}

func (m *Migrator) applied(ctx context.Context) (map[string]bool, error) {
	rows, err := m.db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out[v] = true
	}
	return out, rows.Err()
}

func (m *Migrator) apply(ctx context.Context, version string) error {
	content, err := m.file(version)
	if err != nil {
		return err
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, content); err != nil {
		return fmt.Errorf("execute migration: %w", err)
	}
	if _, err := tx.ExecContext(ctx, rebind(m.driver, "INSERT INTO schema_migrations (version) VALUES (?)"), version); err != nil {
		return fmt.Errorf("record migration: %w", err)
	}
	return tx.Commit()
}

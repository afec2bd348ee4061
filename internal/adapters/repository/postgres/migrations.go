package postgres

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
var migrationFiles embed.FS

// MigrationNames lists the embedded up migrations in apply order.
func MigrationNames() ([]string, error) {
	entries, err := fs.ReadDir(migrationFiles, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".up.sql") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// ApplyMigration runs every embedded up migration whose name contains match.
// An empty match applies all of them.
func ApplyMigration(ctx context.Context, db *sql.DB, match string) (int, error) {
	names, err := MigrationNames()
	if err != nil {
		return 0, err
	}

	applied := 0
	for _, name := range names {
		if match != "" && !strings.Contains(name, match) {
			continue
		}
		content, err := migrationFiles.ReadFile("migrations/" + name)
		if err != nil {
			return applied, fmt.Errorf("failed to read migration %s: %w", name, err)
		}
		if _, err := db.ExecContext(ctx, string(content)); err != nil {
			return applied, fmt.Errorf("failed to execute migration %s: %w", name, err)
		}
		applied++
	}

	if applied == 0 && match != "" {
		return 0, fmt.Errorf("migration file not found: %s", match)
	}
	return applied, nil
}

// Migrate applies every embedded up migration. Migrations are idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	_, err := ApplyMigration(ctx, db, "")
	return err
}

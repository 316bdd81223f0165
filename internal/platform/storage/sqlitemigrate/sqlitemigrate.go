// Package sqlitemigrate applies embedded SQL migrations to a SQLite database.
//
// Migration files are applied in lexical order, each at most once, inside
// its own transaction. Files may carry "-- +migrate Up" and
// "-- +migrate Down" markers; only the Up section is executed.
package sqlitemigrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"
	"time"
)

const (
	migrationTable = "schema_migrations"
	upMarker       = "-- +migrate Up"
	downMarker     = "-- +migrate Down"
)

// ErrNoDatabase is returned when a nil handle is passed in.
var ErrNoDatabase = errors.New("sql db is required")

// ApplyMigrations executes the .sql files under root that were not applied yet.
// An empty root means the top of migrationFS.
func ApplyMigrations(ctx context.Context, sqlDB *sql.DB, migrationFS fs.FS, root string) error {
	if sqlDB == nil {
		return ErrNoDatabase
	}
	if ctx == nil {
		ctx = context.Background()
	}

	files, err := migrationFiles(migrationFS, root)
	if err != nil {
		return err
	}

	if _, err := sqlDB.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS `+migrationTable+` (
    name TEXT PRIMARY KEY,
    applied_at INTEGER NOT NULL
)`); err != nil {
		return fmt.Errorf("ensure migration table: %w", err)
	}

	for _, file := range files {
		if err := applyOne(ctx, sqlDB, migrationFS, file); err != nil {
			return err
		}
	}
	return nil
}

// Applied lists the recorded migration keys in application order.
func Applied(ctx context.Context, sqlDB *sql.DB) ([]string, error) {
	if sqlDB == nil {
		return nil, ErrNoDatabase
	}
	rows, err := sqlDB.QueryContext(ctx, "SELECT name FROM "+migrationTable+" ORDER BY applied_at, name")
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan migration: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate migrations: %w", err)
	}
	return names, nil
}

// ExtractUpMigration returns the SQL in the Up section, or the whole content
// when there is no Up marker.
func ExtractUpMigration(content string) string {
	_, up, found := strings.Cut(content, upMarker)
	if !found {
		return content
	}
	up, _, _ = strings.Cut(up, downMarker)
	return up
}

// IsAlreadyExistsError reports whether err comes from DDL that already ran.
func IsAlreadyExistsError(err error) bool {
	if err == nil {
		return false
	}
	value := strings.ToLower(err.Error())
	return strings.Contains(value, "already exists") || strings.Contains(value, "duplicate column name")
}

// migrationFiles returns the migration keys under root, sorted. Keys keep the
// root prefix so that separate roots can share one tracking table.
func migrationFiles(migrationFS fs.FS, root string) ([]string, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		root = "."
	}
	entries, err := fs.ReadDir(migrationFS, root)
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		if root == "." {
			files = append(files, entry.Name())
		} else {
			files = append(files, path.Join(root, entry.Name()))
		}
	}
	slices.Sort(files)
	return files, nil
}

func applyOne(ctx context.Context, sqlDB *sql.DB, migrationFS fs.FS, file string) error {
	applied, err := isApplied(ctx, sqlDB, file)
	if err != nil {
		return fmt.Errorf("check migration %s: %w", file, err)
	}
	if applied {
		return nil
	}

	content, err := fs.ReadFile(migrationFS, file)
	if err != nil {
		return fmt.Errorf("read migration %s: %w", file, err)
	}
	upSQL := ExtractUpMigration(string(content))
	if strings.TrimSpace(upSQL) == "" {
		return nil
	}

	tx, err := sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration %s: %w", file, err)
	}
	if _, err := tx.ExecContext(ctx, upSQL); err != nil && !IsAlreadyExistsError(err) {
		_ = tx.Rollback()
		return fmt.Errorf("exec migration %s: %w", file, err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT OR IGNORE INTO "+migrationTable+" (name, applied_at) VALUES (?, ?)",
		file,
		time.Now().UTC().UnixNano(),
	); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("record migration %s: %w", file, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %s: %w", file, err)
	}
	return nil
}

func isApplied(ctx context.Context, sqlDB *sql.DB, name string) (bool, error) {
	var found int
	err := sqlDB.QueryRowContext(ctx, "SELECT 1 FROM "+migrationTable+" WHERE name = ?", name).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

package sqlitemigrate

import (
	"context"
	"database/sql"
	"errors"
	"slices"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"
)

func TestApplyMigrationsRecordsApplied(t *testing.T) {
	db := openInMemoryDB(t)

	migrations := fstest.MapFS{
		"001_profiles.sql": &fstest.MapFile{
			Data: []byte("-- +migrate Up\nCREATE TABLE profiles(name TEXT PRIMARY KEY);\n-- +migrate Down\nDROP TABLE profiles;"),
		},
	}

	if err := ApplyMigrations(context.Background(), db, migrations, ""); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	if rows := queryInt64(t, db, "SELECT COUNT(*) FROM schema_migrations"); rows != 1 {
		t.Fatalf("expected 1 migration row, got %d", rows)
	}
	if !tableExists(t, db, "profiles") {
		t.Fatal("expected applied table to exist")
	}
}

func TestApplyMigrationsSkipsAlreadyApplied(t *testing.T) {
	db := openInMemoryDB(t)
	migrations := fstest.MapFS{
		"001_profiles.sql": &fstest.MapFile{
			Data: []byte("-- +migrate Up\nCREATE TABLE profiles(name TEXT PRIMARY KEY);"),
		},
	}

	for i := 0; i < 2; i++ {
		if err := ApplyMigrations(context.Background(), db, migrations, ""); err != nil {
			t.Fatalf("apply migrations pass %d: %v", i, err)
		}
	}
	if rows := queryInt64(t, db, "SELECT COUNT(*) FROM schema_migrations"); rows != 1 {
		t.Fatalf("expected single migration row after replay, got %d", rows)
	}
}

func TestApplyMigrationsDoesNotRecordFailedMigration(t *testing.T) {
	db := openInMemoryDB(t)

	bad := fstest.MapFS{
		"001_bad.sql": &fstest.MapFile{
			Data: []byte("-- +migrate Up\nCREAT table things(id INT);"),
		},
	}
	if err := ApplyMigrations(context.Background(), db, bad, ""); err == nil {
		t.Fatal("expected bad migration to fail")
	}
	if rows := queryInt64(t, db, "SELECT COUNT(*) FROM schema_migrations"); rows != 0 {
		t.Fatalf("expected failed migration to stay unrecorded, got %d rows", rows)
	}

	good := fstest.MapFS{
		"001_bad.sql": &fstest.MapFile{
			Data: []byte("-- +migrate Up\nCREATE TABLE things(id INTEGER PRIMARY KEY);"),
		},
	}
	if err := ApplyMigrations(context.Background(), db, good, ""); err != nil {
		t.Fatalf("apply fixed migration: %v", err)
	}
	if rows := queryInt64(t, db, "SELECT COUNT(*) FROM schema_migrations"); rows != 1 {
		t.Fatalf("expected fixed migration to be recorded, got %d rows", rows)
	}
}

func TestApplyMigrationsRespectsRoot(t *testing.T) {
	db := openInMemoryDB(t)
	migrations := fstest.MapFS{
		"bestiary/002_rules.sql": &fstest.MapFile{
			Data: []byte("-- +migrate Up\nCREATE TABLE rules(name TEXT PRIMARY KEY);"),
		},
		"bestiary/001_profiles.sql": &fstest.MapFile{
			Data: []byte("-- +migrate Up\nCREATE TABLE profiles(name TEXT PRIMARY KEY);"),
		},
		"other/001_ignored.sql": &fstest.MapFile{
			Data: []byte("CREATE TABLE ignored(id INTEGER);"),
		},
	}

	if err := ApplyMigrations(context.Background(), db, migrations, "bestiary"); err != nil {
		t.Fatalf("apply migrations with root: %v", err)
	}

	applied, err := Applied(context.Background(), db)
	if err != nil {
		t.Fatalf("Applied: %v", err)
	}
	want := []string{"bestiary/001_profiles.sql", "bestiary/002_rules.sql"}
	if !slices.Equal(applied, want) {
		t.Fatalf("applied = %v, want %v", applied, want)
	}
	if tableExists(t, db, "ignored") {
		t.Fatal("migration outside root should not run")
	}
}

func TestApplyMigrationsRequiresDatabase(t *testing.T) {
	if err := ApplyMigrations(context.Background(), nil, fstest.MapFS{}, ""); !errors.Is(err, ErrNoDatabase) {
		t.Fatalf("expected %v, got %v", ErrNoDatabase, err)
	}
	if _, err := Applied(context.Background(), nil); !errors.Is(err, ErrNoDatabase) {
		t.Fatalf("expected %v, got %v", ErrNoDatabase, err)
	}
}

func TestExtractUpMigration(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"no markers", "CREATE TABLE a(id INT);", "CREATE TABLE a(id INT);"},
		{"up only", "-- +migrate Up\nCREATE TABLE a(id INT);", "\nCREATE TABLE a(id INT);"},
		{"up and down", "-- +migrate Up\nX;\n-- +migrate Down\nY;", "\nX;\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractUpMigration(tt.content); got != tt.want {
				t.Fatalf("ExtractUpMigration() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsAlreadyExistsError(t *testing.T) {
	if IsAlreadyExistsError(nil) {
		t.Fatal("nil should not be an already-exists error")
	}
	if !IsAlreadyExistsError(errors.New("table profiles already exists")) {
		t.Fatal("expected already-exists match")
	}
	if !IsAlreadyExistsError(errors.New("duplicate column name: hp")) {
		t.Fatal("expected duplicate column match")
	}
	if IsAlreadyExistsError(errors.New("syntax error")) {
		t.Fatal("syntax error should not match")
	}
}

func openInMemoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open in-memory db: %v", err)
	}
	// Each pooled connection would get its own in-memory database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Fatalf("close db: %v", err)
		}
	})
	return db
}

func queryInt64(t *testing.T, db *sql.DB, query string) int64 {
	t.Helper()
	var value int64
	if err := db.QueryRow(query).Scan(&value); err != nil {
		t.Fatalf("query int value: %v", err)
	}
	return value
}

func tableExists(t *testing.T, db *sql.DB, tableName string) bool {
	t.Helper()
	var name string
	err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name = ?", tableName).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return false
	}
	if err != nil {
		t.Fatalf("check table exists: %v", err)
	}
	return name == tableName
}

package db

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"intervals/backend/migrations"
)

func migrationsDir(t *testing.T) string {
	t.Helper()
	_, currentFile, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(currentFile), "..", "..", "migrations")
}

func TestRunMigrationsIsIdempotent(t *testing.T) {
	database, err := OpenSQLite(filepath.Join(t.TempDir(), "nested", "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer database.Close()

	if err := RunMigrations(database, migrationsDir(t)); err != nil {
		t.Fatalf("run migrations from disk: %v", err)
	}
	if err := RunMigrationsFS(database, migrations.FS); err != nil {
		t.Fatalf("run embedded migrations: %v", err)
	}

	entries, err := filepath.Glob(filepath.Join(migrationsDir(t), "*.sql"))
	if err != nil {
		t.Fatalf("list migrations: %v", err)
	}
	var applied int
	if err := database.QueryRow(`SELECT COUNT(1) FROM schema_migrations`).Scan(&applied); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if applied != len(entries) {
		t.Fatalf("expected %d applied migrations, got %d", len(entries), applied)
	}

	for _, table := range []string{"users", "presets", "sessions"} {
		var name string
		err := database.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		if err != nil {
			t.Fatalf("expected table %s: %v", table, err)
		}
	}
}

func TestRunMigrationsRollsBackBrokenFile(t *testing.T) {
	database, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer database.Close()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "0001_broken.sql"), []byte("CREATE TABLE ok (id TEXT); NOT SQL;"), 0o644); err != nil {
		t.Fatalf("write migration: %v", err)
	}

	if err := RunMigrations(database, dir); err == nil {
		t.Fatal("expected broken migration to fail")
	}
	var count int
	if err := database.QueryRow(`SELECT COUNT(1) FROM schema_migrations`).Scan(&count); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if count != 0 {
		t.Fatalf("broken migration must not be recorded, got %d", count)
	}
}

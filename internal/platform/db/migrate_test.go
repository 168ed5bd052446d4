package db

import (
	"testing"
	"testing/fstest"
)

func TestMigrationNamesSorted(t *testing.T) {
	fsys := fstest.MapFS{
		"m/0002_more.sql": {Data: []byte("SELECT 1")},
		"m/0001_init.sql": {Data: []byte("SELECT 1")},
		"m/README.md":     {Data: []byte("notes")},
	}
	names, err := migrationNames(fsys, "m")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(names) != 2 || names[0] != "0001_init.sql" || names[1] != "0002_more.sql" {
		t.Fatalf("unexpected order %v", names)
	}
}

func TestEmbeddedMigrationsPresent(t *testing.T) {
	names, err := migrationNames(migrationFiles, "migrations")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(names) != 2 || names[0] != "0001_init.sql" || names[1] != "0002_leave_overlap.sql" {
		t.Fatalf("unexpected embedded migrations %v", names)
	}
}

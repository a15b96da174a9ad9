package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/roach88/keepsake/internal/record"
)

func testAsset(id, hash string) record.Asset {
	return record.Asset{
		ID:                id,
		PrimaryHash:       hash,
		SecondaryChecksum: "0123456789abcdef0123456789abcdef",
		RemoteRef:         "https://store.example/" + id,
		Size:              42,
		FileName:          id + ".png",
		CreatedAt:         "2024-05-01T12:00:00Z",
	}
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	for _, table := range []string{"assets", "history"} {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found after idempotent opens: %v", table, err)
		}
	}
}

func TestOpen_AppliesPragmas(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if err := s.verifyPragma("journal_mode", "wal"); err != nil {
		t.Error(err)
	}
	if err := s.verifyPragma("foreign_keys", "1"); err != nil {
		t.Error(err)
	}
}

func TestOpen_SetsCurrentSchemaVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		t.Fatalf("read user_version: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("user_version = %d, want %d", version, currentSchemaVersion)
	}
}

// openLegacyV1 creates a database shaped like schema version 1:
// assets keyed by file_name, hash index present, user_version = 1.
func openLegacyV1(t *testing.T, path string) {
	t.Helper()

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("open legacy db: %v", err)
	}
	defer db.Close()

	stmts := []string{
		`CREATE TABLE assets (
			file_name          TEXT PRIMARY KEY,
			primary_hash       TEXT NOT NULL,
			secondary_checksum TEXT NOT NULL,
			remote_ref         TEXT NOT NULL,
			size               INTEGER NOT NULL,
			created_at         TEXT NOT NULL
		)`,
		`CREATE INDEX idx_assets_primary_hash ON assets(primary_hash)`,
		`CREATE TABLE history (
			id         TEXT PRIMARY KEY,
			kind       TEXT NOT NULL CHECK (kind IN ('upload', 'query')),
			payload    TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`INSERT INTO assets VALUES ('old.png', 'aa', 'bb', 'https://x/old', 1, '2023-01-01T00:00:00Z')`,
		`PRAGMA user_version = 1`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("legacy stmt failed: %v", err)
		}
	}
}

func TestMigration_V1ToV2_DropsAndRecreatesAssets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.db")
	openLegacyV1(t, path)

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	// The key-path change is a documented drop-and-recreate: the legacy
	// row is gone and the table is keyed by id.
	assets := s.Assets(context.Background())
	if len(assets) != 0 {
		t.Errorf("expected empty assets after v2 migration, got %d", len(assets))
	}

	keyed, err := assetsKeyedByID(s.db)
	if err != nil {
		t.Fatalf("assetsKeyedByID: %v", err)
	}
	if !keyed {
		t.Error("assets table should be keyed by id after v2 migration")
	}

	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		t.Fatalf("read user_version: %v", err)
	}
	if version != 2 {
		t.Errorf("user_version = %d, want 2", version)
	}
}

func TestMigration_RunsExactlyOncePerUpgrade(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.db")
	openLegacyV1(t, path)

	s1, err := Open(path)
	if err != nil {
		t.Fatalf("first Open() failed: %v", err)
	}
	// Write a row after the migration; a second migration run would drop it.
	if err := s1.PutAsset(context.Background(), testAsset("a-1", "h1")); err != nil {
		t.Fatalf("PutAsset: %v", err)
	}
	s1.Close()

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("second Open() failed: %v", err)
	}
	defer s2.Close()

	assets := s2.Assets(context.Background())
	if len(assets) != 1 {
		t.Fatalf("migration re-ran on an up-to-date store: got %d assets, want 1", len(assets))
	}
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{db: nil}
	if err := s.Close(); err != nil {
		t.Errorf("Close() on nil db should not error: %v", err)
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	if _, err := Open("/nonexistent/dir/archive.db"); err == nil {
		t.Error("expected error for invalid path, got nil")
	}
}

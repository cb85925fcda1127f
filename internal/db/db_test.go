package db

import (
	"path/filepath"
	"testing"
)

func TestNew_CreatesDatabase(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	database, err := New(dbPath, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer database.Close()

	tables := []string{"srts", "subtitles", "config", "_migrations"}
	for _, table := range tables {
		var name string
		err := database.Conn().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %s not found: %v", table, err)
		}
	}
}

func TestNew_WALEnabled(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	database, err := New(dbPath, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer database.Close()

	var journalMode string
	err = database.Conn().QueryRow("PRAGMA journal_mode").Scan(&journalMode)
	if err != nil {
		t.Fatalf("PRAGMA journal_mode error = %v", err)
	}

	if journalMode != "wal" {
		t.Errorf("journal_mode = %s, want wal", journalMode)
	}
}

func TestNew_MigrationsIdempotent(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	db1, err := New(dbPath, nil)
	if err != nil {
		t.Fatalf("first New() error = %v", err)
	}
	db1.Close()

	db2, err := New(dbPath, nil)
	if err != nil {
		t.Fatalf("second New() error = %v", err)
	}
	defer db2.Close()

	var count int
	err = db2.Conn().QueryRow("SELECT COUNT(*) FROM _migrations").Scan(&count)
	if err != nil {
		t.Fatalf("count migrations error = %v", err)
	}

	if count != 1 {
		t.Errorf("migration count = %d, want 1", count)
	}
}

func TestCascadeDelete(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	database, err := New(dbPath, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer database.Close()

	conn := database.Conn()
	_, err = conn.Exec(`INSERT INTO srts (id, filename, created_at, updated_at)
		VALUES ('srt-1', 'a.srt', datetime('now'), datetime('now'))`)
	if err != nil {
		t.Fatalf("insert srt error = %v", err)
	}
	_, err = conn.Exec(`INSERT INTO subtitles (srt_id, sequence_number, start_time, end_time, text)
		VALUES ('srt-1', 1, '00:00:01,000', '00:00:02,000', 'hi')`)
	if err != nil {
		t.Fatalf("insert subtitle error = %v", err)
	}

	if _, err := conn.Exec("DELETE FROM srts WHERE id = 'srt-1'"); err != nil {
		t.Fatalf("delete srt error = %v", err)
	}

	var count int
	if err := conn.QueryRow("SELECT COUNT(*) FROM subtitles").Scan(&count); err != nil {
		t.Fatalf("count subtitles error = %v", err)
	}
	if count != 0 {
		t.Errorf("subtitle count after cascade delete = %d, want 0", count)
	}
}

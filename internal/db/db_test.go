package db

import (
	"path/filepath"
	"testing"
)

func TestOpenMemory(t *testing.T) {
	d, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer d.Close()

	// Schema should be in place.
	var count int
	err = d.QueryRow(`SELECT COUNT(*) FROM ingest_jobs`).Scan(&count)
	if err != nil {
		t.Fatalf("querying ingest_jobs: %v", err)
	}
	if count != 0 {
		t.Errorf("expected empty ingest_jobs, got %d rows", count)
	}
}

func TestOpenCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "explainer.db")
	d, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer d.Close()

	if _, err := d.Exec(`INSERT INTO ingest_jobs (id, source_url) VALUES ('abc12345', 'https://example.com/r.git')`); err != nil {
		t.Fatalf("insert: %v", err)
	}
}

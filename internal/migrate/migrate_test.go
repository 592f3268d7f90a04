package migrate

import (
	"database/sql"
	"testing"
	"testing/fstest"

	_ "github.com/mattn/go-sqlite3"
)

func openMemory(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestRun_createsSamplesTable(t *testing.T) {
	db := openMemory(t)
	if err := Run(db); err != nil {
		t.Fatalf("Run: %v", err)
	}

	var name string
	err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='samples'`).Scan(&name)
	if err != nil {
		t.Fatalf("samples table missing: %v", err)
	}

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&n); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if n < 1 {
		t.Fatalf("schema_migrations has %d rows, want >= 1", n)
	}
}

func TestRun_idempotent(t *testing.T) {
	db := openMemory(t)
	if err := Run(db); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if err := Run(db); err != nil {
		t.Fatalf("second Run: %v", err)
	}
}

func TestRunFS_ordersAndSkipsApplied(t *testing.T) {
	db := openMemory(t)
	fsys := fstest.MapFS{
		"m/0002_second.sql": {Data: []byte(`INSERT INTO t (v) VALUES ('second');`)},
		"m/0001_first.sql":  {Data: []byte(`CREATE TABLE t (v TEXT);`)},
		"m/README.md":       {Data: []byte(`ignored`)},
	}
	if err := runFS(db, fsys, "m"); err != nil {
		t.Fatalf("runFS: %v", err)
	}
	if err := runFS(db, fsys, "m"); err != nil {
		t.Fatalf("runFS again: %v", err)
	}
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM t`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("rows in t = %d, want 1 (second migration applied once)", n)
	}
}

func TestRunFS_failureIsNotRecorded(t *testing.T) {
	db := openMemory(t)
	fsys := fstest.MapFS{
		"m/0001_broken.sql": {Data: []byte(`CREATE TABLE (`)},
	}
	if err := runFS(db, fsys, "m"); err == nil {
		t.Fatal("runFS(broken) = nil, want error")
	}
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Fatalf("schema_migrations has %d rows, want 0", n)
	}
}

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		in          string
		wantVersion string
		wantName    string
		wantOK      bool
	}{
		{in: "0001_schema.sql", wantVersion: "0001", wantName: "schema", wantOK: true},
		{in: "0120_add_index.sql", wantVersion: "0120", wantName: "add_index", wantOK: true},
		{in: "1_schema.sql", wantOK: false},
		{in: "0001_schema.txt", wantOK: false},
	}
	for _, tt := range tests {
		v, n, ok := parseMigrationFilename(tt.in)
		if ok != tt.wantOK || v != tt.wantVersion || n != tt.wantName {
			t.Errorf("parseMigrationFilename(%q) = %q, %q, %v; want %q, %q, %v", tt.in, v, n, ok, tt.wantVersion, tt.wantName, tt.wantOK)
		}
	}
}

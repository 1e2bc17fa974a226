package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/D3f0/dbglue/internal/utils"
)

func TestOpen_SQLite(t *testing.T) {
	db, err := Open(context.Background(), "sqlite:///"+filepath.Join(t.TempDir(), "open.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()

	if db.Dialect != SQLite {
		t.Errorf("Dialect = %s, want sqlite", db.Dialect.Name)
	}
	if db.Stats().MaxOpenConnections != 1 {
		t.Errorf("MaxOpenConnections = %d, want 1", db.Stats().MaxOpenConnections)
	}
}

func TestOpen_InMemory(t *testing.T) {
	db, err := Open(context.Background(), "sqlite://")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(`CREATE TABLE t (id INTEGER)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
}

func TestOpen_Errors(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"unknown scheme", "oracle://h/db"},
		{"not a url", "dbname=x"},
		{"unreachable directory", "sqlite:////nonexistent-dir/sub/x.db"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(context.Background(), tt.url)
			if !errors.Is(err, utils.ErrConnection) {
				t.Errorf("Open(%q) error = %v, want ErrConnection", tt.url, err)
			}
		})
	}
}

func TestDB_NilSafe(t *testing.T) {
	var db *DB
	if err := db.Close(); err != nil {
		t.Errorf("Close() on nil = %v", err)
	}
	if db.String() != "<nil>" {
		t.Errorf("String() on nil = %q", db.String())
	}
}

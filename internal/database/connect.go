// Package database provides the collaborators around the copy engine:
// connection URL normalization, driver selection, catalog introspection,
// row counting and driver error classification.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql" // mysql driver
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	_ "github.com/lib/pq"              // postgres driver
	_ "github.com/mattn/go-sqlite3"    // sqlite3 driver

	"github.com/D3f0/dbglue/internal/utils"
)

// DB is an open database handle together with its dialect.
type DB struct {
	*sql.DB
	Dialect *Dialect
	Info    *ConnInfo
}

// Open parses raw, opens the driver and pings the server. Every failure,
// including an unusable URL, wraps utils.ErrConnection.
func Open(ctx context.Context, raw string) (*DB, error) {
	info, err := ParseURL(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", utils.ErrConnection, err)
	}

	sqlDB, err := sql.Open(info.Driver, info.DSN)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open %s: %v", utils.ErrConnection, info.Display, err)
	}

	if info.Dialect == SQLite {
		// one writer at a time; also keeps :memory: on a single connection
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(4)
		sqlDB.SetMaxIdleConns(2)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("%w: failed to ping %s: %v", utils.ErrConnection, info.Display, err)
	}

	return &DB{DB: sqlDB, Dialect: info.Dialect, Info: info}, nil
}

// Close closes the underlying pool; safe on nil.
func (db *DB) Close() error {
	if db == nil || db.DB == nil {
		return nil
	}
	return db.DB.Close()
}

// String returns the masked URL.
func (db *DB) String() string {
	if db == nil || db.Info == nil {
		return "<nil>"
	}
	return db.Info.Display
}

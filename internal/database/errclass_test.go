package database

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorClass
	}{
		{"nil", nil, ClassOther},
		{"plain", errors.New("boom"), ClassOther},

		{"pq unique", &pq.Error{Code: "23505"}, ClassIntegrity},
		{"pq foreign key", &pq.Error{Code: "23503"}, ClassIntegrity},
		{"pq not null", &pq.Error{Code: "23502"}, ClassIntegrity},
		{"pq check", &pq.Error{Code: "23514"}, ClassIntegrity},
		{"pq deadlock", &pq.Error{Code: "40P01"}, ClassTransient},
		{"pq serialization", &pq.Error{Code: "40001"}, ClassTransient},
		{"pq lock not available", &pq.Error{Code: "55P03"}, ClassTransient},
		{"pq too many connections", &pq.Error{Code: "53300"}, ClassTransient},
		{"pq undefined column", &pq.Error{Code: "42703"}, ClassOther},
		{"pq wrapped", fmt.Errorf("insert: %w", &pq.Error{Code: "23505"}), ClassIntegrity},

		{"pgx unique", &pgconn.PgError{Code: "23505"}, ClassIntegrity},
		{"pgx deadlock", &pgconn.PgError{Code: "40P01"}, ClassTransient},
		{"pgx admin shutdown", &pgconn.PgError{Code: "57P01"}, ClassTransient},
		{"pgx syntax", &pgconn.PgError{Code: "42601"}, ClassOther},

		{"mysql duplicate", &mysql.MySQLError{Number: 1062}, ClassIntegrity},
		{"mysql fk", &mysql.MySQLError{Number: 1452}, ClassIntegrity},
		{"mysql null", &mysql.MySQLError{Number: 1048}, ClassIntegrity},
		{"mysql check", &mysql.MySQLError{Number: 3819}, ClassIntegrity},
		{"mysql deadlock", &mysql.MySQLError{Number: 1213}, ClassTransient},
		{"mysql lock wait", &mysql.MySQLError{Number: 1205}, ClassTransient},
		{"mysql unknown column", &mysql.MySQLError{Number: 1054}, ClassOther},

		{"sqlite constraint", sqlite3.Error{Code: sqlite3.ErrConstraint}, ClassIntegrity},
		{"sqlite busy", sqlite3.Error{Code: sqlite3.ErrBusy}, ClassTransient},
		{"sqlite locked", sqlite3.Error{Code: sqlite3.ErrLocked}, ClassTransient},
		{"sqlite generic", sqlite3.Error{Code: sqlite3.ErrError}, ClassOther},

		{"bad conn", fmt.Errorf("exec: %w", driver.ErrBadConn), ClassTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify(%v) = %s, want %s", tt.err, got, tt.want)
			}
		})
	}
}

func TestClassifySQLState_Short(t *testing.T) {
	if got := classifySQLState("2"); got != ClassOther {
		t.Errorf("classifySQLState(\"2\") = %s, want other", got)
	}
}

package database

import (
	"database/sql/driver"
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// ErrorClass groups driver errors by how a failed batch should be reported.
type ErrorClass string

const (
	// ClassIntegrity covers constraint violations: duplicate key, foreign key, not-null, check.
	ClassIntegrity ErrorClass = "integrity"
	// ClassTransient covers server-side conditions that may succeed later:
	// deadlocks, serialization failures, lock timeouts, resource exhaustion, lost connections.
	ClassTransient ErrorClass = "transient"
	// ClassOther is everything else (syntax, type conversion, permissions...).
	ClassOther ErrorClass = "other"
)

// Classify inspects err for a known driver error type.
func Classify(err error) ErrorClass {
	if err == nil {
		return ClassOther
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return classifySQLState(pgErr.Code)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return classifySQLState(string(pqErr.Code))
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return classifyMySQL(myErr.Number)
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code {
		case sqlite3.ErrConstraint:
			return ClassIntegrity
		case sqlite3.ErrBusy, sqlite3.ErrLocked, sqlite3.ErrFull, sqlite3.ErrIoErr:
			return ClassTransient
		}
		return ClassOther
	}

	if errors.Is(err, driver.ErrBadConn) {
		return ClassTransient
	}
	return ClassOther
}

// classifySQLState maps a five-character SQLSTATE code.
func classifySQLState(code string) ErrorClass {
	if len(code) < 2 {
		return ClassOther
	}
	if code == "55P03" { // lock_not_available
		return ClassTransient
	}
	switch code[:2] {
	case "23": // integrity_constraint_violation
		return ClassIntegrity
	case "40", // transaction_rollback: serialization_failure, deadlock_detected
		"53", // insufficient_resources
		"57", // operator_intervention
		"08", // connection_exception
		"XX": // internal_error
		return ClassTransient
	}
	return ClassOther
}

func classifyMySQL(number uint16) ErrorClass {
	switch number {
	case 1022, // ER_DUP_KEY
		1048,       // ER_BAD_NULL_ERROR
		1062,       // ER_DUP_ENTRY
		1169,       // ER_DUP_UNIQUE
		1216, 1217, // ER_NO_REFERENCED_ROW, ER_ROW_IS_REFERENCED
		1364,       // ER_NO_DEFAULT_FOR_FIELD
		1451, 1452, // ER_ROW_IS_REFERENCED_2, ER_NO_REFERENCED_ROW_2
		1557, 1586, // ER_FOREIGN_DUPLICATE_KEY, ER_DUP_ENTRY_WITH_KEY_NAME
		3819: // ER_CHECK_CONSTRAINT_VIOLATED
		return ClassIntegrity
	case 1040, // ER_CON_COUNT_ERROR
		1053, // ER_SERVER_SHUTDOWN
		1205, // ER_LOCK_WAIT_TIMEOUT
		1213: // ER_LOCK_DEADLOCK
		return ClassTransient
	}
	return ClassOther
}

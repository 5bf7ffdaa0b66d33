package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

// Class buckets store errors by what the gateway should do about them.
type Class int

const (
	ClassNone Class = iota
	// ClassConnection: the session is gone. Reconnect, reload caches, replay.
	ClassConnection
	// ClassBusy: lock contention or serialization failure. Back off, replay.
	ClassBusy
	// ClassConflict: a unique key was taken by a racing writer. Replaying
	// the upsert finds the row and updates it instead.
	ClassConflict
	// ClassConstraint: not-null, check or foreign-key violations. Replaying
	// identical input fails identically, so these are fatal.
	ClassConstraint
	ClassFatal
)

func (c Class) String() string {
	switch c {
	case ClassNone:
		return "none"
	case ClassConnection:
		return "connection"
	case ClassBusy:
		return "busy"
	case ClassConflict:
		return "conflict"
	case ClassConstraint:
		return "constraint"
	default:
		return "fatal"
	}
}

// Retryable reports whether an operation failing with c may be replayed.
func (c Class) Retryable() bool {
	return c == ClassConnection || c == ClassBusy || c == ClassConflict
}

var connectionMessages = []string{
	"database is closed",
	"connection refused",
	"connection reset",
	"broken pipe",
	"bad connection",
	"unable to open database file",
	"server closed the connection",
}

// Classify inspects driver errors from either engine.
func Classify(err error) Class {
	if err == nil {
		return ClassNone
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ClassFatal
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return ClassConnection
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return classifySQLite(liteErr)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return classifyPostgres(pgErr.Code)
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return ClassConnection
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ClassConflict
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) || errors.Is(err, gorm.ErrCheckConstraintViolated) {
		return ClassConstraint
	}

	msg := strings.ToLower(err.Error())
	for _, m := range connectionMessages {
		if strings.Contains(msg, m) {
			return ClassConnection
		}
	}
	if strings.Contains(msg, "database is locked") || strings.Contains(msg, "database table is locked") {
		return ClassBusy
	}
	return ClassFatal
}

func classifySQLite(e sqlite3.Error) Class {
	switch e.Code {
	case sqlite3.ErrBusy, sqlite3.ErrLocked:
		return ClassBusy
	case sqlite3.ErrConstraint:
		switch e.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return ClassConflict
		default:
			return ClassConstraint
		}
	case sqlite3.ErrCantOpen, sqlite3.ErrIoErr, sqlite3.ErrNotADB:
		return ClassConnection
	default:
		return ClassFatal
	}
}

func classifyPostgres(code string) Class {
	switch {
	case code == "23505":
		return ClassConflict
	case strings.HasPrefix(code, "23"):
		return ClassConstraint
	case code == "40001" || code == "40P01" || code == "55P03":
		return ClassBusy
	case strings.HasPrefix(code, "08"), code == "57P01", code == "57P02", code == "57P03":
		return ClassConnection
	default:
		return ClassFatal
	}
}

// RetryError is returned when a retryable failure persisted through every
// allowed attempt, or when the operator declined to retry.
type RetryError struct {
	Op       string
	Attempts int
	Class    Class
	Err      error
}

func (e *RetryError) Error() string {
	return fmt.Sprintf("%s failed after %d attempt(s) (%s): %v", e.Op, e.Attempts, e.Class, e.Err)
}

func (e *RetryError) Unwrap() error { return e.Err }

package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Class
	}{
		{"nil", nil, ClassNone},
		{"sqlite busy", sqlite3.Error{Code: sqlite3.ErrBusy}, ClassBusy},
		{"sqlite locked wrapped", fmt.Errorf("insert: %w", sqlite3.Error{Code: sqlite3.ErrLocked}), ClassBusy},
		{"sqlite unique", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}, ClassConflict},
		{"sqlite check", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintCheck}, ClassConstraint},
		{"sqlite not null", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintNotNull}, ClassConstraint},
		{"sqlite cant open", sqlite3.Error{Code: sqlite3.ErrCantOpen}, ClassConnection},
		{"pg unique", &pgconn.PgError{Code: "23505"}, ClassConflict},
		{"pg foreign key", &pgconn.PgError{Code: "23503"}, ClassConstraint},
		{"pg serialization", &pgconn.PgError{Code: "40001"}, ClassBusy},
		{"pg deadlock", &pgconn.PgError{Code: "40P01"}, ClassBusy},
		{"pg connection failure", &pgconn.PgError{Code: "08006"}, ClassConnection},
		{"pg admin shutdown", &pgconn.PgError{Code: "57P01"}, ClassConnection},
		{"pg syntax", &pgconn.PgError{Code: "42601"}, ClassFatal},
		{"bad conn", driver.ErrBadConn, ClassConnection},
		{"closed db message", errors.New("sql: database is closed"), ClassConnection},
		{"locked message", errors.New("database is locked (5) (SQLITE_BUSY)"), ClassBusy},
		{"gorm duplicate", gorm.ErrDuplicatedKey, ClassConflict},
		{"canceled", context.Canceled, ClassFatal},
		{"other", errors.New("no such table: product"), ClassFatal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.err))
		})
	}
}

func TestClassRetryable(t *testing.T) {
	assert.True(t, ClassConnection.Retryable())
	assert.True(t, ClassBusy.Retryable())
	assert.True(t, ClassConflict.Retryable())
	assert.False(t, ClassConstraint.Retryable())
	assert.False(t, ClassFatal.Retryable())
	assert.False(t, ClassNone.Retryable())
}

func TestRetryErrorUnwraps(t *testing.T) {
	cause := sqlite3.Error{Code: sqlite3.ErrBusy}
	err := error(&RetryError{Op: "product.add_many", Attempts: 3, Class: ClassBusy, Err: cause})

	var liteErr sqlite3.Error
	assert.True(t, errors.As(err, &liteErr))
	assert.Equal(t, sqlite3.ErrBusy, liteErr.Code)
	assert.Contains(t, err.Error(), "product.add_many failed after 3 attempt(s) (busy)")
}

package testutil

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/routecard/internal/data/db"
	"github.com/yungbote/routecard/internal/data/repos"
	"github.com/yungbote/routecard/internal/data/store"
	"github.com/yungbote/routecard/internal/observability"
	"github.com/yungbote/routecard/internal/pkg/logger"
	"github.com/yungbote/routecard/internal/progress"
)

var (
	logOnce sync.Once
	logg    *logger.Logger
	logErr  error
)

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	logOnce.Do(func() {
		logg, logErr = logger.New("test")
	})
	if logErr != nil {
		tb.Fatalf("failed to init logger: %v", logErr)
	}
	return logg
}

// Opener returns an opener for a fresh, migrated and seeded sqlite file
// under tb.TempDir(). Every call of the opener reaches the same file.
func Opener(tb testing.TB) db.Opener {
	tb.Helper()
	open, err := db.NewOpener(db.Config{
		Engine:   db.EngineSQLite,
		Path:     filepath.Join(tb.TempDir(), "routecard.db"),
		Pragmas:  []string{"foreign_keys = ON", "busy_timeout = 2000"},
		LogLevel: "silent",
	}, Logger(tb))
	if err != nil {
		tb.Fatalf("sqlite opener: %v", err)
	}
	conn, err := open(context.Background())
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrateAll(conn); err != nil {
		tb.Fatalf("migrate: %v", err)
	}
	if err := db.Seed(conn); err != nil {
		tb.Fatalf("seed: %v", err)
	}
	if sqlDB, err := conn.DB(); err == nil {
		_ = sqlDB.Close()
	}
	return open
}

// Gateway opens a gateway over a fresh store. reporter may be nil.
func Gateway(tb testing.TB, reporter progress.Reporter) *store.Gateway {
	tb.Helper()
	if reporter == nil {
		reporter = &progress.Recorder{Default: true}
	}
	g, err := store.NewGateway(context.Background(), Logger(tb), Opener(tb), store.Policy{
		MaxAttempts:     5,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
	}, reporter, observability.New())
	if err != nil {
		tb.Fatalf("gateway: %v", err)
	}
	tb.Cleanup(func() { _ = g.Close() })
	return g
}

// Repos builds the full repository set over a fresh store.
func Repos(tb testing.TB, reporter progress.Reporter) (*repos.Set, *store.Gateway) {
	tb.Helper()
	g := Gateway(tb, reporter)
	set := repos.NewSet(g, Logger(tb), observability.New())
	if err := set.Warm(context.Background()); err != nil {
		tb.Fatalf("warm caches: %v", err)
	}
	return set, g
}

// FailNextCreates makes the next n INSERTs issued through conn fail with
// err, after letting skip of them through.
func FailNextCreates(tb testing.TB, conn *gorm.DB, skip, n int, err error) {
	tb.Helper()
	var mu sync.Mutex
	seen := 0
	name := "testutil:fail_create"
	cb := func(tx *gorm.DB) {
		mu.Lock()
		defer mu.Unlock()
		seen++
		if seen > skip && seen <= skip+n {
			_ = tx.AddError(err)
		}
	}
	if regErr := conn.Callback().Create().Before("gorm:create").Register(name, cb); regErr != nil {
		tb.Fatalf("register callback: %v", regErr)
	}
}

package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/routecard/internal/domain"
	"github.com/yungbote/routecard/internal/pkg/logger"
)

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "store.db", sqliteDSN("store.db", nil))
	assert.Equal(t, "file:store.db?_busy_timeout=5000&_foreign_keys=ON",
		sqliteDSN("store.db", []string{"foreign_keys = ON", "busy_timeout=5000", "broken"}))
	assert.Equal(t, "file:store.db?mode=rwc&_journal_mode=WAL",
		sqliteDSN("file:store.db?mode=rwc", []string{"journal_mode = WAL"}))
}

func TestGormLevel(t *testing.T) {
	assert.Equal(t, gormLogger.Silent, gormLevel("silent"))
	assert.Equal(t, gormLogger.Info, gormLevel(" INFO "))
	assert.Equal(t, gormLogger.Warn, gormLevel(""))
}

func TestNewOpenerValidatesConfig(t *testing.T) {
	log := logger.Nop()

	_, err := NewOpener(Config{Engine: EngineSQLite}, log)
	assert.Error(t, err)
	_, err = NewOpener(Config{Engine: EnginePostgres}, log)
	assert.Error(t, err)
	_, err = NewOpener(Config{Engine: "oracle", Path: "x"}, log)
	assert.Error(t, err)
}

func TestMigrateAndSeedAreRepeatable(t *testing.T) {
	log := logger.Nop()
	open, err := NewOpener(Config{
		Path:     filepath.Join(t.TempDir(), "seed.db"),
		Pragmas:  []string{"foreign_keys = ON"},
		LogLevel: "silent",
	}, log)
	require.NoError(t, err)
	conn, err := open(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	require.NoError(t, AutoMigrateAll(conn))
	require.NoError(t, Seed(conn))
	require.NoError(t, Seed(conn))

	var stages, kinds int64
	require.NoError(t, conn.Model(&domain.DocumentStage{}).Count(&stages).Error)
	require.NoError(t, conn.Model(&domain.ProductKind{}).Count(&kinds).Error)
	assert.EqualValues(t, 5, stages)
	assert.EqualValues(t, len(seedKinds()), kinds)
}

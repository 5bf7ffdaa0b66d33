package db

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/routecard/internal/pkg/logger"
)

const (
	EngineSQLite   = "sqlite"
	EnginePostgres = "postgres"
)

// Config selects and tunes the backing store.
type Config struct {
	Engine   string
	Path     string
	DSN      string
	Pragmas  []string
	LogLevel string
}

// Opener (re)establishes a session against the configured store. The
// gateway calls it again with the same config after a lost connection.
type Opener func(ctx context.Context) (*gorm.DB, error)

// NewOpener validates cfg and returns an Opener bound to it.
func NewOpener(cfg Config, logg *logger.Logger) (Opener, error) {
	serviceLog := logg.With("service", "DBOpener", "engine", cfg.Engine)
	var dialector func() gorm.Dialector
	switch strings.ToLower(strings.TrimSpace(cfg.Engine)) {
	case "", EngineSQLite:
		if strings.TrimSpace(cfg.Path) == "" {
			return nil, fmt.Errorf("sqlite engine requires database.path")
		}
		dsn := sqliteDSN(cfg.Path, cfg.Pragmas)
		dialector = func() gorm.Dialector { return sqlite.Open(dsn) }
	case EnginePostgres:
		if strings.TrimSpace(cfg.DSN) == "" {
			return nil, fmt.Errorf("postgres engine requires database.dsn")
		}
		dsn := cfg.DSN
		dialector = func() gorm.Dialector { return postgres.Open(dsn) }
	default:
		return nil, fmt.Errorf("unknown database engine %q", cfg.Engine)
	}

	gormLog := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  gormLevel(cfg.LogLevel),
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	return func(ctx context.Context) (*gorm.DB, error) {
		conn, err := gorm.Open(dialector(), &gorm.Config{
			DisableForeignKeyConstraintWhenMigrating: true,
			Logger:                                   gormLog,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open %s store: %w", cfg.Engine, err)
		}
		sqlDB, err := conn.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sql handle: %w", err)
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("failed to reach %s store: %w", cfg.Engine, err)
		}
		serviceLog.Debug("store session opened", "path", cfg.Path)
		return conn, nil
	}, nil
}

// sqliteDSN turns "name = value" pragmas into go-sqlite3 "_name=value"
// connection parameters so every pooled connection gets them.
func sqliteDSN(path string, pragmas []string) string {
	if len(pragmas) == 0 {
		return path
	}
	params := url.Values{}
	for _, p := range pragmas {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}
		name := strings.TrimSpace(kv[0])
		value := strings.TrimSpace(kv[1])
		if name == "" || value == "" {
			continue
		}
		params.Set("_"+strings.TrimPrefix(name, "_"), value)
	}
	if len(params) == 0 {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	prefix := ""
	if !strings.HasPrefix(path, "file:") {
		prefix = "file:"
	}
	return prefix + path + sep + params.Encode()
}

func gormLevel(level string) gormLogger.LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "silent":
		return gormLogger.Silent
	case "error":
		return gormLogger.Error
	case "info":
		return gormLogger.Info
	default:
		return gormLogger.Warn
	}
}

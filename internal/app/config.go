package app

import (
	"time"

	"github.com/yungbote/routecard/internal/config"
	"github.com/yungbote/routecard/internal/data/db"
	"github.com/yungbote/routecard/internal/data/store"
	"github.com/yungbote/routecard/internal/hierarchy"
	"github.com/yungbote/routecard/internal/observability"
	"github.com/yungbote/routecard/internal/platform/envutil"
)

type Config struct {
	LogMode  string
	LogLevel string

	DB          db.Config
	AutoMigrate bool
	Retry       store.Policy
	// AutoRetry answers reconnect prompts when nobody is at a terminal.
	AutoRetry bool
	Hierarchy hierarchy.Options

	MetricsAddr     string
	Otel            observability.OtelConfig
	ShutdownTimeout time.Duration
}

func LoadConfig(src *config.Source) Config {
	def := store.DefaultPolicy()
	return Config{
		LogMode:  envutil.String("LOG_MODE", "development"),
		LogLevel: envutil.String("LOG_LEVEL", "info"),
		DB: db.Config{
			Engine:   src.String("database", "engine", db.EngineSQLite),
			Path:     src.String("database", "path", "routecard.db"),
			DSN:      src.String("database", "dsn", ""),
			Pragmas:  src.Strings("database", "pragmas", []string{"foreign_keys = ON", "journal_mode = WAL", "busy_timeout = 5000"}),
			LogLevel: src.String("database", "log_level", "warn"),
		},
		AutoMigrate: src.Bool("database", "auto_migrate", true),
		Retry: store.Policy{
			MaxAttempts:     src.Int("retry", "max_attempts", def.MaxAttempts),
			InitialInterval: src.Duration("retry", "initial_interval", def.InitialInterval),
			MaxInterval:     src.Duration("retry", "max_interval", def.MaxInterval),
		},
		AutoRetry: src.Bool("retry", "auto_confirm", envutil.Bool("CI", false)),
		Hierarchy: hierarchy.Options{
			MaxLevel:       src.Int("hierarchy", "max_level", hierarchy.DefaultMaxLevel),
			TreeDepthLimit: src.Int("hierarchy", "tree_depth_limit", hierarchy.DefaultTreeDepthLimit),
		},
		MetricsAddr: src.String("observability", "metrics_addr", ""),
		Otel: observability.OtelConfig{
			Enabled:     src.Bool("observability", "otel_enabled", false),
			ServiceName: "routecard",
			Environment: src.String("observability", "environment", "local"),
			Endpoint:    src.String("observability", "otel_endpoint", ""),
			Insecure:    src.Bool("observability", "otel_insecure", false),
			SampleRatio: src.Float("observability", "otel_sample_ratio", 1),
		},
		ShutdownTimeout: envutil.Duration("SHUTDOWN_TIMEOUT", 5*time.Second),
	}
}

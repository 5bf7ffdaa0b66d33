package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"gorm.io/gorm"

	"github.com/yungbote/routecard/internal/config"
	"github.com/yungbote/routecard/internal/data/db"
	"github.com/yungbote/routecard/internal/data/repos"
	"github.com/yungbote/routecard/internal/data/store"
	"github.com/yungbote/routecard/internal/observability"
	"github.com/yungbote/routecard/internal/pkg/logger"
	"github.com/yungbote/routecard/internal/progress"
)

type App struct {
	Log      *logger.Logger
	Cfg      Config
	Gateway  *store.Gateway
	Repos    *repos.Set
	Services Services
	Metrics  *observability.Metrics
	Reporter progress.Reporter

	cancel       context.CancelFunc
	otelShutdown func(context.Context) error
}

type Options struct {
	ConfigPath string
	// Out receives progress lines; stderr when nil.
	Out io.Writer
}

func New(ctx context.Context, opts Options) (*App, error) {
	src, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg := LoadConfig(src)

	log, err := logger.NewWithLevel(cfg.LogMode, cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	log.Info("Loaded configuration", "path", src.Path(), "engine", cfg.DB.Engine)

	runCtx, cancel := context.WithCancel(ctx)
	a := &App{Log: log, Cfg: cfg, cancel: cancel}

	a.Metrics = observability.Init(cfg.MetricsAddr != "")
	a.Metrics.StartServer(runCtx, log, cfg.MetricsAddr)
	a.otelShutdown = observability.InitOTel(runCtx, log, cfg.Otel)

	out := opts.Out
	if out == nil {
		out = os.Stderr
	}
	a.Reporter = progress.NewTerminalReporter(out, log, cfg.AutoRetry)

	opener, err := db.NewOpener(cfg.DB, log)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Gateway, err = store.NewGateway(ctx, log, opener, cfg.Retry, a.Reporter, a.Metrics)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open store: %w", err)
	}
	if cfg.AutoMigrate {
		if err := a.Migrate(ctx); err != nil {
			a.Close()
			return nil, err
		}
	}

	a.Repos, err = wireRepos(ctx, a.Gateway, log, a.Metrics)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Services = wireServices(cfg, a.Gateway, a.Repos, a.Reporter, log, a.Metrics)
	return a, nil
}

// Migrate brings the schema up to date and seeds the reference rows.
func (a *App) Migrate(ctx context.Context) error {
	a.Log.Info("Migrating schema...")
	return a.Gateway.Query(ctx, "migrate", func(conn *gorm.DB) error {
		if err := db.AutoMigrateAll(conn); err != nil {
			return err
		}
		return db.Seed(conn)
	})
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.Gateway != nil {
		if err := a.Gateway.Close(); err != nil {
			a.Log.Warn("close store", "error", err)
		}
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), a.Cfg.ShutdownTimeout)
		_ = a.otelShutdown(ctx)
		cancel()
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}

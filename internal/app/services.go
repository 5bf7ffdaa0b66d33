package app

import (
	"github.com/yungbote/routecard/internal/data/repos"
	"github.com/yungbote/routecard/internal/data/store"
	"github.com/yungbote/routecard/internal/facade"
	"github.com/yungbote/routecard/internal/hierarchy"
	"github.com/yungbote/routecard/internal/importer"
	"github.com/yungbote/routecard/internal/observability"
	"github.com/yungbote/routecard/internal/pkg/logger"
	"github.com/yungbote/routecard/internal/progress"
)

type Services struct {
	Builder   *facade.Builder
	Hierarchy hierarchy.Service
	Importer  *importer.Importer
}

func wireServices(
	cfg Config,
	gw *store.Gateway,
	set *repos.Set,
	reporter progress.Reporter,
	log *logger.Logger,
	metrics *observability.Metrics,
) Services {
	log.Info("Wiring services...")
	builder := facade.NewBuilder(set)
	hier := hierarchy.NewService(gw, builder, reporter, log, metrics, cfg.Hierarchy)
	return Services{
		Builder:   builder,
		Hierarchy: hier,
		Importer:  importer.New(set, hier, reporter, log, metrics),
	}
}

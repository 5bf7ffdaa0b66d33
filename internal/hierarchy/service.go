// Package hierarchy walks, rewrites and materializes the product
// composition graph stored in the hierarchy table.
package hierarchy

import (
	"context"

	"github.com/yungbote/routecard/internal/data/repos"
	"github.com/yungbote/routecard/internal/data/store"
	"github.com/yungbote/routecard/internal/facade"
	"github.com/yungbote/routecard/internal/observability"
	"github.com/yungbote/routecard/internal/pkg/logger"
	"github.com/yungbote/routecard/internal/progress"
)

type Service interface {
	Closure(ctx context.Context, rootID uint, dir Direction) ([]Row, error)
	Reconcile(ctx context.Context, parentID uint, targets []Target) (*ReconcileResult, error)
	Materialize(ctx context.Context, root *facade.Product, dir Direction) ([]*Branch, error)
	WhereUsed(ctx context.Context, product *facade.Product) ([]*Branch, error)
	Tree(ctx context.Context, root *facade.Product) (*Node, error)
}

type Options struct {
	MaxLevel       int
	TreeDepthLimit int
}

type service struct {
	gw       *store.Gateway
	repos    *repos.Set
	builder  *facade.Builder
	reporter progress.Reporter
	log      *logger.Logger
	metrics  *observability.Metrics

	maxLevel   int
	depthLimit int
}

func NewService(
	gw *store.Gateway,
	builder *facade.Builder,
	reporter progress.Reporter,
	log *logger.Logger,
	metrics *observability.Metrics,
	opts Options,
) Service {
	serviceLog := log.With("service", "HierarchyService")
	if reporter == nil {
		reporter = progress.NewLogReporter(serviceLog, false)
	}
	if opts.MaxLevel <= 0 {
		opts.MaxLevel = DefaultMaxLevel
	}
	if opts.TreeDepthLimit <= 0 {
		opts.TreeDepthLimit = DefaultTreeDepthLimit
	}
	return &service{
		gw:         gw,
		repos:      builder.Repos(),
		builder:    builder,
		reporter:   reporter,
		log:        serviceLog,
		metrics:    metrics,
		maxLevel:   opts.MaxLevel,
		depthLimit: opts.TreeDepthLimit,
	}
}

// warn reports a traversal problem to the operator and counts it.
func (s *service) warn(reason, message string) {
	s.log.Warn("hierarchy warning", "reason", reason, "message", message)
	s.metrics.IncHierarchyWarning(reason)
	s.reporter.Warn(message)
}

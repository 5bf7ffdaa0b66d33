package app

import (
	"context"
	"fmt"

	"github.com/yungbote/routecard/internal/data/repos"
	"github.com/yungbote/routecard/internal/data/store"
	"github.com/yungbote/routecard/internal/observability"
	"github.com/yungbote/routecard/internal/pkg/logger"
)

func wireRepos(ctx context.Context, gw *store.Gateway, log *logger.Logger, metrics *observability.Metrics) (*repos.Set, error) {
	log.Info("Wiring repos...")
	set := repos.NewSet(gw, log, metrics)
	if err := set.Warm(ctx); err != nil {
		return nil, fmt.Errorf("warm caches: %w", err)
	}
	return set, nil
}

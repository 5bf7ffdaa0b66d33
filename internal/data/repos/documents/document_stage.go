package documents

import (
	"context"

	"gorm.io/gorm"

	"github.com/yungbote/routecard/internal/data/cache"
	"github.com/yungbote/routecard/internal/data/repos/base"
	"github.com/yungbote/routecard/internal/data/store"
	"github.com/yungbote/routecard/internal/domain"
	"github.com/yungbote/routecard/internal/observability"
	"github.com/yungbote/routecard/internal/pkg/logger"
)

type DocumentStageRepo interface {
	base.Common[domain.DocumentStage]
	GetByName(ctx context.Context, name string, opts ...base.GetOption) (*domain.DocumentStage, error)
}

type documentStageRepo struct {
	*base.Repo[domain.DocumentStage]
	byName *cache.Index[string, domain.DocumentStage]
}

func NewDocumentStageRepo(gw *store.Gateway, baseLog *logger.Logger, metrics *observability.Metrics) DocumentStageRepo {
	b := base.New[domain.DocumentStage]("document_stage", gw, func(s *domain.DocumentStage) uint { return s.ID }, baseLog.With("repo", "DocumentStageRepo"), metrics)
	return &documentStageRepo{
		Repo: b,
		byName: cache.WithIndex(b.Cache(), cache.NewIndex("name", func(s *domain.DocumentStage) (string, bool) {
			return s.Name, s.Name != ""
		})),
	}
}

func (r *documentStageRepo) GetByName(ctx context.Context, name string, opts ...base.GetOption) (*domain.DocumentStage, error) {
	return base.Lookup(ctx, r.Repo, r.byName, name, func(conn *gorm.DB) *gorm.DB {
		return conn.Where("name = ?", name)
	}, opts...)
}

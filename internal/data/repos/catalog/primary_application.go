package catalog

import (
	"context"

	"gorm.io/gorm"

	"github.com/yungbote/routecard/internal/data/cache"
	"github.com/yungbote/routecard/internal/data/repos/base"
	"github.com/yungbote/routecard/internal/data/store"
	"github.com/yungbote/routecard/internal/domain"
	"github.com/yungbote/routecard/internal/observability"
	"github.com/yungbote/routecard/internal/pkg/dbctx"
	"github.com/yungbote/routecard/internal/pkg/logger"
)

type PrimaryApplicationRepo interface {
	base.Common[domain.PrimaryApplication]
	GetByChild(ctx context.Context, childID uint, opts ...base.GetOption) (*domain.PrimaryApplication, error)
	// SetPrimary makes parentID the primary usage of childID, replacing any
	// earlier choice.
	SetPrimary(dbc dbctx.Context, childID, parentID uint) (*domain.PrimaryApplication, error)
}

type primaryApplicationRepo struct {
	*base.Repo[domain.PrimaryApplication]
	byChild *cache.Index[uint, domain.PrimaryApplication]
}

func NewPrimaryApplicationRepo(gw *store.Gateway, baseLog *logger.Logger, metrics *observability.Metrics) PrimaryApplicationRepo {
	b := base.New[domain.PrimaryApplication]("primary_application", gw, func(p *domain.PrimaryApplication) uint { return p.ID }, baseLog.With("repo", "PrimaryApplicationRepo"), metrics)
	return &primaryApplicationRepo{
		Repo: b,
		byChild: cache.WithIndex(b.Cache(), cache.NewIndex("child", func(p *domain.PrimaryApplication) (uint, bool) {
			return p.ChildID, p.ChildID != 0
		})),
	}
}

func (r *primaryApplicationRepo) GetByChild(ctx context.Context, childID uint, opts ...base.GetOption) (*domain.PrimaryApplication, error) {
	if childID == 0 {
		return nil, nil
	}
	return base.Lookup(ctx, r.Repo, r.byChild, childID, func(conn *gorm.DB) *gorm.DB {
		return conn.Where("child_id = ?", childID)
	}, opts...)
}

func (r *primaryApplicationRepo) SetPrimary(dbc dbctx.Context, childID, parentID uint) (*domain.PrimaryApplication, error) {
	return r.Write(dbc, "set_primary", func(tx dbctx.Context) (*domain.PrimaryApplication, error) {
		return base.Upsert(tx,
			func(conn *gorm.DB) *gorm.DB { return conn.Where("child_id = ?", childID) },
			func() *domain.PrimaryApplication {
				return &domain.PrimaryApplication{ChildID: childID, ParentID: parentID}
			},
			func(p *domain.PrimaryApplication) bool {
				if p.ParentID == parentID {
					return false
				}
				p.ParentID = parentID
				return true
			},
		)
	})
}

package catalog

import (
	"context"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/routecard/internal/data/cache"
	"github.com/yungbote/routecard/internal/data/repos/base"
	"github.com/yungbote/routecard/internal/data/store"
	"github.com/yungbote/routecard/internal/domain"
	"github.com/yungbote/routecard/internal/normalization"
	"github.com/yungbote/routecard/internal/observability"
	"github.com/yungbote/routecard/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/routecard/internal/pkg/errors"
	"github.com/yungbote/routecard/internal/pkg/logger"
)

type ProductKindRepo interface {
	base.Common[domain.ProductKind]
	GetByName(ctx context.Context, name string, opts ...base.GetOption) (*domain.ProductKind, error)
	AddOrUpdate(dbc dbctx.Context, name, longName string, cases map[string]string) (*domain.ProductKind, error)
}

type productKindRepo struct {
	*base.Repo[domain.ProductKind]
	byName *cache.Index[string, domain.ProductKind]
}

func NewProductKindRepo(gw *store.Gateway, baseLog *logger.Logger, metrics *observability.Metrics) ProductKindRepo {
	b := base.New[domain.ProductKind]("product_kind", gw, func(k *domain.ProductKind) uint { return k.ID }, baseLog.With("repo", "ProductKindRepo"), metrics)
	return &productKindRepo{
		Repo: b,
		byName: cache.WithIndex(b.Cache(), cache.NewIndex("name", func(k *domain.ProductKind) (string, bool) {
			return k.Name, k.Name != ""
		})),
	}
}

func (r *productKindRepo) GetByName(ctx context.Context, name string, opts ...base.GetOption) (*domain.ProductKind, error) {
	name = normalization.Key(name)
	if name == "" {
		return nil, nil
	}
	return base.Lookup(ctx, r.Repo, r.byName, name, func(conn *gorm.DB) *gorm.DB {
		return conn.Where("name = ?", name)
	}, opts...)
}

func (r *productKindRepo) AddOrUpdate(dbc dbctx.Context, name, longName string, cases map[string]string) (*domain.ProductKind, error) {
	name = normalization.Key(name)
	if name == "" {
		return nil, fmt.Errorf("%w: product kind name is empty", pkgerrors.ErrInvalidArgument)
	}
	caseMap := datatypes.JSONMap{}
	for k, v := range cases {
		caseMap[k] = v
	}
	return r.Write(dbc, "add_or_update", func(tx dbctx.Context) (*domain.ProductKind, error) {
		return base.Upsert(tx,
			func(conn *gorm.DB) *gorm.DB { return conn.Where("name = ?", name) },
			func() *domain.ProductKind {
				return &domain.ProductKind{Name: name, LongName: longName, Cases: caseMap}
			},
			func(k *domain.ProductKind) bool {
				changed := false
				if longName != "" && longName != k.LongName {
					k.LongName = longName
					changed = true
				}
				if len(caseMap) > 0 {
					k.Cases = caseMap
					changed = true
				}
				return changed
			},
		)
	})
}

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

// HierarchyRepo owns parent->child edges. Writes made inside a caller's
// transaction leave the cache alone; the caller reports committed rows
// back through Add and Remove.
type HierarchyRepo interface {
	base.Common[domain.Hierarchy]
	GetByPair(ctx context.Context, childID, parentID uint, opts ...base.GetOption) (*domain.Hierarchy, error)
	ListByParent(dbc dbctx.Context, parentID uint) ([]*domain.Hierarchy, error)
	ListByChild(ctx context.Context, childID uint) ([]*domain.Hierarchy, error)
	Create(dbc dbctx.Context, rows []*domain.Hierarchy) ([]*domain.Hierarchy, error)
	Save(dbc dbctx.Context, rows []*domain.Hierarchy) error
	DeleteByPairs(dbc dbctx.Context, parentID uint, childIDs []uint) (int64, error)
}

type hierarchyRepo struct {
	*base.Repo[domain.Hierarchy]
	byPair *cache.Index[domain.PairKey, domain.Hierarchy]
}

func NewHierarchyRepo(gw *store.Gateway, baseLog *logger.Logger, metrics *observability.Metrics) HierarchyRepo {
	b := base.New[domain.Hierarchy]("hierarchy", gw, func(h *domain.Hierarchy) uint { return h.ID }, baseLog.With("repo", "HierarchyRepo"), metrics)
	return &hierarchyRepo{
		Repo: b,
		byPair: cache.WithIndex(b.Cache(), cache.NewIndex("pair", func(h *domain.Hierarchy) (domain.PairKey, bool) {
			return h.Pair(), h.ChildID != 0 && h.ParentID != 0
		})),
	}
}

func (r *hierarchyRepo) GetByPair(ctx context.Context, childID, parentID uint, opts ...base.GetOption) (*domain.Hierarchy, error) {
	if childID == 0 || parentID == 0 {
		return nil, nil
	}
	key := domain.PairKey{ChildID: childID, ParentID: parentID}
	return base.Lookup(ctx, r.Repo, r.byPair, key, func(conn *gorm.DB) *gorm.DB {
		return conn.Where("child_id = ? AND parent_id = ?", childID, parentID)
	}, opts...)
}

// ListByParent returns the persisted children edges of parentID ordered by
// id. Inside a transaction the rows are read through it and are not the
// cached instances.
func (r *hierarchyRepo) ListByParent(dbc dbctx.Context, parentID uint) ([]*domain.Hierarchy, error) {
	if dbc.InTx() {
		var rows []*domain.Hierarchy
		if err := dbc.Tx.WithContext(dbc.Context()).
			Where("parent_id = ?", parentID).
			Order("id ASC").
			Find(&rows).Error; err != nil {
			return nil, err
		}
		return rows, nil
	}
	return r.List(dbc.Context(), "list_by_parent", func(conn *gorm.DB) *gorm.DB {
		return conn.Where("parent_id = ?", parentID).Order("id ASC")
	})
}

func (r *hierarchyRepo) ListByChild(ctx context.Context, childID uint) ([]*domain.Hierarchy, error) {
	return r.List(ctx, "list_by_child", func(conn *gorm.DB) *gorm.DB {
		return conn.Where("child_id = ?", childID).Order("id ASC")
	})
}

func (r *hierarchyRepo) Create(dbc dbctx.Context, rows []*domain.Hierarchy) ([]*domain.Hierarchy, error) {
	if len(rows) == 0 {
		return []*domain.Hierarchy{}, nil
	}
	for _, row := range rows {
		if row.Unit == "" {
			row.Unit = domain.UnitPiece
		}
	}
	committed, err := r.Exec(dbc, "create", func(tx dbctx.Context) error {
		for _, row := range rows {
			row.ID = 0
		}
		return tx.Tx.WithContext(tx.Context()).Create(&rows).Error
	})
	if err != nil {
		return nil, err
	}
	if committed {
		for i, row := range rows {
			rows[i] = r.Add(row)
		}
	}
	return rows, nil
}

func (r *hierarchyRepo) Save(dbc dbctx.Context, rows []*domain.Hierarchy) error {
	if len(rows) == 0 {
		return nil
	}
	committed, err := r.Exec(dbc, "save", func(tx dbctx.Context) error {
		for _, row := range rows {
			if err := tx.Tx.WithContext(tx.Context()).Save(row).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if committed {
		for _, row := range rows {
			r.Add(row)
		}
	}
	return nil
}

// DeleteByPairs removes the edges from parentID to each of childIDs. Rows
// are matched by their endpoints, not by surrogate id.
func (r *hierarchyRepo) DeleteByPairs(dbc dbctx.Context, parentID uint, childIDs []uint) (int64, error) {
	if len(childIDs) == 0 {
		return 0, nil
	}
	var affected int64
	committed, err := r.Exec(dbc, "delete_by_pairs", func(tx dbctx.Context) error {
		res := tx.Tx.WithContext(tx.Context()).
			Where("parent_id = ? AND child_id IN ?", parentID, childIDs).
			Delete(&domain.Hierarchy{})
		affected = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return 0, err
	}
	if committed {
		for _, childID := range childIDs {
			if edge, ok := r.byPair.Get(domain.PairKey{ChildID: childID, ParentID: parentID}); ok {
				r.Remove(edge.ID)
			}
		}
	}
	return affected, nil
}

package routing

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/yungbote/routecard/internal/data/cache"
	"github.com/yungbote/routecard/internal/data/repos/base"
	"github.com/yungbote/routecard/internal/data/store"
	"github.com/yungbote/routecard/internal/domain"
	"github.com/yungbote/routecard/internal/observability"
	"github.com/yungbote/routecard/internal/pkg/dbctx"
	"github.com/yungbote/routecard/internal/pkg/logger"
)

type OperationInput struct {
	DocumentID   uint   `json:"document_id" yaml:"document_id" validate:"required"`
	OrderNum     int    `json:"order" yaml:"order" validate:"gte=0"`
	Name         string `json:"name" yaml:"name" validate:"required"`
	Workshop     string `json:"workshop" yaml:"workshop"`
	Area         string `json:"area" yaml:"area"`
	ProfessionID *uint  `json:"profession_id,omitempty" yaml:"profession_id"`
}

// OperationRepo keys operations by their route card document and order.
type OperationRepo interface {
	base.Common[domain.Operation]
	GetByOrder(ctx context.Context, documentID uint, orderNum int, opts ...base.GetOption) (*domain.Operation, error)
	ListByDocument(ctx context.Context, documentID uint) ([]*domain.Operation, error)
	AddOrUpdate(dbc dbctx.Context, in OperationInput) (*domain.Operation, error)
	AddMany(ctx context.Context, inputs map[string]OperationInput) (map[string]*domain.Operation, error)
}

type operationRepo struct {
	*base.Repo[domain.Operation]
	byOrder *cache.Index[domain.OperationKey, domain.Operation]
}

func NewOperationRepo(gw *store.Gateway, baseLog *logger.Logger, metrics *observability.Metrics) OperationRepo {
	b := base.New[domain.Operation]("operation", gw, func(o *domain.Operation) uint { return o.ID }, baseLog.With("repo", "OperationRepo"), metrics)
	return &operationRepo{
		Repo: b,
		byOrder: cache.WithIndex(b.Cache(), cache.NewIndex("order", func(o *domain.Operation) (domain.OperationKey, bool) {
			return domain.OperationKey{DocumentID: o.DocumentID, OrderNum: o.OrderNum}, o.DocumentID != 0
		})),
	}
}

func (r *operationRepo) GetByOrder(ctx context.Context, documentID uint, orderNum int, opts ...base.GetOption) (*domain.Operation, error) {
	key := domain.OperationKey{DocumentID: documentID, OrderNum: orderNum}
	return base.Lookup(ctx, r.Repo, r.byOrder, key, func(conn *gorm.DB) *gorm.DB {
		return conn.Where("document_id = ? AND order_num = ?", documentID, orderNum)
	}, opts...)
}

func (r *operationRepo) ListByDocument(ctx context.Context, documentID uint) ([]*domain.Operation, error) {
	return r.List(ctx, "list_by_document", func(conn *gorm.DB) *gorm.DB {
		return conn.Where("document_id = ?", documentID).Order("order_num ASC, id ASC")
	})
}

func (r *operationRepo) AddOrUpdate(dbc dbctx.Context, in OperationInput) (*domain.Operation, error) {
	if err := base.Validate(in); err != nil {
		return nil, err
	}
	return r.Write(dbc, "add_or_update", func(tx dbctx.Context) (*domain.Operation, error) {
		return r.upsert(tx, in)
	})
}

func (r *operationRepo) AddMany(ctx context.Context, inputs map[string]OperationInput) (map[string]*domain.Operation, error) {
	for _, in := range inputs {
		if err := base.Validate(in); err != nil {
			return nil, err
		}
	}
	return base.AddMany(ctx, r.Repo, "add_many", inputs, r.upsert)
}

func (r *operationRepo) upsert(tx dbctx.Context, in OperationInput) (*domain.Operation, error) {
	name := strings.TrimSpace(in.Name)
	return base.Upsert(tx,
		func(conn *gorm.DB) *gorm.DB {
			return conn.Where("document_id = ? AND order_num = ?", in.DocumentID, in.OrderNum)
		},
		func() *domain.Operation {
			return &domain.Operation{
				DocumentID:   in.DocumentID,
				OrderNum:     in.OrderNum,
				Name:         name,
				Workshop:     in.Workshop,
				Area:         in.Area,
				ProfessionID: in.ProfessionID,
			}
		},
		func(o *domain.Operation) bool {
			changed := false
			if name != o.Name {
				o.Name = name
				changed = true
			}
			if in.Workshop != "" && in.Workshop != o.Workshop {
				o.Workshop = in.Workshop
				changed = true
			}
			if in.Area != "" && in.Area != o.Area {
				o.Area = in.Area
				changed = true
			}
			if in.ProfessionID != nil && (o.ProfessionID == nil || *o.ProfessionID != *in.ProfessionID) {
				id := *in.ProfessionID
				o.ProfessionID = &id
				changed = true
			}
			return changed
		},
	)
}

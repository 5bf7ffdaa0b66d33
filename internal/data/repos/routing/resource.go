package routing

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/routecard/internal/data/cache"
	"github.com/yungbote/routecard/internal/data/repos/base"
	"github.com/yungbote/routecard/internal/data/store"
	"github.com/yungbote/routecard/internal/domain"
	"github.com/yungbote/routecard/internal/observability"
	"github.com/yungbote/routecard/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/routecard/internal/pkg/errors"
	"github.com/yungbote/routecard/internal/pkg/logger"
)

// ResourceKinds lists the kinds an operation can consume.
var ResourceKinds = []string{domain.ResourceMaterial, domain.ResourceRig, domain.ResourceEquipment, domain.ResourceIOT}

func checkResourceKind(kind string) error {
	for _, k := range ResourceKinds {
		if k == kind {
			return nil
		}
	}
	return fmt.Errorf("%w: unknown resource kind %q", pkgerrors.ErrInvalidArgument, kind)
}

// ResourceInput is one resource bound to an operation.
type ResourceInput struct {
	Key      domain.ResourceKey
	Quantity float64
	Unit     string
}

// DefaultInput is one default resource of an operation name.
type DefaultInput struct {
	Key      domain.DefaultKey
	Quantity float64
	Unit     string
}

// OperationResourceRepo holds the resources bound to a single operation.
type OperationResourceRepo interface {
	base.Common[domain.OperationResource]
	GetByKey(ctx context.Context, key domain.ResourceKey, opts ...base.GetOption) (*domain.OperationResource, error)
	ListByOperation(ctx context.Context, operationID uint) ([]*domain.OperationResource, error)
	AddOrUpdate(dbc dbctx.Context, key domain.ResourceKey, quantity float64, unit string) (*domain.OperationResource, error)
	AddMany(ctx context.Context, inputs map[string]ResourceInput) (map[string]*domain.OperationResource, error)
}

type operationResourceRepo struct {
	*base.Repo[domain.OperationResource]
	byKey *cache.Index[domain.ResourceKey, domain.OperationResource]
}

func NewOperationResourceRepo(gw *store.Gateway, baseLog *logger.Logger, metrics *observability.Metrics) OperationResourceRepo {
	b := base.New[domain.OperationResource]("operation_resource", gw, func(o *domain.OperationResource) uint { return o.ID }, baseLog.With("repo", "OperationResourceRepo"), metrics)
	return &operationResourceRepo{
		Repo: b,
		byKey: cache.WithIndex(b.Cache(), cache.NewIndex("key", func(o *domain.OperationResource) (domain.ResourceKey, bool) {
			return domain.ResourceKey{OperationID: o.OperationID, ResourceKind: o.ResourceKind, ResourceID: o.ResourceID}, o.OperationID != 0
		})),
	}
}

func (r *operationResourceRepo) GetByKey(ctx context.Context, key domain.ResourceKey, opts ...base.GetOption) (*domain.OperationResource, error) {
	return base.Lookup(ctx, r.Repo, r.byKey, key, func(conn *gorm.DB) *gorm.DB {
		return conn.Where("operation_id = ? AND resource_kind = ? AND resource_id = ?", key.OperationID, key.ResourceKind, key.ResourceID)
	}, opts...)
}

func (r *operationResourceRepo) ListByOperation(ctx context.Context, operationID uint) ([]*domain.OperationResource, error) {
	return r.List(ctx, "list_by_operation", func(conn *gorm.DB) *gorm.DB {
		return conn.Where("operation_id = ?", operationID).Order("id ASC")
	})
}

func (r *operationResourceRepo) AddOrUpdate(dbc dbctx.Context, key domain.ResourceKey, quantity float64, unit string) (*domain.OperationResource, error) {
	in := ResourceInput{Key: key, Quantity: quantity, Unit: unit}
	if err := checkResource(in); err != nil {
		return nil, err
	}
	return r.Write(dbc, "add_or_update", func(tx dbctx.Context) (*domain.OperationResource, error) {
		return r.upsert(tx, in)
	})
}

func (r *operationResourceRepo) AddMany(ctx context.Context, inputs map[string]ResourceInput) (map[string]*domain.OperationResource, error) {
	for _, in := range inputs {
		if err := checkResource(in); err != nil {
			return nil, err
		}
	}
	return base.AddMany(ctx, r.Repo, "add_many", inputs, r.upsert)
}

func checkResource(in ResourceInput) error {
	if in.Key.OperationID == 0 {
		return fmt.Errorf("%w: resource without operation", pkgerrors.ErrInvalidArgument)
	}
	return checkResourceKind(in.Key.ResourceKind)
}

func (r *operationResourceRepo) upsert(tx dbctx.Context, in ResourceInput) (*domain.OperationResource, error) {
	key := in.Key
	return base.Upsert(tx,
		func(conn *gorm.DB) *gorm.DB {
			return conn.Where("operation_id = ? AND resource_kind = ? AND resource_id = ?", key.OperationID, key.ResourceKind, key.ResourceID)
		},
		func() *domain.OperationResource {
			return &domain.OperationResource{
				OperationID:  key.OperationID,
				ResourceKind: key.ResourceKind,
				ResourceID:   key.ResourceID,
				Quantity:     in.Quantity,
				Unit:         in.Unit,
			}
		},
		func(o *domain.OperationResource) bool {
			if o.Quantity == in.Quantity && o.Unit == in.Unit {
				return false
			}
			o.Quantity, o.Unit = in.Quantity, in.Unit
			return true
		},
	)
}

// OperationDefaultRepo holds the resources every operation of a given
// name receives by default.
type OperationDefaultRepo interface {
	base.Common[domain.OperationDefault]
	GetByKey(ctx context.Context, key domain.DefaultKey, opts ...base.GetOption) (*domain.OperationDefault, error)
	ListByOperationName(ctx context.Context, name string) ([]*domain.OperationDefault, error)
	AddOrUpdate(dbc dbctx.Context, key domain.DefaultKey, quantity float64, unit string) (*domain.OperationDefault, error)
	AddMany(ctx context.Context, inputs map[string]DefaultInput) (map[string]*domain.OperationDefault, error)
}

type operationDefaultRepo struct {
	*base.Repo[domain.OperationDefault]
	byKey *cache.Index[domain.DefaultKey, domain.OperationDefault]
}

func NewOperationDefaultRepo(gw *store.Gateway, baseLog *logger.Logger, metrics *observability.Metrics) OperationDefaultRepo {
	b := base.New[domain.OperationDefault]("operation_default", gw, func(o *domain.OperationDefault) uint { return o.ID }, baseLog.With("repo", "OperationDefaultRepo"), metrics)
	return &operationDefaultRepo{
		Repo: b,
		byKey: cache.WithIndex(b.Cache(), cache.NewIndex("key", func(o *domain.OperationDefault) (domain.DefaultKey, bool) {
			return domain.DefaultKey{OperationName: o.OperationName, ResourceKind: o.ResourceKind, ResourceID: o.ResourceID}, o.OperationName != ""
		})),
	}
}

func (r *operationDefaultRepo) GetByKey(ctx context.Context, key domain.DefaultKey, opts ...base.GetOption) (*domain.OperationDefault, error) {
	return base.Lookup(ctx, r.Repo, r.byKey, key, func(conn *gorm.DB) *gorm.DB {
		return conn.Where("operation_name = ? AND resource_kind = ? AND resource_id = ?", key.OperationName, key.ResourceKind, key.ResourceID)
	}, opts...)
}

func (r *operationDefaultRepo) ListByOperationName(ctx context.Context, name string) ([]*domain.OperationDefault, error) {
	return r.List(ctx, "list_by_operation_name", func(conn *gorm.DB) *gorm.DB {
		return conn.Where("operation_name = ?", name).Order("id ASC")
	})
}

func (r *operationDefaultRepo) AddOrUpdate(dbc dbctx.Context, key domain.DefaultKey, quantity float64, unit string) (*domain.OperationDefault, error) {
	in := DefaultInput{Key: key, Quantity: quantity, Unit: unit}
	if err := checkDefault(in); err != nil {
		return nil, err
	}
	return r.Write(dbc, "add_or_update", func(tx dbctx.Context) (*domain.OperationDefault, error) {
		return r.upsert(tx, in)
	})
}

func (r *operationDefaultRepo) AddMany(ctx context.Context, inputs map[string]DefaultInput) (map[string]*domain.OperationDefault, error) {
	for _, in := range inputs {
		if err := checkDefault(in); err != nil {
			return nil, err
		}
	}
	return base.AddMany(ctx, r.Repo, "add_many", inputs, r.upsert)
}

func checkDefault(in DefaultInput) error {
	if err := checkResourceKind(in.Key.ResourceKind); err != nil {
		return err
	}
	if in.Key.OperationName == "" {
		return fmt.Errorf("%w: operation name is empty", pkgerrors.ErrInvalidArgument)
	}
	return nil
}

func (r *operationDefaultRepo) upsert(tx dbctx.Context, in DefaultInput) (*domain.OperationDefault, error) {
	key := in.Key
	return base.Upsert(tx,
		func(conn *gorm.DB) *gorm.DB {
			return conn.Where("operation_name = ? AND resource_kind = ? AND resource_id = ?", key.OperationName, key.ResourceKind, key.ResourceID)
		},
		func() *domain.OperationDefault {
			return &domain.OperationDefault{
				OperationName: key.OperationName,
				ResourceKind:  key.ResourceKind,
				ResourceID:    key.ResourceID,
				Quantity:      in.Quantity,
				Unit:          in.Unit,
			}
		},
		func(o *domain.OperationDefault) bool {
			if o.Quantity == in.Quantity && o.Unit == in.Unit {
				return false
			}
			o.Quantity, o.Unit = in.Quantity, in.Unit
			return true
		},
	)
}

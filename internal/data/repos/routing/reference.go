package routing

import (
	"context"
	"fmt"
	"strings"

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

// ReferenceRepo is the shape of the lookup tables keyed by a single
// string column: materials, rigs, equipment, safety instructions,
// professions and users.
type ReferenceRepo[T any] interface {
	base.Common[T]
	GetByKey(ctx context.Context, key string, opts ...base.GetOption) (*T, error)
	// AddOrUpdate upserts row by its key. Non-empty fields of row replace
	// the stored ones.
	AddOrUpdate(dbc dbctx.Context, row *T) (*T, error)
	AddMany(ctx context.Context, rows map[string]*T) (map[string]*T, error)
}

type MaterialRepo = ReferenceRepo[domain.Material]
type RigRepo = ReferenceRepo[domain.Rig]
type EquipmentRepo = ReferenceRepo[domain.Equipment]
type IOTRepo = ReferenceRepo[domain.IOT]
type ProfessionRepo = ReferenceRepo[domain.Profession]
type UserRepo = ReferenceRepo[domain.User]

type referenceRepo[T any] struct {
	*base.Repo[T]
	column string
	keyOf  func(*T) string
	merge  func(dst, src *T) bool
	byKey  *cache.Index[string, T]
}

func newReferenceRepo[T any](kind, column string, gw *store.Gateway, log *logger.Logger, metrics *observability.Metrics, idOf func(*T) uint, keyOf func(*T) string, merge func(dst, src *T) bool) *referenceRepo[T] {
	b := base.New[T](kind, gw, idOf, log, metrics)
	return &referenceRepo[T]{
		Repo:   b,
		column: column,
		keyOf:  keyOf,
		merge:  merge,
		byKey: cache.WithIndex(b.Cache(), cache.NewIndex(column, func(item *T) (string, bool) {
			k := keyOf(item)
			return k, k != ""
		})),
	}
}

func (r *referenceRepo[T]) GetByKey(ctx context.Context, key string, opts ...base.GetOption) (*T, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, nil
	}
	return base.Lookup(ctx, r.Repo, r.byKey, key, func(conn *gorm.DB) *gorm.DB {
		return conn.Where(r.column+" = ?", key)
	}, opts...)
}

func (r *referenceRepo[T]) AddOrUpdate(dbc dbctx.Context, row *T) (*T, error) {
	if err := r.check(row); err != nil {
		return nil, err
	}
	return r.Write(dbc, "add_or_update", func(tx dbctx.Context) (*T, error) {
		return r.upsert(tx, row)
	})
}

func (r *referenceRepo[T]) AddMany(ctx context.Context, rows map[string]*T) (map[string]*T, error) {
	for _, row := range rows {
		if err := r.check(row); err != nil {
			return nil, err
		}
	}
	return base.AddMany(ctx, r.Repo, "add_many", rows, r.upsert)
}

func (r *referenceRepo[T]) check(row *T) error {
	if row == nil {
		return fmt.Errorf("%w: nil %s", pkgerrors.ErrInvalidArgument, r.Kind())
	}
	if strings.TrimSpace(r.keyOf(row)) == "" {
		return fmt.Errorf("%w: %s %s is empty", pkgerrors.ErrInvalidArgument, r.Kind(), r.column)
	}
	return nil
}

func (r *referenceRepo[T]) upsert(tx dbctx.Context, row *T) (*T, error) {
	key := strings.TrimSpace(r.keyOf(row))
	return base.Upsert(tx,
		func(conn *gorm.DB) *gorm.DB { return conn.Where(r.column+" = ?", key) },
		func() *T {
			fresh := *row
			return &fresh
		},
		func(existing *T) bool { return r.merge(existing, row) },
	)
}

func setString(dst *string, v string) bool {
	if v == "" || v == *dst {
		return false
	}
	*dst = v
	return true
}

func NewMaterialRepo(gw *store.Gateway, baseLog *logger.Logger, metrics *observability.Metrics) MaterialRepo {
	return newReferenceRepo("material", "name", gw, baseLog.With("repo", "MaterialRepo"), metrics,
		func(m *domain.Material) uint { return m.ID },
		func(m *domain.Material) string { return m.Name },
		func(dst, src *domain.Material) bool {
			a := setString(&dst.Standard, src.Standard)
			b := setString(&dst.Unit, src.Unit)
			return a || b
		},
	)
}

func NewRigRepo(gw *store.Gateway, baseLog *logger.Logger, metrics *observability.Metrics) RigRepo {
	return newReferenceRepo("rig", "name", gw, baseLog.With("repo", "RigRepo"), metrics,
		func(r *domain.Rig) uint { return r.ID },
		func(r *domain.Rig) string { return r.Name },
		func(dst, src *domain.Rig) bool { return setString(&dst.Denotation, src.Denotation) },
	)
}

func NewEquipmentRepo(gw *store.Gateway, baseLog *logger.Logger, metrics *observability.Metrics) EquipmentRepo {
	return newReferenceRepo("equipment", "name", gw, baseLog.With("repo", "EquipmentRepo"), metrics,
		func(e *domain.Equipment) uint { return e.ID },
		func(e *domain.Equipment) string { return e.Name },
		func(dst, src *domain.Equipment) bool { return setString(&dst.Denotation, src.Denotation) },
	)
}

func NewIOTRepo(gw *store.Gateway, baseLog *logger.Logger, metrics *observability.Metrics) IOTRepo {
	return newReferenceRepo("iot", "denotation", gw, baseLog.With("repo", "IOTRepo"), metrics,
		func(i *domain.IOT) uint { return i.ID },
		func(i *domain.IOT) string { return i.Denotation },
		func(dst, src *domain.IOT) bool { return setString(&dst.Name, src.Name) },
	)
}

func NewProfessionRepo(gw *store.Gateway, baseLog *logger.Logger, metrics *observability.Metrics) ProfessionRepo {
	return newReferenceRepo("profession", "code", gw, baseLog.With("repo", "ProfessionRepo"), metrics,
		func(p *domain.Profession) uint { return p.ID },
		func(p *domain.Profession) string { return p.Code },
		func(dst, src *domain.Profession) bool { return setString(&dst.Name, src.Name) },
	)
}

func NewUserRepo(gw *store.Gateway, baseLog *logger.Logger, metrics *observability.Metrics) UserRepo {
	return newReferenceRepo("users", "login", gw, baseLog.With("repo", "UserRepo"), metrics,
		func(u *domain.User) uint { return u.ID },
		func(u *domain.User) string { return u.Login },
		func(dst, src *domain.User) bool { return setString(&dst.Name, src.Name) },
	)
}

package base

import (
	"context"

	"gorm.io/gorm"

	"github.com/yungbote/routecard/internal/data/cache"
	"github.com/yungbote/routecard/internal/pkg/dbctx"
)

type getOptions struct {
	cacheOnly bool
}

type GetOption func(*getOptions)

// CacheOnly restricts a lookup to the cache: a miss returns nil without
// touching the store.
func CacheOnly() GetOption {
	return func(o *getOptions) { o.cacheOnly = true }
}

func collect(opts []GetOption) getOptions {
	var o getOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// Lookup resolves key through ix, falling back to the store with where.
// A store miss is (nil, nil). Several matching rows degrade to the first
// by id.
func Lookup[K comparable, T any](ctx context.Context, r *Repo[T], ix *cache.Index[K, T], key K, where func(conn *gorm.DB) *gorm.DB, opts ...GetOption) (*T, error) {
	if item, ok := ix.Get(key); ok {
		r.metrics.IncCacheLookup(r.kind, "hit")
		return item, nil
	}
	if collect(opts).cacheOnly {
		r.metrics.IncCacheLookup(r.kind, "miss")
		return nil, nil
	}
	var rows []*T
	if err := r.gw.Query(ctx, r.op("get"), func(conn *gorm.DB) error {
		return where(conn).Order("id ASC").Find(&rows).Error
	}); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		r.metrics.IncCacheLookup(r.kind, "miss")
		return nil, nil
	}
	if len(rows) > 1 {
		r.log.Debug("several rows for a single-row lookup, using the first", "key", key, "rows", len(rows))
	}
	r.metrics.IncCacheLookup(r.kind, "loaded")
	return r.Add(rows[0]), nil
}

// FindInTx reads the first row matching where through the caller's
// transaction. It never touches the cache, which only holds committed
// rows.
func FindInTx[T any](dbc dbctx.Context, where func(conn *gorm.DB) *gorm.DB) (*T, error) {
	var rows []*T
	if err := where(dbc.Tx.WithContext(dbc.Context())).Order("id ASC").Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// Upsert finds the row matching where inside the transaction. A missing
// row is created from fresh(); an existing one is handed to merge, and
// saved when merge reports a change. merge may be nil.
func Upsert[T any](dbc dbctx.Context, where func(conn *gorm.DB) *gorm.DB, fresh func() *T, merge func(existing *T) bool) (*T, error) {
	existing, err := FindInTx[T](dbc, where)
	if err != nil {
		return nil, err
	}
	tx := dbc.Tx.WithContext(dbc.Context())
	if existing == nil {
		row := fresh()
		if err := tx.Create(row).Error; err != nil {
			return nil, err
		}
		return row, nil
	}
	if merge != nil && merge(existing) {
		if err := tx.Save(existing).Error; err != nil {
			return nil, err
		}
	}
	return existing, nil
}

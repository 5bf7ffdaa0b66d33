// Package base holds the behavior every entity repository shares: cache
// ownership, cache-or-store lookups, full reloads and the write paths that
// back-fill the cache only after a successful commit.
package base

import (
	"context"
	"fmt"
	"sort"

	"gorm.io/gorm"

	"github.com/yungbote/routecard/internal/data/cache"
	"github.com/yungbote/routecard/internal/data/store"
	"github.com/yungbote/routecard/internal/observability"
	"github.com/yungbote/routecard/internal/pkg/dbctx"
	"github.com/yungbote/routecard/internal/pkg/logger"
)

// InChunk keeps IN lists under sqlite's bound-parameter limit.
const InChunk = 500

// Common is the part of every repository interface that base.Repo
// implements on its own.
type Common[T any] interface {
	Kind() string
	Reload(ctx context.Context) error
	Add(item *T) *T
	Remove(id uint)
	Invalidate()
	Unique() []*T
	Len() int
	GetByID(ctx context.Context, id uint, opts ...GetOption) (*T, error)
	GetByIDs(ctx context.Context, ids []uint) ([]*T, error)
	MissingIDs(dbc dbctx.Context, ids []uint) ([]uint, error)
}

type Repo[T any] struct {
	kind    string
	gw      *store.Gateway
	cache   *cache.Cache[T]
	idOf    func(*T) uint
	log     *logger.Logger
	metrics *observability.Metrics
}

// New builds the shared part of a repository and registers it with the
// gateway so a reconnect rebuilds its cache.
func New[T any](kind string, gw *store.Gateway, idOf func(*T) uint, log *logger.Logger, metrics *observability.Metrics) *Repo[T] {
	r := &Repo[T]{
		kind:    kind,
		gw:      gw,
		cache:   cache.New[T](kind, idOf),
		idOf:    idOf,
		log:     log,
		metrics: metrics,
	}
	gw.Register(r)
	return r
}

func (r *Repo[T]) Kind() string            { return r.kind }
func (r *Repo[T]) Cache() *cache.Cache[T]  { return r.cache }
func (r *Repo[T]) Gateway() *store.Gateway { return r.gw }
func (r *Repo[T]) Logger() *logger.Logger  { return r.log }
func (r *Repo[T]) Len() int                { return r.cache.Len() }
func (r *Repo[T]) Unique() []*T            { return r.cache.Unique() }
func (r *Repo[T]) op(name string) string   { return r.kind + "." + name }

// Reload empties the cache and refills it with every stored row. The
// cache is emptied before the query so a failed reload leaves nothing
// stale behind.
func (r *Repo[T]) Reload(ctx context.Context) error {
	r.cache.Reset()
	var rows []*T
	if err := r.gw.Query(ctx, r.op("reload"), func(conn *gorm.DB) error {
		return conn.Order("id ASC").Find(&rows).Error
	}); err != nil {
		return err
	}
	for _, row := range rows {
		r.cache.Put(row)
	}
	r.metrics.SetCacheSize(r.kind, r.cache.Len())
	r.log.Debug("cache reloaded", "rows", len(rows))
	return nil
}

// Add indexes a committed row and returns the canonical instance.
func (r *Repo[T]) Add(item *T) *T {
	out := r.cache.Put(item)
	r.metrics.SetCacheSize(r.kind, r.cache.Len())
	return out
}

func (r *Repo[T]) Remove(id uint) {
	r.cache.Remove(id)
	r.metrics.SetCacheSize(r.kind, r.cache.Len())
}

// Invalidate drops every cached row of this kind.
func (r *Repo[T]) Invalidate() {
	r.cache.Reset()
	r.metrics.SetCacheSize(r.kind, 0)
}

func (r *Repo[T]) GetByID(ctx context.Context, id uint, opts ...GetOption) (*T, error) {
	if id == 0 {
		return nil, nil
	}
	return Lookup(ctx, r, r.cache.ByID, id, func(conn *gorm.DB) *gorm.DB {
		return conn.Where("id = ?", id)
	}, opts...)
}

// GetByIDs resolves ids from the cache and fetches the rest in one query.
// Unknown ids are skipped. The result follows the order of ids.
func (r *Repo[T]) GetByIDs(ctx context.Context, ids []uint) ([]*T, error) {
	out := make([]*T, 0, len(ids))
	var missing []uint
	seen := map[uint]bool{}
	for _, id := range ids {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		if _, ok := r.cache.ByID.Get(id); !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		for start := 0; start < len(missing); start += InChunk {
			chunk := missing[start:min(start+InChunk, len(missing))]
			var rows []*T
			if err := r.gw.Query(ctx, r.op("get_by_ids"), func(conn *gorm.DB) error {
				return conn.Where("id IN ?", chunk).Find(&rows).Error
			}); err != nil {
				return nil, err
			}
			for _, row := range rows {
				r.cache.Put(row)
			}
		}
		r.metrics.SetCacheSize(r.kind, r.cache.Len())
	}
	for _, id := range ids {
		if !seen[id] {
			continue
		}
		delete(seen, id)
		if item, ok := r.cache.ByID.Get(id); ok {
			out = append(out, item)
		}
	}
	return out, nil
}

// MissingIDs returns the ids that have no row in the store, in input
// order. Inside a transaction the check reads through it, so rows the
// caller has not committed yet count as present. The cache is not
// consulted.
func (r *Repo[T]) MissingIDs(dbc dbctx.Context, ids []uint) ([]uint, error) {
	var want []uint
	seen := map[uint]bool{}
	for _, id := range ids {
		if id != 0 && !seen[id] {
			seen[id] = true
			want = append(want, id)
		}
	}
	if len(want) == 0 {
		return nil, nil
	}
	found := make(map[uint]bool, len(want))
	check := func(conn *gorm.DB) error {
		for start := 0; start < len(want); start += InChunk {
			chunk := want[start:min(start+InChunk, len(want))]
			var got []uint
			if err := conn.Model(new(T)).Where("id IN ?", chunk).Pluck("id", &got).Error; err != nil {
				return err
			}
			for _, id := range got {
				found[id] = true
			}
		}
		return nil
	}
	var err error
	if dbc.InTx() {
		err = check(dbc.Tx.WithContext(dbc.Context()))
	} else {
		err = r.gw.Query(dbc.Context(), r.op("missing_ids"), check)
	}
	if err != nil {
		return nil, err
	}
	var missing []uint
	for _, id := range want {
		if !found[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

// Write runs fn as one unit of work. Inside a caller's transaction fn
// writes into it and the caller back-fills the cache after its commit;
// otherwise Write opens its own transaction and caches the result once it
// is committed.
func (r *Repo[T]) Write(dbc dbctx.Context, op string, fn func(dbc dbctx.Context) (*T, error)) (*T, error) {
	if dbc.InTx() {
		return fn(dbc)
	}
	var out *T
	err := r.gw.Transact(dbc.Context(), r.op(op), func(tx dbctx.Context) error {
		row, err := fn(tx)
		if err != nil {
			return err
		}
		out = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, nil
	}
	return r.Add(out), nil
}

// AddMany resolves a batch of inputs keyed by natural key in a single
// transaction. On a retryable failure the whole batch is replayed from the
// original inputs. Keys are processed in sorted order and the cache is
// back-filled only after the commit.
func AddMany[I any, T any](ctx context.Context, r *Repo[T], op string, inputs map[string]I, one func(dbc dbctx.Context, in I) (*T, error)) (map[string]*T, error) {
	if len(inputs) == 0 {
		return map[string]*T{}, nil
	}
	keys := make([]string, 0, len(inputs))
	for k := range inputs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var resolved map[string]*T
	err := r.gw.Transact(ctx, r.op(op), func(dbc dbctx.Context) error {
		resolved = make(map[string]*T, len(keys))
		for _, k := range keys {
			row, err := one(dbc, inputs[k])
			if err != nil {
				return fmt.Errorf("%s %q: %w", r.kind, k, err)
			}
			resolved[k] = row
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for k, row := range resolved {
		if row != nil {
			resolved[k] = r.cache.Put(row)
		}
	}
	r.metrics.SetCacheSize(r.kind, r.cache.Len())
	r.log.Debug("batch committed", "op", op, "rows", len(resolved))
	return resolved, nil
}

// List runs a multi-row query against the store and returns the canonical
// cached instance of every row, in query order.
func (r *Repo[T]) List(ctx context.Context, op string, where func(conn *gorm.DB) *gorm.DB) ([]*T, error) {
	var rows []*T
	if err := r.gw.Query(ctx, r.op(op), func(conn *gorm.DB) error {
		return where(conn).Find(&rows).Error
	}); err != nil {
		return nil, err
	}
	for i, row := range rows {
		rows[i] = r.cache.Put(row)
	}
	r.metrics.SetCacheSize(r.kind, r.cache.Len())
	return rows, nil
}

// Exec runs fn inside the caller's transaction, or inside a new one when
// dbc carries none. It reports whether the work was committed here, in
// which case the caller updates the cache itself.
func (r *Repo[T]) Exec(dbc dbctx.Context, op string, fn func(dbc dbctx.Context) error) (committed bool, err error) {
	if dbc.InTx() {
		return false, fn(dbc)
	}
	if err := r.gw.Transact(dbc.Context(), r.op(op), fn); err != nil {
		return false, err
	}
	return true, nil
}

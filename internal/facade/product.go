package facade

import (
	"context"
	"fmt"
	"sync"

	"github.com/yungbote/routecard/internal/data/repos/base"
	"github.com/yungbote/routecard/internal/domain"
	pkgerrors "github.com/yungbote/routecard/internal/pkg/errors"
)

type Product struct {
	b   *Builder
	mu  sync.RWMutex
	rec *domain.Product
}

func (p *Product) bind(rec *domain.Product) {
	p.mu.Lock()
	p.rec = rec
	p.mu.Unlock()
}

// Record is the cached row behind p.
func (p *Product) Record() *domain.Product {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.rec
}

func (p *Product) ID() uint           { return p.Record().ID }
func (p *Product) Name() string       { return p.Record().Name }
func (p *Product) Denotation() string { return p.Record().Denotation }
func (p *Product) Purchased() bool    { return p.Record().Purchased }

// HasRealDenotation is false for un-coded items whose denotation is
// their name.
func (p *Product) HasRealDenotation() bool { return p.Record().HasRealDenotation() }

// Title is "denotation name", or just the name for un-coded items.
func (p *Product) Title() string {
	rec := p.Record()
	if !rec.HasRealDenotation() {
		return rec.Name
	}
	return rec.Denotation + " " + rec.Name
}

// Refresh re-reads the row from the store and rebinds p to it.
func (p *Product) Refresh(ctx context.Context) error {
	id := p.ID()
	repo := p.b.repos.Product
	repo.Remove(id)
	rec, err := repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("product %d: %w", id, pkgerrors.ErrNotFound)
	}
	p.bind(rec)
	return nil
}

// Kind resolves the product kind. When the cached kind is missing the row
// may have been changed behind the cache, so the kind cache and the row
// are reloaded and the lookup is tried once more.
func (p *Product) Kind(ctx context.Context) (*domain.ProductKind, error) {
	kinds := p.b.repos.ProductKind
	lookup := func(opts ...base.GetOption) (*domain.ProductKind, error) {
		kindID := p.Record().KindID
		if kindID == nil {
			return nil, nil
		}
		return kinds.GetByID(ctx, *kindID, opts...)
	}
	if p.Record().KindID == nil {
		return nil, nil
	}
	k, err := lookup(base.CacheOnly())
	if err != nil || k != nil {
		return k, err
	}
	if err := kinds.Reload(ctx); err != nil {
		return nil, err
	}
	if err := p.Refresh(ctx); err != nil {
		return nil, err
	}
	return lookup()
}

// KindName is the grammatical-case name of the product kind, or "".
func (p *Product) KindName(ctx context.Context, grammaticalCase string) (string, error) {
	k, err := p.Kind(ctx)
	if err != nil || k == nil {
		return "", err
	}
	return k.CaseName(grammaticalCase), nil
}

func (p *Product) Documents(ctx context.Context) ([]*Document, error) {
	all, err := p.b.DocumentsOf(ctx, []uint{p.ID()})
	if err != nil {
		return nil, err
	}
	return all[p.ID()], nil
}

// DocumentsByType returns the attached documents of one class and
// subtype. relevantOnly drops cancelled documents.
func (p *Product) DocumentsByType(ctx context.Context, class, subtype string, relevantOnly bool) ([]*Document, error) {
	docs, err := p.Documents(ctx)
	if err != nil {
		return nil, err
	}
	dt, err := p.b.repos.DocumentType.GetBySubtype(ctx, class, subtype)
	if err != nil || dt == nil {
		return nil, err
	}
	var out []*Document
	for _, d := range docs {
		if d.Record().TypeID != dt.ID {
			continue
		}
		if relevantOnly && !d.Relevant() {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

// Primary returns the product's canonical parent, if one was assigned.
func (p *Product) Primary(ctx context.Context) (*Product, error) {
	app, err := p.b.repos.PrimaryApplication.GetByChild(ctx, p.ID())
	if err != nil || app == nil {
		return nil, err
	}
	return p.b.ProductByID(ctx, app.ParentID)
}

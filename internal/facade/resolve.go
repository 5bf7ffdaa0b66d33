package facade

import (
	"context"
	"fmt"

	pkgerrors "github.com/yungbote/routecard/internal/pkg/errors"
)

// ProductByID resolves a product row through the repository and wraps it.
// A missing row is errors.ErrNotFound.
func (b *Builder) ProductByID(ctx context.Context, id uint) (*Product, error) {
	rec, err := b.repos.Product.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("product %d: %w", id, pkgerrors.ErrNotFound)
	}
	return b.Product(rec), nil
}

func (b *Builder) ProductByDenotation(ctx context.Context, denotation string) (*Product, error) {
	rec, err := b.repos.Product.GetByDenotation(ctx, denotation)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("product %q: %w", denotation, pkgerrors.ErrNotFound)
	}
	return b.Product(rec), nil
}

// Products wraps the given ids in order, skipping unknown ones. Rows
// missing from the cache are fetched in one query.
func (b *Builder) Products(ctx context.Context, ids []uint) ([]*Product, error) {
	recs, err := b.repos.Product.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]*Product, 0, len(recs))
	for _, rec := range recs {
		out = append(out, b.Product(rec))
	}
	return out, nil
}

func (b *Builder) DocumentByID(ctx context.Context, id uint) (*Document, error) {
	rec, err := b.repos.DocumentReal.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("document %d: %w", id, pkgerrors.ErrNotFound)
	}
	return b.Document(rec), nil
}

// DocumentsOf returns the documents attached to each product, fetching
// every link and document row in bulk.
func (b *Builder) DocumentsOf(ctx context.Context, productIDs []uint) (map[uint][]*Document, error) {
	links, err := b.repos.Document.ListByProducts(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	var realIDs []uint
	for _, list := range links {
		for _, l := range list {
			realIDs = append(realIDs, l.DocumentRealID)
		}
	}
	reals, err := b.repos.DocumentReal.GetByIDs(ctx, realIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]*Document, len(reals))
	for _, rec := range reals {
		byID[rec.ID] = b.Document(rec)
	}
	out := make(map[uint][]*Document, len(links))
	for productID, list := range links {
		for _, l := range list {
			if d, ok := byID[l.DocumentRealID]; ok {
				out[productID] = append(out[productID], d)
			}
		}
	}
	return out, nil
}

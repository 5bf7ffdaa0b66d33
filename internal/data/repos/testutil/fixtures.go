package testutil

import (
	"context"
	"testing"

	"github.com/yungbote/routecard/internal/data/repos"
	"github.com/yungbote/routecard/internal/domain"
	"github.com/yungbote/routecard/internal/pkg/dbctx"
)

func SeedProduct(tb testing.TB, set *repos.Set, denotation, name string) *domain.Product {
	tb.Helper()
	p, err := set.Product.AddOrUpdate(dbctx.Background(), repos.ProductInput{Denotation: denotation, Name: name})
	if err != nil {
		tb.Fatalf("seed product %s: %v", denotation, err)
	}
	return p
}

func SeedEdge(tb testing.TB, set *repos.Set, parent, child *domain.Product, quantity float64) *domain.Hierarchy {
	tb.Helper()
	rows, err := set.Hierarchy.Create(dbctx.Background(), []*domain.Hierarchy{{
		ParentID: parent.ID,
		ChildID:  child.ID,
		Section:  domain.SectionParts,
		Quantity: quantity,
		Unit:     domain.UnitPiece,
	}})
	if err != nil {
		tb.Fatalf("seed edge %s -> %s: %v", parent.Denotation, child.Denotation, err)
	}
	return rows[0]
}

// SeedChain builds p0 -> p1 -> ... -> p(depth) and returns the products.
func SeedChain(tb testing.TB, set *repos.Set, prefix string, depth int) []*domain.Product {
	tb.Helper()
	out := make([]*domain.Product, 0, depth+1)
	for i := 0; i <= depth; i++ {
		out = append(out, SeedProduct(tb, set, chainDenotation(prefix, i), prefix+" node"))
	}
	for i := 1; i <= depth; i++ {
		SeedEdge(tb, set, out[i-1], out[i], 1)
	}
	return out
}

func chainDenotation(prefix string, i int) string {
	return prefix + "." + string(rune('A'+i/26)) + string(rune('A'+i%26))
}

func SeedDocument(tb testing.TB, set *repos.Set, product *domain.Product, denotation, class, subtype string) (*domain.DocumentReal, *domain.Document) {
	tb.Helper()
	ctx := context.Background()
	dt, err := set.DocumentType.GetBySubtype(ctx, class, subtype)
	if err != nil || dt == nil {
		tb.Fatalf("document type %s/%s: %v", class, subtype, err)
	}
	real, err := set.DocumentReal.AddOrUpdate(dbctx.Background(), repos.DocumentRealInput{
		Denotation: denotation,
		TypeID:     dt.ID,
		Name:       product.Name,
		StageID:    domain.StageRegistered,
	})
	if err != nil {
		tb.Fatalf("seed document real %s: %v", denotation, err)
	}
	doc, err := set.Document.Link(dbctx.Background(), real.ID, product.ID)
	if err != nil {
		tb.Fatalf("link document %s: %v", denotation, err)
	}
	return real, doc
}

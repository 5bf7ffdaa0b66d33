package hierarchy

import (
	"context"
	"fmt"
	"sort"

	"github.com/yungbote/routecard/internal/domain"
	"github.com/yungbote/routecard/internal/facade"
	pkgerrors "github.com/yungbote/routecard/internal/pkg/errors"
)

// Branch is one occurrence of a product in a materialized closure. The
// same product shows up once per path that reaches it.
type Branch struct {
	Level int
	// ID is sequential within one materialization; ParentID refers to it.
	ID       int
	ParentID int
	EdgeID   uint

	Product   *facade.Product
	Section   string
	Quantity  float64
	Unit      string
	Documents []*facade.Document

	parent *Branch
}

// Parent returns the branch this one hangs under, nil for the root.
func (b *Branch) Parent() *Branch { return b.parent }

// reaches reports whether productID occurs on the path from b up to the root.
func (b *Branch) reaches(productID uint) bool {
	for cur := b; cur != nil; cur = cur.parent {
		if cur.Product.ID() == productID {
			return true
		}
	}
	return false
}

func (s *service) Materialize(ctx context.Context, root *facade.Product, dir Direction) ([]*Branch, error) {
	if root == nil {
		return nil, nil
	}
	// one level past the bound tells a cut branch from one that just ends there
	rows, err := s.closure(ctx, root.ID(), dir, s.maxLevel+1)
	if err != nil {
		return nil, err
	}
	return s.materialize(ctx, root, rows)
}

// WhereUsed materializes every assembly product is used in.
func (s *service) WhereUsed(ctx context.Context, product *facade.Product) ([]*Branch, error) {
	return s.Materialize(ctx, product, Ancestors)
}

// materialize turns closure rows into branches. Rows repeated because a
// product was reached along several paths are attached under every
// occurrence of their From product one level up. A row whose Node is
// already on the path is reported as a cycle and not expanded. Rows below
// maxLevel are dropped; if any of them continues a live branch the
// result is reported as truncated.
func (s *service) materialize(ctx context.Context, root *facade.Product, rows []Row) ([]*Branch, error) {
	ids := []uint{root.ID()}
	idSeen := map[uint]bool{root.ID(): true}
	var edgeIDs []uint
	byLevel := map[int][]Row{}
	seen := map[[2]uint]bool{}
	maxDepth := 0
	var overflow []Row
	for _, r := range rows {
		if r.Depth == 0 {
			continue
		}
		if r.Depth > s.maxLevel {
			overflow = append(overflow, r)
			continue
		}
		key := [2]uint{uint(r.Depth), r.ID}
		if seen[key] {
			continue
		}
		seen[key] = true
		byLevel[r.Depth] = append(byLevel[r.Depth], r)
		edgeIDs = append(edgeIDs, r.ID)
		for _, id := range []uint{r.Node, r.From} {
			if !idSeen[id] {
				idSeen[id] = true
				ids = append(ids, id)
			}
		}
		maxDepth = max(maxDepth, r.Depth)
	}

	products, err := s.builder.Products(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]*facade.Product, len(products))
	for _, p := range products {
		byID[p.ID()] = p
	}
	byID[root.ID()] = root
	docs, err := s.builder.DocumentsOf(ctx, ids)
	if err != nil {
		return nil, err
	}

	edgeRows, err := s.repos.Hierarchy.GetByIDs(ctx, edgeIDs)
	if err != nil {
		return nil, err
	}
	edges := make(map[uint]*domain.Hierarchy, len(edgeRows))
	for _, e := range edgeRows {
		edges[e.ID] = e
	}

	next := 1
	rootBranch := &Branch{ID: next, Product: root, Documents: docs[root.ID()]}
	out := []*Branch{rootBranch}
	prev := []*Branch{rootBranch}
	for level := 1; level <= maxDepth && len(prev) > 0; level++ {
		var cur []*Branch
		for _, r := range byLevel[level] {
			product, ok := byID[r.Node]
			if !ok {
				s.warn("missing", fmt.Sprintf("edge %d references missing product %d", r.ID, r.Node))
				continue
			}
			for _, parent := range prev {
				if parent.Product.ID() != r.From {
					continue
				}
				if parent.reaches(r.Node) {
					s.warn("cycle", fmt.Sprintf("%v at %s %s", pkgerrors.ErrCycle, product.Name(), product.Denotation()))
					continue
				}
				next++
				b := &Branch{
					Level:     level,
					ID:        next,
					ParentID:  parent.ID,
					EdgeID:    r.ID,
					Product:   product,
					Documents: docs[r.Node],
					parent:    parent,
				}
				if edge, ok := edges[r.ID]; ok {
					b.Section, b.Quantity, b.Unit = edge.Section, edge.Quantity, edge.Unit
				}
				cur = append(cur, b)
				out = append(out, b)
			}
		}
		prev = cur
	}
	if maxDepth == s.maxLevel && continues(prev, overflow) {
		s.warn("depth", fmt.Sprintf("hierarchy of %s %s truncated at level %d",
			root.Name(), root.Denotation(), s.maxLevel))
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Level < out[j].Level })
	return out, nil
}

// continues reports whether any row below the bound hangs off one of the
// deepest branches.
func continues(deepest []*Branch, overflow []Row) bool {
	for _, r := range overflow {
		for _, b := range deepest {
			if b.Product.ID() == r.From && !b.reaches(r.Node) {
				return true
			}
		}
	}
	return false
}

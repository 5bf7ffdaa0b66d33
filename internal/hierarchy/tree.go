package hierarchy

import (
	"context"
	"fmt"

	"github.com/yungbote/routecard/internal/domain"
	"github.com/yungbote/routecard/internal/facade"
	"github.com/yungbote/routecard/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/routecard/internal/pkg/errors"
)

// DefaultTreeDepthLimit caps how deep Tree expands before giving up on a
// branch.
const DefaultTreeDepthLimit = 30

// Node is an element of a nested composition tree. Edge is nil for the root.
type Node struct {
	Product  *facade.Product
	Edge     *domain.Hierarchy
	Children []*Node
}

// Walk visits n and its descendants depth first. Returning false from fn
// skips the children of that node.
func (n *Node) Walk(fn func(depth int, n *Node) bool) {
	n.walk(0, fn)
}

func (n *Node) walk(depth int, fn func(int, *Node) bool) {
	if !fn(depth, n) {
		return
	}
	for _, c := range n.Children {
		c.walk(depth+1, fn)
	}
}

// Tree expands the composition of root child by child. A product that
// reappears on its own path, or a path deeper than the depth limit, is
// reported and left unexpanded; the rest of the tree is still built.
func (s *service) Tree(ctx context.Context, root *facade.Product) (*Node, error) {
	if root == nil {
		return nil, nil
	}
	n := &Node{Product: root}
	onPath := map[uint]bool{root.ID(): true}
	if err := s.expand(ctx, n, 1, onPath); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *service) expand(ctx context.Context, n *Node, depth int, onPath map[uint]bool) error {
	edges, err := s.repos.Hierarchy.ListByParent(dbctx.Context{Ctx: ctx}, n.Product.ID())
	if err != nil {
		return err
	}
	if len(edges) == 0 {
		return nil
	}
	if depth > s.depthLimit {
		s.warn("depth", fmt.Sprintf("hierarchy too deep below %s %s",
			n.Product.Name(), n.Product.Denotation()))
		return nil
	}
	ids := make([]uint, 0, len(edges))
	for _, e := range edges {
		ids = append(ids, e.ChildID)
	}
	// warm the product cache for the whole sibling list
	if _, err := s.builder.Products(ctx, ids); err != nil {
		return err
	}
	for _, e := range edges {
		child, err := s.builder.ProductByID(ctx, e.ChildID)
		if err != nil {
			return err
		}
		if onPath[e.ChildID] {
			s.warn("cycle", fmt.Sprintf("%v at %s %s", pkgerrors.ErrCycle, child.Name(), child.Denotation()))
			continue
		}
		c := &Node{Product: child, Edge: e}
		n.Children = append(n.Children, c)
		onPath[e.ChildID] = true
		err = s.expand(ctx, c, depth+1, onPath)
		delete(onPath, e.ChildID)
		if err != nil {
			return err
		}
	}
	return nil
}

package hierarchy

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/routecard/internal/domain"
	"github.com/yungbote/routecard/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/routecard/internal/pkg/errors"
)

// Target is one desired child of a parent.
type Target struct {
	ProductID uint    `json:"product_id" yaml:"product_id"`
	Section   string  `json:"section" yaml:"section"`
	Quantity  float64 `json:"quantity" yaml:"quantity"`
	Unit      string  `json:"unit" yaml:"unit"`
}

type ReconcileResult struct {
	ParentID uint
	// Edges holds the children of the parent after the commit, in target order.
	Edges    []*domain.Hierarchy
	Inserted int
	Updated  int
	Kept     int
	Deleted  int
}

// normalizeTargets fills default units and folds repeated children into a
// single target. Repeats must agree on section and unit; their quantities
// are summed.
func normalizeTargets(parentID uint, targets []Target) ([]Target, error) {
	out := make([]Target, 0, len(targets))
	at := map[uint]int{}
	for _, t := range targets {
		if t.ProductID == 0 {
			return nil, fmt.Errorf("%w: target without product", pkgerrors.ErrInvalidArgument)
		}
		if t.ProductID == parentID {
			return nil, fmt.Errorf("%w: product %d cannot contain itself", pkgerrors.ErrInvalidArgument, parentID)
		}
		t.Section = strings.TrimSpace(t.Section)
		t.Unit = strings.TrimSpace(t.Unit)
		if t.Unit == "" {
			t.Unit = domain.UnitPiece
		}
		i, seen := at[t.ProductID]
		if !seen {
			at[t.ProductID] = len(out)
			out = append(out, t)
			continue
		}
		if out[i].Section != t.Section || out[i].Unit != t.Unit {
			return nil, fmt.Errorf("%w: child %d listed twice with different section or unit",
				pkgerrors.ErrInvalidArgument, t.ProductID)
		}
		out[i].Quantity += t.Quantity
	}
	return out, nil
}

// Reconcile makes the persisted children of parentID equal targets. Edges
// whose child is still wanted are updated in place, missing ones are
// inserted and the rest deleted by endpoints. The whole pass runs in one
// transaction and is replayed from the start if the commit fails with a
// retryable error. The parent and every target must exist. Caches are touched only after the commit.
func (s *service) Reconcile(ctx context.Context, parentID uint, targets []Target) (*ReconcileResult, error) {
	if parentID == 0 {
		return nil, fmt.Errorf("%w: reconcile without parent", pkgerrors.ErrInvalidArgument)
	}
	wanted, err := normalizeTargets(parentID, targets)
	if err != nil {
		return nil, err
	}

	var (
		res      *ReconcileResult
		saved    []*domain.Hierarchy
		outdated []*domain.Hierarchy
	)
	err = s.gw.Transact(ctx, "hierarchy.reconcile", func(tx dbctx.Context) error {
		res = &ReconcileResult{ParentID: parentID}
		saved, outdated = nil, nil

		ids := make([]uint, 0, len(wanted)+1)
		ids = append(ids, parentID)
		for _, t := range wanted {
			ids = append(ids, t.ProductID)
		}
		missing, err := s.repos.Product.MissingIDs(tx, ids)
		if err != nil {
			return err
		}
		if len(missing) > 0 {
			return fmt.Errorf("%w: unknown products %v", pkgerrors.ErrInvalidArgument, missing)
		}

		old, err := s.repos.Hierarchy.ListByParent(tx, parentID)
		if err != nil {
			return err
		}
		edges := make([]*domain.Hierarchy, len(wanted))
		matched := make([]bool, len(wanted))
		for _, edge := range old {
			j := -1
			for i, t := range wanted {
				if !matched[i] && t.ProductID == edge.ChildID {
					j = i
					break
				}
			}
			if j < 0 {
				outdated = append(outdated, edge)
				continue
			}
			matched[j] = true
			edges[j] = edge
			t := wanted[j]
			if edge.Section == t.Section && edge.Quantity == t.Quantity && edge.Unit == t.Unit {
				res.Kept++
				continue
			}
			edge.Section, edge.Quantity, edge.Unit = t.Section, t.Quantity, t.Unit
			saved = append(saved, edge)
		}

		var fresh []*domain.Hierarchy
		var freshAt []int
		for i, t := range wanted {
			if matched[i] {
				continue
			}
			fresh = append(fresh, &domain.Hierarchy{
				ParentID: parentID,
				ChildID:  t.ProductID,
				Section:  t.Section,
				Quantity: t.Quantity,
				Unit:     t.Unit,
			})
			freshAt = append(freshAt, i)
		}

		if err := s.repos.Hierarchy.Save(tx, saved); err != nil {
			return err
		}
		created, err := s.repos.Hierarchy.Create(tx, fresh)
		if err != nil {
			return err
		}
		for k, row := range created {
			edges[freshAt[k]] = row
		}
		if len(outdated) > 0 {
			childIDs := make([]uint, 0, len(outdated))
			for _, edge := range outdated {
				childIDs = append(childIDs, edge.ChildID)
			}
			if _, err := s.repos.Hierarchy.DeleteByPairs(tx, parentID, childIDs); err != nil {
				return err
			}
		}

		res.Edges = edges
		res.Inserted = len(created)
		res.Updated = len(saved)
		res.Deleted = len(outdated)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reconcile children of %d: %w", parentID, err)
	}

	for _, edge := range outdated {
		s.repos.Hierarchy.Remove(edge.ID)
	}
	for i, edge := range res.Edges {
		res.Edges[i] = s.repos.Hierarchy.Add(edge)
	}

	s.metrics.AddReconcile("inserted", res.Inserted)
	s.metrics.AddReconcile("updated", res.Updated)
	s.metrics.AddReconcile("deleted", res.Deleted)
	s.log.Debug("children reconciled",
		"parent_id", parentID,
		"inserted", res.Inserted,
		"updated", res.Updated,
		"kept", res.Kept,
		"deleted", res.Deleted,
	)
	return res, nil
}

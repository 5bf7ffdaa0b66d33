package hierarchy

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// Direction selects which way the closure walks from its root.
type Direction int

const (
	// Descendants follows parent->child edges: the composition of a product.
	Descendants Direction = iota
	// Ancestors follows child->parent edges: where a product is used.
	Ancestors
)

func (d Direction) String() string {
	if d == Ancestors {
		return "ancestors"
	}
	return "descendants"
}

// DefaultMaxLevel bounds the recursive walk. Rows deeper than this are
// never produced, whatever the edges say.
const DefaultMaxLevel = 20

// Row is one step of the closure. The level 0 row carries the root as
// Node, with no edge and no From.
type Row struct {
	Depth    int  `gorm:"column:depth"`
	ID       uint `gorm:"column:edge_id"`
	ChildID  uint `gorm:"column:child_id"`
	ParentID uint `gorm:"column:parent_id"`
	// From is the product reached at Depth-1, Node the one reached at Depth.
	From uint `gorm:"column:from_id"`
	Node uint `gorm:"column:node_id"`
}

const closureSQL = `
WITH RECURSIVE walk(depth, edge_id, child_id, parent_id, from_id, node_id) AS (
    SELECT
        0 AS depth,
        CAST(0 AS BIGINT) AS edge_id,
        CAST(? AS BIGINT) AS child_id,
        CAST(0 AS BIGINT) AS parent_id,
        CAST(0 AS BIGINT) AS from_id,
        CAST(? AS BIGINT) AS node_id
    UNION ALL
    SELECT
        walk.depth + 1,
        h.id,
        h.child_id,
        h.parent_id,
        %[1]s,
        %[2]s
    FROM walk
    JOIN hierarchy h ON %[1]s = walk.node_id
    WHERE walk.depth < ?
)
SELECT depth, edge_id, child_id, parent_id, from_id, node_id
FROM walk
ORDER BY depth %[3]s, edge_id ASC`

func closureQuery(dir Direction) string {
	if dir == Ancestors {
		return fmt.Sprintf(closureSQL, "h.child_id", "h.parent_id", "DESC")
	}
	return fmt.Sprintf(closureSQL, "h.parent_id", "h.child_id", "ASC")
}

// Closure returns the transitive closure of rootID in direction dir,
// bounded at maxLevel. Descendant rows come out by ascending depth,
// ancestor rows by descending depth.
func (s *service) Closure(ctx context.Context, rootID uint, dir Direction) ([]Row, error) {
	return s.closure(ctx, rootID, dir, s.maxLevel)
}

func (s *service) closure(ctx context.Context, rootID uint, dir Direction, limit int) ([]Row, error) {
	if rootID == 0 {
		return nil, nil
	}
	var rows []Row
	err := s.gw.Query(ctx, "hierarchy.closure", func(conn *gorm.DB) error {
		rows = rows[:0]
		return conn.Raw(closureQuery(dir), rootID, rootID, limit).Scan(&rows).Error
	})
	if err != nil {
		return nil, fmt.Errorf("closure of %d (%s): %w", rootID, dir, err)
	}
	return rows, nil
}

package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type part struct {
	ID         uint
	Denotation string
	Name       string
}

type pairKey struct{ A, B uint }

func newPartCache() (*Cache[part], *Index[string, part]) {
	c := New[part]("part", func(p *part) uint { return p.ID })
	byDen := WithIndex(c, NewIndex[string, part]("denotation", func(p *part) (string, bool) {
		return p.Denotation, p.Denotation != ""
	}))
	return c, byDen
}

func TestPutIndexesUnderEveryKey(t *testing.T) {
	c, byDen := newPartCache()
	p := c.Put(&part{ID: 1, Denotation: "AAAA.111111.001", Name: "Widget"})

	byID, ok := c.ByID.Get(1)
	require.True(t, ok)
	byKey, ok := byDen.Get("AAAA.111111.001")
	require.True(t, ok)
	assert.Same(t, p, byID)
	assert.Same(t, byID, byKey)
}

func TestPutSameIDKeepsCanonicalPointer(t *testing.T) {
	c, byDen := newPartCache()
	first := c.Put(&part{ID: 1, Denotation: "A", Name: "old"})
	second := c.Put(&part{ID: 1, Denotation: "B", Name: "new"})

	assert.Same(t, first, second)
	assert.Equal(t, "new", first.Name)
	_, stale := byDen.Get("A")
	assert.False(t, stale, "old key must be dropped when the key changes")
	got, ok := byDen.Get("B")
	require.True(t, ok)
	assert.Same(t, first, got)
}

func TestZeroIDIsNotCached(t *testing.T) {
	c, _ := newPartCache()
	c.Put(&part{Denotation: "A"})
	assert.Equal(t, 0, c.Len())
}

func TestRemoveAndReset(t *testing.T) {
	c, byDen := newPartCache()
	c.Put(&part{ID: 1, Denotation: "A"})
	c.Put(&part{ID: 2, Denotation: "B"})

	c.Remove(1)
	_, ok := byDen.Get("A")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())

	c.Reset()
	assert.Equal(t, 0, c.Len())
	_, ok = byDen.Get("B")
	assert.False(t, ok)
}

func TestUniqueDeduplicatesAcrossIndexes(t *testing.T) {
	c, _ := newPartCache()
	pairs := WithIndex(c, NewIndex[pairKey, part]("pair", func(p *part) (pairKey, bool) {
		return pairKey{A: p.ID, B: p.ID * 10}, true
	}))
	c.Put(&part{ID: 3, Denotation: "C"})
	c.Put(&part{ID: 1, Denotation: "A"})
	c.Put(&part{ID: 2, Denotation: "B"})

	got := c.Unique()
	require.Len(t, got, 3)
	assert.Equal(t, []uint{1, 2, 3}, []uint{got[0].ID, got[1].ID, got[2].ID})

	p, ok := pairs.Get(pairKey{A: 2, B: 20})
	require.True(t, ok)
	assert.Equal(t, "B", p.Denotation)
}

func TestDuplicateIndexNamePanics(t *testing.T) {
	c, _ := newPartCache()
	assert.Panics(t, func() {
		WithIndex(c, NewIndex[string, part]("denotation", func(p *part) (string, bool) { return p.Name, true }))
	})
}

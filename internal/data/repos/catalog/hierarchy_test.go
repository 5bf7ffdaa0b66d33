package catalog_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/routecard/internal/data/repos/base"
	"github.com/yungbote/routecard/internal/data/repos/testutil"
	"github.com/yungbote/routecard/internal/domain"
	"github.com/yungbote/routecard/internal/pkg/dbctx"
)

func TestHierarchyRepoEdges(t *testing.T) {
	set, g := testutil.Repos(t, nil)
	ctx := context.Background()

	a := testutil.SeedProduct(t, set, "AAAA.111111.001", "Widget")
	b := testutil.SeedProduct(t, set, "AAAA.111111.002", "Bracket")
	c := testutil.SeedProduct(t, set, "AAAA.111111.003", "Bolt")
	ab := testutil.SeedEdge(t, set, a, b, 2)
	testutil.SeedEdge(t, set, a, c, 4)

	got, err := set.Hierarchy.GetByPair(ctx, b.ID, a.ID, base.CacheOnly())
	require.NoError(t, err)
	assert.Same(t, ab, got)

	children, err := set.Hierarchy.ListByParent(dbctx.Context{Ctx: ctx}, a.ID)
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, b.ID, children[0].ChildID)
	assert.Same(t, ab, children[0])

	parents, err := set.Hierarchy.ListByChild(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, parents, 1)
	assert.Equal(t, a.ID, parents[0].ParentID)

	n, err := set.Hierarchy.DeleteByPairs(dbctx.Background(), a.ID, []uint{c.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	gone, err := set.Hierarchy.GetByPair(ctx, c.ID, a.ID, base.CacheOnly())
	require.NoError(t, err)
	assert.Nil(t, gone)

	var count int64
	require.NoError(t, g.DB().Model(&domain.Product{}).Where("id = ?", c.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestHierarchyRejectsSelfLoop(t *testing.T) {
	set, _ := testutil.Repos(t, nil)
	a := testutil.SeedProduct(t, set, "AAAA.111111.001", "Widget")

	_, err := set.Hierarchy.Create(dbctx.Background(), []*domain.Hierarchy{{ParentID: a.ID, ChildID: a.ID, Quantity: 1}})
	require.Error(t, err)
	assert.Equal(t, 0, set.Hierarchy.Len())
}

func TestPrimaryApplicationSetPrimary(t *testing.T) {
	set, _ := testutil.Repos(t, nil)
	ctx := context.Background()
	a := testutil.SeedProduct(t, set, "AAAA.111111.001", "Widget")
	b := testutil.SeedProduct(t, set, "AAAA.111111.002", "Frame")
	c := testutil.SeedProduct(t, set, "AAAA.111111.003", "Bolt")

	first, err := set.PrimaryApplication.SetPrimary(dbctx.Background(), c.ID, a.ID)
	require.NoError(t, err)
	second, err := set.PrimaryApplication.SetPrimary(dbctx.Background(), c.ID, b.ID)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, b.ID, second.ParentID)

	got, err := set.PrimaryApplication.GetByChild(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ParentID)
	assert.Equal(t, 1, set.PrimaryApplication.Len())
}

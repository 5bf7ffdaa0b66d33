package hierarchy_test

import (
	"context"
	"strings"
	"testing"

	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/routecard/internal/data/repos"
	"github.com/yungbote/routecard/internal/data/repos/base"
	"github.com/yungbote/routecard/internal/data/repos/testutil"
	"github.com/yungbote/routecard/internal/data/store"
	"github.com/yungbote/routecard/internal/domain"
	"github.com/yungbote/routecard/internal/facade"
	"github.com/yungbote/routecard/internal/hierarchy"
	pkgerrors "github.com/yungbote/routecard/internal/pkg/errors"
	"github.com/yungbote/routecard/internal/progress"
)

type fixture struct {
	set     *repos.Set
	gw      *store.Gateway
	builder *facade.Builder
	rec     *progress.Recorder
	svc     hierarchy.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	rec := &progress.Recorder{Default: true}
	set, g := testutil.Repos(t, rec)
	b := facade.NewBuilder(set)
	return &fixture{
		set:     set,
		gw:      g,
		builder: b,
		rec:     rec,
		svc:     hierarchy.NewService(g, b, rec, testutil.Logger(t), nil, hierarchy.Options{}),
	}
}

func (f *fixture) children(t *testing.T, parentID uint) map[uint]domain.Hierarchy {
	t.Helper()
	var rows []domain.Hierarchy
	require.NoError(t, f.gw.DB().Where("parent_id = ?", parentID).Find(&rows).Error)
	out := map[uint]domain.Hierarchy{}
	for _, r := range rows {
		out[r.ChildID] = r
	}
	return out
}

func TestClosureChain(t *testing.T) {
	f := newFixture(t)
	chain := testutil.SeedChain(t, f.set, "CHN", 5)

	rows, err := f.svc.Closure(context.Background(), chain[0].ID, hierarchy.Descendants)
	require.NoError(t, err)
	require.Len(t, rows, 6)

	assert.Equal(t, 0, rows[0].Depth)
	assert.Equal(t, chain[0].ID, rows[0].Node)
	assert.Zero(t, rows[0].ParentID)
	for i := 1; i < len(rows); i++ {
		assert.Equal(t, i, rows[i].Depth)
		assert.Equal(t, chain[i-1].ID, rows[i].ParentID)
		assert.Equal(t, chain[i].ID, rows[i].ChildID)
		assert.Equal(t, chain[i].ID, rows[i].Node)
		assert.Equal(t, chain[i-1].ID, rows[i].From)
	}
}

func TestClosureAncestorsDeepestFirst(t *testing.T) {
	f := newFixture(t)
	chain := testutil.SeedChain(t, f.set, "ANC", 3)

	rows, err := f.svc.Closure(context.Background(), chain[3].ID, hierarchy.Ancestors)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, 3, rows[0].Depth)
	assert.Equal(t, chain[0].ID, rows[0].Node)
	assert.Equal(t, 0, rows[3].Depth)
	assert.Equal(t, chain[3].ID, rows[3].Node)
}

func TestClosureStopsAtMaxLevel(t *testing.T) {
	f := newFixture(t)
	chain := testutil.SeedChain(t, f.set, "DEEP", 25)

	rows, err := f.svc.Closure(context.Background(), chain[0].ID, hierarchy.Descendants)
	require.NoError(t, err)
	assert.Len(t, rows, hierarchy.DefaultMaxLevel+1)
	assert.Equal(t, hierarchy.DefaultMaxLevel, rows[len(rows)-1].Depth)
}

func TestReconcileRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := testutil.SeedProduct(t, f.set, "AAAA.111111.001", "Widget")
	b := testutil.SeedProduct(t, f.set, "AAAA.111111.002", "Bracket")
	c := testutil.SeedProduct(t, f.set, "AAAA.111111.003", "Bolt")

	res, err := f.svc.Reconcile(ctx, a.ID, []hierarchy.Target{
		{ProductID: b.ID, Section: domain.SectionParts, Quantity: 2},
		{ProductID: c.ID, Section: domain.SectionStandard, Quantity: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Inserted)
	require.Len(t, res.Edges, 2)
	assert.Equal(t, domain.UnitPiece, res.Edges[0].Unit)
	cachedB := res.Edges[0]

	res, err = f.svc.Reconcile(ctx, a.ID, []hierarchy.Target{
		{ProductID: b.ID, Section: domain.SectionParts, Quantity: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Inserted)
	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, 1, res.Deleted)
	assert.Same(t, cachedB, res.Edges[0])
	assert.Equal(t, 3.0, cachedB.Quantity)

	persisted := f.children(t, a.ID)
	require.Len(t, persisted, 1)
	assert.Equal(t, 3.0, persisted[b.ID].Quantity)

	gone, err := f.set.Hierarchy.GetByPair(ctx, c.ID, a.ID, base.CacheOnly())
	require.NoError(t, err)
	assert.Nil(t, gone)

	stillThere, err := f.set.Product.GetByID(ctx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, stillThere)

	res, err = f.svc.Reconcile(ctx, a.ID, []hierarchy.Target{
		{ProductID: b.ID, Section: domain.SectionParts, Quantity: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Kept)
	assert.Zero(t, res.Inserted+res.Updated+res.Deleted)
}

func TestReconcileTargets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := testutil.SeedProduct(t, f.set, "AAAA.111111.001", "Widget")
	b := testutil.SeedProduct(t, f.set, "AAAA.111111.002", "Bracket")

	res, err := f.svc.Reconcile(ctx, a.ID, []hierarchy.Target{
		{ProductID: b.ID, Section: domain.SectionParts, Quantity: 1},
		{ProductID: b.ID, Section: domain.SectionParts, Quantity: 2},
	})
	require.NoError(t, err)
	require.Len(t, res.Edges, 1)
	assert.Equal(t, 3.0, res.Edges[0].Quantity)

	_, err = f.svc.Reconcile(ctx, a.ID, []hierarchy.Target{
		{ProductID: b.ID, Section: domain.SectionParts, Quantity: 1},
		{ProductID: b.ID, Section: domain.SectionMaterials, Quantity: 1},
	})
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidArgument)

	_, err = f.svc.Reconcile(ctx, a.ID, []hierarchy.Target{{ProductID: a.ID, Quantity: 1}})
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidArgument)

	assert.Len(t, f.children(t, a.ID), 1)
}

func TestReconcileRejectsUnknownProducts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := testutil.SeedProduct(t, f.set, "AAAA.111111.001", "Widget")
	b := testutil.SeedProduct(t, f.set, "AAAA.111111.002", "Bracket")

	_, err := f.svc.Reconcile(ctx, a.ID, []hierarchy.Target{
		{ProductID: b.ID, Section: domain.SectionParts, Quantity: 1},
		{ProductID: 9999, Section: domain.SectionParts, Quantity: 1},
	})
	require.ErrorIs(t, err, pkgerrors.ErrInvalidArgument)
	assert.Contains(t, err.Error(), "9999")
	assert.Empty(t, f.children(t, a.ID))

	_, err = f.svc.Reconcile(ctx, 9998, []hierarchy.Target{{ProductID: b.ID, Quantity: 1}})
	require.ErrorIs(t, err, pkgerrors.ErrInvalidArgument)
	assert.Empty(t, f.children(t, 9998))
}

func TestReconcileReplaysAfterBusyCommit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := testutil.SeedProduct(t, f.set, "AAAA.111111.001", "Widget")
	b := testutil.SeedProduct(t, f.set, "AAAA.111111.002", "Bracket")
	c := testutil.SeedProduct(t, f.set, "AAAA.111111.003", "Bolt")
	testutil.SeedEdge(t, f.set, a, c, 1)

	testutil.FailNextCreates(t, f.gw.DB(), 0, 1, sqlite3.Error{Code: sqlite3.ErrBusy})
	res, err := f.svc.Reconcile(ctx, a.ID, []hierarchy.Target{
		{ProductID: b.ID, Section: domain.SectionParts, Quantity: 4},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Inserted)
	assert.Equal(t, 1, res.Deleted)

	persisted := f.children(t, a.ID)
	require.Len(t, persisted, 1)
	assert.Equal(t, 4.0, persisted[b.ID].Quantity)
	assert.Equal(t, 1, f.set.Hierarchy.Len())
}

func TestMaterializeSharedComponent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := testutil.SeedProduct(t, f.set, "AAAA.111111.001", "Frame")
	b := testutil.SeedProduct(t, f.set, "AAAA.111111.002", "Left panel")
	c := testutil.SeedProduct(t, f.set, "AAAA.111111.003", "Right panel")
	d := testutil.SeedProduct(t, f.set, "AAAA.111111.004", "Screw")
	testutil.SeedEdge(t, f.set, a, b, 1)
	testutil.SeedEdge(t, f.set, a, c, 1)
	testutil.SeedEdge(t, f.set, b, d, 4)
	testutil.SeedEdge(t, f.set, c, d, 6)
	testutil.SeedDocument(t, f.set, d, "AAAA.111111.004", domain.ClassDesign, "drawing")

	branches, err := f.svc.Materialize(ctx, f.builder.Product(a), hierarchy.Descendants)
	require.NoError(t, err)
	require.Len(t, branches, 5)
	assert.Equal(t, 0, branches[0].Level)
	assert.Nil(t, branches[0].Parent())

	var screws []*hierarchy.Branch
	for _, br := range branches {
		if br.Product.ID() == d.ID {
			screws = append(screws, br)
		}
	}
	require.Len(t, screws, 2)
	assert.Same(t, screws[0].Product, screws[1].Product)
	assert.NotEqual(t, screws[0].ParentID, screws[1].ParentID)
	assert.ElementsMatch(t, []float64{4, 6}, []float64{screws[0].Quantity, screws[1].Quantity})
	assert.Len(t, screws[0].Documents, 1)

	for i := 1; i < len(branches); i++ {
		assert.LessOrEqual(t, branches[i-1].Level, branches[i].Level)
	}
}

func TestMaterializeCycleTerminates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := testutil.SeedProduct(t, f.set, "AAAA.111111.001", "Loop A")
	b := testutil.SeedProduct(t, f.set, "AAAA.111111.002", "Loop B")
	testutil.SeedEdge(t, f.set, a, b, 1)
	testutil.SeedEdge(t, f.set, b, a, 1)

	branches, err := f.svc.Materialize(ctx, f.builder.Product(a), hierarchy.Descendants)
	require.NoError(t, err)
	require.Len(t, branches, 2)
	assert.Equal(t, b.ID, branches[1].Product.ID())

	warnings := f.rec.WarningsSnapshot()
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "AAAA.111111.001")
}

func TestMaterializeWarnsOnlyWhenCut(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	exact := testutil.SeedChain(t, f.set, "EXACT", hierarchy.DefaultMaxLevel)

	branches, err := f.svc.Materialize(ctx, f.builder.Product(exact[0]), hierarchy.Descendants)
	require.NoError(t, err)
	require.Len(t, branches, hierarchy.DefaultMaxLevel+1)
	assert.Equal(t, hierarchy.DefaultMaxLevel, branches[len(branches)-1].Level)
	assert.Empty(t, f.rec.WarningsSnapshot())

	cut := testutil.SeedChain(t, f.set, "CUT", hierarchy.DefaultMaxLevel+1)
	branches, err = f.svc.Materialize(ctx, f.builder.Product(cut[0]), hierarchy.Descendants)
	require.NoError(t, err)
	require.Len(t, branches, hierarchy.DefaultMaxLevel+1)
	assert.Equal(t, cut[hierarchy.DefaultMaxLevel].ID, branches[len(branches)-1].Product.ID())

	warnings := f.rec.WarningsSnapshot()
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "truncated at level 20")
}

func TestWhereUsed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	top := testutil.SeedProduct(t, f.set, "AAAA.111111.001", "Cabinet")
	mid := testutil.SeedProduct(t, f.set, "AAAA.111111.002", "Door")
	other := testutil.SeedProduct(t, f.set, "AAAA.111111.003", "Drawer")
	part := testutil.SeedProduct(t, f.set, "AAAA.111111.004", "Hinge")
	testutil.SeedEdge(t, f.set, top, mid, 2)
	testutil.SeedEdge(t, f.set, mid, part, 3)
	testutil.SeedEdge(t, f.set, other, part, 1)

	branches, err := f.svc.WhereUsed(ctx, f.builder.Product(part))
	require.NoError(t, err)
	require.Len(t, branches, 4)
	assert.Equal(t, part.ID, branches[0].Product.ID())

	levels := map[uint]int{}
	for _, br := range branches {
		levels[br.Product.ID()] = br.Level
	}
	assert.Equal(t, 1, levels[mid.ID])
	assert.Equal(t, 1, levels[other.ID])
	assert.Equal(t, 2, levels[top.ID])
}

func TestTreeStopsOnCycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := testutil.SeedProduct(t, f.set, "AAAA.111111.001", "Loop A")
	b := testutil.SeedProduct(t, f.set, "AAAA.111111.002", "Loop B")
	c := testutil.SeedProduct(t, f.set, "AAAA.111111.003", "Leaf")
	testutil.SeedEdge(t, f.set, a, b, 1)
	testutil.SeedEdge(t, f.set, b, a, 1)
	testutil.SeedEdge(t, f.set, b, c, 2)

	root, err := f.svc.Tree(ctx, f.builder.Product(a))
	require.NoError(t, err)

	var names []string
	root.Walk(func(depth int, n *hierarchy.Node) bool {
		names = append(names, strings.Repeat(" ", depth)+n.Product.Name())
		return true
	})
	assert.Equal(t, []string{"Loop A", " Loop B", "  Leaf"}, names)
	require.Len(t, f.rec.WarningsSnapshot(), 1)
}

func TestTreeDepthLimit(t *testing.T) {
	rec := &progress.Recorder{Default: true}
	set, g := testutil.Repos(t, rec)
	b := facade.NewBuilder(set)
	svc := hierarchy.NewService(g, b, rec, testutil.Logger(t), nil, hierarchy.Options{TreeDepthLimit: 3})
	chain := testutil.SeedChain(t, set, "LIM", 5)

	root, err := svc.Tree(context.Background(), b.Product(chain[0]))
	require.NoError(t, err)
	deepest := 0
	root.Walk(func(depth int, _ *hierarchy.Node) bool {
		deepest = max(deepest, depth)
		return true
	})
	assert.Equal(t, 3, deepest)
	assert.Len(t, rec.WarningsSnapshot(), 1)
}

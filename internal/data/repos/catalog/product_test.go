package catalog_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/routecard/internal/data/repos"
	"github.com/yungbote/routecard/internal/data/repos/base"
	"github.com/yungbote/routecard/internal/data/repos/catalog"
	"github.com/yungbote/routecard/internal/data/repos/testutil"
	"github.com/yungbote/routecard/internal/domain"
	"github.com/yungbote/routecard/internal/pkg/dbctx"
	"github.com/yungbote/routecard/internal/pkg/pointers"
	"github.com/yungbote/routecard/internal/progress"
)

func TestProductCacheCoherenceAfterReload(t *testing.T) {
	set, _ := testutil.Repos(t, nil)
	ctx := context.Background()

	testutil.SeedProduct(t, set, "AAAA.111111.001", "Widget")
	testutil.SeedProduct(t, set, "AAAA.111111.002", "Bracket")
	testutil.SeedProduct(t, set, "Steel 45", "Steel 45")

	require.NoError(t, set.Product.Reload(ctx))
	require.Equal(t, 3, set.Product.Len())

	for _, p := range set.Product.Unique() {
		byID, err := set.Product.GetByID(ctx, p.ID, base.CacheOnly())
		require.NoError(t, err)
		byDen, err := set.Product.GetByDenotation(ctx, p.Denotation, base.CacheOnly())
		require.NoError(t, err)
		require.NotNil(t, byID)
		assert.Same(t, byID, byDen)
		assert.Same(t, p, byID)
	}
}

func TestProductAddOrUpdateIsIdempotent(t *testing.T) {
	set, g := testutil.Repos(t, nil)
	in := repos.ProductInput{Denotation: "AAAA.111111.001", Name: "Widget", KindID: pointers.Uint(2)}

	first, err := set.Product.AddOrUpdate(dbctx.Background(), in)
	require.NoError(t, err)
	second, err := set.Product.AddOrUpdate(dbctx.Background(), in)
	require.NoError(t, err)

	assert.Same(t, first, second)
	var n int64
	require.NoError(t, g.DB().Model(&domain.Product{}).Where("denotation = ?", in.Denotation).Count(&n).Error)
	assert.EqualValues(t, 1, n)
	assert.Equal(t, 1, set.Product.Len())
}

func TestProductWithoutDenotationIsKeyedByName(t *testing.T) {
	set, _ := testutil.Repos(t, nil)
	p, err := set.Product.AddOrUpdate(dbctx.Background(), repos.ProductInput{Name: "Steel 45"})
	require.NoError(t, err)
	assert.Equal(t, "Steel 45", p.Denotation)
	assert.False(t, p.HasRealDenotation())

	_, err = set.Product.AddOrUpdate(dbctx.Background(), repos.ProductInput{})
	require.Error(t, err)
}

func TestProductKeyedByNameCollapsesWhitespace(t *testing.T) {
	set, _ := testutil.Repos(t, nil)
	ctx := context.Background()

	p := testutil.SeedProduct(t, set, "", "  Steel  sheet   2 ")
	assert.Equal(t, "Steel sheet 2", p.Denotation)
	assert.Equal(t, p.Denotation, p.Name)
	assert.False(t, p.HasRealDenotation())

	later := time.Now().Add(time.Hour)
	again, err := set.Product.AddOrUpdate(dbctx.Background(), repos.ProductInput{Name: "Steel sheet  2", CheckedAt: &later})
	require.NoError(t, err)
	assert.Same(t, p, again)
	assert.Equal(t, "Steel sheet 2", again.Name)
	assert.False(t, again.HasRealDenotation())

	byName, err := set.Product.GetByDenotation(ctx, "Steel   sheet 2", base.CacheOnly())
	require.NoError(t, err)
	assert.Same(t, p, byName)
}

func TestProductCacheOnlyMissSkipsStore(t *testing.T) {
	set, g := testutil.Repos(t, nil)
	ctx := context.Background()
	require.NoError(t, g.DB().Create(&domain.Product{Denotation: "BBBB.000001", Name: "Direct"}).Error)

	got, err := set.Product.GetByDenotation(ctx, "BBBB.000001", base.CacheOnly())
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = set.Product.GetByDenotation(ctx, "BBBB.000001")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Direct", got.Name)

	again, err := set.Product.GetByDenotation(ctx, "BBBB.000001", base.CacheOnly())
	require.NoError(t, err)
	assert.Same(t, got, again)

	missing, err := set.Product.GetByDenotation(ctx, "NOPE")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMergeProductTimestampPrecedence(t *testing.T) {
	t1 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	older := t1.Add(-time.Hour)
	newer := t1.Add(time.Hour)

	cases := []struct {
		name      string
		stored    *time.Time
		incoming  *time.Time
		inName    string
		generated bool
		wantName  string
	}{
		{"newer renames", &t1, &newer, "Widget v2", false, "Widget v2"},
		{"equal renames", &t1, &t1, "Widget v2", false, "Widget v2"},
		{"older keeps", &t1, &older, "Widget v2", false, "Widget"},
		{"missing incoming keeps", &t1, nil, "Widget v2", false, "Widget"},
		{"never checked accepts", nil, nil, "Widget v2", false, "Widget v2"},
		{"generated keeps", &t1, &newer, "Widget v2", true, "Widget"},
		{"placeholder keeps", &t1, &newer, domain.Unknown, false, "Widget"},
		{"empty keeps", &t1, &newer, "", false, "Widget"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := &domain.Product{Denotation: "AAAA.111111.001", Name: "Widget", CheckedAt: tc.stored, CheckedBy: "ivanov"}
			catalog.MergeProduct(p, catalog.ProductInput{
				Denotation: p.Denotation,
				Name:       tc.inName,
				CheckedAt:  tc.incoming,
				CheckedBy:  "petrov",
				Generated:  tc.generated,
			})
			assert.Equal(t, tc.wantName, p.Name)
		})
	}
}

func TestMergeProductRefreshesFlagsRegardlessOfTimestamp(t *testing.T) {
	t1 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	older := t1.Add(-time.Hour)
	p := &domain.Product{Denotation: "X", Name: "X", CheckedAt: &t1, CheckedBy: "ivanov"}

	changed := catalog.MergeProduct(p, catalog.ProductInput{
		Denotation: "X",
		Purchased:  pointers.Bool(true),
		KindID:     pointers.Uint(3),
		CheckedAt:  &older,
		CheckedBy:  "petrov",
	})
	assert.True(t, changed)
	assert.True(t, p.Purchased)
	require.NotNil(t, p.KindID)
	assert.EqualValues(t, 3, *p.KindID)
	assert.Equal(t, t1, *p.CheckedAt)
	assert.Equal(t, "ivanov", p.CheckedBy)
}

func TestProductAddManyReplaysAfterTransientFailure(t *testing.T) {
	set, g := testutil.Repos(t, nil)
	inputs := map[string]repos.ProductInput{}
	for i := 1; i <= 10; i++ {
		d := fmt.Sprintf("CCCC.%06d", i)
		inputs[d] = repos.ProductInput{Denotation: d, Name: fmt.Sprintf("Part %d", i)}
	}
	testutil.FailNextCreates(t, g.DB(), 5, 1, sqlite3.Error{Code: sqlite3.ErrBusy})

	out, err := set.Product.AddMany(context.Background(), inputs)
	require.NoError(t, err)
	require.Len(t, out, 10)

	var n int64
	require.NoError(t, g.DB().Model(&domain.Product{}).Count(&n).Error)
	assert.EqualValues(t, 10, n)
	assert.Equal(t, 10, set.Product.Len())

	for key, p := range out {
		cached, err := set.Product.GetByDenotation(context.Background(), key, base.CacheOnly())
		require.NoError(t, err)
		assert.Same(t, p, cached)
	}
}

func TestProductReconnectReloadsCaches(t *testing.T) {
	rec := &progress.Recorder{Default: true}
	set, g := testutil.Repos(t, rec)
	testutil.SeedProduct(t, set, "DDDD.000001", "Before")
	before := g.Session()

	sqlDB, err := g.DB().DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	p, err := set.Product.AddOrUpdate(dbctx.Background(), repos.ProductInput{Denotation: "DDDD.000002", Name: "After"})
	require.NoError(t, err)
	require.NotNil(t, p)

	assert.NotEqual(t, before, g.Session())
	assert.Len(t, rec.Prompts, 1)
	assert.Equal(t, 2, set.Product.Len())
	assert.Equal(t, 5, set.DocumentStage.Len())
}

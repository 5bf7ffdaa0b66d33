package documents_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/routecard/internal/data/repos"
	"github.com/yungbote/routecard/internal/data/repos/base"
	"github.com/yungbote/routecard/internal/data/repos/documents"
	"github.com/yungbote/routecard/internal/data/repos/testutil"
	"github.com/yungbote/routecard/internal/domain"
	"github.com/yungbote/routecard/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/routecard/internal/pkg/errors"
)

func TestDocumentTypeIndexesShareInstances(t *testing.T) {
	set, _ := testutil.Repos(t, nil)
	ctx := context.Background()

	bySubtype, err := set.DocumentType.GetBySubtype(ctx, domain.ClassDesign, "assembly_drawing", base.CacheOnly())
	require.NoError(t, err)
	require.NotNil(t, bySubtype)
	bySign, err := set.DocumentType.GetBySign(ctx, domain.ClassDesign, "СБ", base.CacheOnly())
	require.NoError(t, err)
	assert.Same(t, bySubtype, bySign)

	stage, err := set.DocumentStage.GetByName(ctx, "Cancelled")
	require.NoError(t, err)
	assert.Equal(t, domain.StageCancelled, stage.ID)
}

func TestDocumentsByProducts(t *testing.T) {
	set, _ := testutil.Repos(t, nil)
	a := testutil.SeedProduct(t, set, "AAAA.111111.001", "Widget")
	b := testutil.SeedProduct(t, set, "AAAA.111111.002", "Bracket")
	testutil.SeedDocument(t, set, a, "AAAA.111111.001", domain.ClassDesign, "drawing")
	testutil.SeedDocument(t, set, a, "AAAA.111111.001", domain.ClassDesign, "specification")
	testutil.SeedDocument(t, set, b, "AAAA.111111.002", domain.ClassDesign, "drawing")

	got, err := set.Document.ListByProducts(context.Background(), []uint{a.ID, b.ID, 999})
	require.NoError(t, err)
	assert.Len(t, got[a.ID], 2)
	assert.Len(t, got[b.ID], 1)
	assert.Empty(t, got[999])

	again, err := set.Document.Link(dbctx.Background(), got[b.ID][0].DocumentRealID, b.ID)
	require.NoError(t, err)
	assert.Same(t, got[b.ID][0], again)
}

func TestMergeDocumentReal(t *testing.T) {
	t1 := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	older := t1.Add(-24 * time.Hour)
	created := t1.Add(-72 * time.Hour)

	d := &domain.DocumentReal{Denotation: "X", TypeID: 1, Name: "Old", StageID: domain.StageRegistered, ChangedDate: &t1}
	changed := documents.MergeDocumentReal(d, repos.DocumentRealInput{
		Denotation:  "X",
		TypeID:      1,
		Name:        "Stale",
		StageID:     domain.StageCancelled,
		ChangedDate: &older,
		CreatedDate: &created,
		CreatedBy:   "ivanov",
	})
	assert.True(t, changed)
	assert.Equal(t, "Old", d.Name)
	assert.Equal(t, domain.StageRegistered, d.StageID)
	require.NotNil(t, d.CreatedDate)
	assert.Equal(t, "ivanov", d.CreatedBy)

	newer := t1.Add(time.Hour)
	documents.MergeDocumentReal(d, repos.DocumentRealInput{Name: "Fresh", StageID: domain.StageCancelled, ChangedDate: &newer, CreatedBy: "petrov"})
	assert.Equal(t, "Fresh", d.Name)
	assert.Equal(t, domain.StageCancelled, d.StageID)
	assert.Equal(t, "ivanov", d.CreatedBy)
}

func TestDocumentRealKeyCollapsesWhitespace(t *testing.T) {
	set, _ := testutil.Repos(t, nil)
	p := testutil.SeedProduct(t, set, "AAAA.111111.001", "Widget")
	real, _ := testutil.SeedDocument(t, set, p, "AAAA.111111.001 СБ", domain.ClassDesign, "assembly_drawing")

	in := repos.DocumentRealInput{Denotation: "  AAAA.111111.001   СБ ", TypeID: real.TypeID}
	assert.Equal(t, domain.DocumentRealKey{Denotation: "AAAA.111111.001 СБ", TypeID: real.TypeID}, in.Key())

	got, err := set.DocumentReal.GetByKey(context.Background(), "AAAA.111111.001  СБ", real.TypeID, base.CacheOnly())
	require.NoError(t, err)
	assert.Same(t, real, got)

	again, err := set.DocumentReal.AddOrUpdate(dbctx.Background(), in)
	require.NoError(t, err)
	assert.Same(t, real, again)
}

func TestDocumentAddManyLinksInOneBatch(t *testing.T) {
	set, _ := testutil.Repos(t, nil)
	ctx := context.Background()
	a := testutil.SeedProduct(t, set, "AAAA.111111.001", "Widget")
	b := testutil.SeedProduct(t, set, "AAAA.111111.002", "Bracket")
	real, doc := testutil.SeedDocument(t, set, a, "AAAA.111111.001", domain.ClassDesign, "drawing")

	got, err := set.Document.AddMany(ctx, map[string]domain.DocumentKey{
		"a": {DocumentRealID: real.ID, ProductID: a.ID},
		"b": {DocumentRealID: real.ID, ProductID: b.ID},
	})
	require.NoError(t, err)
	assert.Same(t, doc, got["a"])
	assert.Equal(t, b.ID, got["b"].ProductID)

	_, err = set.Document.AddMany(ctx, map[string]domain.DocumentKey{"c": {DocumentRealID: real.ID}})
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidArgument)
}

package importer_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/routecard/internal/data/repos/testutil"
	"github.com/yungbote/routecard/internal/domain"
	"github.com/yungbote/routecard/internal/facade"
	"github.com/yungbote/routecard/internal/hierarchy"
	"github.com/yungbote/routecard/internal/importer"
	pkgerrors "github.com/yungbote/routecard/internal/pkg/errors"
	"github.com/yungbote/routecard/internal/progress"
)

const batchYAML = `
products:
  - denotation: AAAA.111111.001
    name: Widget
    kind: assembly
    last_check: 2024-03-01T10:00:00Z
  - denotation: AAAA.111111.002
    name: Bracket
    kind: part
  - name: Steel 45
    kind: material
    purchased: true
documents:
  - product: AAAA.111111.002
    denotation: AAAA.111111.002
    class: КД
    subtype: drawing
    name: Bracket
    stage: Approved
hierarchy:
  - parent: AAAA.111111.001
    children:
      - product: AAAA.111111.002
        section: parts
        quantity: 2
  - parent: AAAA.111111.002
    children:
      - product: Steel 45
        section: materials
        quantity: 0.4
        unit: kg
`

func TestReadRejectsUnknownFields(t *testing.T) {
	_, err := importer.Read(strings.NewReader("products:\n  - denotation: X\n    colour: red\n"))
	require.Error(t, err)

	_, err = importer.Read(strings.NewReader("hierarchy:\n  - children: []\n"))
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidArgument)

	b, err := importer.Read(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, b.Products)
}

func TestImportBatch(t *testing.T) {
	rec := &progress.Recorder{Default: true}
	set, g := testutil.Repos(t, rec)
	ctx := context.Background()
	builder := facade.NewBuilder(set)
	hier := hierarchy.NewService(g, builder, rec, testutil.Logger(t), nil, hierarchy.Options{})
	im := importer.New(set, hier, rec, testutil.Logger(t), nil)

	batch, err := importer.Read(strings.NewReader(batchYAML))
	require.NoError(t, err)

	rep, err := im.Import(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 3, rep.Products)
	assert.Equal(t, 1, rep.Documents)
	assert.Equal(t, 2, rep.Parents)
	assert.Equal(t, 2, rep.Inserted)
	assert.Equal(t, 2, rep.Primaries)
	assert.Equal(t, []string{"products", "documents", "hierarchy", "references", "route cards"}, rec.Stages)

	widget, err := builder.ProductByDenotation(ctx, "AAAA.111111.001")
	require.NoError(t, err)
	kind, err := widget.KindName(ctx, "nominative")
	require.NoError(t, err)
	assert.NotEmpty(t, kind)

	steel, err := set.Product.GetByDenotation(ctx, "Steel 45")
	require.NoError(t, err)
	require.NotNil(t, steel)
	assert.True(t, steel.Purchased)
	assert.False(t, steel.HasRealDenotation())

	bracket, err := builder.ProductByDenotation(ctx, "AAAA.111111.002")
	require.NoError(t, err)
	docs, err := bracket.Documents(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, domain.StageApproved, docs[0].Record().StageID)

	primary, err := bracket.Primary(ctx)
	require.NoError(t, err)
	assert.Same(t, widget, primary)

	tree, err := hier.Tree(ctx, widget)
	require.NoError(t, err)
	require.Len(t, tree.Children, 1)
	require.Len(t, tree.Children[0].Children, 1)
	assert.Equal(t, "kg", tree.Children[0].Children[0].Edge.Unit)

	// a second run changes nothing
	rep, err = im.Import(ctx, batch)
	require.NoError(t, err)
	assert.Zero(t, rep.Inserted+rep.Updated+rep.Deleted+rep.Primaries)
	assert.Equal(t, 3, set.Product.Len())
}

func TestImportUnknownReference(t *testing.T) {
	set, g := testutil.Repos(t, nil)
	hier := hierarchy.NewService(g, facade.NewBuilder(set), nil, testutil.Logger(t), nil, hierarchy.Options{})
	im := importer.New(set, hier, nil, testutil.Logger(t), nil)

	_, err := im.Import(context.Background(), &importer.Batch{
		Hierarchy: []importer.LinkRecord{{Parent: "NOPE.000000.000"}},
	})
	assert.ErrorIs(t, err, pkgerrors.ErrNotFound)
}

const routeYAML = `
products:
  - denotation: AAAA.111111.001
    name: Widget
documents:
  - product: AAAA.111111.001
    denotation: AAAA.111111.001
    class: ТД
    subtype: route_card
    name: Widget route
references:
  professions:
    - code: "18466"
      name: Fitter
  materials:
    - name: Steel 45
      unit: kg
  rigs:
    - name: File
  iot:
    - denotation: IOT-12
      name: Bench work
defaults:
  - operation: Fitting
    resources:
      - kind: rig
        resource: File
        quantity: 1
        unit: pcs
      - kind: iot
        resource: IOT-12
route_cards:
  - denotation: AAAA.111111.001
    operations:
      - order: 10
        name: Fitting
        workshop: "05"
        profession: "18466"
        sentences: [Deburr edges, Check fit]
        settings:
          - text: Mark with
            field: denotation
        resources:
          - kind: material
            resource: Steel 45
            quantity: 0.5
            unit: kg
`

func TestImportRouteCards(t *testing.T) {
	set, g := testutil.Repos(t, nil)
	ctx := context.Background()
	builder := facade.NewBuilder(set)
	hier := hierarchy.NewService(g, builder, nil, testutil.Logger(t), nil, hierarchy.Options{})
	im := importer.New(set, hier, nil, testutil.Logger(t), nil)

	batch, err := importer.Read(strings.NewReader(routeYAML))
	require.NoError(t, err)
	rep, err := im.Import(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 4, rep.References)
	assert.Equal(t, 2, rep.Defaults)
	assert.Equal(t, 1, rep.Operations)
	assert.Equal(t, 3, rep.Lines)
	assert.Equal(t, 1, rep.Resources)

	widget, err := builder.ProductByDenotation(ctx, "AAAA.111111.001")
	require.NoError(t, err)
	docs, err := widget.DocumentsByType(ctx, domain.ClassTechnology, "route_card", false)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	card, err := builder.RouteCard(ctx, widget, docs[0])
	require.NoError(t, err)
	require.Len(t, card.Operations, 1)
	line := card.Operations[0]
	assert.Equal(t, "Fitter", line.Profession)
	assert.Equal(t, "05", line.Operation.Workshop())
	assert.Equal(t, []string{"Deburr edges", "Check fit"}, line.Sentences)
	require.Len(t, line.Settings, 1)
	assert.Equal(t, facade.FieldDenotation, line.Settings[0].Field)
	assert.Equal(t, "AAAA.111111.001", line.Settings[0].Value)

	require.Len(t, line.Resources, 3)
	assert.Equal(t, "IOT-12", line.Resources[0].Name)
	assert.True(t, line.Resources[0].Default)
	assert.Equal(t, "Steel 45", line.Resources[1].Name)
	assert.False(t, line.Resources[1].Default)
	assert.Equal(t, 0.5, line.Resources[1].Quantity)
	assert.Equal(t, "File", line.Resources[2].Name)

	// importing again updates in place
	_, err = im.Import(ctx, batch)
	require.NoError(t, err)
	var ops, sentences int64
	require.NoError(t, g.DB().Model(&domain.Operation{}).Count(&ops).Error)
	require.NoError(t, g.DB().Model(&domain.Sentence{}).Count(&sentences).Error)
	assert.EqualValues(t, 1, ops)
	assert.EqualValues(t, 2, sentences)
}

func TestImportRejectsUnknownSettingField(t *testing.T) {
	set, g := testutil.Repos(t, nil)
	hier := hierarchy.NewService(g, facade.NewBuilder(set), nil, testutil.Logger(t), nil, hierarchy.Options{})
	im := importer.New(set, hier, nil, testutil.Logger(t), nil)

	batch, err := importer.Read(strings.NewReader(strings.Replace(routeYAML, "field: denotation", "field: colour", 1)))
	require.NoError(t, err)
	_, err = im.Import(context.Background(), batch)
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidArgument)

	var settings int64
	require.NoError(t, g.DB().Model(&domain.Setting{}).Count(&settings).Error)
	assert.Zero(t, settings)
}

// Package importer loads product, document and composition batches into
// the store.
package importer

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/yungbote/routecard/internal/data/repos"
	"github.com/yungbote/routecard/internal/domain"
	"github.com/yungbote/routecard/internal/hierarchy"
	"github.com/yungbote/routecard/internal/normalization"
	"github.com/yungbote/routecard/internal/observability"
	"github.com/yungbote/routecard/internal/pkg/ctxutil"
	"github.com/yungbote/routecard/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/routecard/internal/pkg/errors"
	"github.com/yungbote/routecard/internal/pkg/logger"
	"github.com/yungbote/routecard/internal/pkg/pointers"
	"github.com/yungbote/routecard/internal/progress"
)

type Report struct {
	RunID     uuid.UUID
	Products  int
	Documents int
	Parents   int
	Inserted  int
	Updated   int
	Deleted   int
	Primaries int

	References int
	Defaults   int
	Operations int
	Lines      int
	Resources  int
}

type Importer struct {
	repos    *repos.Set
	hier     hierarchy.Service
	reporter progress.Reporter
	log      *logger.Logger
	metrics  *observability.Metrics
}

func New(set *repos.Set, hier hierarchy.Service, reporter progress.Reporter, log *logger.Logger, metrics *observability.Metrics) *Importer {
	importLog := log.With("service", "Importer")
	if reporter == nil {
		reporter = progress.NewLogReporter(importLog, false)
	}
	return &Importer{repos: set, hier: hier, reporter: reporter, log: importLog, metrics: metrics}
}

const stages = 5

// Import writes b in phases: products, documents, composition, reference
// tables with operation defaults, then route cards. Each phase commits on
// its own; a failed phase leaves the earlier ones in place and the batch
// can simply be imported again.
func (im *Importer) Import(ctx context.Context, b *Batch) (*Report, error) {
	rep := &Report{RunID: uuid.New()}
	if id, err := uuid.Parse(ctxutil.RunID(ctx)); err == nil {
		rep.RunID = id
	} else {
		ctx = ctxutil.WithRunData(ctx, &ctxutil.RunData{RunID: rep.RunID.String(), Command: "import"})
	}
	log := im.log.With("run_id", rep.RunID.String())
	log.Info("import started",
		"products", len(b.Products),
		"documents", len(b.Documents),
		"parents", len(b.Hierarchy),
		"references", b.References.len(),
		"route_cards", len(b.RouteCards),
	)

	im.reporter.Stage("products", 1, stages)
	products, err := im.importProducts(ctx, b.Products)
	if err != nil {
		return nil, fmt.Errorf("import products: %w", err)
	}
	rep.Products = len(products)
	im.metrics.AddImported("product", rep.Products)

	im.reporter.Stage("documents", 2, stages)
	if rep.Documents, err = im.importDocuments(ctx, products, b.Documents); err != nil {
		return nil, fmt.Errorf("import documents: %w", err)
	}
	im.metrics.AddImported("document", rep.Documents)

	im.reporter.Stage("hierarchy", 3, stages)
	for i, link := range b.Hierarchy {
		im.reporter.SubStage(i+1, len(b.Hierarchy))
		if err := im.importLink(ctx, products, link, rep); err != nil {
			return nil, fmt.Errorf("import children of %s: %w", link.Parent, err)
		}
	}
	im.metrics.AddImported("hierarchy", rep.Inserted+rep.Updated)

	im.reporter.Stage("references", 4, stages)
	if rep.References, err = im.importReferences(ctx, b.References); err != nil {
		return nil, fmt.Errorf("import references: %w", err)
	}
	if rep.Defaults, err = im.importDefaults(ctx, b.Defaults); err != nil {
		return nil, fmt.Errorf("import operation defaults: %w", err)
	}
	im.metrics.AddImported("reference", rep.References+rep.Defaults)

	im.reporter.Stage("route cards", 5, stages)
	counts, err := im.importRouteCards(ctx, b.RouteCards)
	if err != nil {
		return nil, fmt.Errorf("import route cards: %w", err)
	}
	rep.Operations, rep.Lines, rep.Resources = counts.operations, counts.lines, counts.resources
	im.metrics.AddImported("operation", rep.Operations)

	log.Info("import finished",
		"products", rep.Products,
		"documents", rep.Documents,
		"inserted", rep.Inserted,
		"updated", rep.Updated,
		"deleted", rep.Deleted,
		"primaries", rep.Primaries,
		"operations", rep.Operations,
	)
	return rep, nil
}

func (im *Importer) importProducts(ctx context.Context, records []ProductRecord) (map[string]*domain.Product, error) {
	inputs := make(map[string]repos.ProductInput, len(records))
	for _, rec := range records {
		in := rec.ProductInput
		if rec.Kind != "" {
			kind, err := im.repos.ProductKind.GetByName(ctx, rec.Kind)
			if err != nil {
				return nil, err
			}
			if kind == nil {
				return nil, fmt.Errorf("%w: product %s has unknown kind %q", pkgerrors.ErrInvalidArgument, in.Key(), rec.Kind)
			}
			in.KindID = pointers.Uint(kind.ID)
		}
		// a repeated key keeps the record read last
		inputs[in.Key()] = in
	}
	return im.repos.Product.AddMany(ctx, inputs)
}

// product resolves a key against the products of this batch first, then
// against the store.
func (im *Importer) product(ctx context.Context, batch map[string]*domain.Product, key string) (*domain.Product, error) {
	key = normalization.Denotation(key)
	if p, ok := batch[key]; ok {
		return p, nil
	}
	p, err := im.repos.Product.GetByDenotation(ctx, key)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("product %q: %w", key, pkgerrors.ErrNotFound)
	}
	return p, nil
}

func (im *Importer) importDocuments(ctx context.Context, products map[string]*domain.Product, records []DocumentRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	inputs := make(map[string]repos.DocumentRealInput, len(records))
	owners := map[string][]uint{}
	for _, rec := range records {
		owner, err := im.product(ctx, products, rec.Product)
		if err != nil {
			return 0, err
		}
		dt, err := im.repos.DocumentType.GetBySubtype(ctx, rec.Class, rec.Subtype)
		if err != nil {
			return 0, err
		}
		if dt == nil {
			return 0, fmt.Errorf("%w: unknown document type %s/%s", pkgerrors.ErrInvalidArgument, rec.Class, rec.Subtype)
		}
		stageID := domain.StageRegistered
		if rec.Stage != "" {
			stage, err := im.repos.DocumentStage.GetByName(ctx, rec.Stage)
			if err != nil {
				return 0, err
			}
			if stage == nil {
				return 0, fmt.Errorf("%w: unknown document stage %q", pkgerrors.ErrInvalidArgument, rec.Stage)
			}
			stageID = stage.ID
		}
		in := repos.DocumentRealInput{
			Denotation:  rec.Denotation,
			TypeID:      dt.ID,
			Name:        rec.Name,
			FileName:    rec.FileName,
			Link:        rec.Link,
			StageID:     stageID,
			CreatedDate: rec.CreatedDate,
			CreatedBy:   rec.CreatedBy,
			ChangedDate: rec.ChangedDate,
			ChangedBy:   rec.ChangedBy,
		}
		key := in.Key().String()
		inputs[key] = in
		owners[key] = append(owners[key], owner.ID)
	}

	reals, err := im.repos.DocumentReal.AddMany(ctx, inputs)
	if err != nil {
		return 0, err
	}
	links := map[string]domain.DocumentKey{}
	for key, doc := range reals {
		for _, productID := range owners[key] {
			link := domain.DocumentKey{DocumentRealID: doc.ID, ProductID: productID}
			links[fmt.Sprintf("%d|%d", link.DocumentRealID, link.ProductID)] = link
		}
	}
	if _, err := im.repos.Document.AddMany(ctx, links); err != nil {
		return 0, err
	}
	return len(reals), nil
}

func (im *Importer) importLink(ctx context.Context, products map[string]*domain.Product, link LinkRecord, rep *Report) error {
	parent, err := im.product(ctx, products, link.Parent)
	if err != nil {
		return err
	}
	targets := make([]hierarchy.Target, 0, len(link.Children))
	for _, c := range link.Children {
		child, err := im.product(ctx, products, c.Product)
		if err != nil {
			return err
		}
		qty := c.Quantity
		if qty == 0 {
			qty = 1
		}
		targets = append(targets, hierarchy.Target{
			ProductID: child.ID,
			Section:   c.Section,
			Quantity:  qty,
			Unit:      c.Unit,
		})
	}
	res, err := im.hier.Reconcile(ctx, parent.ID, targets)
	if err != nil {
		return err
	}
	rep.Parents++
	rep.Inserted += res.Inserted
	rep.Updated += res.Updated
	rep.Deleted += res.Deleted

	for _, edge := range res.Edges {
		cur, err := im.repos.PrimaryApplication.GetByChild(ctx, edge.ChildID)
		if err != nil {
			return err
		}
		if cur != nil {
			continue
		}
		if _, err := im.repos.PrimaryApplication.SetPrimary(dbctx.Context{Ctx: ctx}, edge.ChildID, parent.ID); err != nil {
			return err
		}
		rep.Primaries++
	}
	return nil
}

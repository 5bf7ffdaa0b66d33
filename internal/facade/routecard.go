package facade

import (
	"context"
	"fmt"
	"sort"

	"github.com/yungbote/routecard/internal/domain"
)

// RouteCard is a technological route card ready for rendering: the
// operations of one document, in order, with everything printed under
// each of them.
type RouteCard struct {
	Product    *Product
	Document   *Document
	Operations []RouteOperation
}

type RouteOperation struct {
	Operation  *Operation
	Profession string
	Sentences  []string
	Settings   []SettingLine
	Resources  []Resource
}

// SettingLine is a parameter line. Value holds the product attribute the
// line refers to, if any.
type SettingLine struct {
	Text  string
	Field Field
	Value string
}

type Resource struct {
	Kind     string
	ID       uint
	Name     string
	Quantity float64
	Unit     string
	// Default is true when the resource comes from the defaults of the
	// operation name rather than from the operation itself.
	Default bool
}

// RouteCard assembles the route card doc describes for product.
func (b *Builder) RouteCard(ctx context.Context, product *Product, doc *Document) (*RouteCard, error) {
	ops, err := b.repos.Operation.ListByDocument(ctx, doc.ID())
	if err != nil {
		return nil, err
	}
	card := &RouteCard{Product: product, Document: doc}
	for _, rec := range ops {
		op := b.Operation(rec)
		line, err := b.routeOperation(ctx, product, op)
		if err != nil {
			return nil, fmt.Errorf("operation %d %s: %w", rec.OrderNum, rec.Name, err)
		}
		card.Operations = append(card.Operations, line)
	}
	return card, nil
}

func (b *Builder) routeOperation(ctx context.Context, product *Product, op *Operation) (RouteOperation, error) {
	out := RouteOperation{Operation: op}
	var err error
	if out.Profession, err = op.Profession(ctx); err != nil {
		return out, err
	}

	sentences, err := op.Sentences(ctx)
	if err != nil {
		return out, err
	}
	for _, s := range sentences {
		out.Sentences = append(out.Sentences, s.Text())
	}

	settings, err := b.repos.Setting.ListByOperation(ctx, op.ID())
	if err != nil {
		return out, err
	}
	for _, s := range settings {
		f, err := ParseField(s.Field)
		if err != nil {
			return out, err
		}
		line := SettingLine{Text: s.Text, Field: f}
		if f != FieldNone && product != nil {
			if line.Value, err = product.Value(ctx, f); err != nil {
				return out, err
			}
		}
		out.Settings = append(out.Settings, line)
	}

	out.Resources, err = b.resources(ctx, op)
	return out, err
}

// resources merges the defaults of the operation name with the rows bound
// to the operation; a bound row overrides the default for the same
// resource.
func (b *Builder) resources(ctx context.Context, op *Operation) ([]Resource, error) {
	type key struct {
		kind string
		id   uint
	}
	merged := map[key]Resource{}

	defaults, err := b.repos.OperationDefault.ListByOperationName(ctx, op.Name())
	if err != nil {
		return nil, err
	}
	for _, d := range defaults {
		merged[key{d.ResourceKind, d.ResourceID}] = Resource{
			Kind: d.ResourceKind, ID: d.ResourceID, Quantity: d.Quantity, Unit: d.Unit, Default: true,
		}
	}
	bound, err := b.repos.OperationResource.ListByOperation(ctx, op.ID())
	if err != nil {
		return nil, err
	}
	for _, r := range bound {
		merged[key{r.ResourceKind, r.ResourceID}] = Resource{
			Kind: r.ResourceKind, ID: r.ResourceID, Quantity: r.Quantity, Unit: r.Unit,
		}
	}

	out := make([]Resource, 0, len(merged))
	for _, r := range merged {
		name, err := b.resourceName(ctx, r.Kind, r.ID)
		if err != nil {
			return nil, err
		}
		r.Name = name
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (b *Builder) resourceName(ctx context.Context, kind string, id uint) (string, error) {
	switch kind {
	case domain.ResourceMaterial:
		m, err := b.repos.Material.GetByID(ctx, id)
		if err != nil || m == nil {
			return "", err
		}
		return m.Name, nil
	case domain.ResourceRig:
		r, err := b.repos.Rig.GetByID(ctx, id)
		if err != nil || r == nil {
			return "", err
		}
		return r.Name, nil
	case domain.ResourceEquipment:
		e, err := b.repos.Equipment.GetByID(ctx, id)
		if err != nil || e == nil {
			return "", err
		}
		return e.Name, nil
	case domain.ResourceIOT:
		i, err := b.repos.IOT.GetByID(ctx, id)
		if err != nil || i == nil {
			return "", err
		}
		return i.Denotation, nil
	default:
		return "", nil
	}
}

package importer

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/routecard/internal/data/repos"
	"github.com/yungbote/routecard/internal/domain"
	"github.com/yungbote/routecard/internal/facade"
	pkgerrors "github.com/yungbote/routecard/internal/pkg/errors"
)

func (im *Importer) importReferences(ctx context.Context, refs ReferenceRecords) (int, error) {
	professions := make(map[string]*domain.Profession, len(refs.Professions))
	for _, r := range refs.Professions {
		professions[r.Code] = &domain.Profession{Code: r.Code, Name: r.Name}
	}
	materials := make(map[string]*domain.Material, len(refs.Materials))
	for _, r := range refs.Materials {
		materials[r.Name] = &domain.Material{Name: r.Name, Standard: r.Standard, Unit: r.Unit}
	}
	rigs := make(map[string]*domain.Rig, len(refs.Rigs))
	for _, r := range refs.Rigs {
		rigs[r.Name] = &domain.Rig{Name: r.Name, Denotation: r.Denotation}
	}
	equipment := make(map[string]*domain.Equipment, len(refs.Equipment))
	for _, r := range refs.Equipment {
		equipment[r.Name] = &domain.Equipment{Name: r.Name, Denotation: r.Denotation}
	}
	iot := make(map[string]*domain.IOT, len(refs.IOT))
	for _, r := range refs.IOT {
		iot[r.Denotation] = &domain.IOT{Denotation: r.Denotation, Name: r.Name}
	}

	n := 0
	got, err := im.repos.Profession.AddMany(ctx, professions)
	if err != nil {
		return n, fmt.Errorf("professions: %w", err)
	}
	n += len(got)
	mats, err := im.repos.Material.AddMany(ctx, materials)
	if err != nil {
		return n, fmt.Errorf("materials: %w", err)
	}
	n += len(mats)
	rigRows, err := im.repos.Rig.AddMany(ctx, rigs)
	if err != nil {
		return n, fmt.Errorf("rigs: %w", err)
	}
	n += len(rigRows)
	equipRows, err := im.repos.Equipment.AddMany(ctx, equipment)
	if err != nil {
		return n, fmt.Errorf("equipment: %w", err)
	}
	n += len(equipRows)
	iotRows, err := im.repos.IOT.AddMany(ctx, iot)
	if err != nil {
		return n, fmt.Errorf("iot: %w", err)
	}
	return n + len(iotRows), nil
}

// resourceID resolves a resource record against the reference tables.
func (im *Importer) resourceID(ctx context.Context, r ResourceRecord) (uint, error) {
	var id uint
	switch r.Kind {
	case domain.ResourceMaterial:
		row, err := im.repos.Material.GetByKey(ctx, r.Resource)
		if err != nil {
			return 0, err
		}
		if row != nil {
			id = row.ID
		}
	case domain.ResourceRig:
		row, err := im.repos.Rig.GetByKey(ctx, r.Resource)
		if err != nil {
			return 0, err
		}
		if row != nil {
			id = row.ID
		}
	case domain.ResourceEquipment:
		row, err := im.repos.Equipment.GetByKey(ctx, r.Resource)
		if err != nil {
			return 0, err
		}
		if row != nil {
			id = row.ID
		}
	case domain.ResourceIOT:
		row, err := im.repos.IOT.GetByKey(ctx, r.Resource)
		if err != nil {
			return 0, err
		}
		if row != nil {
			id = row.ID
		}
	default:
		return 0, fmt.Errorf("%w: unknown resource kind %q", pkgerrors.ErrInvalidArgument, r.Kind)
	}
	if id == 0 {
		return 0, fmt.Errorf("%s %q: %w", r.Kind, r.Resource, pkgerrors.ErrNotFound)
	}
	return id, nil
}

func (im *Importer) importDefaults(ctx context.Context, records []DefaultRecord) (int, error) {
	inputs := map[string]repos.DefaultInput{}
	for _, rec := range records {
		for _, r := range rec.Resources {
			id, err := im.resourceID(ctx, r)
			if err != nil {
				return 0, fmt.Errorf("defaults of %s: %w", rec.Operation, err)
			}
			key := domain.DefaultKey{OperationName: strings.TrimSpace(rec.Operation), ResourceKind: r.Kind, ResourceID: id}
			inputs[fmt.Sprintf("%s|%s|%d", key.OperationName, key.ResourceKind, key.ResourceID)] = repos.DefaultInput{
				Key:      key,
				Quantity: r.Quantity,
				Unit:     r.Unit,
			}
		}
	}
	rows, err := im.repos.OperationDefault.AddMany(ctx, inputs)
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// routeDocument finds the technological document a route card fills.
func (im *Importer) routeDocument(ctx context.Context, rec RouteCardRecord) (*domain.DocumentReal, error) {
	subtype := rec.Subtype
	if subtype == "" {
		subtype = "route_card"
	}
	dt, err := im.repos.DocumentType.GetBySubtype(ctx, domain.ClassTechnology, subtype)
	if err != nil {
		return nil, err
	}
	if dt == nil {
		return nil, fmt.Errorf("%w: unknown document type %s/%s", pkgerrors.ErrInvalidArgument, domain.ClassTechnology, subtype)
	}
	doc, err := im.repos.DocumentReal.GetByKey(ctx, rec.Denotation, dt.ID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("route card %q: %w", rec.Denotation, pkgerrors.ErrNotFound)
	}
	return doc, nil
}

type routeCounts struct {
	operations, lines, resources int
}

// importRouteCards writes operations first, then their sentences,
// settings and resources, each kind as one batch.
func (im *Importer) importRouteCards(ctx context.Context, records []RouteCardRecord) (routeCounts, error) {
	var counts routeCounts
	type pending struct {
		key string
		rec OperationRecord
	}
	var ops []pending
	opInputs := map[string]repos.OperationInput{}
	for _, card := range records {
		doc, err := im.routeDocument(ctx, card)
		if err != nil {
			return counts, err
		}
		for _, op := range card.Operations {
			in := repos.OperationInput{
				DocumentID: doc.ID,
				OrderNum:   op.Order,
				Name:       op.Name,
				Workshop:   op.Workshop,
				Area:       op.Area,
			}
			if op.Profession != "" {
				prof, err := im.repos.Profession.GetByKey(ctx, op.Profession)
				if err != nil {
					return counts, err
				}
				if prof == nil {
					return counts, fmt.Errorf("profession %q: %w", op.Profession, pkgerrors.ErrNotFound)
				}
				id := prof.ID
				in.ProfessionID = &id
			}
			key := fmt.Sprintf("%d|%d", doc.ID, op.Order)
			opInputs[key] = in
			ops = append(ops, pending{key: key, rec: op})
		}
	}
	saved, err := im.repos.Operation.AddMany(ctx, opInputs)
	if err != nil {
		return counts, fmt.Errorf("operations: %w", err)
	}
	counts.operations = len(saved)

	sentences := map[string]repos.LineInput{}
	settings := map[string]repos.LineInput{}
	resources := map[string]repos.ResourceInput{}
	for _, p := range ops {
		op := saved[p.key]
		for i, text := range p.rec.Sentences {
			sentences[fmt.Sprintf("%d|%d", op.ID, i+1)] = repos.LineInput{OperationID: op.ID, OrderNum: i + 1, Text: text}
		}
		for i, s := range p.rec.Settings {
			f, err := facade.ParseField(s.Field)
			if err != nil {
				return counts, fmt.Errorf("operation %s: %w", op.Name, err)
			}
			settings[fmt.Sprintf("%d|%d", op.ID, i+1)] = repos.LineInput{OperationID: op.ID, OrderNum: i + 1, Text: s.Text, Field: f.String()}
		}
		for _, r := range p.rec.Resources {
			id, err := im.resourceID(ctx, r)
			if err != nil {
				return counts, fmt.Errorf("operation %s: %w", op.Name, err)
			}
			key := domain.ResourceKey{OperationID: op.ID, ResourceKind: r.Kind, ResourceID: id}
			resources[fmt.Sprintf("%d|%s|%d", op.ID, r.Kind, id)] = repos.ResourceInput{Key: key, Quantity: r.Quantity, Unit: r.Unit}
		}
	}

	sent, err := im.repos.Sentence.AddMany(ctx, sentences)
	if err != nil {
		return counts, fmt.Errorf("sentences: %w", err)
	}
	set, err := im.repos.Setting.AddMany(ctx, settings)
	if err != nil {
		return counts, fmt.Errorf("settings: %w", err)
	}
	res, err := im.repos.OperationResource.AddMany(ctx, resources)
	if err != nil {
		return counts, fmt.Errorf("resources: %w", err)
	}
	counts.lines = len(sent) + len(set)
	counts.resources = len(res)
	return counts, nil
}

package repos

import (
	"context"

	"github.com/yungbote/routecard/internal/data/repos/catalog"
	"github.com/yungbote/routecard/internal/data/repos/documents"
	"github.com/yungbote/routecard/internal/data/repos/routing"
	"github.com/yungbote/routecard/internal/data/store"
	"github.com/yungbote/routecard/internal/observability"
	"github.com/yungbote/routecard/internal/pkg/logger"
)

type ProductRepo = catalog.ProductRepo
type ProductKindRepo = catalog.ProductKindRepo
type HierarchyRepo = catalog.HierarchyRepo
type PrimaryApplicationRepo = catalog.PrimaryApplicationRepo

type DocumentRepo = documents.DocumentRepo
type DocumentRealRepo = documents.DocumentRealRepo
type DocumentTypeRepo = documents.DocumentTypeRepo
type DocumentStageRepo = documents.DocumentStageRepo

type OperationRepo = routing.OperationRepo
type SentenceRepo = routing.SentenceRepo
type SettingRepo = routing.SettingRepo
type MaterialRepo = routing.MaterialRepo
type RigRepo = routing.RigRepo
type EquipmentRepo = routing.EquipmentRepo
type IOTRepo = routing.IOTRepo
type ProfessionRepo = routing.ProfessionRepo
type UserRepo = routing.UserRepo
type OperationResourceRepo = routing.OperationResourceRepo
type OperationDefaultRepo = routing.OperationDefaultRepo

type ProductInput = catalog.ProductInput
type DocumentRealInput = documents.DocumentRealInput
type OperationInput = routing.OperationInput
type LineInput = routing.LineInput
type ResourceInput = routing.ResourceInput
type DefaultInput = routing.DefaultInput

// Set is every repository of the process, built once against one gateway.
type Set struct {
	Product            ProductRepo
	ProductKind        ProductKindRepo
	Hierarchy          HierarchyRepo
	PrimaryApplication PrimaryApplicationRepo

	Document      DocumentRepo
	DocumentReal  DocumentRealRepo
	DocumentType  DocumentTypeRepo
	DocumentStage DocumentStageRepo

	Operation         OperationRepo
	Sentence          SentenceRepo
	Setting           SettingRepo
	Material          MaterialRepo
	Rig               RigRepo
	Equipment         EquipmentRepo
	IOT               IOTRepo
	Profession        ProfessionRepo
	User              UserRepo
	OperationResource OperationResourceRepo
	OperationDefault  OperationDefaultRepo
}

// NewSet builds every repository. Each registers itself with gw so a
// reconnect reloads all caches.
func NewSet(gw *store.Gateway, baseLog *logger.Logger, metrics *observability.Metrics) *Set {
	return &Set{
		Product:            catalog.NewProductRepo(gw, baseLog, metrics),
		ProductKind:        catalog.NewProductKindRepo(gw, baseLog, metrics),
		Hierarchy:          catalog.NewHierarchyRepo(gw, baseLog, metrics),
		PrimaryApplication: catalog.NewPrimaryApplicationRepo(gw, baseLog, metrics),

		Document:      documents.NewDocumentRepo(gw, baseLog, metrics),
		DocumentReal:  documents.NewDocumentRealRepo(gw, baseLog, metrics),
		DocumentType:  documents.NewDocumentTypeRepo(gw, baseLog, metrics),
		DocumentStage: documents.NewDocumentStageRepo(gw, baseLog, metrics),

		Operation:         routing.NewOperationRepo(gw, baseLog, metrics),
		Sentence:          routing.NewSentenceRepo(gw, baseLog, metrics),
		Setting:           routing.NewSettingRepo(gw, baseLog, metrics),
		Material:          routing.NewMaterialRepo(gw, baseLog, metrics),
		Rig:               routing.NewRigRepo(gw, baseLog, metrics),
		Equipment:         routing.NewEquipmentRepo(gw, baseLog, metrics),
		IOT:               routing.NewIOTRepo(gw, baseLog, metrics),
		Profession:        routing.NewProfessionRepo(gw, baseLog, metrics),
		User:              routing.NewUserRepo(gw, baseLog, metrics),
		OperationResource: routing.NewOperationResourceRepo(gw, baseLog, metrics),
		OperationDefault:  routing.NewOperationDefaultRepo(gw, baseLog, metrics),
	}
}

// CacheStat is the number of cached rows of one kind.
type CacheStat struct {
	Kind string
	Rows int
}

type sized interface {
	Kind() string
	Len() int
	Reload(ctx context.Context) error
}

func (s *Set) all() []sized {
	return []sized{
		s.ProductKind, s.Product, s.Hierarchy, s.PrimaryApplication,
		s.DocumentStage, s.DocumentType, s.DocumentReal, s.Document,
		s.Profession, s.User, s.Operation, s.Sentence, s.Setting,
		s.Material, s.Rig, s.Equipment, s.IOT, s.OperationResource, s.OperationDefault,
	}
}

// Stats reports the cache size of every kind.
func (s *Set) Stats() []CacheStat {
	list := s.all()
	out := make([]CacheStat, 0, len(list))
	for _, r := range list {
		out = append(out, CacheStat{Kind: r.Kind(), Rows: r.Len()})
	}
	return out
}

// Warm loads the reference kinds up front; everything else is filled on
// demand.
func (s *Set) Warm(ctx context.Context) error {
	for _, r := range []sized{s.ProductKind, s.DocumentStage, s.DocumentType} {
		if err := r.Reload(ctx); err != nil {
			return err
		}
	}
	return nil
}

package documents

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/routecard/internal/data/cache"
	"github.com/yungbote/routecard/internal/data/repos/base"
	"github.com/yungbote/routecard/internal/data/store"
	"github.com/yungbote/routecard/internal/domain"
	"github.com/yungbote/routecard/internal/normalization"
	"github.com/yungbote/routecard/internal/observability"
	"github.com/yungbote/routecard/internal/pkg/dbctx"
	"github.com/yungbote/routecard/internal/pkg/logger"
)

type DocumentRealInput struct {
	Denotation  string     `json:"denotation" yaml:"denotation" validate:"required,max=255"`
	TypeID      uint       `json:"type_id" yaml:"type_id" validate:"required"`
	Name        string     `json:"name" yaml:"name"`
	FileName    string     `json:"file_name" yaml:"file_name"`
	Link        string     `json:"link" yaml:"link"`
	StageID     uint       `json:"stage_id" yaml:"stage_id"`
	CreatedDate *time.Time `json:"created_date,omitempty" yaml:"created_date"`
	CreatedBy   string     `json:"created_author" yaml:"created_author"`
	ChangedDate *time.Time `json:"changed_date,omitempty" yaml:"changed_date"`
	ChangedBy   string     `json:"changed_author" yaml:"changed_author"`
}

func (in DocumentRealInput) Key() domain.DocumentRealKey {
	return domain.DocumentRealKey{Denotation: normalization.Denotation(in.Denotation), TypeID: in.TypeID}
}

type DocumentRealRepo interface {
	base.Common[domain.DocumentReal]
	GetByKey(ctx context.Context, denotation string, typeID uint, opts ...base.GetOption) (*domain.DocumentReal, error)
	AddOrUpdate(dbc dbctx.Context, in DocumentRealInput) (*domain.DocumentReal, error)
	AddMany(ctx context.Context, inputs map[string]DocumentRealInput) (map[string]*domain.DocumentReal, error)
}

type documentRealRepo struct {
	*base.Repo[domain.DocumentReal]
	byKey *cache.Index[domain.DocumentRealKey, domain.DocumentReal]
}

func NewDocumentRealRepo(gw *store.Gateway, baseLog *logger.Logger, metrics *observability.Metrics) DocumentRealRepo {
	b := base.New[domain.DocumentReal]("document_real", gw, func(d *domain.DocumentReal) uint { return d.ID }, baseLog.With("repo", "DocumentRealRepo"), metrics)
	return &documentRealRepo{
		Repo: b,
		byKey: cache.WithIndex(b.Cache(), cache.NewIndex("key", func(d *domain.DocumentReal) (domain.DocumentRealKey, bool) {
			return domain.DocumentRealKey{Denotation: d.Denotation, TypeID: d.TypeID}, d.Denotation != ""
		})),
	}
}

func (r *documentRealRepo) GetByKey(ctx context.Context, denotation string, typeID uint, opts ...base.GetOption) (*domain.DocumentReal, error) {
	key := domain.DocumentRealKey{Denotation: normalization.Denotation(denotation), TypeID: typeID}
	if key.Denotation == "" {
		return nil, nil
	}
	return base.Lookup(ctx, r.Repo, r.byKey, key, func(conn *gorm.DB) *gorm.DB {
		return conn.Where("denotation = ? AND type_id = ?", key.Denotation, key.TypeID)
	}, opts...)
}

func (r *documentRealRepo) AddOrUpdate(dbc dbctx.Context, in DocumentRealInput) (*domain.DocumentReal, error) {
	if err := base.Validate(in); err != nil {
		return nil, err
	}
	return r.Write(dbc, "add_or_update", func(tx dbctx.Context) (*domain.DocumentReal, error) {
		return r.upsert(tx, in)
	})
}

func (r *documentRealRepo) AddMany(ctx context.Context, inputs map[string]DocumentRealInput) (map[string]*domain.DocumentReal, error) {
	for _, in := range inputs {
		if err := base.Validate(in); err != nil {
			return nil, err
		}
	}
	return base.AddMany(ctx, r.Repo, "add_many", inputs, r.upsert)
}

func (r *documentRealRepo) upsert(dbc dbctx.Context, in DocumentRealInput) (*domain.DocumentReal, error) {
	key := in.Key()
	return base.Upsert(dbc,
		func(conn *gorm.DB) *gorm.DB {
			return conn.Where("denotation = ? AND type_id = ?", key.Denotation, key.TypeID)
		},
		func() *domain.DocumentReal {
			d := &domain.DocumentReal{Denotation: key.Denotation, TypeID: key.TypeID, StageID: domain.StageUnknown}
			MergeDocumentReal(d, in)
			return d
		},
		func(existing *domain.DocumentReal) bool { return MergeDocumentReal(existing, in) },
	)
}

// MergeDocumentReal applies in to d and reports whether d changed.
// Descriptive fields follow the most recently changed record; a stored
// record without a change date always yields. Creation fields are only
// ever filled, never replaced.
func MergeDocumentReal(d *domain.DocumentReal, in DocumentRealInput) bool {
	changed := false
	set := func(dst *string, v string) {
		if v != "" && v != *dst {
			*dst = v
			changed = true
		}
	}

	isNew := d.ChangedDate == nil || (in.ChangedDate != nil && !in.ChangedDate.Before(*d.ChangedDate))
	if isNew {
		set(&d.Name, in.Name)
		set(&d.FileName, in.FileName)
		set(&d.Link, in.Link)
		set(&d.ChangedBy, in.ChangedBy)
		if in.StageID != 0 && in.StageID != d.StageID {
			d.StageID = in.StageID
			changed = true
		}
		if in.ChangedDate != nil && (d.ChangedDate == nil || !d.ChangedDate.Equal(*in.ChangedDate)) {
			at := *in.ChangedDate
			d.ChangedDate = &at
			changed = true
		}
	}
	if d.CreatedDate == nil && in.CreatedDate != nil {
		at := *in.CreatedDate
		d.CreatedDate = &at
		changed = true
	}
	if d.CreatedBy == "" && in.CreatedBy != "" {
		d.CreatedBy = in.CreatedBy
		changed = true
	}
	return changed
}

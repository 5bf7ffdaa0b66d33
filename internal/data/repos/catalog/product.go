package catalog

import (
	"context"
	"strings"
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

// ProductInput is one imported product record. CheckedAt is the source's
// last-check timestamp and drives the merge with an existing row.
type ProductInput struct {
	Denotation string     `json:"denotation" yaml:"denotation" validate:"required_without=Name,max=255"`
	Name       string     `json:"name" yaml:"name" validate:"required_without=Denotation,max=512"`
	KindID     *uint      `json:"kind_id,omitempty" yaml:"kind_id"`
	Purchased  *bool      `json:"purchased,omitempty" yaml:"purchased"`
	CheckedAt  *time.Time `json:"last_check,omitempty" yaml:"last_check"`
	CheckedBy  string     `json:"last_check_author,omitempty" yaml:"last_check_author"`
	// Generated marks a name synthesized by the importer rather than read
	// from the source.
	Generated bool `json:"generated,omitempty" yaml:"generated"`
}

// Key is the natural key the input resolves to. Items without a real
// denotation are keyed by their name.
func (in ProductInput) Key() string {
	if d := normalization.Denotation(in.Denotation); d != "" {
		return d
	}
	return normalization.Denotation(in.Name)
}

// name is the product name the input carries. An item keyed by its name
// gets the key itself so that name and denotation stay equal.
func (in ProductInput) name() string {
	if normalization.Denotation(in.Denotation) == "" {
		return normalization.Denotation(in.Name)
	}
	return strings.TrimSpace(in.Name)
}

type ProductRepo interface {
	base.Common[domain.Product]
	GetByDenotation(ctx context.Context, denotation string, opts ...base.GetOption) (*domain.Product, error)
	AddOrUpdate(dbc dbctx.Context, in ProductInput) (*domain.Product, error)
	AddMany(ctx context.Context, inputs map[string]ProductInput) (map[string]*domain.Product, error)
}

type productRepo struct {
	*base.Repo[domain.Product]
	byDenotation *cache.Index[string, domain.Product]
}

func NewProductRepo(gw *store.Gateway, baseLog *logger.Logger, metrics *observability.Metrics) ProductRepo {
	b := base.New[domain.Product]("product", gw, func(p *domain.Product) uint { return p.ID }, baseLog.With("repo", "ProductRepo"), metrics)
	return &productRepo{
		Repo: b,
		byDenotation: cache.WithIndex(b.Cache(), cache.NewIndex("denotation", func(p *domain.Product) (string, bool) {
			return p.Denotation, p.Denotation != ""
		})),
	}
}

func (r *productRepo) GetByDenotation(ctx context.Context, denotation string, opts ...base.GetOption) (*domain.Product, error) {
	denotation = normalization.Denotation(denotation)
	if denotation == "" {
		return nil, nil
	}
	return base.Lookup(ctx, r.Repo, r.byDenotation, denotation, func(conn *gorm.DB) *gorm.DB {
		return conn.Where("denotation = ?", denotation)
	}, opts...)
}

func (r *productRepo) AddOrUpdate(dbc dbctx.Context, in ProductInput) (*domain.Product, error) {
	if err := base.Validate(in); err != nil {
		return nil, err
	}
	return r.Write(dbc, "add_or_update", func(tx dbctx.Context) (*domain.Product, error) {
		return r.upsert(tx, in)
	})
}

func (r *productRepo) AddMany(ctx context.Context, inputs map[string]ProductInput) (map[string]*domain.Product, error) {
	for _, in := range inputs {
		if err := base.Validate(in); err != nil {
			return nil, err
		}
	}
	return base.AddMany(ctx, r.Repo, "add_many", inputs, r.upsert)
}

func (r *productRepo) upsert(dbc dbctx.Context, in ProductInput) (*domain.Product, error) {
	key := in.Key()
	return base.Upsert(dbc,
		func(conn *gorm.DB) *gorm.DB { return conn.Where("denotation = ?", key) },
		func() *domain.Product {
			p := &domain.Product{
				Denotation: key,
				Name:       in.name(),
				KindID:     in.KindID,
				CheckedAt:  in.CheckedAt,
				CheckedBy:  in.CheckedBy,
			}
			if p.Name == "" {
				p.Name = domain.Unknown
			}
			if in.Purchased != nil {
				p.Purchased = *in.Purchased
			}
			return p
		},
		func(existing *domain.Product) bool { return MergeProduct(existing, in) },
	)
}

// MergeProduct applies in to p and reports whether p changed.
//
// The incoming record is "new" when p was never checked or when its
// timestamp is not older than p's. Only new records may rename p, and
// never with an empty, placeholder or generated name. Purchased and kind
// are refreshed whenever supplied. Check date and author follow new
// records only.
func MergeProduct(p *domain.Product, in ProductInput) bool {
	isNew := p.CheckedAt == nil || (in.CheckedAt != nil && !in.CheckedAt.Before(*p.CheckedAt))
	changed := false

	name := in.name()
	if isNew && name != "" && name != domain.Unknown && !in.Generated && name != p.Name {
		p.Name = name
		changed = true
	}
	if in.Purchased != nil && *in.Purchased != p.Purchased {
		p.Purchased = *in.Purchased
		changed = true
	}
	if in.KindID != nil && (p.KindID == nil || *p.KindID != *in.KindID) {
		kind := *in.KindID
		p.KindID = &kind
		changed = true
	}
	if isNew {
		if in.CheckedAt != nil && (p.CheckedAt == nil || !p.CheckedAt.Equal(*in.CheckedAt)) {
			at := *in.CheckedAt
			p.CheckedAt = &at
			changed = true
		}
		if in.CheckedBy != "" && in.CheckedBy != p.CheckedBy {
			p.CheckedBy = in.CheckedBy
			changed = true
		}
	}
	return changed
}

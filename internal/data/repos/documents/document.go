package documents

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/routecard/internal/data/cache"
	"github.com/yungbote/routecard/internal/data/repos/base"
	"github.com/yungbote/routecard/internal/data/store"
	"github.com/yungbote/routecard/internal/domain"
	"github.com/yungbote/routecard/internal/observability"
	"github.com/yungbote/routecard/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/routecard/internal/pkg/errors"
	"github.com/yungbote/routecard/internal/pkg/logger"
)

// DocumentRepo owns the product <-> DocumentReal links.
type DocumentRepo interface {
	base.Common[domain.Document]
	GetByKey(ctx context.Context, documentRealID, productID uint, opts ...base.GetOption) (*domain.Document, error)
	// ListByProducts fetches the links of every product in one query,
	// grouped by product id.
	ListByProducts(ctx context.Context, productIDs []uint) (map[uint][]*domain.Document, error)
	Link(dbc dbctx.Context, documentRealID, productID uint) (*domain.Document, error)
	// AddMany links every pair in one transaction.
	AddMany(ctx context.Context, links map[string]domain.DocumentKey) (map[string]*domain.Document, error)
}

type documentRepo struct {
	*base.Repo[domain.Document]
	byKey *cache.Index[domain.DocumentKey, domain.Document]
}

func NewDocumentRepo(gw *store.Gateway, baseLog *logger.Logger, metrics *observability.Metrics) DocumentRepo {
	b := base.New[domain.Document]("document", gw, func(d *domain.Document) uint { return d.ID }, baseLog.With("repo", "DocumentRepo"), metrics)
	return &documentRepo{
		Repo: b,
		byKey: cache.WithIndex(b.Cache(), cache.NewIndex("key", func(d *domain.Document) (domain.DocumentKey, bool) {
			return domain.DocumentKey{DocumentRealID: d.DocumentRealID, ProductID: d.ProductID}, d.DocumentRealID != 0 && d.ProductID != 0
		})),
	}
}

func (r *documentRepo) GetByKey(ctx context.Context, documentRealID, productID uint, opts ...base.GetOption) (*domain.Document, error) {
	key := domain.DocumentKey{DocumentRealID: documentRealID, ProductID: productID}
	return base.Lookup(ctx, r.Repo, r.byKey, key, func(conn *gorm.DB) *gorm.DB {
		return conn.Where("document_real_id = ? AND product_id = ?", documentRealID, productID)
	}, opts...)
}

func (r *documentRepo) ListByProducts(ctx context.Context, productIDs []uint) (map[uint][]*domain.Document, error) {
	out := make(map[uint][]*domain.Document, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}
	for start := 0; start < len(productIDs); start += base.InChunk {
		end := min(start+base.InChunk, len(productIDs))
		chunk := productIDs[start:end]
		rows, err := r.List(ctx, "list_by_products", func(conn *gorm.DB) *gorm.DB {
			return conn.Where("product_id IN ?", chunk).Order("product_id ASC, id ASC")
		})
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			out[row.ProductID] = append(out[row.ProductID], row)
		}
	}
	return out, nil
}

func (r *documentRepo) Link(dbc dbctx.Context, documentRealID, productID uint) (*domain.Document, error) {
	return r.Write(dbc, "link", func(tx dbctx.Context) (*domain.Document, error) {
		return r.link(tx, domain.DocumentKey{DocumentRealID: documentRealID, ProductID: productID})
	})
}

func (r *documentRepo) AddMany(ctx context.Context, links map[string]domain.DocumentKey) (map[string]*domain.Document, error) {
	for k, key := range links {
		if key.DocumentRealID == 0 || key.ProductID == 0 {
			return nil, fmt.Errorf("%w: incomplete document link %q", pkgerrors.ErrInvalidArgument, k)
		}
	}
	return base.AddMany(ctx, r.Repo, "add_many", links, r.link)
}

func (r *documentRepo) link(tx dbctx.Context, key domain.DocumentKey) (*domain.Document, error) {
	return base.Upsert(tx,
		func(conn *gorm.DB) *gorm.DB {
			return conn.Where("document_real_id = ? AND product_id = ?", key.DocumentRealID, key.ProductID)
		},
		func() *domain.Document {
			return &domain.Document{DocumentRealID: key.DocumentRealID, ProductID: key.ProductID}
		},
		nil,
	)
}

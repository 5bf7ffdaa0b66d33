package documents

import (
	"context"

	"gorm.io/gorm"

	"github.com/yungbote/routecard/internal/data/cache"
	"github.com/yungbote/routecard/internal/data/repos/base"
	"github.com/yungbote/routecard/internal/data/store"
	"github.com/yungbote/routecard/internal/domain"
	"github.com/yungbote/routecard/internal/observability"
	"github.com/yungbote/routecard/internal/pkg/logger"
)

// DocumentTypeRepo resolves document types by (class, sign), as printed
// after a document number, or by (class, subtype), as used in code.
type DocumentTypeRepo interface {
	base.Common[domain.DocumentType]
	GetBySign(ctx context.Context, class, sign string, opts ...base.GetOption) (*domain.DocumentType, error)
	GetBySubtype(ctx context.Context, class, subtype string, opts ...base.GetOption) (*domain.DocumentType, error)
}

type documentTypeRepo struct {
	*base.Repo[domain.DocumentType]
	bySign    *cache.Index[domain.DocTypeSignKey, domain.DocumentType]
	bySubtype *cache.Index[domain.DocTypeSubtypeKey, domain.DocumentType]
}

func NewDocumentTypeRepo(gw *store.Gateway, baseLog *logger.Logger, metrics *observability.Metrics) DocumentTypeRepo {
	b := base.New[domain.DocumentType]("document_type", gw, func(t *domain.DocumentType) uint { return t.ID }, baseLog.With("repo", "DocumentTypeRepo"), metrics)
	return &documentTypeRepo{
		Repo: b,
		bySign: cache.WithIndex(b.Cache(), cache.NewIndex("sign", func(t *domain.DocumentType) (domain.DocTypeSignKey, bool) {
			return domain.DocTypeSignKey{Class: t.Class, Sign: t.Sign}, t.Class != ""
		})),
		bySubtype: cache.WithIndex(b.Cache(), cache.NewIndex("subtype", func(t *domain.DocumentType) (domain.DocTypeSubtypeKey, bool) {
			return domain.DocTypeSubtypeKey{Class: t.Class, Subtype: t.Subtype}, t.Class != "" && t.Subtype != ""
		})),
	}
}

func (r *documentTypeRepo) GetBySign(ctx context.Context, class, sign string, opts ...base.GetOption) (*domain.DocumentType, error) {
	key := domain.DocTypeSignKey{Class: class, Sign: sign}
	return base.Lookup(ctx, r.Repo, r.bySign, key, func(conn *gorm.DB) *gorm.DB {
		return conn.Where("class_name = ? AND sign = ?", class, sign)
	}, opts...)
}

func (r *documentTypeRepo) GetBySubtype(ctx context.Context, class, subtype string, opts ...base.GetOption) (*domain.DocumentType, error) {
	key := domain.DocTypeSubtypeKey{Class: class, Subtype: subtype}
	return base.Lookup(ctx, r.Repo, r.bySubtype, key, func(conn *gorm.DB) *gorm.DB {
		return conn.Where("class_name = ? AND subtype = ?", class, subtype)
	}, opts...)
}

package routing

import (
	"context"

	"gorm.io/gorm"

	"github.com/yungbote/routecard/internal/data/cache"
	"github.com/yungbote/routecard/internal/data/repos/base"
	"github.com/yungbote/routecard/internal/data/store"
	"github.com/yungbote/routecard/internal/domain"
	"github.com/yungbote/routecard/internal/observability"
	"github.com/yungbote/routecard/internal/pkg/dbctx"
	"github.com/yungbote/routecard/internal/pkg/logger"
)

// LineInput is one numbered line of an operation. Field is only kept for
// settings.
type LineInput struct {
	OperationID uint   `json:"operation_id" yaml:"operation_id" validate:"required"`
	OrderNum    int    `json:"order" yaml:"order" validate:"gte=0"`
	Text        string `json:"text" yaml:"text"`
	Field       string `json:"field,omitempty" yaml:"field"`
}

func validateLines(inputs map[string]LineInput) error {
	for _, in := range inputs {
		if err := base.Validate(in); err != nil {
			return err
		}
	}
	return nil
}

// SentenceRepo holds the free-text lines of operations.
type SentenceRepo interface {
	base.Common[domain.Sentence]
	GetByOrder(ctx context.Context, operationID uint, orderNum int, opts ...base.GetOption) (*domain.Sentence, error)
	ListByOperation(ctx context.Context, operationID uint) ([]*domain.Sentence, error)
	AddOrUpdate(dbc dbctx.Context, operationID uint, orderNum int, text string) (*domain.Sentence, error)
	AddMany(ctx context.Context, inputs map[string]LineInput) (map[string]*domain.Sentence, error)
}

type sentenceRepo struct {
	*base.Repo[domain.Sentence]
	byOrder *cache.Index[domain.OrderKey, domain.Sentence]
}

func NewSentenceRepo(gw *store.Gateway, baseLog *logger.Logger, metrics *observability.Metrics) SentenceRepo {
	b := base.New[domain.Sentence]("sentence", gw, func(s *domain.Sentence) uint { return s.ID }, baseLog.With("repo", "SentenceRepo"), metrics)
	return &sentenceRepo{
		Repo: b,
		byOrder: cache.WithIndex(b.Cache(), cache.NewIndex("order", func(s *domain.Sentence) (domain.OrderKey, bool) {
			return domain.OrderKey{OperationID: s.OperationID, OrderNum: s.OrderNum}, s.OperationID != 0
		})),
	}
}

func (r *sentenceRepo) GetByOrder(ctx context.Context, operationID uint, orderNum int, opts ...base.GetOption) (*domain.Sentence, error) {
	return base.Lookup(ctx, r.Repo, r.byOrder, domain.OrderKey{OperationID: operationID, OrderNum: orderNum}, func(conn *gorm.DB) *gorm.DB {
		return conn.Where("operation_id = ? AND order_num = ?", operationID, orderNum)
	}, opts...)
}

func (r *sentenceRepo) ListByOperation(ctx context.Context, operationID uint) ([]*domain.Sentence, error) {
	return r.List(ctx, "list_by_operation", func(conn *gorm.DB) *gorm.DB {
		return conn.Where("operation_id = ?", operationID).Order("order_num ASC")
	})
}

func (r *sentenceRepo) AddOrUpdate(dbc dbctx.Context, operationID uint, orderNum int, text string) (*domain.Sentence, error) {
	return r.Write(dbc, "add_or_update", func(tx dbctx.Context) (*domain.Sentence, error) {
		return r.upsert(tx, LineInput{OperationID: operationID, OrderNum: orderNum, Text: text})
	})
}

func (r *sentenceRepo) AddMany(ctx context.Context, inputs map[string]LineInput) (map[string]*domain.Sentence, error) {
	if err := validateLines(inputs); err != nil {
		return nil, err
	}
	return base.AddMany(ctx, r.Repo, "add_many", inputs, r.upsert)
}

func (r *sentenceRepo) upsert(tx dbctx.Context, in LineInput) (*domain.Sentence, error) {
	return base.Upsert(tx,
		func(conn *gorm.DB) *gorm.DB {
			return conn.Where("operation_id = ? AND order_num = ?", in.OperationID, in.OrderNum)
		},
		func() *domain.Sentence {
			return &domain.Sentence{OperationID: in.OperationID, OrderNum: in.OrderNum, Text: in.Text}
		},
		func(s *domain.Sentence) bool {
			if s.Text == in.Text {
				return false
			}
			s.Text = in.Text
			return true
		},
	)
}

// SettingRepo holds the parameter lines of operations.
type SettingRepo interface {
	base.Common[domain.Setting]
	GetByOrder(ctx context.Context, operationID uint, orderNum int, opts ...base.GetOption) (*domain.Setting, error)
	ListByOperation(ctx context.Context, operationID uint) ([]*domain.Setting, error)
	AddOrUpdate(dbc dbctx.Context, operationID uint, orderNum int, text, field string) (*domain.Setting, error)
	AddMany(ctx context.Context, inputs map[string]LineInput) (map[string]*domain.Setting, error)
}

type settingRepo struct {
	*base.Repo[domain.Setting]
	byOrder *cache.Index[domain.OrderKey, domain.Setting]
}

func NewSettingRepo(gw *store.Gateway, baseLog *logger.Logger, metrics *observability.Metrics) SettingRepo {
	b := base.New[domain.Setting]("setting", gw, func(s *domain.Setting) uint { return s.ID }, baseLog.With("repo", "SettingRepo"), metrics)
	return &settingRepo{
		Repo: b,
		byOrder: cache.WithIndex(b.Cache(), cache.NewIndex("order", func(s *domain.Setting) (domain.OrderKey, bool) {
			return domain.OrderKey{OperationID: s.OperationID, OrderNum: s.OrderNum}, s.OperationID != 0
		})),
	}
}

func (r *settingRepo) GetByOrder(ctx context.Context, operationID uint, orderNum int, opts ...base.GetOption) (*domain.Setting, error) {
	return base.Lookup(ctx, r.Repo, r.byOrder, domain.OrderKey{OperationID: operationID, OrderNum: orderNum}, func(conn *gorm.DB) *gorm.DB {
		return conn.Where("operation_id = ? AND order_num = ?", operationID, orderNum)
	}, opts...)
}

func (r *settingRepo) ListByOperation(ctx context.Context, operationID uint) ([]*domain.Setting, error) {
	return r.List(ctx, "list_by_operation", func(conn *gorm.DB) *gorm.DB {
		return conn.Where("operation_id = ?", operationID).Order("order_num ASC")
	})
}

func (r *settingRepo) AddOrUpdate(dbc dbctx.Context, operationID uint, orderNum int, text, field string) (*domain.Setting, error) {
	return r.Write(dbc, "add_or_update", func(tx dbctx.Context) (*domain.Setting, error) {
		return r.upsert(tx, LineInput{OperationID: operationID, OrderNum: orderNum, Text: text, Field: field})
	})
}

func (r *settingRepo) AddMany(ctx context.Context, inputs map[string]LineInput) (map[string]*domain.Setting, error) {
	if err := validateLines(inputs); err != nil {
		return nil, err
	}
	return base.AddMany(ctx, r.Repo, "add_many", inputs, r.upsert)
}

func (r *settingRepo) upsert(tx dbctx.Context, in LineInput) (*domain.Setting, error) {
	return base.Upsert(tx,
		func(conn *gorm.DB) *gorm.DB {
			return conn.Where("operation_id = ? AND order_num = ?", in.OperationID, in.OrderNum)
		},
		func() *domain.Setting {
			return &domain.Setting{OperationID: in.OperationID, OrderNum: in.OrderNum, Text: in.Text, Field: in.Field}
		},
		func(s *domain.Setting) bool {
			if s.Text == in.Text && s.Field == in.Field {
				return false
			}
			s.Text, s.Field = in.Text, in.Field
			return true
		},
	)
}

package dbctx

import (
	"context"

	"gorm.io/gorm"

	"github.com/yungbote/routecard/internal/pkg/ctxutil"
)

// Context bundles a request context with an optional GORM transaction.
// A non-nil Tx means the caller owns the commit; repositories must not
// touch their caches until that caller reports success.
type Context struct {
	Ctx context.Context
	Tx  *gorm.DB
}

// Background is a Context with no transaction.
func Background() Context {
	return Context{Ctx: context.Background()}
}

// InTx reports whether writes are deferred to an outer commit.
func (c Context) InTx() bool { return c.Tx != nil }

// Context returns Ctx, or context.Background() when unset.
func (c Context) Context() context.Context {
	return ctxutil.Default(c.Ctx)
}

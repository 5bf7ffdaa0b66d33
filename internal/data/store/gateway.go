// Package store is the single gateway between repositories and the
// backing database. Every statement and transaction runs through it so
// that lost sessions, lock contention and racing writers are handled in
// one place.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/yungbote/routecard/internal/data/db"
	"github.com/yungbote/routecard/internal/observability"
	"github.com/yungbote/routecard/internal/pkg/ctxutil"
	"github.com/yungbote/routecard/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/routecard/internal/pkg/errors"
	"github.com/yungbote/routecard/internal/pkg/logger"
	"github.com/yungbote/routecard/internal/progress"
)

// Policy bounds the retry loop.
type Policy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 5, InitialInterval: 50 * time.Millisecond, MaxInterval: 2 * time.Second}
}

// Reloader is implemented by every repository: after a reconnect the
// gateway asks each one to rebuild its cache from the new session.
type Reloader interface {
	Kind() string
	Reload(ctx context.Context) error
}

type Gateway struct {
	mu       sync.RWMutex
	open     db.Opener
	conn     *gorm.DB
	session  uuid.UUID
	policy   Policy
	reporter progress.Reporter
	log      *logger.Logger
	metrics  *observability.Metrics

	reloadMu  sync.Mutex
	reloaders []Reloader
}

// NewGateway opens the first session. A nil reporter answers every retry
// prompt with yes; a nil metrics disables recording.
func NewGateway(ctx context.Context, baseLog *logger.Logger, open db.Opener, policy Policy, reporter progress.Reporter, metrics *observability.Metrics) (*Gateway, error) {
	if open == nil {
		return nil, fmt.Errorf("store gateway requires an opener")
	}
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = DefaultPolicy().MaxAttempts
	}
	if policy.InitialInterval <= 0 {
		policy.InitialInterval = DefaultPolicy().InitialInterval
	}
	if policy.MaxInterval < policy.InitialInterval {
		policy.MaxInterval = policy.InitialInterval
	}
	if reporter == nil {
		reporter = progress.NewLogReporter(baseLog, true)
	}
	conn, err := open(ctx)
	if err != nil {
		return nil, err
	}
	g := &Gateway{
		open:     open,
		conn:     conn,
		session:  uuid.New(),
		policy:   policy,
		reporter: reporter,
		metrics:  metrics,
	}
	g.log = baseLog.With("service", "StoreGateway")
	g.log.Info("store session established", "session", g.session.String())
	return g, nil
}

// DB returns the live session handle. Callers that keep it across calls
// will not follow a reconnect; prefer Query and Transact.
func (g *Gateway) DB() *gorm.DB {
	conn, _ := g.current()
	return conn
}

// Session identifies the live connection; it changes on every reconnect.
func (g *Gateway) Session() uuid.UUID {
	_, session := g.current()
	return session
}

func (g *Gateway) Policy() Policy { return g.policy }

func (g *Gateway) current() (*gorm.DB, uuid.UUID) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.conn, g.session
}

// Register adds a cache owner to the reload set.
func (g *Gateway) Register(r Reloader) {
	if r == nil {
		return
	}
	g.reloadMu.Lock()
	g.reloaders = append(g.reloaders, r)
	g.reloadMu.Unlock()
}

// ReloadAll rebuilds every registered cache in registration order.
func (g *Gateway) ReloadAll(ctx context.Context) error {
	g.reloadMu.Lock()
	list := append([]Reloader(nil), g.reloaders...)
	g.reloadMu.Unlock()
	for _, r := range list {
		if err := r.Reload(ctx); err != nil {
			return fmt.Errorf("reload %s cache: %w", r.Kind(), err)
		}
	}
	g.log.Debug("caches reloaded", "kinds", len(list))
	return nil
}

// Query runs a read (or a single autocommitted statement) with retry.
func (g *Gateway) Query(ctx context.Context, op string, fn func(conn *gorm.DB) error) error {
	return g.run(ctx, op, fn)
}

// Transact runs fn inside one transaction. On a retryable failure the
// transaction is rolled back and fn is replayed from the start with the
// same input, so fn must not keep state across calls.
func (g *Gateway) Transact(ctx context.Context, op string, fn func(dbc dbctx.Context) error) error {
	return g.run(ctx, op, func(conn *gorm.DB) error {
		return conn.Transaction(func(tx *gorm.DB) error {
			return fn(dbctx.Context{Ctx: ctx, Tx: tx})
		})
	})
}

func (g *Gateway) run(ctx context.Context, op string, fn func(conn *gorm.DB) error) error {
	ctx = ctxutil.Default(ctx)
	runID := ctxutil.RunID(ctx)
	ctx, span := observability.Tracer().Start(ctx, "store."+op)
	defer span.End()

	start := time.Now()
	attempts := 0
	lastClass := ClassNone
	aborted := false

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempts++
		conn, session := g.current()
		err := fn(conn.WithContext(ctx))
		if err == nil {
			return struct{}{}, nil
		}
		class := Classify(err)
		lastClass = class
		if !class.Retryable() {
			return struct{}{}, backoff.Permanent(err)
		}
		if attempts >= g.policy.MaxAttempts {
			return struct{}{}, err
		}
		g.metrics.IncStoreRetry(op, class.String())
		g.log.Warn("store operation failed, retrying",
			"op", op,
			"run_id", runID,
			"attempt", attempts,
			"class", class.String(),
			"error", err,
		)
		if class == ClassConnection {
			if rerr := g.reconnect(ctx, session, err); rerr != nil {
				if errors.Is(rerr, pkgerrors.ErrAborted) {
					aborted = true
					return struct{}{}, backoff.Permanent(rerr)
				}
				return struct{}{}, rerr
			}
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(g.newBackOff()),
		backoff.WithMaxTries(uint(g.policy.MaxAttempts)),
	)

	span.SetAttributes(
		attribute.String("store.op", op),
		attribute.Int("store.attempts", attempts),
		attribute.String("store.session", g.Session().String()),
		attribute.String("run.id", runID),
	)
	if err == nil {
		g.metrics.ObserveStore(op, attempts, "ok", time.Since(start))
		return nil
	}

	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		err = perm.Unwrap()
	}
	g.metrics.ObserveStore(op, attempts, "error", time.Since(start))
	g.metrics.IncStoreFailure(op, lastClass.String())
	span.RecordError(err)
	span.SetStatus(codes.Error, lastClass.String())

	switch {
	case aborted:
		return &RetryError{Op: op, Attempts: attempts, Class: ClassConnection, Err: err}
	case lastClass.Retryable() && ctx.Err() == nil:
		g.log.Error("store operation exhausted retries", "op", op, "run_id", runID, "attempts", attempts, "class", lastClass.String(), "error", err)
		return &RetryError{Op: op, Attempts: attempts, Class: lastClass, Err: err}
	default:
		return fmt.Errorf("store %s: %w", op, err)
	}
}

func (g *Gateway) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = g.policy.InitialInterval
	b.MaxInterval = g.policy.MaxInterval
	return b
}

// reconnect replaces the session that produced cause. If another caller
// already replaced it, there is nothing to do. The operator is asked
// before every attempt; after a successful reopen all caches are rebuilt
// because rows they hold may have changed while the session was gone.
func (g *Gateway) reconnect(ctx context.Context, failed uuid.UUID, cause error) error {
	g.mu.Lock()
	if g.session != failed {
		g.mu.Unlock()
		return nil
	}
	if g.conn != nil {
		if sqlDB, err := g.conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if !g.reporter.ConfirmRetry(fmt.Sprintf("Lost connection to the database (%v). Try again?", cause)) {
		g.mu.Unlock()
		g.log.Warn("reconnect declined by operator", "session", failed.String())
		return fmt.Errorf("%w: %v", pkgerrors.ErrAborted, cause)
	}
	conn, err := g.open(ctx)
	if err != nil {
		g.mu.Unlock()
		g.log.Warn("reconnect failed", "error", err)
		return err
	}
	g.conn = conn
	g.session = uuid.New()
	session := g.session
	g.mu.Unlock()

	g.metrics.IncReconnect()
	g.log.Info("store session re-established", "session", session.String(), "previous", failed.String())
	return g.ReloadAll(ctx)
}

// Close releases the live session.
func (g *Gateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.conn == nil {
		return nil
	}
	sqlDB, err := g.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

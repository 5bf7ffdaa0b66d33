package facade

import (
	"context"
	"sync"

	"github.com/yungbote/routecard/internal/domain"
)

type Document struct {
	b   *Builder
	mu  sync.RWMutex
	rec *domain.DocumentReal
}

func (d *Document) bind(rec *domain.DocumentReal) {
	d.mu.Lock()
	d.rec = rec
	d.mu.Unlock()
}

func (d *Document) Record() *domain.DocumentReal {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.rec
}

func (d *Document) ID() uint           { return d.Record().ID }
func (d *Document) Denotation() string { return d.Record().Denotation }
func (d *Document) Name() string       { return d.Record().Name }
func (d *Document) FileName() string   { return d.Record().FileName }
func (d *Document) Link() string       { return d.Record().Link }

// Relevant is false once the document has been cancelled.
func (d *Document) Relevant() bool {
	return d.Record().StageID != domain.StageCancelled
}

func (d *Document) Type(ctx context.Context) (*DocumentType, error) {
	rec, err := d.b.repos.DocumentType.GetByID(ctx, d.Record().TypeID)
	if err != nil || rec == nil {
		return nil, err
	}
	return d.b.DocumentType(rec), nil
}

// Stage returns the stage name, "Unknown" when the stage row is missing.
func (d *Document) Stage(ctx context.Context) (string, error) {
	s, err := d.b.repos.DocumentStage.GetByID(ctx, d.Record().StageID)
	if err != nil {
		return "", err
	}
	if s == nil {
		return domain.Unknown, nil
	}
	return s.Name, nil
}

// FullDenotation appends the type sign, as printed on the drawing.
func (d *Document) FullDenotation(ctx context.Context) (string, error) {
	t, err := d.Type(ctx)
	if err != nil || t == nil {
		return d.Denotation(), err
	}
	return d.Denotation() + t.Sign(), nil
}

type DocumentType struct {
	rec *domain.DocumentType
}

func (t *DocumentType) Record() *domain.DocumentType { return t.rec }
func (t *DocumentType) ID() uint                     { return t.rec.ID }
func (t *DocumentType) Class() string                { return t.rec.Class }
func (t *DocumentType) Subtype() string              { return t.rec.Subtype }
func (t *DocumentType) Sign() string                 { return t.rec.Sign }
func (t *DocumentType) Name() string                 { return t.rec.Name }

// CaseName returns a grammatical-case variant of the type name.
func (t *DocumentType) CaseName(grammaticalCase string) string {
	if v, ok := t.rec.Cases[grammaticalCase].(string); ok && v != "" {
		return v
	}
	return t.rec.Name
}

package facade

import (
	"context"
	"sync"

	"github.com/yungbote/routecard/internal/domain"
)

type Operation struct {
	b   *Builder
	mu  sync.RWMutex
	rec *domain.Operation
}

func (o *Operation) bind(rec *domain.Operation) {
	o.mu.Lock()
	o.rec = rec
	o.mu.Unlock()
}

func (o *Operation) Record() *domain.Operation {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.rec
}

func (o *Operation) ID() uint         { return o.Record().ID }
func (o *Operation) Name() string     { return o.Record().Name }
func (o *Operation) OrderNum() int    { return o.Record().OrderNum }
func (o *Operation) Workshop() string { return o.Record().Workshop }
func (o *Operation) Area() string     { return o.Record().Area }

// Profession returns the profession name, or "" when none is assigned.
func (o *Operation) Profession(ctx context.Context) (string, error) {
	id := o.Record().ProfessionID
	if id == nil {
		return "", nil
	}
	p, err := o.b.repos.Profession.GetByID(ctx, *id)
	if err != nil || p == nil {
		return "", err
	}
	return p.Name, nil
}

func (o *Operation) Sentences(ctx context.Context) ([]*Sentence, error) {
	rows, err := o.b.repos.Sentence.ListByOperation(ctx, o.ID())
	if err != nil {
		return nil, err
	}
	out := make([]*Sentence, 0, len(rows))
	for _, r := range rows {
		out = append(out, o.b.Sentence(r))
	}
	return out, nil
}

type Sentence struct {
	rec *domain.Sentence
}

func (s *Sentence) Record() *domain.Sentence { return s.rec }
func (s *Sentence) Text() string             { return s.rec.Text }
func (s *Sentence) OrderNum() int            { return s.rec.OrderNum }

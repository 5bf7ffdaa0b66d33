// Package facade wraps repository records in objects that expose derived
// attributes. A Builder guarantees one live facade per backing row, so
// callers may compare facades by pointer.
package facade

import (
	"sync"

	"github.com/yungbote/routecard/internal/data/repos"
	"github.com/yungbote/routecard/internal/domain"
)

type Builder struct {
	repos *repos.Set

	mu         sync.Mutex
	products   map[uint]*Product
	documents  map[uint]*Document
	docTypes   map[uint]*DocumentType
	operations map[domain.OperationKey]*Operation
	sentences  map[uint]*Sentence
}

func NewBuilder(set *repos.Set) *Builder {
	b := &Builder{repos: set}
	b.Reset()
	return b
}

// Reset forgets every live facade. Facades handed out earlier keep
// working but are no longer returned by the builder.
func (b *Builder) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.products = map[uint]*Product{}
	b.documents = map[uint]*Document{}
	b.docTypes = map[uint]*DocumentType{}
	b.operations = map[domain.OperationKey]*Operation{}
	b.sentences = map[uint]*Sentence{}
}

// Repos exposes the repositories the facades read from.
func (b *Builder) Repos() *repos.Set { return b.repos }

// Product returns the live facade for rec's row, creating it on first use.
// If rec is a newer instance of an already wrapped row, the facade is
// rebound to it.
func (b *Builder) Product(rec *domain.Product) *Product {
	if rec == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if p, ok := b.products[rec.ID]; ok {
		p.bind(rec)
		return p
	}
	p := &Product{b: b, rec: rec}
	b.products[rec.ID] = p
	return p
}

// Document wraps a DocumentReal row.
func (b *Builder) Document(rec *domain.DocumentReal) *Document {
	if rec == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if d, ok := b.documents[rec.ID]; ok {
		d.bind(rec)
		return d
	}
	d := &Document{b: b, rec: rec}
	b.documents[rec.ID] = d
	return d
}

func (b *Builder) DocumentType(rec *domain.DocumentType) *DocumentType {
	if rec == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if t, ok := b.docTypes[rec.ID]; ok {
		t.rec = rec
		return t
	}
	t := &DocumentType{rec: rec}
	b.docTypes[rec.ID] = t
	return t
}

// Operation facades are keyed by (document, order) rather than by id, so
// an operation re-imported under a new id keeps its facade.
func (b *Builder) Operation(rec *domain.Operation) *Operation {
	if rec == nil {
		return nil
	}
	key := domain.OperationKey{DocumentID: rec.DocumentID, OrderNum: rec.OrderNum}
	b.mu.Lock()
	defer b.mu.Unlock()
	if o, ok := b.operations[key]; ok {
		o.bind(rec)
		return o
	}
	o := &Operation{b: b, rec: rec}
	b.operations[key] = o
	return o
}

func (b *Builder) Sentence(rec *domain.Sentence) *Sentence {
	if rec == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if s, ok := b.sentences[rec.ID]; ok {
		s.rec = rec
		return s
	}
	s := &Sentence{rec: rec}
	b.sentences[rec.ID] = s
	return s
}

// Live reports how many facades of each kind are registered.
func (b *Builder) Live() map[string]int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return map[string]int{
		"product":       len(b.products),
		"document":      len(b.documents),
		"document_type": len(b.docTypes),
		"operation":     len(b.operations),
		"sentence":      len(b.sentences),
	}
}

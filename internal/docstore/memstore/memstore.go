// Package memstore is an in-process docstore.Store. It backs tests and the
// "memory" store driver for local development; documents are lost on exit.
package memstore

import (
	"context"
	"sync"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/xenking/kitchen-backoffice/internal/docstore"
)

var _ docstore.Store = (*Store)(nil)

type collection struct {
	order []string
	docs  map[string]docstore.Fields
}

// Store keeps collections in memory. Listing returns documents in insertion
// order. Stored and returned field maps are deep copies.
type Store struct {
	mu          sync.RWMutex
	collections map[docstore.Collection]*collection
	newID       func() string
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		collections: make(map[docstore.Collection]*collection),
		newID:       uuid.NewString,
	}
}

// List implements docstore.Store.
func (s *Store) List(ctx context.Context, c docstore.Collection) ([]docstore.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	col, ok := s.collections[c]
	if !ok {
		return nil, nil
	}
	out := make([]docstore.Document, 0, len(col.order))
	for _, id := range col.order {
		out = append(out, docstore.Document{ID: id, Fields: col.docs[id].Clone()})
	}
	return out, nil
}

// Get implements docstore.Store.
func (s *Store) Get(ctx context.Context, c docstore.Collection, id string) (docstore.Document, error) {
	if err := ctx.Err(); err != nil {
		return docstore.Document{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	col, ok := s.collections[c]
	if !ok {
		return docstore.Document{}, docstore.ErrNotFound
	}
	f, ok := col.docs[id]
	if !ok {
		return docstore.Document{}, docstore.ErrNotFound
	}
	return docstore.Document{ID: id, Fields: f.Clone()}, nil
}

// Update implements docstore.Store.
func (s *Store) Update(ctx context.Context, c docstore.Collection, id string, fields docstore.Fields) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	col, ok := s.collections[c]
	if !ok {
		return docstore.ErrNotFound
	}
	doc, ok := col.docs[id]
	if !ok {
		return docstore.ErrNotFound
	}
	for k, v := range fields.Clone() {
		doc[k] = v
	}
	return nil
}

// Create implements docstore.Store.
func (s *Store) Create(ctx context.Context, c docstore.Collection, fields docstore.Fields) (string, error) {
	id := s.newID()
	if err := s.Set(ctx, c, id, fields); err != nil {
		return "", errors.Wrap(err, "create")
	}
	return id, nil
}

// Set implements docstore.Store.
func (s *Store) Set(ctx context.Context, c docstore.Collection, id string, fields docstore.Fields) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if id == "" {
		return errors.New("empty document id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	col, ok := s.collections[c]
	if !ok {
		col = &collection{docs: make(map[string]docstore.Fields)}
		s.collections[c] = col
	}
	if _, exists := col.docs[id]; !exists {
		col.order = append(col.order, id)
	}
	f := fields.Clone()
	if f == nil {
		f = make(docstore.Fields)
	}
	col.docs[id] = f
	return nil
}

// Insert implements docstore.Store.
func (s *Store) Insert(ctx context.Context, c docstore.Collection, id string, fields docstore.Fields) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if id == "" {
		return false, errors.New("empty document id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	col, ok := s.collections[c]
	if !ok {
		col = &collection{docs: make(map[string]docstore.Fields)}
		s.collections[c] = col
	}
	if _, exists := col.docs[id]; exists {
		return false, nil
	}
	f := fields.Clone()
	if f == nil {
		f = make(docstore.Fields)
	}
	col.order = append(col.order, id)
	col.docs[id] = f
	return true, nil
}

// Delete implements docstore.Store.
func (s *Store) Delete(ctx context.Context, c docstore.Collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	col, ok := s.collections[c]
	if !ok {
		return docstore.ErrNotFound
	}
	if _, ok := col.docs[id]; !ok {
		return docstore.ErrNotFound
	}
	delete(col.docs, id)
	for i, v := range col.order {
		if v == id {
			col.order = append(col.order[:i], col.order[i+1:]...)
			break
		}
	}
	return nil
}

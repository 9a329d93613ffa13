// Package docstore defines the document store the back office runs on: flat
// collections of documents addressed by slash separated collection paths,
// each document an id plus a field map.
package docstore

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("document not found")

// Fields is the field map of a document. Values are nil, bool, int64,
// float64, string, time.Time, []any or map[string]any.
type Fields map[string]any

// Document is a single stored document.
type Document struct {
	ID     string
	Fields Fields
}

// Collection is a slash separated collection path, e.g. "orders/241029/orders".
type Collection string

// Orders returns the order collection of a day partition.
func Orders(dayKey string) Collection {
	return Collection("orders/" + dayKey + "/orders")
}

// Coupons is the flat coupon collection.
const Coupons Collection = "coupon"

// Segments splits the collection path into its components.
func (c Collection) Segments() []string {
	return strings.Split(string(c), "/")
}

// Store is the document store contract. Listing returns every document of a
// collection; the store is never asked to filter or sort.
type Store interface {
	// List returns all documents in the collection. A missing collection is
	// empty, not an error.
	List(ctx context.Context, c Collection) ([]Document, error)
	// Get returns a single document or ErrNotFound.
	Get(ctx context.Context, c Collection, id string) (Document, error)
	// Update merges the named fields into an existing document. It returns
	// ErrNotFound if the document does not exist.
	Update(ctx context.Context, c Collection, id string, fields Fields) error
	// Create stores a new document under a generated id.
	Create(ctx context.Context, c Collection, fields Fields) (string, error)
	// Set creates or replaces the document with the given id.
	Set(ctx context.Context, c Collection, id string, fields Fields) error
	// Insert creates the document with the given id unless one already
	// exists, which is left untouched. It reports whether it was created.
	Insert(ctx context.Context, c Collection, id string, fields Fields) (bool, error)
	// Delete removes a document. It returns ErrNotFound if it does not exist.
	Delete(ctx context.Context, c Collection, id string) error
}

// Clone returns a deep copy of the field map.
func (f Fields) Clone() Fields {
	if f == nil {
		return nil
	}
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch v := v.(type) {
	case Fields:
		return v.Clone()
	case map[string]any:
		return map[string]any(Fields(v).Clone())
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		return append([]string(nil), v...)
	default:
		return v
	}
}

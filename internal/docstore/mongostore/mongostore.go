// Package mongostore maps document collections onto MongoDB collections.
// A collection path "orders/241029/orders" becomes the MongoDB collection
// "orders.241029.orders"; document ids are stored as string _id values.
package mongostore

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/xenking/kitchen-backoffice/internal/docstore"
)

var _ docstore.Store = (*Store)(nil)

// Store implements docstore.Store on a MongoDB database.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	newID  func() string
}

// Connect dials MongoDB and verifies the connection.
func Connect(ctx context.Context, url, database string) (*Store, error) {
	opts := options.Client().ApplyURI(url).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, errors.Wrap(err, "connect to MongoDB")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(err, "ping MongoDB")
	}
	return &Store{client: client, db: client.Database(database), newID: uuid.NewString}, nil
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	if err := s.client.Disconnect(ctx); err != nil {
		return errors.Wrap(err, "disconnect from MongoDB")
	}
	return nil
}

// CollectionName returns the MongoDB collection of a collection path.
func CollectionName(c docstore.Collection) string {
	return strings.ReplaceAll(string(c), "/", ".")
}

func (s *Store) coll(c docstore.Collection) *mongo.Collection {
	return s.db.Collection(CollectionName(c))
}

// List implements docstore.Store. Documents are returned in natural order.
func (s *Store) List(ctx context.Context, c docstore.Collection) ([]docstore.Document, error) {
	cur, err := s.coll(c).Find(ctx, bson.M{})
	if err != nil {
		return nil, errors.Wrapf(err, "list %s", c)
	}
	var raw []bson.M
	if err := cur.All(ctx, &raw); err != nil {
		return nil, errors.Wrapf(err, "read %s", c)
	}

	out := make([]docstore.Document, 0, len(raw))
	for _, m := range raw {
		out = append(out, toDocument(m))
	}
	return out, nil
}

// Get implements docstore.Store.
func (s *Store) Get(ctx context.Context, c docstore.Collection, id string) (docstore.Document, error) {
	var m bson.M
	if err := s.coll(c).FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return docstore.Document{}, docstore.ErrNotFound
		}
		return docstore.Document{}, errors.Wrapf(err, "get %s/%s", c, id)
	}
	return toDocument(m), nil
}

// Update implements docstore.Store with a $set of the named fields.
func (s *Store) Update(ctx context.Context, c docstore.Collection, id string, fields docstore.Fields) error {
	res, err := s.coll(c).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": toBSON(fields)})
	if err != nil {
		return errors.Wrapf(err, "update %s/%s", c, id)
	}
	if res.MatchedCount == 0 {
		return docstore.ErrNotFound
	}
	return nil
}

// Create implements docstore.Store.
func (s *Store) Create(ctx context.Context, c docstore.Collection, fields docstore.Fields) (string, error) {
	id := s.newID()
	m := toBSON(fields)
	m["_id"] = id
	if _, err := s.coll(c).InsertOne(ctx, m); err != nil {
		return "", errors.Wrapf(err, "create in %s", c)
	}
	return id, nil
}

// Set implements docstore.Store.
func (s *Store) Set(ctx context.Context, c docstore.Collection, id string, fields docstore.Fields) error {
	m := toBSON(fields)
	m["_id"] = id
	_, err := s.coll(c).ReplaceOne(ctx, bson.M{"_id": id}, m, options.Replace().SetUpsert(true))
	if err != nil {
		return errors.Wrapf(err, "set %s/%s", c, id)
	}
	return nil
}

// Insert implements docstore.Store.
func (s *Store) Insert(ctx context.Context, c docstore.Collection, id string, fields docstore.Fields) (bool, error) {
	// The upserted document takes its _id from the filter.
	res, err := s.coll(c).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$setOnInsert": toBSON(fields)},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return false, errors.Wrapf(err, "insert %s/%s", c, id)
	}
	return res.UpsertedCount == 1, nil
}

// Delete implements docstore.Store.
func (s *Store) Delete(ctx context.Context, c docstore.Collection, id string) error {
	res, err := s.coll(c).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrapf(err, "delete %s/%s", c, id)
	}
	if res.DeletedCount == 0 {
		return docstore.ErrNotFound
	}
	return nil
}

func toBSON(fields docstore.Fields) bson.M {
	m := make(bson.M, len(fields)+1)
	for k, v := range fields {
		m[k] = v
	}
	return m
}

func toDocument(m bson.M) docstore.Document {
	var id string
	switch v := m["_id"].(type) {
	case string:
		id = v
	case primitive.ObjectID:
		id = v.Hex()
	}
	fields := make(docstore.Fields, len(m))
	for k, v := range m {
		if k == "_id" {
			continue
		}
		fields[k] = normalize(v)
	}
	return docstore.Document{ID: id, Fields: fields}
}

// normalize converts driver types to the plain values docstore.Fields holds.
func normalize(v any) any {
	switch v := v.(type) {
	case int32:
		return int64(v)
	case int:
		return int64(v)
	case primitive.DateTime:
		return v.Time().UTC()
	case primitive.Decimal128:
		return v.String()
	case primitive.ObjectID:
		return v.Hex()
	case bson.M:
		return normalizeMap(v)
	case map[string]any:
		return normalizeMap(v)
	case bson.D:
		m := make(map[string]any, len(v))
		for _, e := range v {
			m[e.Key] = normalize(e.Value)
		}
		return m
	case bson.A:
		return normalizeSlice(v)
	case []any:
		return normalizeSlice(v)
	default:
		return v
	}
}

func normalizeMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = normalize(v)
	}
	return out
}

func normalizeSlice(in []any) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = normalize(v)
	}
	return out
}

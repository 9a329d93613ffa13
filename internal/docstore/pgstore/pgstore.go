// Package pgstore stores documents in a single PostgreSQL JSONB table keyed
// by (collection, id).
package pgstore

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/go-faster/errors"
	"github.com/google/uuid"
	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/shopspring/decimal"

	"github.com/xenking/kitchen-backoffice/db"
	"github.com/xenking/kitchen-backoffice/internal/docstore"
)

const table = "documents"

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// NewPool creates a pgxpool.Pool with shopspring/decimal support for
// NUMERIC results.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse database config")
	}

	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "create connection pool")
	}
	return pool, nil
}

// Migrate applies the embedded goose migrations.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	goose.SetBaseFS(db.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Wrap(err, "set goose dialect")
	}

	sqlDB := stdlib.OpenDBFromPool(pool)
	defer func() { _ = sqlDB.Close() }()

	if err := goose.UpContext(ctx, sqlDB, db.MigrationsDir); err != nil {
		return errors.Wrap(err, "run migrations")
	}
	return nil
}

var _ docstore.Store = (*Store)(nil)

// Store implements docstore.Store on PostgreSQL.
type Store struct {
	pool  *pgxpool.Pool
	newID func() string
}

// New returns a Store over a migrated pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, newID: uuid.NewString}
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// List implements docstore.Store. Documents are returned in creation order.
func (s *Store) List(ctx context.Context, c docstore.Collection) ([]docstore.Document, error) {
	query, args, err := psql.Select("id", "fields").
		From(table).
		Where(sq.Eq{"collection": string(c)}).
		OrderBy("created_at", "id").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build list query")
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "list %s", c)
	}
	defer rows.Close()

	var out []docstore.Document
	for rows.Next() {
		var (
			id  string
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, errors.Wrap(err, "scan document")
		}
		fields, err := docstore.UnmarshalFields(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "decode document %s", id)
		}
		out = append(out, docstore.Document{ID: id, Fields: fields})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "list %s", c)
	}
	return out, nil
}

// Get implements docstore.Store.
func (s *Store) Get(ctx context.Context, c docstore.Collection, id string) (docstore.Document, error) {
	query, args, err := psql.Select("fields").
		From(table).
		Where(sq.Eq{"collection": string(c), "id": id}).
		ToSql()
	if err != nil {
		return docstore.Document{}, errors.Wrap(err, "build get query")
	}

	var raw []byte
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return docstore.Document{}, docstore.ErrNotFound
		}
		return docstore.Document{}, errors.Wrapf(err, "get %s/%s", c, id)
	}
	fields, err := docstore.UnmarshalFields(raw)
	if err != nil {
		return docstore.Document{}, errors.Wrapf(err, "decode document %s", id)
	}
	return docstore.Document{ID: id, Fields: fields}, nil
}

// Update implements docstore.Store by merging the named fields into the
// stored JSONB object.
func (s *Store) Update(ctx context.Context, c docstore.Collection, id string, fields docstore.Fields) error {
	data, err := docstore.MarshalFields(fields)
	if err != nil {
		return errors.Wrap(err, "encode fields")
	}
	query, args, err := psql.Update(table).
		Set("fields", sq.Expr("fields || ?::jsonb", string(data))).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"collection": string(c), "id": id}).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "build update query")
	}

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return errors.Wrapf(err, "update %s/%s", c, id)
	}
	if tag.RowsAffected() == 0 {
		return docstore.ErrNotFound
	}
	return nil
}

// Create implements docstore.Store.
func (s *Store) Create(ctx context.Context, c docstore.Collection, fields docstore.Fields) (string, error) {
	data, err := docstore.MarshalFields(fields)
	if err != nil {
		return "", errors.Wrap(err, "encode fields")
	}
	id := s.newID()
	query, args, err := psql.Insert(table).
		Columns("collection", "id", "fields").
		Values(string(c), id, sq.Expr("?::jsonb", string(data))).
		ToSql()
	if err != nil {
		return "", errors.Wrap(err, "build insert query")
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return "", errors.Wrapf(err, "create in %s", c)
	}
	return id, nil
}

// Set implements docstore.Store.
func (s *Store) Set(ctx context.Context, c docstore.Collection, id string, fields docstore.Fields) error {
	data, err := docstore.MarshalFields(fields)
	if err != nil {
		return errors.Wrap(err, "encode fields")
	}
	query, args, err := psql.Insert(table).
		Columns("collection", "id", "fields").
		Values(string(c), id, sq.Expr("?::jsonb", string(data))).
		Suffix("ON CONFLICT (collection, id) DO UPDATE SET fields = EXCLUDED.fields, updated_at = now()").
		ToSql()
	if err != nil {
		return errors.Wrap(err, "build upsert query")
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return errors.Wrapf(err, "set %s/%s", c, id)
	}
	return nil
}

// Insert implements docstore.Store.
func (s *Store) Insert(ctx context.Context, c docstore.Collection, id string, fields docstore.Fields) (bool, error) {
	data, err := docstore.MarshalFields(fields)
	if err != nil {
		return false, errors.Wrap(err, "encode fields")
	}
	query, args, err := psql.Insert(table).
		Columns("collection", "id", "fields").
		Values(string(c), id, sq.Expr("?::jsonb", string(data))).
		Suffix("ON CONFLICT (collection, id) DO NOTHING").
		ToSql()
	if err != nil {
		return false, errors.Wrap(err, "build insert query")
	}
	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return false, errors.Wrapf(err, "insert %s/%s", c, id)
	}
	return tag.RowsAffected() == 1, nil
}

// Delete implements docstore.Store.
func (s *Store) Delete(ctx context.Context, c docstore.Collection, id string) error {
	query, args, err := psql.Delete(table).
		Where(sq.Eq{"collection": string(c), "id": id}).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "build delete query")
	}
	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return errors.Wrapf(err, "delete %s/%s", c, id)
	}
	if tag.RowsAffected() == 0 {
		return docstore.ErrNotFound
	}
	return nil
}

// numericText matches the string forms a numeric field may take.
const numericText = `^\s*[+]?([0-9]+(\.[0-9]*)?|\.[0-9]+)([eE][+-]?[0-9]+)?\s*$`

// SumField adds up a numeric top-level field over a collection in the
// database. JSON numbers and numeric strings count; documents where the
// field is missing, negative or anything else are skipped.
func (s *Store) SumField(ctx context.Context, c docstore.Collection, field string) (decimal.Decimal, error) {
	values := sq.Select().
		Column(sq.Expr(`CASE
			WHEN jsonb_typeof(fields->?) = 'number' THEN (fields->>?)::numeric
			WHEN jsonb_typeof(fields->?) = 'string' AND fields->>? ~ ? THEN (fields->>?)::numeric
		END AS v`, field, field, field, field, numericText, field)).
		From(table).
		Where(sq.Eq{"collection": string(c)})
	query, args, err := psql.Select("COALESCE(SUM(v) FILTER (WHERE v >= 0), 0)").
		FromSelect(values, "t").
		ToSql()
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "build sum query")
	}

	var sum decimal.Decimal
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&sum); err != nil {
		return decimal.Zero, errors.Wrapf(err, "sum %s over %s", field, c)
	}
	return sum, nil
}

package coupon

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/kitchen-backoffice/internal/docstore"
)

// StoreRepository implements Repository over the flat coupon collection.
type StoreRepository struct {
	store docstore.Store
}

var _ Repository = (*StoreRepository)(nil)

// NewStoreRepository returns a Repository backed by the document store.
func NewStoreRepository(store docstore.Store) *StoreRepository {
	return &StoreRepository{store: store}
}

func (r *StoreRepository) List(ctx context.Context) ([]Coupon, error) {
	docs, err := r.store.List(ctx, docstore.Coupons)
	if err != nil {
		return nil, errors.Wrap(err, "list coupons")
	}
	out := make([]Coupon, len(docs))
	for i, d := range docs {
		out[i] = FromDocument(d)
	}
	return out, nil
}

func (r *StoreRepository) Get(ctx context.Context, id string) (Coupon, error) {
	doc, err := r.store.Get(ctx, docstore.Coupons, id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return Coupon{}, ErrNotFound
		}
		return Coupon{}, errors.Wrapf(err, "get coupon %s", id)
	}
	return FromDocument(doc), nil
}

func (r *StoreRepository) Create(ctx context.Context, c Coupon) (string, error) {
	id, err := r.store.Create(ctx, docstore.Coupons, c.Fields())
	if err != nil {
		return "", errors.Wrap(err, "create coupon")
	}
	return id, nil
}

func (r *StoreRepository) Update(ctx context.Context, c Coupon) error {
	if err := r.store.Update(ctx, docstore.Coupons, c.ID, c.Fields()); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return ErrNotFound
		}
		return errors.Wrapf(err, "update coupon %s", c.ID)
	}
	return nil
}

func (r *StoreRepository) Delete(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, docstore.Coupons, id); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return ErrNotFound
		}
		return errors.Wrapf(err, "delete coupon %s", id)
	}
	return nil
}

// Service manages coupons. Writes are validated first and nothing is
// written when validation fails.
type Service struct {
	repo Repository
}

// NewService creates a coupon Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns every coupon.
func (s *Service) List(ctx context.Context) ([]Coupon, error) {
	return s.repo.List(ctx)
}

// Get returns a coupon or ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (Coupon, error) {
	return s.repo.Get(ctx, id)
}

// Create validates and stores a new coupon, returning it with its id.
func (s *Service) Create(ctx context.Context, c Coupon) (Coupon, error) {
	if err := Validate(c); err != nil {
		return Coupon{}, err
	}
	id, err := s.repo.Create(ctx, c)
	if err != nil {
		return Coupon{}, err
	}
	c.ID = id
	zctx.From(ctx).Info("Coupon created", zap.String("coupon", id), zap.String("name", c.Name))
	return c, nil
}

// Update validates and replaces the fields of an existing coupon.
func (s *Service) Update(ctx context.Context, c Coupon) error {
	if c.ID == "" {
		return ErrNotFound
	}
	if err := Validate(c); err != nil {
		return err
	}
	return s.repo.Update(ctx, c)
}

// Delete removes a coupon.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	zctx.From(ctx).Info("Coupon deleted", zap.String("coupon", id))
	return nil
}

// Quote computes the discount a stored coupon gives on an order subtotal
// placed on day. It returns ErrNotApplicable when the coupon cannot be used.
func (s *Service) Quote(ctx context.Context, id string, subtotal decimal.Decimal, day string) (Discount, error) {
	if subtotal.IsNegative() {
		return Discount{}, errors.Wrapf(ErrNotApplicable, "negative subtotal %s", subtotal)
	}
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return Discount{}, err
	}
	d, err := Apply(c, subtotal, day)
	if err != nil {
		return Discount{}, errors.Wrapf(err, "coupon %s", id)
	}
	return d, nil
}

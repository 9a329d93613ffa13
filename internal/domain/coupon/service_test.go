package coupon

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/kitchen-backoffice/internal/docstore"
	"github.com/xenking/kitchen-backoffice/internal/docstore/memstore"
)

// --- Mock implementations ---

type mockRepo struct {
	Repository
	creates int
	updates int
	err     error
}

func (m *mockRepo) Create(_ context.Context, _ Coupon) (string, error) {
	m.creates++
	return "new-id", m.err
}

func (m *mockRepo) Update(_ context.Context, _ Coupon) error {
	m.updates++
	return m.err
}

// --- Tests ---

func TestService_CreateRejectsInvalidWithoutWrite(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo)

	c := validCoupon()
	c.DiscountType = DiscountPercent
	c.DiscountValue = d("60")

	_, err := svc.Create(context.Background(), c)
	require.ErrorIs(t, err, ErrPercentDiscountTooLarge)
	assert.Zero(t, repo.creates)

	c.ID = "c1"
	err = svc.Update(context.Background(), c)
	require.ErrorIs(t, err, ErrPercentDiscountTooLarge)
	assert.Zero(t, repo.updates)
}

func TestService_CreateRepoError(t *testing.T) {
	svc := NewService(&mockRepo{err: errors.New("quota exceeded")})

	_, err := svc.Create(context.Background(), validCoupon())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestService_Lifecycle(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	svc := NewService(NewStoreRepository(store))

	created, err := svc.Create(ctx, validCoupon())
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	doc, err := store.Get(ctx, docstore.Coupons, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "%", doc.Fields["discountType"])
	assert.Equal(t, int64(10), doc.Fields["discountValue"])

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Name, got.Name)
	assert.True(t, d("15000").Equal(got.MinOrderValue))

	got.DiscountType = DiscountWon
	got.DiscountValue = d("3000")
	require.NoError(t, svc.Update(ctx, got))

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, DiscountWon, list[0].DiscountType)
	assert.True(t, d("3000").Equal(list[0].DiscountValue))

	require.NoError(t, svc.Delete(ctx, created.ID))
	_, err = svc.Get(ctx, created.ID)
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, svc.Delete(ctx, created.ID), ErrNotFound)
}

func TestService_UpdateMissing(t *testing.T) {
	svc := NewService(NewStoreRepository(memstore.New()))

	c := validCoupon()
	c.ID = "nope"
	require.ErrorIs(t, svc.Update(context.Background(), c), ErrNotFound)

	c.ID = ""
	require.ErrorIs(t, svc.Update(context.Background(), c), ErrNotFound)
}

package coupon

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func validCoupon() Coupon {
	return Coupon{
		Name:             "가을 할인",
		Description:      "10% off autumn orders",
		StartDate:        "241001",
		EndDate:          "241031",
		DiscountType:     DiscountPercent,
		DiscountValue:    d("10"),
		MinOrderValue:    d("15000"),
		MaxDiscountValue: d("5000"),
		IsActive:         true,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *Coupon)
		wantField string
		wantErr   error
	}{
		{
			name:      "name over 20 characters",
			mutate:    func(c *Coupon) { c.Name = strings.Repeat("가", 21) },
			wantField: "name",
			wantErr:   ErrNameTooLong,
		},
		{
			name:      "description over 100 characters",
			mutate:    func(c *Coupon) { c.Description = strings.Repeat("x", 101) },
			wantField: "description",
			wantErr:   ErrDescriptionTooLong,
		},
		{
			name: "won discount over 50,000",
			mutate: func(c *Coupon) {
				c.DiscountType = DiscountWon
				c.DiscountValue = d("50001")
			},
			wantField: "discountValue",
			wantErr:   ErrWonDiscountTooLarge,
		},
		{
			name:      "percentage discount over 50",
			mutate:    func(c *Coupon) { c.DiscountValue = d("60") },
			wantField: "discountValue",
			wantErr:   ErrPercentDiscountTooLarge,
		},
		{
			name:      "negative discount",
			mutate:    func(c *Coupon) { c.DiscountValue = d("-1") },
			wantField: "discountValue",
			wantErr:   ErrNegativeDiscount,
		},
		{
			name:      "unknown discount type",
			mutate:    func(c *Coupon) { c.DiscountType = "free_lowest" },
			wantField: "discountType",
			wantErr:   ErrUnknownDiscountType,
		},
		{
			name:      "negative minimum order value",
			mutate:    func(c *Coupon) { c.MinOrderValue = d("-100") },
			wantField: "minOrderValue",
			wantErr:   ErrNegativeMinOrderValue,
		},
		{
			name:      "maximum discount over 50,000",
			mutate:    func(c *Coupon) { c.MaxDiscountValue = d("60000") },
			wantField: "maxDiscountValue",
			wantErr:   ErrMaxDiscountTooLarge,
		},
		{
			name:      "start after end",
			mutate:    func(c *Coupon) { c.StartDate, c.EndDate = "241101", "241031" },
			wantField: "startDate",
			wantErr:   ErrStartAfterEnd,
		},
		{
			name:      "malformed end date",
			mutate:    func(c *Coupon) { c.EndDate = "2024-10-31" },
			wantField: "endDate",
			wantErr:   ErrInvalidDate,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validCoupon()
			tt.mutate(&c)

			err := Validate(c)
			require.ErrorIs(t, err, tt.wantErr)

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			require.Len(t, ve.Fields, 1)
			assert.Equal(t, tt.wantField, ve.Fields[0].Field)
		})
	}
}

func TestValidate_Valid(t *testing.T) {
	require.NoError(t, Validate(validCoupon()))

	c := validCoupon()
	c.Name = strings.Repeat("가", 20)
	c.DiscountType = DiscountWon
	c.DiscountValue = d("50000")
	c.MaxDiscountValue = d("50000")
	c.StartDate, c.EndDate = "241031", "241031"
	require.NoError(t, Validate(c))
}

func TestValidate_ReportsEveryField(t *testing.T) {
	c := validCoupon()
	c.Name = strings.Repeat("n", 25)
	c.DiscountValue = d("75")
	c.MinOrderValue = d("-1")

	err := Validate(c)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Len(t, ve.Fields, 3)
	assert.ErrorIs(t, err, ErrNameTooLong)
	assert.ErrorIs(t, err, ErrPercentDiscountTooLarge)
	assert.ErrorIs(t, err, ErrNegativeMinOrderValue)
	assert.Contains(t, err.Error(), "name:")
}

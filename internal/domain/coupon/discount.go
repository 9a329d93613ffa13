package coupon

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Apply calculates the discount a coupon gives on an order subtotal placed
// on the given day key. It returns ErrNotApplicable when the coupon is
// inactive, outside its date window, or the subtotal is below the minimum
// order value.
func Apply(c Coupon, subtotal decimal.Decimal, day string) (Discount, error) {
	switch {
	case !c.IsActive:
		return Discount{}, errors.Wrap(ErrNotApplicable, "inactive")
	case day < c.StartDate || day > c.EndDate:
		return Discount{}, errors.Wrapf(ErrNotApplicable, "valid %s to %s", c.StartDate, c.EndDate)
	case subtotal.LessThan(c.MinOrderValue):
		return Discount{}, errors.Wrapf(ErrNotApplicable, "minimum order value %s", c.MinOrderValue)
	}

	switch c.DiscountType {
	case DiscountPercent:
		return applyPercent(c, subtotal), nil
	case DiscountWon:
		return applyWon(c, subtotal), nil
	default:
		return Discount{}, errors.Errorf("unsupported discount type: %q", c.DiscountType)
	}
}

func applyPercent(c Coupon, subtotal decimal.Decimal) Discount {
	amount := subtotal.Mul(c.DiscountValue).Div(hundred)
	if c.MaxDiscountValue.IsPositive() {
		amount = decimal.Min(amount, c.MaxDiscountValue)
	}
	return Discount{
		Amount:      floorAtZero(amount).Floor(),
		Description: c.Description,
	}
}

func applyWon(c Coupon, subtotal decimal.Decimal) Discount {
	amount := decimal.Min(c.DiscountValue, subtotal)
	return Discount{
		Amount:      floorAtZero(amount).Floor(),
		Description: c.Description,
	}
}

// floorAtZero clamps negative values to zero.
func floorAtZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

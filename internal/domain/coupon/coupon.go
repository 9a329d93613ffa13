package coupon

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/kitchen-backoffice/internal/docstore"
)

// DiscountType is how a coupon's discount value is interpreted.
type DiscountType string

const (
	// DiscountWon takes a fixed amount in won off the order, capped at the subtotal.
	DiscountWon DiscountType = "원"
	// DiscountPercent takes a percentage of the subtotal off the order.
	DiscountPercent DiscountType = "%"
)

var (
	// ErrNotFound is returned when a coupon id does not exist.
	ErrNotFound = errors.New("coupon not found")
	// ErrNotApplicable is returned when a coupon cannot be used for an order.
	ErrNotApplicable = errors.New("coupon not applicable")
)

// Coupon is a promotional rule. Dates are day keys (YYMMDD).
type Coupon struct {
	ID               string
	Name             string
	Description      string
	StartDate        string
	EndDate          string
	DiscountType     DiscountType
	DiscountValue    decimal.Decimal
	MinOrderValue    decimal.Decimal
	MaxDiscountValue decimal.Decimal
	IsCombinable     bool
	IsActive         bool
}

// Discount holds the computed discount amount and the coupon's description.
type Discount struct {
	Amount      decimal.Decimal
	Description string
}

// Repository is the coupon persistence the Service needs.
type Repository interface {
	List(ctx context.Context) ([]Coupon, error)
	Get(ctx context.Context, id string) (Coupon, error)
	Create(ctx context.Context, c Coupon) (string, error)
	Update(ctx context.Context, c Coupon) error
	Delete(ctx context.Context, id string) error
}

const (
	fieldName             = "name"
	fieldDescription      = "description"
	fieldStartDate        = "startDate"
	fieldEndDate          = "endDate"
	fieldDiscountType     = "discountType"
	fieldDiscountValue    = "discountValue"
	fieldMinOrderValue    = "minOrderValue"
	fieldMaxDiscountValue = "maxDiscountValue"
	fieldIsCombinable     = "isCombinable"
	fieldIsActive         = "isActive"
)

// FromDocument decodes a stored coupon. Numeric fields that are missing or
// not numeric decode as zero.
func FromDocument(doc docstore.Document) Coupon {
	f := doc.Fields
	str := func(k string) string { s, _ := f[k].(string); return s }
	flag := func(k string) bool { b, _ := f[k].(bool); return b }
	return Coupon{
		ID:               doc.ID,
		Name:             str(fieldName),
		Description:      str(fieldDescription),
		StartDate:        str(fieldStartDate),
		EndDate:          str(fieldEndDate),
		DiscountType:     DiscountType(str(fieldDiscountType)),
		DiscountValue:    number(f[fieldDiscountValue]),
		MinOrderValue:    number(f[fieldMinOrderValue]),
		MaxDiscountValue: number(f[fieldMaxDiscountValue]),
		IsCombinable:     flag(fieldIsCombinable),
		IsActive:         flag(fieldIsActive),
	}
}

// Fields encodes the coupon for storage. The id is not part of the fields.
func (c Coupon) Fields() docstore.Fields {
	return docstore.Fields{
		fieldName:             c.Name,
		fieldDescription:      c.Description,
		fieldStartDate:        c.StartDate,
		fieldEndDate:          c.EndDate,
		fieldDiscountType:     string(c.DiscountType),
		fieldDiscountValue:    storedNumber(c.DiscountValue),
		fieldMinOrderValue:    storedNumber(c.MinOrderValue),
		fieldMaxDiscountValue: storedNumber(c.MaxDiscountValue),
		fieldIsCombinable:     c.IsCombinable,
		fieldIsActive:         c.IsActive,
	}
}

func number(v any) decimal.Decimal {
	switch v := v.(type) {
	case int:
		return decimal.NewFromInt(int64(v))
	case int32:
		return decimal.NewFromInt32(v)
	case int64:
		return decimal.NewFromInt(v)
	case float64:
		return decimal.NewFromFloat(v)
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}

func storedNumber(d decimal.Decimal) any {
	if d.IsInteger() {
		return d.IntPart()
	}
	return d.InexactFloat64()
}

package coupon

import (
	"strings"
	"unicode/utf8"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/kitchen-backoffice/internal/daykey"
)

// Form limits.
const (
	MaxNameLen        = 20
	MaxDescriptionLen = 100
)

var (
	MaxWonDiscount     = decimal.NewFromInt(50000)
	MaxPercentDiscount = decimal.NewFromInt(50)
	MaxDiscountCap     = decimal.NewFromInt(50000)
)

// Validation rule errors. A *ValidationError wraps every rule that failed.
var (
	ErrNameTooLong             = errors.New("name must be at most 20 characters")
	ErrDescriptionTooLong      = errors.New("description must be at most 100 characters")
	ErrUnknownDiscountType     = errors.New("discount type must be 원 or %")
	ErrNegativeDiscount        = errors.New("discount value must not be negative")
	ErrWonDiscountTooLarge     = errors.New("discount must be at most 50,000 원")
	ErrPercentDiscountTooLarge = errors.New("discount must be at most 50%")
	ErrNegativeMinOrderValue   = errors.New("minimum order value must not be negative")
	ErrMaxDiscountTooLarge     = errors.New("maximum discount must be at most 50,000 원")
	ErrInvalidDate             = errors.New("date must be a YYMMDD day key")
	ErrStartAfterEnd           = errors.New("start date must not be after end date")
)

// FieldError is a single failed rule.
type FieldError struct {
	Field string
	Err   error
}

// ValidationError lists every field of a coupon that failed validation.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Err.Error()
	}
	return "invalid coupon: " + strings.Join(parts, "; ")
}

// Unwrap exposes the rule errors to errors.Is.
func (e *ValidationError) Unwrap() []error {
	out := make([]error, len(e.Fields))
	for i, f := range e.Fields {
		out[i] = f.Err
	}
	return out
}

// Validate checks a coupon against the form rules. It returns nil or a
// *ValidationError naming every failed field.
func Validate(c Coupon) error {
	var fails []FieldError
	fail := func(field string, err error) {
		fails = append(fails, FieldError{Field: field, Err: err})
	}

	if utf8.RuneCountInString(c.Name) > MaxNameLen {
		fail(fieldName, ErrNameTooLong)
	}
	if utf8.RuneCountInString(c.Description) > MaxDescriptionLen {
		fail(fieldDescription, ErrDescriptionTooLong)
	}

	switch {
	case c.DiscountValue.IsNegative():
		fail(fieldDiscountValue, ErrNegativeDiscount)
	case c.DiscountType == DiscountWon:
		if c.DiscountValue.GreaterThan(MaxWonDiscount) {
			fail(fieldDiscountValue, ErrWonDiscountTooLarge)
		}
	case c.DiscountType == DiscountPercent:
		if c.DiscountValue.GreaterThan(MaxPercentDiscount) {
			fail(fieldDiscountValue, ErrPercentDiscountTooLarge)
		}
	}
	if c.DiscountType != DiscountWon && c.DiscountType != DiscountPercent {
		fail(fieldDiscountType, ErrUnknownDiscountType)
	}

	if c.MinOrderValue.IsNegative() {
		fail(fieldMinOrderValue, ErrNegativeMinOrderValue)
	}
	if c.MaxDiscountValue.GreaterThan(MaxDiscountCap) {
		fail(fieldMaxDiscountValue, ErrMaxDiscountTooLarge)
	}

	startOK, endOK := daykey.Valid(c.StartDate), daykey.Valid(c.EndDate)
	if !startOK {
		fail(fieldStartDate, ErrInvalidDate)
	}
	if !endOK {
		fail(fieldEndDate, ErrInvalidDate)
	}
	// Day keys of one century sort chronologically.
	if startOK && endOK && c.StartDate > c.EndDate {
		fail(fieldStartDate, ErrStartAfterEnd)
	}

	if len(fails) > 0 {
		return &ValidationError{Fields: fails}
	}
	return nil
}

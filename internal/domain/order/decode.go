package order

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/kitchen-backoffice/internal/docstore"
)

// Document field names.
const (
	fieldCreatedAt    = "createdAt"
	fieldIsStarted    = "isStarted"
	fieldIsCompleted  = "isCompleted"
	fieldMenuList     = "menuList"
	fieldTotal        = "total"
	fieldCustomerName = "customerName"
	fieldCustomerID   = "customerId"
	fieldMenuName     = "menuName"
	fieldQuantity     = "quantity"
	fieldPrice        = "price"
	fieldOptions      = "options"
)

var createdAtLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// FromDocument decodes a stored order. It never fails: malformed fields
// degrade to their unset value and the rest of the order is kept.
func FromDocument(doc docstore.Document) Order {
	f := doc.Fields
	o := Order{
		ID:           doc.ID,
		IsStarted:    boolField(f[fieldIsStarted]),
		IsCompleted:  boolField(f[fieldIsCompleted]),
		Total:        amountField(f[fieldTotal]),
		CustomerName: stringField(f[fieldCustomerName]),
		CustomerID:   stringField(f[fieldCustomerID]),
	}
	o.CreatedAt, o.RawCreatedAt = timeField(f[fieldCreatedAt])

	items, _ := f[fieldMenuList].([]any)
	for _, raw := range items {
		m := asMap(raw)
		if m == nil {
			continue
		}
		o.MenuList = append(o.MenuList, LineItem{
			MenuName: stringField(m[fieldMenuName]),
			Quantity: quantityField(m[fieldQuantity]),
			Price:    amountField(m[fieldPrice]),
			Options:  stringsField(m[fieldOptions]),
		})
	}
	return o
}

// FromDocuments decodes a listing, keeping its order.
func FromDocuments(docs []docstore.Document) []Order {
	out := make([]Order, len(docs))
	for i, d := range docs {
		out[i] = FromDocument(d)
	}
	return out
}

// Fields encodes the order into a storable field map.
func (o Order) Fields() docstore.Fields {
	items := make([]any, 0, len(o.MenuList))
	for _, it := range o.MenuList {
		m := map[string]any{fieldMenuName: it.MenuName}
		if it.Quantity.Valid {
			m[fieldQuantity] = it.Quantity.N
		}
		if it.Price.Valid {
			m[fieldPrice] = numberValue(it.Price.Decimal)
		}
		if len(it.Options) > 0 {
			opts := make([]any, len(it.Options))
			for i, s := range it.Options {
				opts[i] = s
			}
			m[fieldOptions] = opts
		}
		items = append(items, m)
	}

	f := docstore.Fields{
		fieldIsStarted:   o.IsStarted,
		fieldIsCompleted: o.IsCompleted,
		fieldMenuList:    items,
	}
	switch {
	case o.RawCreatedAt != "":
		f[fieldCreatedAt] = o.RawCreatedAt
	case !o.CreatedAt.IsZero():
		f[fieldCreatedAt] = o.CreatedAt.Format(time.RFC3339Nano)
	}
	if o.Total.Valid {
		f[fieldTotal] = numberValue(o.Total.Decimal)
	}
	if o.CustomerName != "" {
		f[fieldCustomerName] = o.CustomerName
	}
	if o.CustomerID != "" {
		f[fieldCustomerID] = o.CustomerID
	}
	return f
}

func numberValue(d decimal.Decimal) any {
	if d.IsInteger() {
		return d.IntPart()
	}
	return d.InexactFloat64()
}

func asMap(v any) map[string]any {
	switch m := v.(type) {
	case map[string]any:
		return m
	case docstore.Fields:
		return m
	default:
		return nil
	}
}

func boolField(v any) bool {
	b, _ := v.(bool)
	return b
}

func stringField(v any) string {
	s, _ := v.(string)
	return s
}

func stringsField(v any) []string {
	switch v := v.(type) {
	case []string:
		return append([]string(nil), v...)
	case []any:
		var out []string
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// amountField accepts numbers and numeric strings. Negative values are unset.
func amountField(v any) decimal.NullDecimal {
	var (
		d   decimal.Decimal
		err error
	)
	switch v := v.(type) {
	case int:
		d = decimal.NewFromInt(int64(v))
	case int32:
		d = decimal.NewFromInt32(v)
	case int64:
		d = decimal.NewFromInt(v)
	case float32:
		d = decimal.NewFromFloat32(v)
	case float64:
		d = decimal.NewFromFloat(v)
	case string:
		d, err = decimal.NewFromString(strings.TrimSpace(v))
	case decimal.Decimal:
		d = v
	default:
		return decimal.NullDecimal{}
	}
	if err != nil || d.IsNegative() {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// quantityField accepts whole numbers and integer strings.
func quantityField(v any) Quantity {
	var n int64
	switch v := v.(type) {
	case int:
		n = int64(v)
	case int32:
		n = int64(v)
	case int64:
		n = v
	case float64:
		if v != float64(int64(v)) {
			return Quantity{}
		}
		n = int64(v)
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return Quantity{}
		}
		n = parsed
	default:
		return Quantity{}
	}
	if n < 0 {
		return Quantity{}
	}
	return Q(n)
}

func timeField(v any) (time.Time, string) {
	switch v := v.(type) {
	case time.Time:
		return v, v.Format(time.RFC3339Nano)
	case string:
		return ParseCreatedAt(v), v
	default:
		return time.Time{}, ""
	}
}

// ParseCreatedAt parses a stored creation timestamp. It returns the zero
// time when no known layout matches.
func ParseCreatedAt(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range createdAtLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// State is the lifecycle state of an order, derived from its two flags.
type State string

const (
	StatePending    State = "PENDING"
	StateInProgress State = "IN_PROGRESS"
	StateDone       State = "DONE"
	// StateViewDetail is a read-only request. It never changes an order.
	StateViewDetail State = "VIEW_DETAIL"
)

// Order is one customer transaction of a day partition.
type Order struct {
	ID string
	// CreatedAt is the zero time when the stored value could not be parsed.
	CreatedAt    time.Time
	RawCreatedAt string
	IsStarted    bool
	IsCompleted  bool
	MenuList     []LineItem
	// Total is invalid when absent or not numeric.
	Total        decimal.NullDecimal
	CustomerName string
	CustomerID   string
}

// LineItem is a single menu entry of an order.
type LineItem struct {
	MenuName string
	Quantity Quantity
	Price    decimal.NullDecimal
	Options  []string
}

// Quantity is an optional non-negative item count.
type Quantity struct {
	N     int64
	Valid bool
}

// Q returns a valid Quantity.
func Q(n int64) Quantity { return Quantity{N: n, Valid: true} }

// OrZero returns the count or zero when unset.
func (q Quantity) OrZero() int64 {
	if !q.Valid {
		return 0
	}
	return q.N
}

// Amount returns a valid decimal amount.
func Amount(v int64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromInt(v))
}

func orZero(d decimal.NullDecimal) decimal.Decimal {
	if !d.Valid {
		return decimal.Zero
	}
	return d.Decimal
}

// Notifier is told about every successful status change.
type Notifier interface {
	OrderStatusChanged(ctx context.Context, dayKey, orderID string, state State) error
}

// NopNotifier discards notifications.
type NopNotifier struct{}

// OrderStatusChanged implements Notifier.
func (NopNotifier) OrderStatusChanged(context.Context, string, string, State) error { return nil }

package order

import (
	"slices"
	"strings"

	"github.com/go-faster/errors"
)

// Direction is the queue ordering by creation time.
type Direction string

const (
	Descending Direction = "descending"
	Ascending  Direction = "ascending"
)

// ErrUnknownDirection is returned for an unsupported sort direction.
var ErrUnknownDirection = errors.New("unknown sort direction")

// ParseDirection parses a direction. Empty input selects Descending.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "desc", string(Descending):
		return Descending, nil
	case "asc", string(Ascending):
		return Ascending, nil
	default:
		return "", errors.Wrapf(ErrUnknownDirection, "%q", s)
	}
}

// SortOrders returns a copy of orders sorted by creation time. The sort is
// stable and unparseable timestamps sort as the lowest instant.
func SortOrders(orders []Order, dir Direction) []Order {
	out := slices.Clone(orders)
	slices.SortStableFunc(out, func(a, b Order) int {
		c := compareCreated(a, b)
		if dir == Ascending {
			return c
		}
		return -c
	})
	return out
}

func compareCreated(a, b Order) int {
	az, bz := a.CreatedAt.IsZero(), b.CreatedAt.IsZero()
	switch {
	case az && bz:
		return 0
	case az:
		return -1
	case bz:
		return 1
	}
	return a.CreatedAt.Compare(b.CreatedAt)
}

// BuildQueue is the order queue view: one state, sorted by creation time.
func BuildQueue(orders []Order, state State, dir Direction) []Order {
	return SortOrders(FilterByState(orders, state), dir)
}

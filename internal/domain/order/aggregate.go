package order

import (
	"slices"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// DefaultRankLimit is the number of menus shown on the statistics view.
const DefaultRankLimit = 6

// Metric selects the value menus are ranked by.
type Metric string

const (
	SalesCount Metric = "salesCount"
	SalesValue Metric = "salesValue"
)

// ErrUnknownMetric is returned for an unsupported ranking metric.
var ErrUnknownMetric = errors.New("unknown ranking metric")

// ParseMetric parses a metric name. Empty input selects SalesCount.
func ParseMetric(s string) (Metric, error) {
	switch strings.TrimSpace(s) {
	case "", string(SalesCount), "totalCount":
		return SalesCount, nil
	case string(SalesValue), "totalRevenue":
		return SalesValue, nil
	default:
		return "", errors.Wrapf(ErrUnknownMetric, "%q", s)
	}
}

// MenuAggregate is the per-menu rollup of one day.
type MenuAggregate struct {
	Name         string
	TotalRevenue decimal.Decimal
	TotalCount   int64
}

// Value returns the aggregate's value for the metric.
func (a MenuAggregate) Value(m Metric) decimal.Decimal {
	if m == SalesValue {
		return a.TotalRevenue
	}
	return decimal.NewFromInt(a.TotalCount)
}

// Aggregate rolls line items up by menu name. Buckets appear in the order
// their name is first seen; unset price or quantity count as zero for that
// item only.
func Aggregate(orders []Order) []MenuAggregate {
	var (
		out   []MenuAggregate
		index = make(map[string]int)
	)
	for _, o := range orders {
		for _, it := range o.MenuList {
			i, ok := index[it.MenuName]
			if !ok {
				i = len(out)
				index[it.MenuName] = i
				out = append(out, MenuAggregate{Name: it.MenuName, TotalRevenue: decimal.Zero})
			}
			qty := it.Quantity.OrZero()
			out[i].TotalCount += qty
			out[i].TotalRevenue = out[i].TotalRevenue.Add(orZero(it.Price).Mul(decimal.NewFromInt(qty)))
		}
	}
	return out
}

// Rank sorts aggregates by the metric, highest first, keeping first-seen
// order among ties, and returns at most limit entries. A limit of zero or
// less returns all of them.
func Rank(aggs []MenuAggregate, m Metric, limit int) []MenuAggregate {
	out := slices.Clone(aggs)
	slices.SortStableFunc(out, func(a, b MenuAggregate) int {
		return b.Value(m).Cmp(a.Value(m))
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// TotalSales sums order totals. Orders without a total count as zero.
func TotalSales(orders []Order) decimal.Decimal {
	sum := decimal.Zero
	for _, o := range orders {
		sum = sum.Add(orZero(o.Total))
	}
	return sum
}

// StatEntry is one ranked menu with its chart slice.
type StatEntry struct {
	MenuAggregate
	// Value is the ranked metric's value.
	Value decimal.Decimal
	// Share is Value over the sum of all ranked values, in [0, 1].
	Share decimal.Decimal
	Label string
}

// Stats is the statistics view of a day.
type Stats struct {
	Metric     Metric
	TotalSales decimal.Decimal
	TotalLabel string
	Entries    []StatEntry
}

// BuildStats aggregates and ranks the day's orders. Chart slices and labels
// are derived from the ranked list, so both views always show the same
// menus in the same order.
func BuildStats(orders []Order, m Metric, limit int) Stats {
	ranked := Rank(Aggregate(orders), m, limit)

	sum := decimal.Zero
	for _, a := range ranked {
		sum = sum.Add(a.Value(m))
	}

	entries := make([]StatEntry, len(ranked))
	for i, a := range ranked {
		v := a.Value(m)
		share := decimal.Zero
		if sum.IsPositive() {
			share = v.DivRound(sum, 4)
		}
		entries[i] = StatEntry{
			MenuAggregate: a,
			Value:         v,
			Share:         share,
			Label:         FormatMetric(m, v),
		}
	}

	total := TotalSales(orders)
	return Stats{
		Metric:     m,
		TotalSales: total,
		TotalLabel: FormatWon(total),
		Entries:    entries,
	}
}

package order

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(name string, price, qty int64) LineItem {
	return LineItem{MenuName: name, Price: Amount(price), Quantity: Q(qty)}
}

func TestAggregate_MergesByName(t *testing.T) {
	orders := []Order{
		{ID: "1", MenuList: []LineItem{item("A", 1000, 2)}},
		{ID: "2", MenuList: []LineItem{item("A", 1000, 3)}},
	}

	got := Aggregate(orders)
	require.Len(t, got, 1)
	assert.Equal(t, "A", got[0].Name)
	assert.True(t, decimal.NewFromInt(5000).Equal(got[0].TotalRevenue))
	assert.Equal(t, int64(5), got[0].TotalCount)
}

func TestAggregate_MalformedItemsCountAsZero(t *testing.T) {
	orders := []Order{{MenuList: []LineItem{
		{MenuName: "Ramen", Quantity: Q(2)},
		{MenuName: "Ramen", Price: Amount(8000)},
		item("Ramen", 8000, 1),
		item("Tea", 2000, 2),
	}}}

	got := Aggregate(orders)
	require.Len(t, got, 2)
	assert.Equal(t, "Ramen", got[0].Name)
	assert.Equal(t, int64(3), got[0].TotalCount)
	assert.True(t, decimal.NewFromInt(8000).Equal(got[0].TotalRevenue))
	assert.Equal(t, "Tea", got[1].Name)
	assert.True(t, decimal.NewFromInt(4000).Equal(got[1].TotalRevenue))
}

func TestAggregate_OrderIndependent(t *testing.T) {
	var orders []Order
	for i := range 20 {
		orders = append(orders, Order{
			ID: fmt.Sprint(i),
			MenuList: []LineItem{
				item(fmt.Sprintf("menu-%d", i%4), int64(1000+i*10), int64(i%3)),
				item("Kimchi", 500, 1),
			},
		})
	}
	totals := func(aggs []MenuAggregate) map[string]string {
		out := make(map[string]string, len(aggs))
		for _, a := range aggs {
			out[a.Name] = fmt.Sprintf("%s/%d", a.TotalRevenue, a.TotalCount)
		}
		return out
	}

	want := totals(Aggregate(orders))
	rng := rand.New(rand.NewPCG(1, 2))
	for range 5 {
		shuffled := append([]Order(nil), orders...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		assert.Equal(t, want, totals(Aggregate(shuffled)))
	}
}

func TestRank_TopSixByCount(t *testing.T) {
	counts := []int64{3, 9, 1, 9, 4, 7, 2, 4, 8, 5}
	var aggs []MenuAggregate
	for i, c := range counts {
		aggs = append(aggs, MenuAggregate{Name: fmt.Sprintf("m%d", i), TotalCount: c, TotalRevenue: decimal.Zero})
	}

	got := Rank(aggs, SalesCount, DefaultRankLimit)
	require.Len(t, got, 6)

	var names []string
	for _, a := range got {
		names = append(names, a.Name)
	}
	// m1 and m3 tie at 9, m4 and m7 tie at 4: first seen wins.
	assert.Equal(t, []string{"m1", "m3", "m8", "m5", "m9", "m4"}, names)
}

func TestRank_Limits(t *testing.T) {
	aggs := []MenuAggregate{
		{Name: "a", TotalRevenue: decimal.NewFromInt(10)},
		{Name: "b", TotalRevenue: decimal.NewFromInt(30)},
		{Name: "c", TotalRevenue: decimal.NewFromInt(20)},
	}

	for _, limit := range []int{1, 2, 3, 6} {
		got := Rank(aggs, SalesValue, limit)
		assert.Len(t, got, min(limit, len(aggs)))
		for i := 1; i < len(got); i++ {
			assert.True(t, got[i-1].TotalRevenue.GreaterThanOrEqual(got[i].TotalRevenue))
		}
	}
	assert.Len(t, Rank(aggs, SalesValue, 0), 3)
	assert.Equal(t, "a", aggs[0].Name, "input must not be reordered")
}

func TestTotalSales(t *testing.T) {
	orders := []Order{
		{Total: Amount(12000)},
		{},
		{Total: Amount(3500)},
	}
	assert.True(t, decimal.NewFromInt(15500).Equal(TotalSales(orders)))
}

func TestBuildStats(t *testing.T) {
	orders := []Order{
		{Total: Amount(7000), MenuList: []LineItem{item("Bibimbap", 1000, 2), item("Tea", 500, 6)}},
		{MenuList: []LineItem{item("Bibimbap", 1000, 3), item("Soju", 4000, 1)}},
	}

	stats := BuildStats(orders, SalesValue, DefaultRankLimit)
	assert.Equal(t, SalesValue, stats.Metric)
	assert.Equal(t, "7,000 원", stats.TotalLabel)
	require.Len(t, stats.Entries, 3)

	assert.Equal(t, "Bibimbap", stats.Entries[0].Name)
	assert.Equal(t, "5,000 원", stats.Entries[0].Label)
	assert.Equal(t, "Soju", stats.Entries[1].Name)
	assert.Equal(t, "Tea", stats.Entries[2].Name)

	// 5000 + 4000 + 3000
	assert.Equal(t, "0.4167", stats.Entries[0].Share.String())
	assert.Equal(t, "0.3333", stats.Entries[1].Share.String())
	assert.Equal(t, "0.25", stats.Entries[2].Share.String())

	byCount := BuildStats(orders, SalesCount, 2)
	require.Len(t, byCount.Entries, 2)
	assert.Equal(t, "Tea", byCount.Entries[0].Name)
	assert.Equal(t, "6", byCount.Entries[0].Label)
	assert.Equal(t, "Bibimbap", byCount.Entries[1].Name)
}

func TestBuildStats_Empty(t *testing.T) {
	stats := BuildStats(nil, SalesCount, DefaultRankLimit)
	assert.Empty(t, stats.Entries)
	assert.Equal(t, "0 원", stats.TotalLabel)
}

func TestParseMetric(t *testing.T) {
	m, err := ParseMetric("")
	require.NoError(t, err)
	assert.Equal(t, SalesCount, m)

	m, err = ParseMetric("totalRevenue")
	require.NoError(t, err)
	assert.Equal(t, SalesValue, m)

	_, err = ParseMetric("popularity")
	require.ErrorIs(t, err, ErrUnknownMetric)
}

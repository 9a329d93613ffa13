package docstore

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalFields_SortedKeys(t *testing.T) {
	data, err := MarshalFields(Fields{
		"total":     int64(5000),
		"isStarted": true,
		"createdAt": time.Date(2024, 10, 29, 9, 30, 0, 0, time.UTC),
		"menuList": []any{
			map[string]any{"menuName": "Bibimbap", "price": 9000, "options": []string{"spicy"}},
		},
		"customerName": nil,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"createdAt": "2024-10-29T09:30:00Z",
		"customerName": null,
		"isStarted": true,
		"menuList": [{"menuName": "Bibimbap", "options": ["spicy"], "price": 9000}],
		"total": 5000
	}`, string(data))
	assert.Less(t, strings.Index(string(data), "createdAt"), strings.Index(string(data), "total"))
}

func TestMarshalFields_Unsupported(t *testing.T) {
	_, err := MarshalFields(Fields{"ch": make(chan int)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `field "ch"`)
}

func TestUnmarshalFields_Numbers(t *testing.T) {
	got, err := UnmarshalFields([]byte(`{"qty": 3, "price": 1250.5, "name": "Tteokbokki", "opts": ["a", 1], "nested": {"ok": false}}`))
	require.NoError(t, err)

	assert.Equal(t, int64(3), got["qty"])
	assert.Equal(t, 1250.5, got["price"])
	assert.Equal(t, "Tteokbokki", got["name"])
	assert.Equal(t, []any{"a", int64(1)}, got["opts"])
	assert.Equal(t, map[string]any{"ok": false}, got["nested"])
}

func TestUnmarshalFields_Invalid(t *testing.T) {
	_, err := UnmarshalFields([]byte(`{"qty": }`))
	require.Error(t, err)

	_, err = UnmarshalFields([]byte(`[1, 2]`))
	require.Error(t, err)
}

func TestOrdersCollection(t *testing.T) {
	c := Orders("241029")
	assert.Equal(t, Collection("orders/241029/orders"), c)
	assert.Equal(t, []string{"orders", "241029", "orders"}, c.Segments())
}

//go:build integration

package pgstore

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/xenking/kitchen-backoffice/internal/docstore"
)

func startPostgres(t *testing.T) *Store {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "backoffice",
				"POSTGRES_PASSWORD": "backoffice",
				"POSTGRES_DB":       "backoffice",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	url := fmt.Sprintf("postgres://backoffice:backoffice@%s:%s/backoffice?sslmode=disable", host, port.Port())
	pool, err := NewPool(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, Migrate(ctx, pool))
	// A second run is a no-op.
	require.NoError(t, Migrate(ctx, pool))

	return New(pool)
}

func TestStore(t *testing.T) {
	s := startPostgres(t)
	ctx := context.Background()
	orders := docstore.Orders("241029")

	t.Run("crud", func(t *testing.T) {
		require.NoError(t, s.Ping(ctx))

		id, err := s.Create(ctx, orders, docstore.Fields{
			"isStarted": false,
			"total":     int64(12000),
			"menuList":  []any{map[string]any{"menuName": "Gimbap", "price": int64(4000), "quantity": int64(3)}},
		})
		require.NoError(t, err)

		require.NoError(t, s.Update(ctx, orders, id, docstore.Fields{"isStarted": true}))

		doc, err := s.Get(ctx, orders, id)
		require.NoError(t, err)
		assert.Equal(t, true, doc.Fields["isStarted"])
		assert.Equal(t, int64(12000), doc.Fields["total"])
		items := doc.Fields["menuList"].([]any)
		require.Len(t, items, 1)
		assert.Equal(t, "Gimbap", items[0].(map[string]any)["menuName"])

		require.NoError(t, s.Delete(ctx, orders, id))
		_, err = s.Get(ctx, orders, id)
		require.ErrorIs(t, err, docstore.ErrNotFound)
	})

	t.Run("not found", func(t *testing.T) {
		require.ErrorIs(t, s.Update(ctx, orders, "missing", docstore.Fields{"a": true}), docstore.ErrNotFound)
		require.ErrorIs(t, s.Delete(ctx, orders, "missing"), docstore.ErrNotFound)
	})

	t.Run("collections are isolated and ordered", func(t *testing.T) {
		c := docstore.Orders("241030")
		require.NoError(t, s.Set(ctx, c, "b", docstore.Fields{"total": int64(1000)}))
		require.NoError(t, s.Set(ctx, c, "a", docstore.Fields{"total": "n/a"}))
		require.NoError(t, s.Set(ctx, c, "b", docstore.Fields{"total": int64(2500)}))

		docs, err := s.List(ctx, c)
		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, "b", docs[0].ID)
		assert.Equal(t, int64(2500), docs[0].Fields["total"])

		other, err := s.List(ctx, docstore.Orders("241031"))
		require.NoError(t, err)
		assert.Empty(t, other)

		sum, err := s.SumField(ctx, c, "total")
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(2500).Equal(sum), sum.String())
	})

	t.Run("sum counts numeric strings", func(t *testing.T) {
		c := docstore.Orders("241101")
		require.NoError(t, s.Set(ctx, c, "a", docstore.Fields{"total": int64(9000)}))
		require.NoError(t, s.Set(ctx, c, "b", docstore.Fields{"total": " 5000 "}))
		require.NoError(t, s.Set(ctx, c, "c", docstore.Fields{"total": "12.5"}))
		require.NoError(t, s.Set(ctx, c, "d", docstore.Fields{"total": int64(-300)}))
		require.NoError(t, s.Set(ctx, c, "e", docstore.Fields{"total": "soon"}))
		require.NoError(t, s.Set(ctx, c, "f", docstore.Fields{"total": true}))

		sum, err := s.SumField(ctx, c, "total")
		require.NoError(t, err)
		assert.True(t, decimal.RequireFromString("14012.5").Equal(sum), sum.String())
	})

	t.Run("insert is create-only", func(t *testing.T) {
		c := docstore.Orders("241102")
		created, err := s.Insert(ctx, c, "o1", docstore.Fields{"isCompleted": true})
		require.NoError(t, err)
		assert.True(t, created)

		created, err = s.Insert(ctx, c, "o1", docstore.Fields{"isCompleted": false})
		require.NoError(t, err)
		assert.False(t, created)

		doc, err := s.Get(ctx, c, "o1")
		require.NoError(t, err)
		assert.Equal(t, true, doc.Fields["isCompleted"])
	})
}

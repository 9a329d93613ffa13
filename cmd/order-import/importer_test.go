package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/pgzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/kitchen-backoffice/internal/docstore"
	"github.com/xenking/kitchen-backoffice/internal/docstore/memstore"
)

// --- Helpers ---

func seoul(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)
	return loc
}

func writeGz(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer func() { require.NoError(t, f.Close()) }()

	gz := pgzip.NewWriter(f)
	_, err = gz.Write([]byte(strings.Join(lines, "\n") + "\n"))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	return path
}

// --- Tests ---

func TestParseLine(t *testing.T) {
	loc := seoul(t)

	tests := []struct {
		name    string
		line    string
		wantDay string
		wantID  string
		wantErr bool
	}{
		{
			name:    "explicit day key",
			line:    `{"id":"o1","dayKey":"241029","total":9000}`,
			wantDay: "241029",
			wantID:  "o1",
		},
		{
			name:    "day derived from createdAt in business zone",
			line:    `{"id":"o2","createdAt":"2024-10-28T20:00:00Z"}`,
			wantDay: "241029",
			wantID:  "o2",
		},
		{name: "not json", line: `{"id":`, wantErr: true},
		{name: "missing id", line: `{"dayKey":"241029"}`, wantErr: true},
		{name: "no day", line: `{"id":"o3","createdAt":"yesterday"}`, wantErr: true},
		{name: "invalid day key", line: `{"id":"o4","dayKey":"241399"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			day, id, fields, err := parseLine([]byte(tt.line), loc)
			if tt.wantErr {
				require.ErrorIs(t, err, errMalformed)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDay, day)
			assert.Equal(t, tt.wantID, id)
			assert.NotContains(t, fields, "id")
			assert.NotContains(t, fields, "dayKey")
		})
	}
}

func TestImportFiles(t *testing.T) {
	dir := t.TempDir()
	first := writeGz(t, dir, "a.ndjson.gz",
		`{"id":"o1","dayKey":"241029","total":9000,"isStarted":false,"isCompleted":false}`,
		`{"id":"o2","dayKey":"241029","total":5000}`,
		`{"id":"o1","dayKey":"241029","total":1}`,
		`not json at all`,
	)
	second := writeGz(t, dir, "b.ndjson.gz",
		``,
		`{"id":"o3","createdAt":"2024-10-30T03:00:00Z","total":2000}`,
	)

	store := memstore.New()
	imp := newImporter(store, seoul(t), 100)
	stats, err := imp.importFiles(context.Background(), []string{first, second})
	require.NoError(t, err)

	assert.EqualValues(t, 3, stats.Written)
	assert.EqualValues(t, 1, stats.Duplicates)
	assert.EqualValues(t, 1, stats.Malformed)
	assert.Equal(t, []string{"241029", "241030"}, stats.sortedDays())

	docs, err := store.List(context.Background(), docstore.Orders("241029"))
	require.NoError(t, err)
	require.Len(t, docs, 2)

	// The first occurrence of a duplicated order wins.
	o1, err := store.Get(context.Background(), docstore.Orders("241029"), "o1")
	require.NoError(t, err)
	assert.EqualValues(t, 9000, o1.Fields["total"])

	total, err := imp.totalSales(context.Background(), "241029")
	require.NoError(t, err)
	assert.Equal(t, "14000", total.String())
}

func TestImportFiles_MissingFile(t *testing.T) {
	imp := newImporter(memstore.New(), time.UTC, 10)
	_, err := imp.importFiles(context.Background(), []string{filepath.Join(t.TempDir(), "missing.ndjson.gz")})
	require.Error(t, err)
}

func TestImportFiles_KeepsStoredOrders(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	c := docstore.Orders("241029")
	require.NoError(t, store.Set(ctx, c, "o1", docstore.Fields{
		"total":       int64(9000),
		"isStarted":   true,
		"isCompleted": true,
	}))

	path := writeGz(t, t.TempDir(), "again.ndjson.gz",
		`{"id":"o1","dayKey":"241029","total":9000,"isStarted":false,"isCompleted":false}`,
		`{"id":"o2","dayKey":"241029","total":"5000"}`,
	)
	imp := newImporter(store, seoul(t), 10)
	stats, err := imp.importFiles(ctx, []string{path})
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.Written)
	assert.EqualValues(t, 1, stats.Duplicates)

	o1, err := store.Get(ctx, c, "o1")
	require.NoError(t, err)
	assert.Equal(t, true, o1.Fields["isStarted"])
	assert.Equal(t, true, o1.Fields["isCompleted"])

	total, err := imp.totalSales(ctx, "241029")
	require.NoError(t, err)
	assert.Equal(t, "14000", total.String(), "numeric string totals count")
}

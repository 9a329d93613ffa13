package main

import (
	"bufio"
	"context"
	"os"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/kitchen-backoffice/internal/daykey"
	"github.com/xenking/kitchen-backoffice/internal/docstore"
	"github.com/xenking/kitchen-backoffice/internal/domain/order"
)

const (
	bloomFPR      = 0.001
	progressEvery = 10_000
	maxLineSize   = 1 << 20
)

// errMalformed marks export lines that cannot become an order document.
var errMalformed = errors.New("malformed order line")

// summer is implemented by stores that can total a field server-side.
type summer interface {
	SumField(ctx context.Context, c docstore.Collection, field string) (decimal.Decimal, error)
}

type importStats struct {
	Written    int64
	Duplicates int64
	Malformed  int64
	Days       map[string]struct{}
}

func (s importStats) sortedDays() []string {
	days := make([]string, 0, len(s.Days))
	for d := range s.Days {
		days = append(days, d)
	}
	slices.Sort(days)
	return days
}

// importer writes export lines to a store, skipping orders already
// stored. Writes are create-only, so a re-import never overwrites an order
// whose status changed since. The bloom filter is shared by all files: a
// possible duplicate within the run is confirmed with a Get instead of a
// write.
type importer struct {
	store docstore.Store
	loc   *time.Location

	mu     sync.Mutex
	filter *bloom.BloomFilter
	days   map[string]struct{}

	written    atomic.Int64
	duplicates atomic.Int64
	malformed  atomic.Int64
}

func newImporter(store docstore.Store, loc *time.Location, capacity uint) *importer {
	if capacity == 0 {
		capacity = 1
	}
	return &importer{
		store:  store,
		loc:    loc,
		filter: bloom.NewWithEstimates(capacity, bloomFPR),
		days:   make(map[string]struct{}),
	}
}

// importFiles streams every file concurrently, one goroutine per file.
func (imp *importer) importFiles(ctx context.Context, files []string) (importStats, error) {
	g, ctx := errgroup.WithContext(ctx)
	for _, f := range files {
		g.Go(func() error {
			return imp.importFile(ctx, f)
		})
	}
	if err := g.Wait(); err != nil {
		return importStats{}, err
	}

	imp.mu.Lock()
	defer imp.mu.Unlock()
	return importStats{
		Written:    imp.written.Load(),
		Duplicates: imp.duplicates.Load(),
		Malformed:  imp.malformed.Load(),
		Days:       imp.days,
	}, nil
}

func (imp *importer) importFile(ctx context.Context, path string) error {
	lg := zctx.From(ctx).With(zap.String("file", path))
	var lines uint64

	err := streamGzFile(ctx, path, func(line []byte) error {
		lines++
		if lines%progressEvery == 0 {
			lg.Info("Import progress", zap.Uint64("lines", lines))
		}
		err := imp.importLine(ctx, line)
		if errors.Is(err, errMalformed) {
			imp.malformed.Add(1)
			lg.Debug("Skipping line", zap.Uint64("line", lines), zap.Error(err))
			return nil
		}
		return err
	})
	if err != nil {
		return errors.Wrapf(err, "import %s", path)
	}
	lg.Info("File imported", zap.Uint64("lines", lines))
	return nil
}

func (imp *importer) importLine(ctx context.Context, line []byte) error {
	day, id, fields, err := parseLine(line, imp.loc)
	if err != nil {
		return err
	}
	c := docstore.Orders(day)
	key := string(c) + "/" + id

	imp.mu.Lock()
	maybeSeen := imp.filter.TestAndAddString(key)
	imp.days[day] = struct{}{}
	imp.mu.Unlock()

	if maybeSeen {
		_, err := imp.store.Get(ctx, c, id)
		switch {
		case err == nil:
			imp.duplicates.Add(1)
			return nil
		case !errors.Is(err, docstore.ErrNotFound):
			return errors.Wrapf(err, "check order %s", key)
		}
	}

	created, err := imp.store.Insert(ctx, c, id, fields)
	if err != nil {
		return errors.Wrapf(err, "write order %s", key)
	}
	if !created {
		imp.duplicates.Add(1)
		return nil
	}
	imp.written.Add(1)
	return nil
}

// parseLine decodes one export line. The order id comes from "id" and its
// day from "dayKey", or from "createdAt" in loc when the key is absent.
// Both are removed from the stored fields.
func parseLine(line []byte, loc *time.Location) (day, id string, fields docstore.Fields, err error) {
	fields, err = docstore.UnmarshalFields(line)
	if err != nil {
		return "", "", nil, errors.Wrap(errMalformed, err.Error())
	}

	id, _ = fields["id"].(string)
	if id == "" {
		return "", "", nil, errors.Wrap(errMalformed, "missing id")
	}
	delete(fields, "id")

	day, _ = fields["dayKey"].(string)
	delete(fields, "dayKey")
	if day == "" {
		raw, _ := fields["createdAt"].(string)
		created := order.ParseCreatedAt(raw)
		if created.IsZero() {
			return "", "", nil, errors.Wrapf(errMalformed, "order %s has no day", id)
		}
		day = daykey.From(created.In(loc))
	}
	if !daykey.Valid(day) {
		return "", "", nil, errors.Wrapf(errMalformed, "order %s day %q", id, day)
	}
	return day, id, fields, nil
}

// totalSales sums a day's order totals, in the database when the store
// supports it.
func (imp *importer) totalSales(ctx context.Context, day string) (decimal.Decimal, error) {
	if s, ok := imp.store.(summer); ok {
		return s.SumField(ctx, docstore.Orders(day), "total")
	}
	docs, err := imp.store.List(ctx, docstore.Orders(day))
	if err != nil {
		return decimal.Zero, err
	}
	return order.TotalSales(order.FromDocuments(docs)), nil
}

// streamGzFile opens a gzip-compressed file and calls fn for each non-empty
// line.
func streamGzFile(ctx context.Context, path string, fn func(line []byte) error) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if err := fn(line); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}
	return nil
}

// Command order-import loads gzip-compressed NDJSON order exports into the
// configured document store.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	_ "time/tzdata"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/kitchen-backoffice/internal/app"
)

func main() {
	var (
		dataDir  string
		pattern  string
		capacity uint
	)
	flag.StringVar(&dataDir, "data-dir", "data", "directory containing order exports")
	flag.StringVar(&pattern, "pattern", "*.ndjson.gz", "glob of export files inside data-dir")
	flag.UintVar(&capacity, "expected-orders", 1_000_000, "expected number of orders, sizes the duplicate filter")
	flag.Parse()

	lg, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = lg.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	ctx = zctx.Base(ctx, lg)

	if err := run(ctx, dataDir, pattern, capacity); err != nil {
		lg.Error("Order import failed", zap.Error(err))
		os.Exit(1)
	}
	lg.Info("Order import completed")
}

func run(ctx context.Context, dataDir, pattern string, capacity uint) error {
	cfg, err := app.LoadEnvConfig()
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	files, err := filepath.Glob(filepath.Join(dataDir, pattern))
	if err != nil {
		return errors.Wrap(err, "glob export files")
	}
	if len(files) == 0 {
		return errors.Errorf("no files match %s in %s", pattern, dataDir)
	}
	slices.Sort(files)

	backend, err := app.OpenStore(ctx, cfg.Store)
	if err != nil {
		return errors.Wrap(err, "open store")
	}
	defer backend.Close()

	imp := newImporter(backend.Store, loc, capacity)
	stats, err := imp.importFiles(ctx, files)
	if err != nil {
		return err
	}

	lg := zctx.From(ctx)
	lg.Info("Import summary",
		zap.Int("files", len(files)),
		zap.Int64("written", stats.Written),
		zap.Int64("duplicates", stats.Duplicates),
		zap.Int64("malformed", stats.Malformed),
		zap.Int("days", len(stats.Days)),
	)
	for _, day := range stats.sortedDays() {
		total, err := imp.totalSales(ctx, day)
		if err != nil {
			return errors.Wrapf(err, "total sales of %s", day)
		}
		lg.Info("Day imported", zap.String("day", day), zap.String("total_sales", total.String()))
	}
	return nil
}

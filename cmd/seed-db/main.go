// Command seed-db writes a day of sample orders and a few coupons to the
// configured document store.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"time"
	_ "time/tzdata"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/kitchen-backoffice/internal/app"
	"github.com/xenking/kitchen-backoffice/internal/daykey"
	"github.com/xenking/kitchen-backoffice/internal/docstore"
	"github.com/xenking/kitchen-backoffice/internal/domain/coupon"
	"github.com/xenking/kitchen-backoffice/internal/domain/order"
)

func main() {
	var day string
	flag.StringVar(&day, "day", "today", "day to seed: a day key (YYMMDD), an ISO date or today")
	flag.Parse()

	lg, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = lg.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	ctx = zctx.Base(ctx, lg)

	if err := run(ctx, day); err != nil {
		lg.Error("Seed failed", zap.Error(err))
		os.Exit(1)
	}
	lg.Info("Seed completed successfully")
}

func run(ctx context.Context, selector string) error {
	cfg, err := app.LoadEnvConfig()
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	day, err := daykey.Resolve(selector, time.Now(), loc)
	if err != nil {
		return err
	}
	start, err := daykey.Parse(day, loc)
	if err != nil {
		return err
	}

	backend, err := app.OpenStore(ctx, cfg.Store)
	if err != nil {
		return errors.Wrap(err, "open store")
	}
	defer backend.Close()

	if err := seedOrders(ctx, backend, day, start); err != nil {
		return errors.Wrap(err, "seed orders")
	}
	if err := seedCoupons(ctx, coupon.NewService(coupon.NewStoreRepository(backend)), day); err != nil {
		return errors.Wrap(err, "seed coupons")
	}
	return nil
}

func item(name string, qty, price int64, opts ...string) order.LineItem {
	return order.LineItem{MenuName: name, Quantity: order.Q(qty), Price: order.Amount(price), Options: opts}
}

// sampleOrders covers every state and a record without a total.
func sampleOrders(start time.Time) []order.Order {
	at := func(h, m int) time.Time { return start.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute) }
	return []order.Order{
		{
			ID: "seed-001", CreatedAt: at(9, 5), CustomerName: "김민수", CustomerID: "c-100",
			MenuList: []order.LineItem{item("아메리카노", 2, 4500, "ICE"), item("크루아상", 1, 3800)},
			Total:    order.Amount(12800),
		},
		{
			ID: "seed-002", CreatedAt: at(9, 40), CustomerName: "이서연", CustomerID: "c-101",
			IsStarted: true,
			MenuList:  []order.LineItem{item("카페라떼", 1, 5000, "HOT", "oat milk")},
			Total:     order.Amount(5000),
		},
		{
			ID: "seed-003", CreatedAt: at(10, 15), CustomerName: "박지훈", CustomerID: "c-102",
			IsStarted: true, IsCompleted: true,
			MenuList: []order.LineItem{item("아메리카노", 1, 4500), item("치즈케이크", 1, 6500)},
			Total:    order.Amount(11000),
		},
		{
			ID: "seed-004", CreatedAt: at(11, 0), CustomerName: "최유진",
			MenuList: []order.LineItem{item("바닐라라떼", 3, 5500)},
		},
	}
}

func seedOrders(ctx context.Context, store docstore.Store, day string, start time.Time) error {
	lg := zctx.From(ctx)
	for _, o := range sampleOrders(start) {
		if err := store.Set(ctx, docstore.Orders(day), o.ID, o.Fields()); err != nil {
			return errors.Wrapf(err, "write order %s", o.ID)
		}
		lg.Info("Seeded order", zap.String("day", day), zap.String("order", o.ID), zap.String("state", string(order.Classify(o))))
	}
	return nil
}

func seedCoupons(ctx context.Context, svc *coupon.Service, day string) error {
	lg := zctx.From(ctx)
	end := "991231"
	coupons := []coupon.Coupon{
		{
			Name:          "첫 주문 할인",
			Description:   "첫 주문 3,000원 할인",
			StartDate:     day,
			EndDate:       end,
			DiscountType:  coupon.DiscountWon,
			DiscountValue: decimal.NewFromInt(3000),
			MinOrderValue: decimal.NewFromInt(10000),
			IsActive:      true,
		},
		{
			Name:             "해피아워 10%",
			Description:      "오후 시간 10% 할인, 최대 5,000원",
			StartDate:        day,
			EndDate:          end,
			DiscountType:     coupon.DiscountPercent,
			DiscountValue:    decimal.NewFromInt(10),
			MaxDiscountValue: decimal.NewFromInt(5000),
			IsCombinable:     true,
			IsActive:         true,
		},
	}
	for _, c := range coupons {
		created, err := svc.Create(ctx, c)
		if err != nil {
			return errors.Wrapf(err, "create coupon %q", c.Name)
		}
		lg.Info("Seeded coupon", zap.String("coupon", created.ID), zap.String("name", created.Name))
	}
	return nil
}

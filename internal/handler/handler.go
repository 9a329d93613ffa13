// Package handler serves the back-office JSON API used by the UI shell.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/xenking/kitchen-backoffice/internal/daykey"
	"github.com/xenking/kitchen-backoffice/internal/domain/coupon"
	"github.com/xenking/kitchen-backoffice/internal/domain/order"
	"github.com/xenking/kitchen-backoffice/internal/session"
)

// OrderService is the order read and status path.
type OrderService interface {
	Fetch(ctx context.Context, dayKey string) ([]order.Order, error)
	Get(ctx context.Context, dayKey, orderID string) (order.Order, error)
	ChangeStatus(ctx context.Context, dayKey, orderID string, requested order.State) (order.Order, bool, error)
}

// CouponService manages coupons.
type CouponService interface {
	List(ctx context.Context) ([]coupon.Coupon, error)
	Get(ctx context.Context, id string) (coupon.Coupon, error)
	Create(ctx context.Context, c coupon.Coupon) (coupon.Coupon, error)
	Update(ctx context.Context, c coupon.Coupon) error
	Quote(ctx context.Context, id string, subtotal decimal.Decimal, day string) (coupon.Discount, error)
	Delete(ctx context.Context, id string) error
}

var (
	_ OrderService  = (*order.Service)(nil)
	_ CouponService = (*coupon.Service)(nil)
)

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// Location is the business time zone used to resolve "today" and ISO
	// dates into day keys. Defaults to UTC.
	Location *time.Location
}

// Handler serves the API routes.
type Handler struct {
	orders   OrderService
	coupons  CouponService
	sessions *session.Registry
	loc      *time.Location
	now      func() time.Time
}

// New creates a Handler.
func New(cfg Config, orders OrderService, coupons CouponService, sessions *session.Registry) *Handler {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{
		orders:   orders,
		coupons:  coupons,
		sessions: sessions,
		loc:      loc,
		now:      time.Now,
	}
}

// Register mounts the API routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Route("/orders/{day}", func(r chi.Router) {
			r.Get("/", h.ListOrders)
			r.Get("/{id}", h.GetOrder)
			r.Post("/{id}/status", h.ChangeOrderStatus)
		})
		r.Get("/stats/{day}", h.Stats)

		r.Route("/coupons", func(r chi.Router) {
			r.Get("/", h.ListCoupons)
			r.Post("/", h.CreateCoupon)
			r.Get("/{id}", h.GetCoupon)
			r.Put("/{id}", h.UpdateCoupon)
			r.Delete("/{id}", h.DeleteCoupon)
			r.Post("/{id}/quote", h.QuoteCoupon)
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", h.OpenSession)
			r.Get("/{id}", h.GetSession)
			r.Delete("/{id}", h.CloseSession)
			r.Put("/{id}/query", h.UpdateSessionQuery)
			r.Post("/{id}/status", h.ChangeSessionStatus)
		})
	})
}

// Router returns a chi router with the API routes and any extra handlers
// mounted at fixed paths.
func (h *Handler) Router(extra map[string]http.HandlerFunc) chi.Router {
	r := chi.NewRouter()
	for path, fn := range extra {
		r.Get(path, fn)
	}
	h.Register(r)
	return r
}

func (h *Handler) day(r *http.Request) (string, error) {
	return daykey.Resolve(chi.URLParam(r, "day"), h.now(), h.loc)
}

package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/xenking/kitchen-backoffice/internal/domain/coupon"
	"github.com/xenking/kitchen-backoffice/internal/domain/order"
	"github.com/xenking/kitchen-backoffice/internal/events"
	"github.com/xenking/kitchen-backoffice/internal/handler"
	"github.com/xenking/kitchen-backoffice/internal/session"
	"github.com/xenking/kitchen-backoffice/pkg/health"
	"github.com/xenking/kitchen-backoffice/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("store", cfg.Store.Driver),
		zap.String("time_zone", cfg.TimeZone),
	)
	ctx = zctx.Base(ctx, lg)

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	backend, err := OpenStore(ctx, cfg.Store)
	if err != nil {
		return errors.Wrap(err, "open store")
	}
	defer backend.Close()

	healthSvc := health.New()
	if backend.Pinger != nil {
		healthSvc.AddReadinessCheck("store", 5*time.Second, health.PingCheck(backend.Pinger))
	}
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.AddLivenessCheck("gc", time.Second, health.GCMaxPauseCheck(time.Second))

	// Status events are optional; without NATS only this instance's
	// sessions see its own changes.
	var (
		notifier order.Notifier = order.NopNotifier{}
		nc       *nats.Conn
	)
	if cfg.NATS.URL != "" {
		nc, err = events.Connect(ctx, cfg.NATS.URL, cfg.NATS.Name)
		if err != nil {
			return err
		}
		defer nc.Close()
		notifier = events.NewPublisher(nc)
		healthSvc.AddReadinessCheck("nats", time.Second, health.ConnectedCheck(nc.IsConnected))
	}

	// Domain services.
	orderService, err := order.NewService(backend, order.ServiceOptions{
		FetchTimeout:   cfg.FetchTimeout,
		Notifier:       notifier,
		MeterProvider:  m.MeterProvider(),
		TracerProvider: m.TracerProvider(),
	})
	if err != nil {
		return errors.Wrap(err, "create order service")
	}
	couponService := coupon.NewService(coupon.NewStoreRepository(backend))
	sessions, err := session.NewRegistry(orderService, m.MeterProvider())
	if err != nil {
		return errors.Wrap(err, "create session registry")
	}

	if nc != nil {
		if _, err := events.Subscribe(ctx, nc, func(ctx context.Context, e events.StatusChanged) error {
			n := sessions.Invalidate(ctx, e.DayKey)
			zctx.From(ctx).Debug("Status event",
				zap.String("day", e.DayKey),
				zap.String("order", e.OrderID),
				zap.Int("sessions", n),
			)
			return nil
		}); err != nil {
			return err
		}
	}

	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Router: health endpoints + API routes on one server.
	h := handler.New(handler.Config{Location: loc}, orderService, couponService, sessions)
	router := h.Router(map[string]http.HandlerFunc{
		"/livez":  healthSvc.LiveEndpoint,
		"/readyz": healthSvc.ReadyEndpoint,
	})

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      cfg.FetchTimeout + 5*time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler:           httpmiddleware.Wrap(router, middlewares(ctx, lg, m, cfg)...),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

// middlewares returns the server middleware chain, outermost first.
func middlewares(ctx context.Context, lg *zap.Logger, m httpmiddleware.Telemetry, cfg *Config) []httpmiddleware.Middleware {
	mws := []httpmiddleware.Middleware{
		httpmiddleware.Recovery(),
		httpmiddleware.CORS(httpmiddleware.CORSConfig{
			AllowOrigins:     cfg.CORS.Origins,
			AllowHeaders:     []string{"Content-Type", httpmiddleware.HeaderRequestID},
			ExposeHeaders:    []string{httpmiddleware.HeaderRequestID, "Location", "Retry-After"},
			AllowCredentials: cfg.CORS.AllowCredentials,
			MaxAge:           86400,
		}),
		httpmiddleware.InjectLogger(lg),
		httpmiddleware.RequestID(),
		httpmiddleware.Instrument("backoffice-api", m),
		httpmiddleware.Label(),
		httpmiddleware.LogRequests(),
	}
	if cfg.RateLimit.Enabled {
		mws = append(mws, httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
			Max:        cfg.RateLimit.Max,
			Window:     cfg.RateLimit.Window,
			WritesOnly: cfg.RateLimit.WritesOnly,
		}))
	}
	return mws
}

package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/xenking/kitchen-backoffice/internal/docstore"
)

// DefaultFetchTimeout bounds a day listing when no timeout is configured.
const DefaultFetchTimeout = 10 * time.Second

// ErrFetchTimeout is wrapped by FetchError when the listing did not finish
// in time.
var ErrFetchTimeout = errors.New("fetch timed out")

// FetchError indicates the day's orders could not be listed.
type FetchError struct {
	DayKey string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch orders of %s: %v", e.DayKey, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// MutationError indicates a status change could not be written.
type MutationError struct {
	OrderID string
	State   State
	Err     error
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("set order %s to %s: %v", e.OrderID, e.State, e.Err)
}

func (e *MutationError) Unwrap() error { return e.Err }

// ServiceOptions configures a Service. Zero values select defaults.
type ServiceOptions struct {
	FetchTimeout   time.Duration
	Notifier       Notifier
	MeterProvider  metric.MeterProvider
	TracerProvider trace.TracerProvider
}

func (o *ServiceOptions) setDefaults() {
	if o.FetchTimeout <= 0 {
		o.FetchTimeout = DefaultFetchTimeout
	}
	if o.Notifier == nil {
		o.Notifier = NopNotifier{}
	}
	if o.MeterProvider == nil {
		o.MeterProvider = noop.NewMeterProvider()
	}
	if o.TracerProvider == nil {
		o.TracerProvider = nooptrace.NewTracerProvider()
	}
}

// Service reads day partitions and changes order status.
type Service struct {
	store    docstore.Store
	notifier Notifier
	timeout  time.Duration
	tracer   trace.Tracer

	fetches   metric.Int64Counter
	mutations metric.Int64Counter
}

// NewService creates a Service over the document store.
func NewService(store docstore.Store, opts ServiceOptions) (*Service, error) {
	opts.setDefaults()
	meter := opts.MeterProvider.Meter("backoffice/order")

	fetches, err := meter.Int64Counter("backoffice.order.fetches",
		metric.WithDescription("Day listings by outcome"))
	if err != nil {
		return nil, errors.Wrap(err, "fetch counter")
	}
	mutations, err := meter.Int64Counter("backoffice.order.mutations",
		metric.WithDescription("Status changes by target state and outcome"))
	if err != nil {
		return nil, errors.Wrap(err, "mutation counter")
	}

	return &Service{
		store:     store,
		notifier:  opts.Notifier,
		timeout:   opts.FetchTimeout,
		tracer:    opts.TracerProvider.Tracer("backoffice/order"),
		fetches:   fetches,
		mutations: mutations,
	}, nil
}

// Fetch lists and decodes every order of a day partition. Failures,
// including the timeout, are returned as *FetchError.
func (s *Service) Fetch(ctx context.Context, dayKey string) (_ []Order, rerr error) {
	ctx, span := s.tracer.Start(ctx, "order.Fetch", trace.WithAttributes(attribute.String("day", dayKey)))
	defer func() {
		outcome := "ok"
		if rerr != nil {
			outcome = "error"
			span.RecordError(rerr)
			span.SetStatus(codes.Error, rerr.Error())
		}
		s.fetches.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
		span.End()
	}()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	docs, err := s.store.List(ctx, docstore.Orders(dayKey))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = errors.Wrap(ErrFetchTimeout, err.Error())
		}
		return nil, &FetchError{DayKey: dayKey, Err: err}
	}
	return FromDocuments(docs), nil
}

// Get reads a single order.
func (s *Service) Get(ctx context.Context, dayKey, orderID string) (Order, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	doc, err := s.store.Get(ctx, docstore.Orders(dayKey), orderID)
	if err != nil {
		return Order{}, errors.Wrapf(err, "get order %s", orderID)
	}
	return FromDocument(doc), nil
}

// ChangeStatus moves an order forward to the requested state with a single
// update. It reports whether anything was written; an order already in the
// requested state is left alone. Store failures are returned as
// *MutationError and leave the order as it was.
func (s *Service) ChangeStatus(ctx context.Context, dayKey, orderID string, requested State) (_ Order, written bool, rerr error) {
	ctx, span := s.tracer.Start(ctx, "order.ChangeStatus", trace.WithAttributes(
		attribute.String("day", dayKey),
		attribute.String("order", orderID),
		attribute.String("state", string(requested)),
	))
	defer func() {
		outcome := "ok"
		if rerr != nil {
			outcome = "error"
			span.RecordError(rerr)
			span.SetStatus(codes.Error, rerr.Error())
		}
		s.mutations.Add(ctx, 1, metric.WithAttributes(
			attribute.String("state", string(requested)),
			attribute.String("outcome", outcome),
		))
		span.End()
	}()

	if requested == StateViewDetail {
		return Order{}, false, ErrNotMutation
	}

	c := docstore.Orders(dayKey)
	doc, err := s.store.Get(ctx, c, orderID)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return Order{}, false, errors.Wrapf(err, "order %s", orderID)
		}
		return Order{}, false, &MutationError{OrderID: orderID, State: requested, Err: err}
	}
	o := FromDocument(doc)

	fields, err := Transition(Classify(o), requested)
	if err != nil {
		return o, false, err
	}
	if len(fields) == 0 {
		return o, false, nil
	}

	if err := s.store.Update(ctx, c, orderID, fields); err != nil {
		return o, false, &MutationError{OrderID: orderID, State: requested, Err: err}
	}
	if v, ok := fields[fieldIsStarted]; ok {
		o.IsStarted = v.(bool)
	}
	if v, ok := fields[fieldIsCompleted]; ok {
		o.IsCompleted = v.(bool)
	}

	if err := s.notifier.OrderStatusChanged(ctx, dayKey, orderID, requested); err != nil {
		zctx.From(ctx).Warn("Status change notification failed",
			zap.String("day", dayKey),
			zap.String("order", orderID),
			zap.Error(err),
		)
	}
	return o, true, nil
}

package session

import (
	"context"
	"sync"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
)

// ErrNotFound is returned for an unknown session id.
var ErrNotFound = errors.New("session not found")

// Registry keeps the open sessions.
type Registry struct {
	orders    OrderService
	discarded metric.Int64Counter

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry creates an empty Registry. A nil meter provider disables
// metrics.
func NewRegistry(orders OrderService, mp metric.MeterProvider) (*Registry, error) {
	if mp == nil {
		mp = noop.NewMeterProvider()
	}
	meter := mp.Meter("backoffice/session")
	discarded, err := meter.Int64Counter("backoffice.session.stale_fetches",
		metric.WithDescription("Fetch results discarded because a newer query was issued"))
	if err != nil {
		return nil, errors.Wrap(err, "stale fetch counter")
	}
	r := &Registry{
		orders:    orders,
		discarded: discarded,
		sessions:  make(map[string]*Session),
	}
	if _, err := meter.Int64ObservableGauge("backoffice.session.open",
		metric.WithDescription("Open view sessions"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(int64(r.Len()))
			return nil
		}),
	); err != nil {
		return nil, errors.Wrap(err, "open sessions gauge")
	}
	return r, nil
}

// Open creates a session for q and performs its first fetch. The session
// is registered even when that fetch fails so it can be retried.
func (r *Registry) Open(ctx context.Context, q Query) (*Session, *View, error) {
	if err := q.Validate(); err != nil {
		return nil, nil, err
	}
	s := newSession(uuid.NewString(), q, r.orders, r.discarded)

	r.mu.Lock()
	r.sessions[s.id] = s
	r.mu.Unlock()

	v, err := s.Refresh(ctx, q)
	return s, v, err
}

// Get returns a session by id.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Close removes a session.
func (r *Registry) Close(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(r.sessions, id)
	return nil
}

// Len returns the number of open sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Invalidate reloads every session showing the given day. It returns the
// number of sessions reloaded; individual failures are logged.
func (r *Registry) Invalidate(ctx context.Context, dayKey string) int {
	r.mu.RLock()
	var affected []*Session
	for _, s := range r.sessions {
		if s.Query().DayKey == dayKey {
			affected = append(affected, s)
		}
	}
	r.mu.RUnlock()

	lg := zctx.From(ctx)
	for _, s := range affected {
		if _, err := s.Reload(ctx); err != nil && !errors.Is(err, ErrSuperseded) {
			lg.Warn("Session reload failed",
				zap.String("session", s.id),
				zap.String("day", dayKey),
				zap.Error(err),
			)
		}
	}
	return len(affected)
}

// Package session holds view sessions: one selected day with its filter and
// sort options, and the last snapshot fetched for it.
//
// Fetches may overlap. Each Refresh takes the next generation number and
// its result is installed only if no later Refresh was issued in the
// meantime, so a slow fetch can never overwrite a newer view.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/metric"

	"github.com/xenking/kitchen-backoffice/internal/daykey"
	"github.com/xenking/kitchen-backoffice/internal/domain/order"
)

var (
	// ErrSuperseded is returned by a Refresh whose result was discarded
	// because a later Refresh was issued.
	ErrSuperseded = errors.New("superseded by a newer query")
	// ErrNoView is returned when a session has not fetched anything yet.
	ErrNoView = errors.New("session has no view")
	// ErrNotInView is returned for a detail request of an order the current
	// view does not contain.
	ErrNotInView = errors.New("order not in current view")
	// ErrInvalidQuery wraps query validation failures.
	ErrInvalidQuery = errors.New("invalid query")
)

// Query is the immutable configuration of a view.
type Query struct {
	DayKey    string
	State     order.State
	Direction order.Direction
	Metric    order.Metric
	Limit     int
}

// NewQuery returns the default query for a day: pending orders, newest
// first, menus ranked by count.
func NewQuery(dayKey string) Query {
	return Query{
		DayKey:    dayKey,
		State:     order.StatePending,
		Direction: order.Descending,
		Metric:    order.SalesCount,
		Limit:     order.DefaultRankLimit,
	}
}

// Validate checks that every field of the query is usable.
func (q Query) Validate() error {
	if !daykey.Valid(q.DayKey) {
		return errors.Wrapf(ErrInvalidQuery, "day key %q", q.DayKey)
	}
	switch q.State {
	case order.StatePending, order.StateInProgress, order.StateDone:
	default:
		return errors.Wrapf(ErrInvalidQuery, "state %q", q.State)
	}
	if q.Direction != order.Ascending && q.Direction != order.Descending {
		return errors.Wrapf(ErrInvalidQuery, "direction %q", q.Direction)
	}
	if q.Metric != order.SalesCount && q.Metric != order.SalesValue {
		return errors.Wrapf(ErrInvalidQuery, "metric %q", q.Metric)
	}
	if q.Limit < 0 {
		return errors.Wrapf(ErrInvalidQuery, "limit %d", q.Limit)
	}
	return nil
}

// View is the derived state of one successful fetch.
type View struct {
	Query      Query
	Generation uint64
	FetchedAt  time.Time
	// Orders is the whole day snapshot as listed.
	Orders []order.Order
	Queue  []order.Order
	Stats  order.Stats
}

// BuildView derives the queue and statistics of a snapshot.
func BuildView(q Query, orders []order.Order) *View {
	return &View{
		Query:  q,
		Orders: orders,
		Queue:  order.BuildQueue(orders, q.State, q.Direction),
		Stats:  order.BuildStats(orders, q.Metric, q.Limit),
	}
}

// Find returns an order of the snapshot by id.
func (v *View) Find(id string) (order.Order, bool) {
	for _, o := range v.Orders {
		if o.ID == id {
			return o, true
		}
	}
	return order.Order{}, false
}

// OrderService is the part of order.Service a session uses.
type OrderService interface {
	Fetch(ctx context.Context, dayKey string) ([]order.Order, error)
	ChangeStatus(ctx context.Context, dayKey, orderID string, requested order.State) (order.Order, bool, error)
}

// Session is one view session.
type Session struct {
	id        string
	orders    OrderService
	now       func() time.Time
	discarded metric.Int64Counter

	mu     sync.Mutex
	issued uint64
	query  Query
	view   *View
}

func newSession(id string, q Query, orders OrderService, discarded metric.Int64Counter) *Session {
	return &Session{
		id:        id,
		orders:    orders,
		now:       time.Now,
		discarded: discarded,
		query:     q,
	}
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Query returns the most recently requested query.
func (s *Session) Query() Query {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// View returns the last installed view, or ErrNoView.
func (s *Session) View() (*View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.view == nil {
		return nil, ErrNoView
	}
	return s.view, nil
}

// Refresh fetches the day of q and installs the derived view. It returns
// ErrSuperseded when another Refresh was issued while this one was in
// flight. A failed fetch keeps the previous view.
func (s *Session) Refresh(ctx context.Context, q Query) (*View, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return s.fetch(ctx, &q)
}

// Reload refreshes with the query that is current when the fetch is
// issued. A query installed by a concurrent Refresh is never replaced.
func (s *Session) Reload(ctx context.Context) (*View, error) {
	return s.fetch(ctx, nil)
}

// fetch issues the next generation for next, or for the current query when
// next is nil, and installs the result if that generation is still the
// latest.
func (s *Session) fetch(ctx context.Context, next *Query) (*View, error) {
	s.mu.Lock()
	s.issued++
	gen := s.issued
	if next != nil {
		s.query = *next
	}
	q := s.query
	s.mu.Unlock()

	orders, err := s.orders.Fetch(ctx, q.DayKey)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.issued {
		s.discarded.Add(ctx, 1)
		return nil, ErrSuperseded
	}
	if err != nil {
		return nil, err
	}

	v := BuildView(q, orders)
	v.Generation = gen
	v.FetchedAt = s.now()
	s.view = v
	return v, nil
}

// ChangeStatus applies a status request to an order of the current day.
// VIEW_DETAIL is answered from the current snapshot without touching the
// store. Other states are written and the view is reloaded with whatever
// query is current by then; a failed write leaves the view as it was.
func (s *Session) ChangeStatus(ctx context.Context, orderID string, requested order.State) (order.Order, error) {
	if requested == order.StateViewDetail {
		v, err := s.View()
		if err != nil {
			return order.Order{}, err
		}
		o, ok := v.Find(orderID)
		if !ok {
			return order.Order{}, errors.Wrapf(ErrNotInView, "order %s", orderID)
		}
		return o, nil
	}

	day := s.Query().DayKey
	o, written, err := s.orders.ChangeStatus(ctx, day, orderID, requested)
	if err != nil {
		return order.Order{}, err
	}
	if !written {
		return o, nil
	}
	if _, err := s.Reload(ctx); err != nil && !errors.Is(err, ErrSuperseded) {
		return o, errors.Wrap(err, "refresh after status change")
	}
	return o, nil
}

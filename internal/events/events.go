// Package events carries order status changes between back-office
// instances over NATS, so every open session showing a day reloads when
// any instance changes one of its orders.
package events

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/xenking/kitchen-backoffice/internal/domain/order"
)

const subjectPrefix = "backoffice.orders."

// AllStatusChanges matches the status subjects of every day.
const AllStatusChanges = subjectPrefix + "*.status"

// Subject returns the status change subject of a day partition.
func Subject(dayKey string) string {
	return subjectPrefix + dayKey + ".status"
}

// StatusChanged is published after an order's status was written.
type StatusChanged struct {
	DayKey  string
	OrderID string
	State   order.State
	At      time.Time
}

// Encode writes the event as a JSON object.
func (e StatusChanged) Encode(enc *jx.Encoder) {
	enc.ObjStart()
	enc.FieldStart("dayKey")
	enc.Str(e.DayKey)
	enc.FieldStart("orderId")
	enc.Str(e.OrderID)
	enc.FieldStart("state")
	enc.Str(string(e.State))
	enc.FieldStart("at")
	enc.Str(e.At.UTC().Format(time.RFC3339Nano))
	enc.ObjEnd()
}

// Decode reads the event from a JSON object. Unknown fields are skipped.
func (e *StatusChanged) Decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "dayKey":
			v, err := d.Str()
			e.DayKey = v
			return err
		case "orderId":
			v, err := d.Str()
			e.OrderID = v
			return err
		case "state":
			v, err := d.Str()
			e.State = order.State(v)
			return err
		case "at":
			v, err := d.Str()
			if err != nil {
				return err
			}
			at, err := time.Parse(time.RFC3339Nano, v)
			if err != nil {
				return errors.Wrap(err, "at")
			}
			e.At = at
			return nil
		default:
			return d.Skip()
		}
	})
}

// Conn is the NATS publishing surface, satisfied by *nats.Conn.
type Conn interface {
	Publish(subj string, data []byte) error
}

// Publisher publishes status changes. It implements order.Notifier.
type Publisher struct {
	conn Conn
	now  func() time.Time
}

var _ order.Notifier = (*Publisher)(nil)

// NewPublisher returns a Publisher over the connection.
func NewPublisher(conn Conn) *Publisher {
	return &Publisher{conn: conn, now: time.Now}
}

// OrderStatusChanged implements order.Notifier.
func (p *Publisher) OrderStatusChanged(_ context.Context, dayKey, orderID string, state order.State) error {
	e := StatusChanged{DayKey: dayKey, OrderID: orderID, State: state, At: p.now()}
	var enc jx.Encoder
	e.Encode(&enc)
	if err := p.conn.Publish(Subject(dayKey), enc.Bytes()); err != nil {
		return errors.Wrap(err, "publish status change")
	}
	return nil
}

// Handler reacts to a status change.
type Handler func(ctx context.Context, e StatusChanged) error

// Subscribe delivers status changes of every day to h until the returned
// subscription is drained or ctx is done.
func Subscribe(ctx context.Context, conn *nats.Conn, h Handler) (*nats.Subscription, error) {
	sub, err := conn.Subscribe(AllStatusChanges, func(msg *nats.Msg) {
		Dispatch(ctx, msg.Subject, msg.Data, h)
	})
	if err != nil {
		return nil, errors.Wrap(err, "subscribe")
	}
	go func() {
		<-ctx.Done()
		_ = sub.Unsubscribe()
	}()
	return sub, nil
}

// Dispatch decodes one message and passes it to h. Bad messages and handler
// errors are logged and dropped.
func Dispatch(ctx context.Context, subject string, data []byte, h Handler) {
	lg := zctx.From(ctx).With(zap.String("subject", subject))

	var e StatusChanged
	if err := e.Decode(jx.DecodeBytes(data)); err != nil {
		lg.Warn("Malformed status event", zap.Error(err))
		return
	}
	if e.DayKey == "" {
		e.DayKey = dayFromSubject(subject)
	}
	if err := h(ctx, e); err != nil {
		lg.Warn("Status event handler failed", zap.String("order", e.OrderID), zap.Error(err))
	}
}

func dayFromSubject(subject string) string {
	rest, ok := strings.CutPrefix(subject, subjectPrefix)
	if !ok {
		return ""
	}
	day, _, _ := strings.Cut(rest, ".")
	return day
}

// Connect dials NATS with reconnects enabled for a long-running process.
func Connect(ctx context.Context, url, name string) (*nats.Conn, error) {
	lg := zctx.From(ctx)
	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				lg.Warn("NATS disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			lg.Info("NATS reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, errors.Wrap(err, "connect to NATS")
	}
	return conn, nil
}

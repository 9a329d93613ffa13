package events

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/kitchen-backoffice/internal/domain/order"
)

type fakeConn struct {
	subject string
	data    []byte
	err     error
}

func (c *fakeConn) Publish(subj string, data []byte) error {
	c.subject = subj
	c.data = data
	return c.err
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "backoffice.orders.241029.status", Subject("241029"))
	assert.Equal(t, "241029", dayFromSubject(Subject("241029")))
	assert.Empty(t, dayFromSubject("other.subject"))
}

func TestPublisher(t *testing.T) {
	conn := &fakeConn{}
	p := NewPublisher(conn)
	at := time.Date(2024, 10, 29, 9, 30, 0, 0, time.UTC)
	p.now = func() time.Time { return at }

	require.NoError(t, p.OrderStatusChanged(context.Background(), "241029", "o-1", order.StateDone))
	assert.Equal(t, "backoffice.orders.241029.status", conn.subject)
	assert.JSONEq(t, `{"dayKey":"241029","orderId":"o-1","state":"DONE","at":"2024-10-29T09:30:00Z"}`, string(conn.data))

	var got StatusChanged
	require.NoError(t, got.Decode(jx.DecodeBytes(conn.data)))
	assert.Equal(t, StatusChanged{DayKey: "241029", OrderID: "o-1", State: order.StateDone, At: at}, got)
}

func TestPublisher_Error(t *testing.T) {
	p := NewPublisher(&fakeConn{err: errors.New("connection closed")})
	err := p.OrderStatusChanged(context.Background(), "241029", "o-1", order.StateDone)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish status change")
}

func TestDispatch(t *testing.T) {
	var got []StatusChanged
	h := func(_ context.Context, e StatusChanged) error {
		got = append(got, e)
		return nil
	}

	Dispatch(context.Background(), Subject("241029"), []byte(`{"orderId":"o-2","state":"IN_PROGRESS","extra":[1,2]}`), h)
	Dispatch(context.Background(), Subject("241029"), []byte(`not json`), h)
	Dispatch(context.Background(), Subject("241029"), []byte(`{"at":"yesterday"}`), h)

	require.Len(t, got, 1)
	assert.Equal(t, "241029", got[0].DayKey, "day falls back to the subject")
	assert.Equal(t, "o-2", got[0].OrderID)
	assert.Equal(t, order.StateInProgress, got[0].State)
}

package notify

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		payload Payload
		want    EventName
		wantOK  bool
	}{
		{
			name:    "chat type with order id is a chat event",
			payload: Payload{Data: map[string]string{"type": "new_message", "order_id": "17"}},
			want:    EventChat,
			wantOK:  true,
		},
		{
			name:    "chat event field",
			payload: Payload{Data: map[string]string{"event": "order_chat"}},
			want:    EventChat,
			wantOK:  true,
		},
		{
			name:    "order type",
			payload: Payload{Data: map[string]string{"type": "order_status_update"}},
			want:    EventOrder,
			wantOK:  true,
		},
		{
			name:    "bare order id",
			payload: Payload{Data: map[string]string{"order_id": "9"}},
			want:    EventOrder,
			wantOK:  true,
		},
		{
			name:    "unknown type",
			payload: Payload{Data: map[string]string{"type": "promo"}},
			want:    EventMessage,
			wantOK:  true,
		},
		{
			name:    "silent without type",
			payload: Payload{Data: map[string]string{"is_silent": "true"}},
			want:    EventMessage,
			wantOK:  true,
		},
		{
			name:    "plain notification",
			payload: Payload{Notification: &Notification{Title: "Hi"}},
			wantOK:  false,
		},
		{
			name:    "empty payload",
			payload: Payload{},
			wantOK:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Classify(tt.payload)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewEvent_Alert(t *testing.T) {
	ev, ok := NewEvent(Payload{
		Notification: &Notification{Body: "Your order is on the way"},
		Data:         map[string]string{"order_id": "12"},
	})
	require.True(t, ok)
	assert.Equal(t, EventOrder, ev.Name)
	require.NotNil(t, ev.Alert)
	assert.Equal(t, "Order Update", ev.Alert.Title)
	assert.Equal(t, "/orders/detail?id=12", ev.Alert.Target)

	ev, ok = NewEvent(Payload{Notification: &Notification{Title: "Sale"}})
	require.True(t, ok)
	assert.Equal(t, EventAlert, ev.Name)
	assert.Equal(t, "Sale", ev.Alert.Title)
	assert.Empty(t, ev.Alert.Target)

	_, ok = NewEvent(Payload{})
	assert.False(t, ok)
}

func TestRoute(t *testing.T) {
	tests := []struct {
		name   string
		data   map[string]string
		want   string
		wantOK bool
	}{
		{"chat", map[string]string{"type": "chat", "order_id": "5"}, "/orders/chat?id=5", true},
		{"order", map[string]string{"type": "order_update", "order_id": "5"}, "/orders/detail?id=5", true},
		{"id fallback", map[string]string{"id": "8"}, "/orders/detail?id=8", true},
		{"escaped", map[string]string{"order_id": "a b"}, "/orders/detail?id=a+b", true},
		{"nothing", map[string]string{"type": "promo"}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Route(Payload{Data: tt.data})
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBus(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	a, unsubA := bus.Subscribe(1)
	b, unsubB := bus.Subscribe(1)
	assert.Equal(t, 2, bus.Subscribers())

	assert.Equal(t, 2, bus.Publish(Event{Name: EventOrder}))
	assert.Equal(t, EventOrder, (<-a).Name)
	assert.Equal(t, EventOrder, (<-b).Name)

	// Full subscribers drop instead of blocking.
	assert.Equal(t, 2, bus.Publish(Event{Name: EventChat}))
	assert.Equal(t, 0, bus.Publish(Event{Name: EventMessage}))

	unsubA()
	unsubA()
	_, open := <-a
	assert.True(t, open, "buffered event is still readable")
	_, open = <-a
	assert.False(t, open)
	assert.Equal(t, 1, bus.Subscribers())

	bus.Close()
	<-b
	_, open = <-b
	assert.False(t, open)
	unsubB()

	c, _ := bus.Subscribe(1)
	_, open = <-c
	assert.False(t, open)
}

func TestSeenSet(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	seen := NewSeenSet(time.Minute, func() time.Time { return now })

	assert.True(t, seen.Add("a"))
	assert.False(t, seen.Add("a"))
	assert.True(t, seen.Add("b"))

	now = now.Add(time.Minute)
	assert.True(t, seen.Add("a"), "expired ids are forgotten")
	assert.Equal(t, 1, seen.Len())
}

func TestSeenSet_DefaultTTL(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	seen := NewSeenSet(0, func() time.Time { return now })
	require.True(t, seen.Add("a"))

	now = now.Add(4 * time.Minute)
	assert.False(t, seen.Add("a"))

	now = now.Add(time.Minute)
	assert.True(t, seen.Add("a"))
}

func TestPayloadID(t *testing.T) {
	assert.Equal(t, "m-1", PayloadID(Payload{MessageID: "m-1"}))

	p1 := Payload{Data: map[string]string{"type": "chat", "order_id": "4"}}
	p2 := Payload{Data: map[string]string{"order_id": "4", "type": "chat"}}
	p3 := Payload{Data: map[string]string{"order_id": "5", "type": "chat"}}
	assert.Equal(t, PayloadID(p1), PayloadID(p2))
	assert.NotEqual(t, PayloadID(p1), PayloadID(p3))
}

func drain(ch <-chan Event) []Event {
	var out []Event
	for {
		select {
		case ev := <-ch:
			out = append(out, ev)
		default:
			return out
		}
	}
}

func TestBridge_DeliverDispatchesOnce(t *testing.T) {
	ctx := context.Background()
	broadcaster := NewMemoryBroadcaster()
	defer broadcaster.Close()

	here, err := NewBridge("s1", broadcaster, nil, zerolog.Nop())
	require.NoError(t, err)
	defer here.Close()
	there, err := NewBridge("s1", broadcaster, nil, zerolog.Nop())
	require.NoError(t, err)
	defer there.Close()
	other, err := NewBridge("s2", broadcaster, nil, zerolog.Nop())
	require.NoError(t, err)
	defer other.Close()

	hereEvents, _ := here.Bus().Subscribe(8)
	thereEvents, _ := there.Bus().Subscribe(8)
	otherEvents, _ := other.Bus().Subscribe(8)

	p := Payload{Data: map[string]string{"type": "new_message", "order_id": "17"}}

	fresh, err := here.Deliver(ctx, p)
	require.NoError(t, err)
	assert.True(t, fresh)

	// The same push reaching the other instance directly is a duplicate there.
	fresh, err = there.Deliver(ctx, p)
	require.NoError(t, err)
	assert.False(t, fresh)

	fresh, err = here.Deliver(ctx, p)
	require.NoError(t, err)
	assert.False(t, fresh)

	got := drain(hereEvents)
	require.Len(t, got, 1)
	assert.Equal(t, EventChat, got[0].Name)

	got = drain(thereEvents)
	require.Len(t, got, 1)
	assert.Equal(t, EventChat, got[0].Name)

	assert.Empty(t, drain(otherEvents))
}

func TestBridge_LocalOnly(t *testing.T) {
	bridge, err := NewBridge("s1", nil, nil, zerolog.Nop())
	require.NoError(t, err)

	events, _ := bridge.Bus().Subscribe(4)
	fresh, err := bridge.Deliver(context.Background(), Payload{MessageID: "x", Data: map[string]string{"order_id": "3"}})
	require.NoError(t, err)
	assert.True(t, fresh)

	// Payloads without meaning are remembered but not dispatched.
	fresh, err = bridge.Deliver(context.Background(), Payload{MessageID: "y"})
	require.NoError(t, err)
	assert.True(t, fresh)

	got := drain(events)
	require.Len(t, got, 1)
	assert.Equal(t, EventOrder, got[0].Name)

	require.NoError(t, bridge.Close())
	_, open := <-events
	assert.False(t, open)
}

func TestBridge_ClosedBridgeStopsReceiving(t *testing.T) {
	broadcaster := NewMemoryBroadcaster()
	defer broadcaster.Close()

	closed, err := NewBridge("s1", broadcaster, nil, zerolog.Nop())
	require.NoError(t, err)
	live, err := NewBridge("s1", broadcaster, nil, zerolog.Nop())
	require.NoError(t, err)
	defer live.Close()

	require.NoError(t, closed.Close())

	fresh, err := live.Deliver(context.Background(), Payload{MessageID: "z", Data: map[string]string{"order_id": "1"}})
	require.NoError(t, err)
	assert.True(t, fresh)
}

func TestMemoryBroadcaster_RejectsBadSession(t *testing.T) {
	broadcaster := NewMemoryBroadcaster()

	_, err := broadcaster.Subscribe("a.b", func(Payload) {})
	assert.Error(t, err)
	assert.Error(t, broadcaster.Publish(context.Background(), "", Payload{}))

	require.NoError(t, broadcaster.Close())
	assert.ErrorIs(t, broadcaster.Publish(context.Background(), "s1", Payload{}), ErrBroadcasterClosed)
}

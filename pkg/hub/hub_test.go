package hub

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient registers a subscriber without a live websocket; the
// hub's loop never touches the connection, only the send channel.
func newTestClient(h *Hub, buf int) *Client {
	c := &Client{hub: h, send: make(chan Message, buf)}
	h.register <- c
	return c
}

func TestHub_BroadcastFanout(t *testing.T) {
	h := New("test")
	go h.Run()

	a := newTestClient(h, 4)
	b := newTestClient(h, 4)
	require.Eventually(t, func() bool {
		return h.ClientCount() == 2
	}, time.Second, time.Millisecond)

	require.NoError(t, h.BroadcastJSON(map[string]int{"n": 1}))

	for _, c := range []*Client{a, b} {
		select {
		case msg := <-c.send:
			assert.JSONEq(t, `{"n":1}`, string(msg.Data))
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive the broadcast")
		}
	}
}

func TestHub_SlowClientIsDropped(t *testing.T) {
	h := New("test")
	go h.Run()

	slow := newTestClient(h, 1)
	require.Eventually(t, func() bool {
		return h.ClientCount() == 1
	}, time.Second, time.Millisecond)

	// Fill the subscriber's buffer so the next broadcast cannot queue.
	slow.send <- Message{Data: []byte("stale")}

	require.NoError(t, h.BroadcastJSON(map[string]string{"k": "v"}))
	require.Eventually(t, func() bool {
		return h.ClientCount() == 0
	}, time.Second, time.Millisecond)

	<-slow.send
	_, open := <-slow.send
	assert.False(t, open, "dropped client's send channel should be closed")
}

func TestHub_UnregisterClosesSend(t *testing.T) {
	h := New("test")
	go h.Run()

	c := newTestClient(h, 1)
	require.Eventually(t, func() bool {
		return h.ClientCount() == 1
	}, time.Second, time.Millisecond)

	h.unregister <- c
	require.Eventually(t, func() bool {
		return h.ClientCount() == 0
	}, time.Second, time.Millisecond)

	_, open := <-c.send
	assert.False(t, open)
}

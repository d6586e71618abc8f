package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/isdelr/user-manager/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan []byte) ([]byte, bool) {
	t.Helper()
	select {
	case msg, ok := <-ch:
		return msg, ok
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return nil, false
	}
}

func TestHub_PublishReachesClients(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	a := NewClient(hub, nil, 1)
	b := NewClient(hub, nil, 2)
	require.True(t, hub.Join(a))
	require.True(t, hub.Join(b))

	hub.Publish(models.Event{ID: "e1", Type: "user.create", Level: "info", Message: "User 1 created."})

	for _, c := range []*Client{a, b} {
		raw, ok := receive(t, c.Send)
		require.True(t, ok)

		var msg struct {
			Action  string       `json:"action"`
			Payload models.Event `json:"payload"`
		}
		require.NoError(t, json.Unmarshal(raw, &msg))
		assert.Equal(t, "event", msg.Action)
		assert.Equal(t, "e1", msg.Payload.ID)
		assert.Equal(t, "user.create", msg.Payload.Type)
	}
}

func TestHub_LeaveClosesSend(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	c := NewClient(hub, nil, 1)
	require.True(t, hub.Join(c))
	hub.Leave(c)

	_, ok := receive(t, c.Send)
	assert.False(t, ok)
}

func TestHub_StopClosesClients(t *testing.T) {
	hub := NewHub()
	stopped := make(chan struct{})
	go func() {
		hub.Run()
		close(stopped)
	}()

	c := NewClient(hub, nil, 1)
	require.True(t, hub.Join(c))
	hub.Stop()

	_, ok := receive(t, c.Send)
	assert.False(t, ok)
	<-stopped

	assert.False(t, hub.Join(NewClient(hub, nil, 2)))
	hub.Leave(c) // must not block
}

func TestHub_PublishNeverBlocks(t *testing.T) {
	hub := NewHub() // not running
	for i := 0; i < cap(hub.Broadcast)+10; i++ {
		hub.Publish(models.Event{ID: "e"})
	}
	assert.Len(t, hub.Broadcast, cap(hub.Broadcast))
}

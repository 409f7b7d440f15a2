package websocket

import (
	"strings"
	"testing"
	"time"

	"treasury/internal/service"
)

func newTestClient(hub *Hub) *Client {
	return &Client{
		hub:  hub,
		send: make(chan []byte, clientSendBufferSize),
	}
}

func TestHub(t *testing.T) {
	t.Run("registers and unregisters clients", func(t *testing.T) {
		hub := NewHub(nil)
		go hub.Run()

		client := newTestClient(hub)
		hub.register <- client

		waitFor(t, func() bool { return hub.ClientCount() == 1 })

		hub.unregister <- client
		waitFor(t, func() bool { return hub.ClientCount() == 0 })

		// Канал закрывается при отмене регистрации
		select {
		case _, ok := <-client.send:
			if ok {
				t.Error("expected closed send channel")
			}
		case <-time.After(time.Second):
			t.Error("send channel was not closed")
		}
	})

	t.Run("delivers activity entries to all clients", func(t *testing.T) {
		hub := NewHub(nil)
		go hub.Run()

		first := newTestClient(hub)
		second := newTestClient(hub)
		hub.register <- first
		hub.register <- second
		waitFor(t, func() bool { return hub.ClientCount() == 2 })

		hub.BroadcastActivity(service.ActivityEntry{
			ID:     "a1",
			Action: "Login successful",
			Status: service.ActivitySuccess,
		})

		for _, client := range []*Client{first, second} {
			select {
			case msg := <-client.send:
				if !strings.Contains(string(msg), `"type":"activity"`) {
					t.Errorf("unexpected frame: %s", msg)
				}
				if !strings.Contains(string(msg), "Login successful") {
					t.Errorf("entry missing from frame: %s", msg)
				}
			case <-time.After(time.Second):
				t.Fatal("client did not receive broadcast")
			}
		}
	})

	t.Run("drops slow clients", func(t *testing.T) {
		hub := NewHub(nil)
		go hub.Run()

		slow := newTestClient(hub)
		// Забиваем буфер, чтобы следующая рассылка не поместилась
		for i := 0; i < clientSendBufferSize; i++ {
			slow.send <- []byte("x")
		}
		hub.register <- slow
		waitFor(t, func() bool { return hub.ClientCount() == 1 })

		hub.BroadcastActivity(service.ActivityEntry{ID: "a1", Action: "x"})

		waitFor(t, func() bool { return hub.ClientCount() == 0 })
	})
}

// waitFor опрашивает условие с таймаутом
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

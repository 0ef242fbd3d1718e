package ws

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nhooyr.io/websocket"

	"github.com/ML-Enthusiast12/Bot-And-Database-API/internal/session"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func runHub(t *testing.T, opts ...Option) *Hub {
	t.Helper()
	hub := NewHub(quietLogger(), opts...)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func TestNewHub(t *testing.T) {
	hub := NewHub(quietLogger())
	if hub.clients == nil {
		t.Error("clients map not initialized")
	}
	if hub.broadcast == nil || hub.register == nil || hub.unregister == nil {
		t.Error("channels not initialized")
	}
	if got := hub.ClientCount(); got != 0 {
		t.Errorf("ClientCount() = %d, want 0", got)
	}
}

func TestHubRegisterUnregister(t *testing.T) {
	hub := runHub(t)

	client := &Client{hub: hub, send: make(chan []byte, 256)}

	if !hub.add(client) {
		t.Fatal("add returned false on a running hub")
	}
	time.Sleep(50 * time.Millisecond)
	if got := hub.ClientCount(); got != 1 {
		t.Errorf("after register: ClientCount() = %d, want 1", got)
	}

	hub.remove(client)
	time.Sleep(50 * time.Millisecond)
	if got := hub.ClientCount(); got != 0 {
		t.Errorf("after unregister: ClientCount() = %d, want 0", got)
	}
}

func TestHubBroadcast(t *testing.T) {
	hub := runHub(t)

	c1 := &Client{hub: hub, send: make(chan []byte, 256)}
	c2 := &Client{hub: hub, send: make(chan []byte, 256)}
	hub.add(c1)
	hub.add(c2)
	time.Sleep(50 * time.Millisecond)

	msg := []byte(`{"type":"test"}`)
	hub.Broadcast(msg)

	for name, c := range map[string]*Client{"c1": c1, "c2": c2} {
		select {
		case got := <-c.send:
			if string(got) != string(msg) {
				t.Errorf("%s got %q, want %q", name, got, msg)
			}
		case <-time.After(time.Second):
			t.Errorf("%s did not receive broadcast", name)
		}
	}
}

func TestHubBroadcast_DropsSlowClient(t *testing.T) {
	hub := runHub(t)

	slow := &Client{hub: hub, send: make(chan []byte, 1)}
	hub.add(slow)
	time.Sleep(50 * time.Millisecond)

	slow.send <- []byte("filler")

	hub.Broadcast([]byte("overflow"))
	time.Sleep(50 * time.Millisecond)

	if got := hub.ClientCount(); got != 0 {
		t.Errorf("slow client should be dropped, ClientCount() = %d, want 0", got)
	}
}

func TestDeliver_AfterSlowClientDropped(t *testing.T) {
	hub := runHub(t)

	slow := &Client{hub: hub, send: make(chan []byte, 1)}
	hub.add(slow)
	time.Sleep(50 * time.Millisecond)

	slow.send <- []byte("filler")
	hub.Broadcast([]byte("overflow"))
	time.Sleep(50 * time.Millisecond)

	// A sync reply racing the drop must not send on the closed channel.
	if hub.deliver(slow, []byte(`{"type":"full_state"}`)) {
		t.Error("deliver succeeded on a dropped client")
	}
}

func TestDeliver_AfterShutdown(t *testing.T) {
	hub := NewHub(quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	client := &Client{hub: hub, send: make(chan []byte, 4)}
	if !hub.add(client) {
		t.Fatal("add returned false on a running hub")
	}
	cancel()
	<-stopped

	if hub.deliver(client, []byte("late")) {
		t.Error("deliver succeeded after the hub stopped")
	}
}

func TestDeliver_Live(t *testing.T) {
	hub := runHub(t)
	client := &Client{hub: hub, send: make(chan []byte, 1)}
	hub.add(client)

	if !hub.deliver(client, []byte("hello")) {
		t.Fatal("deliver failed on a live client")
	}
	if got := string(<-client.send); got != "hello" {
		t.Errorf("got %q, want %q", got, "hello")
	}
	if hub.deliver(client, []byte("a")) && hub.deliver(client, []byte("b")) {
		t.Error("deliver should report false when the queue is full")
	}
}

func TestBroadcast_NeverBlocks(t *testing.T) {
	// No Run loop: the queue fills and further messages are dropped.
	hub := NewHub(quietLogger())
	done := make(chan struct{})
	go func() {
		for i := 0; i < cap(hub.broadcast)+10; i++ {
			hub.Broadcast([]byte("x"))
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Broadcast blocked with a full queue")
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	hub := NewHub(quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	c := &Client{hub: hub, send: make(chan []byte, 1)}
	hub.add(c)
	cancel()

	select {
	case _, ok := <-c.send:
		if ok {
			t.Error("expected client channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("client channel not closed after shutdown")
	}
	if hub.add(&Client{hub: hub, send: make(chan []byte)}) {
		t.Error("add should fail after shutdown")
	}
}

func TestSessionChanged(t *testing.T) {
	hub := runHub(t)
	c := &Client{hub: hub, send: make(chan []byte, 4)}
	hub.add(c)
	time.Sleep(50 * time.Millisecond)

	hub.SessionChanged(session.EventCreated, session.Summary{SessionID: "db:1:x", DBType: "mysql"})

	select {
	case raw := <-c.send:
		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if msg.Type != MsgSessionCreated {
			t.Errorf("type = %q, want %q", msg.Type, MsgSessionCreated)
		}
		var s session.Summary
		if err := json.Unmarshal(msg.Payload, &s); err != nil {
			t.Fatalf("unmarshal payload: %v", err)
		}
		if s.SessionID != "db:1:x" {
			t.Errorf("session_id = %q", s.SessionID)
		}
	case <-time.After(time.Second):
		t.Fatal("no message received")
	}
}

func TestNewMessage_NilPayload(t *testing.T) {
	data, err := NewMessage(MsgSync, nil)
	if err != nil {
		t.Fatalf("NewMessage error: %v", err)
	}

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if msg.Type != MsgSync {
		t.Errorf("type = %q, want %q", msg.Type, MsgSync)
	}
	if msg.Payload != nil {
		t.Errorf("payload should be nil, got %s", msg.Payload)
	}
}

func TestHandleWebSocket_FullStateAndEvents(t *testing.T) {
	hub := runHub(t, WithSnapshot(func() (any, error) {
		return []session.Summary{{SessionID: "a:1:x"}}, nil
	}))
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	msg := readMessage(ctx, t, conn)
	if msg.Type != MsgFullState {
		t.Fatalf("first message type = %q, want %q", msg.Type, MsgFullState)
	}
	if !strings.Contains(string(msg.Payload), "a:1:x") {
		t.Errorf("full_state payload = %s", msg.Payload)
	}

	sync, _ := NewMessage(MsgSync, nil)
	if err := conn.Write(ctx, websocket.MessageText, sync); err != nil {
		t.Fatalf("write sync: %v", err)
	}
	if msg := readMessage(ctx, t, conn); msg.Type != MsgFullState {
		t.Errorf("sync reply type = %q, want %q", msg.Type, MsgFullState)
	}

	hub.SessionChanged(session.EventDeleted, session.Summary{SessionID: "a:1:x"})
	if msg := readMessage(ctx, t, conn); msg.Type != MsgSessionDeleted {
		t.Errorf("event type = %q, want %q", msg.Type, MsgSessionDeleted)
	}
}

func readMessage(ctx context.Context, t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return msg
}

package live

import (
	"io"
	"log"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestPublishReachesSubscribers(t *testing.T) {
	hub := NewHub(log.New(io.Discard, "", 0))
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	a := dial(t, srv)
	defer a.Close()
	b := dial(t, srv)
	defer b.Close()
	waitFor(t, func() bool { return hub.Len() == 2 })

	hub.Publish(Event{Type: PostCreated, PostID: 1, Text: "hello", Author: "john"})

	for _, conn := range []*websocket.Conn{a, b} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var ev Event
		if err := conn.ReadJSON(&ev); err != nil {
			t.Fatalf("read: %v", err)
		}
		if ev.Type != PostCreated || ev.PostID != 1 || ev.Author != "john" {
			t.Fatalf("unexpected event %+v", ev)
		}
	}
}

func TestDisconnectedSubscriberIsRemoved(t *testing.T) {
	hub := NewHub(log.New(io.Discard, "", 0))
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv)
	waitFor(t, func() bool { return hub.Len() == 1 })
	conn.Close()
	waitFor(t, func() bool { return hub.Len() == 0 })

	hub.Publish(Event{Type: PostUpdated, PostID: 2})
}

func TestPlainHTTPIsRejected(t *testing.T) {
	hub := NewHub(nil)
	rec := httptest.NewRecorder()
	hub.ServeHTTP(rec, httptest.NewRequest("GET", "/ws/posts/", nil))
	if rec.Code != 400 {
		t.Fatalf("got %d, want 400", rec.Code)
	}
	if hub.Len() != 0 {
		t.Fatal("non-websocket request registered")
	}
}

func TestPublishDoesNotWaitOnStalledSubscriber(t *testing.T) {
	hub := NewHub(log.New(io.Discard, "", 0))
	stalled := &client{send: make(chan Event, sendBuffer)}
	hub.register(stalled)

	done := make(chan struct{})
	go func() {
		for i := 0; i <= sendBuffer; i++ {
			hub.Publish(Event{Type: PostCreated, PostID: i})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a subscriber that never drains")
	}
	if hub.Len() != 0 {
		t.Fatal("stalled subscriber still registered")
	}
	n := 0
	for range stalled.send {
		n++
	}
	if n != sendBuffer {
		t.Fatalf("queued %d events before dropping, want %d", n, sendBuffer)
	}
}

func TestCloseDisconnectsSubscribers(t *testing.T) {
	hub := NewHub(log.New(io.Discard, "", 0))
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv)
	defer conn.Close()
	waitFor(t, func() bool { return hub.Len() == 1 })
	hub.Close()
	if hub.Len() != 0 {
		t.Fatal("subscribers left after Close")
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseGoingAway) {
		t.Fatalf("read after Close: %v", err)
	}
}

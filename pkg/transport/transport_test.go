package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
)

var upgrader = websocket.Upgrader{}

func testLogger() *logrus.Logger {
	log, _ := logtest.NewNullLogger()
	log.Level = logrus.DebugLevel
	return log
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func nextEvent(t *testing.T, events <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	case <-time.After(5 * time.Second):
		t.Fatalf("Timed out waiting for an event")
	}
	return Event{}
}

func expectKind(t *testing.T, ev Event, kind EventKind) {
	t.Helper()
	if ev.Kind != kind {
		t.Fatalf("Wanted %s event, got %s (err: %v)", kind, ev.Kind, ev.Err)
	}
}

func TestEndpointURL(t *testing.T) {
	if got := EndpointURL("intercom.local:8000", false); got != "ws://intercom.local:8000/ws" {
		t.Errorf("Wanted ws://intercom.local:8000/ws, got %s", got)
	}
	if got := EndpointURL("intercom.local", true); got != "wss://intercom.local/ws" {
		t.Errorf("Wanted wss://intercom.local/ws, got %s", got)
	}
}

func TestRoundTrip(t *testing.T) {
	received := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("Upgrade: %s", err)
			return
		}
		defer ws.Close()
		ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"log","log":"hello"}`))
		_, data, err := ws.ReadMessage()
		if err != nil {
			return
		}
		received <- string(data)
		ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
		ws.ReadMessage()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := make(chan Event)
	conn := Open(ctx, Config{URL: wsURL(srv), Log: testLogger()}, events)

	ev := nextEvent(t, events)
	expectKind(t, ev, Opened)
	if ev.Conn != conn {
		t.Errorf("Event from the wrong connection")
	}
	if !conn.IsOpen() {
		t.Errorf("Connection should be open after Opened")
	}

	ev = nextEvent(t, events)
	expectKind(t, ev, Message)
	if string(ev.Payload) != `{"type":"log","log":"hello"}` {
		t.Errorf("Unexpected payload %s", ev.Payload)
	}

	if err := conn.Send([]byte(`{"type":"reset"}`)); err != nil {
		t.Fatalf("Send: %s", err)
	}
	select {
	case got := <-received:
		if got != `{"type":"reset"}` {
			t.Errorf("Server received %s", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Server never received the frame")
	}

	ev = nextEvent(t, events)
	expectKind(t, ev, Closed)
	if !ev.Clean || ev.Code != websocket.CloseNormalClosure {
		t.Errorf("Wanted a clean close with code 1000, got clean=%v code=%d", ev.Clean, ev.Code)
	}
	if err := conn.Send([]byte(`{"type":"reset"}`)); err != ErrNotOpen {
		t.Errorf("Send after close: wanted ErrNotOpen, got %v", err)
	}
}

func TestDialFailureReportsErrorThenClosed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not a websocket endpoint", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := make(chan Event, 4)
	conn := Open(ctx, Config{URL: wsURL(srv), Log: testLogger()}, events)

	if err := conn.Send([]byte(`{"type":"reset"}`)); err != ErrNotOpen {
		t.Errorf("Send before open: wanted ErrNotOpen, got %v", err)
	}

	ev := nextEvent(t, events)
	expectKind(t, ev, Error)
	if ev.Err == nil {
		t.Errorf("Error event without an error")
	}
	ev = nextEvent(t, events)
	expectKind(t, ev, Closed)
	if ev.Clean {
		t.Errorf("A failed dial isn't a clean close")
	}

	select {
	case ev := <-events:
		t.Errorf("Unexpected event after Closed: %s", ev.Kind)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestAbruptDisconnect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		ws.Close() // No close frame.
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := make(chan Event, 4)
	Open(ctx, Config{URL: wsURL(srv), Log: testLogger()}, events)

	expectKind(t, nextEvent(t, events), Opened)
	expectKind(t, nextEvent(t, events), Error)
	ev := nextEvent(t, events)
	expectKind(t, ev, Closed)
	if ev.Clean {
		t.Errorf("An abrupt disconnect isn't clean")
	}
}

func TestLocalClose(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := make(chan Event, 4)
	conn := Open(ctx, Config{URL: wsURL(srv), Log: testLogger()}, events)
	expectKind(t, nextEvent(t, events), Opened)

	conn.Close()
	conn.Close()
	ev := nextEvent(t, events)
	expectKind(t, ev, Closed)
	if !ev.Clean {
		t.Errorf("Closing locally should be clean, got err %v", ev.Err)
	}
}

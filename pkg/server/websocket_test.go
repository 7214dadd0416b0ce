package server

import (
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialWS(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := strings.Replace(ts.URL, "http", "ws", 1) + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvents(t *testing.T, conn *websocket.Conn) []wsEvent {
	t.Helper()
	var events []wsEvent
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var ev wsEvent
		if err := conn.ReadJSON(&ev); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return events
			}
			t.Fatalf("read event: %v", err)
		}
		events = append(events, ev)
		if ev.Type == wsReady {
			return events
		}
	}
}

func eventTypes(events []wsEvent) []string {
	types := make([]string, len(events))
	for i, ev := range events {
		types[i] = ev.Type
	}
	return types
}

func TestWebSocketStreamsMilestones(t *testing.T) {
	backend := newBackend(t)
	ts := newTestServer(t, nil)
	conn := dialWS(t, ts)

	html := fmt.Sprintf(`<img src=%q>`, backend.URL+"/a.png")
	if err := conn.WriteJSON(checkRequest{HTML: html}); err != nil {
		t.Fatalf("write request: %v", err)
	}

	events := readEvents(t, conn)
	types := eventTypes(events)

	indexOf := func(name string) int {
		for i, typ := range types {
			if typ == name {
				return i
			}
		}
		t.Fatalf("no %s event in %v", name, types)
		return -1
	}
	if indexOf(wsPreReadyElement) > indexOf(wsPreReady) {
		t.Errorf("element pre-ready after batch pre-ready: %v", types)
	}
	if indexOf(wsPreReady) > indexOf(wsReadyElement) {
		t.Errorf("batch pre-ready after element ready: %v", types)
	}
	if types[len(types)-1] != wsReady {
		t.Errorf("last event = %q, want ready", types[len(types)-1])
	}

	final := events[len(events)-1]
	if final.TotalCount != 1 {
		t.Errorf("TotalCount = %d, want 1", final.TotalCount)
	}
	if final.ErrorCount != 0 {
		t.Errorf("ErrorCount = %d, want 0", final.ErrorCount)
	}
}

func TestWebSocketReportsFailures(t *testing.T) {
	backend := newBackend(t)
	ts := newTestServer(t, nil)
	conn := dialWS(t, ts)

	html := fmt.Sprintf(`<img src=%q>`, backend.URL+"/missing.png")
	if err := conn.WriteJSON(checkRequest{HTML: html}); err != nil {
		t.Fatalf("write request: %v", err)
	}

	events := readEvents(t, conn)
	var sawError bool
	for _, ev := range events {
		if ev.Type == wsError {
			sawError = true
			if ev.ErrorCount != 1 {
				t.Errorf("ErrorCount = %d, want 1", ev.ErrorCount)
			}
		}
	}
	if !sawError {
		t.Errorf("no error event in %v", eventTypes(events))
	}

	final := events[len(events)-1]
	if final.Type != wsReady {
		t.Fatalf("last event = %q, want ready", final.Type)
	}
	if final.ErrorCount != 1 {
		t.Errorf("final ErrorCount = %d, want 1", final.ErrorCount)
	}
}

func TestWebSocketRejectsEmptyRequest(t *testing.T) {
	ts := newTestServer(t, nil)
	conn := dialWS(t, ts)

	if err := conn.WriteJSON(checkRequest{}); err != nil {
		t.Fatalf("write request: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var ev wsEvent
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if ev.Type != wsError || ev.Message == "" {
		t.Errorf("event = %+v, want error with message", ev)
	}
}

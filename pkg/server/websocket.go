package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/imready-go/imready/pkg/ready"
)

// WebSocket event types, one per milestone.
const (
	wsError           = "error"
	wsPreReadyElement = "preReadyElement"
	wsPreReady        = "preReady"
	wsReadyElement    = "readyElement"
	wsReady           = "ready"
)

// wsEvent is one streamed milestone on /ws.
type wsEvent struct {
	Type            string `json:"type"`
	Index           int    `json:"index,omitempty"`
	Kind            string `json:"kind,omitempty"`
	Source          string `json:"source,omitempty"`
	HasError        bool   `json:"hasError,omitempty"`
	ErrorCount      int    `json:"errorCount,omitempty"`
	TotalErrorCount int    `json:"totalErrorCount,omitempty"`
	ReadyCount      int    `json:"readyCount,omitempty"`
	TotalCount      int    `json:"totalCount,omitempty"`
	HasLoading      bool   `json:"hasLoading,omitempty"`
	IsPreReadyOver  bool   `json:"isPreReadyOver,omitempty"`
	Message         string `json:"message,omitempty"`
}

// handleWebSocket serves GET /ws. The client sends one checkRequest and
// receives every milestone of the resulting batch, closing after the
// ready event.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(s.config.MaxBodySize)
	conn.SetReadDeadline(time.Now().Add(s.config.CheckTimeout))

	var req checkRequest
	if err := conn.ReadJSON(&req); err != nil {
		s.logger.Error("websocket request read failed", "error", err)
		return
	}

	resources, prefix, err := s.scanRequest(&req)
	if err != nil {
		conn.WriteJSON(wsEvent{Type: wsError, Message: err.Error()})
		return
	}

	m := s.newManager(prefix)
	defer m.Destroy()

	// Milestones arrive on the manager's event goroutine in order; the
	// channel hands them to this goroutine, the only websocket writer.
	// Sends never block: once the handler returns nobody drains the
	// channel, and the event goroutine must not wedge on it.
	events := make(chan wsEvent, 256)
	send := func(ev wsEvent) {
		select {
		case events <- ev:
		default:
		}
	}

	m.OnError(func(e ready.ErrorEvent) {
		send(wsEvent{
			Type:            wsError,
			Index:           e.Index,
			Kind:            e.Resource.Kind(),
			Source:          sourceOf(e.Resource),
			ErrorCount:      e.ErrorCount,
			TotalErrorCount: e.TotalErrorCount,
		})
	})
	m.OnPreReadyElement(func(e ready.PreReadyElementEvent) {
		send(wsEvent{
			Type:       wsPreReadyElement,
			Index:      e.Index,
			Kind:       e.Resource.Kind(),
			Source:     sourceOf(e.Resource),
			ReadyCount: e.ReadyCount,
			TotalCount: e.TotalCount,
			HasLoading: e.HasLoading,
		})
	})
	m.OnPreReady(func(e ready.PreReadyEvent) {
		send(wsEvent{
			Type:       wsPreReady,
			ReadyCount: e.ReadyCount,
			TotalCount: e.TotalCount,
			HasLoading: e.HasLoading,
		})
	})
	m.OnReadyElement(func(e ready.ReadyElementEvent) {
		send(wsEvent{
			Type:           wsReadyElement,
			Index:          e.Index,
			Kind:           e.Resource.Kind(),
			Source:         sourceOf(e.Resource),
			HasError:       e.HasError,
			ReadyCount:     e.ReadyCount,
			TotalCount:     e.TotalCount,
			IsPreReadyOver: e.IsPreReadyOver,
		})
	})
	m.OnReady(func(e ready.ReadyEvent) {
		send(wsEvent{
			Type:            wsReady,
			ErrorCount:      e.ErrorCount,
			TotalErrorCount: e.TotalErrorCount,
			TotalCount:      e.TotalCount,
		})
		close(events)
	})

	m.Check(resources)

	timeout := time.NewTimer(s.checkTimeout(&req))
	defer timeout.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				s.logger.Error("websocket write failed", "error", err)
				return
			}

		case <-timeout.C:
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "check timed out"))
			return
		}
	}
}

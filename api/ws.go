package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/parcelops/fleetsim/core/events"
	"github.com/parcelops/fleetsim/core/sim"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Browser clients connect from the dashboard origin; CORS is enforced
	// on the REST routes, the stream is open.
	CheckOrigin: func(*http.Request) bool { return true },
}

type wsEnvelope struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// websocket streams one state event per tick plus a complete event when the
// run terminates. The client receives a connection_response hello first.
func (s *Server) websocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Errorf("ws upgrade: %v", err)
		return
	}
	defer func() { _ = conn.Close() }()

	if err := conn.WriteJSON(wsEnvelope{Type: "connection_response", Data: map[string]string{"service": s.hello}}); err != nil {
		return
	}

	// Read pump: drains client frames so pings are answered and a close
	// frame ends the stream.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	bus := s.mgr.Bus()
	if bus == nil {
		return
	}
	sub := bus.Subscribe()
	defer bus.Unsubscribe(sub)

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case ev, ok := <-sub:
			if !ok {
				return
			}
			var env wsEnvelope
			switch e := ev.(type) {
			case sim.Snapshot:
				env = wsEnvelope{Type: "state", Data: e}
			case events.CompletionEvent:
				env = wsEnvelope{Type: "complete", Data: e}
			default:
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteJSON(env); err != nil {
				return
			}
		}
	}
}

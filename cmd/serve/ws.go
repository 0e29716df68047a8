package serve

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const wsWriteTimeout = 5 * time.Second

type wsMessage struct {
	Kind   string `json:"kind"`
	Status any    `json:"status,omitempty"`
	Event  any    `json:"event,omitempty"`
}

// handleWS sends the current status, then every playback event followed by
// the status it led to.
func (s *server) handleWS(w http.ResponseWriter, r *http.Request) {
	events, unsubscribe := s.ctl.Subscribe(32)
	defer unsubscribe()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send := func(msg wsMessage) bool {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		return conn.WriteJSON(msg) == nil
	}

	if !send(wsMessage{Kind: "status", Status: s.ctl.Status()}) {
		return
	}
	for {
		select {
		case <-r.Context().Done():
			return
		case <-closed:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if !send(wsMessage{Kind: "event", Event: ev, Status: s.ctl.Status()}) {
				return
			}
		}
	}
}

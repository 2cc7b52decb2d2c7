package admin

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"saaspulse-sim/internal/metrics"
	"saaspulse-sim/internal/sim"
)

const (
	wsWriteTimeout = 5 * time.Second
	wsBuffer       = 32
)

// Message types pushed over the websocket.
const (
	MessageState    = "state"
	MessageSnapshot = "snapshot"
)

// Message is one websocket frame. A state message carries everything; a
// snapshot message carries history or activity only when the tick changed
// them.
type Message struct {
	Type     string                  `json:"type"`
	Snapshot metrics.Snapshot        `json:"snapshot"`
	History  *sim.HistoryView        `json:"history,omitempty"`
	Activity []metrics.ActivityEvent `json:"activity,omitempty"`
}

func (s *Server) stateMessage() Message {
	h := s.Sim.History()
	return Message{
		Type:     MessageState,
		Snapshot: s.Sim.Snapshot(),
		History:  &h,
		Activity: s.Sim.Activity(),
	}
}

func (s *Server) snapshotMessage(snap metrics.Snapshot) Message {
	m := Message{Type: MessageSnapshot, Snapshot: snap}
	switch snap.Op {
	case metrics.OpHistory, metrics.OpInit:
		h := s.Sim.History()
		m.History = &h
	case metrics.OpActivity:
		m.Activity = s.Sim.Activity()
	}
	return m
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error("failed to upgrade websocket", "err", err)
		return
	}
	defer conn.Close()

	// slow clients lose snapshots rather than stalling the simulator
	updates := make(chan metrics.Snapshot, wsBuffer)
	unsubscribe := s.Sim.Subscribe(func(snap metrics.Snapshot) {
		select {
		case updates <- snap:
		default:
		}
	})
	defer unsubscribe()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					s.log.Debug("websocket closed", "err", err)
				}
				return
			}
		}
	}()

	s.log.Info("websocket client connected", "remote_addr", r.RemoteAddr)
	if err := s.send(conn, s.stateMessage()); err != nil {
		return
	}
	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case snap := <-updates:
			if err := s.send(conn, s.snapshotMessage(snap)); err != nil {
				return
			}
		}
	}
}

func (s *Server) send(conn *websocket.Conn, m Message) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := conn.WriteJSON(m); err != nil {
		s.log.Debug("websocket write failed", "err", err)
		return err
	}
	return nil
}

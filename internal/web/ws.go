package web

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// handleFeed streams board snapshots for one session. A snapshot is pushed
// on connect and again whenever its version changes.
func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "session", id, "err", err)
		return
	}
	defer conn.Close()

	// Clients never send data; the read loop only notices the close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					s.logger.Warn("websocket read failed", "session", id, "err", err)
				}
				return
			}
		}
	}()

	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()

	ctx := r.Context()
	var (
		sent    bool
		version uint64
	)
	for {
		snap, err := s.studio.Snapshot(ctx, id)
		if err != nil {
			s.logger.Error("snapshot failed", "session", id, "err", err)
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "snapshot unavailable"))
			return
		}
		if !sent || snap.Version != version {
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(snap); err != nil {
				s.logger.Warn("websocket write failed", "session", id, "err", err)
				return
			}
			sent, version = true, snap.Version
		}

		select {
		case <-closed:
			return
		case <-s.baseCtx.Done():
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
			return
		case <-ticker.C:
		}
	}
}

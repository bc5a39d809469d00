package spectate

import (
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 512
	sendBuffer     = 256
)

// viewer is one connected spectator
type viewer struct {
	conn   *websocket.Conn
	send   chan []byte
	remote string
	logger *slog.Logger
}

func newViewer(conn *websocket.Conn, logger *slog.Logger) *viewer {
	return &viewer{
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		remote: conn.RemoteAddr().String(),
		logger: logger,
	}
}

// queue hands a frame to the write pump; a viewer that is behind misses it
func (v *viewer) queue(frame []byte) {
	select {
	case v.send <- frame:
	default:
	}
}

// readPump discards anything the viewer sends and keeps the read
// deadline alive on pongs. It returns when the connection fails
func (v *viewer) readPump(h *Hub) {
	defer func() {
		h.leave(v)
		v.conn.Close()
	}()

	v.conn.SetReadLimit(maxMessageSize)
	v.conn.SetReadDeadline(time.Now().Add(pongWait))
	v.conn.SetPongHandler(func(string) error {
		v.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := v.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				v.logger.Warn("viewer read error", "remote", v.remote, "error", err)
			}
			return
		}
	}
}

// writePump sends queued frames and pings until send is closed
func (v *viewer) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		v.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-v.send:
			v.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				v.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := v.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
				v.logger.Debug("viewer write error", "remote", v.remote, "error", err)
				return
			}

		case <-ticker.C:
			v.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := v.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

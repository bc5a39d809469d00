package spectate

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/pkg/errors"

	"rallypoint/internal/game"
)

const shutdownTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // spectators are read-only
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Handler serves the spectator endpoints:
//
//	/ws             msgpack snapshots over WebSocket
//	/world.geojson  the latest snapshot as a GeoJSON FeatureCollection
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.handleWebSocket)
	mux.HandleFunc("/world.geojson", h.handleGeoJSON)
	return mux
}

// Serve runs the spectator HTTP server on addr until ctx is done
func (h *Hub) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	h.logger.Info("spectator feed listening", "addr", addr)

	select {
	case err := <-errCh:
		return errors.Wrapf(err, "spectator server on %s", addr)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shut down spectator server")
	}
	return nil
}

func (h *Hub) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	v := newViewer(conn, h.logger)
	if !h.join(v) {
		conn.Close()
		return
	}

	go v.writePump()
	go v.readPump(h)
}

func (h *Hub) handleGeoJSON(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	snapshot, _ := h.Latest()
	data, err := FeatureCollection(snapshot).MarshalJSON()
	if err != nil {
		h.logger.Error("marshal geojson", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/geo+json")
	w.Write(data)
}

// FeatureCollection converts a snapshot to one point feature per agent
func FeatureCollection(snapshot game.Snapshot) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, agent := range snapshot.Agents {
		f := geojson.NewFeature(orb.Point{agent.X, agent.Y})
		f.Properties["key"] = agent.Key
		f.Properties["mode"] = agent.Mode
		f.Properties["tick"] = snapshot.Tick
		if agent.Session != "" {
			f.Properties["session"] = agent.Session
		}
		if agent.Moving {
			f.Properties["target"] = []float64{agent.TargetX, agent.TargetY}
		}
		fc.Append(f)
	}
	return fc
}

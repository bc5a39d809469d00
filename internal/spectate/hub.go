// Package spectate streams world snapshots to read-only viewers over
// WebSocket and exposes the latest one as GeoJSON.
//
// The hub runs on its own goroutine. The server hands it snapshots
// through Observe, which never blocks the tick; nothing here touches the
// session table or the game socket
package spectate

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/vmihailenco/msgpack/v5"

	"rallypoint/internal/game"
)

const updateBuffer = 16

// Hub fans snapshots out to connected viewers
type Hub struct {
	mu         sync.RWMutex
	latest     game.Snapshot
	haveLatest bool

	viewers    map[*viewer]struct{}
	updates    chan game.Snapshot
	register   chan *viewer
	unregister chan *viewer
	done       chan struct{}

	viewerCount atomic.Int64
	dropped     atomic.Uint64
	logger      *slog.Logger
}

// NewHub creates a hub. Call Run to start delivering snapshots
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		viewers:    make(map[*viewer]struct{}),
		updates:    make(chan game.Snapshot, updateBuffer),
		register:   make(chan *viewer),
		unregister: make(chan *viewer),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Observe queues a snapshot for delivery. If the hub is behind the
// snapshot is dropped
func (h *Hub) Observe(snapshot game.Snapshot) {
	select {
	case h.updates <- snapshot:
	default:
		h.dropped.Add(1)
	}
}

// Latest returns the most recent snapshot the hub has processed
func (h *Hub) Latest() (game.Snapshot, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.latest, h.haveLatest
}

// Viewers returns the number of connected viewers
func (h *Hub) Viewers() int {
	return int(h.viewerCount.Load())
}

// Dropped returns how many snapshots were dropped because the hub was behind
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

// Run delivers snapshots until ctx is done, then disconnects every viewer
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	var latestFrame []byte

	for {
		select {
		case <-ctx.Done():
			for v := range h.viewers {
				h.drop(v)
			}
			return

		case v := <-h.register:
			h.viewers[v] = struct{}{}
			h.viewerCount.Add(1)
			h.logger.Info("viewer joined", "remote", v.remote, "viewers", len(h.viewers))
			if latestFrame != nil {
				v.queue(latestFrame)
			}

		case v := <-h.unregister:
			if _, ok := h.viewers[v]; ok {
				h.drop(v)
				h.logger.Info("viewer left", "remote", v.remote, "viewers", len(h.viewers))
			}

		case snapshot := <-h.updates:
			h.mu.Lock()
			h.latest = snapshot
			h.haveLatest = true
			h.mu.Unlock()

			data, err := msgpack.Marshal(snapshot)
			if err != nil {
				h.logger.Error("marshal snapshot", "error", err)
				continue
			}
			latestFrame = data
			for v := range h.viewers {
				v.queue(data)
			}
		}
	}
}

func (h *Hub) drop(v *viewer) {
	delete(h.viewers, v)
	h.viewerCount.Add(-1)
	close(v.send)
}

// join registers v with the running hub. It reports false once the hub
// has stopped
func (h *Hub) join(v *viewer) bool {
	select {
	case h.register <- v:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(v *viewer) {
	select {
	case h.unregister <- v:
	case <-h.done:
	}
}

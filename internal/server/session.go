package server

import (
	"net"
	"time"

	"github.com/google/uuid"
)

// Session is a client known by its transport address. Only CONNECT
// refreshes LastSeen
type Session struct {
	ID          uuid.UUID
	Addr        net.Addr
	ConnectedAt time.Time
	LastSeen    time.Time
}

func newSession(addr net.Addr, now time.Time) *Session {
	return &Session{
		ID:          uuid.New(),
		Addr:        addr,
		ConnectedAt: now,
		LastSeen:    now,
	}
}

// Expired reports whether nothing refreshed the session for at least timeout
func (s *Session) Expired(now time.Time, timeout time.Duration) bool {
	return now.Sub(s.LastSeen) >= timeout
}

// Package beacon advertises the server on the local network by
// periodically broadcasting its address
package beacon

import (
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// DefaultPort is the well-known discovery port
const DefaultPort = 3699

// DefaultInterval is how often the address is announced
const DefaultInterval = time.Second

// Beacon sends a fixed payload on every tick
type Beacon struct {
	conn    net.Conn
	payload []byte
	logger  *slog.Logger
	sent    uint64
}

// Dial opens a UDP socket aimed at the IPv4 broadcast address on port.
// Go enables SO_BROADCAST on IPv4 datagram sockets
func Dial(port int) (net.Conn, error) {
	addr := net.JoinHostPort(net.IPv4bcast.String(), strconv.Itoa(port))
	conn, err := net.Dial("udp4", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "dial broadcast %s", addr)
	}
	return conn, nil
}

// New creates a beacon announcing the local IP of conn
func New(conn net.Conn, logger *slog.Logger) *Beacon {
	return &Beacon{
		conn:    conn,
		payload: Payload(conn.LocalAddr()),
		logger:  logger,
	}
}

// Payload returns the announcement for a local address: its IP as text
func Payload(addr net.Addr) []byte {
	if udp, ok := addr.(*net.UDPAddr); ok {
		return []byte(udp.IP.String())
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return []byte(addr.String())
	}
	return []byte(host)
}

// OnTick announces the address once. Send failures are logged and
// otherwise ignored
func (b *Beacon) OnTick(time.Duration) error {
	if _, err := b.conn.Write(b.payload); err != nil {
		b.logger.Warn("beacon send failed", "error", err)
		return nil
	}
	b.sent++
	return nil
}

// Sent returns how many announcements went out
func (b *Beacon) Sent() uint64 {
	return b.sent
}

// Close closes the socket
func (b *Beacon) Close() error {
	return b.conn.Close()
}

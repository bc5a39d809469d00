package server

import (
	"log/slog"
	"net"
	"os"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"rallypoint/internal/clock"
	"rallypoint/internal/game"
	"rallypoint/internal/protocol"
)

// Defaults used when Options leaves a field zero
const (
	DefaultSessionTimeout = 500 * time.Millisecond
	DefaultPollWait       = 500 * time.Microsecond
)

// At most this many unknown commands are logged per second; the rest are
// counted and reported with the next logged one
const unknownCommandLogRate = 10

// Longer unknown commands are cut short in the log
const maxLoggedCommand = 64

// Observer is handed a snapshot after every broadcast. It is called on the
// tick goroutine and must not block
type Observer interface {
	Observe(game.Snapshot)
}

// StateSource adds an agent that is not owned by a session to snapshots
type StateSource interface {
	State() game.AgentState
}

// Options configures a Server
type Options struct {
	World          *game.World
	Clock          clock.Clock
	SessionTimeout time.Duration
	PollWait       time.Duration
	Logger         *slog.Logger
	Observer       Observer
	Extras         []StateSource
}

// Server owns the datagram socket, the session table and the world. All of
// it is touched only from OnTick
type Server struct {
	conn     net.PacketConn
	world    *game.World
	sessions map[string]*Session
	clock    clock.Clock
	timeout  time.Duration
	pollWait time.Duration
	logger   *slog.Logger
	observer Observer
	extras   []StateSource
	buf      []byte
	ticks    uint64

	unknownLog *rate.Limiter
	suppressed int
}

// Listen opens the server's UDP socket
func Listen(addr string) (net.PacketConn, error) {
	conn, err := net.ListenPacket("udp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "listen on %s", addr)
	}
	return conn, nil
}

// New creates a server on an already bound socket
func New(conn net.PacketConn, opts Options) *Server {
	s := &Server{
		conn:       conn,
		world:      opts.World,
		sessions:   make(map[string]*Session),
		clock:      opts.Clock,
		timeout:    opts.SessionTimeout,
		pollWait:   opts.PollWait,
		logger:     opts.Logger,
		observer:   opts.Observer,
		extras:     opts.Extras,
		buf:        make([]byte, protocol.MaxDatagram),
		unknownLog: rate.NewLimiter(unknownCommandLogRate, unknownCommandLogRate),
	}
	if s.world == nil {
		s.world = game.NewWorld(game.DefaultSpeed)
	}
	if s.clock == nil {
		s.clock = clock.Real()
	}
	if s.timeout <= 0 {
		s.timeout = DefaultSessionTimeout
	}
	if s.pollWait <= 0 {
		s.pollWait = DefaultPollWait
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Addr returns the local address of the socket
func (s *Server) Addr() net.Addr {
	return s.conn.LocalAddr()
}

// World returns the server's world
func (s *Server) World() *game.World {
	return s.world
}

// Sessions returns the number of live sessions
func (s *Server) Sessions() int {
	return len(s.sessions)
}

// Session looks up a live session by address
func (s *Server) Session(key string) (*Session, bool) {
	sess, exists := s.sessions[key]
	return sess, exists
}

// Close closes the socket
func (s *Server) Close() error {
	return s.conn.Close()
}

// OnTick runs one server step: expire stale sessions, advance the world,
// broadcast state, then handle whatever datagrams are waiting. Only a
// socket read failure is returned
func (s *Server) OnTick(delta time.Duration) error {
	s.ticks++
	s.expireSessions()
	s.world.Tick(delta)
	s.broadcast()
	return s.drain()
}

// expireSessions drops sessions that have not sent CONNECT within the
// timeout, together with their agents
func (s *Server) expireSessions() {
	now := s.clock.Now()
	for _, key := range s.sessionKeys() {
		sess := s.sessions[key]
		if !sess.Expired(now, s.timeout) {
			continue
		}
		delete(s.sessions, key)
		s.world.StopAgent(key)
		s.logger.Info("session expired",
			"addr", key,
			"session", sess.ID,
			"idle", now.Sub(sess.LastSeen),
		)
	}
}

// broadcast sends every session its own agent, then every other agent.
// Sessions without an agent get one at the origin first
func (s *Server) broadcast() {
	keys := s.sessionKeys()

	for _, key := range keys {
		if _, exists := s.world.Agent(key); !exists {
			s.world.StartAgent(key)
			s.logger.Debug("agent spawned", "addr", key, "session", s.sessions[key].ID)
		}
	}

	for _, key := range keys {
		sess := s.sessions[key]
		agent, _ := s.world.Agent(key)
		s.send(sess, protocol.EncodeTick(agent))

		peers := make([]protocol.Peer, 0, len(keys)-1)
		for _, other := range keys {
			if other == key {
				continue
			}
			if peer, exists := s.world.Agent(other); exists {
				peers = append(peers, protocol.Peer{Addr: other, Agent: peer})
			}
		}
		if frame := protocol.EncodeOthers(peers); frame != nil {
			s.send(sess, frame)
		}
	}

	s.publish()
}

// publish hands the observer a snapshot of this tick
func (s *Server) publish() {
	if s.observer == nil {
		return
	}

	ids := make(map[string]string, len(s.sessions))
	for key, sess := range s.sessions {
		ids[key] = sess.ID.String()
	}
	extra := make([]game.AgentState, 0, len(s.extras))
	for _, src := range s.extras {
		extra = append(extra, src.State())
	}

	s.observer.Observe(s.world.BuildSnapshot(s.ticks, s.clock.Now(), ids, extra...))
}

// send writes one frame. Delivery is best effort; failures are only logged
func (s *Server) send(sess *Session, frame []byte) {
	if _, err := s.conn.WriteTo(frame, sess.Addr); err != nil {
		s.logger.Debug("send failed", "addr", sess.Addr.String(), "error", err)
	}
}

// drain dispatches datagrams until none is immediately available
func (s *Server) drain() error {
	for {
		// Socket deadlines are wall-clock, whatever clock drives the ticks.
		if err := s.conn.SetReadDeadline(time.Now().Add(s.pollWait)); err != nil {
			return errors.Wrap(err, "set read deadline")
		}
		n, addr, err := s.conn.ReadFrom(s.buf)
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				return nil
			}
			return errors.Wrap(err, "read datagram")
		}
		s.dispatch(addr, s.buf[:n])
	}
}

// dispatch handles one inbound datagram
func (s *Server) dispatch(addr net.Addr, datagram []byte) {
	key := addr.String()

	switch cmd := protocol.Parse(datagram).(type) {
	case protocol.Connect:
		s.connect(key, addr)
	case protocol.Move:
		if _, exists := s.sessions[key]; !exists {
			return
		}
		if agent, exists := s.world.Agent(key); exists {
			agent.MoveTo(cmd.X, cmd.Y)
			s.logger.Debug("agent moving", "addr", key, "x", cmd.X, "y", cmd.Y)
		}
	case protocol.Unknown:
		s.unknownCommand(key, cmd.Raw)
	}
}

// connect registers a new session or refreshes an existing one
func (s *Server) connect(key string, addr net.Addr) {
	now := s.clock.Now()
	if sess, exists := s.sessions[key]; exists {
		sess.LastSeen = now
		return
	}

	sess := newSession(addr, now)
	s.sessions[key] = sess
	s.logger.Info("session connected", "addr", key, "session", sess.ID)
}

func (s *Server) unknownCommand(key, raw string) {
	if !s.unknownLog.Allow() {
		s.suppressed++
		return
	}
	s.logger.Warn("unknown command", "addr", key, "command", truncate(raw, maxLoggedCommand), "suppressed", s.suppressed)
	s.suppressed = 0
}

// truncate shortens s to at most n bytes without splitting a rune
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}

func (s *Server) sessionKeys() []string {
	keys := make([]string, 0, len(s.sessions))
	for key := range s.sessions {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

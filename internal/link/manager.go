package link

import (
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/okravets/sensor-uplink-service/internal/transport"
)

// State of the connection slot.
type State int

const (
	Disconnected State = iota
	Connected
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connected:
		return "connected"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// DefaultPollTimeout bounds how long one accept poll may block.
const DefaultPollTimeout = 5 * time.Millisecond

// deadlineListener is the subset of *net.TCPListener the manager needs to
// make Accept non-blocking.
type deadlineListener interface {
	SetDeadline(t time.Time) error
}

// Manager owns the single active connection slot. A new connection may
// only occupy the slot while it is Disconnected; a live handle is never
// silently overwritten.
type Manager struct {
	ln          net.Listener
	logger      *slog.Logger
	pollTimeout time.Duration

	mu    sync.Mutex
	state State
	conn  *Conn

	accepted  uint64
	teardowns uint64
}

// Stats is a snapshot of slot activity for monitoring.
type Stats struct {
	State     string `json:"state"`
	Accepted  uint64 `json:"connections_accepted"`
	Teardowns uint64 `json:"teardowns"`
}

// NewManager creates a connection manager over an already-listening socket.
func NewManager(ln net.Listener, pollTimeout time.Duration, logger *slog.Logger) *Manager {
	if pollTimeout <= 0 {
		pollTimeout = DefaultPollTimeout
	}
	return &Manager{
		ln:          ln,
		logger:      logger,
		pollTimeout: pollTimeout,
		state:       Disconnected,
	}
}

// PollForConnection accepts at most one pending connection when the slot
// is Disconnected, returning nil when none is waiting. While Connected it
// returns the current connection untouched; replacing it requires an
// explicit Teardown first.
func (m *Manager) PollForConnection() (transport.Conn, error) {
	m.mu.Lock()
	if m.state == Connected {
		conn := m.conn
		m.mu.Unlock()
		return conn, nil
	}
	m.mu.Unlock()

	dl, ok := m.ln.(deadlineListener)
	if !ok {
		return nil, fmt.Errorf("listener %T does not support accept deadlines", m.ln)
	}
	if err := dl.SetDeadline(time.Now().Add(m.pollTimeout)); err != nil {
		return nil, fmt.Errorf("failed to set accept deadline: %w", err)
	}

	nc, err := m.ln.Accept()
	if err != nil {
		if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
			return nil, nil // nothing pending
		}
		return nil, fmt.Errorf("accept failed: %w", err)
	}

	conn := newConn(nc, m.logger)

	m.mu.Lock()
	m.state = Connected
	m.conn = conn
	m.accepted++
	m.mu.Unlock()

	m.logger.Info("Connection accepted",
		slog.String("remote_addr", nc.RemoteAddr().String()),
	)

	return conn, nil
}

// Teardown closes the live handle and re-arms the slot. Calling it while
// already Disconnected is a no-op.
func (m *Manager) Teardown() {
	m.mu.Lock()
	if m.state == Disconnected {
		m.mu.Unlock()
		return
	}
	conn := m.conn
	m.state = Disconnected
	m.conn = nil
	m.teardowns++
	m.mu.Unlock()

	addr := conn.RemoteAddr()
	if err := conn.Close(); err != nil {
		m.logger.Warn("Error closing connection",
			slog.String("remote_addr", addr.String()),
			slog.String("error", err.Error()),
		)
	}

	m.logger.Info("Connection torn down",
		slog.String("remote_addr", addr.String()),
	)
}

// State returns the current slot state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// GetStats returns a snapshot of slot activity.
func (m *Manager) GetStats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Stats{
		State:     m.state.String(),
		Accepted:  m.accepted,
		Teardowns: m.teardowns,
	}
}

// Close tears down any live connection and closes the listener.
func (m *Manager) Close() error {
	m.Teardown()
	return m.ln.Close()
}

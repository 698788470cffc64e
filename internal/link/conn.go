package link

import (
	"log/slog"
	"net"
	"sync"
	"time"
)

// writeAttemptTimeout bounds a single Write call. When the peer stops
// draining its socket the kernel write would otherwise block indefinitely;
// the deadline turns a stalled attempt into zero-byte progress so the
// transport writer's progress timeout governs the overall failure.
const writeAttemptTimeout = 100 * time.Millisecond

// Conn wraps an accepted net.Conn with the liveness probe consumed by the
// transport layer. The collector never sends application data, so anything
// readable other than a deadline timeout means the peer hung up.
type Conn struct {
	nc     net.Conn
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
}

func newConn(nc net.Conn, logger *slog.Logger) *Conn {
	if logger == nil {
		logger = slog.Default()
	}
	return &Conn{nc: nc, logger: logger}
}

// Write hands bytes to the network layer. Each attempt carries its own
// deadline; a deadline expiry is reported as whatever partial progress was
// made with a nil error, leaving the give-up decision to the caller.
func (c *Conn) Write(p []byte) (int, error) {
	if err := c.nc.SetWriteDeadline(time.Now().Add(writeAttemptTimeout)); err != nil {
		return 0, err
	}
	n, err := c.nc.Write(p)
	if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
		return n, nil
	}
	return n, err
}

// Alive reports whether the peer is still reachable. It probes with a
// read whose deadline is already in the past, so the call does not block:
// a timeout means no news from the peer and the connection stands, EOF or
// any other error means it is gone.
func (c *Conn) Alive() bool {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return false
	}

	if err := c.nc.SetReadDeadline(time.Now()); err != nil {
		return false
	}
	var probe [1]byte
	_, err := c.nc.Read(probe[:])
	if err == nil {
		// Unexpected inbound data; the connection itself is up.
		c.logger.Debug("Discarding unexpected byte from collector",
			slog.Int("byte", int(probe[0])),
		)
		return true
	}
	if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
		return true
	}
	return false
}

// Close closes the underlying connection. Safe to call more than once.
func (c *Conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	return c.nc.Close()
}

// RemoteAddr returns the peer address for logging.
func (c *Conn) RemoteAddr() net.Addr {
	return c.nc.RemoteAddr()
}

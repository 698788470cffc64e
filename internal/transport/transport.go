package transport

import (
	"errors"
	"fmt"
	"time"
)

// Default writer parameters.
const (
	DefaultProgressTimeout = 5 * time.Second
	DefaultYieldInterval   = 1 * time.Millisecond
)

var (
	// ErrConnectionLost indicates the peer went away before the buffer was
	// fully delivered.
	ErrConnectionLost = errors.New("connection lost")

	// ErrProgressTimeout indicates sustained backpressure: the network layer
	// accepted no bytes within the progress timeout.
	ErrProgressTimeout = errors.New("no write progress within timeout")
)

// Conn is the write side of an established connection as seen by the
// transport layer. Alive reports whether the peer is still reachable; the
// check must be cheap enough to run before every write attempt.
type Conn interface {
	Write(p []byte) (int, error)
	Alive() bool
}

// Writer delivers whole buffers over a Conn. A buffer is either fully
// handed to the network layer or WriteFull returns an error; the Writer
// never tears the connection down itself.
type Writer struct {
	progressTimeout time.Duration
	yieldInterval   time.Duration

	// Replaceable in tests to simulate time without a network stack.
	now   func() time.Time
	sleep func(time.Duration)
}

// NewWriter creates a Writer with the given progress timeout and yield
// interval. Non-positive values fall back to the defaults.
func NewWriter(progressTimeout, yieldInterval time.Duration) *Writer {
	if progressTimeout <= 0 {
		progressTimeout = DefaultProgressTimeout
	}
	if yieldInterval <= 0 {
		yieldInterval = DefaultYieldInterval
	}
	return &Writer{
		progressTimeout: progressTimeout,
		yieldInterval:   yieldInterval,
		now:             time.Now,
		sleep:           time.Sleep,
	}
}

// WriteFull writes all of buf to c. An empty buffer trivially succeeds.
// Zero-byte acceptance is treated as transient backpressure: the writer
// yields briefly and retries without resetting its overall progress
// tracking. Any accepted byte advances the cursor and resets the progress
// timer; once no forward progress has been made for the progress timeout
// the write fails. Liveness is checked before every attempt so a dead
// connection fails fast instead of burning the full timeout.
func (w *Writer) WriteFull(c Conn, buf []byte) error {
	if len(buf) == 0 {
		return nil
	}

	written := 0
	lastProgress := w.now()

	for written < len(buf) {
		if !c.Alive() {
			return fmt.Errorf("%w: %d of %d bytes delivered", ErrConnectionLost, written, len(buf))
		}

		n, err := c.Write(buf[written:])
		if n > 0 {
			written += n
			lastProgress = w.now()
		}
		if err != nil {
			return fmt.Errorf("write failed after %d of %d bytes: %w", written, len(buf), err)
		}

		if n == 0 {
			if w.now().Sub(lastProgress) > w.progressTimeout {
				return fmt.Errorf("%w: %d of %d bytes delivered", ErrProgressTimeout, written, len(buf))
			}
			w.sleep(w.yieldInterval)
		}
	}

	return nil
}

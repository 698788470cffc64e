package uplink

import (
	"fmt"

	"github.com/okravets/sensor-uplink-service/internal/protocol"
	"github.com/okravets/sensor-uplink-service/internal/transport"
)

// Encoder multiplexes tagged frames onto a single connection through the
// reliable transport.
type Encoder struct {
	writer *transport.Writer
}

// NewEncoder creates a frame encoder over the given writer.
func NewEncoder(w *transport.Writer) *Encoder {
	return &Encoder{writer: w}
}

// SendFrame writes the tag byte and then the payload. The payload is only
// attempted once the tag write fully succeeded, so the receiver can never
// observe a payload without its tag.
func (e *Encoder) SendFrame(c transport.Conn, tag uint8, payload []byte) error {
	if err := e.writer.WriteFull(c, []byte{tag}); err != nil {
		return fmt.Errorf("%s frame tag: %w", protocol.TagString(tag), err)
	}
	if err := e.writer.WriteFull(c, payload); err != nil {
		return fmt.Errorf("%s frame payload: %w", protocol.TagString(tag), err)
	}
	return nil
}

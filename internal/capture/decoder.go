package capture

import (
	"fmt"

	"github.com/okravets/sensor-uplink-service/internal/protocol"
)

// Decoder incrementally parses the interleaved frame stream. Feed it raw
// chunks in arrival order; complete frames come back in wire order, and
// partial frames are held until the remaining bytes arrive. The audio
// block size is not on the wire and must match the sending device.
type Decoder struct {
	blockSamples int
	buf          []byte
}

// NewDecoder creates a decoder for a stream carrying audio blocks of the
// given sample count.
func NewDecoder(blockSamples int) *Decoder {
	return &Decoder{blockSamples: blockSamples}
}

// Feed appends a received chunk and returns every frame completed by it.
// An unknown tag is unrecoverable: with no length fields there is no way
// to resynchronize, so the decoder reports an error and must be discarded.
func (d *Decoder) Feed(data []byte) ([]protocol.Frame, error) {
	d.buf = append(d.buf, data...)

	var frames []protocol.Frame
	consumed := 0

	for {
		remaining := d.buf[consumed:]
		if len(remaining) < protocol.TagSize {
			break
		}

		tag := remaining[0]
		payloadSize, err := protocol.PayloadSize(tag, d.blockSamples)
		if err != nil {
			return frames, fmt.Errorf("stream out of sync at byte %d: %w", consumed, err)
		}
		if len(remaining) < protocol.TagSize+payloadSize {
			break // wait for the rest of this frame
		}

		payload := remaining[protocol.TagSize : protocol.TagSize+payloadSize]
		frame, err := decodeFrame(tag, payload)
		if err != nil {
			return frames, err
		}
		frames = append(frames, frame)
		consumed += protocol.TagSize + payloadSize
	}

	if consumed > 0 {
		d.buf = append(d.buf[:0], d.buf[consumed:]...)
	}
	return frames, nil
}

// Pending returns the number of buffered bytes not yet forming a complete
// frame.
func (d *Decoder) Pending() int {
	return len(d.buf)
}

func decodeFrame(tag uint8, payload []byte) (protocol.Frame, error) {
	switch tag {
	case protocol.TagAudio:
		samples, err := protocol.DecodeAudioPayload(payload)
		if err != nil {
			return protocol.Frame{}, fmt.Errorf("failed to decode audio frame: %w", err)
		}
		return protocol.Frame{Tag: tag, Audio: samples}, nil
	case protocol.TagMotion:
		sample, err := protocol.DecodeMotionPayload(payload)
		if err != nil {
			return protocol.Frame{}, fmt.Errorf("failed to decode motion frame: %w", err)
		}
		return protocol.Frame{Tag: tag, Motion: &sample}, nil
	default:
		return protocol.Frame{}, fmt.Errorf("unknown frame tag: 0x%02x", tag)
	}
}

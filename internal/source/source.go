package source

import (
	"context"

	"github.com/okravets/sensor-uplink-service/internal/protocol"
)

// AudioSource produces fixed-size blocks of signed 32-bit PCM samples at
// the acquisition rate. PullBlock blocks until a full block is ready or
// the context expires; the blocking pull is what paces the acquisition
// loop. Samples are left-justified within their 32-bit storage regardless
// of the true bit depth of the capture hardware.
type AudioSource interface {
	PullBlock(ctx context.Context) ([]int32, error)
}

// MotionSource produces one 6-axis reading per call. The read is a
// synchronous bus transaction and does not fail; sensor faults are out of
// scope for the acquisition core.
type MotionSource interface {
	Read() protocol.MotionSample
}

package source

import (
	"math"
	"time"

	"github.com/okravets/sensor-uplink-service/internal/protocol"
)

const gravity = 9.80665 // m/s²

// SimMotionSource synthesizes a gentle oscillation around rest: gravity on
// the Z accelerometer axis plus small sinusoidal motion on the others.
// Reads are instantaneous, like a synchronous bus transaction.
type SimMotionSource struct {
	accelAmplitude float64 // m/s²
	gyroAmplitude  float64 // rad/s
	start          time.Time
	now            func() time.Time
}

// NewSimMotionSource creates a simulated motion sensor. Amplitudes of zero
// produce a perfectly still sensor reading gravity only.
func NewSimMotionSource(accelAmplitude, gyroAmplitude float64) *SimMotionSource {
	return &SimMotionSource{
		accelAmplitude: accelAmplitude,
		gyroAmplitude:  gyroAmplitude,
		start:          time.Now(),
		now:            time.Now,
	}
}

// Read returns the current simulated 6-axis reading.
func (s *SimMotionSource) Read() protocol.MotionSample {
	t := s.now().Sub(s.start).Seconds()

	return protocol.MotionSample{
		Ax: float32(s.accelAmplitude * math.Sin(2*math.Pi*0.5*t)),
		Ay: float32(s.accelAmplitude * math.Sin(2*math.Pi*0.3*t)),
		Az: float32(gravity + s.accelAmplitude*math.Sin(2*math.Pi*0.2*t)),
		Gx: float32(s.gyroAmplitude * math.Cos(2*math.Pi*0.5*t)),
		Gy: float32(s.gyroAmplitude * math.Cos(2*math.Pi*0.3*t)),
		Gz: float32(s.gyroAmplitude * math.Cos(2*math.Pi*0.2*t)),
	}
}

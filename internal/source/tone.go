package source

import (
	"context"
	"math"
)

// toneAmplitude is a half-scale 24-bit amplitude, matching the useful
// range of a 24-in-32 microphone sample.
const toneAmplitude = float64(1<<23-1) / 2

// ToneSource synthesizes a sine tone as left-justified 24-in-32 PCM
// blocks, paced to the configured sample rate.
type ToneSource struct {
	sampleRate int
	blockSize  int
	step       float64
	phase      float64
	pace       *pacer
}

// NewToneSource creates a paced tone generator.
func NewToneSource(sampleRate, blockSize int, frequency float64) *ToneSource {
	return &ToneSource{
		sampleRate: sampleRate,
		blockSize:  blockSize,
		step:       2 * math.Pi * frequency / float64(sampleRate),
		pace:       newPacer(sampleRate, blockSize),
	}
}

// PullBlock blocks until the next block boundary and returns a freshly
// synthesized block.
func (s *ToneSource) PullBlock(ctx context.Context) ([]int32, error) {
	if err := s.pace.wait(ctx); err != nil {
		return nil, err
	}

	block := make([]int32, s.blockSize)
	for i := range block {
		sample := int32(math.Round(toneAmplitude * math.Sin(s.phase)))
		block[i] = sample << 8 // left-justify 24-bit sample in 32-bit storage
		s.phase += s.step
	}
	// Keep the phase bounded over long runs.
	if s.phase > 2*math.Pi {
		s.phase = math.Mod(s.phase, 2*math.Pi)
	}

	return block, nil
}

package source

import (
	"context"
	"fmt"
	"os"

	"github.com/okravets/sensor-uplink-service/internal/audio"
)

// WAVSource replays a 16-bit mono WAV file as left-justified 32-bit
// blocks, paced to the file's sample rate and looping at end of file.
type WAVSource struct {
	samples   []int32
	blockSize int
	pos       int
	pace      *pacer

	// SampleRate is the rate read from the WAV header.
	SampleRate int
}

// NewWAVSource loads a WAV file and prepares it for paced playback.
func NewWAVSource(path string, blockSize int) (*WAVSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read WAV file %s: %w", path, err)
	}

	pcm16, sampleRate, err := audio.DecodeWAV(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode WAV file %s: %w", path, err)
	}
	if len(pcm16) < blockSize {
		return nil, fmt.Errorf("WAV file %s has %d samples, need at least one %d-sample block",
			path, len(pcm16), blockSize)
	}

	return &WAVSource{
		samples:    audio.Int16ToInt32(pcm16),
		blockSize:  blockSize,
		pace:       newPacer(sampleRate, blockSize),
		SampleRate: sampleRate,
	}, nil
}

// PullBlock blocks until the next block boundary and returns the next
// block of the file, wrapping around at the end.
func (s *WAVSource) PullBlock(ctx context.Context) ([]int32, error) {
	if err := s.pace.wait(ctx); err != nil {
		return nil, err
	}

	if s.pos+s.blockSize > len(s.samples) {
		s.pos = 0
	}
	block := make([]int32, s.blockSize)
	copy(block, s.samples[s.pos:s.pos+s.blockSize])
	s.pos += s.blockSize

	return block, nil
}

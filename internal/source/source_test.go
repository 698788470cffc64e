package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okravets/sensor-uplink-service/internal/audio"
)

func TestToneSourceBlockShape(t *testing.T) {
	src := NewToneSource(48000, 64, 440)

	block, err := src.PullBlock(context.Background())
	if err != nil {
		t.Fatalf("Expected no error but got: %v", err)
	}
	if len(block) != 64 {
		t.Fatalf("Expected 64 samples, got %d", len(block))
	}

	// Samples are 24-bit values left-justified in 32 bits.
	nonZero := false
	for i, s := range block {
		if s&0xFF != 0 {
			t.Fatalf("Sample %d is not left-justified: %#x", i, s)
		}
		if s != 0 {
			nonZero = true
		}
	}
	if !nonZero {
		t.Error("Expected a non-silent block")
	}
}

func TestToneSourceRespectsContext(t *testing.T) {
	src := NewToneSource(8000, 8000, 440) // one-second blocks

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := src.PullBlock(ctx)
	if err == nil {
		t.Fatal("Expected context error but got none")
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("PullBlock did not honor the context deadline, took %v", elapsed)
	}
}

func TestWAVSourceLoops(t *testing.T) {
	// Two blocks worth of samples; the third pull must wrap to the start.
	samples := make([]int16, 32)
	for i := range samples {
		samples[i] = int16(i + 1)
	}
	data, err := audio.EncodeWAV(samples, 16000)
	if err != nil {
		t.Fatalf("Failed to encode test WAV: %v", err)
	}
	path := filepath.Join(t.TempDir(), "test.wav")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write test WAV: %v", err)
	}

	src, err := NewWAVSource(path, 16)
	if err != nil {
		t.Fatalf("Expected no error but got: %v", err)
	}
	if src.SampleRate != 16000 {
		t.Errorf("Expected sample rate 16000 from header, got %d", src.SampleRate)
	}

	ctx := context.Background()
	first, err := src.PullBlock(ctx)
	if err != nil {
		t.Fatalf("Expected no error but got: %v", err)
	}
	if _, err := src.PullBlock(ctx); err != nil {
		t.Fatalf("Expected no error but got: %v", err)
	}
	third, err := src.PullBlock(ctx)
	if err != nil {
		t.Fatalf("Expected no error but got: %v", err)
	}

	if first[0] != int32(1)<<16 {
		t.Errorf("Expected first sample widened to %d, got %d", int32(1)<<16, first[0])
	}
	for i := range first {
		if third[i] != first[i] {
			t.Fatalf("Expected playback to loop; block 3 differs from block 1 at sample %d", i)
		}
	}
}

func TestWAVSourceTooShort(t *testing.T) {
	data, err := audio.EncodeWAV([]int16{1, 2, 3}, 16000)
	if err != nil {
		t.Fatalf("Failed to encode test WAV: %v", err)
	}
	path := filepath.Join(t.TempDir(), "short.wav")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write test WAV: %v", err)
	}

	if _, err := NewWAVSource(path, 512); err == nil {
		t.Error("Expected error for WAV shorter than one block but got none")
	}
}

func TestSimMotionSourceAtRest(t *testing.T) {
	src := NewSimMotionSource(0, 0)

	s := src.Read()
	if s.Az != float32(gravity) {
		t.Errorf("Expected gravity %f on Az, got %f", gravity, s.Az)
	}
	if s.Ax != 0 || s.Ay != 0 || s.Gx != 0 || s.Gy != 0 || s.Gz != 0 {
		t.Errorf("Expected all other axes at rest, got %v", s)
	}
}

func TestSimMotionSourceOscillates(t *testing.T) {
	src := NewSimMotionSource(1.0, 0.5)
	base := time.Now()
	src.now = func() time.Time { return base.Add(500 * time.Millisecond) }
	src.start = base

	s := src.Read()
	if s.Ax == 0 && s.Ay == 0 {
		t.Errorf("Expected non-zero simulated acceleration, got %v", s)
	}
}

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/okravets/sensor-uplink-service/internal/audio"
	"github.com/okravets/sensor-uplink-service/internal/capture"
	"github.com/okravets/sensor-uplink-service/internal/protocol"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:8088", "Uplink daemon address")
	duration := flag.Duration("duration", 10*time.Second, "How long to capture")
	sampleRate := flag.Int("sample-rate", 48000, "Audio sample rate of the device (Hz)")
	blockSize := flag.Int("block-size", 512, "Audio block size of the device (samples)")
	wavPath := flag.String("wav", "capture_audio.wav", "Output WAV file for audio")
	csvPath := flag.String("csv", "capture_motion.csv", "Output CSV file for motion samples")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	logger.Info("Connecting to uplink daemon",
		slog.String("addr", *addr),
		slog.Duration("duration", *duration),
		slog.Int("sample_rate", *sampleRate),
		slog.Int("block_size", *blockSize),
	)

	conn, err := net.DialTimeout("tcp", *addr, 5*time.Second)
	if err != nil {
		logger.Error("Failed to connect", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer conn.Close()

	audioSamples, motionSamples, elapsed, err := receive(conn, *duration, *blockSize, logger)
	if err != nil {
		logger.Error("Capture failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Capture finished",
		slog.Duration("elapsed", elapsed.Round(10*time.Millisecond)),
		slog.Int("audio_samples", len(audioSamples)),
		slog.Int("motion_samples", len(motionSamples)),
		slog.Float64("avg_audio_rate_hz", rate(len(audioSamples), elapsed)),
		slog.Float64("avg_motion_rate_hz", rate(len(motionSamples), elapsed)),
	)

	if len(audioSamples) > 0 {
		if err := writeWAV(*wavPath, audioSamples, *sampleRate); err != nil {
			logger.Error("Failed to write WAV file", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("Audio written", slog.String("path", *wavPath))
	} else {
		logger.Warn("No audio samples received")
	}

	if len(motionSamples) > 0 {
		if err := writeCSV(*csvPath, motionSamples); err != nil {
			logger.Error("Failed to write CSV file", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("Motion data written", slog.String("path", *csvPath))
	} else {
		logger.Warn("No motion samples received")
	}
}

// receive reads the stream for up to the requested duration, decoding
// frames incrementally. Returns early when the daemon closes the
// connection.
func receive(conn net.Conn, duration time.Duration, blockSize int, logger *slog.Logger) ([]int32, []protocol.MotionSample, time.Duration, error) {
	var (
		audioSamples  []int32
		motionSamples []protocol.MotionSample
		totalBytes    int
	)

	decoder := capture.NewDecoder(blockSize)
	buf := make([]byte, 4096)
	start := time.Now()
	deadline := start.Add(duration)
	lastStatus := start

	for time.Now().Before(deadline) {
		if err := conn.SetReadDeadline(time.Now().Add(time.Second)); err != nil {
			return audioSamples, motionSamples, time.Since(start), err
		}

		n, err := conn.Read(buf)
		if n > 0 {
			totalBytes += n
			frames, decErr := decoder.Feed(buf[:n])
			for _, frame := range frames {
				switch frame.Tag {
				case protocol.TagAudio:
					audioSamples = append(audioSamples, frame.Audio...)
				case protocol.TagMotion:
					motionSamples = append(motionSamples, *frame.Motion)
				}
			}
			if decErr != nil {
				return audioSamples, motionSamples, time.Since(start), decErr
			}
		}
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue // no data this second, keep waiting
			}
			if errors.Is(err, io.EOF) {
				logger.Info("Connection closed by the daemon")
				break
			}
			return audioSamples, motionSamples, time.Since(start), err
		}

		if now := time.Now(); now.Sub(lastStatus) >= time.Second {
			elapsed := now.Sub(start)
			logger.Info("Receiving...",
				slog.Duration("elapsed", elapsed.Round(100*time.Millisecond)),
				slog.Float64("rate_kb_s", float64(totalBytes)/elapsed.Seconds()/1024),
			)
			lastStatus = now
		}
	}

	return audioSamples, motionSamples, time.Since(start), nil
}

func writeWAV(path string, samples []int32, sampleRate int) error {
	data, err := audio.EncodeWAV(audio.Int32ToInt16(samples), sampleRate)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func writeCSV(path string, samples []protocol.MotionSample) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	return capture.WriteMotionCSV(f, samples)
}

func rate(count int, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	return float64(count) / elapsed.Seconds()
}

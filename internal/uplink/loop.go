package uplink

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/okravets/sensor-uplink-service/internal/metrics"
	"github.com/okravets/sensor-uplink-service/internal/protocol"
	"github.com/okravets/sensor-uplink-service/internal/source"
	"github.com/okravets/sensor-uplink-service/internal/transport"
)

// ConnectionSlot is the single-connection slot the loop drives. A nil
// connection from PollForConnection means nothing is pending.
type ConnectionSlot interface {
	PollForConnection() (transport.Conn, error)
	Teardown()
}

// LoopConfig contains the acquisition loop timing parameters.
type LoopConfig struct {
	// IdleInterval is how long to sleep when no collector is connected,
	// so the loop never busy-spins while idle.
	IdleInterval time.Duration

	// PullTimeout bounds one audio block acquisition so a stalled
	// peripheral cannot wedge the loop.
	PullTimeout time.Duration
}

// Stats is a snapshot of loop activity for monitoring.
type Stats struct {
	CyclesCompleted  uint64 `json:"cycles_completed"`
	CyclesFailed     uint64 `json:"cycles_failed"`
	AudioFramesSent  uint64 `json:"audio_frames_sent"`
	MotionFramesSent uint64 `json:"motion_frames_sent"`
	AudioReadErrors  uint64 `json:"audio_read_errors"`
}

// Loop orchestrates acquisition cycles: pull audio, pull motion, encode
// and send both in order, aborting the cycle and the connection on any
// transport failure. The blocking audio pull is the loop's natural rate
// limiter.
type Loop struct {
	audio  source.AudioSource
	motion source.MotionSource
	slot   ConnectionSlot
	enc    *Encoder
	cfg    LoopConfig

	logger  *slog.Logger
	metrics *metrics.Metrics

	// conn is the live connection, nil while disconnected. It is owned by
	// the single control flow of Run and never shared.
	conn transport.Conn

	mu    sync.RWMutex
	stats Stats
}

// NewLoop creates an acquisition loop. metrics may be nil.
func NewLoop(audio source.AudioSource, motion source.MotionSource, slot ConnectionSlot,
	enc *Encoder, cfg LoopConfig, logger *slog.Logger, m *metrics.Metrics) *Loop {

	if cfg.IdleInterval <= 0 {
		cfg.IdleInterval = 100 * time.Millisecond
	}
	if cfg.PullTimeout <= 0 {
		cfg.PullTimeout = 2 * time.Second
	}

	return &Loop{
		audio:   audio,
		motion:  motion,
		slot:    slot,
		enc:     enc,
		cfg:     cfg,
		logger:  logger,
		metrics: m,
	}
}

// Run drives acquisition cycles until ctx is cancelled, then tears down
// any live connection and returns.
func (l *Loop) Run(ctx context.Context) {
	l.logger.Info("Acquisition loop started",
		slog.Duration("idle_interval", l.cfg.IdleInterval),
		slog.Duration("pull_timeout", l.cfg.PullTimeout),
	)

	for ctx.Err() == nil {
		l.runCycle(ctx)
	}

	if l.conn != nil {
		l.teardown()
	}
	l.logger.Info("Acquisition loop stopped")
}

// runCycle performs one iteration: connection polling when disconnected,
// otherwise one pull-encode-send sequence.
func (l *Loop) runCycle(ctx context.Context) {
	if l.conn == nil {
		conn, err := l.slot.PollForConnection()
		if err != nil {
			l.logger.Error("Connection poll failed", slog.String("error", err.Error()))
			l.sleep(ctx, l.cfg.IdleInterval)
			return
		}
		if conn == nil {
			l.sleep(ctx, l.cfg.IdleInterval)
			return
		}
		l.conn = conn
		l.metrics.RecordConnectionAccepted()
	}

	cycleStart := time.Now()
	failed := false

	// The audio pull paces the cycle. A pull timeout or read error is
	// transient: the audio frame is skipped but the connection survives.
	pullCtx, cancel := context.WithTimeout(ctx, l.cfg.PullTimeout)
	block, err := l.audio.PullBlock(pullCtx)
	cancel()

	if err != nil {
		if ctx.Err() != nil {
			return // shutting down mid-pull
		}
		l.logger.Warn("Audio read failed, skipping audio frame",
			slog.String("error", err.Error()),
		)
		l.metrics.RecordAudioReadError()
		l.addStats(func(s *Stats) { s.AudioReadErrors++ })
	} else if len(block) > 0 {
		payload := protocol.EncodeAudioPayload(block)
		if err := l.enc.SendFrame(l.conn, protocol.TagAudio, payload); err != nil {
			l.logger.Error("Audio frame send failed",
				slog.Int("payload_size", len(payload)),
				slog.String("error", err.Error()),
			)
			l.metrics.RecordSendFailure("audio")
			failed = true
		} else {
			l.metrics.RecordFrameSent("audio", protocol.TagSize+len(payload))
			l.addStats(func(s *Stats) { s.AudioFramesSent++ })
		}
	}

	// The motion frame is only attempted when no transport failure has
	// occurred this cycle: the receiver must never see a motion tag after
	// a half-delivered audio frame. A skipped audio frame (read error or
	// empty block) still allows a standalone motion frame, since the
	// receiver discriminates frames by tag.
	if !failed {
		sample := l.motion.Read()
		payload := protocol.EncodeMotionPayload(sample)
		if err := l.enc.SendFrame(l.conn, protocol.TagMotion, payload); err != nil {
			l.logger.Error("Motion frame send failed",
				slog.String("error", err.Error()),
			)
			l.metrics.RecordSendFailure("motion")
			failed = true
		} else {
			l.metrics.RecordFrameSent("motion", protocol.TagSize+len(payload))
			l.addStats(func(s *Stats) { s.MotionFramesSent++ })
		}
	}

	l.metrics.RecordCycle(failed, time.Since(cycleStart).Seconds())
	if failed {
		l.addStats(func(s *Stats) { s.CyclesFailed++ })
		l.teardown()
		return
	}
	l.addStats(func(s *Stats) { s.CyclesCompleted++ })
}

// teardown discards the live connection; whatever frame was mid-flight is
// permanently lost, never retried on the next connection.
func (l *Loop) teardown() {
	l.conn = nil
	l.slot.Teardown()
	l.metrics.RecordTeardown()
}

// GetStats returns a snapshot of loop activity.
func (l *Loop) GetStats() Stats {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.stats
}

func (l *Loop) addStats(update func(*Stats)) {
	l.mu.Lock()
	update(&l.stats)
	l.mu.Unlock()
}

// sleep waits for the given duration or until ctx is cancelled.
func (l *Loop) sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

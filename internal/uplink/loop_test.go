package uplink

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/okravets/sensor-uplink-service/internal/capture"
	"github.com/okravets/sensor-uplink-service/internal/protocol"
	"github.com/okravets/sensor-uplink-service/internal/transport"
)

const testBlockSamples = 8

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// scriptConn records delivered bytes and can be scripted to fail after
// accepting a set number of bytes.
type scriptConn struct {
	written   []byte
	failAfter int // total bytes accepted before writes start failing; -1 = never
}

func newScriptConn() *scriptConn {
	return &scriptConn{failAfter: -1}
}

func (c *scriptConn) Write(p []byte) (int, error) {
	if c.failAfter < 0 {
		c.written = append(c.written, p...)
		return len(p), nil
	}
	room := c.failAfter - len(c.written)
	if room <= 0 {
		return 0, errors.New("connection reset")
	}
	if room >= len(p) {
		c.written = append(c.written, p...)
		return len(p), nil
	}
	c.written = append(c.written, p[:room]...)
	return room, errors.New("connection reset")
}

func (c *scriptConn) Alive() bool { return true }

// fakeSlot serves scripted connections and records the order of slot
// operations.
type fakeSlot struct {
	pending []transport.Conn
	events  []string
}

func (s *fakeSlot) PollForConnection() (transport.Conn, error) {
	s.events = append(s.events, "poll")
	if len(s.pending) == 0 {
		return nil, nil
	}
	conn := s.pending[0]
	s.pending = s.pending[1:]
	return conn, nil
}

func (s *fakeSlot) Teardown() {
	s.events = append(s.events, "teardown")
}

type fakeAudio struct {
	block []int32
	err   error
}

func (a *fakeAudio) PullBlock(ctx context.Context) ([]int32, error) {
	if a.err != nil {
		return nil, a.err
	}
	return a.block, nil
}

type fakeMotion struct {
	sample protocol.MotionSample
	reads  int
}

func (m *fakeMotion) Read() protocol.MotionSample {
	m.reads++
	return m.sample
}

func testBlock() []int32 {
	block := make([]int32, testBlockSamples)
	for i := range block {
		block[i] = int32(i+1) << 8
	}
	return block
}

func newTestLoop(slot ConnectionSlot, audio *fakeAudio, motion *fakeMotion) *Loop {
	enc := NewEncoder(transport.NewWriter(time.Second, time.Millisecond))
	cfg := LoopConfig{IdleInterval: time.Millisecond, PullTimeout: time.Second}
	return NewLoop(audio, motion, slot, enc, cfg, testLogger(), nil)
}

func TestCycleSendsAudioThenMotion(t *testing.T) {
	conn := newScriptConn()
	slot := &fakeSlot{pending: []transport.Conn{conn}}
	audio := &fakeAudio{block: testBlock()}
	motion := &fakeMotion{sample: protocol.MotionSample{Az: 9.81}}
	loop := newTestLoop(slot, audio, motion)

	// The cycle that accepts the connection proceeds straight into
	// acquisition, so two calls produce two full cycles.
	ctx := context.Background()
	loop.runCycle(ctx)
	loop.runCycle(ctx)

	dec := capture.NewDecoder(testBlockSamples)
	frames, err := dec.Feed(conn.written)
	if err != nil {
		t.Fatalf("Failed to decode sent stream: %v", err)
	}
	if len(frames) != 4 {
		t.Fatalf("Expected 4 frames over 2 cycles, got %d", len(frames))
	}
	for i, frame := range frames {
		wantTag := uint8(protocol.TagAudio)
		if i%2 == 1 {
			wantTag = protocol.TagMotion
		}
		if frame.Tag != wantTag {
			t.Errorf("Frame %d: expected tag %s, got %s", i,
				protocol.TagString(wantTag), protocol.TagString(frame.Tag))
		}
	}
	if frames[0].Audio[0] != 1<<8 {
		t.Errorf("Audio payload corrupted: got first sample %d", frames[0].Audio[0])
	}
	if frames[1].Motion.Az != 9.81 {
		t.Errorf("Motion payload corrupted: got Az %f", frames[1].Motion.Az)
	}

	stats := loop.GetStats()
	if stats.CyclesCompleted != 2 || stats.AudioFramesSent != 2 || stats.MotionFramesSent != 2 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
}

func TestAudioSendFailureSkipsMotionAndTearsDown(t *testing.T) {
	// The connection dies after accepting only the audio tag byte. The
	// motion frame must never be attempted, and teardown must happen
	// before the next poll.
	conn := newScriptConn()
	conn.failAfter = protocol.TagSize
	slot := &fakeSlot{pending: []transport.Conn{conn}}
	audio := &fakeAudio{block: testBlock()}
	motion := &fakeMotion{}
	loop := newTestLoop(slot, audio, motion)

	ctx := context.Background()
	loop.runCycle(ctx) // accepts, then fails mid audio frame
	loop.runCycle(ctx) // must poll again

	if motion.reads != 0 {
		t.Errorf("Motion must not be read after a failed audio frame, got %d reads", motion.reads)
	}
	if len(conn.written) != protocol.TagSize {
		t.Errorf("Expected only the tag byte on the wire, got %d bytes", len(conn.written))
	}

	want := []string{"poll", "teardown", "poll"}
	if len(slot.events) != len(want) {
		t.Fatalf("Expected events %v, got %v", want, slot.events)
	}
	for i := range want {
		if slot.events[i] != want[i] {
			t.Fatalf("Expected events %v, got %v", want, slot.events)
		}
	}

	stats := loop.GetStats()
	if stats.CyclesFailed != 1 || stats.AudioFramesSent != 0 || stats.MotionFramesSent != 0 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
}

func TestAudioReadErrorStillSendsMotion(t *testing.T) {
	// A transient acquisition fault skips the audio frame but the motion
	// frame proceeds standalone and the connection survives.
	conn := newScriptConn()
	slot := &fakeSlot{pending: []transport.Conn{conn}}
	audio := &fakeAudio{err: errors.New("dma underrun")}
	motion := &fakeMotion{sample: protocol.MotionSample{Gx: 0.5}}
	loop := newTestLoop(slot, audio, motion)

	loop.runCycle(context.Background()) // accepts and runs the cycle

	dec := capture.NewDecoder(testBlockSamples)
	frames, err := dec.Feed(conn.written)
	if err != nil {
		t.Fatalf("Failed to decode sent stream: %v", err)
	}
	if len(frames) != 1 || frames[0].Tag != protocol.TagMotion {
		t.Fatalf("Expected exactly one motion frame, got %d frames", len(frames))
	}

	for _, e := range slot.events {
		if e == "teardown" {
			t.Error("Audio read error must not tear down the connection")
		}
	}

	stats := loop.GetStats()
	if stats.AudioReadErrors != 1 || stats.MotionFramesSent != 1 || stats.CyclesCompleted != 1 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
}

func TestEmptyAudioBlockSendsMotionOnly(t *testing.T) {
	conn := newScriptConn()
	slot := &fakeSlot{pending: []transport.Conn{conn}}
	audio := &fakeAudio{block: nil} // no data, no error
	motion := &fakeMotion{}
	loop := newTestLoop(slot, audio, motion)

	loop.runCycle(context.Background()) // accepts and runs the cycle

	dec := capture.NewDecoder(testBlockSamples)
	frames, err := dec.Feed(conn.written)
	if err != nil {
		t.Fatalf("Failed to decode sent stream: %v", err)
	}
	if len(frames) != 1 || frames[0].Tag != protocol.TagMotion {
		t.Fatalf("Expected exactly one motion frame, got %d frames", len(frames))
	}

	stats := loop.GetStats()
	if stats.AudioReadErrors != 0 || stats.CyclesCompleted != 1 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
}

func TestMotionSendFailureTearsDown(t *testing.T) {
	conn := newScriptConn()
	audioWire := protocol.TagSize + protocol.AudioPayloadSize(testBlockSamples)
	conn.failAfter = audioWire + protocol.TagSize // dies after the motion tag
	slot := &fakeSlot{pending: []transport.Conn{conn}}
	audio := &fakeAudio{block: testBlock()}
	motion := &fakeMotion{}
	loop := newTestLoop(slot, audio, motion)

	loop.runCycle(context.Background()) // accepts, fails on the motion frame

	if motion.reads != 1 {
		t.Errorf("Expected exactly one motion read, got %d", motion.reads)
	}

	sawTeardown := false
	for _, e := range slot.events {
		if e == "teardown" {
			sawTeardown = true
		}
	}
	if !sawTeardown {
		t.Error("Expected teardown after motion send failure")
	}

	stats := loop.GetStats()
	if stats.CyclesFailed != 1 || stats.AudioFramesSent != 1 || stats.MotionFramesSent != 0 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
}

func TestIdleWhenNoConnection(t *testing.T) {
	slot := &fakeSlot{}
	loop := newTestLoop(slot, &fakeAudio{block: testBlock()}, &fakeMotion{})

	loop.runCycle(context.Background())

	if len(slot.events) != 1 || slot.events[0] != "poll" {
		t.Errorf("Expected a single poll while idle, got %v", slot.events)
	}
	stats := loop.GetStats()
	if stats.CyclesCompleted != 0 && stats.CyclesFailed != 0 {
		t.Errorf("Idle iteration must not count as a cycle: %+v", stats)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	slot := &fakeSlot{}
	loop := newTestLoop(slot, &fakeAudio{block: testBlock()}, &fakeMotion{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		loop.Run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}

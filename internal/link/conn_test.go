package link

import (
	"errors"
	"net"
	"testing"
	"time"

	"github.com/okravets/sensor-uplink-service/internal/transport"
)

func TestWriteAttemptTimeoutReportsNoProgress(t *testing.T) {
	// A peer that never reads must turn a write attempt into zero-byte
	// progress instead of an error or an indefinite block.
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	conn := newConn(server, testLogger())

	start := time.Now()
	n, err := conn.Write(make([]byte, 16))
	elapsed := time.Since(start)

	if n != 0 {
		t.Errorf("Expected 0 bytes accepted by a non-reading peer, got %d", n)
	}
	if err != nil {
		t.Errorf("Expected attempt timeout to surface as nil error, got %v", err)
	}
	if elapsed > 2*time.Second {
		t.Errorf("Write attempt took %v, expected it bounded by its deadline", elapsed)
	}
}

func TestWriteFullStalledPeerTimesOut(t *testing.T) {
	// End to end: a collector that stops draining its socket must trip the
	// writer's progress timeout rather than wedge the caller forever.
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	conn := newConn(server, testLogger())
	w := transport.NewWriter(300*time.Millisecond, time.Millisecond)

	done := make(chan error, 1)
	go func() {
		done <- w.WriteFull(conn, make([]byte, 4096))
	}()

	select {
	case err := <-done:
		if !errors.Is(err, transport.ErrProgressTimeout) {
			t.Fatalf("Expected progress timeout, got %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("WriteFull still blocked with a peer that never reads")
	}
}

func TestWriteDeliversToReadingPeer(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	conn := newConn(server, testLogger())
	w := transport.NewWriter(time.Second, time.Millisecond)

	payload := []byte{0x01, 0x02, 0x03, 0x04}
	got := make([]byte, len(payload))
	readDone := make(chan error, 1)
	go func() {
		_, err := client.Read(got)
		readDone <- err
	}()

	if err := w.WriteFull(conn, payload); err != nil {
		t.Fatalf("Expected write to a reading peer to succeed, got %v", err)
	}
	if err := <-readDone; err != nil {
		t.Fatalf("Peer read failed: %v", err)
	}
	for i := range payload {
		if got[i] != payload[i] {
			t.Fatalf("Delivered bytes %v do not match payload %v", got, payload)
		}
	}
}

package source

import (
	"context"
	"time"
)

// pacer spaces block production to real time, standing in for the DMA
// completion wait of a hardware audio interface. Each call to wait blocks
// until the next block boundary; production that falls behind catches up
// without sleeping.
type pacer struct {
	interval time.Duration
	next     time.Time
}

func newPacer(sampleRate, blockSize int) *pacer {
	return &pacer{
		interval: time.Duration(blockSize) * time.Second / time.Duration(sampleRate),
	}
}

func (p *pacer) wait(ctx context.Context) error {
	now := time.Now()
	if p.next.IsZero() || p.next.Before(now.Add(-p.interval)) {
		p.next = now
	}
	p.next = p.next.Add(p.interval)

	delay := time.Until(p.next)
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

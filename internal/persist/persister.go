// Package persist refreshes the durable progress record on a fixed cadence.
package persist

import (
	"context"
	"sync"
	"time"

	"github.com/ayo6706/token-payout/internal/observability"
	"github.com/ayo6706/token-payout/internal/recorder"
	"go.uber.org/zap"
)

// Persister asks the recorder for an intermediate snapshot at a fixed
// interval, independent of the dispatch cadence. A failed snapshot is logged
// and swallowed: the run prioritizes completing the batch over guaranteeing
// every intermediate snapshot lands. Stopped exactly once, by the finalizer.
type Persister struct {
	rec      recorder.Recorder
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

// New builds a persister with the given snapshot interval.
func New(rec recorder.Recorder, interval time.Duration) *Persister {
	return &Persister{
		rec:      rec,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start blocks and snapshots at the configured interval until Stop is called
// or ctx is canceled.
func (p *Persister) Start(ctx context.Context) {
	zap.L().Info("progress persister starting", zap.Duration("interval", p.interval))
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("progress persister context canceled")
			return
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.snapshot()
		}
	}
}

// Stop stops the loop; stopping twice is a no-op.
func (p *Persister) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopCh)
	})
}

// Run starts the persister in a goroutine and returns a stop function.
func (p *Persister) Run(ctx context.Context) func() {
	go p.Start(ctx)
	return p.Stop
}

func (p *Persister) snapshot() {
	if err := p.rec.Snapshot(false); err != nil {
		observability.IncrementSnapshot("failed")
		zap.L().Error("progress snapshot failed", zap.Error(err))
		return
	}
	observability.IncrementSnapshot("success")
}

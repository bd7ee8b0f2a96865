package persist

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ayo6706/token-payout/internal/domain"
	"github.com/stretchr/testify/assert"
)

type countingRecorder struct {
	mu      sync.Mutex
	calls   int
	finals  int
	failErr error
}

func (r *countingRecorder) UpdateStatus(domain.TransferRequest) {}

func (r *countingRecorder) Snapshot(final bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if final {
		r.finals++
	}
	return r.failErr
}

func (r *countingRecorder) SetTotals(string, string, string)             {}
func (r *countingRecorder) ReportErrors([]*domain.TransferRequest) error { return nil }

func (r *countingRecorder) snapshotCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func TestPersisterSnapshotsOnInterval(t *testing.T) {
	rec := &countingRecorder{}
	p := New(rec, 5*time.Millisecond)

	stop := p.Run(context.Background())
	assert.Eventually(t, func() bool { return rec.snapshotCalls() >= 2 }, time.Second, time.Millisecond)
	stop()

	// Only intermediate snapshots come from the persister.
	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, 0, rec.finals)
}

func TestPersisterSwallowsSnapshotErrors(t *testing.T) {
	rec := &countingRecorder{failErr: errors.New("disk full")}
	p := New(rec, 5*time.Millisecond)

	stop := p.Run(context.Background())
	assert.Eventually(t, func() bool { return rec.snapshotCalls() >= 3 }, time.Second, time.Millisecond)
	stop()
}

func TestPersisterStopIsIdempotent(t *testing.T) {
	rec := &countingRecorder{}
	p := New(rec, time.Hour)

	done := make(chan struct{})
	go func() {
		p.Start(context.Background())
		close(done)
	}()

	p.Stop()
	p.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("persister did not stop")
	}
	assert.Equal(t, 0, rec.snapshotCalls())
}

// Package tracker owns the lifecycle state machine and aggregate counters for
// every transfer request that entered the queue.
package tracker

import (
	"sync"

	"github.com/ayo6706/token-payout/internal/domain"
	"github.com/ayo6706/token-payout/internal/observability"
	"github.com/ayo6706/token-payout/internal/recorder"
	"go.uber.org/zap"
)

// RevertDiagnostic is recorded when a transaction was mined but rejected at
// execution level. Distinct from a submission failure: the network accepted
// the transaction and charged gas, yet no value moved.
const RevertDiagnostic = "token transfer rejected: contract paused or insufficient token balance"

// Tracker receives asynchronous completion notifications from the ledger
// client and maintains per-request state plus the run's aggregate counters.
// All mutators are safe under concurrent invocation from arbitrarily many
// completion callbacks plus the dispatch ticker.
type Tracker struct {
	rec        recorder.Recorder
	onFinished func()

	mu        sync.Mutex
	total     int
	completed int
	failed    int
	totalGas  uint64
	failures  []*domain.TransferRequest
}

// New builds a tracker for a batch of total accepted requests. onFinished is
// invoked exactly once, by whichever completion observes completed == total.
func New(total int, rec recorder.Recorder, onFinished func()) *Tracker {
	return &Tracker{
		rec:        rec,
		onFinished: onFinished,
		total:      total,
	}
}

// MarkPending transitions an accepted request from Queued to Pending when the
// dispatcher hands it to the ledger client. A request already past Pending is
// left untouched.
func (t *Tracker) MarkPending(req *domain.TransferRequest) {
	t.mu.Lock()
	if req.Status != domain.StatusQueued {
		t.mu.Unlock()
		return
	}
	req.Status = domain.StatusPending
	snap := *req
	t.mu.Unlock()

	t.rec.UpdateStatus(snap)
}

// MarkConfirmed records a settled receipt for a pending request. A reverted
// receipt is a semantic failure and routes to the failure path with the fixed
// diagnostic; the hash is still recorded since the transaction was mined.
// Gas of reverted transfers never enters the cumulative total.
func (t *Tracker) MarkConfirmed(req *domain.TransferRequest, hash string, gasUsed uint64, reverted bool) {
	if reverted {
		t.mu.Lock()
		req.Hash = hash
		t.mu.Unlock()
		t.MarkFailed(req, RevertDiagnostic)
		return
	}

	t.mu.Lock()
	if req.Status != domain.StatusPending {
		t.mu.Unlock()
		return
	}
	req.Status = domain.StatusConfirmed
	req.Hash = hash
	req.GasUsed = gasUsed
	t.totalGas += gasUsed
	snap := *req
	t.mu.Unlock()

	observability.IncrementOutcome("confirmed")
	observability.AddGasUsed(gasUsed)
	t.rec.UpdateStatus(snap)
	t.recordCompletion()
}

// MarkFailed records a terminal failure: a submission or network error, or
// the reverted-receipt case routed here by MarkConfirmed. The batch is never
// aborted by an individual failure.
func (t *Tracker) MarkFailed(req *domain.TransferRequest, msg string) {
	t.mu.Lock()
	if req.Status.Terminal() {
		t.mu.Unlock()
		return
	}
	req.Status = domain.StatusFailed
	req.ErrMsg = msg
	t.failed++
	t.failures = append(t.failures, req)
	snap := *req
	t.mu.Unlock()

	observability.IncrementOutcome("failed")
	zap.L().Warn("transfer failed",
		zap.Int("row", snap.Row),
		zap.String("to", snap.To),
		zap.String("error", msg))
	t.rec.UpdateStatus(snap)
	t.recordCompletion()
}

// recordCompletion increments the completed counter and fires the finish hook
// on the single invocation that observes completed == total. The increment
// and the comparison happen under one lock acquisition; racing completions
// can neither double-fire nor miss the trigger.
func (t *Tracker) recordCompletion() {
	t.mu.Lock()
	t.completed++
	finished := t.completed == t.total
	t.mu.Unlock()

	if finished && t.onFinished != nil {
		t.onFinished()
	}
}

// Totals returns a consistent view of the aggregate counters.
func (t *Tracker) Totals() (total, completed, failed int, totalGas uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.total, t.completed, t.failed, t.totalGas
}

// Failures returns a copy of the runtime failure collection.
func (t *Tracker) Failures() []*domain.TransferRequest {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*domain.TransferRequest, len(t.failures))
	copy(out, t.failures)
	return out
}

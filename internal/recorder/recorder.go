// Package recorder defines the durable progress store consumed by the engine.
package recorder

import (
	"github.com/ayo6706/token-payout/internal/domain"
)

// Recorder persists the visible state of every tracked request. All methods
// may be called concurrently from completion callbacks, the dispatch ticker
// and the snapshot ticker; implementations own their locking and must keep a
// single-writer-at-a-time discipline over the backing store.
type Recorder interface {
	// UpdateStatus records the current state of one request. The request is
	// passed by value: callers hand over a consistent copy taken under their
	// own lock, so the recorder never reads fields another goroutine is
	// still mutating.
	UpdateStatus(req domain.TransferRequest)

	// Snapshot persists the full current state. final marks the one
	// finalization snapshot that also carries the aggregate totals.
	Snapshot(final bool) error

	// SetTotals stages the aggregate totals written by the final snapshot.
	// totalUSD may be empty when no fiat quote was obtainable.
	SetTotals(totalGas, totalETH, totalUSD string)

	// ReportErrors emits the secondary error artifact covering quarantined
	// rows and runtime failures.
	ReportErrors(reqs []*domain.TransferRequest) error
}

// Package dispatch drains the transfer queue at a fixed cadence.
package dispatch

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/ayo6706/token-payout/internal/ledger"
	"github.com/ayo6706/token-payout/internal/observability"
	"github.com/ayo6706/token-payout/internal/queue"
	"github.com/ayo6706/token-payout/internal/tracker"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// State is the dispatcher's own lifecycle. Drained is terminal.
type State int32

const (
	StateIdle State = iota
	StateDraining
	StateDrained
)

// Scaler converts a human-unit amount to the token's base unit. Bound to the
// live token decimals during preflight.
type Scaler func(amount decimal.Decimal) (*big.Int, error)

// Dispatcher pops one request per tick and submits it. The interval is
// wall-clock fixed, independent of how long earlier submissions take to
// settle: the batch accepts many simultaneously pending transfers and relies
// on the network ordering same-account submissions by nonce. That throughput
// ceiling is the contract, not an accident, so the loop never waits for
// confirmations before the next tick.
type Dispatcher struct {
	queue    *queue.Queue
	client   ledger.Client
	tracker  *tracker.Tracker
	scale    Scaler
	interval time.Duration

	mu       sync.Mutex
	state    State
	stopCh   chan struct{}
	stopOnce sync.Once

	submitted int
}

// New builds an idle dispatcher over q.
func New(q *queue.Queue, client ledger.Client, trk *tracker.Tracker, scale Scaler, interval time.Duration) *Dispatcher {
	return &Dispatcher{
		queue:    q,
		client:   client,
		tracker:  trk,
		scale:    scale,
		interval: interval,
		state:    StateIdle,
		stopCh:   make(chan struct{}),
	}
}

// Start blocks and drains the queue at the configured interval. Ticks never
// overlap: a tick completes before the next can fire. Returns when the queue
// is drained, Stop is called, or ctx is canceled.
func (d *Dispatcher) Start(ctx context.Context) {
	d.setState(StateDraining)
	zap.L().Info("dispatcher starting", zap.Duration("interval", d.interval), zap.Int("queued", d.queue.Len()))

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	// Submit once immediately at startup.
	if done := d.tick(); done {
		return
	}

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("dispatcher context canceled")
			return
		case <-d.stopCh:
			zap.L().Info("dispatcher stop signal received")
			return
		case <-ticker.C:
			if done := d.tick(); done {
				return
			}
		}
	}
}

// Stop stops the loop. Stopping an already drained or stopped dispatcher is
// a no-op.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		close(d.stopCh)
	})
}

// Run starts the dispatcher in a goroutine and returns a stop function.
func (d *Dispatcher) Run(ctx context.Context) func() {
	go d.Start(ctx)
	return d.Stop
}

// State returns the current lifecycle state.
func (d *Dispatcher) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *Dispatcher) setState(s State) {
	d.mu.Lock()
	d.state = s
	d.mu.Unlock()
}

// tick submits exactly one request, or reports the queue drained. It returns
// immediately after handing the request to the client; settlement arrives
// later through the continuations.
func (d *Dispatcher) tick() (done bool) {
	req, ok := d.queue.Pop()
	if !ok {
		d.setState(StateDrained)
		d.Stop()
		zap.L().Info("queue drained", zap.Int("submitted", d.submitted))
		return true
	}

	d.tracker.MarkPending(req)

	baseAmount, err := d.scale(req.Amount)
	if err != nil {
		// Preflight scales every accepted amount, so this is a
		// defensive path; the request still reaches a terminal state.
		d.tracker.MarkFailed(req, err.Error())
		return false
	}

	r := req
	d.client.Submit(req.To, baseAmount,
		func(rec ledger.Receipt) {
			d.tracker.MarkConfirmed(r, rec.Hash, rec.GasUsed, rec.Reverted)
		},
		func(err error) {
			d.tracker.MarkFailed(r, err.Error())
		},
	)
	observability.IncrementSubmitted()

	d.submitted++
	if d.submitted%10 == 0 {
		zap.L().Info("transfers submitted", zap.Int("sent", d.submitted))
	}
	return false
}

package tracker

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ayo6706/token-payout/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRecorder struct {
	mu      sync.Mutex
	updates []domain.TransferRequest
}

func (s *stubRecorder) UpdateStatus(req domain.TransferRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, req)
}

func (s *stubRecorder) Snapshot(final bool) error                 { return nil }
func (s *stubRecorder) SetTotals(gas, eth, usd string)            {}
func (s *stubRecorder) ReportErrors(_ []*domain.TransferRequest) error { return nil }

func (s *stubRecorder) lastStatus() domain.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updates[len(s.updates)-1].Status
}

func newRequest(row int) *domain.TransferRequest {
	return domain.NewTransferRequest(row, "0x52908400098527886E0F7030069857D2E4169EE7", decimal.NewFromInt(1))
}

func TestMarkPendingTransitions(t *testing.T) {
	rec := &stubRecorder{}
	trk := New(1, rec, nil)
	req := newRequest(1)

	trk.MarkPending(req)
	assert.Equal(t, domain.StatusPending, req.Status)
	assert.Equal(t, domain.StatusPending, rec.lastStatus())
}

func TestMarkPendingIgnoredPastPending(t *testing.T) {
	rec := &stubRecorder{}
	trk := New(1, rec, nil)
	req := newRequest(1)

	trk.MarkPending(req)
	trk.MarkConfirmed(req, "0xabc", 21000, false)
	trk.MarkPending(req)
	assert.Equal(t, domain.StatusConfirmed, req.Status)
}

func TestMarkConfirmedRecordsGasAndHash(t *testing.T) {
	rec := &stubRecorder{}
	trk := New(2, rec, nil)
	first := newRequest(1)
	second := newRequest(2)

	trk.MarkPending(first)
	trk.MarkPending(second)
	trk.MarkConfirmed(first, "0xaaa", 21000, false)
	trk.MarkConfirmed(second, "0xbbb", 30000, false)

	assert.Equal(t, domain.StatusConfirmed, first.Status)
	assert.Equal(t, "0xaaa", first.Hash)
	assert.Equal(t, uint64(21000), first.GasUsed)

	_, completed, failed, totalGas := trk.Totals()
	assert.Equal(t, 2, completed)
	assert.Equal(t, 0, failed)
	assert.Equal(t, uint64(51000), totalGas)
}

func TestMarkFailedCountsAndCollects(t *testing.T) {
	rec := &stubRecorder{}
	trk := New(1, rec, nil)
	req := newRequest(1)

	trk.MarkPending(req)
	trk.MarkFailed(req, "connection reset")

	assert.Equal(t, domain.StatusFailed, req.Status)
	assert.Equal(t, "connection reset", req.ErrMsg)

	_, completed, failed, totalGas := trk.Totals()
	assert.Equal(t, 1, completed)
	assert.Equal(t, 1, failed)
	assert.Equal(t, uint64(0), totalGas)

	failures := trk.Failures()
	require.Len(t, failures, 1)
	assert.Same(t, req, failures[0])
}

func TestRevertedReceiptRoutesToFailure(t *testing.T) {
	rec := &stubRecorder{}
	trk := New(1, rec, nil)
	req := newRequest(1)

	trk.MarkPending(req)
	trk.MarkConfirmed(req, "0xdead", 52000, true)

	assert.Equal(t, domain.StatusFailed, req.Status)
	assert.Equal(t, RevertDiagnostic, req.ErrMsg)
	assert.Equal(t, "0xdead", req.Hash)

	// Gas of reverted transfers never enters the cumulative total.
	_, completed, failed, totalGas := trk.Totals()
	assert.Equal(t, 1, completed)
	assert.Equal(t, 1, failed)
	assert.Equal(t, uint64(0), totalGas)
}

func TestGasTotalSumsOnlyConfirmed(t *testing.T) {
	rec := &stubRecorder{}
	trk := New(3, rec, nil)
	reqs := []*domain.TransferRequest{newRequest(1), newRequest(2), newRequest(3)}
	for _, req := range reqs {
		trk.MarkPending(req)
	}

	trk.MarkConfirmed(reqs[0], "0x1", 21000, false)
	trk.MarkFailed(reqs[1], "timeout")
	trk.MarkConfirmed(reqs[2], "0x3", 40000, true)

	_, _, _, totalGas := trk.Totals()
	assert.Equal(t, uint64(21000), totalGas)
}

func TestFinalizeHookFiresExactlyOnce(t *testing.T) {
	const n = 100

	var fired atomic.Int32
	rec := &stubRecorder{}
	trk := New(n, rec, func() { fired.Add(1) })

	reqs := make([]*domain.TransferRequest, n)
	for i := range reqs {
		reqs[i] = newRequest(i + 1)
		trk.MarkPending(reqs[i])
	}

	var wg sync.WaitGroup
	for i, req := range reqs {
		wg.Add(1)
		go func(i int, req *domain.TransferRequest) {
			defer wg.Done()
			switch i % 3 {
			case 0:
				trk.MarkConfirmed(req, fmt.Sprintf("0x%x", i), 21000, false)
			case 1:
				trk.MarkFailed(req, "network error")
			default:
				trk.MarkConfirmed(req, fmt.Sprintf("0x%x", i), 21000, true)
			}
		}(i, req)
	}
	wg.Wait()

	assert.Equal(t, int32(1), fired.Load())

	for _, req := range reqs {
		assert.True(t, req.Status.Terminal())
	}

	total, completed, _, _ := trk.Totals()
	assert.Equal(t, total, completed)
}

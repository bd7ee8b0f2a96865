// Package report computes the end-of-run cost summary and emits the final
// artifacts.
package report

import (
	"context"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ayo6706/token-payout/internal/domain"
	"github.com/ayo6706/token-payout/internal/recorder"
	"github.com/ayo6706/token-payout/internal/tracker"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// weiPerETH scales the wei-denominated gas cost to ETH.
var weiPerETH = decimal.New(1, 18)

// Quoter fetches a best-effort fiat spot price for the network's native
// asset. A failing quote is tolerated: the fiat figure is simply omitted.
type Quoter interface {
	EthPrice(ctx context.Context) (decimal.Decimal, error)
}

// Finalizer runs once, when every dispatched request has reached a terminal
// state: it stops the progress persister, computes the cost report, writes
// the final snapshot and, when anything was quarantined or failed, the
// secondary error report.
type Finalizer struct {
	trk         *tracker.Tracker
	rec         recorder.Recorder
	quoter      Quoter
	stopPersist func()
	gasPrice    *big.Int
	quarantine  []*domain.TransferRequest

	once sync.Once
	done chan struct{}
}

// New builds a finalizer. gasPrice is the wei gas price snapshot taken at
// startup; quarantine holds the pre-validation rejects.
func New(trk *tracker.Tracker, rec recorder.Recorder, quoter Quoter, stopPersist func(), gasPrice *big.Int, quarantine []*domain.TransferRequest) *Finalizer {
	return &Finalizer{
		trk:         trk,
		rec:         rec,
		quoter:      quoter,
		stopPersist: stopPersist,
		gasPrice:    gasPrice,
		quarantine:  quarantine,
		done:        make(chan struct{}),
	}
}

// Finalize is the tracker's completion hook. The tracker's completion
// counter already guarantees a single invocation; repeat calls are ignored.
func (f *Finalizer) Finalize() {
	f.once.Do(f.run)
}

// Done is closed after the final snapshot and error report are written.
func (f *Finalizer) Done() <-chan struct{} {
	return f.done
}

func (f *Finalizer) run() {
	defer close(f.done)

	f.stopPersist()

	total, _, failed, totalGas := f.trk.Totals()
	zap.L().Info("batch finished", zap.Int("processed", total), zap.Int("errors", failed))

	gasDec := decimal.NewFromBigInt(new(big.Int).SetUint64(totalGas), 0)
	totalETH := decimal.NewFromBigInt(f.gasPrice, 0).Mul(gasDec).DivRound(weiPerETH, 18)
	totalETHStr := trimZeros(totalETH)

	totalUSDStr := ""
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	price, err := f.quoter.EthPrice(ctx)
	if err != nil {
		zap.L().Warn("fiat quote unavailable, omitting USD total", zap.Error(err))
	} else {
		totalUSDStr = totalETH.Mul(price).StringFixed(2)
	}

	zap.L().Info("cost summary",
		zap.Uint64("total_gas", totalGas),
		zap.String("total_eth", totalETHStr),
		zap.String("total_usd", totalUSDStr))

	f.rec.SetTotals(gasDec.String(), totalETHStr, totalUSDStr)
	if err := f.rec.Snapshot(true); err != nil {
		zap.L().Error("final snapshot failed", zap.Error(err))
	}

	failures := f.trk.Failures()
	if len(f.quarantine) == 0 && len(failures) == 0 {
		return
	}
	errs := make([]*domain.TransferRequest, 0, len(f.quarantine)+len(failures))
	errs = append(errs, f.quarantine...)
	errs = append(errs, failures...)
	if err := f.rec.ReportErrors(errs); err != nil {
		zap.L().Error("error report failed", zap.Error(err))
	}
}

// trimZeros renders d without trailing fractional zeros.
func trimZeros(d decimal.Decimal) string {
	s := d.String()
	if !strings.Contains(s, ".") {
		return s
	}
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var (
	registerOnce     sync.Once
	submittedCounter prometheus.Counter
	outcomeCounter   *prometheus.CounterVec
	gasUsedCounter   prometheus.Counter
	snapshotCounter  *prometheus.CounterVec
)

// Init registers all Prometheus collectors.
func Init() {
	registerOnce.Do(func() {
		submittedCounter = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "payout_transfers_submitted_total",
			Help: "Transfer requests handed to the ledger client",
		})

		outcomeCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payout_transfers_completed_total",
			Help: "Terminal transfer outcomes",
		}, []string{"outcome"})

		gasUsedCounter = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "payout_gas_used_total",
			Help: "Cumulative gas consumed by confirmed transfers",
		})

		snapshotCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payout_snapshots_total",
			Help: "Progress snapshot attempts by result",
		}, []string{"result"})

		prometheus.MustRegister(
			submittedCounter,
			outcomeCounter,
			gasUsedCounter,
			snapshotCounter,
		)
	})
}

func IncrementSubmitted() {
	if submittedCounter == nil {
		return
	}
	submittedCounter.Inc()
}

func IncrementOutcome(outcome string) {
	if outcomeCounter == nil {
		return
	}
	outcomeCounter.WithLabelValues(outcome).Inc()
}

func AddGasUsed(gas uint64) {
	if gasUsedCounter == nil {
		return
	}
	gasUsedCounter.Add(float64(gas))
}

func IncrementSnapshot(result string) {
	if snapshotCounter == nil {
		return
	}
	snapshotCounter.WithLabelValues(result).Inc()
}

// Serve exposes /metrics on addr in a background goroutine. A listen failure
// is logged and otherwise ignored; metrics are never load-bearing for a run.
func Serve(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil {
			zap.L().Warn("metrics listener stopped", zap.String("addr", addr), zap.Error(err))
		}
	}()
}

package observability

import (
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeExposesMetrics(t *testing.T) {
	Init()
	IncrementSubmitted()

	addr := "127.0.0.1:29187"
	Serve(addr)

	var body string
	assert.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/metrics")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return false
		}
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return false
		}
		body = string(b)
		return true
	}, 2*time.Second, 20*time.Millisecond)

	require.NotEmpty(t, body)
	assert.True(t, strings.Contains(body, "payout_transfers_submitted_total"))
}

func TestHelpersNeverPanic(t *testing.T) {
	// The helpers are nil-guarded so callers do not care whether Init ran.
	assert.NotPanics(t, func() {
		IncrementOutcome("confirmed")
		AddGasUsed(21000)
		IncrementSnapshot("success")
	})
}

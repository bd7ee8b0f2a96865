// Package csvbook is the file-backed recorder: it parses the input table,
// quarantines rows that fail pre-validation, and rewrites timestamped
// progress and error reports into a sibling progress directory.
package csvbook

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ayo6706/token-payout/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const timestampLayout = "02-01-15.04.05"

var statusHeader = []string{"Address", "Amount", "Status", "Gas used", "Tx hash", "Error"}

// Book owns the run's whole persisted state: every parsed row, accepted or
// quarantined, plus the aggregate totals staged by the finalizer. One mutex
// guards all of it; status updates and snapshots are mutually exclusive, so
// each snapshot is a consistent view.
type Book struct {
	inputPath   string
	name        string
	progressDir string

	mu    sync.Mutex
	runID string
	rows  []domain.TransferRequest
	index map[int]int

	totalAmount decimal.Decimal

	totalGas string
	totalETH string
	totalUSD string
	final    bool
}

// Open prepares a book over the input table at path. Nothing is read until
// Parse.
func Open(path string) (*Book, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve input path: %w", err)
	}
	if _, err := os.Stat(abs); err != nil {
		return nil, fmt.Errorf("open input table: %w", err)
	}

	base := filepath.Base(abs)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return &Book{
		inputPath:   abs,
		name:        name,
		progressDir: filepath.Join(filepath.Dir(abs), name+"_progress"),
	}, nil
}

// SetRunID tags every subsequent snapshot with the run's identifier, so an
// operator can match a progress file back to the log stream that produced it.
func (b *Book) SetRunID(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.runID = id
}

// ProgressDir returns the directory snapshots and reports are written to.
func (b *Book) ProgressDir() string {
	return b.progressDir
}

// Parse reads the input table: a header row followed by address,amount rows.
// Valid rows come back queued and in input order; invalid rows are
// quarantined with a reason status and never dispatched. A parse-time
// snapshot is written so the operator sees the validation outcome before any
// submission happens.
func (b *Book) Parse() (accepted, quarantined []*domain.TransferRequest, err error) {
	f, err := os.Open(b.inputPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open input table: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read input table: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("input table is empty")
	}

	zap.L().Info("parsing input table", zap.Int("rows", len(records)-1))

	b.mu.Lock()
	b.index = make(map[int]int)
	total := decimal.Zero
	for i, rec := range records[1:] {
		row := i + 1
		address, amount := "", ""
		if len(rec) > 0 {
			address = strings.TrimSpace(rec[0])
		}
		if len(rec) > 1 {
			amount = strings.TrimSpace(rec[1])
		}

		if !domain.ValidAddress(address) {
			zap.L().Warn("invalid address, row skipped", zap.Int("row", row))
			req := domain.NewQuarantined(address, amount, domain.StatusAddressInvalid)
			quarantined = append(quarantined, req)
			b.rows = append(b.rows, *req)
			continue
		}

		dec, decErr := decimal.NewFromString(amount)
		if !domain.ValidAmount(amount) || decErr != nil {
			zap.L().Warn("invalid amount, row skipped", zap.Int("row", row))
			req := domain.NewQuarantined(address, amount, domain.StatusAmountInvalid)
			quarantined = append(quarantined, req)
			b.rows = append(b.rows, *req)
			continue
		}

		req := domain.NewTransferRequest(row, address, dec)
		accepted = append(accepted, req)
		total = total.Add(dec)
		b.index[row] = len(b.rows)
		b.rows = append(b.rows, *req)
	}
	b.totalAmount = total
	b.mu.Unlock()

	zap.L().Info("input table parsed",
		zap.Int("accepted", len(accepted)),
		zap.Int("quarantined", len(quarantined)))

	if err := b.writeSnapshot("parsing"); err != nil {
		return nil, nil, fmt.Errorf("write parse snapshot: %w", err)
	}
	return accepted, quarantined, nil
}

// TotalAmount is the sum of the accepted amounts in human units.
func (b *Book) TotalAmount() decimal.Decimal {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.totalAmount
}

// UpdateStatus copies the request's visible state into the book's row for it.
// Unknown rows (quarantined requests never get updates) are ignored.
func (b *Book) UpdateStatus(req domain.TransferRequest) {
	b.mu.Lock()
	defer b.mu.Unlock()
	idx, ok := b.index[req.Row]
	if !ok {
		return
	}
	b.rows[idx] = req
}

// SetTotals stages the aggregate totals for the final snapshot.
func (b *Book) SetTotals(totalGas, totalETH, totalUSD string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.totalGas = totalGas
	b.totalETH = totalETH
	b.totalUSD = totalUSD
	b.final = true
}

// Snapshot writes the full current state to a new timestamped file in the
// progress directory.
func (b *Book) Snapshot(final bool) error {
	label := b.name
	if err := b.writeSnapshot(""); err != nil {
		return err
	}
	if final {
		zap.L().Info("final snapshot written", zap.String("book", label))
	}
	return nil
}

// ReportErrors writes the secondary error artifact: quarantined rows flagged
// by their validation failure plus runtime failures with their messages.
func (b *Book) ReportErrors(reqs []*domain.TransferRequest) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	records := [][]string{{"Address", "Amount", "Reason", "Error"}}
	for _, req := range reqs {
		reason := ""
		switch req.Status {
		case domain.StatusAddressInvalid:
			reason = "invalid address"
		case domain.StatusAmountInvalid:
			reason = "invalid amount"
		case domain.StatusFailed:
			reason = "transfer failed"
		}
		records = append(records, []string{req.To, req.RawAmount, reason, req.ErrMsg})
	}

	path := filepath.Join(b.progressDir, fmt.Sprintf("%s_err_%s.csv", b.name, time.Now().Format(timestampLayout)))
	if err := b.writeFile(path, records); err != nil {
		return err
	}
	zap.L().Info("error report written", zap.String("path", path), zap.Int("rows", len(reqs)))
	return nil
}

// writeSnapshot renders every parsed row plus, on a finalized book, the
// totals header. suffix distinguishes the parse-time snapshot file name.
func (b *Book) writeSnapshot(suffix string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var records [][]string
	if b.runID != "" {
		records = append(records, []string{"Run", b.runID}, []string{})
	}
	records = append(records, statusHeader)
	for _, req := range b.rows {
		gas := ""
		if req.GasUsed > 0 {
			gas = strconv.FormatUint(req.GasUsed, 10)
		}
		records = append(records, []string{
			req.To,
			req.RawAmount,
			string(req.Status),
			gas,
			req.Hash,
			req.ErrMsg,
		})
	}
	if b.final {
		records = append(records,
			[]string{},
			[]string{"Total gas", b.totalGas},
			[]string{"Total ETH", b.totalETH},
			[]string{"Total USD", b.totalUSD},
		)
	}

	stamp := time.Now().Format(timestampLayout)
	fileName := fmt.Sprintf("%s_%s.csv", b.name, stamp)
	if suffix != "" {
		fileName = fmt.Sprintf("%s_%s_%s.csv", b.name, suffix, stamp)
	}
	path := filepath.Join(b.progressDir, fileName)
	if err := b.writeFile(path, records); err != nil {
		return err
	}
	zap.L().Info("progress written", zap.String("path", path))
	return nil
}

// writeFile creates the progress directory on first use and writes one CSV
// atomically enough for an operator artifact: a temp file renamed into place.
func (b *Book) writeFile(path string, records [][]string) error {
	if err := os.MkdirAll(b.progressDir, 0o755); err != nil {
		return fmt.Errorf("create progress dir: %w", err)
	}

	tmp, err := os.CreateTemp(b.progressDir, ".snapshot-*")
	if err != nil {
		return fmt.Errorf("create snapshot file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.WriteAll(records); err != nil {
		tmp.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("publish snapshot: %w", err)
	}
	return nil
}

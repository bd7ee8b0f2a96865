package domain

import (
	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a transfer request.
// Accepted rows progress Queued -> Pending -> Confirmed or Failed.
// The two parsing statuses are quarantine-only: rows carrying them never
// enter the queue and never count toward the batch total.
type Status string

const (
	StatusQueued    Status = "QUEUED"
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusFailed    Status = "FAILED"

	StatusAddressInvalid Status = "ADDRESS_INVALID"
	StatusAmountInvalid  Status = "AMOUNT_INVALID"
)

// Terminal reports whether s is a terminal lifecycle state.
func (s Status) Terminal() bool {
	return s == StatusConfirmed || s == StatusFailed
}

// Quarantined reports whether s is a pre-validation rejection.
func (s Status) Quarantined() bool {
	return s == StatusAddressInvalid || s == StatusAmountInvalid
}

// TransferRequest is one value-transfer instruction from the input table.
// Row is the position in the original input ordering; it stays -1 for rows
// that failed pre-validation and never qualified for dispatch. A request is
// created once by parsing and only ever mutated afterwards, never deleted.
type TransferRequest struct {
	Row    int
	To     string
	Amount decimal.Decimal

	// RawAmount keeps the input text verbatim so quarantined rows can be
	// reported even when the amount never parsed as a decimal.
	RawAmount string

	Status  Status
	Hash    string
	GasUsed uint64
	ErrMsg  string
}

// NewTransferRequest builds an accepted, queued request at input position row.
func NewTransferRequest(row int, to string, amount decimal.Decimal) *TransferRequest {
	return &TransferRequest{
		Row:       row,
		To:        to,
		Amount:    amount,
		RawAmount: amount.String(),
		Status:    StatusQueued,
	}
}

// NewQuarantined builds a pre-validation reject carrying the raw input text.
func NewQuarantined(to, rawAmount string, status Status) *TransferRequest {
	return &TransferRequest{
		Row:       -1,
		To:        to,
		RawAmount: rawAmount,
		Status:    status,
	}
}

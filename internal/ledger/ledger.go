// Package ledger defines the contract between the dispatch engine and the
// remote transaction network.
package ledger

import (
	"context"
	"math/big"
)

// Receipt is the terminal on-chain result of one submission attempt.
// Reverted marks a transaction that was mined but rejected at execution
// level; the engine treats that as a semantic failure, never a confirmation.
type Receipt struct {
	Hash     string
	GasUsed  uint64
	Reverted bool
}

// Client is the ledger network client consumed by the engine. GasPrice,
// AssetDecimals and Balance are each queried once at startup.
//
// Submit is fire-and-forget: it must return without waiting for settlement
// and later invoke exactly one of the two continuations from the client's own
// concurrency domain. Continuation arrival order is unrelated to submission
// order. There is no cancellation and no timeout for an in-flight transfer;
// a submission whose receipt never arrives stalls finalization of the batch.
type Client interface {
	GasPrice(ctx context.Context) (*big.Int, error)
	AssetDecimals(ctx context.Context) (uint8, error)
	Balance(ctx context.Context) (*big.Int, error)
	Submit(recipient string, baseAmount *big.Int, onReceipt func(Receipt), onError func(error))
}

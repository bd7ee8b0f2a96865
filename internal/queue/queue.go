// Package queue holds the ordered backlog of accepted transfer requests.
package queue

import (
	"sync"

	"github.com/ayo6706/token-payout/internal/domain"
)

// Queue is a strict FIFO over accepted transfer requests. Dispatch order must
// match input order so every emitted status row stays correlated with its
// input row, so there is no priority, no re-insertion and no dedup: duplicate
// recipient/amount pairs are dispatched independently.
type Queue struct {
	mu   sync.Mutex
	reqs []*domain.TransferRequest
}

// New builds a queue over reqs in the given order.
func New(reqs []*domain.TransferRequest) *Queue {
	return &Queue{reqs: reqs}
}

// Pop removes and returns the front request. ok is false when the queue is
// exhausted.
func (q *Queue) Pop() (req *domain.TransferRequest, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.reqs) == 0 {
		return nil, false
	}
	req = q.reqs[0]
	q.reqs = q.reqs[1:]
	return req, true
}

// Len is advisory only; the authoritative emptiness signal is Pop's ok result.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.reqs)
}

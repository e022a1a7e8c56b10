package workspace

import (
	"github.com/nguyendangtritoan/german-note/internal/domain"
)

// pendingQuery is a search received before the identity was bound.
type pendingQuery struct {
	query string
	focus *string
}

// queryQueue is a bounded FIFO of pending searches. Not safe for concurrent
// use; the workspace mutex guards it.
type queryQueue struct {
	items []pendingQuery
	limit int
}

func newQueryQueue(limit int) *queryQueue {
	return &queryQueue{limit: limit}
}

// push appends q and returns its 1-based position.
func (q *queryQueue) push(p pendingQuery) (int, error) {
	if len(q.items) >= q.limit {
		return 0, domain.ErrQueueFull
	}
	q.items = append(q.items, p)
	return len(q.items), nil
}

// pop removes and returns the oldest query.
func (q *queryQueue) pop() (pendingQuery, bool) {
	if len(q.items) == 0 {
		return pendingQuery{}, false
	}
	p := q.items[0]
	q.items[0] = pendingQuery{}
	q.items = q.items[1:]
	return p, true
}

// drop discards every pending query and returns how many there were.
func (q *queryQueue) drop() int {
	n := len(q.items)
	q.items = nil
	return n
}

func (q *queryQueue) len() int { return len(q.items) }

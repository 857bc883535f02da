package bridge

import (
	"sync"

	"github.com/robbyt/go-rbridge/command"
)

type inputKind int

const (
	inputComment inputKind = iota
	inputResult
	inputFireAndForget
)

func (k inputKind) String() string {
	switch k {
	case inputComment:
		return "comment"
	case inputResult:
		return "result"
	case inputFireAndForget:
		return "fire-and-forget"
	default:
		return "unknown"
	}
}

// input is one queued item. future is set only for inputResult.
type input struct {
	kind    inputKind
	comment string
	cmd     command.Command
	future  *Future
}

// inputQueue is an unbounded FIFO with a blocking take. Producers never block.
type inputQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []*input
	closed bool
}

func newInputQueue() *inputQueue {
	q := &inputQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// push appends an item. It reports false if the queue is closed.
func (q *inputQueue) push(in *input) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	q.items = append(q.items, in)
	q.cond.Signal()
	return true
}

// take blocks until an item is available. It returns false once the queue is closed and empty.
func (q *inputQueue) take() (*input, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 {
		if q.closed {
			return nil, false
		}
		q.cond.Wait()
	}
	in := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return in, true
}

func (q *inputQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// close stops further pushes. Items already queued can still be taken.
func (q *inputQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.cond.Broadcast()
}

// drain closes the queue and removes everything still in it.
func (q *inputQueue) drain() []*input {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	items := q.items
	q.items = nil
	q.cond.Broadcast()
	return items
}

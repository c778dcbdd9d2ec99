package worker

import "sync"

// Stream identifies which worker output a line came from
type Stream int

const (
	Stdout Stream = iota
	Stderr
)

func (s Stream) String() string {
	if s == Stderr {
		return "stderr"
	}
	return "stdout"
}

// Line is one line of worker output tagged with its stream
type Line struct {
	Stream Stream
	Text   string
}

// Queue is an unbounded multi-producer, single-consumer line queue.
// Push never blocks on the consumer.
type Queue struct {
	mu    sync.Mutex
	items []Line
	head  int
}

// NewQueue creates an empty queue
func NewQueue() *Queue {
	return &Queue{}
}

// Push appends a line
func (q *Queue) Push(l Line) {
	q.mu.Lock()
	q.items = append(q.items, l)
	q.mu.Unlock()
}

// Drain removes and returns up to max lines in arrival order.
// max <= 0 drains everything.
func (q *Queue) Drain(max int) []Line {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := len(q.items) - q.head
	if n == 0 {
		return nil
	}
	if max > 0 && n > max {
		n = max
	}

	out := make([]Line, n)
	copy(out, q.items[q.head:q.head+n])
	q.head += n

	if q.head == len(q.items) {
		q.items = q.items[:0]
		q.head = 0
	} else if q.head > 4096 && q.head > len(q.items)/2 {
		// compact once the consumed prefix dominates
		remaining := copy(q.items, q.items[q.head:])
		clear(q.items[remaining:])
		q.items = q.items[:remaining]
		q.head = 0
	}
	return out
}

// Len returns the number of queued lines
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) - q.head
}

// Reset discards everything queued
func (q *Queue) Reset() {
	q.mu.Lock()
	q.items = nil
	q.head = 0
	q.mu.Unlock()
}

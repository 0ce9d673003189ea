package audit

import (
	"context"
	"sync"
	"sync/atomic"
)

// MemoryLog is an append-only in-process ledger.
// Appends are serialized; queries read a published slice header and never
// wait for writers.
type MemoryLog struct {
	mu      sync.Mutex
	entries atomic.Pointer[[]Entry]
	fail    error
}

func NewMemoryLog() *MemoryLog {
	l := &MemoryLog{}
	empty := make([]Entry, 0, 64)
	l.entries.Store(&empty)
	return l
}

// Append validates e, assigns the next sequence number and publishes it.
func (l *MemoryLog) Append(e Entry) (Entry, error) {
	if err := e.Validate(); err != nil {
		return Entry{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.fail != nil {
		return Entry{}, l.fail
	}

	cur := *l.entries.Load()
	e.Seq = int64(len(cur)) + 1
	next := append(cur, e)
	l.entries.Store(&next)
	return e, nil
}

// FailWith makes subsequent appends return err until cleared with nil.
// It simulates an unavailable ledger.
func (l *MemoryLog) FailWith(err error) {
	l.mu.Lock()
	l.fail = err
	l.mu.Unlock()
}

// Query returns matching entries, newest first.
func (l *MemoryLog) Query(_ context.Context, c Criteria) ([]Entry, error) {
	c = c.Normalized()
	all := *l.entries.Load()

	out := make([]Entry, 0, min(len(all), c.Limit))
	for _, e := range all {
		if c.Matches(e) {
			out = append(out, e)
		}
	}
	SortNewestFirst(out)
	if len(out) > c.Limit {
		out = out[:c.Limit]
	}
	return out, nil
}

// Len returns the number of entries appended so far.
func (l *MemoryLog) Len() int {
	return len(*l.entries.Load())
}

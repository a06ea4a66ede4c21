package engine

import "sync/atomic"

// SeqSource hands out batch sequence numbers.
type SeqSource interface {
	Next() int64
}

// Clock is a monotonic logical clock that numbers dispatched batches.
//
// Batch numbers are strictly increasing per clock, never wall-clock time.
// Several Sequences may share one clock so that batches for different
// targets are totally ordered in the journal.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock starting at a specific sequence number.
// Used to continue numbering after the last batch found in a journal.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}

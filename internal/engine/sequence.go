package engine

import (
	"errors"
	"log/slog"
	"math"

	"github.com/roach88/drawseq/internal/ir"
)

// DefaultFlushThreshold is the pending-instruction count that triggers an
// automatic flush when no WithFlushThreshold option is given.
const DefaultFlushThreshold = 1000

// Option configures a Sequence.
type Option func(*Sequence)

// WithFlushThreshold sets how many instructions may be pending before an
// append flushes automatically. Must be at least 1.
func WithFlushThreshold(n int) Option {
	return func(s *Sequence) {
		s.threshold = n
	}
}

// WithAllocator sets the allocator for chain nodes and owned buffers.
// Defaults to HeapAllocator.
func WithAllocator(a Allocator) Option {
	return func(s *Sequence) {
		s.alloc = a
	}
}

// WithCodePage sets the encoding stamped on text instructions.
// Defaults to UTF-8.
func WithCodePage(cp ir.CodePage) Option {
	return func(s *Sequence) {
		s.codePage = cp
	}
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Sequence) {
		s.logger = l
	}
}

// WithObserver registers a callback that runs after every dispatch.
func WithObserver(o Observer) Option {
	return func(s *Sequence) {
		s.observer = o
	}
}

// WithClock sets the source of batch sequence numbers. Sequences that share
// a journal should share a clock.
func WithClock(c SeqSource) Option {
	return func(s *Sequence) {
		s.clock = c
	}
}

// styleCache remembers the last fill color, stroke color and line width the
// Sequence emitted, so repeated identical setters can be elided.
type styleCache struct {
	fill        ir.Color
	fillValid   bool
	stroke      ir.Color
	strokeValid bool
	lineWidth   float64 // NaN when unknown; NaN never compares equal
}

func (c *styleCache) invalidate() {
	c.fillValid = false
	c.strokeValid = false
	c.lineWidth = math.NaN()
}

// Stats counts what a Sequence has done over its lifetime.
type Stats struct {
	Appended   int64 `json:"appended"`
	Suppressed int64 `json:"suppressed"`
	Batches    int64 `json:"batches"`
	Failed     int64 `json:"failed"`
}

// Sequence is an ordered batch of drawing instructions bound to one target.
//
// Appends accumulate nodes in FIFO order. The batch is handed to the
// Dispatcher in a single call when the pending count reaches the threshold,
// when a query is appended, on Flush and on Close. After each dispatch
// every node and owned buffer is released exactly once.
//
// INVARIANTS:
//   - head == nil if and only if pending == 0
//   - the style cache is valid only while no Restore or Reset has been
//     appended since it was set
//   - nodes are freed only by the teardown walk after a dispatch
//
// A Sequence is owned by one goroutine. Calling any method on a nil or
// closed Sequence, or from inside its own dispatch, panics with a
// *ContractError.
type Sequence struct {
	target     Target
	dispatcher Dispatcher
	alloc      Allocator
	threshold  int
	codePage   ir.CodePage
	logger     *slog.Logger
	observer   Observer
	clock      SeqSource

	head, tail *Node
	pending    int
	cache      styleCache

	dispatching bool
	closed      bool

	// deferred holds dispatch errors from autoflushes that no caller has
	// seen yet.
	deferred error
	stats    Stats
}

// New creates a Sequence for target that dispatches through d.
//
// Returns a *ContractError with code INVALID_CONFIG if the target is empty,
// d is nil, the threshold is below 1 or the code page is unsupported.
func New(target Target, d Dispatcher, opts ...Option) (*Sequence, error) {
	s := &Sequence{
		target:     target,
		dispatcher: d,
		alloc:      HeapAllocator{},
		threshold:  DefaultFlushThreshold,
		codePage:   ir.DefaultCodePage,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cache.invalidate()

	switch {
	case target == "":
		return nil, newContractError(ErrCodeInvalidConfig, "New", "target handle is empty")
	case d == nil:
		return nil, newContractError(ErrCodeInvalidConfig, "New", "dispatcher is nil")
	case s.threshold < 1:
		return nil, newContractError(ErrCodeInvalidConfig, "New", "flush threshold %d is below 1", s.threshold)
	case s.alloc == nil:
		return nil, newContractError(ErrCodeInvalidConfig, "New", "allocator is nil")
	case !s.codePage.Valid():
		return nil, newContractError(ErrCodeInvalidConfig, "New", "unsupported code page %d", int(s.codePage))
	}
	if s.clock == nil {
		s.clock = NewClock()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s, nil
}

// Target returns the handle the Sequence draws to.
func (s *Sequence) Target() Target {
	s.mustExist("Target")
	return s.target
}

// Threshold returns the autoflush threshold.
func (s *Sequence) Threshold() int {
	s.mustExist("Threshold")
	return s.threshold
}

// Pending returns the number of instructions appended since the last flush.
func (s *Sequence) Pending() int {
	s.mustExist("Pending")
	return s.pending
}

// CodePage returns the encoding stamped on text instructions.
func (s *Sequence) CodePage() ir.CodePage {
	s.mustExist("CodePage")
	return s.codePage
}

// Stats returns lifetime counters.
func (s *Sequence) Stats() Stats {
	s.mustExist("Stats")
	return s.stats
}

// Closed reports whether Close has been called.
func (s *Sequence) Closed() bool {
	s.mustExist("Closed")
	return s.closed
}

// Err returns dispatch errors from automatic flushes that have not yet been
// returned by Flush, Close or a query. It does not clear them.
func (s *Sequence) Err() error {
	s.mustExist("Err")
	return s.deferred
}

// Flush dispatches the pending batch. Flushing an empty Sequence is a no-op.
// The returned error includes any unreported autoflush failures.
func (s *Sequence) Flush() error {
	s.check("Flush")
	return s.takeDeferred(s.flush(ReasonExplicit))
}

// Close performs a final flush and releases the Sequence. Closing twice
// returns ErrClosed.
func (s *Sequence) Close() error {
	s.mustExist("Close")
	if s.closed {
		return ErrClosed
	}
	if s.dispatching {
		panic(newContractError(ErrCodeReentrant, "Close", "sequence closed from inside its own dispatch"))
	}

	err := s.flush(ReasonClose)
	s.closed = true
	s.cache.invalidate()
	s.dispatcher = nil
	s.alloc = nil
	s.observer = nil

	s.logger.Debug("sequence closed",
		"target", s.target,
		"batches", s.stats.Batches,
		"appended", s.stats.Appended,
		"suppressed", s.stats.Suppressed)
	return s.takeDeferred(err)
}

func (s *Sequence) mustExist(op string) {
	if s == nil {
		panic(newContractError(ErrCodeNilSequence, op, "operation on nil sequence"))
	}
}

// check guards every mutating operation.
func (s *Sequence) check(op string) {
	s.mustExist(op)
	if s.closed {
		panic(newContractError(ErrCodeClosed, op, "sequence used after close"))
	}
	if s.dispatching {
		panic(newContractError(ErrCodeReentrant, op, "sequence called from inside its own dispatch"))
	}
}

// link adds op as the new tail.
func (s *Sequence) link(op ir.Op) {
	n := s.alloc.AllocNode()
	n.Op = op
	if s.tail == nil {
		s.head = n
	} else {
		s.tail.next = n
	}
	s.tail = n
	s.pending++
	s.stats.Appended++
}

// append links op and flushes once the threshold is reached. Autoflush
// errors are held until the caller next receives an error.
func (s *Sequence) append(op ir.Op) {
	s.link(op)
	if s.pending >= s.threshold {
		if err := s.flush(ReasonThreshold); err != nil {
			s.deferred = errors.Join(s.deferred, err)
		}
	}
}

// query links op and dispatches before returning, so the op's output
// pointers are populated when the caller reads them.
func (s *Sequence) query(op ir.Op) error {
	s.link(op)
	reason := ReasonQuery
	if s.pending >= s.threshold {
		reason = ReasonThreshold
	}
	return s.takeDeferred(s.flush(reason))
}

func (s *Sequence) takeDeferred(err error) error {
	if s.deferred == nil {
		return err
	}
	joined := errors.Join(s.deferred, err)
	s.deferred = nil
	return joined
}

// flush hands the chain to the dispatcher and tears it down. The Sequence
// is detached from the chain before dispatch, so it is already empty while
// the host runs.
func (s *Sequence) flush(reason FlushReason) error {
	if s.head == nil {
		return nil
	}

	head, count := s.head, s.pending
	s.head, s.tail, s.pending = nil, nil, 0
	seq := s.clock.Next()

	err := s.dispatch(head, seq, count, reason)

	s.stats.Batches++
	if err != nil {
		s.stats.Failed++
		s.logger.Warn("batch dispatch failed",
			"seq", seq, "target", s.target, "count", count, "reason", reason, "error", err)
	} else {
		s.logger.Debug("batch dispatched",
			"seq", seq, "target", s.target, "count", count, "reason", reason)
	}
	if s.observer != nil {
		s.observer(FlushEvent{Seq: seq, Target: s.target, Count: count, Reason: reason, Err: err})
	}
	return err
}

// dispatch performs the boundary crossing. Teardown is deferred so the chain
// is released even if the dispatcher panics.
func (s *Sequence) dispatch(head *Node, seq int64, count int, reason FlushReason) error {
	s.dispatching = true
	defer func() {
		s.dispatching = false
		s.release(head)
	}()

	if err := s.dispatcher.Dispatch(s.target, head); err != nil {
		return &DispatchError{Target: s.target, Seq: seq, Count: count, Reason: reason, Err: err}
	}
	return nil
}

// release walks the chain from head, saving each next link before the node
// is freed.
func (s *Sequence) release(head *Node) {
	for n := head; n != nil; {
		next := n.next
		releaseOp(s.alloc, n.Op)
		s.alloc.FreeNode(n)
		n = next
	}
}

// releaseOp returns the buffers an op owns. Query ops own nothing.
func releaseOp(a Allocator, op ir.Op) {
	switch o := op.(type) {
	case ir.SetFillStyle:
		a.FreeBytes(o.CSS)
	case ir.SetStrokeStyle:
		a.FreeBytes(o.CSS)
	case ir.SetFont:
		a.FreeBytes(o.Font)
	case ir.SetLineCap:
		a.FreeBytes(o.Cap)
	case ir.SetLineJoin:
		a.FreeBytes(o.Join)
	case ir.SetLineDash:
		a.FreeFloats(o.Segments)
	case ir.FillText:
		a.FreeBytes(o.Text)
	case ir.StrokeText:
		a.FreeBytes(o.Text)
	case ir.SetColorStop:
		a.FreeBytes(o.CSS)
	case ir.ImageData:
		a.FreeBytes(o.Pixels)
	case ir.SetCanvasPropDouble:
		a.FreeBytes(o.Name)
	case ir.SetCanvasPropString:
		a.FreeBytes(o.Name)
		a.FreeBytes(o.Value)
	}
}

// ownString copies s into an allocator buffer.
func (s *Sequence) ownString(str string) []byte {
	b := s.alloc.AllocBytes(len(str))
	copy(b, str)
	return b
}

// ownText encodes str in the Sequence code page into an allocator buffer.
func (s *Sequence) ownText(str string) []byte {
	return s.ownBytes(s.codePage.Encode(str))
}

func (s *Sequence) ownBytes(src []byte) []byte {
	b := s.alloc.AllocBytes(len(src))
	copy(b, src)
	return b
}

func (s *Sequence) ownFloats(src []float64) []float64 {
	f := s.alloc.AllocFloats(len(src))
	copy(f, src)
	return f
}

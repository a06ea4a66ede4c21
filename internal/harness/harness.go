package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/roach88/drawseq/internal/config"
	"github.com/roach88/drawseq/internal/engine"
	"github.com/roach88/drawseq/internal/host"
	"github.com/roach88/drawseq/internal/ir"
	"github.com/roach88/drawseq/internal/store"
	"github.com/roach88/drawseq/internal/testutil"
)

// DefaultTarget is the handle scenarios draw to unless they name one.
const DefaultTarget engine.Target = "canvas-1"

// Harness runs scenarios against a real host surface.
//
// Each run gets a fresh Registry, Surface and Sequence. Batch numbers start
// at 1 for every run, so traces are reproducible.
type Harness struct {
	cfg     config.Config
	journal *store.Store
	session string
	logger  *slog.Logger
}

// Option configures a Harness.
type Option func(*Harness)

// WithConfig supplies the defaults scenarios fall back to.
func WithConfig(cfg config.Config) Option {
	return func(h *Harness) {
		h.cfg = cfg
	}
}

// WithJournal records every batch of every run in st. session names the
// journal session; empty means a fresh one per run.
func WithJournal(st *store.Store, session string) Option {
	return func(h *Harness) {
		h.journal = st
		h.session = session
	}
}

// WithLogger sets the logger handed to the Sequence and the host.
// Defaults to a discarding logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) {
		h.logger = l
	}
}

// New creates a Harness.
func New(opts ...Option) *Harness {
	h := &Harness{
		cfg:    config.Default(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run executes a scenario with the default configuration.
func Run(scenario *Scenario) (*Result, error) {
	return New().Run(scenario)
}

// Run executes a scenario and returns the result.
//
// An error is returned only when the run cannot be set up. Step failures
// and assertion failures are reported in the Result.
//
// Execution flow:
// 1. Open a surface in a fresh registry
// 2. Build the dispatcher chain (recorder, optional journal, registry)
// 3. Run every step, recovering contract panics as step errors
// 4. Close the Sequence and count leaked allocations
// 5. Evaluate assertions
func (h *Harness) Run(scenario *Scenario) (*Result, error) {
	threshold := scenario.Threshold
	if threshold == 0 {
		threshold = h.cfg.FlushThreshold
	}
	cpName := scenario.CodePage
	if cpName == "" {
		cpName = h.cfg.CodePage
	}
	cp, err := ir.ParseCodePage(cpName)
	if err != nil {
		return nil, err
	}
	width, height := scenario.Surface.Width, scenario.Surface.Height
	if width == 0 {
		width = h.cfg.Surface.Width
	}
	if height == 0 {
		height = h.cfg.Surface.Height
	}
	target := engine.Target(scenario.Target)
	if target == "" {
		target = DefaultTarget
	}

	reg := host.NewRegistry(
		host.WithTargetGenerator(testutil.NewStaticTargetGenerator(target)),
		host.WithRegistryLogger(h.logger),
	)
	target, surface, err := reg.Open(width, height)
	if err != nil {
		return nil, fmt.Errorf("failed to open surface: %w", err)
	}

	rec := &recorder{next: reg}
	if h.journal != nil {
		j, err := store.NewJournal(context.Background(), h.journal, reg,
			store.WithSession(h.session),
			store.WithJournalLogger(h.logger))
		if err != nil {
			return nil, fmt.Errorf("failed to open journal session: %w", err)
		}
		rec.next = j
	}

	alloc := testutil.NewCountingAllocatorOver(h.cfg.NewAllocator())
	seq, err := engine.New(target, rec,
		engine.WithFlushThreshold(threshold),
		engine.WithCodePage(cp),
		engine.WithAllocator(alloc),
		engine.WithLogger(h.logger),
		engine.WithObserver(rec.observe),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sequence: %w", err)
	}

	result := NewResult(scenario.Name)
	result.Target = target
	result.Surface = surface

	closed := false
	for i, step := range scenario.Steps {
		value, err := runStep(seq, step)
		if step.Op == "close" {
			closed = true
		}
		if value != nil {
			result.Queries[i] = value
		}
		checkStep(result, i, step, err)

		h.logger.Debug("step completed", "step", i, "op", step.Op, "pending", seq.Pending())
	}

	result.Pending = seq.Pending()
	if !closed {
		if err := seq.Close(); err != nil {
			result.AddError(fmt.Sprintf("close: %v", err))
		}
	}
	result.Stats = seq.Stats()
	result.Batches = rec.batches()
	result.Live = alloc.Live()
	result.Faults = alloc.Faults()

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

// runStep performs one step. A contract panic from the Sequence becomes the
// step's error so a scenario can exercise use-after-close.
func runStep(seq *engine.Sequence, step Step) (value ir.IRValue, err error) {
	defer func() {
		if r := recover(); r != nil {
			var ce *engine.ContractError
			if e, ok := r.(error); ok && errors.As(e, &ce) {
				value, err = nil, ce
				return
			}
			panic(r)
		}
	}()

	fn, ok := stepTable[step.Op]
	if !ok {
		return nil, fmt.Errorf("unknown op %q", step.Op)
	}
	return fn(seq, &stepArgs{op: step.Op, m: step.Args})
}

func checkStep(result *Result, i int, step Step, err error) {
	switch {
	case step.Error == "" && err != nil:
		result.AddError(fmt.Sprintf("steps[%d] %s: %v", i, step.Op, err))
	case step.Error != "" && err == nil:
		result.AddError(fmt.Sprintf("steps[%d] %s: expected error containing %q, got none", i, step.Op, step.Error))
	case step.Error != "" && !strings.Contains(err.Error(), step.Error):
		result.AddError(fmt.Sprintf("steps[%d] %s: expected error containing %q, got %v", i, step.Op, step.Error, err))
	}
}

// recorder describes each batch while its chain is live and then forwards
// it. The Sequence observer fills in the batch number and flush reason once
// dispatch returns.
type recorder struct {
	next engine.Dispatcher

	mu    sync.Mutex
	trace []BatchTrace
}

func (r *recorder) Dispatch(target engine.Target, head *engine.Node) error {
	ops := engine.Ops(head)
	b := BatchTrace{
		Count:   len(ops),
		Kinds:   make([]string, len(ops)),
		Entries: ir.BatchEntries(ops),
	}
	for i, op := range ops {
		b.Kinds[i] = op.Kind().String()
	}

	r.mu.Lock()
	r.trace = append(r.trace, b)
	r.mu.Unlock()

	return r.next.Dispatch(target, head)
}

func (r *recorder) LoadImage(target engine.Target, url string, id int32) error {
	loader, ok := r.next.(engine.ImageLoader)
	if !ok {
		return fmt.Errorf("dispatcher %T cannot load images", r.next)
	}
	return loader.LoadImage(target, url, id)
}

func (r *recorder) observe(ev engine.FlushEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.trace) == 0 {
		return
	}
	last := &r.trace[len(r.trace)-1]
	last.Seq = ev.Seq
	last.Reason = ev.Reason
	if ev.Err != nil {
		last.Error = ev.Err.Error()
	}
}

func (r *recorder) batches() []BatchTrace {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]BatchTrace{}, r.trace...)
}

var (
	_ engine.Dispatcher  = (*recorder)(nil)
	_ engine.ImageLoader = (*recorder)(nil)
)

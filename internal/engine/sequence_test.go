package engine_test

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/drawseq/internal/engine"
	"github.com/roach88/drawseq/internal/ir"
	"github.com/roach88/drawseq/internal/testutil"
)

type fixture struct {
	seq   *engine.Sequence
	disp  *testutil.RecordingDispatcher
	alloc *testutil.CountingAllocator
}

func newFixture(t *testing.T, threshold int, opts ...engine.Option) *fixture {
	t.Helper()
	f := &fixture{
		disp:  testutil.NewRecordingDispatcher(),
		alloc: testutil.NewCountingAllocator(),
	}
	opts = append([]engine.Option{
		engine.WithFlushThreshold(threshold),
		engine.WithAllocator(f.alloc),
		engine.WithClock(testutil.NewDeterministicClock()),
	}, opts...)
	seq, err := engine.New("canvas-1", f.disp, opts...)
	require.NoError(t, err)
	f.seq = seq
	return f
}

func (f *fixture) assertNoLeaks(t *testing.T) {
	t.Helper()
	assert.Equal(t, 0, f.alloc.Live(), "nodes or buffers outlived their batch")
	assert.Empty(t, f.alloc.Faults())
}

// contractPanic runs fn and returns the *ContractError it panicked with.
func contractPanic(t *testing.T, fn func()) (ce *engine.ContractError) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected a panic")
		err, ok := r.(error)
		require.True(t, ok, "panic value %v is not an error", r)
		require.ErrorAs(t, err, &ce)
	}()
	fn()
	return nil
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	d := testutil.NewRecordingDispatcher()
	tests := []struct {
		name   string
		target engine.Target
		disp   engine.Dispatcher
		opts   []engine.Option
	}{
		{"empty target", "", d, nil},
		{"nil dispatcher", "c", nil, nil},
		{"zero threshold", "c", d, []engine.Option{engine.WithFlushThreshold(0)}},
		{"nil allocator", "c", d, []engine.Option{engine.WithAllocator(nil)}},
		{"unknown code page", "c", d, []engine.Option{engine.WithCodePage(ir.CodePage(9999))}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seq, err := engine.New(tt.target, tt.disp, tt.opts...)
			assert.Nil(t, seq)
			assert.True(t, engine.IsContractError(err, engine.ErrCodeInvalidConfig), "got %v", err)
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	seq, err := engine.New("c", testutil.NewRecordingDispatcher())
	require.NoError(t, err)
	assert.Equal(t, engine.DefaultFlushThreshold, seq.Threshold())
	assert.Equal(t, ir.CodePageUTF8, seq.CodePage())
	assert.Equal(t, engine.Target("c"), seq.Target())
	assert.Equal(t, 0, seq.Pending())
}

func TestSequence_ThresholdFlushesInOrder(t *testing.T) {
	f := newFixture(t, 3)

	for i := 0; i < 7; i++ {
		f.seq.FillRect(float64(i), 0, 1, 1)
	}
	assert.Equal(t, 2, f.disp.Count())
	assert.Equal(t, 1, f.seq.Pending())

	require.NoError(t, f.seq.Close())
	batches := f.disp.Batches()
	require.Len(t, batches, 3)
	assert.Len(t, batches[0].Kinds, 3)
	assert.Len(t, batches[1].Kinds, 3)
	assert.Len(t, batches[2].Kinds, 1)

	var xs []ir.IRValue
	for _, b := range batches {
		for _, e := range b.Entries {
			xs = append(xs, e.(ir.IRObject)["args"].(ir.IRObject)["x"])
		}
	}
	assert.Equal(t, []ir.IRValue{
		ir.IRFloat(0), ir.IRFloat(1), ir.IRFloat(2), ir.IRFloat(3),
		ir.IRFloat(4), ir.IRFloat(5), ir.IRFloat(6),
	}, xs)
	f.assertNoLeaks(t)
}

func TestSequence_DedupThenAutoflushStepByStep(t *testing.T) {
	f := newFixture(t, 3)

	f.seq.FillRect(0, 0, 10, 10)
	f.seq.SetFillColor(ir.Color(0xFF0000FF))
	f.seq.SetFillColor(ir.Color(0xFF0000FF))
	assert.Equal(t, 2, f.seq.Pending(), "second identical color is elided")
	assert.Equal(t, 0, f.disp.Count())

	f.seq.StrokeRect(0, 0, 10, 10)
	assert.Equal(t, 0, f.seq.Pending())
	require.Equal(t, 1, f.disp.Count())
	assert.Equal(t, []string{"fill_rect", "set_fill_style_rgba", "stroke_rect"}, f.disp.KindNames(0))

	require.NoError(t, f.seq.Close())
	assert.Equal(t, 1, f.disp.Count(), "nothing left to dispatch on close")
	f.assertNoLeaks(t)
}

func TestSequence_QueryFlushesMidBatch(t *testing.T) {
	f := newFixture(t, 10)

	f.seq.FillRect(0, 0, 5, 5)
	f.seq.SetFillColor(ir.RGBA(255, 0, 0, 255))
	m, err := f.seq.MeasureText("abc")
	require.NoError(t, err)

	assert.Equal(t, 24.0, m.Width)
	assert.Equal(t, 0, f.seq.Pending())
	require.Equal(t, 1, f.disp.Count())
	assert.Equal(t, []string{"fill_rect", "set_fill_style_rgba", "measure_text"}, f.disp.KindNames(0))
	f.assertNoLeaks(t)
}

func TestSequence_QueryAtThresholdDispatchesOnce(t *testing.T) {
	var reasons []engine.FlushReason
	f := newFixture(t, 2, engine.WithObserver(func(e engine.FlushEvent) {
		reasons = append(reasons, e.Reason)
	}))

	f.seq.FillRect(0, 0, 1, 1)
	_, err := f.seq.GetLineDashLength()
	require.NoError(t, err)

	assert.Equal(t, 1, f.disp.Count())
	assert.Equal(t, []engine.FlushReason{engine.ReasonThreshold}, reasons)
}

func TestSequence_EmptyFlushIsNoOp(t *testing.T) {
	f := newFixture(t, 5)

	require.NoError(t, f.seq.Flush())
	require.NoError(t, f.seq.Flush())
	require.NoError(t, f.seq.Close())

	assert.Equal(t, 0, f.disp.Count())
	assert.Equal(t, int64(0), f.seq.Stats().Batches)
}

func TestSequence_FlushDispatchesPending(t *testing.T) {
	f := newFixture(t, 100)
	f.seq.BeginPath()
	f.seq.MoveTo(1, 2)
	f.seq.LineTo(3, 4)
	f.seq.Stroke()

	require.NoError(t, f.seq.Flush())
	require.Equal(t, 1, f.disp.Count())
	assert.Equal(t, []string{"begin_path", "move_to", "line_to", "stroke"}, f.disp.KindNames(0))
	assert.Equal(t, 0, f.seq.Pending())
	f.assertNoLeaks(t)
}

func TestSequence_CloseTwiceReturnsErrClosed(t *testing.T) {
	f := newFixture(t, 5)
	f.seq.Save()

	require.NoError(t, f.seq.Close())
	err := f.seq.Close()
	assert.ErrorIs(t, err, engine.ErrClosed)
	assert.True(t, f.seq.Closed())
	assert.Equal(t, 1, f.disp.Count())
}

func TestSequence_UseAfterClosePanics(t *testing.T) {
	f := newFixture(t, 5)
	require.NoError(t, f.seq.Close())

	ce := contractPanic(t, func() { f.seq.FillRect(0, 0, 1, 1) })
	assert.Equal(t, engine.ErrCodeClosed, ce.Code)
	assert.Equal(t, "FillRect", ce.Op)

	ce = contractPanic(t, func() { _, _ = f.seq.GetTransform() })
	assert.Equal(t, engine.ErrCodeClosed, ce.Code)
	assert.ErrorIs(t, ce, engine.ErrClosed)
}

func TestSequence_NilReceiverPanics(t *testing.T) {
	var seq *engine.Sequence

	ce := contractPanic(t, func() { seq.BeginPath() })
	assert.Equal(t, engine.ErrCodeNilSequence, ce.Code)

	ce = contractPanic(t, func() { _ = seq.Flush() })
	assert.Equal(t, engine.ErrCodeNilSequence, ce.Code)
}

func TestSequence_ReentrantAppendPanics(t *testing.T) {
	f := newFixture(t, 5)
	var inner *engine.ContractError
	f.disp.During = func(engine.Target, *engine.Node) {
		inner = contractPanic(t, func() { f.seq.FillRect(0, 0, 1, 1) })
	}

	f.seq.Save()
	require.NoError(t, f.seq.Flush())

	require.NotNil(t, inner)
	assert.Equal(t, engine.ErrCodeReentrant, inner.Code)
	assert.Equal(t, 0, f.seq.Pending())
	f.assertNoLeaks(t)
}

func TestSequence_DispatchErrorStillTearsDown(t *testing.T) {
	boom := errors.New("host exploded")
	f := newFixture(t, 100)
	f.disp.FailWith = func(int) error { return boom }

	f.seq.FillText("hello", 1, 2)
	f.seq.SetLineDash([]float64{1, 2})
	err := f.seq.Flush()

	require.ErrorIs(t, err, boom)
	var de *engine.DispatchError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, 2, de.Count)
	assert.Equal(t, engine.ReasonExplicit, de.Reason)
	assert.Equal(t, int64(1), f.seq.Stats().Failed)
	f.assertNoLeaks(t)
}

func TestSequence_DispatchPanicStillTearsDown(t *testing.T) {
	f := newFixture(t, 100)
	f.disp.During = func(engine.Target, *engine.Node) { panic("host crashed") }

	f.seq.SetFont("12px monospace")
	f.seq.FillText("x", 0, 0)
	assert.PanicsWithValue(t, "host crashed", func() { _ = f.seq.Flush() })
	f.assertNoLeaks(t)

	// The Sequence is not stuck in the dispatching state.
	f.disp.During = nil
	f.seq.FillRect(0, 0, 1, 1)
	require.NoError(t, f.seq.Flush())
}

func TestSequence_AutoflushErrorIsDeferred(t *testing.T) {
	boom := errors.New("first batch failed")
	f := newFixture(t, 1)
	f.disp.FailWith = func(n int) error {
		if n == 1 {
			return boom
		}
		return nil
	}

	f.seq.FillRect(0, 0, 1, 1)
	require.ErrorIs(t, f.seq.Err(), boom)
	require.ErrorIs(t, f.seq.Err(), boom, "Err must not clear the deferred error")

	f.seq.FillRect(1, 1, 1, 1)
	err := f.seq.Flush()
	require.ErrorIs(t, err, boom)
	var de *engine.DispatchError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, engine.ReasonThreshold, de.Reason)

	assert.NoError(t, f.seq.Err())
	assert.NoError(t, f.seq.Flush())
	f.assertNoLeaks(t)
}

func TestSequence_QueryReturnsDeferredErrorAndZeroValue(t *testing.T) {
	boom := errors.New("nope")
	f := newFixture(t, 1)
	f.disp.FailWith = func(n int) error {
		if n == 1 {
			return boom
		}
		return nil
	}
	f.seq.SetCanvasPropDouble("globalAlpha", 0.5)

	v, err := f.seq.GetCanvasPropDouble("globalAlpha")
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0.0, v)
}

func TestSequence_ObserverSeesEveryDispatch(t *testing.T) {
	var events []engine.FlushEvent
	f := newFixture(t, 2, engine.WithObserver(func(e engine.FlushEvent) {
		events = append(events, e)
	}))

	f.seq.Save()
	f.seq.Restore()
	f.seq.Save()
	_, err := f.seq.GetTransform()
	require.NoError(t, err)
	f.seq.Restore()
	require.NoError(t, f.seq.Close())

	require.Len(t, events, 3)
	assert.Equal(t, engine.ReasonThreshold, events[0].Reason)
	assert.Equal(t, engine.ReasonThreshold, events[1].Reason)
	assert.Equal(t, engine.ReasonClose, events[2].Reason)
	for i, e := range events {
		assert.Equal(t, int64(i+1), e.Seq)
		assert.Equal(t, engine.Target("canvas-1"), e.Target)
	}
}

func TestSequence_LogsDispatches(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	f := newFixture(t, 10, engine.WithLogger(logger))

	f.seq.ClearRect(0, 0, 10, 10)
	require.NoError(t, f.seq.Flush())

	out := buf.String()
	assert.Contains(t, out, "batch dispatched")
	assert.Contains(t, out, "count=1")
	assert.Contains(t, out, "reason=explicit")
}

func TestSequence_StatsCountAppendsAndBatches(t *testing.T) {
	f := newFixture(t, 2)
	f.seq.SetLineWidth(2)
	f.seq.SetLineWidth(2)
	f.seq.Stroke()
	require.NoError(t, f.seq.Close())

	assert.Equal(t, engine.Stats{Appended: 2, Suppressed: 1, Batches: 1}, f.seq.Stats())
}

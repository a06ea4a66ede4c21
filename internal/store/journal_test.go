package store_test

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/drawseq/internal/engine"
	"github.com/roach88/drawseq/internal/ir"
	"github.com/roach88/drawseq/internal/store"
	"github.com/roach88/drawseq/internal/testutil"
)

func openJournal(t *testing.T, next engine.Dispatcher) (*store.Store, *store.Journal) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	j, err := store.NewJournal(context.Background(), s, next, store.WithSession("session-1"))
	require.NoError(t, err)
	return s, j
}

func TestJournal_RecordsBatches(t *testing.T) {
	disp := testutil.NewRecordingDispatcher()
	s, j := openJournal(t, disp)
	assert.Equal(t, "session-1", j.Session())

	seq, err := engine.New("canvas-1", j, engine.WithFlushThreshold(2))
	require.NoError(t, err)
	seq.SetFillColor(ir.RGBA(255, 0, 0, 255))
	seq.FillRect(1, 2, 3, 4)
	seq.FillText("hi", 5, 6)
	require.NoError(t, seq.Close())

	assert.Equal(t, 2, disp.Count(), "journal must forward every batch")

	ctx := context.Background()
	batches, err := s.ListBatches(ctx, store.BatchFilter{Session: "session-1"})
	require.NoError(t, err)
	require.Len(t, batches, 2)
	assert.Equal(t, int64(1), batches[0].Seq)
	assert.Equal(t, 2, batches[0].Count)
	assert.Equal(t, int64(2), batches[1].Seq)
	assert.Equal(t, 1, batches[1].Count)

	first, err := s.ReadBatch(ctx, "session-1", 1)
	require.NoError(t, err)
	assert.Equal(t, engine.Target("canvas-1"), first.Target)
	assert.Equal(t, "set_fill_style_rgba", first.Instructions[0].Name)
	assert.Equal(t, ir.IRString("#ff0000ff"), first.Instructions[0].Args["color"])
	assert.Equal(t, ir.KindFillRect, first.Instructions[1].Kind)

	text, err := s.ReadBatch(ctx, "session-1", 2)
	require.NoError(t, err)
	assert.Equal(t, ir.IRString("hi"), text.Instructions[0].Args["text"])

	mismatches, err := s.Verify(ctx, "session-1")
	require.NoError(t, err)
	assert.Empty(t, mismatches)
}

func TestJournal_HashMatchesBatchContent(t *testing.T) {
	s, j := openJournal(t, testutil.NewRecordingDispatcher())
	seq, err := engine.New("canvas-1", j)
	require.NoError(t, err)
	seq.FillRect(0, 0, 1, 1)
	require.NoError(t, seq.Flush())

	want := ir.MustBatchHash(ir.BatchEntries([]ir.Op{ir.FillRect{W: 1, H: 1}}))
	b, err := s.ReadBatch(context.Background(), "session-1", 1)
	require.NoError(t, err)
	assert.Equal(t, want, b.Hash)
}

func TestJournal_RecordsFailures(t *testing.T) {
	disp := testutil.NewRecordingDispatcher()
	disp.FailWith = func(int) error { return errors.New("host exploded") }
	s, j := openJournal(t, disp)

	seq, err := engine.New("canvas-1", j)
	require.NoError(t, err)
	seq.FillRect(0, 0, 1, 1)
	err = seq.Flush()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "host exploded")

	st, err := s.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, st.Failed)

	b, err := s.ReadBatch(context.Background(), "session-1", 1)
	require.NoError(t, err)
	assert.True(t, b.Failed())
	assert.Equal(t, "host exploded", b.Error)
}

func TestJournal_QueriesStillAnswer(t *testing.T) {
	_, j := openJournal(t, testutil.NewRecordingDispatcher())
	seq, err := engine.New("canvas-1", j)
	require.NoError(t, err)
	seq.Translate(3, 4)

	m, err := seq.GetTransform()
	require.NoError(t, err)
	assert.Equal(t, ir.Matrix{A: 1, D: 1, E: 3, F: 4}, m)
}

func TestJournal_LoadImageWithoutLoader(t *testing.T) {
	plain := engine.DispatcherFunc(func(engine.Target, *engine.Node) error { return nil })
	_, j := openJournal(t, plain)
	err := j.LoadImage("canvas-1", "a.png", 1)
	assert.ErrorIs(t, err, engine.ErrNoImageLoader)

	seq, err := engine.New("canvas-1", j)
	require.NoError(t, err)
	loaded, err := seq.LoadImage("a.png", 1)
	require.NoError(t, err, "same answer as a bare dispatcher")
	assert.False(t, loaded)
}

func TestJournal_DefaultSessionIsUUID(t *testing.T) {
	s, err := store.Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	defer s.Close()

	j, err := store.NewJournal(context.Background(), s, testutil.NewRecordingDispatcher())
	require.NoError(t, err)
	assert.Len(t, j.Session(), 36)
}

func TestJournal_ReusedSessionContinuesNumbering(t *testing.T) {
	ctx := context.Background()
	s, first := openJournal(t, testutil.NewRecordingDispatcher())

	seq, err := engine.New("canvas-1", first)
	require.NoError(t, err)
	seq.FillRect(0, 0, 1, 1)
	require.NoError(t, seq.Close())

	second, err := store.NewJournal(ctx, s, testutil.NewRecordingDispatcher(), store.WithSession("session-1"))
	require.NoError(t, err)
	seq, err = engine.New("canvas-1", second)
	require.NoError(t, err)
	seq.StrokeRect(0, 0, 1, 1)
	require.NoError(t, seq.Close())

	batches, err := s.ListBatches(ctx, store.BatchFilter{Session: "session-1"})
	require.NoError(t, err)
	require.Len(t, batches, 2)
	assert.Equal(t, int64(1), batches[0].Seq)
	assert.Equal(t, int64(2), batches[1].Seq)

	last, err := s.LastSeq(ctx, "session-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), last)
	last, err = s.LastSeq(ctx, "other")
	require.NoError(t, err)
	assert.Equal(t, int64(0), last)
}

func TestJournal_DuplicateSeqIsAnError(t *testing.T) {
	ctx := context.Background()
	disp := testutil.NewRecordingDispatcher()
	s, _ := openJournal(t, disp)

	for i := 0; i < 2; i++ {
		j, err := store.NewJournal(ctx, s, disp,
			store.WithSession("session-1"),
			store.WithJournalClock(engine.NewClock()))
		require.NoError(t, err)
		seq, err := engine.New("canvas-1", j)
		require.NoError(t, err)
		seq.FillRect(0, 0, 1, 1)
		err = seq.Flush()
		if i == 0 {
			require.NoError(t, err)
			continue
		}
		assert.ErrorIs(t, err, store.ErrBatchExists)
	}
	assert.Equal(t, 2, disp.Count(), "the batch still reaches the host")
}

func TestJournal_NonFiniteArgumentsAreRecorded(t *testing.T) {
	ctx := context.Background()
	disp := testutil.NewRecordingDispatcher()
	s, j := openJournal(t, disp)

	seq, err := engine.New("canvas-1", j)
	require.NoError(t, err)
	seq.MoveTo(math.NaN(), 0)
	seq.LineTo(math.Inf(1), 1)
	require.NoError(t, seq.Flush())
	assert.Equal(t, 1, disp.Count())

	b, err := s.ReadBatch(ctx, "session-1", 1)
	require.NoError(t, err)
	assert.Equal(t, ir.IRString("NaN"), b.Instructions[0].Args["x"])
	assert.Equal(t, ir.IRString("Infinity"), b.Instructions[1].Args["x"])

	mismatches, err := s.Verify(ctx, "session-1")
	require.NoError(t, err)
	assert.Empty(t, mismatches)
}

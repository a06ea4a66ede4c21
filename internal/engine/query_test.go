package engine_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/drawseq/internal/engine"
	"github.com/roach88/drawseq/internal/ir"
)

func TestQuery_CanvasProperties(t *testing.T) {
	f := newFixture(t, 100)
	f.seq.SetCanvasPropDouble("globalAlpha", 0.25)
	f.seq.SetCanvasPropString("textBaseline", "top")

	alpha, err := f.seq.GetCanvasPropDouble("globalAlpha")
	require.NoError(t, err)
	baseline, err := f.seq.GetCanvasPropString("textBaseline")
	require.NoError(t, err)

	assert.Equal(t, 0.25, alpha)
	assert.Equal(t, "top", baseline)
	assert.Equal(t, 2, f.disp.Count(), "each query is its own flush")
	f.assertNoLeaks(t)
}

func TestQuery_LineDash(t *testing.T) {
	f := newFixture(t, 100)
	f.seq.SetLineDash([]float64{3, 1, 4, 1, 5})

	n, err := f.seq.GetLineDashLength()
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	buf := make([]float64, 8)
	total, err := f.seq.GetLineDash(buf)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Equal(t, []float64{3, 1, 4, 1, 5, 0, 0, 0}, buf)

	total, err = f.seq.GetLineDash(nil)
	require.NoError(t, err)
	assert.Equal(t, 5, total, "a short buffer still reports the full length")
}

func TestQuery_ImageDataToBuffer(t *testing.T) {
	f := newFixture(t, 100)
	buf := make([]byte, engine.PixelsSizeEstimate(2, 1))

	n, err := f.seq.ImageDataToBuffer(7, buf)
	require.NoError(t, err)
	assert.Equal(t, 8, n)
	assert.Equal(t, []byte{7, 7, 7, 7, 7, 7, 7, 7}, buf)
}

func TestQuery_GetTransformAfterReset(t *testing.T) {
	f := newFixture(t, 100)
	f.seq.SetTransform(ir.Matrix{A: 3, D: 3, E: 1})
	f.seq.Reset()

	m, err := f.seq.GetTransform()
	require.NoError(t, err)
	assert.Equal(t, ir.IdentityMatrix(), m)
}

func TestQuery_MeasureTextUsesCodePage(t *testing.T) {
	f := newFixture(t, 100, engine.WithCodePage(ir.CodePage(437)))
	m, err := f.seq.MeasureText("caf\u00e9")
	require.NoError(t, err)
	assert.Equal(t, 32.0, m.Width)
}

func TestQuery_DispatchFailureReturnsZero(t *testing.T) {
	boom := errors.New("lost surface")
	f := newFixture(t, 100)
	f.disp.FailWith = func(int) error { return boom }

	m, err := f.seq.GetTransform()
	require.ErrorIs(t, err, boom)
	assert.Equal(t, ir.Matrix{}, m)
	f.assertNoLeaks(t)
}

func TestLoadImage_FlushesThenLoads(t *testing.T) {
	var reasons []engine.FlushReason
	f := newFixture(t, 100, engine.WithObserver(func(e engine.FlushEvent) {
		reasons = append(reasons, e.Reason)
	}))
	f.seq.FillRect(0, 0, 1, 1)

	ok, err := f.seq.LoadImage("sprites.png", 12)
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, 0, f.seq.Pending())
	assert.Equal(t, []engine.FlushReason{engine.ReasonLoadImage}, reasons)
	loads := f.disp.Loads()
	require.Len(t, loads, 1)
	assert.Equal(t, "sprites.png", loads[0].URL)
	assert.Equal(t, int32(12), loads[0].ID)
	assert.Equal(t, engine.Target("canvas-1"), loads[0].Target)
}

func TestLoadImage_LoaderError(t *testing.T) {
	f := newFixture(t, 100)
	f.disp.LoadErr = errors.New("404")

	ok, err := f.seq.LoadImage("missing.png", 1)
	assert.False(t, ok)
	assert.EqualError(t, err, "404")
}

func TestLoadImage_DispatcherWithoutLoader(t *testing.T) {
	seq, err := engine.New("c", engine.DispatcherFunc(func(engine.Target, *engine.Node) error {
		return nil
	}))
	require.NoError(t, err)

	ok, err := seq.LoadImage("a.png", 1)
	assert.NoError(t, err)
	assert.False(t, ok)
}

package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindWireCodes(t *testing.T) {
	// Codes are part of the host boundary and must never move.
	tests := []struct {
		kind Kind
		code uint16
		name string
	}{
		{KindFillRect, 1, "fill_rect"},
		{KindFillCodepoint, 5, "fill_codepoint"},
		{KindSetLineWidth, 10, "set_line_width"},
		{KindSetFillStyleRGBA, 11, "set_fill_style_rgba"},
		{KindMeasureText, 25, "measure_text"},
		{KindRestore, 27, "restore"},
		{KindReset, 36, "reset"},
		{KindGetTransform, 41, "get_transform"},
		{KindDrawImage, 52, "draw_image"},
		{KindSetCanvasPropString, 63, "set_canvas_prop_string"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, uint16(tt.kind))
			assert.Equal(t, tt.name, tt.kind.String())

			parsed, err := ParseKind(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, parsed)
		})
	}
}

func TestKindsTableIsComplete(t *testing.T) {
	kinds := Kinds()
	assert.Len(t, kinds, 56)

	seen := make(map[string]bool)
	for i, k := range kinds {
		assert.True(t, k.Valid())
		assert.False(t, seen[k.String()], "duplicate name %s", k)
		seen[k.String()] = true
		if i > 0 {
			assert.Less(t, kinds[i-1], k, "Kinds must be in wire-code order")
		}
	}
}

func TestKindIsQuery(t *testing.T) {
	queries := map[Kind]bool{
		KindMeasureText:         true,
		KindGetTransform:        true,
		KindGetLineDash:         true,
		KindGetLineDashLength:   true,
		KindImageDataToBuffer:   true,
		KindGetCanvasPropDouble: true,
		KindGetCanvasPropString: true,
	}

	for _, k := range Kinds() {
		assert.Equal(t, queries[k], k.IsQuery(), "kind %s", k)
	}
}

func TestUnknownKind(t *testing.T) {
	assert.Equal(t, "kind(2)", Kind(2).String())
	assert.False(t, Kind(2).Valid())

	_, err := ParseKind("draw_teapot")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "draw_teapot")
}

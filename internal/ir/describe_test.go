package ir

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribeEntries(t *testing.T) {
	tests := []struct {
		name     string
		op       Op
		expected string
	}{
		{"fill rect", FillRect{X: 1, Y: 2, W: 3.5, H: 4}, `{"args":{"h":4,"w":3.5,"x":1,"y":2},"kind":"fill_rect"}`},
		{"rgba", SetFillStyleRGBA{Color: 0xFF0000FF}, `{"args":{"color":"#ff0000ff"},"kind":"set_fill_style_rgba"}`},
		{"begin path", BeginPath{}, `{"args":{},"kind":"begin_path"}`},
		{"dash", SetLineDash{Segments: []float64{4, 2}}, `{"args":{"segments":[4,2]},"kind":"set_line_dash"}`},
		{"text", FillText{Text: []byte{0xE9}, X: 1, Y: 2, CodePage: CodePageLatin1},
			`{"args":{"code_page":28591,"text":"é","x":1,"y":2},"kind":"fill_text"}`},
		{"query omits output", MeasureText{Text: []byte("hi"), CodePage: CodePageUTF8, Out: &TextMetrics{Width: 9}},
			`{"args":{"code_page":65001,"text":"hi"},"kind":"measure_text"}`},
		{"pixels summarized", ImageData{ID: 7, Pixels: make([]byte, 16), Width: 2, Height: 2},
			`{"args":{"bytes":16,"height":2,"id":7,"width":2},"kind":"image_data"}`},
		{"prop string", SetCanvasPropString{Name: []byte("textAlign"), Value: []byte("center")},
			`{"args":{"name":"textAlign","value":"center"},"kind":"set_canvas_prop_string"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := MarshalCanonical(Entry(tt.op))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(data))
		})
	}
}

func TestDescribe_NonFiniteFloats(t *testing.T) {
	tests := []struct {
		name     string
		op       Op
		expected string
	}{
		{"nan point", MoveTo{X: math.NaN(), Y: 0}, `{"args":{"x":"NaN","y":0},"kind":"move_to"}`},
		{"infinite width", SetLineWidth{Width: math.Inf(1)}, `{"args":{"width":"Infinity"},"kind":"set_line_width"}`},
		{"dash segments", SetLineDash{Segments: []float64{4, math.Inf(-1)}},
			`{"args":{"segments":[4,"-Infinity"]},"kind":"set_line_dash"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := MarshalCanonical(Entry(tt.op))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(data))

			_, err = BatchHash(IRArray{Entry(tt.op)})
			assert.NoError(t, err)
		})
	}
}

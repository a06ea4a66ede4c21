package host

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gogpu/gg"
	"golang.org/x/image/colornames"

	"github.com/roach88/drawseq/internal/ir"
)

// packedColor converts a 0xRRGGBBAA color.
func packedColor(c ir.Color) gg.RGBA {
	return gg.RGBA{
		R: float64(c.R()) / 255,
		G: float64(c.G()) / 255,
		B: float64(c.B()) / 255,
		A: float64(c.A()) / 255,
	}
}

// parseCSSColor understands hex (#rgb, #rgba, #rrggbb, #rrggbbaa), rgb()
// and rgba() with numeric components, "transparent" and the CSS named
// colors.
func parseCSSColor(s string) (gg.RGBA, error) {
	css := strings.ToLower(strings.TrimSpace(s))
	switch {
	case css == "":
		return gg.RGBA{}, fmt.Errorf("empty color")
	case css == "transparent":
		return gg.Transparent, nil
	case css[0] == '#':
		return parseHexColor(css)
	case strings.HasPrefix(css, "rgb"):
		return parseRGBFunc(css)
	}
	if c, ok := colornames.Map[css]; ok {
		return gg.FromColor(c), nil
	}
	return gg.RGBA{}, fmt.Errorf("unsupported color %q", s)
}

func parseHexColor(css string) (gg.RGBA, error) {
	digits := css[1:]
	switch len(digits) {
	case 3, 4, 6, 8:
	default:
		return gg.RGBA{}, fmt.Errorf("bad hex color %q", css)
	}
	if _, err := strconv.ParseUint(digits, 16, 32); err != nil {
		return gg.RGBA{}, fmt.Errorf("bad hex color %q", css)
	}
	return gg.Hex(digits), nil
}

// parseRGBFunc parses rgb(r, g, b) and rgba(r, g, b, a). Channels are
// 0-255 or percentages; alpha is 0-1.
func parseRGBFunc(css string) (gg.RGBA, error) {
	open, end := strings.IndexByte(css, '('), strings.LastIndexByte(css, ')')
	if open < 0 || end < open {
		return gg.RGBA{}, fmt.Errorf("bad color function %q", css)
	}
	fields := strings.FieldsFunc(css[open+1:end], func(r rune) bool {
		return r == ',' || r == ' ' || r == '/'
	})
	if len(fields) != 3 && len(fields) != 4 {
		return gg.RGBA{}, fmt.Errorf("bad color function %q", css)
	}

	var ch [4]float64
	ch[3] = 1
	for i, f := range fields {
		pct := strings.HasSuffix(f, "%")
		v, err := strconv.ParseFloat(strings.TrimSuffix(f, "%"), 64)
		if err != nil {
			return gg.RGBA{}, fmt.Errorf("bad color component %q in %q", f, css)
		}
		switch {
		case pct:
			v /= 100
		case i < 3:
			v /= 255
		}
		ch[i] = clamp01(v)
	}
	return gg.RGBA{R: ch[0], G: ch[1], B: ch[2], A: ch[3]}, nil
}

// formatCSSColor renders a color the way the host reports styles back:
// #rrggbbaa.
func formatCSSColor(c gg.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x%02x", to255(c.R), to255(c.G), to255(c.B), to255(c.A))
}

func to255(v float64) uint8 {
	return uint8(clamp01(v)*255 + 0.5)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

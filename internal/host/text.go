package host

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/roach88/drawseq/internal/ir"
)

// defaultFont matches what a fresh surface reports for "font".
const defaultFont = "16px monospace"

// fontSpec is a parsed CSS font shorthand. Every family resolves to one of
// the Go fonts: monospace-looking names pick Go Mono, everything else Go.
type fontSpec struct {
	css    string
	size   float64
	mono   bool
	bold   bool
	italic bool
}

type fontKey struct {
	mono, bold, italic bool
}

// parseFont accepts "[style] [weight] <size>(px|pt) <family>", including a
// detached unit ("16 px Courier New") and a line height ("12px/16px").
func parseFont(css string) (fontSpec, error) {
	spec := fontSpec{css: css}
	fields := strings.Fields(strings.ToLower(css))

	sized := -1
	for i := 0; i < len(fields) && sized < 0; i++ {
		tok := fields[i]
		raw := tok
		switch tok {
		case "bold", "bolder":
			spec.bold = true
			continue
		case "italic", "oblique":
			spec.italic = true
			continue
		case "normal", "lighter", "small-caps":
			continue
		}

		tok, _, _ = strings.Cut(tok, "/")
		unit := ""
		switch {
		case strings.HasSuffix(tok, "px"), strings.HasSuffix(tok, "pt"):
			unit = tok[len(tok)-2:]
			tok = tok[:len(tok)-2]
		case i+1 < len(fields) && (fields[i+1] == "px" || fields[i+1] == "pt"):
			unit = fields[i+1]
			i++
		}
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return fontSpec{}, fmt.Errorf("bad font %q: unexpected %q", css, raw)
		}
		if unit == "" {
			// A bare number before the size is a weight.
			spec.bold = spec.bold || v >= 600
			continue
		}
		if v <= 0 {
			return fontSpec{}, fmt.Errorf("bad font %q: size must be positive", css)
		}
		if unit == "pt" {
			v = v * 4 / 3
		}
		spec.size = v
		sized = i
	}
	if sized < 0 {
		return fontSpec{}, fmt.Errorf("bad font %q: no size", css)
	}

	family := strings.Join(fields[sized+1:], " ")
	for _, name := range []string{"mono", "courier", "consolas", "menlo"} {
		if strings.Contains(family, name) {
			spec.mono = true
			break
		}
	}
	return spec, nil
}

func (f fontSpec) key() fontKey {
	return fontKey{mono: f.mono, bold: f.bold, italic: f.italic}
}

func fontData(k fontKey) []byte {
	switch k {
	case fontKey{mono: true}:
		return gomono.TTF
	case fontKey{mono: true, bold: true}:
		return gomonobold.TTF
	case fontKey{mono: true, italic: true}:
		return gomonoitalic.TTF
	case fontKey{mono: true, bold: true, italic: true}:
		return gomonobolditalic.TTF
	case fontKey{bold: true}:
		return gobold.TTF
	case fontKey{italic: true}:
		return goitalic.TTF
	case fontKey{bold: true, italic: true}:
		return gobolditalic.TTF
	}
	return goregular.TTF
}

type faceKey struct {
	fontKey
	size float64
}

// fontCache parses each Go font once and keeps one face per size.
type fontCache struct {
	sources map[fontKey]*text.FontSource
	faces   map[faceKey]text.Face
}

func newFontCache() *fontCache {
	return &fontCache{
		sources: make(map[fontKey]*text.FontSource),
		faces:   make(map[faceKey]text.Face),
	}
}

func (c *fontCache) face(spec fontSpec) (text.Face, error) {
	fk := faceKey{fontKey: spec.key(), size: spec.size}
	if f, ok := c.faces[fk]; ok {
		return f, nil
	}
	src, ok := c.sources[fk.fontKey]
	if !ok {
		var err error
		src, err = text.NewFontSource(fontData(fk.fontKey))
		if err != nil {
			return nil, fmt.Errorf("load font: %w", err)
		}
		c.sources[fk.fontKey] = src
	}
	f := src.Face(spec.size)
	c.faces[fk] = f
	return f, nil
}

// textLayout positions a run relative to the anchor the caller passed,
// following textAlign and textBaseline.
type textLayout struct {
	width   float64
	ascent  float64
	descent float64
	// dx and dy move the anchor to the left end of the alphabetic baseline.
	dx, dy float64
}

func layoutText(face text.Face, s, align, baseline string) textLayout {
	m := face.Metrics()
	l := textLayout{width: face.Advance(s), ascent: m.Ascent, descent: m.Descent}

	switch align {
	case "center":
		l.dx = -l.width / 2
	case "right", "end":
		l.dx = -l.width
	}
	switch baseline {
	case "top", "hanging":
		l.dy = m.Ascent
	case "middle":
		l.dy = (m.Ascent - m.Descent) / 2
	case "bottom", "ideographic":
		l.dy = -m.Descent
	}
	return l
}

// metrics reports the layout relative to the anchor, as measureText does.
func (l textLayout) metrics() ir.TextMetrics {
	return ir.TextMetrics{
		ActualBoundingBoxAscent:  l.ascent - l.dy,
		ActualBoundingBoxDescent: l.descent + l.dy,
		ActualBoundingBoxLeft:    -l.dx,
		ActualBoundingBoxRight:   l.width + l.dx,
		FontBoundingBoxAscent:    l.ascent - l.dy,
		FontBoundingBoxDescent:   l.descent + l.dy,
		Width:                    l.width,
	}
}

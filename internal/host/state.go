package host

import (
	"fmt"
	"math"
	"slices"

	"github.com/gogpu/gg"
)

// paint is a fill or stroke style: a solid color, or a gradient brush when
// brush is set.
type paint struct {
	color gg.RGBA
	brush gg.Brush
	css   string
}

func solidPaint(c gg.RGBA) paint {
	return paint{color: c, css: formatCSSColor(c)}
}

// drawState is everything save/restore covers apart from the transform,
// which gg's own stack holds.
type drawState struct {
	fill, stroke paint

	lineWidth  float64
	lineCap    string
	lineJoin   string
	miterLimit float64
	dash       []float64
	dashOffset float64

	font         fontSpec
	textAlign    string
	textBaseline string
	globalAlpha  float64
}

func defaultState() drawState {
	font, err := parseFont(defaultFont)
	if err != nil {
		panic(err)
	}
	return drawState{
		fill:         solidPaint(gg.Black),
		stroke:       solidPaint(gg.Black),
		lineWidth:    1,
		lineCap:      "butt",
		lineJoin:     "miter",
		miterLimit:   10,
		font:         font,
		textAlign:    "start",
		textBaseline: "top",
		globalAlpha:  1,
	}
}

func (s drawState) clone() drawState {
	s.dash = slices.Clone(s.dash)
	return s
}

// brush returns what gg should paint with, with globalAlpha applied to
// solid colors.
func (p paint) brushWith(alpha float64) gg.Brush {
	if p.brush != nil {
		return p.brush
	}
	c := p.color
	c.A *= alpha
	return gg.Solid(c)
}

func lineCap(name string) (gg.LineCap, error) {
	switch name {
	case "butt":
		return gg.LineCapButt, nil
	case "round":
		return gg.LineCapRound, nil
	case "square":
		return gg.LineCapSquare, nil
	}
	return 0, fmt.Errorf("unsupported line cap %q", name)
}

func lineJoin(name string) (gg.LineJoin, error) {
	switch name {
	case "miter":
		return gg.LineJoinMiter, nil
	case "round":
		return gg.LineJoinRound, nil
	case "bevel":
		return gg.LineJoinBevel, nil
	}
	return 0, fmt.Errorf("unsupported line join %q", name)
}

// validDash reports whether segments may become a dash pattern. Patterns
// with a negative or non-finite entry are ignored, as in a browser.
func validDash(segments []float64) bool {
	for _, v := range segments {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// normalizeDash repeats an odd-length pattern so it has even length.
func normalizeDash(segments []float64) []float64 {
	if len(segments)%2 == 1 {
		return append(slices.Clone(segments), segments...)
	}
	return slices.Clone(segments)
}

// applyFill configures c to fill with the current fill style.
func (s *drawState) applyFill(c *gg.Context) {
	c.SetFillBrush(s.fill.brushWith(s.globalAlpha))
}

// applyStroke configures c to stroke with the current stroke style and
// line settings.
func (s *drawState) applyStroke(c *gg.Context) {
	c.SetStrokeBrush(s.stroke.brushWith(s.globalAlpha))
	c.SetLineWidth(s.lineWidth)
	if lc, err := lineCap(s.lineCap); err == nil {
		c.SetLineCap(lc)
	}
	if lj, err := lineJoin(s.lineJoin); err == nil {
		c.SetLineJoin(lj)
	}
	c.SetMiterLimit(s.miterLimit)
	if len(s.dash) == 0 {
		c.ClearDash()
		return
	}
	c.SetDash(s.dash...)
	c.SetDashOffset(s.dashOffset)
}

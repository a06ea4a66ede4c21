package harness

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/roach88/drawseq/internal/engine"
	"github.com/roach88/drawseq/internal/ir"
)

// stepFunc performs one facade call. Queries return their answer as an
// IRValue; everything else returns nil.
type stepFunc func(seq *engine.Sequence, a *stepArgs) (ir.IRValue, error)

// defaultDashCapacity is the buffer size get_line_dash uses when the step
// does not give one.
const defaultDashCapacity = 16

var stepTable = map[string]stepFunc{
	"fill_rect":   rectStep((*engine.Sequence).FillRect),
	"stroke_rect": rectStep((*engine.Sequence).StrokeRect),
	"clear_rect":  rectStep((*engine.Sequence).ClearRect),
	"rect":        rectStep((*engine.Sequence).Rect),
	"round_rect": func(seq *engine.Sequence, a *stepArgs) (ir.IRValue, error) {
		x, y, w, h, r := a.num("x"), a.num("y"), a.num("w"), a.num("h"), a.num("radii")
		return call(a, func() { seq.RoundRect(x, y, w, h, r) })
	},

	"begin_path": bare((*engine.Sequence).BeginPath),
	"close_path": bare((*engine.Sequence).ClosePath),
	"fill":       bare((*engine.Sequence).Fill),
	"stroke":     bare((*engine.Sequence).Stroke),
	"move_to":    pointStep((*engine.Sequence).MoveTo),
	"line_to":    pointStep((*engine.Sequence).LineTo),
	"bezier_to": func(seq *engine.Sequence, a *stepArgs) (ir.IRValue, error) {
		c1x, c1y := a.num("cp1x"), a.num("cp1y")
		c2x, c2y := a.num("cp2x"), a.num("cp2y")
		x, y := a.num("x"), a.num("y")
		return call(a, func() { seq.BezierTo(c1x, c1y, c2x, c2y, x, y) })
	},
	"quadratic_curve_to": func(seq *engine.Sequence, a *stepArgs) (ir.IRValue, error) {
		cpx, cpy, x, y := a.num("cpx"), a.num("cpy"), a.num("x"), a.num("y")
		return call(a, func() { seq.QuadraticCurveTo(cpx, cpy, x, y) })
	},
	"arc": func(seq *engine.Sequence, a *stepArgs) (ir.IRValue, error) {
		x, y, r := a.num("x"), a.num("y"), a.num("radius")
		start, end := a.num("start_angle"), a.num("end_angle")
		ccw := a.flag("counter_clockwise")
		return call(a, func() { seq.Arc(x, y, r, start, end, ccw) })
	},
	"arc_to": func(seq *engine.Sequence, a *stepArgs) (ir.IRValue, error) {
		x1, y1, x2, y2, r := a.num("x1"), a.num("y1"), a.num("x2"), a.num("y2"), a.num("radius")
		return call(a, func() { seq.ArcTo(x1, y1, x2, y2, r) })
	},
	"ellipse": func(seq *engine.Sequence, a *stepArgs) (ir.IRValue, error) {
		x, y := a.num("x"), a.num("y")
		rx, ry, rot := a.num("radius_x"), a.num("radius_y"), a.numOr("rotation", 0)
		start, end := a.num("start_angle"), a.num("end_angle")
		ccw := a.flag("counter_clockwise")
		return call(a, func() { seq.Ellipse(x, y, rx, ry, rot, start, end, ccw) })
	},

	"fill_text":   textStep((*engine.Sequence).FillText),
	"stroke_text": textStep((*engine.Sequence).StrokeText),
	"fill_codepoint": func(seq *engine.Sequence, a *stepArgs) (ir.IRValue, error) {
		c, x, y := a.char("char"), a.num("x"), a.num("y")
		return call(a, func() { seq.FillCodepoint(c, x, y) })
	},

	"set_fill_color": func(seq *engine.Sequence, a *stepArgs) (ir.IRValue, error) {
		c := a.color("color")
		return call(a, func() { seq.SetFillColor(c) })
	},
	"set_stroke_color": func(seq *engine.Sequence, a *stepArgs) (ir.IRValue, error) {
		c := a.color("color")
		return call(a, func() { seq.SetStrokeColor(c) })
	},
	"set_fill_style":   stringStep("css", (*engine.Sequence).SetFillStyle),
	"set_stroke_style": stringStep("css", (*engine.Sequence).SetStrokeStyle),
	"set_font":         stringStep("font", (*engine.Sequence).SetFont),
	"set_line_cap":     stringStep("cap", (*engine.Sequence).SetLineCap),
	"set_line_join":    stringStep("join", (*engine.Sequence).SetLineJoin),
	"set_line_width": func(seq *engine.Sequence, a *stepArgs) (ir.IRValue, error) {
		w := a.num("width")
		return call(a, func() { seq.SetLineWidth(w) })
	},
	"set_line_dash": func(seq *engine.Sequence, a *stepArgs) (ir.IRValue, error) {
		segs := a.floats("segments")
		return call(a, func() { seq.SetLineDash(segs) })
	},
	"set_line_dash_offset": func(seq *engine.Sequence, a *stepArgs) (ir.IRValue, error) {
		off := a.num("offset")
		return call(a, func() { seq.SetLineDashOffset(off) })
	},

	"save":            bare((*engine.Sequence).Save),
	"restore":         bare((*engine.Sequence).Restore),
	"reset":           bare((*engine.Sequence).Reset),
	"reset_transform": bare((*engine.Sequence).ResetTransform),
	"scale":           pointStep((*engine.Sequence).Scale),
	"translate":       pointStep((*engine.Sequence).Translate),
	"rotate": func(seq *engine.Sequence, a *stepArgs) (ir.IRValue, error) {
		angle := a.num("angle")
		return call(a, func() { seq.Rotate(angle) })
	},
	"set_transform": func(seq *engine.Sequence, a *stepArgs) (ir.IRValue, error) {
		m := a.matrix()
		return call(a, func() { seq.SetTransform(m) })
	},
	"transform": func(seq *engine.Sequence, a *stepArgs) (ir.IRValue, error) {
		m := a.matrix()
		return call(a, func() { seq.Transform(m) })
	},

	"create_linear_gradient": func(seq *engine.Sequence, a *stepArgs) (ir.IRValue, error) {
		id := a.id()
		x0, y0, x1, y1 := a.num("x0"), a.num("y0"), a.num("x1"), a.num("y1")
		return call(a, func() { seq.CreateLinearGradient(id, x0, y0, x1, y1) })
	},
	"create_radial_gradient": func(seq *engine.Sequence, a *stepArgs) (ir.IRValue, error) {
		id := a.id()
		x0, y0, r0 := a.num("x0"), a.num("y0"), a.num("r0")
		x1, y1, r1 := a.num("x1"), a.num("y1"), a.num("r1")
		return call(a, func() { seq.CreateRadialGradient(id, x0, y0, r0, x1, y1, r1) })
	},
	"add_color_stop": func(seq *engine.Sequence, a *stepArgs) (ir.IRValue, error) {
		id, off, css := a.id(), a.num("offset"), a.str("css")
		return call(a, func() { seq.AddColorStop(id, off, css) })
	},
	"set_fill_style_gradient": idStep((*engine.Sequence).SetFillStyleGradient),
	"release_id":              idStep((*engine.Sequence).ReleaseID),

	"load_pixels": func(seq *engine.Sequence, a *stepArgs) (ir.IRValue, error) {
		id, w, h := a.id(), a.integer("width"), a.integer("height")
		px := a.pixels(w, h)
		return call(a, func() { seq.LoadPixels(id, px, w, h) })
	},
	"put_pixels": func(seq *engine.Sequence, a *stepArgs) (ir.IRValue, error) {
		id, dx, dy := a.id(), a.integer("dx"), a.integer("dy")
		return call(a, func() { seq.PutPixels(id, dx, dy) })
	},
	"put_pixels_dirty": func(seq *engine.Sequence, a *stepArgs) (ir.IRValue, error) {
		id, dx, dy := a.id(), a.integer("dx"), a.integer("dy")
		x, y := a.integer("dirty_x"), a.integer("dirty_y")
		w, h := a.integer("dirty_width"), a.integer("dirty_height")
		return call(a, func() { seq.PutPixelsDirty(id, dx, dy, x, y, w, h) })
	},
	"draw_image": func(seq *engine.Sequence, a *stepArgs) (ir.IRValue, error) {
		id, dx, dy := a.id(), a.num("dx"), a.num("dy")
		return call(a, func() { seq.DrawImage(id, dx, dy) })
	},
	"draw_image_ex": func(seq *engine.Sequence, a *stepArgs) (ir.IRValue, error) {
		id := a.id()
		sx, sy, sw, sh := a.num("sx"), a.num("sy"), a.num("sw"), a.num("sh")
		dx, dy, dw, dh := a.num("dx"), a.num("dy"), a.num("dw"), a.num("dh")
		return call(a, func() { seq.DrawImageEx(id, sx, sy, sw, sh, dx, dy, dw, dh) })
	},
	"get_pixels": func(seq *engine.Sequence, a *stepArgs) (ir.IRValue, error) {
		id := a.id()
		x, y, w, h := a.num("x"), a.num("y"), a.num("w"), a.num("h")
		return call(a, func() { seq.GetPixels(id, x, y, w, h) })
	},

	"set_canvas_prop_double": func(seq *engine.Sequence, a *stepArgs) (ir.IRValue, error) {
		name, v := a.str("name"), a.num("value")
		return call(a, func() { seq.SetCanvasPropDouble(name, v) })
	},
	"set_canvas_prop_string": func(seq *engine.Sequence, a *stepArgs) (ir.IRValue, error) {
		name, v := a.str("name"), a.str("value")
		return call(a, func() { seq.SetCanvasPropString(name, v) })
	},

	// Queries.

	"measure_text": func(seq *engine.Sequence, a *stepArgs) (ir.IRValue, error) {
		text := a.str("text")
		if a.err != nil {
			return nil, a.err
		}
		m, err := seq.MeasureText(text)
		if err != nil {
			return nil, err
		}
		return ir.Obj(
			ir.O("width", ir.IRFloat(m.Width)),
			ir.O("actual_bounding_box_ascent", ir.IRFloat(m.ActualBoundingBoxAscent)),
			ir.O("actual_bounding_box_descent", ir.IRFloat(m.ActualBoundingBoxDescent)),
			ir.O("actual_bounding_box_left", ir.IRFloat(m.ActualBoundingBoxLeft)),
			ir.O("actual_bounding_box_right", ir.IRFloat(m.ActualBoundingBoxRight)),
			ir.O("font_bounding_box_ascent", ir.IRFloat(m.FontBoundingBoxAscent)),
			ir.O("font_bounding_box_descent", ir.IRFloat(m.FontBoundingBoxDescent)),
		), nil
	},
	"get_transform": func(seq *engine.Sequence, a *stepArgs) (ir.IRValue, error) {
		m, err := seq.GetTransform()
		if err != nil {
			return nil, err
		}
		return ir.Obj(
			ir.O("a", ir.IRFloat(m.A)), ir.O("b", ir.IRFloat(m.B)), ir.O("c", ir.IRFloat(m.C)),
			ir.O("d", ir.IRFloat(m.D)), ir.O("e", ir.IRFloat(m.E)), ir.O("f", ir.IRFloat(m.F)),
		), nil
	},
	"get_line_dash": func(seq *engine.Sequence, a *stepArgs) (ir.IRValue, error) {
		capacity := a.integerOr("capacity", defaultDashCapacity)
		if a.err != nil {
			return nil, a.err
		}
		buf := make([]float64, capacity)
		n, err := seq.GetLineDash(buf)
		if err != nil {
			return nil, err
		}
		return ir.Obj(ir.O("length", ir.IRInt(n)), ir.O("segments", ir.Floats(buf[:min(n, capacity)]))), nil
	},
	"get_line_dash_length": func(seq *engine.Sequence, a *stepArgs) (ir.IRValue, error) {
		n, err := seq.GetLineDashLength()
		if err != nil {
			return nil, err
		}
		return ir.IRInt(n), nil
	},
	"image_data_to_buffer": func(seq *engine.Sequence, a *stepArgs) (ir.IRValue, error) {
		id, size := a.id(), a.integer("size")
		if a.err != nil {
			return nil, a.err
		}
		buf := make([]byte, size)
		n, err := seq.ImageDataToBuffer(id, buf)
		if err != nil {
			return nil, err
		}
		pixels := ir.IRArray{}
		for i := 0; i+4 <= n; i += 4 {
			c := ir.RGBA(buf[i], buf[i+1], buf[i+2], buf[i+3])
			pixels = append(pixels, ir.IRString(c.CSS()))
		}
		return ir.Obj(ir.O("written", ir.IRInt(n)), ir.O("pixels", pixels)), nil
	},
	"get_canvas_prop_double": func(seq *engine.Sequence, a *stepArgs) (ir.IRValue, error) {
		name := a.str("name")
		if a.err != nil {
			return nil, a.err
		}
		v, err := seq.GetCanvasPropDouble(name)
		if err != nil {
			return nil, err
		}
		return ir.IRFloat(v), nil
	},
	"get_canvas_prop_string": func(seq *engine.Sequence, a *stepArgs) (ir.IRValue, error) {
		name := a.str("name")
		if a.err != nil {
			return nil, a.err
		}
		v, err := seq.GetCanvasPropString(name)
		if err != nil {
			return nil, err
		}
		return ir.IRString(v), nil
	},
	"load_image": func(seq *engine.Sequence, a *stepArgs) (ir.IRValue, error) {
		url, id := a.str("url"), a.id()
		if a.err != nil {
			return nil, a.err
		}
		ok, err := seq.LoadImage(url, id)
		if err != nil {
			return ir.IRBool(ok), err
		}
		return ir.IRBool(ok), nil
	},

	// Lifecycle.

	"flush": func(seq *engine.Sequence, a *stepArgs) (ir.IRValue, error) {
		return nil, seq.Flush()
	},
	"close": func(seq *engine.Sequence, a *stepArgs) (ir.IRValue, error) {
		return nil, seq.Close()
	},
}

// StepNames returns every step op in sorted order.
func StepNames() []string {
	names := make([]string, 0, len(stepTable))
	for name := range stepTable {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func call(a *stepArgs, fn func()) (ir.IRValue, error) {
	if a.err != nil {
		return nil, a.err
	}
	fn()
	return nil, nil
}

func bare(fn func(*engine.Sequence)) stepFunc {
	return func(seq *engine.Sequence, a *stepArgs) (ir.IRValue, error) {
		return call(a, func() { fn(seq) })
	}
}

func rectStep(fn func(*engine.Sequence, float64, float64, float64, float64)) stepFunc {
	return func(seq *engine.Sequence, a *stepArgs) (ir.IRValue, error) {
		x, y, w, h := a.num("x"), a.num("y"), a.num("w"), a.num("h")
		return call(a, func() { fn(seq, x, y, w, h) })
	}
}

func pointStep(fn func(*engine.Sequence, float64, float64)) stepFunc {
	return func(seq *engine.Sequence, a *stepArgs) (ir.IRValue, error) {
		x, y := a.num("x"), a.num("y")
		return call(a, func() { fn(seq, x, y) })
	}
}

func textStep(fn func(*engine.Sequence, string, float64, float64)) stepFunc {
	return func(seq *engine.Sequence, a *stepArgs) (ir.IRValue, error) {
		text, x, y := a.str("text"), a.num("x"), a.num("y")
		return call(a, func() { fn(seq, text, x, y) })
	}
}

func stringStep(key string, fn func(*engine.Sequence, string)) stepFunc {
	return func(seq *engine.Sequence, a *stepArgs) (ir.IRValue, error) {
		v := a.str(key)
		return call(a, func() { fn(seq, v) })
	}
}

func idStep(fn func(*engine.Sequence, int32)) stepFunc {
	return func(seq *engine.Sequence, a *stepArgs) (ir.IRValue, error) {
		id := a.id()
		return call(a, func() { fn(seq, id) })
	}
}

// stepArgs reads typed arguments out of a YAML map. The first problem is
// kept in err and later reads return zero values.
type stepArgs struct {
	op  string
	m   map[string]any
	err error
}

func (a *stepArgs) fail(format string, args ...any) {
	if a.err == nil {
		a.err = fmt.Errorf("%s: "+format, append([]any{a.op}, args...)...)
	}
}

func (a *stepArgs) lookup(key string) (any, bool) {
	v, ok := a.m[key]
	if !ok {
		a.fail("missing argument %q", key)
	}
	return v, ok
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func (a *stepArgs) num(key string) float64 {
	v, ok := a.lookup(key)
	if !ok {
		return 0
	}
	f, ok := toFloat(v)
	if !ok {
		a.fail("argument %q must be a number, got %T", key, v)
	}
	return f
}

func (a *stepArgs) numOr(key string, def float64) float64 {
	if _, ok := a.m[key]; !ok {
		return def
	}
	return a.num(key)
}

func (a *stepArgs) integer(key string) int {
	f := a.num(key)
	if f != math.Trunc(f) {
		a.fail("argument %q must be an integer, got %v", key, f)
	}
	return int(f)
}

func (a *stepArgs) integerOr(key string, def int) int {
	if _, ok := a.m[key]; !ok {
		return def
	}
	return a.integer(key)
}

func (a *stepArgs) id() int32 {
	n := a.integer("id")
	if n < math.MinInt32 || n > math.MaxInt32 {
		a.fail("id %d out of range", n)
	}
	return int32(n)
}

func (a *stepArgs) str(key string) string {
	v, ok := a.lookup(key)
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		a.fail("argument %q must be a string, got %T", key, v)
	}
	return s
}

func (a *stepArgs) flag(key string) bool {
	v, ok := a.m[key]
	if !ok {
		return false
	}
	b, ok := v.(bool)
	if !ok {
		a.fail("argument %q must be a boolean, got %T", key, v)
	}
	return b
}

func (a *stepArgs) floats(key string) []float64 {
	v, ok := a.lookup(key)
	if !ok {
		return nil
	}
	list, ok := v.([]any)
	if !ok {
		a.fail("argument %q must be a list, got %T", key, v)
		return nil
	}
	out := make([]float64, len(list))
	for i, elem := range list {
		f, ok := toFloat(elem)
		if !ok {
			a.fail("argument %q[%d] must be a number, got %T", key, i, elem)
			return nil
		}
		out[i] = f
	}
	return out
}

// char accepts a code point number or a one-character string.
func (a *stepArgs) char(key string) rune {
	v, ok := a.lookup(key)
	if !ok {
		return 0
	}
	if s, isStr := v.(string); isStr {
		if utf8.RuneCountInString(s) != 1 {
			a.fail("argument %q must be a single character, got %q", key, s)
			return 0
		}
		r, _ := utf8.DecodeRuneInString(s)
		return r
	}
	return rune(a.integer(key))
}

// color accepts a packed 0xRRGGBBAA number or a "#rrggbbaa" string.
func (a *stepArgs) color(key string) ir.Color {
	v, ok := a.lookup(key)
	if !ok {
		return 0
	}
	if s, isStr := v.(string); isStr {
		c, err := parsePixel(s)
		if err != nil {
			a.fail("argument %q: %v", key, err)
		}
		return c
	}
	n := a.integer(key)
	if n < 0 || n > math.MaxUint32 {
		a.fail("argument %q: color %d out of range", key, n)
	}
	return ir.Color(uint32(n))
}

func (a *stepArgs) matrix() ir.Matrix {
	return ir.Matrix{
		A: a.num("a"), B: a.num("b"), C: a.num("c"),
		D: a.num("d"), E: a.num("e"), F: a.num("f"),
	}
}

// pixels builds an RGBA block from either a solid "color" or an explicit
// "pixels" list of colors, one per pixel.
func (a *stepArgs) pixels(w, h int) []byte {
	if w <= 0 || h <= 0 {
		a.fail("width and height must be positive")
		return nil
	}
	if _, ok := a.m["pixels"]; ok {
		list, ok := a.m["pixels"].([]any)
		if !ok || len(list) != w*h {
			a.fail("pixels must list %d colors", w*h)
			return nil
		}
		out := make([]byte, 0, w*h*4)
		for i, elem := range list {
			s, ok := elem.(string)
			c, err := parsePixel(s)
			if !ok || err != nil {
				a.fail("pixels[%d] must be a \"#rrggbbaa\" color", i)
				return nil
			}
			out = append(out, c.R(), c.G(), c.B(), c.A())
		}
		return out
	}

	c := a.color("color")
	out := make([]byte, w*h*4)
	for i := 0; i < len(out); i += 4 {
		out[i], out[i+1], out[i+2], out[i+3] = c.R(), c.G(), c.B(), c.A()
	}
	return out
}

// parsePixel parses "#rrggbbaa" (or "#rrggbb", taken as opaque).
func parsePixel(s string) (ir.Color, error) {
	hex, ok := strings.CutPrefix(s, "#")
	if !ok || (len(hex) != 6 && len(hex) != 8) {
		return 0, fmt.Errorf("color %q must be #rrggbb or #rrggbbaa", s)
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	n, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("color %q: %w", s, err)
	}
	return ir.Color(uint32(n)), nil
}

package host

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"math"
	"slices"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"

	"github.com/roach88/drawseq/internal/engine"
	"github.com/roach88/drawseq/internal/ir"
)

// Surface is an in-process canvas that executes instruction chains with gg.
//
// A Surface is not safe for concurrent use. Registry serializes access to
// the surfaces it routes to.
type Surface struct {
	pm  *gg.Pixmap
	ctx *gg.Context
	// rectCtx draws the rectangle ops, which must leave the current path
	// alone. It shares the pixmap with ctx.
	rectCtx *gg.Context
	pen     pen

	state drawState
	stack []drawState

	gradients map[int32]gg.Brush
	images    map[int32]*image.NRGBA
	doubles   map[string]float64
	strings   map[string]string

	fonts  *fontCache
	logger *slog.Logger
}

// SurfaceOption configures a Surface.
type SurfaceOption func(*Surface)

// WithSurfaceLogger sets the logger for warnings such as reused ids.
func WithSurfaceLogger(l *slog.Logger) SurfaceOption {
	return func(s *Surface) {
		s.logger = l
	}
}

// NewSurface creates a transparent width x height surface.
func NewSurface(width, height int, opts ...SurfaceOption) (*Surface, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("surface size must be positive, got %dx%d", width, height)
	}
	pm := gg.NewPixmap(width, height)
	s := &Surface{
		pm:        pm,
		ctx:       gg.NewContext(width, height, gg.WithPixmap(pm)),
		rectCtx:   gg.NewContext(width, height, gg.WithPixmap(pm)),
		state:     defaultState(),
		gradients: make(map[int32]gg.Brush),
		images:    make(map[int32]*image.NRGBA),
		doubles:   make(map[string]float64),
		strings:   make(map[string]string),
		fonts:     newFontCache(),
		logger:    slog.Default(),
	}
	s.pen = pen{c: s.ctx}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s, nil
}

// Width returns the surface width in pixels.
func (s *Surface) Width() int { return s.pm.Width() }

// Height returns the surface height in pixels.
func (s *Surface) Height() int { return s.pm.Height() }

// Pixel returns the straight-alpha color at (x, y). Points outside the
// surface are transparent.
func (s *Surface) Pixel(x, y int) (r, g, b, a uint8) {
	if x < 0 || y < 0 || x >= s.pm.Width() || y >= s.pm.Height() {
		return 0, 0, 0, 0
	}
	i := (y*s.pm.Width() + x) * 4
	d := s.pm.Data()
	return d[i], d[i+1], d[i+2], d[i+3]
}

// EncodePNG writes the surface as a PNG image.
func (s *Surface) EncodePNG(w io.Writer) error {
	return png.Encode(w, s.canvasView())
}

// SavePNG writes the surface to a PNG file.
func (s *Surface) SavePNG(path string) error {
	return s.pm.SavePNG(path)
}

// Execute runs a chain in order. It stops at the first instruction that
// fails and returns an *ExecError naming it.
func (s *Surface) Execute(head *engine.Node) error {
	i := 0
	for n := head; n != nil; n = n.Next() {
		if err := s.exec(n.Op); err != nil {
			return &ExecError{Index: i, Kind: n.Op.Kind(), Err: err}
		}
		i++
	}
	return nil
}

func (s *Surface) exec(op ir.Op) error {
	switch op := op.(type) {
	// Rectangles.
	case ir.FillRect:
		return s.fillRect(op.X, op.Y, op.W, op.H)
	case ir.StrokeRect:
		return s.strokeRect(op.X, op.Y, op.W, op.H)
	case ir.ClearRect:
		s.clearRect(op.X, op.Y, op.W, op.H)
		return nil
	case ir.FillCodepoint:
		return s.drawText(string(op.Char), op.X, op.Y, s.state.fill)

	// Styles.
	case ir.SetLineWidth:
		if op.Width > 0 && !math.IsInf(op.Width, 0) {
			s.state.lineWidth = op.Width
		}
	case ir.SetFillStyleRGBA:
		s.state.fill = solidPaint(packedColor(op.Color))
	case ir.SetStrokeStyleRGBA:
		s.state.stroke = solidPaint(packedColor(op.Color))
	case ir.SetFillStyle:
		s.setFillCSS(string(op.CSS))
	case ir.SetStrokeStyle:
		s.setStrokeCSS(string(op.CSS))
	case ir.SetFont:
		s.setFont(string(op.Font))
	case ir.SetLineCap:
		s.setLineCap(string(op.Cap))
	case ir.SetLineJoin:
		s.setLineJoin(string(op.Join))
	case ir.SetLineDash:
		if validDash(op.Segments) {
			s.state.dash = normalizeDash(op.Segments)
		}
	case ir.SetLineDashOffset:
		if !math.IsNaN(op.Offset) && !math.IsInf(op.Offset, 0) {
			s.state.dashOffset = op.Offset
		}

	// Paths.
	case ir.BeginPath:
		s.pen.reset()
	case ir.ClosePath:
		s.pen.closePath()
	case ir.Fill:
		return s.fill(s.ctx)
	case ir.Stroke:
		s.state.applyStroke(s.ctx)
		return s.ctx.StrokePreserve()
	case ir.MoveTo:
		s.pen.moveTo(op.X, op.Y)
	case ir.LineTo:
		s.pen.lineTo(op.X, op.Y)
	case ir.Arc:
		return s.pen.arc(op.X, op.Y, op.Radius, op.StartAngle, op.EndAngle, op.CounterClockwise)
	case ir.ArcTo:
		return s.pen.arcTo(op.X1, op.Y1, op.X2, op.Y2, op.Radius)
	case ir.BezierTo:
		s.pen.cubicTo(op.CP1X, op.CP1Y, op.CP2X, op.CP2Y, op.X, op.Y)
	case ir.QuadraticCurveTo:
		s.pen.quadTo(op.CPX, op.CPY, op.X, op.Y)
	case ir.Rect:
		s.pen.rect(op.X, op.Y, op.W, op.H)
	case ir.RoundRect:
		return s.pen.roundRect(op.X, op.Y, op.W, op.H, op.Radii)
	case ir.Ellipse:
		return s.pen.ellipseArc(op.X, op.Y, op.RadiusX, op.RadiusY, op.Rotation,
			op.StartAngle, op.EndAngle, op.CounterClockwise)

	// Text.
	case ir.FillText:
		return s.drawText(op.CodePage.Decode(op.Text), op.X, op.Y, s.state.fill)
	case ir.StrokeText:
		// gg has no glyph outlines to stroke, so stroked text is painted
		// solid in the stroke style.
		return s.drawText(op.CodePage.Decode(op.Text), op.X, op.Y, s.state.stroke)
	case ir.MeasureText:
		l, err := s.layout(op.CodePage.Decode(op.Text))
		if err != nil {
			return err
		}
		*op.Out = l.metrics()

	// State.
	case ir.Save:
		s.stack = append(s.stack, s.state.clone())
		s.ctx.Push()
	case ir.Restore:
		if len(s.stack) == 0 {
			return nil
		}
		s.state = s.stack[len(s.stack)-1]
		s.stack = s.stack[:len(s.stack)-1]
		s.ctx.Pop()
	case ir.Reset:
		s.reset()

	// Transforms.
	case ir.Scale:
		s.ctx.Scale(op.X, op.Y)
	case ir.Translate:
		s.ctx.Translate(op.X, op.Y)
	case ir.Rotate:
		s.ctx.Rotate(op.Angle)
	case ir.SetTransform:
		s.ctx.SetTransform(toMatrix(op.Matrix))
	case ir.Transform:
		s.ctx.Transform(toMatrix(op.Matrix))
	case ir.ResetTransform:
		s.ctx.Identity()
	case ir.GetTransform:
		*op.Out = fromMatrix(s.ctx.GetTransform())

	// Gradients.
	case ir.CreateLinearGradient:
		x0, y0 := s.ctx.TransformPoint(op.X0, op.Y0)
		x1, y1 := s.ctx.TransformPoint(op.X1, op.Y1)
		s.storeGradient(op.ID, gg.NewLinearGradientBrush(x0, y0, x1, y1))
	case ir.CreateRadialGradient:
		return s.createRadialGradient(op)
	case ir.SetColorStop:
		return s.addColorStop(op)
	case ir.SetFillStyleGradient:
		g, ok := s.gradients[op.ID]
		if !ok {
			return unknownID("set_fill_style_gradient", op.ID)
		}
		s.state.fill = paint{brush: g, css: fmt.Sprintf("gradient(%d)", op.ID)}
	case ir.ReleaseID:
		if !s.has(op.ID) {
			s.logger.Warn("release of unknown id", "id", op.ID)
			return nil
		}
		s.forget(op.ID)

	// Line dash queries.
	case ir.GetLineDash:
		copy(op.Buffer, s.state.dash)
		*op.Length = len(s.state.dash)
	case ir.GetLineDashLength:
		*op.Out = len(s.state.dash)

	// Images.
	case ir.ImageData:
		return s.loadPixels(op)
	case ir.PutImageData:
		return s.putImageData(op)
	case ir.DrawImage:
		return s.drawImage(op)
	case ir.GetImageData:
		return s.getImageData(op)
	case ir.ImageDataToBuffer:
		return s.imageDataToBuffer(op)

	// Canvas properties.
	case ir.GetCanvasPropDouble:
		v, err := s.propDouble(op.Name)
		if err != nil {
			return err
		}
		*op.Out = v
	case ir.GetCanvasPropString:
		v, err := s.propString(op.Name)
		if err != nil {
			return err
		}
		*op.Out = v
	case ir.SetCanvasPropDouble:
		return s.setPropDouble(string(op.Name), op.Value)
	case ir.SetCanvasPropString:
		return s.setPropString(string(op.Name), string(op.Value))

	default:
		return fmt.Errorf("unsupported instruction %T", op)
	}
	return nil
}

func (s *Surface) fillRect(x, y, w, h float64) error {
	c := s.rectCtx
	c.SetTransform(s.ctx.GetTransform())
	c.ClearPath()
	c.DrawRectangle(x, y, w, h)
	return s.fill(c)
}

// fill paints the current path of c with the fill style and keeps the
// path. gg rasterizes solid colors only, so gradient fills are composited
// here from the path's coverage mask.
func (s *Surface) fill(c *gg.Context) error {
	if s.state.fill.brush == nil {
		s.state.applyFill(c)
		return c.FillPreserve()
	}
	mask := c.AsMask()
	view := s.canvasView()
	alpha := s.state.globalAlpha
	for y := 0; y < mask.Height(); y++ {
		for x := 0; x < mask.Width(); x++ {
			cov := mask.At(x, y)
			if cov == 0 {
				continue
			}
			col := s.state.fill.brush.ColorAt(float64(x)+0.5, float64(y)+0.5)
			col.A *= alpha * float64(cov) / 255
			blendOver(view.Pix[view.PixOffset(x, y):], col)
		}
	}
	return nil
}

// blendOver composites a straight-alpha color onto one straight-alpha
// pixel.
func blendOver(px []uint8, c gg.RGBA) {
	sa := clamp01(c.A)
	if sa == 0 {
		return
	}
	da := float64(px[3]) / 255
	oa := sa + da*(1-sa)
	mix := func(sc float64, dc uint8) uint8 {
		return to255((clamp01(sc)*sa + float64(dc)/255*da*(1-sa)) / oa)
	}
	px[0], px[1], px[2] = mix(c.R, px[0]), mix(c.G, px[1]), mix(c.B, px[2])
	px[3] = to255(oa)
}

func (s *Surface) strokeRect(x, y, w, h float64) error {
	c := s.rectCtx
	c.SetTransform(s.ctx.GetTransform())
	c.ClearPath()
	c.DrawRectangle(x, y, w, h)
	s.state.applyStroke(c)
	return c.Stroke()
}

// clearRect makes the device-space bounding box of the transformed
// rectangle transparent.
func (s *Surface) clearRect(x, y, w, h float64) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range [4][2]float64{{x, y}, {x + w, y}, {x, y + h}, {x + w, y + h}} {
		px, py := s.ctx.TransformPoint(p[0], p[1])
		minX, maxX = math.Min(minX, px), math.Max(maxX, px)
		minY, maxY = math.Min(minY, py), math.Max(maxY, py)
	}
	r := image.Rect(
		int(math.Floor(minX)), int(math.Floor(minY)),
		int(math.Ceil(maxX)), int(math.Ceil(maxY)),
	).Intersect(s.canvasView().Bounds())
	if r.Empty() {
		return
	}
	view := s.canvasView()
	for row := r.Min.Y; row < r.Max.Y; row++ {
		off := view.PixOffset(r.Min.X, row)
		clear(view.Pix[off : off+4*r.Dx()])
	}
}

func (s *Surface) layout(str string) (textLayout, error) {
	face, err := s.fonts.face(s.state.font)
	if err != nil {
		return textLayout{}, err
	}
	return layoutText(face, str, s.state.textAlign, s.state.textBaseline), nil
}

// drawText paints str anchored at (x, y) in user space. Glyphs are not
// transformed; only the anchor follows the current transform.
func (s *Surface) drawText(str string, x, y float64, p paint) error {
	if str == "" {
		return nil
	}
	face, err := s.fonts.face(s.state.font)
	if err != nil {
		return err
	}
	l := layoutText(face, str, s.state.textAlign, s.state.textBaseline)
	dx, dy := s.ctx.TransformPoint(x+l.dx, y+l.dy)
	col := p.brushWith(s.state.globalAlpha).ColorAt(dx, dy)
	text.Draw(s.canvasView(), str, face, dx, dy, col.Color())
	return nil
}

func (s *Surface) setFillCSS(css string) {
	c, err := parseCSSColor(css)
	if err != nil {
		s.logger.Debug("fill style ignored", "error", err)
		return
	}
	s.state.fill = solidPaint(c)
}

func (s *Surface) setStrokeCSS(css string) {
	c, err := parseCSSColor(css)
	if err != nil {
		s.logger.Debug("stroke style ignored", "error", err)
		return
	}
	s.state.stroke = solidPaint(c)
}

func (s *Surface) setFont(css string) {
	f, err := parseFont(css)
	if err != nil {
		s.logger.Debug("font ignored", "error", err)
		return
	}
	s.state.font = f
}

func (s *Surface) setLineCap(name string) {
	if _, err := lineCap(name); err == nil {
		s.state.lineCap = name
	}
}

func (s *Surface) setLineJoin(name string) {
	if _, err := lineJoin(name); err == nil {
		s.state.lineJoin = name
	}
}

// reset returns the surface to its initial state: transparent pixels,
// default drawing state, identity transform and an empty path. Registered
// gradients and images survive.
func (s *Surface) reset() {
	for range s.stack {
		s.ctx.Pop()
	}
	s.stack = s.stack[:0]
	s.state = defaultState()
	s.ctx.Identity()
	s.ctx.ResetClip()
	s.pen.reset()
	s.pm.Clear(gg.Transparent)
}

func (s *Surface) createRadialGradient(op ir.CreateRadialGradient) error {
	if op.R0 < 0 || op.R1 < 0 {
		return fmt.Errorf("create_radial_gradient: negative radius (%v, %v)", op.R0, op.R1)
	}
	m := s.ctx.GetTransform()
	scale := math.Sqrt(math.Abs(m.A*m.E - m.B*m.D))
	fx, fy := s.ctx.TransformPoint(op.X0, op.Y0)
	cx, cy := s.ctx.TransformPoint(op.X1, op.Y1)
	g := gg.NewRadialGradientBrush(cx, cy, op.R0*scale, op.R1*scale).SetFocus(fx, fy)
	s.storeGradient(op.ID, g)
	return nil
}

func (s *Surface) addColorStop(op ir.SetColorStop) error {
	if op.Offset < 0 || op.Offset > 1 || math.IsNaN(op.Offset) {
		return fmt.Errorf("set_color_stop: offset %v outside [0, 1]", op.Offset)
	}
	c, err := parseCSSColor(string(op.CSS))
	if err != nil {
		return fmt.Errorf("set_color_stop: %w", err)
	}
	switch g := s.gradients[op.ID].(type) {
	case *gg.LinearGradientBrush:
		g.AddColorStop(op.Offset, c)
	case *gg.RadialGradientBrush:
		g.AddColorStop(op.Offset, c)
	default:
		return unknownID("set_color_stop", op.ID)
	}
	return nil
}

func (s *Surface) storeGradient(id int32, g gg.Brush) {
	if s.has(id) {
		s.logger.Warn("gradient id reused", "id", id)
		s.forget(id)
	}
	s.gradients[id] = g
}

// Gradients and images share one id space.

func (s *Surface) has(id int32) bool {
	_, g := s.gradients[id]
	_, i := s.images[id]
	return g || i
}

func (s *Surface) forget(id int32) {
	delete(s.gradients, id)
	delete(s.images, id)
}

// IDs returns the registered gradient and image ids in ascending order.
func (s *Surface) IDs() []int32 {
	ids := make([]int32, 0, len(s.gradients)+len(s.images))
	for id := range s.gradients {
		ids = append(ids, id)
	}
	for id := range s.images {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// The canvas matrix (a b c d e f) maps to gg's row-major layout.

func toMatrix(m ir.Matrix) gg.Matrix {
	return gg.Matrix{A: m.A, B: m.C, C: m.E, D: m.B, E: m.D, F: m.F}
}

func fromMatrix(m gg.Matrix) ir.Matrix {
	return ir.Matrix{A: m.A, B: m.D, C: m.B, D: m.E, E: m.C, F: m.F}
}

package engine

import (
	"math"

	"github.com/roach88/drawseq/internal/ir"
)

// Rectangles.

// FillRect paints the rectangle with the current fill style.
func (s *Sequence) FillRect(x, y, w, h float64) {
	s.check("FillRect")
	s.append(ir.FillRect{X: x, Y: y, W: w, H: h})
}

// StrokeRect outlines the rectangle with the current stroke style.
func (s *Sequence) StrokeRect(x, y, w, h float64) {
	s.check("StrokeRect")
	s.append(ir.StrokeRect{X: x, Y: y, W: w, H: h})
}

// ClearRect sets every pixel in the rectangle to transparent black.
func (s *Sequence) ClearRect(x, y, w, h float64) {
	s.check("ClearRect")
	s.append(ir.ClearRect{X: x, Y: y, W: w, H: h})
}

// Paths.

// BeginPath discards the current path.
func (s *Sequence) BeginPath() {
	s.check("BeginPath")
	s.append(ir.BeginPath{})
}

// ClosePath joins the current point back to the start of the subpath.
func (s *Sequence) ClosePath() {
	s.check("ClosePath")
	s.append(ir.ClosePath{})
}

// MoveTo starts a new subpath at (x, y).
func (s *Sequence) MoveTo(x, y float64) {
	s.check("MoveTo")
	s.append(ir.MoveTo{X: x, Y: y})
}

// LineTo adds a straight segment to (x, y).
func (s *Sequence) LineTo(x, y float64) {
	s.check("LineTo")
	s.append(ir.LineTo{X: x, Y: y})
}

// BezierTo adds a cubic Bezier segment ending at (x, y).
func (s *Sequence) BezierTo(cp1x, cp1y, cp2x, cp2y, x, y float64) {
	s.check("BezierTo")
	s.append(ir.BezierTo{CP1X: cp1x, CP1Y: cp1y, CP2X: cp2x, CP2Y: cp2y, X: x, Y: y})
}

// QuadraticCurveTo adds a quadratic Bezier segment ending at (x, y).
func (s *Sequence) QuadraticCurveTo(cpx, cpy, x, y float64) {
	s.check("QuadraticCurveTo")
	s.append(ir.QuadraticCurveTo{CPX: cpx, CPY: cpy, X: x, Y: y})
}

// Arc adds a circular arc centered on (x, y). Angles are in radians.
func (s *Sequence) Arc(x, y, radius, startAngle, endAngle float64, counterClockwise bool) {
	s.check("Arc")
	s.append(ir.Arc{
		X: x, Y: y, Radius: radius,
		StartAngle: startAngle, EndAngle: endAngle,
		CounterClockwise: counterClockwise,
	})
}

// ArcTo adds an arc of the given radius tangent to both control lines.
func (s *Sequence) ArcTo(x1, y1, x2, y2, radius float64) {
	s.check("ArcTo")
	s.append(ir.ArcTo{X1: x1, Y1: y1, X2: x2, Y2: y2, Radius: radius})
}

// Rect adds a closed rectangular subpath.
func (s *Sequence) Rect(x, y, w, h float64) {
	s.check("Rect")
	s.append(ir.Rect{X: x, Y: y, W: w, H: h})
}

// RoundRect adds a rectangle with one corner radius applied to all corners.
func (s *Sequence) RoundRect(x, y, w, h, radii float64) {
	s.check("RoundRect")
	s.append(ir.RoundRect{X: x, Y: y, W: w, H: h, Radii: radii})
}

// Ellipse adds an elliptical arc rotated by rotation radians.
func (s *Sequence) Ellipse(x, y, radiusX, radiusY, rotation, startAngle, endAngle float64, counterClockwise bool) {
	s.check("Ellipse")
	s.append(ir.Ellipse{
		X: x, Y: y, RadiusX: radiusX, RadiusY: radiusY,
		Rotation:   rotation,
		StartAngle: startAngle, EndAngle: endAngle,
		CounterClockwise: counterClockwise,
	})
}

// Fill paints the current path with the fill style.
func (s *Sequence) Fill() {
	s.check("Fill")
	s.append(ir.Fill{})
}

// Stroke outlines the current path with the stroke style and line props.
func (s *Sequence) Stroke() {
	s.check("Stroke")
	s.append(ir.Stroke{})
}

// Text.

// FillText draws text at (x, y). The text is encoded in the Sequence code
// page and copied, so the caller's string is not retained.
func (s *Sequence) FillText(text string, x, y float64) {
	s.check("FillText")
	s.append(ir.FillText{Text: s.ownText(text), X: x, Y: y, CodePage: s.codePage})
}

// StrokeText outlines text at (x, y). The text is copied like FillText.
func (s *Sequence) StrokeText(text string, x, y float64) {
	s.check("StrokeText")
	s.append(ir.StrokeText{Text: s.ownText(text), X: x, Y: y, CodePage: s.codePage})
}

// FillCodepoint draws a single character.
func (s *Sequence) FillCodepoint(c rune, x, y float64) {
	s.check("FillCodepoint")
	s.append(ir.FillCodepoint{Char: c, X: x, Y: y})
}

// Styles.
//
// SetFillColor, SetStrokeColor and SetLineWidth are elided when the value
// matches the one last emitted. CSS string styles are always appended.

// SetFillColor sets the fill style to a packed 0xRRGGBBAA color.
func (s *Sequence) SetFillColor(c ir.Color) {
	s.check("SetFillColor")
	if s.cache.fillValid && s.cache.fill == c {
		s.stats.Suppressed++
		return
	}
	s.cache.fill = c
	s.cache.fillValid = true
	s.append(ir.SetFillStyleRGBA{Color: c})
}

// SetStrokeColor sets the stroke style to a packed 0xRRGGBBAA color.
func (s *Sequence) SetStrokeColor(c ir.Color) {
	s.check("SetStrokeColor")
	if s.cache.strokeValid && s.cache.stroke == c {
		s.stats.Suppressed++
		return
	}
	s.cache.stroke = c
	s.cache.strokeValid = true
	s.append(ir.SetStrokeStyleRGBA{Color: c})
}

// SetFillStyle sets the fill style from a CSS color string. It invalidates
// the cached fill color, since the host fill no longer matches it.
func (s *Sequence) SetFillStyle(css string) {
	s.check("SetFillStyle")
	s.cache.fillValid = false
	s.append(ir.SetFillStyle{CSS: s.ownString(css)})
}

// SetStrokeStyle sets the stroke style from a CSS color string.
func (s *Sequence) SetStrokeStyle(css string) {
	s.check("SetStrokeStyle")
	s.cache.strokeValid = false
	s.append(ir.SetStrokeStyle{CSS: s.ownString(css)})
}

// SetLineWidth sets the stroke width in user units.
func (s *Sequence) SetLineWidth(width float64) {
	s.check("SetLineWidth")
	if s.cache.lineWidth == width {
		s.stats.Suppressed++
		return
	}
	s.cache.lineWidth = width
	s.append(ir.SetLineWidth{Width: width})
}

// SetLineCap accepts "butt", "round" or "square".
func (s *Sequence) SetLineCap(cap string) {
	s.check("SetLineCap")
	s.append(ir.SetLineCap{Cap: s.ownString(cap)})
}

// SetLineJoin accepts "miter", "round" or "bevel".
func (s *Sequence) SetLineJoin(join string) {
	s.check("SetLineJoin")
	s.append(ir.SetLineJoin{Join: s.ownString(join)})
}

// SetLineDash copies segments. An empty slice clears the dash.
func (s *Sequence) SetLineDash(segments []float64) {
	s.check("SetLineDash")
	s.append(ir.SetLineDash{Segments: s.ownFloats(segments)})
}

// SetLineDashOffset shifts where the dash pattern starts.
func (s *Sequence) SetLineDashOffset(offset float64) {
	s.check("SetLineDashOffset")
	s.append(ir.SetLineDashOffset{Offset: offset})
}

// SetFont takes a CSS font shorthand such as "bold 16px monospace".
func (s *Sequence) SetFont(font string) {
	s.check("SetFont")
	s.append(ir.SetFont{Font: s.ownString(font)})
}

// State.

// Save pushes the host drawing state.
func (s *Sequence) Save() {
	s.check("Save")
	s.append(ir.Save{})
}

// Restore pops host state. The host may now hold any style, so the style
// cache is cleared.
func (s *Sequence) Restore() {
	s.check("Restore")
	s.cache.invalidate()
	s.append(ir.Restore{})
}

// Reset returns the host context to its defaults and clears the style cache.
func (s *Sequence) Reset() {
	s.check("Reset")
	s.cache.invalidate()
	s.append(ir.Reset{})
}

// Transforms.

// Scale multiplies the current transform by a scale.
func (s *Sequence) Scale(x, y float64) {
	s.check("Scale")
	s.append(ir.Scale{X: x, Y: y})
}

// Translate moves the origin by (x, y).
func (s *Sequence) Translate(x, y float64) {
	s.check("Translate")
	s.append(ir.Translate{X: x, Y: y})
}

// Rotate turns the current transform by angle radians.
func (s *Sequence) Rotate(angle float64) {
	s.check("Rotate")
	s.append(ir.Rotate{Angle: angle})
}

// SetTransform replaces the current matrix.
func (s *Sequence) SetTransform(m ir.Matrix) {
	s.check("SetTransform")
	s.append(ir.SetTransform{Matrix: m})
}

// Transform multiplies the current matrix by m.
func (s *Sequence) Transform(m ir.Matrix) {
	s.check("Transform")
	s.append(ir.Transform{Matrix: m})
}

// ResetTransform restores the identity matrix.
func (s *Sequence) ResetTransform() {
	s.check("ResetTransform")
	s.append(ir.ResetTransform{})
}

// Gradients. Ids are chosen by the caller and live in the host until
// ReleaseID.

// CreateLinearGradient registers a linear gradient under id.
func (s *Sequence) CreateLinearGradient(id int32, x0, y0, x1, y1 float64) {
	s.check("CreateLinearGradient")
	s.append(ir.CreateLinearGradient{ID: id, X0: x0, Y0: y0, X1: x1, Y1: y1})
}

// CreateRadialGradient registers a radial gradient between two circles under id.
func (s *Sequence) CreateRadialGradient(id int32, x0, y0, r0, x1, y1, r1 float64) {
	s.check("CreateRadialGradient")
	s.append(ir.CreateRadialGradient{ID: id, X0: x0, Y0: y0, R0: r0, X1: x1, Y1: y1, R1: r1})
}

// AddColorStop adds a CSS color stop at offset in [0, 1].
func (s *Sequence) AddColorStop(id int32, offset float64, css string) {
	s.check("AddColorStop")
	s.append(ir.SetColorStop{ID: id, Offset: offset, CSS: s.ownString(css)})
}

// SetFillStyleGradient fills with the gradient registered under id.
func (s *Sequence) SetFillStyleGradient(id int32) {
	s.check("SetFillStyleGradient")
	s.cache.fillValid = false
	s.append(ir.SetFillStyleGradient{ID: id})
}

// ReleaseID frees the host resource registered under id.
func (s *Sequence) ReleaseID(id int32) {
	s.check("ReleaseID")
	s.append(ir.ReleaseID{ID: id})
}

// Images.

// LoadPixels registers a copy of pixels (RGBA, row-major, width*height*4
// bytes) under id.
func (s *Sequence) LoadPixels(id int32, pixels []byte, width, height int) {
	s.check("LoadPixels")
	s.append(ir.ImageData{ID: id, Pixels: s.ownBytes(pixels), Width: width, Height: height})
}

// PutPixels writes the whole image registered under id at (dx, dy).
func (s *Sequence) PutPixels(id int32, dx, dy int) {
	s.check("PutPixels")
	s.append(ir.PutImageData{ID: id, DX: dx, DY: dy})
}

// PutPixelsDirty writes only the dirty rectangle of the image.
func (s *Sequence) PutPixelsDirty(id int32, dx, dy, dirtyX, dirtyY, dirtyWidth, dirtyHeight int) {
	s.check("PutPixelsDirty")
	s.append(ir.PutImageData{
		ID: id, DX: dx, DY: dy,
		DirtyX: dirtyX, DirtyY: dirtyY, DirtyWidth: dirtyWidth, DirtyHeight: dirtyHeight,
	})
}

// DrawImage draws the image registered under id at its natural size.
func (s *Sequence) DrawImage(id int32, dx, dy float64) {
	s.check("DrawImage")
	s.append(ir.DrawImage{ID: id, DX: dx, DY: dy})
}

// DrawImageEx draws the source rectangle of an image scaled into the
// destination rectangle.
func (s *Sequence) DrawImageEx(id int32, sx, sy, sw, sh, dx, dy, dw, dh float64) {
	s.check("DrawImageEx")
	s.append(ir.DrawImage{ID: id, SX: sx, SY: sy, SW: sw, SH: sh, DX: dx, DY: dy, DW: dw, DH: dh})
}

// GetPixels snapshots a region of the target into a host image under id.
// Read the bytes back with ImageDataToBuffer.
func (s *Sequence) GetPixels(id int32, x, y, w, h float64) {
	s.check("GetPixels")
	s.append(ir.GetImageData{ID: id, X: x, Y: y, W: w, H: h})
}

// Canvas properties.

// SetCanvasPropDouble sets a numeric context property by name. Setting
// lineWidth this way clears the cached line width.
func (s *Sequence) SetCanvasPropDouble(name string, value float64) {
	s.check("SetCanvasPropDouble")
	if name == "lineWidth" {
		s.cache.lineWidth = math.NaN()
	}
	s.append(ir.SetCanvasPropDouble{Name: s.ownString(name), Value: value})
}

// SetCanvasPropString sets a string context property by name. Setting
// fillStyle or strokeStyle this way clears the matching cached color.
func (s *Sequence) SetCanvasPropString(name, value string) {
	s.check("SetCanvasPropString")
	switch name {
	case "fillStyle":
		s.cache.fillValid = false
	case "strokeStyle":
		s.cache.strokeValid = false
	}
	s.append(ir.SetCanvasPropString{Name: s.ownString(name), Value: s.ownString(value)})
}

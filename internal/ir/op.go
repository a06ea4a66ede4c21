package ir

// Op is one queued drawing or query operation.
//
// The interface is sealed: only the types in this file implement it, and
// consumers execute ops with an exhaustive type switch.
//
// Slice fields on non-query ops are owned by the op. The engine copies
// caller data into them at append time and releases them when the batch is
// torn down. Query ops borrow their inputs and write results through
// pointer fields.
type Op interface {
	Kind() Kind
	op()
}

// Rectangles.

type FillRect struct{ X, Y, W, H float64 }
type StrokeRect struct{ X, Y, W, H float64 }
type ClearRect struct{ X, Y, W, H float64 }

// FillCodepoint draws a single character.
type FillCodepoint struct {
	Char rune
	X, Y float64
}

// Styles.

type SetLineWidth struct{ Width float64 }
type SetFillStyleRGBA struct{ Color Color }
type SetStrokeStyleRGBA struct{ Color Color }
type SetFillStyle struct{ CSS []byte }
type SetStrokeStyle struct{ CSS []byte }
type SetFont struct{ Font []byte }
type SetLineCap struct{ Cap []byte }
type SetLineJoin struct{ Join []byte }
type SetLineDash struct{ Segments []float64 }
type SetLineDashOffset struct{ Offset float64 }

// Path construction and painting.

type BeginPath struct{}
type ClosePath struct{}
type Fill struct{}
type Stroke struct{}
type MoveTo struct{ X, Y float64 }
type LineTo struct{ X, Y float64 }

type Arc struct {
	X, Y, Radius         float64
	StartAngle, EndAngle float64
	CounterClockwise     bool
}

type ArcTo struct{ X1, Y1, X2, Y2, Radius float64 }

// BezierTo is a cubic bezier segment.
type BezierTo struct{ CP1X, CP1Y, CP2X, CP2Y, X, Y float64 }

type QuadraticCurveTo struct{ CPX, CPY, X, Y float64 }
type Rect struct{ X, Y, W, H float64 }
type RoundRect struct{ X, Y, W, H, Radii float64 }

type Ellipse struct {
	X, Y, RadiusX, RadiusY float64
	Rotation               float64
	StartAngle, EndAngle   float64
	CounterClockwise       bool
}

// Text.

type FillText struct {
	Text     []byte
	X, Y     float64
	CodePage CodePage
}

type StrokeText struct {
	Text     []byte
	X, Y     float64
	CodePage CodePage
}

// MeasureText is a query. Text is borrowed.
type MeasureText struct {
	Text     []byte
	CodePage CodePage
	Out      *TextMetrics
}

// State.

type Save struct{}
type Restore struct{}
type Reset struct{}

// Transforms.

type Scale struct{ X, Y float64 }
type Translate struct{ X, Y float64 }
type Rotate struct{ Angle float64 }
type SetTransform struct{ Matrix Matrix }
type Transform struct{ Matrix Matrix }
type ResetTransform struct{}

// GetTransform is a query.
type GetTransform struct{ Out *Matrix }

// Gradients. IDs are chosen by the caller and live on the host until
// released.

type CreateLinearGradient struct {
	ID             int32
	X0, Y0, X1, Y1 float64
}

type CreateRadialGradient struct {
	ID                     int32
	X0, Y0, R0, X1, Y1, R1 float64
}

type SetColorStop struct {
	ID     int32
	Offset float64
	CSS    []byte
}

type SetFillStyleGradient struct{ ID int32 }

// ReleaseID frees a host-side gradient or image.
type ReleaseID struct{ ID int32 }

// Line dash queries. GetLineDash copies at most len(Buffer) segments and
// reports the full segment count through Length.

type GetLineDash struct {
	Buffer []float64
	Length *int
}

type GetLineDashLength struct{ Out *int }

// Images.

// ImageData registers a copy of an RGBA pixel block on the host under ID.
type ImageData struct {
	ID            int32
	Pixels        []byte
	Width, Height int
}

// PutImageData writes a registered image at (DX, DY). A zero-sized dirty
// rectangle means the whole image.
type PutImageData struct {
	ID                                      int32
	DX, DY                                  int
	DirtyX, DirtyY, DirtyWidth, DirtyHeight int
}

// DrawImage draws a registered image. Zero SW/SH select the whole source and
// zero DW/DH keep the source size.
type DrawImage struct {
	ID             int32
	SX, SY, SW, SH float64
	DX, DY, DW, DH float64
}

// GetImageData captures a region of the surface under ID.
type GetImageData struct {
	ID         int32
	X, Y, W, H float64
}

// ImageDataToBuffer is a query that copies a registered image into Buffer
// and reports the number of bytes written.
type ImageDataToBuffer struct {
	ID      int32
	Buffer  []byte
	Written *int
}

// Canvas properties.

type GetCanvasPropDouble struct {
	Name string
	Out  *float64
}

type GetCanvasPropString struct {
	Name string
	Out  *string
}

type SetCanvasPropDouble struct {
	Name  []byte
	Value float64
}

type SetCanvasPropString struct {
	Name, Value []byte
}

func (FillRect) Kind() Kind             { return KindFillRect }
func (StrokeRect) Kind() Kind           { return KindStrokeRect }
func (ClearRect) Kind() Kind            { return KindClearRect }
func (FillCodepoint) Kind() Kind        { return KindFillCodepoint }
func (SetLineWidth) Kind() Kind         { return KindSetLineWidth }
func (SetFillStyleRGBA) Kind() Kind     { return KindSetFillStyleRGBA }
func (SetStrokeStyleRGBA) Kind() Kind   { return KindSetStrokeStyleRGBA }
func (SetFillStyle) Kind() Kind         { return KindSetFillStyle }
func (SetStrokeStyle) Kind() Kind       { return KindSetStrokeStyle }
func (SetFont) Kind() Kind              { return KindSetFont }
func (SetLineCap) Kind() Kind           { return KindSetLineCap }
func (SetLineJoin) Kind() Kind          { return KindSetLineJoin }
func (SetLineDash) Kind() Kind          { return KindSetLineDash }
func (SetLineDashOffset) Kind() Kind    { return KindSetLineDashOffset }
func (BeginPath) Kind() Kind            { return KindBeginPath }
func (ClosePath) Kind() Kind            { return KindClosePath }
func (Fill) Kind() Kind                 { return KindFill }
func (Stroke) Kind() Kind               { return KindStroke }
func (MoveTo) Kind() Kind               { return KindMoveTo }
func (LineTo) Kind() Kind               { return KindLineTo }
func (Arc) Kind() Kind                  { return KindArc }
func (ArcTo) Kind() Kind                { return KindArcTo }
func (BezierTo) Kind() Kind             { return KindBezierTo }
func (QuadraticCurveTo) Kind() Kind     { return KindQuadraticCurveTo }
func (Rect) Kind() Kind                 { return KindRect }
func (RoundRect) Kind() Kind            { return KindRoundRect }
func (Ellipse) Kind() Kind              { return KindEllipse }
func (FillText) Kind() Kind             { return KindFillText }
func (StrokeText) Kind() Kind           { return KindStrokeText }
func (MeasureText) Kind() Kind          { return KindMeasureText }
func (Save) Kind() Kind                 { return KindSave }
func (Restore) Kind() Kind              { return KindRestore }
func (Reset) Kind() Kind                { return KindReset }
func (Scale) Kind() Kind                { return KindScale }
func (Translate) Kind() Kind            { return KindTranslate }
func (Rotate) Kind() Kind               { return KindRotate }
func (SetTransform) Kind() Kind         { return KindSetTransform }
func (Transform) Kind() Kind            { return KindTransform }
func (ResetTransform) Kind() Kind       { return KindResetTransform }
func (GetTransform) Kind() Kind         { return KindGetTransform }
func (CreateLinearGradient) Kind() Kind { return KindCreateLinearGradient }
func (CreateRadialGradient) Kind() Kind { return KindCreateRadialGradient }
func (SetColorStop) Kind() Kind         { return KindSetColorStop }
func (SetFillStyleGradient) Kind() Kind { return KindSetFillStyleGradient }
func (ReleaseID) Kind() Kind            { return KindReleaseID }
func (GetLineDash) Kind() Kind          { return KindGetLineDash }
func (GetLineDashLength) Kind() Kind    { return KindGetLineDashLength }
func (ImageData) Kind() Kind            { return KindImageData }
func (PutImageData) Kind() Kind         { return KindPutImageData }
func (DrawImage) Kind() Kind            { return KindDrawImage }
func (GetImageData) Kind() Kind         { return KindGetImageData }
func (ImageDataToBuffer) Kind() Kind    { return KindImageDataToBuffer }
func (GetCanvasPropDouble) Kind() Kind  { return KindGetCanvasPropDouble }
func (GetCanvasPropString) Kind() Kind  { return KindGetCanvasPropString }
func (SetCanvasPropDouble) Kind() Kind  { return KindSetCanvasPropDouble }
func (SetCanvasPropString) Kind() Kind  { return KindSetCanvasPropString }

func (FillRect) op()             {}
func (StrokeRect) op()           {}
func (ClearRect) op()            {}
func (FillCodepoint) op()        {}
func (SetLineWidth) op()         {}
func (SetFillStyleRGBA) op()     {}
func (SetStrokeStyleRGBA) op()   {}
func (SetFillStyle) op()         {}
func (SetStrokeStyle) op()       {}
func (SetFont) op()              {}
func (SetLineCap) op()           {}
func (SetLineJoin) op()          {}
func (SetLineDash) op()          {}
func (SetLineDashOffset) op()    {}
func (BeginPath) op()            {}
func (ClosePath) op()            {}
func (Fill) op()                 {}
func (Stroke) op()               {}
func (MoveTo) op()               {}
func (LineTo) op()               {}
func (Arc) op()                  {}
func (ArcTo) op()                {}
func (BezierTo) op()             {}
func (QuadraticCurveTo) op()     {}
func (Rect) op()                 {}
func (RoundRect) op()            {}
func (Ellipse) op()              {}
func (FillText) op()             {}
func (StrokeText) op()           {}
func (MeasureText) op()          {}
func (Save) op()                 {}
func (Restore) op()              {}
func (Reset) op()                {}
func (Scale) op()                {}
func (Translate) op()            {}
func (Rotate) op()               {}
func (SetTransform) op()         {}
func (Transform) op()            {}
func (ResetTransform) op()       {}
func (GetTransform) op()         {}
func (CreateLinearGradient) op() {}
func (CreateRadialGradient) op() {}
func (SetColorStop) op()         {}
func (SetFillStyleGradient) op() {}
func (ReleaseID) op()            {}
func (GetLineDash) op()          {}
func (GetLineDashLength) op()    {}
func (ImageData) op()            {}
func (PutImageData) op()         {}
func (DrawImage) op()            {}
func (GetImageData) op()         {}
func (ImageDataToBuffer) op()    {}
func (GetCanvasPropDouble) op()  {}
func (GetCanvasPropString) op()  {}
func (SetCanvasPropDouble) op()  {}
func (SetCanvasPropString) op()  {}

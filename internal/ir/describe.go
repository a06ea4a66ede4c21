package ir

import "math"

// Describe returns the arguments of an op as an IRObject. Descriptions feed
// golden traces, batch hashes and the dispatch journal, so they contain only
// inputs: query outputs and raw pixel bytes are left out (pixel blocks are
// summarized by their length).
//
// NaN and infinities are valid drawing arguments but have no canonical JSON
// form; they are described as the strings "NaN", "Infinity" and
// "-Infinity".
func Describe(op Op) IRObject {
	args := describe(op)
	for k, v := range args {
		args[k] = finite(v)
	}
	return args
}

func describe(op Op) IRObject {
	switch o := op.(type) {
	case FillRect:
		return rectArgs(o.X, o.Y, o.W, o.H)
	case StrokeRect:
		return rectArgs(o.X, o.Y, o.W, o.H)
	case ClearRect:
		return rectArgs(o.X, o.Y, o.W, o.H)
	case Rect:
		return rectArgs(o.X, o.Y, o.W, o.H)
	case RoundRect:
		args := rectArgs(o.X, o.Y, o.W, o.H)
		args["radii"] = IRFloat(o.Radii)
		return args
	case FillCodepoint:
		return Obj(O("char", IRInt(o.Char)), O("x", IRFloat(o.X)), O("y", IRFloat(o.Y)))

	case SetLineWidth:
		return Obj(O("width", IRFloat(o.Width)))
	case SetFillStyleRGBA:
		return Obj(O("color", IRString(o.Color.CSS())))
	case SetStrokeStyleRGBA:
		return Obj(O("color", IRString(o.Color.CSS())))
	case SetFillStyle:
		return Obj(O("css", IRString(o.CSS)))
	case SetStrokeStyle:
		return Obj(O("css", IRString(o.CSS)))
	case SetFont:
		return Obj(O("font", IRString(o.Font)))
	case SetLineCap:
		return Obj(O("cap", IRString(o.Cap)))
	case SetLineJoin:
		return Obj(O("join", IRString(o.Join)))
	case SetLineDash:
		return Obj(O("segments", Floats(o.Segments)))
	case SetLineDashOffset:
		return Obj(O("offset", IRFloat(o.Offset)))

	case BeginPath, ClosePath, Fill, Stroke, Save, Restore, Reset, ResetTransform:
		return IRObject{}
	case MoveTo:
		return pointArgs(o.X, o.Y)
	case LineTo:
		return pointArgs(o.X, o.Y)
	case Arc:
		return Obj(
			O("x", IRFloat(o.X)), O("y", IRFloat(o.Y)), O("radius", IRFloat(o.Radius)),
			O("start_angle", IRFloat(o.StartAngle)), O("end_angle", IRFloat(o.EndAngle)),
			O("counter_clockwise", IRBool(o.CounterClockwise)),
		)
	case ArcTo:
		return Obj(
			O("x1", IRFloat(o.X1)), O("y1", IRFloat(o.Y1)),
			O("x2", IRFloat(o.X2)), O("y2", IRFloat(o.Y2)),
			O("radius", IRFloat(o.Radius)),
		)
	case BezierTo:
		return Obj(
			O("cp1x", IRFloat(o.CP1X)), O("cp1y", IRFloat(o.CP1Y)),
			O("cp2x", IRFloat(o.CP2X)), O("cp2y", IRFloat(o.CP2Y)),
			O("x", IRFloat(o.X)), O("y", IRFloat(o.Y)),
		)
	case QuadraticCurveTo:
		return Obj(
			O("cpx", IRFloat(o.CPX)), O("cpy", IRFloat(o.CPY)),
			O("x", IRFloat(o.X)), O("y", IRFloat(o.Y)),
		)
	case Ellipse:
		return Obj(
			O("x", IRFloat(o.X)), O("y", IRFloat(o.Y)),
			O("radius_x", IRFloat(o.RadiusX)), O("radius_y", IRFloat(o.RadiusY)),
			O("rotation", IRFloat(o.Rotation)),
			O("start_angle", IRFloat(o.StartAngle)), O("end_angle", IRFloat(o.EndAngle)),
			O("counter_clockwise", IRBool(o.CounterClockwise)),
		)

	case FillText:
		return textArgs(o.Text, o.CodePage, o.X, o.Y)
	case StrokeText:
		return textArgs(o.Text, o.CodePage, o.X, o.Y)
	case MeasureText:
		return Obj(O("text", IRString(o.CodePage.Decode(o.Text))), O("code_page", IRInt(o.CodePage)))

	case Scale:
		return pointArgs(o.X, o.Y)
	case Translate:
		return pointArgs(o.X, o.Y)
	case Rotate:
		return Obj(O("angle", IRFloat(o.Angle)))
	case SetTransform:
		return matrixArgs(o.Matrix)
	case Transform:
		return matrixArgs(o.Matrix)
	case GetTransform:
		return IRObject{}

	case CreateLinearGradient:
		return Obj(
			O("id", IRInt(o.ID)),
			O("x0", IRFloat(o.X0)), O("y0", IRFloat(o.Y0)),
			O("x1", IRFloat(o.X1)), O("y1", IRFloat(o.Y1)),
		)
	case CreateRadialGradient:
		return Obj(
			O("id", IRInt(o.ID)),
			O("x0", IRFloat(o.X0)), O("y0", IRFloat(o.Y0)), O("r0", IRFloat(o.R0)),
			O("x1", IRFloat(o.X1)), O("y1", IRFloat(o.Y1)), O("r1", IRFloat(o.R1)),
		)
	case SetColorStop:
		return Obj(O("id", IRInt(o.ID)), O("offset", IRFloat(o.Offset)), O("css", IRString(o.CSS)))
	case SetFillStyleGradient:
		return Obj(O("id", IRInt(o.ID)))
	case ReleaseID:
		return Obj(O("id", IRInt(o.ID)))

	case GetLineDash:
		return Obj(O("capacity", IRInt(len(o.Buffer))))
	case GetLineDashLength:
		return IRObject{}

	case ImageData:
		return Obj(
			O("id", IRInt(o.ID)), O("bytes", IRInt(len(o.Pixels))),
			O("width", IRInt(o.Width)), O("height", IRInt(o.Height)),
		)
	case PutImageData:
		return Obj(
			O("id", IRInt(o.ID)), O("dx", IRInt(o.DX)), O("dy", IRInt(o.DY)),
			O("dirty_x", IRInt(o.DirtyX)), O("dirty_y", IRInt(o.DirtyY)),
			O("dirty_width", IRInt(o.DirtyWidth)), O("dirty_height", IRInt(o.DirtyHeight)),
		)
	case DrawImage:
		return Obj(
			O("id", IRInt(o.ID)),
			O("sx", IRFloat(o.SX)), O("sy", IRFloat(o.SY)), O("sw", IRFloat(o.SW)), O("sh", IRFloat(o.SH)),
			O("dx", IRFloat(o.DX)), O("dy", IRFloat(o.DY)), O("dw", IRFloat(o.DW)), O("dh", IRFloat(o.DH)),
		)
	case GetImageData:
		args := rectArgs(o.X, o.Y, o.W, o.H)
		args["id"] = IRInt(o.ID)
		return args
	case ImageDataToBuffer:
		return Obj(O("id", IRInt(o.ID)), O("capacity", IRInt(len(o.Buffer))))

	case GetCanvasPropDouble:
		return Obj(O("name", IRString(o.Name)))
	case GetCanvasPropString:
		return Obj(O("name", IRString(o.Name)))
	case SetCanvasPropDouble:
		return Obj(O("name", IRString(o.Name)), O("value", IRFloat(o.Value)))
	case SetCanvasPropString:
		return Obj(O("name", IRString(o.Name)), O("value", IRString(o.Value)))
	}
	return IRObject{}
}

// finite replaces non-finite floats, including those inside arrays.
func finite(v IRValue) IRValue {
	switch val := v.(type) {
	case IRFloat:
		f := float64(val)
		switch {
		case math.IsNaN(f):
			return IRString("NaN")
		case math.IsInf(f, 1):
			return IRString("Infinity")
		case math.IsInf(f, -1):
			return IRString("-Infinity")
		}
	case IRArray:
		for i := range val {
			val[i] = finite(val[i])
		}
	}
	return v
}

// Entry is the description of one op: its kind name plus its arguments.
func Entry(op Op) IRObject {
	return Obj(O("kind", IRString(op.Kind().String())), O("args", Describe(op)))
}

func rectArgs(x, y, w, h float64) IRObject {
	return Obj(O("x", IRFloat(x)), O("y", IRFloat(y)), O("w", IRFloat(w)), O("h", IRFloat(h)))
}

func pointArgs(x, y float64) IRObject {
	return Obj(O("x", IRFloat(x)), O("y", IRFloat(y)))
}

func textArgs(text []byte, cp CodePage, x, y float64) IRObject {
	return Obj(
		O("text", IRString(cp.Decode(text))), O("code_page", IRInt(cp)),
		O("x", IRFloat(x)), O("y", IRFloat(y)),
	)
}

func matrixArgs(m Matrix) IRObject {
	return Obj(
		O("a", IRFloat(m.A)), O("b", IRFloat(m.B)), O("c", IRFloat(m.C)),
		O("d", IRFloat(m.D)), O("e", IRFloat(m.E)), O("f", IRFloat(m.F)),
	)
}

package ir

import (
	"fmt"
	"slices"
)

// Kind identifies an instruction. Values are the wire codes understood by
// host surfaces; gaps in the numbering are codes retired before v1.
type Kind uint16

const (
	KindFillRect             Kind = 1
	KindFillCodepoint        Kind = 5
	KindSetLineWidth         Kind = 10
	KindSetFillStyleRGBA     Kind = 11
	KindSetFont              Kind = 12
	KindBeginPath            Kind = 13
	KindMoveTo               Kind = 14
	KindLineTo               Kind = 15
	KindFill                 Kind = 16
	KindStroke               Kind = 17
	KindSetStrokeStyleRGBA   Kind = 18
	KindArc                  Kind = 19
	KindStrokeRect           Kind = 20
	KindFillText             Kind = 21
	KindImageData            Kind = 22
	KindPutImageData         Kind = 23
	KindBezierTo             Kind = 24
	KindMeasureText          Kind = 25
	KindSave                 Kind = 26
	KindRestore              Kind = 27
	KindCreateRadialGradient Kind = 28
	KindSetColorStop         Kind = 29
	KindSetFillStyleGradient Kind = 30
	KindReleaseID            Kind = 31
	KindCreateLinearGradient Kind = 32
	KindSetFillStyle         Kind = 33
	KindSetStrokeStyle       Kind = 34
	KindClosePath            Kind = 35
	KindReset                Kind = 36
	KindClearRect            Kind = 37
	KindScale                Kind = 38
	KindTranslate            Kind = 39
	KindRotate               Kind = 40
	KindGetTransform         Kind = 41
	KindSetTransform         Kind = 42
	KindResetTransform       Kind = 43
	KindStrokeText           Kind = 44
	KindRoundRect            Kind = 45
	KindEllipse              Kind = 46
	KindQuadraticCurveTo     Kind = 47
	KindSetLineDash          Kind = 48
	KindGetLineDash          Kind = 49
	KindArcTo                Kind = 50
	KindGetLineDashLength    Kind = 51
	KindDrawImage            Kind = 52
	KindRect                 Kind = 53
	KindTransform            Kind = 54
	KindSetLineCap           Kind = 55
	KindSetLineJoin          Kind = 56
	KindSetLineDashOffset    Kind = 57
	KindGetImageData         Kind = 58
	KindImageDataToBuffer    Kind = 59
	KindGetCanvasPropDouble  Kind = 60
	KindGetCanvasPropString  Kind = 61
	KindSetCanvasPropDouble  Kind = 62
	KindSetCanvasPropString  Kind = 63
)

var kindNames = map[Kind]string{
	KindFillRect:             "fill_rect",
	KindFillCodepoint:        "fill_codepoint",
	KindSetLineWidth:         "set_line_width",
	KindSetFillStyleRGBA:     "set_fill_style_rgba",
	KindSetFont:              "set_font",
	KindBeginPath:            "begin_path",
	KindMoveTo:               "move_to",
	KindLineTo:               "line_to",
	KindFill:                 "fill",
	KindStroke:               "stroke",
	KindSetStrokeStyleRGBA:   "set_stroke_style_rgba",
	KindArc:                  "arc",
	KindStrokeRect:           "stroke_rect",
	KindFillText:             "fill_text",
	KindImageData:            "image_data",
	KindPutImageData:         "put_image_data",
	KindBezierTo:             "bezier_to",
	KindMeasureText:          "measure_text",
	KindSave:                 "save",
	KindRestore:              "restore",
	KindCreateRadialGradient: "create_radial_gradient",
	KindSetColorStop:         "set_color_stop",
	KindSetFillStyleGradient: "set_fill_style_gradient",
	KindReleaseID:            "release_id",
	KindCreateLinearGradient: "create_linear_gradient",
	KindSetFillStyle:         "set_fill_style",
	KindSetStrokeStyle:       "set_stroke_style",
	KindClosePath:            "close_path",
	KindReset:                "reset",
	KindClearRect:            "clear_rect",
	KindScale:                "scale",
	KindTranslate:            "translate",
	KindRotate:               "rotate",
	KindGetTransform:         "get_transform",
	KindSetTransform:         "set_transform",
	KindResetTransform:       "reset_transform",
	KindStrokeText:           "stroke_text",
	KindRoundRect:            "round_rect",
	KindEllipse:              "ellipse",
	KindQuadraticCurveTo:     "quadratic_curve_to",
	KindSetLineDash:          "set_line_dash",
	KindGetLineDash:          "get_line_dash",
	KindArcTo:                "arc_to",
	KindGetLineDashLength:    "get_line_dash_length",
	KindDrawImage:            "draw_image",
	KindRect:                 "rect",
	KindTransform:            "transform",
	KindSetLineCap:           "set_line_cap",
	KindSetLineJoin:          "set_line_join",
	KindSetLineDashOffset:    "set_line_dash_offset",
	KindGetImageData:         "get_image_data",
	KindImageDataToBuffer:    "image_data_to_buffer",
	KindGetCanvasPropDouble:  "get_canvas_prop_double",
	KindGetCanvasPropString:  "get_canvas_prop_string",
	KindSetCanvasPropDouble:  "set_canvas_prop_double",
	KindSetCanvasPropString:  "set_canvas_prop_string",
}

var kindsByName = func() map[string]Kind {
	m := make(map[string]Kind, len(kindNames))
	for k, name := range kindNames {
		m[name] = k
	}
	return m
}()

// String returns the snake_case name of the kind, or "kind(N)" for codes
// outside the table.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint16(k))
}

// Valid reports whether k is one of the defined wire codes.
func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// IsQuery reports whether instructions of this kind return a result to the
// caller. Appending a query forces the pending batch to be dispatched before
// the append returns.
func (k Kind) IsQuery() bool {
	switch k {
	case KindMeasureText,
		KindGetTransform,
		KindGetLineDash,
		KindGetLineDashLength,
		KindImageDataToBuffer,
		KindGetCanvasPropDouble,
		KindGetCanvasPropString:
		return true
	}
	return false
}

// ParseKind resolves a snake_case kind name.
func ParseKind(name string) (Kind, error) {
	if k, ok := kindsByName[name]; ok {
		return k, nil
	}
	return 0, fmt.Errorf("unknown instruction kind %q", name)
}

// Kinds returns every defined kind in wire-code order.
func Kinds() []Kind {
	out := make([]Kind, 0, len(kindNames))
	for k := range kindNames {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

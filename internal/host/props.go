package host

import (
	"fmt"
	"math"
	"slices"
)

var (
	textAligns    = []string{"start", "end", "left", "right", "center"}
	textBaselines = []string{"top", "hanging", "middle", "alphabetic", "ideographic", "bottom"}
)

// Built-in canvas properties map onto drawing state. Invalid values are
// ignored the way a browser ignores them. Any other name is stored as-is
// so it can be read back.

func (s *Surface) propDouble(name string) (float64, error) {
	switch name {
	case "globalAlpha":
		return s.state.globalAlpha, nil
	case "lineWidth":
		return s.state.lineWidth, nil
	case "miterLimit":
		return s.state.miterLimit, nil
	case "lineDashOffset":
		return s.state.dashOffset, nil
	case "canvasWidth":
		return float64(s.pm.Width()), nil
	case "canvasHeight":
		return float64(s.pm.Height()), nil
	}
	if v, ok := s.doubles[name]; ok {
		return v, nil
	}
	return 0, fmt.Errorf("%w %q", ErrUnknownProperty, name)
}

func (s *Surface) setPropDouble(name string, v float64) error {
	valid := !math.IsNaN(v) && !math.IsInf(v, 0)
	switch name {
	case "globalAlpha":
		if valid && v >= 0 && v <= 1 {
			s.state.globalAlpha = v
		}
	case "lineWidth":
		if valid && v > 0 {
			s.state.lineWidth = v
		}
	case "miterLimit":
		if valid && v > 0 {
			s.state.miterLimit = v
		}
	case "lineDashOffset":
		if valid {
			s.state.dashOffset = v
		}
	case "canvasWidth", "canvasHeight":
		return fmt.Errorf("canvas property %q is read-only", name)
	default:
		s.doubles[name] = v
	}
	return nil
}

func (s *Surface) propString(name string) (string, error) {
	switch name {
	case "font":
		return s.state.font.css, nil
	case "textAlign":
		return s.state.textAlign, nil
	case "textBaseline":
		return s.state.textBaseline, nil
	case "lineCap":
		return s.state.lineCap, nil
	case "lineJoin":
		return s.state.lineJoin, nil
	case "fillStyle":
		return s.state.fill.css, nil
	case "strokeStyle":
		return s.state.stroke.css, nil
	}
	if v, ok := s.strings[name]; ok {
		return v, nil
	}
	return "", fmt.Errorf("%w %q", ErrUnknownProperty, name)
}

func (s *Surface) setPropString(name, v string) error {
	switch name {
	case "font":
		s.setFont(v)
	case "textAlign":
		if slices.Contains(textAligns, v) {
			s.state.textAlign = v
		}
	case "textBaseline":
		if slices.Contains(textBaselines, v) {
			s.state.textBaseline = v
		}
	case "lineCap":
		s.setLineCap(v)
	case "lineJoin":
		s.setLineJoin(v)
	case "fillStyle":
		s.setFillCSS(v)
	case "strokeStyle":
		s.setStrokeCSS(v)
	default:
		s.strings[name] = v
	}
	return nil
}

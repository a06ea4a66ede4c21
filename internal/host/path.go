package host

import (
	"fmt"
	"math"

	"github.com/gogpu/gg"
)

// pen adds canvas path semantics on top of gg's path calls: arcs that honor
// the transform and the sweep direction, arcTo, rect subpaths, and a current
// point kept in user space.
type pen struct {
	c *gg.Context

	x, y           float64
	startX, startY float64
	ok             bool
}

func (p *pen) reset() {
	p.c.ClearPath()
	p.ok = false
}

func (p *pen) moveTo(x, y float64) {
	p.c.MoveTo(x, y)
	p.x, p.y, p.startX, p.startY, p.ok = x, y, x, y, true
}

// lineTo starts a subpath when there is no current point.
func (p *pen) lineTo(x, y float64) {
	if !p.ok {
		p.moveTo(x, y)
		return
	}
	p.c.LineTo(x, y)
	p.x, p.y = x, y
}

func (p *pen) ensure(x, y float64) {
	if !p.ok {
		p.moveTo(x, y)
	}
}

func (p *pen) quadTo(cpx, cpy, x, y float64) {
	p.ensure(cpx, cpy)
	p.c.QuadraticTo(cpx, cpy, x, y)
	p.x, p.y = x, y
}

func (p *pen) cubicTo(c1x, c1y, c2x, c2y, x, y float64) {
	p.ensure(c1x, c1y)
	p.c.CubicTo(c1x, c1y, c2x, c2y, x, y)
	p.x, p.y = x, y
}

func (p *pen) closePath() {
	if !p.ok {
		return
	}
	p.c.ClosePath()
	p.x, p.y = p.startX, p.startY
}

func (p *pen) rect(x, y, w, h float64) {
	p.moveTo(x, y)
	p.c.LineTo(x+w, y)
	p.c.LineTo(x+w, y+h)
	p.c.LineTo(x, y+h)
	p.c.ClosePath()
	p.x, p.y = x, y
}

func (p *pen) roundRect(x, y, w, h, r float64) error {
	if r < 0 {
		return fmt.Errorf("round_rect: negative radius %v", r)
	}
	r = math.Min(r, math.Min(math.Abs(w), math.Abs(h))/2)
	if r == 0 {
		p.rect(x, y, w, h)
		return nil
	}
	p.moveTo(x+r, y)
	p.lineTo(x+w-r, y)
	p.ellipse(x+w-r, y+r, r, r, 0, -math.Pi/2, 0, false)
	p.lineTo(x+w, y+h-r)
	p.ellipse(x+w-r, y+h-r, r, r, 0, 0, math.Pi/2, false)
	p.lineTo(x+r, y+h)
	p.ellipse(x+r, y+h-r, r, r, 0, math.Pi/2, math.Pi, false)
	p.lineTo(x, y+r)
	p.ellipse(x+r, y+r, r, r, 0, math.Pi, 3*math.Pi/2, false)
	p.closePath()
	return nil
}

// sweep returns the signed angle an arc covers, clamped to one full turn.
func sweep(start, end float64, ccw bool) float64 {
	const turn = 2 * math.Pi
	if !ccw {
		if end-start >= turn {
			return turn
		}
		s := math.Mod(end-start, turn)
		if s < 0 {
			s += turn
		}
		return s
	}
	if start-end >= turn {
		return -turn
	}
	s := math.Mod(start-end, turn)
	if s < 0 {
		s += turn
	}
	return -s
}

// ellipse appends an elliptical arc as cubic segments of at most a quarter
// turn each, joined to the current point by a straight line.
func (p *pen) ellipse(cx, cy, rx, ry, rotation, start, end float64, ccw bool) {
	sinR, cosR := math.Sincos(rotation)
	at := func(theta float64) (x, y, dx, dy float64) {
		sin, cos := math.Sincos(theta)
		x = cx + rx*cos*cosR - ry*sin*sinR
		y = cy + rx*cos*sinR + ry*sin*cosR
		dx = -rx*sin*cosR - ry*cos*sinR
		dy = -rx*sin*sinR + ry*cos*cosR
		return
	}

	x0, y0, _, _ := at(start)
	p.lineTo(x0, y0)

	total := sweep(start, end, ccw)
	n := int(math.Ceil(math.Abs(total) / (math.Pi / 2)))
	if n == 0 {
		return
	}
	step := total / float64(n)
	k := 4.0 / 3.0 * math.Tan(step/4)
	for i := 0; i < n; i++ {
		a1 := start + float64(i)*step
		a2 := a1 + step
		x1, y1, dx1, dy1 := at(a1)
		x2, y2, dx2, dy2 := at(a2)
		p.c.CubicTo(x1+k*dx1, y1+k*dy1, x2-k*dx2, y2-k*dy2, x2, y2)
		p.x, p.y = x2, y2
	}
}

func (p *pen) arc(cx, cy, r, start, end float64, ccw bool) error {
	if r < 0 {
		return fmt.Errorf("arc: negative radius %v", r)
	}
	p.ellipse(cx, cy, r, r, 0, start, end, ccw)
	return nil
}

func (p *pen) ellipseArc(cx, cy, rx, ry, rotation, start, end float64, ccw bool) error {
	if rx < 0 || ry < 0 {
		return fmt.Errorf("ellipse: negative radius (%v, %v)", rx, ry)
	}
	p.ellipse(cx, cy, rx, ry, rotation, start, end, ccw)
	return nil
}

// arcTo joins the current point to (x1, y1) with a line and then a circular
// arc of radius r tangent to both legs of the corner.
func (p *pen) arcTo(x1, y1, x2, y2, r float64) error {
	if r < 0 {
		return fmt.Errorf("arc_to: negative radius %v", r)
	}
	if !p.ok {
		p.moveTo(x1, y1)
		return nil
	}

	d1x, d1y := x1-p.x, y1-p.y
	d2x, d2y := x2-x1, y2-y1
	cross := d1x*d2y - d1y*d2x
	len1, len2 := math.Hypot(d1x, d1y), math.Hypot(d2x, d2y)
	if r == 0 || len1 == 0 || len2 == 0 || math.Abs(cross) < 1e-12*len1*len2 {
		p.lineTo(x1, y1)
		return nil
	}

	// Unit vectors from the corner back toward p0 and on toward p2.
	u1x, u1y := -d1x/len1, -d1y/len1
	u2x, u2y := d2x/len2, d2y/len2
	theta := math.Acos(math.Max(-1, math.Min(1, u1x*u2x+u1y*u2y)))
	dist := r / math.Tan(theta/2)
	t1x, t1y := x1+u1x*dist, y1+u1y*dist
	t2x, t2y := x1+u2x*dist, y1+u2y*dist

	bx, by := u1x+u2x, u1y+u2y
	bl := math.Hypot(bx, by)
	h := r / math.Sin(theta/2)
	ccx, ccy := x1+bx/bl*h, y1+by/bl*h

	start := math.Atan2(t1y-ccy, t1x-ccx)
	end := math.Atan2(t2y-ccy, t2x-ccx)
	p.ellipse(ccx, ccy, r, r, 0, start, end, cross < 0)
	return nil
}

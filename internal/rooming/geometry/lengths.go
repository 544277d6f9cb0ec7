package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// ============================================================
// Fixed-length enforcement
// ============================================================

type anchor struct {
	center Point
	radius float64
}

// enforceFixedLengths returns where the vertex at index moved has to go when
// the user drops it at desired. With one fixed edge the vertex is projected
// onto the circle around the other endpoint; with two it must sit on an
// intersection of both circles, and the one closer to desired wins. It
// reports false when the circles do not intersect.
func (e *Engine) enforceFixedLengths(moved int, desired Point) (Point, bool) {
	var anchors []anchor
	for _, nb := range [2]int{e.prev(moved), e.next(moved)} {
		if r, ok := e.constrained(moved, nb); ok {
			anchors = append(anchors, anchor{center: e.vertices[nb].Point, radius: r})
		}
	}

	switch len(anchors) {
	case 0:
		return desired, true
	case 1:
		return projectOntoCircle(anchors[0], desired, e.vertices[moved].Point), true
	}

	candidates, ok := circleIntersections(anchors[0], anchors[1], e.opts.LengthTolerance)
	if !ok {
		return Point{}, false
	}
	best := candidates[0]
	if len(candidates) > 1 && Distance(candidates[1], desired) < Distance(best, desired) {
		best = candidates[1]
	}
	return best, true
}

// projectOntoCircle moves desired radially onto the circle. When desired is
// the centre itself there is no direction to project along and fallback is
// returned.
func projectOntoCircle(a anchor, desired, fallback Point) Point {
	d := r2.Sub(desired.vec(), a.center.vec())
	if d.X == 0 && d.Y == 0 {
		return fallback
	}
	return fromVec(r2.Add(a.center.vec(), r2.Scale(a.radius, r2.Unit(d))))
}

// circleIntersections returns the one or two points where the circles meet.
// Tangent circles within tol are treated as touching; concentric circles of
// equal radius have no isolated intersection and are reported as infeasible.
func circleIntersections(c1, c2 anchor, tol float64) ([]Point, bool) {
	a, b := c1.center.vec(), c2.center.vec()
	r1, r2v := c1.radius, c2.radius
	ab := r2.Sub(b, a)
	d := r2.Norm(ab)

	if d == 0 {
		return nil, false
	}
	if d > r1+r2v+tol || d < math.Abs(r1-r2v)-tol {
		return nil, false
	}

	along := (r1*r1 - r2v*r2v + d*d) / (2 * d)
	h2 := r1*r1 - along*along
	if h2 < 0 {
		h2 = 0
	}
	h := math.Sqrt(h2)

	unit := r2.Scale(1/d, ab)
	mid := r2.Add(a, r2.Scale(along, unit))
	if h == 0 {
		return []Point{fromVec(mid)}, true
	}
	perp := r2.Vec{X: -unit.Y, Y: unit.X}
	return []Point{
		fromVec(r2.Add(mid, r2.Scale(h, perp))),
		fromVec(r2.Sub(mid, r2.Scale(h, perp))),
	}, true
}

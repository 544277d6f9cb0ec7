package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// ============================================================
// Angle enforcement
// ============================================================

// orientation is +1 for vertex lists with non-negative signed area and -1
// otherwise.
func orientation(points []Point) float64 {
	if SignedArea(points) < 0 {
		return -1
	}
	return 1
}

// interiorAngle measures the corner at vertex i. raw is the rotation from the
// edge towards prev to the edge towards next; the interior angle is 360-raw
// in the positive orientation and raw in the mirrored one.
func (e *Engine) interiorAngle(i int, sign float64) float64 {
	p := e.vertices[i].vec()
	toPrev := r2.Sub(e.vertices[e.prev(i)].vec(), p)
	toNext := r2.Sub(e.vertices[e.next(i)].vec(), p)
	raw := signedAngle(toPrev, toNext)
	if sign < 0 {
		return raw
	}
	return math.Mod(360-raw, 360)
}

// angleError is the signed correction in (-180, 180] needed at vertex i, or
// zero when it is unconstrained.
func (e *Engine) angleError(i int, sign float64) float64 {
	target, ok := e.angles[e.vertices[i].ID]
	if !ok {
		return 0
	}
	return wrap180(target - e.interiorAngle(i, sign))
}

// enforceAllAngles sweeps the constrained vertices in index order, rotating a
// neighbour of each one around it, until every angle is within tolerance or
// the iteration cap is hit. The vertex at index pinned is never rotated.
func (e *Engine) enforceAllAngles(pinned int) (bool, []int) {
	if len(e.angles) == 0 {
		return true, nil
	}
	sign := orientation(e.Points())
	tol := e.opts.AngleTolerance

	var unresolved []int
	for iter := 0; iter < e.opts.MaxIterations; iter++ {
		unresolved = nil
		adjusted := false
		for i := range e.vertices {
			diff := e.angleError(i, sign)
			if math.Abs(diff) <= tol {
				continue
			}
			if !e.rotateNeighbour(i, pinned, sign, diff) {
				unresolved = append(unresolved, i)
				continue
			}
			adjusted = true
		}
		if !adjusted {
			if len(unresolved) > 0 {
				e.log.Debugw("angle constraints left unresolved", "vertices", unresolved)
			}
			return true, unresolved
		}
	}

	var pending []int
	for i := range e.vertices {
		if math.Abs(e.angleError(i, sign)) > tol {
			pending = append(pending, i)
		}
	}
	if len(pending) == 0 {
		return true, nil
	}
	e.log.Warnw("angle relaxation hit iteration cap",
		"iterations", e.opts.MaxIterations,
		"tolerance", tol,
		"vertices", pending)
	return false, unresolved
}

// rotateNeighbour corrects the angle at vertex i by diff degrees. next is
// rotated unless it is pinned or sits on a fixed-length edge from i, in which
// case prev is rotated; a neighbour whose outer edge is also free is
// preferred because rotating it keeps every length intact. It reports false
// when both neighbours are locked.
func (e *Engine) rotateNeighbour(i, pinned int, sign, diff float64) bool {
	next, prev := e.next(i), e.prev(i)
	_, nextFixed := e.constrained(i, next)
	_, prevFixed := e.constrained(prev, i)
	nextOK := next != pinned && !nextFixed
	prevOK := prev != pinned && !prevFixed

	_, nextOuterFixed := e.constrained(next, e.next(next))
	_, prevOuterFixed := e.constrained(e.prev(prev), prev)

	center := e.vertices[i].Point
	rotateNext := func() {
		e.vertices[next].Point = rotateAround(e.vertices[next].Point, center, -sign*diff)
	}
	rotatePrev := func() {
		e.vertices[prev].Point = rotateAround(e.vertices[prev].Point, center, sign*diff)
	}

	switch {
	case nextOK && !nextOuterFixed:
		rotateNext()
	case prevOK && !prevOuterFixed:
		rotatePrev()
	case nextOK:
		rotateNext()
	case prevOK:
		rotatePrev()
	default:
		return false
	}
	return true
}

package geometry

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/stretchr/testify/assert"
)

func unitSquare() []Point {
	return []Point{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
}

func lShape() []Point {
	return []Point{{0, 0}, {2, 0}, {2, 1}, {1, 1}, {1, 2}, {0, 2}}
}

func reversed(points []Point) []Point {
	out := make([]Point, len(points))
	for i, p := range points {
		out[len(points)-1-i] = p
	}
	return out
}

func TestSquareMeasurements(t *testing.T) {
	sq := unitSquare()
	assert.InDelta(t, 1.0, Area(sq), 1e-12)
	assert.InDelta(t, 4.0, Perimeter(sq), 1e-12)
}

func TestAreaInvariantUnderRotation(t *testing.T) {
	pts := lShape()
	want := SignedArea(pts)
	assert.InDelta(t, 3.0, want, 1e-12)
	for shift := 1; shift < len(pts); shift++ {
		rotated := append(append([]Point{}, pts[shift:]...), pts[:shift]...)
		assert.InDelta(t, want, SignedArea(rotated), 1e-12, "shift %d", shift)
	}
}

func TestAreaSignFlipsWithWinding(t *testing.T) {
	pts := lShape()
	assert.InDelta(t, -SignedArea(pts), SignedArea(reversed(pts)), 1e-12)
	assert.InDelta(t, Area(pts), Area(reversed(pts)), 1e-12)
}

func TestAreaMatchesOrb(t *testing.T) {
	pts := []Point{{0, 0}, {3, 0}, {0, 4}}
	ring := orb.Ring{}
	for _, p := range pts {
		ring = append(ring, orb.Point{p.X, p.Y})
	}
	ring = append(ring, ring[0])

	assert.InDelta(t, math.Abs(planar.Area(ring)), Area(pts), 1e-12)
	assert.InDelta(t, planar.Length(ring), Perimeter(pts), 1e-12)
}

func TestPerimeterDegenerate(t *testing.T) {
	same := []Point{{2, 3}, {2, 3}, {2, 3}}
	assert.Equal(t, 0.0, Perimeter(same))
	assert.Equal(t, 0.0, Area(same))
}

func TestCarpetOutlineExpandsBothWindings(t *testing.T) {
	// Every corner moves 0.1 along the diagonal.
	side := 1 + 2*0.1/math.Sqrt2
	for name, pts := range map[string][]Point{
		"ccw": unitSquare(),
		"cw":  reversed(unitSquare()),
	} {
		t.Run(name, func(t *testing.T) {
			m := Measure(pts, 0.1)
			assert.InDelta(t, 1.0, m.TrueArea, 1e-12)
			assert.InDelta(t, side*side, m.CarpetArea, 1e-9)
			assert.InDelta(t, 4*side, m.CarpetPerimeter, 1e-9)
			assert.Greater(t, m.CarpetArea, m.TrueArea)
		})
	}
}

func TestCarpetOutlineZeroMargin(t *testing.T) {
	pts := lShape()
	assert.InDelta(t, Area(pts), CarpetArea(pts, 0), 1e-12)
	assert.InDelta(t, Perimeter(pts), CarpetPerimeter(pts, 0), 1e-12)
}

func TestBoundingBox(t *testing.T) {
	min, max := BoundingBox([]Point{{1, 5}, {-2, 3}, {4, -1}})
	assert.Equal(t, Point{X: -2, Y: -1}, min)
	assert.Equal(t, Point{X: 4, Y: 5}, max)
}

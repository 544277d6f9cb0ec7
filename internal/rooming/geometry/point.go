package geometry

import (
	"math"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r2"
)

// ============================================================
// Geometry primitives
// ============================================================

// Point is a position in metres.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Vertex is a polygon corner with an identity that survives inserts and
// deletes.
type Vertex struct {
	ID uuid.UUID `json:"id"`
	Point
}

func (p Point) vec() r2.Vec {
	return r2.Vec{X: p.X, Y: p.Y}
}

func fromVec(v r2.Vec) Point {
	return Point{X: v.X, Y: v.Y}
}

// Distance returns the Euclidean distance between p and q.
func Distance(p, q Point) float64 {
	return r2.Norm(r2.Sub(q.vec(), p.vec()))
}

func (p Point) finite() bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

// rotateAround rotates p around center by deg degrees, counter-clockwise in a
// y-up frame.
func rotateAround(p, center Point, deg float64) Point {
	return fromVec(r2.Rotate(p.vec(), deg*math.Pi/180, center.vec()))
}

// signedAngle returns the rotation from a to b in degrees, in [0, 360).
func signedAngle(a, b r2.Vec) float64 {
	deg := math.Atan2(r2.Cross(a, b), r2.Dot(a, b)) * 180 / math.Pi
	if deg < 0 {
		deg += 360
	}
	if deg >= 360 {
		deg -= 360
	}
	return deg
}

// wrap180 maps deg into (-180, 180].
func wrap180(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg <= -180 {
		deg += 360
	}
	if deg > 180 {
		deg -= 360
	}
	return deg
}

func wrapIndex(i, n int) int {
	return ((i % n) + n) % n
}

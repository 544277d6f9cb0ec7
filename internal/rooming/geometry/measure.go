package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// ============================================================
// Measurements
// ============================================================

// Measurements are the figures stored with every room. Areas are in square
// metres, perimeters in metres.
type Measurements struct {
	TrueArea        float64 `json:"trueArea"`
	CarpetArea      float64 `json:"carpetArea"`
	TruePerimeter   float64 `json:"truePerimeter"`
	CarpetPerimeter float64 `json:"carpetPerimeter"`
}

// Measure computes true and carpet figures; margin is the carpet overlap.
func Measure(points []Point, margin float64) Measurements {
	carpet := CarpetOutline(points, margin)
	return Measurements{
		TrueArea:        Area(points),
		CarpetArea:      Area(carpet),
		TruePerimeter:   Perimeter(points),
		CarpetPerimeter: Perimeter(carpet),
	}
}

// SignedArea is the shoelace sum halved. It is positive for
// counter-clockwise lists in a y-up frame.
func SignedArea(points []Point) float64 {
	n := len(points)
	var sum float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += points[i].X*points[j].Y - points[j].X*points[i].Y
	}
	return sum / 2
}

func Area(points []Point) float64 {
	return math.Abs(SignedArea(points))
}

func Perimeter(points []Point) float64 {
	n := len(points)
	var total float64
	for i := 0; i < n; i++ {
		total += Distance(points[i], points[(i+1)%n])
	}
	return total
}

// CarpetOutline pushes every vertex outwards by margin along the average of
// the normals of its two edges.
func CarpetOutline(points []Point, margin float64) []Point {
	n := len(points)
	out := make([]Point, n)
	if n < 3 {
		copy(out, points)
		return out
	}
	// Left normals point inwards for positive orientation.
	outward := -orientation(points)

	for i, p := range points {
		prev := points[(i-1+n)%n]
		next := points[(i+1)%n]

		var sum r2.Vec
		for _, edge := range [2]r2.Vec{r2.Sub(p.vec(), prev.vec()), r2.Sub(next.vec(), p.vec())} {
			if l := r2.Norm(edge); l > 0 {
				sum = r2.Add(sum, r2.Scale(1/l, r2.Vec{X: -edge.Y, Y: edge.X}))
			}
		}
		if r2.Norm(sum) == 0 {
			out[i] = p
			continue
		}
		out[i] = fromVec(r2.Add(p.vec(), r2.Scale(outward*margin, r2.Unit(sum))))
	}
	return out
}

func CarpetArea(points []Point, margin float64) float64 {
	return Area(CarpetOutline(points, margin))
}

func CarpetPerimeter(points []Point, margin float64) float64 {
	return Perimeter(CarpetOutline(points, margin))
}

// BoundingBox returns the axis-aligned corners enclosing points.
func BoundingBox(points []Point) (min, max Point) {
	if len(points) == 0 {
		return Point{}, Point{}
	}
	min, max = points[0], points[0]
	for _, p := range points[1:] {
		min.X = math.Min(min.X, p.X)
		min.Y = math.Min(min.Y, p.Y)
		max.X = math.Max(max.X, p.X)
		max.Y = math.Max(max.Y, p.Y)
	}
	return min, max
}

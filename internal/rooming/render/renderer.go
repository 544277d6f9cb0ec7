package render

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	svg "github.com/ajstarks/svgo"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/1imo/rooming-service/internal/rooming/geometry"
	"github.com/1imo/rooming-service/internal/rooming/models"
)

// ============================================================
// Renderer
// ============================================================

var ErrNothingToRender = errors.New("no room with a drawable outline")

const (
	// PixelsPerMeter matches the editor canvas.
	PixelsPerMeter = 100
	padding        = 40
)

const (
	roomStyle   = "fill:rgba(0,0,0,0.04);stroke:black;stroke-width:2"
	carpetStyle = "fill:none;stroke:#888;stroke-width:1;stroke-dasharray:4,3"
	nameStyle   = "text-anchor:middle;font-size:14px;font-family:sans-serif;fill:#222"
	areaStyle   = "text-anchor:middle;font-size:11px;font-family:sans-serif;fill:#666"
	edgeStyle   = "text-anchor:middle;font-size:10px;font-family:sans-serif;fill:#333"
)

type Renderer struct {
	Scale        float64
	CarpetMargin float64
}

func NewRenderer(carpetMargin float64) *Renderer {
	return &Renderer{Scale: PixelsPerMeter, CarpetMargin: carpetMargin}
}

// Render draws the rooms as one floorplan, each shifted by its offset.
// Rooms with fewer than three points are skipped.
func (r *Renderer) Render(rooms []*models.Room) (string, error) {
	var placed [][]geometry.Point
	var drawn []*models.Room
	for _, room := range rooms {
		if room == nil || len(room.Points) < 3 {
			continue
		}
		placed = append(placed, shift(room.Points, room.Offset))
		drawn = append(drawn, room)
	}
	if len(drawn) == 0 {
		return "", ErrNothingToRender
	}

	var all []geometry.Point
	for _, pts := range placed {
		all = append(all, geometry.CarpetOutline(pts, r.CarpetMargin)...)
	}
	min, max := geometry.BoundingBox(all)
	width := int(math.Ceil((max.X-min.X)*r.Scale)) + 2*padding
	height := int(math.Ceil((max.Y-min.Y)*r.Scale)) + 2*padding

	var buf bytes.Buffer
	canvas := svg.New(&buf)
	canvas.Start(width, height)

	for i, room := range drawn {
		pts := r.toCanvas(placed[i], min)
		canvas.Gid(fmt.Sprintf("room-%d", room.ID))

		carpet := r.toCanvas(geometry.CarpetOutline(placed[i], r.CarpetMargin), min)
		xs, ys := ints(carpet)
		canvas.Polygon(xs, ys, carpetStyle)
		canvas.Path(PathData(pts), roomStyle)

		c := labelAnchor(pts)
		canvas.Text(c.X, c.Y, room.Name, nameStyle)
		canvas.Text(c.X, c.Y+16, fmt.Sprintf("%.2f m²", geometry.Area(room.Points)), areaStyle)

		for j := range placed[i] {
			k := (j + 1) % len(placed[i])
			mid := geometry.Point{X: (pts[j].X + pts[k].X) / 2, Y: (pts[j].Y + pts[k].Y) / 2}
			length := geometry.Distance(placed[i][j], placed[i][k])
			canvas.Text(round(mid.X), round(mid.Y)-4, fmt.Sprintf("%.2f m", length), edgeStyle)
		}
		canvas.Gend()
	}

	canvas.End()
	return buf.String(), nil
}

// toCanvas maps metres to pixels with origin at the padded top-left corner.
func (r *Renderer) toCanvas(points []geometry.Point, origin geometry.Point) []geometry.Point {
	out := make([]geometry.Point, len(points))
	for i, p := range points {
		out[i] = geometry.Point{
			X: (p.X-origin.X)*r.Scale + padding,
			Y: (p.Y-origin.Y)*r.Scale + padding,
		}
	}
	return out
}

func shift(points []geometry.Point, by geometry.Point) []geometry.Point {
	out := make([]geometry.Point, len(points))
	for i, p := range points {
		out[i] = geometry.Point{X: p.X + by.X, Y: p.Y + by.Y}
	}
	return out
}

type pixel struct{ X, Y int }

// labelAnchor is the area centroid of the outline, or the vertex mean when
// the outline has no area.
func labelAnchor(points []geometry.Point) pixel {
	ring := make(orb.Ring, 0, len(points)+1)
	for _, p := range points {
		ring = append(ring, orb.Point{p.X, p.Y})
	}
	ring = append(ring, ring[0])

	c, area := planar.CentroidArea(orb.Polygon{ring})
	if area == 0 || math.IsNaN(c[0]) || math.IsNaN(c[1]) {
		var sx, sy float64
		for _, p := range points {
			sx += p.X
			sy += p.Y
		}
		n := float64(len(points))
		return pixel{round(sx / n), round(sy / n)}
	}
	return pixel{round(c[0]), round(c[1])}
}

// PathData writes a closed absolute path through points.
func PathData(points []geometry.Point) string {
	var b strings.Builder
	for i, p := range points {
		if i == 0 {
			b.WriteString("M")
		} else {
			b.WriteString(" L")
		}
		b.WriteString(formatFloat(p.X))
		b.WriteString(" ")
		b.WriteString(formatFloat(p.Y))
	}
	b.WriteString(" Z")
	return b.String()
}

func ints(points []geometry.Point) ([]int, []int) {
	xs := make([]int, len(points))
	ys := make([]int, len(points))
	for i, p := range points {
		xs[i], ys[i] = round(p.X), round(p.Y)
	}
	return xs, ys
}

func round(v float64) int {
	return int(math.Round(v))
}

func formatFloat(val float64) string {
	return strconv.FormatFloat(val, 'f', 2, 64)
}

package render

import (
	"encoding/xml"
	"fmt"
	"io"

	"github.com/1imo/rooming-service/internal/rooming/geometry"
)

// ============================================================
// XML Structures
// ============================================================

type svgDocument struct {
	XMLName xml.Name `xml:"svg"`
	svgGroup
}

// svgGroup holds the elements that can carry a room outline. Groups nest.
type svgGroup struct {
	ID     string     `xml:"id,attr"`
	Rects  []svgRect  `xml:"rect"`
	Paths  []svgPath  `xml:"path"`
	Groups []svgGroup `xml:"g"`
}

type svgRect struct {
	ID     string  `xml:"id,attr"`
	X      float64 `xml:"x,attr"`
	Y      float64 `xml:"y,attr"`
	Width  float64 `xml:"width,attr"`
	Height float64 `xml:"height,attr"`
}

type svgPath struct {
	ID string `xml:"id,attr"`
	D  string `xml:"d,attr"`
}

// Outline is one closed shape found in an SVG document, in document units.
type Outline struct {
	ID     string
	Points []geometry.Point
}

// ============================================================
// Document Parser
// ============================================================

// ParseDocument collects the rect and path outlines of an SVG document in
// document order. An element without an id takes the id of its nearest
// group. Paths that cannot describe a polygon are skipped.
func ParseDocument(r io.Reader) ([]Outline, error) {
	var doc svgDocument
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode svg: %w: %w", ErrUnsupportedPath, err)
	}

	var out []Outline
	collect(doc.svgGroup, "", &out)
	if len(out) == 0 {
		return nil, fmt.Errorf("no rect or path outline: %w", ErrUnsupportedPath)
	}
	return out, nil
}

func collect(g svgGroup, inherited string, out *[]Outline) {
	id := inherited
	if g.ID != "" {
		id = g.ID
	}

	for _, rect := range g.Rects {
		if rect.Width <= 0 || rect.Height <= 0 {
			continue
		}
		*out = append(*out, Outline{
			ID: pick(rect.ID, id),
			Points: []geometry.Point{
				{X: rect.X, Y: rect.Y},
				{X: rect.X + rect.Width, Y: rect.Y},
				{X: rect.X + rect.Width, Y: rect.Y + rect.Height},
				{X: rect.X, Y: rect.Y + rect.Height},
			},
		})
	}

	for _, path := range g.Paths {
		points, err := ParsePath(path.D)
		if err != nil || len(points) < 3 {
			continue
		}
		*out = append(*out, Outline{ID: pick(path.ID, id), Points: points})
	}

	for _, child := range g.Groups {
		collect(child, id, out)
	}
}

func pick(own, inherited string) string {
	if own != "" {
		return own
	}
	return inherited
}

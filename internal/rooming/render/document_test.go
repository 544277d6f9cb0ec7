package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1imo/rooming-service/internal/rooming/geometry"
	"github.com/1imo/rooming-service/internal/rooming/models"
)

func TestParseDocument(t *testing.T) {
	doc := `<svg xmlns="http://www.w3.org/2000/svg">
  <rect id="Hall_room" x="10" y="20" width="300" height="200"/>
  <rect id="empty" x="0" y="0" width="0" height="5"/>
  <g id="Room_kitchen">
    <path d="M0 0 L100 0 L100 100 Z"/>
    <path id="curve" d="M0 0 Q1 1 2 2"/>
  </g>
</svg>`

	outlines, err := ParseDocument(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, outlines, 2)

	assert.Equal(t, "Hall_room", outlines[0].ID)
	assert.Equal(t, []geometry.Point{{X: 10, Y: 20}, {X: 310, Y: 20}, {X: 310, Y: 220}, {X: 10, Y: 220}}, outlines[0].Points)
	assert.Equal(t, "Room_kitchen", outlines[1].ID)
	assert.Len(t, outlines[1].Points, 3)
}

func TestParseDocumentErrors(t *testing.T) {
	_, err := ParseDocument(strings.NewReader("not xml"))
	assert.ErrorIs(t, err, ErrUnsupportedPath)

	_, err = ParseDocument(strings.NewReader(`<svg><circle r="4"/></svg>`))
	assert.ErrorIs(t, err, ErrUnsupportedPath)
}

// A rendered floorplan reads back as one outline per room.
func TestParseDocumentReadsRenderedFloorplan(t *testing.T) {
	out, err := NewRenderer(0.1).Render([]*models.Room{
		room(1, "A", geometry.Point{}),
		room(2, "B", geometry.Point{X: 5, Y: 0}),
	})
	require.NoError(t, err)

	outlines, err := ParseDocument(strings.NewReader(out))
	require.NoError(t, err)
	require.Len(t, outlines, 2)
	assert.Equal(t, "room-1", outlines[0].ID)
	assert.Equal(t, "room-2", outlines[1].ID)

	first := outlines[0].Points
	require.Len(t, first, 4)
	assert.InDelta(t, 400, geometry.Distance(first[0], first[1]), 1e-9)
	assert.InDelta(t, 120000, geometry.Area(first), 1e-6)
}

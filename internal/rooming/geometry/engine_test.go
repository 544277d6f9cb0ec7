package geometry

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pentagon() []Point {
	return []Point{{0, 0}, {2, 0}, {3, 1.5}, {1, 3}, {-1, 1.5}}
}

func TestNewRejectsTooFewVertices(t *testing.T) {
	_, err := New([]Point{{0, 0}, {1, 0}}, DefaultOptions())
	assert.ErrorIs(t, err, ErrInsufficientVertices)
}

func TestLoadValidatesConstraints(t *testing.T) {
	_, err := Load(unitSquare(), []AngleConstraint{{VertexIndex: 1, Degrees: 400}}, nil, DefaultOptions())
	assert.ErrorIs(t, err, ErrInvalidConstraint)

	_, err = Load(unitSquare(), nil, []LengthConstraint{{I: 0, J: 2, Meters: 1}}, DefaultOptions())
	assert.ErrorIs(t, err, ErrInvalidConstraint)

	_, err = Load(unitSquare(), []AngleConstraint{{VertexIndex: 7, Degrees: 90}}, nil, DefaultOptions())
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestLoadRejectsDuplicateConstraints(t *testing.T) {
	_, err := Load(unitSquare(),
		[]AngleConstraint{{VertexIndex: 1, Degrees: 90}, {VertexIndex: 1, Degrees: 90}},
		nil, DefaultOptions())
	assert.ErrorIs(t, err, ErrInvalidConstraint)

	// 1-0 names the same edge as 0-1.
	_, err = Load(unitSquare(), nil,
		[]LengthConstraint{{I: 0, J: 1, Meters: 1}, {I: 1, J: 0, Meters: 1}},
		DefaultOptions())
	assert.ErrorIs(t, err, ErrInvalidConstraint)
}

func TestLoadRejectsNonFinitePoints(t *testing.T) {
	pts := unitSquare()
	pts[2] = Point{X: math.NaN(), Y: 1}
	_, err := Load(pts, nil, nil, DefaultOptions())
	assert.ErrorIs(t, err, ErrInvalidPoint)
	assert.NotErrorIs(t, err, ErrInvalidConstraint)

	e, err := New(unitSquare(), DefaultOptions())
	require.NoError(t, err)
	_, err = e.MoveVertex(1, Point{X: math.Inf(1), Y: 0})
	assert.ErrorIs(t, err, ErrInvalidPoint)
	_, err = e.InsertVertex(0, Point{X: 0.5, Y: math.NaN()})
	assert.ErrorIs(t, err, ErrInvalidPoint)
	assert.Equal(t, unitSquare(), e.Points())
}

func TestMoveVertexWithoutConstraints(t *testing.T) {
	e, err := New(unitSquare(), DefaultOptions())
	require.NoError(t, err)

	res, err := e.MoveVertex(2, Point{X: 2, Y: 2})
	require.NoError(t, err)
	assert.True(t, res.Accepted)
	assert.True(t, res.Converged)
	assert.Equal(t, Point{X: 2, Y: 2}, res.Points[2])
	assert.Equal(t, res.Points, e.Points())
}

func TestMoveVertexOutOfRange(t *testing.T) {
	e, err := New(unitSquare(), DefaultOptions())
	require.NoError(t, err)
	_, err = e.MoveVertex(4, Point{})
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = e.MoveVertex(-1, Point{})
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestDeleteVertexRekeysAngleConstraint(t *testing.T) {
	e, err := Load(pentagon(), []AngleConstraint{{VertexIndex: 3, Degrees: 100}}, nil, DefaultOptions())
	require.NoError(t, err)
	id := e.Vertices()[3].ID

	res, err := e.DeleteVertex(2)
	require.NoError(t, err)
	assert.True(t, res.Accepted)
	assert.Equal(t, 4, e.Len())

	want := []AngleConstraint{{VertexIndex: 2, Degrees: 100}}
	if diff := cmp.Diff(want, e.AngleConstraints()); diff != "" {
		t.Fatalf("angle constraints (-want +got):\n%s", diff)
	}
	assert.Equal(t, id, e.Vertices()[2].ID)
}

func TestDeleteVertexDropsItsConstraints(t *testing.T) {
	diag := Distance(pentagon()[1], pentagon()[2])
	e, err := Load(pentagon(),
		[]AngleConstraint{{VertexIndex: 2, Degrees: 120}, {VertexIndex: 4, Degrees: 80}},
		[]LengthConstraint{{I: 1, J: 2, Meters: diag}, {I: 3, J: 4, Meters: 2.5}, {I: 4, J: 0, Meters: diag}},
		DefaultOptions())
	require.NoError(t, err)

	_, err = e.DeleteVertex(2)
	require.NoError(t, err)

	wantAngles := []AngleConstraint{{VertexIndex: 3, Degrees: 80}}
	wantLengths := []LengthConstraint{{I: 0, J: 3, Meters: diag}, {I: 2, J: 3, Meters: 2.5}}
	if diff := cmp.Diff(wantAngles, e.AngleConstraints()); diff != "" {
		t.Errorf("angle constraints (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(wantLengths, e.LengthConstraints()); diff != "" {
		t.Errorf("length constraints (-want +got):\n%s", diff)
	}
}

func TestDeleteVertexKeepsThreeVertices(t *testing.T) {
	e, err := New(unitSquare(), DefaultOptions())
	require.NoError(t, err)

	_, err = e.DeleteVertex(0)
	require.NoError(t, err)
	before := e.Points()

	_, err = e.DeleteVertex(0)
	assert.True(t, errors.Is(err, ErrInsufficientVertices))
	assert.Equal(t, before, e.Points())
}

func TestInsertVertexShiftsConstraints(t *testing.T) {
	e, err := Load(unitSquare(),
		[]AngleConstraint{{VertexIndex: 2, Degrees: 90}},
		[]LengthConstraint{{I: 2, J: 3, Meters: 1}},
		DefaultOptions())
	require.NoError(t, err)

	res, err := e.InsertVertex(0, Point{X: 0.5, Y: -0.2})
	require.NoError(t, err)
	assert.True(t, res.Accepted)
	assert.Len(t, res.Points, 5)
	assert.Equal(t, Point{X: 0.5, Y: -0.2}, res.Points[1])

	if diff := cmp.Diff([]AngleConstraint{{VertexIndex: 3, Degrees: 90}}, e.AngleConstraints()); diff != "" {
		t.Errorf("angle constraints (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]LengthConstraint{{I: 3, J: 4, Meters: 1}}, e.LengthConstraints()); diff != "" {
		t.Errorf("length constraints (-want +got):\n%s", diff)
	}
}

func TestInsertVertexDropsSplitEdge(t *testing.T) {
	e, err := Load(unitSquare(), nil, []LengthConstraint{{I: 3, J: 0, Meters: 1}}, DefaultOptions())
	require.NoError(t, err)

	_, err = e.InsertVertex(3, Point{X: -0.3, Y: 0.5})
	require.NoError(t, err)
	assert.Equal(t, Point{X: -0.3, Y: 0.5}, e.Points()[4])
	assert.Empty(t, e.LengthConstraints())
}

func TestSetterValidation(t *testing.T) {
	e, err := New(unitSquare(), DefaultOptions())
	require.NoError(t, err)

	for _, deg := range []float64{0, 360, -10, 720} {
		_, err := e.SetAngleConstraint(1, deg)
		assert.ErrorIs(t, err, ErrInvalidConstraint, "degrees %v", deg)
	}
	for _, m := range []float64{0, -1} {
		_, err := e.SetLengthConstraint(0, 1, m)
		assert.ErrorIs(t, err, ErrInvalidConstraint, "meters %v", m)
	}
	_, err = e.SetLengthConstraint(0, 2, 1)
	assert.ErrorIs(t, err, ErrInvalidConstraint)
	_, err = e.SetAngleConstraint(9, 90)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	assert.Empty(t, e.AngleConstraints())
	assert.Empty(t, e.LengthConstraints())
	assert.Equal(t, unitSquare(), e.Points())
}

func TestClearConstraints(t *testing.T) {
	e, err := Load(unitSquare(),
		[]AngleConstraint{{VertexIndex: 1, Degrees: 90}},
		[]LengthConstraint{{I: 3, J: 0, Meters: 1}},
		DefaultOptions())
	require.NoError(t, err)

	require.NoError(t, e.ClearAngleConstraint(1))
	// Key order does not matter.
	require.NoError(t, e.ClearLengthConstraint(0, 3))
	assert.Empty(t, e.AngleConstraints())
	assert.Empty(t, e.LengthConstraints())
}

func TestEngineMeasure(t *testing.T) {
	e, err := New(unitSquare(), DefaultOptions())
	require.NoError(t, err)
	m := e.Measure()
	assert.InDelta(t, 1.0, m.TrueArea, 1e-12)
	assert.InDelta(t, 4.0, m.TruePerimeter, 1e-12)

	l, err := e.EdgeLength(3)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, l, 1e-12)
}

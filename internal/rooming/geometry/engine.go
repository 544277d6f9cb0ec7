package geometry

import (
	"fmt"
	"maps"
	"math"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ============================================================
// Constraint Engine
// ============================================================

// AngleConstraint pins the interior angle at a vertex.
type AngleConstraint struct {
	VertexIndex int     `json:"vertexIndex"`
	Degrees     float64 `json:"degrees"`
}

// LengthConstraint pins the length of the edge between vertices I and J.
type LengthConstraint struct {
	I      int     `json:"i"`
	J      int     `json:"j"`
	Meters float64 `json:"meters"`
}

// Result describes the outcome of a mutating operation.
type Result struct {
	Points    []Point `json:"points"`
	Accepted  bool    `json:"accepted"`
	Converged bool    `json:"converged"`
	// Unresolved lists constrained vertices whose angle could not be fixed
	// because both neighbours were locked.
	Unresolved []int `json:"unresolved,omitempty"`
	Reason     error `json:"-"`
}

// edgeKey is an unordered pair of vertex IDs.
type edgeKey struct {
	a, b uuid.UUID
}

func newEdgeKey(a, b uuid.UUID) edgeKey {
	if a.String() > b.String() {
		a, b = b, a
	}
	return edgeKey{a: a, b: b}
}

func (k edgeKey) has(id uuid.UUID) bool {
	return k.a == id || k.b == id
}

// Engine owns a room polygon and its constraints. It is not safe for
// concurrent use; callers serialise access per room.
type Engine struct {
	vertices []Vertex
	angles   map[uuid.UUID]float64
	lengths  map[edgeKey]float64
	opts     Options
	log      *zap.SugaredLogger
}

type snapshot struct {
	vertices []Vertex
	angles   map[uuid.UUID]float64
	lengths  map[edgeKey]float64
}

// New creates an engine for the given outline with no constraints.
func New(points []Point, opts Options) (*Engine, error) {
	return Load(points, nil, nil, opts)
}

// Load creates an engine from a persisted outline and its constraints. The
// stored geometry is taken as-is and angle constraints are enforced from the
// next edit on. Length constraints must already hold, and each vertex or edge
// may carry at most one constraint.
func Load(points []Point, angles []AngleConstraint, lengths []LengthConstraint, opts Options) (*Engine, error) {
	if len(points) < 3 {
		return nil, ErrInsufficientVertices
	}
	opts = opts.withDefaults()
	e := &Engine{
		vertices: make([]Vertex, len(points)),
		angles:   make(map[uuid.UUID]float64),
		lengths:  make(map[edgeKey]float64),
		opts:     opts,
		log:      opts.Logger,
	}
	for i, p := range points {
		if !p.finite() {
			return nil, fmt.Errorf("vertex %d at (%v, %v): %w", i, p.X, p.Y, ErrInvalidPoint)
		}
		e.vertices[i] = Vertex{ID: uuid.New(), Point: p}
	}
	for _, c := range angles {
		if err := e.checkIndex(c.VertexIndex); err != nil {
			return nil, err
		}
		if !validAngle(c.Degrees) {
			return nil, fmt.Errorf("angle %v at vertex %d: %w", c.Degrees, c.VertexIndex, ErrInvalidConstraint)
		}
		id := e.vertices[c.VertexIndex].ID
		if _, dup := e.angles[id]; dup {
			return nil, fmt.Errorf("second angle at vertex %d: %w", c.VertexIndex, ErrInvalidConstraint)
		}
		e.angles[id] = c.Degrees
	}
	for _, c := range lengths {
		key, err := e.edge(c.I, c.J)
		if err != nil {
			return nil, err
		}
		if !validLength(c.Meters) {
			return nil, fmt.Errorf("length %v on edge %d-%d: %w", c.Meters, c.I, c.J, ErrInvalidConstraint)
		}
		if _, dup := e.lengths[key]; dup {
			return nil, fmt.Errorf("second length on edge %d-%d: %w", c.I, c.J, ErrInvalidConstraint)
		}
		e.lengths[key] = c.Meters
	}
	if broken := e.brokenLengths(); len(broken) > 0 {
		return nil, fmt.Errorf("outline does not match fixed lengths on edges %v: %w", broken, ErrInvalidConstraint)
	}
	return e, nil
}

// ============================================================
// Accessors
// ============================================================

func (e *Engine) Len() int {
	return len(e.vertices)
}

func (e *Engine) Options() Options {
	return e.opts
}

// Points returns a copy of the vertex positions in polygon order.
func (e *Engine) Points() []Point {
	out := make([]Point, len(e.vertices))
	for i, v := range e.vertices {
		out[i] = v.Point
	}
	return out
}

// Vertices returns a copy of the vertices, including their stable IDs.
func (e *Engine) Vertices() []Vertex {
	out := make([]Vertex, len(e.vertices))
	copy(out, e.vertices)
	return out
}

// AngleConstraints returns the angle constraints keyed by current index,
// ordered by index.
func (e *Engine) AngleConstraints() []AngleConstraint {
	out := make([]AngleConstraint, 0, len(e.angles))
	for i, v := range e.vertices {
		if deg, ok := e.angles[v.ID]; ok {
			out = append(out, AngleConstraint{VertexIndex: i, Degrees: deg})
		}
	}
	return out
}

// LengthConstraints returns the length constraints keyed by current indices,
// with I < J, ordered by I then J.
func (e *Engine) LengthConstraints() []LengthConstraint {
	index := e.indexByID()
	out := make([]LengthConstraint, 0, len(e.lengths))
	for key, m := range e.lengths {
		i, j := index[key.a], index[key.b]
		if i > j {
			i, j = j, i
		}
		out = append(out, LengthConstraint{I: i, J: j, Meters: m})
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].I != out[b].I {
			return out[a].I < out[b].I
		}
		return out[a].J < out[b].J
	})
	return out
}

// InteriorAngle returns the current interior angle at vertex i in degrees.
func (e *Engine) InteriorAngle(i int) (float64, error) {
	if err := e.checkIndex(i); err != nil {
		return 0, err
	}
	return e.interiorAngle(i, orientation(e.Points())), nil
}

// EdgeLength returns the length of the edge from vertex i to vertex i+1.
func (e *Engine) EdgeLength(i int) (float64, error) {
	if err := e.checkIndex(i); err != nil {
		return 0, err
	}
	return Distance(e.vertices[i].Point, e.vertices[e.next(i)].Point), nil
}

// Measure computes true and carpet measurements of the current outline.
func (e *Engine) Measure() Measurements {
	return Measure(e.Points(), e.opts.CarpetMargin)
}

// ============================================================
// Edits
// ============================================================

// MoveVertex drags vertex i to p and re-satisfies every constraint. A move
// that would break a length constraint is rolled back and reported with
// Accepted=false.
func (e *Engine) MoveVertex(i int, p Point) (Result, error) {
	if err := e.checkIndex(i); err != nil {
		return Result{}, err
	}
	if !p.finite() {
		return Result{}, fmt.Errorf("move target %v: %w", p, ErrInvalidPoint)
	}
	snap := e.snapshot()
	res := e.relax(i, p)
	if !res.Accepted {
		e.restore(snap)
		res.Points = e.Points()
	}
	return res, nil
}

// InsertVertex adds a vertex at p right after index after. Constraints are
// not re-solved; a length constraint on the edge that was split is dropped.
func (e *Engine) InsertVertex(after int, p Point) (Result, error) {
	if err := e.checkIndex(after); err != nil {
		return Result{}, err
	}
	if !p.finite() {
		return Result{}, fmt.Errorf("insert position %v: %w", p, ErrInvalidPoint)
	}
	split := newEdgeKey(e.vertices[after].ID, e.vertices[e.next(after)].ID)

	v := Vertex{ID: uuid.New(), Point: p}
	e.vertices = append(e.vertices, Vertex{})
	copy(e.vertices[after+2:], e.vertices[after+1:])
	e.vertices[after+1] = v

	if _, ok := e.lengths[split]; ok {
		delete(e.lengths, split)
		e.log.Debugw("dropped length constraint on split edge", "after", after)
	}
	return e.accepted(), nil
}

// DeleteVertex removes vertex i together with every constraint that refers
// to it.
func (e *Engine) DeleteVertex(i int) (Result, error) {
	if err := e.checkIndex(i); err != nil {
		return Result{}, err
	}
	if len(e.vertices) <= 3 {
		return Result{}, ErrInsufficientVertices
	}
	id := e.vertices[i].ID
	e.vertices = append(e.vertices[:i], e.vertices[i+1:]...)
	delete(e.angles, id)
	for key := range e.lengths {
		if key.has(id) {
			delete(e.lengths, key)
		}
	}
	return e.accepted(), nil
}

// SetAngleConstraint pins the interior angle at vertex i and runs a full
// enforcement pass. If enforcement breaks a length constraint the constraint
// is not kept.
func (e *Engine) SetAngleConstraint(i int, degrees float64) (Result, error) {
	if err := e.checkIndex(i); err != nil {
		return Result{}, err
	}
	if !validAngle(degrees) {
		return Result{}, fmt.Errorf("angle %v: %w", degrees, ErrInvalidConstraint)
	}
	snap := e.snapshot()
	e.angles[e.vertices[i].ID] = degrees
	res := e.relax(-1, Point{})
	if !res.Accepted {
		e.restore(snap)
		res.Points = e.Points()
	}
	return res, nil
}

func (e *Engine) ClearAngleConstraint(i int) error {
	if err := e.checkIndex(i); err != nil {
		return err
	}
	delete(e.angles, e.vertices[i].ID)
	return nil
}

// SetLengthConstraint pins the edge between i and j to meters. Vertex j is
// slid along the edge to the new length first; when that conflicts with its
// other constraints vertex i is slid instead.
func (e *Engine) SetLengthConstraint(i, j int, meters float64) (Result, error) {
	key, err := e.edge(i, j)
	if err != nil {
		return Result{}, err
	}
	if !validLength(meters) {
		return Result{}, fmt.Errorf("length %v: %w", meters, ErrInvalidConstraint)
	}
	snap := e.snapshot()
	e.lengths[key] = meters

	res := e.relax(j, e.alongEdge(i, j, meters))
	if res.Accepted {
		return res, nil
	}
	e.restore(snap)
	e.lengths[key] = meters
	res = e.relax(i, e.alongEdge(j, i, meters))
	if res.Accepted {
		return res, nil
	}
	e.restore(snap)
	res.Points = e.Points()
	return res, nil
}

func (e *Engine) ClearLengthConstraint(i, j int) error {
	key, err := e.edge(i, j)
	if err != nil {
		return err
	}
	delete(e.lengths, key)
	return nil
}

// ============================================================
// Enforcement
// ============================================================

// relax runs one full enforcement pass. moved is the index of the vertex the
// user placed at desired, or -1 when no vertex moved.
func (e *Engine) relax(moved int, desired Point) Result {
	if moved >= 0 {
		pos, ok := e.enforceFixedLengths(moved, desired)
		if !ok {
			e.log.Debugw("move rejected, anchor circles do not intersect", "vertex", moved)
			return Result{Reason: ErrInfeasibleConstraint}
		}
		e.vertices[moved].Point = pos
	}

	converged, unresolved := e.enforceAllAngles(moved)

	if broken := e.brokenLengths(); len(broken) > 0 {
		e.log.Debugw("move rejected, length constraints broken", "vertex", moved, "edges", broken)
		return Result{Reason: ErrInfeasibleConstraint}
	}

	res := e.accepted()
	res.Unresolved = unresolved
	if !converged || len(unresolved) > 0 {
		res.Converged = false
		res.Reason = ErrNotConverged
	}
	return res
}

// brokenLengths returns the constrained edges, as index pairs, whose length
// is off by more than the tolerance.
func (e *Engine) brokenLengths() [][2]int {
	index := e.indexByID()
	var broken [][2]int
	for key, want := range e.lengths {
		i, j := index[key.a], index[key.b]
		got := Distance(e.vertices[i].Point, e.vertices[j].Point)
		if math.Abs(got-want) > e.opts.LengthTolerance {
			broken = append(broken, [2]int{i, j})
		}
	}
	return broken
}

// ============================================================
// Helpers
// ============================================================

func (e *Engine) accepted() Result {
	return Result{Points: e.Points(), Accepted: true, Converged: true}
}

func (e *Engine) snapshot() snapshot {
	return snapshot{
		vertices: e.Vertices(),
		angles:   maps.Clone(e.angles),
		lengths:  maps.Clone(e.lengths),
	}
}

// restore copies s back so the same snapshot can be restored more than once.
func (e *Engine) restore(s snapshot) {
	e.vertices = append(e.vertices[:0:0], s.vertices...)
	e.angles = maps.Clone(s.angles)
	e.lengths = maps.Clone(s.lengths)
}

func (e *Engine) checkIndex(i int) error {
	if i < 0 || i >= len(e.vertices) {
		return fmt.Errorf("index %d of %d: %w", i, len(e.vertices), ErrIndexOutOfRange)
	}
	return nil
}

// edge validates that i and j are adjacent and returns their key.
func (e *Engine) edge(i, j int) (edgeKey, error) {
	if err := e.checkIndex(i); err != nil {
		return edgeKey{}, err
	}
	if err := e.checkIndex(j); err != nil {
		return edgeKey{}, err
	}
	if e.next(i) != j && e.next(j) != i {
		return edgeKey{}, fmt.Errorf("vertices %d and %d are not adjacent: %w", i, j, ErrInvalidConstraint)
	}
	return newEdgeKey(e.vertices[i].ID, e.vertices[j].ID), nil
}

func (e *Engine) constrained(i, j int) (float64, bool) {
	m, ok := e.lengths[newEdgeKey(e.vertices[i].ID, e.vertices[j].ID)]
	return m, ok
}

func (e *Engine) indexByID() map[uuid.UUID]int {
	index := make(map[uuid.UUID]int, len(e.vertices))
	for i, v := range e.vertices {
		index[v.ID] = i
	}
	return index
}

// alongEdge returns the point at distance meters from vertex from, in the
// direction of vertex to.
func (e *Engine) alongEdge(from, to int, meters float64) Point {
	a, b := e.vertices[from].Point, e.vertices[to].Point
	d := Distance(a, b)
	if d == 0 {
		return Point{X: a.X + meters, Y: a.Y}
	}
	scale := meters / d
	return Point{X: a.X + (b.X-a.X)*scale, Y: a.Y + (b.Y-a.Y)*scale}
}

func (e *Engine) next(i int) int {
	return wrapIndex(i+1, len(e.vertices))
}

func (e *Engine) prev(i int) int {
	return wrapIndex(i-1, len(e.vertices))
}

func validAngle(deg float64) bool {
	return deg > 0 && deg < 360 && !math.IsNaN(deg)
}

func validLength(m float64) bool {
	return m > 0 && !math.IsInf(m, 0) && !math.IsNaN(m)
}

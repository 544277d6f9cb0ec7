package geometry

import "errors"

// ============================================================
// Errors
// ============================================================

// Hard errors are returned from the operation that caused them and leave the
// engine untouched.
var (
	ErrInsufficientVertices = errors.New("polygon needs at least 3 vertices")
	ErrInvalidConstraint    = errors.New("invalid constraint")
	ErrIndexOutOfRange      = errors.New("vertex index out of range")
	ErrInvalidPoint         = errors.New("vertex coordinates must be finite")
)

// Soft outcomes are reported on Result.Reason and never returned as errors.
var (
	ErrInfeasibleConstraint = errors.New("length constraints cannot be satisfied")
	ErrNotConverged         = errors.New("angle relaxation did not converge")
)

package geometry

import "go.uber.org/zap"

// ============================================================
// Solver options
// ============================================================

const (
	DefaultAngleTolerance  = 1e-4 // degrees
	DefaultLengthTolerance = 1e-6 // metres
	DefaultMaxIterations   = 100
	DefaultCarpetMargin    = 0.1 // metres of overlap added around the room
)

// Options tunes the relaxation solver and the carpet estimate.
type Options struct {
	AngleTolerance  float64
	LengthTolerance float64
	MaxIterations   int
	CarpetMargin    float64
	Logger          *zap.SugaredLogger
}

func DefaultOptions() Options {
	return Options{
		AngleTolerance:  DefaultAngleTolerance,
		LengthTolerance: DefaultLengthTolerance,
		MaxIterations:   DefaultMaxIterations,
		CarpetMargin:    DefaultCarpetMargin,
	}
}

// withDefaults fills zero fields so a partially populated Options is usable.
func (o Options) withDefaults() Options {
	if o.AngleTolerance <= 0 {
		o.AngleTolerance = DefaultAngleTolerance
	}
	if o.LengthTolerance <= 0 {
		o.LengthTolerance = DefaultLengthTolerance
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = DefaultMaxIterations
	}
	if o.CarpetMargin <= 0 {
		o.CarpetMargin = DefaultCarpetMargin
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop().Sugar()
	}
	return o
}

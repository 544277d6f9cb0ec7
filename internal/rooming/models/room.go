package models

import (
	"time"

	"github.com/1imo/rooming-service/internal/rooming/geometry"
)

// ============================================================
// Room Model
// ============================================================

// Room is the persisted unit: a named outline, its constraints and where it
// sits on a multi-room floorplan.
type Room struct {
	ID                int64                       `json:"id"`
	Name              string                      `json:"name"`
	CustomerID        string                      `json:"customer_id"`
	CompanyID         string                      `json:"company_id"`
	Notes             string                      `json:"notes,omitempty"`
	FloorType         string                      `json:"floor_type,omitempty"`
	Offset            geometry.Point              `json:"offset"`
	Points            []geometry.Point            `json:"points"`
	AngleConstraints  []geometry.AngleConstraint  `json:"angleConstraints"`
	LengthConstraints []geometry.LengthConstraint `json:"lengthConstraints"`
	Measurements      geometry.Measurements       `json:"measurements"`
	CreatedAt         time.Time                   `json:"created_at"`
	UpdatedAt         time.Time                   `json:"updated_at"`
}

// RoomUpdate carries the fields of a partial update; nil means unchanged.
type RoomUpdate struct {
	Name              *string
	Notes             *string
	FloorType         *string
	Offset            *geometry.Point
	Points            []geometry.Point
	AngleConstraints  []geometry.AngleConstraint
	LengthConstraints []geometry.LengthConstraint
	// Constraints is set when the constraint lists should be replaced, even
	// with empty ones.
	Constraints bool
}

// Engine rebuilds the constraint engine for the room's outline.
func (r *Room) Engine(opts geometry.Options) (*geometry.Engine, error) {
	return geometry.Load(r.Points, r.AngleConstraints, r.LengthConstraints, opts)
}

// ApplyEngine copies the engine's outline and constraints back into the room.
func (r *Room) ApplyEngine(e *geometry.Engine) {
	r.Points = e.Points()
	r.AngleConstraints = e.AngleConstraints()
	r.LengthConstraints = e.LengthConstraints()
	r.Measurements = e.Measure()
}

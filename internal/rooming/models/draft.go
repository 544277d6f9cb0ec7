package models

import (
	"time"

	"github.com/1imo/rooming-service/internal/rooming/geometry"
)

// Draft is the unsaved state of an editing session. RoomUpdatedAt records
// which saved version of the room the edits started from.
type Draft struct {
	RoomID            int64                       `json:"room_id"`
	RoomUpdatedAt     time.Time                   `json:"room_updated_at"`
	Points            []geometry.Point            `json:"points"`
	AngleConstraints  []geometry.AngleConstraint  `json:"angleConstraints"`
	LengthConstraints []geometry.LengthConstraint `json:"lengthConstraints"`
	SavedAt           time.Time                   `json:"saved_at"`
}

func DraftFromEngine(roomID int64, roomUpdatedAt time.Time, e *geometry.Engine) Draft {
	return Draft{
		RoomID:            roomID,
		RoomUpdatedAt:     roomUpdatedAt,
		Points:            e.Points(),
		AngleConstraints:  e.AngleConstraints(),
		LengthConstraints: e.LengthConstraints(),
		SavedAt:           time.Now().UTC(),
	}
}

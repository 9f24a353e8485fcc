package models

import (
	"time"

	"github.com/noah-isme/campus-portal-api/internal/timeslot"
)

// TimeSlot is a named teaching period such as "Period 1".
type TimeSlot struct {
	ID        string         `db:"id" json:"id"`
	Label     string         `db:"label" json:"label"`
	StartTime timeslot.Clock `db:"start_time" json:"start_time"`
	EndTime   timeslot.Clock `db:"end_time" json:"end_time"`
	SlotOrder int            `db:"slot_order" json:"slot_order"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}

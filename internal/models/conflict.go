package models

import "github.com/noah-isme/campus-portal-api/internal/timeslot"

// ReservationConflictError is returned when a write overlaps existing reservations.
type ReservationConflictError struct {
	Message   string              `json:"message"`
	Conflicts []timeslot.Conflict `json:"conflicts"`
}

// Error implements the error interface.
func (e *ReservationConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

package models

import (
	"time"

	"github.com/noah-isme/campus-portal-api/internal/timeslot"
)

// ClassroomBookingStatus tracks the lifecycle of a dated booking.
type ClassroomBookingStatus string

const (
	ClassroomBookingPending   ClassroomBookingStatus = "pending"
	ClassroomBookingConfirmed ClassroomBookingStatus = "confirmed"
	ClassroomBookingCancelled ClassroomBookingStatus = "cancelled"
)

// ClassroomBooking reserves a classroom on a concrete date.
type ClassroomBooking struct {
	ID           string                 `db:"id" json:"id"`
	ClassroomID  string                 `db:"classroom_id" json:"classroom_id"`
	DepartmentID string                 `db:"department_id" json:"department_id"`
	BookedBy     string                 `db:"booked_by" json:"booked_by"`
	BookingDate  timeslot.Date          `db:"booking_date" json:"booking_date"`
	DayOfWeek    int                    `db:"day_of_week" json:"day_of_week"`
	StartTime    timeslot.Clock         `db:"start_time" json:"start_time"`
	EndTime      timeslot.Clock         `db:"end_time" json:"end_time"`
	Purpose      string                 `db:"purpose" json:"purpose"`
	Status       ClassroomBookingStatus `db:"status" json:"status"`
	CreatedAt    time.Time              `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time              `db:"updated_at" json:"updated_at"`
}

// ReservationID implements timeslot.Reservation.
func (b ClassroomBooking) ReservationID() string { return b.ID }

// ReservationInterval implements timeslot.Reservation.
func (b ClassroomBooking) ReservationInterval() timeslot.Interval {
	return timeslot.Dated(b.BookingDate, b.StartTime, b.EndTime)
}

// ClassroomBookingFilter describes query params for listing bookings.
type ClassroomBookingFilter struct {
	ClassroomID  string
	DepartmentID string
	Status       ClassroomBookingStatus
	From         *timeslot.Date
	To           *timeslot.Date
	PageRequest
}

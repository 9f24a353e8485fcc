package models

import (
	"time"

	"github.com/noah-isme/campus-portal-api/internal/timeslot"
)

// BookingRequestStatus is the lifecycle state of a booking request.
type BookingRequestStatus string

const (
	BookingRequestPending   BookingRequestStatus = "pending"
	BookingRequestApproved  BookingRequestStatus = "approved"
	BookingRequestRejected  BookingRequestStatus = "rejected"
	BookingRequestWithdrawn BookingRequestStatus = "withdrawn"
)

// Terminal reports whether no further transition is allowed.
func (s BookingRequestStatus) Terminal() bool {
	return s == BookingRequestRejected || s == BookingRequestWithdrawn
}

// BookingRequest asks for a weekly slot in a classroom, possibly owned by another department.
type BookingRequest struct {
	ID                  string               `db:"id" json:"id"`
	RequesterID         string               `db:"requester_id" json:"requester_id"`
	RequesterName       string               `db:"requester_name" json:"requester_name"`
	RequesterDepartment string               `db:"requester_department" json:"requester_department"`
	TargetResourceID    string               `db:"target_resource_id" json:"target_resource_id"`
	TargetDepartment    *string              `db:"target_department" json:"target_department,omitempty"`
	TimeSlotID          string               `db:"time_slot_id" json:"time_slot_id"`
	DayOfWeek           int                  `db:"day_of_week" json:"day_of_week"`
	StartTime           timeslot.Clock       `db:"start_time" json:"start_time"`
	EndTime             timeslot.Clock       `db:"end_time" json:"end_time"`
	CourseName          string               `db:"course_name" json:"course_name"`
	ExpectedAttendance  int                  `db:"expected_attendance" json:"expected_attendance"`
	Notes               string               `db:"notes" json:"notes"`
	Status              BookingRequestStatus `db:"status" json:"status"`
	ApprovedBy          *string              `db:"approved_by" json:"approved_by,omitempty"`
	ApprovedAt          *time.Time           `db:"approved_at" json:"approved_at,omitempty"`
	RejectionReason     *string              `db:"rejection_reason" json:"rejection_reason,omitempty"`
	VCApproved          *bool                `db:"vc_approved" json:"vc_approved,omitempty"`
	VCApprovedBy        *string              `db:"vc_approved_by" json:"vc_approved_by,omitempty"`
	VCApprovedAt        *time.Time           `db:"vc_approved_at" json:"vc_approved_at,omitempty"`
	TimetableEntryID    *string              `db:"timetable_entry_id" json:"timetable_entry_id,omitempty"`
	CreatedAt           time.Time            `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time            `db:"updated_at" json:"updated_at"`
}

// ReservationID implements timeslot.Reservation.
func (r BookingRequest) ReservationID() string { return r.ID }

// ReservationInterval implements timeslot.Reservation.
func (r BookingRequest) ReservationInterval() timeslot.Interval {
	return timeslot.Weekly(r.DayOfWeek, r.StartTime, r.EndTime)
}

// BookingRequestFilter describes query params for listing booking requests.
type BookingRequestFilter struct {
	RequesterID      string
	Department       string
	TargetResourceID string
	Status           []BookingRequestStatus
	PageRequest
}

// ApprovalResult is returned by approval transitions. Warnings carry side effects that failed
// after the status change committed.
type ApprovalResult struct {
	Request  *BookingRequest `json:"request"`
	Entry    *TimetableEntry `json:"timetable_entry,omitempty"`
	Warnings []string        `json:"warnings,omitempty"`
}

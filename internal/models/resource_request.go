package models

import (
	"time"

	"github.com/noah-isme/campus-portal-api/internal/timeslot"
)

// ResourceRequestStatus is the lifecycle state of an HOD resource request.
type ResourceRequestStatus string

const (
	ResourceRequestPending   ResourceRequestStatus = "pending"
	ResourceRequestApproved  ResourceRequestStatus = "approved"
	ResourceRequestRejected  ResourceRequestStatus = "rejected"
	ResourceRequestCancelled ResourceRequestStatus = "cancelled"
)

// Terminal reports whether no further transition is allowed.
func (s ResourceRequestStatus) Terminal() bool {
	return s == ResourceRequestRejected || s == ResourceRequestCancelled
}

// ResourceRequest asks another department's HOD for a resource on a given date.
type ResourceRequest struct {
	ID                    string                `db:"id" json:"id"`
	RequesterHODID        string                `db:"requester_hod_id" json:"requester_hod_id"`
	RequesterDepartmentID string                `db:"requester_department_id" json:"requester_department_id"`
	ResourceID            string                `db:"resource_id" json:"resource_id"`
	TargetDepartmentID    *string               `db:"target_department_id" json:"target_department_id,omitempty"`
	RequestDate           timeslot.Date         `db:"request_date" json:"request_date"`
	DayOfWeek             int                   `db:"day_of_week" json:"day_of_week"`
	StartTime             timeslot.Clock        `db:"start_time" json:"start_time"`
	EndTime               timeslot.Clock        `db:"end_time" json:"end_time"`
	Purpose               string                `db:"purpose" json:"purpose"`
	ExpectedAttendance    int                   `db:"expected_attendance" json:"expected_attendance"`
	Status                ResourceRequestStatus `db:"status" json:"status"`
	ApprovedBy            *string               `db:"approved_by" json:"approved_by,omitempty"`
	ApprovedAt            *time.Time            `db:"approved_at" json:"approved_at,omitempty"`
	RejectionReason       *string               `db:"rejection_reason" json:"rejection_reason,omitempty"`
	Metadata              JSONMap               `db:"metadata" json:"metadata"`
	CreatedAt             time.Time             `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time             `db:"updated_at" json:"updated_at"`
}

// ReservationID implements timeslot.Reservation.
func (r ResourceRequest) ReservationID() string { return r.ID }

// ReservationInterval implements timeslot.Reservation.
func (r ResourceRequest) ReservationInterval() timeslot.Interval {
	return timeslot.Dated(r.RequestDate, r.StartTime, r.EndTime)
}

// ResourceRequestFilter describes query params for listing resource requests.
type ResourceRequestFilter struct {
	RequesterHODID string
	DepartmentID   string
	ResourceID     string
	Status         []ResourceRequestStatus
	PageRequest
}

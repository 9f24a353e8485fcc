package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-portal-api/internal/models"
)

const bookingRequestColumns = `id, requester_id, requester_name, requester_department, target_resource_id, target_department, time_slot_id,
	day_of_week, start_time, end_time, course_name, expected_attendance, notes, status, approved_by, approved_at, rejection_reason,
	vc_approved, vc_approved_by, vc_approved_at, timetable_entry_id, created_at, updated_at`

// Occupancy of a classroom weekday: approved requests plus timetable entries.
const classroomOccupancyQuery = `SELECT
	(SELECT COUNT(*) FROM booking_requests
	  WHERE target_resource_id = $1 AND day_of_week = $2 AND status = 'approved' AND id <> $3
	  AND start_time < $4 AND end_time > $5)
	+ (SELECT COUNT(*) FROM timetable_entries
	  WHERE classroom_id = $1 AND day_of_week = $2 AND start_time < $4 AND end_time > $5)`

// BookingRequestRepository persists classroom booking requests.
type BookingRequestRepository struct {
	db *sqlx.DB
}

// NewBookingRequestRepository creates a new booking request repository.
func NewBookingRequestRepository(db *sqlx.DB) *BookingRequestRepository {
	return &BookingRequestRepository{db: db}
}

// List returns booking requests matching filter, newest first by default.
func (r *BookingRequestRepository) List(ctx context.Context, filter models.BookingRequestFilter) ([]models.BookingRequest, int, error) {
	var where whereBuilder
	if filter.RequesterID != "" {
		where.add("requester_id = $%d", filter.RequesterID)
	}
	if filter.Department != "" {
		where.args = append(where.args, filter.Department)
		n := len(where.args)
		where.conditions = append(where.conditions, fmt.Sprintf("(requester_department = $%d OR target_department = $%d)", n, n))
	}
	if filter.TargetResourceID != "" {
		where.add("target_resource_id = $%d", filter.TargetResourceID)
	}
	statuses := make([]string, len(filter.Status))
	for i, s := range filter.Status {
		statuses[i] = string(s)
	}
	where.addAny("status", statuses)

	base := "FROM booking_requests" + where.clause()
	allowed := map[string]bool{"created_at": true, "day_of_week": true, "status": true}
	query := "SELECT " + bookingRequestColumns + " " + base + pageClause(filter.PageRequest, allowed, "created_at", "DESC")

	var requests []models.BookingRequest
	if err := r.db.SelectContext(ctx, &requests, query, where.args...); err != nil {
		return nil, 0, fmt.Errorf("list booking requests: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, where.args...); err != nil {
		return nil, 0, fmt.Errorf("count booking requests: %w", err)
	}
	return requests, total, nil
}

// FindByID loads a booking request by id.
func (r *BookingRequestRepository) FindByID(ctx context.Context, id string) (*models.BookingRequest, error) {
	query := `SELECT ` + bookingRequestColumns + ` FROM booking_requests WHERE id = $1`
	var req models.BookingRequest
	if err := r.db.GetContext(ctx, &req, query, id); err != nil {
		return nil, err
	}
	return &req, nil
}

// ListApprovedFor returns approved requests holding classroomID on day.
func (r *BookingRequestRepository) ListApprovedFor(ctx context.Context, classroomID string, day int) ([]models.BookingRequest, error) {
	query := `SELECT ` + bookingRequestColumns + ` FROM booking_requests WHERE target_resource_id = $1 AND day_of_week = $2 AND status = 'approved' ORDER BY start_time ASC`
	var requests []models.BookingRequest
	if err := r.db.SelectContext(ctx, &requests, query, classroomID, day); err != nil {
		return nil, fmt.Errorf("list approved booking requests: %w", err)
	}
	return requests, nil
}

// Create inserts a request. Requests created already approved are written under the classroom
// weekday lock after re-counting occupancy.
func (r *BookingRequestRepository) Create(ctx context.Context, req *models.BookingRequest) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.Status == "" {
		req.Status = models.BookingRequestPending
	}
	now := time.Now().UTC()
	req.CreatedAt = now
	req.UpdatedAt = now
	const query = `INSERT INTO booking_requests (id, requester_id, requester_name, requester_department, target_resource_id, target_department,
	time_slot_id, day_of_week, start_time, end_time, course_name, expected_attendance, notes, status, approved_by, approved_at, created_at, updated_at)
	VALUES (:id, :requester_id, :requester_name, :requester_department, :target_resource_id, :target_department,
	:time_slot_id, :day_of_week, :start_time, :end_time, :course_name, :expected_attendance, :notes, :status, :approved_by, :approved_at, :created_at, :updated_at)`

	if req.Status != models.BookingRequestApproved {
		if _, err := r.db.NamedExecContext(ctx, query, req); err != nil {
			return fmt.Errorf("create booking request: %w", err)
		}
		return nil
	}
	return withReservationLock(ctx, r.db, requestLockKey(req), func(tx *sqlx.Tx) error {
		if err := countOverlapping(ctx, tx, classroomOccupancyQuery, req.TargetResourceID, req.DayOfWeek, req.ID, req.EndTime, req.StartTime); err != nil {
			return err
		}
		if _, err := tx.NamedExecContext(ctx, query, req); err != nil {
			return fmt.Errorf("create booking request: %w", err)
		}
		return nil
	})
}

// Update rewrites the editable fields of a pending request. Returns sql.ErrNoRows when the row
// is missing or no longer pending.
func (r *BookingRequestRepository) Update(ctx context.Context, req *models.BookingRequest) error {
	req.UpdatedAt = time.Now().UTC()
	const query = `UPDATE booking_requests SET target_resource_id = :target_resource_id, target_department = :target_department,
	time_slot_id = :time_slot_id, day_of_week = :day_of_week, start_time = :start_time, end_time = :end_time,
	course_name = :course_name, expected_attendance = :expected_attendance, notes = :notes, updated_at = :updated_at
	WHERE id = :id AND status = 'pending'`
	return namedExecOne(ctx, r.db, query, req, "update booking request")
}

// Approve moves a pending request to approved under the classroom weekday lock. Returns
// ErrReservationOverlap when the slot became occupied and sql.ErrNoRows when the request is no
// longer pending.
func (r *BookingRequestRepository) Approve(ctx context.Context, req *models.BookingRequest, approverID string, at time.Time) error {
	return withReservationLock(ctx, r.db, requestLockKey(req), func(tx *sqlx.Tx) error {
		if err := countOverlapping(ctx, tx, classroomOccupancyQuery, req.TargetResourceID, req.DayOfWeek, req.ID, req.EndTime, req.StartTime); err != nil {
			return err
		}
		return execOne(ctx, tx, `UPDATE booking_requests SET status = 'approved', approved_by = $2, approved_at = $3, updated_at = $3
		WHERE id = $1 AND status = 'pending'`, "approve booking request", req.ID, approverID, at)
	})
}

// Reject moves a pending request to rejected.
func (r *BookingRequestRepository) Reject(ctx context.Context, id, approverID, reason string, at time.Time) error {
	return execOne(ctx, r.db, `UPDATE booking_requests SET status = 'rejected', approved_by = $2, approved_at = $3, rejection_reason = $4, updated_at = $3
	WHERE id = $1 AND status = 'pending'`, "reject booking request", id, approverID, at, reason)
}

// Withdraw moves a pending or approved request to withdrawn.
func (r *BookingRequestRepository) Withdraw(ctx context.Context, id string, at time.Time) error {
	return execOne(ctx, r.db, `UPDATE booking_requests SET status = 'withdrawn', updated_at = $2
	WHERE id = $1 AND status IN ('pending', 'approved')`, "withdraw booking request", id, at)
}

// SetVCDecision records the VC decision on an approved request that has none yet.
func (r *BookingRequestRepository) SetVCDecision(ctx context.Context, id string, approved bool, vcID string, at time.Time) error {
	return execOne(ctx, r.db, `UPDATE booking_requests SET vc_approved = $2, vc_approved_by = $3, vc_approved_at = $4, updated_at = $4
	WHERE id = $1 AND status = 'approved' AND vc_approved IS NULL`, "set vc decision", id, approved, vcID, at)
}

// AttachTimetableEntry links the entry materialised for an approved request.
func (r *BookingRequestRepository) AttachTimetableEntry(ctx context.Context, id, entryID string) error {
	return execOne(ctx, r.db, `UPDATE booking_requests SET timetable_entry_id = $2, updated_at = $3 WHERE id = $1`,
		"attach timetable entry", id, entryID, time.Now().UTC())
}

func requestLockKey(req *models.BookingRequest) string {
	return "classroom:" + req.TargetResourceID + ":dow:" + strconv.Itoa(req.DayOfWeek)
}

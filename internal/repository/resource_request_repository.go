package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-portal-api/internal/models"
	"github.com/noah-isme/campus-portal-api/internal/timeslot"
)

const resourceRequestColumns = `id, requester_hod_id, requester_department_id, resource_id, target_department_id, request_date, day_of_week,
	start_time, end_time, purpose, expected_attendance, status, approved_by, approved_at, rejection_reason, metadata, created_at, updated_at`

const approvedResourceOverlapQuery = `SELECT COUNT(*) FROM resource_requests
	WHERE resource_id = $1 AND request_date = $2 AND status = 'approved' AND id <> $3
	AND start_time < $4 AND end_time > $5`

// ResourceRequestRepository persists HOD resource requests.
type ResourceRequestRepository struct {
	db *sqlx.DB
}

// NewResourceRequestRepository creates a new resource request repository.
func NewResourceRequestRepository(db *sqlx.DB) *ResourceRequestRepository {
	return &ResourceRequestRepository{db: db}
}

// List returns resource requests matching filter. DepartmentID matches either side of the request.
func (r *ResourceRequestRepository) List(ctx context.Context, filter models.ResourceRequestFilter) ([]models.ResourceRequest, int, error) {
	var where whereBuilder
	if filter.RequesterHODID != "" {
		where.add("requester_hod_id = $%d", filter.RequesterHODID)
	}
	if filter.DepartmentID != "" {
		where.args = append(where.args, filter.DepartmentID)
		n := len(where.args)
		where.conditions = append(where.conditions, fmt.Sprintf("(requester_department_id = $%d OR target_department_id = $%d)", n, n))
	}
	if filter.ResourceID != "" {
		where.add("resource_id = $%d", filter.ResourceID)
	}
	statuses := make([]string, len(filter.Status))
	for i, s := range filter.Status {
		statuses[i] = string(s)
	}
	where.addAny("status", statuses)

	base := "FROM resource_requests" + where.clause()
	allowed := map[string]bool{"created_at": true, "request_date": true, "status": true}
	query := "SELECT " + resourceRequestColumns + " " + base + pageClause(filter.PageRequest, allowed, "created_at", "DESC")

	var requests []models.ResourceRequest
	if err := r.db.SelectContext(ctx, &requests, query, where.args...); err != nil {
		return nil, 0, fmt.Errorf("list resource requests: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, where.args...); err != nil {
		return nil, 0, fmt.Errorf("count resource requests: %w", err)
	}
	return requests, total, nil
}

// FindByID loads a resource request by id.
func (r *ResourceRequestRepository) FindByID(ctx context.Context, id string) (*models.ResourceRequest, error) {
	query := `SELECT ` + resourceRequestColumns + ` FROM resource_requests WHERE id = $1`
	var req models.ResourceRequest
	if err := r.db.GetContext(ctx, &req, query, id); err != nil {
		return nil, err
	}
	return &req, nil
}

// ListApprovedOn returns approved requests holding resourceID on date.
func (r *ResourceRequestRepository) ListApprovedOn(ctx context.Context, resourceID string, date timeslot.Date) ([]models.ResourceRequest, error) {
	query := `SELECT ` + resourceRequestColumns + ` FROM resource_requests WHERE resource_id = $1 AND request_date = $2 AND status = 'approved' ORDER BY start_time ASC`
	var requests []models.ResourceRequest
	if err := r.db.SelectContext(ctx, &requests, query, resourceID, date); err != nil {
		return nil, fmt.Errorf("list approved resource requests: %w", err)
	}
	return requests, nil
}

// Create inserts a pending resource request.
func (r *ResourceRequestRepository) Create(ctx context.Context, req *models.ResourceRequest) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.Status == "" {
		req.Status = models.ResourceRequestPending
	}
	now := time.Now().UTC()
	req.CreatedAt = now
	req.UpdatedAt = now
	const query = `INSERT INTO resource_requests (id, requester_hod_id, requester_department_id, resource_id, target_department_id, request_date,
	day_of_week, start_time, end_time, purpose, expected_attendance, status, metadata, created_at, updated_at)
	VALUES (:id, :requester_hod_id, :requester_department_id, :resource_id, :target_department_id, :request_date,
	:day_of_week, :start_time, :end_time, :purpose, :expected_attendance, :status, :metadata, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, req); err != nil {
		return fmt.Errorf("create resource request: %w", err)
	}
	return nil
}

// Update rewrites the editable fields of a pending request.
func (r *ResourceRequestRepository) Update(ctx context.Context, req *models.ResourceRequest) error {
	req.UpdatedAt = time.Now().UTC()
	const query = `UPDATE resource_requests SET request_date = :request_date, day_of_week = :day_of_week, start_time = :start_time,
	end_time = :end_time, purpose = :purpose, expected_attendance = :expected_attendance, metadata = :metadata, updated_at = :updated_at
	WHERE id = :id AND status = 'pending'`
	return namedExecOne(ctx, r.db, query, req, "update resource request")
}

// Approve moves a pending request to approved under the resource/date lock.
func (r *ResourceRequestRepository) Approve(ctx context.Context, req *models.ResourceRequest, approverID string, at time.Time) error {
	key := "resource:" + req.ResourceID + ":" + req.RequestDate.String()
	return withReservationLock(ctx, r.db, key, func(tx *sqlx.Tx) error {
		if err := countOverlapping(ctx, tx, approvedResourceOverlapQuery, req.ResourceID, req.RequestDate, req.ID, req.EndTime, req.StartTime); err != nil {
			return err
		}
		return execOne(ctx, tx, `UPDATE resource_requests SET status = 'approved', approved_by = $2, approved_at = $3, updated_at = $3
		WHERE id = $1 AND status = 'pending'`, "approve resource request", req.ID, approverID, at)
	})
}

// Reject moves a pending request to rejected.
func (r *ResourceRequestRepository) Reject(ctx context.Context, id, approverID, reason string, at time.Time) error {
	return execOne(ctx, r.db, `UPDATE resource_requests SET status = 'rejected', approved_by = $2, approved_at = $3, rejection_reason = $4, updated_at = $3
	WHERE id = $1 AND status = 'pending'`, "reject resource request", id, approverID, at, reason)
}

// Cancel moves a pending or approved request to cancelled.
func (r *ResourceRequestRepository) Cancel(ctx context.Context, id string, at time.Time) error {
	return execOne(ctx, r.db, `UPDATE resource_requests SET status = 'cancelled', updated_at = $2
	WHERE id = $1 AND status IN ('pending', 'approved')`, "cancel resource request", id, at)
}

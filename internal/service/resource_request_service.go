package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-portal-api/internal/models"
	"github.com/noah-isme/campus-portal-api/internal/repository"
	"github.com/noah-isme/campus-portal-api/internal/timeslot"
	appErrors "github.com/noah-isme/campus-portal-api/pkg/errors"
)

const resourceWorkflow = "resource_request"

type resourceRequestRepository interface {
	List(ctx context.Context, filter models.ResourceRequestFilter) ([]models.ResourceRequest, int, error)
	FindByID(ctx context.Context, id string) (*models.ResourceRequest, error)
	ListApprovedOn(ctx context.Context, resourceID string, date timeslot.Date) ([]models.ResourceRequest, error)
	Create(ctx context.Context, req *models.ResourceRequest) error
	Update(ctx context.Context, req *models.ResourceRequest) error
	Approve(ctx context.Context, req *models.ResourceRequest, approverID string, at time.Time) error
	Reject(ctx context.Context, id, approverID, reason string, at time.Time) error
	Cancel(ctx context.Context, id string, at time.Time) error
}

// ResourceRequestPayload is the payload for creating or updating a resource request.
type ResourceRequestPayload struct {
	ResourceID         string                 `json:"resource_id" validate:"required"`
	RequestDate        timeslot.Date          `json:"request_date"`
	DayOfWeek          int                    `json:"day_of_week" validate:"omitempty,min=1,max=7"`
	StartTime          timeslot.Clock         `json:"start_time"`
	EndTime            timeslot.Clock         `json:"end_time"`
	Purpose            string                 `json:"purpose" validate:"required,max=2000"`
	ExpectedAttendance int                    `json:"expected_attendance" validate:"gte=0"`
	Metadata           map[string]interface{} `json:"metadata"`
}

// RejectRequest carries the mandatory reason for a rejection. Reason is the older field name and
// is read only when RejectionReason is empty.
type RejectRequest struct {
	RejectionReason string `json:"rejection_reason"`
	Reason          string `json:"reason"`
}

func (r RejectRequest) text() string {
	if reason := strings.TrimSpace(r.RejectionReason); reason != "" {
		return reason
	}
	return strings.TrimSpace(r.Reason)
}

// ResourceRequestService runs the HOD-to-HOD resource request workflow.
type ResourceRequestService struct {
	repo      resourceRequestRepository
	resources resourceRepository
	audit     auditWriter
	metrics   *MetricsService
	config    WorkflowConfig
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewResourceRequestService constructs a ResourceRequestService.
func NewResourceRequestService(repo resourceRequestRepository, resources resourceRepository, audit auditWriter, metrics *MetricsService, config WorkflowConfig, validate *validator.Validate, logger *zap.Logger) *ResourceRequestService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResourceRequestService{
		repo:      repo,
		resources: resources,
		audit:     audit,
		metrics:   metrics,
		config:    config.withDefaults(),
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// List returns resource requests. HODs only see requests touching their department.
func (s *ResourceRequestService) List(ctx context.Context, actor *models.JWTClaims, filter models.ResourceRequestFilter) ([]models.ResourceRequest, *models.Pagination, error) {
	if actor.HasRole(models.RoleHOD) {
		filter.DepartmentID = actor.DepartmentID
	}
	requests, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list resource requests")
	}
	return requests, filter.Pagination(total), nil
}

// Get returns a resource request by id.
func (s *ResourceRequestService) Get(ctx context.Context, id string) (*models.ResourceRequest, error) {
	req, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "resource request not found", "failed to load resource request")
	}
	return req, nil
}

// Create files a resource request on behalf of an HOD.
func (s *ResourceRequestService) Create(ctx context.Context, actor *models.JWTClaims, payload ResourceRequestPayload) (*models.ResourceRequest, error) {
	if !actor.HasRole(models.RoleHOD) || actor.FacultyID == "" || actor.DepartmentID == "" {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only a head of department can request resources")
	}
	req := &models.ResourceRequest{
		RequesterHODID:        actor.FacultyID,
		RequesterDepartmentID: actor.DepartmentID,
		Status:                models.ResourceRequestPending,
	}
	if err := s.place(ctx, req, payload); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, req); err != nil {
		return nil, appErrors.Internal(err, "failed to create resource request")
	}
	recordAudit(ctx, s.audit, s.logger, actor.UserID, models.AuditActionRequestCreate, resourceWorkflow, req.ID, nil, req)
	s.metrics.RecordTransition(resourceWorkflow, "new", string(req.Status))

	if s.config.AutoApprove && sameDepartmentHOD(actor, req.TargetDepartmentID) {
		if err := s.autoApprove(ctx, actor, req); err != nil {
			s.logger.Warn("resource request left pending, auto-approval failed",
				zap.String("request_id", req.ID),
				zap.Error(err))
		}
	}
	return req, nil
}

// Update rewrites a pending request owned by actor.
func (s *ResourceRequestService) Update(ctx context.Context, actor *models.JWTClaims, id string, payload ResourceRequestPayload) (*models.ResourceRequest, error) {
	req, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "resource request not found", "failed to load resource request")
	}
	if !s.ownedBy(actor, req) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the requesting HOD can update this request")
	}
	if req.Status != models.ResourceRequestPending {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "only pending requests can be updated")
	}
	if payload.ResourceID != "" && payload.ResourceID != req.ResourceID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "resource cannot be changed, cancel and create a new request")
	}
	payload.ResourceID = req.ResourceID
	before := *req
	if err := s.place(ctx, req, payload); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, req); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "only pending requests can be updated")
		}
		return nil, appErrors.Internal(err, "failed to update resource request")
	}
	recordAudit(ctx, s.audit, s.logger, actor.UserID, models.AuditActionUpdate, resourceWorkflow, req.ID, before, req)
	return req, nil
}

// Approve moves a pending request to approved after re-checking conflicts.
func (s *ResourceRequestService) Approve(ctx context.Context, actor *models.JWTClaims, id string) (*models.ResourceRequest, error) {
	req, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "resource request not found", "failed to load resource request")
	}
	if err := authorizeApprover(actor, req.TargetDepartmentID); err != nil {
		return nil, err
	}
	if req.Status != models.ResourceRequestPending {
		return nil, transitionError(string(req.Status), string(models.ResourceRequestApproved))
	}
	if err := s.checkConflicts(ctx, req); err != nil {
		return nil, err
	}
	if err := s.approve(ctx, actor.UserID, actor.UserID, req, models.AuditActionRequestApprove); err != nil {
		return nil, err
	}
	return req, nil
}

// Reject moves a pending request to rejected. A reason is mandatory.
func (s *ResourceRequestService) Reject(ctx context.Context, actor *models.JWTClaims, id string, payload RejectRequest) (*models.ResourceRequest, error) {
	reason := payload.text()
	if reason == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "rejection reason is required")
	}
	req, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "resource request not found", "failed to load resource request")
	}
	if err := authorizeApprover(actor, req.TargetDepartmentID); err != nil {
		return nil, err
	}
	if req.Status != models.ResourceRequestPending {
		return nil, transitionError(string(req.Status), string(models.ResourceRequestRejected))
	}
	at := s.now()
	if err := s.repo.Reject(ctx, id, actor.UserID, reason, at); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.staleTransition(ctx, id, models.ResourceRequestRejected)
		}
		return nil, appErrors.Internal(err, "failed to reject resource request")
	}
	approver := actor.UserID
	req.Status = models.ResourceRequestRejected
	req.ApprovedBy = &approver
	req.ApprovedAt = &at
	req.RejectionReason = &reason
	recordAudit(ctx, s.audit, s.logger, actor.UserID, models.AuditActionRequestReject, resourceWorkflow, id,
		map[string]string{"status": string(models.ResourceRequestPending)},
		map[string]string{"status": string(req.Status), "rejection_reason": reason})
	s.metrics.RecordTransition(resourceWorkflow, string(models.ResourceRequestPending), string(req.Status))
	return req, nil
}

// Cancel lets the requesting HOD cancel a pending or approved request.
func (s *ResourceRequestService) Cancel(ctx context.Context, actor *models.JWTClaims, id string) (*models.ResourceRequest, error) {
	req, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "resource request not found", "failed to load resource request")
	}
	if !s.ownedBy(actor, req) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the requesting HOD can cancel this request")
	}
	if req.Status.Terminal() {
		return nil, transitionError(string(req.Status), string(models.ResourceRequestCancelled))
	}
	from := req.Status
	if err := s.repo.Cancel(ctx, id, s.now()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.staleTransition(ctx, id, models.ResourceRequestCancelled)
		}
		return nil, appErrors.Internal(err, "failed to cancel resource request")
	}
	req.Status = models.ResourceRequestCancelled
	recordAudit(ctx, s.audit, s.logger, actor.UserID, models.AuditActionRequestWithdraw, resourceWorkflow, id,
		map[string]string{"status": string(from)}, map[string]string{"status": string(req.Status)})
	s.metrics.RecordTransition(resourceWorkflow, string(from), string(req.Status))
	return req, nil
}

func (s *ResourceRequestService) autoApprove(ctx context.Context, actor *models.JWTClaims, req *models.ResourceRequest) error {
	if err := s.checkConflicts(ctx, req); err != nil {
		return err
	}
	return s.approve(ctx, actor.UserID, s.config.AutoApprovedMarker, req, models.AuditActionRequestAutoApprove)
}

func (s *ResourceRequestService) approve(ctx context.Context, actorID, approvedBy string, req *models.ResourceRequest, action string) error {
	at := s.now()
	if err := s.repo.Approve(ctx, req, approvedBy, at); err != nil {
		switch {
		case errors.Is(err, repository.ErrReservationOverlap):
			s.metrics.RecordConflict(timeslot.DimensionResource)
			return appErrors.Clone(appErrors.ErrConflict, "resource was booked concurrently for this window")
		case errors.Is(err, sql.ErrNoRows):
			return s.staleTransition(ctx, req.ID, models.ResourceRequestApproved)
		}
		return appErrors.Internal(err, "failed to approve resource request")
	}
	req.Status = models.ResourceRequestApproved
	req.ApprovedBy = &approvedBy
	req.ApprovedAt = &at
	recordAudit(ctx, s.audit, s.logger, actorID, action, resourceWorkflow, req.ID,
		map[string]string{"status": string(models.ResourceRequestPending)},
		map[string]string{"status": string(req.Status), "approved_by": approvedBy})
	s.metrics.RecordTransition(resourceWorkflow, string(models.ResourceRequestPending), string(req.Status))
	return nil
}

// place validates payload against the resource and copies it onto req.
func (s *ResourceRequestService) place(ctx context.Context, req *models.ResourceRequest, payload ResourceRequestPayload) error {
	if err := s.validator.Struct(payload); err != nil {
		return appErrors.Invalid(err, "invalid resource request payload")
	}
	if payload.RequestDate.IsZero() {
		return appErrors.Clone(appErrors.ErrValidation, "request_date is required")
	}
	res, err := s.resources.FindByID(ctx, payload.ResourceID)
	if err != nil {
		return storeError(err, "resource not found", "failed to load resource")
	}
	if !res.Active {
		return appErrors.Clone(appErrors.ErrValidation, "resource is not active")
	}
	day := payload.RequestDate.Weekday()
	if payload.DayOfWeek != 0 && payload.DayOfWeek != day {
		return appErrors.Clone(appErrors.ErrValidation, "day_of_week does not match request_date")
	}
	req.ResourceID = res.ID
	req.TargetDepartmentID = res.DepartmentID
	req.RequestDate = payload.RequestDate
	req.DayOfWeek = day
	req.StartTime = payload.StartTime
	req.EndTime = payload.EndTime
	req.Purpose = strings.TrimSpace(payload.Purpose)
	req.ExpectedAttendance = payload.ExpectedAttendance
	if payload.Metadata != nil {
		req.Metadata = models.JSONMap(payload.Metadata)
	}
	if err := req.ReservationInterval().Validate(); err != nil {
		return appErrors.Invalid(err, err.Error())
	}
	return s.checkConflicts(ctx, req)
}

func (s *ResourceRequestService) checkConflicts(ctx context.Context, req *models.ResourceRequest) error {
	approved, err := s.repo.ListApprovedOn(ctx, req.ResourceID, req.RequestDate)
	if err != nil {
		return appErrors.Internal(err, "failed to check resource conflicts")
	}
	hits := timeslot.Detect(approved, req.ReservationInterval(), req.ID)
	if len(hits) > 0 {
		return conflictError(s.metrics, "resource is already reserved for this window",
			timeslot.Describe(timeslot.DimensionResource, timeslot.KindResourceRequest, hits))
	}
	return nil
}

func (s *ResourceRequestService) ownedBy(actor *models.JWTClaims, req *models.ResourceRequest) bool {
	return actor != nil && actor.FacultyID != "" && actor.FacultyID == req.RequesterHODID
}

func (s *ResourceRequestService) staleTransition(ctx context.Context, id string, to models.ResourceRequestStatus) error {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return storeError(err, "resource request not found", "failed to load resource request")
	}
	return transitionError(string(current.Status), string(to))
}

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-portal-api/internal/models"
	"github.com/noah-isme/campus-portal-api/internal/repository"
	"github.com/noah-isme/campus-portal-api/internal/timeslot"
	appErrors "github.com/noah-isme/campus-portal-api/pkg/errors"
)

const bookingWorkflow = "booking_request"

type bookingRequestRepository interface {
	List(ctx context.Context, filter models.BookingRequestFilter) ([]models.BookingRequest, int, error)
	FindByID(ctx context.Context, id string) (*models.BookingRequest, error)
	ListApprovedFor(ctx context.Context, classroomID string, day int) ([]models.BookingRequest, error)
	Create(ctx context.Context, req *models.BookingRequest) error
	Update(ctx context.Context, req *models.BookingRequest) error
	Approve(ctx context.Context, req *models.BookingRequest, approverID string, at time.Time) error
	Reject(ctx context.Context, id, approverID, reason string, at time.Time) error
	Withdraw(ctx context.Context, id string, at time.Time) error
	SetVCDecision(ctx context.Context, id string, approved bool, vcID string, at time.Time) error
	AttachTimetableEntry(ctx context.Context, id, entryID string) error
}

type classroomScheduleReader interface {
	ListEntriesByClassroom(ctx context.Context, classroomID string, day int) ([]models.TimetableEntry, error)
}

type userLookup interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// entryMaterializer writes the timetable entry backing an approved booking.
type entryMaterializer interface {
	FindOrCreateSessionTimetable(ctx context.Context, departmentID, name string) (*models.Timetable, error)
	AddEntry(ctx context.Context, timetableID string, req EntryRequest) (*models.TimetableEntry, error)
	DeleteEntry(ctx context.Context, entryID string) error
}

// CreateBookingRequest is the payload for requesting a weekly classroom slot.
type CreateBookingRequest struct {
	TargetResourceID   string `json:"target_resource_id" validate:"required"`
	TimeSlotID         string `json:"time_slot_id" validate:"required"`
	DayOfWeek          int    `json:"day_of_week" validate:"required,min=1,max=7"`
	CourseName         string `json:"course_name" validate:"required,max=255"`
	ExpectedAttendance int    `json:"expected_attendance" validate:"gte=0"`
	Notes              string `json:"notes" validate:"max=2000"`
}

// BookingStatusRequest moves a booking request to approved or rejected.
type BookingStatusRequest struct {
	Status          models.BookingRequestStatus `json:"status" validate:"required,oneof=approved rejected"`
	RejectionReason string                      `json:"rejection_reason"`
}

// VCDecisionRequest records the Vice Chancellor's decision.
type VCDecisionRequest struct {
	Approved *bool `json:"approved" validate:"required"`
}

// BookingRequestDeps groups the collaborators of BookingRequestService.
type BookingRequestDeps struct {
	Requests   bookingRequestRepository
	Classrooms classroomRepository
	TimeSlots  timeSlotRepository
	Schedule   classroomScheduleReader
	Subjects   subjectRepository
	Users      userLookup
	Timetables entryMaterializer
	Audit      auditWriter
	Metrics    *MetricsService
}

// BookingRequestService runs the classroom booking request workflow.
type BookingRequestService struct {
	repo       bookingRequestRepository
	classrooms classroomRepository
	slots      timeSlotRepository
	schedule   classroomScheduleReader
	subjects   subjectRepository
	users      userLookup
	timetables entryMaterializer
	audit      auditWriter
	metrics    *MetricsService
	config     WorkflowConfig
	validator  *validator.Validate
	logger     *zap.Logger
	now        func() time.Time
}

// NewBookingRequestService constructs a BookingRequestService.
func NewBookingRequestService(deps BookingRequestDeps, config WorkflowConfig, validate *validator.Validate, logger *zap.Logger) *BookingRequestService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BookingRequestService{
		repo:       deps.Requests,
		classrooms: deps.Classrooms,
		slots:      deps.TimeSlots,
		schedule:   deps.Schedule,
		subjects:   deps.Subjects,
		users:      deps.Users,
		timetables: deps.Timetables,
		audit:      deps.Audit,
		metrics:    deps.Metrics,
		config:     config.withDefaults(),
		validator:  validate,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// List returns booking requests visible to actor. Students and faculty only see their own
// requests, HODs see requests touching their department.
func (s *BookingRequestService) List(ctx context.Context, actor *models.JWTClaims, filter models.BookingRequestFilter) ([]models.BookingRequest, *models.Pagination, error) {
	switch {
	case actor.HasRole(models.RoleAdmin, models.RolePrincipal, models.RoleVC):
	case actor.HasRole(models.RoleHOD):
		filter.Department = actor.DepartmentID
	case actor != nil:
		filter.RequesterID = actor.UserID
	}
	requests, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list booking requests")
	}
	return requests, filter.Pagination(total), nil
}

// Get returns a booking request by id.
func (s *BookingRequestService) Get(ctx context.Context, id string) (*models.BookingRequest, error) {
	req, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "booking request not found", "failed to load booking request")
	}
	return req, nil
}

// Create files a booking request. An HOD booking a classroom of their own department is approved
// immediately when auto-approval is enabled.
func (s *BookingRequestService) Create(ctx context.Context, actor *models.JWTClaims, payload CreateBookingRequest) (*models.ApprovalResult, error) {
	if err := s.validator.Struct(payload); err != nil {
		return nil, appErrors.Invalid(err, "invalid booking request payload")
	}
	if actor == nil || actor.DepartmentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "requester has no department")
	}

	req := &models.BookingRequest{
		ID:                  uuid.NewString(),
		RequesterID:         actor.UserID,
		RequesterName:       actor.FullName,
		RequesterDepartment: actor.DepartmentID,
		CourseName:          strings.TrimSpace(payload.CourseName),
		ExpectedAttendance:  payload.ExpectedAttendance,
		Notes:               strings.TrimSpace(payload.Notes),
		Status:              models.BookingRequestPending,
	}
	if err := s.placeRequest(ctx, req, payload.TargetResourceID, payload.TimeSlotID, payload.DayOfWeek); err != nil {
		return nil, err
	}

	autoApproved := s.config.AutoApprove && sameDepartmentHOD(actor, req.TargetDepartment)
	if autoApproved {
		at := s.now()
		marker := s.config.AutoApprovedMarker
		req.Status = models.BookingRequestApproved
		req.ApprovedBy = &marker
		req.ApprovedAt = &at
	}

	if err := s.repo.Create(ctx, req); err != nil {
		if errors.Is(err, repository.ErrReservationOverlap) {
			return nil, s.raceConflict()
		}
		return nil, appErrors.Internal(err, "failed to create booking request")
	}
	recordAudit(ctx, s.audit, s.logger, actor.UserID, models.AuditActionRequestCreate, bookingWorkflow, req.ID, nil, req)
	s.metrics.RecordTransition(bookingWorkflow, "new", string(models.BookingRequestPending))

	result := &models.ApprovalResult{Request: req}
	if autoApproved {
		// Auto-approval is a workflow shortcut, not an authorization decision; the audit row keeps
		// it reviewable.
		recordAudit(ctx, s.audit, s.logger, actor.UserID, models.AuditActionRequestAutoApprove, bookingWorkflow, req.ID,
			map[string]string{"status": string(models.BookingRequestPending)},
			map[string]string{"status": string(models.BookingRequestApproved), "approved_by": s.config.AutoApprovedMarker})
		s.metrics.RecordTransition(bookingWorkflow, string(models.BookingRequestPending), string(models.BookingRequestApproved))
		s.logger.Info("booking request auto-approved",
			zap.String("request_id", req.ID),
			zap.String("requester_id", actor.UserID),
			zap.String("department_id", actor.DepartmentID))
		s.materialize(ctx, req, result)
	}
	return result, nil
}

// Update rewrites a pending request owned by actor and re-runs the conflict check.
func (s *BookingRequestService) Update(ctx context.Context, actor *models.JWTClaims, id string, payload CreateBookingRequest) (*models.BookingRequest, error) {
	if err := s.validator.Struct(payload); err != nil {
		return nil, appErrors.Invalid(err, "invalid booking request payload")
	}
	req, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "booking request not found", "failed to load booking request")
	}
	if actor == nil || req.RequesterID != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the requester can update this request")
	}
	if req.Status != models.BookingRequestPending {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "only pending requests can be updated")
	}
	before := *req
	req.CourseName = strings.TrimSpace(payload.CourseName)
	req.ExpectedAttendance = payload.ExpectedAttendance
	req.Notes = strings.TrimSpace(payload.Notes)
	if err := s.placeRequest(ctx, req, payload.TargetResourceID, payload.TimeSlotID, payload.DayOfWeek); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, req); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "only pending requests can be updated")
		}
		return nil, appErrors.Internal(err, "failed to update booking request")
	}
	recordAudit(ctx, s.audit, s.logger, actor.UserID, models.AuditActionUpdate, bookingWorkflow, req.ID, before, req)
	return req, nil
}

// UpdateStatus approves or rejects a pending request.
func (s *BookingRequestService) UpdateStatus(ctx context.Context, actor *models.JWTClaims, id string, payload BookingStatusRequest) (*models.ApprovalResult, error) {
	if err := s.validator.Struct(payload); err != nil {
		return nil, appErrors.Invalid(err, "invalid status payload")
	}
	req, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "booking request not found", "failed to load booking request")
	}
	if err := authorizeApprover(actor, req.TargetDepartment); err != nil {
		return nil, err
	}
	if req.Status != models.BookingRequestPending {
		return nil, transitionError(string(req.Status), string(payload.Status))
	}
	if payload.Status == models.BookingRequestRejected {
		return s.reject(ctx, actor, req, payload.RejectionReason)
	}
	return s.approve(ctx, actor, req)
}

// Withdraw lets the requester pull a pending or approved request. The timetable entry of an
// approved request is removed on a best-effort basis.
func (s *BookingRequestService) Withdraw(ctx context.Context, actor *models.JWTClaims, id string) (*models.BookingRequest, error) {
	req, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "booking request not found", "failed to load booking request")
	}
	if actor == nil || req.RequesterID != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the requester can withdraw this request")
	}
	if req.Status.Terminal() {
		return nil, transitionError(string(req.Status), string(models.BookingRequestWithdrawn))
	}
	from := req.Status
	if err := s.repo.Withdraw(ctx, id, s.now()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.staleTransition(ctx, id, models.BookingRequestWithdrawn)
		}
		return nil, appErrors.Internal(err, "failed to withdraw booking request")
	}
	req.Status = models.BookingRequestWithdrawn
	recordAudit(ctx, s.audit, s.logger, actor.UserID, models.AuditActionRequestWithdraw, bookingWorkflow, id,
		map[string]string{"status": string(from)}, map[string]string{"status": string(req.Status)})
	s.metrics.RecordTransition(bookingWorkflow, string(from), string(req.Status))

	if req.TimetableEntryID != nil && s.timetables != nil {
		if err := s.timetables.DeleteEntry(ctx, *req.TimetableEntryID); err != nil {
			s.logger.Warn("failed to remove timetable entry of withdrawn request",
				zap.String("request_id", id),
				zap.String("entry_id", *req.TimetableEntryID),
				zap.Error(err))
		}
	}
	return req, nil
}

// VCDecision records the Vice Chancellor's one-time decision on an approved request.
func (s *BookingRequestService) VCDecision(ctx context.Context, actor *models.JWTClaims, id string, payload VCDecisionRequest) (*models.BookingRequest, error) {
	if err := s.validator.Struct(payload); err != nil {
		return nil, appErrors.Invalid(err, "invalid vc decision payload")
	}
	if !actor.HasRole(models.RoleVC) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the vice chancellor can record this decision")
	}
	req, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "booking request not found", "failed to load booking request")
	}
	if req.Status != models.BookingRequestApproved {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "VC decision requires an approved request, current status is "+string(req.Status))
	}
	if req.VCApproved != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "VC decision already recorded")
	}
	at := s.now()
	if err := s.repo.SetVCDecision(ctx, id, *payload.Approved, actor.UserID, at); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "VC decision already recorded")
		}
		return nil, appErrors.Internal(err, "failed to record vc decision")
	}
	vcID := actor.UserID
	req.VCApproved = payload.Approved
	req.VCApprovedBy = &vcID
	req.VCApprovedAt = &at
	recordAudit(ctx, s.audit, s.logger, actor.UserID, models.AuditActionRequestVCDecision, bookingWorkflow, id, nil,
		map[string]bool{"vc_approved": *payload.Approved})
	return req, nil
}

func (s *BookingRequestService) approve(ctx context.Context, actor *models.JWTClaims, req *models.BookingRequest) (*models.ApprovalResult, error) {
	if err := s.checkConflicts(ctx, req); err != nil {
		return nil, err
	}
	at := s.now()
	if err := s.repo.Approve(ctx, req, actor.UserID, at); err != nil {
		switch {
		case errors.Is(err, repository.ErrReservationOverlap):
			return nil, s.raceConflict()
		case errors.Is(err, sql.ErrNoRows):
			return nil, s.staleTransition(ctx, req.ID, models.BookingRequestApproved)
		}
		return nil, appErrors.Internal(err, "failed to approve booking request")
	}
	approver := actor.UserID
	req.Status = models.BookingRequestApproved
	req.ApprovedBy = &approver
	req.ApprovedAt = &at
	recordAudit(ctx, s.audit, s.logger, actor.UserID, models.AuditActionRequestApprove, bookingWorkflow, req.ID,
		map[string]string{"status": string(models.BookingRequestPending)}, map[string]string{"status": string(req.Status)})
	s.metrics.RecordTransition(bookingWorkflow, string(models.BookingRequestPending), string(req.Status))

	result := &models.ApprovalResult{Request: req}
	s.materialize(ctx, req, result)
	return result, nil
}

func (s *BookingRequestService) reject(ctx context.Context, actor *models.JWTClaims, req *models.BookingRequest, reason string) (*models.ApprovalResult, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "rejection reason is required")
	}
	at := s.now()
	if err := s.repo.Reject(ctx, req.ID, actor.UserID, reason, at); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.staleTransition(ctx, req.ID, models.BookingRequestRejected)
		}
		return nil, appErrors.Internal(err, "failed to reject booking request")
	}
	approver := actor.UserID
	req.Status = models.BookingRequestRejected
	req.ApprovedBy = &approver
	req.ApprovedAt = &at
	req.RejectionReason = &reason
	recordAudit(ctx, s.audit, s.logger, actor.UserID, models.AuditActionRequestReject, bookingWorkflow, req.ID,
		map[string]string{"status": string(models.BookingRequestPending)},
		map[string]string{"status": string(req.Status), "rejection_reason": reason})
	s.metrics.RecordTransition(bookingWorkflow, string(models.BookingRequestPending), string(req.Status))
	return &models.ApprovalResult{Request: req}, nil
}

// placeRequest resolves the target classroom and time slot onto req and checks the slot is free.
func (s *BookingRequestService) placeRequest(ctx context.Context, req *models.BookingRequest, classroomID, slotID string, day int) error {
	room, err := s.classrooms.FindByID(ctx, classroomID)
	if err != nil {
		return storeError(err, "classroom not found", "failed to load classroom")
	}
	if !room.Active {
		return appErrors.Clone(appErrors.ErrValidation, "classroom is not active")
	}
	slot, err := s.slots.FindByID(ctx, slotID)
	if err != nil {
		return storeError(err, "time slot not found", "failed to load time slot")
	}
	req.TargetResourceID = room.ID
	req.TargetDepartment = room.DepartmentID
	req.TimeSlotID = slot.ID
	req.DayOfWeek = day
	req.StartTime = slot.StartTime
	req.EndTime = slot.EndTime
	if err := req.ReservationInterval().Validate(); err != nil {
		return appErrors.Invalid(err, err.Error())
	}
	return s.checkConflicts(ctx, req)
}

// checkConflicts reports approved requests and timetable entries holding the classroom slot.
func (s *BookingRequestService) checkConflicts(ctx context.Context, req *models.BookingRequest) error {
	interval := req.ReservationInterval()
	approved, err := s.repo.ListApprovedFor(ctx, req.TargetResourceID, req.DayOfWeek)
	if err != nil {
		return appErrors.Internal(err, "failed to check booking conflicts")
	}
	entries, err := s.schedule.ListEntriesByClassroom(ctx, req.TargetResourceID, req.DayOfWeek)
	if err != nil {
		return appErrors.Internal(err, "failed to check timetable conflicts")
	}
	conflicts := timeslot.Describe(timeslot.DimensionClassroom, timeslot.KindBookingRequest, timeslot.Detect(approved, interval, req.ID))
	conflicts = append(conflicts, timeslot.Describe(timeslot.DimensionClassroom, timeslot.KindTimetableEntry, timeslot.Detect(entries, interval, ""))...)
	if len(conflicts) > 0 {
		return conflictError(s.metrics, "classroom is already booked for this slot", conflicts)
	}
	return nil
}

// materialize writes the timetable entry for an approved request. Failures never undo the
// approval; they are logged, audited and surfaced as warnings.
func (s *BookingRequestService) materialize(ctx context.Context, req *models.BookingRequest, result *models.ApprovalResult) {
	if s.timetables == nil {
		return
	}
	entry, err := s.createEntry(ctx, req)
	if err != nil {
		s.logger.Error("failed to materialize timetable entry for approved booking",
			zap.String("request_id", req.ID),
			zap.String("classroom_id", req.TargetResourceID),
			zap.Error(err))
		recordAudit(ctx, s.audit, s.logger, "", models.AuditActionEntryMaterialize, bookingWorkflow, req.ID, nil,
			map[string]string{"error": err.Error()})
		result.Warnings = append(result.Warnings, "approval saved but timetable entry could not be created: "+err.Error())
		return
	}
	if err := s.repo.AttachTimetableEntry(ctx, req.ID, entry.ID); err != nil {
		s.logger.Warn("failed to link timetable entry to booking request",
			zap.String("request_id", req.ID),
			zap.String("entry_id", entry.ID),
			zap.Error(err))
	} else {
		req.TimetableEntryID = &entry.ID
	}
	result.Entry = entry
}

func (s *BookingRequestService) createEntry(ctx context.Context, req *models.BookingRequest) (*models.TimetableEntry, error) {
	user, err := s.users.FindByID(ctx, req.RequesterID)
	if err != nil {
		return nil, fmt.Errorf("load requester: %w", err)
	}
	if user.FacultyID == nil || *user.FacultyID == "" {
		return nil, errors.New("requester has no faculty profile")
	}
	departmentID := req.RequesterDepartment
	if req.TargetDepartment != nil && *req.TargetDepartment != "" {
		departmentID = *req.TargetDepartment
	}
	subject, err := s.resolveSubject(ctx, departmentID, req.CourseName)
	if err != nil {
		return nil, err
	}
	tt, err := s.timetables.FindOrCreateSessionTimetable(ctx, departmentID, s.config.SessionTimetableName)
	if err != nil {
		return nil, err
	}
	return s.timetables.AddEntry(ctx, tt.ID, EntryRequest{
		SubjectID:   subject.ID,
		FacultyID:   *user.FacultyID,
		ClassroomID: req.TargetResourceID,
		DayOfWeek:   req.DayOfWeek,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,

		bookingRequestID: req.ID,
	})
}

// resolveSubject finds the department's subject called name or creates a placeholder for it.
func (s *BookingRequestService) resolveSubject(ctx context.Context, departmentID, name string) (*models.Subject, error) {
	subject, err := s.subjects.FindByName(ctx, departmentID, name)
	if err == nil {
		return subject, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find subject: %w", err)
	}
	subject = &models.Subject{
		Code:         "BK-" + strings.ToUpper(uuid.NewString()[:8]),
		Name:         name,
		DepartmentID: departmentID,
		SubjectType:  "theory",
	}
	if err := s.subjects.Create(ctx, subject); err != nil {
		return nil, fmt.Errorf("create subject: %w", err)
	}
	return subject, nil
}

// staleTransition reports a guarded update that matched no row because the status moved.
func (s *BookingRequestService) staleTransition(ctx context.Context, id string, to models.BookingRequestStatus) error {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return storeError(err, "booking request not found", "failed to load booking request")
	}
	return transitionError(string(current.Status), string(to))
}

func (s *BookingRequestService) raceConflict() error {
	s.metrics.RecordConflict(timeslot.DimensionClassroom)
	return appErrors.Clone(appErrors.ErrConflict, "classroom was booked concurrently for this slot")
}

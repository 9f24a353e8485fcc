package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-portal-api/internal/models"
	"github.com/noah-isme/campus-portal-api/internal/repository"
	"github.com/noah-isme/campus-portal-api/internal/timeslot"
	appErrors "github.com/noah-isme/campus-portal-api/pkg/errors"
)

const classroomBookingWorkflow = "classroom_booking"

type classroomBookingRepository interface {
	List(ctx context.Context, filter models.ClassroomBookingFilter) ([]models.ClassroomBooking, int, error)
	FindByID(ctx context.Context, id string) (*models.ClassroomBooking, error)
	ListConfirmedOn(ctx context.Context, classroomID string, date timeslot.Date) ([]models.ClassroomBooking, error)
	Create(ctx context.Context, booking *models.ClassroomBooking) error
	Confirm(ctx context.Context, booking *models.ClassroomBooking) error
	Cancel(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// CreateClassroomBookingRequest books a classroom on a date.
type CreateClassroomBookingRequest struct {
	ClassroomID  string                        `json:"classroom_id" validate:"required"`
	DepartmentID string                        `json:"department_id"`
	BookingDate  timeslot.Date                 `json:"booking_date"`
	DayOfWeek    int                           `json:"day_of_week" validate:"omitempty,min=1,max=7"`
	StartTime    timeslot.Clock                `json:"start_time"`
	EndTime      timeslot.Clock                `json:"end_time"`
	Purpose      string                        `json:"purpose" validate:"required,max=1000"`
	Status       models.ClassroomBookingStatus `json:"status" validate:"omitempty,oneof=pending confirmed"`
}

// ClassroomBookingStatusRequest confirms or cancels a booking.
type ClassroomBookingStatusRequest struct {
	Status models.ClassroomBookingStatus `json:"status" validate:"required,oneof=confirmed cancelled"`
}

// ClassroomBookingService manages dated classroom bookings. Confirmed bookings of one classroom
// never overlap on the same date.
type ClassroomBookingService struct {
	repo       classroomBookingRepository
	classrooms classroomRepository
	schedule   classroomScheduleReader
	requests   approvedBookingReader
	audit      auditWriter
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewClassroomBookingService constructs a ClassroomBookingService.
// schedule and requests may be nil, in which case bookings are only checked against each other.
func NewClassroomBookingService(repo classroomBookingRepository, classrooms classroomRepository, schedule classroomScheduleReader, requests approvedBookingReader, audit auditWriter, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ClassroomBookingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassroomBookingService{repo: repo, classrooms: classrooms, schedule: schedule, requests: requests, audit: audit, metrics: metrics, validator: validate, logger: logger}
}

// List returns bookings with pagination metadata.
func (s *ClassroomBookingService) List(ctx context.Context, filter models.ClassroomBookingFilter) ([]models.ClassroomBooking, *models.Pagination, error) {
	bookings, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list classroom bookings")
	}
	return bookings, filter.Pagination(total), nil
}

// Get returns a booking by id.
func (s *ClassroomBookingService) Get(ctx context.Context, id string) (*models.ClassroomBooking, error) {
	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "classroom booking not found", "failed to load classroom booking")
	}
	return booking, nil
}

// Create books a classroom. Bookings default to confirmed; any overlap with a confirmed booking is
// rejected before insert.
func (s *ClassroomBookingService) Create(ctx context.Context, actor *models.JWTClaims, req CreateClassroomBookingRequest) (*models.ClassroomBooking, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid classroom booking payload")
	}
	if req.BookingDate.IsZero() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "booking_date is required")
	}
	day := req.BookingDate.Weekday()
	if req.DayOfWeek != 0 && req.DayOfWeek != day {
		return nil, appErrors.Clone(appErrors.ErrValidation, "day_of_week does not match booking_date")
	}
	room, err := s.classrooms.FindByID(ctx, req.ClassroomID)
	if err != nil {
		return nil, storeError(err, "classroom not found", "failed to load classroom")
	}
	if !room.Active {
		return nil, appErrors.Clone(appErrors.ErrValidation, "classroom is not active")
	}

	booking := &models.ClassroomBooking{
		ClassroomID:  room.ID,
		DepartmentID: strings.TrimSpace(req.DepartmentID),
		BookingDate:  req.BookingDate,
		DayOfWeek:    day,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		Purpose:      strings.TrimSpace(req.Purpose),
		Status:       req.Status,
	}
	if booking.Status == "" {
		booking.Status = models.ClassroomBookingConfirmed
	}
	if actor != nil {
		booking.BookedBy = actor.UserID
		if booking.DepartmentID == "" {
			booking.DepartmentID = actor.DepartmentID
		}
	}
	if booking.DepartmentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "department_id is required")
	}
	if err := booking.ReservationInterval().Validate(); err != nil {
		return nil, appErrors.Invalid(err, err.Error())
	}
	if err := s.checkConflicts(ctx, booking); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, booking); err != nil {
		if errors.Is(err, repository.ErrReservationOverlap) {
			return nil, s.raceConflict()
		}
		return nil, appErrors.Internal(err, "failed to create classroom booking")
	}
	recordAudit(ctx, s.audit, s.logger, booking.BookedBy, models.AuditActionCreate, classroomBookingWorkflow, booking.ID, nil, booking)
	s.metrics.RecordTransition(classroomBookingWorkflow, "new", string(booking.Status))
	return booking, nil
}

// UpdateStatus confirms a pending booking or cancels a live one.
func (s *ClassroomBookingService) UpdateStatus(ctx context.Context, actor *models.JWTClaims, id string, req ClassroomBookingStatusRequest) (*models.ClassroomBooking, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid status payload")
	}
	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "classroom booking not found", "failed to load classroom booking")
	}
	from := booking.Status
	switch req.Status {
	case models.ClassroomBookingConfirmed:
		if from != models.ClassroomBookingPending {
			return nil, transitionError(string(from), string(req.Status))
		}
		if err := s.checkConflicts(ctx, booking); err != nil {
			return nil, err
		}
		err = s.repo.Confirm(ctx, booking)
	case models.ClassroomBookingCancelled:
		if from == models.ClassroomBookingCancelled {
			return nil, transitionError(string(from), string(req.Status))
		}
		err = s.repo.Cancel(ctx, id)
	}
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrReservationOverlap):
			return nil, s.raceConflict()
		case errors.Is(err, sql.ErrNoRows):
			return nil, transitionError(string(from), string(req.Status))
		}
		return nil, appErrors.Internal(err, "failed to update classroom booking")
	}
	booking.Status = req.Status
	var actorID string
	if actor != nil {
		actorID = actor.UserID
	}
	recordAudit(ctx, s.audit, s.logger, actorID, models.AuditActionUpdate, classroomBookingWorkflow, id,
		map[string]string{"status": string(from)}, map[string]string{"status": string(booking.Status)})
	s.metrics.RecordTransition(classroomBookingWorkflow, string(from), string(booking.Status))
	return booking, nil
}

// Delete removes a booking.
func (s *ClassroomBookingService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return storeError(err, "classroom booking not found", "failed to delete classroom booking")
	}
	return nil
}

func (s *ClassroomBookingService) checkConflicts(ctx context.Context, booking *models.ClassroomBooking) error {
	confirmed, err := s.repo.ListConfirmedOn(ctx, booking.ClassroomID, booking.BookingDate)
	if err != nil {
		return appErrors.Internal(err, "failed to check booking conflicts")
	}
	interval := booking.ReservationInterval()
	conflicts := timeslot.Describe(timeslot.DimensionClassroom, timeslot.KindClassroomBooking, timeslot.Detect(confirmed, interval, booking.ID))

	weekly, err := s.weeklyConflicts(ctx, booking.ClassroomID, interval)
	if err != nil {
		return err
	}
	conflicts = append(conflicts, weekly...)
	if len(conflicts) > 0 {
		return conflictError(s.metrics, "classroom is already booked at this time", conflicts)
	}
	return nil
}

// weeklyConflicts reports recurring timetable entries and approved booking requests that occupy the
// classroom on the booking's weekday.
func (s *ClassroomBookingService) weeklyConflicts(ctx context.Context, classroomID string, interval timeslot.Interval) ([]timeslot.Conflict, error) {
	var conflicts []timeslot.Conflict
	represented := map[string]bool{}
	if s.schedule != nil {
		entries, err := s.schedule.ListEntriesByClassroom(ctx, classroomID, interval.DayOfWeek)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to check timetable conflicts")
		}
		for _, e := range entries {
			represented[e.ID] = true
		}
		conflicts = timeslot.Describe(timeslot.DimensionClassroom, timeslot.KindTimetableEntry, timeslot.Detect(entries, interval, ""))
	}
	if s.requests == nil {
		return conflicts, nil
	}
	approved, err := s.requests.ListApprovedFor(ctx, classroomID, interval.DayOfWeek)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to check booking request conflicts")
	}
	holders := make([]models.BookingRequest, 0, len(approved))
	for _, r := range approved {
		if r.TimetableEntryID != nil && represented[*r.TimetableEntryID] {
			continue
		}
		holders = append(holders, r)
	}
	return append(conflicts, timeslot.Describe(timeslot.DimensionClassroom, timeslot.KindBookingRequest, timeslot.Detect(holders, interval, ""))...), nil
}

func (s *ClassroomBookingService) raceConflict() error {
	s.metrics.RecordConflict(timeslot.DimensionClassroom)
	return appErrors.Clone(appErrors.ErrConflict, "classroom was booked concurrently")
}

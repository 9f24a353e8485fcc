package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-portal-api/internal/models"
	"github.com/noah-isme/campus-portal-api/internal/timeslot"
	appErrors "github.com/noah-isme/campus-portal-api/pkg/errors"
)

type timetableRepository interface {
	List(ctx context.Context, filter models.TimetableFilter) ([]models.Timetable, int, error)
	FindByID(ctx context.Context, id string) (*models.Timetable, error)
	FindActiveByName(ctx context.Context, departmentID, name string) (*models.Timetable, error)
	Create(ctx context.Context, tt *models.Timetable) error
	Update(ctx context.Context, tt *models.Timetable) error
	Delete(ctx context.Context, id string) (int64, error)
	ListEntryDetails(ctx context.Context, timetableID string) ([]models.TimetableEntryDetail, error)
	FindEntryByID(ctx context.Context, id string) (*models.TimetableEntry, error)
	ListEntriesByFaculty(ctx context.Context, facultyID string, day int) ([]models.TimetableEntry, error)
	ListEntriesByClassroom(ctx context.Context, classroomID string, day int) ([]models.TimetableEntry, error)
	CreateEntry(ctx context.Context, entry *models.TimetableEntry) error
	UpdateEntry(ctx context.Context, entry *models.TimetableEntry) error
	DeleteEntry(ctx context.Context, id string) error
}

// approvedBookingReader lists approved booking requests holding a classroom on a weekday.
type approvedBookingReader interface {
	ListApprovedFor(ctx context.Context, classroomID string, day int) ([]models.BookingRequest, error)
}

// UpsertTimetableRequest is the payload for creating or replacing a timetable header.
type UpsertTimetableRequest struct {
	DepartmentID string `json:"department_id" validate:"required"`
	Name         string `json:"name" validate:"required,max=255"`
	Semester     int    `json:"semester" validate:"gte=0,lte=12"`
	AcademicYear string `json:"academic_year" validate:"max=16"`
	Section      string `json:"section" validate:"max=16"`
	Active       *bool  `json:"active"`
}

// EntryRequest places a subject, faculty member and classroom into a weekly slot. When
// TimeSlotID is set the slot's times replace StartTime and EndTime.
type EntryRequest struct {
	SubjectID   string         `json:"subject_id" validate:"required"`
	FacultyID   string         `json:"faculty_id" validate:"required"`
	ClassroomID string         `json:"classroom_id" validate:"required"`
	DayOfWeek   int            `json:"day_of_week" validate:"required,min=1,max=7"`
	TimeSlotID  string         `json:"time_slot_id"`
	StartTime   timeslot.Clock `json:"start_time"`
	EndTime     timeslot.Clock `json:"end_time"`

	// bookingRequestID is set when the entry materialises that approved request.
	bookingRequestID string
}

// EntryPatch updates selected fields of an entry.
type EntryPatch struct {
	SubjectID   *string         `json:"subject_id"`
	FacultyID   *string         `json:"faculty_id"`
	ClassroomID *string         `json:"classroom_id"`
	DayOfWeek   *int            `json:"day_of_week" validate:"omitempty,min=1,max=7"`
	TimeSlotID  *string         `json:"time_slot_id"`
	StartTime   *timeslot.Clock `json:"start_time"`
	EndTime     *timeslot.Clock `json:"end_time"`
}

// TimetableService owns timetables and their entries. Every entry write is checked for
// overlaps on both the faculty and the classroom dimension before it is stored.
type TimetableService struct {
	repo       timetableRepository
	depts      departmentRepository
	subjects   subjectRepository
	faculty    facultyRepository
	classrooms classroomRepository
	slots      timeSlotRepository
	bookings   approvedBookingReader
	cache      *CacheService
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
}

// TimetableDeps groups the collaborators of TimetableService.
type TimetableDeps struct {
	Timetables  timetableRepository
	Departments departmentRepository
	Subjects    subjectRepository
	Faculty     facultyRepository
	Classrooms  classroomRepository
	TimeSlots   timeSlotRepository
	Bookings    approvedBookingReader
	Cache       *CacheService
	Metrics     *MetricsService
}

// NewTimetableService constructs a TimetableService.
func NewTimetableService(deps TimetableDeps, validate *validator.Validate, logger *zap.Logger) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableService{
		repo:       deps.Timetables,
		depts:      deps.Departments,
		subjects:   deps.Subjects,
		faculty:    deps.Faculty,
		classrooms: deps.Classrooms,
		slots:      deps.TimeSlots,
		bookings:   deps.Bookings,
		cache:      deps.Cache,
		metrics:    deps.Metrics,
		validator:  validate,
		logger:     logger,
	}
}

// List returns timetables with pagination metadata.
func (s *TimetableService) List(ctx context.Context, filter models.TimetableFilter) ([]models.Timetable, *models.Pagination, error) {
	timetables, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list timetables")
	}
	return timetables, filter.Pagination(total), nil
}

// Get returns a timetable with its entries, served from cache when possible.
func (s *TimetableService) Get(ctx context.Context, id string) (*models.TimetableDetail, error) {
	var cached models.TimetableDetail
	if s.cache.Get(ctx, detailCacheKey(id), &cached) {
		return &cached, nil
	}
	tt, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "timetable not found", "failed to load timetable")
	}
	entries, err := s.repo.ListEntryDetails(ctx, id)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load timetable entries")
	}
	if entries == nil {
		entries = []models.TimetableEntryDetail{}
	}
	detail := &models.TimetableDetail{Timetable: *tt, Entries: entries}
	s.cache.Set(ctx, detailCacheKey(id), detail, 0)
	return detail, nil
}

// Create stores a new timetable header.
func (s *TimetableService) Create(ctx context.Context, req UpsertTimetableRequest) (*models.Timetable, error) {
	tt := &models.Timetable{Active: true}
	if err := s.applyHeader(ctx, tt, req); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, tt); err != nil {
		return nil, storeError(err, "timetable not found", "failed to create timetable")
	}
	return tt, nil
}

// Update replaces a timetable header.
func (s *TimetableService) Update(ctx context.Context, id string, req UpsertTimetableRequest) (*models.Timetable, error) {
	tt, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "timetable not found", "failed to load timetable")
	}
	if err := s.applyHeader(ctx, tt, req); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, tt); err != nil {
		return nil, storeError(err, "timetable not found", "failed to update timetable")
	}
	s.invalidate(ctx, id)
	return tt, nil
}

// Delete removes a timetable after deleting all of its entries.
func (s *TimetableService) Delete(ctx context.Context, id string) error {
	removed, err := s.repo.Delete(ctx, id)
	if err != nil {
		return storeError(err, "timetable not found", "failed to delete timetable")
	}
	s.logger.Info("timetable deleted", zap.String("timetable_id", id), zap.Int64("entries_removed", removed))
	s.invalidate(ctx, id)
	return nil
}

// ListEntries returns a timetable's entries ordered by day and start time.
func (s *TimetableService) ListEntries(ctx context.Context, timetableID string) ([]models.TimetableEntryDetail, error) {
	detail, err := s.Get(ctx, timetableID)
	if err != nil {
		return nil, err
	}
	return detail.Entries, nil
}

// AddEntry validates references, checks both conflict dimensions and stores the entry.
func (s *TimetableService) AddEntry(ctx context.Context, timetableID string, req EntryRequest) (*models.TimetableEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid timetable entry payload")
	}
	if _, err := s.repo.FindByID(ctx, timetableID); err != nil {
		return nil, storeError(err, "timetable not found", "failed to load timetable")
	}
	entry := &models.TimetableEntry{
		TimetableID: timetableID,
		SubjectID:   req.SubjectID,
		FacultyID:   req.FacultyID,
		ClassroomID: req.ClassroomID,
		DayOfWeek:   req.DayOfWeek,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
	}
	if err := s.resolveSlot(ctx, req.TimeSlotID, entry); err != nil {
		return nil, err
	}
	if err := s.checkEntry(ctx, entry, req.bookingRequestID); err != nil {
		return nil, err
	}
	if err := s.repo.CreateEntry(ctx, entry); err != nil {
		return nil, appErrors.Internal(err, "failed to create timetable entry")
	}
	s.invalidate(ctx, timetableID)
	return entry, nil
}

// UpdateEntry applies patch to an entry and re-runs the conflict checks excluding the entry itself.
func (s *TimetableService) UpdateEntry(ctx context.Context, entryID string, patch EntryPatch) (*models.TimetableEntry, error) {
	if err := s.validator.Struct(patch); err != nil {
		return nil, appErrors.Invalid(err, "invalid timetable entry payload")
	}
	entry, err := s.repo.FindEntryByID(ctx, entryID)
	if err != nil {
		return nil, storeError(err, "timetable entry not found", "failed to load timetable entry")
	}
	if patch.SubjectID != nil {
		entry.SubjectID = *patch.SubjectID
	}
	if patch.FacultyID != nil {
		entry.FacultyID = *patch.FacultyID
	}
	if patch.ClassroomID != nil {
		entry.ClassroomID = *patch.ClassroomID
	}
	if patch.DayOfWeek != nil {
		entry.DayOfWeek = *patch.DayOfWeek
	}
	if patch.StartTime != nil {
		entry.StartTime = *patch.StartTime
	}
	if patch.EndTime != nil {
		entry.EndTime = *patch.EndTime
	}
	if patch.TimeSlotID != nil {
		if err := s.resolveSlot(ctx, *patch.TimeSlotID, entry); err != nil {
			return nil, err
		}
	}
	if err := s.checkEntry(ctx, entry, ""); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateEntry(ctx, entry); err != nil {
		return nil, storeError(err, "timetable entry not found", "failed to update timetable entry")
	}
	s.invalidate(ctx, entry.TimetableID)
	return entry, nil
}

// DeleteEntry removes an entry.
func (s *TimetableService) DeleteEntry(ctx context.Context, entryID string) error {
	entry, err := s.repo.FindEntryByID(ctx, entryID)
	if err != nil {
		return storeError(err, "timetable entry not found", "failed to load timetable entry")
	}
	if err := s.repo.DeleteEntry(ctx, entryID); err != nil {
		return storeError(err, "timetable entry not found", "failed to delete timetable entry")
	}
	s.invalidate(ctx, entry.TimetableID)
	return nil
}

// FindOrCreateSessionTimetable returns the department's active timetable called name, creating
// it when missing.
func (s *TimetableService) FindOrCreateSessionTimetable(ctx context.Context, departmentID, name string) (*models.Timetable, error) {
	tt, err := s.repo.FindActiveByName(ctx, departmentID, name)
	if err == nil {
		return tt, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Internal(err, "failed to load session timetable")
	}
	tt = &models.Timetable{DepartmentID: departmentID, Name: name, Active: true}
	if err := s.repo.Create(ctx, tt); err != nil {
		return nil, appErrors.Internal(err, "failed to create session timetable")
	}
	return tt, nil
}

// Conflicts returns every existing entry or approved booking request colliding with candidate on
// faculty or classroom, ignoring excludeID.
func (s *TimetableService) Conflicts(ctx context.Context, candidate models.TimetableEntry, excludeID string) ([]timeslot.Conflict, error) {
	return s.conflicts(ctx, candidate, excludeID, "")
}

func (s *TimetableService) conflicts(ctx context.Context, candidate models.TimetableEntry, excludeID, ownerRequestID string) ([]timeslot.Conflict, error) {
	interval := candidate.ReservationInterval()
	byFaculty, err := s.repo.ListEntriesByFaculty(ctx, candidate.FacultyID, candidate.DayOfWeek)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to check faculty conflicts")
	}
	byRoom, err := s.repo.ListEntriesByClassroom(ctx, candidate.ClassroomID, candidate.DayOfWeek)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to check classroom conflicts")
	}
	conflicts := timeslot.Describe(timeslot.DimensionFaculty, timeslot.KindTimetableEntry, timeslot.Detect(byFaculty, interval, excludeID))
	conflicts = append(conflicts, timeslot.Describe(timeslot.DimensionClassroom, timeslot.KindTimetableEntry, timeslot.Detect(byRoom, interval, excludeID))...)

	if s.bookings == nil {
		return conflicts, nil
	}
	approved, err := s.bookings.ListApprovedFor(ctx, candidate.ClassroomID, candidate.DayOfWeek)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to check booking conflicts")
	}
	// A request whose entry is still in the room is already reported through that entry.
	represented := make(map[string]bool, len(byRoom)+1)
	for _, e := range byRoom {
		represented[e.ID] = true
	}
	if excludeID != "" {
		represented[excludeID] = true
	}
	holders := make([]models.BookingRequest, 0, len(approved))
	for _, r := range approved {
		if r.ID == ownerRequestID || (r.TimetableEntryID != nil && represented[*r.TimetableEntryID]) {
			continue
		}
		holders = append(holders, r)
	}
	conflicts = append(conflicts, timeslot.Describe(timeslot.DimensionClassroom, timeslot.KindBookingRequest, timeslot.Detect(holders, interval, ""))...)
	return conflicts, nil
}

func (s *TimetableService) checkEntry(ctx context.Context, entry *models.TimetableEntry, ownerRequestID string) error {
	if err := entry.ReservationInterval().Validate(); err != nil {
		return appErrors.Invalid(err, err.Error())
	}
	if _, err := s.subjects.FindByID(ctx, entry.SubjectID); err != nil {
		return storeError(err, "subject not found", "failed to load subject")
	}
	if _, err := s.faculty.FindByID(ctx, entry.FacultyID); err != nil {
		return storeError(err, "faculty not found", "failed to load faculty")
	}
	if _, err := s.classrooms.FindByID(ctx, entry.ClassroomID); err != nil {
		return storeError(err, "classroom not found", "failed to load classroom")
	}
	conflicts, err := s.conflicts(ctx, *entry, entry.ID, ownerRequestID)
	if err != nil {
		return err
	}
	if len(conflicts) > 0 {
		return conflictError(s.metrics, "timetable entry conflicts with existing entries", conflicts)
	}
	return nil
}

func (s *TimetableService) resolveSlot(ctx context.Context, slotID string, entry *models.TimetableEntry) error {
	if strings.TrimSpace(slotID) == "" {
		return nil
	}
	slot, err := s.slots.FindByID(ctx, slotID)
	if err != nil {
		return storeError(err, "time slot not found", "failed to load time slot")
	}
	entry.StartTime = slot.StartTime
	entry.EndTime = slot.EndTime
	return nil
}

func (s *TimetableService) applyHeader(ctx context.Context, tt *models.Timetable, req UpsertTimetableRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Invalid(err, "invalid timetable payload")
	}
	if _, err := s.depts.FindByID(ctx, req.DepartmentID); err != nil {
		return storeError(err, "department not found", "failed to load department")
	}
	tt.DepartmentID = req.DepartmentID
	tt.Name = strings.TrimSpace(req.Name)
	tt.Semester = req.Semester
	tt.AcademicYear = strings.TrimSpace(req.AcademicYear)
	tt.Section = strings.TrimSpace(req.Section)
	if req.Active != nil {
		tt.Active = *req.Active
	}
	return nil
}

func (s *TimetableService) invalidate(ctx context.Context, timetableID string) {
	s.cache.Invalidate(ctx, "timetable:"+timetableID+":*")
}

func detailCacheKey(timetableID string) string {
	return "timetable:" + timetableID + ":detail"
}

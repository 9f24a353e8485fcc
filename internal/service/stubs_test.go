package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/campus-portal-api/internal/models"
	"github.com/noah-isme/campus-portal-api/internal/timeslot"
)

var errStoreDown = errors.New("store down")

type auditStub struct {
	logs []*models.AuditLog
}

func (a *auditStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

func (a *auditStub) actions() []string {
	out := make([]string, 0, len(a.logs))
	for _, l := range a.logs {
		out = append(out, l.Action)
	}
	return out
}

type departmentStub struct {
	items     map[string]*models.Department
	deleteErr error
}

func (s *departmentStub) List(ctx context.Context, filter models.DepartmentFilter) ([]models.Department, int, error) {
	out := []models.Department{}
	for _, d := range s.items {
		out = append(out, *d)
	}
	return out, len(out), nil
}

func (s *departmentStub) FindByID(ctx context.Context, id string) (*models.Department, error) {
	if d, ok := s.items[id]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (s *departmentStub) Create(ctx context.Context, dept *models.Department) error {
	if dept.ID == "" {
		dept.ID = uuid.NewString()
	}
	if s.items == nil {
		s.items = map[string]*models.Department{}
	}
	cp := *dept
	s.items[dept.ID] = &cp
	return nil
}

func (s *departmentStub) Update(ctx context.Context, dept *models.Department) error {
	if _, ok := s.items[dept.ID]; !ok {
		return sql.ErrNoRows
	}
	cp := *dept
	s.items[dept.ID] = &cp
	return nil
}

func (s *departmentStub) Delete(ctx context.Context, id string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	if _, ok := s.items[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.items, id)
	return nil
}

func (s *departmentStub) ExistsByCode(ctx context.Context, code, excludeID string) (bool, error) {
	for id, d := range s.items {
		if id != excludeID && strings.EqualFold(d.Code, code) {
			return true, nil
		}
	}
	return false, nil
}

type facultyStub struct {
	items map[string]*models.Faculty
}

func (s *facultyStub) List(ctx context.Context, filter models.FacultyFilter) ([]models.Faculty, int, error) {
	return nil, 0, nil
}

func (s *facultyStub) FindByID(ctx context.Context, id string) (*models.Faculty, error) {
	if f, ok := s.items[id]; ok {
		cp := *f
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (s *facultyStub) Create(ctx context.Context, f *models.Faculty) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if s.items == nil {
		s.items = map[string]*models.Faculty{}
	}
	cp := *f
	s.items[f.ID] = &cp
	return nil
}

func (s *facultyStub) Update(ctx context.Context, f *models.Faculty) error { return nil }
func (s *facultyStub) Delete(ctx context.Context, id string) error         { return nil }

func (s *facultyStub) ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error) {
	for id, f := range s.items {
		if id != excludeID && strings.EqualFold(f.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

type classroomStub struct {
	items     map[string]*models.Classroom
	createErr error
	deleteErr error
}

func (s *classroomStub) List(ctx context.Context, filter models.ClassroomFilter) ([]models.Classroom, int, error) {
	return nil, 0, nil
}

func (s *classroomStub) FindByID(ctx context.Context, id string) (*models.Classroom, error) {
	if c, ok := s.items[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (s *classroomStub) Create(ctx context.Context, room *models.Classroom) error {
	if s.createErr != nil {
		return s.createErr
	}
	if room.ID == "" {
		room.ID = uuid.NewString()
	}
	if s.items == nil {
		s.items = map[string]*models.Classroom{}
	}
	cp := *room
	s.items[room.ID] = &cp
	return nil
}

func (s *classroomStub) Update(ctx context.Context, room *models.Classroom) error {
	if _, ok := s.items[room.ID]; !ok {
		return sql.ErrNoRows
	}
	cp := *room
	s.items[room.ID] = &cp
	return nil
}

func (s *classroomStub) Delete(ctx context.Context, id string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	if _, ok := s.items[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.items, id)
	return nil
}

func (s *classroomStub) ExistsByRoomNumber(ctx context.Context, roomNumber, excludeID string) (bool, error) {
	for id, room := range s.items {
		if id != excludeID && strings.EqualFold(room.RoomNumber, roomNumber) {
			return true, nil
		}
	}
	return false, nil
}

type resourceStub struct {
	items map[string]*models.Resource
}

func (s *resourceStub) List(ctx context.Context, filter models.ResourceFilter) ([]models.Resource, int, error) {
	return nil, 0, nil
}

func (s *resourceStub) FindByID(ctx context.Context, id string) (*models.Resource, error) {
	if r, ok := s.items[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (s *resourceStub) Create(ctx context.Context, res *models.Resource) error { return nil }
func (s *resourceStub) Update(ctx context.Context, res *models.Resource) error { return nil }
func (s *resourceStub) Delete(ctx context.Context, id string) error           { return nil }

type subjectStub struct {
	items   map[string]*models.Subject
	created int
}

func (s *subjectStub) List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, int, error) {
	return nil, 0, nil
}

func (s *subjectStub) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	if sub, ok := s.items[id]; ok {
		cp := *sub
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (s *subjectStub) FindByName(ctx context.Context, departmentID, name string) (*models.Subject, error) {
	for _, sub := range s.items {
		if sub.DepartmentID == departmentID && sub.Name == name {
			cp := *sub
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *subjectStub) Create(ctx context.Context, subject *models.Subject) error {
	if subject.ID == "" {
		subject.ID = uuid.NewString()
	}
	if s.items == nil {
		s.items = map[string]*models.Subject{}
	}
	cp := *subject
	s.items[subject.ID] = &cp
	s.created++
	return nil
}

func (s *subjectStub) Update(ctx context.Context, subject *models.Subject) error {
	if _, ok := s.items[subject.ID]; !ok {
		return sql.ErrNoRows
	}
	cp := *subject
	s.items[subject.ID] = &cp
	return nil
}

func (s *subjectStub) Delete(ctx context.Context, id string) error { return nil }

func (s *subjectStub) ExistsByCode(ctx context.Context, code, excludeID string) (bool, error) {
	for id, sub := range s.items {
		if id != excludeID && strings.EqualFold(sub.Code, code) {
			return true, nil
		}
	}
	return false, nil
}

type slotStub struct {
	items map[string]*models.TimeSlot
}

func (s *slotStub) List(ctx context.Context) ([]models.TimeSlot, error) {
	out := []models.TimeSlot{}
	for _, slot := range s.items {
		out = append(out, *slot)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime < out[j].StartTime })
	return out, nil
}

func (s *slotStub) FindByID(ctx context.Context, id string) (*models.TimeSlot, error) {
	if slot, ok := s.items[id]; ok {
		cp := *slot
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (s *slotStub) Create(ctx context.Context, slot *models.TimeSlot) error {
	if slot.ID == "" {
		slot.ID = uuid.NewString()
	}
	if s.items == nil {
		s.items = map[string]*models.TimeSlot{}
	}
	cp := *slot
	s.items[slot.ID] = &cp
	return nil
}

func (s *slotStub) Update(ctx context.Context, slot *models.TimeSlot) error {
	if _, ok := s.items[slot.ID]; !ok {
		return sql.ErrNoRows
	}
	cp := *slot
	s.items[slot.ID] = &cp
	return nil
}

func (s *slotStub) Delete(ctx context.Context, id string) error {
	if _, ok := s.items[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.items, id)
	return nil
}

type timetableStub struct {
	timetables map[string]*models.Timetable
	entries    map[string]*models.TimetableEntry
	createErr  error
}

func newTimetableStub() *timetableStub {
	return &timetableStub{timetables: map[string]*models.Timetable{}, entries: map[string]*models.TimetableEntry{}}
}

func (s *timetableStub) List(ctx context.Context, filter models.TimetableFilter) ([]models.Timetable, int, error) {
	out := []models.Timetable{}
	for _, tt := range s.timetables {
		if filter.DepartmentID == "" || tt.DepartmentID == filter.DepartmentID {
			out = append(out, *tt)
		}
	}
	return out, len(out), nil
}

func (s *timetableStub) FindByID(ctx context.Context, id string) (*models.Timetable, error) {
	if tt, ok := s.timetables[id]; ok {
		cp := *tt
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (s *timetableStub) FindActiveByName(ctx context.Context, departmentID, name string) (*models.Timetable, error) {
	for _, tt := range s.timetables {
		if tt.DepartmentID == departmentID && tt.Name == name && tt.Active {
			cp := *tt
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *timetableStub) Create(ctx context.Context, tt *models.Timetable) error {
	if tt.ID == "" {
		tt.ID = uuid.NewString()
	}
	cp := *tt
	s.timetables[tt.ID] = &cp
	return nil
}

func (s *timetableStub) Update(ctx context.Context, tt *models.Timetable) error {
	if _, ok := s.timetables[tt.ID]; !ok {
		return sql.ErrNoRows
	}
	cp := *tt
	s.timetables[tt.ID] = &cp
	return nil
}

func (s *timetableStub) Delete(ctx context.Context, id string) (int64, error) {
	if _, ok := s.timetables[id]; !ok {
		return 0, sql.ErrNoRows
	}
	var removed int64
	for entryID, e := range s.entries {
		if e.TimetableID == id {
			delete(s.entries, entryID)
			removed++
		}
	}
	delete(s.timetables, id)
	return removed, nil
}

func (s *timetableStub) ListEntryDetails(ctx context.Context, timetableID string) ([]models.TimetableEntryDetail, error) {
	var out []models.TimetableEntryDetail
	for _, e := range s.entries {
		if e.TimetableID == timetableID {
			out = append(out, models.TimetableEntryDetail{TimetableEntry: *e})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DayOfWeek != out[j].DayOfWeek {
			return out[i].DayOfWeek < out[j].DayOfWeek
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out, nil
}

func (s *timetableStub) FindEntryByID(ctx context.Context, id string) (*models.TimetableEntry, error) {
	if e, ok := s.entries[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (s *timetableStub) ListEntriesByFaculty(ctx context.Context, facultyID string, day int) ([]models.TimetableEntry, error) {
	var out []models.TimetableEntry
	for _, e := range s.entries {
		if e.FacultyID == facultyID && e.DayOfWeek == day {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (s *timetableStub) ListEntriesByClassroom(ctx context.Context, classroomID string, day int) ([]models.TimetableEntry, error) {
	var out []models.TimetableEntry
	for _, e := range s.entries {
		if e.ClassroomID == classroomID && e.DayOfWeek == day {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (s *timetableStub) CreateEntry(ctx context.Context, entry *models.TimetableEntry) error {
	if s.createErr != nil {
		return s.createErr
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	cp := *entry
	s.entries[entry.ID] = &cp
	return nil
}

func (s *timetableStub) UpdateEntry(ctx context.Context, entry *models.TimetableEntry) error {
	if _, ok := s.entries[entry.ID]; !ok {
		return sql.ErrNoRows
	}
	cp := *entry
	s.entries[entry.ID] = &cp
	return nil
}

func (s *timetableStub) DeleteEntry(ctx context.Context, id string) error {
	if _, ok := s.entries[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.entries, id)
	return nil
}

type bookingRequestStub struct {
	items       map[string]*models.BookingRequest
	createCalls int
	approveErr  error
}

func newBookingRequestStub() *bookingRequestStub {
	return &bookingRequestStub{items: map[string]*models.BookingRequest{}}
}

func (s *bookingRequestStub) List(ctx context.Context, filter models.BookingRequestFilter) ([]models.BookingRequest, int, error) {
	out := []models.BookingRequest{}
	for _, r := range s.items {
		if filter.RequesterID != "" && r.RequesterID != filter.RequesterID {
			continue
		}
		out = append(out, *r)
	}
	return out, len(out), nil
}

func (s *bookingRequestStub) FindByID(ctx context.Context, id string) (*models.BookingRequest, error) {
	if r, ok := s.items[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (s *bookingRequestStub) ListApprovedFor(ctx context.Context, classroomID string, day int) ([]models.BookingRequest, error) {
	var out []models.BookingRequest
	for _, r := range s.items {
		if r.TargetResourceID == classroomID && r.DayOfWeek == day && r.Status == models.BookingRequestApproved {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *bookingRequestStub) Create(ctx context.Context, req *models.BookingRequest) error {
	s.createCalls++
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	cp := *req
	s.items[req.ID] = &cp
	return nil
}

func (s *bookingRequestStub) Update(ctx context.Context, req *models.BookingRequest) error {
	current, ok := s.items[req.ID]
	if !ok || current.Status != models.BookingRequestPending {
		return sql.ErrNoRows
	}
	cp := *req
	s.items[req.ID] = &cp
	return nil
}

func (s *bookingRequestStub) Approve(ctx context.Context, req *models.BookingRequest, approverID string, at time.Time) error {
	if s.approveErr != nil {
		return s.approveErr
	}
	current, ok := s.items[req.ID]
	if !ok || current.Status != models.BookingRequestPending {
		return sql.ErrNoRows
	}
	current.Status = models.BookingRequestApproved
	current.ApprovedBy = &approverID
	current.ApprovedAt = &at
	return nil
}

func (s *bookingRequestStub) Reject(ctx context.Context, id, approverID, reason string, at time.Time) error {
	current, ok := s.items[id]
	if !ok || current.Status != models.BookingRequestPending {
		return sql.ErrNoRows
	}
	current.Status = models.BookingRequestRejected
	current.ApprovedBy = &approverID
	current.RejectionReason = &reason
	return nil
}

func (s *bookingRequestStub) Withdraw(ctx context.Context, id string, at time.Time) error {
	current, ok := s.items[id]
	if !ok || current.Status.Terminal() {
		return sql.ErrNoRows
	}
	current.Status = models.BookingRequestWithdrawn
	return nil
}

func (s *bookingRequestStub) SetVCDecision(ctx context.Context, id string, approved bool, vcID string, at time.Time) error {
	current, ok := s.items[id]
	if !ok || current.VCApproved != nil {
		return sql.ErrNoRows
	}
	current.VCApproved = &approved
	current.VCApprovedBy = &vcID
	return nil
}

func (s *bookingRequestStub) AttachTimetableEntry(ctx context.Context, id, entryID string) error {
	current, ok := s.items[id]
	if !ok {
		return sql.ErrNoRows
	}
	current.TimetableEntryID = &entryID
	return nil
}

type userStub struct {
	items map[string]*models.User
}

func (s *userStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := s.items[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

type resourceRequestStub struct {
	items      map[string]*models.ResourceRequest
	approveErr error
}

func newResourceRequestStub() *resourceRequestStub {
	return &resourceRequestStub{items: map[string]*models.ResourceRequest{}}
}

func (s *resourceRequestStub) List(ctx context.Context, filter models.ResourceRequestFilter) ([]models.ResourceRequest, int, error) {
	out := []models.ResourceRequest{}
	for _, r := range s.items {
		if filter.DepartmentID != "" && r.RequesterDepartmentID != filter.DepartmentID &&
			(r.TargetDepartmentID == nil || *r.TargetDepartmentID != filter.DepartmentID) {
			continue
		}
		out = append(out, *r)
	}
	return out, len(out), nil
}

func (s *resourceRequestStub) FindByID(ctx context.Context, id string) (*models.ResourceRequest, error) {
	if r, ok := s.items[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (s *resourceRequestStub) ListApprovedOn(ctx context.Context, resourceID string, date timeslot.Date) ([]models.ResourceRequest, error) {
	var out []models.ResourceRequest
	for _, r := range s.items {
		if r.ResourceID == resourceID && r.RequestDate.Equal(date) && r.Status == models.ResourceRequestApproved {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *resourceRequestStub) Create(ctx context.Context, req *models.ResourceRequest) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	cp := *req
	s.items[req.ID] = &cp
	return nil
}

func (s *resourceRequestStub) Update(ctx context.Context, req *models.ResourceRequest) error {
	current, ok := s.items[req.ID]
	if !ok || current.Status != models.ResourceRequestPending {
		return sql.ErrNoRows
	}
	cp := *req
	s.items[req.ID] = &cp
	return nil
}

func (s *resourceRequestStub) Approve(ctx context.Context, req *models.ResourceRequest, approverID string, at time.Time) error {
	if s.approveErr != nil {
		return s.approveErr
	}
	current, ok := s.items[req.ID]
	if !ok || current.Status != models.ResourceRequestPending {
		return sql.ErrNoRows
	}
	current.Status = models.ResourceRequestApproved
	current.ApprovedBy = &approverID
	return nil
}

func (s *resourceRequestStub) Reject(ctx context.Context, id, approverID, reason string, at time.Time) error {
	current, ok := s.items[id]
	if !ok || current.Status != models.ResourceRequestPending {
		return sql.ErrNoRows
	}
	current.Status = models.ResourceRequestRejected
	current.RejectionReason = &reason
	return nil
}

func (s *resourceRequestStub) Cancel(ctx context.Context, id string, at time.Time) error {
	current, ok := s.items[id]
	if !ok || current.Status.Terminal() {
		return sql.ErrNoRows
	}
	current.Status = models.ResourceRequestCancelled
	return nil
}

type classroomBookingStub struct {
	items       map[string]*models.ClassroomBooking
	createCalls int
}

func newClassroomBookingStub() *classroomBookingStub {
	return &classroomBookingStub{items: map[string]*models.ClassroomBooking{}}
}

func (s *classroomBookingStub) List(ctx context.Context, filter models.ClassroomBookingFilter) ([]models.ClassroomBooking, int, error) {
	out := []models.ClassroomBooking{}
	for _, b := range s.items {
		out = append(out, *b)
	}
	return out, len(out), nil
}

func (s *classroomBookingStub) FindByID(ctx context.Context, id string) (*models.ClassroomBooking, error) {
	if b, ok := s.items[id]; ok {
		cp := *b
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (s *classroomBookingStub) ListConfirmedOn(ctx context.Context, classroomID string, date timeslot.Date) ([]models.ClassroomBooking, error) {
	var out []models.ClassroomBooking
	for _, b := range s.items {
		if b.ClassroomID == classroomID && b.BookingDate.Equal(date) && b.Status == models.ClassroomBookingConfirmed {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (s *classroomBookingStub) Create(ctx context.Context, booking *models.ClassroomBooking) error {
	s.createCalls++
	if booking.ID == "" {
		booking.ID = uuid.NewString()
	}
	cp := *booking
	s.items[booking.ID] = &cp
	return nil
}

func (s *classroomBookingStub) Confirm(ctx context.Context, booking *models.ClassroomBooking) error {
	current, ok := s.items[booking.ID]
	if !ok || current.Status != models.ClassroomBookingPending {
		return sql.ErrNoRows
	}
	current.Status = models.ClassroomBookingConfirmed
	return nil
}

func (s *classroomBookingStub) Cancel(ctx context.Context, id string) error {
	current, ok := s.items[id]
	if !ok || current.Status == models.ClassroomBookingCancelled {
		return sql.ErrNoRows
	}
	current.Status = models.ClassroomBookingCancelled
	return nil
}

func (s *classroomBookingStub) Delete(ctx context.Context, id string) error {
	if _, ok := s.items[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.items, id)
	return nil
}

func strPtr(s string) *string { return &s }

func mustDate(raw string) timeslot.Date {
	d, err := timeslot.ParseDate(raw)
	if err != nil {
		panic(err)
	}
	return d
}

package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-portal-api/internal/models"
	"github.com/noah-isme/campus-portal-api/internal/timeslot"
	appErrors "github.com/noah-isme/campus-portal-api/pkg/errors"
)

type timetableFixture struct {
	svc        *TimetableService
	repo       *timetableStub
	subjects   *subjectStub
	timetable  *models.Timetable
	slots      *slotStub
	classrooms *classroomStub
}

func newTimetableFixture(t *testing.T) *timetableFixture {
	t.Helper()
	repo := newTimetableStub()
	depts := &departmentStub{items: map[string]*models.Department{"cs": {ID: "cs", Code: "CS", Name: "Computer Science"}}}
	subjects := &subjectStub{items: map[string]*models.Subject{
		"algo": {ID: "algo", Code: "CS201", Name: "Algorithms", DepartmentID: "cs"},
		"os":   {ID: "os", Code: "CS301", Name: "Operating Systems", DepartmentID: "cs"},
	}}
	faculty := &facultyStub{items: map[string]*models.Faculty{
		"f1": {ID: "f1", DepartmentID: "cs", FullName: "Ada Lovelace", Role: models.RoleFaculty},
		"f2": {ID: "f2", DepartmentID: "cs", FullName: "Alan Turing", Role: models.RoleFaculty},
	}}
	classrooms := &classroomStub{items: map[string]*models.Classroom{
		"r101": {ID: "r101", RoomNumber: "101", Active: true},
		"r102": {ID: "r102", RoomNumber: "102", Active: true},
	}}
	slots := &slotStub{items: map[string]*models.TimeSlot{
		"p1": {ID: "p1", Label: "Period 1", StartTime: timeslot.MustClock("09:00"), EndTime: timeslot.MustClock("10:00")},
	}}
	svc := NewTimetableService(TimetableDeps{
		Timetables:  repo,
		Departments: depts,
		Subjects:    subjects,
		Faculty:     faculty,
		Classrooms:  classrooms,
		TimeSlots:   slots,
	}, nil, zap.NewNop())

	tt, err := svc.Create(context.Background(), UpsertTimetableRequest{DepartmentID: "cs", Name: "CS Semester 3", Semester: 3, AcademicYear: "2026-27", Section: "A"})
	require.NoError(t, err)
	return &timetableFixture{svc: svc, repo: repo, subjects: subjects, timetable: tt, slots: slots, classrooms: classrooms}
}

func entryAt(subject, faculty, room string, day int, start, end string) EntryRequest {
	return EntryRequest{
		SubjectID:   subject,
		FacultyID:   faculty,
		ClassroomID: room,
		DayOfWeek:   day,
		StartTime:   timeslot.MustClock(start),
		EndTime:     timeslot.MustClock(end),
	}
}

func TestTimetableServiceCreateRequiresDepartment(t *testing.T) {
	f := newTimetableFixture(t)

	_, err := f.svc.Create(context.Background(), UpsertTimetableRequest{DepartmentID: "ghost", Name: "Nope"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	_, err = f.svc.Create(context.Background(), UpsertTimetableRequest{DepartmentID: "cs"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestTimetableServiceAddEntryUsesTimeSlot(t *testing.T) {
	f := newTimetableFixture(t)

	req := EntryRequest{SubjectID: "algo", FacultyID: "f1", ClassroomID: "r101", DayOfWeek: 1, TimeSlotID: "p1"}
	entry, err := f.svc.AddEntry(context.Background(), f.timetable.ID, req)
	require.NoError(t, err)
	assert.Equal(t, "09:00", entry.StartTime.String())
	assert.Equal(t, "10:00", entry.EndTime.String())
	assert.Equal(t, f.timetable.ID, entry.TimetableID)
}

func TestTimetableServiceAddEntryRejectsEmptyInterval(t *testing.T) {
	f := newTimetableFixture(t)

	_, err := f.svc.AddEntry(context.Background(), f.timetable.ID, entryAt("algo", "f1", "r101", 1, "10:00", "09:00"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, f.repo.entries)
}

func TestTimetableServiceAddEntryMissingReferences(t *testing.T) {
	f := newTimetableFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddEntry(ctx, "missing", entryAt("algo", "f1", "r101", 1, "09:00", "10:00"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	_, err = f.svc.AddEntry(ctx, f.timetable.ID, entryAt("algo", "nobody", "r101", 1, "09:00", "10:00"))
	require.Error(t, err)
	assert.Equal(t, "faculty not found", appErrors.FromError(err).Message)

	_, err = f.svc.AddEntry(ctx, f.timetable.ID, entryAt("algo", "f1", "r999", 1, "09:00", "10:00"))
	require.Error(t, err)
	assert.Equal(t, "classroom not found", appErrors.FromError(err).Message)
}

func TestTimetableServiceReportsBothConflictDimensions(t *testing.T) {
	f := newTimetableFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddEntry(ctx, f.timetable.ID, entryAt("algo", "f1", "r101", 2, "09:00", "10:00"))
	require.NoError(t, err)

	// Same faculty member and same room, overlapping window.
	_, err = f.svc.AddEntry(ctx, f.timetable.ID, entryAt("os", "f1", "r101", 2, "09:30", "10:30"))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)

	details, ok := appErr.Details.(map[string]interface{})
	require.True(t, ok)
	conflicts, ok := details["conflicts"].([]timeslot.Conflict)
	require.True(t, ok)
	require.Len(t, conflicts, 2)
	dims := []timeslot.Dimension{conflicts[0].Dimension, conflicts[1].Dimension}
	assert.ElementsMatch(t, []timeslot.Dimension{timeslot.DimensionFaculty, timeslot.DimensionClassroom}, dims)
	assert.Len(t, f.repo.entries, 1)
}

func TestTimetableServiceFacultyConflictAcrossRooms(t *testing.T) {
	f := newTimetableFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddEntry(ctx, f.timetable.ID, entryAt("algo", "f1", "r101", 3, "11:00", "12:00"))
	require.NoError(t, err)

	conflicts, err := f.svc.Conflicts(ctx, models.TimetableEntry{FacultyID: "f1", ClassroomID: "r102", DayOfWeek: 3,
		StartTime: timeslot.MustClock("11:30"), EndTime: timeslot.MustClock("12:30")}, "")
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, timeslot.DimensionFaculty, conflicts[0].Dimension)
}

func TestTimetableServiceTouchingEntriesDoNotConflict(t *testing.T) {
	f := newTimetableFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddEntry(ctx, f.timetable.ID, entryAt("algo", "f1", "r101", 1, "09:00", "10:00"))
	require.NoError(t, err)
	_, err = f.svc.AddEntry(ctx, f.timetable.ID, entryAt("os", "f1", "r101", 1, "10:00", "11:00"))
	require.NoError(t, err)
	_, err = f.svc.AddEntry(ctx, f.timetable.ID, entryAt("os", "f1", "r101", 2, "09:00", "10:00"))
	require.NoError(t, err, "different weekday")
	assert.Len(t, f.repo.entries, 3)
}

func TestTimetableServiceUpdateEntryExcludesItself(t *testing.T) {
	f := newTimetableFixture(t)
	ctx := context.Background()

	entry, err := f.svc.AddEntry(ctx, f.timetable.ID, entryAt("algo", "f1", "r101", 1, "09:00", "10:00"))
	require.NoError(t, err)

	end := timeslot.MustClock("10:30")
	updated, err := f.svc.UpdateEntry(ctx, entry.ID, EntryPatch{EndTime: &end})
	require.NoError(t, err)
	assert.Equal(t, "10:30", updated.EndTime.String())

	other, err := f.svc.AddEntry(ctx, f.timetable.ID, entryAt("os", "f2", "r102", 1, "11:00", "12:00"))
	require.NoError(t, err)
	room := "r101"
	start := timeslot.MustClock("10:00")
	_, err = f.svc.UpdateEntry(ctx, other.ID, EntryPatch{ClassroomID: &room, StartTime: &start})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Equal(t, "r102", f.repo.entries[other.ID].ClassroomID)
}

func TestTimetableServiceDeleteRemovesAllEntries(t *testing.T) {
	f := newTimetableFixture(t)
	ctx := context.Background()

	for day := 1; day <= 3; day++ {
		_, err := f.svc.AddEntry(ctx, f.timetable.ID, entryAt("algo", "f1", "r101", day, "09:00", "10:00"))
		require.NoError(t, err)
	}
	require.Len(t, f.repo.entries, 3)

	require.NoError(t, f.svc.Delete(ctx, f.timetable.ID))
	assert.Empty(t, f.repo.entries)

	_, err := f.svc.Get(ctx, f.timetable.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	err = f.svc.Delete(ctx, f.timetable.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestTimetableServiceGetOrdersEntriesAndNeverReturnsNil(t *testing.T) {
	f := newTimetableFixture(t)
	ctx := context.Background()

	detail, err := f.svc.Get(ctx, f.timetable.ID)
	require.NoError(t, err)
	assert.NotNil(t, detail.Entries)
	assert.Empty(t, detail.Entries)

	_, err = f.svc.AddEntry(ctx, f.timetable.ID, entryAt("os", "f1", "r101", 2, "08:00", "09:00"))
	require.NoError(t, err)
	_, err = f.svc.AddEntry(ctx, f.timetable.ID, entryAt("algo", "f2", "r102", 1, "13:00", "14:00"))
	require.NoError(t, err)

	entries, err := f.svc.ListEntries(ctx, f.timetable.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 1, entries[0].DayOfWeek)
	assert.Equal(t, 2, entries[1].DayOfWeek)
}

func TestTimetableServiceFindOrCreateSessionTimetable(t *testing.T) {
	f := newTimetableFixture(t)
	ctx := context.Background()

	first, err := f.svc.FindOrCreateSessionTimetable(ctx, "cs", "Booked Sessions")
	require.NoError(t, err)
	second, err := f.svc.FindOrCreateSessionTimetable(ctx, "cs", "Booked Sessions")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, f.repo.timetables, 2)
}

func TestTimetableServiceCacheInvalidatedOnWrite(t *testing.T) {
	f := newTimetableFixture(t)
	cache := newMemoryCache()
	f.svc.cache = NewCacheService(cache, nil, 0, zap.NewNop(), true)
	ctx := context.Background()

	_, err := f.svc.Get(ctx, f.timetable.ID)
	require.NoError(t, err)
	assert.Contains(t, cache.items, detailCacheKey(f.timetable.ID))

	_, err = f.svc.AddEntry(ctx, f.timetable.ID, entryAt("algo", "f1", "r101", 1, "09:00", "10:00"))
	require.NoError(t, err)
	assert.NotContains(t, cache.items, detailCacheKey(f.timetable.ID))

	detail, err := f.svc.Get(ctx, f.timetable.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Entries, 1)
}

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

func newClassroomBookingFixture() (*ClassroomBookingService, *classroomBookingStub) {
	repo := newClassroomBookingStub()
	rooms := &classroomStub{items: map[string]*models.Classroom{
		"r101":   {ID: "r101", RoomNumber: "101", DepartmentID: strPtr("cs"), Active: true},
		"closed": {ID: "closed", RoomNumber: "000", Active: false},
	}}
	return NewClassroomBookingService(repo, rooms, nil, nil, &auditStub{}, NewMetricsService(), nil, zap.NewNop()), repo
}

func classroomBooking(room, date, start, end string) CreateClassroomBookingRequest {
	return CreateClassroomBookingRequest{
		ClassroomID: room,
		BookingDate: mustDate(date),
		StartTime:   timeslot.MustClock(start),
		EndTime:     timeslot.MustClock(end),
		Purpose:     "Guest lecture",
	}
}

func TestClassroomBookingDefaultsToConfirmed(t *testing.T) {
	svc, repo := newClassroomBookingFixture()

	booking, err := svc.Create(context.Background(), csFaculty, classroomBooking("r101", "2026-10-19", "09:00", "11:00"))
	require.NoError(t, err)
	assert.Equal(t, models.ClassroomBookingConfirmed, booking.Status)
	assert.Equal(t, "cs", booking.DepartmentID)
	assert.Equal(t, "u-fac", booking.BookedBy)
	assert.Equal(t, 1, booking.DayOfWeek)
	assert.Equal(t, 1, repo.createCalls)
}

func TestClassroomBookingOverlapRejectedBeforeInsert(t *testing.T) {
	svc, repo := newClassroomBookingFixture()
	ctx := context.Background()

	first, err := svc.Create(ctx, csFaculty, classroomBooking("r101", "2026-10-19", "09:00", "11:00"))
	require.NoError(t, err)

	_, err = svc.Create(ctx, csHOD, classroomBooking("r101", "2026-10-19", "10:30", "12:00"))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	conflicts := appErr.Details.(map[string]interface{})["conflicts"].([]timeslot.Conflict)
	require.Len(t, conflicts, 1)
	assert.Equal(t, first.ID, conflicts[0].WithID)
	assert.Equal(t, timeslot.KindClassroomBooking, conflicts[0].Kind)
	assert.Equal(t, 1, repo.createCalls)

	_, err = svc.Create(ctx, csHOD, classroomBooking("r101", "2026-10-19", "11:00", "12:00"))
	assert.NoError(t, err, "touching booking")
	_, err = svc.Create(ctx, csHOD, classroomBooking("r101", "2026-10-20", "10:30", "12:00"))
	assert.NoError(t, err, "another date")
}

func TestClassroomBookingRespectsWeeklySchedule(t *testing.T) {
	repo := newClassroomBookingStub()
	rooms := &classroomStub{items: map[string]*models.Classroom{"r101": {ID: "r101", RoomNumber: "101", Active: true}}}
	schedule := newTimetableStub()
	schedule.entries["e1"] = &models.TimetableEntry{ID: "e1", ClassroomID: "r101", DayOfWeek: 1, StartTime: timeslot.MustClock("09:00"), EndTime: timeslot.MustClock("10:00")}
	requests := newBookingRequestStub()
	entryID := "e1"
	requests.items["materialized"] = &models.BookingRequest{ID: "materialized", TargetResourceID: "r101", DayOfWeek: 1,
		StartTime: timeslot.MustClock("09:00"), EndTime: timeslot.MustClock("10:00"), Status: models.BookingRequestApproved, TimetableEntryID: &entryID}
	requests.items["held"] = &models.BookingRequest{ID: "held", TargetResourceID: "r101", DayOfWeek: 1,
		StartTime: timeslot.MustClock("13:00"), EndTime: timeslot.MustClock("14:00"), Status: models.BookingRequestApproved}
	svc := NewClassroomBookingService(repo, rooms, schedule, requests, &auditStub{}, NewMetricsService(), nil, zap.NewNop())
	ctx := context.Background()

	// 2026-10-19 is a Monday.
	_, err := svc.Create(ctx, csHOD, classroomBooking("r101", "2026-10-19", "09:30", "10:30"))
	require.Error(t, err)
	conflicts := appErrors.FromError(err).Details.(map[string]interface{})["conflicts"].([]timeslot.Conflict)
	require.Len(t, conflicts, 1)
	assert.Equal(t, timeslot.KindTimetableEntry, conflicts[0].Kind)
	assert.Equal(t, "e1", conflicts[0].WithID)

	_, err = svc.Create(ctx, csHOD, classroomBooking("r101", "2026-10-19", "13:30", "15:00"))
	require.Error(t, err)
	conflicts = appErrors.FromError(err).Details.(map[string]interface{})["conflicts"].([]timeslot.Conflict)
	require.Len(t, conflicts, 1)
	assert.Equal(t, timeslot.KindBookingRequest, conflicts[0].Kind)
	assert.Equal(t, "held", conflicts[0].WithID)
	assert.Equal(t, 0, repo.createCalls)

	_, err = svc.Create(ctx, csHOD, classroomBooking("r101", "2026-10-19", "10:00", "13:00"))
	assert.NoError(t, err, "gap between weekly holders")
	_, err = svc.Create(ctx, csHOD, classroomBooking("r101", "2026-10-20", "09:00", "10:00"))
	assert.NoError(t, err, "weekly holders are Monday only")
}

func TestClassroomBookingPendingDoesNotBlock(t *testing.T) {
	svc, _ := newClassroomBookingFixture()
	ctx := context.Background()

	payload := classroomBooking("r101", "2026-10-21", "09:00", "11:00")
	payload.Status = models.ClassroomBookingPending
	pending, err := svc.Create(ctx, csFaculty, payload)
	require.NoError(t, err)

	_, err = svc.Create(ctx, csHOD, classroomBooking("r101", "2026-10-21", "10:00", "12:00"))
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, admin, pending.ID, ClassroomBookingStatusRequest{Status: models.ClassroomBookingConfirmed})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestClassroomBookingValidation(t *testing.T) {
	svc, repo := newClassroomBookingFixture()
	ctx := context.Background()

	payload := classroomBooking("r101", "2026-10-19", "09:00", "11:00")
	payload.DayOfWeek = 2
	_, err := svc.Create(ctx, csFaculty, payload)
	require.Error(t, err)
	assert.Equal(t, "day_of_week does not match booking_date", appErrors.FromError(err).Message)

	_, err = svc.Create(ctx, csFaculty, classroomBooking("closed", "2026-10-19", "09:00", "11:00"))
	require.Error(t, err)
	assert.Equal(t, "classroom is not active", appErrors.FromError(err).Message)

	_, err = svc.Create(ctx, csFaculty, classroomBooking("missing", "2026-10-19", "09:00", "11:00"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	_, err = svc.Create(ctx, admin, classroomBooking("r101", "2026-10-19", "09:00", "11:00"))
	require.Error(t, err)
	assert.Equal(t, "department_id is required", appErrors.FromError(err).Message)

	_, err = svc.Create(ctx, csFaculty, classroomBooking("r101", "2026-10-19", "11:00", "11:00"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Equal(t, 0, repo.createCalls)
}

func TestClassroomBookingStatusTransitions(t *testing.T) {
	svc, repo := newClassroomBookingFixture()
	ctx := context.Background()

	payload := classroomBooking("r101", "2026-10-22", "14:00", "15:00")
	payload.Status = models.ClassroomBookingPending
	booking, err := svc.Create(ctx, csFaculty, payload)
	require.NoError(t, err)

	confirmed, err := svc.UpdateStatus(ctx, admin, booking.ID, ClassroomBookingStatusRequest{Status: models.ClassroomBookingConfirmed})
	require.NoError(t, err)
	assert.Equal(t, models.ClassroomBookingConfirmed, confirmed.Status)

	_, err = svc.UpdateStatus(ctx, admin, booking.ID, ClassroomBookingStatusRequest{Status: models.ClassroomBookingConfirmed})
	require.Error(t, err)
	assert.Equal(t, "Cannot change status from confirmed to confirmed", appErrors.FromError(err).Message)

	_, err = svc.UpdateStatus(ctx, admin, booking.ID, ClassroomBookingStatusRequest{Status: models.ClassroomBookingCancelled})
	require.NoError(t, err)
	assert.Equal(t, models.ClassroomBookingCancelled, repo.items[booking.ID].Status)

	_, err = svc.UpdateStatus(ctx, admin, booking.ID, ClassroomBookingStatusRequest{Status: models.ClassroomBookingCancelled})
	require.Error(t, err)
	assert.Equal(t, "Cannot change status from cancelled to cancelled", appErrors.FromError(err).Message)

	_, err = svc.UpdateStatus(ctx, admin, booking.ID, ClassroomBookingStatusRequest{Status: "archived"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestClassroomBookingDelete(t *testing.T) {
	svc, repo := newClassroomBookingFixture()
	ctx := context.Background()

	booking, err := svc.Create(ctx, csFaculty, classroomBooking("r101", "2026-10-23", "08:00", "09:00"))
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, booking.ID))
	assert.Empty(t, repo.items)

	err = svc.Delete(ctx, booking.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

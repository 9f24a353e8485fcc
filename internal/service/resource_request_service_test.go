package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-portal-api/internal/models"
	"github.com/noah-isme/campus-portal-api/internal/timeslot"
	appErrors "github.com/noah-isme/campus-portal-api/pkg/errors"
)

func newResourceRequestFixture(autoApprove bool) (*ResourceRequestService, *resourceRequestStub, *auditStub) {
	repo := newResourceRequestStub()
	resources := &resourceStub{items: map[string]*models.Resource{
		"aud":     {ID: "aud", Name: "CS Auditorium", DepartmentID: strPtr("cs"), Active: true},
		"lab":     {ID: "lab", Name: "EE Lab", DepartmentID: strPtr("ee"), Active: true},
		"hall":    {ID: "hall", Name: "Convocation Hall", Active: true},
		"retired": {ID: "retired", Name: "Old Lab", DepartmentID: strPtr("ee"), Active: false},
	}}
	audit := &auditStub{}
	svc := NewResourceRequestService(repo, resources, audit, NewMetricsService(), WorkflowConfig{AutoApprove: autoApprove}, nil, zap.NewNop())
	return svc, repo, audit
}

func resourcePayload(resource, date, start, end string) ResourceRequestPayload {
	return ResourceRequestPayload{
		ResourceID:         resource,
		RequestDate:        mustDate(date),
		StartTime:          timeslot.MustClock(start),
		EndTime:            timeslot.MustClock(end),
		Purpose:            "Department seminar",
		ExpectedAttendance: 80,
	}
}

func TestResourceRequestCreateRequiresHOD(t *testing.T) {
	svc, repo, _ := newResourceRequestFixture(true)

	_, err := svc.Create(context.Background(), csFaculty, resourcePayload("lab", "2026-10-19", "10:00", "12:00"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	noProfile := &models.JWTClaims{UserID: "u-x", Role: models.RoleHOD, DepartmentID: "cs"}
	_, err = svc.Create(context.Background(), noProfile, resourcePayload("lab", "2026-10-19", "10:00", "12:00"))
	require.Error(t, err)
	assert.Empty(t, repo.items)
}

func TestResourceRequestAutoApprovedForOwnDepartment(t *testing.T) {
	svc, repo, audit := newResourceRequestFixture(true)

	req, err := svc.Create(context.Background(), csHOD, resourcePayload("aud", "2026-10-19", "10:00", "12:00"))
	require.NoError(t, err)
	assert.Equal(t, models.ResourceRequestApproved, req.Status)
	assert.Equal(t, 1, req.DayOfWeek, "2026-10-19 is a Monday")
	assert.Equal(t, "f-hod", req.RequesterHODID)

	stored := repo.items[req.ID]
	assert.Equal(t, models.ResourceRequestApproved, stored.Status)
	assert.Equal(t, "auto-approved", *stored.ApprovedBy)
	assert.Equal(t, []string{models.AuditActionRequestCreate, models.AuditActionRequestAutoApprove}, audit.actions())
}

func TestResourceRequestAutoApprovalFailureLeavesPending(t *testing.T) {
	svc, repo, _ := newResourceRequestFixture(true)
	repo.approveErr = errStoreDown

	req, err := svc.Create(context.Background(), csHOD, resourcePayload("aud", "2026-10-19", "10:00", "12:00"))
	require.NoError(t, err)
	assert.Equal(t, models.ResourceRequestPending, req.Status)
	assert.Equal(t, models.ResourceRequestPending, repo.items[req.ID].Status)
}

func TestResourceRequestApproveByTargetDepartmentHOD(t *testing.T) {
	svc, repo, _ := newResourceRequestFixture(true)
	ctx := context.Background()

	req, err := svc.Create(ctx, csHOD, resourcePayload("lab", "2026-10-20", "14:00", "16:00"))
	require.NoError(t, err)
	assert.Equal(t, models.ResourceRequestPending, req.Status)

	_, err = svc.Approve(ctx, csHOD, req.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Equal(t, "approver must belong to the target department", appErrors.FromError(err).Message)

	approved, err := svc.Approve(ctx, eeHOD, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ResourceRequestApproved, approved.Status)
	assert.Equal(t, "u-ee", *repo.items[req.ID].ApprovedBy)

	_, err = svc.Approve(ctx, eeHOD, req.ID)
	require.Error(t, err)
	assert.Equal(t, "Cannot change status from approved to approved", appErrors.FromError(err).Message)
	_, err = svc.Approve(ctx, csHOD, req.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code, "permission is checked before status")
	_, err = svc.Reject(ctx, csHOD, req.ID, RejectRequest{RejectionReason: "no"})
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestResourceRequestSharedResourceApprovedByPrincipal(t *testing.T) {
	svc, _, _ := newResourceRequestFixture(true)
	ctx := context.Background()

	req, err := svc.Create(ctx, csHOD, resourcePayload("hall", "2026-10-21", "09:00", "11:00"))
	require.NoError(t, err)
	assert.Equal(t, models.ResourceRequestPending, req.Status)

	_, err = svc.Approve(ctx, eeHOD, req.ID)
	require.Error(t, err)

	approved, err := svc.Approve(ctx, principal, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ResourceRequestApproved, approved.Status)
}

func TestResourceRequestOverlapOnSameDate(t *testing.T) {
	svc, repo, _ := newResourceRequestFixture(true)
	ctx := context.Background()

	first, err := svc.Create(ctx, csHOD, resourcePayload("lab", "2026-10-19", "10:00", "12:00"))
	require.NoError(t, err)
	_, err = svc.Approve(ctx, eeHOD, first.ID)
	require.NoError(t, err)

	_, err = svc.Create(ctx, csHOD, resourcePayload("lab", "2026-10-19", "11:00", "13:00"))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	conflicts := appErr.Details.(map[string]interface{})["conflicts"].([]timeslot.Conflict)
	require.Len(t, conflicts, 1)
	assert.Equal(t, timeslot.DimensionResource, conflicts[0].Dimension)
	assert.Equal(t, first.ID, conflicts[0].WithID)
	assert.Len(t, repo.items, 1)

	_, err = svc.Create(ctx, csHOD, resourcePayload("lab", "2026-10-26", "11:00", "13:00"))
	assert.NoError(t, err, "same weekday, different date")
	_, err = svc.Create(ctx, csHOD, resourcePayload("lab", "2026-10-19", "12:00", "13:00"))
	assert.NoError(t, err, "touching window")
}

func TestResourceRequestValidation(t *testing.T) {
	svc, _, _ := newResourceRequestFixture(true)
	ctx := context.Background()

	payload := resourcePayload("lab", "2026-10-19", "10:00", "12:00")
	payload.DayOfWeek = 3
	_, err := svc.Create(ctx, csHOD, payload)
	require.Error(t, err)
	assert.Equal(t, "day_of_week does not match request_date", appErrors.FromError(err).Message)

	_, err = svc.Create(ctx, csHOD, resourcePayload("lab", "2026-10-19", "12:00", "10:00"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Create(ctx, csHOD, resourcePayload("retired", "2026-10-19", "10:00", "12:00"))
	require.Error(t, err)
	assert.Equal(t, "resource is not active", appErrors.FromError(err).Message)

	payload = resourcePayload("lab", "2026-10-19", "10:00", "12:00")
	payload.RequestDate = timeslot.Date{}
	_, err = svc.Create(ctx, csHOD, payload)
	require.Error(t, err)
	assert.Equal(t, "request_date is required", appErrors.FromError(err).Message)
}

func TestResourceRequestRejectRequiresReason(t *testing.T) {
	svc, repo, _ := newResourceRequestFixture(true)
	ctx := context.Background()

	req, err := svc.Create(ctx, csHOD, resourcePayload("lab", "2026-10-22", "10:00", "12:00"))
	require.NoError(t, err)

	_, err = svc.Reject(ctx, eeHOD, req.ID, RejectRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Equal(t, models.ResourceRequestPending, repo.items[req.ID].Status)

	var payload RejectRequest
	require.NoError(t, json.Unmarshal([]byte(`{"rejection_reason":"Lab exams that week"}`), &payload))
	rejected, err := svc.Reject(ctx, eeHOD, req.ID, payload)
	require.NoError(t, err)
	assert.Equal(t, models.ResourceRequestRejected, rejected.Status)
	assert.Equal(t, "Lab exams that week", *repo.items[req.ID].RejectionReason)

	_, err = svc.Approve(ctx, eeHOD, req.ID)
	require.Error(t, err)
	assert.Equal(t, "Cannot change status from rejected to approved", appErrors.FromError(err).Message)
}

func TestResourceRequestUpdateAndCancelByOwner(t *testing.T) {
	svc, repo, audit := newResourceRequestFixture(true)
	ctx := context.Background()

	req, err := svc.Create(ctx, csHOD, resourcePayload("lab", "2026-10-23", "10:00", "12:00"))
	require.NoError(t, err)

	_, err = svc.Update(ctx, eeHOD, req.ID, resourcePayload("lab", "2026-10-23", "13:00", "15:00"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, err = svc.Update(ctx, csHOD, req.ID, resourcePayload("hall", "2026-10-23", "13:00", "15:00"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	updated, err := svc.Update(ctx, csHOD, req.ID, resourcePayload("", "2026-10-23", "13:00", "15:00"))
	require.NoError(t, err)
	assert.Equal(t, "13:00", updated.StartTime.String())
	assert.Equal(t, "lab", repo.items[req.ID].ResourceID)

	_, err = svc.Cancel(ctx, eeHOD, req.ID)
	require.Error(t, err)

	cancelled, err := svc.Cancel(ctx, csHOD, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ResourceRequestCancelled, cancelled.Status)
	assert.Contains(t, audit.actions(), models.AuditActionRequestWithdraw)

	_, err = svc.Cancel(ctx, csHOD, req.ID)
	require.Error(t, err)
	assert.Equal(t, "Cannot change status from cancelled to cancelled", appErrors.FromError(err).Message)
}

func TestRejectRequestAcceptsOlderReasonField(t *testing.T) {
	var payload RejectRequest
	require.NoError(t, json.Unmarshal([]byte(`{"reason":"  Booked for exams "}`), &payload))
	assert.Equal(t, "Booked for exams", payload.text())

	payload.RejectionReason = "Maintenance"
	assert.Equal(t, "Maintenance", payload.text())
}

package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-portal-api/internal/models"
	"github.com/noah-isme/campus-portal-api/internal/service"
	appErrors "github.com/noah-isme/campus-portal-api/pkg/errors"
	"github.com/noah-isme/campus-portal-api/pkg/response"
)

type bookingRequestService interface {
	List(ctx context.Context, actor *models.JWTClaims, filter models.BookingRequestFilter) ([]models.BookingRequest, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.BookingRequest, error)
	Create(ctx context.Context, actor *models.JWTClaims, payload service.CreateBookingRequest) (*models.ApprovalResult, error)
	Update(ctx context.Context, actor *models.JWTClaims, id string, payload service.CreateBookingRequest) (*models.BookingRequest, error)
	UpdateStatus(ctx context.Context, actor *models.JWTClaims, id string, payload service.BookingStatusRequest) (*models.ApprovalResult, error)
	Withdraw(ctx context.Context, actor *models.JWTClaims, id string) (*models.BookingRequest, error)
	VCDecision(ctx context.Context, actor *models.JWTClaims, id string, payload service.VCDecisionRequest) (*models.BookingRequest, error)
}

// BookingRequestHandler exposes the classroom booking request workflow.
type BookingRequestHandler struct {
	service bookingRequestService
}

// NewBookingRequestHandler constructs a booking request handler.
func NewBookingRequestHandler(svc bookingRequestService) *BookingRequestHandler {
	return &BookingRequestHandler{service: svc}
}

// List godoc
// @Summary List booking requests visible to the caller
// @Tags BookingRequests
// @Produce json
// @Param status query string false "Comma separated statuses"
// @Param target_resource_id query string false "Filter by classroom"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /booking-requests [get]
func (h *BookingRequestHandler) List(c *gin.Context) {
	filter := models.BookingRequestFilter{
		TargetResourceID: c.Query("target_resource_id"),
		PageRequest:      pageRequest(c),
	}
	for _, raw := range strings.Split(c.Query("status"), ",") {
		if raw = strings.TrimSpace(raw); raw != "" {
			filter.Status = append(filter.Status, models.BookingRequestStatus(strings.ToLower(raw)))
		}
	}
	requests, pagination, err := h.service.List(c.Request.Context(), claimsFromContext(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, pagination)
}

// Get godoc
// @Summary Get booking request
// @Tags BookingRequests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /booking-requests/{id} [get]
func (h *BookingRequestHandler) Get(c *gin.Context) {
	req, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, req, nil)
}

// Create godoc
// @Summary Request a weekly classroom slot
// @Description HODs booking a classroom of their own department are approved immediately.
// @Tags BookingRequests
// @Accept json
// @Produce json
// @Param payload body service.CreateBookingRequest true "Booking request"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /booking-requests [post]
func (h *BookingRequestHandler) Create(c *gin.Context) {
	var payload service.CreateBookingRequest
	if !bindJSON(c, &payload, "invalid booking request payload") {
		return
	}
	result, err := h.service.Create(c.Request.Context(), claimsFromContext(c), payload)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondWithWarnings(c, http.StatusCreated, result.Request, result.Warnings)
}

// Update godoc
// @Summary Update a pending booking request
// @Tags BookingRequests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body service.CreateBookingRequest true "Booking request"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /booking-requests/{id} [put]
func (h *BookingRequestHandler) Update(c *gin.Context) {
	var payload service.CreateBookingRequest
	if !bindJSON(c, &payload, "invalid booking request payload") {
		return
	}
	req, err := h.service.Update(c.Request.Context(), claimsFromContext(c), c.Param("id"), payload)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, req, nil)
}

// UpdateStatus godoc
// @Summary Approve or reject a pending booking request
// @Tags BookingRequests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body service.BookingStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /booking-requests/{id}/status [put]
func (h *BookingRequestHandler) UpdateStatus(c *gin.Context) {
	var payload service.BookingStatusRequest
	if !bindJSON(c, &payload, "invalid status payload") {
		return
	}
	if payload.Status == models.BookingRequestWithdrawn {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "use DELETE to withdraw a request"))
		return
	}
	result, err := h.service.UpdateStatus(c.Request.Context(), claimsFromContext(c), c.Param("id"), payload)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondWithWarnings(c, http.StatusOK, result.Request, result.Warnings)
}

// Withdraw godoc
// @Summary Withdraw a booking request
// @Tags BookingRequests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /booking-requests/{id} [delete]
func (h *BookingRequestHandler) Withdraw(c *gin.Context) {
	req, err := h.service.Withdraw(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, req, nil)
}

// VCApproval godoc
// @Summary Record the Vice Chancellor decision
// @Tags BookingRequests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body service.VCDecisionRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /booking-requests/{id}/vc-approval [put]
func (h *BookingRequestHandler) VCApproval(c *gin.Context) {
	var payload service.VCDecisionRequest
	if !bindJSON(c, &payload, "invalid vc decision payload") {
		return
	}
	req, err := h.service.VCDecision(c.Request.Context(), claimsFromContext(c), c.Param("id"), payload)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, req, nil)
}

package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-portal-api/internal/models"
	"github.com/noah-isme/campus-portal-api/internal/service"
	"github.com/noah-isme/campus-portal-api/pkg/response"
)

type resourceRequestService interface {
	List(ctx context.Context, actor *models.JWTClaims, filter models.ResourceRequestFilter) ([]models.ResourceRequest, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.ResourceRequest, error)
	Create(ctx context.Context, actor *models.JWTClaims, payload service.ResourceRequestPayload) (*models.ResourceRequest, error)
	Update(ctx context.Context, actor *models.JWTClaims, id string, payload service.ResourceRequestPayload) (*models.ResourceRequest, error)
	Approve(ctx context.Context, actor *models.JWTClaims, id string) (*models.ResourceRequest, error)
	Reject(ctx context.Context, actor *models.JWTClaims, id string, payload service.RejectRequest) (*models.ResourceRequest, error)
	Cancel(ctx context.Context, actor *models.JWTClaims, id string) (*models.ResourceRequest, error)
}

// ResourceRequestHandler exposes the HOD-to-HOD resource request workflow.
type ResourceRequestHandler struct {
	service resourceRequestService
}

// NewResourceRequestHandler constructs a resource request handler.
func NewResourceRequestHandler(svc resourceRequestService) *ResourceRequestHandler {
	return &ResourceRequestHandler{service: svc}
}

// List godoc
// @Summary List resource requests
// @Tags ResourceRequests
// @Produce json
// @Param status query string false "Comma separated statuses"
// @Param resource_id query string false "Filter by resource"
// @Success 200 {object} response.Envelope
// @Router /resource-requests [get]
func (h *ResourceRequestHandler) List(c *gin.Context) {
	filter := models.ResourceRequestFilter{
		ResourceID:  c.Query("resource_id"),
		PageRequest: pageRequest(c),
	}
	for _, raw := range strings.Split(c.Query("status"), ",") {
		if raw = strings.TrimSpace(raw); raw != "" {
			filter.Status = append(filter.Status, models.ResourceRequestStatus(strings.ToLower(raw)))
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
// @Summary Get resource request
// @Tags ResourceRequests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /resource-requests/{id} [get]
func (h *ResourceRequestHandler) Get(c *gin.Context) {
	req, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, req, nil)
}

// Create godoc
// @Summary Request a resource owned by another department
// @Tags ResourceRequests
// @Accept json
// @Produce json
// @Param payload body service.ResourceRequestPayload true "Resource request"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /resource-requests/create [post]
func (h *ResourceRequestHandler) Create(c *gin.Context) {
	var payload service.ResourceRequestPayload
	if !bindJSON(c, &payload, "invalid resource request payload") {
		return
	}
	req, err := h.service.Create(c.Request.Context(), claimsFromContext(c), payload)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, req)
}

// Update godoc
// @Summary Update a pending resource request
// @Tags ResourceRequests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body service.ResourceRequestPayload true "Resource request"
// @Success 200 {object} response.Envelope
// @Router /resource-requests/{id}/update [put]
func (h *ResourceRequestHandler) Update(c *gin.Context) {
	var payload service.ResourceRequestPayload
	if !bindJSON(c, &payload, "invalid resource request payload") {
		return
	}
	req, err := h.service.Update(c.Request.Context(), claimsFromContext(c), c.Param("id"), payload)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, req, nil)
}

// Approve godoc
// @Summary Approve a pending resource request
// @Tags ResourceRequests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /resource-requests/{id}/approve [post]
func (h *ResourceRequestHandler) Approve(c *gin.Context) {
	req, err := h.service.Approve(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, req, nil)
}

// Reject godoc
// @Summary Reject a pending resource request
// @Tags ResourceRequests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body service.RejectRequest true "Rejection reason"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /resource-requests/{id}/reject [post]
func (h *ResourceRequestHandler) Reject(c *gin.Context) {
	var payload service.RejectRequest
	if !bindJSON(c, &payload, "invalid rejection payload") {
		return
	}
	req, err := h.service.Reject(c.Request.Context(), claimsFromContext(c), c.Param("id"), payload)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, req, nil)
}

// Cancel godoc
// @Summary Cancel a resource request
// @Tags ResourceRequests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /resource-requests/{id}/cancel [post]
func (h *ResourceRequestHandler) Cancel(c *gin.Context) {
	req, err := h.service.Cancel(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, req, nil)
}

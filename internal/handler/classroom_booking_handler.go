package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-portal-api/internal/models"
	"github.com/noah-isme/campus-portal-api/internal/service"
	"github.com/noah-isme/campus-portal-api/internal/timeslot"
	appErrors "github.com/noah-isme/campus-portal-api/pkg/errors"
	"github.com/noah-isme/campus-portal-api/pkg/response"
)

type classroomBookingService interface {
	List(ctx context.Context, filter models.ClassroomBookingFilter) ([]models.ClassroomBooking, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.ClassroomBooking, error)
	Create(ctx context.Context, actor *models.JWTClaims, req service.CreateClassroomBookingRequest) (*models.ClassroomBooking, error)
	UpdateStatus(ctx context.Context, actor *models.JWTClaims, id string, req service.ClassroomBookingStatusRequest) (*models.ClassroomBooking, error)
	Delete(ctx context.Context, id string) error
}

// ClassroomBookingHandler handles dated classroom bookings.
type ClassroomBookingHandler struct {
	service classroomBookingService
}

// NewClassroomBookingHandler constructs a classroom booking handler.
func NewClassroomBookingHandler(svc classroomBookingService) *ClassroomBookingHandler {
	return &ClassroomBookingHandler{service: svc}
}

// List godoc
// @Summary List classroom bookings
// @Tags ClassroomBookings
// @Produce json
// @Param classroom_id query string false "Filter by classroom"
// @Param department_id query string false "Filter by department"
// @Param status query string false "pending, confirmed or cancelled"
// @Param from query string false "From date (YYYY-MM-DD)"
// @Param to query string false "To date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /classroom-bookings [get]
func (h *ClassroomBookingHandler) List(c *gin.Context) {
	filter := models.ClassroomBookingFilter{
		ClassroomID:  c.Query("classroom_id"),
		DepartmentID: c.Query("department_id"),
		Status:       models.ClassroomBookingStatus(c.Query("status")),
		PageRequest:  pageRequest(c),
	}
	for key, target := range map[string]**timeslot.Date{"from": &filter.From, "to": &filter.To} {
		raw := c.Query(key)
		if raw == "" {
			continue
		}
		date, err := timeslot.ParseDate(raw)
		if err != nil {
			response.Error(c, appErrors.Invalid(err, err.Error()))
			return
		}
		*target = &date
	}

	bookings, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, bookings, pagination)
}

// Get godoc
// @Summary Get classroom booking
// @Tags ClassroomBookings
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Envelope
// @Router /classroom-bookings/{id} [get]
func (h *ClassroomBookingHandler) Get(c *gin.Context) {
	booking, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, booking, nil)
}

// Create godoc
// @Summary Book a classroom on a date
// @Tags ClassroomBookings
// @Accept json
// @Produce json
// @Param payload body service.CreateClassroomBookingRequest true "Booking payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /classroom-bookings [post]
func (h *ClassroomBookingHandler) Create(c *gin.Context) {
	var req service.CreateClassroomBookingRequest
	if !bindJSON(c, &req, "invalid booking payload") {
		return
	}
	booking, err := h.service.Create(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, booking)
}

// UpdateStatus godoc
// @Summary Confirm or cancel a classroom booking
// @Tags ClassroomBookings
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param payload body service.ClassroomBookingStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /classroom-bookings/{id}/status [put]
func (h *ClassroomBookingHandler) UpdateStatus(c *gin.Context) {
	var req service.ClassroomBookingStatusRequest
	if !bindJSON(c, &req, "invalid status payload") {
		return
	}
	booking, err := h.service.UpdateStatus(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, booking, nil)
}

// Delete godoc
// @Summary Delete classroom booking
// @Tags ClassroomBookings
// @Param id path string true "Booking ID"
// @Success 204
// @Router /classroom-bookings/{id} [delete]
func (h *ClassroomBookingHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

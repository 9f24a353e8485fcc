package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-portal-api/internal/models"
	"github.com/noah-isme/campus-portal-api/internal/service"
	"github.com/noah-isme/campus-portal-api/internal/timeslot"
	appErrors "github.com/noah-isme/campus-portal-api/pkg/errors"
	"github.com/noah-isme/campus-portal-api/pkg/response"
)

type timetableService interface {
	List(ctx context.Context, filter models.TimetableFilter) ([]models.Timetable, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.TimetableDetail, error)
	Create(ctx context.Context, req service.UpsertTimetableRequest) (*models.Timetable, error)
	Update(ctx context.Context, id string, req service.UpsertTimetableRequest) (*models.Timetable, error)
	Delete(ctx context.Context, id string) error
	ListEntries(ctx context.Context, timetableID string) ([]models.TimetableEntryDetail, error)
	AddEntry(ctx context.Context, timetableID string, req service.EntryRequest) (*models.TimetableEntry, error)
	UpdateEntry(ctx context.Context, entryID string, patch service.EntryPatch) (*models.TimetableEntry, error)
	DeleteEntry(ctx context.Context, entryID string) error
}

type timetableExporter interface {
	Export(ctx context.Context, id string, format service.ExportFormat, opts service.ExportOptions) (*service.ExportFile, error)
}

// TimetableHandler handles timetables, their entries and exports.
type TimetableHandler struct {
	service  timetableService
	exporter timetableExporter
}

// NewTimetableHandler constructs a timetable handler.
func NewTimetableHandler(svc timetableService, exporter timetableExporter) *TimetableHandler {
	return &TimetableHandler{service: svc, exporter: exporter}
}

// List godoc
// @Summary List timetables
// @Tags Timetables
// @Produce json
// @Param department_id query string false "Filter by department"
// @Param semester query int false "Filter by semester"
// @Param academic_year query string false "Filter by academic year"
// @Success 200 {object} response.Envelope
// @Router /timetables [get]
func (h *TimetableHandler) List(c *gin.Context) {
	filter := models.TimetableFilter{
		DepartmentID: c.Query("department_id"),
		Semester:     queryInt(c, "semester"),
		AcademicYear: c.Query("academic_year"),
		PageRequest:  pageRequest(c),
	}
	timetables, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, timetables, pagination)
}

// Get godoc
// @Summary Get timetable with entries
// @Tags Timetables
// @Produce json
// @Param id path string true "Timetable ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetables/{id} [get]
func (h *TimetableHandler) Get(c *gin.Context) {
	detail, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Create godoc
// @Summary Create timetable
// @Tags Timetables
// @Accept json
// @Produce json
// @Param payload body service.UpsertTimetableRequest true "Timetable payload"
// @Success 201 {object} response.Envelope
// @Router /timetables [post]
func (h *TimetableHandler) Create(c *gin.Context) {
	var req service.UpsertTimetableRequest
	if !bindJSON(c, &req, "invalid timetable payload") {
		return
	}
	tt, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, tt)
}

// Update godoc
// @Summary Update timetable
// @Tags Timetables
// @Accept json
// @Produce json
// @Param id path string true "Timetable ID"
// @Param payload body service.UpsertTimetableRequest true "Timetable payload"
// @Success 200 {object} response.Envelope
// @Router /timetables/{id} [put]
func (h *TimetableHandler) Update(c *gin.Context) {
	var req service.UpsertTimetableRequest
	if !bindJSON(c, &req, "invalid timetable payload") {
		return
	}
	tt, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tt, nil)
}

// Delete godoc
// @Summary Delete timetable and all of its entries
// @Tags Timetables
// @Param id path string true "Timetable ID"
// @Success 204
// @Router /timetables/{id} [delete]
func (h *TimetableHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListEntries godoc
// @Summary List timetable entries
// @Tags Timetables
// @Produce json
// @Param id path string true "Timetable ID"
// @Success 200 {object} response.Envelope
// @Router /timetables/{id}/entries [get]
func (h *TimetableHandler) ListEntries(c *gin.Context) {
	entries, err := h.service.ListEntries(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// AddEntry godoc
// @Summary Add a timetable entry
// @Description Rejected with 409 when the faculty member or classroom is already busy; all conflicts are listed in error.details.
// @Tags Timetables
// @Accept json
// @Produce json
// @Param id path string true "Timetable ID"
// @Param payload body service.EntryRequest true "Entry payload"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /timetables/{id}/entries [post]
func (h *TimetableHandler) AddEntry(c *gin.Context) {
	var req service.EntryRequest
	if !bindJSON(c, &req, "invalid timetable entry payload") {
		return
	}
	entry, err := h.service.AddEntry(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, entry)
}

// UpdateEntry godoc
// @Summary Update a timetable entry
// @Tags Timetables
// @Accept json
// @Produce json
// @Param entryId path string true "Entry ID"
// @Param payload body service.EntryPatch true "Entry patch"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /timetables/entries/{entryId} [put]
func (h *TimetableHandler) UpdateEntry(c *gin.Context) {
	var patch service.EntryPatch
	if !bindJSON(c, &patch, "invalid timetable entry payload") {
		return
	}
	entry, err := h.service.UpdateEntry(c.Request.Context(), c.Param("entryId"), patch)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}

// DeleteEntry godoc
// @Summary Delete a timetable entry
// @Tags Timetables
// @Param entryId path string true "Entry ID"
// @Success 204
// @Router /timetables/entries/{entryId} [delete]
func (h *TimetableHandler) DeleteEntry(c *gin.Context) {
	if err := h.service.DeleteEntry(c.Request.Context(), c.Param("entryId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Export godoc
// @Summary Export a timetable
// @Tags Timetables
// @Produce octet-stream
// @Param id path string true "Timetable ID"
// @Param format query string false "csv, pdf, xlsx or ics" default(csv)
// @Param from query string false "First week for ics exports (YYYY-MM-DD)"
// @Param weeks query int false "Number of weekly repetitions for ics exports"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /timetables/{id}/export [get]
func (h *TimetableHandler) Export(c *gin.Context) {
	format := service.ExportFormat(strings.ToLower(c.DefaultQuery("format", "csv")))
	var opts service.ExportOptions
	if raw := c.Query("from"); raw != "" {
		date, err := timeslot.ParseDate(raw)
		if err != nil {
			response.Error(c, appErrors.Invalid(err, err.Error()))
			return
		}
		opts.From = date.Time
	}
	if raw := c.Query("weeks"); raw != "" {
		weeks, err := strconv.Atoi(raw)
		if err != nil || weeks < 0 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "weeks must be a non-negative integer"))
			return
		}
		opts.Weeks = weeks
	}

	file, err := h.exporter.Export(c.Request.Context(), c.Param("id"), format, opts)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=\""+file.Filename+"\"")
	c.Header("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
	c.Data(http.StatusOK, file.ContentType, file.Data)
}

package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-portal-api/internal/models"
	"github.com/noah-isme/campus-portal-api/internal/service"
	appErrors "github.com/noah-isme/campus-portal-api/pkg/errors"
)

type timetableServiceMock struct {
	deleted []string
}

func (m *timetableServiceMock) List(ctx context.Context, filter models.TimetableFilter) ([]models.Timetable, *models.Pagination, error) {
	return []models.Timetable{}, filter.Pagination(0), nil
}

func (m *timetableServiceMock) Get(ctx context.Context, id string) (*models.TimetableDetail, error) {
	return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
}

func (m *timetableServiceMock) Create(ctx context.Context, req service.UpsertTimetableRequest) (*models.Timetable, error) {
	return &models.Timetable{ID: "tt-1", Name: req.Name}, nil
}

func (m *timetableServiceMock) Update(ctx context.Context, id string, req service.UpsertTimetableRequest) (*models.Timetable, error) {
	return &models.Timetable{ID: id, Name: req.Name}, nil
}

func (m *timetableServiceMock) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *timetableServiceMock) ListEntries(ctx context.Context, timetableID string) ([]models.TimetableEntryDetail, error) {
	return []models.TimetableEntryDetail{}, nil
}

func (m *timetableServiceMock) AddEntry(ctx context.Context, timetableID string, req service.EntryRequest) (*models.TimetableEntry, error) {
	return &models.TimetableEntry{ID: "e1", TimetableID: timetableID}, nil
}

func (m *timetableServiceMock) UpdateEntry(ctx context.Context, entryID string, patch service.EntryPatch) (*models.TimetableEntry, error) {
	return &models.TimetableEntry{ID: entryID}, nil
}

func (m *timetableServiceMock) DeleteEntry(ctx context.Context, entryID string) error {
	return nil
}

type exporterMock struct {
	format service.ExportFormat
	opts   service.ExportOptions
	err    error
}

func (m *exporterMock) Export(ctx context.Context, id string, format service.ExportFormat, opts service.ExportOptions) (*service.ExportFile, error) {
	m.format = format
	m.opts = opts
	if m.err != nil {
		return nil, m.err
	}
	return &service.ExportFile{Filename: "timetable-" + id + ".ics", ContentType: "text/calendar", Data: []byte("BEGIN:VCALENDAR")}, nil
}

func TestTimetableHandlerExportStreamsFile(t *testing.T) {
	exporter := &exporterMock{}
	handler := NewTimetableHandler(&timetableServiceMock{}, exporter)
	c, w := newJSONContext(t, http.MethodGet, "/timetables/tt-1/export?format=ICS&from=2026-10-19&weeks=4", nil)
	c.Params = gin.Params{{Key: "id", Value: "tt-1"}}

	handler.Export(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="timetable-tt-1.ics"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "text/calendar", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Header().Get("Last-Modified"))
	assert.Equal(t, "BEGIN:VCALENDAR", w.Body.String())
	assert.Equal(t, service.ExportFormatICS, exporter.format)
	assert.Equal(t, 4, exporter.opts.Weeks)
	assert.Equal(t, time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC), exporter.opts.From.UTC())
}

func TestTimetableHandlerExportRejectsBadQuery(t *testing.T) {
	handler := NewTimetableHandler(&timetableServiceMock{}, &exporterMock{})

	c, w := newJSONContext(t, http.MethodGet, "/timetables/tt-1/export?weeks=-1", nil)
	handler.Export(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	c, w = newJSONContext(t, http.MethodGet, "/timetables/tt-1/export?from=19-10-2026", nil)
	handler.Export(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTimetableHandlerExportUnknownFormat(t *testing.T) {
	exporter := &exporterMock{err: appErrors.Clone(appErrors.ErrValidation, "unsupported export format")}
	handler := NewTimetableHandler(&timetableServiceMock{}, exporter)
	c, w := newJSONContext(t, http.MethodGet, "/timetables/tt-1/export?format=docx", nil)
	c.Params = gin.Params{{Key: "id", Value: "tt-1"}}

	handler.Export(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, service.ExportFormat("docx"), exporter.format)
}

func TestTimetableHandlerDeleteAndGet(t *testing.T) {
	svc := &timetableServiceMock{}
	handler := NewTimetableHandler(svc, &exporterMock{})

	c, w := newJSONContext(t, http.MethodDelete, "/timetables/tt-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "tt-1"}}
	handler.Delete(c)
	assert.Equal(t, []string{"tt-1"}, svc.deleted)
	assert.Less(t, w.Code, 300)

	c, w = newJSONContext(t, http.MethodGet, "/timetables/missing", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}
	handler.Get(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-portal-api/internal/models"
	"github.com/noah-isme/campus-portal-api/pkg/export"
	appErrors "github.com/noah-isme/campus-portal-api/pkg/errors"
)

// ExportFormat names a supported timetable export encoding.
type ExportFormat string

const (
	ExportFormatCSV  ExportFormat = "csv"
	ExportFormatPDF  ExportFormat = "pdf"
	ExportFormatXLSX ExportFormat = "xlsx"
	ExportFormatICS  ExportFormat = "ics"
)

var exportContentTypes = map[ExportFormat]string{
	ExportFormatCSV:  "text/csv",
	ExportFormatPDF:  "application/pdf",
	ExportFormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	ExportFormatICS:  "text/calendar",
}

var dayNames = [...]string{"", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

var timetableHeaders = []string{"Day", "Start", "End", "Subject Code", "Subject", "Faculty", "Room"}

type timetableReader interface {
	Get(ctx context.Context, id string) (*models.TimetableDetail, error)
}

type tableRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type calendarRenderer interface {
	Render(name string, anchor time.Time, weeks int, events []export.WeeklyEvent) ([]byte, error)
}

// ExportOptions narrows calendar exports.
type ExportOptions struct {
	From  time.Time
	Weeks int
}

// ExportFile is a rendered export ready to stream.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// TimetableExportService renders timetables as CSV, PDF, XLSX or iCalendar.
type TimetableExportService struct {
	timetables timetableReader
	csv        csvRenderer
	pdf        tableRenderer
	xlsx       tableRenderer
	ics        calendarRenderer
	logger     *zap.Logger
}

// NewTimetableExportService constructs a TimetableExportService with the default renderers.
func NewTimetableExportService(timetables timetableReader, logger *zap.Logger) *TimetableExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableExportService{
		timetables: timetables,
		csv:        export.NewCSVExporter(),
		pdf:        export.NewPDFExporter(),
		xlsx:       export.NewXLSXExporter(),
		ics:        export.NewICSExporter("", nil),
		logger:     logger,
	}
}

// Export renders the timetable id in format.
func (s *TimetableExportService) Export(ctx context.Context, id string, format ExportFormat, opts ExportOptions) (*ExportFile, error) {
	contentType, ok := exportContentTypes[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	detail, err := s.timetables.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	title := timetableTitle(&detail.Timetable)
	var data []byte
	switch format {
	case ExportFormatCSV:
		data, err = s.csv.Render(timetableDataset(detail))
	case ExportFormatPDF:
		data, err = s.pdf.Render(timetableDataset(detail), title)
	case ExportFormatXLSX:
		data, err = s.xlsx.Render(timetableDataset(detail), title)
	case ExportFormatICS:
		from := opts.From
		if from.IsZero() {
			from = time.Now().UTC()
		}
		data, err = s.ics.Render(title, from, opts.Weeks, timetableEvents(detail))
	}
	if err != nil {
		s.logger.Error("failed to render timetable export",
			zap.String("timetable_id", id),
			zap.String("format", string(format)),
			zap.Error(err))
		return nil, appErrors.Internal(err, "failed to render timetable export")
	}
	return &ExportFile{
		Filename:    exportFilename(&detail.Timetable, format),
		ContentType: contentType,
		Data:        data,
	}, nil
}

func timetableDataset(detail *models.TimetableDetail) export.Dataset {
	rows := make([]map[string]string, 0, len(detail.Entries))
	for _, e := range detail.Entries {
		room := e.RoomNumber
		if e.ClassroomName != "" {
			room = fmt.Sprintf("%s (%s)", e.RoomNumber, e.ClassroomName)
		}
		rows = append(rows, map[string]string{
			"Day":          dayName(e.DayOfWeek),
			"Start":        e.StartTime.String(),
			"End":          e.EndTime.String(),
			"Subject Code": e.SubjectCode,
			"Subject":      e.SubjectName,
			"Faculty":      e.FacultyName,
			"Room":         room,
		})
	}
	return export.Dataset{Headers: timetableHeaders, Rows: rows}
}

func timetableEvents(detail *models.TimetableDetail) []export.WeeklyEvent {
	events := make([]export.WeeklyEvent, 0, len(detail.Entries))
	for _, e := range detail.Entries {
		events = append(events, export.WeeklyEvent{
			UID:         e.ID + "@campus-portal",
			Summary:     strings.TrimSpace(e.SubjectCode + " " + e.SubjectName),
			Location:    e.RoomNumber,
			Description: e.FacultyName,
			DayOfWeek:   e.DayOfWeek,
			StartMinute: int(e.StartTime),
			EndMinute:   int(e.EndTime),
		})
	}
	return events
}

func timetableTitle(tt *models.Timetable) string {
	parts := []string{tt.Name}
	if tt.Semester > 0 {
		parts = append(parts, "Semester "+strconv.Itoa(tt.Semester))
	}
	if tt.Section != "" {
		parts = append(parts, "Section "+tt.Section)
	}
	if tt.AcademicYear != "" {
		parts = append(parts, tt.AcademicYear)
	}
	return strings.Join(parts, " - ")
}

func exportFilename(tt *models.Timetable, format ExportFormat) string {
	return fmt.Sprintf("%s_%s.%s", sanitizeFilename(tt.Name), time.Now().UTC().Format("20060102"), format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "timetable"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func dayName(day int) string {
	if day < 1 || day > 7 {
		return strconv.Itoa(day)
	}
	return dayNames[day]
}

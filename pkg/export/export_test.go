package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleDataset() Dataset {
	return Dataset{
		Headers: []string{"Day", "Start", "Subject"},
		Rows: []map[string]string{
			{"Day": "Monday", "Start": "09:00", "Subject": "Algorithms, Part I"},
			{"Day": "Tuesday", "Start": "10:00"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.Equal(t, "Day,Start,Subject\nMonday,09:00,\"Algorithms, Part I\"\nTuesday,10:00,\n", string(out))

	_, err = NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestXLSXExporterRender(t *testing.T) {
	out, err := NewXLSXExporter().Render(sampleDataset(), "CS Semester 3")
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	title, err := f.GetCellValue("Timetable", "A1")
	require.NoError(t, err)
	assert.Equal(t, "CS Semester 3", title)
	header, _ := f.GetCellValue("Timetable", "C3")
	assert.Equal(t, "Subject", header)
	value, _ := f.GetCellValue("Timetable", "C4")
	assert.Equal(t, "Algorithms, Part I", value)
	assert.Equal(t, []string{"Timetable"}, f.GetSheetList())
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset(), "CS Semester 3")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))

	_, err = NewPDFExporter().Render(Dataset{}, "")
	assert.Error(t, err)
}

func TestICSExporterRender(t *testing.T) {
	exporter := NewICSExporter("", nil)
	anchor := time.Date(2026, 10, 21, 15, 0, 0, 0, time.UTC)
	out, err := exporter.Render("CS Semester 3", anchor, 4, []WeeklyEvent{
		{UID: "e1@campus", Summary: "Algorithms", Location: "Room 101", DayOfWeek: 1, StartMinute: 9 * 60, EndMinute: 10 * 60},
		{UID: "e2@campus", Summary: "Operating Systems", DayOfWeek: 5, StartMinute: 14 * 60, EndMinute: 15*60 + 30},
	})
	require.NoError(t, err)

	cal := string(out)
	assert.True(t, strings.HasPrefix(cal, "BEGIN:VCALENDAR"))
	assert.Contains(t, cal, "UID:e1@campus")
	assert.Contains(t, cal, "DTSTART:20261019T090000Z")
	assert.Contains(t, cal, "DTEND:20261019T100000Z")
	assert.Contains(t, cal, "RRULE:FREQ=WEEKLY;BYDAY=MO;COUNT=4")
	assert.Contains(t, cal, "DTSTART:20261023T140000Z")
	assert.Contains(t, cal, "RRULE:FREQ=WEEKLY;BYDAY=FR;COUNT=4")
	assert.Contains(t, cal, "LOCATION:Room 101")
	assert.Equal(t, 2, strings.Count(cal, "BEGIN:VEVENT"))
}

func TestICSExporterRejectsInvalidEvents(t *testing.T) {
	exporter := NewICSExporter("", nil)
	_, err := exporter.Render("", time.Now(), 0, []WeeklyEvent{{UID: "bad", DayOfWeek: 0, StartMinute: 60, EndMinute: 120}})
	assert.Error(t, err)
	_, err = exporter.Render("", time.Now(), 0, []WeeklyEvent{{UID: "bad", DayOfWeek: 2, StartMinute: 120, EndMinute: 120}})
	assert.Error(t, err)
}

func TestWeekStart(t *testing.T) {
	sunday := time.Date(2026, 10, 25, 18, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC), weekStart(sunday))
	monday := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, monday, weekStart(monday))
}

func TestDatasetRecordsFollowHeaderOrder(t *testing.T) {
	records := sampleDataset().Records()
	require.Len(t, records, 2)
	assert.Equal(t, []string{"Monday", "09:00", "Algorithms, Part I"}, records[0])
	assert.Equal(t, []string{"Tuesday", "10:00", ""}, records[1])

	_, err := NewXLSXExporter().Render(Dataset{}, "")
	assert.ErrorIs(t, err, ErrNoColumns)
}

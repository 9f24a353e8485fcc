package models

import (
	"time"

	"github.com/noah-isme/campus-portal-api/internal/timeslot"
)

// Timetable is a department's weekly teaching plan for one semester and section.
type Timetable struct {
	ID           string    `db:"id" json:"id"`
	DepartmentID string    `db:"department_id" json:"department_id"`
	Name         string    `db:"name" json:"name"`
	Semester     int       `db:"semester" json:"semester"`
	AcademicYear string    `db:"academic_year" json:"academic_year"`
	Section      string    `db:"section" json:"section"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// TimetableFilter describes query params for listing timetables.
type TimetableFilter struct {
	DepartmentID string
	Semester     int
	AcademicYear string
	PageRequest
}

// TimetableEntry places one subject, faculty member and room into a weekly slot.
type TimetableEntry struct {
	ID          string         `db:"id" json:"id"`
	TimetableID string         `db:"timetable_id" json:"timetable_id"`
	SubjectID   string         `db:"subject_id" json:"subject_id"`
	FacultyID   string         `db:"faculty_id" json:"faculty_id"`
	ClassroomID string         `db:"classroom_id" json:"classroom_id"`
	DayOfWeek   int            `db:"day_of_week" json:"day_of_week"`
	StartTime   timeslot.Clock `db:"start_time" json:"start_time"`
	EndTime     timeslot.Clock `db:"end_time" json:"end_time"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// ReservationID implements timeslot.Reservation.
func (e TimetableEntry) ReservationID() string { return e.ID }

// ReservationInterval implements timeslot.Reservation.
func (e TimetableEntry) ReservationInterval() timeslot.Interval {
	return timeslot.Weekly(e.DayOfWeek, e.StartTime, e.EndTime)
}

// TimetableEntryDetail is an entry joined with display names for views and exports.
type TimetableEntryDetail struct {
	TimetableEntry
	SubjectCode   string `db:"subject_code" json:"subject_code"`
	SubjectName   string `db:"subject_name" json:"subject_name"`
	FacultyName   string `db:"faculty_name" json:"faculty_name"`
	RoomNumber    string `db:"room_number" json:"room_number"`
	ClassroomName string `db:"classroom_name" json:"classroom_name"`
}

// TimetableDetail is a timetable with its entries ordered by day and start time.
type TimetableDetail struct {
	Timetable
	Entries []TimetableEntryDetail `json:"entries"`
}

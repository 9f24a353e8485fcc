package models

import "time"

// Department groups faculty, classrooms, subjects and timetables.
type Department struct {
	ID           string    `db:"id" json:"id"`
	Code         string    `db:"code" json:"code"`
	Name         string    `db:"name" json:"name"`
	HODFacultyID *string   `db:"hod_faculty_id" json:"hod_faculty_id,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// DepartmentFilter describes query params for listing departments.
type DepartmentFilter struct {
	Search string
	PageRequest
}

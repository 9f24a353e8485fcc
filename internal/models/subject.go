package models

import "time"

// Subject is a course offered by a department.
type Subject struct {
	ID           string    `db:"id" json:"id"`
	Code         string    `db:"code" json:"code"`
	Name         string    `db:"name" json:"name"`
	DepartmentID string    `db:"department_id" json:"department_id"`
	Credits      int       `db:"credits" json:"credits"`
	Semester     int       `db:"semester" json:"semester"`
	SubjectType  string    `db:"subject_type" json:"subject_type"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// SubjectFilter describes query params for listing subjects.
type SubjectFilter struct {
	DepartmentID string
	Semester     int
	Search       string
	PageRequest
}

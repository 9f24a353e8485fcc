package models

import "time"

// Faculty is a teaching staff member. Role is FACULTY or HOD.
type Faculty struct {
	ID           string    `db:"id" json:"id"`
	DepartmentID string    `db:"department_id" json:"department_id"`
	FullName     string    `db:"full_name" json:"full_name"`
	Email        string    `db:"email" json:"email"`
	Designation  string    `db:"designation" json:"designation"`
	Role         UserRole  `db:"role" json:"role"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// IsHOD reports whether the faculty member heads their department.
func (f *Faculty) IsHOD() bool {
	return f != nil && f.Role == RoleHOD
}

// FacultyFilter describes query params for listing faculty.
type FacultyFilter struct {
	DepartmentID string
	Role         UserRole
	Search       string
	PageRequest
}

package models

import "time"

// Resource is a shared facility (auditorium, lab, seminar hall) requested by HODs.
type Resource struct {
	ID           string     `db:"id" json:"id"`
	Name         string     `db:"name" json:"name"`
	ResourceType string     `db:"resource_type" json:"resource_type"`
	Capacity     int        `db:"capacity" json:"capacity"`
	Building     string     `db:"building" json:"building"`
	Floor        int        `db:"floor" json:"floor"`
	DepartmentID *string    `db:"department_id" json:"department_id,omitempty"`
	Equipment    StringList `db:"equipment" json:"equipment"`
	Facilities   StringList `db:"facilities" json:"facilities"`
	Active       bool       `db:"active" json:"active"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// ResourceFilter describes query params for listing resources.
type ResourceFilter struct {
	DepartmentID string
	ResourceType string
	ActiveOnly   bool
	PageRequest
}

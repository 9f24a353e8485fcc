package models

import "time"

// RoomType classifies a classroom.
type RoomType string

const (
	RoomTypeLecture RoomType = "lecture"
	RoomTypeLab     RoomType = "lab"
	RoomTypeSeminar RoomType = "seminar"
)

// Classroom is a bookable room. A nil DepartmentID marks a shared room.
type Classroom struct {
	ID           string     `db:"id" json:"id"`
	RoomNumber   string     `db:"room_number" json:"room_number"`
	Name         string     `db:"name" json:"name"`
	Capacity     int        `db:"capacity" json:"capacity"`
	Building     string     `db:"building" json:"building"`
	Floor        int        `db:"floor" json:"floor"`
	RoomType     RoomType   `db:"room_type" json:"room_type"`
	DepartmentID *string    `db:"department_id" json:"department_id,omitempty"`
	Features     StringList `db:"features" json:"features"`
	Active       bool       `db:"active" json:"active"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// ClassroomFilter describes query params for listing classrooms.
type ClassroomFilter struct {
	DepartmentID string
	RoomType     RoomType
	MinCapacity  int
	ActiveOnly   bool
	PageRequest
}

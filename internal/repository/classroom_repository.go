package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-portal-api/internal/models"
)

const classroomColumns = `id, room_number, name, capacity, building, floor, room_type, department_id, features, active, created_at, updated_at`

// ClassroomRepository provides persistence for classrooms.
type ClassroomRepository struct {
	db *sqlx.DB
}

// NewClassroomRepository creates a new classroom repository.
func NewClassroomRepository(db *sqlx.DB) *ClassroomRepository {
	return &ClassroomRepository{db: db}
}

// List returns classrooms with optional filters.
func (r *ClassroomRepository) List(ctx context.Context, filter models.ClassroomFilter) ([]models.Classroom, int, error) {
	var where whereBuilder
	if filter.DepartmentID != "" {
		where.add("department_id = $%d", filter.DepartmentID)
	}
	if filter.RoomType != "" {
		where.add("room_type = $%d", filter.RoomType)
	}
	if filter.MinCapacity > 0 {
		where.add("capacity >= $%d", filter.MinCapacity)
	}
	if filter.ActiveOnly {
		where.conditions = append(where.conditions, "active = TRUE")
	}
	base := "FROM classrooms" + where.clause()
	allowed := map[string]bool{"room_number": true, "capacity": true, "building": true, "created_at": true}
	query := "SELECT " + classroomColumns + " " + base + pageClause(filter.PageRequest, allowed, "room_number", "ASC")

	var rooms []models.Classroom
	if err := r.db.SelectContext(ctx, &rooms, query, where.args...); err != nil {
		return nil, 0, fmt.Errorf("list classrooms: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, where.args...); err != nil {
		return nil, 0, fmt.Errorf("count classrooms: %w", err)
	}
	return rooms, total, nil
}

// FindByID loads a classroom by id.
func (r *ClassroomRepository) FindByID(ctx context.Context, id string) (*models.Classroom, error) {
	query := `SELECT ` + classroomColumns + ` FROM classrooms WHERE id = $1`
	var room models.Classroom
	if err := r.db.GetContext(ctx, &room, query, id); err != nil {
		return nil, err
	}
	return &room, nil
}

// Create stores a new classroom.
func (r *ClassroomRepository) Create(ctx context.Context, room *models.Classroom) error {
	if room.ID == "" {
		room.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	room.CreatedAt = now
	room.UpdatedAt = now
	const query = `INSERT INTO classrooms (id, room_number, name, capacity, building, floor, room_type, department_id, features, active, created_at, updated_at)
	VALUES (:id, :room_number, :name, :capacity, :building, :floor, :room_type, :department_id, :features, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, room); err != nil {
		return fmt.Errorf("create classroom: %w", err)
	}
	return nil
}

// Update modifies a classroom.
func (r *ClassroomRepository) Update(ctx context.Context, room *models.Classroom) error {
	room.UpdatedAt = time.Now().UTC()
	const query = `UPDATE classrooms SET room_number = :room_number, name = :name, capacity = :capacity, building = :building,
	floor = :floor, room_type = :room_type, department_id = :department_id, features = :features, active = :active,
	updated_at = :updated_at WHERE id = :id`
	return namedExecOne(ctx, r.db, query, room, "update classroom")
}

// ExistsByRoomNumber checks uniqueness of a room number.
func (r *ClassroomRepository) ExistsByRoomNumber(ctx context.Context, roomNumber, excludeID string) (bool, error) {
	return existsCaseInsensitive(ctx, r.db, "classrooms", "room_number", roomNumber, excludeID)
}

// Delete removes a classroom.
func (r *ClassroomRepository) Delete(ctx context.Context, id string) error {
	return execOne(ctx, r.db, `DELETE FROM classrooms WHERE id = $1`, "delete classroom", id)
}

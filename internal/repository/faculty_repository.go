package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-portal-api/internal/models"
)

const facultyColumns = `id, department_id, full_name, email, designation, role, active, created_at, updated_at`

// FacultyRepository provides persistence for faculty members.
type FacultyRepository struct {
	db *sqlx.DB
}

// NewFacultyRepository creates a new faculty repository.
func NewFacultyRepository(db *sqlx.DB) *FacultyRepository {
	return &FacultyRepository{db: db}
}

// List returns faculty with optional filters.
func (r *FacultyRepository) List(ctx context.Context, filter models.FacultyFilter) ([]models.Faculty, int, error) {
	var where whereBuilder
	if filter.DepartmentID != "" {
		where.add("department_id = $%d", filter.DepartmentID)
	}
	if filter.Role != "" {
		where.add("role = $%d", filter.Role)
	}
	if filter.Search != "" {
		where.args = append(where.args, "%"+strings.ToLower(filter.Search)+"%")
		n := len(where.args)
		where.conditions = append(where.conditions, fmt.Sprintf("(LOWER(full_name) LIKE $%d OR LOWER(email) LIKE $%d)", n, n))
	}
	base := "FROM faculty" + where.clause()
	allowed := map[string]bool{"full_name": true, "email": true, "created_at": true}
	query := "SELECT " + facultyColumns + " " + base + pageClause(filter.PageRequest, allowed, "full_name", "ASC")

	var faculty []models.Faculty
	if err := r.db.SelectContext(ctx, &faculty, query, where.args...); err != nil {
		return nil, 0, fmt.Errorf("list faculty: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, where.args...); err != nil {
		return nil, 0, fmt.Errorf("count faculty: %w", err)
	}
	return faculty, total, nil
}

// FindByID loads a faculty member by id.
func (r *FacultyRepository) FindByID(ctx context.Context, id string) (*models.Faculty, error) {
	query := `SELECT ` + facultyColumns + ` FROM faculty WHERE id = $1`
	var f models.Faculty
	if err := r.db.GetContext(ctx, &f, query, id); err != nil {
		return nil, err
	}
	return &f, nil
}

// Create stores a new faculty member.
func (r *FacultyRepository) Create(ctx context.Context, f *models.Faculty) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if f.Role == "" {
		f.Role = models.RoleFaculty
	}
	now := time.Now().UTC()
	f.CreatedAt = now
	f.UpdatedAt = now
	const query = `INSERT INTO faculty (id, department_id, full_name, email, designation, role, active, created_at, updated_at)
	VALUES (:id, :department_id, :full_name, :email, :designation, :role, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, f); err != nil {
		return fmt.Errorf("create faculty: %w", err)
	}
	return nil
}

// Update modifies a faculty member.
func (r *FacultyRepository) Update(ctx context.Context, f *models.Faculty) error {
	f.UpdatedAt = time.Now().UTC()
	const query = `UPDATE faculty SET department_id = :department_id, full_name = :full_name, email = :email,
	designation = :designation, role = :role, active = :active, updated_at = :updated_at WHERE id = :id`
	return namedExecOne(ctx, r.db, query, f, "update faculty")
}

// ExistsByEmail checks uniqueness of a faculty email.
func (r *FacultyRepository) ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error) {
	return existsCaseInsensitive(ctx, r.db, "faculty", "email", email, excludeID)
}

// Delete removes a faculty member.
func (r *FacultyRepository) Delete(ctx context.Context, id string) error {
	return execOne(ctx, r.db, `DELETE FROM faculty WHERE id = $1`, "delete faculty", id)
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-portal-api/internal/models"
)

const departmentColumns = `id, code, name, hod_faculty_id, created_at, updated_at`

// DepartmentRepository provides persistence for departments.
type DepartmentRepository struct {
	db *sqlx.DB
}

// NewDepartmentRepository creates a new department repository.
func NewDepartmentRepository(db *sqlx.DB) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

// List returns departments with optional search and pagination.
func (r *DepartmentRepository) List(ctx context.Context, filter models.DepartmentFilter) ([]models.Department, int, error) {
	var where whereBuilder
	if filter.Search != "" {
		where.args = append(where.args, "%"+strings.ToLower(filter.Search)+"%")
		n := len(where.args)
		where.conditions = append(where.conditions, fmt.Sprintf("(LOWER(code) LIKE $%d OR LOWER(name) LIKE $%d)", n, n))
	}
	base := "FROM departments" + where.clause()
	allowed := map[string]bool{"code": true, "name": true, "created_at": true}
	query := "SELECT " + departmentColumns + " " + base + pageClause(filter.PageRequest, allowed, "code", "ASC")

	var departments []models.Department
	if err := r.db.SelectContext(ctx, &departments, query, where.args...); err != nil {
		return nil, 0, fmt.Errorf("list departments: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, where.args...); err != nil {
		return nil, 0, fmt.Errorf("count departments: %w", err)
	}
	return departments, total, nil
}

// FindByID loads a department by id.
func (r *DepartmentRepository) FindByID(ctx context.Context, id string) (*models.Department, error) {
	query := `SELECT ` + departmentColumns + ` FROM departments WHERE id = $1`
	var dept models.Department
	if err := r.db.GetContext(ctx, &dept, query, id); err != nil {
		return nil, err
	}
	return &dept, nil
}

// Create stores a new department.
func (r *DepartmentRepository) Create(ctx context.Context, dept *models.Department) error {
	if dept.ID == "" {
		dept.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	dept.CreatedAt = now
	dept.UpdatedAt = now
	const query = `INSERT INTO departments (id, code, name, hod_faculty_id, created_at, updated_at)
	VALUES (:id, :code, :name, :hod_faculty_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, dept); err != nil {
		return fmt.Errorf("create department: %w", err)
	}
	return nil
}

// Update modifies a department.
func (r *DepartmentRepository) Update(ctx context.Context, dept *models.Department) error {
	dept.UpdatedAt = time.Now().UTC()
	const query = `UPDATE departments SET code = :code, name = :name, hod_faculty_id = :hod_faculty_id, updated_at = :updated_at WHERE id = :id`
	return namedExecOne(ctx, r.db, query, dept, "update department")
}

// ExistsByCode checks uniqueness of a department code.
func (r *DepartmentRepository) ExistsByCode(ctx context.Context, code, excludeID string) (bool, error) {
	return existsCaseInsensitive(ctx, r.db, "departments", "code", code, excludeID)
}

// Delete removes a department.
func (r *DepartmentRepository) Delete(ctx context.Context, id string) error {
	return execOne(ctx, r.db, `DELETE FROM departments WHERE id = $1`, "delete department", id)
}

func namedExecOne(ctx context.Context, db sqlx.ExtContext, query string, arg interface{}, op string) error {
	res, err := sqlx.NamedExecContext(ctx, db, query, arg)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return requireAffected(res, op)
}

func execOne(ctx context.Context, db sqlx.ExecerContext, query, op string, args ...interface{}) error {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return requireAffected(res, op)
}

// requireAffected maps a zero-row write to sql.ErrNoRows so services can answer 404 or a
// state-guard error.
func requireAffected(res sql.Result, op string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

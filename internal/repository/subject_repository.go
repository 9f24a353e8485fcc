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

const subjectColumns = `id, code, name, department_id, credits, semester, subject_type, created_at, updated_at`

// SubjectRepository provides persistence for subjects.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository creates a new subject repository.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// List returns subjects with optional filters.
func (r *SubjectRepository) List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, int, error) {
	var where whereBuilder
	if filter.DepartmentID != "" {
		where.add("department_id = $%d", filter.DepartmentID)
	}
	if filter.Semester > 0 {
		where.add("semester = $%d", filter.Semester)
	}
	if filter.Search != "" {
		where.args = append(where.args, "%"+strings.ToLower(filter.Search)+"%")
		n := len(where.args)
		where.conditions = append(where.conditions, fmt.Sprintf("(LOWER(code) LIKE $%d OR LOWER(name) LIKE $%d)", n, n))
	}
	base := "FROM subjects" + where.clause()
	allowed := map[string]bool{"code": true, "name": true, "semester": true, "created_at": true}
	query := "SELECT " + subjectColumns + " " + base + pageClause(filter.PageRequest, allowed, "code", "ASC")

	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query, where.args...); err != nil {
		return nil, 0, fmt.Errorf("list subjects: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, where.args...); err != nil {
		return nil, 0, fmt.Errorf("count subjects: %w", err)
	}
	return subjects, total, nil
}

// FindByID loads a subject by id.
func (r *SubjectRepository) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	query := `SELECT ` + subjectColumns + ` FROM subjects WHERE id = $1`
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, query, id); err != nil {
		return nil, err
	}
	return &subject, nil
}

// FindByName looks a subject up by case-insensitive name within a department.
func (r *SubjectRepository) FindByName(ctx context.Context, departmentID, name string) (*models.Subject, error) {
	query := `SELECT ` + subjectColumns + ` FROM subjects WHERE department_id = $1 AND LOWER(name) = LOWER($2) ORDER BY created_at ASC LIMIT 1`
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, query, departmentID, strings.TrimSpace(name)); err != nil {
		return nil, err
	}
	return &subject, nil
}

// Create stores a new subject.
func (r *SubjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	if subject.ID == "" {
		subject.ID = uuid.NewString()
	}
	if subject.SubjectType == "" {
		subject.SubjectType = "theory"
	}
	now := time.Now().UTC()
	subject.CreatedAt = now
	subject.UpdatedAt = now
	const query = `INSERT INTO subjects (id, code, name, department_id, credits, semester, subject_type, created_at, updated_at)
	VALUES (:id, :code, :name, :department_id, :credits, :semester, :subject_type, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, subject); err != nil {
		return fmt.Errorf("create subject: %w", err)
	}
	return nil
}

// Update modifies a subject.
func (r *SubjectRepository) Update(ctx context.Context, subject *models.Subject) error {
	subject.UpdatedAt = time.Now().UTC()
	const query = `UPDATE subjects SET code = :code, name = :name, department_id = :department_id, credits = :credits,
	semester = :semester, subject_type = :subject_type, updated_at = :updated_at WHERE id = :id`
	return namedExecOne(ctx, r.db, query, subject, "update subject")
}

// ExistsByCode checks uniqueness of a subject code.
func (r *SubjectRepository) ExistsByCode(ctx context.Context, code, excludeID string) (bool, error) {
	return existsCaseInsensitive(ctx, r.db, "subjects", "code", code, excludeID)
}

// Delete removes a subject.
func (r *SubjectRepository) Delete(ctx context.Context, id string) error {
	return execOne(ctx, r.db, `DELETE FROM subjects WHERE id = $1`, "delete subject", id)
}

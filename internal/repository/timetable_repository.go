package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-portal-api/internal/models"
)

const (
	timetableColumns = `id, department_id, name, semester, academic_year, section, active, created_at, updated_at`
	entryColumns     = `id, timetable_id, subject_id, faculty_id, classroom_id, day_of_week, start_time, end_time, created_at, updated_at`
)

// TimetableRepository persists timetables and their entries.
type TimetableRepository struct {
	db *sqlx.DB
}

// NewTimetableRepository creates a new timetable repository.
func NewTimetableRepository(db *sqlx.DB) *TimetableRepository {
	return &TimetableRepository{db: db}
}

// List returns timetables with optional filters.
func (r *TimetableRepository) List(ctx context.Context, filter models.TimetableFilter) ([]models.Timetable, int, error) {
	var where whereBuilder
	if filter.DepartmentID != "" {
		where.add("department_id = $%d", filter.DepartmentID)
	}
	if filter.Semester > 0 {
		where.add("semester = $%d", filter.Semester)
	}
	if filter.AcademicYear != "" {
		where.add("academic_year = $%d", filter.AcademicYear)
	}
	base := "FROM timetables" + where.clause()
	allowed := map[string]bool{"name": true, "semester": true, "created_at": true}
	query := "SELECT " + timetableColumns + " " + base + pageClause(filter.PageRequest, allowed, "created_at", "DESC")

	var timetables []models.Timetable
	if err := r.db.SelectContext(ctx, &timetables, query, where.args...); err != nil {
		return nil, 0, fmt.Errorf("list timetables: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, where.args...); err != nil {
		return nil, 0, fmt.Errorf("count timetables: %w", err)
	}
	return timetables, total, nil
}

// FindByID loads a timetable by id.
func (r *TimetableRepository) FindByID(ctx context.Context, id string) (*models.Timetable, error) {
	query := `SELECT ` + timetableColumns + ` FROM timetables WHERE id = $1`
	var tt models.Timetable
	if err := r.db.GetContext(ctx, &tt, query, id); err != nil {
		return nil, err
	}
	return &tt, nil
}

// FindActiveByName returns the oldest active timetable with name in a department.
func (r *TimetableRepository) FindActiveByName(ctx context.Context, departmentID, name string) (*models.Timetable, error) {
	query := `SELECT ` + timetableColumns + ` FROM timetables WHERE department_id = $1 AND name = $2 AND active = TRUE ORDER BY created_at ASC LIMIT 1`
	var tt models.Timetable
	if err := r.db.GetContext(ctx, &tt, query, departmentID, name); err != nil {
		return nil, err
	}
	return &tt, nil
}

// Create stores a new timetable.
func (r *TimetableRepository) Create(ctx context.Context, tt *models.Timetable) error {
	if tt.ID == "" {
		tt.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	tt.CreatedAt = now
	tt.UpdatedAt = now
	const query = `INSERT INTO timetables (id, department_id, name, semester, academic_year, section, active, created_at, updated_at)
	VALUES (:id, :department_id, :name, :semester, :academic_year, :section, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, tt); err != nil {
		return fmt.Errorf("create timetable: %w", err)
	}
	return nil
}

// Update modifies a timetable header.
func (r *TimetableRepository) Update(ctx context.Context, tt *models.Timetable) error {
	tt.UpdatedAt = time.Now().UTC()
	const query = `UPDATE timetables SET department_id = :department_id, name = :name, semester = :semester,
	academic_year = :academic_year, section = :section, active = :active, updated_at = :updated_at WHERE id = :id`
	return namedExecOne(ctx, r.db, query, tt, "update timetable")
}

// Delete removes a timetable together with its entries in one transaction and returns the number
// of entries removed.
func (r *TimetableRepository) Delete(ctx context.Context, id string) (int64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin delete timetable tx: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM timetable_entries WHERE timetable_id = $1`, id)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("delete timetable entries: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("delete timetable entries rows affected: %w", err)
	}
	if err := execOne(ctx, tx, `DELETE FROM timetables WHERE id = $1`, "delete timetable", id); err != nil {
		_ = tx.Rollback()
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit delete timetable tx: %w", err)
	}
	return removed, nil
}

// ListEntryDetails returns a timetable's entries joined with display names, ordered by day then
// start time.
func (r *TimetableRepository) ListEntryDetails(ctx context.Context, timetableID string) ([]models.TimetableEntryDetail, error) {
	const query = `SELECT e.id, e.timetable_id, e.subject_id, e.faculty_id, e.classroom_id, e.day_of_week, e.start_time, e.end_time,
	e.created_at, e.updated_at, s.code AS subject_code, s.name AS subject_name, f.full_name AS faculty_name,
	c.room_number, c.name AS classroom_name
	FROM timetable_entries e
	JOIN subjects s ON s.id = e.subject_id
	JOIN faculty f ON f.id = e.faculty_id
	JOIN classrooms c ON c.id = e.classroom_id
	WHERE e.timetable_id = $1
	ORDER BY e.day_of_week ASC, e.start_time ASC`
	var entries []models.TimetableEntryDetail
	if err := r.db.SelectContext(ctx, &entries, query, timetableID); err != nil {
		return nil, fmt.Errorf("list timetable entries: %w", err)
	}
	return entries, nil
}

// FindEntryByID loads an entry by id.
func (r *TimetableRepository) FindEntryByID(ctx context.Context, id string) (*models.TimetableEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM timetable_entries WHERE id = $1`
	var entry models.TimetableEntry
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListEntriesByFaculty returns every entry taught by facultyID on day, across all timetables.
func (r *TimetableRepository) ListEntriesByFaculty(ctx context.Context, facultyID string, day int) ([]models.TimetableEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM timetable_entries WHERE faculty_id = $1 AND day_of_week = $2 ORDER BY start_time ASC`
	var entries []models.TimetableEntry
	if err := r.db.SelectContext(ctx, &entries, query, facultyID, day); err != nil {
		return nil, fmt.Errorf("list entries by faculty: %w", err)
	}
	return entries, nil
}

// ListEntriesByClassroom returns every entry held in classroomID on day, across all timetables.
func (r *TimetableRepository) ListEntriesByClassroom(ctx context.Context, classroomID string, day int) ([]models.TimetableEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM timetable_entries WHERE classroom_id = $1 AND day_of_week = $2 ORDER BY start_time ASC`
	var entries []models.TimetableEntry
	if err := r.db.SelectContext(ctx, &entries, query, classroomID, day); err != nil {
		return nil, fmt.Errorf("list entries by classroom: %w", err)
	}
	return entries, nil
}

// CreateEntry inserts a timetable entry.
func (r *TimetableRepository) CreateEntry(ctx context.Context, entry *models.TimetableEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	entry.CreatedAt = now
	entry.UpdatedAt = now
	const query = `INSERT INTO timetable_entries (id, timetable_id, subject_id, faculty_id, classroom_id, day_of_week, start_time, end_time, created_at, updated_at)
	VALUES (:id, :timetable_id, :subject_id, :faculty_id, :classroom_id, :day_of_week, :start_time, :end_time, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("create timetable entry: %w", err)
	}
	return nil
}

// UpdateEntry modifies a timetable entry.
func (r *TimetableRepository) UpdateEntry(ctx context.Context, entry *models.TimetableEntry) error {
	entry.UpdatedAt = time.Now().UTC()
	const query = `UPDATE timetable_entries SET subject_id = :subject_id, faculty_id = :faculty_id, classroom_id = :classroom_id,
	day_of_week = :day_of_week, start_time = :start_time, end_time = :end_time, updated_at = :updated_at WHERE id = :id`
	return namedExecOne(ctx, r.db, query, entry, "update timetable entry")
}

// DeleteEntry removes a timetable entry.
func (r *TimetableRepository) DeleteEntry(ctx context.Context, id string) error {
	return execOne(ctx, r.db, `DELETE FROM timetable_entries WHERE id = $1`, "delete timetable entry", id)
}

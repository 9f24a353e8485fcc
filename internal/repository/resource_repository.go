package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-portal-api/internal/models"
)

const resourceColumns = `id, name, resource_type, capacity, building, floor, department_id, equipment, facilities, active, created_at, updated_at`

// ResourceRepository provides persistence for shared resources.
type ResourceRepository struct {
	db *sqlx.DB
}

// NewResourceRepository creates a new resource repository.
func NewResourceRepository(db *sqlx.DB) *ResourceRepository {
	return &ResourceRepository{db: db}
}

// List returns resources with optional filters.
func (r *ResourceRepository) List(ctx context.Context, filter models.ResourceFilter) ([]models.Resource, int, error) {
	var where whereBuilder
	if filter.DepartmentID != "" {
		where.add("department_id = $%d", filter.DepartmentID)
	}
	if filter.ResourceType != "" {
		where.add("resource_type = $%d", filter.ResourceType)
	}
	if filter.ActiveOnly {
		where.conditions = append(where.conditions, "active = TRUE")
	}
	base := "FROM resources" + where.clause()
	allowed := map[string]bool{"name": true, "capacity": true, "resource_type": true, "created_at": true}
	query := "SELECT " + resourceColumns + " " + base + pageClause(filter.PageRequest, allowed, "name", "ASC")

	var resources []models.Resource
	if err := r.db.SelectContext(ctx, &resources, query, where.args...); err != nil {
		return nil, 0, fmt.Errorf("list resources: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, where.args...); err != nil {
		return nil, 0, fmt.Errorf("count resources: %w", err)
	}
	return resources, total, nil
}

// FindByID loads a resource by id.
func (r *ResourceRepository) FindByID(ctx context.Context, id string) (*models.Resource, error) {
	query := `SELECT ` + resourceColumns + ` FROM resources WHERE id = $1`
	var res models.Resource
	if err := r.db.GetContext(ctx, &res, query, id); err != nil {
		return nil, err
	}
	return &res, nil
}

// Create stores a new resource.
func (r *ResourceRepository) Create(ctx context.Context, res *models.Resource) error {
	if res.ID == "" {
		res.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	res.CreatedAt = now
	res.UpdatedAt = now
	const query = `INSERT INTO resources (id, name, resource_type, capacity, building, floor, department_id, equipment, facilities, active, created_at, updated_at)
	VALUES (:id, :name, :resource_type, :capacity, :building, :floor, :department_id, :equipment, :facilities, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, res); err != nil {
		return fmt.Errorf("create resource: %w", err)
	}
	return nil
}

// Update modifies a resource.
func (r *ResourceRepository) Update(ctx context.Context, res *models.Resource) error {
	res.UpdatedAt = time.Now().UTC()
	const query = `UPDATE resources SET name = :name, resource_type = :resource_type, capacity = :capacity, building = :building,
	floor = :floor, department_id = :department_id, equipment = :equipment, facilities = :facilities, active = :active,
	updated_at = :updated_at WHERE id = :id`
	return namedExecOne(ctx, r.db, query, res, "update resource")
}

// Delete removes a resource.
func (r *ResourceRepository) Delete(ctx context.Context, id string) error {
	return execOne(ctx, r.db, `DELETE FROM resources WHERE id = $1`, "delete resource", id)
}

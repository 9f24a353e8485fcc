package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-portal-api/internal/models"
	appErrors "github.com/noah-isme/campus-portal-api/pkg/errors"
)

type resourceRepository interface {
	List(ctx context.Context, filter models.ResourceFilter) ([]models.Resource, int, error)
	FindByID(ctx context.Context, id string) (*models.Resource, error)
	Create(ctx context.Context, res *models.Resource) error
	Update(ctx context.Context, res *models.Resource) error
	Delete(ctx context.Context, id string) error
}

// UpsertResourceRequest is the payload for creating or replacing a resource.
type UpsertResourceRequest struct {
	Name         string   `json:"name" validate:"required,max=255"`
	ResourceType string   `json:"resource_type" validate:"required,max=32"`
	Capacity     int      `json:"capacity" validate:"gte=0"`
	Building     string   `json:"building" validate:"max=128"`
	Floor        int      `json:"floor"`
	DepartmentID *string  `json:"department_id"`
	Equipment    []string `json:"equipment"`
	Facilities   []string `json:"facilities"`
	Active       *bool    `json:"active"`
}

// ResourceService manages shared resources.
type ResourceService struct {
	repo      resourceRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewResourceService constructs a ResourceService.
func NewResourceService(repo resourceRepository, validate *validator.Validate, logger *zap.Logger) *ResourceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResourceService{repo: repo, validator: validate, logger: logger}
}

// List returns resources with pagination metadata.
func (s *ResourceService) List(ctx context.Context, filter models.ResourceFilter) ([]models.Resource, *models.Pagination, error) {
	resources, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list resources")
	}
	return resources, filter.Pagination(total), nil
}

// Get returns a resource by id.
func (s *ResourceService) Get(ctx context.Context, id string) (*models.Resource, error) {
	res, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "resource not found", "failed to load resource")
	}
	return res, nil
}

// Create stores a new resource.
func (s *ResourceService) Create(ctx context.Context, req UpsertResourceRequest) (*models.Resource, error) {
	res := &models.Resource{Active: true}
	if err := s.apply(res, req); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, res); err != nil {
		return nil, storeError(err, "resource not found", "failed to create resource")
	}
	return res, nil
}

// Update replaces a resource's fields.
func (s *ResourceService) Update(ctx context.Context, id string, req UpsertResourceRequest) (*models.Resource, error) {
	res, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(res, req); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, res); err != nil {
		return nil, storeError(err, "resource not found", "failed to update resource")
	}
	return res, nil
}

// Delete removes a resource.
func (s *ResourceService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return storeError(err, "resource not found", "failed to delete resource")
	}
	return nil
}

func (s *ResourceService) apply(res *models.Resource, req UpsertResourceRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Invalid(err, "invalid resource payload")
	}
	res.Name = strings.TrimSpace(req.Name)
	res.ResourceType = strings.ToLower(strings.TrimSpace(req.ResourceType))
	res.Capacity = req.Capacity
	res.Building = strings.TrimSpace(req.Building)
	res.Floor = req.Floor
	res.DepartmentID = nonEmpty(req.DepartmentID)
	res.Equipment = models.StringList(req.Equipment)
	res.Facilities = models.StringList(req.Facilities)
	if req.Active != nil {
		res.Active = *req.Active
	}
	return nil
}

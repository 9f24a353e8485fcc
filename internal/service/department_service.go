package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-portal-api/internal/models"
	appErrors "github.com/noah-isme/campus-portal-api/pkg/errors"
)

type departmentRepository interface {
	List(ctx context.Context, filter models.DepartmentFilter) ([]models.Department, int, error)
	FindByID(ctx context.Context, id string) (*models.Department, error)
	Create(ctx context.Context, dept *models.Department) error
	Update(ctx context.Context, dept *models.Department) error
	Delete(ctx context.Context, id string) error
	ExistsByCode(ctx context.Context, code, excludeID string) (bool, error)
}

// UpsertDepartmentRequest is the payload for creating or replacing a department.
type UpsertDepartmentRequest struct {
	Code         string  `json:"code" validate:"required,max=32"`
	Name         string  `json:"name" validate:"required,max=255"`
	HODFacultyID *string `json:"hod_faculty_id"`
}

// DepartmentService manages departments.
type DepartmentService struct {
	repo      departmentRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewDepartmentService constructs a DepartmentService.
func NewDepartmentService(repo departmentRepository, validate *validator.Validate, logger *zap.Logger) *DepartmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DepartmentService{repo: repo, validator: validate, logger: logger}
}

// List returns departments with pagination metadata.
func (s *DepartmentService) List(ctx context.Context, filter models.DepartmentFilter) ([]models.Department, *models.Pagination, error) {
	departments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list departments")
	}
	return departments, filter.Pagination(total), nil
}

// Get returns a department by id.
func (s *DepartmentService) Get(ctx context.Context, id string) (*models.Department, error) {
	dept, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "department not found", "failed to load department")
	}
	return dept, nil
}

// Create stores a new department.
func (s *DepartmentService) Create(ctx context.Context, req UpsertDepartmentRequest) (*models.Department, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid department payload")
	}
	dept := &models.Department{
		Code:         strings.ToUpper(strings.TrimSpace(req.Code)),
		Name:         strings.TrimSpace(req.Name),
		HODFacultyID: req.HODFacultyID,
	}
	if err := s.ensureUniqueCode(ctx, dept.Code, ""); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, dept); err != nil {
		return nil, storeError(err, "department not found", "failed to create department")
	}
	return dept, nil
}

// Update replaces a department's fields.
func (s *DepartmentService) Update(ctx context.Context, id string, req UpsertDepartmentRequest) (*models.Department, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid department payload")
	}
	dept, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	dept.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	dept.Name = strings.TrimSpace(req.Name)
	dept.HODFacultyID = req.HODFacultyID
	if err := s.ensureUniqueCode(ctx, dept.Code, id); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, dept); err != nil {
		return nil, storeError(err, "department not found", "failed to update department")
	}
	return dept, nil
}

// Delete removes a department.
func (s *DepartmentService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return storeError(err, "department not found", "failed to delete department")
	}
	return nil
}

func (s *DepartmentService) ensureUniqueCode(ctx context.Context, code, excludeID string) error {
	exists, err := s.repo.ExistsByCode(ctx, code, excludeID)
	if err != nil {
		return appErrors.Internal(err, "failed to check department code")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "department code already exists")
	}
	return nil
}

package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-portal-api/internal/models"
	appErrors "github.com/noah-isme/campus-portal-api/pkg/errors"
)

type facultyRepository interface {
	List(ctx context.Context, filter models.FacultyFilter) ([]models.Faculty, int, error)
	FindByID(ctx context.Context, id string) (*models.Faculty, error)
	Create(ctx context.Context, f *models.Faculty) error
	Update(ctx context.Context, f *models.Faculty) error
	Delete(ctx context.Context, id string) error
	ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error)
}

// UpsertFacultyRequest is the payload for creating or replacing a faculty member.
type UpsertFacultyRequest struct {
	DepartmentID string          `json:"department_id" validate:"required"`
	FullName     string          `json:"full_name" validate:"required,max=255"`
	Email        string          `json:"email" validate:"required,email"`
	Designation  string          `json:"designation" validate:"max=255"`
	Role         models.UserRole `json:"role" validate:"omitempty,oneof=FACULTY HOD"`
	Active       *bool           `json:"active"`
}

// FacultyService manages faculty members.
type FacultyService struct {
	repo      facultyRepository
	depts     departmentRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewFacultyService constructs a FacultyService.
func NewFacultyService(repo facultyRepository, depts departmentRepository, validate *validator.Validate, logger *zap.Logger) *FacultyService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FacultyService{repo: repo, depts: depts, validator: validate, logger: logger}
}

// List returns faculty with pagination metadata.
func (s *FacultyService) List(ctx context.Context, filter models.FacultyFilter) ([]models.Faculty, *models.Pagination, error) {
	faculty, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list faculty")
	}
	return faculty, filter.Pagination(total), nil
}

// Get returns a faculty member by id.
func (s *FacultyService) Get(ctx context.Context, id string) (*models.Faculty, error) {
	f, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "faculty not found", "failed to load faculty")
	}
	return f, nil
}

// Create stores a new faculty member.
func (s *FacultyService) Create(ctx context.Context, req UpsertFacultyRequest) (*models.Faculty, error) {
	f := &models.Faculty{Active: true}
	if err := s.apply(ctx, f, req); err != nil {
		return nil, err
	}
	if err := s.ensureUniqueEmail(ctx, f.Email, ""); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, f); err != nil {
		return nil, storeError(err, "faculty not found", "failed to create faculty")
	}
	return f, nil
}

// Update replaces a faculty member's fields.
func (s *FacultyService) Update(ctx context.Context, id string, req UpsertFacultyRequest) (*models.Faculty, error) {
	f, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, f, req); err != nil {
		return nil, err
	}
	if err := s.ensureUniqueEmail(ctx, f.Email, id); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, f); err != nil {
		return nil, storeError(err, "faculty not found", "failed to update faculty")
	}
	return f, nil
}

// Delete removes a faculty member.
func (s *FacultyService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return storeError(err, "faculty not found", "failed to delete faculty")
	}
	return nil
}

func (s *FacultyService) ensureUniqueEmail(ctx context.Context, email, excludeID string) error {
	exists, err := s.repo.ExistsByEmail(ctx, email, excludeID)
	if err != nil {
		return appErrors.Internal(err, "failed to check faculty email")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "faculty email already exists")
	}
	return nil
}

func (s *FacultyService) apply(ctx context.Context, f *models.Faculty, req UpsertFacultyRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Invalid(err, "invalid faculty payload")
	}
	if _, err := s.depts.FindByID(ctx, req.DepartmentID); err != nil {
		return storeError(err, "department not found", "failed to load department")
	}
	f.DepartmentID = req.DepartmentID
	f.FullName = strings.TrimSpace(req.FullName)
	f.Email = strings.ToLower(strings.TrimSpace(req.Email))
	f.Designation = strings.TrimSpace(req.Designation)
	f.Role = req.Role
	if f.Role == "" {
		f.Role = models.RoleFaculty
	}
	if req.Active != nil {
		f.Active = *req.Active
	}
	return nil
}

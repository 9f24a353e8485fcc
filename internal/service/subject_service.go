package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-portal-api/internal/models"
	appErrors "github.com/noah-isme/campus-portal-api/pkg/errors"
)

type subjectRepository interface {
	List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, int, error)
	FindByID(ctx context.Context, id string) (*models.Subject, error)
	FindByName(ctx context.Context, departmentID, name string) (*models.Subject, error)
	Create(ctx context.Context, subject *models.Subject) error
	Update(ctx context.Context, subject *models.Subject) error
	Delete(ctx context.Context, id string) error
	ExistsByCode(ctx context.Context, code, excludeID string) (bool, error)
}

// UpsertSubjectRequest is the payload for creating or replacing a subject.
type UpsertSubjectRequest struct {
	Code         string `json:"code" validate:"required,max=32"`
	Name         string `json:"name" validate:"required,max=255"`
	DepartmentID string `json:"department_id" validate:"required"`
	Credits      int    `json:"credits" validate:"gte=0,lte=30"`
	Semester     int    `json:"semester" validate:"gte=0,lte=12"`
	SubjectType  string `json:"subject_type" validate:"omitempty,oneof=theory lab"`
}

// SubjectService manages subjects.
type SubjectService struct {
	repo      subjectRepository
	depts     departmentRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSubjectService constructs a SubjectService.
func NewSubjectService(repo subjectRepository, depts departmentRepository, validate *validator.Validate, logger *zap.Logger) *SubjectService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubjectService{repo: repo, depts: depts, validator: validate, logger: logger}
}

// List returns subjects with pagination metadata.
func (s *SubjectService) List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, *models.Pagination, error) {
	subjects, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list subjects")
	}
	return subjects, filter.Pagination(total), nil
}

// Get returns a subject by id.
func (s *SubjectService) Get(ctx context.Context, id string) (*models.Subject, error) {
	subject, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "subject not found", "failed to load subject")
	}
	return subject, nil
}

// Create stores a new subject.
func (s *SubjectService) Create(ctx context.Context, req UpsertSubjectRequest) (*models.Subject, error) {
	subject := &models.Subject{}
	if err := s.apply(ctx, subject, req); err != nil {
		return nil, err
	}
	if err := s.ensureUniqueCode(ctx, subject.Code, ""); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, subject); err != nil {
		return nil, storeError(err, "subject not found", "failed to create subject")
	}
	return subject, nil
}

// Update replaces a subject's fields.
func (s *SubjectService) Update(ctx context.Context, id string, req UpsertSubjectRequest) (*models.Subject, error) {
	subject, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, subject, req); err != nil {
		return nil, err
	}
	if err := s.ensureUniqueCode(ctx, subject.Code, id); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, subject); err != nil {
		return nil, storeError(err, "subject not found", "failed to update subject")
	}
	return subject, nil
}

// Delete removes a subject.
func (s *SubjectService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return storeError(err, "subject not found", "failed to delete subject")
	}
	return nil
}

func (s *SubjectService) ensureUniqueCode(ctx context.Context, code, excludeID string) error {
	exists, err := s.repo.ExistsByCode(ctx, code, excludeID)
	if err != nil {
		return appErrors.Internal(err, "failed to check subject code")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "subject code already exists")
	}
	return nil
}

func (s *SubjectService) apply(ctx context.Context, subject *models.Subject, req UpsertSubjectRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Invalid(err, "invalid subject payload")
	}
	if _, err := s.depts.FindByID(ctx, req.DepartmentID); err != nil {
		return storeError(err, "department not found", "failed to load department")
	}
	subject.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	subject.Name = strings.TrimSpace(req.Name)
	subject.DepartmentID = req.DepartmentID
	subject.Credits = req.Credits
	subject.Semester = req.Semester
	subject.SubjectType = req.SubjectType
	if subject.SubjectType == "" {
		subject.SubjectType = "theory"
	}
	return nil
}

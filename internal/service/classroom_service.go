package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-portal-api/internal/models"
	appErrors "github.com/noah-isme/campus-portal-api/pkg/errors"
)

type classroomRepository interface {
	List(ctx context.Context, filter models.ClassroomFilter) ([]models.Classroom, int, error)
	FindByID(ctx context.Context, id string) (*models.Classroom, error)
	Create(ctx context.Context, room *models.Classroom) error
	Update(ctx context.Context, room *models.Classroom) error
	Delete(ctx context.Context, id string) error
	ExistsByRoomNumber(ctx context.Context, roomNumber, excludeID string) (bool, error)
}

// UpsertClassroomRequest is the payload for creating or replacing a classroom.
type UpsertClassroomRequest struct {
	RoomNumber   string          `json:"room_number" validate:"required,max=32"`
	Name         string          `json:"name" validate:"max=255"`
	Capacity     int             `json:"capacity" validate:"required,gt=0"`
	Building     string          `json:"building" validate:"max=128"`
	Floor        int             `json:"floor"`
	RoomType     models.RoomType `json:"room_type" validate:"required,oneof=lecture lab seminar"`
	DepartmentID *string         `json:"department_id"`
	Features     []string        `json:"features"`
	Active       *bool           `json:"active"`
}

// ClassroomService manages classrooms.
type ClassroomService struct {
	repo      classroomRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClassroomService constructs a ClassroomService.
func NewClassroomService(repo classroomRepository, validate *validator.Validate, logger *zap.Logger) *ClassroomService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassroomService{repo: repo, validator: validate, logger: logger}
}

// List returns classrooms with pagination metadata.
func (s *ClassroomService) List(ctx context.Context, filter models.ClassroomFilter) ([]models.Classroom, *models.Pagination, error) {
	rooms, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list classrooms")
	}
	return rooms, filter.Pagination(total), nil
}

// Get returns a classroom by id.
func (s *ClassroomService) Get(ctx context.Context, id string) (*models.Classroom, error) {
	room, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "classroom not found", "failed to load classroom")
	}
	return room, nil
}

// Create stores a new classroom.
func (s *ClassroomService) Create(ctx context.Context, req UpsertClassroomRequest) (*models.Classroom, error) {
	room := &models.Classroom{Active: true}
	if err := s.apply(room, req); err != nil {
		return nil, err
	}
	if err := s.ensureUniqueRoom(ctx, room.RoomNumber, ""); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, room); err != nil {
		return nil, storeError(err, "classroom not found", "failed to create classroom")
	}
	return room, nil
}

// Update replaces a classroom's fields.
func (s *ClassroomService) Update(ctx context.Context, id string, req UpsertClassroomRequest) (*models.Classroom, error) {
	room, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(room, req); err != nil {
		return nil, err
	}
	if err := s.ensureUniqueRoom(ctx, room.RoomNumber, id); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, room); err != nil {
		return nil, storeError(err, "classroom not found", "failed to update classroom")
	}
	return room, nil
}

// Delete removes a classroom.
func (s *ClassroomService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return storeError(err, "classroom not found", "failed to delete classroom")
	}
	return nil
}

func (s *ClassroomService) ensureUniqueRoom(ctx context.Context, roomNumber, excludeID string) error {
	exists, err := s.repo.ExistsByRoomNumber(ctx, roomNumber, excludeID)
	if err != nil {
		return appErrors.Internal(err, "failed to check room number")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "room number already exists")
	}
	return nil
}

func (s *ClassroomService) apply(room *models.Classroom, req UpsertClassroomRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Invalid(err, "invalid classroom payload")
	}
	room.RoomNumber = strings.TrimSpace(req.RoomNumber)
	room.Name = strings.TrimSpace(req.Name)
	room.Capacity = req.Capacity
	room.Building = strings.TrimSpace(req.Building)
	room.Floor = req.Floor
	room.RoomType = req.RoomType
	room.DepartmentID = nonEmpty(req.DepartmentID)
	room.Features = models.StringList(req.Features)
	if req.Active != nil {
		room.Active = *req.Active
	}
	return nil
}

// nonEmpty normalises blank optional ids to nil so shared rooms and resources store NULL.
func nonEmpty(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

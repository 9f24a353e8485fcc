package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-portal-api/internal/models"
	"github.com/noah-isme/campus-portal-api/internal/timeslot"
	appErrors "github.com/noah-isme/campus-portal-api/pkg/errors"
)

type timeSlotRepository interface {
	List(ctx context.Context) ([]models.TimeSlot, error)
	FindByID(ctx context.Context, id string) (*models.TimeSlot, error)
	Create(ctx context.Context, slot *models.TimeSlot) error
	Update(ctx context.Context, slot *models.TimeSlot) error
	Delete(ctx context.Context, id string) error
}

// UpsertTimeSlotRequest is the payload for creating or replacing a time slot.
type UpsertTimeSlotRequest struct {
	Label     string         `json:"label" validate:"required,max=64"`
	StartTime timeslot.Clock `json:"start_time"`
	EndTime   timeslot.Clock `json:"end_time"`
	SlotOrder int            `json:"slot_order" validate:"gte=0"`
}

// TimeSlotService manages named teaching periods.
type TimeSlotService struct {
	repo      timeSlotRepository
	validator *validator.Validate
}

// NewTimeSlotService constructs a TimeSlotService.
func NewTimeSlotService(repo timeSlotRepository, validate *validator.Validate) *TimeSlotService {
	if validate == nil {
		validate = validator.New()
	}
	return &TimeSlotService{repo: repo, validator: validate}
}

// List returns every time slot in period order.
func (s *TimeSlotService) List(ctx context.Context) ([]models.TimeSlot, error) {
	slots, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list time slots")
	}
	return slots, nil
}

// Get returns a time slot by id.
func (s *TimeSlotService) Get(ctx context.Context, id string) (*models.TimeSlot, error) {
	slot, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "time slot not found", "failed to load time slot")
	}
	return slot, nil
}

// Create stores a new time slot.
func (s *TimeSlotService) Create(ctx context.Context, req UpsertTimeSlotRequest) (*models.TimeSlot, error) {
	slot := &models.TimeSlot{}
	if err := s.apply(slot, req); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, slot); err != nil {
		return nil, storeError(err, "time slot not found", "failed to create time slot")
	}
	return slot, nil
}

// Update replaces a time slot's fields.
func (s *TimeSlotService) Update(ctx context.Context, id string, req UpsertTimeSlotRequest) (*models.TimeSlot, error) {
	slot, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(slot, req); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, slot); err != nil {
		return nil, storeError(err, "time slot not found", "failed to update time slot")
	}
	return slot, nil
}

// Delete removes a time slot.
func (s *TimeSlotService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return storeError(err, "time slot not found", "failed to delete time slot")
	}
	return nil
}

func (s *TimeSlotService) apply(slot *models.TimeSlot, req UpsertTimeSlotRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Invalid(err, "invalid time slot payload")
	}
	if req.StartTime >= req.EndTime {
		return appErrors.Invalid(timeslot.ErrEmptyInterval, "start_time must be before end_time")
	}
	slot.Label = strings.TrimSpace(req.Label)
	slot.StartTime = req.StartTime
	slot.EndTime = req.EndTime
	slot.SlotOrder = req.SlotOrder
	return nil
}

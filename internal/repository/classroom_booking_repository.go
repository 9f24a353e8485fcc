package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-portal-api/internal/models"
	"github.com/noah-isme/campus-portal-api/internal/timeslot"
)

const bookingColumns = `id, classroom_id, department_id, booked_by, booking_date, day_of_week, start_time, end_time, purpose, status, created_at, updated_at`

const confirmedBookingOverlapQuery = `SELECT COUNT(*) FROM classroom_bookings
	WHERE classroom_id = $1 AND booking_date = $2 AND status = 'confirmed' AND id <> $3
	AND start_time < $4 AND end_time > $5`

// ClassroomBookingRepository persists dated classroom bookings.
type ClassroomBookingRepository struct {
	db *sqlx.DB
}

// NewClassroomBookingRepository creates a new booking repository.
func NewClassroomBookingRepository(db *sqlx.DB) *ClassroomBookingRepository {
	return &ClassroomBookingRepository{db: db}
}

// List returns bookings with optional filters.
func (r *ClassroomBookingRepository) List(ctx context.Context, filter models.ClassroomBookingFilter) ([]models.ClassroomBooking, int, error) {
	var where whereBuilder
	if filter.ClassroomID != "" {
		where.add("classroom_id = $%d", filter.ClassroomID)
	}
	if filter.DepartmentID != "" {
		where.add("department_id = $%d", filter.DepartmentID)
	}
	if filter.Status != "" {
		where.add("status = $%d", filter.Status)
	}
	if filter.From != nil {
		where.add("booking_date >= $%d", *filter.From)
	}
	if filter.To != nil {
		where.add("booking_date <= $%d", *filter.To)
	}
	base := "FROM classroom_bookings" + where.clause()
	allowed := map[string]bool{"booking_date": true, "start_time": true, "created_at": true}
	query := "SELECT " + bookingColumns + " " + base + pageClause(filter.PageRequest, allowed, "booking_date", "ASC")

	var bookings []models.ClassroomBooking
	if err := r.db.SelectContext(ctx, &bookings, query, where.args...); err != nil {
		return nil, 0, fmt.Errorf("list classroom bookings: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, where.args...); err != nil {
		return nil, 0, fmt.Errorf("count classroom bookings: %w", err)
	}
	return bookings, total, nil
}

// FindByID loads a booking by id.
func (r *ClassroomBookingRepository) FindByID(ctx context.Context, id string) (*models.ClassroomBooking, error) {
	query := `SELECT ` + bookingColumns + ` FROM classroom_bookings WHERE id = $1`
	var booking models.ClassroomBooking
	if err := r.db.GetContext(ctx, &booking, query, id); err != nil {
		return nil, err
	}
	return &booking, nil
}

// ListConfirmedOn returns confirmed bookings for a classroom on date.
func (r *ClassroomBookingRepository) ListConfirmedOn(ctx context.Context, classroomID string, date timeslot.Date) ([]models.ClassroomBooking, error) {
	query := `SELECT ` + bookingColumns + ` FROM classroom_bookings WHERE classroom_id = $1 AND booking_date = $2 AND status = 'confirmed' ORDER BY start_time ASC`
	var bookings []models.ClassroomBooking
	if err := r.db.SelectContext(ctx, &bookings, query, classroomID, date); err != nil {
		return nil, fmt.Errorf("list confirmed bookings: %w", err)
	}
	return bookings, nil
}

// Create inserts a booking. Confirmed bookings are written under the classroom/date lock after
// re-counting overlaps; ErrReservationOverlap means nothing was inserted.
func (r *ClassroomBookingRepository) Create(ctx context.Context, booking *models.ClassroomBooking) error {
	if booking.ID == "" {
		booking.ID = uuid.NewString()
	}
	if booking.Status == "" {
		booking.Status = models.ClassroomBookingPending
	}
	now := time.Now().UTC()
	booking.CreatedAt = now
	booking.UpdatedAt = now
	const query = `INSERT INTO classroom_bookings (id, classroom_id, department_id, booked_by, booking_date, day_of_week, start_time, end_time, purpose, status, created_at, updated_at)
	VALUES (:id, :classroom_id, :department_id, :booked_by, :booking_date, :day_of_week, :start_time, :end_time, :purpose, :status, :created_at, :updated_at)`

	if booking.Status != models.ClassroomBookingConfirmed {
		if _, err := r.db.NamedExecContext(ctx, query, booking); err != nil {
			return fmt.Errorf("create classroom booking: %w", err)
		}
		return nil
	}
	return withReservationLock(ctx, r.db, bookingLockKey(booking.ClassroomID, booking.BookingDate), func(tx *sqlx.Tx) error {
		if err := countOverlapping(ctx, tx, confirmedBookingOverlapQuery,
			booking.ClassroomID, booking.BookingDate, booking.ID, booking.EndTime, booking.StartTime); err != nil {
			return err
		}
		if _, err := tx.NamedExecContext(ctx, query, booking); err != nil {
			return fmt.Errorf("create classroom booking: %w", err)
		}
		return nil
	})
}

// Confirm moves a pending booking to confirmed under the classroom/date lock. Returns
// sql.ErrNoRows when the booking is no longer pending.
func (r *ClassroomBookingRepository) Confirm(ctx context.Context, booking *models.ClassroomBooking) error {
	return withReservationLock(ctx, r.db, bookingLockKey(booking.ClassroomID, booking.BookingDate), func(tx *sqlx.Tx) error {
		if err := countOverlapping(ctx, tx, confirmedBookingOverlapQuery,
			booking.ClassroomID, booking.BookingDate, booking.ID, booking.EndTime, booking.StartTime); err != nil {
			return err
		}
		return execOne(ctx, tx, `UPDATE classroom_bookings SET status = 'confirmed', updated_at = $2 WHERE id = $1 AND status = 'pending'`,
			"confirm classroom booking", booking.ID, time.Now().UTC())
	})
}

// Cancel moves a pending or confirmed booking to cancelled.
func (r *ClassroomBookingRepository) Cancel(ctx context.Context, id string) error {
	return execOne(ctx, r.db, `UPDATE classroom_bookings SET status = 'cancelled', updated_at = $2 WHERE id = $1 AND status IN ('pending', 'confirmed')`,
		"cancel classroom booking", id, time.Now().UTC())
}

// Delete removes a booking.
func (r *ClassroomBookingRepository) Delete(ctx context.Context, id string) error {
	return execOne(ctx, r.db, `DELETE FROM classroom_bookings WHERE id = $1`, "delete classroom booking", id)
}

func bookingLockKey(classroomID string, date timeslot.Date) string {
	return "classroom:" + classroomID + ":" + date.String()
}

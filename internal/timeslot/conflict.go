package timeslot

// Reservation is anything occupying an interval on a resource key.
type Reservation interface {
	ReservationID() string
	ReservationInterval() Interval
}

// Dimension names the shared key two reservations collide on.
type Dimension string

const (
	DimensionFaculty   Dimension = "faculty"
	DimensionClassroom Dimension = "classroom"
	DimensionResource  Dimension = "resource"
)

// Kind names the type of row a conflict was found against.
type Kind string

const (
	KindTimetableEntry   Kind = "timetable_entry"
	KindClassroomBooking Kind = "classroom_booking"
	KindBookingRequest   Kind = "booking_request"
	KindResourceRequest  Kind = "resource_request"
)

// Conflict describes one existing reservation that overlaps a candidate.
type Conflict struct {
	Dimension Dimension `json:"dimension"`
	Kind      Kind      `json:"kind"`
	WithID    string    `json:"with_id"`
	Interval
}

// Detect returns the rows of existing whose interval overlaps candidate. Callers pass rows
// already scoped to one resource key; the row with id excludeID is skipped so updates do not
// collide with their own previous version.
func Detect[T Reservation](existing []T, candidate Interval, excludeID string) []T {
	var hits []T
	for _, row := range existing {
		if excludeID != "" && row.ReservationID() == excludeID {
			continue
		}
		if row.ReservationInterval().Overlaps(candidate) {
			hits = append(hits, row)
		}
	}
	return hits
}

// Describe converts detected rows into reportable conflicts.
func Describe[T Reservation](dimension Dimension, kind Kind, rows []T) []Conflict {
	if len(rows) == 0 {
		return nil
	}
	out := make([]Conflict, 0, len(rows))
	for _, row := range rows {
		out = append(out, Conflict{
			Dimension: dimension,
			Kind:      kind,
			WithID:    row.ReservationID(),
			Interval:  row.ReservationInterval(),
		})
	}
	return out
}

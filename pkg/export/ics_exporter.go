package export

import (
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
)

var icsWeekdays = map[int]string{1: "MO", 2: "TU", 3: "WE", 4: "TH", 5: "FR", 6: "SA", 7: "SU"}

// WeeklyEvent is a recurring slot rendered as a VEVENT with a weekly RRULE.
type WeeklyEvent struct {
	UID         string
	Summary     string
	Location    string
	Description string
	DayOfWeek   int
	StartMinute int
	EndMinute   int
}

// ICSExporter renders recurring weekly events into an iCalendar feed.
type ICSExporter struct {
	productID string
	location  *time.Location
}

// NewICSExporter constructs an iCalendar exporter. A nil location means UTC.
func NewICSExporter(productID string, location *time.Location) *ICSExporter {
	if productID == "" {
		productID = "-//campus-portal//timetable//EN"
	}
	if location == nil {
		location = time.UTC
	}
	return &ICSExporter{productID: productID, location: location}
}

// Render emits one event per slot. The first occurrence is the slot's weekday in the week of
// anchor, and recurrence stops after weeks repetitions when weeks > 0.
func (e *ICSExporter) Render(name string, anchor time.Time, weeks int, events []WeeklyEvent) ([]byte, error) {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(e.productID)
	if name != "" {
		cal.SetName(name)
		cal.SetXWRCalName(name)
	}

	monday := weekStart(anchor.In(e.location))
	stamp := time.Now().UTC()
	for _, ev := range events {
		day, ok := icsWeekdays[ev.DayOfWeek]
		if !ok {
			return nil, fmt.Errorf("event %s: invalid day of week %d", ev.UID, ev.DayOfWeek)
		}
		if ev.EndMinute <= ev.StartMinute {
			return nil, fmt.Errorf("event %s: end must be after start", ev.UID)
		}
		date := monday.AddDate(0, 0, ev.DayOfWeek-1)
		event := cal.AddEvent(ev.UID)
		event.SetDtStampTime(stamp)
		event.SetStartAt(date.Add(time.Duration(ev.StartMinute) * time.Minute))
		event.SetEndAt(date.Add(time.Duration(ev.EndMinute) * time.Minute))
		event.SetSummary(ev.Summary)
		if ev.Location != "" {
			event.SetLocation(ev.Location)
		}
		if ev.Description != "" {
			event.SetDescription(ev.Description)
		}
		rule := "FREQ=WEEKLY;BYDAY=" + day
		if weeks > 0 {
			rule += fmt.Sprintf(";COUNT=%d", weeks)
		}
		event.AddRrule(rule)
	}
	return []byte(cal.Serialize()), nil
}

func weekStart(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	y, m, d := t.AddDate(0, 0, -offset).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

package importer

import (
	"strings"

	"github.com/shopspring/decimal"

	"studiodash/internal/attendance"
)

// CollapseSessions folds records describing the same class slot (class,
// day, time, location, instructor and period) into one record per slot.
// Each folded row becomes an occurrence, in input order, and the record's
// totals are the session sums. Slots keep the order they are first seen.
func CollapseSessions(records []attendance.Record) []attendance.Record {
	collapsed := make([]attendance.Record, 0, len(records))
	positions := make(map[string]int)

	for _, r := range records {
		key := slotKey(r)
		pos, ok := positions[key]
		if !ok {
			pos = len(collapsed)
			positions[key] = pos
			collapsed = append(collapsed, emptySlot(r))
		}
		addSessions(&collapsed[pos], r)
	}
	return collapsed
}

// emptySlot copies the categorical fields and date of r with no sessions
// and zero totals.
func emptySlot(r attendance.Record) attendance.Record {
	r.Occurrences = nil
	r.Checkins = 0
	r.Revenue = decimal.Zero
	r.Cancelled = 0
	r.NonPaid = 0
	r.Hours = 0
	return r
}

// addSessions appends every session of r to slot and adds r to its totals.
func addSessions(slot *attendance.Record, r attendance.Record) {
	for _, o := range r.Sessions() {
		slot.Occurrences = append(slot.Occurrences, attendance.Occurrence{
			Date:     o.Date,
			Checkins: o.Checkins,
			Revenue:  o.Revenue,
		})
		slot.Checkins += o.Checkins
		slot.Revenue = slot.Revenue.Add(o.Revenue)
	}
	slot.Cancelled += r.Cancelled
	slot.NonPaid += r.NonPaid
	slot.Hours += r.Hours
}

func slotKey(r attendance.Record) string {
	return strings.Join([]string{r.ClassType, r.DayOfWeek, r.TimeSlot, r.Location, r.Instructor, r.Period}, "\x1f")
}

// Package aggregator turns flat attendance records into the grouped,
// ranked and filtered summaries behind the dashboard panels.
//
// Every function here is pure: inputs are never modified, results are
// rebuilt from scratch on each call and nothing fails. Malformed values
// are expected to arrive already coerced to zero by the importer.
package aggregator

import (
	"slices"

	"github.com/shopspring/decimal"

	"studiodash/internal/attendance"
)

// GroupSummary is the derived aggregate of every record sharing a key.
// Representative categorical fields come from the first contributing record.
type GroupSummary struct {
	Key        GroupKey `json:"key"`
	Label      string   `json:"label"`
	ClassType  string   `json:"class_type"`
	DayOfWeek  string   `json:"day_of_week"`
	TimeSlot   string   `json:"time_slot"`
	Location   string   `json:"location"`
	Instructor string   `json:"instructor"`
	Period     string   `json:"period"`

	TotalCheckins  int             `json:"total_checkins"`
	TotalRevenue   decimal.Decimal `json:"total_revenue"`
	TotalCancelled int             `json:"total_cancelled"`
	TotalNonPaid   int             `json:"total_non_paid"`
	TotalHours     float64         `json:"total_hours"`

	RecordCount     int `json:"record_count"`
	OccurrenceCount int `json:"occurrence_count"`
	EmptyCount      int `json:"empty_count"`
	NonEmptyCount   int `json:"non_empty_count"`

	AverageIncludingEmpty float64 `json:"average_including_empty"`
	AverageExcludingEmpty float64 `json:"average_excluding_empty"`

	Children []attendance.Record `json:"children,omitempty"`
}

// Group buckets records by keyFn in a single pass. Groups appear in the
// order their key is first seen and children keep input order.
func Group(records []attendance.Record, keyFn KeyFunc) []GroupSummary {
	groups := make([]GroupSummary, 0)
	if len(records) == 0 || keyFn == nil {
		return groups
	}

	positions := make(map[GroupKey]int)
	for i, r := range records {
		key := keyFn(i, r)
		pos, ok := positions[key]
		if !ok {
			pos = len(groups)
			positions[key] = pos
			groups = append(groups, newSummary(key, r))
		}
		groups[pos].add(r)
	}

	for i := range groups {
		groups[i].finalize()
	}
	return groups
}

// GroupBy is Group with a named strategy. Unknown strategies fall back to
// NoGrouping so every record becomes its own summary.
func GroupBy(records []attendance.Record, strategy KeyStrategy) []GroupSummary {
	keyFn, ok := KeyFor(strategy)
	if !ok {
		keyFn, _ = KeyFor(NoGrouping)
	}
	return Group(records, keyFn)
}

func summarizeRecord(key GroupKey, r attendance.Record) GroupSummary {
	s := newSummary(key, r)
	s.add(r)
	s.finalize()
	return s
}

func newSummary(key GroupKey, first attendance.Record) GroupSummary {
	return GroupSummary{
		Key:          key,
		Label:        key.Label(),
		ClassType:    first.ClassType,
		DayOfWeek:    first.DayOfWeek,
		TimeSlot:     first.TimeSlot,
		Location:     first.Location,
		Instructor:   first.Instructor,
		Period:       first.Period,
		TotalRevenue: decimal.Zero,
	}
}

// add folds one record into the summary. Check-ins and revenue are summed
// per session so records with explicit occurrences contribute each one.
func (s *GroupSummary) add(r attendance.Record) {
	for _, o := range r.Sessions() {
		s.TotalCheckins += max(o.Checkins, 0)
		if o.Revenue.IsPositive() {
			s.TotalRevenue = s.TotalRevenue.Add(o.Revenue)
		}
		s.OccurrenceCount++
		if o.Checkins <= 0 {
			s.EmptyCount++
		} else {
			s.NonEmptyCount++
		}
	}
	s.TotalCancelled += max(r.Cancelled, 0)
	s.TotalNonPaid += max(r.NonPaid, 0)
	if r.Hours > 0 {
		s.TotalHours += r.Hours
	}
	s.RecordCount++
	// Children own their occurrences; editing one never reaches the input.
	r.Occurrences = slices.Clone(r.Occurrences)
	s.Children = append(s.Children, r)
}

func (s *GroupSummary) finalize() {
	s.AverageIncludingEmpty = ratio(s.TotalCheckins, s.OccurrenceCount)
	s.AverageExcludingEmpty = ratio(s.TotalCheckins, s.NonEmptyCount)
}

func ratio(total, count int) float64 {
	if count == 0 {
		return 0
	}
	return float64(total) / float64(count)
}

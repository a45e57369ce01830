package aggregator

import (
	"strings"

	"studiodash/internal/attendance"
)

// FilterBySearch keeps rows whose categorical fields contain query,
// ignoring case. A group matches on its own fields or on any child. An
// empty query returns the input unchanged.
func FilterBySearch(rows []Row, query string) []Row {
	needle := normalizeQuery(query)
	if needle == "" {
		return rows
	}

	matched := make([]Row, 0, len(rows))
	for _, row := range rows {
		if rowMatches(row, needle) {
			matched = append(matched, row)
		}
	}
	return matched
}

// FilterRecords applies the same match to flat records.
func FilterRecords(records []attendance.Record, query string) []attendance.Record {
	needle := normalizeQuery(query)
	if needle == "" {
		return records
	}

	matched := make([]attendance.Record, 0, len(records))
	for _, r := range records {
		if recordMatches(r, needle) {
			matched = append(matched, r)
		}
	}
	return matched
}

func rowMatches(row Row, needle string) bool {
	switch r := row.(type) {
	case LeafRow:
		return recordMatches(r.Record, needle)
	case GroupRow:
		s := r.Summary
		if anyContains(needle, s.ClassType, s.Location, s.DayOfWeek, s.TimeSlot, s.Instructor, s.Period) {
			return true
		}
		for _, child := range s.Children {
			if recordMatches(child, needle) {
				return true
			}
		}
	}
	return false
}

func recordMatches(r attendance.Record, needle string) bool {
	return anyContains(needle, r.ClassType, r.Location, r.DayOfWeek, r.TimeSlot, r.Instructor, r.Period)
}

func anyContains(needle string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

func normalizeQuery(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

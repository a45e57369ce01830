package aggregator

import (
	"github.com/shopspring/decimal"

	"studiodash/internal/attendance"
)

// Overview holds the headline numbers shown above the table.
type Overview struct {
	TotalRecords          int             `json:"total_records"`
	TotalClasses          int             `json:"total_classes"`
	TotalCheckins         int             `json:"total_checkins"`
	TotalRevenue          decimal.Decimal `json:"total_revenue"`
	TotalCancelled        int             `json:"total_cancelled"`
	EmptyClasses          int             `json:"empty_classes"`
	AverageAttendance     float64         `json:"average_attendance"`
	TopInstructor         string          `json:"top_instructor"`
	TopInstructorCheckins int             `json:"top_instructor_checkins"`
}

// Summarize computes the overview for a record set. The top instructor is
// the first, in input order, to reach the highest positive check-in total.
func Summarize(records []attendance.Record) Overview {
	overview := Overview{TotalRevenue: decimal.Zero}
	if len(records) == 0 {
		return overview
	}

	all := Group(records, func(int, attendance.Record) GroupKey { return "" })[0]
	overview.TotalRecords = all.RecordCount
	overview.TotalClasses = all.OccurrenceCount
	overview.TotalCheckins = all.TotalCheckins
	overview.TotalRevenue = all.TotalRevenue
	overview.TotalCancelled = all.TotalCancelled
	overview.EmptyClasses = all.EmptyCount
	overview.AverageAttendance = all.AverageIncludingEmpty

	for _, s := range GroupBy(records, ByInstructor) {
		if s.TotalCheckins > overview.TopInstructorCheckins {
			overview.TopInstructor = s.Instructor
			overview.TopInstructorCheckins = s.TotalCheckins
		}
	}
	return overview
}

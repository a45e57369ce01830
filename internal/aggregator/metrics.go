package aggregator

import (
	"strings"
)

// Metric names a numeric field of GroupSummary that panels can rank by.
type Metric string

const (
	TotalCheckins         Metric = "total_checkins"
	TotalRevenue          Metric = "total_revenue"
	TotalCancelled        Metric = "total_cancelled"
	TotalNonPaid          Metric = "total_non_paid"
	TotalHours            Metric = "total_hours"
	OccurrenceCount       Metric = "occurrence_count"
	EmptyCount            Metric = "empty_count"
	NonEmptyCount         Metric = "non_empty_count"
	AverageIncludingEmpty Metric = "average_including_empty"
	AverageExcludingEmpty Metric = "average_excluding_empty"
)

var accessors = map[Metric]func(GroupSummary) float64{
	TotalCheckins:         func(s GroupSummary) float64 { return float64(s.TotalCheckins) },
	TotalRevenue:          func(s GroupSummary) float64 { return s.TotalRevenue.InexactFloat64() },
	TotalCancelled:        func(s GroupSummary) float64 { return float64(s.TotalCancelled) },
	TotalNonPaid:          func(s GroupSummary) float64 { return float64(s.TotalNonPaid) },
	TotalHours:            func(s GroupSummary) float64 { return s.TotalHours },
	OccurrenceCount:       func(s GroupSummary) float64 { return float64(s.OccurrenceCount) },
	EmptyCount:            func(s GroupSummary) float64 { return float64(s.EmptyCount) },
	NonEmptyCount:         func(s GroupSummary) float64 { return float64(s.NonEmptyCount) },
	AverageIncludingEmpty: func(s GroupSummary) float64 { return s.AverageIncludingEmpty },
	AverageExcludingEmpty: func(s GroupSummary) float64 { return s.AverageExcludingEmpty },
}

// metricAliases maps the dashboard's camelCase field names.
var metricAliases = map[string]Metric{
	"totalcheckins":              TotalCheckins,
	"checkins":                   TotalCheckins,
	"totalrevenue":               TotalRevenue,
	"revenue":                    TotalRevenue,
	"totalcancelled":             TotalCancelled,
	"cancelled":                  TotalCancelled,
	"totalnonpaid":               TotalNonPaid,
	"totaltime":                  TotalHours,
	"hours":                      TotalHours,
	"totaloccurrences":           OccurrenceCount,
	"occurrences":                OccurrenceCount,
	"classes":                    OccurrenceCount,
	"totalempty":                 EmptyCount,
	"totalnonempty":              NonEmptyCount,
	"classaverageincludingempty": AverageIncludingEmpty,
	"avgattendance":              AverageIncludingEmpty,
	"classaverageexcludingempty": AverageExcludingEmpty,
}

// Metrics lists every metric in display order.
func Metrics() []Metric {
	return []Metric{
		TotalCheckins,
		OccurrenceCount,
		TotalRevenue,
		TotalCancelled,
		EmptyCount,
		NonEmptyCount,
		AverageIncludingEmpty,
		AverageExcludingEmpty,
		TotalHours,
		TotalNonPaid,
	}
}

// ParseMetric resolves a metric name or alias. The second result is false
// for names that match nothing.
func ParseMetric(name string) (Metric, bool) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if _, ok := accessors[Metric(normalized)]; ok {
		return Metric(normalized), true
	}
	compact := strings.NewReplacer("_", "", "-", "", " ", "").Replace(normalized)
	if m, ok := metricAliases[compact]; ok {
		return m, true
	}
	return Metric(normalized), false
}

// Valid reports whether the metric has an accessor.
func (m Metric) Valid() bool {
	_, ok := accessors[m]
	return ok
}

// Value reads the metric from a summary. Unknown metrics read as 0.
func (m Metric) Value(s GroupSummary) float64 {
	if fn, ok := accessors[m]; ok {
		return fn(s)
	}
	return 0
}

package aggregator

import (
	"encoding/json"
	"sort"

	"studiodash/internal/attendance"
)

// Row is a table row: either a LeafRow holding one record or a GroupRow
// holding a summary. The interface is sealed; use a type switch.
type Row interface {
	RowKey() GroupKey
	isRow()
}

// LeafRow is a single, ungrouped record.
type LeafRow struct {
	Key    GroupKey
	Record attendance.Record
}

// GroupRow is a group summary. Children are only exposed when Expanded.
type GroupRow struct {
	Summary  GroupSummary
	Expanded bool
}

func (LeafRow) isRow()  {}
func (GroupRow) isRow() {}

func (l LeafRow) RowKey() GroupKey  { return l.Key }
func (g GroupRow) RowKey() GroupKey { return g.Summary.Key }

// MarshalJSON tags the row so clients can tell the variants apart.
func (l LeafRow) MarshalJSON() ([]byte, error) {
	summary := summarizeRecord(l.Key, l.Record)
	return json.Marshal(struct {
		Kind                  string            `json:"kind"`
		Key                   GroupKey          `json:"key"`
		Record                attendance.Record `json:"record"`
		OccurrenceCount       int               `json:"occurrence_count"`
		EmptyCount            int               `json:"empty_count"`
		NonEmptyCount         int               `json:"non_empty_count"`
		AverageIncludingEmpty float64           `json:"average_including_empty"`
		AverageExcludingEmpty float64           `json:"average_excluding_empty"`
	}{
		Kind:                  "leaf",
		Key:                   l.Key,
		Record:                l.Record,
		OccurrenceCount:       summary.OccurrenceCount,
		EmptyCount:            summary.EmptyCount,
		NonEmptyCount:         summary.NonEmptyCount,
		AverageIncludingEmpty: summary.AverageIncludingEmpty,
		AverageExcludingEmpty: summary.AverageExcludingEmpty,
	})
}

// MarshalJSON tags the row and drops children of collapsed groups.
func (g GroupRow) MarshalJSON() ([]byte, error) {
	summary := g.Summary
	if !g.Expanded {
		summary.Children = nil
	}
	return json.Marshal(struct {
		Kind     string       `json:"kind"`
		Expanded bool         `json:"expanded"`
		Summary  GroupSummary `json:"summary"`
	}{
		Kind:     "group",
		Expanded: g.Expanded,
		Summary:  summary,
	})
}

// LeafRows wraps records as leaves keyed with the identity strategy.
func LeafRows(records []attendance.Record) []Row {
	keyFn, _ := KeyFor(NoGrouping)
	rows := make([]Row, len(records))
	for i, r := range records {
		rows[i] = LeafRow{Key: keyFn(i, r), Record: r}
	}
	return rows
}

// GroupRows wraps summaries as collapsed group rows.
func GroupRows(summaries []GroupSummary) []Row {
	rows := make([]Row, len(summaries))
	for i, s := range summaries {
		rows[i] = GroupRow{Summary: s}
	}
	return rows
}

// RowValue reads a metric from either row variant. A leaf is measured as a
// one-record group.
func RowValue(row Row, metric Metric) float64 {
	switch r := row.(type) {
	case GroupRow:
		return metric.Value(r.Summary)
	case LeafRow:
		return metric.Value(summarizeRecord(r.Key, r.Record))
	default:
		return 0
	}
}

// SortRows is the Row counterpart of Rank, without truncation.
func SortRows(rows []Row, metric Metric, dir Direction) []Row {
	sorted := make([]Row, len(rows))
	copy(sorted, rows)
	if !metric.Valid() {
		return sorted
	}

	type valued struct {
		row   Row
		value float64
	}
	pairs := make([]valued, len(rows))
	for i, row := range rows {
		pairs[i] = valued{row: row, value: RowValue(row, metric)}
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		return less(pairs[i].value, pairs[j].value, dir)
	})
	for i, p := range pairs {
		sorted[i] = p.row
	}
	return sorted
}

package aggregator

import (
	"math"
	"sort"
	"strings"
)

// Direction is the sort order applied by Rank.
type Direction string

const (
	Descending Direction = "desc"
	Ascending  Direction = "asc"
)

// ParseDirection accepts "asc"/"ascending" and treats everything else as
// descending, the dashboard default.
func ParseDirection(s string) Direction {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc", "ascending":
		return Ascending
	default:
		return Descending
	}
}

// RankedGroup pairs a summary with its metric value and percentage share
// of the whole pre-truncation population.
type RankedGroup struct {
	Summary GroupSummary `json:"summary"`
	Value   float64      `json:"value"`
	Share   float64      `json:"share"`
}

// ChartPoint is one bar/slice of a chart series.
type ChartPoint struct {
	Key        GroupKey `json:"key"`
	Name       string   `json:"name"`
	Value      float64  `json:"value"`
	Count      int      `json:"count"`
	Percentage float64  `json:"percentage"`
}

// Rank returns a sorted copy of summaries. The sort is stable so ties keep
// their input order. An unknown metric leaves the order untouched. A
// positive limit truncates the result after sorting.
func Rank(summaries []GroupSummary, metric Metric, dir Direction, limit int) []GroupSummary {
	ranked := make([]GroupSummary, len(summaries))
	copy(ranked, summaries)

	if metric.Valid() {
		sort.SliceStable(ranked, func(i, j int) bool {
			return less(metric.Value(ranked[i]), metric.Value(ranked[j]), dir)
		})
	}
	return truncate(ranked, limit)
}

// Shares computes each summary's percentage of the metric total, rounded to
// one decimal. All shares are 0 when the total is 0.
func Shares(summaries []GroupSummary, metric Metric) []float64 {
	shares := make([]float64, len(summaries))
	total := 0.0
	for _, s := range summaries {
		total += metric.Value(s)
	}
	if total == 0 {
		return shares
	}
	for i, s := range summaries {
		shares[i] = roundTenth(metric.Value(s) / total * 100)
	}
	return shares
}

// RankWithShares ranks like Rank and attaches values and shares. Shares are
// computed over the full input before truncation so they still describe
// the whole population when only the top entries are shown.
func RankWithShares(summaries []GroupSummary, metric Metric, dir Direction, limit int) []RankedGroup {
	shares := Shares(summaries, metric)
	ranked := make([]RankedGroup, len(summaries))
	for i, s := range summaries {
		ranked[i] = RankedGroup{Summary: s, Value: metric.Value(s), Share: shares[i]}
	}

	if metric.Valid() {
		sort.SliceStable(ranked, func(i, j int) bool {
			return less(ranked[i].Value, ranked[j].Value, dir)
		})
	}
	return truncate(ranked, limit)
}

// ChartSeries builds a descending top-N series for a chart panel.
func ChartSeries(summaries []GroupSummary, metric Metric, limit int) []ChartPoint {
	ranked := RankWithShares(summaries, metric, Descending, limit)
	points := make([]ChartPoint, len(ranked))
	for i, r := range ranked {
		points[i] = ChartPoint{
			Key:        r.Summary.Key,
			Name:       r.Summary.Label,
			Value:      r.Value,
			Count:      r.Summary.RecordCount,
			Percentage: r.Share,
		}
	}
	return points
}

func less(a, b float64, dir Direction) bool {
	if dir == Ascending {
		return a < b
	}
	return a > b
}

func truncate[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}

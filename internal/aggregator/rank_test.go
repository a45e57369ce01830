package aggregator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studiodash/internal/aggregator"
	"studiodash/internal/attendance"
)

func TestRankByRevenueWithLimit(t *testing.T) {
	groups := aggregator.Group(scenarioRecords(), classDayKey)

	top := aggregator.Rank(groups, aggregator.TotalRevenue, aggregator.Descending, 1)
	require.Len(t, top, 1)
	assert.Equal(t, "Yoga", top[0].ClassType)
	assert.Equal(t, "Mon", top[0].DayOfWeek)
}

func TestRankDirections(t *testing.T) {
	records := []attendance.Record{
		record("A", "Mon", 5, 0),
		record("B", "Mon", 1, 0),
		record("C", "Mon", 9, 0),
	}
	groups := aggregator.GroupBy(records, aggregator.ByClassType)

	names := func(gs []aggregator.GroupSummary) []string {
		out := make([]string, len(gs))
		for i, g := range gs {
			out[i] = g.ClassType
		}
		return out
	}

	assert.Equal(t, []string{"C", "A", "B"}, names(aggregator.Rank(groups, aggregator.TotalCheckins, aggregator.Descending, 0)))
	assert.Equal(t, []string{"B", "A", "C"}, names(aggregator.Rank(groups, aggregator.TotalCheckins, aggregator.Ascending, 0)))
	assert.Equal(t, []string{"A", "B", "C"}, names(groups), "input must not be reordered")
}

func TestRankIsStable(t *testing.T) {
	records := []attendance.Record{
		record("First", "Mon", 4, 0),
		record("Big", "Mon", 10, 0),
		record("Second", "Mon", 4, 0),
		record("Third", "Mon", 4, 0),
	}
	groups := aggregator.GroupBy(records, aggregator.ByClassType)

	for _, dir := range []aggregator.Direction{aggregator.Descending, aggregator.Ascending} {
		ranked := aggregator.Rank(groups, aggregator.TotalCheckins, dir, 0)
		var tied []string
		for _, g := range ranked {
			if g.TotalCheckins == 4 {
				tied = append(tied, g.ClassType)
			}
		}
		assert.Equal(t, []string{"First", "Second", "Third"}, tied, "direction %s", dir)

		again := aggregator.Rank(ranked, aggregator.TotalCheckins, dir, 0)
		assert.Equal(t, ranked, again)
	}
}

func TestRankUnknownMetricKeepsOrder(t *testing.T) {
	groups := aggregator.GroupBy(randomRecords(40), aggregator.ByClassType)

	unknown, ok := aggregator.ParseMetric("colour")
	assert.False(t, ok)

	ranked := aggregator.Rank(groups, unknown, aggregator.Descending, 0)
	assert.Equal(t, groups, ranked)

	limited := aggregator.Rank(groups, unknown, aggregator.Descending, 2)
	assert.Equal(t, groups[:2], limited)
}

func TestSharesSumToHundred(t *testing.T) {
	groups := aggregator.GroupBy(randomRecords(250), aggregator.ByClassDayTimeLocation)

	for _, metric := range aggregator.Metrics() {
		shares := aggregator.Shares(groups, metric)
		require.Len(t, shares, len(groups))

		sum := 0.0
		for _, s := range shares {
			sum += s
		}
		if sum == 0 {
			continue
		}
		assert.InDelta(t, 100.0, sum, 0.05*float64(len(groups))+0.1, "metric %s", metric)
	}
}

func TestSharesZeroTotal(t *testing.T) {
	groups := aggregator.GroupBy([]attendance.Record{record("A", "Mon", 0, 0)}, aggregator.ByClassType)
	assert.Equal(t, []float64{0}, aggregator.Shares(groups, aggregator.TotalRevenue))
}

func TestRankWithSharesComputedBeforeTruncation(t *testing.T) {
	records := []attendance.Record{
		record("A", "Mon", 0, 50),
		record("B", "Mon", 0, 30),
		record("C", "Mon", 0, 20),
	}
	groups := aggregator.GroupBy(records, aggregator.ByClassType)

	ranked := aggregator.RankWithShares(groups, aggregator.TotalRevenue, aggregator.Descending, 2)
	require.Len(t, ranked, 2)
	assert.Equal(t, "A", ranked[0].Summary.ClassType)
	assert.Equal(t, 50.0, ranked[0].Share)
	assert.Equal(t, 30.0, ranked[1].Share)
	assert.Equal(t, 30.0, ranked[1].Value)
}

func TestChartSeries(t *testing.T) {
	records := []attendance.Record{
		record("Yoga", "Mon", 10, 0),
		record("Spin", "Mon", 40, 0),
		record("Yoga", "Tue", 20, 0),
		record("Barre", "Wed", 1, 0),
	}
	groups := aggregator.GroupBy(records, aggregator.ByClassType)

	points := aggregator.ChartSeries(groups, aggregator.TotalCheckins, 2)
	require.Len(t, points, 2)

	assert.Equal(t, "Spin", points[0].Name)
	assert.Equal(t, 40.0, points[0].Value)
	assert.Equal(t, 1, points[0].Count)
	assert.Equal(t, 56.3, points[0].Percentage)

	assert.Equal(t, "Yoga", points[1].Name)
	assert.Equal(t, 30.0, points[1].Value)
	assert.Equal(t, 2, points[1].Count)
	assert.Equal(t, 42.3, points[1].Percentage)
}

func TestParseMetric(t *testing.T) {
	tests := []struct {
		input    string
		expected aggregator.Metric
		ok       bool
	}{
		{"total_revenue", aggregator.TotalRevenue, true},
		{"totalRevenue", aggregator.TotalRevenue, true},
		{"classAverageExcludingEmpty", aggregator.AverageExcludingEmpty, true},
		{"totalOccurrences", aggregator.OccurrenceCount, true},
		{"totalTime", aggregator.TotalHours, true},
		{"nope", aggregator.Metric("nope"), false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := aggregator.ParseMetric(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseDirection(t *testing.T) {
	assert.Equal(t, aggregator.Ascending, aggregator.ParseDirection("ASC"))
	assert.Equal(t, aggregator.Descending, aggregator.ParseDirection("desc"))
	assert.Equal(t, aggregator.Descending, aggregator.ParseDirection(""))
}

package aggregator_test

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studiodash/internal/aggregator"
	"studiodash/internal/attendance"
)

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7}

	tests := []struct {
		name      string
		page      int
		size      int
		items     []int
		wantPage  int
		wantPages int
	}{
		{"first page", 1, 3, []int{1, 2, 3}, 1, 3},
		{"last partial page", 3, 3, []int{7}, 3, 3},
		{"page past the end clamps", 9, 3, []int{7}, 3, 3},
		{"page zero clamps", 0, 3, []int{1, 2, 3}, 1, 3},
		{"no size means one page", 2, 0, items, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := aggregator.Paginate(items, tt.page, tt.size)
			assert.Equal(t, tt.items, p.Items)
			assert.Equal(t, tt.wantPage, p.Page)
			assert.Equal(t, tt.wantPages, p.TotalPages)
			assert.Equal(t, len(items), p.TotalItems)
		})
	}

	t.Run("empty input", func(t *testing.T) {
		p := aggregator.Paginate([]int{}, 4, 10)
		assert.Empty(t, p.Items)
		assert.Equal(t, 1, p.Page)
		assert.Equal(t, 1, p.TotalPages)
	})
}

func TestBuildTableGrouped(t *testing.T) {
	records := []attendance.Record{
		record("Yoga", "Mon", 2, 20),
		record("Spin", "Tue", 9, 90),
		record("Yoga", "Wed", 4, 40),
		record("Barre", "Thu", 1, 10),
	}

	view := aggregator.BuildTable(records, aggregator.TableConfig{
		GroupBy:  aggregator.ByClassType,
		Metric:   aggregator.TotalCheckins,
		Page:     1,
		PageSize: 2,
		Expanded: []aggregator.GroupKey{"Spin"},
	})

	assert.Equal(t, aggregator.Descending, view.Direction)
	assert.Equal(t, 3, view.TotalRows)
	assert.Equal(t, 2, view.TotalPages)
	require.Len(t, view.Rows, 2)

	spin, ok := view.Rows[0].(aggregator.GroupRow)
	require.True(t, ok)
	assert.Equal(t, "Spin", spin.Summary.ClassType)
	assert.True(t, spin.Expanded)

	yoga, ok := view.Rows[1].(aggregator.GroupRow)
	require.True(t, ok)
	assert.Equal(t, 6, yoga.Summary.TotalCheckins)
	assert.False(t, yoga.Expanded)
}

func TestBuildTableLeavesWithSearch(t *testing.T) {
	records := []attendance.Record{
		record("Yoga Flow", "Mon", 2, 0),
		record("Spin", "Tue", 9, 0),
		record("Power Yoga", "Wed", 4, 0),
	}

	view := aggregator.BuildTable(records, aggregator.TableConfig{
		GroupBy:   aggregator.KeyStrategy("bogus"),
		Metric:    aggregator.TotalCheckins,
		Direction: aggregator.Ascending,
		Search:    "yoga",
	})

	assert.Equal(t, aggregator.NoGrouping, view.GroupBy)
	require.Len(t, view.Rows, 2)
	first, ok := view.Rows[0].(aggregator.LeafRow)
	require.True(t, ok)
	assert.Equal(t, "Yoga Flow", first.Record.ClassType)
	second := view.Rows[1].(aggregator.LeafRow)
	assert.Equal(t, "Power Yoga", second.Record.ClassType)
}

func TestRowJSON(t *testing.T) {
	groups := aggregator.GroupBy(scenarioRecords(), aggregator.ByClassType)

	collapsed, err := json.Marshal(aggregator.GroupRow{Summary: groups[0]})
	require.NoError(t, err)
	assert.Contains(t, string(collapsed), `"kind":"group"`)
	assert.NotContains(t, string(collapsed), `"children"`)

	expanded, err := json.Marshal(aggregator.GroupRow{Summary: groups[0], Expanded: true})
	require.NoError(t, err)
	assert.Contains(t, string(expanded), `"children"`)

	leaf, err := json.Marshal(aggregator.LeafRows(scenarioRecords()[:1])[0])
	require.NoError(t, err)
	assert.Contains(t, string(leaf), `"kind":"leaf"`)
	assert.Contains(t, string(leaf), `"occurrence_count":1`)
}

func TestSummarize(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		o := aggregator.Summarize(nil)
		assert.Zero(t, o.TotalRecords)
		assert.Empty(t, o.TopInstructor)
		assert.True(t, o.TotalRevenue.IsZero())
	})

	t.Run("totals and top instructor", func(t *testing.T) {
		a := record("Yoga", "Mon", 10, 100)
		a.Instructor = "Ana"
		b := record("Spin", "Tue", 0, 0)
		b.Instructor = "Ben"
		b.Cancelled = 1
		c := record("HIIT", "Wed", 10, 60)
		c.Instructor = "Cleo"
		d := record("Barre", "Thu", 5, 25)
		d.Instructor = "Ben"

		o := aggregator.Summarize([]attendance.Record{a, b, c, d})
		assert.Equal(t, 4, o.TotalRecords)
		assert.Equal(t, 4, o.TotalClasses)
		assert.Equal(t, 25, o.TotalCheckins)
		assert.True(t, o.TotalRevenue.Equal(decimal.NewFromInt(185)))
		assert.Equal(t, 1, o.TotalCancelled)
		assert.Equal(t, 1, o.EmptyClasses)
		assert.InDelta(t, 6.25, o.AverageAttendance, 1e-9)
		// Ana and Cleo tie on 10; Ana is seen first.
		assert.Equal(t, "Ana", o.TopInstructor)
		assert.Equal(t, 10, o.TopInstructorCheckins)
	})
}

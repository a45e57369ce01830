package aggregator_test

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studiodash/internal/aggregator"
	"studiodash/internal/attendance"
)

func record(class, day string, checkins int, revenue int64) attendance.Record {
	return attendance.Record{
		ClassType: class,
		DayOfWeek: day,
		TimeSlot:  "07:00",
		Location:  "Downtown",
		Checkins:  checkins,
		Revenue:   decimal.NewFromInt(revenue),
	}
}

func scenarioRecords() []attendance.Record {
	return []attendance.Record{
		record("Yoga", "Mon", 10, 100),
		record("Yoga", "Mon", 0, 0),
		record("HIIT", "Tue", 5, 50),
	}
}

func classDayKey(_ int, r attendance.Record) aggregator.GroupKey {
	return aggregator.GroupKey(r.ClassType + aggregator.KeySeparator + r.DayOfWeek)
}

// randomRecords builds a reproducible record set, some with explicit occurrences.
func randomRecords(n int) []attendance.Record {
	rng := rand.New(rand.NewPCG(42, 7))
	classes := []string{"Yoga", "HIIT", "Spin", "Barre"}
	days := []string{"Monday", "Tuesday", "Wednesday"}
	records := make([]attendance.Record, n)
	for i := range records {
		r := attendance.Record{
			ClassType:  classes[rng.IntN(len(classes))],
			DayOfWeek:  days[rng.IntN(len(days))],
			Instructor: []string{"Ana", "Ben"}[rng.IntN(2)],
			Cancelled:  rng.IntN(3),
		}
		if rng.IntN(2) == 0 {
			for j := 0; j < 1+rng.IntN(4); j++ {
				o := attendance.Occurrence{Checkins: rng.IntN(4), Revenue: decimal.NewFromInt(int64(rng.IntN(200)))}
				r.Occurrences = append(r.Occurrences, o)
				r.Checkins += o.Checkins
				r.Revenue = r.Revenue.Add(o.Revenue)
			}
		} else {
			r.Checkins = rng.IntN(15)
			r.Revenue = decimal.NewFromInt(int64(r.Checkins * 10))
		}
		records[i] = r
	}
	return records
}

func TestGroupScenario(t *testing.T) {
	groups := aggregator.Group(scenarioRecords(), classDayKey)
	require.Len(t, groups, 2)

	yoga := groups[0]
	assert.Equal(t, "Yoga", yoga.ClassType)
	assert.Equal(t, "Mon", yoga.DayOfWeek)
	assert.Equal(t, 2, yoga.OccurrenceCount)
	assert.Equal(t, 1, yoga.EmptyCount)
	assert.Equal(t, 1, yoga.NonEmptyCount)
	assert.Equal(t, 10, yoga.TotalCheckins)
	assert.True(t, yoga.TotalRevenue.Equal(decimal.NewFromInt(100)))
	assert.InDelta(t, 5.0, yoga.AverageIncludingEmpty, 1e-9)
	assert.InDelta(t, 10.0, yoga.AverageExcludingEmpty, 1e-9)
	assert.Len(t, yoga.Children, 2)
	assert.Equal(t, 2, yoga.RecordCount)

	hiit := groups[1]
	assert.Equal(t, "HIIT", hiit.ClassType)
	assert.Equal(t, 1, hiit.OccurrenceCount)
	assert.Equal(t, 0, hiit.EmptyCount)
	assert.Equal(t, 1, hiit.NonEmptyCount)
	assert.Equal(t, 5, hiit.TotalCheckins)
	assert.InDelta(t, 5.0, hiit.AverageIncludingEmpty, 1e-9)
	assert.InDelta(t, 5.0, hiit.AverageExcludingEmpty, 1e-9)
}

func TestGroupEmptyInput(t *testing.T) {
	t.Run("nil records", func(t *testing.T) {
		groups := aggregator.Group(nil, classDayKey)
		assert.NotNil(t, groups)
		assert.Empty(t, groups)
	})

	t.Run("empty slice", func(t *testing.T) {
		assert.Empty(t, aggregator.Group([]attendance.Record{}, classDayKey))
	})
}

func TestGroupFoldsOccurrences(t *testing.T) {
	r := attendance.Record{
		ClassType: "Spin",
		DayOfWeek: "Fri",
		Checkins:  9,
		Revenue:   decimal.NewFromInt(90),
		Cancelled: 2,
		NonPaid:   1,
		Occurrences: []attendance.Occurrence{
			{Checkins: 4, Revenue: decimal.NewFromInt(40)},
			{Checkins: 0, Revenue: decimal.Zero},
			{Checkins: 5, Revenue: decimal.NewFromInt(50)},
		},
	}

	groups := aggregator.Group([]attendance.Record{r}, classDayKey)
	require.Len(t, groups, 1)

	g := groups[0]
	assert.Equal(t, 3, g.OccurrenceCount)
	assert.Equal(t, 1, g.EmptyCount)
	assert.Equal(t, 2, g.NonEmptyCount)
	assert.Equal(t, 9, g.TotalCheckins)
	assert.True(t, g.TotalRevenue.Equal(decimal.NewFromInt(90)))
	assert.Equal(t, 2, g.TotalCancelled)
	assert.Equal(t, 1, g.TotalNonPaid)
	assert.InDelta(t, 3.0, g.AverageIncludingEmpty, 1e-9)
	assert.InDelta(t, 4.5, g.AverageExcludingEmpty, 1e-9)
}

func TestGroupAllEmptyHasZeroAverages(t *testing.T) {
	groups := aggregator.Group([]attendance.Record{record("Barre", "Sun", 0, 0)}, classDayKey)
	require.Len(t, groups, 1)
	assert.Equal(t, 0.0, groups[0].AverageIncludingEmpty)
	assert.Equal(t, 0.0, groups[0].AverageExcludingEmpty)
	assert.Equal(t, 1, groups[0].EmptyCount)
}

func TestGroupPreservesFirstSeenOrder(t *testing.T) {
	records := []attendance.Record{
		record("Spin", "Mon", 1, 0),
		record("Yoga", "Mon", 1, 0),
		record("Spin", "Mon", 1, 0),
		record("Barre", "Mon", 1, 0),
	}
	groups := aggregator.GroupBy(records, aggregator.ByClassType)

	var order []string
	for _, g := range groups {
		order = append(order, g.ClassType)
	}
	assert.Equal(t, []string{"Spin", "Yoga", "Barre"}, order)
	assert.Equal(t, records[0], groups[0].Children[0])
	assert.Equal(t, records[2], groups[0].Children[1])
}

func TestGroupProperties(t *testing.T) {
	records := randomRecords(300)

	for _, strategy := range aggregator.Strategies() {
		t.Run(string(strategy), func(t *testing.T) {
			groups := aggregator.GroupBy(records, strategy)

			expected := 0
			for _, r := range records {
				expected += max(1, len(r.Occurrences))
			}

			total := 0
			for _, g := range groups {
				total += g.OccurrenceCount
				assert.Equal(t, g.OccurrenceCount, g.EmptyCount+g.NonEmptyCount)
				assert.GreaterOrEqual(t, g.AverageIncludingEmpty, 0.0)
				assert.GreaterOrEqual(t, g.AverageExcludingEmpty, 0.0)
			}
			assert.Equal(t, expected, total)

			again := aggregator.GroupBy(records, strategy)
			assert.Equal(t, groups, again)
		})
	}
}

func TestGroupDoesNotMutateInput(t *testing.T) {
	records := randomRecords(20)
	snapshot := make([]attendance.Record, len(records))
	copy(snapshot, records)

	aggregator.GroupBy(records, aggregator.ByInstructor)
	assert.Equal(t, snapshot, records)
}

func TestGroupChildrenAreIndependentOfInput(t *testing.T) {
	spin := record("Spin", "Wed", 9, 450)
	spin.Occurrences = []attendance.Occurrence{
		{Checkins: 4, Revenue: decimal.NewFromInt(200)},
		{Checkins: 5, Revenue: decimal.NewFromInt(250)},
	}
	records := []attendance.Record{spin}

	groups := aggregator.GroupBy(records, aggregator.ByClassType)
	require.Len(t, groups, 1)
	require.Len(t, groups[0].Children, 1)

	child := groups[0].Children[0]
	child.Occurrences[0].Checkins = 99
	child.Occurrences = append(child.Occurrences, attendance.Occurrence{Checkins: 1})

	assert.Equal(t, 4, records[0].Occurrences[0].Checkins)
	assert.Len(t, records[0].Occurrences, 2)

	again := aggregator.GroupBy(records, aggregator.ByClassType)
	assert.Equal(t, 9, again[0].TotalCheckins)
}

func TestIdentityStrategyGivesUniqueKeys(t *testing.T) {
	records := []attendance.Record{
		record("Yoga", "Mon", 3, 30),
		record("Yoga", "Mon", 3, 30),
	}
	groups := aggregator.GroupBy(records, aggregator.NoGrouping)
	require.Len(t, groups, 2)
	assert.NotEqual(t, groups[0].Key, groups[1].Key)
}

func TestMonthStrategy(t *testing.T) {
	jan := record("Yoga", "Mon", 1, 0)
	jan.Date = time.Date(2024, 1, 8, 7, 0, 0, 0, time.UTC)
	jan2 := record("Spin", "Tue", 1, 0)
	jan2.Date = time.Date(2024, 1, 30, 7, 0, 0, 0, time.UTC)
	feb := record("Yoga", "Mon", 1, 0)
	feb.Date = time.Date(2024, 2, 5, 7, 0, 0, 0, time.UTC)
	undated := record("Barre", "Wed", 1, 0)

	groups := aggregator.GroupBy([]attendance.Record{jan, feb, jan2, undated}, aggregator.ByMonth)
	require.Len(t, groups, 3)
	assert.Equal(t, aggregator.GroupKey("2024-01"), groups[0].Key)
	assert.Equal(t, 2, groups[0].RecordCount)
	assert.Equal(t, aggregator.GroupKey("2024-02"), groups[1].Key)
	assert.Equal(t, aggregator.UndatedKey, groups[2].Key)
}

func TestParseKeyStrategy(t *testing.T) {
	tests := []struct {
		input    string
		expected aggregator.KeyStrategy
		ok       bool
	}{
		{"instructor", aggregator.ByInstructor, true},
		{"teacherName", aggregator.ByInstructor, true},
		{"cleanedClass", aggregator.ByClassType, true},
		{"Day of Week", aggregator.ByDayOfWeek, true},
		{"class_day_time_location", aggregator.ByClassDayTimeLocation, true},
		{"", aggregator.NoGrouping, true},
		{"colour", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := aggregator.ParseKeyStrategy(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestKeyLabel(t *testing.T) {
	key := aggregator.GroupKey("Yoga" + aggregator.KeySeparator + "Mon")
	assert.Equal(t, "Yoga · Mon", key.Label())
}

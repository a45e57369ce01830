package seeder_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studiodash/internal/aggregator"
	"studiodash/internal/attendance"
	"studiodash/internal/seeder"
	"studiodash/internal/testsupport"
)

func TestGenerateIsDeterministic(t *testing.T) {
	s := seeder.NewSeeder(nil, testsupport.GetLogger(), 50)

	first, err := s.Generate(context.Background())
	require.NoError(t, err)
	second, err := s.Generate(context.Background())
	require.NoError(t, err)

	require.Len(t, first, 50)
	assert.Equal(t, first, second)
}

func TestGeneratedRecordsAreConsistent(t *testing.T) {
	records, err := seeder.NewSeeder(nil, testsupport.GetLogger(), 200).Generate(context.Background())
	require.NoError(t, err)

	for i, r := range records {
		assert.NotEmpty(t, r.ClassType, "record %d", i)
		assert.Equal(t, r.Date.Weekday().String(), r.DayOfWeek, "record %d", i)
		assert.GreaterOrEqual(t, r.Checkins, 0)
		assert.False(t, r.Revenue.IsNegative())
		assert.NotEqual(t, 1, len(r.Occurrences), "single sessions are not split out")

		if len(r.Occurrences) > 0 {
			checkins := 0
			revenue := decimal.Zero
			for _, o := range r.Occurrences {
				checkins += o.Checkins
				revenue = revenue.Add(o.Revenue)
			}
			assert.Equal(t, r.Checkins, checkins, "record %d", i)
			assert.True(t, r.Revenue.Equal(revenue), "record %d", i)
		}
	}

	overview := aggregator.Summarize(records)
	assert.Positive(t, overview.EmptyClasses, "demo data includes empty classes")
	assert.Positive(t, overview.TotalCheckins)
}

func TestGenerateHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := seeder.NewSeeder(nil, testsupport.GetLogger(), 10).Generate(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunStoresBatch(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)

	batch, err := seeder.NewSeeder(dbManager, logger, 25).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, seeder.DemoFilename, batch.Filename)
	assert.Equal(t, 25, batch.RecordCount)

	records, err := attendance.ListRecords(dbManager.GetConnection(), attendance.RecordFilter{BatchID: batch.ID})
	require.NoError(t, err)
	require.Len(t, records, 25)

	generated, err := seeder.NewSeeder(nil, logger, 25).Generate(context.Background())
	require.NoError(t, err)
	for i := range records {
		assert.Equal(t, generated[i].ClassType, records[i].ClassType)
		assert.Equal(t, len(generated[i].Occurrences), len(records[i].Occurrences))
	}
}

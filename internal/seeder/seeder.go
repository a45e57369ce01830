// Package seeder fills the database with deterministic demo attendance.
package seeder

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/karloscodes/cartridge"
	"github.com/shopspring/decimal"

	"studiodash/internal/attendance"
)

// DemoFilename names the batch the seeder creates.
const DemoFilename = "demo-seed"

// Seeder generates a demo import batch. The same Seed and RecordCount
// always produce the same records.
type Seeder struct {
	DBManager   cartridge.DBManager
	Logger      *slog.Logger
	RecordCount int
	Seed        uint64
	// Start is the first day of the generated schedule.
	Start time.Time
}

// NewSeeder creates a new seeder instance
func NewSeeder(dbManager cartridge.DBManager, logger *slog.Logger, recordCount int) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{
		DBManager:   dbManager,
		Logger:      logger,
		RecordCount: recordCount,
		Seed:        2024,
		Start:       time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
}

type classTemplate struct {
	name     string
	price    int64
	capacity int
	hours    float64
}

var classTemplates = []classTemplate{
	{"Yoga Flow", 450, 20, 1},
	{"Power Yoga", 500, 18, 1},
	{"HIIT", 600, 16, 0.75},
	{"Spin", 550, 24, 0.75},
	{"Pilates Mat", 650, 12, 1},
	{"Barre", 700, 14, 1},
	{"Strength Lab", 600, 10, 1},
	{"Zumba", 400, 30, 1},
}

var (
	instructors = []string{"Ana", "Ben", "Cleo", "Dev", "Esha", "Farah", "Gautam", "Hana"}
	locations   = []string{"Bandra", "Andheri", "Powai", "Juhu"}
	timeSlots   = []string{"06:30", "07:00", "08:00", "12:30", "18:00", "19:00", "20:00"}
)

// Run creates one batch of demo records and returns it.
func (s *Seeder) Run(ctx context.Context) (*attendance.ImportBatch, error) {
	start := time.Now()
	s.Logger.Info("Starting database seeding...", slog.Int("recordCount", s.RecordCount))

	records, err := s.Generate(ctx)
	if err != nil {
		return nil, err
	}

	batch := attendance.ImportBatch{Filename: DemoFilename, Format: "seed"}
	if err := attendance.CreateBatch(s.DBManager.GetConnection(), &batch, records); err != nil {
		return nil, fmt.Errorf("failed to store demo batch: %w", err)
	}

	s.Logger.Info("Seeding completed successfully",
		slog.String("batch_id", batch.ID),
		slog.Int("records", batch.RecordCount),
		slog.Duration("elapsed", time.Since(start)))
	return &batch, nil
}

// Generate builds the demo records without storing them. Each record is a
// weekly class slot with one occurrence per week; some sessions are empty
// and a few are cancelled.
func (s *Seeder) Generate(ctx context.Context) ([]attendance.Record, error) {
	rng := rand.New(rand.NewPCG(s.Seed, uint64(s.RecordCount)))
	records := make([]attendance.Record, 0, s.RecordCount)

	for i := 0; i < s.RecordCount; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		records = append(records, s.generateRecord(rng))
	}
	return records, nil
}

func (s *Seeder) generateRecord(rng *rand.Rand) attendance.Record {
	class := classTemplates[rng.IntN(len(classTemplates))]
	weekOffset := rng.IntN(8)
	date := s.Start.AddDate(0, 0, weekOffset*7+rng.IntN(7))
	price := decimal.NewFromInt(class.price)

	r := attendance.Record{
		ClassType:  class.name,
		DayOfWeek:  date.Weekday().String(),
		TimeSlot:   timeSlots[rng.IntN(len(timeSlots))],
		Location:   locations[rng.IntN(len(locations))],
		Instructor: instructors[rng.IntN(len(instructors))],
		Period:     date.Format("Jan-2006"),
		Date:       date,
		Revenue:    decimal.Zero,
	}

	sessions := 1 + rng.IntN(4)
	for week := 0; week < sessions; week++ {
		if rng.Float64() < 0.05 {
			r.Cancelled++
			continue
		}

		checkins := 0
		// Early and late slots run empty more often.
		if rng.Float64() >= emptyChance(r.TimeSlot) {
			checkins = 1 + rng.IntN(class.capacity)
		}
		nonPaid := 0
		if checkins > 0 {
			nonPaid = rng.IntN(checkins/4 + 1)
		}
		revenue := price.Mul(decimal.NewFromInt(int64(checkins - nonPaid)))

		r.Occurrences = append(r.Occurrences, attendance.Occurrence{
			Date:     date.AddDate(0, 0, 7*week),
			Checkins: checkins,
			Revenue:  revenue,
		})
		r.Checkins += checkins
		r.NonPaid += nonPaid
		r.Revenue = r.Revenue.Add(revenue)
		r.Hours += class.hours
	}

	// A single session is the record itself; a fully cancelled slot has
	// none and reads as one empty occurrence.
	if len(r.Occurrences) == 1 {
		r.Occurrences = nil
	}
	return r
}

func emptyChance(slot string) float64 {
	switch slot {
	case "06:30", "12:30", "20:00":
		return 0.25
	default:
		return 0.1
	}
}

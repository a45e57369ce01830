package jobs

import (
	"log/slog"
	"time"

	"github.com/karloscodes/cartridge"

	"studiodash/internal/attendance"
)

// RetentionJob purges import batches that outlived the retention window.
type RetentionJob struct {
	dbManager     cartridge.DBManager
	logger        *slog.Logger
	retentionDays int
}

func NewRetentionJob(dbManager cartridge.DBManager, logger *slog.Logger, retentionDays int) *RetentionJob {
	return &RetentionJob{
		dbManager:     dbManager,
		logger:        logger,
		retentionDays: retentionDays,
	}
}

// Run deletes batches created before now minus the retention period,
// together with their records and occurrences. Zero days keeps everything.
func (j *RetentionJob) Run() error {
	if j.retentionDays <= 0 {
		j.logger.Debug("Import retention disabled")
		return nil
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -j.retentionDays)
	j.logger.Info("Starting import batch retention",
		slog.Int("retention_days", j.retentionDays),
		slog.Time("cutoff_date", cutoff))

	deleted, err := attendance.DeleteBatchesBefore(j.dbManager.GetConnection(), cutoff)
	if err != nil {
		j.logger.Error("Failed to purge expired import batches", slog.Any("error", err))
		return err
	}

	if deleted == 0 {
		j.logger.Debug("No expired import batches")
		return nil
	}

	j.logger.Info("Purged expired import batches",
		slog.Int64("deleted_count", deleted),
		slog.Int("retention_days", j.retentionDays))
	return nil
}

package attendance

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrBatchNotFound is returned when an import batch id does not exist.
var ErrBatchNotFound = errors.New("import batch not found")

const insertBatchSize = 500

// ImportBatch groups the records loaded from one uploaded file.
type ImportBatch struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Filename     string    `gorm:"size:255" json:"filename"`
	Format       string    `gorm:"size:10" json:"format"`
	RecordCount  int       `gorm:"not null;default:0" json:"record_count"`
	WarningCount int       `gorm:"not null;default:0" json:"warning_count"`
	CreatedAt    time.Time `gorm:"index:idx_batches_created_at" json:"created_at"`
}

// TableName specifies the table name for GORM
func (ImportBatch) TableName() string {
	return "import_batches"
}

// RecordFilter narrows ListRecords. Zero values mean "no constraint".
type RecordFilter struct {
	BatchID  string
	Location string
	From     time.Time
	To       time.Time
}

// CreateBatch stores a batch and its records in a single transaction.
// A missing batch ID is generated. Records keep their input order.
func CreateBatch(db *gorm.DB, batch *ImportBatch, records []Record) error {
	if batch.ID == "" {
		batch.ID = uuid.NewString()
	}
	batch.RecordCount = len(records)
	if batch.CreatedAt.IsZero() {
		batch.CreatedAt = time.Now().UTC()
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(batch).Error; err != nil {
			return fmt.Errorf("failed to create import batch: %w", err)
		}
		if len(records) == 0 {
			return nil
		}

		rows := make([]Record, len(records))
		for i, r := range records {
			r = r.Normalize()
			r.ID = 0
			r.BatchID = batch.ID
			r.CreatedAt = batch.CreatedAt
			for j := range r.Occurrences {
				r.Occurrences[j].ID = 0
				r.Occurrences[j].Position = j
			}
			rows[i] = r
		}

		if err := tx.CreateInBatches(rows, insertBatchSize).Error; err != nil {
			return fmt.Errorf("failed to insert attendance records: %w", err)
		}
		return nil
	})
}

// ListRecords returns records matching the filter in insertion order, with
// their occurrences preloaded in session order.
func ListRecords(db *gorm.DB, filter RecordFilter) ([]Record, error) {
	query := db.Model(&Record{}).
		Preload("Occurrences", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("position ASC, id ASC")
		})

	if filter.BatchID != "" {
		query = query.Where("batch_id = ?", filter.BatchID)
	}
	if filter.Location != "" {
		query = query.Where("location = ?", filter.Location)
	}
	if !filter.From.IsZero() {
		query = query.Where("date >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		query = query.Where("date <= ?", filter.To)
	}

	var records []Record
	if err := query.Order("id ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("error fetching attendance records: %w", err)
	}
	return records, nil
}

// ListBatches returns all import batches, newest first.
func ListBatches(db *gorm.DB) ([]ImportBatch, error) {
	var batches []ImportBatch
	if err := db.Order("created_at DESC").Find(&batches).Error; err != nil {
		return nil, fmt.Errorf("error fetching import batches: %w", err)
	}
	return batches, nil
}

// GetBatch returns a single import batch.
func GetBatch(db *gorm.DB, id string) (*ImportBatch, error) {
	var batch ImportBatch
	if err := db.Where("id = ?", id).First(&batch).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBatchNotFound
		}
		return nil, fmt.Errorf("error fetching import batch: %w", err)
	}
	return &batch, nil
}

// DeleteBatch removes a batch together with its records and occurrences.
func DeleteBatch(db *gorm.DB, id string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ?", id).Delete(&ImportBatch{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete import batch: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrBatchNotFound
		}
		return deleteBatchRecords(tx, []string{id})
	})
}

// DeleteBatchesBefore removes every batch created before cutoff and
// returns how many batches were deleted.
func DeleteBatchesBefore(db *gorm.DB, cutoff time.Time) (int64, error) {
	var ids []string
	if err := db.Model(&ImportBatch{}).
		Where("created_at < ?", cutoff).
		Pluck("id", &ids).Error; err != nil {
		return 0, fmt.Errorf("error selecting expired import batches: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := deleteBatchRecords(tx, ids); err != nil {
			return err
		}
		return tx.Where("id IN ?", ids).Delete(&ImportBatch{}).Error
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired import batches: %w", err)
	}
	return int64(len(ids)), nil
}

// SQLite only honours ON DELETE CASCADE with foreign_keys enabled, so
// occurrences are removed explicitly.
func deleteBatchRecords(tx *gorm.DB, batchIDs []string) error {
	recordIDs := tx.Model(&Record{}).Select("id").Where("batch_id IN ?", batchIDs)
	if err := tx.Where("record_id IN (?)", recordIDs).Delete(&Occurrence{}).Error; err != nil {
		return fmt.Errorf("failed to delete occurrences: %w", err)
	}
	if err := tx.Where("batch_id IN ?", batchIDs).Delete(&Record{}).Error; err != nil {
		return fmt.Errorf("failed to delete attendance records: %w", err)
	}
	return nil
}

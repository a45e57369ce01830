// Package attendance holds the class-attendance data model and its
// persistence: import batches, the records they contain and the individual
// session occurrences folded into each record.
package attendance

import (
	"time"

	"github.com/shopspring/decimal"
)

// Record is one row of attendance input for a scheduled class slot.
//
// When Occurrences is empty the record itself counts as exactly one
// occurrence carrying its own Checkins and Revenue.
type Record struct {
	ID         uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	BatchID    string          `gorm:"size:36;not null;index:idx_records_batch" json:"batch_id"`
	ClassType  string          `gorm:"size:255;not null" json:"class_type"`
	DayOfWeek  string          `gorm:"size:20" json:"day_of_week"`
	TimeSlot   string          `gorm:"size:20" json:"time_slot"`
	Location   string          `gorm:"size:255;index:idx_records_location" json:"location"`
	Instructor string          `gorm:"size:255" json:"instructor"`
	Period     string          `gorm:"size:50" json:"period"`
	Date       time.Time       `gorm:"index:idx_records_date" json:"date"`
	Checkins   int             `gorm:"not null;default:0" json:"checkins"`
	Revenue    decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"revenue"`
	Cancelled  int             `gorm:"not null;default:0" json:"cancelled"`
	NonPaid    int             `gorm:"not null;default:0" json:"non_paid"`
	Hours      float64         `gorm:"not null;default:0" json:"hours"`

	Occurrences []Occurrence `gorm:"foreignKey:RecordID;constraint:OnDelete:CASCADE" json:"occurrences,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (Record) TableName() string {
	return "attendance_records"
}

// Occurrence is a single session instance of a Record.
type Occurrence struct {
	ID       uint            `gorm:"primaryKey;autoIncrement" json:"-"`
	RecordID uint            `gorm:"not null;index:idx_occurrences_record" json:"-"`
	Position int             `gorm:"not null;default:0" json:"-"`
	Date     time.Time       `json:"date"`
	Checkins int             `gorm:"not null;default:0" json:"checkins"`
	Revenue  decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"revenue"`
}

// TableName specifies the table name for GORM
func (Occurrence) TableName() string {
	return "attendance_occurrences"
}

// IsEmpty reports whether nobody checked in to the session.
func (o Occurrence) IsEmpty() bool {
	return o.Checkins == 0
}

// HasDate reports whether the record carries a session date.
func (r Record) HasDate() bool {
	return !r.Date.IsZero()
}

// Sessions returns the occurrences that make up the record. A record
// without explicit occurrences yields one synthesised from its own totals.
func (r Record) Sessions() []Occurrence {
	if len(r.Occurrences) > 0 {
		return r.Occurrences
	}
	return []Occurrence{{
		Date:     r.Date,
		Checkins: r.Checkins,
		Revenue:  r.Revenue,
	}}
}

// Normalize clamps negative counts and amounts to zero.
func (r Record) Normalize() Record {
	r.Checkins = nonNegative(r.Checkins)
	r.Cancelled = nonNegative(r.Cancelled)
	r.NonPaid = nonNegative(r.NonPaid)
	if r.Revenue.IsNegative() {
		r.Revenue = decimal.Zero
	}
	if r.Hours < 0 {
		r.Hours = 0
	}
	if len(r.Occurrences) > 0 {
		occurrences := make([]Occurrence, len(r.Occurrences))
		for i, o := range r.Occurrences {
			o.Checkins = nonNegative(o.Checkins)
			if o.Revenue.IsNegative() {
				o.Revenue = decimal.Zero
			}
			occurrences[i] = o
		}
		r.Occurrences = occurrences
	}
	return r
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

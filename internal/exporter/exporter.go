// Package exporter writes attendance records back out as spreadsheets.
// The header uses names the importer recognises. A record with
// occurrences is written one row per session, numbered in the Session
// column, so an export imports back into the same records.
package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"studiodash/internal/attendance"
)

const sheetName = "Attendance"

// Header is the column order of every export.
var Header = []string{
	"Class", "Day", "Time", "Location", "Instructor", "Period", "Date",
	"Checkins", "Revenue", "Cancelled", "Non Paid", "Hours", "Session",
}

// ContentType returns the MIME type for a format name.
func ContentType(format string) string {
	if format == "xlsx" {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// line is one exported row.
type line struct {
	record    attendance.Record
	session   int
	date      time.Time
	checkins  int
	revenue   decimal.Decimal
	cancelled int
	nonPaid   int
	hours     float64
}

// lines splits a record into its exported rows. Record-level counts
// (cancelled, non-paid, hours) go on the first session so the importer's
// sums restore them.
func lines(r attendance.Record) []line {
	if len(r.Occurrences) == 0 {
		return []line{{
			record:    r,
			date:      r.Date,
			checkins:  r.Checkins,
			revenue:   r.Revenue,
			cancelled: r.Cancelled,
			nonPaid:   r.NonPaid,
			hours:     r.Hours,
		}}
	}

	out := make([]line, len(r.Occurrences))
	for i, o := range r.Occurrences {
		date := o.Date
		if date.IsZero() {
			date = r.Date
		}
		out[i] = line{record: r, session: i + 1, date: date, checkins: o.Checkins, revenue: o.Revenue}
	}
	out[0].cancelled = r.Cancelled
	out[0].nonPaid = r.NonPaid
	out[0].hours = r.Hours
	return out
}

func (l line) dateCell() string {
	if l.date.IsZero() {
		return ""
	}
	return l.date.Format("2006-01-02")
}

func (l line) sessionCell() string {
	if l.session == 0 {
		return ""
	}
	return strconv.Itoa(l.session)
}

func (l line) cells() []string {
	return []string{
		l.record.ClassType,
		l.record.DayOfWeek,
		l.record.TimeSlot,
		l.record.Location,
		l.record.Instructor,
		l.record.Period,
		l.dateCell(),
		strconv.Itoa(l.checkins),
		l.revenue.StringFixed(2),
		strconv.Itoa(l.cancelled),
		strconv.Itoa(l.nonPaid),
		strconv.FormatFloat(l.hours, 'f', -1, 64),
		l.sessionCell(),
	}
}

// Rows renders one record as export rows.
func Rows(r attendance.Record) [][]string {
	ls := lines(r)
	rows := make([][]string, len(ls))
	for i, l := range ls {
		rows[i] = l.cells()
	}
	return rows
}

// WriteCSV writes the header and the rows of every record.
func WriteCSV(w io.Writer, records []attendance.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, r := range records {
		if err := cw.WriteAll(Rows(r)); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes a single-sheet workbook. Numeric columns are stored as
// numbers so spreadsheet formulas work on them.
func WriteXLSX(w io.Writer, records []attendance.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]any, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write xlsx header: %w", err)
	}

	next := 2
	for _, r := range records {
		for _, l := range lines(r) {
			row := []any{
				l.record.ClassType,
				l.record.DayOfWeek,
				l.record.TimeSlot,
				l.record.Location,
				l.record.Instructor,
				l.record.Period,
				l.dateCell(),
				l.checkins,
				l.revenue.InexactFloat64(),
				l.cancelled,
				l.nonPaid,
				l.hours,
				l.sessionCell(),
			}
			if l.session > 0 {
				row[12] = l.session
			}
			cell, err := excelize.CoordinatesToCellName(1, next)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
				return fmt.Errorf("failed to write xlsx row %d: %w", next, err)
			}
			next++
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write xlsx: %w", err)
	}
	return nil
}

// Package importer turns uploaded attendance spreadsheets into records.
//
// Headers are matched through the alias table in columns.yml. Numeric
// cells that cannot be read are coerced to zero and reported as warnings
// rather than failing the whole file. Rows carrying a session number are
// joined back into the record they were exported from.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"studiodash/internal/attendance"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported import format")
	ErrMissingColumn     = errors.New("missing required column")
	ErrTooManyRows       = errors.New("too many rows")
	ErrNoHeader          = errors.New("file has no header row")
)

// Format is a supported spreadsheet format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts a format name with or without a leading dot.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "."))) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// FormatFromFilename picks the format from a file extension.
func FormatFromFilename(name string) (Format, error) {
	return ParseFormat(filepath.Ext(name))
}

// Options controls how rows become records.
type Options struct {
	// CollapseSessions folds rows of the same class slot into one record
	// with one occurrence per row.
	CollapseSessions bool
	// MaxRows rejects files with more data rows. Zero means no limit.
	MaxRows int
}

// Warning describes a cell that was coerced or a row that was skipped.
type Warning struct {
	Row    int    `json:"row"`
	Column Column `json:"column"`
	Value  string `json:"value"`
	Reason string `json:"reason"`
}

func (w Warning) String() string {
	return fmt.Sprintf("row %d, %s %q: %s", w.Row, w.Column, w.Value, w.Reason)
}

// Result is the outcome of one import.
type Result struct {
	Records  []attendance.Record `json:"-"`
	Warnings []Warning           `json:"warnings"`
	RowCount int                 `json:"row_count"`
}

// Parse reads a spreadsheet and maps its rows to records.
func Parse(r io.Reader, format Format, opts Options) (*Result, error) {
	var (
		rows [][]string
		err  error
	)
	switch format {
	case FormatCSV:
		rows, err = readCSV(r)
	case FormatXLSX:
		rows, err = readXLSX(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, err
	}
	return FromRows(rows, opts)
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	return rows, nil
}

// readXLSX returns the rows of the first sheet.
func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoHeader
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

// FromRows maps a header row plus data rows to records. Blank rows are
// ignored; rows without a class type are skipped with a warning.
func FromRows(rows [][]string, opts Options) (*Result, error) {
	start := firstNonBlank(rows)
	if start < 0 {
		return nil, ErrNoHeader
	}
	idx, err := indexHeader(rows[start])
	if err != nil {
		return nil, err
	}

	result := &Result{}
	parsed := make([]parsedRow, 0, len(rows)-start-1)
	for i := start + 1; i < len(rows); i++ {
		if isBlank(rows[i]) {
			continue
		}
		result.RowCount++
		if opts.MaxRows > 0 && result.RowCount > opts.MaxRows {
			return nil, fmt.Errorf("%w: limit is %d", ErrTooManyRows, opts.MaxRows)
		}

		// Spreadsheet rows are 1-based.
		row, warnings, ok := mapRow(idx, rows[i], i+1)
		result.Warnings = append(result.Warnings, warnings...)
		if ok {
			parsed = append(parsed, row)
		}
	}

	result.Records = joinSessions(parsed)

	if opts.CollapseSessions {
		result.Records = CollapseSessions(result.Records)
	}
	return result, nil
}

type parsedRow struct {
	record attendance.Record
	// session is the 1-based session number, 0 when the row is a whole record.
	session int
}

func mapRow(idx columnIndex, row []string, line int) (parsedRow, []Warning, bool) {
	var warnings []Warning
	warn := func(col Column, value string, err error) {
		warnings = append(warnings, Warning{Row: line, Column: col, Value: value, Reason: err.Error()})
	}

	class := normalizeName(idx.cell(row, ColClassType))
	if class == "" {
		warn(ColClassType, "", errors.New("missing class type, row skipped"))
		return parsedRow{}, warnings, false
	}

	r := attendance.Record{
		ClassType:  class,
		DayOfWeek:  normalizeDay(idx.cell(row, ColDayOfWeek)),
		TimeSlot:   normalizeTime(idx.cell(row, ColTimeSlot)),
		Location:   normalizeName(idx.cell(row, ColLocation)),
		Instructor: normalizeName(idx.cell(row, ColInstructor)),
		Period:     idx.cell(row, ColPeriod),
	}

	if raw := idx.cell(row, ColDate); raw != "" {
		date, err := parseDate(raw)
		if err != nil {
			warn(ColDate, raw, err)
		}
		r.Date = date
	}
	if r.HasDate() {
		if r.DayOfWeek == "" {
			r.DayOfWeek = r.Date.Weekday().String()
		}
		if r.Period == "" {
			r.Period = r.Date.Format("Jan-2006")
		}
	}

	session := 0
	counts := []struct {
		col Column
		dst *int
	}{
		{ColCheckins, &r.Checkins},
		{ColCancelled, &r.Cancelled},
		{ColNonPaid, &r.NonPaid},
		{ColSession, &session},
	}
	for _, c := range counts {
		raw := idx.cell(row, c.col)
		n, err := parseCount(raw)
		if err != nil {
			warn(c.col, raw, err)
		}
		*c.dst = n
	}

	rawRevenue := idx.cell(row, ColRevenue)
	revenue, err := parseAmount(rawRevenue)
	if err != nil {
		warn(ColRevenue, rawRevenue, err)
	}
	r.Revenue = revenue

	rawHours := idx.cell(row, ColHours)
	hours, err := parseHours(rawHours)
	if err != nil {
		warn(ColHours, rawHours, err)
	}
	r.Hours = hours

	return parsedRow{record: r, session: session}, warnings, true
}

// joinSessions rebuilds records that were written one row per session.
// A row numbered 2 or higher continues the record opened by the rows
// before it when both describe the same slot; otherwise it starts a new
// record. Rows without a session number are records on their own.
func joinSessions(rows []parsedRow) []attendance.Record {
	records := make([]attendance.Record, 0, len(rows))
	open := -1
	for _, row := range rows {
		switch {
		case row.session > 1 && open >= 0 && slotKey(records[open]) == slotKey(row.record):
			addSessions(&records[open], row.record)
		case row.session > 0:
			records = append(records, emptySlot(row.record))
			open = len(records) - 1
			addSessions(&records[open], row.record)
		default:
			records = append(records, row.record)
			open = -1
		}
	}

	// A lone session is the record itself.
	for i := range records {
		if len(records[i].Occurrences) == 1 {
			records[i].Occurrences = nil
		}
	}
	return records
}

func firstNonBlank(rows [][]string) int {
	for i, row := range rows {
		if !isBlank(row) {
			return i
		}
	}
	return -1
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

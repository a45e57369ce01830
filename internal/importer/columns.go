package importer

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"gopkg.in/yaml.v3"
)

// Column is a canonical input column.
type Column string

const (
	ColClassType  Column = "class_type"
	ColDayOfWeek  Column = "day_of_week"
	ColTimeSlot   Column = "time_slot"
	ColLocation   Column = "location"
	ColInstructor Column = "instructor"
	ColPeriod     Column = "period"
	ColDate       Column = "date"
	ColCheckins   Column = "checkins"
	ColRevenue    Column = "revenue"
	ColCancelled  Column = "cancelled"
	ColNonPaid    Column = "non_paid"
	ColHours      Column = "hours"
	// ColSession numbers the rows of a record exported one row per session.
	ColSession    Column = "session"
)

//go:embed columns.yml
var columnsFile []byte

var (
	aliases     map[string]Column
	aliasesOnce sync.Once
)

func loadAliases() map[string]Column {
	aliasesOnce.Do(func() {
		var table map[Column][]string
		if err := yaml.Unmarshal(columnsFile, &table); err != nil {
			panic(fmt.Sprintf("importer: invalid columns.yml: %v", err))
		}

		aliases = make(map[string]Column)
		for col, names := range table {
			aliases[headerKey(string(col))] = col
			for _, name := range names {
				aliases[headerKey(name)] = col
			}
		}
	})
	return aliases
}

// headerKey lowercases a header and drops everything but letters and digits.
func headerKey(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// LookupColumn resolves a header cell to its canonical column.
func LookupColumn(header string) (Column, bool) {
	col, ok := loadAliases()[headerKey(header)]
	return col, ok
}

// columnIndex maps each recognised column to its position in the header
// row. The first header resolving to a column wins.
type columnIndex map[Column]int

func indexHeader(header []string) (columnIndex, error) {
	idx := make(columnIndex)
	for i, cell := range header {
		col, ok := LookupColumn(strings.TrimPrefix(cell, "\ufeff"))
		if !ok {
			continue
		}
		if _, seen := idx[col]; !seen {
			idx[col] = i
		}
	}
	if _, ok := idx[ColClassType]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, ColClassType)
	}
	return idx, nil
}

// cell returns the trimmed value of col in row, or "" when the column is
// absent or the row is short.
func (idx columnIndex) cell(row []string, col Column) string {
	i, ok := idx[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

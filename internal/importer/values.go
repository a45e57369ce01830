package importer

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	errNotANumber = errors.New("not a number")
	errNegative   = errors.New("negative value")
	errBadDate    = errors.New("unrecognised date")
	errOutOfRange = errors.New("value out of range")
)

// maxCount is the largest whole-number cell accepted.
const maxCount = math.MaxInt32

// NoLower keeps acronyms such as HIIT intact.
var titleCaser = cases.Title(language.English, cases.NoLower)

var amountNoise = strings.NewReplacer(
	"₹", "", "$", "", "€", "", "£", "",
	"INR", "", "Rs.", "", "Rs", "",
	",", "", " ", "", "\u00a0", "",
)

// parseAmount reads a money cell. Empty cells are zero.
func parseAmount(s string) (decimal.Decimal, error) {
	cleaned := amountNoise.Replace(strings.TrimSpace(s))
	if cleaned == "" || cleaned == "-" {
		return decimal.Zero, nil
	}
	if strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		return decimal.Zero, errNegative
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, errNotANumber
	}
	if d.IsNegative() {
		return decimal.Zero, errNegative
	}
	return d.Round(2), nil
}

// parseCount reads a whole-number cell, rounding spreadsheet floats.
func parseCount(s string) (int, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if cleaned == "" || cleaned == "-" {
		return 0, nil
	}
	if n, err := strconv.Atoi(cleaned); err == nil {
		if n < 0 {
			return 0, errNegative
		}
		if n > maxCount {
			return 0, errOutOfRange
		}
		return n, nil
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errNotANumber
	}
	if f < 0 {
		return 0, errNegative
	}
	if f > maxCount {
		return 0, errOutOfRange
	}
	return int(math.Round(f)), nil
}

// parseHours accepts decimal hours ("1.5") or a clock duration ("1:30").
func parseHours(s string) (float64, error) {
	cleaned := strings.TrimSpace(s)
	if cleaned == "" {
		return 0, nil
	}
	if h, m, ok := strings.Cut(cleaned, ":"); ok {
		hours, err1 := strconv.Atoi(h)
		minutes, err2 := strconv.Atoi(m)
		if err1 != nil || err2 != nil || minutes < 0 || minutes >= 60 {
			return 0, errNotANumber
		}
		if hours < 0 {
			return 0, errNegative
		}
		return float64(hours) + float64(minutes)/60, nil
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errNotANumber
	}
	if f < 0 {
		return 0, errNegative
	}
	return f, nil
}

// Day-first layouts come before month-first ones; studio exports are
// written in day/month order.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2-1-2006",
	"02.01.2006",
	"2006/01/02",
	"01-02-06",
	"02-Jan-2006",
	"2-Jan-2006",
	"02-Jan-06",
	"2 Jan 2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

// parseDate reads a date cell. Bare numbers are Excel serial dates.
func parseDate(s string) (time.Time, error) {
	cleaned := strings.TrimSpace(s)
	if cleaned == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return t.UTC(), nil
		}
	}
	if serial, err := strconv.ParseFloat(cleaned, 64); err == nil && serial > 0 {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errBadDate
}

var weekdays = map[string]string{
	"mon": "Monday",
	"tue": "Tuesday",
	"wed": "Wednesday",
	"thu": "Thursday",
	"fri": "Friday",
	"sat": "Saturday",
	"sun": "Sunday",
}

// normalizeDay expands "mon", "MON." or "monday" to "Monday". Values that
// are not a weekday are title-cased and kept.
func normalizeDay(s string) string {
	cleaned := strings.ToLower(strings.TrimSpace(s))
	if len(cleaned) >= 3 {
		if day, ok := weekdays[cleaned[:3]]; ok {
			return day
		}
	}
	return normalizeName(s)
}

var timeLayouts = []string{"15:04", "15:04:05", "3:04 PM", "3:04PM", "3 PM", "3PM", "3:04 pm", "3:04pm", "3pm", "3 pm"}

// normalizeTime renders recognised clock times as 24-hour "15:04".
func normalizeTime(s string) string {
	cleaned := strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return t.Format("15:04")
		}
	}
	return cleaned
}

// normalizeName collapses inner whitespace and title-cases each word.
func normalizeName(s string) string {
	return titleCaser.String(strings.Join(strings.Fields(s), " "))
}

package aggregator

import (
	"strconv"
	"strings"

	"studiodash/internal/attendance"
)

// GroupKey identifies the records that belong together under a strategy.
type GroupKey string

// KeySeparator joins the fields of a composite key. The ASCII unit
// separator never appears in spreadsheet text.
const KeySeparator = "\x1f"

// UndatedKey is the month key shared by records without a date.
const UndatedKey GroupKey = "undated"

// KeyFunc maps a record to its group key. It receives the record's
// position in the input so the identity strategy can stay pure.
type KeyFunc func(index int, r attendance.Record) GroupKey

// KeyStrategy names one of the supported grouping strategies.
type KeyStrategy string

const (
	ByClassDayTimeLocation KeyStrategy = "class_day_time_location"
	ByInstructor           KeyStrategy = "instructor"
	ByMonth                KeyStrategy = "month"
	ByLocation             KeyStrategy = "location"
	ByClassType            KeyStrategy = "class_type"
	ByDayOfWeek            KeyStrategy = "day_of_week"
	ByPeriod               KeyStrategy = "period"
	NoGrouping             KeyStrategy = "none"
)

var keyFuncs = map[KeyStrategy]KeyFunc{
	ByClassDayTimeLocation: func(_ int, r attendance.Record) GroupKey {
		return joinKey(r.ClassType, r.DayOfWeek, r.TimeSlot, r.Location)
	},
	ByInstructor: func(_ int, r attendance.Record) GroupKey {
		return GroupKey(r.Instructor)
	},
	ByMonth: func(_ int, r attendance.Record) GroupKey {
		if !r.HasDate() {
			return UndatedKey
		}
		return GroupKey(r.Date.Format("2006-01"))
	},
	ByLocation: func(_ int, r attendance.Record) GroupKey {
		return GroupKey(r.Location)
	},
	ByClassType: func(_ int, r attendance.Record) GroupKey {
		return GroupKey(r.ClassType)
	},
	ByDayOfWeek: func(_ int, r attendance.Record) GroupKey {
		return GroupKey(r.DayOfWeek)
	},
	ByPeriod: func(_ int, r attendance.Record) GroupKey {
		return GroupKey(r.Period)
	},
	NoGrouping: func(index int, r attendance.Record) GroupKey {
		return joinKey(r.ClassType, r.DayOfWeek, r.TimeSlot, r.Location, "#"+strconv.Itoa(index+1))
	},
}

// strategyAliases accepts the field names the dashboard front end sends.
var strategyAliases = map[string]KeyStrategy{
	"cleanedclass": ByClassType,
	"classtype":    ByClassType,
	"class":        ByClassType,
	"teachername":  ByInstructor,
	"teacher":      ByInstructor,
	"trainer":      ByInstructor,
	"dayofweek":    ByDayOfWeek,
	"day":          ByDayOfWeek,
	"slot":         ByClassDayTimeLocation,
	"":             NoGrouping,
}

// Strategies lists every supported strategy in display order.
func Strategies() []KeyStrategy {
	return []KeyStrategy{
		NoGrouping,
		ByClassDayTimeLocation,
		ByClassType,
		ByInstructor,
		ByLocation,
		ByDayOfWeek,
		ByPeriod,
		ByMonth,
	}
}

// ParseKeyStrategy resolves a strategy name or one of its aliases.
func ParseKeyStrategy(name string) (KeyStrategy, bool) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if _, ok := keyFuncs[KeyStrategy(normalized)]; ok {
		return KeyStrategy(normalized), true
	}
	compact := strings.NewReplacer("_", "", "-", "", " ", "").Replace(normalized)
	if s, ok := strategyAliases[compact]; ok {
		return s, true
	}
	return "", false
}

// KeyFor returns the key function for a strategy.
func KeyFor(strategy KeyStrategy) (KeyFunc, bool) {
	fn, ok := keyFuncs[strategy]
	return fn, ok
}

// Label renders a key for display, joining composite parts with " · ".
func (k GroupKey) Label() string {
	return strings.ReplaceAll(string(k), KeySeparator, " · ")
}

func joinKey(parts ...string) GroupKey {
	return GroupKey(strings.Join(parts, KeySeparator))
}

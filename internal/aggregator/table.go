package aggregator

import (
	"studiodash/internal/attendance"
)

// TableConfig is the full, immutable state of a table panel. The caller
// owns transitions (new search text, next page, toggled group) and builds a
// new value for each one.
type TableConfig struct {
	GroupBy   KeyStrategy
	Metric    Metric
	Direction Direction
	Search    string
	Page      int
	PageSize  int
	Expanded  []GroupKey
}

// TableView is one rendered page of a table panel.
type TableView struct {
	GroupBy    KeyStrategy `json:"group_by"`
	Metric     Metric      `json:"metric"`
	Direction  Direction   `json:"direction"`
	Rows       []Row       `json:"rows"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	TotalRows  int         `json:"total_rows"`
	TotalPages int         `json:"total_pages"`
}

// Page is a slice of items plus the numbers needed to page through them.
type Page[T any] struct {
	Items      []T
	Page       int
	PageSize   int
	TotalItems int
	TotalPages int
}

// Paginate returns the requested 1-based page. Out of range pages are
// clamped to the first or last page; a non-positive size returns a
// single page holding everything.
func Paginate[T any](items []T, page, pageSize int) Page[T] {
	total := len(items)
	if pageSize <= 0 {
		pageSize = max(total, 1)
	}
	totalPages := (total + pageSize - 1) / pageSize
	if totalPages == 0 {
		totalPages = 1
	}
	page = min(max(page, 1), totalPages)

	start := min((page-1)*pageSize, total)
	end := min(start+pageSize, total)

	return Page[T]{
		Items:      items[start:end],
		Page:       page,
		PageSize:   pageSize,
		TotalItems: total,
		TotalPages: totalPages,
	}
}

// BuildTable runs search, grouping, sorting and pagination for one table
// panel. With NoGrouping (or an unknown strategy) rows are leaves;
// otherwise they are groups, expanded when their key is in cfg.Expanded.
func BuildTable(records []attendance.Record, cfg TableConfig) TableView {
	if _, ok := KeyFor(cfg.GroupBy); !ok {
		cfg.GroupBy = NoGrouping
	}
	if cfg.Direction == "" {
		cfg.Direction = Descending
	}

	var rows []Row
	if cfg.GroupBy == NoGrouping {
		rows = FilterBySearch(LeafRows(records), cfg.Search)
	} else {
		rows = FilterBySearch(GroupRows(GroupBy(records, cfg.GroupBy)), cfg.Search)
	}
	rows = SortRows(rows, cfg.Metric, cfg.Direction)

	page := Paginate(rows, cfg.Page, cfg.PageSize)
	expanded := make(map[GroupKey]bool, len(cfg.Expanded))
	for _, k := range cfg.Expanded {
		expanded[k] = true
	}

	visible := make([]Row, len(page.Items))
	for i, row := range page.Items {
		if g, ok := row.(GroupRow); ok && expanded[g.Summary.Key] {
			g.Expanded = true
			row = g
		}
		visible[i] = row
	}

	return TableView{
		GroupBy:    cfg.GroupBy,
		Metric:     cfg.Metric,
		Direction:  cfg.Direction,
		Rows:       visible,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalRows:  page.TotalItems,
		TotalPages: page.TotalPages,
	}
}

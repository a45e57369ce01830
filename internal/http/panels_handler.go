package http

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"studiodash/internal/aggregator"
	"studiodash/internal/attendance"
	"studiodash/internal/pkg/async"
)

// GroupsResponse is the ranked group list with shares.
type GroupsResponse struct {
	GroupBy   aggregator.KeyStrategy   `json:"group_by"`
	Metric    aggregator.Metric        `json:"metric"`
	Direction aggregator.Direction     `json:"direction"`
	Total     int                      `json:"total"`
	Groups    []aggregator.RankedGroup `json:"groups"`
}

// ChartResponse is one chart series.
type ChartResponse struct {
	GroupBy aggregator.KeyStrategy  `json:"group_by"`
	Metric  aggregator.Metric       `json:"metric"`
	Points  []aggregator.ChartPoint `json:"points"`
}

// DashboardResponse bundles every panel computed over one record set.
type DashboardResponse struct {
	Chart    ChartResponse        `json:"chart"`
	Table    aggregator.TableView `json:"table"`
	Overview aggregator.Overview  `json:"overview"`
}

var panelPool = async.NewPool(3)

// GroupsIndexAction returns ranked group summaries.
func GroupsIndexAction(ctx *cartridge.Context) error {
	params, err := parsePanelParams(ctx, aggregator.ByClassDayTimeLocation)
	if err != nil {
		return respondError(ctx, err, "parse parameters")
	}
	records, err := loadRecords(ctx, params.Filter)
	if err != nil {
		return respondError(ctx, err, "load records")
	}

	summaries := aggregator.GroupBy(aggregator.FilterRecords(records, params.Search), params.GroupBy)
	return ctx.JSON(GroupsResponse{
		GroupBy:   params.GroupBy,
		Metric:    params.Metric,
		Direction: params.Direction,
		Total:     len(summaries),
		Groups:    aggregator.RankWithShares(summaries, params.Metric, params.Direction, params.Limit),
	})
}

// ChartIndexAction returns the top-N chart series for a metric.
func ChartIndexAction(ctx *cartridge.Context) error {
	params, err := parsePanelParams(ctx, aggregator.ByClassType)
	if err != nil {
		return respondError(ctx, err, "parse parameters")
	}
	records, err := loadRecords(ctx, params.Filter)
	if err != nil {
		return respondError(ctx, err, "load records")
	}
	return ctx.JSON(buildChart(records, params, appConfig(ctx).ChartSeriesLimit))
}

// TableIndexAction returns one page of the table panel.
func TableIndexAction(ctx *cartridge.Context) error {
	params, err := parsePanelParams(ctx, aggregator.NoGrouping)
	if err != nil {
		return respondError(ctx, err, "parse parameters")
	}
	records, err := loadRecords(ctx, params.Filter)
	if err != nil {
		return respondError(ctx, err, "load records")
	}
	return ctx.JSON(buildTable(records, params, appConfig(ctx).ClampPageSize(params.PageSize)))
}

// OverviewIndexAction returns the headline cards.
func OverviewIndexAction(ctx *cartridge.Context) error {
	params, err := parsePanelParams(ctx, aggregator.NoGrouping)
	if err != nil {
		return respondError(ctx, err, "parse parameters")
	}
	records, err := loadRecords(ctx, params.Filter)
	if err != nil {
		return respondError(ctx, err, "load records")
	}
	return ctx.JSON(aggregator.Summarize(aggregator.FilterRecords(records, params.Search)))
}

// DashboardIndexAction loads records once and computes the chart, table
// and overview panels in parallel.
func DashboardIndexAction(ctx *cartridge.Context) error {
	params, err := parsePanelParams(ctx, aggregator.ByClassType)
	if err != nil {
		return respondError(ctx, err, "parse parameters")
	}
	records, err := loadRecords(ctx, params.Filter)
	if err != nil {
		return respondError(ctx, err, "load records")
	}

	cfg := appConfig(ctx)
	pageSize := cfg.ClampPageSize(params.PageSize)

	tasks := []async.Task{
		{
			Name: "chart",
			Execute: func(context.Context) (any, error) {
				return buildChart(records, params, cfg.ChartSeriesLimit), nil
			},
		},
		{
			Name: "table",
			Execute: func(context.Context) (any, error) {
				return buildTable(records, params, pageSize), nil
			},
		},
		{
			Name: "overview",
			Execute: func(context.Context) (any, error) {
				return aggregator.Summarize(aggregator.FilterRecords(records, params.Search)), nil
			},
		},
	}

	results := panelPool.Execute(ctx.UserContext(), tasks)

	var resp DashboardResponse
	if resp.Chart, err = async.Value[ChartResponse](results, "chart"); err != nil {
		return dashboardError(ctx, "chart", err)
	}
	if resp.Table, err = async.Value[aggregator.TableView](results, "table"); err != nil {
		return dashboardError(ctx, "table", err)
	}
	if resp.Overview, err = async.Value[aggregator.Overview](results, "overview"); err != nil {
		return dashboardError(ctx, "overview", err)
	}

	return ctx.JSON(resp)
}

func dashboardError(ctx *cartridge.Context, panel string, err error) error {
	ctx.Logger.Error("Failed to build dashboard panel", slog.String("panel", panel), slog.Any("error", err))
	return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Failed to build " + panel + " panel",
	})
}

// buildChart groups the searched records and caps the series at limit,
// or at defaultLimit when the request names none.
func buildChart(records []attendance.Record, params panelParams, defaultLimit int) ChartResponse {
	limit := params.Limit
	if limit == 0 {
		limit = defaultLimit
	}
	summaries := aggregator.GroupBy(aggregator.FilterRecords(records, params.Search), params.GroupBy)
	return ChartResponse{
		GroupBy: params.GroupBy,
		Metric:  params.Metric,
		Points:  aggregator.ChartSeries(summaries, params.Metric, limit),
	}
}

func buildTable(records []attendance.Record, params panelParams, pageSize int) aggregator.TableView {
	return aggregator.BuildTable(records, aggregator.TableConfig{
		GroupBy:   params.GroupBy,
		Metric:    params.Metric,
		Direction: params.Direction,
		Search:    params.Search,
		Page:      params.Page,
		PageSize:  pageSize,
		Expanded:  params.Expanded,
	})
}

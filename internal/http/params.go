package http

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"studiodash/internal/aggregator"
	"studiodash/internal/attendance"
	"studiodash/internal/config"
)

const dateLayout = "2006-01-02"

var validate = validator.New()

// panelQuery is the query string shared by the panel endpoints.
type panelQuery struct {
	GroupBy   string   `query:"group_by" validate:"max=64"`
	Metric    string   `query:"metric" validate:"max=64"`
	Direction string   `query:"direction" validate:"omitempty,oneof=asc desc ascending descending"`
	Limit     int      `query:"limit" validate:"gte=0,lte=1000"`
	Search    string   `query:"search" validate:"max=200"`
	Batch     string   `query:"batch" validate:"omitempty,uuid"`
	Location  string   `query:"location" validate:"max=255"`
	From      string   `query:"from" validate:"omitempty,datetime=2006-01-02"`
	To        string   `query:"to" validate:"omitempty,datetime=2006-01-02"`
	Page      int      `query:"page" validate:"gte=0"`
	PageSize  int      `query:"page_size" validate:"gte=0"`
	Expanded  []string `query:"expanded" validate:"max=500"`
}

// panelParams is a validated panelQuery resolved to aggregator types.
type panelParams struct {
	GroupBy   aggregator.KeyStrategy
	Metric    aggregator.Metric
	Direction aggregator.Direction
	Limit     int
	Search    string
	Page      int
	PageSize  int
	Expanded  []aggregator.GroupKey
	Filter    attendance.RecordFilter
}

// errBadRequest marks errors caused by the client's input.
type errBadRequest struct {
	msg string
}

func (e errBadRequest) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return errBadRequest{msg: fmt.Sprintf(format, args...)}
}

// parsePanelParams reads and validates panel parameters. An empty group_by
// falls back to defaultGroup; an unknown one is rejected. An empty metric
// means total check-ins; an unknown metric is kept and ranks nothing.
func parsePanelParams(ctx *cartridge.Context, defaultGroup aggregator.KeyStrategy) (panelParams, error) {
	var q panelQuery
	if err := ctx.Ctx.QueryParser(&q); err != nil {
		return panelParams{}, badRequest("invalid query parameters: %v", err)
	}
	if err := validate.Struct(&q); err != nil {
		return panelParams{}, badRequest("%s", describeValidation(err))
	}

	p := panelParams{
		GroupBy:   defaultGroup,
		Metric:    aggregator.TotalCheckins,
		Direction: aggregator.ParseDirection(q.Direction),
		Limit:     q.Limit,
		Search:    strings.TrimSpace(q.Search),
		Page:      q.Page,
		PageSize:  q.PageSize,
		Filter: attendance.RecordFilter{
			BatchID:  q.Batch,
			Location: strings.TrimSpace(q.Location),
		},
	}

	if strings.TrimSpace(q.GroupBy) != "" {
		strategy, ok := aggregator.ParseKeyStrategy(q.GroupBy)
		if !ok {
			return panelParams{}, badRequest("unknown group_by %q", q.GroupBy)
		}
		p.GroupBy = strategy
	}
	if strings.TrimSpace(q.Metric) != "" {
		p.Metric, _ = aggregator.ParseMetric(q.Metric)
	}
	for _, k := range q.Expanded {
		p.Expanded = append(p.Expanded, aggregator.GroupKey(k))
	}

	// Validated above, so parse errors cannot happen here.
	if q.From != "" {
		p.Filter.From, _ = time.Parse(dateLayout, q.From)
	}
	if q.To != "" {
		to, _ := time.Parse(dateLayout, q.To)
		p.Filter.To = to.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	if !p.Filter.From.IsZero() && !p.Filter.To.IsZero() && p.Filter.To.Before(p.Filter.From) {
		return panelParams{}, badRequest("from must not be after to")
	}

	return p, nil
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("invalid %s (%s)", queryName(fe.Field()), fe.Tag()))
	}
	return strings.Join(msgs, "; ")
}

var queryNames = map[string]string{
	"GroupBy":  "group_by",
	"PageSize": "page_size",
}

func queryName(field string) string {
	if name, ok := queryNames[field]; ok {
		return name
	}
	return strings.ToLower(field)
}

// loadRecords fetches the records a panel works on.
func loadRecords(ctx *cartridge.Context, filter attendance.RecordFilter) ([]attendance.Record, error) {
	return attendance.ListRecords(ctx.DB(), filter)
}

func appConfig(ctx *cartridge.Context) *config.Config {
	if cfg, ok := ctx.Config.(*config.Config); ok {
		return cfg
	}
	return config.GetConfig()
}

// respondError maps an error to a JSON response. Client errors keep their
// message; anything else is logged and reported generically.
func respondError(ctx *cartridge.Context, err error, action string) error {
	var bad errBadRequest
	switch {
	case errors.As(err, &bad):
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": bad.msg})
	case errors.Is(err, attendance.ErrBatchNotFound):
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Import batch not found"})
	default:
		ctx.Logger.Error("Request failed", "action", action, "error", err)
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to " + action})
	}
}

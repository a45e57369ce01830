package http

import (
	"bytes"
	"fmt"
	"log/slog"
	"time"

	"github.com/karloscodes/cartridge"

	"studiodash/internal/exporter"
)

type exportQuery struct {
	Format string `query:"format" validate:"omitempty,oneof=csv xlsx"`
	Batch  string `query:"batch" validate:"omitempty,uuid"`
}

// ExportAction downloads the flat record set as CSV or XLSX.
func ExportAction(ctx *cartridge.Context) error {
	var q exportQuery
	if err := ctx.Ctx.QueryParser(&q); err != nil {
		return respondError(ctx, badRequest("invalid query parameters: %v", err), "export")
	}
	if err := validate.Struct(&q); err != nil {
		return respondError(ctx, badRequest("%s", describeValidation(err)), "export")
	}
	if q.Format == "" {
		q.Format = "csv"
	}

	params, err := parsePanelParams(ctx, "")
	if err != nil {
		return respondError(ctx, err, "parse parameters")
	}
	records, err := loadRecords(ctx, params.Filter)
	if err != nil {
		return respondError(ctx, err, "load records")
	}

	var buf bytes.Buffer
	switch q.Format {
	case "xlsx":
		err = exporter.WriteXLSX(&buf, records)
	default:
		err = exporter.WriteCSV(&buf, records)
	}
	if err != nil {
		return respondError(ctx, err, "export records")
	}

	filename := fmt.Sprintf("attendance-%s.%s", time.Now().UTC().Format("20060102"), q.Format)
	ctx.Set("Content-Type", exporter.ContentType(q.Format))
	ctx.Set("Content-Disposition", "attachment; filename="+filename)

	ctx.Logger.Info("Exported attendance records",
		slog.String("format", q.Format),
		slog.Int("records", len(records)))

	return ctx.Send(buf.Bytes())
}

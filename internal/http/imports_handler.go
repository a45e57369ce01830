package http

import (
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"studiodash/internal/attendance"
	"studiodash/internal/importer"
)

// ImportResponse is returned after a successful upload.
type ImportResponse struct {
	Batch    attendance.ImportBatch `json:"batch"`
	RowCount int                    `json:"row_count"`
	Warnings []importer.Warning     `json:"warnings"`
}

// ImportsIndexAction lists import batches, newest first.
func ImportsIndexAction(ctx *cartridge.Context) error {
	batches, err := attendance.ListBatches(ctx.DB())
	if err != nil {
		return respondError(ctx, err, "list imports")
	}
	return ctx.JSON(fiber.Map{"batches": batches})
}

// ImportCreateAction parses an uploaded CSV or XLSX file and stores its
// records as a new batch. Coerced cells come back as warnings.
func ImportCreateAction(ctx *cartridge.Context) error {
	cfg := appConfig(ctx)

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return respondError(ctx, badRequest("a file upload named \"file\" is required"), "import")
	}
	if cfg.ImportMaxBytes > 0 && fileHeader.Size > cfg.ImportMaxBytes {
		return ctx.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
			"error": "File exceeds the " + strconv.FormatInt(cfg.ImportMaxBytes, 10) + " byte limit",
		})
	}

	format, err := importer.FormatFromFilename(fileHeader.Filename)
	if err != nil {
		return respondError(ctx, badRequest("%v", err), "import")
	}

	collapse := cfg.CollapseSessions
	if raw := ctx.FormValue("collapse", ctx.Query("collapse")); raw != "" {
		collapse, err = strconv.ParseBool(raw)
		if err != nil {
			return respondError(ctx, badRequest("collapse must be true or false"), "import")
		}
	}

	file, err := fileHeader.Open()
	if err != nil {
		return respondError(ctx, err, "read upload")
	}
	defer file.Close()

	result, err := importer.Parse(file, format, importer.Options{
		CollapseSessions: collapse,
		MaxRows:          cfg.ImportMaxRows,
	})
	if err != nil {
		return respondError(ctx, badRequest("%v", err), "import")
	}

	batch := attendance.ImportBatch{
		Filename:     fileHeader.Filename,
		Format:       string(format),
		WarningCount: len(result.Warnings),
	}
	if err := attendance.CreateBatch(ctx.DB(), &batch, result.Records); err != nil {
		return respondError(ctx, err, "store import")
	}

	ctx.Logger.Info("Imported attendance file",
		slog.String("batch_id", batch.ID),
		slog.String("filename", batch.Filename),
		slog.Int("rows", result.RowCount),
		slog.Int("records", batch.RecordCount),
		slog.Int("warnings", batch.WarningCount),
		slog.Bool("collapse", collapse))

	warnings := result.Warnings
	if warnings == nil {
		warnings = []importer.Warning{}
	}
	return ctx.Status(fiber.StatusCreated).JSON(ImportResponse{
		Batch:    batch,
		RowCount: result.RowCount,
		Warnings: warnings,
	})
}

// ImportDeleteAction removes a batch and everything imported with it.
func ImportDeleteAction(ctx *cartridge.Context) error {
	id := ctx.Params("id")
	if err := validate.Var(id, "required,uuid"); err != nil {
		return respondError(ctx, badRequest("invalid import id"), "delete import")
	}
	if err := attendance.DeleteBatch(ctx.DB(), id); err != nil {
		return respondError(ctx, err, "delete import")
	}

	ctx.Logger.Info("Deleted import batch", slog.String("batch_id", id))
	return ctx.SendStatus(fiber.StatusNoContent)
}

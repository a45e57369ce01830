// main.go - Control tool for studiodash
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	"golang.org/x/term"

	"studiodash/internal"
	"studiodash/internal/aggregator"
	"studiodash/internal/attendance"
	"studiodash/internal/config"
	"studiodash/internal/exporter"
	"studiodash/internal/importer"
	"studiodash/internal/jobs"
	"studiodash/internal/report"
	"studiodash/internal/seeder"
)

const (
	defaultShutdownTimeout = 30 * time.Second
)

// Command defines the interface for all command implementations
type Command interface {
	// Name returns the command name
	Name() string
	// Description returns the command description
	Description() string
	// Execute runs the command with the given app and args
	Execute(ctx context.Context, app *internal.Application, args []string) error
}

// The set of available commands
var commands = []Command{
	&MigrateCommand{},
	&ImportCommand{},
	&ReportCommand{},
	&ExportCommand{},
	&BatchesCommand{},
	&SeedCommand{},
	&RetentionCommand{},
	&HelpCommand{},
}

func main() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sig := <-sigChan
		log.Printf("Received signal: %v, initiating cleanup...", sig)
		cancel()
	}()

	cmdName, args := parseArgs()

	cmd := findCommand(cmdName)
	if cmd == nil {
		showUsageAndExit()
	}

	var app *internal.Application
	if _, isHelp := cmd.(*HelpCommand); !isHelp {
		var err error
		app, err = internal.NewApp()
		if err != nil {
			log.Fatalf("Failed to initialize app: %v", err)
		}
	}

	err := cmd.Execute(ctx, app, args)

	if app != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
		defer cancel()
		if err := app.Shutdown(shutdownCtx); err != nil {
			log.Printf("Warning: Cleanup error: %v", err)
		}
	}

	// -h prints the command's flags; nothing else runs.
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatalf("Command failed: %v", err)
	}
}

// MigrateCommand runs database migrations
type MigrateCommand struct{}

func (c *MigrateCommand) Name() string        { return "migrate" }
func (c *MigrateCommand) Description() string { return "Runs database migrations" }

func (c *MigrateCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	log.Println("Running database migrations...")
	if err := app.DBManager.MigrateDatabase(); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	log.Println("Migrations completed successfully")
	return nil
}

// ImportCommand loads a CSV or XLSX file as a new batch
type ImportCommand struct{}

func (c *ImportCommand) Name() string { return "import" }
func (c *ImportCommand) Description() string {
	return "Imports a CSV or XLSX attendance file: import [--collapse=true] <file>"
}

func (c *ImportCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	cfg := config.GetConfig()

	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	collapse := fs.Bool("collapse", cfg.CollapseSessions, "fold rows of the same class slot into sessions")
	positional, err := parseFlags(fs, args)
	if err != nil {
		return err
	}
	if len(positional) != 1 {
		return fmt.Errorf("usage: import [--collapse=true|false] <file.csv|file.xlsx>")
	}
	path := positional[0]

	format, err := importer.FormatFromFilename(path)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	result, err := importer.Parse(f, format, importer.Options{
		CollapseSessions: *collapse,
		MaxRows:          cfg.ImportMaxRows,
	})
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	batch := attendance.ImportBatch{
		Filename:     filepath.Base(path),
		Format:       string(format),
		WarningCount: len(result.Warnings),
	}
	if err := attendance.CreateBatch(app.DBManager.GetConnection(), &batch, result.Records); err != nil {
		return err
	}

	for _, w := range result.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
	fmt.Printf("Imported %d rows as %d records into batch %s (%d warnings)\n",
		result.RowCount, batch.RecordCount, batch.ID, batch.WarningCount)
	return nil
}

// ReportCommand prints ranked group summaries
type ReportCommand struct{}

func (c *ReportCommand) Name() string { return "report" }
func (c *ReportCommand) Description() string {
	return "Prints ranked groups: report [--group-by --metric --direction --limit --search --batch --overview]"
}

func (c *ReportCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	groupBy := fs.String("group-by", string(aggregator.ByClassDayTimeLocation), "grouping strategy")
	metric := fs.String("metric", string(aggregator.TotalCheckins), "metric to rank by")
	direction := fs.String("direction", string(aggregator.Descending), "asc or desc")
	limit := fs.Int("limit", 0, "show only the top N groups")
	search := fs.String("search", "", "case-insensitive search")
	batch := fs.String("batch", "", "restrict to one import batch")
	overview := fs.Bool("overview", false, "print headline numbers instead of groups")
	if _, err := parseFlags(fs, args); err != nil {
		return err
	}

	strategy, ok := aggregator.ParseKeyStrategy(*groupBy)
	if !ok {
		return fmt.Errorf("unknown grouping %q, choose one of %v", *groupBy, aggregator.Strategies())
	}
	m, ok := aggregator.ParseMetric(*metric)
	if !ok {
		slog.Warn("Unknown metric, groups are left unsorted", slog.String("metric", *metric))
	}

	records, err := attendance.ListRecords(app.DBManager.GetConnection(), attendance.RecordFilter{BatchID: *batch})
	if err != nil {
		return err
	}

	if *overview {
		return report.WriteOverview(os.Stdout, aggregator.Summarize(aggregator.FilterRecords(records, *search)))
	}

	groups := report.Build(records, report.Options{
		GroupBy:   strategy,
		Metric:    m,
		Direction: aggregator.ParseDirection(*direction),
		Limit:     *limit,
		Search:    *search,
	})

	if term.IsTerminal(int(os.Stdout.Fd())) {
		return report.WriteTable(os.Stdout, groups)
	}
	return report.WriteCSV(os.Stdout, groups)
}

// ExportCommand writes stored records to a file
type ExportCommand struct{}

func (c *ExportCommand) Name() string { return "export" }
func (c *ExportCommand) Description() string {
	return "Exports records: export [--batch id] <file.csv|file.xlsx>"
}

func (c *ExportCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	batch := fs.String("batch", "", "restrict to one import batch")
	positional, err := parseFlags(fs, args)
	if err != nil {
		return err
	}
	if len(positional) != 1 {
		return fmt.Errorf("usage: export [--batch id] <file.csv|file.xlsx>")
	}
	path := positional[0]

	format, err := importer.FormatFromFilename(path)
	if err != nil {
		return err
	}

	records, err := attendance.ListRecords(app.DBManager.GetConnection(), attendance.RecordFilter{BatchID: *batch})
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if format == importer.FormatXLSX {
		err = exporter.WriteXLSX(f, records)
	} else {
		err = exporter.WriteCSV(f, records)
	}
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	fmt.Printf("Exported %d records to %s\n", len(records), path)
	return f.Close()
}

// BatchesCommand lists import batches
type BatchesCommand struct{}

func (c *BatchesCommand) Name() string        { return "batches" }
func (c *BatchesCommand) Description() string { return "Lists import batches" }

func (c *BatchesCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	batches, err := attendance.ListBatches(app.DBManager.GetConnection())
	if err != nil {
		return err
	}
	if len(batches) == 0 {
		fmt.Println("No import batches")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tFile\tFormat\tRecords\tWarnings\tImported")
	for _, b := range batches {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n",
			b.ID, b.Filename, b.Format, b.RecordCount, b.WarningCount, b.CreatedAt.Local().Format(time.DateTime))
	}
	return tw.Flush()
}

// SeedCommand populates the DB with demo data
type SeedCommand struct{}

func (c *SeedCommand) Name() string        { return "seed" }
func (c *SeedCommand) Description() string { return "Seeds the database with demo attendance: seed [n]" }

func (c *SeedCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	count := 500
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return fmt.Errorf("record count must be a positive number, got %q", args[0])
		}
		count = n
	}

	batch, err := seeder.NewSeeder(app.DBManager, slog.Default(), count).Run(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Seeded %d records into batch %s\n", batch.RecordCount, batch.ID)
	return nil
}

// RetentionCommand applies the import retention policy immediately
type RetentionCommand struct{}

func (c *RetentionCommand) Name() string        { return "retention" }
func (c *RetentionCommand) Description() string { return "Deletes import batches past the retention period" }

func (c *RetentionCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	cfg := config.GetConfig()
	return jobs.NewRetentionJob(app.DBManager, slog.Default(), cfg.ImportRetentionDays).Run()
}

// HelpCommand implements a command to show usage information
type HelpCommand struct{}

func (c *HelpCommand) Name() string        { return "help" }
func (c *HelpCommand) Description() string { return "Shows usage information" }

func (c *HelpCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	printUsage()
	return nil
}

// Helper functions

// parseArgs parses the command name and arguments
func parseArgs() (string, []string) {
	args := os.Args[1:]
	if len(args) == 0 {
		return "help", []string{}
	}
	return args[0], args[1:]
}

// parseFlags parses flags that may appear before or after positional
// arguments and returns the positional ones. A help flag returns
// flag.ErrHelp after the flag set has printed its usage.
func parseFlags(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		args = fs.Args()
		if len(args) == 0 {
			return positional, nil
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
}

// findCommand finds a command by name
func findCommand(name string) Command {
	for _, cmd := range commands {
		if cmd.Name() == name {
			return cmd
		}
	}
	return nil
}

func printUsage() {
	fmt.Println("Usage: studioctl [command] [args...]")
	fmt.Println("Available commands:")

	for _, cmd := range commands {
		fmt.Printf("  %s: %s\n", cmd.Name(), cmd.Description())
	}
}

// showUsageAndExit shows usage information and exits
func showUsageAndExit() {
	printUsage()
	os.Exit(1)
}

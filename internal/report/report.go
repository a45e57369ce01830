// Package report renders aggregated attendance for the command line.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"studiodash/internal/aggregator"
	"studiodash/internal/attendance"
)

// Studios report in rupees with lakh grouping.
var printer = message.NewPrinter(language.MustParse("en-IN"))

// Options selects what a report shows.
type Options struct {
	GroupBy   aggregator.KeyStrategy
	Metric    aggregator.Metric
	Direction aggregator.Direction
	Limit     int
	Search    string
}

// Build filters, groups and ranks records for a report. Shares are
// computed before the limit is applied.
func Build(records []attendance.Record, opts Options) []aggregator.RankedGroup {
	filtered := aggregator.FilterRecords(records, opts.Search)
	groups := aggregator.GroupBy(filtered, opts.GroupBy)
	return aggregator.RankWithShares(groups, opts.Metric, opts.Direction, opts.Limit)
}

// FormatCurrency renders an amount as rupees with two decimals.
func FormatCurrency(d decimal.Decimal) string {
	return "₹" + printer.Sprintf("%.2f", d.InexactFloat64())
}

// FormatCount renders an integer with locale grouping.
func FormatCount(n int) string {
	return printer.Sprintf("%d", n)
}

var columns = []string{"Group", "Records", "Classes", "Check-ins", "Empty", "Avg", "Avg (non-empty)", "Revenue", "Share"}

func label(s aggregator.GroupSummary) string {
	if s.Label == "" {
		return "(blank)"
	}
	return s.Label
}

// WriteTable writes an aligned, human-readable table.
func WriteTable(w io.Writer, groups []aggregator.RankedGroup) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	for i, c := range columns {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, c)
	}
	fmt.Fprint(tw, "\t\n")

	for _, g := range groups {
		s := g.Summary
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%.1f\t%.1f\t%s\t%.1f%%\t\n",
			label(s),
			FormatCount(s.RecordCount),
			FormatCount(s.OccurrenceCount),
			FormatCount(s.TotalCheckins),
			FormatCount(s.EmptyCount),
			s.AverageIncludingEmpty,
			s.AverageExcludingEmpty,
			FormatCurrency(s.TotalRevenue),
			g.Share,
		)
	}
	return tw.Flush()
}

// WriteCSV writes the same columns without formatting, for piping.
func WriteCSV(w io.Writer, groups []aggregator.RankedGroup) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return err
	}
	for _, g := range groups {
		s := g.Summary
		err := cw.Write([]string{
			s.Label,
			strconv.Itoa(s.RecordCount),
			strconv.Itoa(s.OccurrenceCount),
			strconv.Itoa(s.TotalCheckins),
			strconv.Itoa(s.EmptyCount),
			strconv.FormatFloat(s.AverageIncludingEmpty, 'f', 2, 64),
			strconv.FormatFloat(s.AverageExcludingEmpty, 'f', 2, 64),
			s.TotalRevenue.StringFixed(2),
			strconv.FormatFloat(g.Share, 'f', 1, 64),
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteOverview writes the headline numbers, one per line.
func WriteOverview(w io.Writer, o aggregator.Overview) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Classes:\t%s\n", FormatCount(o.TotalClasses))
	fmt.Fprintf(tw, "Check-ins:\t%s\n", FormatCount(o.TotalCheckins))
	fmt.Fprintf(tw, "Empty classes:\t%s\n", FormatCount(o.EmptyClasses))
	fmt.Fprintf(tw, "Cancelled:\t%s\n", FormatCount(o.TotalCancelled))
	fmt.Fprintf(tw, "Average attendance:\t%.1f\n", o.AverageAttendance)
	fmt.Fprintf(tw, "Revenue:\t%s\n", FormatCurrency(o.TotalRevenue))
	if o.TopInstructor != "" {
		fmt.Fprintf(tw, "Top instructor:\t%s (%s check-ins)\n", o.TopInstructor, FormatCount(o.TopInstructorCheckins))
	}
	return tw.Flush()
}

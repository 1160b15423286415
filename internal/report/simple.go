package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/couponscout/internal/model"
)

const separator = "============================================================"

// SimpleWriter outputs human-readable text reports for terminal display.
type SimpleWriter struct {
	baseWriter

	// verbose adds the per-outcome counts.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the run report in human-readable format.
func (w *SimpleWriter) Write(report *model.RunReport) (int, error) {
	var sb strings.Builder

	sb.WriteString(separator + "\n")
	sb.WriteString("COUPONSCOUT REPORT\n")
	sb.WriteString(separator + "\n")
	fmt.Fprintf(&sb, "Subreddit: r/%s\n", report.Subreddit)
	fmt.Fprintf(&sb, "Started:   %s\n", report.StartedAt.Format(timeLayout))
	fmt.Fprintf(&sb, "Duration:  %s\n", report.Duration())
	fmt.Fprintf(&sb, "Status:    %s\n", statusText(report))
	sb.WriteString("\n")

	fmt.Fprintf(&sb, "Examined %d of %d posts, %d new coupon(s)\n",
		report.Examined, report.Fetched, report.Found.Len())
	if w.verbose || report.LookupFailures > 0 {
		fmt.Fprintf(&sb, "  not English:     %d\n", report.NotEnglish)
		fmt.Fprintf(&sb, "  already owned:   %d\n", report.AlreadyOwned)
		fmt.Fprintf(&sb, "  found earlier:   %d\n", report.PreviouslySeen)
		fmt.Fprintf(&sb, "  lookup failures: %d\n", report.LookupFailures)
	}

	if report.Found.Len() > 0 {
		sb.WriteString("\nCOUPONS\n")
		sb.WriteString(strings.Repeat("-", 40) + "\n")
		for _, title := range report.Found.Titles() {
			fmt.Fprintf(&sb, "* %s\n  %s\n", title, report.Found[title])
		}
	}

	return io.WriteString(w.output, sb.String())
}

// WriteHistory outputs the history one coupon per line.
func (w *SimpleWriter) WriteHistory(entries []model.HistoryEntry) (int, error) {
	var sb strings.Builder

	if len(entries) == 0 {
		sb.WriteString("No coupons recorded yet.\n")
		return io.WriteString(w.output, sb.String())
	}

	for _, e := range entries {
		fmt.Fprintf(&sb, "%s  r/%s  %s\n  %s\n",
			e.FoundAt.Format("2006-01-02 15:04"), e.Subreddit, truncateString(e.Title, 70), e.URL)
	}
	return io.WriteString(w.output, sb.String())
}

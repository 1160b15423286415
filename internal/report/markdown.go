package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/couponscout/internal/model"
)

const timeLayout = "2006-01-02 15:04:05 MST"

// MarkdownWriter outputs reports in GitHub Flavored Markdown.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the run report in Markdown format.
func (w *MarkdownWriter) Write(report *model.RunReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("couponscout Report")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Subreddit", "r/" + report.Subreddit},
			{"Started", report.StartedAt.Format(timeLayout)},
			{"Duration", report.Duration().String()},
			{"Status", statusText(report)},
		},
	})
	md.PlainText("")

	w.writeSummary(md, report)
	w.writeCoupons(md, report)
	writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.RunReport) {
	md.H2("Summary")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Outcome", "Posts"},
		Rows: [][]string{
			{"Fetched", strconv.Itoa(report.Fetched)},
			{"Examined", strconv.Itoa(report.Examined)},
			{"Not English", strconv.Itoa(report.NotEnglish)},
			{"Already owned", strconv.Itoa(report.AlreadyOwned)},
			{"Found earlier", strconv.Itoa(report.PreviouslySeen)},
			{"Lookup failures", strconv.Itoa(report.LookupFailures)},
			{"**New coupons**", "**" + strconv.Itoa(report.Found.Len()) + "**"},
		},
	})
	md.PlainText("")

	if report.Examined > 0 {
		chart := piechart.NewPieChart(
			io.Discard,
			piechart.WithTitle("Examined Posts"),
			piechart.WithShowData(true),
		)
		outcomes := []struct {
			label string
			count int
		}{
			{"New", report.Found.Len()},
			{"Not English", report.NotEnglish},
			{"Owned", report.AlreadyOwned},
			{"Found earlier", report.PreviouslySeen},
			{"Lookup failure", report.LookupFailures},
		}
		for _, o := range outcomes {
			if o.count > 0 {
				chart.LabelAndIntValue(o.label, uint64(o.count)) //nolint:gosec // counts are never negative
			}
		}
		md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
		md.PlainText("")
	}

	switch {
	case report.Failed():
		md.Warningf("The run was aborted: %s. Coupons found before the failure were kept.", report.Error)
	case report.LookupFailures > 0:
		md.Importantf("%d post(s) could not be classified and were skipped.", report.LookupFailures)
	case report.Found.Len() == 0:
		md.Note("No new coupons.")
	default:
		md.Tip(fmt.Sprintf("%d new coupon(s) found.", report.Found.Len()))
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeCoupons(md *markdown.Markdown, report *model.RunReport) {
	md.H2("Coupons")
	md.PlainText("")

	if report.Found.Len() == 0 {
		md.PlainText("No new coupons found.")
		md.PlainText("")
		return
	}

	items := make([]string, 0, report.Found.Len())
	for _, title := range report.Found.Titles() {
		items = append(items, markdown.Link(title, report.Found[title]))
	}
	md.BulletList(items...)
	md.PlainText("")
}

// WriteHistory outputs the history as a Markdown table.
func (w *MarkdownWriter) WriteHistory(entries []model.HistoryEntry) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Coupon History")
	md.PlainText("")

	if len(entries) == 0 {
		md.PlainText("No coupons recorded yet.")
		md.PlainText("")
	} else {
		rows := make([][]string, len(entries))
		for i, e := range entries {
			rows[i] = []string{
				e.FoundAt.Format(timeLayout),
				"r/" + e.Subreddit,
				markdown.Link(escapeCell(truncateString(e.Title, 60)), e.URL),
			}
		}
		md.Table(markdown.TableSet{
			Header: []string{"Found", "Subreddit", "Course"},
			Rows:   rows,
		})
		md.PlainText("")
	}

	writeFooter(md)
	return len(md.String()), md.Build()
}

func writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [couponscout](https://github.com/nao1215/couponscout)*")
}

// escapeCell escapes characters that would break a table cell.
func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func statusText(report *model.RunReport) string {
	switch {
	case report.Failed():
		return "Aborted - " + report.Error
	case report.StoppedOnAge:
		return "Complete (stopped at first post over the age limit)"
	default:
		return "Complete"
	}
}

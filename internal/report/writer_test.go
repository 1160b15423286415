package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/couponscout/internal/model"
)

var testStart = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

// createTestReport creates a report with sample data for testing.
func createTestReport() *model.RunReport {
	report := model.NewRunReport("FreeUdemyCoupons", testStart)
	report.FinishedAt = testStart.Add(3 * time.Second)
	report.Fetched = 10
	report.Examined = 4
	report.NotEnglish = 1
	report.AlreadyOwned = 1
	report.StoppedOnAge = true
	report.Found["Learn Go"] = "https://www.udemy.com/course/learn-go/?couponCode=A&ref=r"
	report.Found["Docker Basics"] = "https://www.udemy.com/course/docker/?couponCode=B"
	return report
}

func createTestHistory() []model.HistoryEntry {
	return []model.HistoryEntry{
		{Title: "Learn Go", URL: "https://www.udemy.com/course/learn-go/", Subreddit: "FreeUdemyCoupons", FoundAt: testStart},
		{Title: "A | B", URL: "https://www.udemy.com/course/ab/", Subreddit: "FreeUdemyCoupons", FoundAt: testStart.Add(-time.Hour)},
	}
}

// TestSimpleWriter tests the human-readable report writer.
func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes header and coupons", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		n, err := NewSimpleWriter(&buf).Write(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != buf.Len() {
			t.Errorf("expected %d bytes reported, got %d", buf.Len(), n)
		}

		output := buf.String()
		for _, want := range []string{
			"COUPONSCOUT REPORT",
			"r/FreeUdemyCoupons",
			"Examined 4 of 10 posts, 2 new coupon(s)",
			"stopped at first post over the age limit",
			"* Learn Go",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q:\n%s", want, output)
			}
		}
		if strings.Index(output, "Docker Basics") > strings.Index(output, "Learn Go") {
			t.Error("expected coupons in title order")
		}
		if strings.Contains(output, "not English") {
			t.Error("expected counts to be hidden without verbose")
		}
	})

	t.Run("verbose shows counts", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf, WithVerbose(true)).Write(createTestReport()); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(buf.String(), "not English:     1") {
			t.Errorf("expected counts, got:\n%s", buf.String())
		}
	})

	t.Run("aborted run", func(t *testing.T) {
		t.Parallel()

		report := createTestReport()
		report.Error = "language lookup failed"
		report.LookupFailures = 1

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(report); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(buf.String(), "Aborted - language lookup failed") {
			t.Errorf("expected aborted status, got:\n%s", buf.String())
		}
		if !strings.Contains(buf.String(), "lookup failures: 1") {
			t.Error("expected counts when lookups failed")
		}
	})

	t.Run("history", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).WriteHistory(nil); err != nil {
			t.Fatal(err)
		}
		if buf.String() != "No coupons recorded yet.\n" {
			t.Errorf("unexpected empty history %q", buf.String())
		}

		buf.Reset()
		if _, err := NewSimpleWriter(&buf).WriteHistory(createTestHistory()); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(buf.String(), "2024-05-10 12:00  r/FreeUdemyCoupons  Learn Go") {
			t.Errorf("unexpected history:\n%s", buf.String())
		}
	})
}

// TestJSONWriter tests the JSON report writer.
func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes valid JSON with metadata", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithVersion("v1.2.3")).Write(createTestReport()); err != nil {
			t.Fatal(err)
		}

		var got JSONReport
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if got.Version != "v1.2.3" || got.Duration != "3s" {
			t.Errorf("unexpected metadata %+v", got)
		}
		if got.Report.Found.Len() != 2 || !got.Report.StoppedOnAge {
			t.Errorf("unexpected report %+v", got.Report)
		}
		if strings.Contains(buf.String(), `\u0026`) {
			t.Error("expected ampersands to stay unescaped")
		}
		if strings.Contains(buf.String(), "\n ") {
			t.Error("expected compact output")
		}
	})

	t.Run("pretty print", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithPrettyPrint()).Write(createTestReport()); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(buf.String(), "\n  \"duration\"") {
			t.Errorf("expected indented output, got:\n%s", buf.String())
		}
	})

	t.Run("empty history is an empty array", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).WriteHistory(nil); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(buf.String(), `"entries":[]`) {
			t.Errorf("unexpected output %s", buf.String())
		}
	})
}

// TestMarkdownWriter tests the Markdown report writer.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes tables, chart and links", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatal(err)
		}

		output := buf.String()
		for _, want := range []string{
			"# couponscout Report",
			"## Summary",
			"```mermaid",
			"[Learn Go](https://www.udemy.com/course/learn-go/?couponCode=A&ref=r)",
			"couponscout](https://github.com/nao1215/couponscout)",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q:\n%s", want, output)
			}
		}
	})

	t.Run("no coupons", func(t *testing.T) {
		t.Parallel()

		report := model.NewRunReport("FreeUdemyCoupons", testStart)
		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(report); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(buf.String(), "No new coupons found.") {
			t.Errorf("unexpected output:\n%s", buf.String())
		}
		if strings.Contains(buf.String(), "```mermaid") {
			t.Error("expected no chart without examined posts")
		}
	})

	t.Run("history escapes table cells", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).WriteHistory(createTestHistory()); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(buf.String(), `A \| B`) {
			t.Errorf("expected escaped pipe, got:\n%s", buf.String())
		}
	})
}

type failingWriter struct{}

func (failingWriter) Write(*model.RunReport) (int, error) { return 0, errors.New("disk full") }

func (failingWriter) WriteHistory([]model.HistoryEntry) (int, error) {
	return 0, errors.New("disk full")
}

// TestMultiWriter tests writing to several writers.
func TestMultiWriter(t *testing.T) {
	t.Parallel()

	var a, b bytes.Buffer
	m := NewMultiWriter(NewSimpleWriter(&a), NewJSONWriter(&b))

	n, err := m.Write(createTestReport())
	if err != nil {
		t.Fatal(err)
	}
	if n != a.Len()+b.Len() || a.Len() == 0 || b.Len() == 0 {
		t.Errorf("unexpected byte count %d (a=%d b=%d)", n, a.Len(), b.Len())
	}

	var c bytes.Buffer
	m = NewMultiWriter(failingWriter{}, NewSimpleWriter(&c))
	if _, err := m.WriteHistory(createTestHistory()); err == nil {
		t.Error("expected error from failing writer")
	}
	if c.Len() != 0 {
		t.Error("expected writers after the failure to be skipped")
	}
}

// TestTruncateString tests rune-aware truncation.
func TestTruncateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is too long", 10, "this is..."},
		{"日本語のコース名です", 5, "日本..."},
		{"abcdef", 2, "ab"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			if got := truncateString(tt.in, tt.max); got != tt.want {
				t.Errorf("truncateString(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
			}
		})
	}
}

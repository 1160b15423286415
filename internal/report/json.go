package report

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/nao1215/couponscout/internal/model"
)

// JSONWriter outputs reports in JSON format for tool integration.
type JSONWriter struct {
	baseWriter

	version string
	indent  string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent sets the indentation string. Empty means compact output.
func WithIndent(indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = indent
	}
}

// WithPrettyPrint enables indented output with two spaces.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("  ")
}

// WithVersion records the program version in every document.
func WithVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// JSONReport is the document written for one run.
type JSONReport struct {
	Version  string           `json:"version,omitempty"`
	Duration string           `json:"duration"`
	Report   *model.RunReport `json:"report"`
}

// JSONHistory is the document written for the coupon history.
type JSONHistory struct {
	Version string               `json:"version,omitempty"`
	Count   int                  `json:"count"`
	Entries []model.HistoryEntry `json:"entries"`
}

// Write outputs the run report wrapped with metadata.
func (w *JSONWriter) Write(report *model.RunReport) (int, error) {
	return w.writeJSON(JSONReport{
		Version:  w.version,
		Duration: report.Duration().String(),
		Report:   report,
	})
}

// WriteHistory outputs the history entries.
func (w *JSONWriter) WriteHistory(entries []model.HistoryEntry) (int, error) {
	if entries == nil {
		entries = []model.HistoryEntry{}
	}
	return w.writeJSON(JSONHistory{
		Version: w.version,
		Count:   len(entries),
		Entries: entries,
	})
}

func (w *JSONWriter) writeJSON(v any) (int, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if w.indent != "" {
		enc.SetIndent("", w.indent)
	}
	if err := enc.Encode(v); err != nil {
		return 0, err
	}
	return w.output.Write(buf.Bytes())
}

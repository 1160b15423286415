// Package report writes run reports and coupon history.
//
// This package contains writers for different output formats:
//   - SimpleWriter: Human-readable text output for terminal display
//   - JSONWriter: Structured JSON output for tool integration
//   - MarkdownWriter: GitHub Flavored Markdown for sharing
//
// Writers implement the Writer interface and can be combined with
// MultiWriter.
package report

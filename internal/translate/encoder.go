package translate

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Translation query template parts. The downstream page depends on this
// exact query-parameter shape.
const (
	// QueryPrefix precedes the encoded text.
	QueryPrefix = "https://translate.google.com/?sl=auto&tl=en&text="

	// QuerySuffix follows the encoded text.
	QuerySuffix = "&op=translate"
)

// EncodingTable maps a single character to its percent-encoded literal.
// Every value is "%" followed by two hex digits of either case.
type EncodingTable map[rune]string

// DefaultTable returns a fresh copy of the substitution table used for post
// titles. '%' is deliberately absent so already-encoded input is not
// escaped a second time.
func DefaultTable() EncodingTable {
	return EncodingTable{
		'`':  "%60",
		'@':  "%40",
		'#':  "%23",
		'$':  "%24",
		'^':  "%5E",
		'&':  "%26",
		'=':  "%3D",
		'+':  "%2B",
		'[':  "%5B",
		']':  "%5D",
		'{':  "%7B",
		'}':  "%7D",
		'/':  "%2F",
		'|':  "%7C",
		';':  "%3B",
		':':  "%3A",
		'\'': "%27",
		'"':  "%22",
		',':  "%2C",
		'<':  "%3C",
		'>':  "%3E",
		'?':  "%3F",
		' ':  "%20",
	}
}

// Validate reports the first entry whose value is not a 3-character
// percent-encoded sequence. Hex digits may be upper or lower case.
func (t EncodingTable) Validate() error {
	for r, v := range t {
		if !isPercentTriplet(v) {
			return fmt.Errorf("%w: %q maps to %q", ErrInvalidTable, r, v)
		}
	}
	return nil
}

// Encoder builds translation query URLs from text.
// An Encoder is immutable and safe for concurrent use.
type Encoder struct {
	table          EncodingTable
	escapeUnmapped bool
}

// EncoderOption configures an Encoder.
type EncoderOption func(*Encoder)

// WithEscapeUnmapped percent-encodes, as UTF-8 bytes, characters that are
// not in the table and are not safe to place in a query string unescaped:
// non-ASCII runes, control characters and whitespace. Table entries still
// take priority.
func WithEscapeUnmapped() EncoderOption {
	return func(e *Encoder) {
		e.escapeUnmapped = true
	}
}

// NewEncoder creates an Encoder using a private copy of table.
// The table is not checked, so callers building their own table should
// Validate it first. DefaultTable is always valid.
func NewEncoder(table EncodingTable, opts ...EncoderOption) *Encoder {
	copied := make(EncodingTable, len(table))
	for r, v := range table {
		copied[r] = v
	}

	e := &Encoder{table: copied}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// EncodeText replaces every table character of text, left to right, with
// its table literal. Other characters are forwarded unchanged unless the
// encoder was built WithEscapeUnmapped.
func (e *Encoder) EncodeText(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	for _, r := range text {
		if v, ok := e.table[r]; ok {
			b.WriteString(v)
			continue
		}
		if e.escapeUnmapped && needsEscape(r) {
			writeEscapedRune(&b, r)
			continue
		}
		b.WriteRune(r)
	}

	return b.String()
}

// EncodeURL returns the translation query URL for text.
func (e *Encoder) EncodeURL(text string) string {
	return QueryPrefix + e.EncodeText(text) + QuerySuffix
}

// needsEscape reports whether r must be escaped in strict mode.
func needsEscape(r rune) bool {
	return r >= utf8.RuneSelf || unicode.IsControl(r) || unicode.IsSpace(r)
}

// writeEscapedRune writes the UTF-8 bytes of r as %XX sequences.
// Invalid runes are written as the encoding of U+FFFD.
func writeEscapedRune(b *strings.Builder, r rune) {
	const hex = "0123456789ABCDEF"

	var buf [utf8.UTFMax]byte
	n := utf8.EncodeRune(buf[:], r)
	for _, c := range buf[:n] {
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0F])
	}
}

func isPercentTriplet(s string) bool {
	if len(s) != 3 || s[0] != '%' {
		return false
	}
	return isHex(s[1]) && isHex(s[2])
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'A' && c <= 'F') || (c >= 'a' && c <= 'f')
}

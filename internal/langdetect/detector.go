// Package langdetect classifies titles offline with a statistical language
// model, as an alternative to the translation page.
package langdetect

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pemistahl/lingua-go"
)

// DefaultLanguages are the languages the detector chooses between. Course
// titles on the coupon forums are mostly in one of these.
var DefaultLanguages = []lingua.Language{
	lingua.English,
	lingua.Spanish,
	lingua.Portuguese,
	lingua.French,
	lingua.German,
	lingua.Italian,
	lingua.Turkish,
	lingua.Arabic,
	lingua.Russian,
	lingua.Japanese,
	lingua.Hindi,
	lingua.Indonesian,
}

// ErrUnknownLanguage is returned by ParseLanguages for a name lingua does
// not know.
var ErrUnknownLanguage = errors.New("unknown language")

// ParseLanguages resolves ISO 639-1 codes ("es") or English language names
// ("Spanish"), case-insensitively, to lingua languages.
func ParseLanguages(names []string) ([]lingua.Language, error) {
	languages := make([]lingua.Language, 0, len(names))
	for _, name := range names {
		l, ok := lookupLanguage(strings.TrimSpace(name))
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownLanguage, name)
		}
		languages = append(languages, l)
	}
	return languages, nil
}

func lookupLanguage(name string) (lingua.Language, bool) {
	if name == "" {
		return lingua.Unknown, false
	}
	for _, l := range lingua.AllLanguages() {
		if strings.EqualFold(l.IsoCode639_1().String(), name) || strings.EqualFold(l.String(), name) {
			return l, true
		}
	}
	return lingua.Unknown, false
}

// Detector reports whether a text is English.
// The zero value is not usable; call New.
type Detector struct {
	detector lingua.LanguageDetector
}

type options struct {
	languages   []lingua.Language
	minDistance float64
	lowAccuracy bool
}

// Option configures a Detector.
type Option func(*options)

// WithLanguages replaces the candidate languages. English is always added.
func WithLanguages(languages ...lingua.Language) Option {
	return func(o *options) {
		o.languages = languages
	}
}

// WithMinimumRelativeDistance makes the detector give up on texts whose top
// two candidates are closer than distance, in range [0, 0.99].
func WithMinimumRelativeDistance(distance float64) Option {
	return func(o *options) {
		o.minDistance = distance
	}
}

// WithLowAccuracyMode trades accuracy on short texts for speed and memory.
func WithLowAccuracyMode() Option {
	return func(o *options) {
		o.lowAccuracy = true
	}
}

// New builds a Detector.
func New(opts ...Option) *Detector {
	o := options{languages: DefaultLanguages}
	for _, opt := range opts {
		opt(&o)
	}

	languages := make([]lingua.Language, 0, len(o.languages)+1)
	languages = append(languages, lingua.English)
	for _, l := range o.languages {
		if l != lingua.English {
			languages = append(languages, l)
		}
	}
	if len(languages) < 2 {
		// lingua needs at least two candidates.
		languages = append(languages, lingua.Spanish)
	}

	builder := lingua.NewLanguageDetectorBuilder().FromLanguages(languages...)
	if o.minDistance > 0 {
		builder = builder.WithMinimumRelativeDistance(o.minDistance)
	}
	if o.lowAccuracy {
		builder = builder.WithLowAccuracyMode()
	}

	return &Detector{detector: builder.Build()}
}

// IsEnglish reports whether text is English. Texts the model cannot decide
// on count as not English. The only error is ctx's.
func (d *Detector) IsEnglish(ctx context.Context, text string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if strings.TrimSpace(text) == "" {
		return false, nil
	}

	language, reliable := d.detector.DetectLanguageOf(text)
	if !reliable {
		return false, nil
	}
	return language == lingua.English, nil
}

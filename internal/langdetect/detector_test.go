package langdetect

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/pemistahl/lingua-go"
)

// TestDetectorIsEnglish tests classification of course titles.
func TestDetectorIsEnglish(t *testing.T) {
	t.Parallel()

	d := New(WithLanguages(lingua.Spanish, lingua.German))

	tests := []struct {
		name string
		text string
		want bool
	}{
		{name: "english title", text: "The Complete Python Programming Course for Beginners", want: true},
		{name: "spanish title", text: "Aprende programación en Python desde cero con proyectos prácticos", want: false},
		{name: "german title", text: "Der komplette Kurs für Webentwicklung mit JavaScript und React", want: false},
		{name: "empty", text: "   ", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := d.IsEnglish(context.Background(), tt.text)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("IsEnglish(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

// TestDetectorCancelled tests that a done context is reported.
func TestDetectorCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(WithLanguages(lingua.Spanish)).IsEnglish(ctx, "Learn Go")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

// TestNewAlwaysIncludesEnglish tests candidate list handling.
func TestNewAlwaysIncludesEnglish(t *testing.T) {
	t.Parallel()

	d := New(WithLanguages(), WithMinimumRelativeDistance(0.1), WithLowAccuracyMode())
	got, err := d.IsEnglish(context.Background(), "Master the fundamentals of cloud computing and networking")
	if err != nil {
		t.Fatal(err)
	}
	if !got {
		t.Error("expected English with the fallback candidate set")
	}
}

// TestParseLanguages tests resolving configured language names.
func TestParseLanguages(t *testing.T) {
	t.Parallel()

	t.Run("codes and names", func(t *testing.T) {
		t.Parallel()

		got, err := ParseLanguages([]string{"es", "DE", " french "})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []lingua.Language{lingua.Spanish, lingua.German, lingua.French}
		if !slices.Equal(got, want) {
			t.Errorf("ParseLanguages() = %v, want %v", got, want)
		}
	})

	t.Run("empty list", func(t *testing.T) {
		t.Parallel()

		got, err := ParseLanguages(nil)
		if err != nil || len(got) != 0 {
			t.Errorf("expected no languages and no error, got %v, %v", got, err)
		}
	})

	for _, name := range []string{"klingon", "", "xx"} {
		t.Run("rejects "+name, func(t *testing.T) {
			t.Parallel()

			if _, err := ParseLanguages([]string{name}); !errors.Is(err, ErrUnknownLanguage) {
				t.Errorf("expected ErrUnknownLanguage, got %v", err)
			}
		})
	}
}

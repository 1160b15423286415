package scout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nao1215/couponscout/internal/model"
	"github.com/nao1215/couponscout/internal/translate"
)

const (
	// DefaultMaxAgeDays is the age, in whole days, at which scanning stops.
	DefaultMaxAgeDays = 2

	// DefaultStripChars is the character set trimmed from both ends of
	// each title. It is a set of characters, not a literal prefix.
	DefaultStripChars = "[100% off]"
)

// LanguageClassifier decides whether a text is English.
// translate.Classifier and langdetect.Detector implement it.
type LanguageClassifier interface {
	IsEnglish(ctx context.Context, text string) (bool, error)
}

// Scout runs the filter loop over a batch of posts.
type Scout struct {
	classifier LanguageClassifier
	logger     *slog.Logger
	now        func() time.Time

	maxAgeDays           int
	stripChars           string
	abortOnLookupFailure bool
	seen                 func(title string) bool
}

// Option configures a Scout.
type Option func(*Scout)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scout) {
		s.logger = logger
	}
}

// WithClock sets the time source used as the reference for post ages.
func WithClock(now func() time.Time) Option {
	return func(s *Scout) {
		s.now = now
	}
}

// WithMaxAgeDays sets the cutoff. A post is processed while its age in
// whole days is below days.
func WithMaxAgeDays(days int) Option {
	return func(s *Scout) {
		s.maxAgeDays = days
	}
}

// WithStripChars sets the character set trimmed from titles.
func WithStripChars(chars string) Option {
	return func(s *Scout) {
		s.stripChars = chars
	}
}

// WithAbortOnLookupFailure makes the first lookup failure end the run.
// By default the post is skipped and counted.
func WithAbortOnLookupFailure(abort bool) Option {
	return func(s *Scout) {
		s.abortOnLookupFailure = abort
	}
}

// WithSeen sets a predicate reporting titles found by earlier runs.
// Such titles are left out of the result.
func WithSeen(seen func(title string) bool) Option {
	return func(s *Scout) {
		s.seen = seen
	}
}

// New creates a Scout that classifies titles with classifier.
func New(classifier LanguageClassifier, opts ...Option) *Scout {
	s := &Scout{
		classifier: classifier,
		now:        time.Now,
		maxAgeDays: DefaultMaxAgeDays,
		stripChars: DefaultStripChars,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// CleanTitle trims the configured character set from both ends of title.
func (s *Scout) CleanTitle(title string) string {
	return strings.Trim(title, s.stripChars)
}

// Run filters posts and returns the report of the run.
//
// The returned report is never nil and reflects the work done so far, also
// when an error is returned. The error is non-nil when ctx is done or when
// a lookup failure occurs with abort enabled.
func (s *Scout) Run(ctx context.Context, subreddit string, posts []model.Post, owned model.Whitelist) (*model.RunReport, error) {
	report := model.NewRunReport(subreddit, s.now())
	report.Fetched = len(posts)

	err := s.run(ctx, report, posts, owned)

	report.FinishedAt = s.now()
	if err != nil {
		report.Error = err.Error()
	}

	s.logger.Info("scan finished",
		"subreddit", subreddit,
		"examined", report.Examined,
		"found", report.Found.Len(),
		"lookup_failures", report.LookupFailures,
		"stopped_on_age", report.StoppedOnAge,
	)

	return report, err
}

func (s *Scout) run(ctx context.Context, report *model.RunReport, posts []model.Post, owned model.Whitelist) error {
	for _, post := range posts {
		if err := ctx.Err(); err != nil {
			s.logger.Warn("scan cancelled", "reason", err)
			return err
		}

		age := post.AgeDays(report.StartedAt)
		if age >= s.maxAgeDays {
			s.logger.Debug("reached post older than cutoff",
				"title", post.Title,
				"age_days", age,
				"max_age_days", s.maxAgeDays,
			)
			report.StoppedOnAge = true
			return nil
		}

		title := s.CleanTitle(post.Title)
		report.Examined++

		english, err := s.classifier.IsEnglish(ctx, title)
		if err != nil {
			if !errors.Is(err, translate.ErrLookupFailure) {
				return fmt.Errorf("classify %q: %w", title, err)
			}

			report.LookupFailures++
			s.logger.Warn("language lookup failed",
				"title", title,
				"error", err,
			)
			if s.abortOnLookupFailure {
				return err
			}
			continue
		}

		switch {
		case !english:
			report.NotEnglish++
			s.logger.Debug("skipping non-English post", "title", title)
		case owned.Has(title):
			report.AlreadyOwned++
			s.logger.Debug("skipping owned course", "title", title)
		case s.seen != nil && s.seen(title):
			report.PreviouslySeen++
			s.logger.Debug("skipping course found earlier", "title", title)
		default:
			report.Found[title] = post.URL
			s.logger.Info("found coupon", "title", title, "url", post.URL)
		}
	}
	return nil
}

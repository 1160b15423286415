package config

import "errors"

// Configuration validation errors returned by Config.Validate.
var (
	// ErrNoSubreddit is returned when the subreddit name is empty.
	ErrNoSubreddit = errors.New("no subreddit specified")

	// ErrInvalidFeedLimit is returned when the feed limit is not positive.
	ErrInvalidFeedLimit = errors.New("invalid feed limit: must be positive")

	// ErrInvalidMaxAge is returned when the max age is not positive.
	// A zero cutoff would stop at the first post.
	ErrInvalidMaxAge = errors.New("invalid max age: must be at least one day")

	// ErrNoOutputPath is returned when the output file path is empty.
	ErrNoOutputPath = errors.New("no output file specified")

	// ErrNoWhitelistPath is returned when the whitelist file path is empty.
	ErrNoWhitelistPath = errors.New("no whitelist file specified")

	// ErrUnknownDetector is returned for a detector other than translate or offline.
	ErrUnknownDetector = errors.New("unknown detector: must be \"translate\" or \"offline\"")

	// ErrNoSelector is returned when the translate detector has no label selector.
	ErrNoSelector = errors.New("no label selector specified")

	// ErrUnknownBrowser is returned for a page backend other than chrome or static.
	ErrUnknownBrowser = errors.New("unknown browser: must be \"chrome\" or \"static\"")

	// ErrInvalidMinDistance is returned when the offline minimum relative
	// distance is outside [0, 0.99].
	ErrInvalidMinDistance = errors.New("invalid offline minimum distance: must be between 0 and 0.99")

	// ErrInvalidTimeout is returned when the implicit wait is not positive.
	ErrInvalidTimeout = errors.New("invalid implicit wait: must be positive")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// Use 0 for the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrConflictingProxy is returned when --tor and --proxy are both set.
	ErrConflictingProxy = errors.New("conflicting proxy settings: --tor and --proxy cannot be used together")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrNoDBDir is returned when history is enabled without a database directory.
	ErrNoDBDir = errors.New("no database directory specified")
)

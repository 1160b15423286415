package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "couponscout"

	// DefaultSubreddit is the coupon forum scanned when none is given.
	DefaultSubreddit = "FreeUdemyCoupons"

	// DefaultFeedLimit is the number of newest posts requested per run.
	DefaultFeedLimit = 10

	// DefaultMaxAgeDays is the post age, in whole days, at which the scan
	// stops. Coupons older than two days are usually expired.
	DefaultMaxAgeDays = 2

	// DefaultWhitelistPath is the JSON file listing owned courses.
	DefaultWhitelistPath = "ownedCourses.json"

	// DefaultOutputPath is the JSON file the found coupons are written to.
	DefaultOutputPath = "foundCoupons.json"

	// DefaultStripChars is the character set trimmed from both ends of a title.
	DefaultStripChars = "[100% off]"

	// DefaultSelector is the CSS selector of the detected-language label on
	// the translation page.
	DefaultSelector = "#c1 > span"

	// DefaultImplicitWait bounds each page load.
	DefaultImplicitWait = 10 * time.Second

	// DefaultUserAgent is sent with every request. Reddit rejects generic
	// client agents.
	DefaultUserAgent = "couponscout/1.0 (+https://github.com/nao1215/couponscout)"

	// DefaultMaxBodySize limits the response body read per page.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultTorStartupTimeout is the maximum time to wait for the embedded
	// Tor daemon to bootstrap.
	DefaultTorStartupTimeout = 3 * time.Minute

	// MaxOfflineMinDistance is the largest relative distance the offline
	// detector accepts.
	MaxOfflineMinDistance = 0.99

	// DefaultHistoryLimit is the number of coupons listed by the history command.
	DefaultHistoryLimit = 20
)

// Language detectors.
const (
	// DetectorTranslate asks the online translation page for the language.
	DetectorTranslate = "translate"

	// DetectorOffline uses the built-in statistical detector.
	DetectorOffline = "offline"
)

// Page backends used by the translate detector.
const (
	// BrowserChrome renders the translation page in headless Chrome.
	BrowserChrome = "chrome"

	// BrowserStatic fetches the page over plain HTTP without running its
	// scripts. It only works against pages that ship the label in the HTML.
	BrowserStatic = "static"
)

// Config holds all configuration options for couponscout.
// It is populated from defaults, then the config file, then CLI flags, and
// passed down explicitly.
//
// Design decision: We keep a single flat struct rather than one per
// package. The command layer is the only place that reads it; packages
// below take functional options built from it, so none of them import
// config and each can be tested with its own defaults.
type Config struct {
	// Subreddit is the forum to scan, without the "r/" prefix.
	Subreddit string

	// FeedLimit is the number of newest posts requested from the feed.
	FeedLimit int

	// MaxAgeDays is the age in whole days at which scanning stops.
	MaxAgeDays int

	// WhitelistPath is the JSON file of owned course titles.
	// A missing file is treated as an empty whitelist.
	WhitelistPath string

	// OutputPath is where the found coupons are written.
	OutputPath string

	// StripChars is the character set trimmed from both ends of each title.
	StripChars string

	// MergeWhitelist adds found titles to the whitelist file after the run.
	MergeWhitelist bool

	// Detector selects the language detector: DetectorTranslate or DetectorOffline.
	Detector string

	// Selector is the CSS selector of the language label on the
	// translation page.
	Selector string

	// Browser selects the page backend of the translate detector:
	// BrowserChrome or BrowserStatic.
	Browser string

	// BrowserPath is the Chrome or Chromium executable. Empty means the
	// first one found on PATH.
	BrowserPath string

	// OfflineLanguages are the candidate languages of the offline detector,
	// as ISO 639-1 codes or English names. English is always a candidate.
	// Empty means the built-in list.
	OfflineLanguages []string

	// OfflineMinDistance makes the offline detector treat titles whose two
	// most likely languages score closer than this as not English.
	// 0 disables the check.
	OfflineMinDistance float64

	// OfflineLowAccuracy loads the smaller language models, which are faster
	// but less reliable on short titles.
	OfflineLowAccuracy bool

	// StrictEncoding percent-encodes characters the encoding table does not
	// cover instead of passing them through.
	StrictEncoding bool

	// AbortOnLookupFailure ends the run at the first title that cannot be
	// classified. When false the post is skipped and counted.
	AbortOnLookupFailure bool

	// ImplicitWait bounds each page load and feed request.
	ImplicitWait time.Duration

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	// Set to 0 to use the default (5MB).
	MaxBodySize int64

	// ProxyAddress is an external SOCKS5 proxy in "host:port" format, for
	// example a local Tor daemon at 127.0.0.1:9050. Empty means direct.
	ProxyAddress string

	// UseTor starts an embedded Tor daemon and routes all traffic through it.
	// It cannot be combined with ProxyAddress.
	UseTor bool

	// TorStartupTimeout is the maximum time to wait for the embedded Tor
	// daemon. Only used when UseTor is true.
	TorStartupTimeout time.Duration

	// DBDir is the directory of the history database.
	// Defaults to the XDG data directory (~/.local/share/couponscout on Linux).
	DBDir string

	// SaveToDB records each run in the history database.
	SaveToDB bool

	// SkipSeen leaves out titles that an earlier run already found.
	// Requires SaveToDB.
	SkipSeen bool

	// Verbose enables debug logging. When false, only warnings and errors
	// are logged.
	Verbose bool

	// LogJSON writes logs as JSON lines instead of text.
	LogJSON bool

	// JSONReport prints the run report as JSON.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport prints the run report as GitHub Flavored Markdown.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file and the text summary
	// still goes to stdout.
	ReportFile string

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .couponscout in the current directory
	// and then in the user's home directory.
	ConfigFilePath string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Subreddit:         DefaultSubreddit,
		FeedLimit:         DefaultFeedLimit,
		MaxAgeDays:        DefaultMaxAgeDays,
		WhitelistPath:     DefaultWhitelistPath,
		OutputPath:        DefaultOutputPath,
		StripChars:        DefaultStripChars,
		Detector:          DetectorTranslate,
		Selector:          DefaultSelector,
		Browser:           BrowserChrome,
		ImplicitWait:      DefaultImplicitWait,
		UserAgent:         DefaultUserAgent,
		MaxBodySize:       DefaultMaxBodySize,
		TorStartupTimeout: DefaultTorStartupTimeout,
		DBDir:             XDGDataDir(),
		SaveToDB:          true,
		SkipSeen:          true,
	}
}

// XDGDataDir returns the XDG data directory for couponscout.
// On Linux: ~/.local/share/couponscout
// On macOS: ~/Library/Application Support/couponscout
// On Windows: %LOCALAPPDATA%\couponscout
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for couponscout.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found as one of the package's sentinel errors.
func (c *Config) Validate() error {
	if c.Subreddit == "" {
		return ErrNoSubreddit
	}

	if c.FeedLimit <= 0 {
		return ErrInvalidFeedLimit
	}

	if c.MaxAgeDays <= 0 {
		return ErrInvalidMaxAge
	}

	if c.OutputPath == "" {
		return ErrNoOutputPath
	}

	if c.WhitelistPath == "" {
		return ErrNoWhitelistPath
	}

	switch c.Detector {
	case DetectorTranslate:
		if c.Selector == "" {
			return ErrNoSelector
		}
		if c.Browser != BrowserChrome && c.Browser != BrowserStatic {
			return ErrUnknownBrowser
		}
	case DetectorOffline:
		if c.OfflineMinDistance < 0 || c.OfflineMinDistance > MaxOfflineMinDistance {
			return ErrInvalidMinDistance
		}
	default:
		return ErrUnknownDetector
	}

	if c.ImplicitWait <= 0 {
		return ErrInvalidTimeout
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	if c.UseTor && c.ProxyAddress != "" {
		return ErrConflictingProxy
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if c.SaveToDB && c.DBDir == "" {
		return ErrNoDBDir
	}

	return nil
}

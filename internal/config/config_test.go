package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

// TestNewConfig verifies that NewConfig returns a Config with all expected default values.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default Subreddit is FreeUdemyCoupons", func(t *testing.T) {
		t.Parallel()
		if cfg.Subreddit != "FreeUdemyCoupons" {
			t.Errorf("expected Subreddit to be 'FreeUdemyCoupons', got '%s'", cfg.Subreddit)
		}
	})

	t.Run("default FeedLimit is 10", func(t *testing.T) {
		t.Parallel()
		if cfg.FeedLimit != 10 {
			t.Errorf("expected FeedLimit to be 10, got %d", cfg.FeedLimit)
		}
	})

	t.Run("default MaxAgeDays is 2", func(t *testing.T) {
		t.Parallel()
		if cfg.MaxAgeDays != 2 {
			t.Errorf("expected MaxAgeDays to be 2, got %d", cfg.MaxAgeDays)
		}
	})

	t.Run("default files", func(t *testing.T) {
		t.Parallel()
		if cfg.WhitelistPath != "ownedCourses.json" {
			t.Errorf("unexpected WhitelistPath %q", cfg.WhitelistPath)
		}
		if cfg.OutputPath != "foundCoupons.json" {
			t.Errorf("unexpected OutputPath %q", cfg.OutputPath)
		}
	})

	t.Run("default detector settings", func(t *testing.T) {
		t.Parallel()
		if cfg.Detector != DetectorTranslate {
			t.Errorf("expected translate detector, got %q", cfg.Detector)
		}
		if cfg.Selector != "#c1 > span" {
			t.Errorf("unexpected Selector %q", cfg.Selector)
		}
		if cfg.StripChars != "[100% off]" {
			t.Errorf("unexpected StripChars %q", cfg.StripChars)
		}
		if cfg.StrictEncoding || cfg.AbortOnLookupFailure {
			t.Error("expected strict encoding and abort to be off")
		}
		if cfg.Browser != BrowserChrome || cfg.BrowserPath != "" {
			t.Errorf("expected chrome on PATH, got %q %q", cfg.Browser, cfg.BrowserPath)
		}
		if len(cfg.OfflineLanguages) != 0 || cfg.OfflineMinDistance != 0 || cfg.OfflineLowAccuracy {
			t.Error("expected built-in offline detector settings")
		}
	})

	t.Run("default ImplicitWait is 10 seconds", func(t *testing.T) {
		t.Parallel()
		if cfg.ImplicitWait != 10*time.Second {
			t.Errorf("expected ImplicitWait to be 10s, got %v", cfg.ImplicitWait)
		}
	})

	t.Run("default routing is direct", func(t *testing.T) {
		t.Parallel()
		if cfg.UseTor || cfg.ProxyAddress != "" {
			t.Error("expected direct connection by default")
		}
		if cfg.TorStartupTimeout != 3*time.Minute {
			t.Errorf("expected TorStartupTimeout to be 3m, got %v", cfg.TorStartupTimeout)
		}
	})

	t.Run("history enabled in XDG data dir", func(t *testing.T) {
		t.Parallel()
		if !cfg.SaveToDB || !cfg.SkipSeen {
			t.Error("expected history and skip-seen on")
		}
		if cfg.DBDir != XDGDataDir() {
			t.Errorf("expected DBDir %q, got %q", XDGDataDir(), cfg.DBDir)
		}
	})

	t.Run("defaults are valid", func(t *testing.T) {
		t.Parallel()
		if err := cfg.Validate(); err != nil {
			t.Errorf("expected defaults to validate, got %v", err)
		}
	})
}

// TestConfigValidate tests the Validate method with various configurations.
// Each test case is designed to test one specific validation rule.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{name: "offline detector without selector", modify: func(c *Config) { c.Detector = DetectorOffline; c.Selector = "" }},
		{name: "external proxy", modify: func(c *Config) { c.ProxyAddress = "127.0.0.1:9050" }},
		{name: "history disabled without dir", modify: func(c *Config) { c.SaveToDB = false; c.DBDir = "" }},
		{name: "empty subreddit", modify: func(c *Config) { c.Subreddit = "" }, want: ErrNoSubreddit},
		{name: "zero limit", modify: func(c *Config) { c.FeedLimit = 0 }, want: ErrInvalidFeedLimit},
		{name: "zero max age", modify: func(c *Config) { c.MaxAgeDays = 0 }, want: ErrInvalidMaxAge},
		{name: "negative max age", modify: func(c *Config) { c.MaxAgeDays = -1 }, want: ErrInvalidMaxAge},
		{name: "empty output", modify: func(c *Config) { c.OutputPath = "" }, want: ErrNoOutputPath},
		{name: "empty whitelist", modify: func(c *Config) { c.WhitelistPath = "" }, want: ErrNoWhitelistPath},
		{name: "static browser", modify: func(c *Config) { c.Browser = BrowserStatic }},
		{name: "offline detector ignores browser", modify: func(c *Config) { c.Detector = DetectorOffline; c.Browser = "" }},
		{name: "offline max distance", modify: func(c *Config) { c.Detector = DetectorOffline; c.OfflineMinDistance = 0.99 }},
		{name: "unknown browser", modify: func(c *Config) { c.Browser = "firefox" }, want: ErrUnknownBrowser},
		{name: "negative min distance", modify: func(c *Config) { c.Detector = DetectorOffline; c.OfflineMinDistance = -0.1 }, want: ErrInvalidMinDistance},
		{name: "min distance too large", modify: func(c *Config) { c.Detector = DetectorOffline; c.OfflineMinDistance = 1 }, want: ErrInvalidMinDistance},
		{name: "unknown detector", modify: func(c *Config) { c.Detector = "magic" }, want: ErrUnknownDetector},
		{name: "translate without selector", modify: func(c *Config) { c.Selector = "" }, want: ErrNoSelector},
		{name: "zero wait", modify: func(c *Config) { c.ImplicitWait = 0 }, want: ErrInvalidTimeout},
		{name: "negative body size", modify: func(c *Config) { c.MaxBodySize = -1 }, want: ErrInvalidMaxBodySize},
		{name: "tor and proxy", modify: func(c *Config) { c.UseTor = true; c.ProxyAddress = "127.0.0.1:9050" }, want: ErrConflictingProxy},
		{name: "json and markdown", modify: func(c *Config) { c.JSONReport = true; c.MarkdownReport = true }, want: ErrConflictingReportFormats},
		{name: "history without dir", modify: func(c *Config) { c.DBDir = "" }, want: ErrNoDBDir},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := NewConfig()
			cfg.DBDir = t.TempDir()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.want == nil {
				if err != nil {
					t.Errorf("expected nil, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

// TestFileApply tests overlaying file values onto a Config.
func TestFileApply(t *testing.T) {
	t.Parallel()

	t.Run("empty file keeps defaults", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		(&File{}).Apply(cfg)

		if !reflect.DeepEqual(cfg, NewConfig()) {
			t.Errorf("expected defaults to be kept, got %+v", cfg)
		}
	})

	t.Run("set values override", func(t *testing.T) {
		t.Parallel()

		empty := ""
		yes := true
		no := false
		f := &File{
			Subreddit:      "udemyfreebies",
			FeedLimit:      25,
			MaxAgeDays:     3,
			StripChars:     &empty,
			MergeWhitelist: &yes,
			Detector:       DetectorOffline,
			Browser:        BrowserStatic,
			BrowserPath:    "/usr/bin/chromium",
			ImplicitWait:   5 * time.Second,
			Proxy:          "127.0.0.1:9150",
			Offline:        OfflineFile{Languages: []string{"es", "pt"}, MinDistance: 0.25, LowAccuracy: &yes},
			History:        HistoryFile{Enabled: &no, SkipSeen: &no},
		}

		cfg := NewConfig()
		f.Apply(cfg)

		if cfg.Subreddit != "udemyfreebies" || cfg.FeedLimit != 25 || cfg.MaxAgeDays != 3 {
			t.Errorf("unexpected feed settings %+v", cfg)
		}
		if cfg.StripChars != "" {
			t.Errorf("expected explicit empty strip chars, got %q", cfg.StripChars)
		}
		if !cfg.MergeWhitelist || cfg.SaveToDB || cfg.SkipSeen {
			t.Errorf("unexpected booleans %+v", cfg)
		}
		if cfg.Detector != DetectorOffline || cfg.ImplicitWait != 5*time.Second {
			t.Errorf("unexpected detector settings %+v", cfg)
		}
		if cfg.Browser != BrowserStatic || cfg.BrowserPath != "/usr/bin/chromium" {
			t.Errorf("unexpected browser settings %q %q", cfg.Browser, cfg.BrowserPath)
		}
		if !reflect.DeepEqual(cfg.OfflineLanguages, []string{"es", "pt"}) ||
			cfg.OfflineMinDistance != 0.25 || !cfg.OfflineLowAccuracy {
			t.Errorf("unexpected offline settings %v %v %v",
				cfg.OfflineLanguages, cfg.OfflineMinDistance, cfg.OfflineLowAccuracy)
		}
		if cfg.ProxyAddress != "127.0.0.1:9150" {
			t.Errorf("unexpected proxy %q", cfg.ProxyAddress)
		}
		if cfg.OutputPath != DefaultOutputPath {
			t.Errorf("unset output must keep default, got %q", cfg.OutputPath)
		}
	})
}

// TestLoadConfigFile tests loading the configuration file.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns ErrConfigNotFound for non-existent file", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("loads valid YAML config", func(t *testing.T) {
		t.Parallel()

		content := strings.Join([]string{
			"subreddit: udemyfreebies",
			"limit: 50",
			"maxAgeDays: 1",
			`stripChars: "[]"`,
			"implicitWait: 15s",
			"tor: true",
			"browser: static",
			"offline:",
			"  languages: [es, de]",
			"  minDistance: 0.1",
			"history:",
			"  enabled: false",
			"  dir: /tmp/couponscout",
			"",
		}, "\n")
		path := filepath.Join(t.TempDir(), ".couponscout")
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}

		f, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if f.Subreddit != "udemyfreebies" || f.FeedLimit != 50 || f.MaxAgeDays != 1 {
			t.Errorf("unexpected file %+v", f)
		}
		if f.StripChars == nil || *f.StripChars != "[]" {
			t.Errorf("unexpected stripChars %v", f.StripChars)
		}
		if f.ImplicitWait != 15*time.Second {
			t.Errorf("unexpected implicitWait %v", f.ImplicitWait)
		}
		if f.Tor == nil || !*f.Tor {
			t.Error("expected tor: true")
		}
		if f.Browser != BrowserStatic {
			t.Errorf("unexpected browser %q", f.Browser)
		}
		if !reflect.DeepEqual(f.Offline.Languages, []string{"es", "de"}) || f.Offline.MinDistance != 0.1 {
			t.Errorf("unexpected offline section %+v", f.Offline)
		}
		if f.History.Enabled == nil || *f.History.Enabled || f.History.Dir != "/tmp/couponscout" {
			t.Errorf("unexpected history %+v", f.History)
		}
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), ".couponscout")
		if err := os.WriteFile(path, []byte("limit: [unclosed"), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadConfigFile(path); err == nil {
			t.Error("expected error for invalid YAML")
		}
	})

	t.Run("rejects unknown keys", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), ".couponscout")
		if err := os.WriteFile(path, []byte("maxAge: 3\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadConfigFile(path); err == nil {
			t.Error("expected error for unknown key")
		}
	})

	t.Run("accepts empty file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), ".couponscout")
		if err := os.WriteFile(path, nil, 0o600); err != nil {
			t.Fatal(err)
		}
		f, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if f.Subreddit != "" {
			t.Errorf("expected zero file, got %+v", f)
		}
	})
}

// TestFindConfigFile tests config file discovery.
func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns explicit path if exists", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(path, []byte("limit: 5\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		if got := FindConfigFile(path); got != path {
			t.Errorf("expected %q, got %q", path, got)
		}
	})

	t.Run("returns empty for non-existent explicit path", func(t *testing.T) {
		t.Parallel()

		if got := FindConfigFile(filepath.Join(t.TempDir(), "nope")); got != "" {
			t.Errorf("expected empty, got %q", got)
		}
	})
}

// TestXDGDirs tests XDG directory helpers.
func TestXDGDirs(t *testing.T) {
	t.Parallel()

	for name, dir := range map[string]string{
		"data":   XDGDataDir(),
		"config": XDGConfigDir(),
	} {
		if dir == "" || filepath.Base(dir) != AppName {
			t.Errorf("%s dir %q does not end in %q", name, dir, AppName)
		}
	}
}

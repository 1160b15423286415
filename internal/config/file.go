package config

import "time"

// File represents the structure of the .couponscout configuration file.
// Every field is optional; unset fields keep the value already in Config.
type File struct {
	Subreddit     string `yaml:"subreddit,omitempty"`
	FeedLimit     int    `yaml:"limit,omitempty"`
	MaxAgeDays    int    `yaml:"maxAgeDays,omitempty"`
	WhitelistPath string `yaml:"whitelist,omitempty"`
	OutputPath    string `yaml:"output,omitempty"`

	// StripChars is a character set, not a prefix. A pointer so that an
	// explicit empty string disables trimming.
	StripChars *string `yaml:"stripChars,omitempty"`

	MergeWhitelist *bool `yaml:"mergeWhitelist,omitempty"`

	Detector             string        `yaml:"detector,omitempty"`
	Selector             string        `yaml:"selector,omitempty"`
	Browser              string        `yaml:"browser,omitempty"`
	BrowserPath          string        `yaml:"browserPath,omitempty"`
	StrictEncoding       *bool         `yaml:"strictEncoding,omitempty"`
	AbortOnLookupFailure *bool         `yaml:"abortOnLookupFailure,omitempty"`
	ImplicitWait         time.Duration `yaml:"implicitWait,omitempty"`
	UserAgent            string        `yaml:"userAgent,omitempty"`

	Proxy             string        `yaml:"proxy,omitempty"`
	Tor               *bool         `yaml:"tor,omitempty"`
	TorStartupTimeout time.Duration `yaml:"torStartupTimeout,omitempty"`

	// Offline configures the offline language detector.
	Offline OfflineFile `yaml:"offline,omitempty"`

	// History configures the run history database.
	History HistoryFile `yaml:"history,omitempty"`
}

// OfflineFile is the offline section of the configuration file.
type OfflineFile struct {
	Languages   []string `yaml:"languages,omitempty"`
	MinDistance float64  `yaml:"minDistance,omitempty"`
	LowAccuracy *bool    `yaml:"lowAccuracy,omitempty"`
}

// HistoryFile is the history section of the configuration file.
type HistoryFile struct {
	Enabled  *bool  `yaml:"enabled,omitempty"`
	Dir      string `yaml:"dir,omitempty"`
	SkipSeen *bool  `yaml:"skipSeen,omitempty"`
}

// Apply overlays the values set in the file onto cfg.
func (f *File) Apply(cfg *Config) {
	setString(&cfg.Subreddit, f.Subreddit)
	setString(&cfg.WhitelistPath, f.WhitelistPath)
	setString(&cfg.OutputPath, f.OutputPath)
	setString(&cfg.Detector, f.Detector)
	setString(&cfg.Selector, f.Selector)
	setString(&cfg.Browser, f.Browser)
	setString(&cfg.BrowserPath, f.BrowserPath)
	setString(&cfg.UserAgent, f.UserAgent)
	setString(&cfg.ProxyAddress, f.Proxy)
	setString(&cfg.DBDir, f.History.Dir)

	if f.FeedLimit != 0 {
		cfg.FeedLimit = f.FeedLimit
	}
	if f.MaxAgeDays != 0 {
		cfg.MaxAgeDays = f.MaxAgeDays
	}
	if f.ImplicitWait != 0 {
		cfg.ImplicitWait = f.ImplicitWait
	}
	if f.TorStartupTimeout != 0 {
		cfg.TorStartupTimeout = f.TorStartupTimeout
	}
	if f.Offline.MinDistance != 0 {
		cfg.OfflineMinDistance = f.Offline.MinDistance
	}
	if len(f.Offline.Languages) > 0 {
		cfg.OfflineLanguages = append([]string(nil), f.Offline.Languages...)
	}
	if f.StripChars != nil {
		cfg.StripChars = *f.StripChars
	}

	setBool(&cfg.MergeWhitelist, f.MergeWhitelist)
	setBool(&cfg.StrictEncoding, f.StrictEncoding)
	setBool(&cfg.AbortOnLookupFailure, f.AbortOnLookupFailure)
	setBool(&cfg.OfflineLowAccuracy, f.Offline.LowAccuracy)
	setBool(&cfg.UseTor, f.Tor)
	setBool(&cfg.SaveToDB, f.History.Enabled)
	setBool(&cfg.SkipSeen, f.History.SkipSeen)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

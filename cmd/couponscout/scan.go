package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/nao1215/couponscout/internal/browser"
	"github.com/nao1215/couponscout/internal/config"
	"github.com/nao1215/couponscout/internal/database"
	"github.com/nao1215/couponscout/internal/feed"
	"github.com/nao1215/couponscout/internal/langdetect"
	"github.com/nao1215/couponscout/internal/log"
	"github.com/nao1215/couponscout/internal/model"
	"github.com/nao1215/couponscout/internal/report"
	"github.com/nao1215/couponscout/internal/scout"
	"github.com/nao1215/couponscout/internal/store"
	"github.com/nao1215/couponscout/internal/tor"
	"github.com/nao1215/couponscout/internal/translate"
	"github.com/spf13/cobra"
)

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan a coupon subreddit for new free courses",
		Long: `Scan reads the newest posts of a coupon subreddit and keeps every post that:
- is younger than --max-age days (scanning stops at the first older post)
- has an English title
- is not in the whitelist of owned courses
- was not found by an earlier run (unless --skip-seen=false)

The kept posts are written to the output file as a JSON object mapping
course titles to coupon links, indented with four spaces.

The default translate detector renders the translation page in headless
Chrome or Chromium, which must be installed (see --browser-path). Use
--detector offline to classify titles without a browser.

Examples:
  # Scan r/FreeUdemyCoupons with the defaults
  couponscout scan

  # Only keep posts from the last day and add found titles to the whitelist
  couponscout scan --max-age 1 --merge-whitelist

  # Detect languages offline instead of using the translation page
  couponscout scan --detector offline --offline-languages es,pt,de

  # Route traffic through a local Tor daemon
  couponscout scan --proxy 127.0.0.1:9050

  # Output a Markdown run report
  couponscout scan --markdown --report-file report.md`,
		Args: cobra.NoArgs,
		RunE: runScanCmd,
	}

	// Feed flags
	cmd.Flags().StringP("subreddit", "s", config.DefaultSubreddit,
		"Subreddit to scan, with or without the r/ prefix")
	cmd.Flags().IntP("limit", "l", config.DefaultFeedLimit,
		"Number of newest posts to request")
	cmd.Flags().IntP("max-age", "a", config.DefaultMaxAgeDays,
		"Stop at the first post this many whole days old")

	// File flags
	cmd.Flags().StringP("whitelist", "w", config.DefaultWhitelistPath,
		"JSON file of owned course titles")
	cmd.Flags().StringP("output", "o", config.DefaultOutputPath,
		"JSON file the found coupons are written to")
	cmd.Flags().Bool("merge-whitelist", false,
		"Add found titles to the whitelist file after the run")
	cmd.Flags().String("strip-chars", config.DefaultStripChars,
		"Character set trimmed from both ends of each title")

	// Language detection flags
	cmd.Flags().String("detector", config.DetectorTranslate,
		"Language detector: translate or offline")
	cmd.Flags().String("selector", config.DefaultSelector,
		"CSS selector of the language label on the translation page")
	cmd.Flags().String("browser", config.BrowserChrome,
		"Page backend of the translate detector: chrome or static")
	cmd.Flags().String("browser-path", "",
		"Chrome or Chromium executable (default: first one found)")
	cmd.Flags().Bool("strict-encoding", false,
		"Percent-encode characters the encoding table does not cover")
	cmd.Flags().Bool("abort-on-lookup-failure", false,
		"Stop at the first title whose language cannot be determined")
	cmd.Flags().DurationP("implicit-wait", "t", config.DefaultImplicitWait,
		"Time limit for each page load and feed request")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header sent with every request")
	cmd.Flags().StringSlice("offline-languages", nil,
		"Candidate languages of the offline detector, as ISO 639-1 codes or names (default: built-in list)")
	cmd.Flags().Float64("offline-min-distance", 0,
		"Treat titles the offline detector cannot separate by this relative distance as not English (0 to 0.99)")
	cmd.Flags().Bool("offline-low-accuracy", false,
		"Use the smaller, faster offline language models")

	// Routing flags
	cmd.Flags().StringP("proxy", "e", "",
		"Use a SOCKS5 proxy at the specified address (e.g., 127.0.0.1:9050)")
	cmd.Flags().Bool("tor", false,
		"Start an embedded Tor daemon and route all traffic through it")
	cmd.Flags().DurationP("tor-timeout", "T", config.DefaultTorStartupTimeout,
		"Timeout for embedded Tor startup")

	// History flags
	cmd.Flags().Bool("no-history", false,
		"Do not record this run in the history database")
	cmd.Flags().Bool("skip-seen", true,
		"Leave out titles that an earlier run already found")
	cmd.Flags().String("db-dir", "",
		"History database directory (default: XDG data directory)")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .couponscout in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON run report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown run report (mutually exclusive with --json)")
	cmd.Flags().String("report-file", "",
		"Write the run report to the specified file path (creates directories if needed)")

	return cmd
}

// runScanCmd executes the scan command.
func runScanCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.New(os.Stderr, cfg.Verbose, cfg.LogJSON)
	slog.SetDefault(logger)

	ctx, cancel := signalContext(logger)
	defer cancel()

	return runScan(ctx, cfg, logger, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// signalContext returns a context that is cancelled on SIGINT or SIGTERM.
func signalContext(logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// getBoolFlag retrieves a bool flag from the command or the root's
// persistent flags.
func getBoolFlag(cmd *cobra.Command, name string) bool {
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		v, err = cmd.Root().PersistentFlags().GetBool(name)
		if err != nil {
			return false
		}
	}
	return v
}

// loadConfigFile overlays the configuration file onto cfg.
// A missing file is an error only when its path was given explicitly.
func loadConfigFile(cfg *config.Config, configPath string) error {
	path := config.FindConfigFile(configPath)
	if path == "" {
		if configPath != "" {
			return fmt.Errorf("configuration file not found: %s", configPath)
		}
		return nil
	}

	file, err := config.LoadConfigFile(path)
	if err != nil {
		return fmt.Errorf("failed to load configuration file %s: %w", path, err)
	}
	file.Apply(cfg)
	cfg.ConfigFilePath = path
	return nil
}

// buildConfig creates a Config from defaults, the configuration file and
// cobra command flags, in that order of precedence.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	configPath, err := flags.GetString("config")
	if err != nil {
		return nil, err
	}
	if err := loadConfigFile(cfg, configPath); err != nil {
		return nil, err
	}

	stringFlags := map[string]*string{
		"subreddit":    &cfg.Subreddit,
		"whitelist":    &cfg.WhitelistPath,
		"output":       &cfg.OutputPath,
		"strip-chars":  &cfg.StripChars,
		"detector":     &cfg.Detector,
		"selector":     &cfg.Selector,
		"browser":      &cfg.Browser,
		"browser-path": &cfg.BrowserPath,
		"user-agent":   &cfg.UserAgent,
		"proxy":        &cfg.ProxyAddress,
		"db-dir":       &cfg.DBDir,
		"report-file":  &cfg.ReportFile,
	}
	for name, dst := range stringFlags {
		if !flags.Changed(name) {
			continue
		}
		if *dst, err = flags.GetString(name); err != nil {
			return nil, err
		}
	}

	intFlags := map[string]*int{
		"limit":   &cfg.FeedLimit,
		"max-age": &cfg.MaxAgeDays,
	}
	for name, dst := range intFlags {
		if !flags.Changed(name) {
			continue
		}
		if *dst, err = flags.GetInt(name); err != nil {
			return nil, err
		}
	}

	boolFlags := map[string]*bool{
		"merge-whitelist":         &cfg.MergeWhitelist,
		"strict-encoding":         &cfg.StrictEncoding,
		"abort-on-lookup-failure": &cfg.AbortOnLookupFailure,
		"offline-low-accuracy":    &cfg.OfflineLowAccuracy,
		"tor":                     &cfg.UseTor,
		"skip-seen":               &cfg.SkipSeen,
		"json":                    &cfg.JSONReport,
		"markdown":                &cfg.MarkdownReport,
	}
	for name, dst := range boolFlags {
		if !flags.Changed(name) {
			continue
		}
		if *dst, err = flags.GetBool(name); err != nil {
			return nil, err
		}
	}

	if flags.Changed("no-history") {
		noHistory, err := flags.GetBool("no-history")
		if err != nil {
			return nil, err
		}
		cfg.SaveToDB = !noHistory
	}

	if flags.Changed("offline-languages") {
		if cfg.OfflineLanguages, err = flags.GetStringSlice("offline-languages"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("offline-min-distance") {
		if cfg.OfflineMinDistance, err = flags.GetFloat64("offline-min-distance"); err != nil {
			return nil, err
		}
	}

	if flags.Changed("implicit-wait") {
		if cfg.ImplicitWait, err = flags.GetDuration("implicit-wait"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("tor-timeout") {
		if cfg.TorStartupTimeout, err = flags.GetDuration("tor-timeout"); err != nil {
			return nil, err
		}
	}

	cfg.Verbose = getBoolFlag(cmd, "verbose")
	cfg.LogJSON = getBoolFlag(cmd, "log-json")

	return cfg, nil
}

// runScan sets up the network route and runs one scan.
func runScan(ctx context.Context, cfg *config.Config, logger *slog.Logger, stdout, stderr io.Writer) error {
	logger.Info("starting scan",
		"subreddit", cfg.Subreddit,
		"detector", cfg.Detector,
		"browser", cfg.Browser,
		"proxy", cfg.ProxyAddress,
		"tor", cfg.UseTor,
		"saveToDB", cfg.SaveToDB,
	)

	rt, cleanup, err := newRoute(ctx, cfg, logger, stderr)
	if err != nil {
		return err
	}
	defer cleanup()

	return executeScan(ctx, cfg, rt, logger, stdout)
}

// route is the network path every request of a run takes.
type route struct {
	// client is used for the feed and the static page backend.
	client *http.Client

	// socksAddr is the SOCKS5 proxy the browser is pointed at, or "" when
	// traffic goes direct.
	socksAddr string
}

// newRoute returns the route all requests go through, and a function that
// releases whatever was started for it.
func newRoute(ctx context.Context, cfg *config.Config, logger *slog.Logger, stderr io.Writer) (route, func(), error) {
	switch {
	case cfg.UseTor:
		client, embeddedTor, err := startEmbeddedTor(ctx, cfg, logger, stderr)
		if err != nil {
			return route{}, nil, err
		}
		cleanup := func() {
			logger.Info("stopping embedded Tor daemon...")
			if err := embeddedTor.Stop(); err != nil {
				logger.Error("failed to stop embedded Tor", "error", err)
			}
		}
		return route{client: client.NewHTTPClient(), socksAddr: client.ProxyAddress()}, cleanup, nil

	case cfg.ProxyAddress != "":
		client, err := tor.NewClient(cfg.ProxyAddress, cfg.ImplicitWait)
		if err != nil {
			return route{}, nil, fmt.Errorf("failed to create proxy client: %w", err)
		}

		status := client.CheckConnection(ctx)
		if status != tor.ProxyStatusOK {
			return route{}, nil, fmt.Errorf("proxy check failed: %s (make sure a SOCKS5 proxy is running at %s)",
				status, cfg.ProxyAddress)
		}

		logger.Info("proxy connection verified", "address", cfg.ProxyAddress)
		return route{client: client.NewHTTPClient(), socksAddr: client.ProxyAddress()}, func() {}, nil

	default:
		return route{client: tor.NewDirectHTTPClient(cfg.ImplicitWait)}, func() {}, nil
	}
}

// startEmbeddedTor starts an embedded Tor daemon using tornago and verifies
// its SOCKS port.
func startEmbeddedTor(ctx context.Context, cfg *config.Config, logger *slog.Logger, stderr io.Writer) (*tor.Client, *tor.EmbeddedTor, error) {
	fmt.Fprintln(stderr, "Starting embedded Tor daemon...")
	fmt.Fprintf(stderr, "This may take 1-3 minutes while Tor bootstraps and connects to the network.\n\n")

	embeddedTor := tor.NewEmbeddedTor(
		tor.WithStartupTimeout(cfg.TorStartupTimeout),
		tor.WithLogger(logger),
	)

	if err := embeddedTor.Start(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to start embedded Tor: %w", err)
	}

	logger.Info("embedded Tor daemon started",
		"socksAddr", embeddedTor.SocksAddr(),
		"controlAddr", embeddedTor.ControlAddr(),
	)
	fmt.Fprintf(stderr, "Embedded Tor daemon started, SOCKS proxy: %s\n\n", embeddedTor.SocksAddr())

	client, err := embeddedTor.NewClient(cfg.ImplicitWait)
	if err != nil {
		_ = embeddedTor.Stop() //nolint:errcheck // Best effort cleanup
		return nil, nil, fmt.Errorf("failed to create Tor client: %w", err)
	}

	status := client.CheckConnection(ctx)
	if status != tor.ProxyStatusOK {
		_ = embeddedTor.Stop() //nolint:errcheck // Best effort cleanup
		return nil, nil, fmt.Errorf("embedded Tor proxy check failed: %s", status)
	}

	return client, embeddedTor, nil
}

// pageSession is a translation page that holds a resource until closed.
type pageSession interface {
	translate.Page
	Close() error
}

// newClassifier returns the configured language detector and a function that
// releases it.
func newClassifier(cfg *config.Config, rt route, logger *slog.Logger) (scout.LanguageClassifier, func(), error) {
	if cfg.Detector == config.DetectorOffline {
		detector, err := newOfflineDetector(cfg)
		if err != nil {
			return nil, nil, err
		}
		return detector, func() {}, nil
	}

	page, err := newPage(cfg, rt)
	if err != nil {
		return nil, nil, err
	}

	var encOpts []translate.EncoderOption
	if cfg.StrictEncoding {
		encOpts = append(encOpts, translate.WithEscapeUnmapped())
	}

	classifier := translate.NewClassifier(page,
		translate.WithEncoder(translate.NewEncoder(translate.DefaultTable(), encOpts...)),
		translate.WithSelector(cfg.Selector),
	)

	release := func() {
		if err := page.Close(); err != nil {
			logger.Warn("failed to close page session", "error", err)
		}
	}
	return classifier, release, nil
}

// newPage opens the page backend of the translate detector. The Chrome
// backend is started here, so a missing browser fails the run instead of
// every lookup.
func newPage(cfg *config.Config, rt route) (pageSession, error) {
	if cfg.Browser == config.BrowserStatic {
		return browser.New(rt.client,
			browser.WithImplicitWait(cfg.ImplicitWait),
			browser.WithUserAgent(cfg.UserAgent),
			browser.WithMaxBodySize(cfg.MaxBodySize),
		), nil
	}

	opts := []browser.ChromeOption{
		browser.WithChromeImplicitWait(cfg.ImplicitWait),
		browser.WithChromeUserAgent(cfg.UserAgent),
		browser.WithWaitSelector(cfg.Selector),
	}
	if rt.socksAddr != "" {
		opts = append(opts, browser.WithProxyServer("socks5://"+rt.socksAddr))
	}
	if cfg.BrowserPath != "" {
		opts = append(opts, browser.WithExecPath(cfg.BrowserPath))
	}

	chrome := browser.NewChrome(opts...)
	if err := chrome.Start(); err != nil {
		_ = chrome.Close() //nolint:errcheck // Best effort cleanup
		return nil, fmt.Errorf("failed to start browser (use --browser-path or --detector offline): %w", err)
	}
	return chrome, nil
}

// newOfflineDetector builds the offline detector from the configuration.
func newOfflineDetector(cfg *config.Config) (*langdetect.Detector, error) {
	var opts []langdetect.Option
	if len(cfg.OfflineLanguages) > 0 {
		languages, err := langdetect.ParseLanguages(cfg.OfflineLanguages)
		if err != nil {
			return nil, fmt.Errorf("configuration error: %w", err)
		}
		opts = append(opts, langdetect.WithLanguages(languages...))
	}
	if cfg.OfflineMinDistance > 0 {
		opts = append(opts, langdetect.WithMinimumRelativeDistance(cfg.OfflineMinDistance))
	}
	if cfg.OfflineLowAccuracy {
		opts = append(opts, langdetect.WithLowAccuracyMode())
	}
	return langdetect.New(opts...), nil
}

// executeScan fetches the feed, filters it and writes every output.
// The coupons found before a failure are still written, and the failure is
// returned after that.
func executeScan(ctx context.Context, cfg *config.Config, rt route, logger *slog.Logger, stdout io.Writer) error {
	owned, err := store.LoadWhitelist(cfg.WhitelistPath)
	if err != nil {
		return fmt.Errorf("failed to load whitelist: %w", err)
	}
	logger.Debug("whitelist loaded", "path", cfg.WhitelistPath, "titles", len(owned))

	var db *database.HistoryDB
	if cfg.SaveToDB {
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("database opened", "dir", cfg.DBDir)
	}

	scoutOpts := []scout.Option{
		scout.WithLogger(logger),
		scout.WithMaxAgeDays(cfg.MaxAgeDays),
		scout.WithStripChars(cfg.StripChars),
		scout.WithAbortOnLookupFailure(cfg.AbortOnLookupFailure),
	}
	if db != nil && cfg.SkipSeen {
		seen, err := db.SeenTitles(ctx)
		if err != nil {
			return fmt.Errorf("failed to load history: %w", err)
		}
		scoutOpts = append(scoutOpts, scout.WithSeen(seen.Has))
	}

	source := feed.NewReddit(rt.client,
		feed.WithSubreddit(cfg.Subreddit),
		feed.WithLimit(cfg.FeedLimit),
		feed.WithUserAgent(cfg.UserAgent),
		feed.WithLogger(logger),
	)
	posts, err := source.Posts(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch posts: %w", err)
	}

	classifier, release, err := newClassifier(cfg, rt, logger)
	if err != nil {
		return err
	}
	defer release()

	runReport, scanErr := scout.New(classifier, scoutOpts...).Run(ctx, source.Subreddit(), posts, owned)

	if err := store.SaveCoupons(cfg.OutputPath, runReport.Found); err != nil {
		return errors.Join(scanErr, fmt.Errorf("failed to write coupons: %w", err))
	}
	logger.Info("coupons written", "path", cfg.OutputPath, "count", runReport.Found.Len())

	if cfg.MergeWhitelist {
		if err := mergeWhitelist(cfg.WhitelistPath, owned, runReport.Found, logger); err != nil {
			return errors.Join(scanErr, err)
		}
	}

	// The run is recorded even after cancellation, so the history matches
	// the output file.
	if err := saveRun(context.WithoutCancel(ctx), db, runReport, logger); err != nil {
		return errors.Join(scanErr, err)
	}

	if err := outputReport(cfg, runReport, stdout); err != nil {
		return errors.Join(scanErr, err)
	}

	return scanErr
}

// mergeWhitelist adds found titles to the whitelist file.
func mergeWhitelist(path string, owned model.Whitelist, found model.Coupons, logger *slog.Logger) error {
	added := owned.Merge(found)
	if added == 0 {
		return nil
	}
	if err := store.SaveWhitelist(path, owned); err != nil {
		return fmt.Errorf("failed to update whitelist: %w", err)
	}
	logger.Info("whitelist updated", "path", path, "added", added)
	return nil
}

// saveRun records the run in the history database.
// If db is nil, this function is a no-op.
func saveRun(ctx context.Context, db *database.HistoryDB, runReport *model.RunReport, logger *slog.Logger) error {
	if db == nil {
		return nil
	}

	id, err := db.SaveRun(ctx, runReport)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	logger.Info("run saved to database", "id", id, "found", runReport.Found.Len())
	return nil
}

// newReportWriter returns the writer for the requested report format.
func newReportWriter(output io.Writer, jsonOutput, markdownOutput, verbose bool) report.Writer {
	switch {
	case jsonOutput:
		return report.NewJSONWriter(output, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	case markdownOutput:
		return report.NewMarkdownWriter(output)
	default:
		return report.NewSimpleWriter(output, report.WithVerbose(verbose))
	}
}

// openReportFile creates path and its parent directories.
func openReportFile(path string) (*os.File, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(filepath.Clean(path), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to create report file: %w", err)
	}
	return f, nil
}

// outputReport writes the run report in the requested format.
// With a report file, the file gets the requested format and stdout still
// gets the text summary.
func outputReport(cfg *config.Config, runReport *model.RunReport, stdout io.Writer) error {
	if cfg.ReportFile == "" {
		_, err := newReportWriter(stdout, cfg.JSONReport, cfg.MarkdownReport, cfg.Verbose).Write(runReport)
		return err
	}

	f, err := openReportFile(cfg.ReportFile)
	if err != nil {
		return err
	}
	defer f.Close()

	w := report.NewMultiWriter(
		newReportWriter(f, cfg.JSONReport, cfg.MarkdownReport, cfg.Verbose),
		report.NewSimpleWriter(stdout, report.WithVerbose(cfg.Verbose)),
	)
	if _, err := w.Write(runReport); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

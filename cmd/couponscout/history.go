package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/nao1215/couponscout/internal/config"
	"github.com/nao1215/couponscout/internal/database"
	"github.com/spf13/cobra"
)

// noHistoryMessage is printed when nothing was recorded yet.
const noHistoryMessage = "No coupons recorded yet.\n\nUse 'couponscout scan' to scan the subreddit and save the results."

// NewHistoryCmd creates the history command.
// This command lists coupons found by earlier scans.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List coupons found by earlier scans",
		Long: `History lists the coupons recorded in the history database, newest first.

Every 'couponscout scan' run records the coupons it found unless --no-history
is given. With --last the full report of the most recent run is shown
instead.

Examples:
  # Show the 20 most recent coupons
  couponscout history

  # Show every recorded coupon as JSON
  couponscout history --limit 0 --json

  # Show the report of the last run as Markdown
  couponscout history --last --markdown`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "l", config.DefaultHistoryLimit,
		"Number of coupons to list (0 lists all)")
	cmd.Flags().Bool("last", false,
		"Show the report of the most recent run")
	cmd.Flags().String("db-dir", "",
		"History database directory (default: XDG data directory)")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .couponscout in current or home directory)")

	// Output format flags
	cmd.Flags().BoolP("json", "j", false,
		"Output in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output in Markdown format")

	return cmd
}

// historyOptions holds the parsed history flags.
type historyOptions struct {
	dbDir          string
	limit          int
	last           bool
	jsonOutput     bool
	markdownOutput bool
	verbose        bool
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	opts, err := parseHistoryFlags(cmd)
	if err != nil {
		return err
	}
	return runHistory(cmd.Context(), opts, cmd.OutOrStdout())
}

// parseHistoryFlags reads the history flags. The database directory comes
// from --db-dir, then the configuration file, then the default.
func parseHistoryFlags(cmd *cobra.Command) (historyOptions, error) {
	var opts historyOptions
	flags := cmd.Flags()

	configPath, err := flags.GetString("config")
	if err != nil {
		return opts, err
	}
	cfg := config.NewConfig()
	if err := loadConfigFile(cfg, configPath); err != nil {
		return opts, err
	}
	opts.dbDir = cfg.DBDir

	if flags.Changed("db-dir") {
		if opts.dbDir, err = flags.GetString("db-dir"); err != nil {
			return opts, err
		}
	}
	if opts.limit, err = flags.GetInt("limit"); err != nil {
		return opts, err
	}
	if opts.last, err = flags.GetBool("last"); err != nil {
		return opts, err
	}
	if opts.jsonOutput, err = flags.GetBool("json"); err != nil {
		return opts, err
	}
	if opts.markdownOutput, err = flags.GetBool("markdown"); err != nil {
		return opts, err
	}
	opts.verbose = getBoolFlag(cmd, "verbose")

	if opts.jsonOutput && opts.markdownOutput {
		return opts, fmt.Errorf("configuration error: %w", config.ErrConflictingReportFormats)
	}
	if opts.dbDir == "" {
		return opts, fmt.Errorf("configuration error: %w", config.ErrNoDBDir)
	}
	return opts, nil
}

// runHistory prints the recorded coupons or the latest run report.
func runHistory(ctx context.Context, opts historyOptions, out io.Writer) error {
	db, err := database.Open(opts.dbDir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if errors.Is(err, database.ErrNotFound) {
		fmt.Fprintln(out, noHistoryMessage)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	w := newReportWriter(out, opts.jsonOutput, opts.markdownOutput, opts.verbose)

	if opts.last {
		latest, err := db.LatestRun(ctx)
		if errors.Is(err, database.ErrNotFound) {
			fmt.Fprintln(out, noHistoryMessage)
			return nil
		}
		if err != nil {
			return err
		}
		_, err = w.Write(latest)
		return err
	}

	entries, err := db.ListCoupons(ctx, opts.limit)
	if err != nil {
		return err
	}

	if !opts.jsonOutput && !opts.markdownOutput {
		runs, err := db.RunCount(ctx)
		if err != nil {
			return err
		}
		if runs == 0 {
			fmt.Fprintln(out, noHistoryMessage)
			return nil
		}
		fmt.Fprintf(out, "Recorded runs: %d\n\n", runs)
	}

	_, err = w.WriteHistory(entries)
	return err
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for couponscout.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "couponscout",
		Short: "Collect fresh free-course coupons from Reddit",
		Long: `couponscout scans the newest posts of a coupon subreddit (r/FreeUdemyCoupons
by default) and keeps the posts that are recent, written in English and not
already in your list of owned courses.

The found coupons are written as a JSON object mapping course titles to
coupon links. Every run is also recorded in a local history database.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON lines")

	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

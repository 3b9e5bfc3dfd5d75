package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/xavierca1/coach-outreach/internal/cli"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "outreach",
		Short:   "College coach outreach: emails, Twitter DMs and reply tracking",
		Version: version,
		Long: `outreach works through the coach spreadsheet: it emails recruiting
coordinators and O-line coaches on a follow-up schedule, DMs the ones with a
Twitter handle, and records their replies back on the sheet.`,
		SilenceUsage: true,
	}
	cli.AddFlags(rootCmd)

	rootCmd.AddCommand(cli.EmailsCmd())
	rootCmd.AddCommand(cli.DMsCmd())
	rootCmd.AddCommand(cli.ResponsesCmd())
	rootCmd.AddCommand(cli.NotesCmd())
	rootCmd.AddCommand(cli.StatsCmd())
	rootCmd.AddCommand(cli.WorkerCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

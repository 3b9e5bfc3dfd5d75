package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/xavierca1/coach-outreach/internal/app"
	"github.com/xavierca1/coach-outreach/internal/entity"
	"github.com/xavierca1/coach-outreach/internal/infra/http/middleware"
	"github.com/xavierca1/coach-outreach/internal/usecase"
)

func DMsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dms",
		Short: "Send Twitter DMs and record manual Twitter status",
	}
	cmd.AddCommand(dmsSendCmd(), dmsLoginCmd(), dmsMarkCmd())
	return cmd
}

func dmsSendCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "send",
		Short: "DM coaches with a Twitter handle who have not been messaged",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				out := cmd.OutOrStdout()
				summary, err := a.DMs.Execute(ctx, usecase.SendDMsInput{Limit: limit},
					middleware.ObserveEvents(eventPrinter(out)))
				if err != nil {
					return err
				}
				printSummary(out, summary)
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum DMs to send (0 = daily limit)")
	return cmd
}

func dmsLoginCmd() *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Open a browser window to log into Twitter once",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				fmt.Fprintln(cmd.OutOrStdout(), "Log in in the browser window; the session is saved to the profile directory.")
				if err := a.Twitter.Login(ctx, timeout); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), okColor.Sprint("logged in"))
				return nil
			})
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "how long to wait for the login")
	return cmd
}

func dmsMarkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mark <row> <rc|ol> <followed|wrong|messaged>",
		Short: "Set a coach's Twitter status on the sheet",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			row, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("row must be a number: %w", err)
			}
			input := usecase.MarkTwitterInput{Row: row, Role: entity.Role(args[1]), Status: args[2]}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := a.MarkTwitter.Execute(ctx, input); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "row %d %s twitter status: %s\n", row, input.Role, okColor.Sprint(input.Status))
				return nil
			})
		},
	}
}

package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xavierca1/coach-outreach/internal/app"
	"github.com/xavierca1/coach-outreach/internal/infra/http/middleware"
	"github.com/xavierca1/coach-outreach/internal/usecase"
)

func EmailsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "emails",
		Short: "Send, preview or test coach emails",
	}
	cmd.AddCommand(emailsSendCmd(), emailsPreviewCmd(), emailsTestCmd())
	return cmd
}

func emailsSendCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send the next batch of initial and follow-up emails",
		Long: `Send emails to coaches that are due today.

The batch stops early when the daily limit is reached or when the mail
server blocks the account. Coaches whose address bounces are marked wrong.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				out := cmd.OutOrStdout()
				summary, err := a.Emails.Execute(ctx, usecase.SendEmailsInput{Limit: limit},
					middleware.ObserveEvents(eventPrinter(out)))
				if err != nil {
					return err
				}
				printSummary(out, summary)
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum emails to send (0 = daily limit)")
	return cmd
}

func emailsPreviewCmd() *cobra.Command {
	var limit int
	var full bool
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Show the emails the next batch would send",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				preview, err := a.Emails.Preview(ctx, limit)
				if err != nil {
					return err
				}
				printPreview(cmd, preview, full)
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 5, "number of emails to render")
	cmd.Flags().BoolVar(&full, "full", false, "print full message bodies")
	return cmd
}

func printPreview(cmd *cobra.Command, p *usecase.PreviewOutput, full bool) {
	out := cmd.OutOrStdout()
	for _, item := range p.Items {
		kind := "initial"
		if item.IsFollowup {
			kind = fmt.Sprintf("follow-up %d", item.Stage)
		}
		fmt.Fprintf(out, "%s row %d  %s (%s) <%s>  %s\n",
			okColor.Sprint("▶"), item.Row, item.School, item.Role, item.Email, dimColor.Sprint(kind))
		fmt.Fprintf(out, "  subject: %s  [%s]\n", item.Subject, item.TemplateID)
		if full {
			fmt.Fprintf(out, "\n%s\n\n", item.Body)
		}
	}
	fmt.Fprintf(out, "\nskipped: %d contacted, %d responded, %d bad email, %d invalid\n",
		p.SkippedContacted, p.SkippedResponded, p.SkippedBadEmail, p.SkippedInvalid)
	fmt.Fprintf(out, "remaining today: %d\n", p.RemainingToday)
}

func emailsTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Log into the SMTP server without sending anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := a.Emails.TestConnection(ctx); err != nil {
					fmt.Fprintln(cmd.OutOrStdout(), errColor.Sprint("SMTP login failed"))
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), okColor.Sprint("SMTP login ok"))
				return nil
			})
		},
	}
}

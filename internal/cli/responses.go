package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xavierca1/coach-outreach/internal/app"
	"github.com/xavierca1/coach-outreach/internal/infra/http/middleware"
	"github.com/xavierca1/coach-outreach/internal/usecase"
)

func ResponsesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "responses",
		Short: "Track coach replies",
	}
	cmd.AddCommand(responsesScanCmd(), responsesRecordCmd())
	return cmd
}

func responsesScanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Check the inbox for replies from emailed coaches",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				out, err := a.Responses.Scan(ctx)
				if err != nil {
					return err
				}
				middleware.RecordResponses(len(out.NewResponses))
				w := cmd.OutOrStdout()
				fmt.Fprintf(w, "checked %d coaches\n", out.Checked)
				for _, r := range out.NewResponses {
					fmt.Fprintf(w, "%s %s (%s) %q\n", okColor.Sprint("NEW"), r.CoachEmail, r.School, r.Subject)
					if r.Snippet != "" {
						fmt.Fprintf(w, "    %s\n", dimColor.Sprint(r.Snippet))
					}
				}
				fmt.Fprintf(w, "%d new responses, %d sheet rows updated\n", len(out.NewResponses), out.RowsUpdated)
				return nil
			})
		},
	}
}

func responsesRecordCmd() *cobra.Command {
	var input usecase.RecordResponseInput
	cmd := &cobra.Command{
		Use:   "record <email>",
		Short: "Record a reply received outside the scanned inbox",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input.CoachEmail = args[0]
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				resp, err := a.Responses.Record(ctx, input)
				if err != nil {
					return err
				}
				middleware.RecordResponses(1)
				fmt.Fprintf(cmd.OutOrStdout(), "recorded response from %s on %s\n",
					resp.CoachEmail, resp.ReceivedAt.Format("01/02/2006"))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&input.Subject, "subject", "", "reply subject")
	cmd.Flags().StringVar(&input.Snippet, "snippet", "", "short excerpt of the reply")
	cmd.Flags().StringVar(&input.ReceivedAt, "date", "", "date received, MM/DD/YYYY (default today)")
	return cmd
}

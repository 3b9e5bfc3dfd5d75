package cli

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/xavierca1/coach-outreach/internal/app"
	"github.com/xavierca1/coach-outreach/internal/usecase"
)

func StatsCmd() *cobra.Command {
	var sheet bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Outreach analytics, or sheet coverage with --sheet",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				w := cmd.OutOrStdout()
				if sheet {
					s, err := a.Stats.SheetStats(ctx)
					if err != nil {
						return err
					}
					printSheetStats(w, s)
					return nil
				}
				out, err := a.Stats.Execute(ctx)
				if err != nil {
					return err
				}
				printStats(w, out)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&sheet, "sheet", false, "count names, emails and handles on the sheet")
	return cmd
}

func printStats(w io.Writer, out *usecase.StatsOutput) {
	s := out.Summary
	fmt.Fprintf(w, "emails sent:       %d (%d initial, %d follow-up)\n", s.TotalEmailsSent, s.InitialEmails, s.FollowupEmails)
	fmt.Fprintf(w, "coaches contacted: %d\n", s.UniqueCoaches)
	fmt.Fprintf(w, "responses:         %d from %d coaches\n", s.TotalResponses, s.UniqueResponders)
	fmt.Fprintf(w, "response rate:     %s\n", okColor.Sprintf("%.1f%%", s.ResponseRate))
	fmt.Fprintf(w, "dms sent:          %d\n", s.TotalDMsSent)

	if len(out.ByDivision) > 0 {
		divs := make([]string, 0, len(out.ByDivision))
		for d := range out.ByDivision {
			divs = append(divs, d)
		}
		sort.Strings(divs)
		fmt.Fprintln(w, "\nby division:")
		for _, d := range divs {
			ds := out.ByDivision[d]
			fmt.Fprintf(w, "  %-8s %3d coaches  %3d replied  %5.1f%%\n", d, ds.Coaches, ds.Responders, ds.Rate)
		}
	}

	if len(out.HotLeads) > 0 {
		fmt.Fprintln(w, "\nhot leads:")
		for _, l := range out.HotLeads {
			fmt.Fprintf(w, "  %3d  %s, %s (%s)\n", l.Score, l.CoachName, l.School, l.Division)
		}
	}

	if len(out.RecentResponses) > 0 {
		fmt.Fprintln(w, "\nrecent responses:")
		for _, r := range out.RecentResponses {
			fmt.Fprintf(w, "  %s  %s  %s\n", r.ReceivedAt.Format("01/02/2006"), r.School, r.Subject)
		}
	}
}

func printSheetStats(w io.Writer, s *usecase.SheetStats) {
	fmt.Fprintf(w, "rows:            %d\n", s.Total)
	fmt.Fprintf(w, "RC names:        %d\n", s.RC)
	fmt.Fprintf(w, "OL names:        %d\n", s.OL)
	fmt.Fprintf(w, "needing review:  %s\n", warnColor.Sprint(s.Review))
	fmt.Fprintf(w, "emails:          %d\n", s.Emails)
	fmt.Fprintf(w, "twitter handles: %d\n", s.Twitter)
}

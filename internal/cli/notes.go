package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/xavierca1/coach-outreach/internal/app"
	"github.com/xavierca1/coach-outreach/internal/usecase"
)

func NotesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notes",
		Short: "Move tracking data out of the notes columns",
	}
	cmd.AddCommand(notesMigrateCmd(), notesAddHeadersCmd())
	return cmd
}

func notesMigrateCmd() *cobra.Command {
	var live bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Plan (default) or apply the notes migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				out, err := a.Notes.Execute(ctx, !live)
				if err != nil {
					return err
				}
				printMigration(cmd, out)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&live, "live", false, "write the changes to the sheet")
	return cmd
}

func printMigration(cmd *cobra.Command, out *usecase.MigrateNotesOutput) {
	w := cmd.OutOrStdout()
	if len(out.MissingHeaders) > 0 {
		fmt.Fprintf(w, "%s missing headers: %v\n", warnColor.Sprint("!"), out.MissingHeaders)
		fmt.Fprintln(w, "  run `outreach notes add-headers` before --live")
	}

	if out.DryRun {
		for _, c := range out.Changes {
			fmt.Fprintf(w, "Row %d %s: %s = %q\n", c.Row, c.School, c.Column, c.Value)
		}
	}

	keys := make([]string, 0, len(out.Stats))
	for k := range out.Stats {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Fprintf(w, "\n%d rows scanned, %d with changes\n", out.Rows, out.RowsChanged)
	for _, k := range keys {
		fmt.Fprintf(w, "  %-22s %d\n", k, out.Stats[k])
	}

	if out.DryRun {
		fmt.Fprintln(w, dimColor.Sprint("dry run: nothing written, use --live to apply"))
		return
	}
	fmt.Fprintf(w, "%s %d cells written, %d already up to date\n", okColor.Sprint("applied:"), out.Applied, out.Unchanged)
}

func notesAddHeadersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add-headers",
		Short: "Append any missing tracking headers to row 1",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				added, err := a.Notes.AddHeaders(ctx)
				if err != nil {
					return err
				}
				if len(added) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "all tracking headers present")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %v\n", okColor.Sprint("added:"), added)
				return nil
			})
		},
	}
}

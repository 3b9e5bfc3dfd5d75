package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/xavierca1/coach-outreach/internal/usecase"
)

var (
	okColor   = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow)
	errColor  = color.New(color.FgRed)
	dimColor  = color.New(color.Faint)
)

// eventPrinter writes one line per batch event.
func eventPrinter(w io.Writer) usecase.EventFunc {
	return func(e usecase.Event) {
		fmt.Fprintln(w, formatEvent(e))
	}
}

func formatEvent(e usecase.Event) string {
	who := e.School
	if e.Role != "" {
		who += " (" + string(e.Role) + ")"
	}
	switch e.Type {
	case usecase.EventSent:
		line := okColor.Sprint("SENT    ") + " " + who + " " + e.Recipient
		if e.Template != "" {
			line += dimColor.Sprint(" [" + e.Template + "]")
		}
		return line
	case usecase.EventInvalidEmail:
		return warnColor.Sprint("INVALID ") + " " + who + " " + e.Recipient + " " + e.Message
	case usecase.EventCoachRemoved:
		return errColor.Sprint("REMOVED ") + " " + who + " " + e.Message
	case usecase.EventError:
		return errColor.Sprint("ERROR   ") + " " + who + " " + e.Recipient + " " + e.Message
	case usecase.EventLimitReached, usecase.EventConnectFailed:
		return errColor.Sprint("HALT    ") + " " + e.Message
	default:
		return dimColor.Sprint(string(e.Type)) + " " + who + " " + e.Message
	}
}

func printSummary(w io.Writer, s *usecase.BatchSummary) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s batch: %d candidates\n", s.Channel, s.Candidates)
	fmt.Fprintf(w, "  sent:          %s\n", okColor.Sprint(s.Sent))
	fmt.Fprintf(w, "  errors:        %s\n", errColor.Sprint(s.Errors))
	fmt.Fprintf(w, "  skipped:       %d\n", s.Skipped)
	fmt.Fprintf(w, "  not attempted: %d\n", s.NotAttempted)
	if s.Halted {
		fmt.Fprintf(w, "  %s %s\n", errColor.Sprint("halted:"), s.HaltReason)
	}
}

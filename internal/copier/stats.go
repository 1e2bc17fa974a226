package copier

import (
	"fmt"
	"io"

	"github.com/D3f0/dbglue/internal/state"
	"github.com/D3f0/dbglue/internal/utils"
)

const (
	statsLabelWidth = 20
	statsValueWidth = 37
	statsErrorWidth = 58
)

// PrintStats writes the end-of-run statistics box for result.
func PrintStats(w io.Writer, result *RunResult) {
	row := func(label string, value any) {
		_, _ = fmt.Fprintf(w, "║  %-*s %*v  ║\n", statsLabelWidth, label, statsValueWidth, value)
	}

	_, _ = fmt.Fprintf(w, "\n")
	_, _ = fmt.Fprintf(w, "╔══════════════════════════════════════════════════════════════╗\n")
	_, _ = fmt.Fprintf(w, "║                        COPY STATISTICS                       ║\n")
	_, _ = fmt.Fprintf(w, "╠══════════════════════════════════════════════════════════════╣\n")

	row("Tables Processed:", len(result.Tables))
	row("Completed:", result.Count(state.TableStatusCompleted))
	row("Aborted:", result.Count(state.TableStatusAborted))
	row("Skipped:", result.Skipped())
	row("Rows Copied:", utils.FormatNumber(result.TotalRows()))
	row("Duration:", utils.FormatDuration(result.Duration))
	if result.TotalRows() > 0 && result.Duration > 0 {
		row("Average Speed:", utils.FormatRate(result.TotalRows(), result.Duration))
	}

	if errs := result.Errors(); len(errs) > 0 {
		_, _ = fmt.Fprintf(w, "╠══════════════════════════════════════════════════════════════╣\n")
		_, _ = fmt.Fprintf(w, "║                            ERRORS                            ║\n")
		_, _ = fmt.Fprintf(w, "╠══════════════════════════════════════════════════════════════╣\n")

		for i, err := range errs {
			errorText := truncate(fmt.Sprintf("%d. %s", i+1, err.Error()), statsErrorWidth)
			_, _ = fmt.Fprintf(w, "║  %-*s  ║\n", statsErrorWidth, errorText)
		}
	}

	_, _ = fmt.Fprintf(w, "╚══════════════════════════════════════════════════════════════╝\n")
	_, _ = fmt.Fprintf(w, "\n")
}

// truncate shortens s to at most width runes, marking the cut with "...".
func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-3]) + "..."
}

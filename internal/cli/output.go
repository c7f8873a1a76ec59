package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"

	"expensetracker/internal/budget"
	"expensetracker/internal/core"
)

var (
	critical = color.New(color.FgRed, color.Bold).SprintFunc()
	warning  = color.New(color.FgYellow, color.Bold).SprintFunc()
	success  = color.New(color.FgGreen).SprintFunc()
	heading  = color.New(color.FgCyan, color.Bold).SprintFunc()
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func severityText(s budget.Severity) string {
	switch s {
	case budget.SeverityCritical:
		return critical(s.String())
	case budget.SeverityWarning:
		return warning(s.String())
	default:
		return success(s.String())
	}
}

// printAlerts writes one line per alert, colored by severity.
func printAlerts(w io.Writer, alerts []budget.Alert) {
	for _, a := range alerts {
		if a.Severity == budget.SeverityCritical {
			fmt.Fprintln(w, critical(a.Message))
		} else {
			fmt.Fprintln(w, warning(a.Message))
		}
	}
}

// reportAlerts follows every mutating command.
func reportAlerts(w io.Writer, app *App) {
	printAlerts(w, app.Ledger.Alerts())
}

func dateText(d core.Date) string {
	if d.IsEmpty() {
		return "-"
	}
	return d.String()
}

func writeRecord(tw io.Writer, prefix string, r core.ExpenseRecord) {
	fmt.Fprintf(tw, "%s#%d\t%s\t%s\t%s\n", prefix, r.ID, dateText(r.Date), core.FormatAmount(r.Amount), r.Description)
}

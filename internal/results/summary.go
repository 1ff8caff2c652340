package results

import (
	"fmt"
	"io"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
)

// PrintStatus writes a one-line colored status for a single result, in the
// order results are produced.
func PrintStatus(w io.Writer, r Result) {
	mark := color.Green.Sprint("✓")
	detail := ""
	if !r.Success {
		mark = color.Red.Sprint("✗")
		detail = " - " + r.Error
	} else if r.Error != "" {
		// Success with a note, e.g. already a member.
		detail = " (" + color.Yellow.Sprint(r.Error) + ")"
	}

	name := ""
	if r.GroupName != "" {
		name = " - " + r.GroupName
	}
	fmt.Fprintf(w, "%s %s%s%s\n", mark, r.Link, name, detail)
}

// PrintSummary renders the success/failure breakdown as a table, followed
// by the list of failed links.
func PrintSummary(w io.Writer, results []Result) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No links processed.")
		return
	}

	successful := lo.CountBy(results, func(r Result) bool { return r.Success })
	failed := len(results) - successful
	pct := func(n int) string {
		return fmt.Sprintf("%.1f%%", float64(n)/float64(len(results))*100)
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Status", "Count", "Percentage"})
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	table.Append([]string{"Successful", fmt.Sprint(successful), pct(successful)})
	table.Append([]string{"Failed", fmt.Sprint(failed), pct(failed)})
	table.Append([]string{"Total", fmt.Sprint(len(results)), "100.0%"})
	table.Render()

	failures := lo.Filter(results, func(r Result, _ int) bool { return !r.Success })
	if len(failures) > 0 {
		fmt.Fprintln(w)
		color.Fprintln(w, "<red>Failed attempts:</>")
		for _, r := range failures {
			fmt.Fprintf(w, "  • %s - %s\n", r.Link, r.Error)
		}
	}
}

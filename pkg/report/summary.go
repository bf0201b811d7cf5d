// Package report renders a churn dataset for people: a terminal summary
// table and an HTML page of charts.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/Sumatoshi-tech/codechurn/pkg/churn"
)

// SummaryOptions configures WriteSummary.
type SummaryOptions struct {
	NoColor bool
	// Languages adds a per-language breakdown below the repository table.
	Languages bool
}

// WriteSummary renders one line per repository plus totals.
func WriteSummary(w io.Writer, ds *churn.Dataset, o SummaryOptions) error {
	ok := color.New(color.FgGreen)
	bad := color.New(color.FgRed)
	warn := color.New(color.FgYellow)

	if o.NoColor {
		ok.DisableColor()
		bad.DisableColor()
		warn.DisableColor()
	}

	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.SetTitle("Code churn " + ds.Range.String())
	tbl.AppendHeader(table.Row{"Repository", "Status", "Commits", "Rows", "Added", "Removed", "Skipped"})

	var commits, rows, added, removed, skipped int

	for _, result := range ds.Results {
		status := ok.Sprint(result.State.String())
		if result.State == churn.StateFailed {
			status = bad.Sprint(result.State.String())
		}

		skips := len(result.Skipped.Commits) + len(result.Skipped.Rows)

		skipCell := humanize.Comma(int64(skips))
		if skips > 0 {
			skipCell = warn.Sprint(skipCell)
		}

		if result.Table == nil {
			tbl.AppendRow(table.Row{result.Name, status, "-", "-", "-", "-", skipCell})

			continue
		}

		a, r := result.Table.Totals()
		c := result.Table.Commits()

		commits += c
		rows += len(result.Table.Rows)
		added += a
		removed += r
		skipped += skips

		tbl.AppendRow(table.Row{
			result.Name, status,
			humanize.Comma(int64(c)),
			humanize.Comma(int64(len(result.Table.Rows))),
			"+" + humanize.Comma(int64(a)),
			"-" + humanize.Comma(int64(r)),
			skipCell,
		})
	}

	tbl.AppendFooter(table.Row{
		fmt.Sprintf("%d repositories", len(ds.Results)), fmt.Sprintf("%d failed", len(ds.Failed())),
		humanize.Comma(int64(commits)), humanize.Comma(int64(rows)),
		"+" + humanize.Comma(int64(added)), "-" + humanize.Comma(int64(removed)),
		humanize.Comma(int64(skipped)),
	})

	var sb strings.Builder

	sb.WriteString(tbl.Render())
	sb.WriteString("\n")

	if o.Languages {
		sb.WriteString(languageTable(ds))
		sb.WriteString("\n")
	}

	for _, failed := range ds.Failed() {
		sb.WriteString(bad.Sprintf("failed: %v", failed.Err))
		sb.WriteString("\n")
	}

	_, err := io.WriteString(w, sb.String())
	if err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	return nil
}

func languageTable(ds *churn.Dataset) string {
	totals := LanguageTotals(ds)

	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.DrawBorder = false
	tbl.Style().Options.SeparateColumns = false
	tbl.AppendHeader(table.Row{"Language", "Added", "Removed"})

	for _, lt := range totals {
		tbl.AppendRow(table.Row{lt.Language, humanize.Comma(int64(lt.Added)), humanize.Comma(int64(lt.Removed))})
	}

	return tbl.Render()
}

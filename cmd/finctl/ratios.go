package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"fin-agents/internal/ratio"
	"fin-agents/internal/statement"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	numberStyle  = cellStyle.Align(lipgloss.Right)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	metricLabel  = lipgloss.NewStyle().Width(24)
	positiveMark = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	negativeMark = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

func runRatios(cmd *cobra.Command, args []string) error {
	report, err := loadReport(contextOf(cmd), args[0], cmd.OutOrStdout())
	if err != nil {
		return err
	}
	printReport(cmd.OutOrStdout(), report)
	return nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := contextOf(cmd)
	out := cmd.OutOrStdout()
	report, err := loadReport(ctx, args[0], out)
	if err != nil {
		return err
	}
	printReport(out, report)

	fmt.Fprintln(out, titleStyle.Render("Assessment"))
	res := deps.Narrative.Analyze(ctx, report.Summary)
	if res.Failed {
		fmt.Fprintln(out, errorStyle.Render(res.Text))
		return nil
	}
	fmt.Fprintln(out, renderMarkdown(res.Text))
	return nil
}

func loadReport(ctx context.Context, path string, out io.Writer) (*statement.Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	report, err := deps.Statements.Load(ctx, filepath.Base(path), f)
	if err != nil {
		return nil, err
	}
	if info, err := f.Stat(); err == nil {
		fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("%s: %s, %d line items",
			filepath.Base(path), humanize.Bytes(uint64(info.Size())), len(report.Rows))))
	}
	return report, nil
}

func printReport(out io.Writer, report *statement.Report) {
	fmt.Fprintln(out, titleStyle.Render("Growth and asset structure"))
	fmt.Fprintln(out, renderTable(report.Rows))
	fmt.Fprintln(out)
	fmt.Fprintln(out, titleStyle.Render("Liquidity"))
	fmt.Fprint(out, renderLiquidity(report))
	for _, w := range report.Warnings {
		fmt.Fprintln(out, warnStyle.Render(w))
	}
	fmt.Fprintln(out)
}

func renderTable(rows []ratio.Row) string {
	data := make([][]string, len(rows))
	for i, r := range rows {
		data[i] = []string{
			r.Label,
			ratio.FormatAmount(r.Prior),
			ratio.FormatAmount(r.Current),
			ratio.FormatPercent(r.GrowthPercent),
			ratio.FormatPercent(r.PriorSharePercent),
			ratio.FormatPercent(r.CurrentSharePercent),
		}
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers("Item", "Prior period", "Current period", "Growth", "Prior share", "Current share").
		Rows(data...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 0:
				return cellStyle
			default:
				return numberStyle
			}
		})
	return t.Render()
}

func renderLiquidity(report *statement.Report) string {
	var b strings.Builder
	growth := "N/A"
	if report.ShortTermAssetGrowth != nil {
		growth = ratio.FormatPercent(*report.ShortTermAssetGrowth)
	}
	fmt.Fprintf(&b, "%s%s\n", metricLabel.Render("Short-term asset growth"), growth)

	if !report.LiquidityAvailable {
		fmt.Fprintf(&b, "%s%s\n", metricLabel.Render("Current ratio (N-1)"), ratio.Unavailable)
		fmt.Fprintf(&b, "%s%s\n", metricLabel.Render("Current ratio (N)"), ratio.Unavailable)
		return b.String()
	}
	cr := report.CurrentRatio
	fmt.Fprintf(&b, "%s%s\n", metricLabel.Render("Current ratio (N-1)"), cr.Prior)
	current := cr.Current.String()
	if d, ok := cr.Delta(); ok {
		current += " " + formatDelta(d)
	}
	fmt.Fprintf(&b, "%s%s\n", metricLabel.Render("Current ratio (N)"), current)
	return b.String()
}

func formatDelta(d float64) string {
	s := fmt.Sprintf("%+.2f", d)
	if d < 0 {
		return negativeMark.Render(s)
	}
	return positiveMark.Render(s)
}

func renderMarkdown(text string) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return text
	}
	out, err := r.Render(text)
	if err != nil {
		return text
	}
	return out
}

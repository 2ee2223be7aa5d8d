// Package report renders benchmark aggregates and comparisons as console
// tables. It is presentation only: any zero or empty aggregate renders as
// zeros, never as a crash.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"

	"github.com/browserbench/browserbench/internal/benchmark"
	"github.com/browserbench/browserbench/internal/util"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")).MarginTop(1)
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("245"))
	winnerMark   = color.New(color.FgGreen, color.Bold)
)

// RenderAggregate writes the per-approach summary block.
func RenderAggregate(w io.Writer, agg benchmark.Aggregated) {
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("Approach: %s (%d runs)", agg.Approach, len(agg.Runs))))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "  Success rate\t%s\n", formatPercent(agg.SuccessRate*100))
	fmt.Fprintf(tw, "  Avg input tokens\t%s\n", formatCount(agg.AvgInputTokens))
	fmt.Fprintf(tw, "  Avg output tokens\t%s\n", formatCount(agg.AvgOutputTokens))
	fmt.Fprintf(tw, "  Avg image tokens\t%s\n", formatCount(agg.AvgImageTokens))
	fmt.Fprintf(tw, "  Avg cost\t$%.4f\n", agg.AvgCostUSD)
	fmt.Fprintf(tw, "  Avg duration\t%.0f ms\n", agg.AvgDurationMs)
	fmt.Fprintf(tw, "  Avg turns\t%.1f\n", agg.AvgNumTurns)
	tw.Flush()

	if len(agg.TotalToolUsage) > 0 {
		fmt.Fprintln(w, sectionStyle.Render("  Tool usage (all runs)"))
		renderToolUsage(w, agg.TotalToolUsage)
	}
}

// renderToolUsage prints the histogram sorted by descending count, ties by name.
func renderToolUsage(w io.Writer, usage map[string]int) {
	type entry struct {
		name  string
		count int
	}
	entries := make([]entry, 0, len(usage))
	for name, count := range usage {
		entries = append(entries, entry{name, count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].name < entries[j].name
	})

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, e := range entries {
		fmt.Fprintf(tw, "    %s\t%d\t%s\n", util.TruncateRunes(e.name, 32), e.count, strings.Repeat("▪", clamp(e.count, 1, 40)))
	}
	tw.Flush()
}

// RenderComparison writes the side-by-side comparison of two or more
// aggregated results, the first entry serving as the baseline.
func RenderComparison(w io.Writer, results []benchmark.Aggregated) {
	if len(results) == 0 {
		return
	}
	fmt.Fprintln(w, titleStyle.Render("Comparison (baseline: "+results[0].Approach+")"))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	header := "Metric"
	for _, agg := range results {
		header += "\t" + agg.Approach
	}
	fmt.Fprintln(tw, header)

	for _, row := range benchmark.CompareAll(results) {
		line := row.Metric
		for i, value := range row.Values {
			cell := formatMetric(row.Metric, value)
			if i > 0 {
				cell += fmt.Sprintf(" (%+.1f%%)", row.PctDeltas[i])
			}
			line += "\t" + cell
		}
		fmt.Fprintln(tw, line)
	}
	tw.Flush()

	for _, row := range benchmark.CompareAll(results) {
		if len(results) > 1 {
			fmt.Fprintf(w, "  %s: %s\n", row.Metric, winnerMark.Sprint(results[row.BestIndex].Approach))
		}
	}
}

// RenderProjections writes extrapolated cost figures for each approach.
func RenderProjections(w io.Writer, results []benchmark.Aggregated, multipliers []float64) {
	if len(results) == 0 || len(multipliers) == 0 {
		return
	}
	fmt.Fprintln(w, titleStyle.Render("Cost projections"))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	header := "Approach"
	for _, m := range multipliers {
		header += fmt.Sprintf("\t%.0fx", m)
	}
	fmt.Fprintln(tw, header)
	for _, agg := range results {
		line := agg.Approach
		for _, m := range multipliers {
			line += fmt.Sprintf("\t$%.2f", benchmark.ProjectCost(agg, m))
		}
		fmt.Fprintln(tw, line)
	}
	tw.Flush()
}

// RenderRunResult writes the low-level snapshot of one scripted run.
func RenderRunResult(w io.Writer, result benchmark.Result) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "  Approach\t%s\n", result.Approach)
	fmt.Fprintf(tw, "  Input tokens\t%d\n", result.TotalInputTokens)
	fmt.Fprintf(tw, "  Output tokens\t%d\n", result.TotalOutputTokens)
	fmt.Fprintf(tw, "  Total tokens\t%d\n", result.TotalTokens)
	fmt.Fprintf(tw, "  Image tokens\t%d\n", result.ImageTokens)
	fmt.Fprintf(tw, "  Screenshots\t%d\n", result.ScreenshotsTaken)
	if result.ToolCallCount > 0 {
		fmt.Fprintf(tw, "  Tool calls\t%d\n", result.ToolCallCount)
	}
	tw.Flush()
}

func formatMetric(name string, value float64) string {
	switch name {
	case "Cost (USD)":
		return fmt.Sprintf("$%.4f", value)
	case "Success rate":
		return formatPercent(value * 100)
	case "Turns":
		return fmt.Sprintf("%.1f", value)
	default:
		return formatCount(value)
	}
}

func formatCount(value float64) string {
	return fmt.Sprintf("%.0f", value)
}

func formatPercent(value float64) string {
	return fmt.Sprintf("%.0f%%", value)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// internal/cli/run.go
package browserbench

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/k0kubun/pp"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/browserbench/browserbench/internal/benchmark"
	"github.com/browserbench/browserbench/internal/harness"
	"github.com/browserbench/browserbench/internal/llm"
	"github.com/browserbench/browserbench/internal/mcp"
	"github.com/browserbench/browserbench/internal/report"
	"github.com/browserbench/browserbench/internal/tui"
	"github.com/browserbench/browserbench/internal/util"
)

// costMultipliers are the scale factors used for the cost projection table.
var costMultipliers = []float64{10, 100, 1000}

// exportDocument is the on-disk result format shared by run and compare.
type exportDocument struct {
	Task        string                 `json:"task"`
	Model       string                 `json:"model"`
	GeneratedAt time.Time              `json:"generatedAt"`
	Aggregates  []benchmark.Aggregated `json:"aggregates"`
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the benchmark task under every selected approach",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		task, err := harness.LoadTask(cfg.TaskFilePath())
		if err != nil {
			return err
		}

		names, _ := cmd.Flags().GetStringSlice("approach")
		approaches, err := resolveApproaches(names)
		if err != nil {
			return err
		}

		client := llm.New(cfg)
		runner := harness.NewRunner(cfg, client, func() harness.ToolSession {
			return mcp.NewSession(cfg)
		})

		var aggregates []benchmark.Aggregated
		workload := func(onProgress func(harness.Progress)) error {
			runner.OnProgress = onProgress
			for _, approach := range approaches {
				results := runner.RunApproach(cmd.Context(), approach, task)
				aggregates = append(aggregates, benchmark.Aggregate(string(approach), results))
			}
			return nil
		}

		if cfg.NoTUI || !isatty.IsTerminal(os.Stdout.Fd()) {
			if err := workload(nil); err != nil {
				return err
			}
		} else {
			title := fmt.Sprintf("browserbench: %s (%d runs per approach)", task.Name, cfg.Runs)
			if err := tui.Run(title, approaches, workload); err != nil {
				return err
			}
		}

		for _, agg := range aggregates {
			report.RenderAggregate(os.Stdout, agg)
		}
		report.RenderComparison(os.Stdout, aggregates)
		report.RenderProjections(os.Stdout, aggregates, costMultipliers)

		if cfg.Debug {
			pp.Println(aggregates)
		}

		if cfg.ExportPath != "" {
			doc := exportDocument{
				Task:        task.Name,
				Model:       cfg.Model,
				GeneratedAt: time.Now().UTC(),
				Aggregates:  aggregates,
			}
			data, err := json.MarshalIndent(doc, "", "  ")
			if err != nil {
				return fmt.Errorf("encode results: %w", err)
			}
			if err := util.WriteFile(cfg.ExportPath, data); err != nil {
				return fmt.Errorf("export results: %w", err)
			}
			fmt.Printf("Results written to %s\n", cfg.ExportPath)
		}
		return nil
	},
}

// resolveApproaches expands "all" and validates the requested approach
// names, preserving order. The first approach is the comparison baseline.
func resolveApproaches(names []string) ([]harness.Approach, error) {
	var approaches []harness.Approach
	for _, name := range names {
		if name == "all" {
			approaches = append(approaches, harness.AllApproaches()...)
			continue
		}
		approach, err := harness.ParseApproach(name)
		if err != nil {
			return nil, err
		}
		approaches = append(approaches, approach)
	}
	return approaches, nil
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringSlice("approach", []string{"all"}, "approach to benchmark (screenshot, semantic, a11y, or all); order sets the comparison baseline")
}

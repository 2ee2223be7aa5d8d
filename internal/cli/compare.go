// internal/cli/compare.go
package browserbench

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/browserbench/browserbench/internal/report"
)

var compareCmd = &cobra.Command{
	Use:   "compare <results.json>",
	Short: "Re-render the comparison report from an exported results file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read results %q: %w", args[0], err)
		}

		var doc exportDocument
		if err := json.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("decode results %q: %w", args[0], err)
		}
		if len(doc.Aggregates) == 0 {
			return fmt.Errorf("results file %q holds no aggregates", args[0])
		}

		fmt.Printf("Task: %s  Model: %s  Generated: %s\n\n", doc.Task, doc.Model, doc.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
		for _, agg := range doc.Aggregates {
			report.RenderAggregate(os.Stdout, agg)
		}
		report.RenderComparison(os.Stdout, doc.Aggregates)
		report.RenderProjections(os.Stdout, doc.Aggregates, costMultipliers)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(compareCmd)
}

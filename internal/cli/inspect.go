// internal/cli/inspect.go
package browserbench

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/browserbench/browserbench/internal/imagemeta"
	"github.com/browserbench/browserbench/internal/tokens"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <image>",
	Short: "Report the dimensions and estimated token weight of an image file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read image %q: %w", args[0], err)
		}

		mimeType, _ := cmd.Flags().GetString("mime")
		if mimeType == "" {
			mimeType = strings.TrimPrefix(filepath.Ext(args[0]), ".")
		}

		dims := imagemeta.Inspect(data, mimeType)
		if dims == nil {
			return fmt.Errorf("%q is not a recognized %s image", args[0], mimeType)
		}

		imageTokens := tokens.EstimateImageTokens(dims.Width, dims.Height)
		fmt.Printf("%s: %dx%d (%s)\n", filepath.Base(args[0]), dims.Width, dims.Height, mimeType)
		fmt.Printf("Estimated tokens: %d\n", imageTokens)
		fmt.Printf("Estimated cost:   $%.6f at $%.2f per million input tokens\n",
			tokens.EstimateCostUSD(imageTokens, 0, cfg.Pricing), cfg.Pricing.InputPerMillion)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().String("mime", "", "image MIME type (defaults to the file extension)")
}

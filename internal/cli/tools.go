// internal/cli/tools.go
package browserbench

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/browserbench/browserbench/internal/mcp"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Connect to the MCP server and list the tools it advertises",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		session := mcp.NewSession(cfg)
		if err := session.Connect(cmd.Context(), mcp.ConnectOptions{Headless: true}); err != nil {
			return fmt.Errorf("connect to MCP server: %w", err)
		}
		defer session.Close()

		tools := session.Tools()
		if len(tools) == 0 {
			fmt.Println("The server advertised no tools.")
			return nil
		}

		nameStyle := color.New(color.FgCyan, color.Bold)
		for _, tool := range tools {
			nameStyle.Println(tool.Name)
			if tool.Description != "" {
				fmt.Printf("  %s\n", tool.Description)
			}
		}
		fmt.Printf("\n%d tools\n", len(tools))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(toolsCmd)
}

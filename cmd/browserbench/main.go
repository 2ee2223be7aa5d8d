// cmd/browserbench/main.go
package main

import (
	cmd "github.com/browserbench/browserbench/internal/cli"
)

// main starts the browserbench CLI application by delegating to the
// cobra root command defined in the browserbench package. It does not
// take any arguments and does not return a value.
func main() {
	cmd.Execute()
}

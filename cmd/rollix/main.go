// Command rollix indexes rollup executor event logs into queryable read
// models.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/rollix/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}

// Command hubsession inspects device credentials and settings and drives
// simulated hub sessions.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/hubsession/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}

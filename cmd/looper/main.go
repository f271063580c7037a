// Command looper submits samples to pipelines: it loads a looper config
// and one or more pipeline-interface documents, routes each project
// sample to the interfaces that claim its protocol, and drives the
// submission conductor for each.
package main

import (
	"fmt"
	"os"

	"github.com/pepkit/looper-sub000/internal/core"
	"github.com/pepkit/looper-sub000/pkg/lib"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		if core.KindOf(err) == core.KindBadInput {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(2)
		}
		lib.Exit(err)
	}
	os.Exit(exitCode)
}

// Command projctx retrieves knowledge-base documents and assembles project
// context for AI assistants.
package main

import (
	"os"

	"github.com/custodia-labs/projctx/internal/adapters/driving/cli"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cli.SetVersion(version)
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

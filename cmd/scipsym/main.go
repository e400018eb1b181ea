// scipsym decodes SCIP symbol strings and catalogs SCIP indexes for search.
package main

import (
	"log"
	"os"

	"github.com/dshills/scipsym/cmd/scipsym/cmd"
)

func main() {
	// stdout is reserved for command output and the MCP protocol
	log.SetOutput(os.Stderr)

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// Command docsearchctl ingests and searches documents in-process, using the
// same configuration as the API server.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

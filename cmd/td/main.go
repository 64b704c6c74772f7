// Command td is an offline-first task manager backed by a local SQLite
// store. Every mutation is recorded in a durable sync queue for eventual
// delivery to a remote backend.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

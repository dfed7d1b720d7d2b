// Package main provides the entry point for the warnlimit CLI tool.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/warnlimit/warnlimit/cmd/warnlimit/commands"
)

func main() {
	rootCmd := commands.NewRootCommand()

	err := rootCmd.Execute()
	if err != nil {
		if errors.Is(err, commands.ErrLimitsExceeded) {
			// The violation report already went to stderr.
			os.Exit(1)
		}

		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

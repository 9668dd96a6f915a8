// Package main provides the entry point for the catalogmcp CLI.
package main

import (
	"os"

	"github.com/cataloghq/catalogmcp/cmd/catalogmcp/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

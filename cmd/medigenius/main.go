// Package main is the entry point for the MediGenius server and CLI.
package main

import (
	"fmt"
	"os"
)

// Set by ldflags at build time.
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

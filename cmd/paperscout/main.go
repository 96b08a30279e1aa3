// Package main is the entry point for the paperscout CLI, a terminal client
// for the multi-source paper search pipeline.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the paperscout CLI.
var rootCmd = &cobra.Command{
	Use:   "paperscout",
	Short: "Search academic databases from the command line",
	Long: `paperscout queries academic databases (Google Scholar, arXiv, ResearchGate,
Semantic Scholar, CORE, SpringerLink, ScienceDirect) for papers matching a
query, merges the per-source results, and prints or exports them.

Configuration is read from config.yaml and PAPERSCOUT_* environment
variables, the same way the server reads it.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

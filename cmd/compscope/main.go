// Package main is the compscope entry point: the HTTP API server plus
// one-shot commands for running analyses and scoring keyword files.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/compscope/internal/version"
)

var rootCmd = &cobra.Command{
	Use:           "compscope",
	Short:         "Competitor discovery and keyword opportunity ranking",
	Long:          "compscope finds a business' real competitors, compares their keywords with the business and ranks keyword opportunities.",
	Version:       fmt.Sprintf("%s (commit %s, built %s)", version.Version, version.Commit, version.Date),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

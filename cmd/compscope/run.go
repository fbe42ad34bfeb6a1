package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	domtask "github.com/kailas-cloud/compscope/internal/domain/task"
)

var runBusinessID string

var runCmd = &cobra.Command{
	Use:   "run <kind>",
	Short: "Run one analysis synchronously",
	Long: "Runs an analysis for a stored business in the foreground and stores its result.\n" +
		"Kinds: competitors, location_competitors, keywords, targets, opportunities.",
	Args: cobra.ExactArgs(1),
	RunE: runAnalysis,
}

func init() {
	runCmd.Flags().StringVarP(&runBusinessID, "business", "b", "", "Business ID (required)")
	if err := runCmd.MarkFlagRequired("business"); err != nil {
		panic(fmt.Sprintf("failed to mark business flag as required: %v", err))
	}
	rootCmd.AddCommand(runCmd)
}

func runAnalysis(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	jobs := a.jobs()
	job, ok := jobs[domtask.Kind(args[0])]
	if !ok {
		kinds := make([]string, 0, len(jobs))
		for k := range jobs {
			kinds = append(kinds, string(k))
		}
		sort.Strings(kinds)
		return fmt.Errorf("unknown kind %q (want one of %s)", args[0], strings.Join(kinds, ", "))
	}

	warnings, err := job(cmd.Context(), runBusinessID)
	if err != nil {
		return fmt.Errorf("%s for %s: %w", args[0], runBusinessID, err)
	}
	for _, w := range warnings {
		_, _ = fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
	}

	doc, err := a.analysis.Analysis(cmd.Context(), runBusinessID)
	if err != nil {
		return fmt.Errorf("read analysis: %w", err)
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

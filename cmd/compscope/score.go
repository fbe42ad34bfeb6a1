package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/compscope/internal/domain/keyword"
	"github.com/kailas-cloud/compscope/internal/usecase/opportunity"
)

var (
	scoreInput     string
	scoreBucketCap int
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score and categorize keyword records offline",
	Long: "Reads keyword records (a JSON array, or an object with a \"keywords\" array) from a file or stdin,\n" +
		"computes opportunity scores and prints the scored list with its buckets. No network access.",
	RunE: runScore,
}

func init() {
	scoreCmd.Flags().StringVarP(&scoreInput, "in", "i", "-", "Path to keyword JSON, - for stdin")
	scoreCmd.Flags().IntVar(&scoreBucketCap, "bucket-cap", keyword.DefaultBucketCap, "Maximum keywords per bucket")
	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, _ []string) error {
	var in io.Reader = cmd.InOrStdin()
	if scoreInput != "-" {
		f, err := os.Open(scoreInput)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", scoreInput, err)
		}
		defer func() { _ = f.Close() }()
		in = f
	}

	records, err := readRecords(in)
	if err != nil {
		return err
	}

	svc := opportunity.New(nil, scoreBucketCap, zap.NewNop())
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(svc.Score(records))
}

// readRecords accepts either a bare array or {"keywords": [...]}.
func readRecords(r io.Reader) ([]keyword.Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	var records []keyword.Record
	if err := json.Unmarshal(data, &records); err == nil {
		return records, nil
	}
	var wrapped struct {
		Keywords []keyword.Record `json:"keywords"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("failed to unmarshal keyword JSON: %w", err)
	}
	return wrapped.Keywords, nil
}

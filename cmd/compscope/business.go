package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	dombiz "github.com/kailas-cloud/compscope/internal/domain/business"
)

var businessFile string

var businessCmd = &cobra.Command{
	Use:   "business",
	Short: "Manage stored business records",
}

var businessImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Store a business record from a JSON file",
	RunE:  runBusinessImport,
}

func init() {
	businessImportCmd.Flags().StringVarP(&businessFile, "file", "f", "", "Path to business JSON file (required)")
	if err := businessImportCmd.MarkFlagRequired("file"); err != nil {
		panic(fmt.Sprintf("failed to mark file flag as required: %v", err))
	}
	businessCmd.AddCommand(businessImportCmd)
	rootCmd.AddCommand(businessCmd)
}

func runBusinessImport(cmd *cobra.Command, _ []string) error {
	data, err := os.ReadFile(businessFile)
	if err != nil {
		return fmt.Errorf("failed to read business file %s: %w", businessFile, err)
	}
	var b dombiz.Business
	if err := json.Unmarshal(data, &b); err != nil {
		return fmt.Errorf("failed to unmarshal business JSON: %w", err)
	}
	if err := b.Validate(); err != nil {
		return err
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.businesses.Put(cmd.Context(), b); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Stored business %s\n", b.ID)
	return nil
}

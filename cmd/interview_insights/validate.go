package main

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jonathan/interview-insights/internal/schemas"
	"github.com/jonathan/interview-insights/internal/terms"
	schemafiles "github.com/jonathan/interview-insights/schemas"
)

var validateTermsCmd = &cobra.Command{
	Use:   "validate-terms",
	Short: "Validate a term configuration file",
	Long: `Check a term file against the term schema and compile it, reporting every
field error. With --print-default the built-in configuration is printed instead.`,
	RunE: runValidateTerms,
}

var validateRecordsCmd = &cobra.Command{
	Use:   "validate-records",
	Short: "Validate a JSON array of processed records against the record schema",
	RunE:  runValidateRecords,
}

var (
	termsFile    string
	printDefault bool
	recordsFile  string
)

func init() {
	validateTermsCmd.Flags().StringVarP(&termsFile, "file", "f", "", "Term configuration file")
	validateTermsCmd.Flags().BoolVar(&printDefault, "print-default", false, "Print the built-in term configuration")
	validateRecordsCmd.Flags().StringVarP(&recordsFile, "file", "f", "", "Records file (required)")
	_ = validateRecordsCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(validateTermsCmd)
	rootCmd.AddCommand(validateRecordsCmd)
}

func runValidateTerms(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	if printDefault {
		_, err := out.Write(terms.DefaultJSON())
		return err
	}
	if termsFile == "" {
		return fmt.Errorf("--file is required unless --print-default is set")
	}

	tables, err := terms.LoadFile(termsFile)
	if err != nil {
		printSchemaErrors(cmd.ErrOrStderr(), err)
		return err
	}

	fmt.Fprintf(out, "✓ %s is valid\n", termsFile)
	fmt.Fprintf(out, "  header patterns: %d\n", len(tables.HeaderPatterns()))
	fmt.Fprintf(out, "  categories:      %d\n", len(tables.Categories()))
	fmt.Fprintf(out, "  sentiment cues:  %d\n", tables.Lexicon().Len())
	fmt.Fprintf(out, "  highlight rules: %d\n", len(tables.HighlightRules()))
	return nil
}

func runValidateRecords(cmd *cobra.Command, _ []string) error {
	var records []json.RawMessage
	if err := readJSON(recordsFile, &records); err != nil {
		return err
	}

	invalid := 0
	for i, raw := range records {
		if err := schemas.ValidateBytes(schemafiles.ProcessedExperience, raw); err != nil {
			invalid++
			fmt.Fprintf(cmd.ErrOrStderr(), "record #%d:\n", i)
			printSchemaErrors(cmd.ErrOrStderr(), err)
		}
	}
	if invalid > 0 {
		return fmt.Errorf("%d of %d records are invalid", invalid, len(records))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ %d records are valid\n", len(records))
	return nil
}

// printSchemaErrors lists field errors when err carries them.
func printSchemaErrors(w io.Writer, err error) {
	var verr *schemas.ValidationError
	if !stderrors.As(err, &verr) {
		return
	}
	for _, fe := range verr.Errors {
		fmt.Fprintf(w, "  - %s: %s\n", fe.Field, fe.Message)
	}
}

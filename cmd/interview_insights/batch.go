package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/interview-insights/internal/pipeline"
	"github.com/jonathan/interview-insights/internal/schemas"
	"github.com/jonathan/interview-insights/internal/types"
	schemafiles "github.com/jonathan/interview-insights/schemas"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Analyze a JSON array of submissions",
	Long: `Run every submission in --in through the pipeline and write the processed
records to --out. Submissions that fail validation are skipped and reported.`,
	RunE: runBatch,
}

var (
	batchIn  string
	batchOut string
)

func init() {
	batchCmd.Flags().StringVarP(&batchIn, "in", "i", "", "JSON array of submissions (required)")
	batchCmd.Flags().StringVarP(&batchOut, "out", "o", "", "Output file for processed records (required)")
	_ = batchCmd.MarkFlagRequired("in")
	_ = batchCmd.MarkFlagRequired("out")

	rootCmd.AddCommand(batchCmd)
}

// BatchSummary counts the outcome of a batch run.
type BatchSummary struct {
	Total     int
	Processed int
	Degraded  int
	Skipped   int
}

func runBatch(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	var subs []*types.RawSubmission
	if err := readJSON(batchIn, &subs); err != nil {
		return err
	}

	assembler, err := newAssembler(cfg, log)
	if err != nil {
		return err
	}

	records := make([]types.ProcessedExperience, 0, len(subs))
	summary := BatchSummary{Total: len(subs)}
	for i, sub := range subs {
		if sub == nil {
			summary.Skipped++
			fmt.Fprintf(cmd.ErrOrStderr(), "skipped #%d: empty entry\n", i)
			continue
		}
		if err := sub.Validate(); err != nil {
			summary.Skipped++
			fmt.Fprintf(cmd.ErrOrStderr(), "skipped #%d: %s\n", i, formatFieldErrors(err))
			continue
		}

		result := assembler.Run(cmd.Context(), sub)
		if result.Outcome == pipeline.Degraded {
			summary.Degraded++
			log.Warn("Degraded record", zap.Int("index", i), zap.String("id", result.Record.ID), zap.Error(result.Err))
		} else {
			summary.Processed++
		}
		if err := schemas.ValidateDocument(schemafiles.ProcessedExperience, result.Record); err != nil {
			return fmt.Errorf("record #%d does not match the record schema: %w", i, err)
		}
		records = append(records, result.Record)
	}

	if err := writeJSON(batchOut, records); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Processed %d of %d submissions (%d degraded, %d skipped)\n",
		summary.Processed+summary.Degraded, summary.Total, summary.Degraded, summary.Skipped)
	fmt.Fprintf(cmd.OutOrStdout(), "Records: %s\n", batchOut)
	return nil
}

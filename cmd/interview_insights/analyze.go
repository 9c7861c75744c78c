package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/interview-insights/internal/fetch"
	"github.com/jonathan/interview-insights/internal/ingestion"
	"github.com/jonathan/interview-insights/internal/observability"
	"github.com/jonathan/interview-insights/internal/types"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze one interview experience",
	Long: `Run one write-up through the pipeline and print the processed record as JSON.
The text is read from --file, --url, or standard input.`,
	RunE: runAnalyze,
}

var (
	analyzeCompany    string
	analyzeRole       string
	analyzeFile       string
	analyzeURL        string
	analyzeVerdict    string
	analyzeDifficulty string
	analyzeOut        string
	analyzeBrowser    bool
	analyzeVerbose    bool
)

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeCompany, "company", "c", "", "Company name (required)")
	analyzeCmd.Flags().StringVarP(&analyzeRole, "role", "r", "", "Role interviewed for (required)")
	analyzeCmd.Flags().StringVarP(&analyzeFile, "file", "f", "", "Path to a text file with the experience")
	analyzeCmd.Flags().StringVarP(&analyzeURL, "url", "u", "", "URL of a page with the experience")
	analyzeCmd.Flags().StringVar(&analyzeVerdict, "verdict", "", "Interview verdict")
	analyzeCmd.Flags().StringVar(&analyzeDifficulty, "difficulty", "", "Self-reported difficulty")
	analyzeCmd.Flags().StringVarP(&analyzeOut, "out", "o", "", "Write the record to this file instead of stdout")
	analyzeCmd.Flags().BoolVar(&analyzeBrowser, "browser", false, "Render --url pages in headless Chrome when the HTML is thin")
	analyzeCmd.Flags().BoolVarP(&analyzeVerbose, "verbose", "v", false, "Print a readable summary to stderr")

	_ = analyzeCmd.MarkFlagRequired("company")
	_ = analyzeCmd.MarkFlagRequired("role")
	analyzeCmd.MarkFlagsMutuallyExclusive("file", "url")

	rootCmd.AddCommand(analyzeCmd)
}

// articleSelectors find the write-up on arbitrary pages, GeeksforGeeks first.
var articleSelectors = append([]string{"div.text"}, fetch.DefaultTextSelectors()...)

func runAnalyze(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	var (
		text string
		meta *ingestion.Metadata
	)
	switch {
	case analyzeFile != "":
		text, meta, err = ingestion.FromFile(analyzeFile)
	case analyzeURL != "":
		opts := ingestion.URLOptions{Selectors: articleSelectors, Logger: log}
		if analyzeBrowser || cfg.ScrapeUseBrowser {
			opts.Renderer = fetch.NewBrowserRenderer(log)
		}
		text, meta, err = ingestion.FromURL(cmd.Context(), fetch.NewHTTPFetcher(nil), analyzeURL, opts)
	default:
		text, meta, err = ingestion.FromReader(cmd.InOrStdin(), "stdin")
	}
	if err != nil {
		return err
	}

	sub := &types.RawSubmission{
		Company:    strings.TrimSpace(analyzeCompany),
		Role:       strings.TrimSpace(analyzeRole),
		Experience: text,
		Verdict:    analyzeVerdict,
		Difficulty: analyzeDifficulty,
	}
	if err := sub.Validate(); err != nil {
		return fmt.Errorf("invalid submission: %s", formatFieldErrors(err))
	}

	assembler, err := newAssembler(cfg, log)
	if err != nil {
		return err
	}
	result := assembler.Run(cmd.Context(), sub)
	if result.Err != nil {
		log.Warn("Analysis degraded", zap.Error(result.Err))
	}

	if analyzeVerbose {
		p := observability.NewPrinter(cmd.ErrOrStderr())
		p.PrintSource(meta)
		p.PrintResult(&result)
	}

	if analyzeOut != "" {
		return writeJSON(analyzeOut, result.Record)
	}
	out, err := json.MarshalIndent(result.Record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return err
}

// formatFieldErrors renders validation errors as "field: message" pairs.
func formatFieldErrors(err error) string {
	fields := types.FieldErrors(err)
	if len(fields) == 0 {
		return err.Error()
	}
	parts := make([]string, 0, len(fields))
	for _, name := range []string{"company", "role", "experience", "verdict", "difficulty", "email"} {
		if msg, ok := fields[name]; ok {
			parts = append(parts, msg)
		}
	}
	return strings.Join(parts, "; ")
}

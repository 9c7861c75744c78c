package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/interview-insights/internal/cache"
	"github.com/jonathan/interview-insights/internal/gfg"
	"github.com/jonathan/interview-insights/internal/service"
	"github.com/jonathan/interview-insights/internal/store"
	"github.com/jonathan/interview-insights/internal/types"
)

var enrichGfGCmd = &cobra.Command{
	Use:   "enrich-gfg",
	Short: "Derive metadata for scraped GeeksforGeeks articles",
	Long: `Fill in company, role, rounds, difficulty and question hints for each scraped
article. With --analyze each article is also run through the pipeline; with
--store the resulting records are saved to the configured store.`,
	RunE: runEnrichGfG,
}

var (
	enrichIn      string
	enrichOut     string
	enrichAnalyze bool
	enrichStore   bool
)

func init() {
	enrichGfGCmd.Flags().StringVarP(&enrichIn, "in", "i", "gfg_interview_data.json", "Scraped articles")
	enrichGfGCmd.Flags().StringVarP(&enrichOut, "out", "o", "processed_gfg_data.json", "Output file")
	enrichGfGCmd.Flags().BoolVar(&enrichAnalyze, "analyze", false, "Run each article through the pipeline")
	enrichGfGCmd.Flags().BoolVar(&enrichStore, "store", false, "Save analyzed records to the store (implies --analyze)")

	rootCmd.AddCommand(enrichGfGCmd)
}

// analyzer turns one submission into a record.
type analyzer func(ctx context.Context, sub *types.RawSubmission) (*types.ProcessedExperience, error)

func runEnrichGfG(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	var entries []gfg.Entry
	if err := readJSON(enrichIn, &entries); err != nil {
		return err
	}

	var analyze analyzer
	switch {
	case enrichStore:
		st, err := store.Open(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		stored, err := newStoreAssembler(cmd.Context(), cfg, log, st)
		if err != nil {
			return err
		}
		svc := service.New(stored, st,
			service.WithCache(cache.NewMemory(cache.DefaultOptions()), cfg.StatsCacheTTL),
			service.WithLogger(log),
		)
		analyze = func(ctx context.Context, sub *types.RawSubmission) (*types.ProcessedExperience, error) {
			res, err := svc.Submit(ctx, sub)
			if err != nil {
				return nil, err
			}
			record, err := svc.Get(ctx, res.ID)
			if err != nil {
				return nil, err
			}
			return &record, nil
		}

	case enrichAnalyze:
		assembler, err := newAssembler(cfg, log)
		if err != nil {
			return err
		}
		analyze = func(ctx context.Context, sub *types.RawSubmission) (*types.ProcessedExperience, error) {
			record := assembler.Run(ctx, sub).Record
			return &record, nil
		}
	}

	enriched, skipped := enrichEntries(cmd.Context(), entries, analyze, log)
	if err := writeJSON(enrichOut, enriched); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Enrichment complete. %d entries saved to %s\n", len(enriched), enrichOut)
	if skipped > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "%d entries could not be analyzed\n", skipped)
	}
	return nil
}

// enrichEntries fills metadata for every entry and, when analyze is set,
// attaches the processed record. Entries that cannot be analyzed are kept
// without one.
func enrichEntries(ctx context.Context, entries []gfg.Entry, analyze analyzer, log *zap.Logger) ([]gfg.Entry, int) {
	out := make([]gfg.Entry, len(entries))
	skipped := 0
	for i, entry := range entries {
		out[i] = gfg.Enrich(entry)
		if analyze == nil {
			continue
		}

		sub := gfg.ToSubmission(out[i])
		if err := sub.Validate(); err != nil {
			skipped++
			log.Warn("Skipping analysis", zap.String("url", entry.URL), zap.String("reason", formatFieldErrors(err)))
			continue
		}
		record, err := analyze(ctx, sub)
		if err != nil {
			skipped++
			log.Warn("Analysis failed", zap.String("url", entry.URL), zap.Error(err))
			continue
		}
		out[i].Analysis = record
	}
	return out, skipped
}

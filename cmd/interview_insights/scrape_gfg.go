package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/interview-insights/internal/cache"
	"github.com/jonathan/interview-insights/internal/cache/redis"
	"github.com/jonathan/interview-insights/internal/config"
	"github.com/jonathan/interview-insights/internal/fetch"
	"github.com/jonathan/interview-insights/internal/gfg"
)

var scrapeGfGCmd = &cobra.Command{
	Use:   "scrape-gfg",
	Short: "Scrape interview experiences from GeeksforGeeks",
	Long: `Walk the GeeksforGeeks interview experience listing and save each article
as {title, url, content, source, ...}. Run enrich-gfg on the output to fill in metadata.`,
	RunE: runScrapeGfG,
}

var (
	scrapePages       int
	scrapeOut         string
	scrapeBrowser     bool
	scrapeConcurrency int
	scrapeCacheTTL    time.Duration
	scrapeBaseURL     string
)

func init() {
	scrapeGfGCmd.Flags().IntVarP(&scrapePages, "pages", "p", 2, "Number of listing pages to walk")
	scrapeGfGCmd.Flags().StringVarP(&scrapeOut, "out", "o", "gfg_interview_data.json", "Output file")
	scrapeGfGCmd.Flags().BoolVar(&scrapeBrowser, "browser", false, "Render thin pages in headless Chrome")
	scrapeGfGCmd.Flags().IntVar(&scrapeConcurrency, "concurrency", 4, "Parallel article fetches")
	scrapeGfGCmd.Flags().DurationVar(&scrapeCacheTTL, "cache-ttl", fetch.DefaultPageCacheTTL, "How long fetched pages are reused when REDIS_ADDR is set")
	scrapeGfGCmd.Flags().StringVar(&scrapeBaseURL, "base-url", gfg.DefaultBaseURL, "Listing URL")

	rootCmd.AddCommand(scrapeGfGCmd)
}

// newPageFetcher caches pages in redis when it is configured.
func newPageFetcher(cfg *config.Config) (fetch.Fetcher, func()) {
	var fetcher fetch.Fetcher = fetch.NewHTTPFetcher(nil)
	if cfg.RedisAddr == "" {
		return fetcher, func() {}
	}
	rc := redis.New(cache.Options{
		DefaultTTL:    scrapeCacheTTL,
		RedisURL:      cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
	})
	return fetch.NewCachedFetcher(fetcher, rc, scrapeCacheTTL, nil), func() { _ = rc.Close() }
}

func runScrapeGfG(cmd *cobra.Command, _ []string) error {
	if scrapePages < 1 {
		return fmt.Errorf("--pages must be at least 1")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	fetcher, closeFetcher := newPageFetcher(cfg)
	defer closeFetcher()

	opts := []gfg.Option{
		gfg.WithConcurrency(scrapeConcurrency),
		gfg.WithBaseURL(scrapeBaseURL, gfg.SiteURL),
	}
	if scrapeBrowser || cfg.ScrapeUseBrowser {
		opts = append(opts, gfg.WithRenderer(fetch.NewBrowserRenderer(log)))
	}

	entries, err := gfg.NewScraper(fetcher, log, opts...).Scrape(cmd.Context(), scrapePages)
	if err != nil {
		return err
	}
	if err := writeJSON(scrapeOut, entries); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Scraped %d interview experiences from GeeksforGeeks\n", len(entries))
	fmt.Fprintf(cmd.OutOrStdout(), "Data saved to %s\n", scrapeOut)
	return nil
}

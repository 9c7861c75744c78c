package gfg

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/interview-insights/internal/fetch"
	"github.com/jonathan/interview-insights/internal/ingestion"
)

// DefaultBaseURL is the interview experience category listing.
const DefaultBaseURL = "https://www.geeksforgeeks.org/category/interview-experiences"

// SiteURL prefixes every article link that is kept.
const SiteURL = "https://www.geeksforgeeks.org/"

const (
	articleLinkSelector = "a[href*='/interview-experience']"
	articleSelector     = "div.text"
	defaultConcurrency  = 4
)

// Scraper collects interview experience articles from the listing pages.
type Scraper struct {
	fetcher     fetch.Fetcher
	renderer    fetch.Renderer
	logger      *zap.Logger
	baseURL     string
	siteURL     string
	concurrency int
}

// Option configures a Scraper.
type Option func(*Scraper)

// WithRenderer renders thin pages in a browser.
func WithRenderer(r fetch.Renderer) Option {
	return func(s *Scraper) { s.renderer = r }
}

// WithBaseURL overrides the listing URL and the prefix articles must share.
func WithBaseURL(base, site string) Option {
	return func(s *Scraper) {
		s.baseURL = strings.TrimSuffix(base, "/")
		s.siteURL = site
	}
}

// WithConcurrency bounds parallel article fetches.
func WithConcurrency(n int) Option {
	return func(s *Scraper) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// NewScraper returns a Scraper fetching through fetcher.
func NewScraper(fetcher fetch.Fetcher, logger *zap.Logger, opts ...Option) *Scraper {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Scraper{
		fetcher:     fetcher,
		logger:      logger,
		baseURL:     DefaultBaseURL,
		siteURL:     SiteURL,
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListingURL returns the URL of listing page n, counting from 1.
func (s *Scraper) ListingURL(page int) string {
	if page <= 1 {
		return s.baseURL
	}
	return fmt.Sprintf("%s/page/%d/", s.baseURL, page)
}

// ArticleLinks returns the article links on a listing page, without
// duplicates and restricted to the site.
func (s *Scraper) ArticleLinks(html, pageURL string, seen map[string]bool) ([]fetch.Link, error) {
	links, err := fetch.Links(html, pageURL, articleLinkSelector)
	if err != nil {
		return nil, err
	}
	var out []fetch.Link
	for _, l := range links {
		if !strings.HasPrefix(l.URL, s.siteURL) || seen[l.URL] {
			continue
		}
		seen[l.URL] = true
		out = append(out, l)
	}
	return out, nil
}

// Scrape walks pages listing pages and returns the articles that have
// content, in listing order. Failed listing pages and articles are logged
// and skipped; only cancellation aborts the run.
func (s *Scraper) Scrape(ctx context.Context, pages int) ([]Entry, error) {
	seen := make(map[string]bool)
	var links []fetch.Link

	for page := 1; page <= pages; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pageURL := s.ListingURL(page)
		s.logger.Info("Fetching listing page", zap.Int("page", page), zap.String("url", pageURL))

		res, err := s.fetcher.Fetch(ctx, pageURL)
		if err != nil {
			s.logger.Warn("Listing page failed", zap.String("url", pageURL), zap.Error(err))
			continue
		}
		found, err := s.ArticleLinks(res.HTML, pageURL, seen)
		if err != nil {
			s.logger.Warn("Listing page unparseable", zap.String("url", pageURL), zap.Error(err))
			continue
		}
		s.logger.Info("Found article links", zap.Int("page", page), zap.Int("count", len(found)))
		links = append(links, found...)
	}

	entries := make([]*Entry, len(links))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, link := range links {
		i, link := i, link
		g.Go(func() error {
			entry, err := s.Article(gctx, link)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				s.logger.Warn("Skipping article", zap.String("url", link.URL), zap.Error(err))
				return nil
			}
			entries[i] = entry
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e != nil {
			out = append(out, *e)
		}
	}
	s.logger.Info("Scraped interview experiences", zap.Int("count", len(out)))
	return out, nil
}

// Article fetches one article and returns it as an unenriched Entry.
func (s *Scraper) Article(ctx context.Context, link fetch.Link) (*Entry, error) {
	text, _, err := ingestion.FromURL(ctx, s.fetcher, link.URL, ingestion.URLOptions{
		Selectors:    []string{articleSelector},
		Renderer:     s.renderer,
		RequireMatch: true,
		Logger:       s.logger,
	})
	if err != nil {
		return nil, err
	}
	entry := newEntry(link.Text, link.URL, text)
	return &entry, nil
}

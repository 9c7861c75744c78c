package ingestion

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/jonathan/interview-insights/internal/fetch"
)

var (
	// ErrHTTPRequestFailed is returned when HTTP request fails
	ErrHTTPRequestFailed = errors.New("HTTP request failed")
	// ErrContentExtractionFailed is returned when content extraction fails
	ErrContentExtractionFailed = errors.New("content extraction failed")
	// ErrNoContent is returned when a page has no text under the content selectors
	ErrNoContent = errors.New("no content found")
)

// URLOptions controls how a page is turned into text.
type URLOptions struct {
	// Selectors locate the write-up; the first match wins.
	Selectors []string
	// Noise selectors are removed before extraction.
	Noise []string
	// Renderer, when set, re-renders pages whose text is too short.
	Renderer fetch.Renderer
	// RequireMatch fails pages where no selector matched instead of using the body.
	RequireMatch bool
	Logger       *zap.Logger
}

// FromURL fetches a page and returns its cleaned text.
func FromURL(ctx context.Context, fetcher fetch.Fetcher, urlStr string, opts URLOptions) (string, *Metadata, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	selectors := opts.Selectors
	if len(selectors) == 0 {
		selectors = fetch.DefaultTextSelectors()
	}

	result, err := fetcher.Fetch(ctx, urlStr)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrHTTPRequestFailed, err)
	}
	logger.Debug("Fetched page", zap.String("url", urlStr), zap.Int("bytes", len(result.HTML)))

	text, found, err := fetch.ExtractText(result.HTML, selectors, opts.Noise...)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrContentExtractionFailed, err)
	}

	rendered := false
	if opts.Renderer != nil && (!found || fetch.ShouldUseBrowser(text)) {
		logger.Debug("Content too short, rendering in browser",
			zap.String("url", urlStr),
			zap.Int("chars", len(text)),
		)
		html, renderErr := opts.Renderer.Render(ctx, urlStr)
		if renderErr != nil {
			logger.Warn("Browser rendering failed, using HTTP content", zap.String("url", urlStr), zap.Error(renderErr))
		} else if rtext, rfound, rerr := fetch.ExtractText(html, selectors, opts.Noise...); rerr == nil {
			text, found, rendered = rtext, rfound, true
		}
	}

	if opts.RequireMatch && !found {
		return "", nil, fmt.Errorf("%w: %s", ErrNoContent, urlStr)
	}

	cleaned := CleanText(text)
	if cleaned == "" {
		return "", nil, fmt.Errorf("%w: %s", ErrNoContent, urlStr)
	}

	meta := NewMetadata(cleaned, urlStr)
	meta.Rendered = rendered
	return cleaned, meta, nil
}

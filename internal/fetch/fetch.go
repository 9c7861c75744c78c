// Package fetch retrieves web pages and turns their HTML into line-structured text.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent is the user agent string for HTTP requests.
const DefaultUserAgent = "Mozilla/5.0 (compatible; InterviewInsights/1.0)"

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 8 << 20

// Result holds the raw and processed content from a URL fetch.
type Result struct {
	URL         string `json:"url"`
	HTML        string `json:"html"`
	Text        string `json:"text,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	StatusCode  int    `json:"status_code"`
}

// Fetcher retrieves one page.
type Fetcher interface {
	Fetch(ctx context.Context, urlStr string) (*Result, error)
}

// Error represents an error during URL fetching.
type Error struct {
	URL     string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Options configures the fetch behavior.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	Headers   map[string]string
	Client    *http.Client
}

// DefaultOptions returns sensible defaults for fetching.
func DefaultOptions() *Options {
	return &Options{
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
	}
}

// HTTPFetcher fetches pages over plain HTTP.
type HTTPFetcher struct {
	opts *Options
}

// NewHTTPFetcher returns a Fetcher using opts, or DefaultOptions when nil.
func NewHTTPFetcher(opts *Options) *HTTPFetcher {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &HTTPFetcher{opts: opts}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, urlStr string) (*Result, error) {
	return URL(ctx, urlStr, f.opts)
}

// URL retrieves HTML content from a URL. A non-200 response returns both the
// result and an error.
func URL(ctx context.Context, urlStr string, opts *Options) (*Result, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	parsedURL, err := url.Parse(urlStr)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, &Error{URL: urlStr, Message: "invalid URL", Cause: err}
	}

	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "failed to create request", Cause: err}
	}

	req.Header.Set("User-Agent", opts.UserAgent)
	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "failed to read response body", Cause: err}
	}

	result := &Result{
		URL:         urlStr,
		HTML:        string(bodyBytes),
		ContentType: resp.Header.Get("Content-Type"),
		StatusCode:  resp.StatusCode,
	}

	if resp.StatusCode != http.StatusOK {
		return result, &Error{URL: urlStr, Message: fmt.Sprintf("HTTP status %d", resp.StatusCode)}
	}

	return result, nil
}

// noise is removed from every document before text extraction.
const noise = "nav, footer, header, script, style, noscript, iframe, .ad, .advertisement, .ads, .sidebar, .cookie-banner, .popup"

// ExtractText returns the text of the first element matching one of
// contentSelectors, one text node per line. Elements matching noiseSelectors
// are dropped first. With no match the whole body is used; found reports
// whether a selector matched.
func ExtractText(html string, contentSelectors []string, noiseSelectors ...string) (text string, found bool, err error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", false, fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find(noise).Remove()
	if sel := strings.Join(noiseSelectors, ", "); sel != "" {
		doc.Find(sel).Remove()
	}

	var content *goquery.Selection
	for _, selector := range contentSelectors {
		if selection := doc.Find(selector); selection.Length() > 0 {
			content = selection.First()
			found = true
			break
		}
	}
	if content == nil {
		content = doc.Find("body")
	}

	var lines []string
	collectText(content, &lines)
	return strings.Join(lines, "\n"), found, nil
}

// collectText appends each non-blank text node under sel, trimmed.
func collectText(sel *goquery.Selection, lines *[]string) {
	sel.Contents().Each(func(_ int, node *goquery.Selection) {
		if goquery.NodeName(node) == "#text" {
			if line := strings.TrimSpace(node.Text()); line != "" {
				*lines = append(*lines, line)
			}
			return
		}
		collectText(node, lines)
	})
}

// DefaultTextSelectors returns standard selectors for general web content.
func DefaultTextSelectors() []string {
	return []string{
		"main",
		"article",
		".content",
		"#content",
		".main-content",
		"#main-content",
	}
}

// Links returns the absolute href of every anchor matching selector,
// resolved against base, in document order.
func Links(html, base, selector string) ([]Link, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", base, err)
	}

	var links []Link
	doc.Find(selector).Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}
		links = append(links, Link{
			URL:  baseURL.ResolveReference(ref).String(),
			Text: strings.Join(strings.Fields(a.Text()), " "),
		})
	})
	return links, nil
}

// Link is an anchor found in a page.
type Link struct {
	URL  string
	Text string
}

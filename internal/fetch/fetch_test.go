package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURL_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, DefaultUserAgent, r.UserAgent())
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("<html><body><h1>Test</h1></body></html>"))
	}))
	defer server.Close()

	result, err := URL(context.Background(), server.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, server.URL, result.URL)
	assert.Contains(t, result.HTML, "<h1>Test</h1>")
	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.Equal(t, "text/html", result.ContentType)
}

func TestURL_InvalidURL(t *testing.T) {
	_, err := URL(context.Background(), "not-a-valid-url", nil)
	require.Error(t, err)

	var fetchErr *Error
	assert.ErrorAs(t, err, &fetchErr)
	assert.Contains(t, err.Error(), "invalid URL")
}

func TestURL_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	result, err := NewHTTPFetcher(nil).Fetch(context.Background(), server.URL)
	require.Error(t, err)
	require.NotNil(t, result)
	assert.Equal(t, http.StatusNotFound, result.StatusCode)

	var fetchErr *Error
	assert.ErrorAs(t, err, &fetchErr)
	assert.Contains(t, err.Error(), "404")
}

func TestURL_CustomHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "en", r.Header.Get("Accept-Language"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	opts := DefaultOptions()
	opts.Headers = map[string]string{"Accept-Language": "en"}
	_, err := URL(context.Background(), server.URL, opts)
	require.NoError(t, err)
}

func TestExtractText_OneLinePerTextNode(t *testing.T) {
	html := `
	<html>
		<body>
			<nav>Navigation</nav>
			<main>
				<h1>Main Content</h1>
				<p>This is the <b>important</b> text.</p>
			</main>
			<footer>Footer</footer>
		</body>
	</html>`

	text, found, err := ExtractText(html, DefaultTextSelectors())
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "Main Content\nThis is the\nimportant\ntext.", text)
}

func TestExtractText_FirstSelectorWins(t *testing.T) {
	html := `<html><body>
		<article>Article body</article>
		<div class="text">Round 1: Coding<br>What is a heap?</div>
	</body></html>`

	text, found, err := ExtractText(html, []string{"div.text", "article"})
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "Round 1: Coding\nWhat is a heap?", text)
}

func TestExtractText_FallbackToBody(t *testing.T) {
	html := `<html><body><div>Some content here.</div><script>var x = 1;</script></body></html>`

	text, found, err := ExtractText(html, DefaultTextSelectors())
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, "Some content here.", text)
}

func TestExtractText_NoiseSelectors(t *testing.T) {
	html := `<html><body><main><p>Keep</p><div class="share">Share this</div></main></body></html>`

	text, _, err := ExtractText(html, DefaultTextSelectors(), ".share")
	require.NoError(t, err)
	assert.Equal(t, "Keep", text)
}

func TestLinks(t *testing.T) {
	html := `<html><body>
		<a href="/amazon-interview-experience/">Amazon  Interview
			Experience</a>
		<a href="https://other.example/x">Other</a>
		<a>No href</a>
	</body></html>`

	links, err := Links(html, "https://www.geeksforgeeks.org/category/", "a")
	require.NoError(t, err)
	require.Len(t, links, 2)
	assert.Equal(t, "https://www.geeksforgeeks.org/amazon-interview-experience/", links[0].URL)
	assert.Equal(t, "Amazon Interview Experience", links[0].Text)
	assert.Equal(t, "https://other.example/x", links[1].URL)
}

func TestShouldUseBrowser(t *testing.T) {
	assert.True(t, ShouldUseBrowser("   short   "))
	assert.False(t, ShouldUseBrowser(strings.Repeat("x", MinContentLength)))
}

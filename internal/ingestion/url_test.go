package ingestion

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/interview-insights/internal/fetch"
)

type stubRenderer struct {
	html  string
	err   error
	calls int
}

func (s *stubRenderer) Render(context.Context, string) (string, error) {
	s.calls++
	return s.html, s.err
}

func serve(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestFromURL_Success(t *testing.T) {
	server := serve(t, http.StatusOK, `<html><body>
		<nav>Home</nav>
		<div class="text"><p>Round 1: Coding</p><p>What   is a heap?</p></div>
	</body></html>`)

	text, meta, err := FromURL(context.Background(), fetch.NewHTTPFetcher(nil), server.URL, URLOptions{
		Selectors: []string{"div.text"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Round 1: Coding\nWhat is a heap?", text)
	assert.Equal(t, server.URL, meta.Source)
	assert.False(t, meta.Rendered)
}

func TestFromURL_HTTPError(t *testing.T) {
	server := serve(t, http.StatusInternalServerError, "")

	_, _, err := FromURL(context.Background(), fetch.NewHTTPFetcher(nil), server.URL, URLOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrHTTPRequestFailed)
}

func TestFromURL_RequireMatch(t *testing.T) {
	server := serve(t, http.StatusOK, `<html><body><p>Unrelated page</p></body></html>`)

	_, _, err := FromURL(context.Background(), fetch.NewHTTPFetcher(nil), server.URL, URLOptions{
		Selectors:    []string{"div.text"},
		RequireMatch: true,
	})
	assert.ErrorIs(t, err, ErrNoContent)
}

func TestFromURL_RendersThinPages(t *testing.T) {
	server := serve(t, http.StatusOK, `<html><body><div class="text">Loading</div></body></html>`)
	article := "Round 1: Coding\n" + strings.Repeat("Asked about heaps and graphs. ", 10)
	renderer := &stubRenderer{html: `<html><body><div class="text">` + article + `</div></body></html>`}

	text, meta, err := FromURL(context.Background(), fetch.NewHTTPFetcher(nil), server.URL, URLOptions{
		Selectors: []string{"div.text"},
		Renderer:  renderer,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, renderer.calls)
	assert.True(t, meta.Rendered)
	assert.True(t, strings.HasPrefix(text, "Round 1: Coding"))
}

func TestFromURL_RenderFailureKeepsHTTPContent(t *testing.T) {
	server := serve(t, http.StatusOK, `<html><body><div class="text">Short</div></body></html>`)
	renderer := &stubRenderer{err: stderrors.New("no chrome")}

	text, meta, err := FromURL(context.Background(), fetch.NewHTTPFetcher(nil), server.URL, URLOptions{
		Selectors: []string{"div.text"},
		Renderer:  renderer,
	})
	require.NoError(t, err)
	assert.Equal(t, "Short", text)
	assert.False(t, meta.Rendered)
}

package urlfetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/barbashov/chatguard/internal/cache"
)

type fakeSummarizer struct {
	called bool
	result string
	err    error
}

func (f *fakeSummarizer) Summarize(context.Context, string, string, string, string) (string, error) {
	f.called = true
	return f.result, f.err
}

func newFetcher(summarizer Summarizer) *Fetcher {
	rawCache := cache.NewMemoryCache[string, string](cache.IdentityKeyGenerator{}, cache.StringCodec{}, 100, -1)
	condensed := cache.NewMemoryCache[condensedKey, string](cache.NewStructuredKeyGenerator(), cache.JSONCodec[string]{}, 100, -1)
	return NewFetcher(nil, nil, rawCache, condensed, summarizer)
}

func TestGetURLContent_PlainTextIsReturnedVerbatim(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("hello world"))
	}))
	defer srv.Close()

	f := newFetcher(nil)
	text, err := f.GetURLContent(context.Background(), srv.URL, false, 1000, "gpt-4o-mini", "gpt-4o-mini")
	require.NoError(t, err)
	require.Equal(t, "hello world", text)
}

func TestGetURLContent_CachesRawContentAcrossCalls(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("cached content"))
	}))
	defer srv.Close()

	f := newFetcher(nil)
	_, err := f.GetURLContent(context.Background(), srv.URL, false, 1000, "gpt-4o-mini", "gpt-4o-mini")
	require.NoError(t, err)
	_, err = f.GetURLContent(context.Background(), srv.URL, false, 1000, "gpt-4o-mini", "gpt-4o-mini")
	require.NoError(t, err)
	require.Equal(t, 1, hits)
}

func TestGetURLContent_NonTextContentTypeErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write([]byte{0x00, 0x01})
	}))
	defer srv.Close()

	f := newFetcher(nil)
	_, err := f.GetURLContent(context.Background(), srv.URL, false, 1000, "gpt-4o-mini", "gpt-4o-mini")
	require.Error(t, err)
}

func TestGetURLContent_NonSuccessStatusErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := newFetcher(nil)
	_, err := f.GetURLContent(context.Background(), srv.URL, false, 1000, "gpt-4o-mini", "gpt-4o-mini")
	require.Error(t, err)
}

func TestGetURLContent_OversizeTriggersSummarizerFallback(t *testing.T) {
	long := strings.Repeat("word ", 100)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(long))
	}))
	defer srv.Close()

	summarizer := &fakeSummarizer{result: "short summary"}
	f := newFetcher(summarizer)
	text, err := f.GetURLContent(context.Background(), srv.URL, false, 10, "gpt-4o-mini", "gpt-4o-mini")
	require.NoError(t, err)
	require.True(t, summarizer.called)
	require.Equal(t, "short summary", text)
}

func TestGetURLContent_HTMLIsConvertedToMarkdown(t *testing.T) {
	html := `<html><body><article><h1>Title</h1><p>Some text with an <img src="x.png"/> image.</p></article></body></html>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(html))
	}))
	defer srv.Close()

	f := newFetcher(nil)
	text, err := f.GetURLContent(context.Background(), srv.URL, true, 10000, "gpt-4o-mini", "gpt-4o-mini")
	require.NoError(t, err)
	require.NotContains(t, text, "<img")
	require.NotContains(t, text, "<html")
}

func TestStripMediaSubtrees_RemovesSvgAndImg(t *testing.T) {
	html := `<div><svg><circle/></svg><p>text</p><img src="a.png"/></div>`
	out, err := stripMediaSubtrees(html)
	require.NoError(t, err)
	require.NotContains(t, out, "<svg")
	require.NotContains(t, out, "<img")
	require.Contains(t, out, "text")
}

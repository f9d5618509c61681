// Package urlfetch implements the URL fetcher and condenser (C11): fetch a
// page, detect text content, convert HTML to markdown, and fall back to an
// LLM summary when the result is still oversize (§4.11).
package urlfetch

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/go-shiori/go-readability"
	"github.com/rs/zerolog"
	"golang.org/x/net/html"

	"github.com/barbashov/chatguard/internal/apperrors"
	"github.com/barbashov/chatguard/internal/cache"
	"github.com/barbashov/chatguard/internal/ratelimit"
)

// limiterQueue is the named ratelimit.Registry queue this package's HTTP
// calls are admitted through.
const limiterQueue = "urlfetch"

const (
	defaultTimeout   = 60 * time.Second
	defaultMaxSize   = 10240
	maxRedirects     = 5
	userAgent        = "chatguard-bot/1.0 (+https://github.com/barbashov/chatguard)"
)

// Summarizer produces an LLM condensation of oversize content (§4.11 step
// 6). The concrete implementation is internal/llmclient.
type Summarizer interface {
	Summarize(ctx context.Context, systemPrompt, text, model, fallbackModel string) (string, error)
}

const summarizeSystemPrompt = "Produce a maximally detailed retelling in the original language, preserving structure, all ideas, arguments, and facts."

// condensedKey is the key-gen input for the condensed-result cache.
type condensedKey struct {
	URL     string
	MaxSize int
}

// Fetcher implements getUrlContent (§4.11). Chat/fallback model identifiers
// are per-call, not per-Fetcher: the caller resolves them from the chat's
// settings.Store entries (scope-dependent) and passes them into GetURLContent.
type Fetcher struct {
	client     *http.Client
	limiter    *ratelimit.Registry
	rawCache   cache.Cache[string, string]
	condensed  cache.Cache[condensedKey, string]
	summarizer Summarizer
}

// NewFetcher constructs a Fetcher. rawCache and condensed may be
// *cache.NullCache if caching is not desired. limiter gates every outbound
// request through its "urlfetch" queue (§4.11: "All HTTP calls pass
// through internal/ratelimit"). transport, when non-nil, replaces
// http.DefaultTransport — tests inject golden.Recorder/Replayer here.
func NewFetcher(limiter *ratelimit.Registry, transport http.RoundTripper, rawCache cache.Cache[string, string], condensed cache.Cache[condensedKey, string], summarizer Summarizer) *Fetcher {
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &Fetcher{
		client: &http.Client{
			Timeout:   defaultTimeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		limiter:    limiter,
		rawCache:   rawCache,
		condensed:  condensed,
		summarizer: summarizer,
	}
}

// NewMemoryRawCache constructs the identity-keyed memory cache for raw
// fetched content, suitable as Fetcher's rawCache argument.
func NewMemoryRawCache(maxSize int, ttl time.Duration) cache.Cache[string, string] {
	return cache.NewMemoryCache[string, string](cache.IdentityKeyGenerator{}, cache.StringCodec{}, maxSize, ttl)
}

// NewSQLCondensedCache constructs the persistent, structured-keyed cache for
// LLM-condensed content, suitable as Fetcher's condensed argument.
func NewSQLCondensedCache(db *sql.DB, maxSize int, ttl time.Duration, log zerolog.Logger) cache.Cache[condensedKey, string] {
	return cache.NewSQLCache[condensedKey, string](db, "urlfetch_condensed", cache.NewStructuredKeyGenerator(), cache.JSONCodec[string]{}, maxSize, ttl, log)
}

// NewMemoryCondensedCache constructs the ephemeral, structured-keyed
// variant of the condensed cache, suitable for tests and one-shot callers
// (e.g. cmd/collector) that do not hold a *sql.DB.
func NewMemoryCondensedCache(maxSize int, ttl time.Duration) cache.Cache[condensedKey, string] {
	return cache.NewMemoryCache[condensedKey, string](cache.NewStructuredKeyGenerator(), cache.JSONCodec[string]{}, maxSize, ttl)
}

// GetURLContent implements §4.11 getUrlContent. chatModel/fallbackModel are
// the caller's resolved model identifiers for the requesting chat (the link
// handler passes its settings.ChatModel/FallbackModel values) (§9: scope only matters for model
// selection, so the caller resolves it rather than urlfetch depending on
// internal/settings).
func (f *Fetcher) GetURLContent(ctx context.Context, rawURL string, parseToMarkdown bool, maxSize int, chatModel, fallbackModel string) (string, error) {
	if maxSize <= 0 {
		maxSize = defaultMaxSize
	}

	ck := condensedKey{URL: rawURL, MaxSize: maxSize}
	if text, ok := f.condensed.Get(ctx, ck, nil); ok {
		return text, nil
	}

	raw, contentType, ok := f.rawCacheLookup(ctx, rawURL)
	if !ok {
		fetched, fetchedType, err := f.fetch(ctx, rawURL)
		if err != nil {
			return "", err
		}
		raw, contentType = fetched, fetchedType
		_ = f.rawCache.Set(ctx, rawURL, raw)
		_ = f.rawCache.Set(ctx, rawURL+"\x00content-type", contentType)
	}

	text := raw
	if parseToMarkdown && strings.Contains(contentType, "html") {
		converted, err := convertToMarkdown(raw, rawURL)
		if err == nil {
			text = converted
		}
	}

	if len(text) >= maxSize && f.summarizer != nil {
		summary, err := f.summarizer.Summarize(ctx, summarizeSystemPrompt, text, chatModel, fallbackModel)
		if err == nil && summary != "" {
			text = summary
			_ = f.condensed.Set(ctx, ck, text)
		}
	}

	return text, nil
}

func (f *Fetcher) rawCacheLookup(ctx context.Context, rawURL string) (string, string, bool) {
	raw, ok := f.rawCache.Get(ctx, rawURL, nil)
	if !ok {
		return "", "", false
	}
	contentType, _ := f.rawCache.Get(ctx, rawURL+"\x00content-type", nil)
	return raw, contentType, true
}

func (f *Fetcher) fetch(ctx context.Context, rawURL string) (string, string, error) {
	if f.limiter != nil {
		if err := f.limiter.Apply(ctx, limiterQueue); err != nil {
			return "", "", fmt.Errorf("urlfetch: rate limit: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", "", fmt.Errorf("urlfetch: build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("urlfetch: %w: %w", apperrors.ErrTransientExternal, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", "", fmt.Errorf("request failed with status %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "text/") && !strings.Contains(contentType, "html") {
		return "", "", fmt.Errorf("content is not text")
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", fmt.Errorf("urlfetch: read body: %w: %w", apperrors.ErrTransientExternal, err)
	}

	return string(body), contentType, nil
}

// convertToMarkdown extracts the readable article and converts it to
// markdown, dropping <svg> and <img> subtrees (§4.11 step 5).
func convertToMarkdown(rawHTML, pageURL string) (string, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return "", err
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), parsed)
	if err != nil {
		return "", fmt.Errorf("urlfetch: extract readable content: %w", err)
	}

	stripped, err := stripMediaSubtrees(article.Content)
	if err != nil {
		return "", err
	}

	return htmltomarkdown.ConvertString(stripped)
}

func stripMediaSubtrees(rawHTML string) (string, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return "", err
	}

	var remove []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "svg" || n.Data == "img") {
			remove = append(remove, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	for _, n := range remove {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return "", err
	}
	return buf.String(), nil
}

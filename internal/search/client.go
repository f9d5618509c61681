package search

import (
	"context"
	"fmt"
	"time"

	"github.com/tidwall/gjson"
	"github.com/valyala/fasthttp"

	"github.com/barbashov/chatguard/internal/apperrors"
	"github.com/barbashov/chatguard/internal/ratelimit"
)

// limiterQueue is the named ratelimit.Registry queue Search is admitted
// through.
const limiterQueue = "search"

// Client is a thin wire client for the upstream search REST API. Its
// value, per the system's scope, is the wire contract rather than its own
// logic — FormatFragments is the part that matters. fasthttp.Client has no
// http.RoundTripper equivalent to inject a golden.Transport into, so tests
// exercise this client against an httptest server via baseURL instead (see
// DESIGN.md).
type Client struct {
	baseURL string
	apiKey  string
	limiter *ratelimit.Registry
	http    *fasthttp.Client
}

// NewClient constructs a search Client. limiter may be nil to disable
// admission control (tests).
func NewClient(baseURL, apiKey string, limiter *ratelimit.Registry) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		limiter: limiter,
		http:    &fasthttp.Client{ReadTimeout: 15 * time.Second, WriteTimeout: 15 * time.Second},
	}
}

// Search queries the upstream API and decodes its response into a Response.
func (c *Client) Search(ctx context.Context, query string) (Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Apply(ctx, limiterQueue); err != nil {
			return Response{}, fmt.Errorf("search: rate limit: %w", err)
		}
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + "/search")
	req.URI().QueryArgs().Add("query", query)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		deadline = time.Now().Add(15 * time.Second)
	}

	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		return Response{}, fmt.Errorf("search: request failed: %w: %w", apperrors.ErrTransientExternal, err)
	}
	if resp.StatusCode() >= 300 {
		return Response{}, fmt.Errorf("search: upstream returned status %d", resp.StatusCode())
	}

	return parseResponse(resp.Body()), nil
}

func parseResponse(body []byte) Response {
	root := gjson.ParseBytes(body)

	out := Response{
		TotalFound: int(root.Get("totalFound").Int()),
		RequestID:  root.Get("requestId").String(),
		Error:      root.Get("error").String(),
	}

	root.Get("groups").ForEach(func(_, group gjson.Result) bool {
		var g Group
		group.Get("documents").ForEach(func(_, doc gjson.Result) bool {
			d := Document{
				URL:          doc.Get("url").String(),
				Domain:       doc.Get("domain").String(),
				Title:        doc.Get("title").String(),
				SavedCopyURL: doc.Get("savedCopyUrl").String(),
				ExtendedText: doc.Get("extendedText").String(),
				Lang:         doc.Get("lang").String(),
				MimeType:     doc.Get("mimeType").String(),
				Size:         doc.Get("size").Int(),
				ModTime:      doc.Get("modtime").String(),
			}
			doc.Get("passages").ForEach(func(_, p gjson.Result) bool {
				d.Passages = append(d.Passages, p.String())
				return true
			})
			g.Documents = append(g.Documents, d)
			return true
		})
		out.Groups = append(out.Groups, g)
		return true
	})

	return out
}

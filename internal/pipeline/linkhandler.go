package pipeline

import (
	"context"

	"github.com/barbashov/chatguard/internal/domain"
	"github.com/barbashov/chatguard/internal/platform"
	"github.com/barbashov/chatguard/internal/settings"
)

const linkFetchMaxSize = 4000

// URLContentFetcher is the subset of urlfetch.Fetcher this handler needs.
type URLContentFetcher interface {
	GetURLContent(ctx context.Context, rawURL string, parseToMarkdown bool, maxSize int, chatModel, fallbackModel string) (string, error)
}

// linkHandler unfurls the first URL entity in a message, replying with its
// condensed content (the bot's namesake summarization feature, supplemented
// from original_source since spec.md scopes C11's wire contract but not its
// message-pipeline trigger).
type linkHandler struct {
	fetcher  URLContentFetcher
	settings settings.Store
	platform platform.Adapter
}

// NewLinkHandler constructs the URL-unfurl Handler.
func NewLinkHandler(fetcher URLContentFetcher, st settings.Store, adapter platform.Adapter) Handler {
	return linkHandler{fetcher: fetcher, settings: st, platform: adapter}
}

func (h linkHandler) Name() string { return "link-unfurl" }

func (h linkHandler) Handle(ctx context.Context, env domain.Envelope) (Result, error) {
	url := firstURL(env.Entities)
	if url == "" {
		return ResultNext, nil
	}

	chatModel := h.resolve(ctx, env.ChatID, settings.ChatModel)
	fallbackModel := h.resolve(ctx, env.ChatID, settings.FallbackModel)

	text, err := h.fetcher.GetURLContent(ctx, url, true, linkFetchMaxSize, chatModel, fallbackModel)
	if err != nil {
		return ResultNext, nil
	}

	_, _ = h.platform.SendMessage(ctx, env.ChatID, text, platform.SendOptions{ReplyToID: env.MessageID})
	return ResultNext, nil
}

func (h linkHandler) resolve(ctx context.Context, chatID int64, key settings.Key) string {
	v, err := h.settings.Get(ctx, chatID, key)
	if err != nil {
		return ""
	}
	return v.String()
}

func firstURL(entities []domain.Entity) string {
	for _, e := range entities {
		if e.Kind == domain.EntityURL || e.Kind == domain.EntityTextLink {
			return e.Value
		}
	}
	return ""
}

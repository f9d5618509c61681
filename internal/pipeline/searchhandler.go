package pipeline

import (
	"context"
	"strings"

	"github.com/barbashov/chatguard/internal/domain"
	"github.com/barbashov/chatguard/internal/platform"
	"github.com/barbashov/chatguard/internal/search"
)

// SearchClient is the subset of search.Client the /search command needs.
type SearchClient interface {
	Search(ctx context.Context, query string) (search.Response, error)
}

// searchCommandHandler implements /search, formatting results through
// search.FormatFragments and sending one message per fragment.
type searchCommandHandler struct {
	client   SearchClient
	platform platform.Adapter
}

// NewSearchCommandHandler constructs the /search command handler.
func NewSearchCommandHandler(client SearchClient, adapter platform.Adapter) CommandHandler {
	return searchCommandHandler{client: client, platform: adapter}
}

func (h searchCommandHandler) Name() string { return "search-command" }

func (h searchCommandHandler) Metadata() CommandMetadata {
	return CommandMetadata{
		Commands:    []string{"/search"},
		ShortDesc:   "Search the web",
		HelpMessage: "/search <query>",
		Categories:  []string{"utility"},
		Order:       20,
	}
}

func (h searchCommandHandler) Handle(ctx context.Context, env domain.Envelope) (Result, error) {
	rest := strings.TrimSpace(env.Text)
	if !strings.HasPrefix(rest, "/search") {
		return ResultNext, nil
	}
	query := strings.TrimSpace(strings.TrimPrefix(rest, "/search"))
	if query == "" {
		h.reply(ctx, env, "Usage: /search <query>")
		return ResultFinal, nil
	}

	resp, err := h.client.Search(ctx, query)
	if err != nil {
		h.reply(ctx, env, "Search failed.")
		return ResultError, err
	}

	for _, fragment := range search.FormatFragments(resp) {
		h.reply(ctx, env, fragment)
	}
	return ResultFinal, nil
}

func (h searchCommandHandler) reply(ctx context.Context, env domain.Envelope, text string) {
	_, _ = h.platform.SendMessage(ctx, env.ChatID, text, platform.SendOptions{ReplyToID: env.MessageID})
}

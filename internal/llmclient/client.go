// Package llmclient wraps the LLM providers used for summarization and
// condensation (C11's fallback path), grounded on the teacher's
// llm.Client interface but backed by real provider SDKs instead of a
// hand-rolled HTTP client.
package llmclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	legacyopenai "github.com/sashabaranov/go-openai"

	"github.com/rs/zerolog"
)

// ChatMessage mirrors the teacher's llm.ChatMessage shape: Role is one of
// "system", "user".
type ChatMessage struct {
	Role    string
	Content string
}

// Client talks to the primary provider, falling back to a secondary
// provider/model whenever the primary call errors or returns no choices.
type Client struct {
	primary  openai.Client
	fallback *legacyopenai.Client
	log      zerolog.Logger
}

// New constructs a Client. apiKey is shared between the primary (openai-go)
// and fallback (go-openai) SDKs, matching the teacher's single-provider
// assumption. transport, when non-nil, replaces http.DefaultTransport on
// both SDKs' underlying http.Client (golden.Recorder/Replayer injection
// point, per the same pattern as internal/weather and internal/urlfetch).
func New(apiKey string, log zerolog.Logger, transport http.RoundTripper) *Client {
	if transport == nil {
		transport = http.DefaultTransport
	}
	httpClient := &http.Client{Transport: transport}

	legacyConfig := legacyopenai.DefaultConfig(apiKey)
	legacyConfig.HTTPClient = httpClient

	return &Client{
		primary:  openai.NewClient(option.WithAPIKey(apiKey), option.WithHTTPClient(httpClient)),
		fallback: legacyopenai.NewClientWithConfig(legacyConfig),
		log:      log.With().Str("component", "llmclient").Logger(),
	}
}

func toUnion(messages []ChatMessage) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case "system":
			out = append(out, openai.SystemMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

func toLegacy(messages []ChatMessage) []legacyopenai.ChatCompletionMessage {
	out := make([]legacyopenai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		role := legacyopenai.ChatMessageRoleUser
		if m.Role == "system" {
			role = legacyopenai.ChatMessageRoleSystem
		}
		out = append(out, legacyopenai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	return out
}

// Chat sends messages to model, falling back to fallbackModel on failure.
func (c *Client) Chat(ctx context.Context, messages []ChatMessage, model, fallbackModel string) (string, error) {
	resp, err := c.primary.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    model,
		Messages: toUnion(messages),
	})
	if err == nil && len(resp.Choices) > 0 {
		return resp.Choices[0].Message.Content, nil
	}
	c.log.Warn().Err(err).Str("model", model).Msg("primary llm call failed, trying fallback")

	if fallbackModel == "" {
		fallbackModel = model
	}

	legacyResp, legacyErr := c.fallback.CreateChatCompletion(ctx, legacyopenai.ChatCompletionRequest{
		Model:    fallbackModel,
		Messages: toLegacy(messages),
	})
	if legacyErr != nil {
		return "", fmt.Errorf("llmclient: both providers failed: primary=%v fallback=%w", err, legacyErr)
	}
	if len(legacyResp.Choices) == 0 {
		return "", fmt.Errorf("llmclient: fallback provider returned no choices")
	}
	return legacyResp.Choices[0].Message.Content, nil
}

// Summarize implements urlfetch.Summarizer: a fixed system prompt plus the
// raw text as the user turn (§4.11 step 6).
func (c *Client) Summarize(ctx context.Context, systemPrompt, text, model, fallbackModel string) (string, error) {
	return c.Chat(ctx, []ChatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: text},
	}, model, fallbackModel)
}

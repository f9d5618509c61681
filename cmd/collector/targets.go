package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/barbashov/chatguard/internal/llmclient"
	"github.com/barbashov/chatguard/internal/urlfetch"
	"github.com/barbashov/chatguard/internal/weather"
)

// target constructs a live client over transport and invokes one of its
// methods, returning a JSON-marshalable result. Each collector target
// mirrors one SPEC_FULL.md wire client; internal/search is deliberately
// absent because its fasthttp.Client has no http.RoundTripper injection
// point (see DESIGN.md).
type target interface {
	run(ctx context.Context, transport http.RoundTripper, method string, initKwargs, kwargs map[string]any) (any, error)
}

// targets is keyed by the scenario's "module" field.
var targets = map[string]target{
	"weather":   weatherTarget{},
	"urlfetch":  urlfetchTarget{},
	"llmclient": llmTarget{},
}

type weatherTarget struct{}

func (weatherTarget) run(ctx context.Context, transport http.RoundTripper, method string, initKwargs, kwargs map[string]any) (any, error) {
	client := weather.NewClient(transport, nil,
		stringArg(initKwargs, "geocode_api_key"), stringArg(initKwargs, "weather_api_key"),
		weather.NewGeocodeCache(0, 0), weather.NewWeatherCache(0, 0))

	switch method {
	case "Geocode":
		return client.Geocode(ctx, stringArg(kwargs, "query"))
	case "Forecast":
		return client.Forecast(ctx, floatArg(kwargs, "lat"), floatArg(kwargs, "lon"))
	default:
		return nil, fmt.Errorf("weather: unknown method %q", method)
	}
}

type urlfetchTarget struct{}

func (urlfetchTarget) run(ctx context.Context, transport http.RoundTripper, method string, initKwargs, kwargs map[string]any) (any, error) {
	if method != "GetURLContent" {
		return nil, fmt.Errorf("urlfetch: unknown method %q", method)
	}

	llm := llmclient.New(stringArg(initKwargs, "openai_api_key"), zerolog.Nop(), transport)
	fetcher := urlfetch.NewFetcher(nil, transport,
		urlfetch.NewMemoryRawCache(0, 0), urlfetch.NewMemoryCondensedCache(0, 0), llm)

	return fetcher.GetURLContent(ctx, stringArg(kwargs, "url"), boolArg(kwargs, "parse_to_markdown"), intArg(kwargs, "max_size"),
		stringArg(kwargs, "chat_model"), stringArg(kwargs, "fallback_model"))
}

type llmTarget struct{}

func (llmTarget) run(ctx context.Context, transport http.RoundTripper, method string, initKwargs, kwargs map[string]any) (any, error) {
	client := llmclient.New(stringArg(initKwargs, "api_key"), zerolog.Nop(), transport)

	model := stringArg(kwargs, "model")
	fallbackModel := stringArg(kwargs, "fallback_model")

	switch method {
	case "Chat":
		return client.Chat(ctx, toChatMessages(kwargs["messages"]), model, fallbackModel)
	case "Summarize":
		return client.Summarize(ctx, stringArg(kwargs, "system_prompt"), stringArg(kwargs, "text"), model, fallbackModel)
	default:
		return nil, fmt.Errorf("llmclient: unknown method %q", method)
	}
}

func toChatMessages(raw any) []llmclient.ChatMessage {
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]llmclient.ChatMessage, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, llmclient.ChatMessage{Role: stringArg(m, "role"), Content: stringArg(m, "content")})
	}
	return out
}

func stringArg(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func boolArg(m map[string]any, key string) bool {
	b, _ := m[key].(bool)
	return b
}

func floatArg(m map[string]any, key string) float64 {
	f, _ := m[key].(float64)
	return f
}

func intArg(m map[string]any, key string) int {
	return int(floatArg(m, key))
}

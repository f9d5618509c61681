package pipeline

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/barbashov/chatguard/internal/domain"
	"github.com/barbashov/chatguard/internal/platform"
	"github.com/barbashov/chatguard/internal/weather"
)

// WeatherClient is the subset of weather.Client the natural-language
// handler needs.
type WeatherClient interface {
	Geocode(ctx context.Context, query string) (weather.GeocodeResult, error)
	Forecast(ctx context.Context, lat, lon float64) (weather.WeatherResult, error)
}

var weatherPattern = regexp.MustCompile(`(?i)^weather (?:in|for) (.+)$`)

// weatherHandler recognizes plain natural-language weather requests
// ("weather in <place>") the way the teacher's webhook recognizes a
// mention command — a regex/prefix match, not an NLU pipeline (§4.13
// "examples, not exhaustive").
type weatherHandler struct {
	client   WeatherClient
	platform platform.Adapter
}

// NewWeatherHandler constructs the weather natural-language Handler.
func NewWeatherHandler(client WeatherClient, adapter platform.Adapter) Handler {
	return weatherHandler{client: client, platform: adapter}
}

func (h weatherHandler) Name() string { return "weather" }

func (h weatherHandler) Handle(ctx context.Context, env domain.Envelope) (Result, error) {
	match := weatherPattern.FindStringSubmatch(strings.TrimSpace(env.Text))
	if match == nil {
		return ResultNext, nil
	}

	place := strings.TrimSpace(match[1])
	location, err := h.client.Geocode(ctx, place)
	if err != nil {
		h.reply(ctx, env, fmt.Sprintf("Couldn't find %q.", place))
		return ResultSkipped, err
	}

	forecast, err := h.client.Forecast(ctx, location.Lat, location.Lon)
	if err != nil {
		h.reply(ctx, env, fmt.Sprintf("Couldn't fetch weather for %s.", location.DisplayName))
		return ResultError, err
	}

	h.reply(ctx, env, formatWeatherReply(location, forecast))
	return ResultFinal, nil
}

func formatWeatherReply(location weather.GeocodeResult, forecast weather.WeatherResult) string {
	name := location.DisplayName
	if name == "" {
		name = location.Name
	}
	return fmt.Sprintf("%s: %.1f°C, %s (feels like %.1f°C)", name, forecast.Current.TempC, forecast.Current.WeatherDescription, forecast.Current.FeelsLikeC)
}

func (h weatherHandler) reply(ctx context.Context, env domain.Envelope, text string) {
	_, _ = h.platform.SendMessage(ctx, env.ChatID, text, platform.SendOptions{ReplyToID: env.MessageID})
}

package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/barbashov/chatguard/internal/apperrors"
	"github.com/barbashov/chatguard/internal/cache"
	"github.com/barbashov/chatguard/internal/ratelimit"
)

const (
	geocodeBaseURL = "https://geocode.maps.co"
	weatherBaseURL = "https://api.openweathermap.org/data/3.0"

	geocodeQueue = "geocode-maps"
	weatherQueue = "openweathermap"

	requestTimeout = 10 * time.Second
)

// Client is a thin wire client for the geocoding and weather providers
// (grounded on original_source/lib/geocode_maps/client.py and
// original_source/lib/openweathermap/client.py), exercising
// cache.Cache/ratelimit.Registry/golden.Transport the same way
// internal/search does.
type Client struct {
	http          *http.Client
	limiter       *ratelimit.Registry
	geocodeAPIKey string
	weatherAPIKey string
	geocodeCache  cache.Cache[geocodeKey, GeocodeResult]
	weatherCache  cache.Cache[weatherKey, WeatherResult]
}

// NewClient constructs a Client. transport, when non-nil, replaces
// http.DefaultTransport (golden.Recorder/Replayer injection point).
func NewClient(transport http.RoundTripper, limiter *ratelimit.Registry, geocodeAPIKey, weatherAPIKey string, geocodeCache cache.Cache[geocodeKey, GeocodeResult], weatherCache cache.Cache[weatherKey, WeatherResult]) *Client {
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &Client{
		http:          &http.Client{Timeout: requestTimeout, Transport: transport},
		limiter:       limiter,
		geocodeAPIKey: geocodeAPIKey,
		weatherAPIKey: weatherAPIKey,
		geocodeCache:  geocodeCache,
		weatherCache:  weatherCache,
	}
}

// Geocode resolves a free-form place name to coordinates via geocode.maps.co
// /search, caching by query text.
func (c *Client) Geocode(ctx context.Context, query string) (GeocodeResult, error) {
	key := geocodeKey{Query: query}
	if cached, ok := c.geocodeCache.Get(ctx, key, nil); ok {
		return cached, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, geocodeBaseURL+"/search", nil)
	if err != nil {
		return GeocodeResult{}, fmt.Errorf("weather: build geocode request: %w", err)
	}
	q := req.URL.Query()
	q.Set("q", query)
	q.Set("api_key", c.geocodeAPIKey)
	q.Set("format", "jsonv2")
	req.URL.RawQuery = q.Encode()

	var raw []struct {
		Lat         string `json:"lat"`
		Lon         string `json:"lon"`
		Name        string `json:"name"`
		DisplayName string `json:"display_name"`
		Address     struct {
			Country string `json:"country"`
			State   string `json:"state"`
		} `json:"address"`
	}
	if err := c.doJSON(ctx, geocodeQueue, req, &raw); err != nil {
		return GeocodeResult{}, err
	}
	if len(raw) == 0 {
		return GeocodeResult{}, fmt.Errorf("weather: no geocoding results for %q", query)
	}

	lat, _ := strconv.ParseFloat(raw[0].Lat, 64)
	lon, _ := strconv.ParseFloat(raw[0].Lon, 64)
	result := GeocodeResult{
		Name:        raw[0].Name,
		DisplayName: raw[0].DisplayName,
		Lat:         lat,
		Lon:         lon,
		Country:     raw[0].Address.Country,
		State:       raw[0].Address.State,
	}
	_ = c.geocodeCache.Set(ctx, key, result)
	return result, nil
}

// Forecast fetches current and daily weather for (lat, lon), caching by
// coordinates rounded via RoundCoord (§"lat/lon rounded to 4 decimals for
// cache keys").
func (c *Client) Forecast(ctx context.Context, lat, lon float64) (WeatherResult, error) {
	key := weatherKey{Lat: RoundCoord(lat), Lon: RoundCoord(lon)}
	if cached, ok := c.weatherCache.Get(ctx, key, nil); ok {
		return cached, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, weatherBaseURL+"/onecall", nil)
	if err != nil {
		return WeatherResult{}, fmt.Errorf("weather: build forecast request: %w", err)
	}
	q := req.URL.Query()
	q.Set("lat", strconv.FormatFloat(lat, 'f', 4, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', 4, 64))
	q.Set("units", "metric")
	q.Set("appid", c.weatherAPIKey)
	req.URL.RawQuery = q.Encode()

	var raw struct {
		Lat      float64 `json:"lat"`
		Lon      float64 `json:"lon"`
		Timezone string  `json:"timezone"`
		Current  struct {
			Dt        int64   `json:"dt"`
			Temp      float64 `json:"temp"`
			FeelsLike float64 `json:"feels_like"`
			Pressure  int     `json:"pressure"`
			Humidity  int     `json:"humidity"`
			Clouds    int     `json:"clouds"`
			WindSpeed float64 `json:"wind_speed"`
			WindDeg   int     `json:"wind_deg"`
			Weather   []struct {
				ID          int    `json:"id"`
				Main        string `json:"main"`
				Description string `json:"description"`
			} `json:"weather"`
		} `json:"current"`
		Daily []struct {
			Dt   int64 `json:"dt"`
			Temp struct {
				Day float64 `json:"day"`
				Min float64 `json:"min"`
				Max float64 `json:"max"`
			} `json:"temp"`
			Pressure  int     `json:"pressure"`
			Humidity  int     `json:"humidity"`
			WindSpeed float64 `json:"wind_speed"`
			Clouds    int     `json:"clouds"`
			Pop       float64 `json:"pop"`
			Weather   []struct {
				ID          int    `json:"id"`
				Main        string `json:"main"`
				Description string `json:"description"`
			} `json:"weather"`
		} `json:"daily"`
	}
	if err := c.doJSON(ctx, weatherQueue, req, &raw); err != nil {
		return WeatherResult{}, err
	}

	result := WeatherResult{Lat: raw.Lat, Lon: raw.Lon, Timezone: raw.Timezone}
	result.Current = CurrentWeather{
		Timestamp:   raw.Current.Dt,
		TempC:       raw.Current.Temp,
		FeelsLikeC:  raw.Current.FeelsLike,
		PressureHPa: raw.Current.Pressure,
		HumidityPct: raw.Current.Humidity,
		CloudsPct:   raw.Current.Clouds,
		WindSpeedMS: raw.Current.WindSpeed,
		WindDegrees: raw.Current.WindDeg,
	}
	if len(raw.Current.Weather) > 0 {
		result.Current.WeatherID = raw.Current.Weather[0].ID
		result.Current.WeatherMain = raw.Current.Weather[0].Main
		result.Current.WeatherDescription = raw.Current.Weather[0].Description
	}

	for _, d := range raw.Daily {
		day := DailyWeather{
			Timestamp:         d.Dt,
			TempDayC:          d.Temp.Day,
			TempMinC:          d.Temp.Min,
			TempMaxC:          d.Temp.Max,
			PressureHPa:       d.Pressure,
			HumidityPct:       d.Humidity,
			WindSpeedMS:       d.WindSpeed,
			CloudsPct:         d.Clouds,
			PrecipitationProb: d.Pop,
		}
		if len(d.Weather) > 0 {
			day.WeatherID = d.Weather[0].ID
			day.WeatherMain = d.Weather[0].Main
			day.WeatherDescription = d.Weather[0].Description
		}
		result.Daily = append(result.Daily, day)
	}

	_ = c.weatherCache.Set(ctx, key, result)
	return result, nil
}

func (c *Client) doJSON(ctx context.Context, queue string, req *http.Request, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Apply(ctx, queue); err != nil {
			return fmt.Errorf("weather: rate limit: %w", err)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("weather: %w: %w", apperrors.ErrTransientExternal, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("weather: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("weather: request failed with status %d", resp.StatusCode)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("weather: decode response: %w", err)
	}
	return nil
}

// NewGeocodeCache constructs the StructuredKeyGenerator-backed memory cache
// used for geocoding results.
func NewGeocodeCache(maxSize int, ttl time.Duration) cache.Cache[geocodeKey, GeocodeResult] {
	return cache.NewMemoryCache[geocodeKey, GeocodeResult](cache.NewStructuredKeyGenerator(), cache.JSONCodec[GeocodeResult]{}, maxSize, ttl)
}

// NewWeatherCache constructs the StructuredKeyGenerator-backed memory cache
// used for weather forecasts.
func NewWeatherCache(maxSize int, ttl time.Duration) cache.Cache[weatherKey, WeatherResult] {
	return cache.NewMemoryCache[weatherKey, WeatherResult](cache.NewStructuredKeyGenerator(), cache.JSONCodec[WeatherResult]{}, maxSize, ttl)
}

// Package weather implements the geocoding + weather data model and a thin
// wire client (§"Supplemented: Geocoding + Weather"), grounded on
// original_source/lib/geocode_maps/models.py and
// original_source/lib/openweathermap/models.py. Only the data shape and
// cache-key rounding matter here; the provider's own caching/retry
// behavior is not reproduced.
package weather

import "math"

// GeocodeResult mirrors geocode_maps.models.SearchResult's fields this
// bot actually consumes.
type GeocodeResult struct {
	Name        string
	DisplayName string
	Lat         float64
	Lon         float64
	Country     string
	State       string
}

// CurrentWeather mirrors openweathermap.models.CurrentWeather.
type CurrentWeather struct {
	Timestamp          int64
	TempC              float64
	FeelsLikeC         float64
	PressureHPa        int
	HumidityPct        int
	CloudsPct          int
	WindSpeedMS        float64
	WindDegrees        int
	WeatherID          int
	WeatherMain        string
	WeatherDescription string
}

// DailyWeather mirrors openweathermap.models.DailyWeather.
type DailyWeather struct {
	Timestamp          int64
	TempDayC           float64
	TempMinC           float64
	TempMaxC           float64
	PressureHPa        int
	HumidityPct        int
	WindSpeedMS        float64
	CloudsPct          int
	WeatherID          int
	WeatherMain        string
	WeatherDescription string
	PrecipitationProb  float64
}

// WeatherResult mirrors openweathermap.models.WeatherData.
type WeatherResult struct {
	Lat      float64
	Lon      float64
	Timezone string
	Current  CurrentWeather
	Daily    []DailyWeather
}

// RoundCoord rounds a latitude/longitude to 4 decimal places (~11m
// precision), the cache-key granularity openweathermap.client.py's
// "reverse" cache-key comment documents ("Coordinates are rounded to 4
// decimal places").
func RoundCoord(f float64) float64 {
	const factor = 10000.0
	return math.Round(f*factor) / factor
}

// geocodeKey and weatherKey are the StructuredKeyGenerator inputs for the
// respective caches (internal/cache).
type geocodeKey struct {
	Query string
}

type weatherKey struct {
	Lat float64
	Lon float64
}

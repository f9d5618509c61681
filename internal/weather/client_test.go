package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRoundCoord_RoundsToFourDecimalPlaces(t *testing.T) {
	require.InDelta(t, 52.5443, RoundCoord(52.544333), 1e-9)
	require.InDelta(t, 103.8882, RoundCoord(103.888199), 1e-9)
}

func TestClient_Geocode_ParsesAndCaches(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"lat":"52.5443","lon":"103.8882","name":"Angarsk","display_name":"Angarsk, Russia","address":{"country":"Russia"}}]`))
	}))
	defer srv.Close()

	c := NewClient(redirectingTransport(srv.URL), nil, "key", "key", NewGeocodeCache(10, -1), NewWeatherCache(10, -1))

	result, err := c.Geocode(context.Background(), "Angarsk, Russia")
	require.NoError(t, err)
	require.Equal(t, "Angarsk", result.Name)
	require.InDelta(t, 52.5443, result.Lat, 1e-6)
	require.Equal(t, "Russia", result.Country)

	_, err = c.Geocode(context.Background(), "Angarsk, Russia")
	require.NoError(t, err)
	require.Equal(t, 1, hits, "second call should be served from cache")
}

func TestClient_Forecast_ParsesCurrentAndDaily(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"lat": 52.5443, "lon": 103.8882, "timezone": "Asia/Irkutsk",
			"current": {"dt": 1000, "temp": 20.5, "feels_like": 19.0, "pressure": 1013, "humidity": 60, "clouds": 10, "wind_speed": 3.2, "wind_deg": 180, "weather": [{"id": 800, "main": "Clear", "description": "clear sky"}]},
			"daily": [{"dt": 1000, "temp": {"day": 21, "min": 15, "max": 23}, "pressure": 1012, "humidity": 55, "wind_speed": 2.5, "clouds": 5, "pop": 0.1, "weather": [{"id": 801, "main": "Clouds", "description": "few clouds"}]}]
		}`))
	}))
	defer srv.Close()

	c := NewClient(redirectingTransport(srv.URL), nil, "key", "key", NewGeocodeCache(10, -1), NewWeatherCache(10, -1))

	result, err := c.Forecast(context.Background(), 52.5443, 103.8882)
	require.NoError(t, err)
	require.Equal(t, "Asia/Irkutsk", result.Timezone)
	require.InDelta(t, 20.5, result.Current.TempC, 1e-9)
	require.Equal(t, "Clear", result.Current.WeatherMain)
	require.Len(t, result.Daily, 1)
	require.InDelta(t, 21.0, result.Daily[0].TempDayC, 1e-9)
	require.Equal(t, "Clouds", result.Daily[0].WeatherMain)
}

// redirectingTransport rewrites every outbound request to target the test
// server, so the weather client's hardcoded upstream base URLs can still be
// exercised against httptest.
type redirectTransport struct{ target string }

func redirectingTransport(target string) http.RoundTripper {
	return redirectTransport{target: target}
}

func (rt redirectTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	target, err := http.NewRequest(req.Method, rt.target+req.URL.RequestURI(), req.Body)
	if err != nil {
		return nil, err
	}
	target.Header = req.Header
	client := &http.Client{Timeout: 5 * time.Second}
	return client.Do(target.WithContext(req.Context()))
}

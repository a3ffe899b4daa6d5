package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sirupsen/logrus"
)

const weatherProviderName = ProviderWeather

// VenueWeather represents current conditions at a ballpark
type VenueWeather struct {
	TempF       *float64
	WindMPH     *float64
	HumidityPct *float64
}

// WeatherClient talks to the OpenWeatherMap current-conditions endpoint
type WeatherClient struct {
	httpClient *RateLimitedHTTPClient
	baseURL    string
	apiKey     string
	units      string
	logger     *logrus.Logger
}

// NewWeatherClient creates a new OpenWeatherMap client
func NewWeatherClient(httpClient *RateLimitedHTTPClient, baseURL, apiKey, units string, logger *logrus.Logger) *WeatherClient {
	return &WeatherClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     apiKey,
		units:      units,
		logger:     logger,
	}
}

type weatherResponse struct {
	Main struct {
		Temp     *float64 `json:"temp"`
		Humidity *float64 `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed *float64 `json:"speed"`
	} `json:"wind"`
}

// Current fetches current conditions at the given coordinates
func (c *WeatherClient) Current(ctx context.Context, lat, lon float64) (VenueWeather, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', 4, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', 4, 64))
	params.Set("appid", c.apiKey)
	params.Set("units", c.units)

	fullURL := fmt.Sprintf("%s/weather?%s", c.baseURL, params.Encode())

	resp, err := c.httpClient.Get(ctx, fullURL)
	if err != nil {
		return VenueWeather{}, NewProviderError(weatherProviderName, ErrCodeUpstreamUnavailable, "request failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return VenueWeather{}, NewProviderError(weatherProviderName, ErrCodeAuthenticationFailed, "invalid API key", ErrAuthenticationFailed)
	case resp.StatusCode == http.StatusTooManyRequests:
		return VenueWeather{}, NewProviderError(weatherProviderName, ErrCodeRateLimitExceeded, "rate limit exceeded", ErrRateLimitExceeded)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(resp.Body)
		return VenueWeather{}, NewProviderError(weatherProviderName, ErrCodeUpstreamUnavailable,
			fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, string(body)), ErrUpstreamUnavailable)
	}

	var w weatherResponse
	if err := json.NewDecoder(resp.Body).Decode(&w); err != nil {
		return VenueWeather{}, NewProviderError(weatherProviderName, ErrCodeMalformedResponse, "failed to parse response", err)
	}

	return VenueWeather{
		TempF:       w.Main.Temp,
		WindMPH:     w.Wind.Speed,
		HumidityPct: w.Main.Humidity,
	}, nil
}

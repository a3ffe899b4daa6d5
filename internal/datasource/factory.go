package datasource

import (
	"github.com/sirupsen/logrus"

	"github.com/yourusername/diamond-edge/internal/config"
)

// NewStatsClientFromConfig wires a Stats API client from configuration
func NewStatsClientFromConfig(cfg *config.StatsAPIConfig, logger *logrus.Logger) *StatsClient {
	defaults := DefaultHTTPClientConfig(ProviderStatsAPI)
	httpClient := NewRateLimitedHTTPClient(HTTPClientConfig{
		Provider:          ProviderStatsAPI,
		Timeout:           cfg.Timeout(),
		MaxRetries:        cfg.MaxRetries,
		RetryWaitMin:      defaults.RetryWaitMin,
		RetryWaitMax:      defaults.RetryWaitMax,
		RateLimit:         cfg.RateLimitPerSecond,
		CircuitBreakerMax: defaults.CircuitBreakerMax,
	}, logger)
	return NewStatsClient(httpClient, cfg.BaseURL, cfg.CacheTTL(), logger)
}

// NewOddsClientFromConfig wires an Odds API client from configuration
func NewOddsClientFromConfig(cfg *config.OddsAPIConfig, logger *logrus.Logger) *OddsClient {
	defaults := DefaultHTTPClientConfig(ProviderOddsAPI)
	httpClient := NewRateLimitedHTTPClient(HTTPClientConfig{
		Provider:          ProviderOddsAPI,
		Timeout:           cfg.Timeout(),
		MaxRetries:        cfg.MaxRetries,
		RetryWaitMin:      defaults.RetryWaitMin,
		RetryWaitMax:      defaults.RetryWaitMax,
		RateLimit:         cfg.RateLimitPerSecond,
		CircuitBreakerMax: defaults.CircuitBreakerMax,
	}, logger)
	return NewOddsClient(httpClient, cfg.BaseURL, cfg.APIKey, cfg.Bookmaker, cfg.Region, logger)
}

// NewWeatherClientFromConfig wires a weather client from configuration
func NewWeatherClientFromConfig(cfg *config.WeatherConfig, logger *logrus.Logger) *WeatherClient {
	defaults := DefaultHTTPClientConfig(ProviderWeather)
	httpClient := NewRateLimitedHTTPClient(HTTPClientConfig{
		Provider:          ProviderWeather,
		Timeout:           cfg.Timeout(),
		MaxRetries:        cfg.MaxRetries,
		RetryWaitMin:      defaults.RetryWaitMin,
		RetryWaitMax:      defaults.RetryWaitMax,
		RateLimit:         cfg.RateLimitPerSecond,
		CircuitBreakerMax: defaults.CircuitBreakerMax,
	}, logger)
	return NewWeatherClient(httpClient, cfg.BaseURL, cfg.APIKey, cfg.Units, logger)
}

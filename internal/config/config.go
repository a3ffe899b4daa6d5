// Package config provides configuration management for the Diamond Edge pipeline.
package config

import (
	"fmt"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	App       AppConfig       `mapstructure:"app" validate:"required"`
	StatsAPI  StatsAPIConfig  `mapstructure:"stats_api" validate:"required"`
	OddsAPI   OddsAPIConfig   `mapstructure:"odds_api" validate:"required"`
	Weather   WeatherConfig   `mapstructure:"weather" validate:"required"`
	Betting   BettingConfig   `mapstructure:"betting" validate:"required"`
	Training  TrainingConfig  `mapstructure:"training" validate:"required"`
	Artifacts ArtifactsConfig `mapstructure:"artifacts" validate:"required"`
	Metrics   MetricsConfig   `mapstructure:"metrics" validate:"required"`
	Schedule  ScheduleConfig  `mapstructure:"schedule"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// StatsAPIConfig represents MLB Stats API configuration.
// The Stats API is public and requires no key.
type StatsAPIConfig struct {
	BaseURL            string  `mapstructure:"base_url" validate:"required,url"`
	TimeoutSeconds     int     `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	MaxRetries         int     `mapstructure:"max_retries" validate:"gte=0"`
	RateLimitPerSecond float64 `mapstructure:"rate_limit_per_second" validate:"required,gt=0"`
	CacheTTLSeconds    int     `mapstructure:"cache_ttl_seconds" validate:"required,gt=0"`
}

// OddsAPIConfig represents The Odds API configuration
type OddsAPIConfig struct {
	BaseURL            string  `mapstructure:"base_url" validate:"required,url"`
	APIKey             string  `mapstructure:"api_key" validate:"required"`
	Bookmaker          string  `mapstructure:"bookmaker" validate:"required"`
	Region             string  `mapstructure:"region" validate:"required"`
	TimeoutSeconds     int     `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	MaxRetries         int     `mapstructure:"max_retries" validate:"gte=0"`
	RateLimitPerSecond float64 `mapstructure:"rate_limit_per_second" validate:"required,gt=0"`
}

// WeatherConfig represents OpenWeatherMap configuration
type WeatherConfig struct {
	BaseURL            string  `mapstructure:"base_url" validate:"required,url"`
	APIKey             string  `mapstructure:"api_key" validate:"required"`
	Units              string  `mapstructure:"units" validate:"required,oneof=imperial metric"`
	TimeoutSeconds     int     `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	MaxRetries         int     `mapstructure:"max_retries" validate:"gte=0"`
	RateLimitPerSecond float64 `mapstructure:"rate_limit_per_second" validate:"required,gt=0"`
}

// BettingConfig represents staking and risk-tier configuration
type BettingConfig struct {
	Bankroll        float64 `mapstructure:"bankroll" validate:"required,gt=0"`
	KellyMultiplier float64 `mapstructure:"kelly_multiplier" validate:"required,gt=0,lte=1"`
	RiskLowMax      float64 `mapstructure:"risk_low_max" validate:"required,gt=0"`
	RiskMediumMax   float64 `mapstructure:"risk_medium_max" validate:"required,gt=0"`
}

// TrainingConfig represents model training and calibration configuration
type TrainingConfig struct {
	StartDate          string  `mapstructure:"start_date" validate:"required,dateformat"`
	EndDate            string  `mapstructure:"end_date" validate:"required,dateformat"`
	Estimators         int     `mapstructure:"estimators" validate:"required,gt=0"`
	LearningRate       float64 `mapstructure:"learning_rate" validate:"required,gt=0,lte=1"`
	MaxDepth           int     `mapstructure:"max_depth" validate:"required,gt=0"`
	Subsample          float64 `mapstructure:"subsample" validate:"required,gt=0,lte=1"`
	CalibrationMethod  string  `mapstructure:"calibration_method" validate:"required,calibmethod"`
	MinCalibrationRows int     `mapstructure:"min_calibration_rows" validate:"required,gt=0"`
	FormWindowDays     int     `mapstructure:"form_window_days" validate:"required,gt=0"`
}

// ArtifactsConfig represents the flat-file artifact paths shared between commands
type ArtifactsConfig struct {
	TrainingCSV       string `mapstructure:"training_csv" validate:"required"`
	DailyFeaturesCSV  string `mapstructure:"daily_features_csv" validate:"required"`
	BetsCSV           string `mapstructure:"bets_csv" validate:"required"`
	CalibrationLogCSV string `mapstructure:"calibration_log_csv" validate:"required"`
	PipelinePath      string `mapstructure:"pipeline_path" validate:"required"`
	FeatureListPath   string `mapstructure:"feature_list_path" validate:"required"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Path    string `mapstructure:"path" validate:"required"`
}

// ScheduleConfig represents cron expressions for the daily-run daemon
type ScheduleConfig struct {
	DailyFeaturesCron string `mapstructure:"daily_features_cron"`
	OutcomeLogCron    string `mapstructure:"outcome_log_cron"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsStaging checks if the application is running in staging mode
func (c *Config) IsStaging() bool {
	return c.App.Environment == "staging"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// TrainingRange returns the parsed training date range
func (c *Config) TrainingRange() (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01-02", c.Training.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid training start_date: %w", err)
	}
	end, err := time.Parse("2006-01-02", c.Training.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid training end_date: %w", err)
	}
	return start, end, nil
}

// Timeout returns the Stats API request timeout
func (c *StatsAPIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// CacheTTL returns how long schedule and stats responses are memoized
func (c *StatsAPIConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// Timeout returns the Odds API request timeout
func (c *OddsAPIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Timeout returns the weather API request timeout
func (c *WeatherConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

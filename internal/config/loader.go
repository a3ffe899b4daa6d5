// Package config provides configuration management for the Diamond Edge pipeline.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Load reads and parses the configuration from file and environment variables.
// It expands environment variable placeholders in the YAML file (${VAR_NAME}).
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the configuration (${VAR} syntax)
	expanded := os.ExpandEnv(string(data))

	v := newViper()
	if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

// LoadWithDefaults loads configuration with default values for optional fields.
// Missing config files are tolerated; defaults plus environment variables apply.
func LoadWithDefaults(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	v := newViper()
	setDefaults(v)

	if data, err := os.ReadFile(configPath); err == nil {
		expanded := os.ExpandEnv(string(data))
		if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("DIAMOND_EDGE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "diamond-edge")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("stats_api.base_url", "https://statsapi.mlb.com/api/v1")
	v.SetDefault("stats_api.timeout_seconds", 30)
	v.SetDefault("stats_api.max_retries", 5)
	v.SetDefault("stats_api.rate_limit_per_second", 10.0)
	v.SetDefault("stats_api.cache_ttl_seconds", 3600)

	v.SetDefault("odds_api.base_url", "https://api.the-odds-api.com/v4")
	v.SetDefault("odds_api.bookmaker", "draftkings")
	v.SetDefault("odds_api.region", "us")
	v.SetDefault("odds_api.timeout_seconds", 30)
	v.SetDefault("odds_api.max_retries", 3)
	v.SetDefault("odds_api.rate_limit_per_second", 1.0)

	v.SetDefault("weather.base_url", "https://api.openweathermap.org/data/2.5")
	v.SetDefault("weather.units", "imperial")
	v.SetDefault("weather.timeout_seconds", 30)
	v.SetDefault("weather.max_retries", 3)
	v.SetDefault("weather.rate_limit_per_second", 5.0)

	v.SetDefault("betting.bankroll", 130.0)
	v.SetDefault("betting.kelly_multiplier", 0.5)
	v.SetDefault("betting.risk_low_max", 15.0)
	v.SetDefault("betting.risk_medium_max", 30.0)

	v.SetDefault("training.start_date", "2018-03-01")
	v.SetDefault("training.end_date", "2025-06-30")
	v.SetDefault("training.estimators", 500)
	v.SetDefault("training.learning_rate", 0.01)
	v.SetDefault("training.max_depth", 3)
	v.SetDefault("training.subsample", 1.0)
	v.SetDefault("training.calibration_method", "isotonic")
	v.SetDefault("training.min_calibration_rows", 200)
	v.SetDefault("training.form_window_days", 10)

	v.SetDefault("artifacts.training_csv", "data/training_data.csv")
	v.SetDefault("artifacts.daily_features_csv", "data/daily_features.csv")
	v.SetDefault("artifacts.bets_csv", "data/bets.csv")
	v.SetDefault("artifacts.calibration_log_csv", "data/calibration_log.csv")
	v.SetDefault("artifacts.pipeline_path", "artifacts/winprob_pipeline_v1.json")
	v.SetDefault("artifacts.feature_list_path", "artifacts/features_v1.json")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("schedule.daily_features_cron", "0 14 * * *")
	v.SetDefault("schedule.outcome_log_cron", "0 8 * * *")
}

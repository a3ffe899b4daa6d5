// Package main provides the daily feature builder CLI.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/diamond-edge/internal/config"
	"github.com/yourusername/diamond-edge/internal/datasource"
	"github.com/yourusername/diamond-edge/internal/features"
	applogger "github.com/yourusername/diamond-edge/internal/logger"
	"github.com/yourusername/diamond-edge/internal/metrics"
)

func main() {
	var (
		configPath = flag.String("config", "config/config.yaml", "Path to config file")
		date       = flag.String("date", "", "Game date (YYYY-MM-DD, default tomorrow)")
		output     = flag.String("output", "", "Override output CSV path")
	)
	flag.Parse()

	bootLogger := logrus.New()
	cfg := loadConfigWithSecrets(*configPath, bootLogger)
	log := applogger.NewLogger(cfg.App.LogLevel, cfg.App.Environment)
	runLog := applogger.NewRunLogger(log, "daily-features")

	gameDate := time.Now().AddDate(0, 0, 1)
	if *date != "" {
		parsed, err := time.Parse("2006-01-02", *date)
		if err != nil {
			log.Fatalf("Invalid date %q: %v", *date, err)
		}
		gameDate = parsed
	}

	outputPath := cfg.Artifacts.DailyFeaturesCSV
	if *output != "" {
		outputPath = *output
	}

	stats := datasource.NewStatsClientFromConfig(&cfg.StatsAPI, log)
	odds := datasource.NewOddsClientFromConfig(&cfg.OddsAPI, log)
	weather := datasource.NewWeatherClientFromConfig(&cfg.Weather, log)
	builder := features.NewBuilder(stats, odds, weather, features.DefaultVenueTable(), cfg.Training.FormWindowDays, runLog)

	runLog.WithField("date", gameDate.Format("2006-01-02")).Info("Building daily features")

	rows, err := builder.BuildDaily(context.Background(), gameDate)
	if err != nil {
		log.Fatalf("Daily feature build failed: %v", err)
	}

	if err := features.WriteCSV(outputPath, rows); err != nil {
		log.Fatalf("Failed to write daily features: %v", err)
	}
	metrics.FeatureRowsWrittenTotal.Add(float64(len(rows)))
	metrics.MarkRunComplete("daily-features")
	runLog.LogRowsWritten(outputPath, len(rows))
}

func loadConfigWithSecrets(path string, log *logrus.Logger) *config.Config {
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			log.Fatalf("AWS_REGION and AWS_SECRET_NAME environment variables must be set when AWS_SECRETS_ENABLED is true")
		}
		if err := config.LoadSecretsFromAWS(cfg, region, secretName); err != nil {
			log.Fatalf("Failed to load secrets: %v", err)
		}
	}
	if err := config.Validate(cfg); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	return cfg
}

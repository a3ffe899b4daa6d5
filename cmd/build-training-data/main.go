// Package main provides the historical training-data builder CLI.
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
		startDate  = flag.String("start-date", "", "Override backfill start date (YYYY-MM-DD)")
		endDate    = flag.String("end-date", "", "Override backfill end date (YYYY-MM-DD)")
		output     = flag.String("output", "", "Override output CSV path")
	)
	flag.Parse()

	bootLogger := logrus.New()
	cfg := loadConfigWithSecrets(*configPath, bootLogger)
	log := applogger.NewLogger(cfg.App.LogLevel, cfg.App.Environment)
	runLog := applogger.NewRunLogger(log, "build-training-data")

	start, end, err := cfg.TrainingRange()
	if err != nil {
		log.Fatalf("Invalid training range: %v", err)
	}
	start = overrideDate(start, *startDate, log)
	end = overrideDate(end, *endDate, log)

	outputPath := cfg.Artifacts.TrainingCSV
	if *output != "" {
		outputPath = *output
	}

	stats := datasource.NewStatsClientFromConfig(&cfg.StatsAPI, log)
	odds := datasource.NewOddsClientFromConfig(&cfg.OddsAPI, log)
	builder := features.NewBuilder(stats, odds, nil, features.DefaultVenueTable(), cfg.Training.FormWindowDays, runLog)

	runLog.WithFields(logrus.Fields{
		"start": start.Format("2006-01-02"),
		"end":   end.Format("2006-01-02"),
	}).Info("Starting historical backfill")

	rows, err := builder.BuildHistorical(context.Background(), start, end)
	if err != nil {
		log.Fatalf("Backfill failed: %v", err)
	}

	if err := features.WriteCSV(outputPath, rows); err != nil {
		log.Fatalf("Failed to write training data: %v", err)
	}
	metrics.FeatureRowsWrittenTotal.Add(float64(len(rows)))
	metrics.MarkRunComplete("build-training-data")
	runLog.LogRowsWritten(outputPath, len(rows))
}

func overrideDate(current time.Time, override string, log *logrus.Logger) time.Time {
	if override == "" {
		return current
	}
	parsed, err := time.Parse("2006-01-02", override)
	if err != nil {
		log.Fatalf("Invalid date override %q: %v", override, err)
	}
	return parsed
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

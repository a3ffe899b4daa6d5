// Package main provides the model training CLI.
package main

import (
	"flag"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/diamond-edge/internal/config"
	"github.com/yourusername/diamond-edge/internal/features"
	applogger "github.com/yourusername/diamond-edge/internal/logger"
	"github.com/yourusername/diamond-edge/internal/metrics"
	"github.com/yourusername/diamond-edge/internal/model"
)

func main() {
	var (
		configPath   = flag.String("config", "config/config.yaml", "Path to config file")
		input        = flag.String("input", "", "Override training CSV path")
		pipelinePath = flag.String("pipeline", "", "Override pipeline artifact path")
		featuresPath = flag.String("features", "", "Override feature-list artifact path")
	)
	flag.Parse()

	bootLogger := logrus.New()
	cfg := loadConfig(*configPath, bootLogger)
	log := applogger.NewLogger(cfg.App.LogLevel, cfg.App.Environment)
	runLog := applogger.NewRunLogger(log, "train-model")

	inputPath := cfg.Artifacts.TrainingCSV
	if *input != "" {
		inputPath = *input
	}
	outPipeline := cfg.Artifacts.PipelinePath
	if *pipelinePath != "" {
		outPipeline = *pipelinePath
	}
	outFeatures := cfg.Artifacts.FeatureListPath
	if *featuresPath != "" {
		outFeatures = *featuresPath
	}

	rows, err := features.ReadCSV(inputPath)
	if err != nil {
		log.Fatalf("Failed to read training data: %v", err)
	}

	pipe, report, err := model.Train(rows, model.TrainConfig{
		Estimators:        cfg.Training.Estimators,
		LearningRate:      cfg.Training.LearningRate,
		MaxDepth:          cfg.Training.MaxDepth,
		Subsample:         cfg.Training.Subsample,
		CalibrationMethod: cfg.Training.CalibrationMethod,
		Seed:              time.Now().UnixNano(),
	})
	if err != nil {
		log.Fatalf("Training failed: %v", err)
	}

	if err := pipe.Save(outPipeline); err != nil {
		log.Fatalf("Failed to save pipeline: %v", err)
	}
	if err := model.SaveFeatureList(outFeatures, pipe.FeatureOrder); err != nil {
		log.Fatalf("Failed to save feature list: %v", err)
	}

	metrics.MarkRunComplete("train-model")
	runLog.WithFields(logrus.Fields{
		"pipeline_id": report.PipelineID,
		"rows":        report.Rows,
		"dropped":     report.Dropped,
		"log_loss":    report.LogLoss,
		"brier":       report.Brier,
		"pipeline":    outPipeline,
		"features":    outFeatures,
	}).Info("Pipeline trained and saved")
}

func loadConfig(path string, log *logrus.Logger) *config.Config {
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

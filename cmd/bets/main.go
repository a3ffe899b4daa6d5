// Package main provides the bets CLI: prediction, outcome logging and
// recalibration against the persisted pipeline.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/diamond-edge/internal/betting"
	"github.com/yourusername/diamond-edge/internal/calibration"
	"github.com/yourusername/diamond-edge/internal/config"
	"github.com/yourusername/diamond-edge/internal/datasource"
	"github.com/yourusername/diamond-edge/internal/features"
	applogger "github.com/yourusername/diamond-edge/internal/logger"
	"github.com/yourusername/diamond-edge/internal/metrics"
	"github.com/yourusername/diamond-edge/internal/model"
)

var (
	configFile   string
	inputPath    string
	outputPath   string
	logPath      string
	pipelinePath string

	cfg *config.Config
	log *logrus.Logger
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "config/config.yaml", "Path to configuration file")

	predictCmd.Flags().StringVar(&inputPath, "input", "", "Override daily features CSV path")
	predictCmd.Flags().StringVar(&outputPath, "output", "", "Override bets CSV path")

	logOutcomesCmd.Flags().StringVar(&inputPath, "features", "", "Override daily features CSV path")
	logOutcomesCmd.Flags().StringVar(&logPath, "log", "", "Override calibration log path")

	recalibrateCmd.Flags().StringVar(&logPath, "log", "", "Override calibration log path")
	recalibrateCmd.Flags().StringVar(&pipelinePath, "pipeline", "", "Override pipeline artifact path")
}

var rootCmd = &cobra.Command{
	Use:   "bets",
	Short: "Moneyline bet suggestions from the trained win-probability pipeline",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
			region := os.Getenv("AWS_REGION")
			secretName := os.Getenv("AWS_SECRET_NAME")
			if region == "" || secretName == "" {
				return fmt.Errorf("AWS_REGION and AWS_SECRET_NAME must be set when AWS_SECRETS_ENABLED is true")
			}
			if err := config.LoadSecretsFromAWS(loaded, region, secretName); err != nil {
				return fmt.Errorf("failed to load secrets: %w", err)
			}
		}
		if err := config.Validate(loaded); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		cfg = loaded
		log = applogger.NewLogger(cfg.App.LogLevel, cfg.App.Environment)
		metrics.ConfiguredBankroll.Set(cfg.Betting.Bankroll)
		return nil
	},
}

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Build the bet table from today's feature rows",
	RunE: func(cmd *cobra.Command, args []string) error {
		runLog := applogger.NewRunLogger(log, "predict")

		featuresCSV := cfg.Artifacts.DailyFeaturesCSV
		if inputPath != "" {
			featuresCSV = inputPath
		}
		bets := cfg.Artifacts.BetsCSV
		if outputPath != "" {
			bets = outputPath
		}

		pipe, err := model.LoadPipeline(cfg.Artifacts.PipelinePath)
		if err != nil {
			return err
		}
		rows, err := features.ReadCSV(featuresCSV)
		if err != nil {
			return err
		}

		predictor := betting.NewPredictor(pipe,
			betting.Sizer{Bankroll: cfg.Betting.Bankroll, Multiplier: cfg.Betting.KellyMultiplier},
			betting.TierConfig{LowMax: cfg.Betting.RiskLowMax, MediumMax: cfg.Betting.RiskMediumMax},
			runLog)

		picks, err := predictor.BuildBetTable(rows)
		if err != nil {
			return err
		}
		if err := betting.WriteBetCSV(bets, picks); err != nil {
			return err
		}

		metrics.MarkRunComplete("predict")
		runLog.LogRowsWritten(bets, len(picks))
		return nil
	},
}

var logOutcomesCmd = &cobra.Command{
	Use:   "log-outcomes",
	Short: "Append realized outcomes and predictions to the calibration log",
	RunE: func(cmd *cobra.Command, args []string) error {
		runLog := applogger.NewRunLogger(log, "log-outcomes")

		featuresCSV := cfg.Artifacts.DailyFeaturesCSV
		if inputPath != "" {
			featuresCSV = inputPath
		}
		calibrationLog := cfg.Artifacts.CalibrationLogCSV
		if logPath != "" {
			calibrationLog = logPath
		}

		pipe, err := model.LoadPipeline(cfg.Artifacts.PipelinePath)
		if err != nil {
			return err
		}
		stats := datasource.NewStatsClientFromConfig(&cfg.StatsAPI, log)

		outcomeLogger := calibration.NewOutcomeLogger(stats, pipe, runLog)
		logged, err := outcomeLogger.Run(context.Background(), featuresCSV, calibrationLog)
		if err != nil {
			return err
		}

		metrics.MarkRunComplete("log-outcomes")
		runLog.WithField("rows", logged).Info("Outcomes logged")
		return nil
	},
}

var recalibrateCmd = &cobra.Command{
	Use:   "recalibrate",
	Short: "Refit the calibration stage on the outcome log",
	RunE: func(cmd *cobra.Command, args []string) error {
		runLog := applogger.NewRunLogger(log, "recalibrate")

		calibrationLog := cfg.Artifacts.CalibrationLogCSV
		if logPath != "" {
			calibrationLog = logPath
		}
		pipeline := cfg.Artifacts.PipelinePath
		if pipelinePath != "" {
			pipeline = pipelinePath
		}

		recal := calibration.NewRecalibrator(cfg.Training.CalibrationMethod, cfg.Training.MinCalibrationRows, runLog)
		report, err := recal.Run(pipeline, calibrationLog)
		if err != nil {
			return err
		}

		metrics.MarkRunComplete("recalibrate")
		runLog.WithFields(logrus.Fields{
			"rows":         report.Rows,
			"method":       report.Method,
			"brier_before": report.BrierBefore,
			"brier_after":  report.BrierAfter,
		}).Info("Pipeline recalibrated")
		return nil
	},
}

func main() {
	rootCmd.AddCommand(predictCmd, logOutcomesCmd, recalibrateCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

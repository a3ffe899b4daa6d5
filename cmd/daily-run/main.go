// Package main provides the daily-run daemon: a cron scheduler that builds
// features and bet suggestions each morning and logs realized outcomes the
// next day, with a Prometheus endpoint for monitoring.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/diamond-edge/internal/betting"
	"github.com/yourusername/diamond-edge/internal/calibration"
	"github.com/yourusername/diamond-edge/internal/config"
	"github.com/yourusername/diamond-edge/internal/datasource"
	"github.com/yourusername/diamond-edge/internal/features"
	applogger "github.com/yourusername/diamond-edge/internal/logger"
	"github.com/yourusername/diamond-edge/internal/metrics"
	"github.com/yourusername/diamond-edge/internal/model"
	"github.com/yourusername/diamond-edge/internal/scheduler"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "Path to config file")
	flag.Parse()

	bootLogger := logrus.New()
	cfg := loadConfigWithSecrets(*configPath, bootLogger)
	log := applogger.NewLogger(cfg.App.LogLevel, cfg.App.Environment)

	metrics.ConfiguredBankroll.Set(cfg.Betting.Bankroll)

	sched := scheduler.New(log)
	if err := sched.Register(scheduler.Job{
		Name: "daily-features-and-predict",
		Spec: cfg.Schedule.DailyFeaturesCron,
		Run:  func(ctx context.Context) error { return buildAndPredict(ctx, cfg, log) },
	}); err != nil {
		log.Fatalf("Failed to register job: %v", err)
	}
	if err := sched.Register(scheduler.Job{
		Name: "log-outcomes",
		Spec: cfg.Schedule.OutcomeLogCron,
		Run:  func(ctx context.Context) error { return logOutcomes(ctx, cfg, log) },
	}); err != nil {
		log.Fatalf("Failed to register job: %v", err)
	}

	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		metricsServer = metrics.NewServer(cfg.Metrics.Port, cfg.Metrics.Path)
		go func() {
			log.WithField("port", cfg.Metrics.Port).Info("Metrics server listening")
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Error("Metrics server stopped")
			}
		}()
	}

	sched.Start()
	log.WithFields(logrus.Fields{
		"daily_features_cron": cfg.Schedule.DailyFeaturesCron,
		"outcome_log_cron":    cfg.Schedule.OutcomeLogCron,
	}).Info("Scheduler started")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("Shutting down")
	<-sched.Stop().Done()
	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("Metrics server shutdown failed")
		}
	}
}

// buildAndPredict builds tomorrow's feature rows and writes the bet table
func buildAndPredict(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	runLog := applogger.NewRunLogger(log, "daily-features-and-predict")

	stats := datasource.NewStatsClientFromConfig(&cfg.StatsAPI, log)
	odds := datasource.NewOddsClientFromConfig(&cfg.OddsAPI, log)
	weather := datasource.NewWeatherClientFromConfig(&cfg.Weather, log)
	builder := features.NewBuilder(stats, odds, weather, features.DefaultVenueTable(), cfg.Training.FormWindowDays, runLog)

	gameDate := time.Now().AddDate(0, 0, 1)
	rows, err := builder.BuildDaily(ctx, gameDate)
	if err != nil {
		return err
	}
	if err := features.WriteCSV(cfg.Artifacts.DailyFeaturesCSV, rows); err != nil {
		return err
	}
	metrics.FeatureRowsWrittenTotal.Add(float64(len(rows)))
	runLog.LogRowsWritten(cfg.Artifacts.DailyFeaturesCSV, len(rows))

	pipe, err := model.LoadPipeline(cfg.Artifacts.PipelinePath)
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
	if err := betting.WriteBetCSV(cfg.Artifacts.BetsCSV, picks); err != nil {
		return err
	}
	runLog.LogRowsWritten(cfg.Artifacts.BetsCSV, len(picks))
	return nil
}

// logOutcomes appends realized outcomes for the last predicted slate
func logOutcomes(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	runLog := applogger.NewRunLogger(log, "log-outcomes")

	pipe, err := model.LoadPipeline(cfg.Artifacts.PipelinePath)
	if err != nil {
		return err
	}
	stats := datasource.NewStatsClientFromConfig(&cfg.StatsAPI, log)

	outcomeLogger := calibration.NewOutcomeLogger(stats, pipe, runLog)
	logged, err := outcomeLogger.Run(ctx, cfg.Artifacts.DailyFeaturesCSV, cfg.Artifacts.CalibrationLogCSV)
	if err != nil {
		return err
	}
	runLog.WithField("rows", logged).Info("Outcomes logged")
	return nil
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

package calibration

import (
	"context"
	"encoding/csv"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/diamond-edge/internal/datasource"
	"github.com/yourusername/diamond-edge/internal/features"
	"github.com/yourusername/diamond-edge/internal/logger"
	"github.com/yourusername/diamond-edge/internal/model"
)

func quietRunLogger() *logger.RunLogger {
	base := logrus.New()
	base.SetLevel(logrus.PanicLevel)
	return logger.NewRunLogger(base, "calibration-test")
}

// labeledRows builds separable feature rows: home wins when the home
// starter's ERA is below the away starter's.
func labeledRows(n int) []features.GameFeatures {
	rows := make([]features.GameFeatures, n)
	for i := range rows {
		row := features.NewGameFeatures()
		row.GamePk = int64(i + 1)
		row.Date = "2025-06-14"

		gap := float64(i%9) - 4
		era := 3.5 + gap/2
		oppEra := 3.5 - gap/2
		row.Features["home_sp_era"] = &era
		row.Features["away_sp_era"] = &oppEra

		target := 0
		if gap < 0 {
			target = 1
		}
		row.Target = &target
		rows[i] = row
	}
	return rows
}

func trainedPipeline(t *testing.T) *model.Pipeline {
	t.Helper()
	pipe, _, err := model.Train(labeledRows(160), model.TrainConfig{
		Estimators:        30,
		LearningRate:      0.1,
		MaxDepth:          2,
		Subsample:         1.0,
		CalibrationMethod: model.CalibrationIsotonic,
		Seed:              11,
	})
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	return pipe
}

func TestOutcomeLoggerAppendsRows(t *testing.T) {
	pipe := trainedPipeline(t)

	// two predicted games: one finished, one suspended
	daily := labeledRows(2)
	daily[0].GamePk = 100
	daily[1].GamePk = 200
	daily[0].Target = nil
	daily[1].Target = nil

	dir := t.TempDir()
	featuresPath := filepath.Join(dir, "daily.csv")
	if err := features.WriteCSV(featuresPath, daily); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"dates":[{"games":[
			{"gamePk":100,"gameDate":"2025-06-14T23:05:00Z",
			 "status":{"codedGameState":"F"},
			 "venue":{"name":"Fenway Park"},
			 "teams":{"home":{"team":{"id":111,"name":"A"}},"away":{"team":{"id":147,"name":"B"}}},
			 "linescore":{"teams":{"home":{"runs":4},"away":{"runs":6}}}},
			{"gamePk":200,"gameDate":"2025-06-14T23:05:00Z",
			 "status":{"codedGameState":"S"},
			 "venue":{"name":"Coors Field"},
			 "teams":{"home":{"team":{"id":115,"name":"C"}},"away":{"team":{"id":119,"name":"D"}}}}]}]}`))
	}))
	defer server.Close()

	cfg := datasource.DefaultHTTPClientConfig("test")
	cfg.RateLimit = 1000
	cfg.MaxRetries = 0
	base := logrus.New()
	base.SetLevel(logrus.PanicLevel)
	stats := datasource.NewStatsClient(datasource.NewRateLimitedHTTPClient(cfg, base), server.URL, time.Minute, base)

	outcomeLogger := NewOutcomeLogger(stats, pipe, quietRunLogger())
	logPath := filepath.Join(dir, "calibration_log.csv")

	logged, err := outcomeLogger.Run(context.Background(), featuresPath, logPath)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if logged != 2 {
		t.Fatalf("logged %d rows, want 2", logged)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("log has %d lines, want header + 2 rows", len(lines))
	}
	if !strings.HasSuffix(lines[0], "p_pred,y_true") {
		t.Fatalf("header = %q, want p_pred,y_true suffix", lines[0])
	}
	// game 100 finished with a home loss, game 200 never resolved
	if !strings.HasSuffix(lines[1], ",0") {
		t.Fatalf("resolved row = %q, want y_true 0", lines[1])
	}
	if !strings.HasSuffix(lines[2], ",") {
		t.Fatalf("unresolved row = %q, want empty y_true", lines[2])
	}

	// second run appends without repeating the header
	if _, err := outcomeLogger.Run(context.Background(), featuresPath, logPath); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	data, _ = os.ReadFile(logPath)
	lines = strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 5 {
		t.Fatalf("log has %d lines after second run, want 5", len(lines))
	}
	headerCount := 0
	for _, line := range lines {
		if strings.HasPrefix(line, "game_pk,") {
			headerCount++
		}
	}
	if headerCount != 1 {
		t.Fatalf("log has %d headers, want 1", headerCount)
	}
}

// writeLog renders a calibration log from labeled rows, using the
// pipeline's own predictions as p_pred.
func writeLog(t *testing.T, path string, pipe *model.Pipeline, rows []features.GameFeatures) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create log: %v", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := append(features.CSVHeader(), "p_pred", "y_true")
	if err := w.Write(header); err != nil {
		t.Fatalf("write header: %v", err)
	}
	for i := range rows {
		p, err := pipe.PredictProba(rows[i].Features)
		if err != nil {
			t.Fatalf("PredictProba: %v", err)
		}
		record := append(rows[i].Record(),
			strconv.FormatFloat(p, 'f', 6, 64),
			strconv.Itoa(*rows[i].Target),
		)
		if err := w.Write(record); err != nil {
			t.Fatalf("write row: %v", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		t.Fatalf("flush: %v", err)
	}
}

func TestRecalibratorSwapsCalibrator(t *testing.T) {
	pipe := trainedPipeline(t)
	dir := t.TempDir()

	pipelinePath := filepath.Join(dir, "pipeline.json")
	if err := pipe.Save(pipelinePath); err != nil {
		t.Fatalf("Save: %v", err)
	}

	logPath := filepath.Join(dir, "calibration_log.csv")
	writeLog(t, logPath, pipe, labeledRows(90))

	recal := NewRecalibrator(model.CalibrationSigmoid, 10, quietRunLogger())
	report, err := recal.Run(pipelinePath, logPath)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Rows != 90 || report.Method != model.CalibrationSigmoid {
		t.Fatalf("report = %+v", report)
	}

	reloaded, err := model.LoadPipeline(pipelinePath)
	if err != nil {
		t.Fatalf("LoadPipeline: %v", err)
	}
	if reloaded.Calibrator.Method != model.CalibrationSigmoid {
		t.Fatalf("calibrator method = %s, want sigmoid", reloaded.Calibrator.Method)
	}
	// the classifier itself must be untouched
	if reloaded.ID != pipe.ID || len(reloaded.Classifier.Trees) != len(pipe.Classifier.Trees) {
		t.Fatal("recalibration modified more than the calibrator stage")
	}
}

func TestRecalibratorIsotonicNeverWorsensOnLog(t *testing.T) {
	pipe := trainedPipeline(t)
	dir := t.TempDir()

	pipelinePath := filepath.Join(dir, "pipeline.json")
	if err := pipe.Save(pipelinePath); err != nil {
		t.Fatalf("Save: %v", err)
	}
	logPath := filepath.Join(dir, "calibration_log.csv")
	writeLog(t, logPath, pipe, labeledRows(120))

	recal := NewRecalibrator(model.CalibrationIsotonic, 10, quietRunLogger())
	report, err := recal.Run(pipelinePath, logPath)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// isotonic is the squared-error-optimal monotone fit on this very data
	if report.BrierAfter > report.BrierBefore+1e-9 {
		t.Fatalf("Brier worsened: %v -> %v", report.BrierBefore, report.BrierAfter)
	}
}

func TestRecalibratorTooFewRows(t *testing.T) {
	pipe := trainedPipeline(t)
	dir := t.TempDir()

	pipelinePath := filepath.Join(dir, "pipeline.json")
	if err := pipe.Save(pipelinePath); err != nil {
		t.Fatalf("Save: %v", err)
	}
	logPath := filepath.Join(dir, "calibration_log.csv")
	writeLog(t, logPath, pipe, labeledRows(5))

	recal := NewRecalibrator(model.CalibrationIsotonic, 200, quietRunLogger())
	if _, err := recal.Run(pipelinePath, logPath); !errors.Is(err, ErrTooFewOutcomes) {
		t.Fatalf("got %v, want ErrTooFewOutcomes", err)
	}
}

func TestRecalibratorMissingColumns(t *testing.T) {
	pipe := trainedPipeline(t)
	dir := t.TempDir()

	pipelinePath := filepath.Join(dir, "pipeline.json")
	if err := pipe.Save(pipelinePath); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// a plain features CSV has no p_pred/y_true columns
	logPath := filepath.Join(dir, "not_a_log.csv")
	if err := features.WriteCSV(logPath, labeledRows(3)); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	recal := NewRecalibrator(model.CalibrationIsotonic, 1, quietRunLogger())
	if _, err := recal.Run(pipelinePath, logPath); !errors.Is(err, ErrMissingLogColumns) {
		t.Fatalf("got %v, want ErrMissingLogColumns", err)
	}
}

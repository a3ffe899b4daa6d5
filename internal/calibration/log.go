// Package calibration closes the feedback loop: it appends realized game
// outcomes next to the probabilities that were predicted for them, and
// periodically refits the pipeline's calibration stage on that log.
package calibration

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/yourusername/diamond-edge/internal/datasource"
	"github.com/yourusername/diamond-edge/internal/features"
	"github.com/yourusername/diamond-edge/internal/logger"
	"github.com/yourusername/diamond-edge/internal/metrics"
	"github.com/yourusername/diamond-edge/internal/model"
)

// ErrNoFeatureRows is returned when the daily features CSV has no rows
var ErrNoFeatureRows = errors.New("daily features CSV has no rows")

// extra columns the calibration log carries beyond the feature artifact
var logExtraColumns = []string{"p_pred", "y_true"}

// OutcomeLogger appends one log row per predicted game: the full feature
// row, the probability the pipeline predicted, and the realized home-win
// outcome. Games that never went final are logged with an empty outcome so
// the prediction is still auditable.
type OutcomeLogger struct {
	stats    *datasource.StatsClient
	pipeline *model.Pipeline
	runLog   *logger.RunLogger
}

// NewOutcomeLogger creates an outcome logger
func NewOutcomeLogger(stats *datasource.StatsClient, pipeline *model.Pipeline, runLog *logger.RunLogger) *OutcomeLogger {
	return &OutcomeLogger{stats: stats, pipeline: pipeline, runLog: runLog}
}

// Run reads the daily features at featuresPath, joins realized outcomes by
// game_pk, and appends to the log at logPath. All rows are assumed to
// share one game date. Returns the number of rows appended.
func (l *OutcomeLogger) Run(ctx context.Context, featuresPath, logPath string) (int, error) {
	rows, err := features.ReadCSV(featuresPath)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, ErrNoFeatureRows
	}

	gameDate := rows[0].Date
	games, err := l.stats.Schedule(ctx, gameDate)
	if err != nil {
		return 0, fmt.Errorf("schedule for %s: %w", gameDate, err)
	}

	outcomes := make(map[int64]int)
	for _, g := range games {
		if !g.Final || g.HomeRuns == nil || g.AwayRuns == nil {
			continue
		}
		if *g.HomeRuns > *g.AwayRuns {
			outcomes[g.GamePk] = 1
		} else {
			outcomes[g.GamePk] = 0
		}
	}

	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return 0, fmt.Errorf("failed to create log directory: %w", err)
	}

	writeHeader := true
	if info, err := os.Stat(logPath); err == nil && info.Size() > 0 {
		writeHeader = false
	}

	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", logPath, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if writeHeader {
		header := append(features.CSVHeader(), logExtraColumns...)
		if err := w.Write(header); err != nil {
			return 0, fmt.Errorf("failed to write header: %w", err)
		}
	}

	logged := 0
	for i := range rows {
		row := &rows[i]

		pPred, err := l.pipeline.PredictProba(row.Features)
		if err != nil {
			return logged, fmt.Errorf("game %d: %w", row.GamePk, err)
		}

		yTrue := ""
		if outcome, ok := outcomes[row.GamePk]; ok {
			yTrue = strconv.Itoa(outcome)
		} else {
			l.runLog.WithField("game_pk", row.GamePk).Warn("No final outcome for game, logging empty y_true")
		}

		record := append(row.Record(),
			strconv.FormatFloat(pPred, 'f', 6, 64),
			yTrue,
		)
		if err := w.Write(record); err != nil {
			return logged, fmt.Errorf("failed to write row: %w", err)
		}
		logged++
		metrics.OutcomesLoggedTotal.Inc()
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return logged, fmt.Errorf("failed to flush %s: %w", logPath, err)
	}

	l.runLog.LogRowsWritten(logPath, logged)
	return logged, nil
}

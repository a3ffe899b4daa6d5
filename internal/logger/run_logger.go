// Package logger provides audit logging for pipeline runs.
package logger

import (
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RunLogger provides a dedicated audit trail for a single pipeline run.
// Every entry carries the run ID so daily artifacts can be traced back to
// the invocation that produced them.
type RunLogger struct {
	*logrus.Entry
	runID uuid.UUID
}

// NewRunLogger creates a new run logger for the named job
func NewRunLogger(baseLogger *logrus.Logger, job string) *RunLogger {
	runID := uuid.New()
	return &RunLogger{
		Entry: baseLogger.WithFields(logrus.Fields{
			"component": "pipeline",
			"job":       job,
			"run_id":    runID.String(),
		}),
		runID: runID,
	}
}

// RunID returns the unique identifier of this run
func (rl *RunLogger) RunID() uuid.UUID {
	return rl.runID
}

// LogFetch records a completed upstream fetch.
func (rl *RunLogger) LogFetch(provider, endpoint string, items int, elapsed time.Duration) {
	rl.WithFields(logrus.Fields{
		"provider": provider,
		"endpoint": endpoint,
		"items":    items,
		"elapsed":  elapsed.String(),
	}).Debug("Upstream fetch completed")
}

// LogRowsWritten records rows written to a flat-file artifact.
func (rl *RunLogger) LogRowsWritten(path string, rows int) {
	rl.WithFields(logrus.Fields{
		"path": path,
		"rows": rows,
	}).Info("Artifact written")
}

// LogPick records a suggested bet.
func (rl *RunLogger) LogPick(game, pick string, odds, modelP, impliedP, edge, stake float64, risk string) {
	rl.WithFields(logrus.Fields{
		"game":      game,
		"pick":      pick,
		"odds":      odds,
		"model_p":   modelP,
		"implied_p": impliedP,
		"edge":      edge,
		"stake":     stake,
		"risk":      risk,
	}).Info("Bet suggestion recorded")
}

// LogRecalibration records a calibrator swap with before/after Brier scores.
func (rl *RunLogger) LogRecalibration(method string, rows int, brierBefore, brierAfter float64) {
	rl.WithFields(logrus.Fields{
		"method":       method,
		"rows":         rows,
		"brier_before": brierBefore,
		"brier_after":  brierAfter,
	}).Info("Calibrator refit recorded")
}

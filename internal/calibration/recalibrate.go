package calibration

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/yourusername/diamond-edge/internal/logger"
	"github.com/yourusername/diamond-edge/internal/metrics"
	"github.com/yourusername/diamond-edge/internal/model"
)

// Errors from recalibration preconditions
var (
	ErrMissingLogColumns = errors.New("calibration log lacks p_pred or y_true columns")
	ErrTooFewOutcomes    = errors.New("not enough resolved outcomes to recalibrate")
)

// Report summarizes one recalibration run
type Report struct {
	Rows        int
	Method      string
	BrierBefore float64
	BrierAfter  float64
}

// Recalibrator refits only the calibration stage of a pipeline on the
// outcome log. The scaler and classifier are never touched: the log's
// feature columns are pushed through them to recover raw probabilities,
// and a fresh calibrator is fit on raw probability versus realized
// outcome, then swapped into the artifact.
type Recalibrator struct {
	method  string
	minRows int
	runLog  *logger.RunLogger
}

// NewRecalibrator creates a recalibrator using the given method and
// minimum number of resolved log rows.
func NewRecalibrator(method string, minRows int, runLog *logger.RunLogger) *Recalibrator {
	return &Recalibrator{method: method, minRows: minRows, runLog: runLog}
}

// logRow is one resolved calibration log entry
type logRow struct {
	features map[string]*float64
	pPred    float64
	yTrue    int
}

// Run reads the log at logPath, refits the calibrator, swaps it into the
// pipeline at pipelinePath and saves the artifact in place.
func (r *Recalibrator) Run(pipelinePath, logPath string) (Report, error) {
	pipe, err := model.LoadPipeline(pipelinePath)
	if err != nil {
		return Report{}, err
	}

	rows, err := readLog(logPath, pipe.FeatureOrder)
	if err != nil {
		return Report{}, err
	}
	if len(rows) < r.minRows {
		return Report{}, fmt.Errorf("%w: %d resolved rows, need %d", ErrTooFewOutcomes, len(rows), r.minRows)
	}

	logged := make([]float64, len(rows))
	y := make([]int, len(rows))
	raw := make([]float64, len(rows))
	for i, row := range rows {
		logged[i] = row.pPred
		y[i] = row.yTrue

		vector := make([]*float64, len(pipe.FeatureOrder))
		for j, name := range pipe.FeatureOrder {
			vector[j] = row.features[name]
		}
		scaled, err := pipe.Scaler.Transform(vector)
		if err != nil {
			return Report{}, err
		}
		raw[i] = pipe.Classifier.PredictRaw(scaled)
	}

	brierBefore, err := model.BrierScore(logged, y)
	if err != nil {
		return Report{}, err
	}

	calibrator, err := model.FitCalibrator(r.method, raw, y)
	if err != nil {
		return Report{}, fmt.Errorf("failed to fit calibrator: %w", err)
	}
	pipe.Calibrator = calibrator

	after := make([]float64, len(raw))
	for i, p := range raw {
		after[i] = calibrator.Calibrate(p)
	}
	brierAfter, err := model.BrierScore(after, y)
	if err != nil {
		return Report{}, err
	}

	if err := pipe.Save(pipelinePath); err != nil {
		return Report{}, err
	}

	metrics.CalibrationBrierScore.Set(brierAfter)
	r.runLog.LogRecalibration(r.method, len(rows), brierBefore, brierAfter)

	return Report{
		Rows:        len(rows),
		Method:      r.method,
		BrierBefore: brierBefore,
		BrierAfter:  brierAfter,
	}, nil
}

// readLog loads resolved rows (both p_pred and y_true present) from the
// calibration log, keeping only the named feature columns.
func readLog(path string, featureOrder []string) ([]logRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open calibration log %s: %w", path, err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse calibration log %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("calibration log %s is empty", path)
	}

	index := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		index[name] = i
	}
	pPredIdx, okP := index["p_pred"]
	yTrueIdx, okY := index["y_true"]
	if !okP || !okY {
		return nil, ErrMissingLogColumns
	}

	var rows []logRow
	for _, record := range records[1:] {
		if pPredIdx >= len(record) || yTrueIdx >= len(record) {
			continue
		}
		pPred, err := strconv.ParseFloat(record[pPredIdx], 64)
		if err != nil {
			continue
		}
		yTrue, err := strconv.Atoi(record[yTrueIdx])
		if err != nil {
			// unresolved outcome, skip
			continue
		}

		values := make(map[string]*float64, len(featureOrder))
		for _, name := range featureOrder {
			values[name] = nil
			if i, ok := index[name]; ok && i < len(record) && record[i] != "" {
				if v, err := strconv.ParseFloat(record[i], 64); err == nil {
					values[name] = &v
				}
			}
		}
		rows = append(rows, logRow{features: values, pPred: pPred, yTrue: yTrue})
	}
	return rows, nil
}

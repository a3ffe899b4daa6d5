package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/diamond-edge/internal/features"
)

// TrainConfig holds the hyperparameters for a full training run
type TrainConfig struct {
	Estimators        int
	LearningRate      float64
	MaxDepth          int
	Subsample         float64
	CalibrationMethod string
	Seed              int64
}

// TrainReport summarizes a completed training run on the training set
type TrainReport struct {
	PipelineID string
	Rows       int
	Dropped    int
	LogLoss    float64
	Brier      float64
}

// ErrNoLabeledRows is returned when the training input has no usable rows
var ErrNoLabeledRows = errors.New("no labeled rows in training data")

// Train fits the full pipeline on labeled feature rows. Meta, weather and
// label columns never enter the matrix; the model sees exactly the feature
// columns, in their canonical order. Rows without a label are dropped.
func Train(rows []features.GameFeatures, cfg TrainConfig) (*Pipeline, TrainReport, error) {
	order := features.FeatureColumns()

	var matrix [][]*float64
	var y []int
	dropped := 0
	for i := range rows {
		if rows[i].Target == nil {
			dropped++
			continue
		}
		vector := make([]*float64, len(order))
		for j, name := range order {
			vector[j] = rows[i].Feature(name)
		}
		matrix = append(matrix, vector)
		y = append(y, *rows[i].Target)
	}
	if len(matrix) == 0 {
		return nil, TrainReport{}, ErrNoLabeledRows
	}

	scaler := FitScaler(matrix, len(order))
	scaled, err := scaler.TransformAll(matrix)
	if err != nil {
		return nil, TrainReport{}, err
	}

	classifier := TrainClassifier(scaled, y, ClassifierConfig{
		Estimators:   cfg.Estimators,
		LearningRate: cfg.LearningRate,
		MaxDepth:     cfg.MaxDepth,
		Subsample:    cfg.Subsample,
		Seed:         cfg.Seed,
	})

	raw := make([]float64, len(scaled))
	for i := range scaled {
		raw[i] = classifier.PredictRaw(scaled[i])
	}

	calibrator, err := FitCalibrator(cfg.CalibrationMethod, raw, y)
	if err != nil {
		return nil, TrainReport{}, fmt.Errorf("failed to fit calibrator: %w", err)
	}

	pipeline := &Pipeline{
		SchemaVersion: SchemaVersion,
		ID:            uuid.New().String(),
		CreatedAt:     time.Now().UTC(),
		FeatureOrder:  order,
		Scaler:        scaler,
		Classifier:    classifier,
		Calibrator:    calibrator,
	}
	if err := pipeline.Validate(); err != nil {
		return nil, TrainReport{}, err
	}

	calibrated := make([]float64, len(raw))
	for i, p := range raw {
		calibrated[i] = calibrator.Calibrate(p)
	}
	logLoss, err := LogLoss(calibrated, y)
	if err != nil {
		return nil, TrainReport{}, err
	}
	brier, err := BrierScore(calibrated, y)
	if err != nil {
		return nil, TrainReport{}, err
	}

	return pipeline, TrainReport{
		PipelineID: pipeline.ID,
		Rows:       len(y),
		Dropped:    dropped,
		LogLoss:    logLoss,
		Brier:      brier,
	}, nil
}

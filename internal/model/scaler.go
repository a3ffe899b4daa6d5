// Package model implements the win-probability pipeline: a standard
// scaler, gradient-boosted trees on logistic loss, and a probability
// calibrator, persisted together as a versioned JSON artifact.
package model

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// StandardScaler standardizes each feature column to zero mean and unit
// variance. Statistics are fit over present values only; a missing value
// imputes to the column mean at transform time, which standardizes to zero.
type StandardScaler struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

// FitScaler computes per-column statistics. Columns with no present values
// or zero spread get std 1 so transform stays defined.
func FitScaler(rows [][]*float64, nFeatures int) *StandardScaler {
	scaler := &StandardScaler{
		Mean: make([]float64, nFeatures),
		Std:  make([]float64, nFeatures),
	}

	for col := 0; col < nFeatures; col++ {
		var present []float64
		for _, row := range rows {
			if row[col] != nil {
				present = append(present, *row[col])
			}
		}
		if len(present) == 0 {
			scaler.Std[col] = 1
			continue
		}
		scaler.Mean[col] = stat.Mean(present, nil)
		scaler.Std[col] = stat.PopStdDev(present, nil)
		if scaler.Std[col] == 0 {
			scaler.Std[col] = 1
		}
	}
	return scaler
}

// Transform standardizes one row, imputing missing values to the column mean
func (s *StandardScaler) Transform(row []*float64) ([]float64, error) {
	if len(row) != len(s.Mean) {
		return nil, fmt.Errorf("scaler fit on %d features, row has %d", len(s.Mean), len(row))
	}
	out := make([]float64, len(row))
	for col, v := range row {
		if v == nil {
			out[col] = 0
			continue
		}
		out[col] = (*v - s.Mean[col]) / s.Std[col]
	}
	return out, nil
}

// TransformAll standardizes a whole matrix
func (s *StandardScaler) TransformAll(rows [][]*float64) ([][]float64, error) {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		scaled, err := s.Transform(row)
		if err != nil {
			return nil, err
		}
		out[i] = scaled
	}
	return out, nil
}

package model

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Calibration methods accepted by the pipeline
const (
	CalibrationIsotonic = "isotonic"
	CalibrationSigmoid  = "sigmoid"
)

// ErrInsufficientCalibrationData is returned when a calibrator is fit on
// too few rows to be meaningful.
var ErrInsufficientCalibrationData = errors.New("insufficient calibration data")

// Calibrator maps a raw model probability to a calibrated one. Method
// selects the parameter set: isotonic uses the step function over
// Thresholds/Values, sigmoid uses the Platt coefficients A and B.
type Calibrator struct {
	Method     string    `json:"method"`
	Thresholds []float64 `json:"thresholds,omitempty"`
	Values     []float64 `json:"values,omitempty"`
	A          float64   `json:"a,omitempty"`
	B          float64   `json:"b,omitempty"`
}

// FitCalibrator fits the named method on raw predictions and 0/1 outcomes
func FitCalibrator(method string, pred []float64, y []int) (*Calibrator, error) {
	if len(pred) != len(y) {
		return nil, fmt.Errorf("calibration inputs disagree: %d predictions, %d outcomes", len(pred), len(y))
	}
	if len(pred) < 2 {
		return nil, ErrInsufficientCalibrationData
	}

	switch method {
	case CalibrationIsotonic:
		return fitIsotonic(pred, y), nil
	case CalibrationSigmoid:
		return fitSigmoid(pred, y), nil
	default:
		return nil, fmt.Errorf("unknown calibration method %q", method)
	}
}

// Calibrate maps one raw probability, clamped into (0, 1)
func (c *Calibrator) Calibrate(p float64) float64 {
	switch c.Method {
	case CalibrationIsotonic:
		return clampProb(c.isotonicValue(p))
	case CalibrationSigmoid:
		return clampProb(sigmoid(-(c.A*p + c.B)))
	}
	return clampProb(p)
}

// Validate checks that the parameter set matches the method
func (c *Calibrator) Validate() error {
	switch c.Method {
	case CalibrationIsotonic:
		if len(c.Thresholds) == 0 || len(c.Thresholds) != len(c.Values) {
			return fmt.Errorf("isotonic calibrator has %d thresholds and %d values", len(c.Thresholds), len(c.Values))
		}
	case CalibrationSigmoid:
		// any real coefficients are usable
	default:
		return fmt.Errorf("unknown calibration method %q", c.Method)
	}
	return nil
}

// isotonicValue evaluates the step function: the fitted value of the last
// block whose threshold does not exceed p.
func (c *Calibrator) isotonicValue(p float64) float64 {
	i := sort.SearchFloat64s(c.Thresholds, p)
	if i == len(c.Thresholds) || (i > 0 && c.Thresholds[i] > p) {
		i--
	}
	return c.Values[i]
}

// fitIsotonic runs pool-adjacent-violators over predictions sorted
// ascending, producing a monotone step function.
func fitIsotonic(pred []float64, y []int) *Calibrator {
	type pair struct {
		p float64
		y float64
	}
	pairs := make([]pair, len(pred))
	for i := range pred {
		pairs[i] = pair{p: pred[i], y: float64(y[i])}
	}
	sort.Slice(pairs, func(a, b int) bool { return pairs[a].p < pairs[b].p })

	type block struct {
		start  float64 // smallest prediction in the block
		sum    float64
		weight float64
	}
	var blocks []block
	for _, pr := range pairs {
		blocks = append(blocks, block{start: pr.p, sum: pr.y, weight: 1})
		for len(blocks) > 1 {
			last := len(blocks) - 1
			if blocks[last-1].sum/blocks[last-1].weight <= blocks[last].sum/blocks[last].weight {
				break
			}
			blocks[last-1].sum += blocks[last].sum
			blocks[last-1].weight += blocks[last].weight
			blocks = blocks[:last]
		}
	}

	cal := &Calibrator{Method: CalibrationIsotonic}
	for _, b := range blocks {
		cal.Thresholds = append(cal.Thresholds, b.start)
		cal.Values = append(cal.Values, b.sum/b.weight)
	}
	return cal
}

// fitSigmoid fits Platt scaling P(y=1|p) = 1/(1+exp(A·p+B)) by Newton
// iterations on the smoothed targets.
func fitSigmoid(pred []float64, y []int) *Calibrator {
	n := len(pred)
	pos, neg := 0, 0
	for _, label := range y {
		if label == 1 {
			pos++
		} else {
			neg++
		}
	}

	// Platt's target smoothing
	hi := (float64(pos) + 1) / (float64(pos) + 2)
	lo := 1 / (float64(neg) + 2)
	target := make([]float64, n)
	for i, label := range y {
		if label == 1 {
			target[i] = hi
		} else {
			target[i] = lo
		}
	}

	a, b := 0.0, math.Log((float64(neg)+1)/(float64(pos)+1))
	for iter := 0; iter < 100; iter++ {
		var g1, g2, h11, h12, h22 float64
		for i := 0; i < n; i++ {
			fApB := a*pred[i] + b
			p := 1 / (1 + math.Exp(fApB))
			d := target[i] - p
			w := p * (1 - p)
			g1 += pred[i] * d
			g2 += d
			h11 += pred[i] * pred[i] * w
			h12 += pred[i] * w
			h22 += w
		}
		h11 += 1e-12
		h22 += 1e-12

		det := h11*h22 - h12*h12
		if det == 0 {
			break
		}
		da := -(h22*g1 - h12*g2) / det
		db := -(h11*g2 - h12*g1) / det
		a += da
		b += db

		if math.Abs(da) < 1e-9 && math.Abs(db) < 1e-9 {
			break
		}
	}

	return &Calibrator{Method: CalibrationSigmoid, A: a, B: b}
}

package model

import (
	"fmt"
	"math"
)

// BrierScore is the mean squared error between predicted probabilities and
// 0/1 outcomes. Lower is better; 0.25 is the score of a constant 0.5.
func BrierScore(pred []float64, y []int) (float64, error) {
	if len(pred) == 0 || len(pred) != len(y) {
		return 0, fmt.Errorf("brier inputs disagree: %d predictions, %d outcomes", len(pred), len(y))
	}
	var sum float64
	for i, p := range pred {
		d := p - float64(y[i])
		sum += d * d
	}
	return sum / float64(len(pred)), nil
}

// LogLoss is the mean negative log-likelihood, with probabilities clamped
// away from 0 and 1.
func LogLoss(pred []float64, y []int) (float64, error) {
	if len(pred) == 0 || len(pred) != len(y) {
		return 0, fmt.Errorf("log loss inputs disagree: %d predictions, %d outcomes", len(pred), len(y))
	}
	var sum float64
	for i, p := range pred {
		p = clampProb(p)
		if y[i] == 1 {
			sum -= math.Log(p)
		} else {
			sum -= math.Log(1 - p)
		}
	}
	return sum / float64(len(pred)), nil
}

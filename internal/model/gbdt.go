package model

import (
	"math"
	"math/rand"
)

// ClassifierConfig holds the boosting hyperparameters
type ClassifierConfig struct {
	Estimators   int
	LearningRate float64
	MaxDepth     int
	Subsample    float64
	Seed         int64
}

// Classifier is a gradient-boosted ensemble of regression trees trained on
// logistic loss. Scores accumulate in log-odds space starting from the
// training-set base rate.
type Classifier struct {
	BaseScore    float64     `json:"base_score"`
	LearningRate float64     `json:"learning_rate"`
	NFeatures    int         `json:"n_features"`
	Trees        []*TreeNode `json:"trees"`
}

// TrainClassifier fits the ensemble on standardized rows and binary labels
func TrainClassifier(X [][]float64, y []int, cfg ClassifierConfig) *Classifier {
	n := len(X)

	// initial log-odds of the positive rate, clamped away from degeneracy
	pos := 0
	for _, label := range y {
		pos += label
	}
	rate := clampProb(float64(pos) / float64(n))
	base := math.Log(rate / (1 - rate))

	clf := &Classifier{
		BaseScore:    base,
		LearningRate: cfg.LearningRate,
		NFeatures:    len(X[0]),
	}

	scores := make([]float64, n)
	for i := range scores {
		scores[i] = base
	}

	grad := make([]float64, n)
	hess := make([]float64, n)
	rng := rand.New(rand.NewSource(cfg.Seed))

	for m := 0; m < cfg.Estimators; m++ {
		for i := range scores {
			p := sigmoid(scores[i])
			grad[i] = float64(y[i]) - p
			hess[i] = p * (1 - p)
		}

		indices := sampleIndices(rng, n, cfg.Subsample)
		tree := buildTree(X, grad, hess, indices, 0, cfg.MaxDepth)
		clf.Trees = append(clf.Trees, tree)

		for i := range scores {
			scores[i] += cfg.LearningRate * tree.Predict(X[i])
		}
	}

	return clf
}

// PredictRaw returns the uncalibrated win probability for one row
func (c *Classifier) PredictRaw(row []float64) float64 {
	score := c.BaseScore
	for _, tree := range c.Trees {
		score += c.LearningRate * tree.Predict(row)
	}
	return sigmoid(score)
}

// sampleIndices draws a subsample without replacement; fraction >= 1 keeps
// every row.
func sampleIndices(rng *rand.Rand, n int, fraction float64) []int {
	if fraction >= 1 || fraction <= 0 {
		indices := make([]int, n)
		for i := range indices {
			indices[i] = i
		}
		return indices
	}
	k := int(math.Ceil(fraction * float64(n)))
	if k < 2*minSamplesLeaf {
		k = min(n, 2*minSamplesLeaf)
	}
	perm := rng.Perm(n)
	return perm[:k]
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

const probEpsilon = 1e-6

func clampProb(p float64) float64 {
	switch {
	case p < probEpsilon:
		return probEpsilon
	case p > 1-probEpsilon:
		return 1 - probEpsilon
	}
	return p
}

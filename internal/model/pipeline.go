package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// SchemaVersion is the pipeline artifact schema this build reads and writes
const SchemaVersion = 1

// ErrFeatureOrderMismatch is returned when a prediction row does not carry
// the features the pipeline was trained on.
var ErrFeatureOrderMismatch = errors.New("feature order mismatch")

// Pipeline is the persisted win-probability model: the fitted scaler, the
// boosted ensemble and the calibrator, bound to the exact feature order
// they were trained on. The three stages are saved and loaded as one unit
// so they can never drift apart.
type Pipeline struct {
	SchemaVersion int             `json:"schema_version"`
	ID            string          `json:"id"`
	CreatedAt     time.Time       `json:"created_at"`
	FeatureOrder  []string        `json:"feature_order"`
	Scaler        *StandardScaler `json:"scaler"`
	Classifier    *Classifier     `json:"classifier"`
	Calibrator    *Calibrator     `json:"calibrator"`
}

// Validate checks the artifact's internal consistency
func (p *Pipeline) Validate() error {
	if p.SchemaVersion != SchemaVersion {
		return fmt.Errorf("unsupported schema version %d (want %d)", p.SchemaVersion, SchemaVersion)
	}
	if len(p.FeatureOrder) == 0 {
		return errors.New("pipeline has no feature order")
	}
	if p.Scaler == nil || p.Classifier == nil || p.Calibrator == nil {
		return errors.New("pipeline is missing a stage")
	}
	if len(p.Scaler.Mean) != len(p.FeatureOrder) || len(p.Scaler.Std) != len(p.FeatureOrder) {
		return fmt.Errorf("scaler fit on %d features, feature order has %d", len(p.Scaler.Mean), len(p.FeatureOrder))
	}
	if p.Classifier.NFeatures != len(p.FeatureOrder) {
		return fmt.Errorf("classifier fit on %d features, feature order has %d", p.Classifier.NFeatures, len(p.FeatureOrder))
	}
	if len(p.Classifier.Trees) == 0 {
		return errors.New("classifier has no trees")
	}
	return p.Calibrator.Validate()
}

// PredictProba returns the calibrated home-win probability for one feature
// row keyed by column name. Every trained feature must be present as a key;
// a nil value imputes to the column mean.
func (p *Pipeline) PredictProba(row map[string]*float64) (float64, error) {
	vector := make([]*float64, len(p.FeatureOrder))
	for i, name := range p.FeatureOrder {
		v, ok := row[name]
		if !ok {
			return 0, fmt.Errorf("%w: row lacks feature %q", ErrFeatureOrderMismatch, name)
		}
		vector[i] = v
	}

	scaled, err := p.Scaler.Transform(vector)
	if err != nil {
		return 0, err
	}
	raw := p.Classifier.PredictRaw(scaled)
	return p.Calibrator.Calibrate(raw), nil
}

// Save writes the artifact atomically: full write to a temp file in the
// same directory, then rename over the target.
func (p *Pipeline) Save(path string) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("refusing to save invalid pipeline: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode pipeline: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to move pipeline into place: %w", err)
	}
	return nil
}

// LoadPipeline reads and validates an artifact
func LoadPipeline(path string) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pipeline %s: %w", path, err)
	}
	var p Pipeline
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to decode pipeline %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pipeline %s: %w", path, err)
	}
	return &p, nil
}

// SaveFeatureList writes the ordered feature names as a JSON array
func SaveFeatureList(path string, features []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}
	data, err := json.MarshalIndent(features, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode feature list: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// LoadFeatureList reads an ordered feature name list
func LoadFeatureList(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read feature list %s: %w", path, err)
	}
	var features []string
	if err := json.Unmarshal(data, &features); err != nil {
		return nil, fmt.Errorf("failed to decode feature list %s: %w", path, err)
	}
	if len(features) == 0 {
		return nil, fmt.Errorf("feature list %s is empty", path)
	}
	return features, nil
}

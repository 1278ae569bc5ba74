// Package predictor wraps the trained regression artifact behind a single Predict call.
package predictor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/al-khabib/tashkent-city-transformers/pkg/models"
)

var (
	// ErrFeatureArity means the artifact expects a different number of features.
	// It is structural: every call will fail the same way.
	ErrFeatureArity = errors.New("feature arity mismatch")
	// ErrInvalidArtifact is returned when a model file cannot be used.
	ErrInvalidArtifact = errors.New("invalid model artifact")
)

// Predictor maps a feature vector to the district-scale peak load in MW.
// Implementations are read-only after construction and safe for concurrent use.
type Predictor interface {
	Predict(ctx context.Context, features models.FeatureVector) (float64, error)
}

// Describer is implemented by predictors that can name their source for /health.
type Describer interface {
	Describe() string
}

type artifactHeader struct {
	Type         string `json:"type"`
	FeatureCount int    `json:"feature_count"`
}

// Load reads a JSON model artifact and returns the matching predictor.
// Supported types are "linear" and "forest".
func Load(path string) (Predictor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("pre-trained model not found at %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes an artifact already in memory.
func Parse(data []byte) (Predictor, error) {
	var header artifactHeader
	if err := json.Unmarshal(data, &header); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
	}
	if header.FeatureCount != 0 && header.FeatureCount != models.FeatureCount {
		return nil, fmt.Errorf("%w: artifact expects %d features, engine provides %d",
			ErrFeatureArity, header.FeatureCount, models.FeatureCount)
	}

	switch header.Type {
	case "linear":
		var m LinearModel
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
		}
		if err := m.validate(); err != nil {
			return nil, err
		}
		return &m, nil
	case "forest":
		var m ForestModel
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
		}
		if err := m.validate(); err != nil {
			return nil, err
		}
		return &m, nil
	default:
		return nil, fmt.Errorf("%w: unknown model type %q", ErrInvalidArtifact, header.Type)
	}
}

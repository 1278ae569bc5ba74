package predictor

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/al-khabib/tashkent-city-transformers/pkg/models"
)

// LinearModel is intercept + coefficients·features.
type LinearModel struct {
	Intercept    float64   `json:"intercept"`
	Coefficients []float64 `json:"coefficients"`
}

func (m *LinearModel) validate() error {
	if len(m.Coefficients) != models.FeatureCount {
		return fmt.Errorf("%w: linear model has %d coefficients", ErrFeatureArity, len(m.Coefficients))
	}
	return nil
}

// Predict implements Predictor.
func (m *LinearModel) Predict(ctx context.Context, features models.FeatureVector) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := m.validate(); err != nil {
		return 0, err
	}
	return m.Intercept + floats.Dot(m.Coefficients, features.Slice()), nil
}

// Describe implements Describer.
func (m *LinearModel) Describe() string { return "linear" }

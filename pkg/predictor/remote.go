package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/al-khabib/tashkent-city-transformers/pkg/models"
)

// RemotePredictor calls an inference service that hosts the trained model.
//
//	POST {baseURL}/predict  {"features": [...]}  ->  {"prediction": 123.4}
type RemotePredictor struct {
	baseURL    string
	httpClient *http.Client
}

type remoteRequest struct {
	Features []float64 `json:"features"`
}

type remoteResponse struct {
	Prediction *float64 `json:"prediction"`
	Error      string   `json:"error,omitempty"`
}

// NewRemotePredictor returns a predictor backed by the service at baseURL.
func NewRemotePredictor(baseURL string, timeout time.Duration) *RemotePredictor {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &RemotePredictor{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Predict implements Predictor.
func (p *RemotePredictor) Predict(ctx context.Context, features models.FeatureVector) (float64, error) {
	payload, err := json.Marshal(remoteRequest{Features: features.Slice()})
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/predict", bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("inference service request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to read inference response: %w", err)
	}

	var out remoteResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return 0, fmt.Errorf("failed to decode inference response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode == http.StatusUnprocessableEntity {
		return 0, fmt.Errorf("%w: %s", ErrFeatureArity, out.Error)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("inference service returned status %d: %s", resp.StatusCode, out.Error)
	}
	if out.Prediction == nil {
		return 0, fmt.Errorf("inference response has no prediction")
	}
	return *out.Prediction, nil
}

// Describe implements Describer.
func (p *RemotePredictor) Describe() string { return "remote:" + p.baseURL }

package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/al-khabib/tashkent-city-transformers/pkg/models"
)

// CompanyAPIProvider fetches the time series from {base}/grid/historic.
type CompanyAPIProvider struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewCompanyAPIProvider returns a provider for the company grid API.
func NewCompanyAPIProvider(baseURL, token string, timeout time.Duration) *CompanyAPIProvider {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &CompanyAPIProvider{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Name returns "company_api".
func (p *CompanyAPIProvider) Name() string { return ProviderCompanyAPI }

// LoadAll fetches and normalizes every record. The payload may be a bare
// array or an object with a "data" array.
func (p *CompanyAPIProvider) LoadAll(ctx context.Context) ([]models.DistrictSnapshot, error) {
	if p.baseURL == "" {
		return nil, fmt.Errorf("COMPANY_API_BASE_URL is required when DATA_SOURCE_PROVIDER=company_api")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/grid/historic", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build company API request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch historic data from company API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read company API response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("company API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	records, err := extractRecords(body)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("company API returned no district records: %w", ErrNoRecords)
	}
	return NormalizeRecords(records)
}

func extractRecords(body []byte) ([]map[string]interface{}, error) {
	var payload interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode company API payload: %w", err)
	}

	var items []interface{}
	switch v := payload.(type) {
	case []interface{}:
		items = v
	case map[string]interface{}:
		if data, ok := v["data"].([]interface{}); ok {
			items = data
		}
	}

	records := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]interface{}); ok {
			records = append(records, m)
		}
	}
	return records, nil
}

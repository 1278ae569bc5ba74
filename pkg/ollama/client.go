package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrUnreachable is returned when the Ollama server cannot be reached or answers with a non-200 status.
var ErrUnreachable = errors.New("ollama unreachable")

// Client talks to a local Ollama server over its REST API.
type Client struct {
	baseURL    string
	llmModel   string
	embedModel string
	httpClient *http.Client
}

// NewClient returns a client for the server at baseURL.
func NewClient(baseURL, llmModel, embedModel string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		llmModel:   llmModel,
		embedModel: embedModel,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// BaseURL is the server address.
func (c *Client) BaseURL() string { return c.baseURL }

// LLMModel is the model used by Generate.
func (c *Client) LLMModel() string { return c.llmModel }

// GenerateRequest is the body of /api/generate.
type GenerateRequest struct {
	Model   string                 `json:"model"`
	Prompt  string                 `json:"prompt"`
	Stream  bool                   `json:"stream"`
	Options map[string]interface{} `json:"options,omitempty"`
}

// GenerateResponse is a non-streamed /api/generate reply.
type GenerateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// EmbeddingRequest is the body of /api/embeddings.
type EmbeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

// EmbeddingResponse carries one embedding vector.
type EmbeddingResponse struct {
	Embedding []float32 `json:"embedding"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Generate runs a single non-streamed completion.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	req := GenerateRequest{
		Model:   c.llmModel,
		Prompt:  prompt,
		Stream:  false,
		Options: map[string]interface{}{"temperature": 0.2},
	}

	var resp GenerateResponse
	if err := c.doRequest(ctx, "/api/generate", req, &resp); err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Response), nil
}

// Embed returns the embedding of text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if c.embedModel == "" {
		return nil, fmt.Errorf("embedding model is not configured")
	}

	var resp EmbeddingResponse
	if err := c.doRequest(ctx, "/api/embeddings", EmbeddingRequest{Model: c.embedModel, Prompt: text}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Embedding) == 0 {
		return nil, fmt.Errorf("ollama returned an empty embedding")
	}
	return resp.Embedding, nil
}

func (c *Client) doRequest(ctx context.Context, path string, requestData, responseData interface{}) error {
	body, err := json.Marshal(requestData)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w at %s: %v", ErrUnreachable, c.baseURL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp errorResponse
		if err := json.Unmarshal(data, &errResp); err == nil && errResp.Error != "" {
			return fmt.Errorf("%w (status: %d): %s", ErrUnreachable, resp.StatusCode, errResp.Error)
		}
		return fmt.Errorf("%w (status: %d): %s", ErrUnreachable, resp.StatusCode, string(data))
	}

	if err := json.Unmarshal(data, responseData); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	var got GenerateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" || r.Method != http.MethodPost {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_ = json.NewEncoder(w).Encode(GenerateResponse{Model: got.Model, Response: "  Load is fine.\n", Done: true})
	}))
	defer server.Close()

	c := NewClient(server.URL+"/", "llama3.1:8b", "nomic-embed-text")
	answer, err := c.Generate(context.Background(), "How is Chilonzor?")
	require.NoError(t, err)
	assert.Equal(t, "Load is fine.", answer)
	assert.Equal(t, "llama3.1:8b", got.Model)
	assert.Equal(t, "How is Chilonzor?", got.Prompt)
	assert.False(t, got.Stream)
	assert.Equal(t, server.URL, c.BaseURL())
}

func TestEmbed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req EmbeddingRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Model != "nomic-embed-text" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(EmbeddingResponse{Embedding: []float32{0.1, 0.2, 0.3}})
	}))
	defer server.Close()

	vec, err := NewClient(server.URL, "llama3.1:8b", "nomic-embed-text").Embed(context.Background(), "policy text")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)

	_, err = NewClient(server.URL, "llama3.1:8b", "").Embed(context.Background(), "policy text")
	assert.Error(t, err)
}

func TestServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model 'llama3.1:8b' not found"}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL, "llama3.1:8b", "").Generate(context.Background(), "hi")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnreachable))
	assert.Contains(t, err.Error(), "not found")
}

func TestUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewClient(url, "llama3.1:8b", "").Generate(context.Background(), "hi")
	assert.True(t, errors.Is(err, ErrUnreachable))
}

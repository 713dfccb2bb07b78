// Package tei is an embedding client for Text Embeddings Inference servers.
// See: https://github.com/huggingface/text-embeddings-inference
package tei

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/embedding"
)

const defaultTimeout = 30 * time.Second

// Config holds configuration for the TEI embedder.
type Config struct {
	// BaseURL is the TEI server URL (e.g., "http://localhost:8080")
	BaseURL string

	// Model is optional; TEI usually serves a single model.
	Model string

	Timeout time.Duration
}

// Embedder implements embedding.Embedder against a TEI server. It prefers
// the OpenAI-compatible /v1/embeddings route and falls back to /embed.
type Embedder struct {
	baseURL string
	model   string
	client  *http.Client
}

type openAIRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model,omitempty"`
}

type openAIDatum struct {
	Embedding []float64 `json:"embedding"`
	Index     int       `json:"index"`
}

type openAIResponse struct {
	Data  []openAIDatum `json:"data"`
	Model string        `json:"model"`
}

type nativeRequest struct {
	Inputs   []string `json:"inputs"`
	Truncate bool     `json:"truncate,omitempty"`
}

// NewEmbedder creates a new TEI embedder.
func NewEmbedder(_ context.Context, cfg *Config) (*Embedder, error) {
	if cfg == nil || cfg.BaseURL == "" {
		return nil, fmt.Errorf("TEI base URL is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Embedder{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

// EmbedStrings implements embedding.Embedder.
func (e *Embedder) EmbedStrings(ctx context.Context, texts []string, _ ...embedding.Option) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors, err := e.embedOpenAI(ctx, texts)
	if err == nil {
		return vectors, nil
	}
	vectors, nativeErr := e.embedNative(ctx, texts)
	if nativeErr != nil {
		return nil, fmt.Errorf("TEI embedding failed: %w (openai route: %v)", nativeErr, err)
	}
	return vectors, nil
}

func (e *Embedder) embedOpenAI(ctx context.Context, texts []string) ([][]float64, error) {
	var resp openAIResponse
	if err := e.post(ctx, "/v1/embeddings", openAIRequest{Input: texts, Model: e.model}, &resp); err != nil {
		return nil, err
	}
	vectors := make([][]float64, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return nil, fmt.Errorf("embedding index %d out of range", d.Index)
		}
		vectors[d.Index] = d.Embedding
	}
	for i, v := range vectors {
		if v == nil {
			return nil, fmt.Errorf("missing embedding for input %d", i)
		}
	}
	return vectors, nil
}

func (e *Embedder) embedNative(ctx context.Context, texts []string) ([][]float64, error) {
	var vectors [][]float64
	if err := e.post(ctx, "/embed", nativeRequest{Inputs: texts, Truncate: true}, &vectors); err != nil {
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("got %d embeddings for %d inputs", len(vectors), len(texts))
	}
	return vectors, nil
}

func (e *Embedder) post(ctx context.Context, route string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+route, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("TEI returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Dimensions probes the server with a single input and returns the vector
// length.
func (e *Embedder) Dimensions(ctx context.Context) (int, error) {
	vectors, err := e.EmbedStrings(ctx, []string{"dimension probe"})
	if err != nil {
		return 0, err
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return 0, fmt.Errorf("empty embedding returned")
	}
	return len(vectors[0]), nil
}

var _ embedding.Embedder = (*Embedder)(nil)

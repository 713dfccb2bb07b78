package relevance

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

const defaultExamplesLimit = 5

// ExamplesRequest asks for code similar to a text.
type ExamplesRequest struct {
	Text  string `json:"text" validate:"required"`
	Limit int    `json:"limit" validate:"gte=0,lte=100"`
}

// Examples is the similarity-ranked answer to an ExamplesRequest.
type Examples struct {
	Text           string     `json:"text"`
	Neighbors      []Neighbor `json:"neighbors"`
	Degraded       bool       `json:"degraded,omitempty"`
	DegradedReason string     `json:"degraded_reason,omitempty"`
}

// FindExamples returns code similar to text. It fails with
// ErrProviderUnavailable when no neighbor provider is configured; provider
// errors and an empty index yield a degraded result instead.
func (e *Engine) FindExamples(ctx context.Context, text string, limit int) (*Examples, error) {
	req := ExamplesRequest{Text: strings.TrimSpace(text), Limit: limit}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if e.neighbors == nil {
		return nil, newProviderUnavailable("embedding", "find examples")
	}
	if req.Limit == 0 {
		req.Limit = defaultExamplesLimit
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	out := &Examples{Text: req.Text, Neighbors: []Neighbor{}}
	resp, err := e.neighbors.FindSimilar(ctx, req.Text, req.Limit)
	if err != nil {
		slog.Warn("find examples failed", "error", err)
		out.Degraded = true
		out.DegradedReason = fmt.Sprintf("similarity search failed: %v", err)
		return out, nil
	}

	if len(resp.Neighbors) > req.Limit {
		resp.Neighbors = resp.Neighbors[:req.Limit]
	}
	if resp.Neighbors != nil {
		out.Neighbors = resp.Neighbors
	}
	out.Degraded = resp.Degraded
	out.DegradedReason = resp.DegradedReason
	return out, nil
}

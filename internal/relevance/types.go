/*
Package relevance turns ranked context packs into a budgeted, tiered answer
for an agent: essential, contextual and reference knowledge plus the blind
spots the retrieval could not cover.
*/
package relevance

import (
	"strings"

	"github.com/josephgoksu/ContextWing/internal/llm"
)

// Item kinds.
const (
	KindContextPack    = "context_pack"
	KindLearnedMissing = "learned_missing"
)

// KnowledgeItem is one retrieved unit of knowledge.
type KnowledgeItem struct {
	ID           string   `json:"id"`
	Summary      string   `json:"summary"`
	Confidence   float64  `json:"confidence"`
	RelatedFiles []string `json:"related_files,omitempty"`
	Kind         string   `json:"kind"`
}

// TokenCost estimates the tokens the item costs an agent to read.
func (k KnowledgeItem) TokenCost() int {
	if len(k.RelatedFiles) == 0 {
		return llm.EstimateTokens(k.Summary)
	}
	return llm.EstimateTokens(k.Summary + "\n" + strings.Join(k.RelatedFiles, "\n"))
}

// Tiers are priority buckets, each ordered by confidence.
type Tiers struct {
	Essential  []KnowledgeItem `json:"essential"`
	Contextual []KnowledgeItem `json:"contextual"`
	Reference  []KnowledgeItem `json:"reference"`
}

// Len returns the number of items across all tiers.
func (t Tiers) Len() int {
	return len(t.Essential) + len(t.Contextual) + len(t.Reference)
}

// Risk grades a blind spot.
type Risk string

const (
	RiskHigh   Risk = "high"
	RiskMedium Risk = "medium"
	RiskLow    Risk = "low"
)

// BlindSpot is an area of the intent or hints with no supporting evidence.
type BlindSpot struct {
	Area       string `json:"area"`
	Reason     string `json:"reason"`
	Risk       Risk   `json:"risk"`
	Suggestion string `json:"suggestion,omitempty"`
}

// Request is one relevance query.
type Request struct {
	Intent string   `json:"intent" validate:"required"`
	Hints  []string `json:"hints,omitempty"`
	Budget Budget   `json:"budget"`
}

// Result is the tiered answer to a Request.
type Result struct {
	Intent         string      `json:"intent"`
	Depth          string      `json:"depth"`
	Tiers          Tiers       `json:"tiers"`
	BlindSpots     []BlindSpot `json:"blind_spots"`
	Confidence     float64     `json:"confidence"`
	TokensUsed     int         `json:"tokens_used"`
	Degraded       bool        `json:"degraded,omitempty"`
	DegradedReason string      `json:"degraded_reason,omitempty"`
}

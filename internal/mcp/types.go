// Package mcp implements the MCP tools that expose retrieval to agents.
package mcp

// Tool names.
const (
	ToolRelevance     = "relevance"
	ToolLearnMissing  = "learn_missing"
	ToolRecordOutcome = "record_outcome"
	ToolFindExamples  = "find_examples"
	ToolScorePair     = "score_pair"
)

// RelevanceParams defines the parameters for the relevance tool.
type RelevanceParams struct {
	// Intent is what the agent is about to do.
	// Required.
	Intent string `json:"intent"`

	// Hints are areas the agent expects to touch (file paths or topics).
	// Each hint without supporting knowledge becomes a blind spot.
	Hints []string `json:"hints,omitempty"`

	// MaxFiles caps the number of returned items (default: 20).
	MaxFiles int `json:"max_files,omitempty"`

	// MaxTokens caps the estimated token cost (default: 40000).
	MaxTokens int `json:"max_tokens,omitempty"`

	// MaxDepth selects the retrieval depth tier, 0-3 (default: 2).
	MaxDepth *int `json:"max_depth,omitempty"`
}

// LearnMissingParams defines the parameters for the learn_missing tool.
type LearnMissingParams struct {
	// TaskID identifies the task that lacked context.
	TaskID string `json:"task_id,omitempty"`

	// Missing lists the context the task needed but did not get.
	// Required.
	Missing []string `json:"missing"`
}

// RecordOutcomeParams defines the parameters for the record_outcome tool.
type RecordOutcomeParams struct {
	// TaskID identifies the finished task.
	// Required.
	TaskID string `json:"task_id"`

	// Status is one of: success, failure, partial.
	Status string `json:"status"`

	// MissingContext lists context the task needed but did not get.
	MissingContext []string `json:"missing_context,omitempty"`

	// ContextUsed lists the context the task was given.
	ContextUsed []string `json:"context_used,omitempty"`
}

// FindExamplesParams defines the parameters for the find_examples tool.
type FindExamplesParams struct {
	// Text describes the code to find examples of.
	// Required.
	Text string `json:"text"`

	// Limit is the maximum number of examples (default: 5).
	Limit int `json:"limit,omitempty"`
}

// ScorePairParams defines the parameters for the score_pair tool.
type ScorePairParams struct {
	// PathA and PathB are the files to compare.
	// Required.
	PathA string `json:"path_a"`
	PathB string `json:"path_b"`

	// Semantic is the raw embedding similarity of the pair, -1 to 1.
	Semantic float64 `json:"semantic"`
}

// ToolResult is the markdown answer of a tool. Error is set for failures
// the agent should see and correct.
type ToolResult struct {
	Tool    string `json:"tool"`
	Content string `json:"content"`
	Error   string `json:"error,omitempty"`
}

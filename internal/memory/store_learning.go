package memory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RecordLearnedMissing stores that taskID reported missing as absent from
// its context. Repeats for the same task are ignored.
func (s *SQLiteStore) RecordLearnedMissing(ctx context.Context, missing, taskID string) error {
	missing = strings.TrimSpace(missing)
	if missing == "" {
		return fmt.Errorf("record learned missing: empty context")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO learned_missing (id, context, task_id, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(context, task_id) DO NOTHING
	`, "lm-"+uuid.New().String()[:8], missing, taskID, nowString())
	if err != nil {
		return fmt.Errorf("insert learned missing: %w", err)
	}
	return nil
}

// GetLearnedMissing returns each distinct learned context once, in the
// order it was first reported.
func (s *SQLiteStore) GetLearnedMissing(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT context FROM learned_missing
		GROUP BY context
		ORDER BY MIN(created_at), context
	`)
	if err != nil {
		return nil, fmt.Errorf("query learned missing: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan learned missing: %w", err)
		}
		out = append(out, c)
	}
	if err := checkRowsErr(rows); err != nil {
		return nil, err
	}
	return out, nil
}

// Outcome is a stored task outcome.
type Outcome struct {
	ID             string    `json:"id"`
	TaskID         string    `json:"task_id"`
	Status         string    `json:"status"`
	MissingContext []string  `json:"missing_context"`
	ContextUsed    []string  `json:"context_used"`
	CreatedAt      time.Time `json:"created_at"`
}

// RecordOutcome appends a task outcome to the audit trail.
func (s *SQLiteStore) RecordOutcome(ctx context.Context, taskID, status string, missing, contextUsed []string) error {
	missingJSON, err := encodeStrings(missing)
	if err != nil {
		return fmt.Errorf("encode missing context: %w", err)
	}
	usedJSON, err := encodeStrings(contextUsed)
	if err != nil {
		return fmt.Errorf("encode context used: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO outcomes (id, task_id, status, missing_context, context_used, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, "oc-"+uuid.New().String()[:8], taskID, status, missingJSON, usedJSON, nowString())
	if err != nil {
		return fmt.Errorf("insert outcome: %w", err)
	}
	return nil
}

// ListOutcomes returns outcomes for taskID, or all outcomes when taskID is
// empty, oldest first.
func (s *SQLiteStore) ListOutcomes(ctx context.Context, taskID string) ([]Outcome, error) {
	query := `SELECT id, task_id, status, missing_context, context_used, created_at FROM outcomes`
	var args []any
	if taskID != "" {
		query += ` WHERE task_id = ?`
		args = append(args, taskID)
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Outcome
	for rows.Next() {
		var o Outcome
		var missing, used, createdAt string
		if err := rows.Scan(&o.ID, &o.TaskID, &o.Status, &missing, &used, &createdAt); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		if o.MissingContext, err = decodeStrings(missing); err != nil {
			return nil, fmt.Errorf("decode missing context: %w", err)
		}
		if o.ContextUsed, err = decodeStrings(used); err != nil {
			return nil, fmt.Errorf("decode context used: %w", err)
		}
		o.CreatedAt = parseTime(createdAt)
		out = append(out, o)
	}
	if err := checkRowsErr(rows); err != nil {
		return nil, err
	}
	return out, nil
}

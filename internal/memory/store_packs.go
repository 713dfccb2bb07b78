package memory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrPackNotFound is returned when a context pack does not exist.
var ErrPackNotFound = errors.New("context pack not found")

// PackRecord is a stored context pack with its optional embedding.
type PackRecord struct {
	ID           string    `json:"id"`
	Summary      string    `json:"summary"`
	RelatedFiles []string  `json:"related_files"`
	Embedding    []float32 `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UpsertContextPack inserts or replaces a context pack. A nil embedding
// keeps the stored one.
func (s *SQLiteStore) UpsertContextPack(ctx context.Context, p PackRecord) error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("upsert context pack: empty id")
	}
	related, err := encodeStrings(p.RelatedFiles)
	if err != nil {
		return fmt.Errorf("encode related files: %w", err)
	}
	var embedding any // NULL keeps the stored embedding
	if len(p.Embedding) > 0 {
		embedding = float32SliceToBytes(p.Embedding)
	}
	now := nowString()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO context_packs (id, summary, related_files, embedding, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			summary = excluded.summary,
			related_files = excluded.related_files,
			embedding = COALESCE(excluded.embedding, context_packs.embedding),
			updated_at = excluded.updated_at
	`, p.ID, p.Summary, related, embedding, now, now)
	if err != nil {
		return fmt.Errorf("upsert context pack: %w", err)
	}
	return nil
}

// UpdatePackEmbedding sets the embedding of an existing pack.
func (s *SQLiteStore) UpdatePackEmbedding(ctx context.Context, id string, embedding []float32) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE context_packs SET embedding = ?, updated_at = ? WHERE id = ?",
		float32SliceToBytes(embedding), nowString(), id)
	if err != nil {
		return fmt.Errorf("update pack embedding: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrPackNotFound, id)
	}
	return nil
}

// GetContextPack returns one pack by ID.
func (s *SQLiteStore) GetContextPack(ctx context.Context, id string) (*PackRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, summary, related_files, embedding, created_at, updated_at
		FROM context_packs WHERE id = ?
	`, id)
	p, err := scanPack(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrPackNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ListContextPacks returns all packs ordered by ID.
func (s *SQLiteStore) ListContextPacks(ctx context.Context) ([]PackRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, summary, related_files, embedding, created_at, updated_at
		FROM context_packs ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("query context packs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var packs []PackRecord
	for rows.Next() {
		p, err := scanPack(rows.Scan)
		if err != nil {
			return nil, err
		}
		packs = append(packs, *p)
	}
	if err := checkRowsErr(rows); err != nil {
		return nil, err
	}
	return packs, nil
}

func scanPack(scan func(dest ...any) error) (*PackRecord, error) {
	var p PackRecord
	var related, createdAt, updatedAt string
	var embedding []byte
	if err := scan(&p.ID, &p.Summary, &related, &embedding, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan context pack: %w", err)
	}
	var err error
	if p.RelatedFiles, err = decodeStrings(related); err != nil {
		return nil, fmt.Errorf("decode related files for %s: %w", p.ID, err)
	}
	if len(embedding) > 0 {
		p.Embedding = bytesToFloat32Slice(embedding)
	}
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	return &p, nil
}

// DeleteContextPacks removes every pack and returns how many were removed.
func (s *SQLiteStore) DeleteContextPacks(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM context_packs")
	if err != nil {
		return 0, fmt.Errorf("delete context packs: %w", err)
	}
	return res.RowsAffected()
}

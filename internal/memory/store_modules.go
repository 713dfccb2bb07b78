package memory

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/josephgoksu/ContextWing/internal/graph"
)

// SaveModules upserts module records in one transaction.
func (s *SQLiteStore) SaveModules(ctx context.Context, modules []graph.ModuleRecord) error {
	if len(modules) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO modules (file_path, module_name, language, imports, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(file_path) DO UPDATE SET
			module_name = excluded.module_name,
			language = excluded.language,
			imports = excluded.imports,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("prepare module upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	now := nowString()
	for _, m := range modules {
		path := graph.NormalizePath(m.FilePath)
		if path == "" {
			return fmt.Errorf("save module: %w", graph.ErrEmptyFilePath)
		}
		imports, err := encodeStrings(m.Imports)
		if err != nil {
			return fmt.Errorf("encode imports for %s: %w", path, err)
		}
		if _, err := stmt.ExecContext(ctx, path, m.ModuleName, m.Language, imports, now); err != nil {
			return fmt.Errorf("upsert module %s: %w", path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit modules: %w", err)
	}
	return nil
}

// GetModules returns all module records ordered by path.
func (s *SQLiteStore) GetModules(ctx context.Context) ([]graph.ModuleRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT file_path, module_name, language, imports
		FROM modules ORDER BY file_path
	`)
	if err != nil {
		return nil, fmt.Errorf("query modules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var modules []graph.ModuleRecord
	for rows.Next() {
		var m graph.ModuleRecord
		var imports string
		if err := rows.Scan(&m.FilePath, &m.ModuleName, &m.Language, &imports); err != nil {
			return nil, fmt.Errorf("scan module: %w", err)
		}
		if m.Imports, err = decodeStrings(imports); err != nil {
			return nil, fmt.Errorf("decode imports for %s: %w", m.FilePath, err)
		}
		modules = append(modules, m)
	}
	if err := checkRowsErr(rows); err != nil {
		return nil, err
	}
	return modules, nil
}

// CountModules returns the number of stored module records.
func (s *SQLiteStore) CountModules(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM modules").Scan(&n); err != nil {
		return 0, fmt.Errorf("count modules: %w", err)
	}
	return n, nil
}

// SaveGraphMetrics replaces all stored graph metrics.
func (s *SQLiteStore) SaveGraphMetrics(ctx context.Context, metrics map[string]graph.FileMetrics) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM graph_metrics"); err != nil {
		return fmt.Errorf("clear graph metrics: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO graph_metrics (file_path, in_degree, out_degree, centrality, computed_at)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare metrics insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	now := nowString()
	for path, m := range metrics {
		if _, err := stmt.ExecContext(ctx, path, m.InDegree, m.OutDegree, m.Centrality, now); err != nil {
			return fmt.Errorf("insert metrics for %s: %w", path, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit graph metrics: %w", err)
	}
	return nil
}

// GetGraphMetrics returns stored metrics for paths. Unknown paths are
// absent from the result; an empty paths slice returns every row.
func (s *SQLiteStore) GetGraphMetrics(ctx context.Context, paths []string) (map[string]graph.FileMetrics, error) {
	out := make(map[string]graph.FileMetrics, len(paths))

	if len(paths) == 0 {
		rows, err := s.db.QueryContext(ctx, `
			SELECT file_path, in_degree, out_degree, centrality FROM graph_metrics
		`)
		if err != nil {
			return nil, fmt.Errorf("query graph metrics: %w", err)
		}
		defer func() { _ = rows.Close() }()
		for rows.Next() {
			var m graph.FileMetrics
			if err := rows.Scan(&m.FilePath, &m.InDegree, &m.OutDegree, &m.Centrality); err != nil {
				return nil, fmt.Errorf("scan graph metrics: %w", err)
			}
			out[m.FilePath] = m
		}
		if err := checkRowsErr(rows); err != nil {
			return nil, err
		}
		return out, nil
	}

	stmt, err := s.db.PrepareContext(ctx, `
		SELECT file_path, in_degree, out_degree, centrality
		FROM graph_metrics WHERE file_path = ?
	`)
	if err != nil {
		return nil, fmt.Errorf("prepare metrics lookup: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, p := range paths {
		if _, done := out[p]; done {
			continue
		}
		var m graph.FileMetrics
		err := stmt.QueryRowContext(ctx, p).Scan(&m.FilePath, &m.InDegree, &m.OutDegree, &m.Centrality)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("lookup metrics for %s: %w", p, err)
		}
		out[p] = m
	}
	return out, nil
}

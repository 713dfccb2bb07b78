package memory

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DBFile is the database file name under the memory base path.
const DBFile = "memory.db"

// SQLiteStore persists module metadata, graph metrics, context packs and
// the learning loop's history.
type SQLiteStore struct {
	db       *sql.DB
	basePath string
}

// NewSQLiteStore opens (and creates if needed) the store under basePath.
// basePath ":memory:" opens an in-memory database.
func NewSQLiteStore(basePath string) (*SQLiteStore, error) {
	var dbPath string
	if basePath == ":memory:" {
		dbPath = ":memory:"
	} else {
		dbPath = filepath.Join(basePath, DBFile)

		if err := os.MkdirAll(basePath, 0755); err != nil {
			return nil, fmt.Errorf("create memory directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if basePath == ":memory:" {
		// Every pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	store := &SQLiteStore{
		db:       db,
		basePath: basePath,
	}

	if err := store.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return store, nil
}

// initSchema creates the database tables if they don't exist.
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Per-file import metadata; the dependency graph is rebuilt from it.
	CREATE TABLE IF NOT EXISTS modules (
		file_path TEXT PRIMARY KEY,
		module_name TEXT NOT NULL DEFAULT '',
		language TEXT NOT NULL DEFAULT '',
		imports TEXT NOT NULL DEFAULT '[]',   -- JSON array of file paths
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS graph_metrics (
		file_path TEXT PRIMARY KEY,
		in_degree INTEGER NOT NULL DEFAULT 0,
		out_degree INTEGER NOT NULL DEFAULT 0,
		centrality REAL NOT NULL DEFAULT 0,
		computed_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS context_packs (
		id TEXT PRIMARY KEY,
		summary TEXT NOT NULL,
		related_files TEXT NOT NULL DEFAULT '[]',
		embedding BLOB,                       -- float32 little-endian
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS learned_missing (
		id TEXT PRIMARY KEY,
		context TEXT NOT NULL,
		task_id TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		UNIQUE(context, task_id)
	);

	CREATE TABLE IF NOT EXISTS outcomes (
		id TEXT PRIMARY KEY,
		task_id TEXT NOT NULL,
		status TEXT NOT NULL CHECK (status IN ('success', 'failure', 'partial')),
		missing_context TEXT NOT NULL DEFAULT '[]',
		context_used TEXT NOT NULL DEFAULT '[]',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_modules_module ON modules(module_name);
	CREATE INDEX IF NOT EXISTS idx_learned_missing_created ON learned_missing(created_at);
	CREATE INDEX IF NOT EXISTS idx_outcomes_task ON outcomes(task_id);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return nil
}

// BasePath returns the memory directory the store was opened in.
func (s *SQLiteStore) BasePath() string {
	return s.basePath
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckRowsErr_SuccessfulIteration(t *testing.T) {
	store := setupTestStore(t)

	rows, err := store.db.Query("SELECT 1 UNION SELECT 2 UNION SELECT 3")
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	count := 0
	for rows.Next() {
		var v int
		require.NoError(t, rows.Scan(&v))
		count++
	}
	assert.Equal(t, 3, count)
	assert.NoError(t, checkRowsErr(rows))
}

func TestCheckRowsErr_EmptyResult(t *testing.T) {
	store := setupTestStore(t)

	rows, err := store.db.Query("SELECT 1 WHERE 1=0")
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		t.Fatal("expected no rows")
	}
	assert.NoError(t, checkRowsErr(rows))
}

// Every list query must surface errors from a closed database.
func TestListQueries_ClosedDB(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name     string
		contains string
		call     func(s *SQLiteStore) error
	}{
		{"GetModules", "modules", func(s *SQLiteStore) error {
			_, err := s.GetModules(ctx)
			return err
		}},
		{"GetGraphMetrics", "metrics", func(s *SQLiteStore) error {
			_, err := s.GetGraphMetrics(ctx, nil)
			return err
		}},
		{"ListContextPacks", "pack", func(s *SQLiteStore) error {
			_, err := s.ListContextPacks(ctx)
			return err
		}},
		{"GetLearnedMissing", "learned", func(s *SQLiteStore) error {
			_, err := s.GetLearnedMissing(ctx)
			return err
		}},
		{"ListOutcomes", "outcome", func(s *SQLiteStore) error {
			_, err := s.ListOutcomes(ctx, "")
			return err
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store, err := NewSQLiteStore(t.TempDir())
			require.NoError(t, err)
			require.NoError(t, store.Close())

			err = tc.call(store)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.contains)
		})
	}
}

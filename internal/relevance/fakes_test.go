package relevance

import (
	"context"
	"errors"
	"sync"

	"github.com/josephgoksu/ContextWing/internal/graph"
)

type fakeRetriever struct {
	resp  RetrievalResponse
	err   error
	block bool

	mu    sync.Mutex
	calls []RetrievalQuery
}

func (f *fakeRetriever) Query(ctx context.Context, q RetrievalQuery) (RetrievalResponse, error) {
	f.mu.Lock()
	f.calls = append(f.calls, q)
	f.mu.Unlock()
	if f.block {
		<-ctx.Done()
		return RetrievalResponse{}, ctx.Err()
	}
	return f.resp, f.err
}

type fakeStore struct {
	mu        sync.Mutex
	learned   []string
	records   []persistJob
	loadErr   error
	recordErr error
	metrics   map[string]graph.FileMetrics
	outcomes  []string
	modules   []graph.ModuleRecord
}

func (s *fakeStore) RecordLearnedMissing(_ context.Context, missing, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, persistJob{missing: missing, taskID: taskID})
	return s.recordErr
}

func (s *fakeStore) GetLearnedMissing(context.Context) ([]string, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.learned, nil
}

func (s *fakeStore) GetModules(context.Context) ([]graph.ModuleRecord, error) {
	return s.modules, nil
}

func (s *fakeStore) GetGraphMetrics(_ context.Context, paths []string) (map[string]graph.FileMetrics, error) {
	if s.metrics == nil {
		return nil, errors.New("metrics unavailable")
	}
	return s.metrics, nil
}

func (s *fakeStore) RecordOutcome(_ context.Context, taskID, status string, _, _ []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcomes = append(s.outcomes, taskID+":"+status)
	return nil
}

func (s *fakeStore) recorded() []persistJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]persistJob(nil), s.records...)
}

type fakeNeighbors struct {
	resp NeighborResponse
	err  error
}

func (f *fakeNeighbors) FindSimilar(_ context.Context, _ string, _ int) (NeighborResponse, error) {
	return f.resp, f.err
}

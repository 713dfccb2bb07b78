package relevance

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
)

const (
	defaultLearnedQueueSize = 64
	defaultPersistTimeout   = 5 * time.Second
)

type persistJob struct {
	missing string
	taskID  string
}

// LearnedMissing is the set of context identifiers agents reported as
// missing. The in-memory set is authoritative; writes to the store are
// best-effort and happen on a single worker goroutine.
type LearnedMissing struct {
	store   LearnedStore
	timeout time.Duration

	mu      sync.RWMutex
	order   []string
	entries map[string]struct{}
	closed  bool

	jobs chan persistJob
	done chan struct{}
	once sync.Once
}

// NewLearnedMissing creates the set. A nil store keeps it memory-only.
// queueSize <= 0 uses a default.
func NewLearnedMissing(store LearnedStore, queueSize int) *LearnedMissing {
	if queueSize <= 0 {
		queueSize = defaultLearnedQueueSize
	}
	l := &LearnedMissing{
		store:   store,
		timeout: defaultPersistTimeout,
		entries: make(map[string]struct{}),
		done:    make(chan struct{}),
	}
	if store == nil {
		close(l.done)
		return l
	}
	l.jobs = make(chan persistJob, queueSize)
	go l.persistLoop()
	return l
}

// Load seeds the set from the store and returns how many new entries were
// added. Failures are logged and leave the set as it was.
func (l *LearnedMissing) Load(ctx context.Context) int {
	if l.store == nil {
		return 0
	}
	stored, err := l.store.GetLearnedMissing(ctx)
	if err != nil {
		slog.Warn("load learned missing context failed", "error", err)
		return 0
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	added := 0
	for _, m := range stored {
		if l.insertLocked(m) {
			added++
		}
	}
	slog.Debug("loaded learned missing context", "stored", len(stored), "added", added)
	return added
}

// Add records missing entries for taskID and queues them for persistence.
// It returns the entries that were new to the set.
func (l *LearnedMissing) Add(taskID string, missing ...string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	var added []string
	for _, m := range missing {
		m = strings.TrimSpace(m)
		if m == "" {
			continue
		}
		if l.insertLocked(m) {
			added = append(added, m)
		}
		l.enqueueLocked(persistJob{missing: m, taskID: taskID})
	}
	return added
}

func (l *LearnedMissing) insertLocked(m string) bool {
	m = strings.TrimSpace(m)
	if m == "" {
		return false
	}
	if _, ok := l.entries[m]; ok {
		return false
	}
	l.entries[m] = struct{}{}
	l.order = append(l.order, m)
	return true
}

// enqueueLocked never blocks: a full queue drops the write.
func (l *LearnedMissing) enqueueLocked(job persistJob) {
	if l.jobs == nil || l.closed {
		return
	}
	select {
	case l.jobs <- job:
	default:
		slog.Warn("learned missing persistence queue full, dropping write",
			"missing", job.missing, "task_id", job.taskID)
	}
}

func (l *LearnedMissing) persistLoop() {
	defer close(l.done)
	for job := range l.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
		if err := l.store.RecordLearnedMissing(ctx, job.missing, job.taskID); err != nil {
			slog.Warn("persist learned missing context failed",
				"missing", job.missing, "task_id", job.taskID, "error", err)
		}
		cancel()
	}
}

// Contains reports whether m is in the set.
func (l *LearnedMissing) Contains(m string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.entries[strings.TrimSpace(m)]
	return ok
}

// Snapshot returns the entries in insertion order.
func (l *LearnedMissing) Snapshot() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]string(nil), l.order...)
}

// Len returns the number of entries.
func (l *LearnedMissing) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.order)
}

// Close stops accepting writes and waits for queued writes to finish or
// for ctx to end.
func (l *LearnedMissing) Close(ctx context.Context) error {
	l.once.Do(func() {
		l.mu.Lock()
		l.closed = true
		if l.jobs != nil {
			close(l.jobs)
		}
		l.mu.Unlock()
	})
	select {
	case <-l.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

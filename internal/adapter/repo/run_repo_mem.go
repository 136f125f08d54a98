package repo

import (
	"context"
	"sync"
	"time"

	"rockstar/internal/domain"
)

// RunStoreMem is an in-memory domain.RunStore for tests and the memory
// driver. Bookkeeping held here does not survive a restart; tracking simply
// misses those runs.
type RunStoreMem struct {
	mu      sync.Mutex
	runs    map[string]domain.Run
	pending map[string]bool
	sent    map[string]bool
}

func NewRunStoreMem() *RunStoreMem {
	return &RunStoreMem{
		runs:    make(map[string]domain.Run),
		pending: make(map[string]bool),
		sent:    make(map[string]bool),
	}
}

func (s *RunStoreMem) SaveRun(_ context.Context, run domain.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	s.runs[run.ID] = run
	s.pending[run.ID] = true
	return nil
}

func (s *RunStoreMem) GetRun(_ context.Context, runID string) (domain.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[runID]
	if !ok {
		return domain.Run{}, domain.ErrNotFound
	}
	run.Sent = s.sent[runID]
	return run, nil
}

func (s *RunStoreMem) PendingRuns(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.pending))
	for id := range s.pending {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *RunStoreMem) RemovePending(_ context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, runID)
	return nil
}

func (s *RunStoreMem) DeleteRun(_ context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.runs, runID)
	return nil
}

func (s *RunStoreMem) MarkSent(_ context.Context, runID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sent[runID] {
		return false, nil
	}
	s.sent[runID] = true
	return true, nil
}

func (s *RunStoreMem) ClearSent(_ context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sent, runID)
	return nil
}

// IsPending reports pending-set membership; test helper.
func (s *RunStoreMem) IsPending(runID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending[runID]
}

var _ domain.RunStore = (*RunStoreMem)(nil)

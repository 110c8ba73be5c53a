package runstore

import (
	"context"
	"sort"
	"sync"

	"clinkerplan/pkg/domain"
)

// MemoryStore хранилище планов в памяти. Используется, когда база
// отключена в конфигурации, и в тестах.
type MemoryStore struct {
	mu   sync.RWMutex
	runs map[string]*domain.SolvedRun
}

// NewMemoryStore создаёт пустое хранилище в памяти
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: make(map[string]*domain.SolvedRun)}
}

func (s *MemoryStore) Save(_ context.Context, run *domain.SolvedRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *run
	s.runs[run.ID] = &copied
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*domain.SolvedRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, ErrRunNotFound
	}
	copied := *run
	return &copied, nil
}

func (s *MemoryStore) List(_ context.Context, opts *ListOptions) ([]*RunSummary, int64, error) {
	opts = normalizeListOptions(opts)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*domain.SolvedRun
	for _, run := range s.runs {
		if opts.OptimizationType != "" && run.OptimizationType != opts.OptimizationType {
			continue
		}
		if opts.OnlySuccessful && !run.Success() {
			continue
		}
		matched = append(matched, run)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	start := opts.Offset
	if start > len(matched) {
		start = len(matched)
	}
	end := start + opts.Limit
	if end > len(matched) {
		end = len(matched)
	}

	result := make([]*RunSummary, 0, end-start)
	for _, run := range matched[start:end] {
		result = append(result, summaryOf(run))
	}
	return result, total, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[id]; !ok {
		return ErrRunNotFound
	}
	delete(s.runs, id)
	return nil
}

func (s *MemoryStore) SaveAnalytics(_ context.Context, id string, analytics *domain.Analytics) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[id]
	if !ok {
		return ErrRunNotFound
	}
	run.Analytics = analytics
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

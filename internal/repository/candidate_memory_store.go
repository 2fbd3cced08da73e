package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/stemsi/interview-sim/internal/model"
)

// MemoryCandidateStore keeps candidate sessions in process memory.
type MemoryCandidateStore struct {
	mu         sync.RWMutex
	candidates map[string]*model.Candidate
	now        func() time.Time
}

// NewMemoryCandidateStore creates an empty MemoryCandidateStore.
func NewMemoryCandidateStore() *MemoryCandidateStore {
	return &MemoryCandidateStore{
		candidates: make(map[string]*model.Candidate),
		now:        time.Now,
	}
}

func (s *MemoryCandidateStore) Create(_ context.Context, c *model.Candidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.candidates[c.ID]; ok {
		return ErrCandidateExists
	}
	s.candidates[c.ID] = c.Clone()
	return nil
}

func (s *MemoryCandidateStore) Get(_ context.Context, id string) (*model.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.candidates[id]
	if !ok {
		return nil, ErrCandidateNotFound
	}
	return c.Clone(), nil
}

func (s *MemoryCandidateStore) Merge(_ context.Context, u model.CandidateUpdate) (*model.Candidate, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.candidates[u.ID]
	if !ok {
		return nil, false, nil
	}
	u.Apply(c, s.now())
	return c.Clone(), true, nil
}

func (s *MemoryCandidateStore) Reset(ctx context.Context, id string) (*model.Candidate, bool, error) {
	return s.Merge(ctx, model.ResetUpdate(id))
}

func (s *MemoryCandidateStore) List(_ context.Context) ([]model.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Candidate, 0, len(s.candidates))
	for _, c := range s.candidates {
		out = append(out, *c.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryCandidateStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.candidates, id)
	return nil
}

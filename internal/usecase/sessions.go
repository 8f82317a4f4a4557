package usecase

import (
	"context"
	"sync"

	repo "cv-builder/internal/adapter/repository"
)

// Sessions hands out one Editor per identity. The identity map is the only
// lock-protected state; documents themselves are swapped atomically.
type Sessions struct {
	mu      sync.Mutex
	editors map[string]*Editor
	store   repo.DocumentStore
	opts    []EditorOption
}

func NewSessions(store repo.DocumentStore, opts ...EditorOption) *Sessions {
	return &Sessions{editors: map[string]*Editor{}, store: store, opts: opts}
}

// Get returns the editor for subject, loading its document on first use.
func (s *Sessions) Get(ctx context.Context, subject string) *Editor {
	key := repo.StorageKey(subject)
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.editors[key]; ok {
		return e
	}
	e := OpenEditor(ctx, s.store, key, s.opts...)
	s.editors[key] = e
	return e
}

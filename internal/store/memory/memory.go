// Package memory is the in-memory Repository used for tests and for
// running the backend without external storage.
package memory

import (
	"context"
	"sync"

	"seikyu/backend/internal/domain"
	"seikyu/backend/internal/store"
)

type Store struct {
	mu       sync.RWMutex
	counters map[string]int
	history  []domain.Document
}

func New() *Store {
	return &Store{counters: map[string]int{}}
}

func (s *Store) IncrementDayCounter(_ context.Context, dateKey string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counters[dateKey]++
	return s.counters[dateKey], nil
}

func (s *Store) AppendDocument(_ context.Context, doc domain.Document) error {
	if doc.Number == "" {
		return store.ErrInvalidDocument
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = append([]domain.Document{doc}, s.history...)
	s.history = store.Prune(s.history)
	return nil
}

func (s *Store) ListDocuments(_ context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Document, len(s.history))
	copy(out, s.history)
	return out, nil
}

func (s *Store) GetDocumentByNumber(_ context.Context, number string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.history {
		if s.history[i].Number == number {
			doc := s.history[i]
			return &doc, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) RemoveDocumentAt(_ context.Context, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.history) {
		return store.ErrIndexOutOfRange
	}
	s.history = append(s.history[:index], s.history[index+1:]...)
	return nil
}

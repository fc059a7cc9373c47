package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"tradejournal/internal/ports"
)

// Store is an in-process ports.KeyValueStore. Contents vanish on exit; it backs
// JOURNAL_STORAGE=memory and the unit tests.
type Store struct {
	mu   sync.RWMutex
	data map[string]string

	// FailWrites makes Set and Delete return it, for exercising persist failures.
	FailWrites error
}

var _ ports.KeyValueStore = (*Store)(nil)

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{data: make(map[string]string)}
}

func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *Store) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites != nil {
		return s.FailWrites
	}
	s.data[key] = value
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites != nil {
		return s.FailWrites
	}
	delete(s.data, key)
	return nil
}

func (s *Store) Keys(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *Store) Close() error { return nil }

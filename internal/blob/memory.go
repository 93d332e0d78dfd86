package blob

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// MemoryStore implements Store in memory for tests and development.
type MemoryStore struct {
	mu sync.RWMutex

	objects map[string][]byte

	// FailDeletes makes DeletePrefix return an error, for exercising the
	// best-effort purge path in tests.
	FailDeletes bool
}

// NewMemoryStore creates an empty in-memory object store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

// Upload stores the object and returns a memory:// URL.
func (s *MemoryStore) Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("failed to read object body: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data

	return "memory://" + key, nil
}

// DeletePrefix removes every object under the prefix.
func (s *MemoryStore) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailDeletes {
		return 0, fmt.Errorf("simulated object store failure")
	}

	count := 0
	for key := range s.objects {
		if strings.HasPrefix(key, prefix) {
			delete(s.objects, key)
			count++
		}
	}

	return count, nil
}

// Keys returns the stored object keys. Exposed for tests.
func (s *MemoryStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.objects))
	for key := range s.objects {
		keys = append(keys, key)
	}
	return keys
}

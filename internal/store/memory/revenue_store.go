package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/meridianaudio/meridian/internal/models"
	"github.com/meridianaudio/meridian/internal/store"
)

// RevenueStore implements store.RevenueStore using in-memory storage.
type RevenueStore struct {
	mu sync.RWMutex

	entries []*models.RevenueEntry
}

// NewRevenueStore creates a new in-memory revenue store.
func NewRevenueStore() *RevenueStore {
	return &RevenueStore{}
}

// Add inserts a revenue entry. Exposed for tests and seed data; production
// entries arrive through the settlement pipeline, not this core.
func (s *RevenueStore) Add(entry *models.RevenueEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *entry
	s.entries = append(s.entries, &clone)
}

// List returns the entries admitted by the filter, newest period first.
func (s *RevenueStore) List(ctx context.Context, filter store.RevenueFilter) ([]*models.RevenueEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.RevenueEntry
	for _, entry := range s.entries {
		if !filter.Scope.Contains(entry.LabelID) {
			continue
		}
		if filter.From != nil && entry.Period.Before(*filter.From) {
			continue
		}
		if filter.To != nil && entry.Period.After(*filter.To) {
			continue
		}
		clone := *entry
		result = append(result, &clone)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Period.After(result[j].Period)
	})

	return result, nil
}

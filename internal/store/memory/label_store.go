package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/meridianaudio/meridian/internal/models"
	"github.com/meridianaudio/meridian/internal/store"
)

// LabelStore implements store.LabelStore using in-memory storage.
// This implementation is for testing and development - data is lost on restart.
type LabelStore struct {
	mu sync.RWMutex

	labels map[uuid.UUID]*models.Label // label_id -> Label
}

// NewLabelStore creates a new in-memory label store.
func NewLabelStore() *LabelStore {
	return &LabelStore{
		labels: make(map[uuid.UUID]*models.Label),
	}
}

// Create creates a new label in memory. The parent, when set, must already
// exist; this is what keeps the hierarchy acyclic.
func (s *LabelStore) Create(ctx context.Context, label *models.Label) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.labels[label.LabelID]; exists {
		return store.ErrLabelAlreadyExists
	}
	if label.ParentLabelID != nil {
		if _, exists := s.labels[*label.ParentLabelID]; !exists {
			return store.ErrLabelNotFound
		}
	}

	clone := *label
	s.labels[label.LabelID] = &clone

	return nil
}

// Get retrieves a label by ID.
func (s *LabelStore) Get(ctx context.Context, labelID uuid.UUID) (*models.Label, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	label, exists := s.labels[labelID]
	if !exists {
		return nil, store.ErrLabelNotFound
	}

	clone := *label
	return &clone, nil
}

// Update updates an existing label.
func (s *LabelStore) Update(ctx context.Context, label *models.Label) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.labels[label.LabelID]; !exists {
		return store.ErrLabelNotFound
	}

	label.UpdatedAt = time.Now()

	clone := *label
	s.labels[label.LabelID] = &clone

	return nil
}

// Delete deletes a label by ID. Child labels are not removed or reparented.
func (s *LabelStore) Delete(ctx context.Context, labelID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.labels[labelID]; !exists {
		return store.ErrLabelNotFound
	}

	delete(s.labels, labelID)

	// Orphan direct children: they become root labels.
	for _, label := range s.labels {
		if label.ParentLabelID != nil && *label.ParentLabelID == labelID {
			label.ParentLabelID = nil
		}
	}

	return nil
}

// List returns all labels admitted by the scope.
func (s *LabelStore) List(ctx context.Context, scope store.Scope) ([]*models.Label, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.Label
	for _, label := range s.labels {
		if !scope.Contains(label.LabelID) {
			continue
		}
		clone := *label
		result = append(result, &clone)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})

	return result, nil
}

// DescendantIDs returns the label and all its transitive descendants via a
// breadth-first walk over the child relation. The hierarchy is acyclic by
// construction, so the walk terminates. An unknown root yields a singleton
// set rather than an error.
func (s *LabelStore) DescendantIDs(ctx context.Context, rootLabelID uuid.UUID) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := map[uuid.UUID]bool{rootLabelID: true}
	result := []uuid.UUID{rootLabelID}
	frontier := []uuid.UUID{rootLabelID}

	for len(frontier) > 0 {
		var next []uuid.UUID
		for _, label := range s.labels {
			if label.ParentLabelID == nil || seen[label.LabelID] {
				continue
			}
			for _, parent := range frontier {
				if *label.ParentLabelID == parent {
					seen[label.LabelID] = true
					result = append(result, label.LabelID)
					next = append(next, label.LabelID)
					break
				}
			}
		}
		frontier = next
	}

	return result, nil
}

// Search returns labels whose name contains the query (case-insensitive).
func (s *LabelStore) Search(ctx context.Context, query string) ([]*models.Label, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := strings.ToLower(query)
	var result []*models.Label
	for _, label := range s.labels {
		if strings.Contains(strings.ToLower(label.Name), q) {
			clone := *label
			result = append(result, &clone)
		}
	}

	return result, nil
}

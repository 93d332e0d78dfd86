// Package hierarchy computes tenant authorization scopes over the label
// forest. A scope is a label plus all its transitive descendants; it bounds
// everything a partner principal may see or touch.
package hierarchy

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/meridianaudio/meridian/internal/store"
)

// Scope is a set of label IDs.
type Scope map[uuid.UUID]struct{}

// Contains reports whether the scope includes the label.
func (s Scope) Contains(labelID uuid.UUID) bool {
	_, ok := s[labelID]
	return ok
}

// IDs returns the scope's members as a slice.
func (s Scope) IDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	return ids
}

// StoreScope converts the scope into a store query scope.
func (s Scope) StoreScope() store.Scope {
	return store.ScopeTo(s.IDs()...)
}

// Resolver computes descendant scopes. Resolution is request-scoped and
// uncached: the label tree is small and a cache would need invalidation on
// every label create or reparent.
type Resolver struct {
	labels store.LabelStore
}

// NewResolver creates a resolver over the given label store.
func NewResolver(labels store.LabelStore) *Resolver {
	return &Resolver{labels: labels}
}

// DescendantScope returns the set containing rootLabelID and every transitive
// descendant. The label graph is acyclic by construction, so the underlying
// walk terminates. An unknown root yields a singleton scope, not an error:
// downstream queries simply match nothing.
func (r *Resolver) DescendantScope(ctx context.Context, rootLabelID uuid.UUID) (Scope, error) {
	ids, err := r.labels.DescendantIDs(ctx, rootLabelID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve descendant scope: %w", err)
	}

	scope := make(Scope, len(ids))
	for _, id := range ids {
		scope[id] = struct{}{}
	}
	scope[rootLabelID] = struct{}{}

	return scope, nil
}

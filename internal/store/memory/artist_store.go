package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/meridianaudio/meridian/internal/models"
	"github.com/meridianaudio/meridian/internal/store"
)

// ArtistStore implements store.ArtistStore using in-memory storage.
// This implementation is for testing and development - data is lost on restart.
type ArtistStore struct {
	mu sync.RWMutex

	artists map[uuid.UUID]*models.Artist // artist_id -> Artist
}

// NewArtistStore creates a new in-memory artist store.
func NewArtistStore() *ArtistStore {
	return &ArtistStore{
		artists: make(map[uuid.UUID]*models.Artist),
	}
}

// Create creates a new artist in memory.
func (s *ArtistStore) Create(ctx context.Context, artist *models.Artist) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.artists[artist.ArtistID]; exists {
		return store.ErrArtistAlreadyExists
	}

	clone := *artist
	s.artists[artist.ArtistID] = &clone

	return nil
}

// Get retrieves an artist by ID.
func (s *ArtistStore) Get(ctx context.Context, artistID uuid.UUID) (*models.Artist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	artist, exists := s.artists[artistID]
	if !exists {
		return nil, store.ErrArtistNotFound
	}

	clone := *artist
	return &clone, nil
}

// Update updates an existing artist.
func (s *ArtistStore) Update(ctx context.Context, artist *models.Artist) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.artists[artist.ArtistID]; !exists {
		return store.ErrArtistNotFound
	}

	artist.UpdatedAt = time.Now()

	clone := *artist
	s.artists[artist.ArtistID] = &clone

	return nil
}

// Delete deletes an artist by ID. Referential checks against releases are the
// caller's concern.
func (s *ArtistStore) Delete(ctx context.Context, artistID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.artists[artistID]; !exists {
		return store.ErrArtistNotFound
	}

	delete(s.artists, artistID)

	return nil
}

// List returns all artists admitted by the scope.
func (s *ArtistStore) List(ctx context.Context, scope store.Scope) ([]*models.Artist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.Artist
	for _, artist := range s.artists {
		if !scope.Contains(artist.LabelID) {
			continue
		}
		clone := *artist
		result = append(result, &clone)
	}

	return result, nil
}

// Search returns artists whose name contains the query (case-insensitive).
func (s *ArtistStore) Search(ctx context.Context, query string) ([]*models.Artist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := strings.ToLower(query)
	var result []*models.Artist
	for _, artist := range s.artists {
		if strings.Contains(strings.ToLower(artist.Name), q) {
			clone := *artist
			result = append(result, &clone)
		}
	}

	return result, nil
}

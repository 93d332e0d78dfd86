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

// ReleaseStore implements store.ReleaseStore using in-memory storage.
// Apply runs under a single lock, which gives it the same all-or-nothing
// semantics the postgres implementation gets from a transaction.
type ReleaseStore struct {
	mu sync.RWMutex

	releases map[uuid.UUID]*models.Release // release_id -> Release
}

// NewReleaseStore creates a new in-memory release store.
func NewReleaseStore() *ReleaseStore {
	return &ReleaseStore{
		releases: make(map[uuid.UUID]*models.Release),
	}
}

// Create creates a new release. Track numbers are renumbered densely in
// slice order.
func (s *ReleaseStore) Create(ctx context.Context, release *models.Release) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.releases[release.ReleaseID]; exists {
		return store.ErrReleaseNotFound
	}

	clone := cloneRelease(release)
	renumberTracks(clone)
	s.releases[release.ReleaseID] = clone

	return nil
}

// Get retrieves a release with tracks and notes. Notes are returned newest
// first.
func (s *ReleaseStore) Get(ctx context.Context, releaseID uuid.UUID) (*models.Release, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	release, exists := s.releases[releaseID]
	if !exists {
		return nil, store.ErrReleaseNotFound
	}

	clone := cloneRelease(release)
	sortNotesNewestFirst(clone)
	return clone, nil
}

// Apply executes a ReleaseChange atomically and returns the resulting
// release.
func (s *ReleaseStore) Apply(ctx context.Context, change store.ReleaseChange) (*models.Release, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	release, exists := s.releases[change.ReleaseID]
	if !exists {
		return nil, store.ErrReleaseNotFound
	}

	if change.Title != nil {
		release.Title = *change.Title
	}
	if change.Genre != nil {
		release.Genre = *change.Genre
	}
	if change.UPC != nil {
		release.UPC = *change.UPC
	}
	if change.ReleaseDate != nil {
		date := *change.ReleaseDate
		release.ReleaseDate = &date
	}
	if change.ArtworkURL != nil {
		release.ArtworkURL = *change.ArtworkURL
	}
	if change.PrimaryArtistIDs != nil {
		release.PrimaryArtistIDs = append([]uuid.UUID(nil), change.PrimaryArtistIDs...)
	}
	if change.FeaturedArtistIDs != nil {
		release.FeaturedArtistIDs = append([]uuid.UUID(nil), change.FeaturedArtistIDs...)
	}

	if change.ReplaceTracks != nil {
		release.Tracks = append([]models.Track(nil), change.ReplaceTracks...)
		for i := range release.Tracks {
			if release.Tracks[i].TrackID == uuid.Nil {
				release.Tracks[i].TrackID = uuid.Must(uuid.NewV7())
			}
			release.Tracks[i].ReleaseID = release.ReleaseID
		}
		renumberTracks(release)
	}

	if change.AppendNote != nil {
		note := *change.AppendNote
		if note.NoteID == uuid.Nil {
			note.NoteID = uuid.Must(uuid.NewV7())
		}
		note.ReleaseID = release.ReleaseID
		if note.CreatedAt.IsZero() {
			note.CreatedAt = time.Now()
		}
		release.Notes = append(release.Notes, note)
	}

	if change.SetStatus != "" {
		release.Status = change.SetStatus
	}

	if change.ClearAudioRefs {
		for i := range release.Tracks {
			release.Tracks[i].AudioURL = nil
		}
	}

	release.UpdatedAt = time.Now()

	clone := cloneRelease(release)
	sortNotesNewestFirst(clone)
	return clone, nil
}

// Delete deletes a release with its tracks and notes.
func (s *ReleaseStore) Delete(ctx context.Context, releaseID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.releases[releaseID]; !exists {
		return store.ErrReleaseNotFound
	}

	delete(s.releases, releaseID)

	return nil
}

// DeleteByLabels removes all releases owned by the given labels.
func (s *ReleaseStore) DeleteByLabels(ctx context.Context, labelIDs []uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for id, release := range s.releases {
		for _, labelID := range labelIDs {
			if release.LabelID == labelID {
				delete(s.releases, id)
				count++
				break
			}
		}
	}

	return count, nil
}

// List returns the releases admitted by the filter, newest first.
func (s *ReleaseStore) List(ctx context.Context, filter store.ReleaseFilter) ([]*models.Release, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.Release
	for _, release := range s.releases {
		if !filter.Scope.Contains(release.LabelID) {
			continue
		}
		if filter.Status != "" && release.Status != filter.Status {
			continue
		}
		if filter.LabelID != nil && release.LabelID != *filter.LabelID {
			continue
		}
		clone := cloneRelease(release)
		sortNotesNewestFirst(clone)
		result = append(result, clone)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}

// ArtistReferenced reports whether the artist appears on any release whose
// status is outside the ignore set.
func (s *ReleaseStore) ArtistReferenced(ctx context.Context, artistID uuid.UUID, ignoreStatuses []models.ReleaseStatus) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ignored := make(map[models.ReleaseStatus]bool, len(ignoreStatuses))
	for _, st := range ignoreStatuses {
		ignored[st] = true
	}

	for _, release := range s.releases {
		if ignored[release.Status] {
			continue
		}
		for _, id := range release.PrimaryArtistIDs {
			if id == artistID {
				return true, nil
			}
		}
		for _, id := range release.FeaturedArtistIDs {
			if id == artistID {
				return true, nil
			}
		}
	}

	return false, nil
}

// LabelsHaveLive reports whether any of the labels owns a release outside
// {Draft, Takedown, Cancelled}.
func (s *ReleaseStore) LabelsHaveLive(ctx context.Context, labelIDs []uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, release := range s.releases {
		switch release.Status {
		case models.StatusDraft, models.StatusTakedown, models.StatusCancelled:
			continue
		}
		for _, labelID := range labelIDs {
			if release.LabelID == labelID {
				return true, nil
			}
		}
	}

	return false, nil
}

// Search returns releases whose title contains the query (case-insensitive).
func (s *ReleaseStore) Search(ctx context.Context, query string) ([]*models.Release, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := strings.ToLower(query)
	var result []*models.Release
	for _, release := range s.releases {
		if strings.Contains(strings.ToLower(release.Title), q) {
			clone := cloneRelease(release)
			sortNotesNewestFirst(clone)
			result = append(result, clone)
		}
	}

	return result, nil
}

func cloneRelease(r *models.Release) *models.Release {
	clone := *r
	clone.PrimaryArtistIDs = append([]uuid.UUID(nil), r.PrimaryArtistIDs...)
	clone.FeaturedArtistIDs = append([]uuid.UUID(nil), r.FeaturedArtistIDs...)
	clone.Tracks = make([]models.Track, len(r.Tracks))
	for i, track := range r.Tracks {
		clone.Tracks[i] = track
		if track.AudioURL != nil {
			url := *track.AudioURL
			clone.Tracks[i].AudioURL = &url
		}
	}
	clone.Notes = append([]models.InteractionNote(nil), r.Notes...)
	if r.ReleaseDate != nil {
		date := *r.ReleaseDate
		clone.ReleaseDate = &date
	}
	return &clone
}

func renumberTracks(r *models.Release) {
	for i := range r.Tracks {
		r.Tracks[i].Number = i + 1
	}
}

func sortNotesNewestFirst(r *models.Release) {
	sort.SliceStable(r.Notes, func(i, j int) bool {
		return r.Notes[i].CreatedAt.After(r.Notes[j].CreatedAt)
	})
}

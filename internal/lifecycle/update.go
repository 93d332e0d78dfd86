package lifecycle

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/meridianaudio/meridian/internal/auth"
	"github.com/meridianaudio/meridian/internal/models"
	"github.com/meridianaudio/meridian/internal/store"
)

// ErrReleaseLocked is returned when metadata edits arrive for a release in a
// terminal status.
var ErrReleaseLocked = errors.New("release no longer accepts edits")

// TrackInput is one track in a wholesale track replacement. Numbers are
// assigned densely from slice order; client-supplied numbers are ignored.
type TrackInput struct {
	Title    string
	AudioURL *string
	ISRC     string
}

// UpdateRequest is one metadata mutation of a release. Nil pointers keep the
// stored value; a non-nil Tracks replaces the whole track set.
type UpdateRequest struct {
	ReleaseID uuid.UUID

	Title       *string
	Genre       *string
	UPC         *string
	ReleaseDate *time.Time
	ArtworkURL  *string

	PrimaryArtistIDs  []uuid.UUID
	FeaturedArtistIDs []uuid.UUID

	Tracks []TrackInput // nil keeps existing tracks
	Note   string       // optional; appended as an interaction note
}

// Update applies metadata edits, track replacement, and note append as one
// atomic batch. Partner principals may edit only Draft and NeedsInfo
// releases; staff may edit any non-terminal release. Terminal releases are
// reopened only through an explicit transition, never through an edit.
func (e *Engine) Update(ctx context.Context, caps *auth.Capabilities, req UpdateRequest) (*models.Release, error) {
	release, err := e.stores.Releases.Get(ctx, req.ReleaseID)
	if err != nil {
		return nil, err
	}

	if !caps.CanWriteRelease(release) {
		return nil, auth.ErrForbidden
	}

	if hasMetadataEdits(req) {
		if terminal[release.Status] {
			return nil, ErrReleaseLocked
		}
		if !caps.IsStaff() &&
			release.Status != models.StatusDraft && release.Status != models.StatusNeedsInfo {
			return nil, ErrReleaseLocked
		}
	}

	change := store.ReleaseChange{
		ReleaseID:         release.ReleaseID,
		Title:             req.Title,
		Genre:             req.Genre,
		UPC:               req.UPC,
		ReleaseDate:       req.ReleaseDate,
		ArtworkURL:        req.ArtworkURL,
		PrimaryArtistIDs:  req.PrimaryArtistIDs,
		FeaturedArtistIDs: req.FeaturedArtistIDs,
	}

	if req.Tracks != nil {
		tracks := make([]models.Track, len(req.Tracks))
		for i, in := range req.Tracks {
			tracks[i] = models.Track{
				TrackID:   uuid.Must(uuid.NewV7()),
				ReleaseID: release.ReleaseID,
				Title:     in.Title,
				AudioURL:  in.AudioURL,
				ISRC:      in.ISRC,
			}
		}
		change.ReplaceTracks = tracks
	}

	if req.Note != "" {
		change.AppendNote = e.noteFrom(caps, release.ReleaseID, req.Note)
	}

	updated, err := e.stores.Releases.Apply(ctx, change)
	if err != nil {
		return nil, err
	}

	// A note landing on a release already sitting in NeedsInfo is a
	// correction follow-up; the label contact hears about it the same way.
	if req.Note != "" && updated.Status == models.StatusNeedsInfo && caps.IsStaff() {
		e.notifyCorrection(ctx, updated, req.Note)
	}

	return updated, nil
}

func hasMetadataEdits(req UpdateRequest) bool {
	return req.Title != nil || req.Genre != nil || req.UPC != nil ||
		req.ReleaseDate != nil || req.ArtworkURL != nil ||
		req.PrimaryArtistIDs != nil || req.FeaturedArtistIDs != nil ||
		req.Tracks != nil
}

package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ReleaseStatus is the workflow state of a release. Transitions between
// statuses are owned by the lifecycle engine; nothing else writes Status.
type ReleaseStatus string

const (
	StatusDraft     ReleaseStatus = "draft"
	StatusPending   ReleaseStatus = "pending"
	StatusNeedsInfo ReleaseStatus = "needs_info"
	StatusRejected  ReleaseStatus = "rejected"
	StatusApproved  ReleaseStatus = "approved"
	StatusProcessed ReleaseStatus = "processed"
	StatusPublished ReleaseStatus = "published"
	StatusTakedown  ReleaseStatus = "takedown"
	StatusCancelled ReleaseStatus = "cancelled"
)

// Valid reports whether s is a known release status.
func (s ReleaseStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusNeedsInfo, StatusRejected,
		StatusApproved, StatusProcessed, StatusPublished, StatusTakedown, StatusCancelled:
		return true
	}
	return false
}

// Release is the aggregate root of the approval workflow: an album or single
// moving from Draft submission through review to publication.
type Release struct {
	ReleaseID uuid.UUID // UUIDv7
	Title     string
	LabelID   uuid.UUID
	Status    ReleaseStatus

	PrimaryArtistIDs  []uuid.UUID
	FeaturedArtistIDs []uuid.UUID

	Genre       string
	UPC         string
	ReleaseDate *time.Time
	ArtworkURL  string

	Tracks []Track
	Notes  []InteractionNote // append-only, newest first when listed

	CreatedAt time.Time
	UpdatedAt time.Time
}

// AudioPrefix is the object-storage prefix holding the release's audio
// masters. A purge deletes everything under this prefix; artwork lives
// outside it and survives.
func (r *Release) AudioPrefix() string {
	return fmt.Sprintf("releases/%s/audio/", r.ReleaseID)
}

// Track is exclusively owned by its release. The track set is replaced
// wholesale on update; there is no per-track patching.
type Track struct {
	TrackID   uuid.UUID // UUIDv7
	ReleaseID uuid.UUID
	Number    int // dense 1..N within the release
	Title     string
	AudioURL  *string // nil after an asset purge
	ISRC      string
}

// InteractionNote is an append-only audit entry on a release. Notes are never
// mutated or deleted once written.
type InteractionNote struct {
	NoteID     uuid.UUID // UUIDv7
	ReleaseID  uuid.UUID
	AuthorID   uuid.UUID
	AuthorName string
	AuthorRole string
	Message    string
	CreatedAt  time.Time
}

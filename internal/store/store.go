package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/meridianaudio/meridian/internal/models"
)

// Sentinel errors for common error conditions.
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")

	ErrLabelNotFound        = errors.New("label not found")
	ErrLabelAlreadyExists   = errors.New("label already exists")
	ErrLabelHasLiveReleases = errors.New("label has live releases")

	ErrArtistNotFound      = errors.New("artist not found")
	ErrArtistAlreadyExists = errors.New("artist already exists")
	ErrArtistReferenced    = errors.New("artist is referenced by an active release")

	ErrReleaseNotFound = errors.New("release not found")
	ErrNoteNotFound    = errors.New("note not found")
	ErrNoticeNotFound  = errors.New("notice not found")
)

// Scope bounds a query to a set of label IDs. A nil LabelIDs slice means
// unscoped (staff); an empty non-nil slice matches nothing.
type Scope struct {
	LabelIDs []uuid.UUID
}

// Unscoped is the staff scope: no hierarchy restriction.
var Unscoped = Scope{LabelIDs: nil}

// ScopeTo returns a scope restricted to the given label IDs.
func ScopeTo(labelIDs ...uuid.UUID) Scope {
	if labelIDs == nil {
		labelIDs = []uuid.UUID{}
	}
	return Scope{LabelIDs: labelIDs}
}

// Contains reports whether the scope admits the given label ID.
func (s Scope) Contains(labelID uuid.UUID) bool {
	if s.LabelIDs == nil {
		return true
	}
	for _, id := range s.LabelIDs {
		if id == labelID {
			return true
		}
	}
	return false
}

// UserStore defines user account storage operations.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	Get(ctx context.Context, userID uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error
	Delete(ctx context.Context, userID uuid.UUID) error
	// DeleteByLabels removes all users belonging to the given labels and
	// returns how many were removed. Used by the staff label-delete cascade.
	DeleteByLabels(ctx context.Context, labelIDs []uuid.UUID) (int, error)
	List(ctx context.Context, scope Scope) ([]*models.User, error)
	Count(ctx context.Context) (int, error)
	Search(ctx context.Context, query string) ([]*models.User, error)
}

// LabelStore defines label (tenant) storage operations.
type LabelStore interface {
	Create(ctx context.Context, label *models.Label) error
	Get(ctx context.Context, labelID uuid.UUID) (*models.Label, error)
	Update(ctx context.Context, label *models.Label) error
	Delete(ctx context.Context, labelID uuid.UUID) error
	List(ctx context.Context, scope Scope) ([]*models.Label, error)
	// DescendantIDs returns the IDs of the label and all its transitive
	// descendants. The root ID is always included, even when no such label
	// exists.
	DescendantIDs(ctx context.Context, rootLabelID uuid.UUID) ([]uuid.UUID, error)
	Search(ctx context.Context, query string) ([]*models.Label, error)
}

// ArtistStore defines artist storage operations.
type ArtistStore interface {
	Create(ctx context.Context, artist *models.Artist) error
	Get(ctx context.Context, artistID uuid.UUID) (*models.Artist, error)
	Update(ctx context.Context, artist *models.Artist) error
	Delete(ctx context.Context, artistID uuid.UUID) error
	List(ctx context.Context, scope Scope) ([]*models.Artist, error)
	Search(ctx context.Context, query string) ([]*models.Artist, error)
}

// ReleaseFilter narrows a release listing. Zero values mean no restriction;
// the scope is always applied on top.
type ReleaseFilter struct {
	Scope   Scope
	Status  models.ReleaseStatus
	LabelID *uuid.UUID
}

// ReleaseChange describes one atomic mutation of a release. All populated
// parts are applied in a single storage batch: metadata update, wholesale
// track replacement, note append, status change, and audio-reference clear
// either all commit or none do.
type ReleaseChange struct {
	ReleaseID uuid.UUID

	// Metadata fields; nil pointers keep the stored value.
	Title       *string
	Genre       *string
	UPC         *string
	ReleaseDate *time.Time
	ArtworkURL  *string

	PrimaryArtistIDs  []uuid.UUID // nil keeps existing
	FeaturedArtistIDs []uuid.UUID // nil keeps existing

	// ReplaceTracks, when non-nil, deletes every existing track and inserts
	// this set. Track numbers are renumbered densely 1..N in slice order.
	ReplaceTracks []models.Track

	// AppendNote, when non-nil, inserts exactly one interaction note.
	AppendNote *models.InteractionNote

	// SetStatus, when non-empty, moves the release to this status. Legality
	// is the lifecycle engine's concern, not the store's.
	SetStatus models.ReleaseStatus

	// ClearAudioRefs sets every track's audio reference to null. Part of the
	// purge that accompanies Rejected and Takedown.
	ClearAudioRefs bool
}

// ReleaseStore defines release storage operations.
type ReleaseStore interface {
	Create(ctx context.Context, release *models.Release) error
	// Get returns the release with its tracks and notes loaded. Notes are
	// ordered newest first.
	Get(ctx context.Context, releaseID uuid.UUID) (*models.Release, error)
	// Apply executes a ReleaseChange as one atomic batch and returns the
	// resulting release.
	Apply(ctx context.Context, change ReleaseChange) (*models.Release, error)
	Delete(ctx context.Context, releaseID uuid.UUID) error
	// DeleteByLabels removes all releases owned by the given labels. Used by
	// the staff label-delete cascade.
	DeleteByLabels(ctx context.Context, labelIDs []uuid.UUID) (int, error)
	List(ctx context.Context, filter ReleaseFilter) ([]*models.Release, error)
	// ArtistReferenced reports whether the artist appears in the primary or
	// featured artist list of any release whose status is outside the given
	// set.
	ArtistReferenced(ctx context.Context, artistID uuid.UUID, ignoreStatuses []models.ReleaseStatus) (bool, error)
	// LabelsHaveLive reports whether any of the labels owns a release whose
	// status is outside {Draft, Takedown, Cancelled}.
	LabelsHaveLive(ctx context.Context, labelIDs []uuid.UUID) (bool, error)
	Search(ctx context.Context, query string) ([]*models.Release, error)
}

// NoticeStore defines announcement storage operations.
type NoticeStore interface {
	Create(ctx context.Context, notice *models.Notice) error
	Get(ctx context.Context, noticeID uuid.UUID) (*models.Notice, error)
	Update(ctx context.Context, notice *models.Notice) error
	Delete(ctx context.Context, noticeID uuid.UUID) error
	List(ctx context.Context) ([]*models.Notice, error)
}

// RevenueFilter narrows a revenue listing.
type RevenueFilter struct {
	Scope Scope
	From  *time.Time
	To    *time.Time
}

// RevenueStore defines revenue retrieval. Entries are written by an external
// settlement pipeline; this core only reads them.
type RevenueStore interface {
	List(ctx context.Context, filter RevenueFilter) ([]*models.RevenueEntry, error)
}

// Stores bundles every store implementation behind one wiring point.
type Stores struct {
	Users    UserStore
	Labels   LabelStore
	Artists  ArtistStore
	Releases ReleaseStore
	Notices  NoticeStore
	Revenue  RevenueStore
}

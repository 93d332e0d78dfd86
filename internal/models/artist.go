package models

import (
	"time"

	"github.com/google/uuid"
)

// Artist is a performing act managed by exactly one label. External platform
// identifiers are carried verbatim for delivery-side matching.
type Artist struct {
	ArtistID     uuid.UUID // UUIDv7
	Name         string
	LabelID      uuid.UUID
	ContactEmail string

	SpotifyID    string
	AppleMusicID string

	CreatedAt time.Time
	UpdatedAt time.Time
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// RevenueEntry is a read-mostly financial record scoped to a label. Entries
// are imported by an external settlement pipeline; this core only reads them.
type RevenueEntry struct {
	EntryID   uuid.UUID // UUIDv7
	LabelID   uuid.UUID
	ReleaseID *uuid.UUID

	Period      time.Time // first day of the reporting month
	Platform    string    // e.g. "spotify", "apple_music"
	Streams     int64
	AmountCents int64
	Currency    string

	CreatedAt time.Time
}

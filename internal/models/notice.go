package models

import (
	"time"

	"github.com/google/uuid"
)

// Notice is a staff-authored announcement shown to all authenticated users.
type Notice struct {
	NoticeID uuid.UUID // UUIDv7
	Title    string
	Body     string
	AuthorID uuid.UUID

	CreatedAt time.Time
	UpdatedAt time.Time
}

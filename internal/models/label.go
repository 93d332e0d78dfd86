package models

import (
	"time"

	"github.com/google/uuid"
)

// Label statuses.
const (
	LabelStatusActive    = "active"
	LabelStatusSuspended = "suspended"
)

// Label is a tenant node in the distribution hierarchy. Labels form a forest:
// every label has at most one parent, and a label is always created under a
// parent that already exists, so cycles are not constructible.
type Label struct {
	LabelID       uuid.UUID // UUIDv7
	Name          string
	ParentLabelID *uuid.UUID // nil for root labels
	OwnerUserID   uuid.UUID
	Status        string
	ContactEmail  string

	CreatedAt time.Time
	UpdatedAt time.Time
}

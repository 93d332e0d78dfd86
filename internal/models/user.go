package models

import (
	"time"

	"github.com/google/uuid"
)

// Roles recognised by the platform. Owner and Employee are staff roles and
// bypass hierarchy scoping; the remaining roles are partner roles bound to a
// label branch.
const (
	RoleOwner      = "owner"       // Platform owner, full access
	RoleEmployee   = "employee"    // Platform staff, access gated by permission flags
	RoleLabelAdmin = "label_admin" // Administrator of a label and its sub-labels
	RoleManager    = "manager"     // Label-side manager, no sub-label creation
	RoleArtist     = "artist"      // Artist account scoped to its own releases
)

// IsStaffRole reports whether a role is a platform-side (staff) role.
func IsStaffRole(role string) bool {
	return role == RoleOwner || role == RoleEmployee
}

// User represents an account that can authenticate against the platform.
// Users with a partner role belong to exactly one label.
type User struct {
	UserID       uuid.UUID // UUIDv7
	Email        string
	Name         string
	PasswordHash string // bcrypt
	Role         string

	LabelID  *uuid.UUID // Tenant scope for partner roles; nil for staff
	ArtistID *uuid.UUID // Set for artist accounts

	// Permission flags, meaningful for Employee and LabelAdmin roles.
	CanManageReleases  bool
	CanManageNetwork   bool
	CanCreateSubLabels bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsStaff reports whether the user holds a staff role.
func (u *User) IsStaff() bool {
	return IsStaffRole(u.Role)
}

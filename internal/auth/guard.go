package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/meridianaudio/meridian/internal/hierarchy"
	"github.com/meridianaudio/meridian/internal/models"
	"github.com/meridianaudio/meridian/internal/store"
)

// ErrForbidden is returned when a valid principal lacks the scope or
// permission for an action.
var ErrForbidden = errors.New("forbidden")

// Guard builds per-request capability sets. Handlers consult capabilities,
// never raw role strings.
type Guard struct {
	resolver *hierarchy.Resolver
}

// NewGuard creates a guard over the given hierarchy resolver.
func NewGuard(resolver *hierarchy.Resolver) *Guard {
	return &Guard{resolver: resolver}
}

// For computes the capability set for a verified principal. The hierarchy
// scope is resolved once here and reused for every check in the request.
func (g *Guard) For(ctx context.Context, claims *Claims) (*Capabilities, error) {
	userID, err := claims.UserID()
	if err != nil {
		return nil, fmt.Errorf("invalid subject claim: %w", err)
	}

	caps := &Capabilities{claims: claims, userID: userID}

	if !claims.IsStaff() {
		// Partners with no label see nothing; the empty scope takes care
		// of that without special cases downstream.
		caps.scope = hierarchy.Scope{}
		if claims.LabelID != nil {
			scope, err := g.resolver.DescendantScope(ctx, *claims.LabelID)
			if err != nil {
				return nil, err
			}
			caps.scope = scope
		}
	}

	return caps, nil
}

// Capabilities answers authorization questions for one principal during one
// request. Staff roles bypass hierarchy scoping; Employee writes are gated by
// permission flags.
type Capabilities struct {
	claims *Claims
	userID uuid.UUID
	scope  hierarchy.Scope // nil for staff (unscoped)
}

// UserID returns the acting principal's user ID.
func (c *Capabilities) UserID() uuid.UUID { return c.userID }

// Claims returns the underlying verified claims.
func (c *Capabilities) Claims() *Claims { return c.claims }

// IsStaff reports whether the principal holds a staff role.
func (c *Capabilities) IsStaff() bool { return c.claims.IsStaff() }

// StoreScope returns the scope to apply to list queries: unscoped for staff,
// the descendant set for partners.
func (c *Capabilities) StoreScope() store.Scope {
	if c.scope == nil {
		return store.Unscoped
	}
	return c.scope.StoreScope()
}

// CanReadTenant reports whether the principal may read entities owned by the
// given label.
func (c *Capabilities) CanReadTenant(labelID uuid.UUID) bool {
	if c.scope == nil {
		return true
	}
	return c.scope.Contains(labelID)
}

// CanManageNetwork reports whether the principal may write users and labels
// outside its own branch. Owners always can; Employees need the network
// flag.
func (c *Capabilities) CanManageNetwork() bool {
	switch c.claims.Role {
	case models.RoleOwner:
		return true
	case models.RoleEmployee:
		return c.claims.CanManageNetwork
	}
	return false
}

// CanWriteLabel reports whether the principal may mutate or delete the given
// label. A label is writable by its own branch: the owner and every ancestor
// admin have it in scope.
func (c *Capabilities) CanWriteLabel(labelID uuid.UUID) bool {
	if c.IsStaff() {
		return c.CanManageNetwork()
	}
	return c.scope.Contains(labelID)
}

// CanCreateSubLabel reports whether the principal may create a label under
// the given parent. The sub-label flag gates creation only; mutating an
// existing label needs no flag.
func (c *Capabilities) CanCreateSubLabel(parentLabelID uuid.UUID) bool {
	if c.IsStaff() {
		return c.CanManageNetwork()
	}
	return c.claims.CanCreateSubLabels && c.scope.Contains(parentLabelID)
}

// CanWriteUser reports whether the principal may create or mutate a user
// attached to the given label (nil for staff accounts).
func (c *Capabilities) CanWriteUser(labelID *uuid.UUID) bool {
	if c.IsStaff() {
		return c.CanManageNetwork()
	}
	if c.claims.Role != models.RoleLabelAdmin || labelID == nil {
		return false
	}
	return c.scope.Contains(*labelID)
}

// CanWriteRelease reports whether the principal may edit release metadata.
// Staff editing is gated on the manage-releases flag for Employees.
func (c *Capabilities) CanWriteRelease(release *models.Release) bool {
	if c.IsStaff() {
		return c.claims.Role == models.RoleOwner || c.claims.CanManageReleases
	}
	return c.scope.Contains(release.LabelID)
}

// CanDeleteRelease implements the deliberately narrow deletion rule: only
// Draft or NeedsInfo releases may be deleted, and a partner may do so only
// for its own label or a direct child. releaseLabel is the release's owning
// label.
func (c *Capabilities) CanDeleteRelease(release *models.Release, releaseLabel *models.Label) bool {
	if release.Status != models.StatusDraft && release.Status != models.StatusNeedsInfo {
		return false
	}
	if c.IsStaff() {
		return c.claims.Role == models.RoleOwner || c.claims.CanManageReleases
	}
	if c.claims.LabelID == nil {
		return false
	}
	if release.LabelID == *c.claims.LabelID {
		return true
	}
	return releaseLabel.ParentLabelID != nil && *releaseLabel.ParentLabelID == *c.claims.LabelID
}

// CanTransition reports whether the principal may request the given status
// for a release it can otherwise touch. Fine-grained edge legality belongs
// to the lifecycle engine; this only answers "is this principal's side of
// the desk allowed to pull this lever at all".
func (c *Capabilities) CanTransition(release *models.Release) bool {
	if c.IsStaff() {
		return c.claims.Role == models.RoleOwner || c.claims.CanManageReleases
	}
	return c.scope.Contains(release.LabelID)
}

// CanDeleteArtist checks the referential-integrity guard: an artist may be
// deleted only while unreferenced by any release outside Draft and Takedown.
func (c *Capabilities) CanDeleteArtist(ctx context.Context, releases store.ReleaseStore, artist *models.Artist) (bool, error) {
	if !c.IsStaff() && !c.scope.Contains(artist.LabelID) {
		return false, nil
	}

	referenced, err := releases.ArtistReferenced(ctx, artist.ArtistID,
		[]models.ReleaseStatus{models.StatusDraft, models.StatusTakedown})
	if err != nil {
		return false, err
	}
	if referenced {
		return false, store.ErrArtistReferenced
	}

	return true, nil
}

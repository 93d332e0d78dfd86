package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/meridianaudio/meridian/internal/auth"
	"github.com/meridianaudio/meridian/internal/models"
)

type userView struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Name  string    `json:"name"`
	Role  string    `json:"role"`

	LabelID  *uuid.UUID `json:"labelId,omitempty"`
	ArtistID *uuid.UUID `json:"artistId,omitempty"`

	CanManageReleases  bool `json:"canManageReleases"`
	CanManageNetwork   bool `json:"canManageNetwork"`
	CanCreateSubLabels bool `json:"canCreateSubLabels"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func userViewFrom(u *models.User) userView {
	return userView{
		ID:                 u.UserID,
		Email:              u.Email,
		Name:               u.Name,
		Role:               u.Role,
		LabelID:            u.LabelID,
		ArtistID:           u.ArtistID,
		CanManageReleases:  u.CanManageReleases,
		CanManageNetwork:   u.CanManageNetwork,
		CanCreateSubLabels: u.CanCreateSubLabels,
		CreatedAt:          u.CreatedAt,
		UpdatedAt:          u.UpdatedAt,
	}
}

func userViewsFrom(users []*models.User) []userView {
	views := make([]userView, len(users))
	for i, u := range users {
		views[i] = userViewFrom(u)
	}
	return views
}

type createUserRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Role     string `json:"role"`

	LabelID  *uuid.UUID `json:"labelId"`
	ArtistID *uuid.UUID `json:"artistId"`

	CanManageReleases  bool `json:"canManageReleases"`
	CanManageNetwork   bool `json:"canManageNetwork"`
	CanCreateSubLabels bool `json:"canCreateSubLabels"`
}

type updateUserRequest struct {
	Email *string `json:"email"`
	Name  *string `json:"name"`
	Role  *string `json:"role"`

	LabelID  *uuid.UUID `json:"labelId"`
	ArtistID *uuid.UUID `json:"artistId"`

	CanManageReleases  *bool `json:"canManageReleases"`
	CanManageNetwork   *bool `json:"canManageNetwork"`
	CanCreateSubLabels *bool `json:"canCreateSubLabels"`
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	caps, err := s.capabilities(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	users, err := s.stores.Users.List(r.Context(), caps.StoreScope())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, userViewsFrom(users))
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	caps, err := s.capabilities(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if req.Email == "" || req.Name == "" || req.Role == "" {
		writeError(w, r, invalidf("email, name, and role are required"))
		return
	}
	if len(req.Password) < 8 {
		writeError(w, r, invalidf("password must be at least 8 characters"))
		return
	}
	if models.IsStaffRole(req.Role) {
		if req.LabelID != nil {
			writeError(w, r, invalidf("staff accounts cannot belong to a label"))
			return
		}
	} else if req.LabelID == nil {
		writeError(w, r, invalidf("partner accounts require a label"))
		return
	}

	if !caps.CanWriteUser(req.LabelID) {
		writeError(w, r, auth.ErrForbidden)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	now := time.Now()
	user := &models.User{
		UserID:             uuid.Must(uuid.NewV7()),
		Email:              req.Email,
		Name:               req.Name,
		PasswordHash:       hash,
		Role:               req.Role,
		LabelID:            req.LabelID,
		ArtistID:           req.ArtistID,
		CanManageReleases:  req.CanManageReleases,
		CanManageNetwork:   req.CanManageNetwork,
		CanCreateSubLabels: req.CanCreateSubLabels,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.stores.Users.Create(r.Context(), user); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, userViewFrom(user))
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	caps, err := s.capabilities(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	user, err := s.stores.Users.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if !s.canReadUser(caps, user) {
		writeError(w, r, auth.ErrForbidden)
		return
	}

	writeJSON(w, http.StatusOK, userViewFrom(user))
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	caps, err := s.capabilities(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	user, err := s.stores.Users.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if !caps.CanWriteUser(user.LabelID) {
		writeError(w, r, auth.ErrForbidden)
		return
	}

	var req updateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.LabelID != nil {
		// Moving a user into a different branch needs write access to the
		// destination as well.
		if !caps.CanWriteUser(req.LabelID) {
			writeError(w, r, auth.ErrForbidden)
			return
		}
		user.LabelID = req.LabelID
	}
	if req.ArtistID != nil {
		user.ArtistID = req.ArtistID
	}
	if req.CanManageReleases != nil {
		user.CanManageReleases = *req.CanManageReleases
	}
	if req.CanManageNetwork != nil {
		user.CanManageNetwork = *req.CanManageNetwork
	}
	if req.CanCreateSubLabels != nil {
		user.CanCreateSubLabels = *req.CanCreateSubLabels
	}
	user.UpdatedAt = time.Now()

	if err := s.stores.Users.Update(r.Context(), user); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, userViewFrom(user))
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	caps, err := s.capabilities(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if id == caps.UserID() {
		writeError(w, r, invalidf("cannot delete your own account"))
		return
	}

	user, err := s.stores.Users.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if !caps.CanWriteUser(user.LabelID) {
		writeError(w, r, auth.ErrForbidden)
		return
	}

	if err := s.stores.Users.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// canReadUser: staff read everyone; a partner reads itself and the accounts
// inside its branch. Staff accounts carry no label and are staff-visible
// only.
func (s *Server) canReadUser(caps *auth.Capabilities, user *models.User) bool {
	if caps.IsStaff() {
		return true
	}
	if user.UserID == caps.UserID() {
		return true
	}
	if user.LabelID == nil {
		return false
	}
	return caps.CanReadTenant(*user.LabelID)
}

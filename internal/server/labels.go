package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/meridianaudio/meridian/internal/auth"
	"github.com/meridianaudio/meridian/internal/models"
	"github.com/meridianaudio/meridian/internal/store"
	"github.com/rs/zerolog"
)

type labelView struct {
	ID            uuid.UUID  `json:"id"`
	Name          string     `json:"name"`
	ParentLabelID *uuid.UUID `json:"parentLabelId,omitempty"`
	OwnerUserID   uuid.UUID  `json:"ownerUserId"`
	Status        string     `json:"status"`
	ContactEmail  string     `json:"contactEmail"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

func labelViewFrom(l *models.Label) labelView {
	return labelView{
		ID:            l.LabelID,
		Name:          l.Name,
		ParentLabelID: l.ParentLabelID,
		OwnerUserID:   l.OwnerUserID,
		Status:        l.Status,
		ContactEmail:  l.ContactEmail,
		CreatedAt:     l.CreatedAt,
		UpdatedAt:     l.UpdatedAt,
	}
}

func labelViewsFrom(labels []*models.Label) []labelView {
	views := make([]labelView, len(labels))
	for i, l := range labels {
		views[i] = labelViewFrom(l)
	}
	return views
}

type createLabelRequest struct {
	Name          string     `json:"name"`
	ParentLabelID *uuid.UUID `json:"parentLabelId"`
	OwnerUserID   uuid.UUID  `json:"ownerUserId"`
	ContactEmail  string     `json:"contactEmail"`
}

type updateLabelRequest struct {
	Name         *string `json:"name"`
	Status       *string `json:"status"`
	ContactEmail *string `json:"contactEmail"`

	OwnerUserID *uuid.UUID `json:"ownerUserId"`
}

func (s *Server) handleListLabels(w http.ResponseWriter, r *http.Request) {
	caps, err := s.capabilities(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	labels, err := s.stores.Labels.List(r.Context(), caps.StoreScope())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, labelViewsFrom(labels))
}

func (s *Server) handleCreateLabel(w http.ResponseWriter, r *http.Request) {
	caps, err := s.capabilities(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req createLabelRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Name == "" {
		writeError(w, r, invalidf("label name is required"))
		return
	}

	// Root labels are staff territory; a sub-label needs write access to
	// the parent it hangs under.
	if req.ParentLabelID == nil {
		if !caps.CanManageNetwork() {
			writeError(w, r, auth.ErrForbidden)
			return
		}
	} else if !caps.CanCreateSubLabel(*req.ParentLabelID) {
		writeError(w, r, auth.ErrForbidden)
		return
	}

	now := time.Now()
	label := &models.Label{
		LabelID:       uuid.Must(uuid.NewV7()),
		Name:          req.Name,
		ParentLabelID: req.ParentLabelID,
		OwnerUserID:   req.OwnerUserID,
		Status:        models.LabelStatusActive,
		ContactEmail:  req.ContactEmail,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.stores.Labels.Create(r.Context(), label); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, labelViewFrom(label))
}

func (s *Server) handleGetLabel(w http.ResponseWriter, r *http.Request) {
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

	label, err := s.stores.Labels.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if !caps.CanReadTenant(label.LabelID) {
		writeError(w, r, auth.ErrForbidden)
		return
	}

	writeJSON(w, http.StatusOK, labelViewFrom(label))
}

func (s *Server) handleUpdateLabel(w http.ResponseWriter, r *http.Request) {
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

	label, err := s.stores.Labels.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if !caps.CanWriteLabel(label.LabelID) {
		writeError(w, r, auth.ErrForbidden)
		return
	}

	var req updateLabelRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if req.Name != nil {
		label.Name = *req.Name
	}
	if req.Status != nil {
		if *req.Status != models.LabelStatusActive && *req.Status != models.LabelStatusSuspended {
			writeError(w, r, invalidf("unknown label status: "+*req.Status))
			return
		}
		// Suspension is a staff lever.
		if !caps.IsStaff() {
			writeError(w, r, auth.ErrForbidden)
			return
		}
		label.Status = *req.Status
	}
	if req.ContactEmail != nil {
		label.ContactEmail = *req.ContactEmail
	}
	if req.OwnerUserID != nil {
		label.OwnerUserID = *req.OwnerUserID
	}
	label.UpdatedAt = time.Now()

	if err := s.stores.Labels.Update(r.Context(), label); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, labelViewFrom(label))
}

// handleDeleteLabel removes a label. Partners hit the live-release guard over
// the whole branch; staff deletion skips the guard. The cascade takes the
// branch's releases and the label's own member users, and leaves child labels
// in place as new roots.
func (s *Server) handleDeleteLabel(w http.ResponseWriter, r *http.Request) {
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

	label, err := s.stores.Labels.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if !caps.CanWriteLabel(label.LabelID) {
		writeError(w, r, auth.ErrForbidden)
		return
	}

	branch, err := s.stores.Labels.DescendantIDs(r.Context(), label.LabelID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if !caps.IsStaff() {
		live, err := s.stores.Releases.LabelsHaveLive(r.Context(), branch)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if live {
			writeError(w, r, store.ErrLabelHasLiveReleases)
			return
		}
	}

	// The cascade is deliberately shallow: the whole branch's releases go,
	// the label's direct member users go, but child labels themselves are
	// orphaned rather than recursively deleted.
	releases, err := s.stores.Releases.DeleteByLabels(r.Context(), branch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	users, err := s.stores.Users.DeleteByLabels(r.Context(), []uuid.UUID{label.LabelID})
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.stores.Labels.Delete(r.Context(), label.LabelID); err != nil {
		writeError(w, r, err)
		return
	}

	zerolog.Ctx(r.Context()).Info().
		Str("label_id", label.LabelID.String()).
		Int("orphaned_labels", len(branch)-1).
		Int("users", users).
		Int("releases", releases).
		Msg("Deleted label")

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/meridianaudio/meridian/internal/auth"
	"github.com/meridianaudio/meridian/internal/models"
)

type artistView struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	LabelID      uuid.UUID `json:"labelId"`
	ContactEmail string    `json:"contactEmail"`
	SpotifyID    string    `json:"spotifyId,omitempty"`
	AppleMusicID string    `json:"appleMusicId,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func artistViewFrom(a *models.Artist) artistView {
	return artistView{
		ID:           a.ArtistID,
		Name:         a.Name,
		LabelID:      a.LabelID,
		ContactEmail: a.ContactEmail,
		SpotifyID:    a.SpotifyID,
		AppleMusicID: a.AppleMusicID,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

func artistViewsFrom(artists []*models.Artist) []artistView {
	views := make([]artistView, len(artists))
	for i, a := range artists {
		views[i] = artistViewFrom(a)
	}
	return views
}

type createArtistRequest struct {
	Name         string     `json:"name"`
	LabelID      *uuid.UUID `json:"labelId"`
	ContactEmail string     `json:"contactEmail"`
	SpotifyID    string     `json:"spotifyId"`
	AppleMusicID string     `json:"appleMusicId"`
}

type updateArtistRequest struct {
	Name         *string `json:"name"`
	ContactEmail *string `json:"contactEmail"`
	SpotifyID    *string `json:"spotifyId"`
	AppleMusicID *string `json:"appleMusicId"`
}

func (s *Server) handleListArtists(w http.ResponseWriter, r *http.Request) {
	caps, err := s.capabilities(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	artists, err := s.stores.Artists.List(r.Context(), caps.StoreScope())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, artistViewsFrom(artists))
}

func (s *Server) handleCreateArtist(w http.ResponseWriter, r *http.Request) {
	caps, err := s.capabilities(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req createArtistRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Name == "" {
		writeError(w, r, invalidf("artist name is required"))
		return
	}

	// Partners default to their own label when none is given.
	labelID := req.LabelID
	if labelID == nil {
		labelID = caps.Claims().LabelID
	}
	if labelID == nil {
		writeError(w, r, invalidf("labelId is required"))
		return
	}
	if !caps.CanReadTenant(*labelID) {
		writeError(w, r, auth.ErrForbidden)
		return
	}

	now := time.Now()
	artist := &models.Artist{
		ArtistID:     uuid.Must(uuid.NewV7()),
		Name:         req.Name,
		LabelID:      *labelID,
		ContactEmail: req.ContactEmail,
		SpotifyID:    req.SpotifyID,
		AppleMusicID: req.AppleMusicID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.stores.Artists.Create(r.Context(), artist); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, artistViewFrom(artist))
}

func (s *Server) handleGetArtist(w http.ResponseWriter, r *http.Request) {
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

	artist, err := s.stores.Artists.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if !caps.CanReadTenant(artist.LabelID) {
		writeError(w, r, auth.ErrForbidden)
		return
	}

	writeJSON(w, http.StatusOK, artistViewFrom(artist))
}

func (s *Server) handleUpdateArtist(w http.ResponseWriter, r *http.Request) {
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

	artist, err := s.stores.Artists.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if !caps.CanReadTenant(artist.LabelID) {
		writeError(w, r, auth.ErrForbidden)
		return
	}

	var req updateArtistRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if req.Name != nil {
		artist.Name = *req.Name
	}
	if req.ContactEmail != nil {
		artist.ContactEmail = *req.ContactEmail
	}
	if req.SpotifyID != nil {
		artist.SpotifyID = *req.SpotifyID
	}
	if req.AppleMusicID != nil {
		artist.AppleMusicID = *req.AppleMusicID
	}
	artist.UpdatedAt = time.Now()

	if err := s.stores.Artists.Update(r.Context(), artist); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, artistViewFrom(artist))
}

func (s *Server) handleDeleteArtist(w http.ResponseWriter, r *http.Request) {
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

	artist, err := s.stores.Artists.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	ok, err := caps.CanDeleteArtist(r.Context(), s.stores.Releases, artist)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !ok {
		writeError(w, r, auth.ErrForbidden)
		return
	}

	if err := s.stores.Artists.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

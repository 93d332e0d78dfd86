package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/meridianaudio/meridian/internal/auth"
	"github.com/meridianaudio/meridian/internal/lifecycle"
	"github.com/meridianaudio/meridian/internal/models"
	"github.com/meridianaudio/meridian/internal/store"
)

type trackView struct {
	ID       uuid.UUID `json:"id"`
	Number   int       `json:"number"`
	Title    string    `json:"title"`
	AudioURL *string   `json:"audioUrl"`
	ISRC     string    `json:"isrc,omitempty"`
}

type noteView struct {
	ID         uuid.UUID `json:"id"`
	AuthorID   uuid.UUID `json:"authorId"`
	AuthorName string    `json:"authorName"`
	AuthorRole string    `json:"authorRole"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"createdAt"`
}

type releaseView struct {
	ID      uuid.UUID            `json:"id"`
	Title   string               `json:"title"`
	LabelID uuid.UUID            `json:"labelId"`
	Status  models.ReleaseStatus `json:"status"`

	PrimaryArtistIDs  []uuid.UUID `json:"primaryArtistIds"`
	FeaturedArtistIDs []uuid.UUID `json:"featuredArtistIds"`

	Genre       string     `json:"genre,omitempty"`
	UPC         string     `json:"upc,omitempty"`
	ReleaseDate *time.Time `json:"releaseDate,omitempty"`
	ArtworkURL  string     `json:"artworkUrl,omitempty"`

	Tracks []trackView `json:"tracks"`
	Notes  []noteView  `json:"notes"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func releaseViewFrom(rel *models.Release) releaseView {
	view := releaseView{
		ID:                rel.ReleaseID,
		Title:             rel.Title,
		LabelID:           rel.LabelID,
		Status:            rel.Status,
		PrimaryArtistIDs:  rel.PrimaryArtistIDs,
		FeaturedArtistIDs: rel.FeaturedArtistIDs,
		Genre:             rel.Genre,
		UPC:               rel.UPC,
		ReleaseDate:       rel.ReleaseDate,
		ArtworkURL:        rel.ArtworkURL,
		Tracks:            make([]trackView, len(rel.Tracks)),
		Notes:             make([]noteView, len(rel.Notes)),
		CreatedAt:         rel.CreatedAt,
		UpdatedAt:         rel.UpdatedAt,
	}
	if view.PrimaryArtistIDs == nil {
		view.PrimaryArtistIDs = []uuid.UUID{}
	}
	if view.FeaturedArtistIDs == nil {
		view.FeaturedArtistIDs = []uuid.UUID{}
	}
	for i, t := range rel.Tracks {
		view.Tracks[i] = trackView{
			ID:       t.TrackID,
			Number:   t.Number,
			Title:    t.Title,
			AudioURL: t.AudioURL,
			ISRC:     t.ISRC,
		}
	}
	for i, n := range rel.Notes {
		view.Notes[i] = noteView{
			ID:         n.NoteID,
			AuthorID:   n.AuthorID,
			AuthorName: n.AuthorName,
			AuthorRole: n.AuthorRole,
			Message:    n.Message,
			CreatedAt:  n.CreatedAt,
		}
	}
	return view
}

func releaseViewsFrom(releases []*models.Release) []releaseView {
	views := make([]releaseView, len(releases))
	for i, rel := range releases {
		views[i] = releaseViewFrom(rel)
	}
	return views
}

type trackRequest struct {
	Title    string  `json:"title"`
	AudioURL *string `json:"audioUrl"`
	ISRC     string  `json:"isrc"`
}

type createReleaseRequest struct {
	Title   string     `json:"title"`
	LabelID *uuid.UUID `json:"labelId"`

	PrimaryArtistIDs  []uuid.UUID `json:"primaryArtistIds"`
	FeaturedArtistIDs []uuid.UUID `json:"featuredArtistIds"`

	Genre       string     `json:"genre"`
	UPC         string     `json:"upc"`
	ReleaseDate *time.Time `json:"releaseDate"`
	ArtworkURL  string     `json:"artworkUrl"`

	Tracks []trackRequest `json:"tracks"`
}

type updateReleaseRequest struct {
	Title       *string    `json:"title"`
	Genre       *string    `json:"genre"`
	UPC         *string    `json:"upc"`
	ReleaseDate *time.Time `json:"releaseDate"`
	ArtworkURL  *string    `json:"artworkUrl"`

	PrimaryArtistIDs  []uuid.UUID `json:"primaryArtistIds"`
	FeaturedArtistIDs []uuid.UUID `json:"featuredArtistIds"`

	Tracks []trackRequest `json:"tracks"`
	Note   string         `json:"note"`
}

type transitionReleaseRequest struct {
	Status models.ReleaseStatus `json:"status"`
	Note   string               `json:"note"`
}

func (s *Server) handleListReleases(w http.ResponseWriter, r *http.Request) {
	caps, err := s.capabilities(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	filter := store.ReleaseFilter{Scope: caps.StoreScope()}
	if status := r.URL.Query().Get("status"); status != "" {
		st := models.ReleaseStatus(status)
		if !st.Valid() {
			writeError(w, r, invalidf("unknown release status: "+status))
			return
		}
		filter.Status = st
	}
	if labelParam := r.URL.Query().Get("labelId"); labelParam != "" {
		labelID, err := uuid.Parse(labelParam)
		if err != nil {
			writeError(w, r, invalidf("invalid labelId: "+labelParam))
			return
		}
		filter.LabelID = &labelID
	}

	releases, err := s.stores.Releases.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, releaseViewsFrom(releases))
}

func (s *Server) handleCreateRelease(w http.ResponseWriter, r *http.Request) {
	caps, err := s.capabilities(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req createReleaseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Title == "" {
		writeError(w, r, invalidf("release title is required"))
		return
	}

	labelID := req.LabelID
	if labelID == nil {
		labelID = caps.Claims().LabelID
	}
	if labelID == nil {
		writeError(w, r, invalidf("labelId is required"))
		return
	}

	now := time.Now()
	release := &models.Release{
		ReleaseID:         uuid.Must(uuid.NewV7()),
		Title:             req.Title,
		LabelID:           *labelID,
		Status:            models.StatusDraft,
		PrimaryArtistIDs:  req.PrimaryArtistIDs,
		FeaturedArtistIDs: req.FeaturedArtistIDs,
		Genre:             req.Genre,
		UPC:               req.UPC,
		ReleaseDate:       req.ReleaseDate,
		ArtworkURL:        req.ArtworkURL,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	for i, in := range req.Tracks {
		release.Tracks = append(release.Tracks, models.Track{
			TrackID:   uuid.Must(uuid.NewV7()),
			ReleaseID: release.ReleaseID,
			Number:    i + 1,
			Title:     in.Title,
			AudioURL:  in.AudioURL,
			ISRC:      in.ISRC,
		})
	}

	if !caps.CanWriteRelease(release) {
		writeError(w, r, auth.ErrForbidden)
		return
	}

	if err := s.stores.Releases.Create(r.Context(), release); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, releaseViewFrom(release))
}

func (s *Server) handleGetRelease(w http.ResponseWriter, r *http.Request) {
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

	release, err := s.stores.Releases.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if !caps.CanReadTenant(release.LabelID) {
		writeError(w, r, auth.ErrForbidden)
		return
	}

	writeJSON(w, http.StatusOK, releaseViewFrom(release))
}

func (s *Server) handleUpdateRelease(w http.ResponseWriter, r *http.Request) {
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

	var req updateReleaseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	update := lifecycle.UpdateRequest{
		ReleaseID:         id,
		Title:             req.Title,
		Genre:             req.Genre,
		UPC:               req.UPC,
		ReleaseDate:       req.ReleaseDate,
		ArtworkURL:        req.ArtworkURL,
		PrimaryArtistIDs:  req.PrimaryArtistIDs,
		FeaturedArtistIDs: req.FeaturedArtistIDs,
		Note:              req.Note,
	}
	if req.Tracks != nil {
		update.Tracks = make([]lifecycle.TrackInput, len(req.Tracks))
		for i, in := range req.Tracks {
			update.Tracks[i] = lifecycle.TrackInput{
				Title:    in.Title,
				AudioURL: in.AudioURL,
				ISRC:     in.ISRC,
			}
		}
	}

	release, err := s.engine.Update(r.Context(), caps, update)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, releaseViewFrom(release))
}

func (s *Server) handleDeleteRelease(w http.ResponseWriter, r *http.Request) {
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

	release, err := s.stores.Releases.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	label, err := s.stores.Labels.Get(r.Context(), release.LabelID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if !caps.CanDeleteRelease(release, label) {
		writeError(w, r, auth.ErrForbidden)
		return
	}

	if err := s.stores.Releases.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleTransitionRelease(w http.ResponseWriter, r *http.Request) {
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

	var req transitionReleaseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	release, err := s.engine.Transition(r.Context(), caps, lifecycle.TransitionRequest{
		ReleaseID: id,
		To:        req.Status,
		Note:      req.Note,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, releaseViewFrom(release))
}

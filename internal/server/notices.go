package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/meridianaudio/meridian/internal/auth"
	"github.com/meridianaudio/meridian/internal/models"
)

type noticeView struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	AuthorID  uuid.UUID `json:"authorId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func noticeViewFrom(n *models.Notice) noticeView {
	return noticeView{
		ID:        n.NoticeID,
		Title:     n.Title,
		Body:      n.Body,
		AuthorID:  n.AuthorID,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}

type noticeRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Notices are readable by every authenticated user; writes are staff only.

func (s *Server) handleListNotices(w http.ResponseWriter, r *http.Request) {
	if _, err := s.capabilities(r); err != nil {
		writeError(w, r, err)
		return
	}

	notices, err := s.stores.Notices.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	views := make([]noticeView, len(notices))
	for i, n := range notices {
		views[i] = noticeViewFrom(n)
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleCreateNotice(w http.ResponseWriter, r *http.Request) {
	caps, err := s.capabilities(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !caps.IsStaff() {
		writeError(w, r, auth.ErrForbidden)
		return
	}

	var req noticeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Title == "" {
		writeError(w, r, invalidf("notice title is required"))
		return
	}

	now := time.Now()
	notice := &models.Notice{
		NoticeID:  uuid.Must(uuid.NewV7()),
		Title:     req.Title,
		Body:      req.Body,
		AuthorID:  caps.UserID(),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.stores.Notices.Create(r.Context(), notice); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, noticeViewFrom(notice))
}

func (s *Server) handleGetNotice(w http.ResponseWriter, r *http.Request) {
	if _, err := s.capabilities(r); err != nil {
		writeError(w, r, err)
		return
	}

	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	notice, err := s.stores.Notices.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, noticeViewFrom(notice))
}

func (s *Server) handleUpdateNotice(w http.ResponseWriter, r *http.Request) {
	caps, err := s.capabilities(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !caps.IsStaff() {
		writeError(w, r, auth.ErrForbidden)
		return
	}

	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	notice, err := s.stores.Notices.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req noticeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Title != "" {
		notice.Title = req.Title
	}
	if req.Body != "" {
		notice.Body = req.Body
	}
	notice.UpdatedAt = time.Now()

	if err := s.stores.Notices.Update(r.Context(), notice); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, noticeViewFrom(notice))
}

func (s *Server) handleDeleteNotice(w http.ResponseWriter, r *http.Request) {
	caps, err := s.capabilities(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !caps.IsStaff() {
		writeError(w, r, auth.ErrForbidden)
		return
	}

	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.stores.Notices.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

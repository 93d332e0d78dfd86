package server

import (
	"net/http"
)

type searchResponse struct {
	Users    []userView    `json:"users"`
	Labels   []labelView   `json:"labels"`
	Artists  []artistView  `json:"artists"`
	Releases []releaseView `json:"releases"`
}

// handleSearch runs a case-insensitive substring match across users, labels,
// artists, and releases. Results are not hierarchy-scoped; the endpoint
// mirrors the admin console's global finder, which shows name matches across
// the whole network.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if _, err := s.capabilities(r); err != nil {
		writeError(w, r, err)
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, r, invalidf("query parameter q is required"))
		return
	}

	users, err := s.stores.Users.Search(r.Context(), query)
	if err != nil {
		writeError(w, r, err)
		return
	}
	labels, err := s.stores.Labels.Search(r.Context(), query)
	if err != nil {
		writeError(w, r, err)
		return
	}
	artists, err := s.stores.Artists.Search(r.Context(), query)
	if err != nil {
		writeError(w, r, err)
		return
	}
	releases, err := s.stores.Releases.Search(r.Context(), query)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, searchResponse{
		Users:    userViewsFrom(users),
		Labels:   labelViewsFrom(labels),
		Artists:  artistViewsFrom(artists),
		Releases: releaseViewsFrom(releases),
	})
}

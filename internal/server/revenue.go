package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/meridianaudio/meridian/internal/models"
	"github.com/meridianaudio/meridian/internal/store"
)

type revenueView struct {
	ID        uuid.UUID  `json:"id"`
	LabelID   uuid.UUID  `json:"labelId"`
	ReleaseID *uuid.UUID `json:"releaseId,omitempty"`

	Period      string `json:"period"` // YYYY-MM
	Platform    string `json:"platform"`
	Streams     int64  `json:"streams"`
	AmountCents int64  `json:"amountCents"`
	Currency    string `json:"currency"`
}

func revenueViewFrom(e *models.RevenueEntry) revenueView {
	return revenueView{
		ID:          e.EntryID,
		LabelID:     e.LabelID,
		ReleaseID:   e.ReleaseID,
		Period:      e.Period.Format("2006-01"),
		Platform:    e.Platform,
		Streams:     e.Streams,
		AmountCents: e.AmountCents,
		Currency:    e.Currency,
	}
}

// handleListRevenue lists settlement entries inside the caller's scope,
// optionally bounded by from/to reporting months (inclusive, YYYY-MM).
func (s *Server) handleListRevenue(w http.ResponseWriter, r *http.Request) {
	caps, err := s.capabilities(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	filter := store.RevenueFilter{Scope: caps.StoreScope()}

	if from := r.URL.Query().Get("from"); from != "" {
		t, err := parsePeriod(from)
		if err != nil {
			writeError(w, r, err)
			return
		}
		filter.From = &t
	}
	if to := r.URL.Query().Get("to"); to != "" {
		t, err := parsePeriod(to)
		if err != nil {
			writeError(w, r, err)
			return
		}
		filter.To = &t
	}

	entries, err := s.stores.Revenue.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}

	views := make([]revenueView, len(entries))
	for i, e := range entries {
		views[i] = revenueViewFrom(e)
	}
	writeJSON(w, http.StatusOK, views)
}

func parsePeriod(value string) (time.Time, error) {
	t, err := time.Parse("2006-01", value)
	if err != nil {
		return time.Time{}, invalidf("invalid period (want YYYY-MM): " + value)
	}
	return t, nil
}

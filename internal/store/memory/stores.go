package memory

import "github.com/meridianaudio/meridian/internal/store"

// NewStores wires up a full in-memory store set for development and tests.
func NewStores() *store.Stores {
	return &store.Stores{
		Users:    NewUserStore(),
		Labels:   NewLabelStore(),
		Artists:  NewArtistStore(),
		Releases: NewReleaseStore(),
		Notices:  NewNoticeStore(),
		Revenue:  NewRevenueStore(),
	}
}

package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/meridianaudio/meridian/internal/models"
	"github.com/meridianaudio/meridian/internal/store"
)

// NoticeStore implements store.NoticeStore using in-memory storage.
type NoticeStore struct {
	mu sync.RWMutex

	notices map[uuid.UUID]*models.Notice // notice_id -> Notice
}

// NewNoticeStore creates a new in-memory notice store.
func NewNoticeStore() *NoticeStore {
	return &NoticeStore{
		notices: make(map[uuid.UUID]*models.Notice),
	}
}

// Create creates a new notice.
func (s *NoticeStore) Create(ctx context.Context, notice *models.Notice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *notice
	s.notices[notice.NoticeID] = &clone

	return nil
}

// Get retrieves a notice by ID.
func (s *NoticeStore) Get(ctx context.Context, noticeID uuid.UUID) (*models.Notice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	notice, exists := s.notices[noticeID]
	if !exists {
		return nil, store.ErrNoticeNotFound
	}

	clone := *notice
	return &clone, nil
}

// Update updates an existing notice.
func (s *NoticeStore) Update(ctx context.Context, notice *models.Notice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.notices[notice.NoticeID]; !exists {
		return store.ErrNoticeNotFound
	}

	notice.UpdatedAt = time.Now()

	clone := *notice
	s.notices[notice.NoticeID] = &clone

	return nil
}

// Delete deletes a notice by ID.
func (s *NoticeStore) Delete(ctx context.Context, noticeID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.notices[noticeID]; !exists {
		return store.ErrNoticeNotFound
	}

	delete(s.notices, noticeID)

	return nil
}

// List returns all notices, newest first.
func (s *NoticeStore) List(ctx context.Context) ([]*models.Notice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.Notice
	for _, notice := range s.notices {
		clone := *notice
		result = append(result, &clone)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}

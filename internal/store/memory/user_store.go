package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/meridianaudio/meridian/internal/models"
	"github.com/meridianaudio/meridian/internal/store"
)

// UserStore implements store.UserStore using in-memory storage.
// This implementation is for testing and development - data is lost on restart.
type UserStore struct {
	mu sync.RWMutex

	users        map[uuid.UUID]*models.User // user_id -> User
	usersByEmail map[string]uuid.UUID       // lower(email) -> user_id
}

// NewUserStore creates a new in-memory user store.
func NewUserStore() *UserStore {
	return &UserStore{
		users:        make(map[uuid.UUID]*models.User),
		usersByEmail: make(map[string]uuid.UUID),
	}
}

// Create creates a new user in memory.
func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[user.UserID]; exists {
		return store.ErrUserAlreadyExists
	}
	if _, exists := s.usersByEmail[strings.ToLower(user.Email)]; exists {
		return store.ErrUserAlreadyExists
	}

	clone := *user
	s.users[user.UserID] = &clone
	s.usersByEmail[strings.ToLower(user.Email)] = user.UserID

	return nil
}

// Get retrieves a user by ID.
func (s *UserStore) Get(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.users[userID]
	if !exists {
		return nil, store.ErrUserNotFound
	}

	clone := *user
	return &clone, nil
}

// GetByEmail retrieves a user by email address (case-insensitive).
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	userID, exists := s.usersByEmail[strings.ToLower(email)]
	if !exists {
		return nil, store.ErrUserNotFound
	}

	clone := *s.users[userID]
	return &clone, nil
}

// Update updates an existing user.
func (s *UserStore) Update(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.users[user.UserID]
	if !exists {
		return store.ErrUserNotFound
	}

	user.UpdatedAt = time.Now()

	if !strings.EqualFold(existing.Email, user.Email) {
		if _, taken := s.usersByEmail[strings.ToLower(user.Email)]; taken {
			return store.ErrUserAlreadyExists
		}
		delete(s.usersByEmail, strings.ToLower(existing.Email))
		s.usersByEmail[strings.ToLower(user.Email)] = user.UserID
	}

	clone := *user
	s.users[user.UserID] = &clone

	return nil
}

// UpdatePassword replaces the stored password hash for a user.
func (s *UserStore) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, exists := s.users[userID]
	if !exists {
		return store.ErrUserNotFound
	}

	user.PasswordHash = passwordHash
	user.UpdatedAt = time.Now()

	return nil
}

// Delete deletes a user by ID.
func (s *UserStore) Delete(ctx context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, exists := s.users[userID]
	if !exists {
		return store.ErrUserNotFound
	}

	delete(s.usersByEmail, strings.ToLower(user.Email))
	delete(s.users, userID)

	return nil
}

// DeleteByLabels removes all users belonging to the given labels.
func (s *UserStore) DeleteByLabels(ctx context.Context, labelIDs []uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for id, user := range s.users {
		if user.LabelID == nil {
			continue
		}
		for _, labelID := range labelIDs {
			if *user.LabelID == labelID {
				delete(s.usersByEmail, strings.ToLower(user.Email))
				delete(s.users, id)
				count++
				break
			}
		}
	}

	return count, nil
}

// List returns all users admitted by the scope.
func (s *UserStore) List(ctx context.Context, scope store.Scope) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.User
	for _, user := range s.users {
		if user.LabelID != nil && !scope.Contains(*user.LabelID) {
			continue
		}
		if user.LabelID == nil && scope.LabelIDs != nil {
			// Staff accounts are only visible to unscoped callers.
			continue
		}
		clone := *user
		result = append(result, &clone)
	}

	return result, nil
}

// Count returns the total number of users.
func (s *UserStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.users), nil
}

// Search returns users whose name or email contains the query
// (case-insensitive).
func (s *UserStore) Search(ctx context.Context, query string) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := strings.ToLower(query)
	var result []*models.User
	for _, user := range s.users {
		if strings.Contains(strings.ToLower(user.Name), q) || strings.Contains(strings.ToLower(user.Email), q) {
			clone := *user
			result = append(result, &clone)
		}
	}

	return result, nil
}

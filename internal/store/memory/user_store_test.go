package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/meridianaudio/meridian/internal/models"
	"github.com/meridianaudio/meridian/internal/store"
	"github.com/stretchr/testify/require"
)

func newUser(t *testing.T, s *UserStore, email string, labelID *uuid.UUID) *models.User {
	t.Helper()
	now := time.Now()
	user := &models.User{
		UserID:    uuid.Must(uuid.NewV7()),
		Email:     email,
		Name:      "Test User",
		Role:      models.RoleManager,
		LabelID:   labelID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if labelID == nil {
		user.Role = models.RoleEmployee
	}
	require.NoError(t, s.Create(context.Background(), user))
	return user
}

func TestUserStore_EmailCaseInsensitive(t *testing.T) {
	s := NewUserStore()
	ctx := context.Background()
	labelID := uuid.Must(uuid.NewV7())
	created := newUser(t, s, "Alice@Example.com", &labelID)

	got, err := s.GetByEmail(ctx, "alice@example.COM")
	require.NoError(t, err)
	require.Equal(t, created.UserID, got.UserID)

	dup := &models.User{
		UserID: uuid.Must(uuid.NewV7()),
		Email:  "ALICE@example.com",
		Role:   models.RoleManager,
	}
	require.ErrorIs(t, s.Create(ctx, dup), store.ErrUserAlreadyExists)
}

func TestUserStore_UpdateEmailCollision(t *testing.T) {
	s := NewUserStore()
	ctx := context.Background()
	labelID := uuid.Must(uuid.NewV7())
	newUser(t, s, "first@example.com", &labelID)
	second := newUser(t, s, "second@example.com", &labelID)

	second.Email = "FIRST@example.com"
	require.ErrorIs(t, s.Update(ctx, second), store.ErrUserAlreadyExists)

	second.Email = "renamed@example.com"
	require.NoError(t, s.Update(ctx, second))

	got, err := s.GetByEmail(ctx, "renamed@example.com")
	require.NoError(t, err)
	require.Equal(t, second.UserID, got.UserID)

	_, err = s.GetByEmail(ctx, "second@example.com")
	require.ErrorIs(t, err, store.ErrUserNotFound)
}

func TestUserStore_ScopedList(t *testing.T) {
	s := NewUserStore()
	ctx := context.Background()
	labelA := uuid.Must(uuid.NewV7())
	labelB := uuid.Must(uuid.NewV7())

	newUser(t, s, "a@example.com", &labelA)
	newUser(t, s, "b@example.com", &labelB)
	newUser(t, s, "staff@example.com", nil)

	all, err := s.List(ctx, store.Unscoped)
	require.NoError(t, err)
	require.Len(t, all, 3)

	scoped, err := s.List(ctx, store.ScopeTo(labelA))
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	require.Equal(t, "a@example.com", scoped[0].Email)
}

func TestUserStore_DeleteByLabels(t *testing.T) {
	s := NewUserStore()
	ctx := context.Background()
	labelA := uuid.Must(uuid.NewV7())
	labelB := uuid.Must(uuid.NewV7())

	newUser(t, s, "a1@example.com", &labelA)
	newUser(t, s, "a2@example.com", &labelA)
	keep := newUser(t, s, "b@example.com", &labelB)
	staff := newUser(t, s, "staff@example.com", nil)

	deleted, err := s.DeleteByLabels(ctx, []uuid.UUID{labelA})
	require.NoError(t, err)
	require.Equal(t, 2, deleted)

	_, err = s.GetByEmail(ctx, "a1@example.com")
	require.ErrorIs(t, err, store.ErrUserNotFound)

	_, err = s.Get(ctx, keep.UserID)
	require.NoError(t, err)
	_, err = s.Get(ctx, staff.UserID)
	require.NoError(t, err)
}

func TestUserStore_UpdatePassword(t *testing.T) {
	s := NewUserStore()
	ctx := context.Background()
	labelID := uuid.Must(uuid.NewV7())
	user := newUser(t, s, "pw@example.com", &labelID)

	require.NoError(t, s.UpdatePassword(ctx, user.UserID, "new-hash"))

	got, err := s.Get(ctx, user.UserID)
	require.NoError(t, err)
	require.Equal(t, "new-hash", got.PasswordHash)

	require.ErrorIs(t, s.UpdatePassword(ctx, uuid.Must(uuid.NewV7()), "x"), store.ErrUserNotFound)
}

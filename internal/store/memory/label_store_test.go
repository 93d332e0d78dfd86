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

func newLabel(t *testing.T, s *LabelStore, name string, parent *uuid.UUID) *models.Label {
	t.Helper()
	now := time.Now()
	label := &models.Label{
		LabelID:       uuid.Must(uuid.NewV7()),
		Name:          name,
		ParentLabelID: parent,
		OwnerUserID:   uuid.Must(uuid.NewV7()),
		Status:        models.LabelStatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	require.NoError(t, s.Create(context.Background(), label))
	return label
}

func TestLabelStore_CreateRequiresParent(t *testing.T) {
	s := NewLabelStore()
	ctx := context.Background()

	missing := uuid.Must(uuid.NewV7())
	err := s.Create(ctx, &models.Label{
		LabelID:       uuid.Must(uuid.NewV7()),
		Name:          "Orphan",
		ParentLabelID: &missing,
	})
	require.ErrorIs(t, err, store.ErrLabelNotFound)
}

func TestLabelStore_DescendantIDs(t *testing.T) {
	s := NewLabelStore()

	root := newLabel(t, s, "Root", nil)
	childA := newLabel(t, s, "A", &root.LabelID)
	childB := newLabel(t, s, "B", &root.LabelID)
	grandchild := newLabel(t, s, "AA", &childA.LabelID)
	newLabel(t, s, "Other", nil)

	ids, err := s.DescendantIDs(context.Background(), root.LabelID)
	require.NoError(t, err)
	require.ElementsMatch(t, []uuid.UUID{root.LabelID, childA.LabelID, childB.LabelID, grandchild.LabelID}, ids)
	require.Equal(t, root.LabelID, ids[0])

	ids, err = s.DescendantIDs(context.Background(), grandchild.LabelID)
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{grandchild.LabelID}, ids)
}

func TestLabelStore_DeleteOrphansChildren(t *testing.T) {
	s := NewLabelStore()
	ctx := context.Background()

	root := newLabel(t, s, "Root", nil)
	child := newLabel(t, s, "Child", &root.LabelID)
	grandchild := newLabel(t, s, "Grandchild", &child.LabelID)

	require.NoError(t, s.Delete(ctx, root.LabelID))

	orphan, err := s.Get(ctx, child.LabelID)
	require.NoError(t, err)
	require.Nil(t, orphan.ParentLabelID, "direct children become roots")

	deeper, err := s.Get(ctx, grandchild.LabelID)
	require.NoError(t, err)
	require.Equal(t, child.LabelID, *deeper.ParentLabelID, "grandchildren keep their parent")
}

func TestLabelStore_ScopedList(t *testing.T) {
	s := NewLabelStore()
	ctx := context.Background()

	root := newLabel(t, s, "Root", nil)
	child := newLabel(t, s, "Child", &root.LabelID)
	other := newLabel(t, s, "Other", nil)

	all, err := s.List(ctx, store.Unscoped)
	require.NoError(t, err)
	require.Len(t, all, 3)

	scoped, err := s.List(ctx, store.ScopeTo(root.LabelID, child.LabelID))
	require.NoError(t, err)
	require.Len(t, scoped, 2)
	for _, l := range scoped {
		require.NotEqual(t, other.LabelID, l.LabelID)
	}

	none, err := s.List(ctx, store.ScopeTo())
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestLabelStore_CloneOnRead(t *testing.T) {
	s := NewLabelStore()
	root := newLabel(t, s, "Root", nil)

	got, err := s.Get(context.Background(), root.LabelID)
	require.NoError(t, err)
	got.Name = "Mutated"

	again, err := s.Get(context.Background(), root.LabelID)
	require.NoError(t, err)
	require.Equal(t, "Root", again.Name, "callers cannot mutate stored state")
}

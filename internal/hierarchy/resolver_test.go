package hierarchy

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/meridianaudio/meridian/internal/models"
	"github.com/meridianaudio/meridian/internal/store/memory"
	"github.com/stretchr/testify/require"
)

func addLabel(t *testing.T, labels *memory.LabelStore, name string, parent *uuid.UUID) *models.Label {
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
	require.NoError(t, labels.Create(context.Background(), label))
	return label
}

func TestResolver_DescendantScope(t *testing.T) {
	ctx := context.Background()
	labels := memory.NewLabelStore()
	resolver := NewResolver(labels)

	root := addLabel(t, labels, "Root", nil)
	childA := addLabel(t, labels, "Child A", &root.LabelID)
	childB := addLabel(t, labels, "Child B", &root.LabelID)
	grandchild := addLabel(t, labels, "Grandchild", &childA.LabelID)
	other := addLabel(t, labels, "Other", nil)

	t.Run("root sees whole branch", func(t *testing.T) {
		scope, err := resolver.DescendantScope(ctx, root.LabelID)
		require.NoError(t, err)

		for _, id := range []uuid.UUID{root.LabelID, childA.LabelID, childB.LabelID, grandchild.LabelID} {
			require.True(t, scope.Contains(id))
		}
		require.False(t, scope.Contains(other.LabelID))
	})

	t.Run("mid-tree sees its subtree only", func(t *testing.T) {
		scope, err := resolver.DescendantScope(ctx, childA.LabelID)
		require.NoError(t, err)

		require.True(t, scope.Contains(childA.LabelID))
		require.True(t, scope.Contains(grandchild.LabelID))
		require.False(t, scope.Contains(root.LabelID))
		require.False(t, scope.Contains(childB.LabelID))
	})

	t.Run("leaf sees only itself", func(t *testing.T) {
		scope, err := resolver.DescendantScope(ctx, grandchild.LabelID)
		require.NoError(t, err)
		require.Len(t, scope.IDs(), 1)
		require.True(t, scope.Contains(grandchild.LabelID))
	})

	t.Run("unknown label still yields itself", func(t *testing.T) {
		missing := uuid.Must(uuid.NewV7())
		scope, err := resolver.DescendantScope(ctx, missing)
		require.NoError(t, err)
		require.True(t, scope.Contains(missing))
		require.Len(t, scope.IDs(), 1)
	})

	t.Run("store scope restricts queries", func(t *testing.T) {
		scope, err := resolver.DescendantScope(ctx, childA.LabelID)
		require.NoError(t, err)

		storeScope := scope.StoreScope()
		require.NotNil(t, storeScope.LabelIDs)
		require.True(t, storeScope.Contains(grandchild.LabelID))
		require.False(t, storeScope.Contains(other.LabelID))
	})
}

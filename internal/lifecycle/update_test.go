package lifecycle

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/meridianaudio/meridian/internal/auth"
	"github.com/meridianaudio/meridian/internal/models"
	"github.com/stretchr/testify/require"
)

func TestUpdate_PartnerEditWindows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	title := "Renamed"

	t.Run("draft is editable", func(t *testing.T) {
		release := f.seedRelease(t, models.StatusDraft)
		updated, err := f.engine.Update(ctx, f.labelCaps(t), UpdateRequest{
			ReleaseID: release.ReleaseID,
			Title:     &title,
		})
		require.NoError(t, err)
		require.Equal(t, "Renamed", updated.Title)
	})

	t.Run("needs_info is editable", func(t *testing.T) {
		release := f.seedRelease(t, models.StatusNeedsInfo)
		_, err := f.engine.Update(ctx, f.labelCaps(t), UpdateRequest{
			ReleaseID: release.ReleaseID,
			Title:     &title,
		})
		require.NoError(t, err)
	})

	t.Run("pending is locked for partners", func(t *testing.T) {
		release := f.seedRelease(t, models.StatusPending)
		_, err := f.engine.Update(ctx, f.labelCaps(t), UpdateRequest{
			ReleaseID: release.ReleaseID,
			Title:     &title,
		})
		require.ErrorIs(t, err, ErrReleaseLocked)
	})

	t.Run("staff may edit pending", func(t *testing.T) {
		release := f.seedRelease(t, models.StatusPending)
		_, err := f.engine.Update(ctx, f.staffCaps(t), UpdateRequest{
			ReleaseID: release.ReleaseID,
			Title:     &title,
		})
		require.NoError(t, err)
	})

	t.Run("terminal is locked for everyone", func(t *testing.T) {
		for _, status := range []models.ReleaseStatus{
			models.StatusRejected, models.StatusTakedown, models.StatusCancelled,
		} {
			release := f.seedRelease(t, status)
			_, err := f.engine.Update(ctx, f.staffCaps(t), UpdateRequest{
				ReleaseID: release.ReleaseID,
				Title:     &title,
			})
			require.ErrorIs(t, err, ErrReleaseLocked, "status %s", status)
		}
	})

	t.Run("note alone is never locked", func(t *testing.T) {
		release := f.seedRelease(t, models.StatusRejected)
		updated, err := f.engine.Update(ctx, f.labelCaps(t), UpdateRequest{
			ReleaseID: release.ReleaseID,
			Note:      "For the record.",
		})
		require.NoError(t, err)
		require.Equal(t, "For the record.", updated.Notes[0].Message)
	})
}

func TestUpdate_TrackReplacement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	release := f.seedRelease(t, models.StatusDraft)

	audio := "https://cdn.example.com/new.flac"
	updated, err := f.engine.Update(ctx, f.labelCaps(t), UpdateRequest{
		ReleaseID: release.ReleaseID,
		Tracks: []TrackInput{
			{Title: "Opener", AudioURL: &audio, ISRC: "USX9P2500001"},
			{Title: "Closer", AudioURL: &audio, ISRC: "USX9P2500002"},
			{Title: "Encore"},
		},
	})
	require.NoError(t, err)
	require.Len(t, updated.Tracks, 3)
	for i, track := range updated.Tracks {
		require.Equal(t, i+1, track.Number, "tracks are numbered densely")
	}
	require.Equal(t, "Opener", updated.Tracks[0].Title)
	require.Nil(t, updated.Tracks[2].AudioURL)

	// nil Tracks leaves the set alone.
	title := "Still Three Tracks"
	updated, err = f.engine.Update(ctx, f.labelCaps(t), UpdateRequest{
		ReleaseID: release.ReleaseID,
		Title:     &title,
	})
	require.NoError(t, err)
	require.Len(t, updated.Tracks, 3)
}

func TestUpdate_OutOfScope(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	release := f.seedRelease(t, models.StatusDraft)

	otherLabel := uuid.Must(uuid.NewV7())
	outsider := f.capsFor(t, &auth.Claims{
		Role:    models.RoleLabelAdmin,
		LabelID: &otherLabel,
	})

	title := "Hijacked"
	_, err := f.engine.Update(ctx, outsider, UpdateRequest{
		ReleaseID: release.ReleaseID,
		Title:     &title,
	})
	require.ErrorIs(t, err, auth.ErrForbidden)
}

func TestUpdate_StaffNoteOnNeedsInfoNotifies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	release := f.seedRelease(t, models.StatusNeedsInfo)

	_, err := f.engine.Update(ctx, f.staffCaps(t), UpdateRequest{
		ReleaseID: release.ReleaseID,
		Note:      "Also re-export the artwork at 3000x3000.",
	})
	require.NoError(t, err)

	msgs := f.mail.Messages()
	require.NotEmpty(t, msgs)
	require.Equal(t, f.labelOwner.Email, msgs[len(msgs)-1].To)
	require.Contains(t, msgs[len(msgs)-1].Text, "3000x3000")
}

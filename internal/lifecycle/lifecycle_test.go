package lifecycle

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/meridianaudio/meridian/internal/auth"
	"github.com/meridianaudio/meridian/internal/blob"
	"github.com/meridianaudio/meridian/internal/hierarchy"
	"github.com/meridianaudio/meridian/internal/mailer"
	"github.com/meridianaudio/meridian/internal/models"
	"github.com/meridianaudio/meridian/internal/store"
	"github.com/meridianaudio/meridian/internal/store/memory"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	stores *store.Stores
	blobs  *blob.MemoryStore
	mail   *mailer.CaptureMailer
	engine *Engine
	guard  *auth.Guard

	label      *models.Label
	labelOwner *models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	f := &fixture{
		stores: memory.NewStores(),
		blobs:  blob.NewMemoryStore(),
		mail:   &mailer.CaptureMailer{},
	}
	f.engine = NewEngine(f.stores, f.blobs, f.mail)
	f.guard = auth.NewGuard(hierarchy.NewResolver(f.stores.Labels))

	now := time.Now()
	f.labelOwner = &models.User{
		UserID:       uuid.Must(uuid.NewV7()),
		Email:        "owner@label.example",
		Name:         "Label Owner",
		PasswordHash: "x",
		Role:         models.RoleLabelAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	f.label = &models.Label{
		LabelID:      uuid.Must(uuid.NewV7()),
		Name:         "Fixture Records",
		OwnerUserID:  f.labelOwner.UserID,
		Status:       models.LabelStatusActive,
		ContactEmail: "contact@label.example",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, f.stores.Labels.Create(ctx, f.label))
	f.labelOwner.LabelID = &f.label.LabelID
	require.NoError(t, f.stores.Users.Create(ctx, f.labelOwner))

	return f
}

func (f *fixture) staffCaps(t *testing.T) *auth.Capabilities {
	t.Helper()
	return f.capsFor(t, &auth.Claims{Role: models.RoleOwner, Name: "Staff"})
}

func (f *fixture) labelCaps(t *testing.T) *auth.Capabilities {
	t.Helper()
	return f.capsFor(t, &auth.Claims{
		Role:    models.RoleLabelAdmin,
		Name:    "Label Admin",
		LabelID: &f.label.LabelID,
	})
}

func (f *fixture) capsFor(t *testing.T, claims *auth.Claims) *auth.Capabilities {
	t.Helper()
	claims.Subject = uuid.Must(uuid.NewV7()).String()
	caps, err := f.guard.For(context.Background(), claims)
	require.NoError(t, err)
	return caps
}

// seedRelease creates a complete release (artwork, two tracks with audio) at
// the given status.
func (f *fixture) seedRelease(t *testing.T, status models.ReleaseStatus) *models.Release {
	t.Helper()
	now := time.Now()
	id := uuid.Must(uuid.NewV7())
	audio1 := "https://cdn.example.com/" + id.String() + "/audio/1.flac"
	audio2 := "https://cdn.example.com/" + id.String() + "/audio/2.flac"
	release := &models.Release{
		ReleaseID:  id,
		Title:      "Night Drive",
		LabelID:    f.label.LabelID,
		Status:     status,
		ArtworkURL: "https://cdn.example.com/art.png",
		Tracks: []models.Track{
			{TrackID: uuid.Must(uuid.NewV7()), Title: "Ignition", AudioURL: &audio1},
			{TrackID: uuid.Must(uuid.NewV7()), Title: "Coast", AudioURL: &audio2},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, f.stores.Releases.Create(context.Background(), release))
	return release
}

func TestTransition_HappyPath(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	release := f.seedRelease(t, models.StatusDraft)

	steps := []struct {
		to   models.ReleaseStatus
		caps *auth.Capabilities
		note string
	}{
		{models.StatusPending, f.labelCaps(t), ""},
		{models.StatusApproved, f.staffCaps(t), ""},
		{models.StatusProcessed, f.staffCaps(t), ""},
		{models.StatusPublished, f.staffCaps(t), ""},
		{models.StatusTakedown, f.staffCaps(t), "DMCA claim"},
	}

	for _, step := range steps {
		updated, err := f.engine.Transition(ctx, step.caps, TransitionRequest{
			ReleaseID: release.ReleaseID,
			To:        step.to,
			Note:      step.note,
		})
		require.NoError(t, err, "transition to %s", step.to)
		require.Equal(t, step.to, updated.Status)
	}

	final, err := f.stores.Releases.Get(ctx, release.ReleaseID)
	require.NoError(t, err)
	require.Equal(t, models.StatusTakedown, final.Status)
	require.Equal(t, "DMCA claim", final.Notes[0].Message)
	for _, track := range final.Tracks {
		require.Nil(t, track.AudioURL, "takedown clears audio references")
	}
}

func TestTransition_IllegalEdges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	staff := f.staffCaps(t)

	cases := []struct {
		from models.ReleaseStatus
		to   models.ReleaseStatus
	}{
		{models.StatusDraft, models.StatusApproved},
		{models.StatusDraft, models.StatusPublished},
		{models.StatusPending, models.StatusPublished},
		{models.StatusApproved, models.StatusPublished},
		{models.StatusApproved, models.StatusPending},
		{models.StatusPublished, models.StatusDraft},
		{models.StatusRejected, models.StatusPending},
		{models.StatusRejected, models.StatusCancelled},
		{models.StatusTakedown, models.StatusPublished},
		{models.StatusCancelled, models.StatusDraft},
		{models.StatusCancelled, models.StatusCancelled},
	}

	for _, tc := range cases {
		release := f.seedRelease(t, tc.from)
		_, err := f.engine.Transition(ctx, staff, TransitionRequest{
			ReleaseID: release.ReleaseID,
			To:        tc.to,
			Note:      "n",
		})

		var invalid *InvalidTransitionError
		require.ErrorAs(t, err, &invalid, "%s -> %s should be rejected", tc.from, tc.to)
		require.Equal(t, tc.from, invalid.From)
		require.Equal(t, tc.to, invalid.To)

		unchanged, err := f.stores.Releases.Get(ctx, release.ReleaseID)
		require.NoError(t, err)
		require.Equal(t, tc.from, unchanged.Status, "status untouched after rejection")
	}
}

func TestTransition_UnknownStatus(t *testing.T) {
	f := newFixture(t)
	release := f.seedRelease(t, models.StatusDraft)

	_, err := f.engine.Transition(context.Background(), f.staffCaps(t), TransitionRequest{
		ReleaseID: release.ReleaseID,
		To:        models.ReleaseStatus("exploded"),
	})
	var invalid *InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
}

func TestTransition_ActorGates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("partner cannot approve", func(t *testing.T) {
		release := f.seedRelease(t, models.StatusPending)
		_, err := f.engine.Transition(ctx, f.labelCaps(t), TransitionRequest{
			ReleaseID: release.ReleaseID,
			To:        models.StatusApproved,
		})
		require.ErrorIs(t, err, auth.ErrForbidden)
	})

	t.Run("partner cannot take down", func(t *testing.T) {
		release := f.seedRelease(t, models.StatusPublished)
		_, err := f.engine.Transition(ctx, f.labelCaps(t), TransitionRequest{
			ReleaseID: release.ReleaseID,
			To:        models.StatusTakedown,
			Note:      "please",
		})
		require.ErrorIs(t, err, auth.ErrForbidden)
	})

	t.Run("staff may submit on a label's behalf", func(t *testing.T) {
		release := f.seedRelease(t, models.StatusDraft)
		updated, err := f.engine.Transition(ctx, f.staffCaps(t), TransitionRequest{
			ReleaseID: release.ReleaseID,
			To:        models.StatusPending,
		})
		require.NoError(t, err)
		require.Equal(t, models.StatusPending, updated.Status)
	})

	t.Run("outsider label cannot touch the release at all", func(t *testing.T) {
		outsideLabel := &models.Label{
			LabelID:     uuid.Must(uuid.NewV7()),
			Name:        "Outside",
			OwnerUserID: uuid.Must(uuid.NewV7()),
			Status:      models.LabelStatusActive,
			CreatedAt:   time.Now(),
			UpdatedAt:   time.Now(),
		}
		require.NoError(t, f.stores.Labels.Create(ctx, outsideLabel))

		release := f.seedRelease(t, models.StatusDraft)
		outsider := f.capsFor(t, &auth.Claims{
			Role:    models.RoleLabelAdmin,
			LabelID: &outsideLabel.LabelID,
		})
		_, err := f.engine.Transition(ctx, outsider, TransitionRequest{
			ReleaseID: release.ReleaseID,
			To:        models.StatusPending,
		})
		require.ErrorIs(t, err, auth.ErrForbidden)
	})
}

func TestTransition_SubmissionGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	submit := func(release *models.Release) error {
		_, err := f.engine.Transition(ctx, f.labelCaps(t), TransitionRequest{
			ReleaseID: release.ReleaseID,
			To:        models.StatusPending,
		})
		return err
	}

	t.Run("missing artwork", func(t *testing.T) {
		release := f.seedRelease(t, models.StatusDraft)
		empty := ""
		_, err := f.stores.Releases.Apply(ctx, store.ReleaseChange{
			ReleaseID:  release.ReleaseID,
			ArtworkURL: &empty,
		})
		require.NoError(t, err)

		err = submit(release)
		var incomplete *IncompleteSubmissionError
		require.ErrorAs(t, err, &incomplete)
		require.Contains(t, incomplete.Missing, "artwork")
	})

	t.Run("no tracks", func(t *testing.T) {
		release := f.seedRelease(t, models.StatusDraft)
		_, err := f.stores.Releases.Apply(ctx, store.ReleaseChange{
			ReleaseID:     release.ReleaseID,
			ReplaceTracks: []models.Track{},
		})
		require.NoError(t, err)

		err = submit(release)
		var incomplete *IncompleteSubmissionError
		require.ErrorAs(t, err, &incomplete)
		require.Contains(t, incomplete.Missing, "no tracks")
	})

	t.Run("track without audio names the track", func(t *testing.T) {
		release := f.seedRelease(t, models.StatusDraft)
		audio := "https://cdn.example.com/ok.flac"
		_, err := f.stores.Releases.Apply(ctx, store.ReleaseChange{
			ReleaseID: release.ReleaseID,
			ReplaceTracks: []models.Track{
				{TrackID: uuid.Must(uuid.NewV7()), Title: "Done", AudioURL: &audio},
				{TrackID: uuid.Must(uuid.NewV7()), Title: "Silent"},
			},
		})
		require.NoError(t, err)

		err = submit(release)
		var incomplete *IncompleteSubmissionError
		require.ErrorAs(t, err, &incomplete)
		require.Contains(t, incomplete.Missing, "track 2")
		require.Contains(t, incomplete.Missing, "Silent")
	})
}

func TestTransition_NeedsInfo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("requires a note", func(t *testing.T) {
		release := f.seedRelease(t, models.StatusPending)
		_, err := f.engine.Transition(ctx, f.staffCaps(t), TransitionRequest{
			ReleaseID: release.ReleaseID,
			To:        models.StatusNeedsInfo,
		})
		require.ErrorIs(t, err, ErrNoteRequired)
	})

	t.Run("note is recorded and label owner notified", func(t *testing.T) {
		release := f.seedRelease(t, models.StatusPending)
		updated, err := f.engine.Transition(ctx, f.staffCaps(t), TransitionRequest{
			ReleaseID: release.ReleaseID,
			To:        models.StatusNeedsInfo,
			Note:      "The UPC does not match the artwork.",
		})
		require.NoError(t, err)
		require.Equal(t, models.StatusNeedsInfo, updated.Status)
		require.Equal(t, "The UPC does not match the artwork.", updated.Notes[0].Message)

		msgs := f.mail.Messages()
		require.NotEmpty(t, msgs)
		last := msgs[len(msgs)-1]
		require.Equal(t, f.labelOwner.Email, last.To)
		require.Contains(t, last.Text, "The UPC does not match the artwork.")
		require.Contains(t, last.Subject, release.Title)
	})

	t.Run("notification failure does not block the transition", func(t *testing.T) {
		f := newFixture(t)
		f.mail.Err = context.DeadlineExceeded

		release := f.seedRelease(t, models.StatusPending)
		updated, err := f.engine.Transition(context.Background(), f.staffCaps(t), TransitionRequest{
			ReleaseID: release.ReleaseID,
			To:        models.StatusNeedsInfo,
			Note:      "still needs fixing",
		})
		require.NoError(t, err)
		require.Equal(t, models.StatusNeedsInfo, updated.Status)
	})
}

func TestTransition_ResubmissionNote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("auto note when none given", func(t *testing.T) {
		release := f.seedRelease(t, models.StatusNeedsInfo)
		updated, err := f.engine.Transition(ctx, f.labelCaps(t), TransitionRequest{
			ReleaseID: release.ReleaseID,
			To:        models.StatusPending,
		})
		require.NoError(t, err)
		require.Equal(t, models.StatusPending, updated.Status)
		require.Len(t, updated.Notes, 1)
		require.Equal(t, resubmissionNote, updated.Notes[0].Message)
	})

	t.Run("own note wins", func(t *testing.T) {
		release := f.seedRelease(t, models.StatusNeedsInfo)
		updated, err := f.engine.Transition(ctx, f.labelCaps(t), TransitionRequest{
			ReleaseID: release.ReleaseID,
			To:        models.StatusPending,
			Note:      "Fixed the UPC.",
		})
		require.NoError(t, err)
		require.Len(t, updated.Notes, 1)
		require.Equal(t, "Fixed the UPC.", updated.Notes[0].Message)
	})
}

func TestTransition_Purge(t *testing.T) {
	ctx := context.Background()

	seedObjects := func(t *testing.T, f *fixture, release *models.Release) {
		for _, key := range []string{
			release.AudioPrefix() + "1.flac",
			release.AudioPrefix() + "2.flac",
			"releases/" + release.ReleaseID.String() + "/artwork.png",
		} {
			_, err := f.blobs.Upload(ctx, key, strings.NewReader("bytes"), "application/octet-stream")
			require.NoError(t, err)
		}
	}

	t.Run("rejection purges audio but not artwork", func(t *testing.T) {
		f := newFixture(t)
		release := f.seedRelease(t, models.StatusPending)
		seedObjects(t, f, release)

		updated, err := f.engine.Transition(ctx, f.staffCaps(t), TransitionRequest{
			ReleaseID: release.ReleaseID,
			To:        models.StatusRejected,
			Note:      "Rights could not be verified.",
		})
		require.NoError(t, err)
		require.Equal(t, models.StatusRejected, updated.Status)
		for _, track := range updated.Tracks {
			require.Nil(t, track.AudioURL)
		}

		keys := f.blobs.Keys()
		require.Len(t, keys, 1)
		require.Contains(t, keys[0], "artwork.png")
	})

	t.Run("object store failure still clears references", func(t *testing.T) {
		f := newFixture(t)
		release := f.seedRelease(t, models.StatusPublished)
		seedObjects(t, f, release)
		f.blobs.FailDeletes = true

		updated, err := f.engine.Transition(ctx, f.staffCaps(t), TransitionRequest{
			ReleaseID: release.ReleaseID,
			To:        models.StatusTakedown,
			Note:      "DMCA claim",
		})
		require.NoError(t, err, "purge failure must not roll back the transition")
		require.Equal(t, models.StatusTakedown, updated.Status)
		for _, track := range updated.Tracks {
			require.Nil(t, track.AudioURL)
		}
	})
}

func TestTransition_Cancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, from := range []models.ReleaseStatus{
		models.StatusDraft, models.StatusPending, models.StatusNeedsInfo,
		models.StatusApproved, models.StatusProcessed, models.StatusPublished,
	} {
		release := f.seedRelease(t, from)
		updated, err := f.engine.Transition(ctx, f.labelCaps(t), TransitionRequest{
			ReleaseID: release.ReleaseID,
			To:        models.StatusCancelled,
		})
		require.NoError(t, err, "cancel from %s", from)
		require.Equal(t, models.StatusCancelled, updated.Status)
	}
}

func TestTransition_UnknownRelease(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.Transition(context.Background(), f.staffCaps(t), TransitionRequest{
		ReleaseID: uuid.Must(uuid.NewV7()),
		To:        models.StatusPending,
	})
	require.ErrorIs(t, err, store.ErrReleaseNotFound)
}

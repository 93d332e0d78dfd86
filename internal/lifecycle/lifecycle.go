// Package lifecycle owns the release status state machine: which transitions
// are legal, who may perform them, and what side effects each one triggers.
package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/meridianaudio/meridian/internal/auth"
	"github.com/meridianaudio/meridian/internal/blob"
	"github.com/meridianaudio/meridian/internal/mailer"
	"github.com/meridianaudio/meridian/internal/models"
	"github.com/meridianaudio/meridian/internal/store"
	"github.com/meridianaudio/meridian/internal/telemetry"
	"github.com/rs/zerolog/log"
)

// ErrNoteRequired is returned when a transition that must leave an audit
// trail arrives without a note.
var ErrNoteRequired = errors.New("an explanatory note is required")

// InvalidTransitionError reports an illegal state machine edge. The release
// status is left unchanged.
type InvalidTransitionError struct {
	From models.ReleaseStatus
	To   models.ReleaseStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %s to %s", e.From, e.To)
}

// IncompleteSubmissionError reports a Draft release that is not ready for
// review, naming the missing step.
type IncompleteSubmissionError struct {
	Missing string
}

func (e *IncompleteSubmissionError) Error() string {
	return fmt.Sprintf("incomplete submission: %s", e.Missing)
}

// resubmissionNote is appended automatically when a label resubmits without
// supplying its own note, so the audit trail is never silently empty.
const resubmissionNote = "Release resubmitted for review."

type actorSide int

const (
	actorLabel actorSide = iota // label-side edge; staff may still pull it
	actorStaff                  // staff-only edge
)

// transitions enumerates every legal edge apart from cancellation, which is
// handled separately because it is legal from any non-terminal state.
var transitions = map[models.ReleaseStatus]map[models.ReleaseStatus]actorSide{
	models.StatusDraft: {
		models.StatusPending: actorLabel,
	},
	models.StatusPending: {
		models.StatusNeedsInfo: actorStaff,
		models.StatusApproved:  actorStaff,
		models.StatusRejected:  actorStaff,
	},
	models.StatusNeedsInfo: {
		models.StatusPending: actorLabel,
	},
	models.StatusApproved: {
		models.StatusProcessed: actorStaff,
	},
	models.StatusProcessed: {
		models.StatusPublished: actorStaff,
	},
	models.StatusPublished: {
		models.StatusTakedown: actorStaff,
	},
}

// terminal statuses accept no further transitions, including cancellation.
var terminal = map[models.ReleaseStatus]bool{
	models.StatusRejected:  true,
	models.StatusTakedown:  true,
	models.StatusCancelled: true,
}

// purgeOnEntry lists the statuses whose entry triggers the audio asset
// purge.
var purgeOnEntry = map[models.ReleaseStatus]bool{
	models.StatusRejected: true,
	models.StatusTakedown: true,
}

// Engine executes release transitions and updates. It composes the stores
// with the object-store and email collaborators; both side-effect
// collaborators are best-effort and never roll back a committed transition.
type Engine struct {
	stores *store.Stores
	blobs  blob.Store
	mail   mailer.Mailer
}

// NewEngine creates a lifecycle engine.
func NewEngine(stores *store.Stores, blobs blob.Store, mail mailer.Mailer) *Engine {
	return &Engine{stores: stores, blobs: blobs, mail: mail}
}

// TransitionRequest asks for one status change, optionally carrying a note.
type TransitionRequest struct {
	ReleaseID uuid.UUID
	To        models.ReleaseStatus
	Note      string
}

// Transition validates and executes a status change, applying the metadata
// update, note append, and audio-reference clear as one atomic batch, then
// running best-effort side effects (object purge, correction email).
func (e *Engine) Transition(ctx context.Context, caps *auth.Capabilities, req TransitionRequest) (*models.Release, error) {
	release, err := e.stores.Releases.Get(ctx, req.ReleaseID)
	if err != nil {
		return nil, err
	}

	if !caps.CanTransition(release) {
		return nil, auth.ErrForbidden
	}

	if !req.To.Valid() {
		return nil, &InvalidTransitionError{From: release.Status, To: req.To}
	}

	if err := e.checkEdge(caps, release, req.To); err != nil {
		var invalid *InvalidTransitionError
		if errors.As(err, &invalid) {
			telemetry.GetMetrics().RejectedTransitions.Add(ctx, 1)
		}
		return nil, err
	}

	if err := e.checkGuards(release, req); err != nil {
		return nil, err
	}

	change := store.ReleaseChange{
		ReleaseID:      release.ReleaseID,
		SetStatus:      req.To,
		ClearAudioRefs: purgeOnEntry[req.To],
	}

	note := req.Note
	if note == "" && release.Status == models.StatusNeedsInfo && req.To == models.StatusPending {
		note = resubmissionNote
	}
	if note != "" {
		change.AppendNote = e.noteFrom(caps, release.ReleaseID, note)
	}

	updated, err := e.stores.Releases.Apply(ctx, change)
	if err != nil {
		return nil, fmt.Errorf("failed to apply transition: %w", err)
	}

	telemetry.GetMetrics().TransitionsTotal.Add(ctx, 1)

	log.Info().
		Str("release_id", release.ReleaseID.String()).
		Str("from", string(release.Status)).
		Str("to", string(req.To)).
		Str("actor", caps.UserID().String()).
		Msg("Release transition")

	// Side effects run after the batch commits; their failure is logged,
	// never propagated.
	if purgeOnEntry[req.To] {
		e.purgeAudio(ctx, updated)
	}
	if req.To == models.StatusNeedsInfo {
		e.notifyCorrection(ctx, updated, note)
	}

	return updated, nil
}

// checkEdge validates the edge against the transition table and the acting
// side. Staff may pull label-side levers; the reverse is never true.
func (e *Engine) checkEdge(caps *auth.Capabilities, release *models.Release, to models.ReleaseStatus) error {
	if to == models.StatusCancelled {
		if terminal[release.Status] {
			return &InvalidTransitionError{From: release.Status, To: to}
		}
		return nil
	}

	side, ok := transitions[release.Status][to]
	if !ok {
		return &InvalidTransitionError{From: release.Status, To: to}
	}

	if side == actorStaff && !caps.IsStaff() {
		return auth.ErrForbidden
	}

	return nil
}

// checkGuards enforces per-edge preconditions beyond actor role.
func (e *Engine) checkGuards(release *models.Release, req TransitionRequest) error {
	if release.Status == models.StatusDraft && req.To == models.StatusPending {
		if release.ArtworkURL == "" {
			return &IncompleteSubmissionError{Missing: "artwork has not been uploaded"}
		}
		if len(release.Tracks) == 0 {
			return &IncompleteSubmissionError{Missing: "release has no tracks"}
		}
		for _, track := range release.Tracks {
			if track.AudioURL == nil || *track.AudioURL == "" {
				return &IncompleteSubmissionError{
					Missing: fmt.Sprintf("track %d (%s) has no audio file", track.Number, track.Title),
				}
			}
		}
	}

	if req.To == models.StatusNeedsInfo && req.Note == "" {
		return ErrNoteRequired
	}

	return nil
}

// purgeAudio deletes the release's audio objects. The track audio references
// were already cleared inside the committed batch, so a failed object delete
// leaves metadata consistent and is retried by an operator, not the engine.
func (e *Engine) purgeAudio(ctx context.Context, release *models.Release) {
	deleted, err := e.blobs.DeletePrefix(ctx, release.AudioPrefix())
	if err != nil {
		log.Error().Err(err).
			Str("release_id", release.ReleaseID.String()).
			Msg("Audio purge failed; metadata transition already committed")
		return
	}

	telemetry.GetMetrics().PurgedObjectsTotal.Add(ctx, int64(deleted))

	log.Info().
		Str("release_id", release.ReleaseID.String()).
		Int("objects", deleted).
		Msg("Purged audio assets")
}

// notifyCorrection emails the owning label's administrator contact about a
// correction request.
func (e *Engine) notifyCorrection(ctx context.Context, release *models.Release, note string) {
	to, err := e.correctionRecipient(ctx, release.LabelID)
	if err != nil {
		log.Error().Err(err).
			Str("release_id", release.ReleaseID.String()).
			Msg("Could not resolve correction notification recipient")
		return
	}

	msg := mailer.Message{
		To:      to,
		Subject: fmt.Sprintf("Correction requested: %s", release.Title),
		HTML: fmt.Sprintf("<p>Your release <strong>%s</strong> needs changes before it can be approved:</p><p>%s</p>",
			release.Title, note),
		Text: fmt.Sprintf("Your release %q needs changes before it can be approved:\n\n%s", release.Title, note),
	}

	if err := e.mail.Send(ctx, msg); err != nil {
		log.Error().Err(err).
			Str("release_id", release.ReleaseID.String()).
			Str("to", to).
			Msg("Correction notification failed")
		return
	}

	telemetry.GetMetrics().NotificationsSentTotal.Add(ctx, 1)
}

// correctionRecipient resolves the owning label's administrator contact: the
// label owner's account email, falling back to the label contact address.
func (e *Engine) correctionRecipient(ctx context.Context, labelID uuid.UUID) (string, error) {
	label, err := e.stores.Labels.Get(ctx, labelID)
	if err != nil {
		return "", err
	}

	owner, err := e.stores.Users.Get(ctx, label.OwnerUserID)
	if err == nil && owner.Email != "" {
		return owner.Email, nil
	}
	if label.ContactEmail != "" {
		return label.ContactEmail, nil
	}

	return "", fmt.Errorf("label %s has no administrator contact", labelID)
}

func (e *Engine) noteFrom(caps *auth.Capabilities, releaseID uuid.UUID, message string) *models.InteractionNote {
	return &models.InteractionNote{
		NoteID:     uuid.Must(uuid.NewV7()),
		ReleaseID:  releaseID,
		AuthorID:   caps.UserID(),
		AuthorName: caps.Claims().Name,
		AuthorRole: caps.Claims().Role,
		Message:    message,
	}
}

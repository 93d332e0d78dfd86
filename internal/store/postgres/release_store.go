package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/meridianaudio/meridian/internal/models"
	"github.com/meridianaudio/meridian/internal/store"
)

// ReleaseStore implements store.ReleaseStore on PostgreSQL. Apply runs its
// whole change batch inside one transaction with the release row locked.
type ReleaseStore struct {
	pool *pgxpool.Pool
}

const releaseColumns = `release_id, title, label_id, status, primary_artist_ids,
	featured_artist_ids, genre, upc, release_date, artwork_url, created_at, updated_at`

func scanRelease(row pgx.Row) (*models.Release, error) {
	var rel models.Release
	err := row.Scan(&rel.ReleaseID, &rel.Title, &rel.LabelID, &rel.Status,
		&rel.PrimaryArtistIDs, &rel.FeaturedArtistIDs,
		&rel.Genre, &rel.UPC, &rel.ReleaseDate, &rel.ArtworkURL,
		&rel.CreatedAt, &rel.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &rel, nil
}

func (s *ReleaseStore) Create(ctx context.Context, release *models.Release) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return mapPostgresError(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback is safe to call after commit

	_, err = tx.Exec(ctx, `
		INSERT INTO releases (`+releaseColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, release.ReleaseID, release.Title, release.LabelID, release.Status,
		release.PrimaryArtistIDs, release.FeaturedArtistIDs,
		release.Genre, release.UPC, release.ReleaseDate, release.ArtworkURL,
		release.CreatedAt, release.UpdatedAt)
	if err != nil {
		return mapPostgresError(err)
	}

	if err := insertTracks(ctx, tx, release.ReleaseID, release.Tracks); err != nil {
		return err
	}

	return mapPostgresError(tx.Commit(ctx))
}

func (s *ReleaseStore) Get(ctx context.Context, releaseID uuid.UUID) (*models.Release, error) {
	release, err := scanRelease(s.pool.QueryRow(ctx, `
		SELECT `+releaseColumns+` FROM releases WHERE release_id = $1
	`, releaseID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrReleaseNotFound
	}
	if err != nil {
		return nil, mapPostgresError(err)
	}

	if err := s.loadChildren(ctx, release); err != nil {
		return nil, err
	}
	return release, nil
}

// Apply executes the change batch in one transaction: metadata update, track
// replacement, audio-reference clear, and note append either all commit or
// none do.
func (s *ReleaseStore) Apply(ctx context.Context, change store.ReleaseChange) (*models.Release, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, mapPostgresError(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback is safe to call after commit

	var locked uuid.UUID
	err = tx.QueryRow(ctx, `
		SELECT release_id FROM releases WHERE release_id = $1 FOR UPDATE
	`, change.ReleaseID).Scan(&locked)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrReleaseNotFound
	}
	if err != nil {
		return nil, mapPostgresError(err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE releases SET
			title = COALESCE($2, title),
			genre = COALESCE($3, genre),
			upc = COALESCE($4, upc),
			release_date = COALESCE($5::date, release_date),
			artwork_url = COALESCE($6, artwork_url),
			primary_artist_ids = COALESCE($7::uuid[], primary_artist_ids),
			featured_artist_ids = COALESCE($8::uuid[], featured_artist_ids),
			status = COALESCE(NULLIF($9, ''), status),
			updated_at = now()
		WHERE release_id = $1
	`, change.ReleaseID, change.Title, change.Genre, change.UPC,
		change.ReleaseDate, change.ArtworkURL,
		change.PrimaryArtistIDs, change.FeaturedArtistIDs,
		string(change.SetStatus))
	if err != nil {
		return nil, mapPostgresError(err)
	}

	if change.ReplaceTracks != nil {
		if _, err := tx.Exec(ctx, `DELETE FROM tracks WHERE release_id = $1`, change.ReleaseID); err != nil {
			return nil, mapPostgresError(err)
		}
		if err := insertTracks(ctx, tx, change.ReleaseID, change.ReplaceTracks); err != nil {
			return nil, err
		}
	}

	if change.ClearAudioRefs {
		if _, err := tx.Exec(ctx, `
			UPDATE tracks SET audio_url = NULL WHERE release_id = $1
		`, change.ReleaseID); err != nil {
			return nil, mapPostgresError(err)
		}
	}

	if change.AppendNote != nil {
		n := change.AppendNote
		_, err := tx.Exec(ctx, `
			INSERT INTO release_notes (note_id, release_id, author_id, author_name, author_role, message)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, n.NoteID, change.ReleaseID, n.AuthorID, n.AuthorName, n.AuthorRole, n.Message)
		if err != nil {
			return nil, mapPostgresError(err)
		}
	}

	release, err := scanRelease(tx.QueryRow(ctx, `
		SELECT `+releaseColumns+` FROM releases WHERE release_id = $1
	`, change.ReleaseID))
	if err != nil {
		return nil, mapPostgresError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, mapPostgresError(err)
	}

	if err := s.loadChildren(ctx, release); err != nil {
		return nil, err
	}
	return release, nil
}

func (s *ReleaseStore) Delete(ctx context.Context, releaseID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM releases WHERE release_id = $1`, releaseID)
	if err != nil {
		return mapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrReleaseNotFound
	}
	return nil
}

func (s *ReleaseStore) DeleteByLabels(ctx context.Context, labelIDs []uuid.UUID) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM releases WHERE label_id = ANY($1)`, labelIDs)
	if err != nil {
		return 0, mapPostgresError(err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *ReleaseStore) List(ctx context.Context, filter store.ReleaseFilter) ([]*models.Release, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+releaseColumns+` FROM releases
		WHERE ($1::uuid[] IS NULL OR label_id = ANY($1))
			AND ($2 = '' OR status = $2)
			AND ($3::uuid IS NULL OR label_id = $3)
		ORDER BY created_at DESC
	`, scopeArg(filter.Scope), string(filter.Status), filter.LabelID)
	if err != nil {
		return nil, mapPostgresError(err)
	}
	defer rows.Close()
	return s.collectReleases(ctx, rows)
}

func (s *ReleaseStore) ArtistReferenced(ctx context.Context, artistID uuid.UUID, ignoreStatuses []models.ReleaseStatus) (bool, error) {
	ignore := make([]string, len(ignoreStatuses))
	for i, st := range ignoreStatuses {
		ignore[i] = string(st)
	}

	var referenced bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM releases
			WHERE ($1 = ANY(primary_artist_ids) OR $1 = ANY(featured_artist_ids))
				AND NOT (status = ANY($2))
		)
	`, artistID, ignore).Scan(&referenced)
	if err != nil {
		return false, mapPostgresError(err)
	}
	return referenced, nil
}

func (s *ReleaseStore) LabelsHaveLive(ctx context.Context, labelIDs []uuid.UUID) (bool, error) {
	var live bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM releases
			WHERE label_id = ANY($1)
				AND status NOT IN ('draft', 'takedown', 'cancelled')
		)
	`, labelIDs).Scan(&live)
	if err != nil {
		return false, mapPostgresError(err)
	}
	return live, nil
}

func (s *ReleaseStore) Search(ctx context.Context, query string) ([]*models.Release, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+releaseColumns+` FROM releases
		WHERE title ILIKE '%' || $1 || '%' OR upc = $1
		ORDER BY created_at DESC
	`, query)
	if err != nil {
		return nil, mapPostgresError(err)
	}
	defer rows.Close()
	return s.collectReleases(ctx, rows)
}

func (s *ReleaseStore) collectReleases(ctx context.Context, rows pgx.Rows) ([]*models.Release, error) {
	var releases []*models.Release
	for rows.Next() {
		release, err := scanRelease(rows)
		if err != nil {
			return nil, mapPostgresError(err)
		}
		releases = append(releases, release)
	}
	if err := rows.Err(); err != nil {
		return nil, mapPostgresError(err)
	}
	rows.Close()

	for _, release := range releases {
		if err := s.loadChildren(ctx, release); err != nil {
			return nil, err
		}
	}
	return releases, nil
}

// loadChildren fills in the release's tracks (by number) and notes (newest
// first).
func (s *ReleaseStore) loadChildren(ctx context.Context, release *models.Release) error {
	rows, err := s.pool.Query(ctx, `
		SELECT track_id, track_number, title, audio_url, isrc
		FROM tracks WHERE release_id = $1
		ORDER BY track_number
	`, release.ReleaseID)
	if err != nil {
		return mapPostgresError(err)
	}
	defer rows.Close()

	release.Tracks = nil
	for rows.Next() {
		track := models.Track{ReleaseID: release.ReleaseID}
		if err := rows.Scan(&track.TrackID, &track.Number, &track.Title, &track.AudioURL, &track.ISRC); err != nil {
			return mapPostgresError(err)
		}
		release.Tracks = append(release.Tracks, track)
	}
	if err := rows.Err(); err != nil {
		return mapPostgresError(err)
	}
	rows.Close()

	noteRows, err := s.pool.Query(ctx, `
		SELECT note_id, author_id, author_name, author_role, message, created_at
		FROM release_notes WHERE release_id = $1
		ORDER BY created_at DESC
	`, release.ReleaseID)
	if err != nil {
		return mapPostgresError(err)
	}
	defer noteRows.Close()

	release.Notes = nil
	for noteRows.Next() {
		note := models.InteractionNote{ReleaseID: release.ReleaseID}
		if err := noteRows.Scan(&note.NoteID, &note.AuthorID, &note.AuthorName,
			&note.AuthorRole, &note.Message, &note.CreatedAt); err != nil {
			return mapPostgresError(err)
		}
		release.Notes = append(release.Notes, note)
	}
	return mapPostgresError(noteRows.Err())
}

func insertTracks(ctx context.Context, tx pgx.Tx, releaseID uuid.UUID, tracks []models.Track) error {
	for i, track := range tracks {
		_, err := tx.Exec(ctx, `
			INSERT INTO tracks (track_id, release_id, track_number, title, audio_url, isrc)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, track.TrackID, releaseID, i+1, track.Title, track.AudioURL, track.ISRC)
		if err != nil {
			return fmt.Errorf("failed to insert track %d: %w", i+1, mapPostgresError(err))
		}
	}
	return nil
}

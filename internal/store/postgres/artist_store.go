package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/meridianaudio/meridian/internal/models"
	"github.com/meridianaudio/meridian/internal/store"
)

// ArtistStore implements store.ArtistStore on PostgreSQL.
type ArtistStore struct {
	pool *pgxpool.Pool
}

const artistColumns = `artist_id, name, label_id, contact_email, spotify_id,
	apple_music_id, created_at, updated_at`

func scanArtist(row pgx.Row) (*models.Artist, error) {
	var a models.Artist
	err := row.Scan(&a.ArtistID, &a.Name, &a.LabelID, &a.ContactEmail,
		&a.SpotifyID, &a.AppleMusicID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *ArtistStore) Create(ctx context.Context, artist *models.Artist) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO artists (`+artistColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, artist.ArtistID, artist.Name, artist.LabelID, artist.ContactEmail,
		artist.SpotifyID, artist.AppleMusicID, artist.CreatedAt, artist.UpdatedAt)
	return mapPostgresError(err)
}

func (s *ArtistStore) Get(ctx context.Context, artistID uuid.UUID) (*models.Artist, error) {
	artist, err := scanArtist(s.pool.QueryRow(ctx, `
		SELECT `+artistColumns+` FROM artists WHERE artist_id = $1
	`, artistID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrArtistNotFound
	}
	if err != nil {
		return nil, mapPostgresError(err)
	}
	return artist, nil
}

func (s *ArtistStore) Update(ctx context.Context, artist *models.Artist) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE artists SET name = $2, contact_email = $3, spotify_id = $4,
			apple_music_id = $5, updated_at = $6
		WHERE artist_id = $1
	`, artist.ArtistID, artist.Name, artist.ContactEmail, artist.SpotifyID,
		artist.AppleMusicID, artist.UpdatedAt)
	if err != nil {
		return mapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrArtistNotFound
	}
	return nil
}

func (s *ArtistStore) Delete(ctx context.Context, artistID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM artists WHERE artist_id = $1`, artistID)
	if err != nil {
		return mapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrArtistNotFound
	}
	return nil
}

func (s *ArtistStore) List(ctx context.Context, scope store.Scope) ([]*models.Artist, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+artistColumns+` FROM artists
		WHERE ($1::uuid[] IS NULL OR label_id = ANY($1))
		ORDER BY name
	`, scopeArg(scope))
	if err != nil {
		return nil, mapPostgresError(err)
	}
	defer rows.Close()
	return collectArtists(rows)
}

func (s *ArtistStore) Search(ctx context.Context, query string) ([]*models.Artist, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+artistColumns+` FROM artists
		WHERE name ILIKE '%' || $1 || '%'
		ORDER BY name
	`, query)
	if err != nil {
		return nil, mapPostgresError(err)
	}
	defer rows.Close()
	return collectArtists(rows)
}

func collectArtists(rows pgx.Rows) ([]*models.Artist, error) {
	var artists []*models.Artist
	for rows.Next() {
		artist, err := scanArtist(rows)
		if err != nil {
			return nil, mapPostgresError(err)
		}
		artists = append(artists, artist)
	}
	return artists, mapPostgresError(rows.Err())
}

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

// UserStore implements store.UserStore on PostgreSQL.
type UserStore struct {
	pool *pgxpool.Pool
}

const userColumns = `user_id, email, name, password_hash, role, label_id, artist_id,
	can_manage_releases, can_manage_network, can_create_sub_labels, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.UserID, &u.Email, &u.Name, &u.PasswordHash, &u.Role,
		&u.LabelID, &u.ArtistID,
		&u.CanManageReleases, &u.CanManageNetwork, &u.CanCreateSubLabels,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, user.UserID, user.Email, user.Name, user.PasswordHash, user.Role,
		user.LabelID, user.ArtistID,
		user.CanManageReleases, user.CanManageNetwork, user.CanCreateSubLabels,
		user.CreatedAt, user.UpdatedAt)
	return mapPostgresError(err)
}

func (s *UserStore) Get(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := scanUser(s.pool.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users WHERE user_id = $1
	`, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrUserNotFound
	}
	if err != nil {
		return nil, mapPostgresError(err)
	}
	return user, nil
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := scanUser(s.pool.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)
	`, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrUserNotFound
	}
	if err != nil {
		return nil, mapPostgresError(err)
	}
	return user, nil
}

func (s *UserStore) Update(ctx context.Context, user *models.User) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE users SET email = $2, name = $3, role = $4, label_id = $5,
			artist_id = $6, can_manage_releases = $7, can_manage_network = $8,
			can_create_sub_labels = $9, updated_at = $10
		WHERE user_id = $1
	`, user.UserID, user.Email, user.Name, user.Role, user.LabelID,
		user.ArtistID, user.CanManageReleases, user.CanManageNetwork,
		user.CanCreateSubLabels, user.UpdatedAt)
	if err != nil {
		return mapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrUserNotFound
	}
	return nil
}

func (s *UserStore) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE users SET password_hash = $2, updated_at = now() WHERE user_id = $1
	`, userID, passwordHash)
	if err != nil {
		return mapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrUserNotFound
	}
	return nil
}

func (s *UserStore) Delete(ctx context.Context, userID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM users WHERE user_id = $1`, userID)
	if err != nil {
		return mapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrUserNotFound
	}
	return nil
}

func (s *UserStore) DeleteByLabels(ctx context.Context, labelIDs []uuid.UUID) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM users WHERE label_id = ANY($1)`, labelIDs)
	if err != nil {
		return 0, mapPostgresError(err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *UserStore) List(ctx context.Context, scope store.Scope) ([]*models.User, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE ($1::uuid[] IS NULL OR label_id = ANY($1))
		ORDER BY created_at
	`, scopeArg(scope))
	if err != nil {
		return nil, mapPostgresError(err)
	}
	defer rows.Close()
	return collectUsers(rows)
}

func (s *UserStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&count); err != nil {
		return 0, mapPostgresError(err)
	}
	return count, nil
}

func (s *UserStore) Search(ctx context.Context, query string) ([]*models.User, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE name ILIKE '%' || $1 || '%' OR email ILIKE '%' || $1 || '%'
		ORDER BY name
	`, query)
	if err != nil {
		return nil, mapPostgresError(err)
	}
	defer rows.Close()
	return collectUsers(rows)
}

func collectUsers(rows pgx.Rows) ([]*models.User, error) {
	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, mapPostgresError(err)
		}
		users = append(users, user)
	}
	return users, mapPostgresError(rows.Err())
}

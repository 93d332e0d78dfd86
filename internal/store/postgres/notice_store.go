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

// NoticeStore implements store.NoticeStore on PostgreSQL.
type NoticeStore struct {
	pool *pgxpool.Pool
}

const noticeColumns = `notice_id, title, body, author_id, created_at, updated_at`

func scanNotice(row pgx.Row) (*models.Notice, error) {
	var n models.Notice
	err := row.Scan(&n.NoticeID, &n.Title, &n.Body, &n.AuthorID, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (s *NoticeStore) Create(ctx context.Context, notice *models.Notice) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO notices (`+noticeColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, notice.NoticeID, notice.Title, notice.Body, notice.AuthorID,
		notice.CreatedAt, notice.UpdatedAt)
	return mapPostgresError(err)
}

func (s *NoticeStore) Get(ctx context.Context, noticeID uuid.UUID) (*models.Notice, error) {
	notice, err := scanNotice(s.pool.QueryRow(ctx, `
		SELECT `+noticeColumns+` FROM notices WHERE notice_id = $1
	`, noticeID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNoticeNotFound
	}
	if err != nil {
		return nil, mapPostgresError(err)
	}
	return notice, nil
}

func (s *NoticeStore) Update(ctx context.Context, notice *models.Notice) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE notices SET title = $2, body = $3, updated_at = $4 WHERE notice_id = $1
	`, notice.NoticeID, notice.Title, notice.Body, notice.UpdatedAt)
	if err != nil {
		return mapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNoticeNotFound
	}
	return nil
}

func (s *NoticeStore) Delete(ctx context.Context, noticeID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM notices WHERE notice_id = $1`, noticeID)
	if err != nil {
		return mapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNoticeNotFound
	}
	return nil
}

func (s *NoticeStore) List(ctx context.Context) ([]*models.Notice, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+noticeColumns+` FROM notices ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, mapPostgresError(err)
	}
	defer rows.Close()

	var notices []*models.Notice
	for rows.Next() {
		notice, err := scanNotice(rows)
		if err != nil {
			return nil, mapPostgresError(err)
		}
		notices = append(notices, notice)
	}
	return notices, mapPostgresError(rows.Err())
}

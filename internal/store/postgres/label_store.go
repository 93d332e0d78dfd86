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

// LabelStore implements store.LabelStore on PostgreSQL.
type LabelStore struct {
	pool *pgxpool.Pool
}

const labelColumns = `label_id, name, parent_label_id, owner_user_id, status,
	contact_email, created_at, updated_at`

func scanLabel(row pgx.Row) (*models.Label, error) {
	var l models.Label
	err := row.Scan(&l.LabelID, &l.Name, &l.ParentLabelID, &l.OwnerUserID,
		&l.Status, &l.ContactEmail, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (s *LabelStore) Create(ctx context.Context, label *models.Label) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO labels (`+labelColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, label.LabelID, label.Name, label.ParentLabelID, label.OwnerUserID,
		label.Status, label.ContactEmail, label.CreatedAt, label.UpdatedAt)
	return mapPostgresError(err)
}

func (s *LabelStore) Get(ctx context.Context, labelID uuid.UUID) (*models.Label, error) {
	label, err := scanLabel(s.pool.QueryRow(ctx, `
		SELECT `+labelColumns+` FROM labels WHERE label_id = $1
	`, labelID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrLabelNotFound
	}
	if err != nil {
		return nil, mapPostgresError(err)
	}
	return label, nil
}

func (s *LabelStore) Update(ctx context.Context, label *models.Label) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE labels SET name = $2, owner_user_id = $3, status = $4,
			contact_email = $5, updated_at = $6
		WHERE label_id = $1
	`, label.LabelID, label.Name, label.OwnerUserID, label.Status,
		label.ContactEmail, label.UpdatedAt)
	if err != nil {
		return mapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrLabelNotFound
	}
	return nil
}

func (s *LabelStore) Delete(ctx context.Context, labelID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM labels WHERE label_id = $1`, labelID)
	if err != nil {
		return mapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrLabelNotFound
	}
	return nil
}

func (s *LabelStore) List(ctx context.Context, scope store.Scope) ([]*models.Label, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+labelColumns+` FROM labels
		WHERE ($1::uuid[] IS NULL OR label_id = ANY($1))
		ORDER BY created_at
	`, scopeArg(scope))
	if err != nil {
		return nil, mapPostgresError(err)
	}
	defer rows.Close()
	return collectLabels(rows)
}

// DescendantIDs resolves the label branch with a recursive CTE. The result
// is ordered by depth, root first, so callers can delete leaves by walking
// it backwards. Parents are immutable after creation, so the hierarchy is
// acyclic and the recursion terminates.
func (s *LabelStore) DescendantIDs(ctx context.Context, rootLabelID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.pool.Query(ctx, `
		WITH RECURSIVE branch (label_id, depth) AS (
			VALUES ($1::uuid, 0)
			UNION ALL
			SELECT l.label_id, b.depth + 1
			FROM labels l
			JOIN branch b ON l.parent_label_id = b.label_id
		)
		SELECT label_id FROM branch ORDER BY depth
	`, rootLabelID)
	if err != nil {
		return nil, mapPostgresError(err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, mapPostgresError(err)
		}
		ids = append(ids, id)
	}
	return ids, mapPostgresError(rows.Err())
}

func (s *LabelStore) Search(ctx context.Context, query string) ([]*models.Label, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+labelColumns+` FROM labels
		WHERE name ILIKE '%' || $1 || '%'
		ORDER BY name
	`, query)
	if err != nil {
		return nil, mapPostgresError(err)
	}
	defer rows.Close()
	return collectLabels(rows)
}

func collectLabels(rows pgx.Rows) ([]*models.Label, error) {
	var labels []*models.Label
	for rows.Next() {
		label, err := scanLabel(rows)
		if err != nil {
			return nil, mapPostgresError(err)
		}
		labels = append(labels, label)
	}
	return labels, mapPostgresError(rows.Err())
}

package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/meridianaudio/meridian/internal/models"
	"github.com/meridianaudio/meridian/internal/store"
)

// RevenueStore implements store.RevenueStore on PostgreSQL. Rows are written
// by the settlement import pipeline; this side only reads.
type RevenueStore struct {
	pool *pgxpool.Pool
}

func (s *RevenueStore) List(ctx context.Context, filter store.RevenueFilter) ([]*models.RevenueEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT entry_id, label_id, release_id, period, platform, streams,
			amount_cents, currency, created_at
		FROM revenue_entries
		WHERE ($1::uuid[] IS NULL OR label_id = ANY($1))
			AND ($2::date IS NULL OR period >= $2)
			AND ($3::date IS NULL OR period <= $3)
		ORDER BY period DESC, platform
	`, scopeArg(filter.Scope), filter.From, filter.To)
	if err != nil {
		return nil, mapPostgresError(err)
	}
	defer rows.Close()

	var entries []*models.RevenueEntry
	for rows.Next() {
		var e models.RevenueEntry
		err := rows.Scan(&e.EntryID, &e.LabelID, &e.ReleaseID, &e.Period,
			&e.Platform, &e.Streams, &e.AmountCents, &e.Currency, &e.CreatedAt)
		if err != nil {
			return nil, mapPostgresError(err)
		}
		entries = append(entries, &e)
	}
	return entries, mapPostgresError(rows.Err())
}

package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/meridianaudio/meridian/internal/store"
)

// mapPostgresError maps PostgreSQL errors to the store sentinels. Unmatched
// errors come back wrapped with their code and detail.
func mapPostgresError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgerrcode.UniqueViolation:
		switch pgErr.ConstraintName {
		case "idx_users_email", "users_pkey":
			return store.ErrUserAlreadyExists
		case "labels_pkey":
			return store.ErrLabelAlreadyExists
		case "artists_pkey":
			return store.ErrArtistAlreadyExists
		}
		return fmt.Errorf("unique constraint violation: %s: %w", pgErr.ConstraintName, err)

	case pgerrcode.ForeignKeyViolation:
		switch pgErr.TableName {
		case "labels":
			return fmt.Errorf("%w: %s", store.ErrLabelNotFound, pgErr.Detail)
		case "releases", "tracks", "release_notes":
			return fmt.Errorf("%w: %s", store.ErrReleaseNotFound, pgErr.Detail)
		}
		return fmt.Errorf("foreign key violation: %s: %w", pgErr.ConstraintName, err)

	case pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected:
		return fmt.Errorf("transaction conflict (retryable): %w", err)

	case pgerrcode.ConnectionException,
		pgerrcode.ConnectionDoesNotExist,
		pgerrcode.ConnectionFailure,
		pgerrcode.CannotConnectNow,
		pgerrcode.SQLClientUnableToEstablishSQLConnection:
		return fmt.Errorf("database connection error: %w", err)

	case pgerrcode.QueryCanceled:
		return fmt.Errorf("query canceled: %w", err)

	default:
		return fmt.Errorf("postgres error [%s]: %s (detail: %s): %w",
			pgErr.Code, pgErr.Message, pgErr.Detail, err)
	}
}

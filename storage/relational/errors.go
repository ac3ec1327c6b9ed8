package relational

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/poiesic/dataport/storage"
)

// undefinedTableCode is the PostgreSQL error code for a missing relation.
const undefinedTableCode = "42P01"

// unavailable maps a connection or execution failure into the storage taxonomy.
func unavailable(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: timeout: %w", storage.ErrBackendUnavailable, err)
	}
	if isUndefinedTable(err) {
		return fmt.Errorf("%w: schema not migrated: %w", storage.ErrBackendUnavailable, err)
	}
	return fmt.Errorf("%w: %w", storage.ErrBackendUnavailable, err)
}

// mapping marks a row that could not be scanned into its record type.
func mapping(err error) error {
	return fmt.Errorf("%w: %w", storage.ErrMapping, err)
}

func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == undefinedTableCode
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == undefinedTableCode
	}
	return false
}

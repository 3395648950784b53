package errors

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// MapStorageError maps errors raised by a storage backend to AppError instances.
// It handles:
// - Context timeouts/cancellations → Timeout/Canceled
// - pgx.ErrNoRows → NotFound
// - Postgres connection and resource exceptions → Storage (unavailable)
// - Undefined table (migrations not applied) → Storage
// - Anything else → Storage wrapping the original error
func MapStorageError(err error) error {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return err
	}

	// Check for context errors first
	if errors.Is(err, context.DeadlineExceeded) {
		return &AppError{
			Code:    ErrCodeTimeout,
			Message: "storage operation timed out",
			Cause:   err,
		}
	}
	if errors.Is(err, context.Canceled) {
		return &AppError{
			Code:    ErrCodeCanceled,
			Message: "storage operation was canceled",
			Cause:   err,
		}
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return &AppError{
			Code:    ErrCodeNotFound,
			Message: "key not found",
			Cause:   err,
		}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return mapPgError(pgErr)
	}

	return Storage(err, "storage unavailable")
}

// mapPgError maps PostgreSQL-specific errors to storage AppErrors with a readable message.
func mapPgError(pgErr *pgconn.PgError) error {
	var message string
	switch {
	case pgerrcode.IsConnectionException(pgErr.Code):
		message = "storage connection lost"
	case pgerrcode.IsInsufficientResources(pgErr.Code):
		message = "storage out of resources"
	case pgErr.Code == pgerrcode.UndefinedTable:
		message = "storage table missing; run migrations"
	case pgErr.Code == pgerrcode.StringDataRightTruncationDataException,
		pgErr.Code == pgerrcode.InvalidTextRepresentation:
		return &AppError{
			Code:    ErrCodeValidation,
			Message: "value rejected by storage",
			Field:   pgErr.ColumnName,
			Cause:   pgErr,
		}
	default:
		message = "storage error"
	}
	return &AppError{
		Code:    ErrCodeStorage,
		Message: message,
		Cause:   pgErr,
	}
}

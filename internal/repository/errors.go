// Package repository implements the data access layer for the application.
package repository

import (
	"errors"
	"strings"

	"sitehub/internal/models"
	"sitehub/internal/observability"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

// isUniqueConstraintError checks if a DB error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, pgUniqueViolation)
}

// translateWriteError maps a failed write to a Conflict on field or an Internal error.
func translateWriteError(err error, resource, field string) error {
	if err == nil {
		return nil
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if isUniqueConstraintError(err) {
		out := models.NewConflictError(resource, field)
		observability.RecordStoreError(out)
		return out
	}
	return storeFailure(err)
}

// translateReadError maps a failed lookup to NotFound or an Internal error.
func translateReadError(err error, notFound *models.AppError) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return storeFailure(err)
}

// storeFailure wraps a driver error as Internal and counts it. Every store
// error metric is recorded here or in translateWriteError, nowhere else.
func storeFailure(err error) *models.AppError {
	out := models.NewInternalError(err)
	observability.RecordStoreError(out)
	return out
}

// conflictFieldFor guesses which unique column a violation refers to from the
// driver message, falling back to def.
func conflictFieldFor(err error, def string, candidates ...string) string {
	if err == nil {
		return def
	}
	msg := strings.ToLower(err.Error())
	for _, c := range candidates {
		if strings.Contains(msg, c) {
			return c
		}
	}
	return def
}

package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// PostgreSQL error codes
const (
	PgErrForeignKeyViolation = "23503"
	PgErrUniqueViolation     = "23505"
)

// Repository error codes
const (
	CodeNotFound       = "NOT_FOUND"
	CodeDatabase       = "DATABASE_ERROR"
	CodePalletExists   = "PALLET_EXISTS"
	CodeConflict       = "CONFLICT"
	CodeRoutineFailed  = "ROUTINE_FAILED"
	CodeRoutineTimeout = "ROUTINE_TIMEOUT"
	CodeUnknownRoutine = "UNKNOWN_ROUTINE"
)

// RepositoryError represents repository layer errors
type RepositoryError struct {
	Code    string
	Message string
	Detail  string
}

func (e *RepositoryError) Error() string {
	return fmt.Sprintf("%s: %s - %s", e.Code, e.Message, e.Detail)
}

// IsNotFound reports whether err is a repository NOT_FOUND error
func IsNotFound(err error) bool {
	return hasCode(err, CodeNotFound)
}

// IsPalletExists reports whether a pallet insert hit an existing id
func IsPalletExists(err error) bool {
	return hasCode(err, CodePalletExists)
}

// IsRoutineFailure reports whether an external routine failed or timed out
func IsRoutineFailure(err error) bool {
	return hasCode(err, CodeRoutineFailed) || hasCode(err, CodeRoutineTimeout) || hasCode(err, CodeUnknownRoutine)
}

func hasCode(err error, code string) bool {
	var repoErr *RepositoryError
	if errors.As(err, &repoErr) {
		return repoErr.Code == code
	}
	return false
}

// NotFound builds a NOT_FOUND error for an entity
func NotFound(entity, id string) *RepositoryError {
	return &RepositoryError{
		Code:    CodeNotFound,
		Message: entity + " not found",
		Detail:  fmt.Sprintf("%s %s does not exist", entity, id),
	}
}

// wrapDBError converts a gorm/pgx error into a RepositoryError
func wrapDBError(err error, entity, id, message string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NotFound(entity, id)
	}
	if detail, ok := uniqueViolation(err); ok {
		return &RepositoryError{
			Code:    CodeConflict,
			Message: entity + " already exists",
			Detail:  detail,
		}
	}
	if detail, ok := foreignKeyViolation(err); ok {
		return &RepositoryError{
			Code:    CodeConflict,
			Message: entity + " references a missing row",
			Detail:  detail,
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &RepositoryError{
			Code:    CodeRoutineTimeout,
			Message: message,
			Detail:  err.Error(),
		}
	}
	return &RepositoryError{
		Code:    CodeDatabase,
		Message: message,
		Detail:  err.Error(),
	}
}

// uniqueViolation matches a raw postgres 23505 as well as the error gorm
// returns when TranslateError is on
func uniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == PgErrUniqueViolation {
		return pgErr.Detail, true
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return err.Error(), true
	}
	return "", false
}

func foreignKeyViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == PgErrForeignKeyViolation {
		return pgErr.Detail, true
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return err.Error(), true
	}
	return "", false
}

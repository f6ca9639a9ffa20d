package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ValidationError reports input that breaks a business rule. Fields, when
// set, maps each offending field to a short reason.
type ValidationError struct {
	Msg    string
	Fields map[string]string
}

func (e *ValidationError) Error() string { return e.Msg }

// NotFoundError reports a missing entity.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Entity + " no encontrado"
	}
	return fmt.Sprintf("%s %s no encontrado", e.Entity, e.ID)
}

// ConflictError reports an operation that clashes with current state:
// insufficient stock, duplicates, double cancellation.
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string { return e.Msg }

// StorageError wraps an unexpected persistence failure.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *StorageError) Unwrap() error { return e.Err }

func invalid(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

func notFound(entity, id string) error { return &NotFoundError{Entity: entity, ID: id} }

func conflict(format string, args ...any) error {
	return &ConflictError{Msg: fmt.Sprintf(format, args...)}
}

// isUniqueViolation reports whether err is a Postgres unique_violation (23505).
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// uniqueConstraint returns the violated constraint name, if known.
func uniqueConstraint(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}

// translate maps a repository error onto the domain taxonomy. Domain errors
// pass through untouched so it can wrap whole transactions.
func translate(err error, entity, op string) error {
	if err == nil {
		return nil
	}
	var (
		ve *ValidationError
		nf *NotFoundError
		ce *ConflictError
		se *StorageError
	)
	switch {
	case errors.As(err, &ve), errors.As(err, &nf), errors.As(err, &ce), errors.As(err, &se):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &NotFoundError{Entity: entity}
	case isUniqueViolation(err):
		if c := uniqueConstraint(err); c != "" {
			return conflict("%s duplicado (%s)", entity, strings.TrimPrefix(c, "idx_"))
		}
		return conflict("%s duplicado", entity)
	default:
		return &StorageError{Op: op, Err: err}
	}
}

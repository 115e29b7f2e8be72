// Package apperr holds the error taxonomy shared by the scheduling and
// posting paths. Business faults (validation, conflict, insufficient stock,
// not found) are shown to staff with a specific message; persistence faults
// are server failures and carry a generic one.
package apperr

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrConflict          = errors.New("scheduling conflict")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrNotFound          = errors.New("not found")
	ErrPersistence       = errors.New("persistence failure")
)

// ValidationError reports malformed input rejected before touching storage.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func Validation(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// ConflictError is returned when a booking overlaps an existing one. It never
// identifies the conflicting appointment.
type ConflictError struct{}

func (e *ConflictError) Error() string {
	return "a conflicting appointment exists for this professional, room or patient"
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// InsufficientStockError is returned when a guarded decrement affects no row.
type InsufficientStockError struct {
	ProductID int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d (requested %d)", e.ProductID, e.Requested)
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

type NotFoundError struct {
	Entity string
	ID     int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

func NotFound(entity string, id int) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// PersistenceError wraps a storage or connectivity failure.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

// Persistence wraps err as a PersistenceError unless it already belongs to
// the taxonomy, in which case it is returned untouched.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsTyped(err) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &PersistenceError{Op: op, Err: fmt.Errorf("transaction timed out: %w", err)}
	}
	return &PersistenceError{Op: op, Err: err}
}

// IsTyped reports whether err is one of the taxonomy errors.
func IsTyped(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrPersistence)
}

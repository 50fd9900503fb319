package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"salonbook-backend/repository"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrSlotConflict      = errors.New("time slot already booked")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// ValidationError reports a bad input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ConflictError is returned when an entity cannot be removed because open
// appointments still reference it.
type ConflictError struct {
	Entity string
	ID     string
	Reason string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Entity, e.ID, e.Reason)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

type SlotConflictError struct {
	Date     string
	TimeSlot string
}

func (e *SlotConflictError) Error() string {
	return fmt.Sprintf("time slot %s on %s is already booked", e.TimeSlot, e.Date)
}

func (e *SlotConflictError) Is(target error) bool {
	return target == ErrSlotConflict
}

type InvalidTransitionError struct {
	ID     string
	From   string
	Action string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s appointment %s in status %s", e.Action, e.ID, e.From)
}

func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// lookupError turns a repository miss into a NotFoundError and wraps
// anything else.
func lookupError(err error, entity string, id uuid.UUID) error {
	if errors.Is(err, repository.ErrNotFound) {
		return &NotFoundError{Entity: entity, ID: id.String()}
	}
	return fmt.Errorf("%s %s: %w", entity, id, err)
}

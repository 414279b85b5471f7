package app

import (
	"context"
	"errors"

	"cfgbk-go/internal/bk"
)

// Operation outcome statuses stored in the history.
const (
	StatusSuccess   = "success"
	StatusError     = "error"
	StatusCancelled = "cancelled"
)

// Operation tracks one CLI invocation. Operations are created in memory with
// ID=0. Only mutating commands persist them (giving them an auto-increment
// ID from the database).
type Operation struct {
	ID         int64
	Operation  string
	Parameters string
	Status     string
}

// NewOperation creates a new in-memory operation.
func NewOperation(operation, parameters string) *Operation {
	return &Operation{
		Operation:  operation,
		Parameters: parameters,
		Status:     StatusSuccess,
	}
}

// Persisted returns true if this operation has been saved to the database.
func (op *Operation) Persisted() bool {
	return op.ID != 0
}

// statusFor maps the result of a run to its history status.
func statusFor(err error) string {
	switch {
	case err == nil:
		return StatusSuccess
	case errors.Is(err, bk.ErrCancelled), errors.Is(err, context.Canceled):
		return StatusCancelled
	default:
		return StatusError
	}
}

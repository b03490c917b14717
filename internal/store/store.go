// Package store defines the item store contract shared by the
// JSON-file, sqlite and in-memory backends. Iteration order is
// insertion order for every backend.
package store

import (
	"context"
	"fmt"

	"github.com/idilsaglam/optodo/internal/model"
)

type Store interface {
	// FindAll returns the full current snapshot, oldest first.
	FindAll(ctx context.Context) ([]model.Todo, error)
	// Insert adds a new todo with a fresh id and Completed=false.
	Insert(ctx context.Context, text string) (model.Todo, error)
	// UpdateCompleted sets the completed flag for an existing todo.
	// Idempotent: repeating the same (id, completed) pair is a no-op
	// beyond the write itself.
	UpdateCompleted(ctx context.Context, id model.ID, completed bool) (model.Todo, error)
	// Delete removes a todo and returns the removed record.
	Delete(ctx context.Context, id model.ID) (model.Todo, error)
	// Close releases backend resources. Safe to call once.
	Close() error
}

// NotFoundError reports an id that matches no todo.
type NotFoundError struct {
	ID model.ID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("todo %s: not found", e.ID)
}

// StoreError wraps an I/O failure from a backend. Op names the store
// operation that failed.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

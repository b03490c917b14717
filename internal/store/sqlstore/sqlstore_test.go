package sqlstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/go-playground/assert/v2"

	"github.com/idilsaglam/optodo/internal/store"
)

func open(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "todos.sqlite3"))
	assert.Equal(t, nil, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestInsertAndFindAll(t *testing.T) {
	s := open(t)
	ctx := context.Background()

	first, err := s.Insert(ctx, "first")
	assert.Equal(t, nil, err)
	second, _ := s.Insert(ctx, "second")

	// ULID primary keys keep insertion order under ORDER BY id
	todos, err := s.FindAll(ctx)
	assert.Equal(t, nil, err)
	assert.Equal(t, 2, len(todos))
	assert.Equal(t, first, todos[0])
	assert.Equal(t, second, todos[1])
}

func TestUpdateCompleted(t *testing.T) {
	s := open(t)
	ctx := context.Background()
	todo, _ := s.Insert(ctx, "x")

	updated, err := s.UpdateCompleted(ctx, todo.ID, true)
	assert.Equal(t, nil, err)
	assert.Equal(t, true, updated.Completed)

	// idempotent
	again, err := s.UpdateCompleted(ctx, todo.ID, true)
	assert.Equal(t, nil, err)
	assert.Equal(t, updated, again)
}

func TestUpdateUnknownId(t *testing.T) {
	s := open(t)

	_, err := s.UpdateCompleted(context.Background(), "nope", true)
	var nf *store.NotFoundError
	assert.Equal(t, true, errors.As(err, &nf))
}

func TestDelete(t *testing.T) {
	s := open(t)
	ctx := context.Background()
	a, _ := s.Insert(ctx, "a")
	b, _ := s.Insert(ctx, "b")

	removed, err := s.Delete(ctx, a.ID)
	assert.Equal(t, nil, err)
	assert.Equal(t, a, removed)

	todos, _ := s.FindAll(ctx)
	assert.Equal(t, 1, len(todos))
	assert.Equal(t, b.ID, todos[0].ID)

	_, err = s.Delete(ctx, a.ID)
	var nf *store.NotFoundError
	assert.Equal(t, true, errors.As(err, &nf))
}

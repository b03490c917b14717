package jsonstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-playground/assert/v2"

	"github.com/idilsaglam/optodo/internal/store"
)

func open(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "todos.json")
	s, err := Open(path)
	assert.Equal(t, nil, err)
	return s, path
}

func TestEmptyFileIsEmptyList(t *testing.T) {
	s, _ := open(t)

	todos, err := s.FindAll(context.Background())
	assert.Equal(t, nil, err)
	assert.Equal(t, 0, len(todos))
}

func TestInsertPersists(t *testing.T) {
	s, path := open(t)
	ctx := context.Background()

	todo, err := s.Insert(ctx, "Buy milk")
	assert.Equal(t, nil, err)
	assert.Equal(t, "Buy milk", todo.Text)
	assert.Equal(t, false, todo.Completed)

	// a fresh store on the same file sees the write
	reopened, _ := Open(path)
	todos, err := reopened.FindAll(ctx)
	assert.Equal(t, nil, err)
	assert.Equal(t, 1, len(todos))
	assert.Equal(t, todo, todos[0])
}

func TestUpdateCompleted(t *testing.T) {
	s, _ := open(t)
	ctx := context.Background()
	todo, _ := s.Insert(ctx, "x")

	updated, err := s.UpdateCompleted(ctx, todo.ID, true)
	assert.Equal(t, nil, err)
	assert.Equal(t, true, updated.Completed)

	_, err = s.UpdateCompleted(ctx, "nope", true)
	var nf *store.NotFoundError
	assert.Equal(t, true, errors.As(err, &nf))
}

func TestDelete(t *testing.T) {
	s, _ := open(t)
	ctx := context.Background()
	a, _ := s.Insert(ctx, "a")
	s.Insert(ctx, "b")

	removed, err := s.Delete(ctx, a.ID)
	assert.Equal(t, nil, err)
	assert.Equal(t, a, removed)

	todos, _ := s.FindAll(ctx)
	assert.Equal(t, 1, len(todos))
	assert.Equal(t, "b", todos[0].Text)
}

func TestCorruptFileIsStoreError(t *testing.T) {
	s, path := open(t)
	os.WriteFile(path, []byte("{not json"), 0o644)

	_, err := s.FindAll(context.Background())
	var se *store.StoreError
	assert.Equal(t, true, errors.As(err, &se))
}

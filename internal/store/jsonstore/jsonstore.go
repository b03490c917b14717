// JSON-backed storage. Single file, human-readable, portable.
// Reads and writes go through one mutex; fine for a local
// single-user app.
package jsonstore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"github.com/idilsaglam/optodo/internal/model"
	"github.com/idilsaglam/optodo/internal/store"
)

const DefaultFileName = "todos.json"

type Store struct {
	mu   sync.Mutex
	path string
}

// Open uses path if given, otherwise todos.json in the working
// directory.
func Open(path string) (*Store, error) {
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "getwd")
		}
		path = filepath.Join(wd, DefaultFileName)
	}
	return &Store{path: path}, nil
}

func (s *Store) load() ([]model.Todo, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []model.Todo{}, nil
		}
		return nil, &store.StoreError{Op: "read file", Err: errors.Wrap(err, s.path)}
	}
	var todos []model.Todo
	if err := json.Unmarshal(b, &todos); err != nil {
		return nil, &store.StoreError{Op: "decode file", Err: errors.Wrap(err, s.path)}
	}
	return todos, nil
}

func (s *Store) save(todos []model.Todo) error {
	b, err := json.MarshalIndent(todos, "", "  ")
	if err != nil {
		return &store.StoreError{Op: "encode file", Err: err}
	}
	if err := os.WriteFile(s.path, b, 0o644); err != nil {
		return &store.StoreError{Op: "write file", Err: errors.Wrap(err, s.path)}
	}
	return nil
}

func (s *Store) FindAll(ctx context.Context) ([]model.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) Insert(ctx context.Context, text string) (model.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	todos, err := s.load()
	if err != nil {
		return model.Todo{}, err
	}
	t := model.Todo{ID: model.NewID(), Text: text}
	todos = append(todos, t)
	if err := s.save(todos); err != nil {
		return model.Todo{}, err
	}
	return t, nil
}

func (s *Store) UpdateCompleted(ctx context.Context, id model.ID, completed bool) (model.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	todos, err := s.load()
	if err != nil {
		return model.Todo{}, err
	}
	for i := range todos {
		if todos[i].ID == id {
			todos[i].Completed = completed
			if err := s.save(todos); err != nil {
				return model.Todo{}, err
			}
			return todos[i], nil
		}
	}
	return model.Todo{}, &store.NotFoundError{ID: id}
}

func (s *Store) Delete(ctx context.Context, id model.ID) (model.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	todos, err := s.load()
	if err != nil {
		return model.Todo{}, err
	}
	for i := range todos {
		if todos[i].ID == id {
			t := todos[i]
			todos = append(todos[:i], todos[i+1:]...)
			if err := s.save(todos); err != nil {
				return model.Todo{}, err
			}
			return t, nil
		}
	}
	return model.Todo{}, &store.NotFoundError{ID: id}
}

func (s *Store) Close() error { return nil }

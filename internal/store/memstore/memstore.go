// Package memstore is a mutex-guarded in-memory store. It backs tests
// and the latency demo; nothing survives the process.
package memstore

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/idilsaglam/optodo/internal/model"
	"github.com/idilsaglam/optodo/internal/store"
)

type Store struct {
	mu    sync.Mutex
	todos []model.Todo

	// Delay is applied before every operation; FailWith, when set,
	// makes every operation fail with a StoreError. Both are test and
	// demo knobs.
	Delay    time.Duration
	FailWith error
}

func New() *Store {
	return &Store{}
}

// Seed replaces the contents wholesale. Test helper.
func (s *Store) Seed(todos []model.Todo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.todos = slices.Clone(todos)
}

func (s *Store) gate(ctx context.Context, op string) error {
	if s.Delay > 0 {
		select {
		case <-time.After(s.Delay):
		case <-ctx.Done():
			return &store.StoreError{Op: op, Err: ctx.Err()}
		}
	}
	if s.FailWith != nil {
		return &store.StoreError{Op: op, Err: s.FailWith}
	}
	return nil
}

func (s *Store) FindAll(ctx context.Context) ([]model.Todo, error) {
	if err := s.gate(ctx, "find all"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.todos), nil
}

func (s *Store) Insert(ctx context.Context, text string) (model.Todo, error) {
	if err := s.gate(ctx, "insert"); err != nil {
		return model.Todo{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t := model.Todo{ID: model.NewID(), Text: text}
	s.todos = append(s.todos, t)
	return t, nil
}

func (s *Store) UpdateCompleted(ctx context.Context, id model.ID, completed bool) (model.Todo, error) {
	if err := s.gate(ctx, "update"); err != nil {
		return model.Todo{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.todos {
		if s.todos[i].ID == id {
			s.todos[i].Completed = completed
			return s.todos[i], nil
		}
	}
	return model.Todo{}, &store.NotFoundError{ID: id}
}

func (s *Store) Delete(ctx context.Context, id model.ID) (model.Todo, error) {
	if err := s.gate(ctx, "delete"); err != nil {
		return model.Todo{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.todos {
		if s.todos[i].ID == id {
			t := s.todos[i]
			s.todos = slices.Delete(s.todos, i, i+1)
			return t, nil
		}
	}
	return model.Todo{}, &store.NotFoundError{ID: id}
}

func (s *Store) Close() error { return nil }

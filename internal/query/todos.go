package query

import (
	"context"

	"github.com/idilsaglam/optodo/internal/model"
	"github.com/idilsaglam/optodo/internal/store"
)

// TodosKey is the cache key the list query is registered under.
const TodosKey = "todos"

// TodoCache aliases the list query's cache instantiation.
type TodoCache = Cache[[]model.Todo]

// NewTodos registers the full-list query against st.
func NewTodos(st store.Store) *TodoCache {
	c := New[[]model.Todo]()
	c.Register(TodosKey, func(ctx context.Context) ([]model.Todo, error) {
		return st.FindAll(ctx)
	})
	return c
}

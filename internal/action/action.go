// Package action implements the two mutation operations. Each
// invocation registers with the submission tracker before touching
// the store, and invalidates the list query only after the store
// write has committed, so the next fetch always sees the write.
package action

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/idilsaglam/optodo/internal/model"
	"github.com/idilsaglam/optodo/internal/query"
	"github.com/idilsaglam/optodo/internal/store"
	"github.com/idilsaglam/optodo/internal/submission"
)

// ValidationError reports bad input rejected before any store
// interaction.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

type Actions struct {
	store   store.Store
	todos   *query.TodoCache
	tracker *submission.Tracker
	// latency is an artificial delay between the store write and the
	// cache invalidation, so the optimistic overlay stays observable.
	// Zero in production use.
	latency time.Duration
	log     *slog.Logger
}

func New(st store.Store, todos *query.TodoCache, tr *submission.Tracker, latency time.Duration, log *slog.Logger) *Actions {
	if log == nil {
		log = slog.Default()
	}
	return &Actions{store: st, todos: todos, tracker: tr, latency: latency, log: log}
}

// Create inserts a new todo with the given text. Empty or blank text
// fails with a ValidationError and leaves the store untouched.
func (a *Actions) Create(ctx context.Context, text string) (todo model.Todo, err error) {
	tk := a.tracker.Submit(submission.KindCreate, submission.CreateInput{Text: text})
	defer func() { tk.Settle(err) }()

	if strings.TrimSpace(text) == "" {
		return model.Todo{}, &ValidationError{Reason: "missing text"}
	}
	todo, err = a.store.Insert(ctx, text)
	if err != nil {
		a.log.Error("create failed", "err", err)
		return model.Todo{}, err
	}
	a.settleDelay(ctx)
	a.todos.Invalidate(query.TodosKey)
	a.log.Info("created todo", "id", todo.ID, "text", todo.Text)
	return todo, nil
}

// SetCompleted updates the completed flag of an existing todo. Unknown
// ids fail with a NotFoundError. Idempotent.
func (a *Actions) SetCompleted(ctx context.Context, id model.ID, completed bool) (todo model.Todo, err error) {
	tk := a.tracker.Submit(submission.KindSetCompleted,
		submission.SetCompletedInput{ID: id, Completed: completed})
	defer func() { tk.Settle(err) }()

	todo, err = a.store.UpdateCompleted(ctx, id, completed)
	if err != nil {
		a.log.Error("set completed failed", "id", id, "err", err)
		return model.Todo{}, err
	}
	a.settleDelay(ctx)
	a.todos.Invalidate(query.TodosKey)
	a.log.Info("set completed", "id", id, "completed", completed)
	return todo, nil
}

// settleDelay waits out the configured latency. A canceled context
// only shortens the wait; the invalidation that follows still runs,
// since the write has already committed.
func (a *Actions) settleDelay(ctx context.Context) {
	if a.latency <= 0 {
		return
	}
	select {
	case <-time.After(a.latency):
	case <-ctx.Done():
	}
}

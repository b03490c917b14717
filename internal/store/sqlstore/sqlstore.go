// Package sqlstore keeps todos in a sqlite database. ULID ids are the
// primary key, and since ULIDs sort by creation time, ordering by id
// yields insertion order.
package sqlstore

import (
	"context"
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/idilsaglam/optodo/internal/model"
	"github.com/idilsaglam/optodo/internal/store"
)

const schema = `CREATE TABLE IF NOT EXISTS todos (
	id        TEXT NOT NULL PRIMARY KEY,
	text      TEXT NOT NULL,
	completed INTEGER NOT NULL DEFAULT 0
)`

type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, &store.StoreError{Op: "open database", Err: errors.Wrap(err, path)}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, &store.StoreError{Op: "create table", Err: err}
	}
	return &Store{db: db}, nil
}

func (s *Store) FindAll(ctx context.Context) ([]model.Todo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, text, completed FROM todos ORDER BY id`)
	if err != nil {
		return nil, &store.StoreError{Op: "query todos", Err: err}
	}
	defer rows.Close()

	todos := []model.Todo{}
	for rows.Next() {
		var t model.Todo
		if err := rows.Scan(&t.ID, &t.Text, &t.Completed); err != nil {
			return nil, &store.StoreError{Op: "scan todo", Err: err}
		}
		todos = append(todos, t)
	}
	if err := rows.Err(); err != nil {
		return nil, &store.StoreError{Op: "query todos", Err: err}
	}
	return todos, nil
}

func (s *Store) Insert(ctx context.Context, text string) (model.Todo, error) {
	t := model.Todo{ID: model.NewID(), Text: text}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO todos(id, text, completed) VALUES (?, ?, 0)`,
		t.ID, t.Text); err != nil {
		return model.Todo{}, &store.StoreError{Op: "insert todo", Err: err}
	}
	return t, nil
}

func (s *Store) UpdateCompleted(ctx context.Context, id model.ID, completed bool) (model.Todo, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE todos SET completed = ? WHERE id = ?`, completed, id)
	if err != nil {
		return model.Todo{}, &store.StoreError{Op: "update todo", Err: err}
	}
	if n, err := res.RowsAffected(); err != nil {
		return model.Todo{}, &store.StoreError{Op: "update todo", Err: err}
	} else if n == 0 {
		return model.Todo{}, &store.NotFoundError{ID: id}
	}
	return s.find(ctx, id)
}

func (s *Store) Delete(ctx context.Context, id model.ID) (model.Todo, error) {
	t, err := s.find(ctx, id)
	if err != nil {
		return model.Todo{}, err
	}
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM todos WHERE id = ?`, id); err != nil {
		return model.Todo{}, &store.StoreError{Op: "delete todo", Err: err}
	}
	return t, nil
}

func (s *Store) find(ctx context.Context, id model.ID) (model.Todo, error) {
	var t model.Todo
	if err := s.db.QueryRowContext(ctx,
		`SELECT id, text, completed FROM todos WHERE id = ?`, id).
		Scan(&t.ID, &t.Text, &t.Completed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Todo{}, &store.NotFoundError{ID: id}
		}
		return model.Todo{}, &store.StoreError{Op: "query todo", Err: err}
	}
	return t, nil
}

func (s *Store) Close() error { return s.db.Close() }

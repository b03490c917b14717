// Package server exposes the todo operations over a small JSON API.
// It is a collaborator surface only: all semantics live in the store,
// query and action packages.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/idilsaglam/optodo/internal/action"
	"github.com/idilsaglam/optodo/internal/model"
	"github.com/idilsaglam/optodo/internal/query"
	"github.com/idilsaglam/optodo/internal/store"
)

type Server struct {
	actions *action.Actions
	todos   *query.TodoCache
	log     *slog.Logger
}

func New(a *action.Actions, todos *query.TodoCache, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{actions: a, todos: todos, log: log}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/todos", s.wrap(s.todosHandler))
	mux.HandleFunc("/todos/complete", s.wrap(s.completeHandler))
	return mux
}

func (s *Server) ListenAndServe(addr string) error {
	s.log.Info("listening", "addr", addr)
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rw := &recordingWriter{inner: w}
		next.ServeHTTP(rw, r)
		s.log.Info("handled", "method", r.Method, "url", r.URL.String(), "status", rw.statusCode)
	}
}

// GET lists, POST creates.
func (s *Server) todosHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		todos, err := s.todos.Get(r.Context(), query.TodosKey)
		if err != nil {
			s.writeErr(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, todos)

	case http.MethodPost:
		var req struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		todo, err := s.actions.Create(r.Context(), req.Text)
		if err != nil {
			s.writeErr(w, err)
			return
		}
		s.writeJSON(w, http.StatusCreated, todo)

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) completeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "only POST allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		ID        model.ID `json:"id"`
		Completed bool     `json:"completed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	todo, err := s.actions.SetCompleted(r.Context(), req.ID, req.Completed)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, todo)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("failed to encode response", "err", err)
	}
}

func (s *Server) writeErr(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var ve *action.ValidationError
	var nf *store.NotFoundError
	switch {
	case errors.As(err, &ve):
		status = http.StatusBadRequest
	case errors.As(err, &nf):
		status = http.StatusNotFound
	}
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", "err", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

type recordingWriter struct {
	inner      http.ResponseWriter
	statusCode int
}

func (r *recordingWriter) Header() http.Header {
	return r.inner.Header()
}

func (r *recordingWriter) Write(b []byte) (int, error) {
	if r.statusCode == 0 {
		r.statusCode = http.StatusOK
	}
	return r.inner.Write(b)
}

func (r *recordingWriter) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.inner.WriteHeader(statusCode)
}

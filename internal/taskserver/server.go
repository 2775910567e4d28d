// Package taskserver is an in-memory Task Service speaking the REST contract
// the client expects. `tasklist serve` runs it for local development and the
// tests run it behind httptest.
package taskserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// Task is the stored and wire representation of a task.
type Task struct {
	ID        string `json:"_id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// taskInput is the decoded body of POST and PUT requests.
type taskInput struct {
	Title     *string `json:"title"`
	Completed *bool   `json:"completed"`
}

// Server holds tasks in insertion order.
type Server struct {
	mu     sync.Mutex
	tasks  []Task
	newID  func() string
	logger *slog.Logger
	router *mux.Router
}

// Option configures a Server.
type Option func(*Server)

// WithIDGenerator replaces the UUID generator (tests use predictable IDs).
func WithIDGenerator(gen func() string) Option {
	return func(s *Server) { s.newID = gen }
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// New creates an empty server.
func New(opts ...Option) *Server {
	s := &Server{
		newID:  uuid.NewString,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}

	router := mux.NewRouter()
	router.HandleFunc("/tasks", s.listTasks).Methods(http.MethodGet)
	router.HandleFunc("/tasks", s.createTask).Methods(http.MethodPost)
	router.HandleFunc("/tasks/{id}", s.getTask).Methods(http.MethodGet)
	router.HandleFunc("/tasks/{id}", s.updateTask).Methods(http.MethodPut)
	router.HandleFunc("/tasks/{id}", s.deleteTask).Methods(http.MethodDelete)
	router.Use(s.logRequests)
	s.router = router
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Seed appends tasks directly, bypassing validation. Empty IDs are generated.
func (s *Server) Seed(tasks ...Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range tasks {
		if t.ID == "" {
			t.ID = s.newID()
		}
		s.tasks = append(s.tasks, t)
	}
}

// Tasks returns a copy of the stored tasks.
func (s *Server) Tasks() []Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, s.Tasks())
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	in, err := decodeInput(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if in.Title == nil || strings.TrimSpace(*in.Title) == "" {
		respondWithError(w, http.StatusBadRequest, "title is required")
		return
	}

	task := Task{Title: *in.Title}
	if in.Completed != nil {
		task.Completed = *in.Completed
	}

	s.mu.Lock()
	task.ID = s.newID()
	s.tasks = append(s.tasks, task)
	s.mu.Unlock()

	respondWithJSON(w, http.StatusCreated, task)
}

func (s *Server) getTask(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	i := s.indexOf(id)
	var task Task
	if i >= 0 {
		task = s.tasks[i]
	}
	s.mu.Unlock()

	if i < 0 {
		respondWithError(w, http.StatusNotFound, "task not found")
		return
	}
	respondWithJSON(w, http.StatusOK, task)
}

func (s *Server) updateTask(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	in, err := decodeInput(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		respondWithError(w, http.StatusBadRequest, "title must not be empty")
		return
	}

	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		respondWithError(w, http.StatusNotFound, "task not found")
		return
	}
	if in.Title != nil {
		s.tasks[i].Title = *in.Title
	}
	if in.Completed != nil {
		s.tasks[i].Completed = *in.Completed
	}
	task := s.tasks[i]
	s.mu.Unlock()

	respondWithJSON(w, http.StatusOK, task)
}

func (s *Server) deleteTask(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	s.mu.Lock()
	i := s.indexOf(id)
	if i >= 0 {
		s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	}
	s.mu.Unlock()

	if i < 0 {
		respondWithError(w, http.StatusNotFound, "task not found")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "task deleted"})
}

// indexOf must be called with s.mu held.
func (s *Server) indexOf(id string) int {
	for i, t := range s.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func decodeInput(r *http.Request) (taskInput, error) {
	var in taskInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		return taskInput{}, errors.New("invalid JSON body")
	}
	return in, nil
}

// respondWithJSON formats and sends a JSON response.
func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

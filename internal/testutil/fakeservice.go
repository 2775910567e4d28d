// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"fmt"
	"sync"

	"tasklist/internal/service"
)

// Call records one request made to a FakeService.
type Call struct {
	Op    string // "list", "create", "update" or "delete"
	ID    string
	Title string
	Patch service.TaskPatch
}

// FakeService is an in-memory implementation of service.Service for testing.
type FakeService struct {
	mu     sync.Mutex
	tasks  []service.Task
	nextID int
	calls  []Call

	// Error injection for testing
	ListTasksErr  error
	CreateTaskErr error
	UpdateTaskErr error
	DeleteTaskErr error

	// UpdateResponseID, when set, replaces the ID in update responses.
	UpdateResponseID string

	// Gate, when set, is called before each request is served and may block.
	// It returns an error to fail the request without touching state.
	Gate func(ctx context.Context, call Call) error
}

// NewFakeService creates an empty FakeService.
func NewFakeService() *FakeService {
	return &FakeService{}
}

// AddTask adds a task directly, without recording a call.
func (f *FakeService) AddTask(id, title string, completed bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = append(f.tasks, service.Task{ID: id, Title: title, Completed: completed})
}

// Stored returns a copy of the backend-side tasks.
func (f *FakeService) Stored() []service.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]service.Task, len(f.tasks))
	copy(out, f.tasks)
	return out
}

// Calls returns the requests made so far.
func (f *FakeService) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallCount returns how many requests of the given op were made.
func (f *FakeService) CallCount(op string) int {
	n := 0
	for _, c := range f.Calls() {
		if c.Op == op {
			n++
		}
	}
	return n
}

func (f *FakeService) enter(ctx context.Context, call Call) error {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	gate := f.Gate
	f.mu.Unlock()

	if gate != nil {
		if err := gate(ctx, call); err != nil {
			return err
		}
	}
	return nil
}

// ListTasks implements service.Service.
func (f *FakeService) ListTasks(ctx context.Context) ([]service.Task, error) {
	if err := f.enter(ctx, Call{Op: "list"}); err != nil {
		return nil, err
	}
	if f.ListTasksErr != nil {
		return nil, f.ListTasksErr
	}
	return f.Stored(), nil
}

// CreateTask implements service.Service.
func (f *FakeService) CreateTask(ctx context.Context, title string) (service.Task, error) {
	if err := f.enter(ctx, Call{Op: "create", Title: title}); err != nil {
		return service.Task{}, err
	}
	if f.CreateTaskErr != nil {
		return service.Task{}, f.CreateTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	task := service.Task{ID: fmt.Sprintf("id-%d", f.nextID), Title: title}
	f.tasks = append(f.tasks, task)
	return task, nil
}

// UpdateTask implements service.Service.
func (f *FakeService) UpdateTask(ctx context.Context, id string, patch service.TaskPatch) (service.Task, error) {
	if err := f.enter(ctx, Call{Op: "update", ID: id, Patch: patch}); err != nil {
		return service.Task{}, err
	}
	if f.UpdateTaskErr != nil {
		return service.Task{}, f.UpdateTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, t := range f.tasks {
		if t.ID != id {
			continue
		}
		if patch.Title != nil {
			f.tasks[i].Title = *patch.Title
		}
		if patch.Completed != nil {
			f.tasks[i].Completed = *patch.Completed
		}
		result := f.tasks[i]
		if f.UpdateResponseID != "" {
			result.ID = f.UpdateResponseID
		}
		return result, nil
	}
	return service.Task{}, fmt.Errorf("task %s: %w", id, service.ErrNotFound)
}

// DeleteTask implements service.Service.
func (f *FakeService) DeleteTask(ctx context.Context, id string) error {
	if err := f.enter(ctx, Call{Op: "delete", ID: id}); err != nil {
		return err
	}
	if f.DeleteTaskErr != nil {
		return f.DeleteTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, t := range f.tasks {
		if t.ID == id {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("task %s: %w", id, service.ErrNotFound)
}

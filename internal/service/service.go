// Package service defines the backend-agnostic interface for task operations.
package service

import (
	"context"
	"errors"
)

// ErrNotFound is returned (possibly wrapped) when the backend has no task
// with the requested ID.
var ErrNotFound = errors.New("not found")

// Service defines the interface for Task Service operations.
// The store and the commands never import a backend package directly.
type Service interface {
	// ListTasks returns every task in backend order (no client-side sorting).
	ListTasks(ctx context.Context) ([]Task, error)

	// CreateTask creates an open task and returns the stored record,
	// including the backend-assigned ID.
	CreateTask(ctx context.Context, title string) (Task, error)

	// UpdateTask applies patch to the task and returns the full updated record.
	UpdateTask(ctx context.Context, id string, patch TaskPatch) (Task, error)

	// DeleteTask deletes a task.
	DeleteTask(ctx context.Context, id string) error
}

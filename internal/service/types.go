// Package service defines the backend-agnostic interface for task operations.
package service

// Task represents a single task item.
// ID is an opaque token assigned by the backend and compared only for equality.
type Task struct {
	ID        string
	Title     string
	Completed bool
}

// TaskPatch holds the fields of a partial update. Nil fields are left unchanged.
type TaskPatch struct {
	Title     *string
	Completed *bool
}

// TitlePatch returns a patch that changes only the title.
func TitlePatch(title string) TaskPatch {
	return TaskPatch{Title: &title}
}

// CompletedPatch returns a patch that changes only the completion flag.
func CompletedPatch(completed bool) TaskPatch {
	return TaskPatch{Completed: &completed}
}

// IsEmpty reports whether the patch changes nothing.
func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Completed == nil
}

package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"tasklist/internal/backend/googletasks"
	"tasklist/internal/exitcode"
	"tasklist/internal/service"
	"tasklist/internal/store"
)

// loadStore creates a store over env.Service and loads it.
func loadStore(ctx context.Context, env *Env) (*store.Store, error) {
	st := store.New(env.Service, env.Logger)
	if err := st.Load(ctx); err != nil {
		return nil, err
	}
	return st, nil
}

// resolveRefs resolves every ref against one snapshot, so positions keep
// meaning what `tasklist list` printed even when several tasks change.
func resolveRefs(tasks []service.Task, refs []TaskRef) ([]service.Task, error) {
	resolved := make([]service.Task, 0, len(refs))
	seen := make(map[string]bool, len(refs))
	for _, ref := range refs {
		t, err := ref.Resolve(tasks)
		if err != nil {
			return nil, err
		}
		if seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		resolved = append(resolved, t)
	}
	return resolved, nil
}

// refError reports a task reference problem.
func refError(errOut io.Writer, err error) int {
	switch {
	case errors.Is(err, ErrTaskRefRequired):
		fmt.Fprintln(errOut, "error: task reference required")
	default:
		fmt.Fprintf(errOut, "error: %v\n", err)
	}
	return exitcode.UserError
}

// backendError reports a failed Task Service or store operation and maps it
// to an exit code.
func backendError(errOut io.Writer, err error) int {
	switch {
	case errors.Is(err, store.ErrTaskNotFound), errors.Is(err, service.ErrNotFound):
		fmt.Fprintf(errOut, "error: task not found: %v\n", err)
		return exitcode.UserError
	case errors.Is(err, googletasks.ErrAuth):
		fmt.Fprintf(errOut, "error: auth error: %v\n", err)
		return exitcode.AuthError
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(errOut, "error: cancelled")
		return exitcode.Interrupted
	default:
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return exitcode.BackendError
	}
}

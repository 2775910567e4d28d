package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"tasklist/internal/service"
	"tasklist/internal/store"
)

// TaskRef identifies a task on the command line, either by its 1-based
// position in the list or by its ID.
type TaskRef struct {
	Num int    // 1-based position; 0 when ID is set
	ID  string // task ID given as @<id>
}

func (r TaskRef) String() string {
	if r.ID != "" {
		return "@" + r.ID
	}
	return strconv.Itoa(r.Num)
}

var (
	// ErrTaskRefRequired indicates no task reference was provided.
	ErrTaskRefRequired = errors.New("task reference required")

	// ErrOutOfRange indicates a position past the end of the list.
	ErrOutOfRange = errors.New("task number out of range")
)

// ParseTaskRef parses a single task reference.
//
// Accepted forms:
//   - all digits: a position as printed by `tasklist list`
//   - @<id>: the task ID itself
func ParseTaskRef(arg string) (TaskRef, error) {
	if arg == "" {
		return TaskRef{}, ErrTaskRefRequired
	}

	if id, ok := strings.CutPrefix(arg, "@"); ok {
		if strings.TrimSpace(id) == "" {
			return TaskRef{}, fmt.Errorf("invalid task reference: %s", arg)
		}
		return TaskRef{ID: id}, nil
	}

	if !isAllDigits(arg) {
		return TaskRef{}, fmt.Errorf("invalid task reference: %s", arg)
	}
	num, err := strconv.Atoi(arg)
	if err != nil {
		return TaskRef{}, fmt.Errorf("invalid task reference: %s", arg)
	}
	return TaskRef{Num: num}, nil
}

// ParseTaskRefs parses every argument as a task reference.
func ParseTaskRefs(args []string) ([]TaskRef, error) {
	if len(args) == 0 {
		return nil, ErrTaskRefRequired
	}
	refs := make([]TaskRef, 0, len(args))
	for _, arg := range args {
		ref, err := ParseTaskRef(arg)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// Resolve finds the task ref points at in tasks.
func (r TaskRef) Resolve(tasks []service.Task) (service.Task, error) {
	if r.ID != "" {
		for _, t := range tasks {
			if t.ID == r.ID {
				return t, nil
			}
		}
		return service.Task{}, fmt.Errorf("%w: %s", store.ErrTaskNotFound, r)
	}
	if r.Num < 1 || r.Num > len(tasks) {
		return service.Task{}, fmt.Errorf("%w: %d", ErrOutOfRange, r.Num)
	}
	return tasks[r.Num-1], nil
}

// isAllDigits returns true if s consists only of ASCII digits and is non-empty.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// Package store holds the client-side task list and keeps it in step with the
// Task Service.
//
// Every mutating operation makes exactly one backend call and commits the
// matching local change only after the call succeeds, so between operations
// each local record equals the last server-confirmed state. Nothing is
// applied speculatively and nothing is rolled back.
//
// Mutations keyed by task ID are single-flight: starting a new mutation on a
// task cancels the one still outstanding for that task, and the older call
// returns ErrSuperseded. If the older call had already been applied by the
// backend, its response is held by the newer mutation and committed only if
// the newer one fails.
//
// Logging and subscriber callbacks never run with the store lock held.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"tasklist/internal/service"
)

var (
	// ErrTaskNotFound is returned when an operation names a task that is not
	// in the local collection.
	ErrTaskNotFound = errors.New("task not found")

	// ErrSuperseded is returned by a mutation whose result was discarded
	// because a newer mutation on the same task was started.
	ErrSuperseded = errors.New("superseded by a newer change")
)

// Draft is the unsaved edit text for the single task in edit mode.
type Draft struct {
	TaskID string
	Text   string
}

// Store is the ordered task collection plus the optional edit draft.
// It is safe for concurrent use.
type Store struct {
	svc    service.Service
	logger *slog.Logger

	mu       sync.Mutex
	tasks    []service.Task
	draft    *Draft
	lastErr  error
	inflight map[string]*flight

	seq      uint64

	subMu     sync.Mutex
	nextSubID int
	subs      map[int]func()
}

// flight tracks the newest outstanding mutation for one task.
type flight struct {
	seq    uint64
	cancel context.CancelFunc
	// completed is the value the newest toggle or SetCompleted asked for;
	// nil when the outstanding mutation does not touch the flag.
	completed *bool

	// confirmed commits the newest superseded mutation that the backend
	// did apply; confirmedSeq is that mutation's seq.
	confirmed    func()
	confirmedSeq uint64
}

// New creates an empty store backed by svc.
func New(svc service.Service, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{
		svc:      svc,
		logger:   logger,
		inflight: make(map[string]*flight),
		subs:     make(map[int]func()),
	}
}

// Tasks returns a copy of the collection in display order.
func (s *Store) Tasks() []service.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]service.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Task returns the local record for id.
func (s *Store) Task(id string) (service.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return service.Task{}, false
	}
	return s.tasks[i], true
}

// Draft returns the current draft, if any task is in edit mode.
func (s *Store) Draft() (Draft, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draft == nil {
		return Draft{}, false
	}
	return *s.draft, true
}

// LastError returns the most recent backend failure, or nil if the last
// backend call succeeded.
func (s *Store) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Subscribe registers fn to be called after every committed change to the
// collection or the draft, and after every recorded failure. fn runs on the
// goroutine that made the change, without store locks held. The returned
// func removes the subscription.
func (s *Store) Subscribe(fn func()) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) notify() {
	s.subMu.Lock()
	fns := make([]func(), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Load replaces the whole collection with the backend's list, preserving
// backend order. On failure the collection is unchanged.
func (s *Store) Load(ctx context.Context) error {
	tasks, err := s.svc.ListTasks(ctx)
	if err != nil {
		return s.fail("load", "", err)
	}

	s.mu.Lock()
	s.tasks = dedupe(tasks)
	s.lastErr = nil
	// A draft for a task the backend no longer has cannot be committed.
	if s.draft != nil && s.indexOf(s.draft.TaskID) < 0 {
		s.draft = nil
	}
	s.mu.Unlock()

	s.logger.Debug("tasks loaded", "count", len(tasks))
	s.notify()
	return nil
}

// Add creates a task and appends the backend's record. A title that is empty
// after trimming is ignored: no request is made and nil is returned.
func (s *Store) Add(ctx context.Context, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil
	}

	task, err := s.svc.CreateTask(ctx, title)
	if err != nil {
		return s.fail("add", "", err)
	}

	s.mu.Lock()
	if i := s.indexOf(task.ID); i >= 0 {
		s.tasks[i] = task
	} else {
		s.tasks = append(s.tasks, task)
	}
	s.lastErr = nil
	s.mu.Unlock()

	s.logger.Debug("task added", "id", task.ID)
	s.notify()
	return nil
}

// Remove deletes a task and drops the local record with that ID. On failure
// the record stays.
func (s *Store) Remove(ctx context.Context, id string) error {
	ctx, done := s.begin(ctx, id, nil)
	defer done()

	err := s.svc.DeleteTask(ctx, id)
	drop := func() {
		if i := s.indexOf(id); i >= 0 {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
		}
		if s.draft != nil && s.draft.TaskID == id {
			s.draft = nil
		}
	}

	s.mu.Lock()
	if !s.isCurrent(ctx, id) {
		if err == nil {
			s.handOver(ctx, id, drop)
		}
		s.mu.Unlock()
		return ErrSuperseded
	}
	if err != nil {
		s.adoptConfirmed(ctx)
		s.mu.Unlock()
		return s.fail("remove", id, err)
	}
	drop()
	s.lastErr = nil
	s.mu.Unlock()

	s.logger.Debug("task removed", "id", id)
	s.notify()
	return nil
}

// SetCompleted sets the completion flag and adopts the full record the
// backend returns.
func (s *Store) SetCompleted(ctx context.Context, id string, completed bool) error {
	ctx, done := s.begin(ctx, id, &completed)
	defer done()
	return s.update(ctx, "set completed", id, service.CompletedPatch(completed), nil)
}

// Toggle flips the completion flag of id. The new value is derived from the
// newest pending SetCompleted/Toggle on that task if one is outstanding,
// otherwise from the local record, so two quick toggles cancel out instead
// of both sending the same value.
func (s *Store) Toggle(ctx context.Context, id string) error {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("toggle %s: %w", id, ErrTaskNotFound)
	}
	current := s.tasks[i].Completed
	if f, ok := s.inflight[id]; ok && f.completed != nil {
		current = *f.completed
	}
	s.mu.Unlock()

	return s.SetCompleted(ctx, id, !current)
}

// Rename changes the title. A title that is empty after trimming is ignored
// and the draft is left as it is. On success the draft is cleared if it
// belongs to id; on failure it is kept so the text can be retried.
func (s *Store) Rename(ctx context.Context, id, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil
	}

	ctx, done := s.begin(ctx, id, nil)
	defer done()
	return s.update(ctx, "rename", id, service.TitlePatch(title), func() {
		if s.draft != nil && s.draft.TaskID == id {
			s.draft = nil
		}
	})
}

// update sends patch and replaces the local record for id with the response.
// onSuccess runs with s.mu held after the record is replaced.
func (s *Store) update(ctx context.Context, op, id string, patch service.TaskPatch, onSuccess func()) error {
	task, err := s.svc.UpdateTask(ctx, id, patch)
	// Match on the ID we sent. A response carrying some other ID finds
	// nothing here, and the stale record stays.
	replace := func() bool {
		i := s.indexOf(id)
		if i < 0 || task.ID != id {
			return false
		}
		s.tasks[i] = task
		return true
	}

	s.mu.Lock()
	if !s.isCurrent(ctx, id) {
		if err == nil {
			s.handOver(ctx, id, func() { replace() })
		}
		s.mu.Unlock()
		return ErrSuperseded
	}
	if err != nil {
		s.adoptConfirmed(ctx)
		s.mu.Unlock()
		return s.fail(op, id, err)
	}
	matched := replace()
	if onSuccess != nil {
		onSuccess()
	}
	s.lastErr = nil
	s.mu.Unlock()

	if !matched {
		s.logger.Warn("update response did not match a local task", "op", op, "id", id, "response_id", task.ID)
	}
	s.logger.Debug("task updated", "op", op, "id", id)
	s.notify()
	return nil
}

// BeginEdit puts id into edit mode with its current title as the draft text.
// Any other draft is discarded.
func (s *Store) BeginEdit(id string) error {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("edit %s: %w", id, ErrTaskNotFound)
	}
	s.draft = &Draft{TaskID: id, Text: s.tasks[i].Title}
	s.mu.Unlock()

	s.notify()
	return nil
}

// UpdateDraftText replaces the draft text. Nothing is validated until the
// draft is committed. Without a draft it does nothing.
func (s *Store) UpdateDraftText(text string) {
	s.mu.Lock()
	if s.draft == nil {
		s.mu.Unlock()
		return
	}
	s.draft.Text = text
	s.mu.Unlock()

	s.notify()
}

// CancelEdit discards the draft.
func (s *Store) CancelEdit() {
	s.mu.Lock()
	had := s.draft != nil
	s.draft = nil
	s.mu.Unlock()

	if had {
		s.notify()
	}
}

// CommitEdit renames the draft's task to the draft text. Without a draft it
// does nothing.
func (s *Store) CommitEdit(ctx context.Context) error {
	d, ok := s.Draft()
	if !ok {
		return nil
	}
	return s.Rename(ctx, d.TaskID, d.Text)
}

// begin registers a new mutation on id, cancelling the outstanding one.
// The returned context identifies this mutation; done releases it.
func (s *Store) begin(ctx context.Context, id string, completed *bool) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)
	f := &flight{cancel: cancel, completed: completed}

	s.mu.Lock()
	s.seq++
	f.seq = s.seq
	prev, superseding := s.inflight[id]
	if superseding {
		prev.cancel()
		// Carry over a confirmed change prev was still holding.
		f.confirmed, f.confirmedSeq = prev.confirmed, prev.confirmedSeq
	}
	s.inflight[id] = f
	s.mu.Unlock()

	if superseding {
		s.logger.Debug("superseding outstanding change", "id", id)
	}

	return context.WithValue(ctx, flightKey{}, f), func() {
		s.mu.Lock()
		if s.inflight[id] == f {
			delete(s.inflight, id)
		}
		s.mu.Unlock()
		cancel()
	}
}

type flightKey struct{}

// isCurrent reports whether ctx belongs to the newest mutation on id.
// Must be called with s.mu held.
func (s *Store) isCurrent(ctx context.Context, id string) bool {
	f, _ := ctx.Value(flightKey{}).(*flight)
	return s.inflight[id] == f
}

// handOver gives the change a superseded mutation got confirmed to the newest
// mutation on id, unless that one already holds a newer confirmed change.
// Must be called with s.mu held.
func (s *Store) handOver(ctx context.Context, id string, commit func()) {
	f, _ := ctx.Value(flightKey{}).(*flight)
	cur, ok := s.inflight[id]
	if !ok || f == nil || f.seq < cur.confirmedSeq {
		return
	}
	cur.confirmed, cur.confirmedSeq = commit, f.seq
}

// adoptConfirmed commits the change handed over to the failing mutation in
// ctx, so the record matches what the backend last applied.
// Must be called with s.mu held.
func (s *Store) adoptConfirmed(ctx context.Context) {
	f, _ := ctx.Value(flightKey{}).(*flight)
	if f == nil || f.confirmed == nil {
		return
	}
	f.confirmed()
	f.confirmed = nil
}

// fail records and logs a backend failure and returns it wrapped with op.
func (s *Store) fail(op, id string, err error) error {
	if id != "" {
		err = fmt.Errorf("%s %s: %w", op, id, err)
	} else {
		err = fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()

	// Callers get err back and report it themselves.
	s.logger.Debug("task service call failed", "op", op, "id", id, "error", err)
	s.notify()
	return err
}

// indexOf must be called with s.mu held.
func (s *Store) indexOf(id string) int {
	for i, t := range s.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// dedupe keeps the first record for each ID, preserving order.
func dedupe(tasks []service.Task) []service.Task {
	seen := make(map[string]bool, len(tasks))
	out := make([]service.Task, 0, len(tasks))
	for _, t := range tasks {
		if seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		out = append(out, t)
	}
	return out
}

package store_test

import (
	"context"
	"errors"
	"fmt"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"tasklist/internal/backend/rest"
	"tasklist/internal/service"
	"tasklist/internal/store"
	"tasklist/internal/taskserver"
	"tasklist/internal/testutil"
)

// loaded returns a store loaded from svc.
func loaded(t *testing.T, svc *testutil.FakeService) *store.Store {
	t.Helper()
	st := store.New(svc, nil)
	if err := st.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return st
}

func TestLoad_PreservesServerOrder(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("c", "third", false)
	svc.AddTask("a", "first", true)
	svc.AddTask("b", "second", false)

	st := loaded(t, svc)
	tasks := st.Tasks()
	if len(tasks) != 3 || tasks[0].ID != "c" || tasks[1].ID != "a" || tasks[2].ID != "b" {
		t.Errorf("expected server order c,a,b, got %+v", tasks)
	}
}

func TestLoad_ReplacesWholesale(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("a", "one", false)
	st := loaded(t, svc)

	if err := svc.DeleteTask(context.Background(), "a"); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	svc.AddTask("b", "two", false)
	if err := st.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	tasks := st.Tasks()
	if len(tasks) != 1 || tasks[0].ID != "b" {
		t.Errorf("expected collection replaced by [b], got %+v", tasks)
	}
}

func TestLoad_DuplicateIDsKeepFirst(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("a", "first", false)
	svc.AddTask("a", "dup", true)

	st := loaded(t, svc)
	tasks := st.Tasks()
	if len(tasks) != 1 || tasks[0].Title != "first" {
		t.Errorf("expected one record per id, got %+v", tasks)
	}
}

func TestLoad_FailureLeavesStateAndReportsError(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("a", "one", false)
	st := loaded(t, svc)

	svc.ListTasksErr = errors.New("connection refused")
	err := st.Load(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, svc.ListTasksErr) {
		t.Errorf("expected wrapped backend error, got %v", err)
	}
	if len(st.Tasks()) != 1 {
		t.Errorf("expected collection unchanged, got %+v", st.Tasks())
	}
	if st.LastError() == nil {
		t.Error("expected LastError to be recorded")
	}
}

func TestAdd_ThenLoad(t *testing.T) {
	for _, title := range []string{"Buy milk", "Call mom", "x"} {
		t.Run(title, func(t *testing.T) {
			svc := testutil.NewFakeService()
			st := store.New(svc, nil)
			ctx := context.Background()

			if err := st.Add(ctx, title); err != nil {
				t.Fatalf("Add: %v", err)
			}
			if err := st.Load(ctx); err != nil {
				t.Fatalf("Load: %v", err)
			}

			var matches []service.Task
			for _, task := range st.Tasks() {
				if task.Title == title {
					matches = append(matches, task)
				}
			}
			if len(matches) != 1 || matches[0].Completed {
				t.Errorf("expected exactly one open task titled %q, got %+v", title, matches)
			}
		})
	}
}

func TestAdd_AppendsAtEnd(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("a", "existing", false)
	st := loaded(t, svc)

	if err := st.Add(context.Background(), "new"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	tasks := st.Tasks()
	if len(tasks) != 2 || tasks[1].Title != "new" || tasks[1].ID == "" {
		t.Errorf("expected new task appended with server id, got %+v", tasks)
	}
}

func TestAdd_TrimsTitle(t *testing.T) {
	svc := testutil.NewFakeService()
	st := store.New(svc, nil)

	if err := st.Add(context.Background(), "  padded  "); err != nil {
		t.Fatalf("Add: %v", err)
	}
	calls := svc.Calls()
	if len(calls) != 1 || calls[0].Title != "padded" {
		t.Errorf("expected trimmed title sent, got %+v", calls)
	}
}

func TestAdd_BlankIsNoop(t *testing.T) {
	for _, title := range []string{"", "   ", "\t\n"} {
		svc := testutil.NewFakeService()
		st := store.New(svc, nil)

		notified := 0
		st.Subscribe(func() { notified++ })

		if err := st.Add(context.Background(), title); err != nil {
			t.Errorf("Add(%q): expected nil error, got %v", title, err)
		}
		if svc.CallCount("create") != 0 {
			t.Errorf("Add(%q): expected no create request", title)
		}
		if len(st.Tasks()) != 0 {
			t.Errorf("Add(%q): expected empty collection", title)
		}
		if notified != 0 {
			t.Errorf("Add(%q): expected no notification, got %d", title, notified)
		}
	}
}

func TestAdd_FailureLeavesCollection(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.CreateTaskErr = errors.New("503 service unavailable")
	st := store.New(svc, nil)

	if err := st.Add(context.Background(), "Buy milk"); err == nil {
		t.Fatal("expected error")
	}
	if len(st.Tasks()) != 0 {
		t.Errorf("expected empty collection, got %+v", st.Tasks())
	}
}

func TestSetCompleted_RoundTrip(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("a", "Write report", false)
	st := loaded(t, svc)
	ctx := context.Background()
	before, _ := st.Task("a")

	if err := st.SetCompleted(ctx, "a", true); err != nil {
		t.Fatalf("SetCompleted(true): %v", err)
	}
	if got, _ := st.Task("a"); !got.Completed {
		t.Errorf("expected completed, got %+v", got)
	}
	if err := st.SetCompleted(ctx, "a", false); err != nil {
		t.Fatalf("SetCompleted(false): %v", err)
	}
	if got, _ := st.Task("a"); got != before {
		t.Errorf("expected round trip to restore %+v, got %+v", before, got)
	}
}

func TestSetCompleted_AdoptsFullServerRecord(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("a", "old title", false)
	st := loaded(t, svc)

	// The backend changed the title behind our back; the update response
	// carries it and the store adopts it.
	if _, err := svc.UpdateTask(context.Background(), "a", service.TitlePatch("server title")); err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if err := st.SetCompleted(context.Background(), "a", true); err != nil {
		t.Fatalf("SetCompleted: %v", err)
	}
	if got, _ := st.Task("a"); got.Title != "server title" || !got.Completed {
		t.Errorf("expected full server record, got %+v", got)
	}
}

func TestSetCompleted_FailureLeavesRecord(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("a", "Write report", false)
	st := loaded(t, svc)
	svc.UpdateTaskErr = errors.New("timeout")

	if err := st.SetCompleted(context.Background(), "a", true); err == nil {
		t.Fatal("expected error")
	}
	if got, _ := st.Task("a"); got.Completed {
		t.Errorf("expected local record unchanged, got %+v", got)
	}
}

func TestSetCompleted_MismatchedResponseID(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("a", "Write report", false)
	st := loaded(t, svc)
	svc.UpdateResponseID = "someone-else"

	if err := st.SetCompleted(context.Background(), "a", true); err != nil {
		t.Fatalf("SetCompleted: %v", err)
	}
	tasks := st.Tasks()
	if len(tasks) != 1 || tasks[0].ID != "a" || tasks[0].Completed {
		t.Errorf("expected stale record to remain untouched, got %+v", tasks)
	}
}

func TestToggle(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("a", "Write report", false)
	st := loaded(t, svc)
	ctx := context.Background()

	if err := st.Toggle(ctx, "a"); err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if got, _ := st.Task("a"); !got.Completed {
		t.Errorf("expected completed after toggle, got %+v", got)
	}
	if err := st.Toggle(ctx, "a"); err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if got, _ := st.Task("a"); got.Completed {
		t.Errorf("expected open after second toggle, got %+v", got)
	}

	if err := st.Toggle(ctx, "missing"); !errors.Is(err, store.ErrTaskNotFound) {
		t.Errorf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestRemove(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("a", "one", false)
	svc.AddTask("b", "two", false)
	svc.AddTask("c", "three", false)
	st := loaded(t, svc)

	if err := st.Remove(context.Background(), "b"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	tasks := st.Tasks()
	if len(tasks) != 2 {
		t.Fatalf("expected size to drop by one, got %d", len(tasks))
	}
	for _, task := range tasks {
		if task.ID == "b" {
			t.Errorf("removed task still present: %+v", tasks)
		}
	}
}

func TestRemove_FailureKeepsRecord(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("a", "one", false)
	st := loaded(t, svc)
	svc.DeleteTaskErr = errors.New("500 internal server error")

	if err := st.Remove(context.Background(), "a"); err == nil {
		t.Fatal("expected error")
	}
	if _, ok := st.Task("a"); !ok {
		t.Error("expected record to remain after failed delete")
	}
}

func TestRemove_ClearsDraftForThatTask(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("a", "one", false)
	st := loaded(t, svc)

	if err := st.BeginEdit("a"); err != nil {
		t.Fatalf("BeginEdit: %v", err)
	}
	if err := st.Remove(context.Background(), "a"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, ok := st.Draft(); ok {
		t.Error("expected draft to be dropped with its task")
	}
}

func TestRename(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("a", "Old", true)
	st := loaded(t, svc)
	ctx := context.Background()

	if err := st.BeginEdit("a"); err != nil {
		t.Fatalf("BeginEdit: %v", err)
	}
	if err := st.Rename(ctx, "a", "New Title"); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	got, _ := st.Task("a")
	if got.Title != "New Title" || !got.Completed {
		t.Errorf("expected only title to change, got %+v", got)
	}
	if _, ok := st.Draft(); ok {
		t.Error("expected edit mode to end")
	}
}

func TestRename_BlankIsNoop(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("a", "Old", false)
	st := loaded(t, svc)

	if err := st.BeginEdit("a"); err != nil {
		t.Fatalf("BeginEdit: %v", err)
	}
	st.UpdateDraftText("half typed")

	if err := st.Rename(context.Background(), "a", ""); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if svc.CallCount("update") != 0 {
		t.Error("expected no update request")
	}
	d, ok := st.Draft()
	if !ok || d.TaskID != "a" || d.Text != "half typed" {
		t.Errorf("expected draft intact, got %+v (ok=%v)", d, ok)
	}
}

func TestRename_FailureKeepsDraft(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("a", "Old", false)
	st := loaded(t, svc)
	svc.UpdateTaskErr = errors.New("connection reset")

	if err := st.BeginEdit("a"); err != nil {
		t.Fatalf("BeginEdit: %v", err)
	}
	st.UpdateDraftText("New")
	if err := st.CommitEdit(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	d, ok := st.Draft()
	if !ok || d.Text != "New" {
		t.Errorf("expected draft kept for retry, got %+v (ok=%v)", d, ok)
	}
	if got, _ := st.Task("a"); got.Title != "Old" {
		t.Errorf("expected title unchanged, got %+v", got)
	}
}

func TestBeginEdit_SecondTaskDiscardsFirstDraft(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("a", "Alpha", false)
	svc.AddTask("b", "Beta", false)
	st := loaded(t, svc)

	if err := st.BeginEdit("a"); err != nil {
		t.Fatalf("BeginEdit(a): %v", err)
	}
	st.UpdateDraftText("Alpha edited")
	if err := st.BeginEdit("b"); err != nil {
		t.Fatalf("BeginEdit(b): %v", err)
	}

	d, ok := st.Draft()
	if !ok || d.TaskID != "b" || d.Text != "Beta" {
		t.Errorf("expected draft for b with its title, got %+v", d)
	}
	if got, _ := st.Task("a"); got.Title != "Alpha" {
		t.Errorf("unsaved draft must not reach task a, got %+v", got)
	}
	if err := st.BeginEdit("missing"); !errors.Is(err, store.ErrTaskNotFound) {
		t.Errorf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestDraftWithoutEditMode(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("a", "Alpha", false)
	st := loaded(t, svc)

	st.UpdateDraftText("ignored")
	if _, ok := st.Draft(); ok {
		t.Error("UpdateDraftText must not create a draft")
	}
	if err := st.CommitEdit(context.Background()); err != nil {
		t.Errorf("CommitEdit without draft: %v", err)
	}
	if svc.CallCount("update") != 0 {
		t.Error("expected no update request")
	}

	if err := st.BeginEdit("a"); err != nil {
		t.Fatalf("BeginEdit: %v", err)
	}
	st.CancelEdit()
	if _, ok := st.Draft(); ok {
		t.Error("expected CancelEdit to discard the draft")
	}
}

func TestSubscribe(t *testing.T) {
	svc := testutil.NewFakeService()
	st := store.New(svc, nil)
	ctx := context.Background()

	var count atomic.Int32
	unsubscribe := st.Subscribe(func() { count.Add(1) })

	if err := st.Add(ctx, "one"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	id := st.Tasks()[0].ID
	if err := st.BeginEdit(id); err != nil {
		t.Fatalf("BeginEdit: %v", err)
	}
	st.UpdateDraftText("two")
	if got := count.Load(); got != 3 {
		t.Errorf("expected 3 notifications, got %d", got)
	}

	unsubscribe()
	st.CancelEdit()
	if got := count.Load(); got != 3 {
		t.Errorf("expected no notification after unsubscribe, got %d", got)
	}
}

func TestSubscribe_NotifiedOnFailure(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.ListTasksErr = errors.New("down")
	st := store.New(svc, nil)

	notified := false
	st.Subscribe(func() { notified = true })
	_ = st.Load(context.Background())
	if !notified {
		t.Error("expected subscribers to hear about failures")
	}
}

func TestSingleFlight_NewerChangeSupersedes(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("a", "Write report", false)
	st := loaded(t, svc)
	ctx := context.Background()

	started := make(chan struct{})
	var updates atomic.Int32
	svc.Gate = func(ctx context.Context, call testutil.Call) error {
		if call.Op != "update" || updates.Add(1) != 1 {
			return nil
		}
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}

	firstErr := make(chan error, 1)
	go func() { firstErr <- st.Toggle(ctx, "a") }()
	<-started

	// The first toggle asked for completed=true; a second toggle must ask
	// for false rather than repeat true.
	if err := st.Toggle(ctx, "a"); err != nil {
		t.Fatalf("second Toggle: %v", err)
	}

	select {
	case err := <-firstErr:
		if !errors.Is(err, store.ErrSuperseded) {
			t.Errorf("expected ErrSuperseded, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("first toggle was not cancelled")
	}

	calls := svc.Calls()
	last := calls[len(calls)-1]
	if last.Patch.Completed == nil || *last.Patch.Completed {
		t.Errorf("expected second request to send completed=false, got %+v", last.Patch)
	}
	if got, _ := st.Task("a"); got.Completed {
		t.Errorf("expected final state open, got %+v", got)
	}
	if st.LastError() != nil {
		t.Errorf("superseded change must not be recorded as a failure: %v", st.LastError())
	}
}

func TestSingleFlight_FailedNewerChangeAdoptsAppliedOlder(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("a", "Write report", false)
	st := loaded(t, svc)
	ctx := context.Background()

	firstStarted, secondStarted := make(chan struct{}), make(chan struct{})
	releaseFirst, releaseSecond := make(chan struct{}), make(chan struct{})
	var updates atomic.Int32
	svc.Gate = func(ctx context.Context, call testutil.Call) error {
		if call.Op != "update" {
			return nil
		}
		switch updates.Add(1) {
		case 1:
			// Applied by the backend even though the caller moved on.
			close(firstStarted)
			<-releaseFirst
			return nil
		default:
			close(secondStarted)
			<-releaseSecond
			return errors.New("503 service unavailable")
		}
	}

	firstErr := make(chan error, 1)
	go func() { firstErr <- st.SetCompleted(ctx, "a", true) }()
	<-firstStarted

	secondErr := make(chan error, 1)
	go func() { secondErr <- st.Rename(ctx, "a", "Write summary") }()
	<-secondStarted

	close(releaseFirst)
	if err := <-firstErr; !errors.Is(err, store.ErrSuperseded) {
		t.Fatalf("expected ErrSuperseded, got %v", err)
	}
	if got, _ := st.Task("a"); got.Completed {
		t.Errorf("superseded response must wait for the newer change, got %+v", got)
	}

	close(releaseSecond)
	if err := <-secondErr; err == nil {
		t.Fatal("expected rename to fail")
	}

	got, _ := st.Task("a")
	if want := svc.Stored()[0]; got != want {
		t.Errorf("expected local record to match backend %+v, got %+v", want, got)
	}
	if !got.Completed || got.Title != "Write report" {
		t.Errorf("expected applied completion kept, got %+v", got)
	}
}

func TestSingleFlight_DifferentTasksIndependent(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("a", "one", false)
	svc.AddTask("b", "two", false)
	st := loaded(t, svc)
	ctx := context.Background()

	release := make(chan struct{})
	started := make(chan struct{})
	svc.Gate = func(ctx context.Context, call testutil.Call) error {
		if call.Op == "update" && call.ID == "a" {
			close(started)
			<-release
		}
		return nil
	}

	errA := make(chan error, 1)
	go func() { errA <- st.SetCompleted(ctx, "a", true) }()
	<-started

	if err := st.Remove(ctx, "b"); err != nil {
		t.Fatalf("Remove(b): %v", err)
	}
	close(release)
	if err := <-errA; err != nil {
		t.Fatalf("SetCompleted(a): %v", err)
	}

	tasks := st.Tasks()
	if len(tasks) != 1 || tasks[0].ID != "a" || !tasks[0].Completed {
		t.Errorf("unexpected final state: %+v", tasks)
	}
}

// TestEndToEnd runs the full scenario over HTTP against the development
// Task Service.
func TestEndToEnd(t *testing.T) {
	n := 0
	srv := httptest.NewServer(taskserver.New(taskserver.WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("task-%d", n)
	})))
	defer srv.Close()

	client, err := rest.NewWithHTTPClient(srv.URL, 0, srv.Client(), nil)
	if err != nil {
		t.Fatalf("rest client: %v", err)
	}
	st := store.New(client, nil)
	ctx := context.Background()

	if err := st.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(st.Tasks()) != 0 {
		t.Fatalf("expected empty start, got %+v", st.Tasks())
	}

	if err := st.Add(ctx, "Buy milk"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	tasks := st.Tasks()
	if len(tasks) != 1 || tasks[0].Title != "Buy milk" || tasks[0].Completed {
		t.Fatalf("unexpected after add: %+v", tasks)
	}
	id := tasks[0].ID

	if err := st.SetCompleted(ctx, id, true); err != nil {
		t.Fatalf("SetCompleted: %v", err)
	}
	if got, _ := st.Task(id); !got.Completed {
		t.Fatalf("expected completed, got %+v", got)
	}

	if err := st.BeginEdit(id); err != nil {
		t.Fatalf("BeginEdit: %v", err)
	}
	st.UpdateDraftText("Buy oat milk")
	if err := st.CommitEdit(ctx); err != nil {
		t.Fatalf("CommitEdit: %v", err)
	}
	if got, _ := st.Task(id); got.Title != "Buy oat milk" || !got.Completed {
		t.Fatalf("unexpected after rename: %+v", got)
	}

	if err := st.Remove(ctx, id); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if len(st.Tasks()) != 0 {
		t.Fatalf("expected empty collection, got %+v", st.Tasks())
	}

	if err := st.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(st.Tasks()) != 0 {
		t.Errorf("expected server to agree, got %+v", st.Tasks())
	}
}

package commands

import (
	"errors"
	"testing"

	"tasklist/internal/service"
	"tasklist/internal/store"
)

func TestParseTaskRef_Position(t *testing.T) {
	ref, err := ParseTaskRef("5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.Num != 5 || ref.ID != "" {
		t.Errorf("expected position 5, got %+v", ref)
	}
	if ref.String() != "5" {
		t.Errorf("String() = %q", ref.String())
	}
}

func TestParseTaskRef_ID(t *testing.T) {
	ref, err := ParseTaskRef("@64f1c2e9")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.ID != "64f1c2e9" || ref.Num != 0 {
		t.Errorf("expected ID ref, got %+v", ref)
	}
	if ref.String() != "@64f1c2e9" {
		t.Errorf("String() = %q", ref.String())
	}
}

func TestParseTaskRef_Empty(t *testing.T) {
	if _, err := ParseTaskRef(""); !errors.Is(err, ErrTaskRefRequired) {
		t.Errorf("expected ErrTaskRefRequired, got %v", err)
	}
}

func TestParseTaskRef_Invalid(t *testing.T) {
	for _, arg := range []string{"a1", "1a", "-1", "@", "@  ", "١٢"} {
		_, err := ParseTaskRef(arg)
		if err == nil {
			t.Errorf("%q: expected error", arg)
			continue
		}
		if want := "invalid task reference: " + arg; err.Error() != want {
			t.Errorf("%q: expected %q, got %q", arg, want, err.Error())
		}
	}
}

func TestParseTaskRefs(t *testing.T) {
	refs, err := ParseTaskRefs([]string{"1", "@x", "3"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(refs) != 3 || refs[0].Num != 1 || refs[1].ID != "x" || refs[2].Num != 3 {
		t.Errorf("unexpected refs %+v", refs)
	}

	if _, err := ParseTaskRefs(nil); !errors.Is(err, ErrTaskRefRequired) {
		t.Errorf("expected ErrTaskRefRequired, got %v", err)
	}
	if _, err := ParseTaskRefs([]string{"1", "x"}); err == nil {
		t.Error("expected error for bad second ref")
	}
}

func TestTaskRef_Resolve(t *testing.T) {
	tasks := []service.Task{
		{ID: "a", Title: "one"},
		{ID: "b", Title: "two"},
	}

	got, err := TaskRef{Num: 2}.Resolve(tasks)
	if err != nil || got.ID != "b" {
		t.Errorf("position 2: got %+v, %v", got, err)
	}

	got, err = TaskRef{ID: "a"}.Resolve(tasks)
	if err != nil || got.ID != "a" {
		t.Errorf("@a: got %+v, %v", got, err)
	}

	for _, num := range []int{0, 3} {
		if _, err := (TaskRef{Num: num}).Resolve(tasks); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("position %d: expected ErrOutOfRange, got %v", num, err)
		}
	}

	if _, err := (TaskRef{ID: "zzz"}).Resolve(tasks); !errors.Is(err, store.ErrTaskNotFound) {
		t.Errorf("@zzz: expected ErrTaskNotFound, got %v", err)
	}
}

func TestResolveRefs_Deduplicates(t *testing.T) {
	tasks := []service.Task{{ID: "a"}, {ID: "b"}}

	got, err := resolveRefs(tasks, []TaskRef{{Num: 1}, {ID: "a"}, {Num: 2}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "b" {
		t.Errorf("expected [a b], got %+v", got)
	}
}

package commands_test

import (
	"context"
	"io"
	"testing"

	"github.com/spf13/pflag"

	"tasklist/internal/commands"
)

type stubCmd struct {
	name    string
	aliases []string
}

func (c *stubCmd) Name() string                    { return c.name }
func (c *stubCmd) Aliases() []string               { return c.aliases }
func (c *stubCmd) Synopsis() string                { return "" }
func (c *stubCmd) Usage() string                   { return "" }
func (c *stubCmd) NeedsService() bool              { return false }
func (c *stubCmd) RegisterFlags(fs *pflag.FlagSet) {}
func (c *stubCmd) Run(ctx context.Context, env *commands.Env, args []string, out, errOut io.Writer) int {
	return 0
}

func TestRegistry_FindByNameAndAlias(t *testing.T) {
	r := commands.NewRegistry()
	rm := &stubCmd{name: "rm", aliases: []string{"delete"}}
	if err := r.Register(rm); err != nil {
		t.Fatalf("Register: %v", err)
	}

	for _, name := range []string{"rm", "delete"} {
		if got, ok := r.Find(name); !ok || got != rm {
			t.Errorf("Find(%q) = %v, %v", name, got, ok)
		}
	}
	if _, ok := r.Find("remove"); ok {
		t.Error("Find(remove) should fail")
	}
}

func TestRegistry_ConflictLeavesRegistryUnchanged(t *testing.T) {
	r := commands.NewRegistry()
	if err := r.Register(&stubCmd{name: "add", aliases: []string{"create"}}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	err := r.Register(&stubCmd{name: "new", aliases: []string{"create"}})
	if err == nil {
		t.Fatal("expected conflict error")
	}
	if _, ok := r.Find("new"); ok {
		t.Error("conflicting command should not be partially registered")
	}
}

func TestRegistry_AllSortedOncePerCommand(t *testing.T) {
	r := commands.NewRegistry()
	for _, c := range []*stubCmd{
		{name: "rm", aliases: []string{"delete"}},
		{name: "add", aliases: []string{"create"}},
		{name: "list", aliases: []string{"ls"}},
	} {
		if err := r.Register(c); err != nil {
			t.Fatalf("Register: %v", err)
		}
	}

	all := r.All()
	if len(all) != 3 {
		t.Fatalf("expected 3 commands, got %d", len(all))
	}
	for i, want := range []string{"add", "list", "rm"} {
		if all[i].Name() != want {
			t.Errorf("All()[%d] = %s, want %s", i, all[i].Name(), want)
		}
	}
}

func TestDefaultRegistry_HasEveryCommand(t *testing.T) {
	for _, name := range []string{
		"ui", "list", "ls", "add", "create", "done", "undone", "toggle",
		"rename", "rm", "serve", "login", "logout", "help", "version",
	} {
		if _, ok := commands.DefaultRegistry.Find(name); !ok {
			t.Errorf("command %q not registered", name)
		}
	}
}

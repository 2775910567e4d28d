package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"tasklist/internal/exitcode"
	"tasklist/internal/store"
)

func init() {
	Register(&DoneCmd{})
	Register(&UndoneCmd{})
	Register(&ToggleCmd{})
}

// DoneCmd implements the done command.
type DoneCmd struct{}

func (c *DoneCmd) Name() string                    { return "done" }
func (c *DoneCmd) Aliases() []string               { return []string{"complete"} }
func (c *DoneCmd) Synopsis() string                { return "Mark tasks completed" }
func (c *DoneCmd) Usage() string                   { return "tasklist done <ref>..." }
func (c *DoneCmd) NeedsService() bool              { return true }
func (c *DoneCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *DoneCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	return runCompletion(ctx, env, args, out, errOut, func(ctx context.Context, st *store.Store, id string) error {
		return st.SetCompleted(ctx, id, true)
	})
}

// UndoneCmd implements the undone command.
type UndoneCmd struct{}

func (c *UndoneCmd) Name() string                    { return "undone" }
func (c *UndoneCmd) Aliases() []string               { return []string{"reopen"} }
func (c *UndoneCmd) Synopsis() string                { return "Mark tasks not completed" }
func (c *UndoneCmd) Usage() string                   { return "tasklist undone <ref>..." }
func (c *UndoneCmd) NeedsService() bool              { return true }
func (c *UndoneCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *UndoneCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	return runCompletion(ctx, env, args, out, errOut, func(ctx context.Context, st *store.Store, id string) error {
		return st.SetCompleted(ctx, id, false)
	})
}

// ToggleCmd implements the toggle command.
type ToggleCmd struct{}

func (c *ToggleCmd) Name() string                    { return "toggle" }
func (c *ToggleCmd) Aliases() []string               { return nil }
func (c *ToggleCmd) Synopsis() string                { return "Flip the completion state of tasks" }
func (c *ToggleCmd) Usage() string                   { return "tasklist toggle <ref>..." }
func (c *ToggleCmd) NeedsService() bool              { return true }
func (c *ToggleCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *ToggleCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	return runCompletion(ctx, env, args, out, errOut, func(ctx context.Context, st *store.Store, id string) error {
		return st.Toggle(ctx, id)
	})
}

// runCompletion is the shared implementation of done, undone and toggle.
// Refs are resolved before any change; the first failure stops the run.
func runCompletion(ctx context.Context, env *Env, args []string, out, errOut io.Writer,
	apply func(ctx context.Context, st *store.Store, id string) error) int {
	refs, err := ParseTaskRefs(args)
	if err != nil {
		return refError(errOut, err)
	}

	st, err := loadStore(ctx, env)
	if err != nil {
		return backendError(errOut, err)
	}

	targets, err := resolveRefs(st.Tasks(), refs)
	if err != nil {
		return refError(errOut, err)
	}

	for _, t := range targets {
		if err := apply(ctx, st, t.ID); err != nil {
			return backendError(errOut, err)
		}
	}

	if !env.Config.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"tasklist/internal/exitcode"
	"tasklist/internal/store"
	"tasklist/internal/ui"
)

func init() {
	Register(&UICmd{})
}

// UICmd runs the interactive task list. It is what `tasklist` with no
// arguments dispatches to.
type UICmd struct{}

func (c *UICmd) Name() string                    { return "ui" }
func (c *UICmd) Aliases() []string               { return nil }
func (c *UICmd) Synopsis() string                { return "Open the interactive task list" }
func (c *UICmd) Usage() string                   { return "tasklist [ui]" }
func (c *UICmd) NeedsService() bool              { return true }
func (c *UICmd) TerminalUI() bool                { return true }
func (c *UICmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *UICmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	// The model loads the list itself so a failing service still opens the UI.
	st := store.New(env.Service, env.Logger)
	if err := ui.Run(ctx, st, env.UILog); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	}
	return exitcode.Success
}

package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"tasklist/internal/exitcode"
	"tasklist/internal/output"
)

func init() {
	Register(&ListCmd{})
}

// ListCmd implements the list command.
type ListCmd struct {
	openOnly bool
	showIDs  bool
}

// SetOpenOnly hides completed tasks (for testing).
func (c *ListCmd) SetOpenOnly(v bool) {
	c.openOnly = v
}

// SetShowIDs appends task IDs to each line (for testing).
func (c *ListCmd) SetShowIDs(v bool) {
	c.showIDs = v
}

func (c *ListCmd) Name() string       { return "list" }
func (c *ListCmd) Aliases() []string  { return []string{"ls"} }
func (c *ListCmd) Synopsis() string   { return "List tasks" }
func (c *ListCmd) Usage() string      { return "tasklist list [--open] [--ids]" }
func (c *ListCmd) NeedsService() bool { return true }

func (c *ListCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.BoolVar(&c.openOnly, "open", false, "hide completed tasks")
	fs.BoolVar(&c.showIDs, "ids", false, "print task IDs")
}

func (c *ListCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	st, err := loadStore(ctx, env)
	if err != nil {
		return backendError(errOut, err)
	}

	printed := 0
	// Positions count every task so they stay valid refs with --open.
	for i, task := range st.Tasks() {
		if c.openOnly && task.Completed {
			continue
		}
		if c.showIDs {
			output.FormatTaskWithID(out, i+1, task)
		} else {
			output.FormatTask(out, i+1, task)
		}
		printed++
	}

	if printed == 0 && !env.Config.Quiet {
		fmt.Fprintln(out, "no tasks found")
	}
	return exitcode.Success
}

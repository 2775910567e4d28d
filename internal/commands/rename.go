package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"tasklist/internal/exitcode"
)

func init() {
	Register(&RenameCmd{})
}

// RenameCmd implements the rename command.
type RenameCmd struct{}

func (c *RenameCmd) Name() string                    { return "rename" }
func (c *RenameCmd) Aliases() []string               { return []string{"mv"} }
func (c *RenameCmd) Synopsis() string                { return "Change a task's title" }
func (c *RenameCmd) Usage() string                   { return "tasklist rename <ref> <title...>" }
func (c *RenameCmd) NeedsService() bool              { return true }
func (c *RenameCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *RenameCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	if len(args) == 0 {
		return refError(errOut, ErrTaskRefRequired)
	}
	ref, err := ParseTaskRef(args[0])
	if err != nil {
		return refError(errOut, err)
	}

	title := strings.TrimSpace(strings.Join(args[1:], " "))
	if title == "" {
		fmt.Fprintln(errOut, "error: title required")
		return exitcode.UserError
	}

	st, err := loadStore(ctx, env)
	if err != nil {
		return backendError(errOut, err)
	}

	task, err := ref.Resolve(st.Tasks())
	if err != nil {
		return refError(errOut, err)
	}

	if err := st.Rename(ctx, task.ID, title); err != nil {
		return backendError(errOut, err)
	}

	if !env.Config.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

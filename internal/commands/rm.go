package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"tasklist/internal/exitcode"
)

func init() {
	Register(&RmCmd{})
}

// RmCmd implements the rm command.
type RmCmd struct{}

func (c *RmCmd) Name() string                    { return "rm" }
func (c *RmCmd) Aliases() []string               { return []string{"delete"} }
func (c *RmCmd) Synopsis() string                { return "Delete tasks" }
func (c *RmCmd) Usage() string                   { return "tasklist rm <ref>..." }
func (c *RmCmd) NeedsService() bool              { return true }
func (c *RmCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *RmCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	refs, err := ParseTaskRefs(args)
	if err != nil {
		return refError(errOut, err)
	}

	st, err := loadStore(ctx, env)
	if err != nil {
		return backendError(errOut, err)
	}

	// Resolve all refs before deleting so positions don't shift underneath.
	targets, err := resolveRefs(st.Tasks(), refs)
	if err != nil {
		return refError(errOut, err)
	}

	for _, t := range targets {
		if err := st.Remove(ctx, t.ID); err != nil {
			return backendError(errOut, err)
		}
	}

	if !env.Config.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

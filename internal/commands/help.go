package commands

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"tasklist/internal/exitcode"
)

func init() {
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string                    { return "help" }
func (c *HelpCmd) Aliases() []string               { return nil }
func (c *HelpCmd) Synopsis() string                { return "Print usage" }
func (c *HelpCmd) Usage() string                   { return "tasklist help" }
func (c *HelpCmd) NeedsService() bool              { return false }
func (c *HelpCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	fmt.Fprintln(out, "Usage:")
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, cmd := range DefaultRegistry.All() {
		fmt.Fprintf(tw, "  %s\t%s\n", cmd.Usage(), cmd.Synopsis())
	}
	tw.Flush()
	fmt.Fprint(out, helpFooter)
	return exitcode.Success
}

const helpFooter = `
Task references:
  <n>              Position as printed by 'tasklist list' (1-based)
  @<id>            Task ID as printed by 'tasklist list --ids'

Common flags:
  --config <dir>   Override config directory
  --backend <name> Task Service backend: rest (default) or googletasks
  --base-url <url> REST Task Service base URL (default http://localhost:5000)
  --quiet          Suppress informational output
  --debug          Print debug logs to stderr
`

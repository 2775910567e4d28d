package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"tasklist/internal/exitcode"
)

func init() {
	Register(&LogoutCmd{})
}

// LogoutCmd removes the stored Google Tasks token.
type LogoutCmd struct{}

func (c *LogoutCmd) Name() string                    { return "logout" }
func (c *LogoutCmd) Aliases() []string               { return nil }
func (c *LogoutCmd) Synopsis() string                { return "Remove stored Google credentials" }
func (c *LogoutCmd) Usage() string                   { return "tasklist logout [common flags]" }
func (c *LogoutCmd) NeedsService() bool              { return false }
func (c *LogoutCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *LogoutCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	cfg := env.Config
	if !cfg.HasToken() {
		if !cfg.Quiet {
			fmt.Fprintln(out, "not logged in")
		}
		return exitcode.Success
	}

	if err := cfg.RemoveToken(); err != nil {
		fmt.Fprintf(errOut, "error: failed to remove token: %v\n", err)
		return exitcode.AuthError
	}
	env.Logger.Debug("token removed", "path", cfg.TokenPath())

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

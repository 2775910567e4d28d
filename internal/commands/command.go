// Package commands provides the command interface and implementations.
package commands

import (
	"context"
	"io"
	"log/slog"

	"github.com/spf13/pflag"

	"tasklist/internal/config"
	"tasklist/internal/service"
	"tasklist/internal/ui"
)

// Env is what the dispatcher hands to a command.
type Env struct {
	// Config is always set.
	Config *config.Config

	// Service is nil unless the command's NeedsService returns true.
	Service service.Service

	// Logger is always set.
	Logger *slog.Logger

	// UILog is set for commands that take over the terminal. Logger writes
	// through it so records end up in the UI status line.
	UILog *ui.LogHandler
}

// Command defines the interface for CLI commands.
type Command interface {
	// Name returns the primary command name.
	Name() string

	// Aliases returns alternative names for the command.
	Aliases() []string

	// Synopsis returns a short description for help output.
	Synopsis() string

	// Usage returns the usage string for help output.
	Usage() string

	// NeedsService returns true if the command talks to the Task Service.
	// Commands like help, version, serve, login and logout return false.
	NeedsService() bool

	// RegisterFlags registers command-specific flags.
	RegisterFlags(fs *pflag.FlagSet)

	// Run executes the command.
	// args contains positional arguments after flag parsing.
	// Returns exit code.
	Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int
}

// TerminalUI is implemented by commands that draw a full-screen UI. The
// dispatcher routes their logs into the UI instead of stderr.
type TerminalUI interface {
	TerminalUI() bool
}

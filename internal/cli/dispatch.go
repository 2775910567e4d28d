// Package cli parses the command line and dispatches to commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/pflag"

	"tasklist/internal/backend/googletasks"
	"tasklist/internal/commands"
	"tasklist/internal/config"
	"tasklist/internal/exitcode"
	"tasklist/internal/service"
	"tasklist/internal/ui"
)

// defaultCommand runs when no arguments are given.
const defaultCommand = "ui"

// ServiceFactory creates a Service from config.
// Used to inject the backend during dispatch.
type ServiceFactory func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (service.Service, error)

// Dispatcher handles command-line parsing and dispatch.
type Dispatcher struct {
	registry *commands.Registry
	factory  ServiceFactory
}

// NewDispatcher creates a new dispatcher with the given registry and service factory.
func NewDispatcher(registry *commands.Registry, factory ServiceFactory) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		factory:  factory,
	}
}

// commonFlags are accepted by every command.
type commonFlags struct {
	configDir string
	backend   string
	baseURL   string
	quiet     bool
	debug     bool
}

func (f *commonFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.configDir, "config", "", "config directory")
	fs.StringVar(&f.backend, "backend", "", "Task Service backend (rest or googletasks)")
	fs.StringVar(&f.baseURL, "base-url", "", "REST Task Service base URL")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "suppress informational output")
	fs.BoolVar(&f.debug, "debug", false, "print debug logs to stderr")
}

// Run parses arguments and dispatches to the appropriate command.
// Returns the exit code.
func (d *Dispatcher) Run(ctx context.Context, args []string, out, errOut io.Writer) int {
	if len(args) == 0 {
		return d.dispatch(ctx, defaultCommand, nil, out, errOut)
	}

	cmdName := args[0]

	// Flags require a command
	if strings.HasPrefix(cmdName, "-") {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}

	return d.dispatch(ctx, cmdName, args[1:], out, errOut)
}

func (d *Dispatcher) dispatch(ctx context.Context, cmdName string, args []string, out, errOut io.Writer) int {
	cmd, ok := d.registry.Find(cmdName)
	if !ok {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}
	return d.dispatchCommand(ctx, cmd, args, out, errOut)
}

func (d *Dispatcher) dispatchCommand(ctx context.Context, cmd commands.Command, args []string, out, errOut io.Writer) int {
	fs := pflag.NewFlagSet(cmd.Name(), pflag.ContinueOnError)
	fs.SetOutput(io.Discard) // We handle errors ourselves
	fs.SortFlags = false

	var common commonFlags
	common.register(fs)
	cmd.RegisterFlags(fs)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			fmt.Fprintf(out, "Usage: %s\n\n%s\n\nFlags:\n%s", cmd.Usage(), cmd.Synopsis(), fs.FlagUsages())
			return exitcode.Success
		}
		// pflag messages already read "unknown flag: --x",
		// "flag needs an argument: --x" and so on.
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}

	cfg, err := config.New(common.configDir)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}
	if err := applyOverrides(cfg, fs, &common); err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}

	env := &commands.Env{Config: cfg}
	if tui, ok := cmd.(commands.TerminalUI); ok && tui.TerminalUI() {
		env.UILog = ui.NewLogHandler(slog.LevelWarn)
		env.Logger = slog.New(env.UILog)
	} else {
		env.Logger = NewCommandLogger(errOut, cfg.Quiet, cfg.Debug)
	}
	env.Logger = env.Logger.With("command", cmd.Name())

	if cmd.NeedsService() {
		if code, ok := checkCredentials(cfg, errOut); !ok {
			return code
		}
		if d.factory == nil {
			fmt.Fprintln(errOut, "error: no Task Service configured")
			return exitcode.BackendError
		}
		svc, err := d.factory(ctx, cfg, env.Logger)
		if err != nil {
			if errors.Is(err, googletasks.ErrAuth) || cfg.Backend == config.BackendGoogleTasks {
				fmt.Fprintf(errOut, "error: auth error: %s\n", err)
				return exitcode.AuthError
			}
			fmt.Fprintf(errOut, "error: %s\n", err)
			return exitcode.UserError
		}
		env.Service = svc
	}

	return cmd.Run(ctx, env, fs.Args(), out, errOut)
}

// applyOverrides applies command-line settings on top of config.yaml.
func applyOverrides(cfg *config.Config, fs *pflag.FlagSet, common *commonFlags) error {
	cfg.Quiet = common.quiet
	cfg.Debug = common.debug
	if fs.Changed("backend") {
		if err := cfg.SetBackend(common.backend); err != nil {
			return err
		}
	}
	if fs.Changed("base-url") {
		if strings.TrimSpace(common.baseURL) == "" {
			return errors.New("--base-url must not be empty")
		}
		cfg.BaseURL = strings.TrimRight(common.baseURL, "/")
	}
	return nil
}

// checkCredentials reports missing Google credentials with a user-friendly
// message before the backend is built.
func checkCredentials(cfg *config.Config, errOut io.Writer) (int, bool) {
	if cfg.Backend != config.BackendGoogleTasks {
		return exitcode.Success, true
	}
	if !cfg.HasOAuthClient() {
		fmt.Fprintf(errOut, "error: %s not found in %s\n", config.OAuthClientFile, cfg.Dir)
		return exitcode.AuthError, false
	}
	if !cfg.HasToken() {
		fmt.Fprintf(errOut, "error: not logged in (run: %s login)\n", config.AppName)
		return exitcode.AuthError, false
	}
	return exitcode.Success, true
}

package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"tasklist/internal/exitcode"
	"tasklist/internal/taskserver"
)

const (
	serveReadHeaderTimeout = 5 * time.Second
	serveShutdownTimeout   = 5 * time.Second
)

func init() {
	Register(&ServeCmd{})
}

// ServeCmd runs the in-memory Task Service for local development.
type ServeCmd struct {
	addr  string
	seeds []string
}

// SetAddr overrides the listen address (for testing).
func (c *ServeCmd) SetAddr(addr string) {
	c.addr = addr
}

func (c *ServeCmd) Name() string       { return "serve" }
func (c *ServeCmd) Aliases() []string  { return []string{"server"} }
func (c *ServeCmd) Synopsis() string   { return "Run a local in-memory Task Service" }
func (c *ServeCmd) Usage() string      { return "tasklist serve [--addr <host:port>] [--seed <title>]..." }
func (c *ServeCmd) NeedsService() bool { return false }

func (c *ServeCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.addr, "addr", "", "listen address (default from config)")
	fs.StringArrayVar(&c.seeds, "seed", nil, "start with a task with this title")
}

func (c *ServeCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	addr := c.addr
	if addr == "" {
		addr = env.Config.ListenAddr
	}

	srv := taskserver.New(taskserver.WithLogger(env.Logger))
	for _, title := range c.seeds {
		if title = strings.TrimSpace(title); title != "" {
			srv.Seed(taskserver.Task{Title: title})
		}
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	}

	server := &http.Server{
		Handler:           srv,
		ReadHeaderTimeout: serveReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(listener)
	}()

	if !env.Config.Quiet {
		fmt.Fprintf(out, "listening on http://%s\n", listener.Addr())
	}
	env.Logger.Info("task service started", "addr", listener.Addr().String())

	select {
	case err := <-errCh:
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), serveShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(errOut, "error: shutdown: %v\n", err)
		return exitcode.BackendError
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	}
	env.Logger.Info("task service stopped")
	return exitcode.Success
}

// Package exitcode defines the process exit codes of the tasklist CLI.
package exitcode

const (
	// Success indicates successful completion.
	Success = 0

	// UserError covers bad arguments, unknown task references and invalid
	// configuration.
	UserError = 1

	// AuthError indicates missing or rejected Google credentials.
	AuthError = 2

	// BackendError indicates a Task Service, network or listener failure.
	BackendError = 3

	// Interrupted is returned when the command was cancelled by a signal.
	Interrupted = 130
)

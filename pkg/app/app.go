// Package app holds the runtime contracts shared by the cmd/* entrypoints.
package app

// Runner is a long-running process started by a cmd binary. Run blocks until
// shutdown and returns the terminal error, if any.
type Runner interface {
	Run() error
}

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Ken-Miura/career-change-supporter-sub002/internal/config"
	"github.com/Ken-Miura/career-change-supporter-sub002/internal/utils"
)

var Version = "dev"

// Process exit codes.
const (
	exitOK          = 0
	exitConfigError = 1
	exitStoreError  = 2
	exitRunError    = 3
)

// exitError carries the process exit code out of a cobra RunE.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

func withExitCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

// exitCodeFor maps a command error to the process exit code. Errors that did
// not come from a command body are usage errors.
func exitCodeFor(err error) int {
	if err == nil {
		return exitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitConfigError
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "reaper",
		Short:         "Expiration and settlement reapers for the consultation marketplace",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(scheduleCmd())
	rootCmd.AddCommand(listCmd())
	return rootCmd
}

func main() {
	utils.InitLogger(config.AppName)

	err := newRootCmd().Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(exitCodeFor(err))
}

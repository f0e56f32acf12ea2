// Package main provides the mojifix command, which repairs UTF-8 text that was
// once decoded as Windows-1252 and saved again.
package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/isseis/go-mojibake-fixer/internal/logging"
)

// DefaultTargetPath is repaired when neither a flag, MOJIFIX_TARGET nor the
// config file names another file.
const DefaultTargetPath = "src/hooks/usePointsOfInterest.ts"

// Exit codes
const (
	exitOK      = 0
	exitFailure = 1
	// exitPending is returned by check when the file still needs repair.
	exitPending = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runContext(ctx, args, stdout, stderr)
}

func runContext(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := newApp(stdout, stderr)
	defer a.close()

	root := newRootCommand(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		var runErr *logging.RunError
		if !errors.As(err, &runErr) {
			runErr = &logging.RunError{
				Type:      logging.ErrorTypeInvalidArguments,
				Message:   "invalid command line",
				Component: "cli",
				RunID:     a.runID,
				Err:       err,
			}
		}
		logging.HandleRunError(stderr, a.errorLogger(), runErr)
		return exitFailure
	}
	return a.exitCode
}

// discardLogger is used for errors raised before logging is configured.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

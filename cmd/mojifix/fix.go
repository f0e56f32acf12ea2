package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/isseis/go-mojibake-fixer/internal/logging"
	"github.com/isseis/go-mojibake-fixer/internal/repair"
	"github.com/spf13/cobra"
)

func newFixCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "fix",
		Short: "Repair the target file in place",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runFix(cmd, false)
		},
	}
}

func newCheckCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report whether the target needs repair without writing it",
		Long: "check runs the repair as a dry run. It exits 0 when the file is clean\n" +
			"and 2 when repairs are pending.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runFix(cmd, true)
		},
	}
}

// runFix repairs the target. check forces a dry run and turns pending
// repairs into exitPending.
func (a *app) runFix(cmd *cobra.Command, check bool) error {
	s, err := a.setup(cmd)
	if err != nil {
		return err
	}
	dryRun := s.dryRun || check

	result, err := newPipeline(repair.Options{
		DryRun: dryRun,
		Backup: s.backup,
		Logger: a.logger.Logger,
	}).Run(cmd.Context(), s.target)
	if err != nil {
		return a.classify(err, result)
	}

	for _, r := range result.Residuals {
		_, _ = fmt.Fprintf(a.stdout, "WARN: %s:%d: unrepaired %q, likely %q\n", s.target, r.Line, r.Garbled, r.Suggested)
	}

	switch {
	case dryRun && result.NeedsRepair():
		_, _ = fmt.Fprintf(a.stdout, "PENDING: %s needs repair (%d replacements, bom: %t)\n",
			s.target, result.Report.Total, result.HadBOM)
		if check {
			a.exitCode = exitPending
		}
	case result.Written:
		_, _ = fmt.Fprintf(a.stdout, "OK: encoding repaired: %s (%d replacements)\n", s.target, result.Report.Total)
		if result.BackupPath != "" {
			_, _ = fmt.Fprintf(a.stdout, "Backup: %s\n", result.BackupPath)
		}
	default:
		_, _ = fmt.Fprintf(a.stdout, "OK: already clean: %s\n", s.target)
	}
	return nil
}

// classify maps pipeline errors to the run error reported on stderr. A
// failure after the rename must not claim the target was left unchanged.
func (a *app) classify(err error, result *repair.Result) error {
	var (
		readErr   *repair.ReadError
		decodeErr *repair.DecodeError
		writeErr  *repair.WriteError
	)

	switch {
	case result != nil && result.Written:
		return a.fail(logging.ErrorTypeSystemError, "pipeline", "post-write step failed; target already repaired", err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return a.fail(logging.ErrorTypeUserInterrupted, "pipeline", "run interrupted; target left unchanged", err)
	case errors.As(err, &readErr):
		return a.fail(logging.ErrorTypeReadFailed, "loader", "cannot read target", err)
	case errors.As(err, &decodeErr):
		return a.fail(logging.ErrorTypeDecodeFailed, "loader", "target is not valid UTF-8; nothing written", err)
	case errors.As(err, &writeErr):
		return a.fail(logging.ErrorTypeWriteFailed, "writer", "cannot write target; original left unchanged", err)
	default:
		return a.fail(logging.ErrorTypeSystemError, "pipeline", "repair aborted", err)
	}
}

package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/isseis/go-mojibake-fixer/internal/config"
	"github.com/isseis/go-mojibake-fixer/internal/logging"
	"github.com/isseis/go-mojibake-fixer/internal/repair"
	"github.com/isseis/go-mojibake-fixer/internal/terminal"
	"github.com/spf13/cobra"
)

var (
	// newPipeline is replaced in tests to inject faults.
	newPipeline = repair.NewPipeline
	newRunID    = logging.GenerateRunID
)

// options holds the persistent flag values.
type options struct {
	file        string
	configPath  string
	logLevel    string
	logDir      string
	backup      bool
	dryRun      bool
	interactive bool
	quiet       bool
	noColor     bool
}

// app carries per-invocation state shared by the subcommands.
type app struct {
	opts     options
	stdout   io.Writer
	stderr   io.Writer
	runID    string
	exitCode int

	cfg          *config.Config
	capabilities terminal.Capabilities
	logger       *logging.Logger
}

// settings is the merged result of flags and config file.
type settings struct {
	target string
	backup bool
	dryRun bool
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		stdout: stdout,
		stderr: stderr,
		runID:  newRunID(),
	}
}

func (a *app) close() {
	if a.logger == nil {
		return
	}
	if err := a.logger.Close(); err != nil {
		_, _ = fmt.Fprintf(a.stderr, "Warning: failed to close log file: %v\n", err)
	}
}

// errorLogger returns the configured logger, or a discarding one if setup
// never got that far.
func (a *app) errorLogger() *slog.Logger {
	if a.logger == nil {
		return discardLogger()
	}
	return a.logger.Logger
}

func (a *app) detector() *terminal.Detector {
	return terminal.NewDetector(terminal.Options{
		ForceInteractive:    a.opts.interactive,
		ForceNonInteractive: a.opts.quiet,
		DisableColor:        a.opts.noColor,
	})
}

func (a *app) fail(errType logging.ErrorType, component, message string, err error) error {
	return &logging.RunError{
		Type:      errType,
		Message:   message,
		Component: component,
		RunID:     a.runID,
		Err:       err,
	}
}

// setup loads the config, detects the terminal and starts logging. Flags
// explicitly set on cmd win over config values.
func (a *app) setup(cmd *cobra.Command) (*settings, error) {
	cfg, err := config.NewLoader().Load(a.opts.configPath)
	if err != nil {
		return nil, a.fail(logging.ErrorTypeConfigParsing, "config", "failed to load config", err)
	}
	a.cfg = cfg

	flags := cmd.Flags()
	levelName := cfg.Log.Level
	if flags.Changed("log-level") {
		levelName = a.opts.logLevel
	}
	level, err := config.ParseLogLevel(levelName)
	if err != nil {
		return nil, a.fail(logging.ErrorTypeInvalidArguments, "cli", "invalid --log-level", err)
	}

	logDir := cfg.Log.Dir
	if flags.Changed("log-dir") {
		logDir = a.opts.logDir
	}

	a.capabilities = a.detector()

	logger, err := logging.Setup(logging.Config{
		Level:         level,
		LogDir:        logDir,
		RunID:         a.runID,
		ConsoleWriter: a.stderr,
		Capabilities:  a.capabilities,
	})
	if err != nil {
		return nil, a.fail(logging.ErrorTypeLogSetup, "logging", "failed to set up logging", err)
	}
	a.logger = logger

	target, err := config.ResolveTargetPath(a.opts.file, flags.Changed("file"), cfg, DefaultTargetPath)
	if err != nil {
		return nil, a.fail(logging.ErrorTypeInvalidArguments, "cli", "no target file", err)
	}

	s := &settings{
		target: target,
		backup: cfg.Output.Backup,
		dryRun: cfg.Output.DryRun,
	}
	if flags.Changed("backup") {
		s.backup = a.opts.backup
	}
	if flags.Changed("dry-run") {
		s.dryRun = a.opts.dryRun
	}
	return s, nil
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "mojifix",
		Short: "Repair Windows-1252 mojibake in a UTF-8 source file",
		Long: "mojifix reads the target file, replaces a fixed table of mojibake sequences with\n" +
			"the characters they were meant to be, and writes it back as UTF-8 without a BOM.\n" +
			"Running it with no subcommand is the same as \"mojifix fix\".",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runFix(cmd, false)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.opts.file, "file", "f", "", "file to repair (default "+DefaultTargetPath+", env "+config.TargetEnvVar+")")
	pf.StringVarP(&a.opts.configPath, "config", "c", "", "config file (.toml, .yaml or .yml)")
	pf.StringVar(&a.opts.logLevel, "log-level", "info", "log level: debug, info, warn or error")
	pf.StringVar(&a.opts.logDir, "log-dir", "", "directory for the per-run JSON log file")
	pf.BoolVar(&a.opts.backup, "backup", false, "keep the original as <file>.<id>.bak before replacing it")
	pf.BoolVarP(&a.opts.dryRun, "dry-run", "n", false, "report what would change without writing")
	pf.BoolVar(&a.opts.interactive, "interactive", false, "force interactive console output")
	pf.BoolVarP(&a.opts.quiet, "quiet", "q", false, "force plain, non-interactive console output")
	pf.BoolVar(&a.opts.noColor, "no-color", false, "disable colored output (also NO_COLOR)")
	root.MarkFlagsMutuallyExclusive("interactive", "quiet")

	root.AddCommand(newFixCommand(a), newCheckCommand(a), newTableCommand(a))
	return root
}

// Package terminal decides whether mojifix is talking to a person at a
// terminal or to a pipe or CI log, and whether colour is wanted.
package terminal

import (
	"os"
	"strings"

	"golang.org/x/term"
)

// ciEnvVars contains common CI environment variables
var ciEnvVars = []string{
	"CI",
	"CONTINUOUS_INTEGRATION",
	"GITHUB_ACTIONS",
	"GITLAB_CI",
	"JENKINS_URL",
	"BUILDKITE",
	"CIRCLECI",
	"TRAVIS",
	"TF_BUILD",
}

// Options are the command-line overrides for detection.
type Options struct {
	ForceInteractive    bool
	ForceNonInteractive bool
	DisableColor        bool
}

// Capabilities is what the logging handlers need to know about the terminal.
type Capabilities interface {
	IsInteractive() bool
	SupportsColor() bool
}

// Detector implements Capabilities from options, environment and TTY state.
type Detector struct {
	options    Options
	isTerminal func() bool
}

// NewDetector returns a Detector that checks whether stderr is a terminal.
func NewDetector(options Options) *Detector {
	return &Detector{
		options: options,
		isTerminal: func() bool {
			return term.IsTerminal(int(os.Stderr.Fd()))
		},
	}
}

// IsInteractive reports whether output should be formatted for a person.
// Command-line options win, then CI detection, then the TTY check.
func (d *Detector) IsInteractive() bool {
	if d.options.ForceInteractive {
		return true
	}
	if d.options.ForceNonInteractive {
		return false
	}
	if IsCIEnvironment() {
		return false
	}
	return d.isTerminal()
}

// SupportsColor reports whether ANSI colour may be written.
func (d *Detector) SupportsColor() bool {
	if d.options.DisableColor {
		return false
	}
	if force := os.Getenv("CLICOLOR_FORCE"); force != "" && isTruthy(force) {
		return true
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if !d.IsInteractive() {
		return false
	}
	termName := strings.ToLower(strings.TrimSpace(os.Getenv("TERM")))
	return termName != "" && termName != "dumb"
}

// IsCIEnvironment checks if the current environment is a CI/CD system.
// CI=false and CI=0 do not count.
func IsCIEnvironment() bool {
	for _, envVar := range ciEnvVars {
		value := os.Getenv(envVar)
		if value == "" {
			continue
		}
		if envVar == "CI" && isFalsy(value) {
			continue
		}
		return true
	}
	return false
}

func isTruthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}

func isFalsy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "0", "false", "no":
		return true
	default:
		return false
	}
}

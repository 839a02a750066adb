// Package engine is the process boundary to the external transfer engine.
// It builds nothing but argument vectors and parses nothing but the engine's
// line-oriented output; binary discovery, credentials, and the engine config
// file all live outside this package's concern.
package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Logger provides structured logging. The args follow slog conventions:
// alternating key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// Output is one invocation's captured streams and exit status. Both streams
// are always populated, including on failure: the error classifier reads
// stderr from failed runs.
type Output struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Combined returns stdout followed by stderr. Negotiation responses can land
// on either stream depending on the engine version.
func (o Output) Combined() string {
	return o.Stdout + o.Stderr
}

// Runner runs the engine binary once per call. Implementations must honor
// context cancellation by terminating the process.
type Runner interface {
	Run(ctx context.Context, args []string) (Output, error)
}

// ExecRunner is the production Runner: it spawns the engine binary as a
// subprocess. Safe for concurrent use; each Run is an independent process.
type ExecRunner struct {
	binPath    string
	configPath string
	log        Logger
}

// NewExecRunner returns a runner for the given engine binary. configPath is
// appended to every invocation as the engine's --config flag; pass "" to use
// the engine's own default. A nil logger discards output.
func NewExecRunner(binPath, configPath string, log Logger) *ExecRunner {
	if log == nil {
		log = nopLogger{}
	}
	return &ExecRunner{binPath: binPath, configPath: configPath, log: log}
}

// Run executes one engine invocation and waits for it to exit. A non-zero
// exit status is returned as an error, but Output is populated either way so
// callers can classify the failure text.
func (r *ExecRunner) Run(ctx context.Context, args []string) (Output, error) {
	if r.configPath != "" {
		args = append(append([]string{}, args...), "--config", r.configPath)
	}

	r.log.Debug("engine run", "args", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, r.binPath, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	out := Output{Stdout: stdout.String(), Stderr: stderr.String()}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		out.ExitCode = exitErr.ExitCode()
		r.log.Debug("engine exited nonzero", "code", out.ExitCode)
		return out, fmt.Errorf("engine exited with code %d: %w", out.ExitCode, err)
	default:
		return out, fmt.Errorf("run engine: %w", err)
	}

	return out, nil
}

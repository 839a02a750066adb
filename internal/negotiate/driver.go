package negotiate

import (
	"context"
	"fmt"
	"time"

	"csync-go/internal/engine"
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

// AnswerFunc supplies the caller's answer for an engine-reported stage.
// Returning an error aborts the session.
type AnswerFunc func(state string) (string, error)

const (
	// maxSteps caps runaway handshakes. No known provider needs more than
	// a handful of stages; hitting the cap means the engine is looping.
	maxSteps = 10

	defaultStepTimeout = 2 * time.Minute
)

// Driver runs negotiation sessions against the engine. Sessions are strictly
// sequential: each step blocks on the engine's response. Independent sessions
// may run on separate Drivers or concurrently on one; Driver itself holds no
// mutable state.
type Driver struct {
	runner      engine.Runner
	log         Logger
	stepTimeout time.Duration
}

// NewDriver returns a Driver using the given runner. A nil logger discards
// output.
func NewDriver(runner engine.Runner, log Logger) *Driver {
	if log == nil {
		log = nopLogger{}
	}
	return &Driver{runner: runner, log: log, stepTimeout: defaultStepTimeout}
}

// WithStepTimeout overrides the per-step engine timeout.
func (d *Driver) WithStepTimeout(timeout time.Duration) *Driver {
	d.stepTimeout = timeout
	return d
}

// Run drives a session to completion or failure. answer is consulted for
// every non-terminal stage the engine reports. Cancelling ctx terminates the
// in-flight engine process and aborts the session.
func (d *Driver) Run(ctx context.Context, session *Session, answer AnswerFunc) error {
	result := ""

	for step := 0; step < maxSteps; step++ {
		out, err := d.runStep(ctx, session.NextArgs(result))
		combined := out.Combined()

		if IsFatal(combined) {
			if hint := ErrorHint(combined); hint != "" {
				return fmt.Errorf("configure %s: %s", session.RemoteName, hint)
			}
			return fmt.Errorf("configure %s: engine reported a fatal error: %s", session.RemoteName, firstLine(combined))
		}
		if err != nil {
			return fmt.Errorf("configure %s: %w", session.RemoteName, err)
		}

		resp, ok := Parse(combined)
		if !ok {
			return fmt.Errorf("configure %s: unparseable engine response at stage %q", session.RemoteName, session.State)
		}
		session.Apply(resp)

		d.log.Debug("negotiation step", "remote", session.RemoteName, "state", session.State)

		if session.Failed() {
			if hint := ErrorHint(combined); hint != "" {
				return fmt.Errorf("configure %s: %s", session.RemoteName, hint)
			}
			return fmt.Errorf("configure %s: %s", session.RemoteName, session.LastError)
		}
		if session.Complete() {
			d.log.Info("remote configured", "remote", session.RemoteName, "backend", session.Backend)
			return nil
		}

		result, err = answer(session.State)
		if err != nil {
			return fmt.Errorf("configure %s: answer for stage %q: %w", session.RemoteName, session.State, err)
		}
	}

	return fmt.Errorf("configure %s: handshake did not converge after %d steps", session.RemoteName, maxSteps)
}

func (d *Driver) runStep(ctx context.Context, args []string) (engine.Output, error) {
	stepCtx, cancel := context.WithTimeout(ctx, d.stepTimeout)
	defer cancel()
	return d.runner.Run(stepCtx, args)
}

// PersonalTokenAnswers scripts the token-based handshake used by providers
// like Jottacloud: the first stage picks the standard auth type, the second
// supplies the personal login token, a later device stage declines any
// non-default choice, and remaining prompts take their defaults.
func PersonalTokenAnswers(token string) AnswerFunc {
	step := 0
	return func(string) (string, error) {
		step++
		switch step {
		case 1:
			return "standard", nil
		case 2:
			return token, nil
		case 3:
			return "false", nil
		default:
			return "", nil
		}
	}
}

func firstLine(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return s[:i]
		}
	}
	return s
}

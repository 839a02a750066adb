// Package negotiate drives a provider's multi-step configuration handshake
// with the engine's non-interactive config sub-command. The engine owns the
// state machine; this package only relays its reported stage tokens back with
// the caller's answers and decides when the session is complete or failed.
package negotiate

import (
	"encoding/json"
	"strings"
)

// Response is the engine's answer to one configuration step. State is the
// stage token to echo back on the next step; an empty State with no Error
// means the remote is fully configured.
type Response struct {
	State  string          `json:"State"`
	Error  string          `json:"Error"`
	Result string          `json:"Result"`
	Option json.RawMessage `json:"Option"`
}

// Session is one configuration exchange for one remote. Stage transitions
// come only from engine responses, never invented locally.
type Session struct {
	RemoteName string
	Backend    string
	State      string
	LastError  string

	started bool
}

func NewSession(remoteName, backend string) *Session {
	return &Session{RemoteName: remoteName, Backend: backend}
}

// NextArgs returns the argument vector for the session's next step: a plain
// create on the first call, a continue echoing the engine's last stage token
// afterwards. result is the caller's answer for the current stage and is
// ignored on the first step.
func (s *Session) NextArgs(result string) []string {
	if !s.started {
		s.started = true
		return []string{
			"config", "create",
			s.RemoteName, s.Backend,
			"--non-interactive",
		}
	}
	// Still "config create": the remote does not exist until the whole
	// handshake completes, so update would fail.
	return []string{
		"config", "create",
		s.RemoteName, s.Backend,
		"--continue",
		"--state", s.State,
		"--result", result,
		"--non-interactive",
	}
}

// Apply folds an engine response into the session.
func (s *Session) Apply(resp Response) {
	s.State = resp.State
	s.LastError = resp.Error
}

// Complete reports whether the engine has finished the handshake.
func (s *Session) Complete() bool {
	return s.started && s.State == "" && s.LastError == ""
}

// Failed reports whether the engine reported an error. A failed session does
// not advance further.
func (s *Session) Failed() bool {
	return s.LastError != ""
}

// Parse extracts a Response from raw engine output. The output is not
// guaranteed well-formed JSON, so a structured parse is attempted first and
// a literal marker search covers the rest. ok is false when no State marker
// of any kind was found; callers must treat that as a failed step, never
// loop on it.
func Parse(output string) (Response, bool) {
	trimmed := strings.TrimSpace(output)

	var resp Response
	if err := json.Unmarshal([]byte(trimmed), &resp); err == nil {
		return resp, true
	}

	state, stateOK := extractQuoted(output, `"State"`)
	errMsg, _ := extractQuoted(output, `"Error"`)
	if !stateOK {
		return Response{}, false
	}
	return Response{State: state, Error: errMsg}, true
}

// extractQuoted finds `key: "value"` in output, tolerating both spaced and
// compact JSON, and returns the quoted value.
func extractQuoted(output, key string) (string, bool) {
	for _, pattern := range []string{key + `: "`, key + `:"`} {
		i := strings.Index(output, pattern)
		if i < 0 {
			continue
		}
		rest := output[i+len(pattern):]
		end := strings.IndexByte(rest, '"')
		if end < 0 {
			continue
		}
		return rest[:end], true
	}
	return "", false
}

// IsFatal reports whether raw output carries the engine's fatal-error
// banner, which can appear without any structured response at all.
func IsFatal(output string) bool {
	return strings.Contains(output, "Fatal error")
}

// ErrorHint maps known failure phrases to a clearer message than the engine
// provides. Returns "" when no special case applies.
func ErrorHint(output string) string {
	if strings.Contains(output, "failed to get oauth token") {
		return "Invalid or expired personal login token. Generate a new token and try again."
	}
	return ""
}

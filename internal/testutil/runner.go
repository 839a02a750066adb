package testutil

import (
	"context"
	"strings"
	"sync"

	"csync-go/internal/engine"
)

// FakeRunner is a scripted engine.Runner. Each call consumes the next
// Response in order; calls past the end of the script return an empty
// successful Output.
type FakeRunner struct {
	mu        sync.Mutex
	responses []Response
	calls     [][]string
}

// Response is one scripted engine invocation result.
type Response struct {
	Output engine.Output
	Err    error
}

func NewFakeRunner(responses ...Response) *FakeRunner {
	return &FakeRunner{responses: responses}
}

// Run records the call and returns the next scripted response.
func (r *FakeRunner) Run(_ context.Context, args []string) (engine.Output, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = append(r.calls, append([]string{}, args...))
	if len(r.responses) == 0 {
		return engine.Output{}, nil
	}
	next := r.responses[0]
	r.responses = r.responses[1:]
	return next.Output, next.Err
}

// Calls returns the argument vectors of all invocations so far.
func (r *FakeRunner) Calls() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([][]string, len(r.calls))
	copy(out, r.calls)
	return out
}

// CallCount returns the number of invocations so far.
func (r *FakeRunner) CallCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

// LastCall returns the most recent argument vector, or nil.
func (r *FakeRunner) LastCall() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.calls) == 0 {
		return nil
	}
	return r.calls[len(r.calls)-1]
}

// HasCallWithVerb reports whether any recorded call starts with the verb.
func (r *FakeRunner) HasCallWithVerb(verb string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, call := range r.calls {
		if len(call) > 0 && call[0] == verb {
			return true
		}
	}
	return false
}

// JoinedCall returns call i as a single space-separated string, convenient
// for substring assertions.
func (r *FakeRunner) JoinedCall(i int) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if i < 0 || i >= len(r.calls) {
		return ""
	}
	return strings.Join(r.calls[i], " ")
}

// Compile-time check that FakeRunner implements engine.Runner.
var _ engine.Runner = (*FakeRunner)(nil)

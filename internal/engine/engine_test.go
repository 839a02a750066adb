package engine_test

import (
	"context"
	"errors"
	"testing"

	"csync-go/internal/engine"
)

// scriptRunner returns canned outputs in order, recording every arg vector.
type scriptRunner struct {
	outputs []engine.Output
	errs    []error
	calls   [][]string
}

func (r *scriptRunner) Run(_ context.Context, args []string) (engine.Output, error) {
	i := len(r.calls)
	r.calls = append(r.calls, args)
	if i >= len(r.outputs) {
		return engine.Output{}, errors.New("unexpected call")
	}
	var err error
	if i < len(r.errs) {
		err = r.errs[i]
	}
	return r.outputs[i], err
}

func TestClient_Size(t *testing.T) {
	t.Parallel()

	runner := &scriptRunner{outputs: []engine.Output{
		{Stdout: `{"count": 1250, "bytes": 7340032000}` + "\n"},
	}}
	client := engine.NewClient(runner)

	report, err := client.Size(context.Background(), "work:photos")
	if err != nil {
		t.Fatalf("Size() error = %v", err)
	}
	if report.Count != 1250 {
		t.Errorf("Count = %d, want 1250", report.Count)
	}
	if report.Bytes != 7340032000 {
		t.Errorf("Bytes = %d, want 7340032000", report.Bytes)
	}

	want := []string{"size", "work:photos", "--json"}
	if len(runner.calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(runner.calls))
	}
	for i, arg := range want {
		if runner.calls[0][i] != arg {
			t.Errorf("args[%d] = %q, want %q", i, runner.calls[0][i], arg)
		}
	}
}

func TestClient_Size_BadOutput(t *testing.T) {
	t.Parallel()

	runner := &scriptRunner{outputs: []engine.Output{{Stdout: "not json"}}}
	client := engine.NewClient(runner)

	if _, err := client.Size(context.Background(), "work:"); err == nil {
		t.Fatal("Size() error = nil, want parse error")
	}
}

func TestClient_ListRemotes(t *testing.T) {
	t.Parallel()

	runner := &scriptRunner{outputs: []engine.Output{
		{Stdout: "gdrive:\nwork-s3:\n\nbackup:\n"},
	}}
	client := engine.NewClient(runner)

	names, err := client.ListRemotes(context.Background())
	if err != nil {
		t.Fatalf("ListRemotes() error = %v", err)
	}
	want := []string{"gdrive", "work-s3", "backup"}
	if len(names) != len(want) {
		t.Fatalf("ListRemotes() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestClient_RemoteExists(t *testing.T) {
	t.Parallel()

	runner := &scriptRunner{outputs: []engine.Output{
		{Stdout: "gdrive:\n"},
		{Stdout: "gdrive:\n"},
	}}
	client := engine.NewClient(runner)

	ok, err := client.RemoteExists(context.Background(), "gdrive")
	if err != nil || !ok {
		t.Errorf("RemoteExists(gdrive) = %v, %v, want true", ok, err)
	}
	ok, err = client.RemoteExists(context.Background(), "missing")
	if err != nil || ok {
		t.Errorf("RemoteExists(missing) = %v, %v, want false", ok, err)
	}
}

func TestOutput_Combined(t *testing.T) {
	t.Parallel()

	out := engine.Output{Stdout: "a", Stderr: "b"}
	if got := out.Combined(); got != "ab" {
		t.Errorf("Combined() = %q, want ab", got)
	}
}

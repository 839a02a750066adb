package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Client wraps a Runner with the small set of engine sub-commands the rest
// of the system needs outside of transfers themselves.
type Client struct {
	runner Runner
}

func NewClient(runner Runner) *Client {
	return &Client{runner: runner}
}

// SizeReport is the engine's answer to a size probe over a remote path.
type SizeReport struct {
	Count int   `json:"count"`
	Bytes int64 `json:"bytes"`
}

// Size probes a remote path for its file count and total byte size. target
// is an engine path spec, e.g. "work:photos" or a local directory.
func (c *Client) Size(ctx context.Context, target string) (SizeReport, error) {
	out, err := c.runner.Run(ctx, []string{"size", target, "--json"})
	if err != nil {
		return SizeReport{}, fmt.Errorf("size %s: %w", target, err)
	}

	var report SizeReport
	if err := json.Unmarshal([]byte(strings.TrimSpace(out.Stdout)), &report); err != nil {
		return SizeReport{}, fmt.Errorf("parse size output for %s: %w", target, err)
	}
	return report, nil
}

// ListRemotes returns the configured remote names, without the trailing
// colon the engine prints.
func (c *Client) ListRemotes(ctx context.Context) ([]string, error) {
	out, err := c.runner.Run(ctx, []string{"listremotes"})
	if err != nil {
		return nil, fmt.Errorf("list remotes: %w", err)
	}

	var names []string
	for _, line := range strings.Split(out.Stdout, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		names = append(names, strings.TrimSuffix(line, ":"))
	}
	return names, nil
}

// RemoteExists reports whether a remote with the given name is configured.
func (c *Client) RemoteExists(ctx context.Context, name string) (bool, error) {
	names, err := c.ListRemotes(ctx)
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// CreateRemote creates a remote non-interactively from key=value parameters.
// Backends that need a token handshake go through the negotiation driver
// instead.
func (c *Client) CreateRemote(ctx context.Context, name, backend string, params []string) error {
	args := append([]string{"config", "create", name, backend}, params...)
	args = append(args, "--non-interactive")
	if _, err := c.runner.Run(ctx, args); err != nil {
		return fmt.Errorf("create remote %s: %w", name, err)
	}
	return nil
}

// DeleteRemote removes a remote from the engine configuration.
func (c *Client) DeleteRemote(ctx context.Context, name string) error {
	if _, err := c.runner.Run(ctx, []string{"config", "delete", name}); err != nil {
		return fmt.Errorf("delete remote %s: %w", name, err)
	}
	return nil
}

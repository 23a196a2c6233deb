package copilot

import (
	"context"
	"os/exec"
	"strings"
	"time"
)

// probeTimeout bounds the short CLI probes (version and help discovery).
const probeTimeout = 5 * time.Second

// Installed reports whether the Copilot CLI responds to a version query
// within the probe budget. Any error or timeout counts as not installed.
func (r *Runner) Installed(ctx context.Context) bool {
	_, err := r.Version(ctx)
	return err == nil
}

// Version runs the CLI with its version flag and returns the trimmed output.
func (r *Runner) Version(ctx context.Context) (string, error) {
	cctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	out, err := exec.CommandContext(cctx, r.Binary, "--version").Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// HelpText runs the CLI with its help flag and returns trimmed stdout,
// falling back to trimmed stderr when stdout is empty.
func (r *Runner) HelpText(ctx context.Context) (string, error) {
	cctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	cmd := exec.CommandContext(cctx, r.Binary, "--help")
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	out := strings.TrimSpace(stdout.String())
	if out == "" {
		out = strings.TrimSpace(stderr.String())
	}
	if err != nil && out == "" {
		return "", err
	}
	return out, nil
}

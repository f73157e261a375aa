// Package run executes external commands, with a dry-run variant that
// prints mutating commands instead of executing them.
package run

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// Runner executes external commands on behalf of the provisioning steps.
// Run is for mutating commands (apt-get install, systemctl enable); Query
// is for read-only probes (apt-cache madison, docker --version) that are
// safe to execute even during a dry run.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) error
	Query(ctx context.Context, name string, args ...string) (string, error)
}

// Exec runs commands for real. Env entries are appended to the inherited
// environment of every command (e.g. DEBIAN_FRONTEND=noninteractive).
type Exec struct {
	Env []string
}

// Run executes a mutating command, returning combined output in the error
// on failure.
func (e *Exec) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	if len(e.Env) > 0 {
		cmd.Env = append(cmd.Environ(), e.Env...)
	}

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w\n%s", Line(name, args...), err, strings.TrimSpace(string(output)))
	}

	return nil
}

// Query executes a read-only command and returns its trimmed stdout.
func (e *Exec) Query(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if len(e.Env) > 0 {
		cmd.Env = append(cmd.Environ(), e.Env...)
	}

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s: %w\n%s", Line(name, args...), err, strings.TrimSpace(stderr.String()))
	}

	return strings.TrimSpace(stdout.String()), nil
}

// DryRun prints mutating commands to Out with a "+ " prefix and executes
// nothing. Queries are delegated to Real so detection and version probes
// still work.
type DryRun struct {
	Out  io.Writer
	Real Runner
}

// Run prints the command instead of executing it.
func (d *DryRun) Run(ctx context.Context, name string, args ...string) error {
	Trace(d.Out, name, args...)
	return nil
}

// Query delegates to the real runner.
func (d *DryRun) Query(ctx context.Context, name string, args ...string) (string, error) {
	return d.Real.Query(ctx, name, args...)
}

// Line renders a command the way it would be typed at a shell prompt.
func Line(name string, args ...string) string {
	if len(args) == 0 {
		return name
	}
	return name + " " + strings.Join(args, " ")
}

// Trace writes the dry-run form of a command to w.
func Trace(w io.Writer, name string, args ...string) {
	fmt.Fprintln(w, "+ "+Line(name, args...))
}

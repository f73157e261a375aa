package version

import (
	"context"
	"fmt"
	"strings"

	"github.com/cameronsjo/stevedore/internal/run"
)

// Resolution is the outcome of matching a pin against the package index.
type Resolution struct {
	// Engine is the full docker-ce package version to install.
	Engine string

	// CLI is the full docker-ce-cli package version, or empty when no
	// CLI candidate matched the pin and the CLI falls back to an
	// unpinned install.
	CLI string
}

// ResolvePin selects concrete package versions for a pin from the index
// candidate listings. The highest matching candidate wins regardless of
// listing order. A missing engine match is fatal; a missing CLI match
// downgrades the CLI to unpinned.
func ResolvePin(pin string, engineCandidates, cliCandidates []string) (*Resolution, error) {
	if err := ValidatePin(pin); err != nil {
		return nil, err
	}

	res := &Resolution{
		Engine: highestMatch(pin, engineCandidates),
		CLI:    highestMatch(pin, cliCandidates),
	}
	if res.Engine == "" {
		return nil, fmt.Errorf("no docker-ce version matching %q found in the package index", pin)
	}

	return res, nil
}

// highestMatch returns the raw form of the highest candidate satisfying
// the pin, or "" when none match.
func highestMatch(pin string, candidates []string) string {
	var best Version
	found := false

	for _, raw := range candidates {
		v := Parse(raw)
		if !v.MatchesPin(pin) {
			continue
		}
		if !found || Compare(v, best) > 0 {
			best = v
			found = true
		}
	}

	if !found {
		return ""
	}
	return best.Raw
}

// InstalledEngine returns the upstream version of the currently installed
// engine by asking the docker binary, or "" when docker is not installed
// or does not answer.
func InstalledEngine(ctx context.Context, runner run.Runner) string {
	out, err := runner.Query(ctx, "docker", "--version")
	if err != nil {
		return ""
	}

	// "Docker version 28.3.3, build 980b856"
	fields := strings.Fields(out)
	if len(fields) < 3 {
		return ""
	}

	return strings.TrimSuffix(fields[2], ",")
}

// Satisfied reports whether the installed engine already matches the
// desired version, using the same dot-boundary semantics as resolution
// ("28.3" is satisfied by an installed 28.3.3). The "latest" sentinel is
// never satisfied; an upgrade attempt is always made.
func Satisfied(installed, desired string) bool {
	if installed == "" || desired == "latest" {
		return false
	}
	return Parse(installed).MatchesPin(desired)
}

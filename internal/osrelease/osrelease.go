// Package osrelease detects the distribution identity of the host.
package osrelease

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sort"
	"strings"

	"github.com/cameronsjo/stevedore/internal/run"
)

// Path is the standard os-release metadata file.
const Path = "/etc/os-release"

// supported are the distributions Docker publishes apt repositories for.
var supported = map[string]bool{
	"ubuntu":   true,
	"debian":   true,
	"raspbian": true,
}

// goarchToDeb maps Go architecture names to dpkg architecture names, used
// when dpkg itself is not available to ask.
var goarchToDeb = map[string]string{
	"amd64":   "amd64",
	"arm64":   "arm64",
	"arm":     "armhf",
	"386":     "i386",
	"ppc64le": "ppc64el",
	"s390x":   "s390x",
}

// Info is the detected host identity. Immutable after detection.
type Info struct {
	// ID is the lower-cased distribution identifier (ubuntu, debian,
	// raspbian).
	ID string

	// Codename is the release nickname selecting the repository branch
	// (noble, bookworm, ...).
	Codename string

	// Arch is the dpkg architecture name (amd64, arm64, armhf, ...).
	Arch string
}

// Detect reads the host identity from /etc/os-release, falling back to
// lsb_release for the codename and dpkg for the architecture. It fails
// when the identity cannot be determined or the distribution is not one
// Docker publishes packages for.
func Detect(ctx context.Context, runner run.Runner) (*Info, error) {
	return detect(ctx, Path, runner)
}

func detect(ctx context.Context, path string, runner run.Runner) (*Info, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	fields := parse(string(data))

	info := &Info{
		ID:       strings.ToLower(fields["ID"]),
		Codename: strings.ToLower(fields["VERSION_CODENAME"]),
	}

	if info.Codename == "" {
		// Older releases omit VERSION_CODENAME from os-release.
		if out, err := runner.Query(ctx, "lsb_release", "-cs"); err == nil {
			info.Codename = strings.ToLower(strings.TrimSpace(out))
		}
	}

	if info.ID == "" {
		return nil, fmt.Errorf("cannot determine distribution ID from %s", path)
	}
	if info.Codename == "" {
		return nil, fmt.Errorf("cannot determine release codename for %s", info.ID)
	}
	if !supported[info.ID] {
		return nil, fmt.Errorf("unsupported distribution %q (supported: %s)", info.ID, supportedList())
	}

	info.Arch = detectArch(ctx, runner)

	return info, nil
}

// detectArch asks dpkg for the architecture, falling back to a GOARCH
// mapping when dpkg is unavailable.
func detectArch(ctx context.Context, runner run.Runner) string {
	if out, err := runner.Query(ctx, "dpkg", "--print-architecture"); err == nil {
		if arch := strings.TrimSpace(out); arch != "" {
			return arch
		}
	}

	if arch, ok := goarchToDeb[runtime.GOARCH]; ok {
		return arch
	}
	return runtime.GOARCH
}

// parse splits KEY=value lines, stripping quotes and comments.
func parse(data string) map[string]string {
	fields := make(map[string]string)

	for _, line := range strings.Split(data, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}

		value = strings.Trim(value, `"'`)
		fields[strings.TrimSpace(key)] = value
	}

	return fields
}

func supportedList() string {
	names := make([]string, 0, len(supported))
	for name := range supported {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

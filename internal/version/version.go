// Package version models Debian package versions of the Docker engine and
// resolves version pins against apt index listings.
package version

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Version is a parsed Debian package version such as
// "5:28.3.3-1~ubuntu.24.04~noble".
type Version struct {
	// Epoch is the Debian epoch (the "5:" prefix), 0 when absent.
	Epoch int

	// Upstream is the engine version proper, e.g. "28.3.3".
	Upstream string

	// Revision is the Debian revision and distro suffix, e.g.
	// "1~ubuntu.24.04~noble".
	Revision string

	// Raw preserves the original string for use in pin syntax.
	Raw string
}

// Parse splits a Debian package version into epoch, upstream, and
// revision parts.
func Parse(raw string) Version {
	v := Version{Raw: raw}

	rest := raw
	if epoch, tail, found := strings.Cut(rest, ":"); found {
		if n, err := strconv.Atoi(epoch); err == nil {
			v.Epoch = n
			rest = tail
		}
	}

	if upstream, revision, found := strings.Cut(rest, "-"); found {
		v.Upstream = upstream
		v.Revision = revision
	} else {
		v.Upstream = rest
	}

	return v
}

// ValidatePin checks that a requested pin contains only digits, dots, and
// hyphens, before any of it reaches the package manager.
func ValidatePin(pin string) error {
	if pin == "" {
		return fmt.Errorf("empty version pin")
	}

	for _, r := range pin {
		if (r < '0' || r > '9') && r != '.' && r != '-' {
			return fmt.Errorf("invalid version pin %q: only digits, dots, and hyphens are allowed", pin)
		}
	}

	return nil
}

// MatchesPin reports whether the version satisfies a pin: either the
// upstream version equals the pin exactly, or the pin is a
// dot-boundary prefix of it ("28.3" matches 28.3 and 28.3.3, not 28.33).
// A pin containing a hyphen is matched against upstream-revision, so
// "28.3.3-1" matches "28.3.3-1~ubuntu.24.04~noble".
func (v Version) MatchesPin(pin string) bool {
	if strings.Contains(pin, "-") {
		full := v.Upstream
		if v.Revision != "" {
			full += "-" + v.Revision
		}
		return full == pin || strings.HasPrefix(full, pin+".") || strings.HasPrefix(full, pin+"~")
	}

	return v.Upstream == pin || strings.HasPrefix(v.Upstream, pin+".")
}

// Compare orders two versions: epoch first, then upstream (semver where
// parseable, plain string comparison otherwise), then revision.
func Compare(a, b Version) int {
	if a.Epoch != b.Epoch {
		if a.Epoch < b.Epoch {
			return -1
		}
		return 1
	}

	av, aerr := semver.NewVersion(a.Upstream)
	bv, berr := semver.NewVersion(b.Upstream)
	if aerr == nil && berr == nil {
		if c := av.Compare(bv); c != 0 {
			return c
		}
	} else if c := strings.Compare(a.Upstream, b.Upstream); c != 0 {
		return c
	}

	return strings.Compare(a.Revision, b.Revision)
}

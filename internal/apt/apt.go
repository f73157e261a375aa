// Package apt drives the Debian package tooling: repository setup, index
// refresh, version listings, and package installation.
package apt

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cameronsjo/stevedore/internal/fileutil"
	"github.com/cameronsjo/stevedore/internal/run"
)

// Package names in Docker's apt repository.
const (
	PackageEngine = "docker-ce"
	PackageCLI    = "docker-ce-cli"
)

// enginePackages are installed alongside docker-ce.
var enginePackages = []string{
	"containerd.io",
	"docker-buildx-plugin",
	"docker-compose-plugin",
	"docker-ce-rootless-extras",
}

// conflictPackages are distro-shipped packages that collide with the
// upstream engine. Removal failures are tolerated per package.
var conflictPackages = []string{
	"docker.io",
	"docker-doc",
	"docker-compose",
	"podman-docker",
	"containerd",
	"runc",
}

const fetchTimeout = 30 * time.Second

// Client performs apt operations through a Runner. In dry-run mode the
// filesystem mutations (keyring, source list) are traced to Out instead
// of performed; command mutations are handled by the DryRun runner.
type Client struct {
	Runner run.Runner
	HTTP   *http.Client
	DryRun bool
	Out    io.Writer
}

// NewClient returns a Client using the given runner for commands.
func NewClient(runner run.Runner) *Client {
	return &Client{
		Runner: runner,
		HTTP:   &http.Client{Timeout: fetchTimeout},
		Out:    os.Stdout,
	}
}

// EnsureKeyring makes sure the repository signing key exists at path,
// fetching it from keyURL when absent. Returns true when the key was
// written.
func (c *Client) EnsureKeyring(ctx context.Context, keyURL, path string) (bool, error) {
	if fileutil.Exists(path) {
		return false, nil
	}

	if c.DryRun {
		run.Trace(c.Out, "curl", "-fsSL", keyURL, "-o", path)
		return true, nil
	}

	if _, err := fileutil.EnsureDir(filepath.Dir(path), 0755); err != nil {
		return false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, keyURL, nil)
	if err != nil {
		return false, fmt.Errorf("build key request: %w", err)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return false, fmt.Errorf("fetch signing key: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("fetch signing key: unexpected status %s", resp.Status)
	}

	key, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("read signing key: %w", err)
	}

	if err := fileutil.WriteFileAtomic(path, key, 0644); err != nil {
		return false, fmt.Errorf("write signing key: %w", err)
	}

	return true, nil
}

// SourceLine builds the apt source entry for the repository.
func SourceLine(arch, keyringPath, downloadURL, distro, codename, channel string) string {
	return fmt.Sprintf("deb [arch=%s signed-by=%s] %s/linux/%s %s %s",
		arch, keyringPath, strings.TrimRight(downloadURL, "/"), distro, codename, channel)
}

// KeyURL builds the signing key URL for a distribution.
func KeyURL(downloadURL, distro string) string {
	return fmt.Sprintf("%s/linux/%s/gpg", strings.TrimRight(downloadURL, "/"), distro)
}

// EnsureSourceLine makes sure the source file at path consists of exactly
// the wanted line, replacing it when it differs. Returns true when the
// file was written.
func (c *Client) EnsureSourceLine(line, path string) (bool, error) {
	present, err := fileutil.ContainsLine(path, line)
	if err != nil {
		return false, err
	}
	if present {
		return false, nil
	}

	if c.DryRun {
		run.Trace(c.Out, "sh", "-c", fmt.Sprintf("echo %q > %s", line, path))
		return true, nil
	}

	if err := fileutil.WriteFileAtomic(path, []byte(line+"\n"), 0644); err != nil {
		return false, fmt.Errorf("write source list: %w", err)
	}

	return true, nil
}

// Update refreshes the package index.
func (c *Client) Update(ctx context.Context) error {
	if err := c.Runner.Run(ctx, "apt-get", "update", "-qq"); err != nil {
		return fmt.Errorf("refresh package index: %w", err)
	}
	return nil
}

// Madison lists the candidate versions the index knows for pkg, newest
// first, by parsing `apt-cache madison` output:
//
//	docker-ce | 5:28.3.3-1~ubuntu.24.04~noble | https://... noble/stable amd64 Packages
func (c *Client) Madison(ctx context.Context, pkg string) ([]string, error) {
	out, err := c.Runner.Query(ctx, "apt-cache", "madison", pkg)
	if err != nil {
		return nil, fmt.Errorf("list %s versions: %w", pkg, err)
	}

	var versions []string
	for _, line := range strings.Split(out, "\n") {
		parts := strings.Split(line, "|")
		if len(parts) < 2 {
			continue
		}
		if v := strings.TrimSpace(parts[1]); v != "" {
			versions = append(versions, v)
		}
	}

	return versions, nil
}

// InstallCLI installs or upgrades docker-ce-cli, pinned when pinnedVersion
// is non-empty.
func (c *Client) InstallCLI(ctx context.Context, pinnedVersion string) error {
	pkg := PackageCLI
	if pinnedVersion != "" {
		pkg = PackageCLI + "=" + pinnedVersion
	}

	if err := c.Runner.Run(ctx, "apt-get", "install", "-y", "-qq", pkg); err != nil {
		return fmt.Errorf("install cli: %w", err)
	}
	return nil
}

// InstallEngine installs or upgrades docker-ce and its companion
// packages, with the engine pinned when pinnedVersion is non-empty.
func (c *Client) InstallEngine(ctx context.Context, pinnedVersion string) error {
	engine := PackageEngine
	if pinnedVersion != "" {
		engine = PackageEngine + "=" + pinnedVersion
	}

	args := append([]string{"install", "-y", "-qq", engine}, enginePackages...)
	if err := c.Runner.Run(ctx, "apt-get", args...); err != nil {
		return fmt.Errorf("install engine: %w", err)
	}
	return nil
}

// RemoveConflicts uninstalls distro-shipped docker packages. Each removal
// is best-effort; packages that are not installed simply fail to remove.
func (c *Client) RemoveConflicts(ctx context.Context) {
	for _, pkg := range conflictPackages {
		_ = c.Runner.Run(ctx, "apt-get", "remove", "-y", "-qq", pkg)
	}
}

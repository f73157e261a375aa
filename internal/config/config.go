// Package config assembles the immutable settings for a provisioning run.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Defaults matching Docker's upstream install flow.
const (
	DefaultChannel     = "stable"
	DefaultDownloadURL = "https://download.docker.com"

	// DefaultFile provides host-level defaults below env vars and flags.
	DefaultFile = "/etc/stevedore.yaml"

	// Fixed apt artifact paths, overridable for tests.
	DefaultKeyringPath    = "/etc/apt/keyrings/docker.asc"
	DefaultSourceListPath = "/etc/apt/sources.list.d/docker.list"
)

// validChannels are the apt repository tracks Docker publishes.
var validChannels = map[string]bool{
	"stable":  true,
	"test":    true,
	"nightly": true,
}

// Settings holds everything a provisioning run needs. It is populated once
// at startup and never mutated afterwards.
type Settings struct {
	// Channel is the repository track: stable, test, or nightly.
	Channel string

	// DownloadURL is the distribution host serving packages and the
	// signing key.
	DownloadURL string

	// Pin is the requested engine version ("28.3" or "28.3.3"); empty
	// means latest.
	Pin string

	// DryRun prints mutating commands instead of executing them.
	DryRun bool

	// AssumeYes skips the interactive confirmation prompt.
	AssumeYes bool

	// SkipService leaves the systemd unit untouched after install.
	SkipService bool

	// RemoveConflicts uninstalls distro-shipped docker packages first.
	RemoveConflicts bool

	// KeyringPath is where the repository signing key lives.
	KeyringPath string

	// SourceListPath is the apt source list written for the repository.
	SourceListPath string
}

// fileDefaults is the shape of the optional defaults file.
type fileDefaults struct {
	Channel     string `yaml:"channel"`
	DownloadURL string `yaml:"download_url"`
	Version     string `yaml:"version"`
}

// Load builds Settings from the defaults file (if present) and the
// CHANNEL, DOWNLOAD_URL, and DOCKER_VERSION environment variables.
// Flag overrides are applied by the caller afterwards, before Validate.
func Load() (*Settings, error) {
	return LoadFrom(DefaultFile)
}

// LoadFrom builds Settings as Load does, reading defaults from an
// alternate file.
func LoadFrom(defaultsPath string) (*Settings, error) {
	return load(defaultsPath)
}

func load(defaultsPath string) (*Settings, error) {
	s := &Settings{
		Channel:        DefaultChannel,
		DownloadURL:    DefaultDownloadURL,
		KeyringPath:    DefaultKeyringPath,
		SourceListPath: DefaultSourceListPath,
	}

	if data, err := os.ReadFile(defaultsPath); err == nil {
		var fd fileDefaults
		if err := yaml.Unmarshal(data, &fd); err != nil {
			return nil, fmt.Errorf("parse %s: %w", defaultsPath, err)
		}
		if fd.Channel != "" {
			s.Channel = fd.Channel
		}
		if fd.DownloadURL != "" {
			s.DownloadURL = fd.DownloadURL
		}
		if fd.Version != "" {
			s.Pin = fd.Version
		}
	}

	if v := os.Getenv("CHANNEL"); v != "" {
		s.Channel = v
	}
	if v := os.Getenv("DOWNLOAD_URL"); v != "" {
		s.DownloadURL = v
	}
	if v := os.Getenv("DOCKER_VERSION"); v != "" {
		s.Pin = v
	}

	return s, nil
}

// Validate checks the assembled settings.
func (s *Settings) Validate() error {
	if !validChannels[s.Channel] {
		return fmt.Errorf("invalid channel %q (want stable, test, or nightly)", s.Channel)
	}

	if !strings.HasPrefix(s.DownloadURL, "https://") && !strings.HasPrefix(s.DownloadURL, "http://") {
		return fmt.Errorf("invalid download URL %q", s.DownloadURL)
	}

	return nil
}

// Desired returns the version the run should converge on: the pin when
// set, otherwise the "latest" sentinel.
func (s *Settings) Desired() string {
	if s.Pin != "" {
		return s.Pin
	}
	return "latest"
}

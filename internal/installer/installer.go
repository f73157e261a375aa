// Package installer orchestrates the provisioning flow: detect, configure
// the repository, resolve versions, install packages, activate the
// service.
package installer

import (
	"context"
	"fmt"

	"github.com/cameronsjo/stevedore/internal/apt"
	"github.com/cameronsjo/stevedore/internal/config"
	"github.com/cameronsjo/stevedore/internal/osrelease"
	"github.com/cameronsjo/stevedore/internal/run"
	"github.com/cameronsjo/stevedore/internal/systemd"
	"github.com/cameronsjo/stevedore/internal/version"
)

// State is the terminal outcome of a run.
type State string

const (
	// StateAlreadySatisfied means the installed engine already matched
	// the desired version and nothing was installed.
	StateAlreadySatisfied State = "already-satisfied"

	// StateProvisioned means packages were installed or upgraded.
	StateProvisioned State = "provisioned"
)

// Outcome reports what a run did.
type Outcome struct {
	State State

	// Host is the detected distribution identity.
	Host *osrelease.Info

	// KeyringWritten and SourceWritten report the idempotent repository
	// steps.
	KeyringWritten bool
	SourceWritten  bool

	// Resolved holds the pinned package versions, nil for latest.
	Resolved *version.Resolution

	// Installed is the engine version reported after the run.
	Installed string

	// ServiceActivated is true when the systemd unit was enabled.
	ServiceActivated bool

	// Warnings collects tolerated failures.
	Warnings []string
}

// Installer runs the provisioning flow. The function fields exist so
// tests can substitute detection and service activation.
type Installer struct {
	Settings *config.Settings
	Runner   run.Runner
	Apt      *apt.Client

	// Progress receives step announcements. Nil disables them.
	Progress func(step int, format string, args ...any)

	detect           func(context.Context, run.Runner) (*osrelease.Info, error)
	systemdAvailable func() bool
}

// New builds an Installer over the given settings and runner.
func New(cfg *config.Settings, runner run.Runner, aptClient *apt.Client) *Installer {
	return &Installer{
		Settings:         cfg,
		Runner:           runner,
		Apt:              aptClient,
		detect:           osrelease.Detect,
		systemdAvailable: systemd.Available,
	}
}

func (i *Installer) step(n int, format string, args ...any) {
	if i.Progress != nil {
		i.Progress(n, format, args...)
	}
}

func (i *Installer) warnf(out *Outcome, format string, args ...any) {
	out.Warnings = append(out.Warnings, fmt.Sprintf(format, args...))
}

// Run executes the flow. Any returned error is fatal; tolerated failures
// land in Outcome.Warnings.
func (i *Installer) Run(ctx context.Context) (*Outcome, error) {
	cfg := i.Settings
	out := &Outcome{}

	// The pin is validated before anything touches the package manager.
	if cfg.Pin != "" {
		if err := version.ValidatePin(cfg.Pin); err != nil {
			return nil, err
		}
	}

	i.step(1, "detecting distribution")
	host, err := i.detect(ctx, i.Runner)
	if err != nil {
		return nil, err
	}
	out.Host = host

	i.step(2, "configuring apt repository for %s/%s", host.ID, host.Codename)
	keyURL := apt.KeyURL(cfg.DownloadURL, host.ID)
	out.KeyringWritten, err = i.Apt.EnsureKeyring(ctx, keyURL, cfg.KeyringPath)
	if err != nil {
		return nil, err
	}

	line := apt.SourceLine(host.Arch, cfg.KeyringPath, cfg.DownloadURL, host.ID, host.Codename, cfg.Channel)
	out.SourceWritten, err = i.Apt.EnsureSourceLine(line, cfg.SourceListPath)
	if err != nil {
		return nil, err
	}

	i.step(3, "refreshing package index")
	if err := i.Apt.Update(ctx); err != nil {
		return nil, err
	}

	if cfg.Pin != "" {
		i.step(4, "resolving version pin %s", cfg.Pin)
		engineVersions, err := i.Apt.Madison(ctx, apt.PackageEngine)
		if err != nil {
			return nil, err
		}
		cliVersions, err := i.Apt.Madison(ctx, apt.PackageCLI)
		if err != nil {
			return nil, err
		}

		out.Resolved, err = version.ResolvePin(cfg.Pin, engineVersions, cliVersions)
		if err != nil {
			return nil, err
		}
		if out.Resolved.CLI == "" {
			i.warnf(out, "no docker-ce-cli version matching %q, installing latest cli", cfg.Pin)
		}
	}

	installed := version.InstalledEngine(ctx, i.Runner)
	if version.Satisfied(installed, cfg.Desired()) {
		out.State = StateAlreadySatisfied
		out.Installed = installed
		return out, nil
	}

	if cfg.RemoveConflicts {
		i.step(5, "removing conflicting packages")
		i.Apt.RemoveConflicts(ctx)
	}

	i.step(6, "installing packages")
	var pinnedCLI, pinnedEngine string
	if out.Resolved != nil {
		pinnedCLI = out.Resolved.CLI
		pinnedEngine = out.Resolved.Engine
	}

	if err := i.Apt.InstallCLI(ctx, pinnedCLI); err != nil {
		return nil, err
	}
	if err := i.Apt.InstallEngine(ctx, pinnedEngine); err != nil {
		return nil, err
	}

	if !cfg.SkipService {
		i.step(7, "activating service")
		if i.systemdAvailable() {
			if err := systemd.EnableNow(ctx, i.Runner, systemd.Unit); err != nil {
				i.warnf(out, "service activation failed: %v", err)
			} else {
				out.ServiceActivated = true
			}
		} else {
			i.warnf(out, "no service manager found, skipping service activation")
		}
	}

	out.State = StateProvisioned
	out.Installed = version.InstalledEngine(ctx, i.Runner)
	return out, nil
}

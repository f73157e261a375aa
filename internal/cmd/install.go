package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cameronsjo/stevedore/internal/apt"
	"github.com/cameronsjo/stevedore/internal/config"
	"github.com/cameronsjo/stevedore/internal/engine"
	"github.com/cameronsjo/stevedore/internal/installer"
	"github.com/cameronsjo/stevedore/internal/preflight"
	"github.com/cameronsjo/stevedore/internal/run"
	"github.com/cameronsjo/stevedore/internal/ui"
	"github.com/cameronsjo/stevedore/internal/version"
)

var (
	installDryRun          bool
	installYes             bool
	installSkipService     bool
	installRemoveConflicts bool
	installChannel         string
	installDownloadURL     string
	installVersion         string
)

// installCmd provisions the Docker Engine packages.
var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install or upgrade the Docker Engine",
	Long: `Install or upgrade Docker Engine from Docker's apt repository.

The run is idempotent: the signing key and source list are only written
when missing or stale, and a host already at the pinned version exits
without touching the package manager.

Examples:
  stevedore install                          # latest from the stable channel
  stevedore install --docker-version 28.3    # newest 28.3.x
  stevedore install -n                       # dry run, print commands only
  CHANNEL=test stevedore install             # test channel via environment`,
	Args: cobra.NoArgs,
	RunE: runInstall,
}

func init() {
	installCmd.Flags().BoolVarP(&installDryRun, "dry-run", "n", false, "Print commands with a + prefix instead of executing")
	installCmd.Flags().BoolVarP(&installYes, "yes", "y", false, "Skip the confirmation prompt")
	installCmd.Flags().BoolVar(&installSkipService, "skip-service", false, "Do not enable or start the docker service")
	installCmd.Flags().BoolVar(&installRemoveConflicts, "remove-conflicts", false, "Remove distro docker packages (docker.io, podman-docker, ...) first")
	installCmd.Flags().StringVar(&installChannel, "channel", "", "Repository channel: stable, test, or nightly")
	installCmd.Flags().StringVar(&installDownloadURL, "download-url", "", "Package download mirror")
	installCmd.Flags().StringVar(&installVersion, "docker-version", "", "Engine version pin, e.g. 28.3 or 28.3.3")

	rootCmd.AddCommand(installCmd)
}

// defaultsFile is the host defaults file, swapped out by tests.
var defaultsFile = config.DefaultFile

// settingsFromFlags layers flag values over env/file configuration.
func settingsFromFlags() (*config.Settings, error) {
	cfg, err := config.LoadFrom(defaultsFile)
	if err != nil {
		return nil, err
	}

	if installChannel != "" {
		cfg.Channel = installChannel
	}
	if installDownloadURL != "" {
		cfg.DownloadURL = installDownloadURL
	}
	if installVersion != "" {
		cfg.Pin = installVersion
	}
	cfg.DryRun = installDryRun
	cfg.AssumeYes = installYes
	cfg.SkipService = installSkipService
	cfg.RemoveConflicts = installRemoveConflicts

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Pin != "" {
		if err := version.ValidatePin(cfg.Pin); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func runInstall(cmd *cobra.Command, args []string) error {
	cfg, err := settingsFromFlags()
	if err != nil {
		return err
	}

	if missing := preflight.CheckRequiredBinaries(); len(missing) > 0 {
		names := make([]string, 0, len(missing))
		for _, bin := range missing {
			names = append(names, bin.Name)
		}
		return fmt.Errorf("missing required tools: %s", strings.Join(names, ", "))
	}

	if !cfg.DryRun && !preflight.IsRoot() {
		return fmt.Errorf("package installation needs root; re-run with sudo or use --dry-run")
	}

	if !cfg.DryRun && !cfg.AssumeYes && isTerminal() {
		question := fmt.Sprintf("Install Docker Engine (%s) from the %s channel?", cfg.Desired(), cfg.Channel)
		ok, err := promptYesNo(question)
		if err != nil {
			return err
		}
		if !ok {
			ui.Info("Aborted.")
			return nil
		}
	}

	runner := newRunner(cfg)
	aptClient := apt.NewClient(runner)
	aptClient.DryRun = cfg.DryRun

	inst := installer.New(cfg, runner, aptClient)
	inst.Progress = func(step int, format string, args ...any) {
		ui.Step(step, format, args...)
	}

	out, err := inst.Run(cmd.Context())
	if err != nil {
		return err
	}

	for _, warning := range out.Warnings {
		ui.Warning("%s", warning)
	}

	if !out.KeyringWritten {
		ui.Skip("signing key already in place")
	}
	if !out.SourceWritten {
		ui.Skip("apt source already configured")
	}

	if out.State == installer.StateAlreadySatisfied {
		ui.Success("docker %s already installed, nothing to do", out.Installed)
		return nil
	}

	ui.Package("Docker Engine provisioned on %s/%s", out.Host.ID, out.Host.Codename)
	if !cfg.DryRun {
		reportVersions(cmd.Context(), runner)
	}

	return nil
}

// reportVersions prints what ended up installed, including the daemon's
// own view when it is reachable.
func reportVersions(ctx context.Context, runner run.Runner) {
	if v, err := runner.Query(ctx, "docker", "--version"); err == nil {
		ui.Info("%s", v)
	}
	if v, err := runner.Query(ctx, "docker", "compose", "version"); err == nil {
		ui.Info("%s", v)
	}

	client, err := engine.NewClient()
	if err != nil {
		return
	}
	defer client.Close()

	if err := client.Ping(ctx); err != nil {
		ui.Warning("daemon not reachable yet: %v", err)
		return
	}
	if v, err := client.ServerVersion(ctx); err == nil {
		ui.Success("daemon responding, server version %s", v)
	}
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cameronsjo/stevedore/internal/config"
	"github.com/cameronsjo/stevedore/internal/engine"
	"github.com/cameronsjo/stevedore/internal/fileutil"
	"github.com/cameronsjo/stevedore/internal/osrelease"
	"github.com/cameronsjo/stevedore/internal/run"
	"github.com/cameronsjo/stevedore/internal/ui"
	"github.com/cameronsjo/stevedore/internal/version"
)

// statusCmd shows the provisioning state of the host.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show detected host, repository state, and installed versions",
	Long:  "Display the detected distribution, apt repository artifacts, installed engine versions, and daemon reachability.",
	Args:  cobra.NoArgs,
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()
	runner := &run.Exec{}

	cfg, err := config.LoadFrom(defaultsFile)
	if err != nil {
		ui.Error("Failed to load config: %v", err)
		return
	}

	ui.Header("Host")
	host, err := osrelease.Detect(ctx, runner)
	if err != nil {
		ui.Error("  %v", err)
	} else {
		fmt.Printf("  Distribution: %s %s (%s)\n", host.ID, host.Codename, host.Arch)
	}

	fmt.Println()
	ui.Header("Repository")
	fmt.Printf("  Channel: %s\n", cfg.Channel)
	fmt.Printf("  Mirror:  %s\n", cfg.DownloadURL)
	printArtifact("Signing key", cfg.KeyringPath)
	printArtifact("Source list", cfg.SourceListPath)

	fmt.Println()
	ui.Header("Engine")
	if installed := version.InstalledEngine(ctx, runner); installed != "" {
		ui.Success("docker %s installed", installed)
	} else {
		ui.Warning("docker not installed")
		return
	}
	if v, err := runner.Query(ctx, "docker", "compose", "version"); err == nil {
		fmt.Printf("  %s\n", v)
	}

	client, err := engine.NewClient()
	if err != nil {
		ui.Warning("daemon client unavailable: %v", err)
		return
	}
	defer client.Close()

	if err := client.Ping(ctx); err != nil {
		ui.Warning("daemon not reachable")
		return
	}
	if v, err := client.ServerVersion(ctx); err == nil {
		ui.Success("daemon responding, server version %s", v)
	}
}

func printArtifact(name, path string) {
	if fileutil.Exists(path) {
		ui.Success("%s: %s", name, path)
	} else {
		ui.Warning("%s missing: %s", name, path)
	}
}

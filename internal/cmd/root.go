// Package cmd provides the CLI commands for stevedore.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

const appVersion = "0.3.1"

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "stevedore",
	Short: "Provision the Docker Engine on Debian-family hosts",
	Long: `stevedore - Docker Engine provisioning for apt systems

Idempotently installs or upgrades Docker Engine from Docker's apt
repository on ubuntu, debian, and raspbian: signing key, source list,
version pinning, package install, and service activation.

COMMANDS
  install               Install or upgrade the engine
    --dry-run, -n       Print commands with a + prefix, execute nothing
    --docker-version    Pin an engine version (e.g. 28.3 or 28.3.3)
    --channel           Repository track: stable, test, nightly
    --download-url      Alternate package mirror
    --yes, -y           Skip the confirmation prompt
    --skip-service      Leave the systemd unit alone
    --remove-conflicts  Remove docker.io/podman-docker style packages first
  status                Show detected host, repo state, and versions
  doctor                Pre-flight checks for the apt tooling
  update                Update stevedore itself

ENVIRONMENT
  CHANNEL               Same as --channel (default stable)
  DOWNLOAD_URL          Same as --download-url
  DOCKER_VERSION        Same as --docker-version`,
	Version: appVersion,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetVersionTemplate("stevedore version {{.Version}}\n")
}

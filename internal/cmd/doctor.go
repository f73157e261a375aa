package cmd

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/cameronsjo/stevedore/internal/config"
	"github.com/cameronsjo/stevedore/internal/preflight"
	"github.com/cameronsjo/stevedore/internal/ui"
)

const mirrorCheckTimeout = 5 * time.Second

// doctorCmd runs pre-flight checks.
var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Pre-flight checks for provisioning",
	Long:  "Check for the apt tooling, root privilege, and mirror reachability before an install.",
	Args:  cobra.NoArgs,
	Run:   runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) {
	ui.Info("Running pre-flight checks...")
	fmt.Println()

	passed := 0
	failed := 0
	warned := 0

	for _, bin := range preflight.GetRequiredBinaries() {
		if preflight.IsBinaryAvailable(bin.Name) {
			ui.Green.Printf("  * %s\n", bin.Name)
			passed++
		} else {
			ui.Red.Printf("  x %s (%s)\n", bin.Name, bin.InstallHint)
			failed++
		}
	}

	for _, bin := range preflight.GetOptionalBinaries() {
		if preflight.IsBinaryAvailable(bin.Name) {
			ui.Green.Printf("  * %s\n", bin.Name)
			passed++
		} else {
			ui.Yellow.Printf("  ! %s (%s)\n", bin.Name, bin.InstallHint)
			warned++
		}
	}

	if preflight.IsRoot() {
		ui.Green.Println("  * running as root")
		passed++
	} else {
		ui.Yellow.Println("  ! not running as root (install will need sudo)")
		warned++
	}

	cfg, err := config.LoadFrom(defaultsFile)
	if err == nil {
		if err := checkMirror(cfg.DownloadURL); err == nil {
			ui.Green.Printf("  * mirror reachable: %s\n", cfg.DownloadURL)
			passed++
		} else {
			ui.Red.Printf("  x mirror unreachable: %s (%v)\n", cfg.DownloadURL, err)
			failed++
		}
	}

	fmt.Println()
	if failed > 0 {
		ui.Fatal("%d passed, %d warnings, %d failed", passed, warned, failed)
	}
	ui.Success("%d passed, %d warnings, %d failed", passed, warned, failed)
}

// checkMirror probes the download host.
func checkMirror(url string) error {
	client := &http.Client{Timeout: mirrorCheckTimeout}
	resp, err := client.Head(url)
	if err != nil {
		return err
	}
	resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("status %s", resp.Status)
	}
	return nil
}

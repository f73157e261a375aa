package cmd

import (
	"bytes"
	"path/filepath"
	"testing"
)

// executeCmd executes the root command with the given args and returns
// the output.
func executeCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	err := rootCmd.Execute()
	return buf.String(), err
}

// resetInstallFlags restores the package-level install flag state.
func resetInstallFlags(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		installDryRun = false
		installYes = false
		installSkipService = false
		installRemoveConflicts = false
		installChannel = ""
		installDownloadURL = ""
		installVersion = ""
	})
}

// clearConfigEnv detaches the test from the ambient environment and the
// host defaults file.
func clearConfigEnv(t *testing.T) {
	t.Helper()
	t.Setenv("CHANNEL", "")
	t.Setenv("DOWNLOAD_URL", "")
	t.Setenv("DOCKER_VERSION", "")

	orig := defaultsFile
	defaultsFile = filepath.Join(t.TempDir(), "stevedore.yaml")
	t.Cleanup(func() { defaultsFile = orig })
}

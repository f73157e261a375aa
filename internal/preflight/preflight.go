// Package preflight provides pre-flight validation for required binaries
// and system checks.
package preflight

import (
	"os/exec"

	"golang.org/x/sys/unix"
)

// BinaryCheck represents a required binary and its purpose.
type BinaryCheck struct {
	Name        string
	Required    bool   // false = warning only
	InstallHint string
}

// requiredBinaries defines binaries that must be present to provision
// packages at all.
var requiredBinaries = []BinaryCheck{
	{
		Name:        "apt-get",
		Required:    true,
		InstallHint: "stevedore only supports apt-based systems (ubuntu, debian, raspbian)",
	},
	{
		Name:        "dpkg",
		Required:    true,
		InstallHint: "stevedore only supports apt-based systems (ubuntu, debian, raspbian)",
	},
	{
		Name:        "apt-cache",
		Required:    true,
		InstallHint: "install the apt package tools: apt-get install apt",
	},
}

// optionalBinaries enhance the flow but are not strictly required.
var optionalBinaries = []BinaryCheck{
	{
		Name:        "systemctl",
		Required:    false,
		InstallHint: "without systemd the docker service is not enabled automatically",
	},
	{
		Name:        "gpg",
		Required:    false,
		InstallHint: "install gnupg: apt-get install gnupg",
	},
	{
		Name:        "curl",
		Required:    false,
		InstallHint: "install curl: apt-get install curl",
	},
	{
		Name:        "docker",
		Required:    false,
		InstallHint: "docker is not installed yet; stevedore will install it",
	},
}

// CheckRequiredBinaries returns the missing required binaries.
func CheckRequiredBinaries() []BinaryCheck {
	var missing []BinaryCheck

	for _, bin := range requiredBinaries {
		if _, err := exec.LookPath(bin.Name); err != nil {
			missing = append(missing, bin)
		}
	}

	return missing
}

// CheckOptionalBinaries returns the missing optional binaries.
func CheckOptionalBinaries() []BinaryCheck {
	var missing []BinaryCheck

	for _, bin := range optionalBinaries {
		if _, err := exec.LookPath(bin.Name); err != nil {
			missing = append(missing, bin)
		}
	}

	return missing
}

// CheckAll performs all pre-flight checks. Errors are missing required
// binaries, warnings are missing optional binaries.
func CheckAll() (warnings []string, errors []string) {
	for _, bin := range CheckRequiredBinaries() {
		errors = append(errors, bin.Name+": "+bin.InstallHint)
	}

	for _, bin := range CheckOptionalBinaries() {
		warnings = append(warnings, bin.Name+": "+bin.InstallHint)
	}

	return warnings, errors
}

// IsBinaryAvailable checks if a specific binary is available in PATH.
func IsBinaryAvailable(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// IsRoot reports whether the process runs with effective uid 0. Package
// installation and writes under /etc need root.
func IsRoot() bool {
	return unix.Geteuid() == 0
}

// GetRequiredBinaries returns only required binaries.
func GetRequiredBinaries() []BinaryCheck {
	return requiredBinaries
}

// GetOptionalBinaries returns only optional binaries.
func GetOptionalBinaries() []BinaryCheck {
	return optionalBinaries
}

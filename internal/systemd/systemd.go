// Package systemd activates services when a systemd init is present.
package systemd

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/cameronsjo/stevedore/internal/run"
)

// Unit is the engine's service unit.
const Unit = "docker"

// Available reports whether systemctl is on PATH. Containers and chroots
// typically run without an init system.
func Available() bool {
	_, err := exec.LookPath("systemctl")
	return err == nil
}

// EnableNow enables and starts the unit in one step. Callers treat a
// failure as a warning, not an abort.
func EnableNow(ctx context.Context, runner run.Runner, unit string) error {
	if err := runner.Run(ctx, "systemctl", "enable", "--now", unit); err != nil {
		return fmt.Errorf("enable %s service: %w", unit, err)
	}
	return nil
}

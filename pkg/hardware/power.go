package hardware

import (
	"context"
	"fmt"
)

// Restart reboots the device. Best-effort and synchronous: the quit module
// calls it after explicit confirmation, at which point the UI is done.
func (e *Engine) Restart() error {
	ctx, cancel := context.WithTimeout(context.Background(), e.cfg.CommandTimeout)
	defer cancel()
	if out, err := e.run.Run(ctx, "sudo", "reboot"); err != nil {
		return fmt.Errorf("hardware: reboot: %w: %s", err, truncateMsg(out, 80))
	}
	return nil
}

// Shutdown powers the device off. Same contract as Restart.
func (e *Engine) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), e.cfg.CommandTimeout)
	defer cancel()
	if out, err := e.run.Run(ctx, "sudo", "shutdown", "-h", "now"); err != nil {
		return fmt.Errorf("hardware: shutdown: %w: %s", err, truncateMsg(out, 80))
	}
	return nil
}

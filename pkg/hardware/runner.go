package hardware

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"unicode/utf8"
)

// Runner executes an external tool and returns its combined output. The
// engine talks to iwlist, wpa_supplicant, dhclient, ip, and bluetoothctl
// exclusively through this interface so tests can inject canned output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// ErrTimeout marks an invocation that exceeded its deadline.
var ErrTimeout = errors.New("command timed out")

// ExecRunner runs tools via os/exec, capturing combined stdout and stderr.
type ExecRunner struct{}

// Run executes name with args under ctx. Output is returned even on failure
// so callers can attempt a degraded parse of partial results.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.CombinedOutput()
	if ctx.Err() == context.DeadlineExceeded {
		return string(out), ErrTimeout
	}
	return string(out), err
}

// truncateMsg bounds a tool error message for display in the tiny UI. The
// cut lands on a rune boundary so multibyte tool output stays valid UTF-8.
func truncateMsg(s string, n int) string {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

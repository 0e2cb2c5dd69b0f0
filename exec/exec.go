// Package exec runs a single non-interactive shell command with a timeout
// and captures its complete output. Output is never truncated here; clipping
// for display is a presentation concern handled by callers.
//
// Timeout policy: an expired timeout terminates the whole process group and
// reports a CommandResult with exit code -1, partial output preserved and a
// timeout note appended to stderr. It is never surfaced as a hard error, so
// the model observes the timeout and can adapt.
package exec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	osexec "os/exec"
	"syscall"
	"time"

	"github.com/mkrawiec/relay"
)

// DefaultTimeout bounds command execution when the caller supplies none.
const DefaultTimeout = 120 * time.Second

// Run executes command with bash -c in dir, bounded by timeout. The returned
// CommandResult is structurally complete even on non-zero exit. The error
// return is reserved for failures to spawn the process at all.
func Run(ctx context.Context, command, dir string, timeout time.Duration) (relay.CommandResult, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := osexec.CommandContext(ctx, "bash", "-c", command)
	cmd.Dir = dir
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return relay.CommandResult{}, fmt.Errorf("start command: %w", err)
	}
	waitErr := cmd.Wait()

	result := relay.CommandResult{
		Command: command,
		Stdout:  stdout.String(),
		Stderr:  stderr.String(),
	}

	if waitErr != nil {
		var exitErr *osexec.ExitError
		isRealExit := errors.As(waitErr, &exitErr) && exitErr.ExitCode() >= 0
		if !isRealExit && ctx.Err() != nil {
			// The deadline is ours; anything else is the caller canceling.
			note := fmt.Sprintf("command timed out after %s", timeout)
			if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
				note = "command canceled"
			}
			result.ExitCode = -1
			if result.Stderr != "" {
				result.Stderr += "\n"
			}
			result.Stderr += note
			return result, nil
		}
		if isRealExit {
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.ExitCode = -1
		}
	}

	return result, nil
}

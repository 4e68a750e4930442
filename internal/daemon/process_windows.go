//go:build windows

package daemon

import (
	"os"
	"os/exec"
	"syscall"
)

// DETACHED_PROCESS, not exported by the syscall package.
const detachedProcess = 0x00000008

func newController() ProcessController {
	return windowsController{}
}

type windowsController struct{}

// Alive relies on os.FindProcess failing for dead pids on Windows,
// where it opens a real process handle.
func (windowsController) Alive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	proc.Release()
	return true
}

// Terminate kills outright: Windows has no graceful termination signal
// for a process without a console, so the escalation path collapses.
func (c windowsController) Terminate(pid int) error {
	return c.Kill(pid)
}

func (windowsController) Kill(pid int) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return proc.Kill()
}

func (windowsController) StartDetached(exe string, args ...string) (int, error) {
	cmd := exec.Command(exe, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP | detachedProcess,
	}

	if err := cmd.Start(); err != nil {
		return 0, err
	}

	pid := cmd.Process.Pid
	if err := cmd.Process.Release(); err != nil {
		return pid, err
	}
	return pid, nil
}

//go:build unix

package runner

import (
	"os/exec"
	"syscall"
)

// setProcessGroup puts the shell and the interpreter in their own process
// group so a timeout kills both.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}

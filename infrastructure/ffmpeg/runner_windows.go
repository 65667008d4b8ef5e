//go:build windows

package ffmpeg

import (
	"os/exec"
	"syscall"
)

// detach starts cmd in a new process group so console Ctrl+C events skip it
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP}
}
